package gateway

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "whsec_test_1234"

func TestVerifySignature_Valid(t *testing.T) {
	body := []byte(`{"id":"evt_1","type":"checkout.session.completed","data":{"session_id":"cs_1"}}`)
	now := time.Now()
	header := SignPayload(body, testSecret, now)

	err := VerifySignature(body, header, testSecret, now)
	assert.NoError(t, err)
}

func TestVerifySignature_MissingHeader(t *testing.T) {
	err := VerifySignature([]byte("{}"), "", testSecret, time.Now())
	assert.ErrorIs(t, err, ErrSignatureInvalid)
}

func TestVerifySignature_WrongSecret(t *testing.T) {
	body := []byte(`{"id":"evt_1"}`)
	now := time.Now()
	header := SignPayload(body, "whsec_other", now)

	err := VerifySignature(body, header, testSecret, now)
	assert.ErrorIs(t, err, ErrSignatureInvalid)
}

func TestVerifySignature_TamperedBody(t *testing.T) {
	body := []byte(`{"amount": 100}`)
	now := time.Now()
	header := SignPayload(body, testSecret, now)

	err := VerifySignature([]byte(`{"amount": 999}`), header, testSecret, now)
	assert.ErrorIs(t, err, ErrSignatureInvalid)
}

func TestVerifySignature_StaleTimestamp(t *testing.T) {
	body := []byte(`{"id":"evt_1"}`)
	signedAt := time.Now().Add(-10 * time.Minute)
	header := SignPayload(body, testSecret, signedAt)

	err := VerifySignature(body, header, testSecret, time.Now())
	assert.ErrorIs(t, err, ErrSignatureInvalid)
}

func TestVerifySignature_GarbageHeader(t *testing.T) {
	err := VerifySignature([]byte("{}"), "not-a-signature", testSecret, time.Now())
	assert.ErrorIs(t, err, ErrSignatureInvalid)
}

func TestParseEvent_KnownTypes(t *testing.T) {
	for _, eventType := range []EventType{EventSessionCompleted, EventSessionFailed, EventSessionExpired} {
		body := []byte(`{"id":"evt_1","type":"` + string(eventType) + `","data":{"session_id":"cs_1"}}`)
		event, err := ParseEvent(body)
		require.NoError(t, err)
		assert.Equal(t, eventType, event.Type)
		assert.Equal(t, "cs_1", event.Data.SessionID)
	}
}

func TestParseEvent_UnknownType(t *testing.T) {
	body := []byte(`{"id":"evt_1","type":"charge.refunded","data":{"session_id":"cs_1"}}`)
	_, err := ParseEvent(body)
	assert.ErrorIs(t, err, ErrMalformedEvent)
}

func TestParseEvent_MissingSessionID(t *testing.T) {
	body := []byte(`{"id":"evt_1","type":"checkout.session.completed","data":{}}`)
	_, err := ParseEvent(body)
	assert.ErrorIs(t, err, ErrMalformedEvent)
}

func TestParseEvent_MissingID(t *testing.T) {
	body := []byte(`{"type":"checkout.session.completed","data":{"session_id":"cs_1"}}`)
	_, err := ParseEvent(body)
	assert.ErrorIs(t, err, ErrMalformedEvent)
}

func TestParseEvent_NotJSON(t *testing.T) {
	_, err := ParseEvent([]byte("tran_status=A&tran_cartid=55"))
	assert.ErrorIs(t, err, ErrMalformedEvent)
}
