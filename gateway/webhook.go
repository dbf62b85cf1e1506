package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SignatureHeader carries the webhook signature in the form
// "t=<unix>,v1=<hex hmac-sha256>" where the MAC covers "<t>.<body>".
const SignatureHeader = "X-Gateway-Signature"

// signatureTolerance bounds how old a signed timestamp may be, limiting
// replay of captured webhook requests.
const signatureTolerance = 5 * time.Minute

var (
	ErrSignatureInvalid = errors.New("invalid webhook signature")
	ErrMalformedEvent   = errors.New("malformed webhook event")
)

type EventType string

const (
	EventSessionCompleted EventType = "checkout.session.completed"
	EventSessionFailed    EventType = "checkout.session.failed"
	EventSessionExpired   EventType = "checkout.session.expired"
)

// Event is the decoded webhook envelope. Only the session id is consumed:
// amounts and statuses are re-fetched from the gateway, never trusted here.
type Event struct {
	ID   string    `json:"id"`
	Type EventType `json:"type"`
	Data struct {
		SessionID string `json:"session_id"`
	} `json:"data"`
}

// VerifySignature checks the request body against the signature header.
// It must pass before any field of the payload is used.
func VerifySignature(body []byte, header, secret string, now time.Time) error {
	if header == "" {
		return fmt.Errorf("missing signature header: %w", ErrSignatureInvalid)
	}

	var ts int64
	var mac string
	for _, part := range strings.Split(header, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch key {
		case "t":
			parsed, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return fmt.Errorf("bad signature timestamp: %w", ErrSignatureInvalid)
			}
			ts = parsed
		case "v1":
			mac = value
		}
	}
	if ts == 0 || mac == "" {
		return fmt.Errorf("incomplete signature header: %w", ErrSignatureInvalid)
	}

	age := now.Sub(time.Unix(ts, 0))
	if age > signatureTolerance || age < -signatureTolerance {
		return fmt.Errorf("signature timestamp outside tolerance: %w", ErrSignatureInvalid)
	}

	h := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(h, "%d.", ts)
	h.Write(body)
	expected := hex.EncodeToString(h.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(mac))) {
		return ErrSignatureInvalid
	}
	return nil
}

// ParseEvent decodes a verified payload into one of the known event
// variants. Anything outside the closed set is rejected.
func ParseEvent(body []byte) (*Event, error) {
	var event Event
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrMalformedEvent)
	}
	if event.ID == "" {
		return nil, fmt.Errorf("event without id: %w", ErrMalformedEvent)
	}
	switch event.Type {
	case EventSessionCompleted, EventSessionFailed, EventSessionExpired:
	default:
		return nil, fmt.Errorf("unknown event type %q: %w", event.Type, ErrMalformedEvent)
	}
	if event.Data.SessionID == "" {
		return nil, fmt.Errorf("event without session id: %w", ErrMalformedEvent)
	}
	return &event, nil
}

// SignPayload produces the header value for a given body, the counterpart of
// VerifySignature. Used by tests and local gateway simulators.
func SignPayload(body []byte, secret string, now time.Time) string {
	ts := now.Unix()
	h := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(h, "%d.", ts)
	h.Write(body)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(h.Sum(nil)))
}
