// Package analytics forwards purchase events to an external collector.
// Emission is fire-and-forget: a slow or dead collector never fails a
// checkout.
package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/oakmart-dev/storefront-api/models"
)

type Emitter interface {
	OrderConfirmed(ctx context.Context, order *models.Order)
}

type PurchaseEvent struct {
	Event     string    `json:"event"`
	OrderID   string    `json:"order_id"`
	SessionID string    `json:"session_id"`
	Amount    int64     `json:"amount"`
	Currency  string    `json:"currency"`
	ItemCount int       `json:"item_count"`
	Timestamp time.Time `json:"timestamp"`
}

// HTTPEmitter POSTs purchase events to a collector endpoint.
type HTTPEmitter struct {
	url    string
	client *http.Client
}

func NewHTTPEmitter(url string) *HTTPEmitter {
	return &HTTPEmitter{
		url:    url,
		client: &http.Client{Timeout: 5 * time.Second},
	}
}

func (e *HTTPEmitter) OrderConfirmed(ctx context.Context, order *models.Order) {
	event := PurchaseEvent{
		Event:     "purchase",
		OrderID:   order.ID,
		SessionID: order.SessionID,
		Amount:    order.Amount,
		Currency:  order.Currency,
		ItemCount: len(order.Items),
		Timestamp: time.Now().UTC(),
	}
	body, err := json.Marshal(event)
	if err != nil {
		log.Printf("analytics: marshal purchase event for order %s: %v", order.ID, err)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(body))
	if err != nil {
		log.Printf("analytics: build request for order %s: %v", order.ID, err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		log.Printf("analytics: emit purchase event for order %s: %v", order.ID, err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		log.Printf("analytics: collector returned %d for order %s", resp.StatusCode, order.ID)
	}
}

// NopEmitter is used when no collector is configured.
type NopEmitter struct{}

func (NopEmitter) OrderConfirmed(context.Context, *models.Order) {}

// Multi fans one confirmation out to several emitters.
type Multi []Emitter

func (m Multi) OrderConfirmed(ctx context.Context, order *models.Order) {
	for _, e := range m {
		e.OrderConfirmed(ctx, order)
	}
}
