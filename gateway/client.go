package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"
)

type SessionStatus string

const (
	StatusPending   SessionStatus = "pending"
	StatusSucceeded SessionStatus = "succeeded"
	StatusFailed    SessionStatus = "failed"
)

var (
	// ErrUnavailable marks transient gateway failures (network errors,
	// timeouts, 5xx). Callers retry by re-running the same procedure.
	ErrUnavailable = errors.New("payment gateway unavailable")

	ErrSessionNotFound = errors.New("checkout session not found")
)

// Config holds the gateway credentials, loaded from the environment.
type Config struct {
	APIURL        string
	SecretKey     string
	WebhookSecret string
	Timeout       time.Duration
}

func ConfigFromEnv() (Config, error) {
	cfg := Config{
		APIURL:        os.Getenv("GATEWAY_API_URL"),
		SecretKey:     os.Getenv("GATEWAY_SECRET_KEY"),
		WebhookSecret: os.Getenv("GATEWAY_WEBHOOK_SECRET"),
		Timeout:       10 * time.Second,
	}
	if s := os.Getenv("GATEWAY_TIMEOUT_SECONDS"); s != "" {
		secs, err := strconv.Atoi(s)
		if err != nil || secs <= 0 {
			return Config{}, fmt.Errorf("invalid GATEWAY_TIMEOUT_SECONDS: %q", s)
		}
		cfg.Timeout = time.Duration(secs) * time.Second
	}
	if cfg.APIURL == "" || cfg.SecretKey == "" || cfg.WebhookSecret == "" {
		return Config{}, errors.New("gateway configuration missing")
	}
	return cfg, nil
}

// LineItem is a line in a checkout session. ProductID travels with the
// session so reconciliation can map gateway lines back to inventory.
type LineItem struct {
	ProductID  uint   `json:"product_id"`
	Name       string `json:"name"`
	UnitAmount int64  `json:"unit_amount"`
	Quantity   int    `json:"quantity"`
}

type Customer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Session is the gateway's canonical record of a checkout, fetched fresh
// on every reconciliation. It is the only trusted source of amounts.
type Session struct {
	ID          string        `json:"id"`
	Status      SessionStatus `json:"status"`
	AmountTotal int64         `json:"amount_total"`
	Currency    string        `json:"currency"`
	LineItems   []LineItem    `json:"line_items"`
	Customer    Customer      `json:"customer"`
}

type CreateSessionRequest struct {
	LineItems  []LineItem `json:"line_items"`
	Currency   string     `json:"currency"`
	SuccessURL string     `json:"success_url"`
	CancelURL  string     `json:"cancel_url"`
}

type CreateSessionResponse struct {
	SessionID   string `json:"session_id"`
	RedirectURL string `json:"redirect_url"`
}

// Client talks to the hosted checkout API.
type Client struct {
	cfg  Config
	http *http.Client
}

func NewClient(cfg Config) *Client {
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
}

// gatewayError mirrors the error envelope the gateway embeds in responses.
type gatewayError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// CreateSession registers the cart with the gateway and returns the hosted
// payment page to redirect the customer to.
func (c *Client) CreateSession(ctx context.Context, req CreateSessionRequest) (*CreateSessionResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal session request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.APIURL+"/v1/checkout/sessions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.SecretKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("create session: %v: %w", err, ErrUnavailable)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("create session: gateway returned %d: %w", resp.StatusCode, ErrUnavailable)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("create session: gateway error (%d): %s", resp.StatusCode, respBody)
	}

	var parsed struct {
		ID    string        `json:"id"`
		URL   string        `json:"url"`
		Error *gatewayError `json:"error,omitempty"`
	}
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("parse session response: %w", err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("create session: %s", parsed.Error.Message)
	}
	if parsed.ID == "" || parsed.URL == "" {
		return nil, errors.New("gateway returned an incomplete session")
	}

	return &CreateSessionResponse{SessionID: parsed.ID, RedirectURL: parsed.URL}, nil
}

// RetrieveSession fetches the canonical session record by id.
func (c *Client) RetrieveSession(ctx context.Context, sessionID string) (*Session, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.cfg.APIURL+"/v1/checkout/sessions/"+sessionID, nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.SecretKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("retrieve session: %v: %w", err, ErrUnavailable)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("session %s: %w", sessionID, ErrSessionNotFound)
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("retrieve session: gateway returned %d: %w", resp.StatusCode, ErrUnavailable)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("retrieve session: gateway error (%d): %s", resp.StatusCode, respBody)
	}

	var sess Session
	if err := json.Unmarshal(respBody, &sess); err != nil {
		return nil, fmt.Errorf("parse session: %w", err)
	}
	if sess.ID == "" {
		return nil, errors.New("gateway returned a session without an id")
	}
	switch sess.Status {
	case StatusPending, StatusSucceeded, StatusFailed:
	default:
		return nil, fmt.Errorf("session %s: unknown status %q", sess.ID, sess.Status)
	}

	return &sess, nil
}
