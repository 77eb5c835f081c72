package external

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	apperrors "hotelbook/internal/errors"
	"hotelbook/internal/logger"
)

const defaultPayMongoBaseURL = "https://api.paymongo.com/v1"

type PayMongoConfig struct {
	BaseURL       string
	SecretKey     string
	WebhookSecret string
	Currency      string
	SourceType    string
	Timeout       time.Duration
}

// PayMongoClient wraps the source endpoints of the PayMongo API.
type PayMongoClient struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
}

// SourceRequest describes a payment source to create. Amount is in
// centavos; nil leaves the amount to the payer.
type SourceRequest struct {
	Amount          *int64
	Currency        string
	Type            string
	Metadata        map[string]string
	RedirectSuccess string
	RedirectFailed  string
}

type sourceRedirect struct {
	Success string `json:"success"`
	Failed  string `json:"failed"`
}

type sourceAttributesRequest struct {
	Amount   *int64            `json:"amount,omitempty"`
	Currency string            `json:"currency"`
	Type     string            `json:"type"`
	Metadata map[string]string `json:"metadata,omitempty"`
	Redirect *sourceRedirect   `json:"redirect,omitempty"`
}

type sourceEnvelopeRequest struct {
	Data struct {
		Attributes sourceAttributesRequest `json:"attributes"`
	} `json:"data"`
}

// Source is the gateway's view of a payment source.
type Source struct {
	ID         string           `json:"id"`
	Type       string           `json:"type"`
	Attributes SourceAttributes `json:"attributes"`
	// Raw holds the full response envelope.
	Raw json.RawMessage `json:"-"`
}

type SourceAttributes struct {
	Amount   *int64            `json:"amount"`
	Currency string            `json:"currency"`
	Status   string            `json:"status"`
	Type     string            `json:"type"`
	Metadata map[string]string `json:"metadata"`
	Redirect struct {
		CheckoutURL string `json:"checkout_url"`
		Success     string `json:"success"`
		Failed      string `json:"failed"`
	} `json:"redirect"`
}

type sourceEnvelope struct {
	Data Source `json:"data"`
}

func NewPayMongoClient(cfg PayMongoConfig) *PayMongoClient {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultPayMongoBaseURL
	}

	return &PayMongoClient{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		secretKey: cfg.SecretKey,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// CreateSource calls POST /sources.
func (c *PayMongoClient) CreateSource(ctx context.Context, req SourceRequest) (*Source, error) {
	var body sourceEnvelopeRequest
	body.Data.Attributes = sourceAttributesRequest{
		Amount:   req.Amount,
		Currency: req.Currency,
		Type:     req.Type,
		Metadata: req.Metadata,
	}
	// The gateway rejects empty redirect URLs, so send both or neither.
	if req.RedirectSuccess != "" && req.RedirectFailed != "" {
		body.Data.Attributes.Redirect = &sourceRedirect{Success: req.RedirectSuccess, Failed: req.RedirectFailed}
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal source request: %w", err)
	}

	return c.do(ctx, http.MethodPost, "/sources", jsonBody)
}

// RetrieveSource calls GET /sources/{id}.
func (c *PayMongoClient) RetrieveSource(ctx context.Context, id string) (*Source, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperrors.NewValidation("source_id_required", "source id is required")
	}
	return c.do(ctx, http.MethodGet, "/sources/"+url.PathEscape(id), nil)
}

func (c *PayMongoClient) do(ctx context.Context, method, path string, body []byte) (*Source, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.SetBasicAuth(c.secretKey, "")
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &apperrors.GatewayError{Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &apperrors.GatewayError{Status: resp.StatusCode, Err: err}
	}

	logger.WithContext(ctx).Debug("PayMongo call finished",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"latency_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &apperrors.GatewayError{Status: resp.StatusCode, Body: string(respBody)}
	}

	var envelope sourceEnvelope
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return nil, &apperrors.GatewayError{Status: resp.StatusCode, Body: string(respBody), Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	if envelope.Data.ID == "" {
		return nil, &apperrors.GatewayError{Status: resp.StatusCode, Body: string(respBody), Err: fmt.Errorf("response has no source id")}
	}
	envelope.Data.Raw = respBody
	return &envelope.Data, nil
}
