package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// HostedAdapter drives the gateway's hosted checkout flow: an intent creates
// a checkout session and the buyer is redirected to the gateway's page.
type HostedAdapter struct {
	baseURL       string
	apiKey        string
	webhookSecret string
	client        *http.Client
}

func NewHostedAdapter(baseURL, apiKey, webhookSecret string, timeout time.Duration) *HostedAdapter {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HostedAdapter{
		baseURL:       baseURL,
		apiKey:        apiKey,
		webhookSecret: webhookSecret,
		client:        &http.Client{Timeout: timeout},
	}
}

type hostedCreateReq struct {
	AmountMinor   int64             `json:"amount_minor"`
	Currency      string            `json:"currency"`
	CustomerEmail string            `json:"customer_email,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
	SuccessURL    string            `json:"success_url"`
	CancelURL     string            `json:"cancel_url"`
}

type hostedCreateResp struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

func (a *HostedAdapter) CreateIntent(ctx context.Context, req Request) (Intent, error) {
	body := hostedCreateReq{
		AmountMinor:   req.MinorUnits(),
		Currency:      req.Currency,
		CustomerEmail: req.CustomerEmail,
		Metadata:      req.Metadata,
		SuccessURL:    req.SuccessURL,
		CancelURL:     req.CancelURL,
	}
	var resp hostedCreateResp
	if err := a.post(ctx, "/v1/checkout/sessions", body, &resp); err != nil {
		return Intent{}, err
	}
	return Intent{Reference: resp.ID, RedirectURL: resp.URL}, nil
}

func (a *HostedAdapter) VerifyAndParse(payload []byte, sigHeader string) (Notification, error) {
	if err := verifySignature(a.webhookSecret, sigHeader, payload, time.Now()); err != nil {
		return Notification{}, err
	}
	return parseEvent(payload)
}

func (a *HostedAdapter) post(ctx context.Context, path string, in, out any) error {
	buf, err := json.Marshal(in)
	if err != nil {
		return &GatewayError{Op: "encode " + path, Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+path, bytes.NewReader(buf))
	if err != nil {
		return &GatewayError{Op: "build request " + path, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.apiKey)

	resp, err := a.client.Do(req)
	if err != nil {
		return &GatewayError{Op: "POST " + path, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &GatewayError{Op: "POST " + path, Status: resp.StatusCode,
			Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &GatewayError{Op: "decode " + path, Err: err}
	}
	return nil
}
