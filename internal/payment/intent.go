package payment

import (
	"context"
	"time"
)

// IntentAdapter drives the elements-style flow: an intent is created
// server-side and the returned client secret is confirmed in the browser.
// It shares the hosted adapter's transport and webhook scheme; only the
// endpoint and the returned handle differ.
type IntentAdapter struct {
	hosted *HostedAdapter
}

func NewIntentAdapter(baseURL, apiKey, webhookSecret string, timeout time.Duration) *IntentAdapter {
	return &IntentAdapter{hosted: NewHostedAdapter(baseURL, apiKey, webhookSecret, timeout)}
}

type intentCreateReq struct {
	AmountMinor   int64             `json:"amount_minor"`
	Currency      string            `json:"currency"`
	CustomerEmail string            `json:"customer_email,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

type intentCreateResp struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
}

func (a *IntentAdapter) CreateIntent(ctx context.Context, req Request) (Intent, error) {
	body := intentCreateReq{
		AmountMinor:   req.MinorUnits(),
		Currency:      req.Currency,
		CustomerEmail: req.CustomerEmail,
		Metadata:      req.Metadata,
	}
	var resp intentCreateResp
	if err := a.hosted.post(ctx, "/v1/payment_intents", body, &resp); err != nil {
		return Intent{}, err
	}
	return Intent{Reference: resp.ID, ClientSecret: resp.ClientSecret}, nil
}

func (a *IntentAdapter) VerifyAndParse(payload []byte, sigHeader string) (Notification, error) {
	return a.hosted.VerifyAndParse(payload, sigHeader)
}
