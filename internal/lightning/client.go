// Package lightning is a thin client for the external payment service used
// by the stake tracker: funding invoices, settlement checks, and reward
// payouts. Every call is independently retryable; a failed call never rolls
// back local state.
package lightning

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Invoice is a funding request to show to the user.
type Invoice struct {
	PaymentRequest string `json:"payment_request"`
	PaymentHash    string `json:"payment_hash"`
}

// Client talks to the payment API over HTTP. The API key, when set, is added
// to every request by a wrapped transport.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	if apiKey != "" {
		c.http.Transport = &apiKeyTransport{base: http.DefaultTransport, apiKey: apiKey}
	}
	return c
}

// apiKeyTransport adds the X-Api-Key header to every outbound request.
type apiKeyTransport struct {
	base   http.RoundTripper
	apiKey string
}

func (t *apiKeyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	cloned := req.Clone(req.Context())
	cloned.Header.Set("X-Api-Key", t.apiKey)
	return t.base.RoundTrip(cloned)
}

// CreateInvoice requests a funding invoice for amountSats.
func (c *Client) CreateInvoice(ctx context.Context, amountSats int64, memo string) (*Invoice, error) {
	body := map[string]any{"amount": amountSats, "memo": memo}
	var inv Invoice
	if err := c.do(ctx, http.MethodPost, "/v1/invoices", body, &inv); err != nil {
		return nil, err
	}
	if inv.PaymentHash == "" {
		return nil, fmt.Errorf("payment api: invoice response missing payment hash")
	}
	return &inv, nil
}

// CheckPayment reports whether the invoice identified by paymentHash has
// settled. A false result with nil error means "not yet".
func (c *Client) CheckPayment(ctx context.Context, paymentHash string) (bool, error) {
	var out struct {
		Paid bool `json:"paid"`
	}
	path := "/v1/payments/" + url.PathEscape(paymentHash)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return false, err
	}
	return out.Paid, nil
}

// SendPayout sends amountSats to a Lightning address.
func (c *Client) SendPayout(ctx context.Context, address string, amountSats int64) error {
	body := map[string]any{"address": address, "amount": amountSats}
	return c.do(ctx, http.MethodPost, "/v1/payouts", body, nil)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("payment api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("payment api: %s %s: status %d: %s", method, path, resp.StatusCode, bytes.TrimSpace(msg))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("payment api: decoding response: %w", err)
		}
	}
	return nil
}
