// Package lightning talks to the external wallet daemon that issues BOLT11
// invoices and reports their settlement status.
package lightning

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"
)

// Sentinel errors for wallet failures.
var (
	ErrWalletUnreachable = errors.New("lightning wallet unreachable")
	ErrWalletError       = errors.New("lightning wallet error")
	ErrWalletTimeout     = errors.New("lightning wallet timeout")
)

// Invoice status values reported by CheckInvoiceStatus.
const (
	StatusPending = "pending"
	StatusPaid    = "paid"
	StatusExpired = "expired"
	StatusError   = "error"
)

// Invoice is a freshly issued payment request.
type Invoice struct {
	Bolt11      string `json:"bolt11"`
	PaymentHash string `json:"payment_hash"`
}

// InvoiceStatus is the settlement state of one invoice.
type InvoiceStatus struct {
	Status              string `json:"status"`
	AmountPaidMillisats int64  `json:"amount_paid_millisats,omitempty"`
	Message             string `json:"message,omitempty"`
}

// Client is the interface to the payment provider.
type Client interface {
	CreateInvoice(ctx context.Context, amountSats int64, memo string) (Invoice, error)
	CheckInvoiceStatus(ctx context.Context, bolt11 string) (InvoiceStatus, error)
}

// HTTPClient implements Client against the wallet daemon's REST API.
type HTTPClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewHTTPClient creates a new wallet HTTP client.
func NewHTTPClient(baseURL, apiKey string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

type createInvoiceRequest struct {
	AmountSats int64  `json:"amount_sats"`
	Memo       string `json:"memo"`
}

func (c *HTTPClient) CreateInvoice(ctx context.Context, amountSats int64, memo string) (Invoice, error) {
	body, err := json.Marshal(createInvoiceRequest{AmountSats: amountSats, Memo: memo})
	if err != nil {
		return Invoice{}, fmt.Errorf("encoding invoice request: %w", err)
	}

	u := fmt.Sprintf("%s/api/v1/invoices", c.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return Invoice{}, fmt.Errorf("building request: %w", err)
	}
	c.setHeaders(httpReq)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return Invoice{}, classifyError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return Invoice{}, fmt.Errorf("%w: status %d", ErrWalletError, resp.StatusCode)
	}

	var inv Invoice
	if err := json.NewDecoder(resp.Body).Decode(&inv); err != nil {
		return Invoice{}, fmt.Errorf("decoding invoice response: %w", err)
	}
	if inv.Bolt11 == "" {
		return Invoice{}, fmt.Errorf("%w: empty bolt11 in response", ErrWalletError)
	}

	return inv, nil
}

func (c *HTTPClient) CheckInvoiceStatus(ctx context.Context, bolt11 string) (InvoiceStatus, error) {
	u := fmt.Sprintf("%s/api/v1/invoices/status?bolt11=%s", c.baseURL, url.QueryEscape(bolt11))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return InvoiceStatus{}, fmt.Errorf("building request: %w", err)
	}
	c.setHeaders(httpReq)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return InvoiceStatus{}, classifyError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return InvoiceStatus{}, fmt.Errorf("%w: status %d", ErrWalletError, resp.StatusCode)
	}

	var status InvoiceStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return InvoiceStatus{}, fmt.Errorf("decoding status response: %w", err)
	}

	switch status.Status {
	case StatusPending, StatusPaid, StatusExpired, StatusError:
	default:
		return InvoiceStatus{}, fmt.Errorf("%w: unknown invoice status %q", ErrWalletError, status.Status)
	}

	return status, nil
}

func (c *HTTPClient) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}
}

// classifyError maps transport-level errors to sentinel errors.
func classifyError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", ErrWalletTimeout, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrWalletTimeout, err)
	}

	return fmt.Errorf("%w: %v", ErrWalletUnreachable, err)
}

// Compile-time check that HTTPClient implements Client.
var _ Client = (*HTTPClient)(nil)
