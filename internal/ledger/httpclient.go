package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/AzrielTheHellrazor/Flicks/internal/domain"
)

// HTTPClient is a Ledger view over the service's payments API, used by
// clients that run the payment flow themselves and report the confirmed
// transaction back. Redemption is server-side only.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

func NewHTTPClient(baseURL string, client *http.Client) *HTTPClient {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPClient{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

func (c *HTTPClient) Record(ctx context.Context, txHash, requestID string) error {
	body, err := json.Marshal(map[string]string{"txHash": txHash, "requestId": requestID})
	if err != nil {
		return fmt.Errorf("encode payment: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/payments", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("record payment: %w", err)
	}
	defer resp.Body.Close()
	switch resp.StatusCode {
	case http.StatusCreated:
		return nil
	case http.StatusConflict:
		return domain.ErrPaymentConsumed
	default:
		return fmt.Errorf("record payment: unexpected status %d", resp.StatusCode)
	}
}

// Redeem always fails: the server redeems a payment itself when the final
// variant of a run completes.
func (c *HTTPClient) Redeem(ctx context.Context, requestID string) error {
	return fmt.Errorf("redeem is server-side only")
}

func (c *HTTPClient) FindByRequest(ctx context.Context, requestID string) (*Entry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/payments/"+url.PathEscape(requestID), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch payment: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, domain.ErrPaymentRequired
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch payment: unexpected status %d", resp.StatusCode)
	}
	var payload struct {
		TxHash      string     `json:"txHash"`
		RequestID   string     `json:"requestId"`
		Status      string     `json:"status"`
		CreatedAt   time.Time  `json:"createdAt"`
		FulfilledAt *time.Time `json:"fulfilledAt"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode payment: %w", err)
	}
	return &Entry{
		TxHash:      payload.TxHash,
		RequestID:   payload.RequestID,
		Status:      Status(payload.Status),
		CreatedAt:   payload.CreatedAt,
		FulfilledAt: payload.FulfilledAt,
	}, nil
}

var _ Ledger = (*HTTPClient)(nil)
