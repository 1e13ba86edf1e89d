// Package frame implements the Farcaster frame interaction contract: parsing
// the signed button-click payload and validating it against a hub before any
// action is taken on it.
package frame

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ErrInvalidMessage indicates the signed payload failed hub validation.
var ErrInvalidMessage = errors.New("frame message failed validation")

// Action is a validated button click.
type Action struct {
	FID         uint64
	ButtonIndex int
}

// Verifier validates a raw frame POST body and extracts the action. The
// signature check happens before the caller ever sees a button index.
type Verifier interface {
	Verify(ctx context.Context, body []byte) (*Action, error)
}

// SignedRequest is the wire shape of a frame interaction POST.
type SignedRequest struct {
	UntrustedData struct {
		FID         uint64 `json:"fid"`
		ButtonIndex int    `json:"buttonIndex"`
		URL         string `json:"url"`
	} `json:"untrustedData"`
	TrustedData struct {
		MessageBytes string `json:"messageBytes"`
	} `json:"trustedData"`
}

// HubVerifier submits the signed message bytes to a Farcaster hub's
// validateMessage endpoint and trusts only the hub's view of the action.
type HubVerifier struct {
	baseURL string
	client  *http.Client
}

func NewHubVerifier(baseURL string, client *http.Client) *HubVerifier {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HubVerifier{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

type validateMessageResponse struct {
	Valid   bool `json:"valid"`
	Message struct {
		Data struct {
			FID             uint64 `json:"fid"`
			FrameActionBody struct {
				ButtonIndex int `json:"buttonIndex"`
			} `json:"frameActionBody"`
		} `json:"data"`
	} `json:"message"`
}

func (v *HubVerifier) Verify(ctx context.Context, body []byte) (*Action, error) {
	var req SignedRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, fmt.Errorf("%w: malformed body: %v", ErrInvalidMessage, err)
	}
	raw, err := hex.DecodeString(strings.TrimPrefix(req.TrustedData.MessageBytes, "0x"))
	if err != nil || len(raw) == 0 {
		return nil, fmt.Errorf("%w: missing signed message bytes", ErrInvalidMessage)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, v.baseURL+"/v1/validateMessage", bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("build validate request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/octet-stream")

	resp, err := v.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("hub validate: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("hub validate: status %d", resp.StatusCode)
	}
	var decoded validateMessageResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode hub response: %w", err)
	}
	if !decoded.Valid {
		return nil, ErrInvalidMessage
	}
	return &Action{
		FID:         decoded.Message.Data.FID,
		ButtonIndex: decoded.Message.Data.FrameActionBody.ButtonIndex,
	}, nil
}

var _ Verifier = (*HubVerifier)(nil)
