package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/AzrielTheHellrazor/Flicks/internal/domain"
)

// HTTPImageClient talks to the service's own generation endpoint, the same
// call path a browser session uses.
type HTTPImageClient struct {
	baseURL string
	client  *http.Client
}

func NewHTTPImageClient(baseURL string, client *http.Client) *HTTPImageClient {
	if client == nil {
		client = &http.Client{Timeout: 2 * time.Minute}
	}
	return &HTTPImageClient{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

type generateRequestBody struct {
	Prompt    string `json:"prompt"`
	ImageType string `json:"imageType"`
	RequestID string `json:"requestId,omitempty"`
}

type generateResponseBody struct {
	Image struct {
		URL             *string `json:"url"`
		Base64          string  `json:"base64"`
		Type            string  `json:"type"`
		OriginalPrompt  string  `json:"originalPrompt"`
		ProjectTemplate string  `json:"projectTemplate"`
		OptimizedPrompt string  `json:"optimizedPrompt"`
	} `json:"image"`
}

func (c *HTTPImageClient) Generate(ctx context.Context, requestID, prompt string, variant domain.Variant) (*domain.GeneratedImage, error) {
	body := generateRequestBody{Prompt: prompt, ImageType: string(variant), RequestID: requestID}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate-image", &buf)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		return nil, fmt.Errorf("generation endpoint status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	var decoded generateResponseBody
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if decoded.Image.Base64 == "" {
		return nil, domain.ErrNoImagePayload
	}
	img := &domain.GeneratedImage{
		Variant:         variant,
		Base64:          decoded.Image.Base64,
		OriginalPrompt:  decoded.Image.OriginalPrompt,
		ProjectTemplate: decoded.Image.ProjectTemplate,
		OptimizedPrompt: decoded.Image.OptimizedPrompt,
	}
	if decoded.Image.URL != nil {
		img.SourceURL = *decoded.Image.URL
	}
	return img, nil
}

var _ ImageClient = (*HTTPImageClient)(nil)
