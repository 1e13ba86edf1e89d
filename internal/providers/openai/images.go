package openai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/AzrielTheHellrazor/Flicks/internal/domain"
)

// ImageRequest asks for a single rendered image.
type ImageRequest struct {
	Prompt  string
	Size    string
	Quality string
}

// ImageResult is the normalized image payload. Base64 is always populated on
// success; URL only when the upstream returned a hosted copy.
type ImageResult struct {
	Base64 string
	URL    string
}

type imageGenerationRequest struct {
	Model          string `json:"model"`
	Prompt         string `json:"prompt"`
	N              int    `json:"n"`
	Size           string `json:"size"`
	Quality        string `json:"quality,omitempty"`
	ResponseFormat string `json:"response_format,omitempty"`
}

type imageGenerationResponse struct {
	Data []struct {
		URL     string `json:"url"`
		B64JSON string `json:"b64_json"`
	} `json:"data"`
	Error *apiError `json:"error"`
}

// GenerateImage renders one image. Prefers base64 directly from the API and
// falls back to downloading the hosted URL when b64_json is absent.
func (c *Client) GenerateImage(ctx context.Context, req ImageRequest) (*ImageResult, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	size := req.Size
	if size == "" {
		size = "1024x1024"
	}
	quality := req.Quality
	if quality == "" {
		quality = "standard"
	}
	payload := imageGenerationRequest{
		Model:          c.imageModel,
		Prompt:         req.Prompt,
		N:              1,
		Size:           size,
		Quality:        quality,
		ResponseFormat: "b64_json",
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return nil, fmt.Errorf("encode image request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/images/generations", &buf)
	if err != nil {
		return nil, fmt.Errorf("build image request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("image generation: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	var out imageGenerationResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode image response: %w", err)
	}
	if out.Error != nil {
		return nil, out.Error
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("image generation: status %d", resp.StatusCode)
	}
	if len(out.Data) == 0 {
		return nil, domain.ErrNoImageGenerated
	}
	first := out.Data[0]
	result := &ImageResult{Base64: first.B64JSON, URL: first.URL}
	if result.Base64 == "" && result.URL != "" {
		encoded, err := c.fetchAsBase64(ctx, result.URL)
		if err != nil {
			return nil, fmt.Errorf("fetch hosted image: %w", err)
		}
		result.Base64 = encoded
	}
	if result.Base64 == "" {
		return nil, domain.ErrNoImagePayload
	}
	return result, nil
}

func (c *Client) fetchAsBase64(ctx context.Context, url string) (string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("status %d", resp.StatusCode)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}
