// Package openai is a lightweight client for the two OpenAI surfaces this
// service uses: chat completions for prompt derivation and the images API for
// the actual renders.
package openai

import (
	"errors"
	"net/http"
	"strings"
	"time"
)

// ErrMissingAPIKey indicates that the client was configured without
// credentials. Surfaces at request time, never at startup.
var ErrMissingAPIKey = errors.New("openai: api key is required")

const defaultTimeout = 90 * time.Second

const (
	defaultChatModel  = "gpt-4"
	defaultImageModel = "dall-e-3"
	defaultBaseURL    = "https://api.openai.com/v1"
)

// Options configures the OpenAI client.
type Options struct {
	APIKey     string
	ChatModel  string
	ImageModel string
	BaseURL    string
	HTTPClient *http.Client
}

// Client performs HTTP calls to the OpenAI API.
type Client struct {
	apiKey     string
	chatModel  string
	imageModel string
	baseURL    string
	httpClient *http.Client
}

// NewClient builds a client. A missing API key is tolerated here so the
// service can boot without credentials; calls will fail instead.
func NewClient(opts Options) *Client {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	chatModel := strings.TrimSpace(opts.ChatModel)
	if chatModel == "" {
		chatModel = defaultChatModel
	}
	imageModel := strings.TrimSpace(opts.ImageModel)
	if imageModel == "" {
		imageModel = defaultImageModel
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{
		apiKey:     strings.TrimSpace(opts.APIKey),
		chatModel:  chatModel,
		imageModel: imageModel,
		baseURL:    baseURL,
		httpClient: client,
	}
}
