package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"
)

const rpcDefaultTimeout = 20 * time.Second

// RPCOptions controls how the JSON-RPC client is configured.
type RPCOptions struct {
	URL        string
	HTTPClient *http.Client
}

// RPCClient is a minimal Ethereum JSON-RPC 2.0 client. It covers only the
// calls this service needs: submitting transactions and polling receipts.
// Safe for concurrent use.
type RPCClient struct {
	url    string
	client *http.Client
	nextID atomic.Int64
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int64  `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int64           `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *rpcError       `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// NewRPCClient validates the endpoint URL and builds a client.
func NewRPCClient(opts RPCOptions) (*RPCClient, error) {
	url := strings.TrimSpace(opts.URL)
	if url == "" {
		return nil, errors.New("rpc url is required")
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: rpcDefaultTimeout}
	}
	return &RPCClient{url: url, client: client}, nil
}

// Call issues a single JSON-RPC request and decodes the result into out.
// A null result with out != nil decodes into the zero value, which callers
// like receipt polling rely on to detect a pending transaction.
func (c *RPCClient) Call(ctx context.Context, method string, params []any, out any) error {
	payload := rpcRequest{JSONRPC: "2.0", ID: c.nextID.Add(1), Method: method, Params: params}
	if params == nil {
		payload.Params = []any{}
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return fmt.Errorf("encode rpc request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, &buf)
	if err != nil {
		return fmt.Errorf("build rpc request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	resp, err := c.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("rpc %s: %w", method, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("rpc %s: status %d", method, resp.StatusCode)
	}
	var decoded rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return fmt.Errorf("decode rpc response: %w", err)
	}
	if decoded.Error != nil {
		return fmt.Errorf("rpc %s: %w", method, decoded.Error)
	}
	if out == nil || len(decoded.Result) == 0 || string(decoded.Result) == "null" {
		return nil
	}
	if err := json.Unmarshal(decoded.Result, out); err != nil {
		return fmt.Errorf("decode rpc result: %w", err)
	}
	return nil
}
