package chain

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func rpcServer(t *testing.T, handler func(method string, params []json.RawMessage) (any, *rpcError)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     int64             `json:"id"`
			Method string            `json:"method"`
			Params []json.RawMessage `json:"params"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
			return
		}
		result, rpcErr := handler(req.Method, req.Params)
		resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
		if rpcErr != nil {
			resp["error"] = rpcErr
		} else {
			resp["result"] = result
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRPCClientCall(t *testing.T) {
	srv := rpcServer(t, func(method string, params []json.RawMessage) (any, *rpcError) {
		if method != "eth_chainId" {
			return nil, &rpcError{Code: -32601, Message: "method not found"}
		}
		return "0x2105", nil
	})
	client, err := NewRPCClient(RPCOptions{URL: srv.URL})
	if err != nil {
		t.Fatalf("NewRPCClient returned error: %v", err)
	}
	var chainID string
	if err := client.Call(context.Background(), "eth_chainId", nil, &chainID); err != nil {
		t.Fatalf("Call returned error: %v", err)
	}
	if chainID != "0x2105" {
		t.Fatalf("chainID = %q, want 0x2105", chainID)
	}
}

func TestRPCClientSurfacesRPCError(t *testing.T) {
	srv := rpcServer(t, func(method string, params []json.RawMessage) (any, *rpcError) {
		return nil, &rpcError{Code: 3, Message: "execution reverted"}
	})
	client, err := NewRPCClient(RPCOptions{URL: srv.URL})
	if err != nil {
		t.Fatalf("NewRPCClient returned error: %v", err)
	}
	err = client.Call(context.Background(), "eth_sendTransaction", []any{}, nil)
	if err == nil {
		t.Fatal("expected error for reverted call")
	}
	var rpcErr *rpcError
	if !errors.As(err, &rpcErr) || rpcErr.Code != 3 {
		t.Fatalf("err = %v, want wrapped rpc error code 3", err)
	}
}

func TestRPCWalletDisconnected(t *testing.T) {
	t.Parallel()
	wallet := NewRPCWallet(nil, "")
	if wallet.Connected() {
		t.Fatal("wallet with no account reports connected")
	}
	if _, err := wallet.SendTransaction(context.Background(), "0x00000000000000000000000000000000000000aa", nil); err == nil {
		t.Fatal("expected error sending from disconnected wallet")
	}
}

func TestRPCWalletSendTransaction(t *testing.T) {
	const txHash = "0xdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeef"
	srv := rpcServer(t, func(method string, params []json.RawMessage) (any, *rpcError) {
		if method != "eth_sendTransaction" {
			return nil, &rpcError{Code: -32601, Message: "method not found"}
		}
		var tx map[string]string
		if err := json.Unmarshal(params[0], &tx); err != nil {
			return nil, &rpcError{Code: -32602, Message: "bad params"}
		}
		if tx["from"] == "" || tx["to"] == "" || tx["data"] == "" {
			return nil, &rpcError{Code: -32602, Message: "missing fields"}
		}
		return txHash, nil
	})
	client, err := NewRPCClient(RPCOptions{URL: srv.URL})
	if err != nil {
		t.Fatalf("NewRPCClient returned error: %v", err)
	}
	wallet := NewRPCWallet(client, "0x00000000000000000000000000000000000000aa")
	hash, err := wallet.SendTransaction(context.Background(), "0x00000000000000000000000000000000000000bb", EncodePayForImages())
	if err != nil {
		t.Fatalf("SendTransaction returned error: %v", err)
	}
	if hash != TxHash(txHash) {
		t.Fatalf("hash = %q", hash)
	}
}

func TestReceiptWaiterPendingThenMined(t *testing.T) {
	var polls atomic.Int64
	srv := rpcServer(t, func(method string, params []json.RawMessage) (any, *rpcError) {
		if polls.Add(1) < 3 {
			return nil, nil // still pending
		}
		return map[string]string{
			"transactionHash": "0xabc",
			"status":          "0x1",
			"blockNumber":     "0x10",
		}, nil
	})
	client, err := NewRPCClient(RPCOptions{URL: srv.URL})
	if err != nil {
		t.Fatalf("NewRPCClient returned error: %v", err)
	}
	waiter := NewRPCReceiptWaiter(client)
	waiter.PollInterval = time.Millisecond
	waiter.Timeout = time.Second

	rcpt, err := waiter.WaitForReceipt(context.Background(), "0xabc")
	if err != nil {
		t.Fatalf("WaitForReceipt returned error: %v", err)
	}
	if !rcpt.Succeeded {
		t.Fatal("receipt not marked succeeded")
	}
	if polls.Load() < 3 {
		t.Fatalf("polls = %d, want >= 3", polls.Load())
	}
}

func TestReceiptWaiterRevertedTx(t *testing.T) {
	srv := rpcServer(t, func(method string, params []json.RawMessage) (any, *rpcError) {
		return map[string]string{"transactionHash": "0xabc", "status": "0x0", "blockNumber": "0x10"}, nil
	})
	client, err := NewRPCClient(RPCOptions{URL: srv.URL})
	if err != nil {
		t.Fatalf("NewRPCClient returned error: %v", err)
	}
	waiter := NewRPCReceiptWaiter(client)
	waiter.PollInterval = time.Millisecond

	rcpt, err := waiter.WaitForReceipt(context.Background(), "0xabc")
	if err != nil {
		t.Fatalf("WaitForReceipt returned error: %v", err)
	}
	if rcpt.Succeeded {
		t.Fatal("reverted receipt marked succeeded")
	}
}

func TestReceiptWaiterTimeout(t *testing.T) {
	srv := rpcServer(t, func(method string, params []json.RawMessage) (any, *rpcError) {
		return nil, nil // forever pending
	})
	client, err := NewRPCClient(RPCOptions{URL: srv.URL})
	if err != nil {
		t.Fatalf("NewRPCClient returned error: %v", err)
	}
	waiter := NewRPCReceiptWaiter(client)
	waiter.PollInterval = time.Millisecond
	waiter.Timeout = 20 * time.Millisecond

	_, err = waiter.WaitForReceipt(context.Background(), "0xabc")
	if !errors.Is(err, ErrReceiptTimeout) {
		t.Fatalf("err = %v, want ErrReceiptTimeout", err)
	}
}

func TestCallConcurrentRequestsUseDistinctIDs(t *testing.T) {
	var mu sync.Mutex
	seen := make(map[int64]int)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID int64 `json:"id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
			return
		}
		mu.Lock()
		seen[req.ID]++
		mu.Unlock()
		_ = json.NewEncoder(w).Encode(map[string]any{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  "0x1",
		})
	}))
	defer srv.Close()

	client, err := NewRPCClient(RPCOptions{URL: srv.URL})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	const workers = 16
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var out string
			errs[i] = client.Call(context.Background(), "eth_blockNumber", nil, &out)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("call %d: %v", i, err)
		}
	}
	mu.Lock()
	defer mu.Unlock()
	if len(seen) != workers {
		t.Errorf("distinct request ids = %d, want %d", len(seen), workers)
	}
	for id, count := range seen {
		if count != 1 {
			t.Errorf("id %d used %d times", id, count)
		}
	}
}
