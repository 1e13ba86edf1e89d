package chain

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"
)

// TxHash identifies a submitted transaction.
type TxHash string

// Wallet is the connection to whatever holds the user's key. The production
// implementation talks to a JSON-RPC node with an unlocked account; tests and
// the browser flow substitute doubles.
type Wallet interface {
	// Connected reports whether an account is available to sign with.
	Connected() bool
	// Address returns the connected account, empty when disconnected.
	Address() string
	// SendTransaction submits a contract call and returns its hash.
	SendTransaction(ctx context.Context, to string, data []byte) (TxHash, error)
}

// RPCWallet submits transactions through eth_sendTransaction on a node that
// manages the configured account.
type RPCWallet struct {
	rpc  *RPCClient
	from string
}

// NewRPCWallet binds an account address to an RPC endpoint. An empty address
// yields a disconnected wallet, matching the UI's pre-connect state.
func NewRPCWallet(rpc *RPCClient, from string) *RPCWallet {
	return &RPCWallet{rpc: rpc, from: strings.TrimSpace(from)}
}

func (w *RPCWallet) Connected() bool {
	return w != nil && ValidAddress(w.from)
}

func (w *RPCWallet) Address() string {
	if w == nil {
		return ""
	}
	return w.from
}

func (w *RPCWallet) SendTransaction(ctx context.Context, to string, data []byte) (TxHash, error) {
	if !w.Connected() {
		return "", fmt.Errorf("wallet has no connected account")
	}
	if !ValidAddress(to) {
		return "", fmt.Errorf("invalid recipient %q", to)
	}
	params := []any{map[string]string{
		"from": w.from,
		"to":   to,
		"data": "0x" + hex.EncodeToString(data),
	}}
	var hash string
	if err := w.rpc.Call(ctx, "eth_sendTransaction", params, &hash); err != nil {
		return "", err
	}
	if hash == "" {
		return "", fmt.Errorf("node returned empty transaction hash")
	}
	return TxHash(hash), nil
}

var _ Wallet = (*RPCWallet)(nil)
