package chain

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrReceiptTimeout is returned when a transaction is not mined within the
// configured wait window.
var ErrReceiptTimeout = errors.New("timed out waiting for transaction receipt")

// Receipt is the subset of an Ethereum transaction receipt this service
// observes. No reorg handling: a mined receipt is final here.
type Receipt struct {
	TxHash      TxHash
	Succeeded   bool
	BlockNumber string
}

// ReceiptWaiter blocks until a submitted transaction is confirmed or the
// wait gives up.
type ReceiptWaiter interface {
	WaitForReceipt(ctx context.Context, hash TxHash) (*Receipt, error)
}

// RPCReceiptWaiter polls eth_getTransactionReceipt on a fixed interval with a
// bounded overall timeout.
type RPCReceiptWaiter struct {
	rpc          *RPCClient
	PollInterval time.Duration
	Timeout      time.Duration
}

func NewRPCReceiptWaiter(rpc *RPCClient) *RPCReceiptWaiter {
	return &RPCReceiptWaiter{
		rpc:          rpc,
		PollInterval: 2 * time.Second,
		Timeout:      3 * time.Minute,
	}
}

type rpcReceipt struct {
	TransactionHash string `json:"transactionHash"`
	Status          string `json:"status"`
	BlockNumber     string `json:"blockNumber"`
}

func (w *RPCReceiptWaiter) WaitForReceipt(ctx context.Context, hash TxHash) (*Receipt, error) {
	ctx, cancel := context.WithTimeout(ctx, w.Timeout)
	defer cancel()

	ticker := time.NewTicker(w.PollInterval)
	defer ticker.Stop()

	for {
		var raw *rpcReceipt
		if err := w.rpc.Call(ctx, "eth_getTransactionReceipt", []any{string(hash)}, &raw); err != nil {
			return nil, fmt.Errorf("poll receipt %s: %w", hash, err)
		}
		if raw != nil {
			return &Receipt{
				TxHash:      hash,
				Succeeded:   raw.Status == "0x1",
				BlockNumber: raw.BlockNumber,
			}, nil
		}
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, fmt.Errorf("%w: %s", ErrReceiptTimeout, hash)
			}
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

var _ ReceiptWaiter = (*RPCReceiptWaiter)(nil)
