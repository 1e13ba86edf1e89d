// Package ledger maps confirmed payment transactions to generation requests
// so one confirmed payment funds exactly one image run. The original flow had
// no such record: a payment could be reused and a paid-but-undelivered run
// left no trace.
package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/AzrielTheHellrazor/Flicks/internal/domain"
)

// Status of a ledger entry.
type Status string

const (
	StatusPaid      Status = "paid"
	StatusFulfilled Status = "fulfilled"
)

// Entry ties a confirmed transaction hash to a request and its fulfillment.
type Entry struct {
	TxHash      string
	RequestID   string
	Status      Status
	CreatedAt   time.Time
	FulfilledAt *time.Time
}

// Ledger records confirmed payments and their redemption.
type Ledger interface {
	// Record stores a confirmed payment. ErrPaymentConsumed when the hash is
	// already recorded.
	Record(ctx context.Context, txHash, requestID string) error
	// Redeem marks the payment behind a request fulfilled. ErrPaymentRequired
	// when no payment exists for the request, ErrPaymentConsumed when it was
	// already redeemed.
	Redeem(ctx context.Context, requestID string) error
	// FindByRequest returns the entry for a request id, ErrPaymentRequired if
	// none exists.
	FindByRequest(ctx context.Context, requestID string) (*Entry, error)
}

// Memory is the in-process ledger used when no database is configured. State
// does not survive a restart, which still closes the reuse hole within one
// process.
type Memory struct {
	mu        sync.Mutex
	byTx      map[string]*Entry
	byRequest map[string]*Entry
}

func NewMemory() *Memory {
	return &Memory{
		byTx:      make(map[string]*Entry),
		byRequest: make(map[string]*Entry),
	}
}

func (m *Memory) Record(ctx context.Context, txHash, requestID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byTx[txHash]; ok {
		return domain.ErrPaymentConsumed
	}
	entry := &Entry{
		TxHash:    txHash,
		RequestID: requestID,
		Status:    StatusPaid,
		CreatedAt: time.Now(),
	}
	m.byTx[txHash] = entry
	m.byRequest[requestID] = entry
	return nil
}

func (m *Memory) Redeem(ctx context.Context, requestID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.byRequest[requestID]
	if !ok {
		return domain.ErrPaymentRequired
	}
	if entry.Status == StatusFulfilled {
		return domain.ErrPaymentConsumed
	}
	now := time.Now()
	entry.Status = StatusFulfilled
	entry.FulfilledAt = &now
	return nil
}

func (m *Memory) FindByRequest(ctx context.Context, requestID string) (*Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.byRequest[requestID]
	if !ok {
		return nil, domain.ErrPaymentRequired
	}
	copied := *entry
	return &copied, nil
}

var _ Ledger = (*Memory)(nil)
