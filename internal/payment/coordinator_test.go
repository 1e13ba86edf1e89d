package payment

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/AzrielTheHellrazor/Flicks/internal/chain"
	"github.com/AzrielTheHellrazor/Flicks/internal/domain"
)

const (
	testToken    = "0x00000000000000000000000000000000000000cc"
	testContract = "0x00000000000000000000000000000000000000dd"
)

type fakeWallet struct {
	connected bool
	sent      []string // recipient addresses in submission order
	rejectTo  map[string]error
	nextHash  int
}

func (w *fakeWallet) Connected() bool { return w.connected }
func (w *fakeWallet) Address() string {
	if !w.connected {
		return ""
	}
	return "0x00000000000000000000000000000000000000ee"
}

func (w *fakeWallet) SendTransaction(ctx context.Context, to string, data []byte) (chain.TxHash, error) {
	if err := w.rejectTo[to]; err != nil {
		return "", err
	}
	w.sent = append(w.sent, to)
	w.nextHash++
	return chain.TxHash(strings.Repeat("0", 3) + string(rune('a'+w.nextHash))), nil
}

type fakeReceipts struct {
	// outcome per submission index (1-based hash suffix); default success.
	failIndex map[int]error
	revertAt  map[int]bool
	calls     int
}

func (r *fakeReceipts) WaitForReceipt(ctx context.Context, hash chain.TxHash) (*chain.Receipt, error) {
	r.calls++
	idx := int(hash[len(hash)-1] - 'a')
	if err := r.failIndex[idx]; err != nil {
		return nil, err
	}
	return &chain.Receipt{TxHash: hash, Succeeded: !r.revertAt[idx]}, nil
}

func newTestCoordinator(w *fakeWallet, r *fakeReceipts, onSuccess func(chain.TxHash)) *Coordinator {
	return NewCoordinator(Options{
		Wallet:          w,
		Receipts:        r,
		TokenContract:   testToken,
		PaymentContract: testContract,
		AmountBaseUnits: 1_000_000,
		OnSuccess:       onSuccess,
		Logger:          zerolog.Nop(),
	})
}

func TestCoordinatorHappyPath(t *testing.T) {
	wallet := &fakeWallet{connected: true}
	var successTx chain.TxHash
	var successCount int
	coord := newTestCoordinator(wallet, &fakeReceipts{}, func(tx chain.TxHash) {
		successTx = tx
		successCount++
	})

	hash, err := coord.Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if coord.Phase() != PhaseConfirmed {
		t.Fatalf("phase = %q, want confirmed", coord.Phase())
	}
	if successCount != 1 {
		t.Fatalf("success callback invoked %d times, want 1", successCount)
	}
	if successTx != hash {
		t.Fatalf("callback tx = %q, run tx = %q", successTx, hash)
	}
	// Approval goes to the token contract, payment to the payment contract,
	// strictly in that order.
	if len(wallet.sent) != 2 || wallet.sent[0] != testToken || wallet.sent[1] != testContract {
		t.Fatalf("submissions = %v", wallet.sent)
	}
}

func TestCoordinatorDisconnectedWallet(t *testing.T) {
	wallet := &fakeWallet{connected: false}
	invoked := false
	coord := newTestCoordinator(wallet, &fakeReceipts{}, func(chain.TxHash) { invoked = true })

	_, err := coord.Run(context.Background())
	if !errors.Is(err, domain.ErrWalletNotConnected) {
		t.Fatalf("err = %v, want ErrWalletNotConnected", err)
	}
	if coord.Phase() != PhaseAwaitingApproval {
		t.Fatalf("phase = %q, want awaiting-approval", coord.Phase())
	}
	if len(wallet.sent) != 0 || invoked {
		t.Fatal("disconnected wallet must not submit or succeed")
	}
}

func TestCoordinatorApprovalRejectedNeverPays(t *testing.T) {
	wallet := &fakeWallet{
		connected: true,
		rejectTo:  map[string]error{testToken: errors.New("user rejected")},
	}
	invoked := false
	coord := newTestCoordinator(wallet, &fakeReceipts{}, func(chain.TxHash) { invoked = true })

	_, err := coord.Run(context.Background())
	if err == nil {
		t.Fatal("expected error for rejected approval")
	}
	if coord.Phase() != PhaseAwaitingApproval {
		t.Fatalf("phase = %q, want awaiting-approval", coord.Phase())
	}
	if len(wallet.sent) != 0 {
		t.Fatalf("payment submitted despite rejected approval: %v", wallet.sent)
	}
	if invoked {
		t.Fatal("success callback invoked without confirmed payment")
	}
}

func TestCoordinatorPaymentConfirmedBeforeApprovalLeavesCallbackUninvoked(t *testing.T) {
	// The receipt provider claims the first (approval) transaction reverted;
	// any later payment receipt would succeed. The run must stop at approval
	// and never reach the callback.
	wallet := &fakeWallet{connected: true}
	receipts := &fakeReceipts{revertAt: map[int]bool{1: true}}
	invoked := false
	coord := newTestCoordinator(wallet, receipts, func(chain.TxHash) { invoked = true })

	_, err := coord.Run(context.Background())
	if err == nil {
		t.Fatal("expected error for reverted approval")
	}
	if invoked {
		t.Fatal("callback invoked although approval never confirmed")
	}
	if len(wallet.sent) != 1 || wallet.sent[0] != testToken {
		t.Fatalf("submissions = %v, want approval only", wallet.sent)
	}
	if coord.Phase() != PhaseAwaitingApproval {
		t.Fatalf("phase = %q, want awaiting-approval", coord.Phase())
	}
}

func TestCoordinatorResumesAfterPaymentFailure(t *testing.T) {
	wallet := &fakeWallet{connected: true}
	receipts := &fakeReceipts{revertAt: map[int]bool{2: true}}
	var successCount int
	coord := newTestCoordinator(wallet, receipts, func(chain.TxHash) { successCount++ })

	if _, err := coord.Run(context.Background()); err == nil {
		t.Fatal("expected error for reverted payment")
	}
	if coord.Phase() != PhaseAwaitingPayment {
		t.Fatalf("phase = %q, want awaiting-payment", coord.Phase())
	}
	if successCount != 0 {
		t.Fatal("callback invoked before a confirmed payment")
	}

	// Retry resumes at the payment step without re-approving.
	if _, err := coord.Run(context.Background()); err != nil {
		t.Fatalf("retry returned error: %v", err)
	}
	if coord.Phase() != PhaseConfirmed {
		t.Fatalf("phase = %q, want confirmed", coord.Phase())
	}
	if got := countOf(wallet.sent, testToken); got != 1 {
		t.Fatalf("approval submitted %d times, want 1", got)
	}
	if successCount != 1 {
		t.Fatalf("success callback invoked %d times, want 1", successCount)
	}
}

func countOf(items []string, want string) int {
	n := 0
	for _, it := range items {
		if it == want {
			n++
		}
	}
	return n
}

type fakeAllowances struct {
	amount int64
	err    error
}

func (a *fakeAllowances) Allowance(ctx context.Context, token, owner, spender string) (*big.Int, error) {
	if a.err != nil {
		return nil, a.err
	}
	return big.NewInt(a.amount), nil
}

func TestCoordinatorSkipsApprovalWhenAllowanceCovers(t *testing.T) {
	wallet := &fakeWallet{connected: true}
	coord := NewCoordinator(Options{
		Wallet:          wallet,
		Receipts:        &fakeReceipts{},
		Allowances:      &fakeAllowances{amount: 1_000_000},
		TokenContract:   testToken,
		PaymentContract: testContract,
		AmountBaseUnits: 1_000_000,
		Logger:          zerolog.Nop(),
	})

	if _, err := coord.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(wallet.sent) != 1 || wallet.sent[0] != testContract {
		t.Fatalf("transactions = %v, want only the payment call", wallet.sent)
	}
}

func TestCoordinatorApprovesWhenAllowanceInsufficient(t *testing.T) {
	wallet := &fakeWallet{connected: true}
	coord := NewCoordinator(Options{
		Wallet:          wallet,
		Receipts:        &fakeReceipts{},
		Allowances:      &fakeAllowances{amount: 999_999},
		TokenContract:   testToken,
		PaymentContract: testContract,
		AmountBaseUnits: 1_000_000,
		Logger:          zerolog.Nop(),
	})

	if _, err := coord.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(wallet.sent) != 2 || wallet.sent[0] != testToken {
		t.Fatalf("transactions = %v, want approval then payment", wallet.sent)
	}
}

func TestCoordinatorApprovesWhenAllowanceCheckFails(t *testing.T) {
	wallet := &fakeWallet{connected: true}
	coord := NewCoordinator(Options{
		Wallet:          wallet,
		Receipts:        &fakeReceipts{},
		Allowances:      &fakeAllowances{err: errors.New("node unavailable")},
		TokenContract:   testToken,
		PaymentContract: testContract,
		AmountBaseUnits: 1_000_000,
		Logger:          zerolog.Nop(),
	})

	if _, err := coord.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(wallet.sent) != 2 {
		t.Fatalf("transactions = %v, want approval then payment", wallet.sent)
	}
}
