// Package payment drives the two-step on-chain flow that gates image
// generation: an ERC-20 allowance approval followed by the payment contract
// call, each waited to confirmation before the next step runs.
package payment

import (
	"context"
	"fmt"
	"math/big"

	"github.com/rs/zerolog"

	"github.com/AzrielTheHellrazor/Flicks/internal/chain"
	"github.com/AzrielTheHellrazor/Flicks/internal/domain"
)

// Phase is the externally observable position of the payment state machine.
type Phase string

const (
	PhaseAwaitingApproval Phase = "awaiting-approval"
	PhaseApprovalPending  Phase = "approval-pending"
	PhaseAwaitingPayment  Phase = "awaiting-payment"
	PhasePaymentPending   Phase = "payment-pending"
	PhaseConfirmed        Phase = "confirmed"
	PhaseFailed           Phase = "failed"
)

// Options configures a Coordinator.
type Options struct {
	Wallet   chain.Wallet
	Receipts chain.ReceiptWaiter
	// Allowances is optional; when set, an already-sufficient allowance
	// skips the approval transaction.
	Allowances      chain.AllowanceReader
	TokenContract   string
	PaymentContract string
	// AmountBaseUnits is the fixed fee in token base units (1 USDC = 1e6).
	AmountBaseUnits int64
	// OnSuccess fires exactly once, after the payment receipt confirms.
	OnSuccess func(paymentTx chain.TxHash)
	Logger    zerolog.Logger
}

// Coordinator runs approve -> wait -> pay -> wait sequentially. The two
// transactions are not atomic: a failure leaves the phase at the step that
// failed so the user can retry from there, and nothing is retried
// automatically.
type Coordinator struct {
	wallet     chain.Wallet
	receipts   chain.ReceiptWaiter
	allowances chain.AllowanceReader
	token      string
	contract   string
	amount     *big.Int
	onSuccess  func(chain.TxHash)
	logger     zerolog.Logger

	phase     Phase
	succeeded bool
}

func NewCoordinator(opts Options) *Coordinator {
	amount := opts.AmountBaseUnits
	if amount <= 0 {
		amount = 1_000_000
	}
	return &Coordinator{
		wallet:     opts.Wallet,
		receipts:   opts.Receipts,
		allowances: opts.Allowances,
		token:      opts.TokenContract,
		contract:   opts.PaymentContract,
		amount:     big.NewInt(amount),
		onSuccess:  opts.OnSuccess,
		logger:     opts.Logger,
		phase:      PhaseAwaitingApproval,
	}
}

// Phase returns the current step of the flow.
func (c *Coordinator) Phase() Phase {
	return c.phase
}

// Run executes the full flow. It returns the confirmed payment transaction
// hash, or an error describing which step stalled. The success callback is
// invoked at most once across any number of Run calls.
func (c *Coordinator) Run(ctx context.Context) (chain.TxHash, error) {
	if c.wallet == nil || !c.wallet.Connected() {
		return "", domain.ErrWalletNotConnected
	}

	if c.phase == PhaseAwaitingApproval || c.phase == PhaseApprovalPending {
		if err := c.approve(ctx); err != nil {
			return "", err
		}
	}

	return c.pay(ctx)
}

func (c *Coordinator) approve(ctx context.Context) error {
	c.phase = PhaseAwaitingApproval
	if c.allowances != nil {
		current, err := c.allowances.Allowance(ctx, c.token, c.wallet.Address(), c.contract)
		if err != nil {
			c.logger.Warn().Err(err).Msg("allowance check failed, approving anyway")
		} else if current.Cmp(c.amount) >= 0 {
			c.logger.Info().Str("allowance", current.String()).Msg("existing allowance covers payment, skipping approval")
			c.phase = PhaseAwaitingPayment
			return nil
		}
	}
	calldata, err := chain.EncodeApprove(c.contract, c.amount)
	if err != nil {
		return fmt.Errorf("encode approval: %w", err)
	}
	c.logger.Debug().Str("token", c.token).Str("spender", c.contract).Msg("submitting allowance approval")
	hash, err := c.wallet.SendTransaction(ctx, c.token, calldata)
	if err != nil {
		// Phase stays at awaiting-approval: the transaction never left.
		return fmt.Errorf("approval rejected: %w", err)
	}
	c.phase = PhaseApprovalPending
	rcpt, err := c.receipts.WaitForReceipt(ctx, hash)
	if err != nil {
		c.phase = PhaseAwaitingApproval
		return fmt.Errorf("approval confirmation: %w", err)
	}
	if !rcpt.Succeeded {
		c.phase = PhaseAwaitingApproval
		return fmt.Errorf("approval transaction %s reverted", hash)
	}
	c.logger.Info().Str("tx", string(hash)).Msg("allowance approval confirmed")
	c.phase = PhaseAwaitingPayment
	return nil
}

func (c *Coordinator) pay(ctx context.Context) (chain.TxHash, error) {
	c.phase = PhaseAwaitingPayment
	c.logger.Debug().Str("contract", c.contract).Msg("submitting payment call")
	hash, err := c.wallet.SendTransaction(ctx, c.contract, chain.EncodePayForImages())
	if err != nil {
		return "", fmt.Errorf("payment rejected: %w", err)
	}
	c.phase = PhasePaymentPending
	rcpt, err := c.receipts.WaitForReceipt(ctx, hash)
	if err != nil {
		c.phase = PhaseAwaitingPayment
		return "", fmt.Errorf("payment confirmation: %w", err)
	}
	if !rcpt.Succeeded {
		c.phase = PhaseAwaitingPayment
		return "", fmt.Errorf("payment transaction %s reverted", hash)
	}
	c.phase = PhaseConfirmed
	c.logger.Info().Str("tx", string(hash)).Msg("payment confirmed")
	if !c.succeeded {
		c.succeeded = true
		if c.onSuccess != nil {
			c.onSuccess(hash)
		}
	}
	return hash, nil
}
