// Package app holds the session controller that ties a submitted prompt to
// its payment flow and generation run. One controller tracks one user
// session; state survives a failed step so the user can retry without paying
// twice.
package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/AzrielTheHellrazor/Flicks/internal/chain"
	"github.com/AzrielTheHellrazor/Flicks/internal/domain"
	"github.com/AzrielTheHellrazor/Flicks/internal/ledger"
	"github.com/AzrielTheHellrazor/Flicks/internal/payment"
	"github.com/AzrielTheHellrazor/Flicks/internal/pipeline"
)

// PlaceholderPrompt seeds the input field.
const PlaceholderPrompt = "A beautiful sunset over mountains with a lake reflection..."

// Presets returns example prompts surfaced next to the input field.
func Presets() []string {
	return []string{
		"A beautiful sunset over mountains with a lake reflection",
		"A cozy coffee shop loyalty tracker for Farcaster users",
		"A neon cyberpunk prediction market on Base",
		"A minimalist plant care companion with earthy tones",
	}
}

// Status is the lifecycle position of a session.
type Status string

const (
	StatusIdle            Status = "idle"
	StatusAwaitingPayment Status = "awaiting-payment"
	StatusGenerating      Status = "generating"
	StatusDone            Status = "done"
	StatusFailed          Status = "failed"
)

// Session is a snapshot of the controller state.
type Session struct {
	RequestID    string
	Prompt       string
	PaymentPhase payment.Phase
	PaymentTx    chain.TxHash
	Progress     pipeline.Progress
	Images       map[domain.Variant]domain.GeneratedImage
	Status       Status
	Err          error
}

// Options configures a Controller.
type Options struct {
	NewCoordinator func(onSuccess func(chain.TxHash)) *payment.Coordinator
	Runner         *pipeline.Runner
	// Ledger may be nil; payments then go unrecorded.
	Ledger ledger.Ledger
	Logger zerolog.Logger
}

// Controller drives one session through submit, pay, and generate. Methods
// are safe for concurrent use; Run itself executes serially per session.
type Controller struct {
	newCoordinator func(onSuccess func(chain.TxHash)) *payment.Coordinator
	runner         *pipeline.Runner
	ledger         ledger.Ledger
	logger         zerolog.Logger

	mu          sync.Mutex
	running     bool
	request     *domain.GenerationRequest
	coordinator *payment.Coordinator
	paymentTx   chain.TxHash
	progress    pipeline.Progress
	images      map[domain.Variant]domain.GeneratedImage
	status      Status
	err         error
}

func NewController(opts Options) *Controller {
	return &Controller{
		newCoordinator: opts.NewCoordinator,
		runner:         opts.Runner,
		ledger:         opts.Ledger,
		logger:         opts.Logger,
		status:         StatusIdle,
		images:         make(map[domain.Variant]domain.GeneratedImage),
	}
}

// AttachRunner sets the generation runner. Needed when the runner's progress
// hook points back at this controller.
func (c *Controller) AttachRunner(r *pipeline.Runner) {
	c.mu.Lock()
	c.runner = r
	c.mu.Unlock()
}

// Submit validates the prompt and arms the session for payment. A session
// with a run in flight rejects new prompts until Reset or completion.
func (c *Controller) Submit(prompt string) (*domain.GenerationRequest, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return nil, domain.ErrRunInProgress
	}
	req, err := domain.NewGenerationRequest(prompt)
	if err != nil {
		return nil, err
	}
	c.request = req
	c.coordinator = c.newCoordinator(c.recordPayment(req.ID))
	c.paymentTx = ""
	c.progress = pipeline.Progress{}
	c.images = make(map[domain.Variant]domain.GeneratedImage)
	c.status = StatusAwaitingPayment
	c.err = nil
	return req, nil
}

// recordPayment is the coordinator success hook: it writes the confirmed
// transaction into the ledger before any generation request is issued.
func (c *Controller) recordPayment(requestID string) func(chain.TxHash) {
	return func(tx chain.TxHash) {
		c.mu.Lock()
		c.paymentTx = tx
		c.mu.Unlock()
		if c.ledger == nil {
			return
		}
		if err := c.ledger.Record(context.Background(), string(tx), requestID); err != nil {
			c.logger.Error().Err(err).Str("tx", string(tx)).Msg("failed to record confirmed payment")
		}
	}
}

// Run executes payment then generation for the submitted prompt. A payment
// failure leaves the session retryable from the step that failed; a
// generation failure keeps the variants already produced.
func (c *Controller) Run(ctx context.Context) error {
	c.mu.Lock()
	if c.request == nil {
		c.mu.Unlock()
		return domain.ErrEmptyPrompt
	}
	if c.running {
		c.mu.Unlock()
		return domain.ErrRunInProgress
	}
	c.running = true
	req := c.request
	coordinator := c.coordinator
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.running = false
		c.mu.Unlock()
	}()

	if coordinator.Phase() != payment.PhaseConfirmed {
		if _, err := coordinator.Run(ctx); err != nil {
			c.fail(err)
			return err
		}
	}

	c.setStatus(StatusGenerating)
	images, err := c.runner.Run(ctx, req.ID, req.Prompt)
	c.mu.Lock()
	for _, img := range images {
		c.images[img.Variant] = img
	}
	c.mu.Unlock()
	if err != nil {
		c.fail(err)
		return err
	}
	c.setStatus(StatusDone)
	return nil
}

// RunUnpaid executes generation without the payment flow, for servers that
// run with the ledger disabled.
func (c *Controller) RunUnpaid(ctx context.Context) error {
	c.mu.Lock()
	if c.request == nil {
		c.mu.Unlock()
		return domain.ErrEmptyPrompt
	}
	if c.running {
		c.mu.Unlock()
		return domain.ErrRunInProgress
	}
	c.running = true
	req := c.request
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.running = false
		c.mu.Unlock()
	}()

	c.setStatus(StatusGenerating)
	images, err := c.runner.Run(ctx, req.ID, req.Prompt)
	c.mu.Lock()
	for _, img := range images {
		c.images[img.Variant] = img
	}
	c.mu.Unlock()
	if err != nil {
		c.fail(err)
		return err
	}
	c.setStatus(StatusDone)
	return nil
}

// Reset clears the session back to idle. A run in flight cannot be reset.
func (c *Controller) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return domain.ErrRunInProgress
	}
	c.request = nil
	c.coordinator = nil
	c.paymentTx = ""
	c.progress = pipeline.Progress{}
	c.images = make(map[domain.Variant]domain.GeneratedImage)
	c.status = StatusIdle
	c.err = nil
	return nil
}

// ReportProgress records pipeline progress; wire it as the runner's
// OnProgress hook.
func (c *Controller) ReportProgress(p pipeline.Progress) {
	c.mu.Lock()
	c.progress = p
	c.mu.Unlock()
}

// Session returns a snapshot of the current state.
func (c *Controller) Session() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := Session{
		Prompt:    "",
		PaymentTx: c.paymentTx,
		Progress:  c.progress,
		Images:    make(map[domain.Variant]domain.GeneratedImage, len(c.images)),
		Status:    c.status,
		Err:       c.err,
	}
	if c.request != nil {
		s.RequestID = c.request.ID
		s.Prompt = c.request.Prompt
	}
	if c.coordinator != nil {
		s.PaymentPhase = c.coordinator.Phase()
	}
	for v, img := range c.images {
		s.Images[v] = img
	}
	return s
}

// ImageList returns the session's images in canonical variant order,
// skipping variants that were never produced.
func (s Session) ImageList() []domain.GeneratedImage {
	var out []domain.GeneratedImage
	for _, v := range domain.Variants() {
		if img, ok := s.Images[v]; ok {
			out = append(out, img)
		}
	}
	return out
}

func (c *Controller) setStatus(status Status) {
	c.mu.Lock()
	c.status = status
	c.mu.Unlock()
}

func (c *Controller) fail(err error) {
	c.mu.Lock()
	c.status = StatusFailed
	c.err = err
	c.mu.Unlock()
}
