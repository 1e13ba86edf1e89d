package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/AzrielTheHellrazor/Flicks/internal/chain"
	"github.com/AzrielTheHellrazor/Flicks/internal/domain"
	"github.com/AzrielTheHellrazor/Flicks/internal/frame"
	"github.com/AzrielTheHellrazor/Flicks/internal/infra"
	"github.com/AzrielTheHellrazor/Flicks/internal/ledger"
	"github.com/AzrielTheHellrazor/Flicks/internal/providers/openai"
	"github.com/AzrielTheHellrazor/Flicks/internal/stylist"
)

// ImageGenerator renders a single image for a derived prompt.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, req openai.ImageRequest) (*openai.ImageResult, error)
}

// App carries the dependencies shared by all handlers.
type App struct {
	Config  *infra.Config
	Logger  infra.Logger
	Stylist *stylist.Stylist
	Images  ImageGenerator
	// Ledger is nil when no payment record is configured; generation is then
	// ungated, matching the original contract.
	Ledger   ledger.Ledger
	Receipts chain.ReceiptWaiter
	Frames   frame.Verifier

	// servedMu guards served: variants already delivered for a payment, so a
	// replayed requestId cannot re-render a variant before the final one
	// redeems the entry. In-process only; a Postgres ledger shared across
	// instances still guarantees one complete run per payment.
	servedMu sync.Mutex
	served   map[string]map[domain.Variant]bool
}

func NewApp(cfg *infra.Config, logger infra.Logger, st *stylist.Stylist, images ImageGenerator, l ledger.Ledger, receipts chain.ReceiptWaiter, frames frame.Verifier) *App {
	return &App{
		Config:   cfg,
		Logger:   logger,
		Stylist:  st,
		Images:   images,
		Ledger:   l,
		Receipts: receipts,
		Frames:   frames,
		served:   make(map[string]map[domain.Variant]bool),
	}
}

func (a *App) variantServed(requestID string, v domain.Variant) bool {
	a.servedMu.Lock()
	defer a.servedMu.Unlock()
	return a.served[requestID][v]
}

func (a *App) markServed(requestID string, v domain.Variant) {
	a.servedMu.Lock()
	defer a.servedMu.Unlock()
	if a.served == nil {
		a.served = make(map[string]map[domain.Variant]bool)
	}
	set := a.served[requestID]
	if set == nil {
		set = make(map[domain.Variant]bool)
		a.served[requestID] = set
	}
	set[v] = true
}

func (a *App) clearServed(requestID string) {
	a.servedMu.Lock()
	defer a.servedMu.Unlock()
	delete(a.served, requestID)
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (a *App) error(w http.ResponseWriter, code int, errCode, message string) {
	a.json(w, code, map[string]errorBody{"error": {Code: errCode, Message: message}})
}
