package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/AzrielTheHellrazor/Flicks/internal/chain"
	"github.com/AzrielTheHellrazor/Flicks/internal/domain"
)

type recordPaymentRequest struct {
	TxHash    string `json:"txHash"`
	RequestID string `json:"requestId"`
}

type paymentResponse struct {
	TxHash      string     `json:"txHash"`
	RequestID   string     `json:"requestId"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`
	FulfilledAt *time.Time `json:"fulfilledAt,omitempty"`
}

// RecordPayment ties a confirmed payment transaction to a generation request.
// When a receipt waiter is configured the transaction is checked on chain
// before anything is written, so a fabricated hash cannot buy a run.
func (a *App) RecordPayment(w http.ResponseWriter, r *http.Request) {
	if a.Ledger == nil {
		a.error(w, http.StatusNotFound, "not_found", "payment ledger is not configured")
		return
	}
	var req recordPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	req.TxHash = strings.TrimSpace(req.TxHash)
	req.RequestID = strings.TrimSpace(req.RequestID)
	if req.TxHash == "" || req.RequestID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "txHash and requestId are required")
		return
	}

	if a.Receipts != nil {
		// The waiter's own cap exceeds the server write timeout; bound the
		// wait below it so the handler answers before the connection dies.
		wait := a.Config.HTTPWriteTimeout - 10*time.Second
		if wait <= 0 {
			wait = 30 * time.Second
		}
		ctx, cancel := context.WithTimeout(r.Context(), wait)
		defer cancel()
		receipt, err := a.Receipts.WaitForReceipt(ctx, chain.TxHash(req.TxHash))
		if err != nil {
			paymentsRecorded.WithLabelValues("unverified").Inc()
			a.Logger.Warn().Err(err).Str("tx_hash", req.TxHash).Msg("payment verification failed")
			a.error(w, http.StatusBadGateway, "verification_failed", "could not verify transaction on chain")
			return
		}
		if !receipt.Succeeded {
			paymentsRecorded.WithLabelValues("reverted").Inc()
			a.error(w, http.StatusUnprocessableEntity, "tx_reverted", "transaction reverted on chain")
			return
		}
	}

	if err := a.Ledger.Record(r.Context(), req.TxHash, req.RequestID); err != nil {
		if errors.Is(err, domain.ErrPaymentConsumed) {
			paymentsRecorded.WithLabelValues("duplicate").Inc()
			a.error(w, http.StatusConflict, "payment_consumed", "transaction already recorded")
			return
		}
		a.Logger.Error().Err(err).Msg("failed to record payment")
		a.error(w, http.StatusInternalServerError, "internal", "failed to record payment")
		return
	}
	paymentsRecorded.WithLabelValues("recorded").Inc()
	a.json(w, http.StatusCreated, paymentResponse{
		TxHash:    req.TxHash,
		RequestID: req.RequestID,
		Status:    "paid",
		CreatedAt: time.Now(),
	})
}

// GetPayment returns the ledger entry for a request id.
func (a *App) GetPayment(w http.ResponseWriter, r *http.Request) {
	if a.Ledger == nil {
		a.error(w, http.StatusNotFound, "not_found", "payment ledger is not configured")
		return
	}
	requestID := chi.URLParam(r, "requestID")
	entry, err := a.Ledger.FindByRequest(r.Context(), requestID)
	if err != nil {
		a.error(w, http.StatusNotFound, "not_found", "no payment recorded for this request")
		return
	}
	a.json(w, http.StatusOK, paymentResponse{
		TxHash:      entry.TxHash,
		RequestID:   entry.RequestID,
		Status:      string(entry.Status),
		CreatedAt:   entry.CreatedAt,
		FulfilledAt: entry.FulfilledAt,
	})
}
