package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/AzrielTheHellrazor/Flicks/internal/chain"
	"github.com/AzrielTheHellrazor/Flicks/internal/ledger"
)

type stubReceipts struct {
	receipt     *chain.Receipt
	err         error
	waited      []chain.TxHash
	deadline    time.Time
	hadDeadline bool
}

func (s *stubReceipts) WaitForReceipt(ctx context.Context, hash chain.TxHash) (*chain.Receipt, error) {
	s.waited = append(s.waited, hash)
	s.deadline, s.hadDeadline = ctx.Deadline()
	if s.err != nil {
		return nil, s.err
	}
	return s.receipt, nil
}

func TestRecordPayment(t *testing.T) {
	led := ledger.NewMemory()
	app, _ := newTestApp(t, &stubImages{}, led)
	receipts := &stubReceipts{receipt: &chain.Receipt{TxHash: "0xabc", Succeeded: true}}
	app.Receipts = receipts

	rec := postJSON(t, app.RecordPayment, recordPaymentRequest{TxHash: "0xabc", RequestID: "req_9"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201 (body %s)", rec.Code, rec.Body.String())
	}
	if len(receipts.waited) != 1 || receipts.waited[0] != "0xabc" {
		t.Errorf("waited = %v, want the submitted hash", receipts.waited)
	}
	entry, err := led.FindByRequest(context.Background(), "req_9")
	if err != nil {
		t.Fatalf("find entry: %v", err)
	}
	if entry.Status != ledger.StatusPaid {
		t.Errorf("status = %s, want paid", entry.Status)
	}
}

func TestRecordPaymentBoundsReceiptWait(t *testing.T) {
	led := ledger.NewMemory()
	app, _ := newTestApp(t, &stubImages{}, led)
	app.Config.HTTPWriteTimeout = 120 * time.Second
	receipts := &stubReceipts{receipt: &chain.Receipt{TxHash: "0xabc", Succeeded: true}}
	app.Receipts = receipts

	before := time.Now()
	rec := postJSON(t, app.RecordPayment, recordPaymentRequest{TxHash: "0xabc", RequestID: "req_t"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201 (body %s)", rec.Code, rec.Body.String())
	}
	if !receipts.hadDeadline {
		t.Fatal("receipt wait ran without a deadline")
	}
	// The wait must give up before the server write timeout cuts the
	// connection.
	if limit := before.Add(app.Config.HTTPWriteTimeout); !receipts.deadline.Before(limit) {
		t.Errorf("deadline %v is not below the write timeout bound %v", receipts.deadline, limit)
	}
}

func TestRecordPaymentDuplicateHash(t *testing.T) {
	led := ledger.NewMemory()
	app, _ := newTestApp(t, &stubImages{}, led)

	if rec := postJSON(t, app.RecordPayment, recordPaymentRequest{TxHash: "0xdup", RequestID: "req_a"}); rec.Code != http.StatusCreated {
		t.Fatalf("first record status = %d", rec.Code)
	}
	rec := postJSON(t, app.RecordPayment, recordPaymentRequest{TxHash: "0xdup", RequestID: "req_b"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
}

func TestRecordPaymentRevertedTransaction(t *testing.T) {
	led := ledger.NewMemory()
	app, _ := newTestApp(t, &stubImages{}, led)
	app.Receipts = &stubReceipts{receipt: &chain.Receipt{TxHash: "0xbad", Succeeded: false}}

	rec := postJSON(t, app.RecordPayment, recordPaymentRequest{TxHash: "0xbad", RequestID: "req_r"})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	if _, err := led.FindByRequest(context.Background(), "req_r"); err == nil {
		t.Error("reverted transaction must not be recorded")
	}
}

func TestRecordPaymentUnverifiable(t *testing.T) {
	led := ledger.NewMemory()
	app, _ := newTestApp(t, &stubImages{}, led)
	app.Receipts = &stubReceipts{err: chain.ErrReceiptTimeout}

	rec := postJSON(t, app.RecordPayment, recordPaymentRequest{TxHash: "0xslow", RequestID: "req_s"})
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
}

func TestRecordPaymentMissingFields(t *testing.T) {
	led := ledger.NewMemory()
	app, _ := newTestApp(t, &stubImages{}, led)

	rec := postJSON(t, app.RecordPayment, recordPaymentRequest{TxHash: "", RequestID: "req_x"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestGetPayment(t *testing.T) {
	led := ledger.NewMemory()
	app, _ := newTestApp(t, &stubImages{}, led)
	if err := led.Record(context.Background(), "0xget", "req_g"); err != nil {
		t.Fatalf("record: %v", err)
	}

	router := chi.NewRouter()
	router.Get("/api/payments/{requestID}", app.GetPayment)
	req := httptest.NewRequest(http.MethodGet, "/api/payments/req_g", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp paymentResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.TxHash != "0xget" || resp.Status != "paid" {
		t.Errorf("resp = %+v", resp)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/payments/req_missing", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}
