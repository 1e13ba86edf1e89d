package handlers

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	generateRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flicks_generate_requests_total",
		Help: "Generation endpoint requests by outcome",
	}, []string{"status"})

	generateDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "flicks_generate_duration_seconds",
		Help:    "Wall time of a single variant generation",
		Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
	}, []string{"variant"})

	derivationFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flicks_derivation_fallbacks_total",
		Help: "Prompt derivations served from the deterministic fallback",
	}, []string{"stage"})

	paymentsRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flicks_payments_total",
		Help: "Payment ledger operations by outcome",
	}, []string{"outcome"})
)
