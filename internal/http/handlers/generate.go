package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/AzrielTheHellrazor/Flicks/internal/domain"
	"github.com/AzrielTheHellrazor/Flicks/internal/ledger"
	"github.com/AzrielTheHellrazor/Flicks/internal/providers/openai"
	"github.com/AzrielTheHellrazor/Flicks/internal/stylist"
)

type generateImageRequest struct {
	Prompt    string `json:"prompt"`
	ImageType string `json:"imageType"`
	RequestID string `json:"requestId"`
}

type generatedImagePayload struct {
	URL             *string `json:"url"`
	Base64          string  `json:"base64"`
	Type            string  `json:"type"`
	OriginalPrompt  string  `json:"originalPrompt"`
	ProjectTemplate string  `json:"projectTemplate"`
	OptimizedPrompt string  `json:"optimizedPrompt"`
}

type generateImageResponse struct {
	Image generatedImagePayload `json:"image"`
}

// GenerateImage renders one variant. Input validation happens before any
// upstream call: an unknown variant or blank prompt must not spend tokens.
func (a *App) GenerateImage(w http.ResponseWriter, r *http.Request) {
	var req generateImageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		generateRequests.WithLabelValues("bad_request").Inc()
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		generateRequests.WithLabelValues("bad_request").Inc()
		a.error(w, http.StatusBadRequest, "bad_request", "prompt is required")
		return
	}
	if len([]rune(prompt)) > domain.MaxPromptLength {
		generateRequests.WithLabelValues("bad_request").Inc()
		a.error(w, http.StatusBadRequest, "bad_request", "prompt exceeds 300 characters")
		return
	}
	variant, err := domain.ParseVariant(req.ImageType)
	if err != nil {
		generateRequests.WithLabelValues("bad_request").Inc()
		a.error(w, http.StatusBadRequest, "bad_request", "unsupported image type")
		return
	}

	if a.Ledger != nil {
		if !a.requirePaid(w, r, req.RequestID) {
			return
		}
		if a.variantServed(req.RequestID, variant) {
			generateRequests.WithLabelValues("payment_consumed").Inc()
			a.error(w, http.StatusConflict, "variant_served", "variant already generated for this payment")
			return
		}
	}

	derivation := a.Stylist.Derive(r.Context(), prompt)
	if derivation.TemplateSource == stylist.SourceFallback {
		derivationFallbacks.WithLabelValues("template").Inc()
	}
	if derivation.PromptsSource == stylist.SourceFallback {
		derivationFallbacks.WithLabelValues("prompts").Inc()
	}
	optimized := derivation.Prompts[variant]

	started := time.Now()
	result, err := a.Images.GenerateImage(r.Context(), openai.ImageRequest{
		Prompt:  optimized,
		Size:    "1024x1024",
		Quality: "standard",
	})
	generateDuration.WithLabelValues(string(variant)).Observe(time.Since(started).Seconds())
	if err != nil {
		a.Logger.Error().Err(err).Str("variant", string(variant)).Msg("image generation failed")
		switch {
		case errors.Is(err, domain.ErrNoImagePayload):
			generateRequests.WithLabelValues("upstream_empty").Inc()
			a.error(w, http.StatusBadGateway, "upstream_no_image", "no image data returned")
		case errors.Is(err, domain.ErrNoImageGenerated):
			generateRequests.WithLabelValues("upstream_empty").Inc()
			a.error(w, http.StatusInternalServerError, "no_image_generated", "no image generated")
		default:
			generateRequests.WithLabelValues("error").Inc()
			a.error(w, http.StatusInternalServerError, "internal", "failed to generate image")
		}
		return
	}

	if a.Ledger != nil {
		a.markServed(req.RequestID, variant)
		if variant == lastVariant() {
			if err := a.Ledger.Redeem(r.Context(), req.RequestID); err != nil {
				// The run already produced images; log the accounting failure
				// instead of failing the delivery.
				a.Logger.Error().Err(err).Str("request_id", req.RequestID).Msg("failed to redeem payment")
			}
			a.clearServed(req.RequestID)
		}
	}

	payload := generatedImagePayload{
		Base64:          result.Base64,
		Type:            string(variant),
		OriginalPrompt:  prompt,
		ProjectTemplate: derivation.Template,
		OptimizedPrompt: optimized,
	}
	if result.URL != "" {
		payload.URL = &result.URL
	}
	generateRequests.WithLabelValues("ok").Inc()
	a.json(w, http.StatusOK, generateImageResponse{Image: payload})
}

// requirePaid enforces the payment ledger: the request must reference a
// recorded, unfulfilled payment. Reports whether handling may continue.
func (a *App) requirePaid(w http.ResponseWriter, r *http.Request, requestID string) bool {
	if strings.TrimSpace(requestID) == "" {
		generateRequests.WithLabelValues("payment_required").Inc()
		a.error(w, http.StatusPaymentRequired, "payment_required", "requestId with a recorded payment is required")
		return false
	}
	entry, err := a.Ledger.FindByRequest(r.Context(), requestID)
	if err != nil {
		generateRequests.WithLabelValues("payment_required").Inc()
		a.error(w, http.StatusPaymentRequired, "payment_required", "no confirmed payment for this request")
		return false
	}
	if entry.Status != ledger.StatusPaid {
		generateRequests.WithLabelValues("payment_consumed").Inc()
		a.error(w, http.StatusConflict, "payment_consumed", "payment already redeemed")
		return false
	}
	return true
}

func lastVariant() domain.Variant {
	variants := domain.Variants()
	return variants[len(variants)-1]
}
