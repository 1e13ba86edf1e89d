package domain

import (
	"fmt"
	"math/rand"
	"strings"
	"time"
)

// MaxPromptLength bounds user prompt input.
const MaxPromptLength = 300

// Variant enumerates the image purposes produced for a mini-app asset manifest.
type Variant string

const (
	VariantIcon   Variant = "icon"
	VariantHero   Variant = "hero"
	VariantOG     Variant = "og"
	VariantSplash Variant = "splash"
)

// Variants is the canonical generation order. The pipeline walks this slice
// strictly in order, so changing it changes the delivery order everywhere.
func Variants() []Variant {
	return []Variant{VariantIcon, VariantHero, VariantOG, VariantSplash}
}

// ParseVariant sanitizes free-form input into a supported variant.
func ParseVariant(s string) (Variant, error) {
	switch Variant(strings.ToLower(strings.TrimSpace(s))) {
	case VariantIcon:
		return VariantIcon, nil
	case VariantHero:
		return VariantHero, nil
	case VariantOG:
		return VariantOG, nil
	case VariantSplash:
		return VariantSplash, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownVariant, s)
	}
}

// GenerationRequest is a single user submission. Held only in transient
// session state, never persisted.
type GenerationRequest struct {
	ID        string
	Prompt    string
	CreatedAt time.Time
}

// NewGenerationRequest validates the prompt and mints a request token of the
// form req_<unix-ms>_<9 alphanumerics>.
func NewGenerationRequest(prompt string) (*GenerationRequest, error) {
	trimmed := strings.TrimSpace(prompt)
	if trimmed == "" {
		return nil, ErrEmptyPrompt
	}
	if len([]rune(trimmed)) > MaxPromptLength {
		return nil, fmt.Errorf("%w: %d > %d", ErrPromptTooLong, len([]rune(trimmed)), MaxPromptLength)
	}
	now := time.Now()
	return &GenerationRequest{
		ID:        fmt.Sprintf("req_%d_%s", now.UnixMilli(), randomToken(9)),
		Prompt:    trimmed,
		CreatedAt: now,
	}, nil
}

const tokenAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

func randomToken(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = tokenAlphabet[rand.Intn(len(tokenAlphabet))]
	}
	return string(b)
}

// GeneratedImage is one produced variant. Held in memory only.
type GeneratedImage struct {
	Variant         Variant
	Base64          string
	SourceURL       string
	OriginalPrompt  string
	ProjectTemplate string
	OptimizedPrompt string
}
