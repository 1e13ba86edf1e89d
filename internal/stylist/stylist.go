// Package stylist derives a shared visual style template from a raw user
// prompt, then four variant-specific generation prompts from that template.
// The shared template is what keeps icon, hero, og and splash renders on one
// palette and motif instead of four unrelated generations.
package stylist

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/AzrielTheHellrazor/Flicks/internal/domain"
	"github.com/AzrielTheHellrazor/Flicks/internal/providers/openai"
)

// ChatClient is the text-generation dependency.
type ChatClient interface {
	Complete(ctx context.Context, req openai.ChatRequest) (string, error)
}

// Source records whether content came from the model or the deterministic
// fallback branch.
type Source string

const (
	SourceModel    Source = "model"
	SourceFallback Source = "fallback"
)

// OutcomeKind tags a boundary result from the text-generation service.
type OutcomeKind string

const (
	OutcomeOK            OutcomeKind = "ok"
	OutcomeParseError    OutcomeKind = "parse-error"
	OutcomeUpstreamError OutcomeKind = "upstream-error"
)

// TemplateOutcome is the tagged result of the template derivation call.
type TemplateOutcome struct {
	Kind     OutcomeKind
	Template string
	Err      error
}

// PromptsOutcome is the tagged result of the per-variant prompt call.
type PromptsOutcome struct {
	Kind    OutcomeKind
	Prompts map[domain.Variant]string
	Err     error
}

// Derivation is the complete artifact for one request: one template and one
// prompt per variant, with provenance for each stage.
type Derivation struct {
	Template       string
	TemplateSource Source
	Prompts        map[domain.Variant]string
	PromptsSource  Source
}

// Options configures a Stylist.
type Options struct {
	Chat   ChatClient
	Logger zerolog.Logger
	// CacheTTL bounds how long a derivation is reused for an identical
	// prompt. The four sequential variant requests of one run share a single
	// derivation through this cache.
	CacheTTL time.Duration
}

// Stylist performs the two-stage derivation. Derive never fails: any model
// failure or malformed payload takes the explicit fallback branch instead.
type Stylist struct {
	chat     ChatClient
	logger   zerolog.Logger
	cacheTTL time.Duration

	mu    sync.Mutex
	cache map[string]cachedDerivation
}

type cachedDerivation struct {
	derivation *Derivation
	expires    time.Time
}

func New(opts Options) *Stylist {
	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Stylist{
		chat:     opts.Chat,
		logger:   opts.Logger,
		cacheTTL: ttl,
		cache:    make(map[string]cachedDerivation),
	}
}

// Derive produces the template and all four variant prompts for a user
// prompt, reusing a cached derivation for repeat prompts within the TTL.
func (s *Stylist) Derive(ctx context.Context, userPrompt string) *Derivation {
	s.mu.Lock()
	if cached, ok := s.cache[userPrompt]; ok && time.Now().Before(cached.expires) {
		s.mu.Unlock()
		return cached.derivation
	}
	s.mu.Unlock()

	d := &Derivation{}

	tpl := s.deriveTemplate(ctx, userPrompt)
	switch tpl.Kind {
	case OutcomeOK:
		d.Template = tpl.Template
		d.TemplateSource = SourceModel
	default:
		s.logger.Warn().Err(tpl.Err).Str("outcome", string(tpl.Kind)).Msg("template derivation fell back")
		d.Template = FallbackTemplate(userPrompt)
		d.TemplateSource = SourceFallback
	}

	prompts := s.deriveVariantPrompts(ctx, d.Template)
	switch prompts.Kind {
	case OutcomeOK:
		d.Prompts = prompts.Prompts
		d.PromptsSource = SourceModel
	default:
		s.logger.Warn().Err(prompts.Err).Str("outcome", string(prompts.Kind)).Msg("prompt derivation fell back")
		d.Prompts = FallbackPrompts(d.Template)
		d.PromptsSource = SourceFallback
	}

	s.mu.Lock()
	s.cache[userPrompt] = cachedDerivation{derivation: d, expires: time.Now().Add(s.cacheTTL)}
	s.mu.Unlock()
	return d
}

func (s *Stylist) deriveTemplate(ctx context.Context, userPrompt string) TemplateOutcome {
	text, err := s.chat.Complete(ctx, openai.ChatRequest{
		System:      templateSystemPrompt,
		User:        fmt.Sprintf("User prompt: %q", userPrompt),
		Temperature: 0.8,
		MaxTokens:   400,
	})
	if err != nil {
		return TemplateOutcome{Kind: OutcomeUpstreamError, Err: err}
	}
	return TemplateOutcome{Kind: OutcomeOK, Template: text}
}

func (s *Stylist) deriveVariantPrompts(ctx context.Context, template string) PromptsOutcome {
	text, err := s.chat.Complete(ctx, openai.ChatRequest{
		System:      variantSystemPrompt,
		User:        fmt.Sprintf("Project template: %q", template),
		Temperature: 0.7,
		MaxTokens:   800,
	})
	if err != nil {
		return PromptsOutcome{Kind: OutcomeUpstreamError, Err: err}
	}
	parsed, err := parseModelPayload[variantPromptPayload](text)
	if err != nil {
		return PromptsOutcome{Kind: OutcomeParseError, Err: err}
	}
	prompts := map[domain.Variant]string{
		domain.VariantIcon:   parsed.Icon,
		domain.VariantHero:   parsed.Hero,
		domain.VariantOG:     parsed.OG,
		domain.VariantSplash: parsed.Splash,
	}
	for _, v := range domain.Variants() {
		if prompts[v] == "" {
			return PromptsOutcome{
				Kind: OutcomeParseError,
				Err:  fmt.Errorf("model payload missing %s prompt", v),
			}
		}
	}
	return PromptsOutcome{Kind: OutcomeOK, Prompts: prompts}
}

type variantPromptPayload struct {
	Icon   string `json:"icon"`
	Hero   string `json:"hero"`
	OG     string `json:"og"`
	Splash string `json:"splash"`
}
