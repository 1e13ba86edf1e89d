// Package pipeline walks the fixed variant list and requests one image per
// variant from the generation endpoint, strictly in order.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/AzrielTheHellrazor/Flicks/internal/domain"
)

// ImageClient requests a single variant render.
type ImageClient interface {
	Generate(ctx context.Context, requestID, prompt string, variant domain.Variant) (*domain.GeneratedImage, error)
}

// Progress is reported after each completed variant.
type Progress struct {
	Current int
	Total   int
	Status  string
}

// Options configures a Runner.
type Options struct {
	Client ImageClient
	// Variants defaults to domain.Variants(). Order is generation order.
	Variants []domain.Variant
	// Delay between consecutive requests, to stay under upstream rate
	// limits. Defaults to one second; tests shrink it.
	Delay      time.Duration
	OnProgress func(Progress)
	Logger     zerolog.Logger
}

// Runner issues the variant requests sequentially. No parallelism: the
// upstream image service rate-limits aggressively, and order is part of the
// contract.
type Runner struct {
	client     ImageClient
	variants   []domain.Variant
	delay      time.Duration
	onProgress func(Progress)
	logger     zerolog.Logger
}

func NewRunner(opts Options) *Runner {
	variants := opts.Variants
	if len(variants) == 0 {
		variants = domain.Variants()
	}
	delay := opts.Delay
	if delay <= 0 {
		delay = time.Second
	}
	return &Runner{
		client:     opts.Client,
		variants:   variants,
		delay:      delay,
		onProgress: opts.OnProgress,
		logger:     opts.Logger,
	}
}

// Run generates every variant for the prompt. On the first failure it stops
// issuing further requests and returns the variants already retrieved
// together with the error.
func (r *Runner) Run(ctx context.Context, requestID, prompt string) ([]domain.GeneratedImage, error) {
	total := len(r.variants)
	r.report(Progress{Current: 0, Total: total, Status: "Starting image generation..."})

	var images []domain.GeneratedImage
	for i, variant := range r.variants {
		r.report(Progress{
			Current: i,
			Total:   total,
			Status:  fmt.Sprintf("Generating %s image... (%d/%d)", variant, i+1, total),
		})
		started := time.Now()
		img, err := r.client.Generate(ctx, requestID, prompt, variant)
		if err != nil {
			r.logger.Error().Err(err).Str("variant", string(variant)).Msg("variant generation failed")
			return images, fmt.Errorf("generate %s image: %w", variant, err)
		}
		images = append(images, *img)
		r.logger.Debug().
			Str("variant", string(variant)).
			Dur("duration", time.Since(started)).
			Msg("variant generated")
		r.report(Progress{
			Current: i + 1,
			Total:   total,
			Status:  fmt.Sprintf("%s image completed! (%d/%d)", variant, i+1, total),
		})
		if i < total-1 {
			select {
			case <-ctx.Done():
				return images, ctx.Err()
			case <-time.After(r.delay):
			}
		}
	}
	r.report(Progress{Current: total, Total: total, Status: "All images generated successfully!"})
	return images, nil
}

func (r *Runner) report(p Progress) {
	if r.onProgress != nil {
		r.onProgress(p)
	}
}
