package domain

import "errors"

var (
	ErrEmptyPrompt        = errors.New("prompt is required")
	ErrPromptTooLong      = errors.New("prompt exceeds maximum length")
	ErrUnknownVariant     = errors.New("unknown image variant")
	ErrWalletNotConnected = errors.New("wallet not connected")
	ErrPaymentRequired    = errors.New("payment not confirmed")
	ErrPaymentConsumed    = errors.New("payment already used")
	// ErrNoImageGenerated: the provider returned an empty result set.
	ErrNoImageGenerated = errors.New("no image generated by provider")
	// ErrNoImagePayload: an image exists upstream but neither base64 nor a
	// fetchable URL was obtainable.
	ErrNoImagePayload = errors.New("no image payload from provider")
	ErrRunInProgress  = errors.New("generation already in progress")
)
