// Package ai contains the provider adapters and selection logic for content
// generation. Providers share no behavior, only the Provider contract; the
// orchestration layer composes them into a fallback chain.
package ai

import "context"

type Capability string

const (
	CapabilityText       Capability = "text"
	CapabilityImage      Capability = "image"
	CapabilityModeration Capability = "moderation"
)

type TextRequest struct {
	Model       string
	System      string
	Prompt      string
	MaxTokens   int
	Temperature float64
}

type ImageRequest struct {
	Model  string
	Prompt string
	Size   string
	Count  int
}

// Result is the uniform shape every adapter normalizes its vendor response
// into. Content holds generated text or an image URL.
type Result struct {
	Content    string
	TokensUsed int
	ImageCount int
	Provider   string
	Model      string
}

type ModerationResult struct {
	Flagged    bool
	Categories []string
	Provider   string
	Model      string
}

type Provider interface {
	Name() string
	Capabilities() []Capability
	Models() []string
	DefaultModel(c Capability) string

	// Available reports whether the provider can be called at all
	// (credentials or endpoint configured).
	Available() bool
	FreeTier() bool

	// Cost tables in integer micro-dollars. Text cost is per thousand
	// tokens, image cost per generated image.
	CostPerThousandTokensMicros(model string) int64
	CostPerImageMicros(model string) int64

	GenerateText(ctx context.Context, req TextRequest) (*Result, error)
	GenerateImage(ctx context.Context, req ImageRequest) (*Result, error)
	Moderate(ctx context.Context, input string) (*ModerationResult, error)
}

func Supports(p Provider, c Capability) bool {
	for _, cap := range p.Capabilities() {
		if cap == c {
			return true
		}
	}
	return false
}
