package transfer

import "github.com/ankitjain28/gramflow/internal/models"

// GenerationRequest is a normalized AI request routed by the orchestrator.
type GenerationRequest struct {
	Type       models.GenerationType `json:"type"`
	Prompt     string                `json:"prompt"`
	Provider   string                `json:"provider"` // pinned provider, empty for fallback chain
	Model      string                `json:"model"`
	MaxTokens  int                   `json:"max_tokens"`
	PreferFree bool                  `json:"prefer_free"`
	ImageCount int                   `json:"image_count"`
	ImageSize  string                `json:"image_size"`
}

// GenerationResult is the structured outcome returned to callers. Failures
// come back as Success=false with Error set, never as a panic or bare 500, so
// UI code can degrade gracefully.
type GenerationResult struct {
	Success    bool    `json:"success"`
	Content    string  `json:"content,omitempty"`
	Error      string  `json:"error,omitempty"`
	Provider   string  `json:"provider,omitempty"`
	Model      string  `json:"model,omitempty"`
	TokensUsed int     `json:"tokens_used"`
	CostMicros int64   `json:"cost_micros"`
	CostUSD    float64 `json:"cost_usd"`
}

type ModerationOutcome struct {
	Success    bool     `json:"success"`
	Flagged    bool     `json:"flagged"`
	Categories []string `json:"categories,omitempty"`
	Provider   string   `json:"provider,omitempty"`
	Error      string   `json:"error,omitempty"`
}
