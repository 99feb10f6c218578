package ai

import "context"

const anthropicBaseURL = "https://api.anthropic.com/v1"

// anthropicProvider is the secondary commercial provider. Text only.
type anthropicProvider struct {
	apiKey string
}

func NewAnthropic(apiKey string) Provider {
	return &anthropicProvider{apiKey: apiKey}
}

func (p *anthropicProvider) Name() string { return "anthropic" }

func (p *anthropicProvider) Capabilities() []Capability {
	return []Capability{CapabilityText}
}

func (p *anthropicProvider) Models() []string {
	return []string{"claude-3-5-sonnet-latest", "claude-3-5-haiku-latest"}
}

func (p *anthropicProvider) DefaultModel(c Capability) string {
	return "claude-3-5-haiku-latest"
}

func (p *anthropicProvider) Available() bool { return p.apiKey != "" }
func (p *anthropicProvider) FreeTier() bool  { return false }

func (p *anthropicProvider) CostPerThousandTokensMicros(model string) int64 {
	switch model {
	case "claude-3-5-sonnet-latest":
		return 9_000
	case "claude-3-5-haiku-latest":
		return 2_400
	}
	return 9_000
}

func (p *anthropicProvider) CostPerImageMicros(model string) int64 { return 0 }

func (p *anthropicProvider) GenerateText(ctx context.Context, req TextRequest) (*Result, error) {
	if !p.Available() {
		return nil, errUnavailable(p.Name())
	}

	model := req.Model
	if model == "" {
		model = p.DefaultModel(CapabilityText)
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	payload := map[string]interface{}{
		"model":      model,
		"max_tokens": maxTokens,
		"messages": []map[string]string{
			{"role": "user", "content": req.Prompt},
		},
	}
	if req.System != "" {
		payload["system"] = req.System
	}
	if req.Temperature > 0 {
		payload["temperature"] = req.Temperature
	}

	headers := map[string]string{
		"x-api-key":         p.apiKey,
		"anthropic-version": "2023-06-01",
	}

	var result struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
		Usage struct {
			InputTokens  int `json:"input_tokens"`
			OutputTokens int `json:"output_tokens"`
		} `json:"usage"`
	}

	if err := postJSON(ctx, p.Name(), anthropicBaseURL+"/messages", headers, payload, &result); err != nil {
		return nil, err
	}
	if len(result.Content) == 0 {
		return nil, newProviderError(p.Name(), "empty message response", false)
	}

	return &Result{
		Content:    result.Content[0].Text,
		TokensUsed: result.Usage.InputTokens + result.Usage.OutputTokens,
		Provider:   p.Name(),
		Model:      model,
	}, nil
}

func (p *anthropicProvider) GenerateImage(ctx context.Context, req ImageRequest) (*Result, error) {
	return nil, errUnsupported(p.Name(), CapabilityImage)
}

func (p *anthropicProvider) Moderate(ctx context.Context, input string) (*ModerationResult, error) {
	return nil, errUnsupported(p.Name(), CapabilityModeration)
}
