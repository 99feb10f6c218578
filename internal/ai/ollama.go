package ai

import "context"

// ollamaProvider is the free local fallback at the end of the default chain.
type ollamaProvider struct {
	baseURL string
}

func NewOllama(baseURL string) Provider {
	return &ollamaProvider{baseURL: baseURL}
}

func (p *ollamaProvider) Name() string { return "ollama" }

func (p *ollamaProvider) Capabilities() []Capability {
	return []Capability{CapabilityText}
}

func (p *ollamaProvider) Models() []string {
	return []string{"llama3.1", "mistral"}
}

func (p *ollamaProvider) DefaultModel(c Capability) string { return "llama3.1" }

func (p *ollamaProvider) Available() bool { return p.baseURL != "" }
func (p *ollamaProvider) FreeTier() bool  { return true }

func (p *ollamaProvider) CostPerThousandTokensMicros(model string) int64 { return 0 }
func (p *ollamaProvider) CostPerImageMicros(model string) int64          { return 0 }

func (p *ollamaProvider) GenerateText(ctx context.Context, req TextRequest) (*Result, error) {
	if !p.Available() {
		return nil, errUnavailable(p.Name())
	}

	model := req.Model
	if model == "" {
		model = p.DefaultModel(CapabilityText)
	}

	payload := map[string]interface{}{
		"model":  model,
		"prompt": req.Prompt,
		"stream": false,
	}
	if req.System != "" {
		payload["system"] = req.System
	}

	var result struct {
		Response        string `json:"response"`
		PromptEvalCount int    `json:"prompt_eval_count"`
		EvalCount       int    `json:"eval_count"`
	}

	if err := postJSON(ctx, p.Name(), p.baseURL+"/api/generate", nil, payload, &result); err != nil {
		return nil, err
	}
	if result.Response == "" {
		return nil, newProviderError(p.Name(), "empty generate response", false)
	}

	return &Result{
		Content:    result.Response,
		TokensUsed: result.PromptEvalCount + result.EvalCount,
		Provider:   p.Name(),
		Model:      model,
	}, nil
}

func (p *ollamaProvider) GenerateImage(ctx context.Context, req ImageRequest) (*Result, error) {
	return nil, errUnsupported(p.Name(), CapabilityImage)
}

func (p *ollamaProvider) Moderate(ctx context.Context, input string) (*ModerationResult, error) {
	return nil, errUnsupported(p.Name(), CapabilityModeration)
}
