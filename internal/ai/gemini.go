package ai

import (
	"context"
	"fmt"
)

const geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// geminiProvider is the tertiary commercial provider. Text only; token usage
// comes back in usageMetadata.
type geminiProvider struct {
	apiKey string
}

func NewGemini(apiKey string) Provider {
	return &geminiProvider{apiKey: apiKey}
}

func (p *geminiProvider) Name() string { return "gemini" }

func (p *geminiProvider) Capabilities() []Capability {
	return []Capability{CapabilityText}
}

func (p *geminiProvider) Models() []string {
	return []string{"gemini-1.5-flash", "gemini-1.5-pro"}
}

func (p *geminiProvider) DefaultModel(c Capability) string {
	return "gemini-1.5-flash"
}

func (p *geminiProvider) Available() bool { return p.apiKey != "" }
func (p *geminiProvider) FreeTier() bool  { return false }

func (p *geminiProvider) CostPerThousandTokensMicros(model string) int64 {
	switch model {
	case "gemini-1.5-pro":
		return 3_750
	case "gemini-1.5-flash":
		return 225
	}
	return 3_750
}

func (p *geminiProvider) CostPerImageMicros(model string) int64 { return 0 }

func (p *geminiProvider) GenerateText(ctx context.Context, req TextRequest) (*Result, error) {
	if !p.Available() {
		return nil, errUnavailable(p.Name())
	}

	model := req.Model
	if model == "" {
		model = p.DefaultModel(CapabilityText)
	}

	prompt := req.Prompt
	if req.System != "" {
		prompt = req.System + "\n\n" + prompt
	}

	payload := map[string]interface{}{
		"contents": []map[string]interface{}{
			{"parts": []map[string]string{{"text": prompt}}},
		},
	}
	if req.MaxTokens > 0 || req.Temperature > 0 {
		genConfig := map[string]interface{}{}
		if req.MaxTokens > 0 {
			genConfig["maxOutputTokens"] = req.MaxTokens
		}
		if req.Temperature > 0 {
			genConfig["temperature"] = req.Temperature
		}
		payload["generationConfig"] = genConfig
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", geminiBaseURL, model, p.apiKey)

	var result struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
		UsageMetadata struct {
			TotalTokenCount int `json:"totalTokenCount"`
		} `json:"usageMetadata"`
	}

	if err := postJSON(ctx, p.Name(), url, nil, payload, &result); err != nil {
		return nil, err
	}
	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return nil, newProviderError(p.Name(), "empty candidate response", false)
	}

	return &Result{
		Content:    result.Candidates[0].Content.Parts[0].Text,
		TokensUsed: result.UsageMetadata.TotalTokenCount,
		Provider:   p.Name(),
		Model:      model,
	}, nil
}

func (p *geminiProvider) GenerateImage(ctx context.Context, req ImageRequest) (*Result, error) {
	return nil, errUnsupported(p.Name(), CapabilityImage)
}

func (p *geminiProvider) Moderate(ctx context.Context, input string) (*ModerationResult, error) {
	return nil, errUnsupported(p.Name(), CapabilityModeration)
}
