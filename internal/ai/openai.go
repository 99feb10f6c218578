package ai

import "context"

const openaiBaseURL = "https://api.openai.com/v1"

// openaiProvider is the primary commercial provider: text, image and
// moderation.
type openaiProvider struct {
	apiKey string
}

func NewOpenAI(apiKey string) Provider {
	return &openaiProvider{apiKey: apiKey}
}

func (p *openaiProvider) Name() string { return "openai" }

func (p *openaiProvider) Capabilities() []Capability {
	return []Capability{CapabilityText, CapabilityImage, CapabilityModeration}
}

func (p *openaiProvider) Models() []string {
	return []string{"gpt-4o", "gpt-4o-mini", "dall-e-3"}
}

func (p *openaiProvider) DefaultModel(c Capability) string {
	switch c {
	case CapabilityImage:
		return "dall-e-3"
	case CapabilityModeration:
		return "omni-moderation-latest"
	}
	return "gpt-4o-mini"
}

func (p *openaiProvider) Available() bool { return p.apiKey != "" }
func (p *openaiProvider) FreeTier() bool  { return false }

func (p *openaiProvider) CostPerThousandTokensMicros(model string) int64 {
	switch model {
	case "gpt-4o":
		return 10_000 // $0.01 / 1K tokens blended
	case "gpt-4o-mini":
		return 600
	}
	return 10_000
}

func (p *openaiProvider) CostPerImageMicros(model string) int64 {
	return 40_000 // $0.04, dall-e-3 standard 1024x1024
}

func (p *openaiProvider) headers() map[string]string {
	return map[string]string{"Authorization": "Bearer " + p.apiKey}
}

func (p *openaiProvider) GenerateText(ctx context.Context, req TextRequest) (*Result, error) {
	if !p.Available() {
		return nil, errUnavailable(p.Name())
	}

	model := req.Model
	if model == "" {
		model = p.DefaultModel(CapabilityText)
	}

	messages := []map[string]string{}
	if req.System != "" {
		messages = append(messages, map[string]string{"role": "system", "content": req.System})
	}
	messages = append(messages, map[string]string{"role": "user", "content": req.Prompt})

	payload := map[string]interface{}{
		"model":    model,
		"messages": messages,
	}
	if req.MaxTokens > 0 {
		payload["max_tokens"] = req.MaxTokens
	}
	if req.Temperature > 0 {
		payload["temperature"] = req.Temperature
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		Usage struct {
			TotalTokens int `json:"total_tokens"`
		} `json:"usage"`
	}

	if err := postJSON(ctx, p.Name(), openaiBaseURL+"/chat/completions", p.headers(), payload, &result); err != nil {
		return nil, err
	}
	if len(result.Choices) == 0 {
		return nil, newProviderError(p.Name(), "empty completion response", false)
	}

	return &Result{
		Content:    result.Choices[0].Message.Content,
		TokensUsed: result.Usage.TotalTokens,
		Provider:   p.Name(),
		Model:      model,
	}, nil
}

func (p *openaiProvider) GenerateImage(ctx context.Context, req ImageRequest) (*Result, error) {
	if !p.Available() {
		return nil, errUnavailable(p.Name())
	}

	model := req.Model
	if model == "" {
		model = p.DefaultModel(CapabilityImage)
	}
	size := req.Size
	if size == "" {
		size = "1024x1024"
	}
	count := req.Count
	if count < 1 {
		count = 1
	}

	payload := map[string]interface{}{
		"model":  model,
		"prompt": req.Prompt,
		"n":      count,
		"size":   size,
	}

	var result struct {
		Data []struct {
			URL string `json:"url"`
		} `json:"data"`
	}

	if err := postJSON(ctx, p.Name(), openaiBaseURL+"/images/generations", p.headers(), payload, &result); err != nil {
		return nil, err
	}
	if len(result.Data) == 0 || result.Data[0].URL == "" {
		return nil, newProviderError(p.Name(), "no image returned", false)
	}

	return &Result{
		Content:    result.Data[0].URL,
		ImageCount: len(result.Data),
		Provider:   p.Name(),
		Model:      model,
	}, nil
}

func (p *openaiProvider) Moderate(ctx context.Context, input string) (*ModerationResult, error) {
	if !p.Available() {
		return nil, errUnavailable(p.Name())
	}

	model := p.DefaultModel(CapabilityModeration)
	payload := map[string]interface{}{
		"model": model,
		"input": input,
	}

	var result struct {
		Results []struct {
			Flagged    bool            `json:"flagged"`
			Categories map[string]bool `json:"categories"`
		} `json:"results"`
	}

	if err := postJSON(ctx, p.Name(), openaiBaseURL+"/moderations", p.headers(), payload, &result); err != nil {
		return nil, err
	}
	if len(result.Results) == 0 {
		return nil, newProviderError(p.Name(), "empty moderation response", false)
	}

	var categories []string
	for category, hit := range result.Results[0].Categories {
		if hit {
			categories = append(categories, category)
		}
	}

	return &ModerationResult{
		Flagged:    result.Results[0].Flagged,
		Categories: categories,
		Provider:   p.Name(),
		Model:      model,
	}, nil
}
