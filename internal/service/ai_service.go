package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	config "github.com/ankitjain28/gramflow/configs"
	"github.com/ankitjain28/gramflow/internal/ai"
	"github.com/ankitjain28/gramflow/internal/models"
	"github.com/ankitjain28/gramflow/internal/repository"
	"github.com/ankitjain28/gramflow/internal/transfer"
)

const (
	captionSystemPrompt  = "You write engaging Instagram captions. Keep them under 2200 characters, include a hook in the first line, and end with a call to action."
	hashtagSystemPrompt  = "You suggest relevant Instagram hashtags. Return 10 to 20 hashtags as a space-separated list, most specific first."
	planSystemPrompt     = "You are a social media strategist. Produce a structured content plan with post ideas, formats and a posting cadence."
	defaultHistoryLimit  = 50
	defaultMaxTextTokens = 1024
)

// AiService routes generation requests through the provider fallback chain
// and keeps the cost ledger. A request that ends in success writes exactly one
// generation record and one usage upsert; a request where every provider
// fails writes nothing.
type AiService interface {
	Generate(ctx context.Context, companyID, userID int64, req *transfer.GenerationRequest) (*transfer.GenerationResult, error)
	GenerateCaption(ctx context.Context, companyID, userID int64, topic string, preferFree bool) (*transfer.GenerationResult, error)
	GenerateHashtags(ctx context.Context, companyID, userID int64, topic string, preferFree bool) (*transfer.GenerationResult, error)
	GenerateContentPlan(ctx context.Context, companyID, userID int64, brief string, preferFree bool) (*transfer.GenerationResult, error)
	GenerateImage(ctx context.Context, companyID, userID int64, req *transfer.GenerationRequest) (*transfer.GenerationResult, error)
	ModerateContent(ctx context.Context, input string) (*transfer.ModerationOutcome, error)
	History(ctx context.Context, companyID int64, limit int) ([]*models.AiGeneration, error)
	Usage(ctx context.Context, companyID int64, from, to time.Time) ([]*models.AiUsage, error)
}

type aiService struct {
	cfg   config.Config
	chain *ai.Chain
	gr    repository.AiGenerationRepository
	ur    repository.AiUsageRepository
	br    repository.BudgetRepository
	now   func() time.Time
}

func NewAiService(
	cfg config.Config,
	chain *ai.Chain,
	gr repository.AiGenerationRepository,
	ur repository.AiUsageRepository,
	br repository.BudgetRepository) AiService {
	return &aiService{
		cfg:   cfg,
		chain: chain,
		gr:    gr,
		ur:    ur,
		br:    br,
		now:   time.Now,
	}
}

func (s *aiService) GenerateCaption(ctx context.Context, companyID, userID int64, topic string, preferFree bool) (*transfer.GenerationResult, error) {
	return s.generateWithSystem(ctx, companyID, userID, models.GenerationCaption, captionSystemPrompt, topic, preferFree)
}

func (s *aiService) GenerateHashtags(ctx context.Context, companyID, userID int64, topic string, preferFree bool) (*transfer.GenerationResult, error) {
	return s.generateWithSystem(ctx, companyID, userID, models.GenerationHashtags, hashtagSystemPrompt, topic, preferFree)
}

func (s *aiService) GenerateContentPlan(ctx context.Context, companyID, userID int64, brief string, preferFree bool) (*transfer.GenerationResult, error) {
	return s.generateWithSystem(ctx, companyID, userID, models.GenerationPlan, planSystemPrompt, brief, preferFree)
}

func (s *aiService) generateWithSystem(ctx context.Context, companyID, userID int64, genType models.GenerationType, system, prompt string, preferFree bool) (*transfer.GenerationResult, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, validationError("prompt is missing")
	}
	return s.run(ctx, companyID, userID, &transfer.GenerationRequest{
		Type:       genType,
		Prompt:     prompt,
		PreferFree: preferFree,
	}, system)
}

func (s *aiService) Generate(ctx context.Context, companyID, userID int64, req *transfer.GenerationRequest) (*transfer.GenerationResult, error) {
	if req == nil || strings.TrimSpace(req.Prompt) == "" {
		return nil, validationError("prompt is missing")
	}
	return s.run(ctx, companyID, userID, req, "")
}

func (s *aiService) GenerateImage(ctx context.Context, companyID, userID int64, req *transfer.GenerationRequest) (*transfer.GenerationResult, error) {
	if req == nil || strings.TrimSpace(req.Prompt) == "" {
		return nil, validationError("prompt is missing")
	}
	req.Type = models.GenerationImage
	return s.run(ctx, companyID, userID, req, "")
}

// run is the fallback loop. Providers are tried in order; business-level
// failures move to the next provider and are never retried on the same one.
func (s *aiService) run(ctx context.Context, companyID, userID int64, req *transfer.GenerationRequest, system string) (*transfer.GenerationResult, error) {
	if err := s.checkBudget(ctx, companyID); err != nil {
		return nil, err
	}

	capability := capabilityFor(req.Type)
	candidates := s.candidates(capability, req)
	if len(candidates) == 0 {
		return &transfer.GenerationResult{
			Success: false,
			Error:   fmt.Sprintf("no provider available for %s generation", capability),
		}, nil
	}

	var failures []string
	for _, p := range candidates {
		result, err := s.invoke(ctx, p, capability, req, system)
		if err != nil {
			s.chain.RecordFailure(p.Name())
			failures = append(failures, fmt.Sprintf("%s: %s", p.Name(), err.Error()))
			slog.Warn("provider failed, falling back", "provider", p.Name(), "type", req.Type, "error", err)
			continue
		}

		s.chain.RecordSuccess(p.Name())
		costMicros := s.costFor(p, capability, result)
		s.record(ctx, companyID, userID, req, result, costMicros)

		return &transfer.GenerationResult{
			Success:    true,
			Content:    result.Content,
			Provider:   result.Provider,
			Model:      result.Model,
			TokensUsed: result.TokensUsed,
			CostMicros: costMicros,
			CostUSD:    ai.MicrosToUSD(costMicros),
		}, nil
	}

	return &transfer.GenerationResult{
		Success: false,
		Error:   "all providers failed: " + strings.Join(failures, "; "),
	}, nil
}

func (s *aiService) candidates(capability ai.Capability, req *transfer.GenerationRequest) []ai.Provider {
	if req.Provider != "" {
		return s.chain.Candidates(capability, req.Provider)
	}
	if req.PreferFree {
		return s.chain.Ranked(capability, ai.SelectOptions{PreferFree: true, CostOptimized: true})
	}
	return s.chain.Candidates(capability, "")
}

func (s *aiService) invoke(ctx context.Context, p ai.Provider, capability ai.Capability, req *transfer.GenerationRequest, system string) (*ai.Result, error) {
	model := req.Model
	if model == "" {
		model = p.DefaultModel(capability)
	}

	if capability == ai.CapabilityImage {
		count := req.ImageCount
		if count <= 0 {
			count = 1
		}
		return p.GenerateImage(ctx, ai.ImageRequest{
			Model:  model,
			Prompt: req.Prompt,
			Size:   req.ImageSize,
			Count:  count,
		})
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTextTokens
	}
	return p.GenerateText(ctx, ai.TextRequest{
		Model:     model,
		System:    system,
		Prompt:    req.Prompt,
		MaxTokens: maxTokens,
	})
}

func (s *aiService) costFor(p ai.Provider, capability ai.Capability, result *ai.Result) int64 {
	if capability == ai.CapabilityImage {
		return ai.ImageCostMicros(result.ImageCount, p.CostPerImageMicros(result.Model))
	}
	return ai.TextCostMicros(result.TokensUsed, p.CostPerThousandTokensMicros(result.Model))
}

// record writes the generation row and the daily usage aggregate. Ledger
// failures are logged but do not undo an already delivered generation.
func (s *aiService) record(ctx context.Context, companyID, userID int64, req *transfer.GenerationRequest, result *ai.Result, costMicros int64) {
	gen := &models.AiGeneration{
		CompanyID:  companyID,
		UserID:     userID,
		Type:       req.Type,
		Provider:   result.Provider,
		Model:      result.Model,
		Prompt:     req.Prompt,
		Result:     result.Content,
		TokensUsed: result.TokensUsed,
		CostMicros: costMicros,
	}
	if _, err := s.gr.Create(ctx, gen); err != nil {
		slog.Error("failed to record generation", "provider", result.Provider, "error", err)
	}

	usage := &models.AiUsage{
		CompanyID:  companyID,
		UserID:     userID,
		Provider:   result.Provider,
		Model:      result.Model,
		Type:       req.Type,
		UsageDate:  dayStart(s.now()),
		TokensUsed: int64(result.TokensUsed),
		CostMicros: costMicros,
	}
	if err := s.ur.Upsert(ctx, usage); err != nil {
		slog.Error("failed to record usage", "provider", result.Provider, "error", err)
	}
}

// ModerateContent runs the input through the first moderation-capable
// provider. Moderation checks are not billed and never touch the ledger.
func (s *aiService) ModerateContent(ctx context.Context, input string) (*transfer.ModerationOutcome, error) {
	if strings.TrimSpace(input) == "" {
		return nil, validationError("input is missing")
	}

	candidates := s.chain.Candidates(ai.CapabilityModeration, "")
	if len(candidates) == 0 {
		return &transfer.ModerationOutcome{
			Success: false,
			Error:   "no provider available for moderation",
		}, nil
	}

	var failures []string
	for _, p := range candidates {
		result, err := p.Moderate(ctx, input)
		if err != nil {
			s.chain.RecordFailure(p.Name())
			failures = append(failures, fmt.Sprintf("%s: %s", p.Name(), err.Error()))
			continue
		}
		s.chain.RecordSuccess(p.Name())
		return &transfer.ModerationOutcome{
			Success:    true,
			Flagged:    result.Flagged,
			Categories: result.Categories,
			Provider:   result.Provider,
		}, nil
	}

	return &transfer.ModerationOutcome{
		Success: false,
		Error:   "all providers failed: " + strings.Join(failures, "; "),
	}, nil
}

func (s *aiService) History(ctx context.Context, companyID int64, limit int) ([]*models.AiGeneration, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	return s.gr.ListByCompanyID(ctx, companyID, limit)
}

func (s *aiService) Usage(ctx context.Context, companyID int64, from, to time.Time) ([]*models.AiUsage, error) {
	return s.ur.ListByCompanyID(ctx, companyID, from, to)
}

// checkBudget rejects new work once the company's daily or monthly spend has
// reached its ceiling. Company settings override the configured defaults; a
// zero limit means unlimited.
func (s *aiService) checkBudget(ctx context.Context, companyID int64) error {
	daily := s.cfg.Budget.DailyLimitMicros
	monthly := s.cfg.Budget.MonthlyLimitMicros

	settings, found, err := s.br.GetByCompanyID(ctx, companyID)
	if err != nil {
		return err
	}
	if found {
		daily = settings.DailyLimitMicros
		monthly = settings.MonthlyLimitMicros
	}

	now := s.now().UTC()
	if daily > 0 {
		spent, err := s.ur.SumCostSince(ctx, companyID, dayStart(now))
		if err != nil {
			return err
		}
		if spent >= daily {
			return validationError("daily AI budget exceeded")
		}
	}
	if monthly > 0 {
		spent, err := s.ur.SumCostSince(ctx, companyID, monthStart(now))
		if err != nil {
			return err
		}
		if spent >= monthly {
			return validationError("monthly AI budget exceeded")
		}
	}
	return nil
}

func capabilityFor(genType models.GenerationType) ai.Capability {
	if genType == models.GenerationImage {
		return ai.CapabilityImage
	}
	return ai.CapabilityText
}

func dayStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func monthStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
