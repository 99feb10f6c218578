package service

import (
	"context"
	"errors"
	"testing"
	"time"

	config "github.com/ankitjain28/gramflow/configs"
	"github.com/ankitjain28/gramflow/internal/ai"
	"github.com/ankitjain28/gramflow/internal/models"
	"github.com/ankitjain28/gramflow/internal/transfer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func textStub(name string, available bool, cost int64) *stubAiProvider {
	return &stubAiProvider{
		name:         name,
		capabilities: []ai.Capability{ai.CapabilityText},
		available:    available,
		textCost:     cost,
		textResult:   "generated by " + name,
		tokens:       500,
	}
}

func newTestAiService(cfg config.Config, chain *ai.Chain, gr *fakeGenerationRepo, ur *fakeUsageRepo, br *fakeBudgetRepo, now time.Time) *aiService {
	return &aiService{
		cfg:   cfg,
		chain: chain,
		gr:    gr,
		ur:    ur,
		br:    br,
		now:   func() time.Time { return now },
	}
}

func TestGenerateFallsThroughToWorkingProvider(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	a := textStub("alpha", true, 2000)
	a.textErr = errors.New("rate limited")
	b := textStub("beta", true, 1000)
	b.textErr = errors.New("server error")
	c := textStub("gamma", true, 500)

	gr := &fakeGenerationRepo{}
	ur := &fakeUsageRepo{}
	s := newTestAiService(config.Config{}, ai.NewChain(a, b, c), gr, ur, &fakeBudgetRepo{}, now)

	result, err := s.Generate(context.Background(), 7, 3, &transfer.GenerationRequest{
		Type:   models.GenerationCaption,
		Prompt: "sunset over the pier",
	})
	require.NoError(t, err)
	require.True(t, result.Success)

	assert.Equal(t, "gamma", result.Provider)
	assert.Equal(t, 1, a.calls)
	assert.Equal(t, 1, b.calls)
	assert.Equal(t, 1, c.calls)
	// 500 tokens at 500 micros per 1K.
	assert.Equal(t, int64(250), result.CostMicros)
}

func TestGenerateAllProvidersFail(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	a := textStub("alpha", true, 2000)
	a.textErr = errors.New("rate limited")
	b := textStub("beta", true, 1000)
	b.textErr = errors.New("timeout")

	gr := &fakeGenerationRepo{}
	ur := &fakeUsageRepo{}
	s := newTestAiService(config.Config{}, ai.NewChain(a, b), gr, ur, &fakeBudgetRepo{}, now)

	result, err := s.Generate(context.Background(), 7, 3, &transfer.GenerationRequest{
		Type:   models.GenerationCaption,
		Prompt: "sunset",
	})
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "alpha")
	assert.Contains(t, result.Error, "beta")
	// Failed requests never touch the ledger.
	assert.Empty(t, gr.created)
	assert.Empty(t, ur.upserted)
}

func TestGenerateNoSameProviderRetry(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	a := textStub("alpha", true, 2000)
	a.textErr = errors.New("boom")

	s := newTestAiService(config.Config{}, ai.NewChain(a), &fakeGenerationRepo{}, &fakeUsageRepo{}, &fakeBudgetRepo{}, now)

	result, err := s.Generate(context.Background(), 7, 3, &transfer.GenerationRequest{
		Type:   models.GenerationCaption,
		Prompt: "sunset",
	})
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, 1, a.calls)
}

func TestGenerateWritesLedgerExactlyOnce(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	a := textStub("alpha", true, 2000)

	gr := &fakeGenerationRepo{}
	ur := &fakeUsageRepo{}
	s := newTestAiService(config.Config{}, ai.NewChain(a), gr, ur, &fakeBudgetRepo{}, now)

	result, err := s.Generate(context.Background(), 7, 3, &transfer.GenerationRequest{
		Type:   models.GenerationCaption,
		Prompt: "sunset",
	})
	require.NoError(t, err)
	require.True(t, result.Success)

	require.Len(t, gr.created, 1)
	require.Len(t, ur.upserted, 1)

	gen := gr.created[0]
	assert.Equal(t, int64(7), gen.CompanyID)
	assert.Equal(t, "alpha", gen.Provider)
	assert.Equal(t, int64(1000), gen.CostMicros)

	usage := ur.upserted[0]
	assert.Equal(t, gen.CostMicros, usage.CostMicros)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), usage.UsageDate)
}

func TestGeneratePinnedProviderOnly(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	a := textStub("alpha", true, 2000)
	b := textStub("beta", true, 1000)
	b.textErr = errors.New("down")

	s := newTestAiService(config.Config{}, ai.NewChain(a, b), &fakeGenerationRepo{}, &fakeUsageRepo{}, &fakeBudgetRepo{}, now)

	result, err := s.Generate(context.Background(), 7, 3, &transfer.GenerationRequest{
		Type:     models.GenerationCaption,
		Prompt:   "sunset",
		Provider: "beta",
	})
	require.NoError(t, err)

	// Pinned provider failure does not fall back to the chain.
	assert.False(t, result.Success)
	assert.Equal(t, 0, a.calls)
	assert.Equal(t, 1, b.calls)
}

func TestGenerateDailyBudgetExceeded(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	a := textStub("alpha", true, 2000)

	ur := &fakeUsageRepo{spent: 5_000_000}
	br := &fakeBudgetRepo{settings: &models.AiBudgetSettings{
		CompanyID:        7,
		DailyLimitMicros: 5_000_000,
	}}
	s := newTestAiService(config.Config{}, ai.NewChain(a), &fakeGenerationRepo{}, ur, br, now)

	_, err := s.Generate(context.Background(), 7, 3, &transfer.GenerationRequest{
		Type:   models.GenerationCaption,
		Prompt: "sunset",
	})
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
	assert.Equal(t, 0, a.calls)
}

func TestGenerateDefaultBudgetFromConfig(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	a := textStub("alpha", true, 2000)

	cfg := config.Config{}
	cfg.Budget.MonthlyLimitMicros = 1_000_000
	ur := &fakeUsageRepo{spent: 2_000_000}

	s := newTestAiService(cfg, ai.NewChain(a), &fakeGenerationRepo{}, ur, &fakeBudgetRepo{}, now)

	_, err := s.Generate(context.Background(), 7, 3, &transfer.GenerationRequest{
		Type:   models.GenerationCaption,
		Prompt: "sunset",
	})
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
}

func TestGenerateEmptyPromptRejected(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := newTestAiService(config.Config{}, ai.NewChain(), &fakeGenerationRepo{}, &fakeUsageRepo{}, &fakeBudgetRepo{}, now)

	_, err := s.Generate(context.Background(), 7, 3, &transfer.GenerationRequest{
		Type:   models.GenerationCaption,
		Prompt: "   ",
	})
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
}

func TestGenerateImageUsesPerImageCost(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	painter := &stubAiProvider{
		name:         "painter",
		capabilities: []ai.Capability{ai.CapabilityImage},
		available:    true,
		imageCost:    40_000,
	}

	gr := &fakeGenerationRepo{}
	ur := &fakeUsageRepo{}
	s := newTestAiService(config.Config{}, ai.NewChain(painter), gr, ur, &fakeBudgetRepo{}, now)

	result, err := s.GenerateImage(context.Background(), 7, 3, &transfer.GenerationRequest{
		Prompt:     "a lighthouse at dusk",
		ImageCount: 2,
	})
	require.NoError(t, err)
	require.True(t, result.Success)
	assert.Equal(t, int64(80_000), result.CostMicros)
}

func TestModerateContentNotLedgered(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	mod := &stubAiProvider{
		name:         "mod",
		capabilities: []ai.Capability{ai.CapabilityModeration},
		available:    true,
	}

	gr := &fakeGenerationRepo{}
	ur := &fakeUsageRepo{}
	s := newTestAiService(config.Config{}, ai.NewChain(mod), gr, ur, &fakeBudgetRepo{}, now)

	outcome, err := s.ModerateContent(context.Background(), "a perfectly fine caption")
	require.NoError(t, err)
	require.True(t, outcome.Success)
	assert.False(t, outcome.Flagged)

	assert.Empty(t, gr.created)
	assert.Empty(t, ur.upserted)
}

func TestGenerateNoCapableProvider(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	a := textStub("alpha", false, 2000)

	s := newTestAiService(config.Config{}, ai.NewChain(a), &fakeGenerationRepo{}, &fakeUsageRepo{}, &fakeBudgetRepo{}, now)

	result, err := s.Generate(context.Background(), 7, 3, &transfer.GenerationRequest{
		Type:   models.GenerationCaption,
		Prompt: "sunset",
	})
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "no provider available")
}
