package ai

import (
	"sort"
	"sync"
)

// Chain holds providers in fixed priority order (commercial primary first).
// The order is the default fallback sequence and the deterministic tie-break
// for smart selection.
type Chain struct {
	providers []Provider
	stats     *errorStats
}

func NewChain(providers ...Provider) *Chain {
	return &Chain{
		providers: providers,
		stats:     newErrorStats(),
	}
}

func (c *Chain) Providers() []Provider { return c.providers }

func (c *Chain) byName(name string) Provider {
	for _, p := range c.providers {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// Candidates returns the ordered providers to try for a capability. A pinned
// provider is tried alone; otherwise the chain is filtered to available
// providers declaring the capability.
func (c *Chain) Candidates(capability Capability, pinned string) []Provider {
	if pinned != "" {
		p := c.byName(pinned)
		if p == nil {
			return nil
		}
		return []Provider{p}
	}

	var candidates []Provider
	for _, p := range c.providers {
		if p.Available() && Supports(p, capability) {
			candidates = append(candidates, p)
		}
	}
	return candidates
}

// SelectOptions requests cost-aware routing instead of plain chain order.
type SelectOptions struct {
	PreferFree    bool
	CostOptimized bool
}

// Ranked orders the capable, available providers by a weighted score of unit
// cost, free-tier flag and tracked error rate. Lower is better; ties keep
// chain order so routing stays deterministic.
func (c *Chain) Ranked(capability Capability, opts SelectOptions) []Provider {
	candidates := c.Candidates(capability, "")
	if len(candidates) <= 1 {
		return candidates
	}

	maxCost := int64(1)
	for _, p := range candidates {
		if cost := unitCost(p, capability); cost > maxCost {
			maxCost = cost
		}
	}

	type scored struct {
		provider Provider
		score    float64
		order    int
	}

	ranked := make([]scored, 0, len(candidates))
	for i, p := range candidates {
		score := 0.0
		if opts.CostOptimized {
			score += 0.5 * float64(unitCost(p, capability)) / float64(maxCost)
		}
		if opts.PreferFree && !p.FreeTier() {
			score += 0.3
		}
		score += 0.2 * c.stats.ErrorRate(p.Name())
		ranked = append(ranked, scored{provider: p, score: score, order: i})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score < ranked[j].score
		}
		return ranked[i].order < ranked[j].order
	})

	out := make([]Provider, len(ranked))
	for i, s := range ranked {
		out[i] = s.provider
	}
	return out
}

func unitCost(p Provider, capability Capability) int64 {
	if capability == CapabilityImage {
		return p.CostPerImageMicros(p.DefaultModel(capability))
	}
	return p.CostPerThousandTokensMicros(p.DefaultModel(capability))
}

func (c *Chain) RecordSuccess(provider string) { c.stats.record(provider, false) }
func (c *Chain) RecordFailure(provider string) { c.stats.record(provider, true) }

// errorStats tracks per-provider failure rates in process memory. Reset on
// restart, which is acceptable: it only biases smart selection, never
// correctness.
type errorStats struct {
	mu       sync.Mutex
	attempts map[string]int64
	failures map[string]int64
}

func newErrorStats() *errorStats {
	return &errorStats{
		attempts: make(map[string]int64),
		failures: make(map[string]int64),
	}
}

func (s *errorStats) record(provider string, failed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts[provider]++
	if failed {
		s.failures[provider]++
	}
}

func (s *errorStats) ErrorRate(provider string) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	attempts := s.attempts[provider]
	if attempts == 0 {
		return 0
	}
	return float64(s.failures[provider]) / float64(attempts)
}
