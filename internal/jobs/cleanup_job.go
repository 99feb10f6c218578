package jobs

import (
	"context"
	"log/slog"
	"time"

	config "github.com/ankitjain28/gramflow/configs"
	"github.com/ankitjain28/gramflow/internal/repository"
)

const cleanupTimeout = 5 * time.Minute

// CleanupJob prunes generation records past the retention window. The daily
// usage aggregates stay; only the raw prompt/result rows age out.
type CleanupJob struct {
	cfg config.Config
	gr  repository.AiGenerationRepository
	now func() time.Time
}

func NewCleanupJob(cfg config.Config, gr repository.AiGenerationRepository) *CleanupJob {
	return &CleanupJob{
		cfg: cfg,
		gr:  gr,
		now: time.Now,
	}
}

func (j *CleanupJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
	defer cancel()

	cutoff := j.now().Add(-j.cfg.GenerationRetention)
	deleted, err := j.gr.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		slog.Error("failed to prune old generations", "error", err)
		return
	}
	if deleted > 0 {
		slog.Info("pruned old generations", "deleted", deleted, "cutoff", cutoff)
	}
}
