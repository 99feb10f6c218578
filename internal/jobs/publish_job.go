// Package jobs holds the cron-driven background work: the publish sweep, the
// token refresh pass and ledger cleanup.
package jobs

import (
	"context"
	"time"

	"github.com/ankitjain28/gramflow/internal/service"
)

const publishSweepTimeout = 5 * time.Minute

// PublishJob is the safety-net sweep behind the per-post queue tasks. It
// picks up posts whose queue task was lost or whose schedule predates the
// last restart.
type PublishJob struct {
	publisher service.PublisherService
}

func NewPublishJob(publisher service.PublisherService) *PublishJob {
	return &PublishJob{publisher: publisher}
}

func (j *PublishJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), publishSweepTimeout)
	defer cancel()
	j.publisher.PublishDuePosts(ctx)
}
