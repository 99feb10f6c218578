package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ankitjain28/gramflow/internal/models"
	"github.com/ankitjain28/gramflow/internal/repository"
)

const maxConcurrentPublishes = 10

// PublisherService drives scheduled posts through the publish pipeline. Both
// the periodic sweep and the per-post queue task funnel into PublishPost,
// which claims the row before doing any work, so a post is published at most
// once no matter how many triggers fire.
type PublisherService interface {
	PublishDuePosts(ctx context.Context)
	PublishPost(ctx context.Context, postID int64) error
}

type publisherService struct {
	pr        repository.PostRepository
	pm        repository.PostMediaRepository
	ar        repository.InstagramAccountRepository
	instagram InstagramService
	now       func() time.Time
}

func NewPublisherService(
	pr repository.PostRepository,
	pm repository.PostMediaRepository,
	ar repository.InstagramAccountRepository,
	instagram InstagramService) PublisherService {
	return &publisherService{
		pr:        pr,
		pm:        pm,
		ar:        ar,
		instagram: instagram,
		now:       time.Now,
	}
}

// PublishDuePosts sweeps every scheduled post whose time has come and
// publishes them with bounded concurrency. Posts the queue already handled
// are skipped by the claim, not re-published.
func (s *publisherService) PublishDuePosts(ctx context.Context) {
	ids, err := s.pr.ListDueScheduled(ctx, s.now())
	if err != nil {
		slog.Error("failed to list due posts", "error", err)
		return
	}
	if len(ids) == 0 {
		return
	}

	sem := make(chan struct{}, maxConcurrentPublishes)
	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		sem <- struct{}{}
		go func(postID int64) {
			defer wg.Done()
			defer func() { <-sem }()
			if err := s.PublishPost(ctx, postID); err != nil {
				slog.Error("failed to publish post", "post_id", postID, "error", err)
			}
		}(id)
	}
	wg.Wait()
}

// PublishPost claims the post and pushes it to Instagram. If the claim loses
// (already publishing, published, or pulled back to draft) it returns nil and
// does nothing.
func (s *publisherService) PublishPost(ctx context.Context, postID int64) error {
	claimed, err := s.pr.ClaimForPublishing(ctx, postID, s.now())
	if err != nil {
		return fmt.Errorf("error claiming post %d: %w", postID, err)
	}
	if !claimed {
		return nil
	}

	// From here on the post is ours. Every exit must release the claim, so
	// errors are funneled into fail rather than returned raw, which would
	// leave the row stuck in publishing.
	post, err := s.pr.GetByID(ctx, postID)
	if err != nil {
		return s.fail(ctx, postID, fmt.Sprintf("error loading post: %s", err))
	}
	if post == nil {
		return fmt.Errorf("post %d vanished after claim", postID)
	}

	account, err := s.resolveAccount(ctx, post)
	if err != nil {
		return s.fail(ctx, postID, err.Error())
	}

	media, err := s.pm.ListByPostID(ctx, postID)
	if err != nil {
		return s.fail(ctx, postID, fmt.Sprintf("error loading media: %s", err))
	}
	if len(media) == 0 {
		return s.fail(ctx, postID, "post has no media")
	}

	platformPostID, err := s.instagram.PublishPost(ctx, post, media, account)
	if err != nil {
		var igErr *IgError
		if errors.As(err, &igErr) && igErr.IsAuthError() {
			if uerr := s.ar.UpdateStatus(ctx, models.AccountStatusExpired, account.ID); uerr != nil {
				slog.Error("failed to mark account expired", "account_id", account.ID, "error", uerr)
			}
		}
		return s.fail(ctx, postID, err.Error())
	}

	if err := s.pr.MarkPublished(ctx, postID, platformPostID, s.now()); err != nil {
		return fmt.Errorf("post %d published as %s but not recorded: %w", postID, platformPostID, err)
	}

	slog.Info("post published", "post_id", postID, "platform_post_id", platformPostID)
	return nil
}

func (s *publisherService) resolveAccount(ctx context.Context, post *models.Post) (*models.InstagramAccount, error) {
	if post.InstagramAccountID == nil {
		return nil, errors.New("no instagram account assigned")
	}

	account, err := s.ar.GetByID(ctx, *post.InstagramAccountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, errors.New("instagram account doesn't exist")
	}
	if account.Status != models.AccountStatusActive {
		return nil, fmt.Errorf("instagram account is %s", account.Status)
	}
	return account, nil
}

func (s *publisherService) fail(ctx context.Context, postID int64, reason string) error {
	slog.Warn("publish failed", "post_id", postID, "reason", reason)
	if err := s.pr.MarkFailed(ctx, postID, reason); err != nil {
		return fmt.Errorf("error marking post %d failed: %w", postID, err)
	}
	return nil
}
