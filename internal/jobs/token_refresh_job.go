package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"

	config "github.com/ankitjain28/gramflow/configs"
	"github.com/ankitjain28/gramflow/internal/models"
	"github.com/ankitjain28/gramflow/internal/repository"
	"github.com/ankitjain28/gramflow/internal/service"
	"github.com/ankitjain28/gramflow/pkg/utils"
)

const (
	tokenRefreshTimeout    = 10 * time.Minute
	maxConcurrentRefreshes = 5
)

// TokenRefreshJob renews long-lived tokens for active accounts expiring
// within the configured horizon. A refresh failure flips the account to
// expired right away so scheduled posts fail fast with a clear reason
// instead of publishing against a dead token.
type TokenRefreshJob struct {
	cfg       config.Config
	ar        repository.InstagramAccountRepository
	instagram service.InstagramService
	now       func() time.Time
}

func NewTokenRefreshJob(cfg config.Config, ar repository.InstagramAccountRepository, instagram service.InstagramService) *TokenRefreshJob {
	return &TokenRefreshJob{
		cfg:       cfg,
		ar:        ar,
		instagram: instagram,
		now:       time.Now,
	}
}

func (j *TokenRefreshJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), tokenRefreshTimeout)
	defer cancel()
	j.RefreshExpiring(ctx)
}

func (j *TokenRefreshJob) RefreshExpiring(ctx context.Context) {
	horizon := j.now().Add(j.cfg.TokenRefreshHorizon)
	accounts, err := j.ar.ListExpiring(ctx, horizon)
	if err != nil {
		slog.Error("failed to list expiring accounts", "error", err)
		return
	}
	if len(accounts) == 0 {
		return
	}

	sem := make(chan struct{}, maxConcurrentRefreshes)
	var wg sync.WaitGroup
	for _, account := range accounts {
		wg.Add(1)
		sem <- struct{}{}
		go func(acc *models.InstagramAccount) {
			defer wg.Done()
			defer func() { <-sem }()
			j.refresh(ctx, acc)
		}(account)
	}
	wg.Wait()
}

func (j *TokenRefreshJob) refresh(ctx context.Context, account *models.InstagramAccount) {
	accessToken, err := utils.Decrypt(account.AccessToken, []byte(j.cfg.SecretKey))
	if err != nil {
		j.expire(ctx, account, err)
		return
	}

	token, err := j.instagram.RefreshToken(ctx, accessToken)
	if err != nil {
		j.expire(ctx, account, err)
		return
	}

	encrypted, err := utils.Encrypt([]byte(token.AccessToken), []byte(j.cfg.SecretKey))
	if err != nil {
		j.expire(ctx, account, err)
		return
	}

	if err := j.ar.UpdateToken(ctx, account.ID, encrypted, token.ExpiresAt); err != nil {
		slog.Error("failed to store refreshed token", "account_id", account.ID, "error", err)
		return
	}
	slog.Info("token refreshed", "account_id", account.ID, "expires_at", token.ExpiresAt)
}

func (j *TokenRefreshJob) expire(ctx context.Context, account *models.InstagramAccount, cause error) {
	slog.Warn("token refresh failed, marking account expired", "account_id", account.ID, "error", cause)
	if err := j.ar.UpdateStatus(ctx, models.AccountStatusExpired, account.ID); err != nil {
		slog.Error("failed to mark account expired", "account_id", account.ID, "error", err)
	}
}
