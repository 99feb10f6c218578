package jobs

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	config "github.com/ankitjain28/gramflow/configs"
	"github.com/ankitjain28/gramflow/internal/models"
	"github.com/ankitjain28/gramflow/internal/transfer"
	"github.com/ankitjain28/gramflow/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = "0123456789abcdef0123456789abcdef"

type stubAccountRepo struct {
	accounts map[int64]*models.InstagramAccount
	statuses map[int64]models.AccountStatus
	tokens   map[int64]string
	expiries map[int64]time.Time
}

func newStubAccountRepo() *stubAccountRepo {
	return &stubAccountRepo{
		accounts: make(map[int64]*models.InstagramAccount),
		statuses: make(map[int64]models.AccountStatus),
		tokens:   make(map[int64]string),
		expiries: make(map[int64]time.Time),
	}
}

func (r *stubAccountRepo) Create(ctx context.Context, tx *sql.Tx, acc *models.InstagramAccount) (int64, error) {
	return 0, errors.New("not implemented")
}

func (r *stubAccountRepo) GetByID(ctx context.Context, id int64) (*models.InstagramAccount, error) {
	return r.accounts[id], nil
}

func (r *stubAccountRepo) ListByCompanyID(ctx context.Context, companyID int64) ([]*models.InstagramAccount, error) {
	return nil, nil
}

func (r *stubAccountRepo) ListAccessibleByUserID(ctx context.Context, userID int64) ([]*models.InstagramAccount, error) {
	return nil, nil
}

func (r *stubAccountRepo) ListExpiring(ctx context.Context, before time.Time) ([]*models.InstagramAccount, error) {
	var out []*models.InstagramAccount
	for _, acc := range r.accounts {
		if acc.Status == models.AccountStatusActive && !acc.TokenExpiresAt.After(before) {
			out = append(out, acc)
		}
	}
	return out, nil
}

func (r *stubAccountRepo) UpdateToken(ctx context.Context, id int64, accessToken string, expiresAt time.Time) error {
	r.tokens[id] = accessToken
	r.expiries[id] = expiresAt
	return nil
}

func (r *stubAccountRepo) UpdateStatus(ctx context.Context, status models.AccountStatus, id int64) error {
	r.statuses[id] = status
	return nil
}

func (r *stubAccountRepo) UpdateProfile(ctx context.Context, id int64, username, name, profilePicture string) error {
	return nil
}

type stubInstagram struct {
	refreshFn func(accessToken string) (*transfer.InstagramToken, error)
	refreshed []string
}

func (s *stubInstagram) AuthURL(state string) string { return "" }

func (s *stubInstagram) ExchangeCode(ctx context.Context, code string) (*transfer.InstagramToken, error) {
	return nil, errors.New("not implemented")
}

func (s *stubInstagram) GetUserInfo(ctx context.Context, accessToken string) (*transfer.InstagramUserInfo, error) {
	return nil, errors.New("not implemented")
}

func (s *stubInstagram) RefreshToken(ctx context.Context, accessToken string) (*transfer.InstagramToken, error) {
	s.refreshed = append(s.refreshed, accessToken)
	if s.refreshFn != nil {
		return s.refreshFn(accessToken)
	}
	return &transfer.InstagramToken{
		AccessToken: "fresh-token",
		ExpiresAt:   time.Now().Add(60 * 24 * time.Hour),
	}, nil
}

func (s *stubInstagram) PublishPost(ctx context.Context, post *models.Post, media []*models.PostMedia, account *models.InstagramAccount) (string, error) {
	return "", errors.New("not implemented")
}

func addAccount(t *testing.T, ar *stubAccountRepo, id int64, plainToken string, expiresAt time.Time) *models.InstagramAccount {
	t.Helper()
	encrypted, err := utils.Encrypt([]byte(plainToken), []byte(testSecret))
	require.NoError(t, err)

	userID := int64(1)
	acc := &models.InstagramAccount{
		ID:             id,
		OwnershipType:  models.OwnershipUser,
		UserID:         &userID,
		AccessToken:    encrypted,
		TokenExpiresAt: expiresAt,
		Status:         models.AccountStatusActive,
	}
	ar.accounts[id] = acc
	return acc
}

func newTestRefreshJob(ar *stubAccountRepo, ig *stubInstagram, now time.Time) *TokenRefreshJob {
	cfg := config.Config{
		SecretKey:           testSecret,
		TokenRefreshHorizon: 7 * 24 * time.Hour,
	}
	return &TokenRefreshJob{
		cfg:       cfg,
		ar:        ar,
		instagram: ig,
		now:       func() time.Time { return now },
	}
}

func TestRefreshExpiringRenewsTokenInsideHorizon(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ar := newStubAccountRepo()
	ig := &stubInstagram{}

	// Token expires in 3 days, inside the 7 day horizon.
	addAccount(t, ar, 1, "old-token", now.Add(3*24*time.Hour))

	j := newTestRefreshJob(ar, ig, now)
	j.RefreshExpiring(context.Background())

	require.Equal(t, []string{"old-token"}, ig.refreshed)
	require.Contains(t, ar.tokens, int64(1))

	// Stored token is encrypted, never the raw value.
	assert.NotEqual(t, "fresh-token", ar.tokens[1])
	decrypted, err := utils.Decrypt(ar.tokens[1], []byte(testSecret))
	require.NoError(t, err)
	assert.Equal(t, "fresh-token", decrypted)
}

func TestRefreshExpiringSkipsTokenOutsideHorizon(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ar := newStubAccountRepo()
	ig := &stubInstagram{}

	// Token expires in 30 days, well outside the horizon.
	addAccount(t, ar, 1, "old-token", now.Add(30*24*time.Hour))

	j := newTestRefreshJob(ar, ig, now)
	j.RefreshExpiring(context.Background())

	assert.Empty(t, ig.refreshed)
	assert.Empty(t, ar.tokens)
}

func TestRefreshFailureMarksAccountExpired(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ar := newStubAccountRepo()
	ig := &stubInstagram{
		refreshFn: func(string) (*transfer.InstagramToken, error) {
			return nil, errors.New("token has been invalidated")
		},
	}

	addAccount(t, ar, 1, "old-token", now.Add(24*time.Hour))

	j := newTestRefreshJob(ar, ig, now)
	j.RefreshExpiring(context.Background())

	assert.Equal(t, models.AccountStatusExpired, ar.statuses[1])
	assert.Empty(t, ar.tokens)
}

func TestRefreshSkipsInactiveAccounts(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ar := newStubAccountRepo()
	ig := &stubInstagram{}

	acc := addAccount(t, ar, 1, "old-token", now.Add(24*time.Hour))
	acc.Status = models.AccountStatusDisconnected

	j := newTestRefreshJob(ar, ig, now)
	j.RefreshExpiring(context.Background())

	assert.Empty(t, ig.refreshed)
}
