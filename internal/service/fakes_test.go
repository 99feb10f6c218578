package service

import (
	"context"
	"database/sql"
	"errors"
	"mime/multipart"
	"time"

	"github.com/ankitjain28/gramflow/internal/ai"
	"github.com/ankitjain28/gramflow/internal/models"
	"github.com/ankitjain28/gramflow/internal/repository"
	"github.com/ankitjain28/gramflow/internal/transfer"
)

type fakePostRepo struct {
	posts        map[int64]*models.Post
	nextID       int64
	failedWith   map[int64]string
	publishedIDs map[int64]string
	afterGet     func()
}

func newFakePostRepo() *fakePostRepo {
	return &fakePostRepo{
		posts:        make(map[int64]*models.Post),
		nextID:       1,
		failedWith:   make(map[int64]string),
		publishedIDs: make(map[int64]string),
	}
}

func (r *fakePostRepo) add(post *models.Post) *models.Post {
	if post.ID == 0 {
		post.ID = r.nextID
		r.nextID++
	}
	r.posts[post.ID] = post
	return post
}

func (r *fakePostRepo) Create(ctx context.Context, tx *sql.Tx, post *models.Post) (int64, error) {
	return r.add(post).ID, nil
}

func (r *fakePostRepo) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	post, ok := r.posts[id]
	if !ok {
		return nil, nil
	}
	copied := *post
	if r.afterGet != nil {
		r.afterGet()
	}
	return &copied, nil
}

func (r *fakePostRepo) ListByCompanyID(ctx context.Context, companyID int64, filters repository.PostFilters) ([]*models.Post, error) {
	var out []*models.Post
	for _, p := range r.posts {
		if p.CompanyID == companyID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakePostRepo) ListDueScheduled(ctx context.Context, now time.Time) ([]int64, error) {
	var ids []int64
	for _, p := range r.posts {
		if p.Status == models.PostStatusScheduled && p.ScheduledAt != nil && !p.ScheduledAt.After(now) {
			ids = append(ids, p.ID)
		}
	}
	return ids, nil
}

func (r *fakePostRepo) ClaimForPublishing(ctx context.Context, id int64, now time.Time) (bool, error) {
	post, ok := r.posts[id]
	if !ok || post.Status != models.PostStatusScheduled {
		return false, nil
	}
	if post.ScheduledAt == nil || post.ScheduledAt.After(now) {
		return false, nil
	}
	post.Status = models.PostStatusPublishing
	return true, nil
}

func (r *fakePostRepo) UpdateContent(ctx context.Context, post *models.Post) error {
	stored, ok := r.posts[post.ID]
	if !ok {
		return errors.New("post not found")
	}
	stored.Caption = post.Caption
	stored.Hashtags = post.Hashtags
	stored.Mentions = post.Mentions
	stored.InstagramAccountID = post.InstagramAccountID
	return nil
}

func (r *fakePostRepo) SetSchedule(ctx context.Context, id int64, scheduledAt *time.Time, from, to models.PostStatus) (bool, error) {
	post, ok := r.posts[id]
	if !ok || post.Status != from {
		return false, nil
	}
	post.ScheduledAt = scheduledAt
	post.Status = to
	return true, nil
}

func (r *fakePostRepo) MarkPublished(ctx context.Context, id int64, platformPostID string, publishedAt time.Time) error {
	post, ok := r.posts[id]
	if !ok {
		return errors.New("post not found")
	}
	post.Status = models.PostStatusPublished
	post.PlatformPostID = platformPostID
	post.PublishedAt = &publishedAt
	r.publishedIDs[id] = platformPostID
	return nil
}

func (r *fakePostRepo) MarkFailed(ctx context.Context, id int64, reason string) error {
	post, ok := r.posts[id]
	if !ok {
		return errors.New("post not found")
	}
	post.Status = models.PostStatusFailed
	post.FailureReason = reason
	post.PublishAttempts++
	r.failedWith[id] = reason
	return nil
}

func (r *fakePostRepo) CheckByCompanyID(ctx context.Context, postID, companyID int64) (bool, error) {
	post, ok := r.posts[postID]
	return ok && post.CompanyID == companyID, nil
}

func (r *fakePostRepo) Remove(ctx context.Context, id int64) error {
	delete(r.posts, id)
	return nil
}

type fakePostMediaRepo struct {
	media   map[int64][]*models.PostMedia
	nextID  int64
	listErr error
}

func newFakePostMediaRepo() *fakePostMediaRepo {
	return &fakePostMediaRepo{media: make(map[int64][]*models.PostMedia), nextID: 1}
}

func (r *fakePostMediaRepo) add(pm *models.PostMedia) {
	if pm.ID == 0 {
		pm.ID = r.nextID
		r.nextID++
	}
	r.media[pm.PostID] = append(r.media[pm.PostID], pm)
}

func (r *fakePostMediaRepo) Create(ctx context.Context, tx *sql.Tx, pm *models.PostMedia) (int64, error) {
	r.add(pm)
	return pm.ID, nil
}

func (r *fakePostMediaRepo) GetByID(ctx context.Context, id int64) (*models.PostMedia, error) {
	for _, list := range r.media {
		for _, pm := range list {
			if pm.ID == id {
				return pm, nil
			}
		}
	}
	return nil, nil
}

func (r *fakePostMediaRepo) ListByPostID(ctx context.Context, postID int64) ([]*models.PostMedia, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	return r.media[postID], nil
}

func (r *fakePostMediaRepo) CountByPostID(ctx context.Context, postID int64) (int, error) {
	return len(r.media[postID]), nil
}

func (r *fakePostMediaRepo) Remove(ctx context.Context, id int64) error {
	for postID, list := range r.media {
		for i, pm := range list {
			if pm.ID == id {
				r.media[postID] = append(list[:i], list[i+1:]...)
				return nil
			}
		}
	}
	return nil
}

func (r *fakePostMediaRepo) RemoveByPostID(ctx context.Context, postID int64) error {
	delete(r.media, postID)
	return nil
}

type fakeAccountRepo struct {
	accounts map[int64]*models.InstagramAccount
	statuses map[int64]models.AccountStatus
	tokens   map[int64]string
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{
		accounts: make(map[int64]*models.InstagramAccount),
		statuses: make(map[int64]models.AccountStatus),
		tokens:   make(map[int64]string),
	}
}

func (r *fakeAccountRepo) Create(ctx context.Context, tx *sql.Tx, acc *models.InstagramAccount) (int64, error) {
	if err := acc.ValidateOwnership(); err != nil {
		return 0, err
	}
	acc.ID = int64(len(r.accounts) + 1)
	r.accounts[acc.ID] = acc
	return acc.ID, nil
}

func (r *fakeAccountRepo) GetByID(ctx context.Context, id int64) (*models.InstagramAccount, error) {
	acc, ok := r.accounts[id]
	if !ok {
		return nil, nil
	}
	return acc, nil
}

func (r *fakeAccountRepo) ListByCompanyID(ctx context.Context, companyID int64) ([]*models.InstagramAccount, error) {
	var out []*models.InstagramAccount
	for _, acc := range r.accounts {
		if acc.CompanyID != nil && *acc.CompanyID == companyID {
			out = append(out, acc)
		}
	}
	return out, nil
}

func (r *fakeAccountRepo) ListAccessibleByUserID(ctx context.Context, userID int64) ([]*models.InstagramAccount, error) {
	var out []*models.InstagramAccount
	for _, acc := range r.accounts {
		if acc.UserID != nil && *acc.UserID == userID {
			out = append(out, acc)
		}
	}
	return out, nil
}

func (r *fakeAccountRepo) ListExpiring(ctx context.Context, before time.Time) ([]*models.InstagramAccount, error) {
	var out []*models.InstagramAccount
	for _, acc := range r.accounts {
		if acc.Status == models.AccountStatusActive && !acc.TokenExpiresAt.After(before) {
			out = append(out, acc)
		}
	}
	return out, nil
}

func (r *fakeAccountRepo) UpdateToken(ctx context.Context, id int64, accessToken string, expiresAt time.Time) error {
	acc, ok := r.accounts[id]
	if !ok {
		return errors.New("account not found")
	}
	acc.AccessToken = accessToken
	acc.TokenExpiresAt = expiresAt
	acc.Status = models.AccountStatusActive
	r.tokens[id] = accessToken
	return nil
}

func (r *fakeAccountRepo) UpdateStatus(ctx context.Context, status models.AccountStatus, id int64) error {
	acc, ok := r.accounts[id]
	if !ok {
		return errors.New("account not found")
	}
	acc.Status = status
	r.statuses[id] = status
	return nil
}

func (r *fakeAccountRepo) UpdateProfile(ctx context.Context, id int64, username, name, profilePicture string) error {
	acc, ok := r.accounts[id]
	if !ok {
		return errors.New("account not found")
	}
	acc.Username = username
	acc.Name = name
	acc.ProfilePicture = profilePicture
	return nil
}

type fakeInstagram struct {
	publishFn func(post *models.Post) (string, error)
	refreshFn func(accessToken string) (*transfer.InstagramToken, error)
	published []int64
}

func (f *fakeInstagram) AuthURL(state string) string { return "https://example.com/auth?state=" + state }

func (f *fakeInstagram) ExchangeCode(ctx context.Context, code string) (*transfer.InstagramToken, error) {
	return &transfer.InstagramToken{AccessToken: "long-lived-" + code, ExpiresAt: time.Now().Add(60 * 24 * time.Hour)}, nil
}

func (f *fakeInstagram) GetUserInfo(ctx context.Context, accessToken string) (*transfer.InstagramUserInfo, error) {
	return &transfer.InstagramUserInfo{UserID: "17841400000000000", Username: "testaccount"}, nil
}

func (f *fakeInstagram) RefreshToken(ctx context.Context, accessToken string) (*transfer.InstagramToken, error) {
	if f.refreshFn != nil {
		return f.refreshFn(accessToken)
	}
	return &transfer.InstagramToken{AccessToken: "refreshed", ExpiresAt: time.Now().Add(60 * 24 * time.Hour)}, nil
}

func (f *fakeInstagram) PublishPost(ctx context.Context, post *models.Post, media []*models.PostMedia, account *models.InstagramAccount) (string, error) {
	f.published = append(f.published, post.ID)
	if f.publishFn != nil {
		return f.publishFn(post)
	}
	return "platform-123", nil
}

type fakeMediaService struct {
	removedAll []int64
	copied     [][2]int64
}

func (f *fakeMediaService) ProcessUploads(ctx context.Context, tx *sql.Tx, post *models.Post, startOrder int, files []*multipart.FileHeader) ([]*models.PostMedia, error) {
	return nil, nil
}

func (f *fakeMediaService) CopyForPost(ctx context.Context, tx *sql.Tx, srcPostID, dstPostID int64) error {
	f.copied = append(f.copied, [2]int64{srcPostID, dstPostID})
	return nil
}

func (f *fakeMediaService) ListForPost(ctx context.Context, postID int64) ([]*models.PostMedia, error) {
	return nil, nil
}

func (f *fakeMediaService) Remove(ctx context.Context, companyID, mediaID int64) error { return nil }

func (f *fakeMediaService) RemoveAllForPost(ctx context.Context, postID int64) error {
	f.removedAll = append(f.removedAll, postID)
	return nil
}

type fakeGenerationRepo struct {
	created []*models.AiGeneration
}

func (r *fakeGenerationRepo) Create(ctx context.Context, gen *models.AiGeneration) (int64, error) {
	r.created = append(r.created, gen)
	return int64(len(r.created)), nil
}

func (r *fakeGenerationRepo) ListByCompanyID(ctx context.Context, companyID int64, limit int) ([]*models.AiGeneration, error) {
	return r.created, nil
}

func (r *fakeGenerationRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

type fakeUsageRepo struct {
	upserted []*models.AiUsage
	spent    int64
}

func (r *fakeUsageRepo) Upsert(ctx context.Context, usage *models.AiUsage) error {
	r.upserted = append(r.upserted, usage)
	return nil
}

func (r *fakeUsageRepo) SumCostSince(ctx context.Context, companyID int64, since time.Time) (int64, error) {
	return r.spent, nil
}

func (r *fakeUsageRepo) ListByCompanyID(ctx context.Context, companyID int64, from, to time.Time) ([]*models.AiUsage, error) {
	return r.upserted, nil
}

type fakeBudgetRepo struct {
	settings *models.AiBudgetSettings
}

func (r *fakeBudgetRepo) GetByCompanyID(ctx context.Context, companyID int64) (*models.AiBudgetSettings, bool, error) {
	if r.settings == nil {
		return nil, false, nil
	}
	return r.settings, true, nil
}

func (r *fakeBudgetRepo) Upsert(ctx context.Context, settings *models.AiBudgetSettings) error {
	r.settings = settings
	return nil
}

// stubAiProvider is a scriptable provider for orchestration tests.
type stubAiProvider struct {
	name         string
	capabilities []ai.Capability
	available    bool
	freeTier     bool
	textCost     int64
	imageCost    int64
	textErr      error
	textResult   string
	tokens       int
	calls        int
}

func (p *stubAiProvider) Name() string                        { return p.name }
func (p *stubAiProvider) Capabilities() []ai.Capability       { return p.capabilities }
func (p *stubAiProvider) Models() []string                    { return []string{p.name + "-model"} }
func (p *stubAiProvider) DefaultModel(c ai.Capability) string { return p.name + "-model" }
func (p *stubAiProvider) Available() bool                     { return p.available }
func (p *stubAiProvider) FreeTier() bool                      { return p.freeTier }
func (p *stubAiProvider) CostPerThousandTokensMicros(model string) int64 {
	return p.textCost
}
func (p *stubAiProvider) CostPerImageMicros(model string) int64 { return p.imageCost }

func (p *stubAiProvider) GenerateText(ctx context.Context, req ai.TextRequest) (*ai.Result, error) {
	p.calls++
	if p.textErr != nil {
		return nil, p.textErr
	}
	return &ai.Result{
		Content:    p.textResult,
		TokensUsed: p.tokens,
		Provider:   p.name,
		Model:      req.Model,
	}, nil
}

func (p *stubAiProvider) GenerateImage(ctx context.Context, req ai.ImageRequest) (*ai.Result, error) {
	p.calls++
	if p.textErr != nil {
		return nil, p.textErr
	}
	return &ai.Result{
		Content:    "https://images.example.com/out.png",
		ImageCount: req.Count,
		Provider:   p.name,
		Model:      req.Model,
	}, nil
}

func (p *stubAiProvider) Moderate(ctx context.Context, input string) (*ai.ModerationResult, error) {
	if p.textErr != nil {
		return nil, p.textErr
	}
	return &ai.ModerationResult{Flagged: false, Provider: p.name}, nil
}
