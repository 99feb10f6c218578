package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ankitjain28/gramflow/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPublisher(pr *fakePostRepo, pm *fakePostMediaRepo, ar *fakeAccountRepo, ig *fakeInstagram, now time.Time) *publisherService {
	return &publisherService{
		pr:        pr,
		pm:        pm,
		ar:        ar,
		instagram: ig,
		now:       func() time.Time { return now },
	}
}

func scheduledPost(pr *fakePostRepo, accountID *int64, at time.Time) *models.Post {
	return pr.add(&models.Post{
		CompanyID:          7,
		UserID:             3,
		InstagramAccountID: accountID,
		PostType:           models.PostTypeFeed,
		Caption:            "hello",
		Status:             models.PostStatusScheduled,
		ScheduledAt:        &at,
	})
}

func activeAccount(ar *fakeAccountRepo) *models.InstagramAccount {
	companyID := int64(7)
	acc := &models.InstagramAccount{
		OwnershipType: models.OwnershipCompany,
		CompanyID:     &companyID,
		IgUserID:      "17841400000000000",
		Status:        models.AccountStatusActive,
	}
	acc.ID = int64(len(ar.accounts) + 1)
	ar.accounts[acc.ID] = acc
	return acc
}

func TestPublishPostHappyPath(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	pr := newFakePostRepo()
	pm := newFakePostMediaRepo()
	ar := newFakeAccountRepo()
	ig := &fakeInstagram{}

	acc := activeAccount(ar)
	post := scheduledPost(pr, &acc.ID, now.Add(-time.Minute))
	pm.add(&models.PostMedia{PostID: post.ID, MediaType: models.MediaTypeImage, PublicURL: "https://cdn.example.com/a.jpg"})

	s := newTestPublisher(pr, pm, ar, ig, now)

	require.NoError(t, s.PublishPost(context.Background(), post.ID))
	assert.Equal(t, models.PostStatusPublished, pr.posts[post.ID].Status)
	assert.Equal(t, "platform-123", pr.posts[post.ID].PlatformPostID)
	require.NotNil(t, pr.posts[post.ID].PublishedAt)
}

func TestPublishPostNotDueIsSkipped(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	pr := newFakePostRepo()
	ar := newFakeAccountRepo()
	ig := &fakeInstagram{}

	acc := activeAccount(ar)
	post := scheduledPost(pr, &acc.ID, now.Add(time.Hour))

	s := newTestPublisher(pr, newFakePostMediaRepo(), ar, ig, now)

	require.NoError(t, s.PublishPost(context.Background(), post.ID))
	assert.Equal(t, models.PostStatusScheduled, pr.posts[post.ID].Status)
	assert.Empty(t, ig.published)
}

func TestPublishPostDoubleTriggerPublishesOnce(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	pr := newFakePostRepo()
	pm := newFakePostMediaRepo()
	ar := newFakeAccountRepo()
	ig := &fakeInstagram{}

	acc := activeAccount(ar)
	post := scheduledPost(pr, &acc.ID, now.Add(-time.Minute))
	pm.add(&models.PostMedia{PostID: post.ID, MediaType: models.MediaTypeImage})

	s := newTestPublisher(pr, pm, ar, ig, now)

	// Queue task and sweep both fire; only the first claim does work.
	require.NoError(t, s.PublishPost(context.Background(), post.ID))
	require.NoError(t, s.PublishPost(context.Background(), post.ID))

	assert.Len(t, ig.published, 1)
	assert.Equal(t, models.PostStatusPublished, pr.posts[post.ID].Status)
}

func TestPublishPostWithoutAccountFails(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	pr := newFakePostRepo()
	ig := &fakeInstagram{}

	post := scheduledPost(pr, nil, now.Add(-time.Minute))

	s := newTestPublisher(pr, newFakePostMediaRepo(), newFakeAccountRepo(), ig, now)

	require.NoError(t, s.PublishPost(context.Background(), post.ID))
	assert.Equal(t, models.PostStatusFailed, pr.posts[post.ID].Status)
	assert.Contains(t, pr.failedWith[post.ID], "no instagram account")
	assert.Equal(t, 1, pr.posts[post.ID].PublishAttempts)
}

func TestPublishPostInactiveAccountFails(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	pr := newFakePostRepo()
	ar := newFakeAccountRepo()
	ig := &fakeInstagram{}

	acc := activeAccount(ar)
	acc.Status = models.AccountStatusExpired
	post := scheduledPost(pr, &acc.ID, now.Add(-time.Minute))

	s := newTestPublisher(pr, newFakePostMediaRepo(), ar, ig, now)

	require.NoError(t, s.PublishPost(context.Background(), post.ID))
	assert.Equal(t, models.PostStatusFailed, pr.posts[post.ID].Status)
	assert.Contains(t, pr.failedWith[post.ID], "expired")
	assert.Empty(t, ig.published)
}

func TestPublishPostWithoutMediaFails(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	pr := newFakePostRepo()
	ar := newFakeAccountRepo()
	ig := &fakeInstagram{}

	acc := activeAccount(ar)
	post := scheduledPost(pr, &acc.ID, now.Add(-time.Minute))

	s := newTestPublisher(pr, newFakePostMediaRepo(), ar, ig, now)

	require.NoError(t, s.PublishPost(context.Background(), post.ID))
	assert.Equal(t, models.PostStatusFailed, pr.posts[post.ID].Status)
	assert.Contains(t, pr.failedWith[post.ID], "no media")
}

func TestPublishPostMediaLoadErrorReleasesClaim(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	pr := newFakePostRepo()
	pm := newFakePostMediaRepo()
	ar := newFakeAccountRepo()
	ig := &fakeInstagram{}

	acc := activeAccount(ar)
	post := scheduledPost(pr, &acc.ID, now.Add(-time.Minute))
	pm.listErr = errors.New("connection reset")

	s := newTestPublisher(pr, pm, ar, ig, now)

	// A transient repo error after the claim must not leave the post
	// stuck in publishing.
	require.NoError(t, s.PublishPost(context.Background(), post.ID))
	assert.Equal(t, models.PostStatusFailed, pr.posts[post.ID].Status)
	assert.Contains(t, pr.failedWith[post.ID], "connection reset")
	assert.Empty(t, ig.published)
}

func TestPublishPostAuthErrorExpiresAccount(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	pr := newFakePostRepo()
	pm := newFakePostMediaRepo()
	ar := newFakeAccountRepo()
	ig := &fakeInstagram{
		publishFn: func(post *models.Post) (string, error) {
			return "", &IgError{Code: 190, Message: "Invalid OAuth access token"}
		},
	}

	acc := activeAccount(ar)
	post := scheduledPost(pr, &acc.ID, now.Add(-time.Minute))
	pm.add(&models.PostMedia{PostID: post.ID, MediaType: models.MediaTypeImage})

	s := newTestPublisher(pr, pm, ar, ig, now)

	require.NoError(t, s.PublishPost(context.Background(), post.ID))
	assert.Equal(t, models.PostStatusFailed, pr.posts[post.ID].Status)
	assert.Equal(t, models.AccountStatusExpired, ar.statuses[acc.ID])
}

func TestPublishDuePostsSweepsOnlyDue(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	pr := newFakePostRepo()
	pm := newFakePostMediaRepo()
	ar := newFakeAccountRepo()
	ig := &fakeInstagram{}

	acc := activeAccount(ar)
	due := scheduledPost(pr, &acc.ID, now.Add(-time.Minute))
	future := scheduledPost(pr, &acc.ID, now.Add(time.Hour))
	pm.add(&models.PostMedia{PostID: due.ID, MediaType: models.MediaTypeImage})
	pm.add(&models.PostMedia{PostID: future.ID, MediaType: models.MediaTypeImage})

	s := newTestPublisher(pr, pm, ar, ig, now)
	s.PublishDuePosts(context.Background())

	assert.Equal(t, models.PostStatusPublished, pr.posts[due.ID].Status)
	assert.Equal(t, models.PostStatusScheduled, pr.posts[future.ID].Status)
}
