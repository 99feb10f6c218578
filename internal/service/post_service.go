package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"regexp"
	"time"

	"github.com/ankitjain28/gramflow/internal/models"
	"github.com/ankitjain28/gramflow/internal/repository"
	"github.com/ankitjain28/gramflow/internal/transfer"
	"github.com/lib/pq"
)

var (
	hashtagPattern = regexp.MustCompile(`#([\p{L}\p{N}_]+)`)
	mentionPattern = regexp.MustCompile(`@([\p{L}\p{N}._]+)`)
)

type PostService interface {
	Create(ctx context.Context, companyID, userID int64, pc *transfer.PostCreation, files []*multipart.FileHeader) (*models.Post, time.Duration, error)
	Update(ctx context.Context, companyID, postID int64, pu *transfer.PostUpdate) error
	Schedule(ctx context.Context, companyID, postID int64, scheduledAt time.Time) (time.Duration, error)
	Unschedule(ctx context.Context, companyID, postID int64) error
	Duplicate(ctx context.Context, companyID, userID, postID int64) (int64, error)
	Remove(ctx context.Context, companyID, postID int64) error
	List(ctx context.Context, companyID int64, filters repository.PostFilters) ([]*models.Post, error)
	Info(ctx context.Context, companyID, postID int64) (*models.Post, error)
	AttachMedia(ctx context.Context, companyID, postID int64, files []*multipart.FileHeader) ([]*models.PostMedia, error)
}

type postService struct {
	db    *sql.DB
	pr    repository.PostRepository
	pm    repository.PostMediaRepository
	ar    repository.InstagramAccountRepository
	media MediaService
	now   func() time.Time
}

func NewPostService(
	db *sql.DB,
	pr repository.PostRepository,
	pm repository.PostMediaRepository,
	ar repository.InstagramAccountRepository,
	media MediaService) PostService {
	return &postService{
		db:    db,
		pr:    pr,
		pm:    pm,
		ar:    ar,
		media: media,
		now:   time.Now,
	}
}

func (s *postService) Create(ctx context.Context, companyID, userID int64, pc *transfer.PostCreation, files []*multipart.FileHeader) (post *models.Post, delay time.Duration, err error) {
	if pc == nil {
		return nil, 0, validationError("post creation data is missing")
	}

	postType := models.PostType(pc.PostType)
	if !postType.Valid() {
		return nil, 0, validationError(fmt.Sprintf("invalid post type %q", pc.PostType))
	}
	if len(pc.Caption) > models.MaxCaptionLength {
		return nil, 0, validationError(fmt.Sprintf("caption exceeds %d characters", models.MaxCaptionLength))
	}

	var scheduledAt *time.Time
	status := models.PostStatusDraft
	if pc.ScheduledAt != "" {
		parsed, perr := time.Parse("2006-01-02T15:04", pc.ScheduledAt)
		if perr != nil {
			return nil, 0, validationError("invalid scheduled time format")
		}
		if !parsed.After(s.now()) {
			return nil, 0, validationError("scheduled time must be in the future")
		}
		if len(files) == 0 {
			return nil, 0, validationError("a scheduled post needs at least one media item")
		}
		scheduledAt = &parsed
		status = models.PostStatusScheduled
	}

	var accountID *int64
	if pc.InstagramAccountID != 0 {
		if err := s.checkAccount(ctx, companyID, pc.InstagramAccountID); err != nil {
			return nil, 0, err
		}
		accountID = &pc.InstagramAccountID
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		} else if err != nil {
			tx.Rollback()
		}
	}()

	post = &models.Post{
		CompanyID:          companyID,
		UserID:             userID,
		InstagramAccountID: accountID,
		PostType:           postType,
		Caption:            pc.Caption,
		Hashtags:           extractTags(hashtagPattern, pc.Caption),
		Mentions:           extractTags(mentionPattern, pc.Caption),
		ScheduledAt:        scheduledAt,
		Status:             status,
	}

	postID, err := s.pr.Create(ctx, tx, post)
	if err != nil {
		return nil, 0, fmt.Errorf("error creating post: %w", err)
	}
	post.ID = postID

	if len(files) > 0 {
		if _, err = s.media.ProcessUploads(ctx, tx, post, 0, files); err != nil {
			return nil, 0, err
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	if scheduledAt != nil {
		delay = scheduledAt.Sub(s.now())
		if delay < 0 {
			delay = 0
		}
	}
	return post, delay, nil
}

func (s *postService) Update(ctx context.Context, companyID, postID int64, pu *transfer.PostUpdate) error {
	post, err := s.ownedEditablePost(ctx, companyID, postID)
	if err != nil {
		return err
	}

	if pu.Caption != nil {
		if len(*pu.Caption) > models.MaxCaptionLength {
			return validationError(fmt.Sprintf("caption exceeds %d characters", models.MaxCaptionLength))
		}
		post.Caption = *pu.Caption
		post.Hashtags = extractTags(hashtagPattern, post.Caption)
		post.Mentions = extractTags(mentionPattern, post.Caption)
	}
	if pu.InstagramAccountID != nil {
		if *pu.InstagramAccountID == 0 {
			post.InstagramAccountID = nil
		} else {
			if err := s.checkAccount(ctx, companyID, *pu.InstagramAccountID); err != nil {
				return err
			}
			post.InstagramAccountID = pu.InstagramAccountID
		}
	}

	return s.pr.UpdateContent(ctx, post)
}

// Schedule moves an editable post with media into scheduled and returns the
// delay until it is due, for the fast-path queue task.
func (s *postService) Schedule(ctx context.Context, companyID, postID int64, scheduledAt time.Time) (time.Duration, error) {
	post, err := s.ownedEditablePost(ctx, companyID, postID)
	if err != nil {
		return 0, err
	}

	if !scheduledAt.After(s.now()) {
		return 0, validationError("scheduled time must be in the future")
	}

	count, err := s.pm.CountByPostID(ctx, postID)
	if err != nil {
		return 0, err
	}
	if count == 0 {
		return 0, validationError("a post needs at least one media item before scheduling")
	}

	moved, err := s.pr.SetSchedule(ctx, postID, &scheduledAt, post.Status, models.PostStatusScheduled)
	if err != nil {
		return 0, err
	}
	if !moved {
		return 0, validationError("post state changed, please retry")
	}

	delay := scheduledAt.Sub(s.now())
	if delay < 0 {
		delay = 0
	}
	return delay, nil
}

// Unschedule returns a scheduled post to draft. Once the pipeline has
// claimed the post (status publishing) it can no longer be pulled back.
func (s *postService) Unschedule(ctx context.Context, companyID, postID int64) error {
	post, err := s.ownedPost(ctx, companyID, postID)
	if err != nil {
		return err
	}
	if post.Status != models.PostStatusScheduled {
		return validationError("only scheduled posts can be unscheduled")
	}

	moved, err := s.pr.SetSchedule(ctx, postID, nil, models.PostStatusScheduled, models.PostStatusDraft)
	if err != nil {
		return err
	}
	if !moved {
		return validationError("post is already being published")
	}
	return nil
}

// Duplicate clones a post as a new draft, re-copying media blobs under new
// storage keys.
func (s *postService) Duplicate(ctx context.Context, companyID, userID, postID int64) (dupID int64, err error) {
	src, err := s.ownedPost(ctx, companyID, postID)
	if err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return 0, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	dup := &models.Post{
		CompanyID:          companyID,
		UserID:             userID,
		InstagramAccountID: src.InstagramAccountID,
		PostType:           src.PostType,
		Caption:            src.Caption,
		Hashtags:           src.Hashtags,
		Mentions:           src.Mentions,
		Status:             models.PostStatusDraft,
	}

	dupID, err = s.pr.Create(ctx, tx, dup)
	if err != nil {
		return 0, fmt.Errorf("error creating duplicate post: %w", err)
	}

	if err = s.media.CopyForPost(ctx, tx, postID, dupID); err != nil {
		return 0, err
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return dupID, nil
}

// Remove deletes an editable post: media blobs first (best-effort), then the
// media rows, then the post row.
func (s *postService) Remove(ctx context.Context, companyID, postID int64) error {
	post, err := s.ownedPost(ctx, companyID, postID)
	if err != nil {
		return err
	}
	if !post.Status.IsEditable() {
		return validationError("published posts cannot be deleted")
	}

	if err := s.media.RemoveAllForPost(ctx, postID); err != nil {
		return err
	}
	if err := s.pr.Remove(ctx, postID); err != nil {
		return fmt.Errorf("error removing post: %w", err)
	}
	return nil
}

func (s *postService) List(ctx context.Context, companyID int64, filters repository.PostFilters) ([]*models.Post, error) {
	posts, err := s.pr.ListByCompanyID(ctx, companyID, filters)
	if err != nil {
		return nil, fmt.Errorf("error listing posts: %w", err)
	}
	return posts, nil
}

func (s *postService) Info(ctx context.Context, companyID, postID int64) (*models.Post, error) {
	return s.ownedPost(ctx, companyID, postID)
}

func (s *postService) AttachMedia(ctx context.Context, companyID, postID int64, files []*multipart.FileHeader) ([]*models.PostMedia, error) {
	post, err := s.ownedEditablePost(ctx, companyID, postID)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, validationError("no files provided")
	}

	count, err := s.pm.CountByPostID(ctx, postID)
	if err != nil {
		return nil, err
	}
	return s.media.ProcessUploads(ctx, nil, post, count, files)
}

func (s *postService) ownedPost(ctx context.Context, companyID, postID int64) (*models.Post, error) {
	if postID == 0 {
		return nil, validationError("post id is not valid")
	}

	post, err := s.pr.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil || post.CompanyID != companyID {
		err = errors.New("post doesn't exist")
		slog.Info(err.Error())
		return nil, validationError(err.Error())
	}
	return post, nil
}

func (s *postService) ownedEditablePost(ctx context.Context, companyID, postID int64) (*models.Post, error) {
	post, err := s.ownedPost(ctx, companyID, postID)
	if err != nil {
		return nil, err
	}
	if !post.Status.IsEditable() {
		return nil, validationError("post can no longer be edited")
	}
	return post, nil
}

func (s *postService) checkAccount(ctx context.Context, companyID, accountID int64) error {
	acc, err := s.ar.GetByID(ctx, accountID)
	if err != nil {
		return err
	}
	if acc == nil {
		return validationError("instagram account doesn't exist")
	}
	if acc.OwnershipType == models.OwnershipCompany && (acc.CompanyID == nil || *acc.CompanyID != companyID) {
		return validationError("instagram account doesn't exist")
	}
	return nil
}

func extractTags(pattern *regexp.Regexp, caption string) pq.StringArray {
	matches := pattern.FindAllStringSubmatch(caption, -1)
	seen := make(map[string]struct{}, len(matches))
	var tags pq.StringArray
	for _, m := range matches {
		if _, ok := seen[m[1]]; ok {
			continue
		}
		seen[m[1]] = struct{}{}
		tags = append(tags, m[1])
	}
	return tags
}
