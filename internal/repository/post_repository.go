package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/ankitjain28/gramflow/internal/models"
)

// PostFilters narrows company post listings. Zero values are ignored.
type PostFilters struct {
	Status    models.PostStatus
	PostType  models.PostType
	AccountID int64
}

type PostRepository interface {
	Create(ctx context.Context, tx *sql.Tx, post *models.Post) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Post, error)
	ListByCompanyID(ctx context.Context, companyID int64, filters PostFilters) ([]*models.Post, error)
	ListDueScheduled(ctx context.Context, now time.Time) ([]int64, error)
	ClaimForPublishing(ctx context.Context, id int64, now time.Time) (bool, error)
	UpdateContent(ctx context.Context, post *models.Post) error
	SetSchedule(ctx context.Context, id int64, scheduledAt *time.Time, from, to models.PostStatus) (bool, error)
	MarkPublished(ctx context.Context, id int64, platformPostID string, publishedAt time.Time) error
	MarkFailed(ctx context.Context, id int64, reason string) error
	CheckByCompanyID(ctx context.Context, postID, companyID int64) (bool, error)
	Remove(ctx context.Context, id int64) error
}

type postRepository struct {
	db *sql.DB
}

func NewPostRepository(db *sql.DB) PostRepository {
	return &postRepository{db: db}
}

const postColumns = `id, company_id, user_id, instagram_account_id, post_type, caption,
	hashtags, mentions, scheduled_at, status, failure_reason, publish_attempts,
	platform_post_id, published_at, metadata, created_at, updated_at`

func scanPost(row interface{ Scan(...interface{}) error }) (*models.Post, error) {
	var post models.Post
	err := row.Scan(&post.ID, &post.CompanyID, &post.UserID, &post.InstagramAccountID,
		&post.PostType, &post.Caption, &post.Hashtags, &post.Mentions, &post.ScheduledAt,
		&post.Status, &post.FailureReason, &post.PublishAttempts, &post.PlatformPostID,
		&post.PublishedAt, &post.Metadata, &post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) Create(ctx context.Context, tx *sql.Tx, post *models.Post) (int64, error) {
	query := `
		INSERT INTO posts (company_id, user_id, instagram_account_id, post_type, caption,
			hashtags, mentions, scheduled_at, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`

	var id int64
	var err error

	args := []interface{}{post.CompanyID, post.UserID, post.InstagramAccountID,
		post.PostType, post.Caption, post.Hashtags, post.Mentions, post.ScheduledAt, post.Status}

	if tx != nil {
		err = tx.QueryRowContext(ctx, query, args...).Scan(&id)
	} else {
		err = r.db.QueryRowContext(ctx, query, args...).Scan(&id)
	}
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *postRepository) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = $1`
	post, err := scanPost(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return post, nil
}

func (r *postRepository) ListByCompanyID(ctx context.Context, companyID int64, filters PostFilters) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE company_id = $1`
	args := []interface{}{companyID}

	if filters.Status != "" {
		args = append(args, filters.Status)
		query += ` AND status = $2`
	}
	if filters.PostType != "" {
		args = append(args, filters.PostType)
		query += ` AND post_type = $` + itoa(len(args))
	}
	if filters.AccountID != 0 {
		args = append(args, filters.AccountID)
		query += ` AND instagram_account_id = $` + itoa(len(args))
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var posts []*models.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return posts, nil
}

// ListDueScheduled returns ids of posts ready for publishing. Posts already
// claimed (status publishing) are excluded by the status predicate.
func (r *postRepository) ListDueScheduled(ctx context.Context, now time.Time) ([]int64, error) {
	query := `SELECT id FROM posts WHERE status = $1 AND scheduled_at <= $2`
	rows, err := r.db.QueryContext(ctx, query, models.PostStatusScheduled, now)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return ids, nil
}

// ClaimForPublishing atomically moves a due scheduled post into publishing.
// The status predicate makes the transition a compare-and-set, so two
// concurrent scheduler ticks can never both claim the same post.
func (r *postRepository) ClaimForPublishing(ctx context.Context, id int64, now time.Time) (bool, error) {
	query := `
		UPDATE posts
		SET status = $1, updated_at = CURRENT_TIMESTAMP
		WHERE id = $2 AND status = $3 AND scheduled_at <= $4
	`
	result, err := r.db.ExecContext(ctx, query, models.PostStatusPublishing, id, models.PostStatusScheduled, now)
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	return affected == 1, nil
}

func (r *postRepository) UpdateContent(ctx context.Context, post *models.Post) error {
	query := `
		UPDATE posts
		SET instagram_account_id = $1,
			post_type = $2,
			caption = $3,
			hashtags = $4,
			mentions = $5,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $6
	`
	_, err := r.db.ExecContext(ctx, query, post.InstagramAccountID, post.PostType,
		post.Caption, post.Hashtags, post.Mentions, post.ID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

// SetSchedule moves a post between schedule states with the same
// compare-and-set guard as ClaimForPublishing. A post the pipeline claimed
// in the meantime no longer matches the expected status and the write is a
// no-op, reported through the bool.
func (r *postRepository) SetSchedule(ctx context.Context, id int64, scheduledAt *time.Time, from, to models.PostStatus) (bool, error) {
	query := `
		UPDATE posts
		SET scheduled_at = $1, status = $2, updated_at = CURRENT_TIMESTAMP
		WHERE id = $3 AND status = $4
	`
	result, err := r.db.ExecContext(ctx, query, scheduledAt, to, id, from)
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	return affected == 1, nil
}

func (r *postRepository) MarkPublished(ctx context.Context, id int64, platformPostID string, publishedAt time.Time) error {
	query := `
		UPDATE posts
		SET status = $1,
			platform_post_id = $2,
			published_at = $3,
			failure_reason = '',
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $4
	`
	_, err := r.db.ExecContext(ctx, query, models.PostStatusPublished, platformPostID, publishedAt, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *postRepository) MarkFailed(ctx context.Context, id int64, reason string) error {
	query := `
		UPDATE posts
		SET status = $1,
			failure_reason = $2,
			publish_attempts = publish_attempts + 1,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $3
	`
	_, err := r.db.ExecContext(ctx, query, models.PostStatusFailed, reason, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *postRepository) CheckByCompanyID(ctx context.Context, postID, companyID int64) (bool, error) {
	query := `SELECT 1 FROM posts WHERE id = $1 AND company_id = $2`

	var result int
	err := r.db.QueryRowContext(ctx, query, postID, companyID).Scan(&result)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		slog.Info(err.Error())
		return false, err
	}
	return result == 1, nil
}

func (r *postRepository) Remove(ctx context.Context, id int64) error {
	query := `DELETE FROM posts WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
