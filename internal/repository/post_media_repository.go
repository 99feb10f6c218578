package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/ankitjain28/gramflow/internal/models"
)

type PostMediaRepository interface {
	Create(ctx context.Context, tx *sql.Tx, pm *models.PostMedia) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.PostMedia, error)
	ListByPostID(ctx context.Context, postID int64) ([]*models.PostMedia, error)
	CountByPostID(ctx context.Context, postID int64) (int, error)
	Remove(ctx context.Context, id int64) error
	RemoveByPostID(ctx context.Context, postID int64) error
}

type postMediaRepository struct {
	db *sql.DB
}

func NewPostMediaRepository(db *sql.DB) PostMediaRepository {
	return &postMediaRepository{db: db}
}

const postMediaColumns = `id, post_id, media_type, file_name, mime_type, file_size,
	storage_key, public_url, display_order, width, height, duration, created_at`

func scanPostMedia(row interface{ Scan(...interface{}) error }) (*models.PostMedia, error) {
	var pm models.PostMedia
	err := row.Scan(&pm.ID, &pm.PostID, &pm.MediaType, &pm.FileName, &pm.MimeType,
		&pm.FileSize, &pm.StorageKey, &pm.PublicURL, &pm.DisplayOrder, &pm.Width,
		&pm.Height, &pm.Duration, &pm.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &pm, nil
}

func (r *postMediaRepository) Create(ctx context.Context, tx *sql.Tx, pm *models.PostMedia) (int64, error) {
	query := `
		INSERT INTO post_media (post_id, media_type, file_name, mime_type, file_size,
			storage_key, public_url, display_order, width, height, duration)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`

	var id int64
	var err error

	args := []interface{}{pm.PostID, pm.MediaType, pm.FileName, pm.MimeType, pm.FileSize,
		pm.StorageKey, pm.PublicURL, pm.DisplayOrder, pm.Width, pm.Height, pm.Duration}

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

func (r *postMediaRepository) GetByID(ctx context.Context, id int64) (*models.PostMedia, error) {
	query := `SELECT ` + postMediaColumns + ` FROM post_media WHERE id = $1`
	pm, err := scanPostMedia(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return pm, nil
}

func (r *postMediaRepository) ListByPostID(ctx context.Context, postID int64) ([]*models.PostMedia, error) {
	query := `SELECT ` + postMediaColumns + ` FROM post_media WHERE post_id = $1 ORDER BY display_order, id`

	rows, err := r.db.QueryContext(ctx, query, postID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var medias []*models.PostMedia
	for rows.Next() {
		pm, err := scanPostMedia(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		medias = append(medias, pm)
	}
	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return medias, nil
}

func (r *postMediaRepository) CountByPostID(ctx context.Context, postID int64) (int, error) {
	query := `SELECT COUNT(*) FROM post_media WHERE post_id = $1`

	var count int
	if err := r.db.QueryRowContext(ctx, query, postID).Scan(&count); err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return count, nil
}

func (r *postMediaRepository) Remove(ctx context.Context, id int64) error {
	query := `DELETE FROM post_media WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *postMediaRepository) RemoveByPostID(ctx context.Context, postID int64) error {
	query := `DELETE FROM post_media WHERE post_id = $1`
	_, err := r.db.ExecContext(ctx, query, postID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
