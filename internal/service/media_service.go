package service

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"mime/multipart"

	config "github.com/ankitjain28/gramflow/configs"
	"github.com/ankitjain28/gramflow/internal/models"
	"github.com/ankitjain28/gramflow/internal/repository"
	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// imageExtensions and videoExtensions are the accepted upload formats, keyed
// by the extension filetype sniffs from the file header.
var imageExtensions = map[string]struct{}{"jpg": {}, "jpeg": {}, "png": {}}
var videoExtensions = map[string]struct{}{"mp4": {}, "mov": {}}

type MediaService interface {
	ProcessUploads(ctx context.Context, tx *sql.Tx, post *models.Post, startOrder int, files []*multipart.FileHeader) ([]*models.PostMedia, error)
	CopyForPost(ctx context.Context, tx *sql.Tx, srcPostID, dstPostID int64) error
	ListForPost(ctx context.Context, postID int64) ([]*models.PostMedia, error)
	Remove(ctx context.Context, companyID, mediaID int64) error
	RemoveAllForPost(ctx context.Context, postID int64) error
}

type mediaService struct {
	cfg     config.Config
	pr      repository.PostRepository
	pm      repository.PostMediaRepository
	storage StorageService
}

func NewMediaService(
	cfg config.Config,
	pr repository.PostRepository,
	pm repository.PostMediaRepository,
	storage StorageService) MediaService {
	return &mediaService{
		cfg:     cfg,
		pr:      pr,
		pm:      pm,
		storage: storage,
	}
}

// ProcessUploads validates, stores and records a batch of uploaded files for
// a post. Media-count and media-type constraints of the post type are
// enforced before any blob is written.
func (s *mediaService) ProcessUploads(ctx context.Context, tx *sql.Tx, post *models.Post, startOrder int, files []*multipart.FileHeader) ([]*models.PostMedia, error) {
	if startOrder+len(files) > post.PostType.MaxMediaCount() {
		return nil, validationError(fmt.Sprintf(
			"post type %s allows at most %d media items", post.PostType, post.PostType.MaxMediaCount()))
	}

	var created []*models.PostMedia
	for i, file := range files {
		if file.Size > s.cfg.MaxUploadSize {
			return nil, validationError(fmt.Sprintf("file %s exceeds the maximum upload size", file.Filename))
		}

		fileContent, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("error opening file: %w", err)
		}
		fileBytes, err := io.ReadAll(fileContent)
		fileContent.Close()
		if err != nil {
			return nil, fmt.Errorf("error reading file content: %w", err)
		}

		kind, err := filetype.Match(fileBytes)
		if err != nil || kind == types.Unknown {
			return nil, validationError(fmt.Sprintf("file %s has an unsupported type", file.Filename))
		}

		mediaType, err := classifyMedia(kind.Extension)
		if err != nil {
			return nil, validationError(err.Error())
		}
		if !post.PostType.AllowsMediaType(mediaType) {
			return nil, validationError(fmt.Sprintf(
				"post type %s does not allow %s media", post.PostType, mediaType))
		}

		pm := &models.PostMedia{
			PostID:       post.ID,
			MediaType:    mediaType,
			FileName:     file.Filename,
			MimeType:     kind.MIME.Value,
			FileSize:     int64(len(fileBytes)),
			DisplayOrder: startOrder + i,
		}

		if mediaType == models.MediaTypeImage {
			// Dimension extraction from the header only; a corrupt image
			// that still sniffs as one is caught here.
			imgCfg, _, err := image.DecodeConfig(bytes.NewReader(fileBytes))
			if err != nil {
				return nil, validationError(fmt.Sprintf("file %s is not a valid image", file.Filename))
			}
			pm.Width = imgCfg.Width
			pm.Height = imgCfg.Height
		}

		key, err := gonanoid.New()
		if err != nil {
			return nil, err
		}
		if err := s.storage.Upload(ctx, key, fileBytes, kind.MIME.Value); err != nil {
			return nil, fmt.Errorf("error uploading file: %w", err)
		}
		pm.StorageKey = key
		pm.PublicURL = s.storage.PublicURL(key)

		id, err := s.pm.Create(ctx, tx, pm)
		if err != nil {
			return nil, fmt.Errorf("error saving media record: %w", err)
		}
		pm.ID = id
		created = append(created, pm)
	}
	return created, nil
}

func classifyMedia(extension string) (models.MediaType, error) {
	if _, ok := imageExtensions[extension]; ok {
		return models.MediaTypeImage, nil
	}
	if _, ok := videoExtensions[extension]; ok {
		return models.MediaTypeVideo, nil
	}
	return "", fmt.Errorf("file type %s is not allowed", extension)
}

// CopyForPost duplicates every media item of srcPostID onto dstPostID under
// fresh storage keys. Duplicated posts never share blobs, so mutating one
// can never leak into the other.
func (s *mediaService) CopyForPost(ctx context.Context, tx *sql.Tx, srcPostID, dstPostID int64) error {
	medias, err := s.pm.ListByPostID(ctx, srcPostID)
	if err != nil {
		return err
	}

	for _, src := range medias {
		key, err := gonanoid.New()
		if err != nil {
			return err
		}
		if err := s.storage.Copy(ctx, src.StorageKey, key); err != nil {
			return fmt.Errorf("error copying media blob: %w", err)
		}

		dup := *src
		dup.ID = 0
		dup.PostID = dstPostID
		dup.StorageKey = key
		dup.PublicURL = s.storage.PublicURL(key)

		if _, err := s.pm.Create(ctx, tx, &dup); err != nil {
			return fmt.Errorf("error saving copied media record: %w", err)
		}
	}
	return nil
}

func (s *mediaService) ListForPost(ctx context.Context, postID int64) ([]*models.PostMedia, error) {
	return s.pm.ListByPostID(ctx, postID)
}

// Remove deletes the blob before the row. Blob deletion is best-effort: a
// storage failure is logged but never blocks removing the record of truth.
func (s *mediaService) Remove(ctx context.Context, companyID, mediaID int64) error {
	pm, err := s.pm.GetByID(ctx, mediaID)
	if err != nil {
		return err
	}
	if pm == nil {
		return validationError("media item doesn't exist")
	}

	owned, err := s.pr.CheckByCompanyID(ctx, pm.PostID, companyID)
	if err != nil {
		return err
	}
	if !owned {
		return validationError("media item doesn't exist")
	}

	post, err := s.pr.GetByID(ctx, pm.PostID)
	if err != nil {
		return err
	}
	if post != nil && !post.Status.IsEditable() {
		return validationError("post media can no longer be modified")
	}

	if err := s.storage.Delete(ctx, pm.StorageKey); err != nil {
		slog.Warn("failed to delete media blob", "key", pm.StorageKey, "error", err)
	}
	return s.pm.Remove(ctx, mediaID)
}

func (s *mediaService) RemoveAllForPost(ctx context.Context, postID int64) error {
	medias, err := s.pm.ListByPostID(ctx, postID)
	if err != nil {
		return err
	}
	for _, pm := range medias {
		if err := s.storage.Delete(ctx, pm.StorageKey); err != nil {
			slog.Warn("failed to delete media blob", "key", pm.StorageKey, "error", err)
		}
	}
	return s.pm.RemoveByPostID(ctx, postID)
}
