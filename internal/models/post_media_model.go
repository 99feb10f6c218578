package models

import "time"

type MediaType string

const (
	MediaTypeImage MediaType = "image"
	MediaTypeVideo MediaType = "video"
)

// PostMedia is one ordered media item owned by a post. DisplayOrder is the
// only externally meaningful sequencing key; ties break on id.
type PostMedia struct {
	ID           int64     `db:"id" json:"id"`
	PostID       int64     `db:"post_id" json:"post_id"`
	MediaType    MediaType `db:"media_type" json:"media_type"`
	FileName     string    `db:"file_name" json:"file_name"`
	MimeType     string    `db:"mime_type" json:"mime_type"`
	FileSize     int64     `db:"file_size" json:"file_size"`
	StorageKey   string    `db:"storage_key" json:"storage_key"`
	PublicURL    string    `db:"public_url" json:"public_url"`
	DisplayOrder int       `db:"display_order" json:"display_order"`
	Width        int       `db:"width" json:"width"`
	Height       int       `db:"height" json:"height"`
	Duration     float64   `db:"duration" json:"duration"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
