package models

import (
	"time"

	"github.com/lib/pq"
)

// PostStatus is the publishing lifecycle of a post. Transitions are
// draft -> scheduled -> publishing -> published|failed, with
// failed -> scheduled on manual retry and scheduled -> draft on unschedule.
type PostStatus string

const (
	PostStatusDraft      PostStatus = "draft"
	PostStatusScheduled  PostStatus = "scheduled"
	PostStatusPublishing PostStatus = "publishing"
	PostStatusPublished  PostStatus = "published"
	PostStatusFailed     PostStatus = "failed"
)

// IsEditable reports whether the post content may still be mutated.
// Once a post is publishing or published it is immutable.
func (s PostStatus) IsEditable() bool {
	switch s {
	case PostStatusDraft, PostStatusScheduled, PostStatusFailed:
		return true
	}
	return false
}

func (s PostStatus) CanTransitionTo(next PostStatus) bool {
	switch s {
	case PostStatusDraft:
		return next == PostStatusScheduled
	case PostStatusScheduled:
		return next == PostStatusPublishing || next == PostStatusDraft
	case PostStatusPublishing:
		return next == PostStatusPublished || next == PostStatusFailed
	case PostStatusFailed:
		return next == PostStatusScheduled
	}
	return false
}

// PostType determines which Instagram surface the post targets and
// constrains how many media items of which kind it may carry.
type PostType string

const (
	PostTypeFeed     PostType = "feed"
	PostTypeReel     PostType = "reel"
	PostTypeStory    PostType = "story"
	PostTypeCarousel PostType = "carousel"
)

func (t PostType) Valid() bool {
	switch t {
	case PostTypeFeed, PostTypeReel, PostTypeStory, PostTypeCarousel:
		return true
	}
	return false
}

func (t PostType) MaxMediaCount() int {
	switch t {
	case PostTypeCarousel:
		return 10
	case PostTypeFeed, PostTypeReel, PostTypeStory:
		return 1
	}
	return 0
}

func (t PostType) AllowedMediaTypes() []MediaType {
	switch t {
	case PostTypeReel:
		return []MediaType{MediaTypeVideo}
	case PostTypeFeed, PostTypeStory, PostTypeCarousel:
		return []MediaType{MediaTypeImage, MediaTypeVideo}
	}
	return nil
}

func (t PostType) AllowsMediaType(mt MediaType) bool {
	for _, allowed := range t.AllowedMediaTypes() {
		if allowed == mt {
			return true
		}
	}
	return false
}

const MaxCaptionLength = 2200

type Post struct {
	ID                 int64          `db:"id" json:"id"`
	CompanyID          int64          `db:"company_id" json:"company_id"`
	UserID             int64          `db:"user_id" json:"user_id"`
	InstagramAccountID *int64         `db:"instagram_account_id" json:"instagram_account_id"`
	PostType           PostType       `db:"post_type" json:"post_type"`
	Caption            string         `db:"caption" json:"caption"`
	Hashtags           pq.StringArray `db:"hashtags" json:"hashtags"`
	Mentions           pq.StringArray `db:"mentions" json:"mentions"`
	ScheduledAt        *time.Time     `db:"scheduled_at" json:"scheduled_at"`
	Status             PostStatus     `db:"status" json:"status"`
	FailureReason      string         `db:"failure_reason" json:"failure_reason"`
	PublishAttempts    int            `db:"publish_attempts" json:"publish_attempts"`
	PlatformPostID     string         `db:"platform_post_id" json:"platform_post_id"`
	PublishedAt        *time.Time     `db:"published_at" json:"published_at"`
	Metadata           []byte         `db:"metadata" json:"metadata"`
	CreatedAt          time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time      `db:"updated_at" json:"updated_at"`
}
