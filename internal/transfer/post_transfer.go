package transfer

// PostCreation carries the multipart form fields for creating a post. Files
// ride alongside in the multipart payload.
type PostCreation struct {
	PostType           string `json:"post_type"`
	Caption            string `json:"caption"`
	InstagramAccountID int64  `json:"instagram_account_id"`
	ScheduledAt        string `json:"scheduled_at"` // 2006-01-02T15:04, empty for draft
}

type PostUpdate struct {
	Caption            *string `json:"caption"`
	InstagramAccountID *int64  `json:"instagram_account_id"`
}
