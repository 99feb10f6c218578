package models

import "time"

// GenerationType is the kind of content a generation request produces.
type GenerationType string

const (
	GenerationCaption     GenerationType = "caption"
	GenerationImage       GenerationType = "image"
	GenerationVideo       GenerationType = "video"
	GenerationPlan        GenerationType = "plan"
	GenerationHashtags    GenerationType = "hashtags"
	GenerationDescription GenerationType = "description"
	GenerationChat        GenerationType = "chat"
)

// AiGeneration is an immutable record of one AI request/response. Cost is
// stored in integer micro-dollars so aggregate sums never accumulate
// floating-point drift.
type AiGeneration struct {
	ID         int64          `db:"id" json:"id"`
	CompanyID  int64          `db:"company_id" json:"company_id"`
	UserID     int64          `db:"user_id" json:"user_id"`
	Type       GenerationType `db:"type" json:"type"`
	Provider   string         `db:"provider" json:"provider"`
	Model      string         `db:"model" json:"model"`
	Prompt     string         `db:"prompt" json:"prompt"`
	Result     string         `db:"result" json:"result"`
	TokensUsed int            `db:"tokens_used" json:"tokens_used"`
	CostMicros int64          `db:"cost_micros" json:"cost_micros"`
	Metadata   []byte         `db:"metadata" json:"metadata"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
}

// AiUsage is the daily aggregate upserted once per successful generation,
// keyed by (company, user, provider, model, type, date).
type AiUsage struct {
	ID           int64          `db:"id" json:"id"`
	CompanyID    int64          `db:"company_id" json:"company_id"`
	UserID       int64          `db:"user_id" json:"user_id"`
	Provider     string         `db:"provider" json:"provider"`
	Model        string         `db:"model" json:"model"`
	Type         GenerationType `db:"type" json:"type"`
	UsageDate    time.Time      `db:"usage_date" json:"usage_date"`
	TokensUsed   int64          `db:"tokens_used" json:"tokens_used"`
	CostMicros   int64          `db:"cost_micros" json:"cost_micros"`
	RequestCount int64          `db:"request_count" json:"request_count"`
}

// AiBudgetSettings carries a company's spend ceilings in micro-dollars.
// Zero means no ceiling.
type AiBudgetSettings struct {
	ID                 int64     `db:"id" json:"id"`
	CompanyID          int64     `db:"company_id" json:"company_id"`
	DailyLimitMicros   int64     `db:"daily_limit_micros" json:"daily_limit_micros"`
	MonthlyLimitMicros int64     `db:"monthly_limit_micros" json:"monthly_limit_micros"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time `db:"updated_at" json:"updated_at"`
}
