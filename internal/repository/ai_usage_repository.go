package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/ankitjain28/gramflow/internal/models"
)

type AiUsageRepository interface {
	Upsert(ctx context.Context, usage *models.AiUsage) error
	SumCostSince(ctx context.Context, companyID int64, since time.Time) (int64, error)
	ListByCompanyID(ctx context.Context, companyID int64, from, to time.Time) ([]*models.AiUsage, error)
}

type aiUsageRepository struct {
	db *sql.DB
}

func NewAiUsageRepository(db *sql.DB) AiUsageRepository {
	return &aiUsageRepository{db: db}
}

// Upsert increments the daily aggregate row for the usage key, creating it on
// first use of the day.
func (r *aiUsageRepository) Upsert(ctx context.Context, usage *models.AiUsage) error {
	query := `
		INSERT INTO ai_usage (company_id, user_id, provider, model, type, usage_date,
			tokens_used, cost_micros, request_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 1)
		ON CONFLICT (company_id, user_id, provider, model, type, usage_date)
		DO UPDATE SET
			tokens_used = ai_usage.tokens_used + EXCLUDED.tokens_used,
			cost_micros = ai_usage.cost_micros + EXCLUDED.cost_micros,
			request_count = ai_usage.request_count + 1
	`
	_, err := r.db.ExecContext(ctx, query, usage.CompanyID, usage.UserID, usage.Provider,
		usage.Model, usage.Type, usage.UsageDate, usage.TokensUsed, usage.CostMicros)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

// SumCostSince totals a company's spend in micro-dollars from the given date
// forward. Sums run on the integer column only.
func (r *aiUsageRepository) SumCostSince(ctx context.Context, companyID int64, since time.Time) (int64, error) {
	query := `
		SELECT COALESCE(SUM(cost_micros), 0)
		FROM ai_usage
		WHERE company_id = $1 AND usage_date >= $2
	`

	var total int64
	if err := r.db.QueryRowContext(ctx, query, companyID, since).Scan(&total); err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return total, nil
}

func (r *aiUsageRepository) ListByCompanyID(ctx context.Context, companyID int64, from, to time.Time) ([]*models.AiUsage, error) {
	query := `
		SELECT id, company_id, user_id, provider, model, type, usage_date,
			tokens_used, cost_micros, request_count
		FROM ai_usage
		WHERE company_id = $1 AND usage_date BETWEEN $2 AND $3
		ORDER BY usage_date DESC
	`

	rows, err := r.db.QueryContext(ctx, query, companyID, from, to)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var usages []*models.AiUsage
	for rows.Next() {
		var u models.AiUsage
		err := rows.Scan(&u.ID, &u.CompanyID, &u.UserID, &u.Provider, &u.Model, &u.Type,
			&u.UsageDate, &u.TokensUsed, &u.CostMicros, &u.RequestCount)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		usages = append(usages, &u)
	}
	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return usages, nil
}
