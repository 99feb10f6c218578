package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/ankitjain28/gramflow/internal/models"
)

type BudgetRepository interface {
	GetByCompanyID(ctx context.Context, companyID int64) (*models.AiBudgetSettings, bool, error)
	Upsert(ctx context.Context, settings *models.AiBudgetSettings) error
}

type budgetRepository struct {
	db *sql.DB
}

func NewBudgetRepository(db *sql.DB) BudgetRepository {
	return &budgetRepository{db: db}
}

func (r *budgetRepository) GetByCompanyID(ctx context.Context, companyID int64) (*models.AiBudgetSettings, bool, error) {
	query := `
		SELECT id, company_id, daily_limit_micros, monthly_limit_micros, created_at, updated_at
		FROM ai_budget_settings
		WHERE company_id = $1
	`

	var s models.AiBudgetSettings
	err := r.db.QueryRowContext(ctx, query, companyID).Scan(&s.ID, &s.CompanyID,
		&s.DailyLimitMicros, &s.MonthlyLimitMicros, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		slog.Info(err.Error())
		return nil, false, err
	}
	return &s, true, nil
}

func (r *budgetRepository) Upsert(ctx context.Context, settings *models.AiBudgetSettings) error {
	query := `
		INSERT INTO ai_budget_settings (company_id, daily_limit_micros, monthly_limit_micros)
		VALUES ($1, $2, $3)
		ON CONFLICT (company_id)
		DO UPDATE SET
			daily_limit_micros = EXCLUDED.daily_limit_micros,
			monthly_limit_micros = EXCLUDED.monthly_limit_micros,
			updated_at = CURRENT_TIMESTAMP
	`
	_, err := r.db.ExecContext(ctx, query, settings.CompanyID,
		settings.DailyLimitMicros, settings.MonthlyLimitMicros)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
