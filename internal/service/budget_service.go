package service

import (
	"context"

	config "github.com/ankitjain28/gramflow/configs"
	"github.com/ankitjain28/gramflow/internal/models"
	"github.com/ankitjain28/gramflow/internal/repository"
)

type BudgetService interface {
	Info(ctx context.Context, companyID int64) (*models.AiBudgetSettings, error)
	Update(ctx context.Context, companyID, dailyLimitMicros, monthlyLimitMicros int64) error
}

type budgetService struct {
	cfg config.Config
	br  repository.BudgetRepository
}

func NewBudgetService(cfg config.Config, br repository.BudgetRepository) BudgetService {
	return &budgetService{cfg: cfg, br: br}
}

// Info returns the company's budget settings, falling back to the configured
// defaults when the company has never set its own.
func (s *budgetService) Info(ctx context.Context, companyID int64) (*models.AiBudgetSettings, error) {
	settings, found, err := s.br.GetByCompanyID(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if !found {
		return &models.AiBudgetSettings{
			CompanyID:          companyID,
			DailyLimitMicros:   s.cfg.Budget.DailyLimitMicros,
			MonthlyLimitMicros: s.cfg.Budget.MonthlyLimitMicros,
		}, nil
	}
	return settings, nil
}

func (s *budgetService) Update(ctx context.Context, companyID, dailyLimitMicros, monthlyLimitMicros int64) error {
	if dailyLimitMicros < 0 || monthlyLimitMicros < 0 {
		return validationError("budget limits cannot be negative")
	}
	return s.br.Upsert(ctx, &models.AiBudgetSettings{
		CompanyID:          companyID,
		DailyLimitMicros:   dailyLimitMicros,
		MonthlyLimitMicros: monthlyLimitMicros,
	})
}
