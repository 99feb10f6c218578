package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/ankitjain28/gramflow/internal/models"
)

type AiGenerationRepository interface {
	Create(ctx context.Context, gen *models.AiGeneration) (int64, error)
	ListByCompanyID(ctx context.Context, companyID int64, limit int) ([]*models.AiGeneration, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type aiGenerationRepository struct {
	db *sql.DB
}

func NewAiGenerationRepository(db *sql.DB) AiGenerationRepository {
	return &aiGenerationRepository{db: db}
}

func (r *aiGenerationRepository) Create(ctx context.Context, gen *models.AiGeneration) (int64, error) {
	query := `
		INSERT INTO ai_generations (company_id, user_id, type, provider, model, prompt,
			result, tokens_used, cost_micros, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query, gen.CompanyID, gen.UserID, gen.Type,
		gen.Provider, gen.Model, gen.Prompt, gen.Result, gen.TokensUsed,
		gen.CostMicros, gen.Metadata).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return id, nil
}

func (r *aiGenerationRepository) ListByCompanyID(ctx context.Context, companyID int64, limit int) ([]*models.AiGeneration, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, company_id, user_id, type, provider, model, prompt, result,
			tokens_used, cost_micros, metadata, created_at
		FROM ai_generations
		WHERE company_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, companyID, limit)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var generations []*models.AiGeneration
	for rows.Next() {
		var g models.AiGeneration
		err := rows.Scan(&g.ID, &g.CompanyID, &g.UserID, &g.Type, &g.Provider, &g.Model,
			&g.Prompt, &g.Result, &g.TokensUsed, &g.CostMicros, &g.Metadata, &g.CreatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		generations = append(generations, &g)
	}
	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return generations, nil
}

func (r *aiGenerationRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `DELETE FROM ai_generations WHERE created_at < $1`
	result, err := r.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return deleted, nil
}
