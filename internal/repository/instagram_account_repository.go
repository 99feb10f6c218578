package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/ankitjain28/gramflow/internal/models"
)

type InstagramAccountRepository interface {
	Create(ctx context.Context, tx *sql.Tx, acc *models.InstagramAccount) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.InstagramAccount, error)
	ListByCompanyID(ctx context.Context, companyID int64) ([]*models.InstagramAccount, error)
	ListAccessibleByUserID(ctx context.Context, userID int64) ([]*models.InstagramAccount, error)
	ListExpiring(ctx context.Context, before time.Time) ([]*models.InstagramAccount, error)
	UpdateToken(ctx context.Context, id int64, accessToken string, expiresAt time.Time) error
	UpdateStatus(ctx context.Context, status models.AccountStatus, id int64) error
	UpdateProfile(ctx context.Context, id int64, username, name, profilePicture string) error
}

type instagramAccountRepository struct {
	db *sql.DB
}

func NewInstagramAccountRepository(db *sql.DB) InstagramAccountRepository {
	return &instagramAccountRepository{db: db}
}

const accountColumns = `id, ownership_type, user_id, company_id, ig_user_id, username,
	name, profile_picture_url, access_token, token_expires_at, status, created_at, updated_at`

func scanAccount(row interface{ Scan(...interface{}) error }) (*models.InstagramAccount, error) {
	var acc models.InstagramAccount
	err := row.Scan(&acc.ID, &acc.OwnershipType, &acc.UserID, &acc.CompanyID, &acc.IgUserID,
		&acc.Username, &acc.Name, &acc.ProfilePicture, &acc.AccessToken, &acc.TokenExpiresAt,
		&acc.Status, &acc.CreatedAt, &acc.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &acc, nil
}

func (r *instagramAccountRepository) Create(ctx context.Context, tx *sql.Tx, acc *models.InstagramAccount) (int64, error) {
	if err := acc.ValidateOwnership(); err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	query := `
		INSERT INTO instagram_accounts (ownership_type, user_id, company_id, ig_user_id,
			username, name, profile_picture_url, access_token, token_expires_at, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`

	var id int64
	var err error

	args := []interface{}{acc.OwnershipType, acc.UserID, acc.CompanyID, acc.IgUserID,
		acc.Username, acc.Name, acc.ProfilePicture, acc.AccessToken, acc.TokenExpiresAt, acc.Status}

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

func (r *instagramAccountRepository) GetByID(ctx context.Context, id int64) (*models.InstagramAccount, error) {
	query := `SELECT ` + accountColumns + ` FROM instagram_accounts WHERE id = $1`
	acc, err := scanAccount(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return acc, nil
}

func (r *instagramAccountRepository) ListByCompanyID(ctx context.Context, companyID int64) ([]*models.InstagramAccount, error) {
	query := `SELECT ` + accountColumns + ` FROM instagram_accounts WHERE company_id = $1`
	return r.list(ctx, query, companyID)
}

// ListAccessibleByUserID returns accounts the user owns plus accounts shared
// with them through instagram_account_user grants.
func (r *instagramAccountRepository) ListAccessibleByUserID(ctx context.Context, userID int64) ([]*models.InstagramAccount, error) {
	query := `
		SELECT ` + accountColumns + ` FROM instagram_accounts WHERE user_id = $1
		UNION
		SELECT a.id, a.ownership_type, a.user_id, a.company_id, a.ig_user_id, a.username,
			a.name, a.profile_picture_url, a.access_token, a.token_expires_at, a.status,
			a.created_at, a.updated_at
		FROM instagram_accounts a
		JOIN instagram_account_user au ON au.account_id = a.id
		WHERE au.user_id = $1
	`
	return r.list(ctx, query, userID)
}

// ListExpiring returns active accounts whose token expires before the given
// time. Already refreshed accounts fall outside the horizon, which keeps the
// refresh job idempotent.
func (r *instagramAccountRepository) ListExpiring(ctx context.Context, before time.Time) ([]*models.InstagramAccount, error) {
	query := `SELECT ` + accountColumns + ` FROM instagram_accounts
		WHERE status = $1 AND token_expires_at <= $2`

	rows, err := r.db.QueryContext(ctx, query, models.AccountStatusActive, before)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()
	return collectAccounts(rows)
}

func (r *instagramAccountRepository) list(ctx context.Context, query string, args ...interface{}) ([]*models.InstagramAccount, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()
	return collectAccounts(rows)
}

func collectAccounts(rows *sql.Rows) ([]*models.InstagramAccount, error) {
	var accounts []*models.InstagramAccount
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		accounts = append(accounts, acc)
	}
	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return accounts, nil
}

func (r *instagramAccountRepository) UpdateToken(ctx context.Context, id int64, accessToken string, expiresAt time.Time) error {
	query := `
		UPDATE instagram_accounts
		SET access_token = $1,
			token_expires_at = $2,
			status = $3,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $4
	`
	_, err := r.db.ExecContext(ctx, query, accessToken, expiresAt, models.AccountStatusActive, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *instagramAccountRepository) UpdateStatus(ctx context.Context, status models.AccountStatus, id int64) error {
	query := `UPDATE instagram_accounts SET status = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`
	_, err := r.db.ExecContext(ctx, query, status, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *instagramAccountRepository) UpdateProfile(ctx context.Context, id int64, username, name, profilePicture string) error {
	query := `
		UPDATE instagram_accounts
		SET username = $1, name = $2, profile_picture_url = $3, updated_at = CURRENT_TIMESTAMP
		WHERE id = $4
	`
	_, err := r.db.ExecContext(ctx, query, username, name, profilePicture, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
