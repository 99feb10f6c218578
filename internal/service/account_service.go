package service

import (
	"context"
	"fmt"
	"log/slog"

	config "github.com/ankitjain28/gramflow/configs"
	"github.com/ankitjain28/gramflow/internal/models"
	"github.com/ankitjain28/gramflow/internal/repository"
	"github.com/ankitjain28/gramflow/pkg/utils"
)

type AccountService interface {
	AuthURL(state string) string
	Connect(ctx context.Context, userID, companyID int64, code string, ownership models.OwnershipType) (*models.InstagramAccount, error)
	Disconnect(ctx context.Context, companyID, accountID int64) error
	SyncProfile(ctx context.Context, companyID, accountID int64) error
	List(ctx context.Context, companyID int64) ([]*models.InstagramAccount, error)
	ListAccessible(ctx context.Context, userID int64) ([]*models.InstagramAccount, error)
}

type accountService struct {
	cfg       config.Config
	ar        repository.InstagramAccountRepository
	instagram InstagramService
}

func NewAccountService(
	cfg config.Config,
	ar repository.InstagramAccountRepository,
	instagram InstagramService) AccountService {
	return &accountService{
		cfg:       cfg,
		ar:        ar,
		instagram: instagram,
	}
}

func (s *accountService) AuthURL(state string) string {
	return s.instagram.AuthURL(state)
}

// Connect exchanges an authorization code, fetches the profile, and stores
// the account with its token encrypted at rest.
func (s *accountService) Connect(ctx context.Context, userID, companyID int64, code string, ownership models.OwnershipType) (*models.InstagramAccount, error) {
	if code == "" {
		return nil, validationError("authorization code is missing")
	}

	token, err := s.instagram.ExchangeCode(ctx, code)
	if err != nil {
		return nil, err
	}

	userInfo, err := s.instagram.GetUserInfo(ctx, token.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch instagram profile: %w", err)
	}

	encrypted, err := utils.Encrypt([]byte(token.AccessToken), []byte(s.cfg.SecretKey))
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt access token: %w", err)
	}

	account := &models.InstagramAccount{
		OwnershipType:  ownership,
		IgUserID:       userInfo.UserID,
		Username:       userInfo.Username,
		Name:           userInfo.Name,
		ProfilePicture: userInfo.ProfilePicture,
		AccessToken:    encrypted,
		TokenExpiresAt: token.ExpiresAt,
		Status:         models.AccountStatusActive,
	}
	switch ownership {
	case models.OwnershipUser:
		account.UserID = &userID
	case models.OwnershipCompany:
		account.CompanyID = &companyID
	}

	id, err := s.ar.Create(ctx, nil, account)
	if err != nil {
		return nil, err
	}
	account.ID = id

	slog.Info("instagram account connected", "account_id", id, "username", account.Username)
	return account, nil
}

// Disconnect marks the account disconnected. The row stays so historical
// posts keep their account reference.
func (s *accountService) Disconnect(ctx context.Context, companyID, accountID int64) error {
	if _, err := s.ownedAccount(ctx, companyID, accountID); err != nil {
		return err
	}
	return s.ar.UpdateStatus(ctx, models.AccountStatusDisconnected, accountID)
}

// SyncProfile refreshes the cached username, name and avatar from the graph.
// A failure flips the account into error state so the UI can surface it.
func (s *accountService) SyncProfile(ctx context.Context, companyID, accountID int64) error {
	account, err := s.ownedAccount(ctx, companyID, accountID)
	if err != nil {
		return err
	}

	accessToken, err := utils.Decrypt(account.AccessToken, []byte(s.cfg.SecretKey))
	if err != nil {
		return fmt.Errorf("failed to decrypt access token: %w", err)
	}

	userInfo, err := s.instagram.GetUserInfo(ctx, accessToken)
	if err != nil {
		if serr := s.ar.UpdateStatus(ctx, models.AccountStatusError, accountID); serr != nil {
			slog.Error("failed to mark account errored", "account_id", accountID, "error", serr)
		}
		return err
	}

	return s.ar.UpdateProfile(ctx, accountID, userInfo.Username, userInfo.Name, userInfo.ProfilePicture)
}

func (s *accountService) List(ctx context.Context, companyID int64) ([]*models.InstagramAccount, error) {
	return s.ar.ListByCompanyID(ctx, companyID)
}

func (s *accountService) ListAccessible(ctx context.Context, userID int64) ([]*models.InstagramAccount, error) {
	return s.ar.ListAccessibleByUserID(ctx, userID)
}

func (s *accountService) ownedAccount(ctx context.Context, companyID, accountID int64) (*models.InstagramAccount, error) {
	account, err := s.ar.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, validationError("instagram account doesn't exist")
	}
	if account.OwnershipType == models.OwnershipCompany && (account.CompanyID == nil || *account.CompanyID != companyID) {
		return nil, validationError("instagram account doesn't exist")
	}
	return account, nil
}
