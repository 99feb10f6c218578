package models

import (
	"errors"
	"time"
)

type OwnershipType string

const (
	OwnershipUser    OwnershipType = "user"
	OwnershipCompany OwnershipType = "company"
)

type AccountStatus string

const (
	AccountStatusActive       AccountStatus = "active"
	AccountStatusExpired      AccountStatus = "expired"
	AccountStatusError        AccountStatus = "error"
	AccountStatusDisconnected AccountStatus = "disconnected"
)

// InstagramAccount holds a connected Instagram business account and its
// encrypted long-lived access token. Exactly one of UserID/CompanyID is set,
// discriminated by OwnershipType.
type InstagramAccount struct {
	ID             int64         `db:"id" json:"id"`
	OwnershipType  OwnershipType `db:"ownership_type" json:"ownership_type"`
	UserID         *int64        `db:"user_id" json:"user_id"`
	CompanyID      *int64        `db:"company_id" json:"company_id"`
	IgUserID       string        `db:"ig_user_id" json:"ig_user_id"`
	Username       string        `db:"username" json:"username"`
	Name           string        `db:"name" json:"name"`
	ProfilePicture string        `db:"profile_picture_url" json:"profile_picture"`
	AccessToken    string        `db:"access_token" json:"-"`
	TokenExpiresAt time.Time     `db:"token_expires_at" json:"token_expires_at"`
	Status         AccountStatus `db:"status" json:"status"`
	CreatedAt      time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time     `db:"updated_at" json:"updated_at"`
}

var ErrInvalidOwnership = errors.New("instagram account must be owned by exactly one of user or company")

// ValidateOwnership enforces the XOR between user and company ownership.
func (a *InstagramAccount) ValidateOwnership() error {
	switch a.OwnershipType {
	case OwnershipUser:
		if a.UserID == nil || a.CompanyID != nil {
			return ErrInvalidOwnership
		}
	case OwnershipCompany:
		if a.CompanyID == nil || a.UserID != nil {
			return ErrInvalidOwnership
		}
	default:
		return ErrInvalidOwnership
	}
	return nil
}

// AccountUser is a share grant on an account for a non-owning user.
type AccountUser struct {
	AccountID  int64     `db:"account_id" json:"account_id"`
	UserID     int64     `db:"user_id" json:"user_id"`
	Permission string    `db:"permission" json:"permission"` // view, post, manage
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
