package transfer

import "github.com/golang-jwt/jwt/v5"

type CustomClaims struct {
	UserID    string `json:"user_id"`
	CompanyID string `json:"company_id"`
	jwt.RegisteredClaims
}
