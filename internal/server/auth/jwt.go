// Package auth issues and checks administrator credentials: bcrypt password
// hashes and HS256 access tokens.
package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/latecheck/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims carries the administrator identity inside an access token.
type Claims struct {
	jwt.RegisteredClaims
	AdminID  string `json:"aid"`
	Username string `json:"usr"`
	Role     string `json:"role"`
}

func GenerateToken(adminID, username, role string, secretKey []byte, validityDuration time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   adminID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validityDuration)),
		},
		AdminID:  adminID,
		Username: username,
		Role:     role,
	})

	return token.SignedString(secretKey)
}

// ParseToken validates the signature and expiry. Expired tokens yield
// common.ErrTokenExpired, anything else unusable common.ErrInvalidToken.
func ParseToken(tokenString string, secretKey []byte) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}

	if !token.Valid || claims.AdminID == "" {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
