package utils

import (
	"errors"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ConsoleClaims are the claims carried by seller-console JWTs issued by the
// account service. This API only validates them.
type ConsoleClaims struct {
	TenantID int64  `json:"tenantId"`
	Email    string `json:"email"`
	jwt.RegisteredClaims
}

// GenerateJWT issues a console token for a tenant. Used by tooling and tests;
// the account service is the normal issuer.
func GenerateJWT(tenantID int64, email string) (string, error) {
	claims := ConsoleClaims{
		TenantID: tenantID,
		Email:    email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtSecret())
}

// ValidateJWT parses and validates a console token.
func ValidateJWT(tokenString string) (*ConsoleClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &ConsoleClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return jwtSecret(), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*ConsoleClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

func jwtSecret() []byte {
	return []byte(os.Getenv("JWT_SECRET"))
}
