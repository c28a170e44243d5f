package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var jwtSecret = []byte("change-me")

// SetJWTSecret replaces the signing key used by GenerateToken and ParseToken.
func SetJWTSecret(secret string) {
	if secret != "" {
		jwtSecret = []byte(secret)
	}
}

// CustomClaims is the session issued by the auth collaborator. The order core
// trusts it as-is.
type CustomClaims struct {
	TenantID string `json:"tenant_id"`
	StaffID  uint   `json:"staff_id"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

func GenerateToken(tenantID string, staffID uint, role string, ttl time.Duration) (string, error) {
	claims := &CustomClaims{
		TenantID: tenantID,
		StaffID:  staffID,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "RestaurantWebApp",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtSecret)
}

func ParseToken(tokenString string) (*CustomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, errors.New("invalid or expired token")
	}

	claims, ok := token.Claims.(*CustomClaims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}
	if claims.TenantID == "" || claims.Role == "" {
		return nil, errors.New("token carries no tenant or role")
	}
	return claims, nil
}
