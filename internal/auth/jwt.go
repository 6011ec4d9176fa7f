package auth

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/golang-jwt/jwt/v5"
)

var (
	jwtSecret   []byte
	jwtLifetime = 24 * time.Hour
)

// InitJWT initializes the JWT secret and token lifetime
func InitJWT(secret string, lifetime time.Duration) {
	jwtSecret = []byte(secret)
	if lifetime > 0 {
		jwtLifetime = lifetime
	}
}

// Claims represents the JWT claims
type Claims struct {
	Address string `json:"address"`
	jwt.RegisteredClaims
}

// GenerateToken generates a new JWT token for a wallet address
func GenerateToken(address common.Address) (string, error) {
	if len(jwtSecret) == 0 {
		return "", fmt.Errorf("JWT secret not initialized")
	}

	now := time.Now()
	claims := &Claims{
		Address: address.Hex(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   address.Hex(),
			ExpiresAt: jwt.NewNumericDate(now.Add(jwtLifetime)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// ValidateToken validates a JWT token and returns the claims
func ValidateToken(tokenString string) (*Claims, error) {
	if len(jwtSecret) == 0 {
		return nil, fmt.Errorf("JWT secret not initialized")
	}

	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return jwtSecret, nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	if !common.IsHexAddress(claims.Address) {
		return nil, fmt.Errorf("invalid address claim")
	}

	return claims, nil
}
