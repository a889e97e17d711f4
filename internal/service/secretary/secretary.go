// Package secretary provides session credential issuing and verification.
package secretary

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"

	"github.com/savlev/go-savings/internal/config"
	"github.com/savlev/go-savings/internal/models/modelclaims"
)

// TokenTTL bounds the validity window of every issued session credential.
const TokenTTL = 24 * time.Hour

// Secretary issues and validates signed session tokens.
type Secretary struct {
	key []byte
}

// NewSecretaryService initializes a secretary service.
func NewSecretaryService(c *config.SecretConfig) (*Secretary, error) {
	if c.SecretKey == "" {
		return nil, errors.New("refusing to sign tokens with an empty secret key")
	}
	return &Secretary{key: []byte(c.SecretKey)}, nil
}

// NewToken issues a signed token encoding the user identity and role.
func (s *Secretary) NewToken(userID, email, role string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &modelclaims.SessionClaims{
		UserID: userID,
		Email:  email,
		Role:   role,
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(TokenTTL).Unix(),
		},
	})
	return token.SignedString(s.key)
}

// ValidateToken checks the signature and expiry of an access token and returns
// its claims. Verification is pure computation and never touches storage.
func (s *Secretary) ValidateToken(accessToken string) (*modelclaims.SessionClaims, error) {
	token, err := jwt.ParseWithClaims(accessToken, &modelclaims.SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.key, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*modelclaims.SessionClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid access token")
	}
	if claims.UserID == "" || claims.Email == "" || claims.Role == "" || claims.ExpiresAt == 0 {
		return nil, errors.New("access token misses required claims")
	}
	return claims, nil
}
