// Package auth issues and verifies the JWT session tokens. Access tokens live
// 15 minutes, refresh tokens 7 days; both are HS256. A refresh exchange rotates
// the pair, and refresh tokens are only ever stored as bcrypt hashes.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Principal types carried in the token's "type" claim.
const (
	PrincipalCompany = "company"
	PrincipalUser    = "user"
)

// Fixed token lifetimes.
const (
	AccessTokenTTL  = 15 * time.Minute
	RefreshTokenTTL = 7 * 24 * time.Hour
)

// ErrInvalidToken covers expired, malformed, or wrongly-signed tokens.
var ErrInvalidToken = errors.New("invalid token")

// Claims is the verified content of a session token.
type Claims struct {
	SubjectID     string
	Email         string
	PrincipalType string
}

// TokenManager signs and verifies token pairs with separate secrets.
type TokenManager struct {
	AccessSecret  []byte
	RefreshSecret []byte
}

// NewTokenManager returns a TokenManager for the two signing secrets.
func NewTokenManager(accessSecret, refreshSecret string) *TokenManager {
	return &TokenManager{
		AccessSecret:  []byte(accessSecret),
		RefreshSecret: []byte(refreshSecret),
	}
}

// TokenPair is one issued access/refresh pair.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

func sign(secret []byte, subjectID, email, principalType string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   subjectID,
		"email": email,
		"type":  principalType,
		"iat":   now.Unix(),
		"exp":   now.Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// IssuePair signs a fresh access/refresh pair for the principal.
func (m *TokenManager) IssuePair(subjectID, email, principalType string) (*TokenPair, error) {
	access, err := sign(m.AccessSecret, subjectID, email, principalType, AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	refresh, err := sign(m.RefreshSecret, subjectID, email, principalType, RefreshTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func verify(secret []byte, tokenStr string) (*Claims, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	mc, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	sub, _ := mc["sub"].(string)
	email, _ := mc["email"].(string)
	typ, _ := mc["type"].(string)
	if sub == "" || typ == "" {
		return nil, ErrInvalidToken
	}
	return &Claims{SubjectID: sub, Email: email, PrincipalType: typ}, nil
}

// VerifyAccess validates an access token and returns its claims.
func (m *TokenManager) VerifyAccess(tokenStr string) (*Claims, error) {
	return verify(m.AccessSecret, tokenStr)
}

// VerifyRefresh validates a refresh token and returns its claims.
func (m *TokenManager) VerifyRefresh(tokenStr string) (*Claims, error) {
	return verify(m.RefreshSecret, tokenStr)
}
