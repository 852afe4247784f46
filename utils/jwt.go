package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
)

const (
	AccessToken  = "access"
	RefreshToken = "refresh"
)

var ErrInvalidToken = errors.New("invalid token")

type JWTClaim struct {
	UserID string `json:"sub_id"`
	Type   string `json:"type"`
	jwt.StandardClaims
}

// TokenManager signs and verifies HS256 tokens. Refresh tokens carry a jti
// that names the session backing them.
type TokenManager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewTokenManager(secret string, accessTTL, refreshTTL time.Duration) *TokenManager {
	return &TokenManager{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

func (m *TokenManager) RefreshTTL() time.Duration { return m.refreshTTL }

func (m *TokenManager) GenerateAccessToken(userID string) (string, error) {
	token, _, err := m.generate(userID, AccessToken, m.accessTTL)
	return token, err
}

// GenerateRefreshToken returns the signed token and its jti.
func (m *TokenManager) GenerateRefreshToken(userID string) (string, string, error) {
	return m.generate(userID, RefreshToken, m.refreshTTL)
}

func (m *TokenManager) generate(userID, tokenType string, ttl time.Duration) (string, string, error) {
	now := m.now()
	jti := uuid.NewString()
	claims := &JWTClaim{
		UserID: userID,
		Type:   tokenType,
		StandardClaims: jwt.StandardClaims{
			Id:        jti,
			Subject:   userID,
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(ttl).Unix(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", "", err
	}
	return signed, jti, nil
}

// ValidateToken checks the signature, expiry and token type.
func (m *TokenManager) ValidateToken(signedToken, wantType string) (*JWTClaim, error) {
	token, err := jwt.ParseWithClaims(
		signedToken,
		&JWTClaim{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
			}
			return m.secret, nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*JWTClaim)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Type != wantType || claims.UserID == "" {
		return nil, fmt.Errorf("%w: expected %s token", ErrInvalidToken, wantType)
	}
	return claims, nil
}
