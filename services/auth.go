package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"salesbackend/models"
	"salesbackend/store"
	"salesbackend/utils"
)

type AuthService struct {
	store      *store.Store
	tokens     *utils.TokenManager
	bcryptCost int
	now        func() time.Time
}

// NewAuthService builds the service; a bcryptCost of 0 uses bcrypt's default.
func NewAuthService(s *store.Store, tokens *utils.TokenManager, bcryptCost int) *AuthService {
	return &AuthService{store: s, tokens: tokens, bcryptCost: bcryptCost, now: time.Now}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthService) Register(ctx context.Context, input models.RegisterInput) error {
	input.Username = strings.TrimSpace(input.Username)
	input.Email = normalizeEmail(input.Email)
	if input.Username == "" || input.Email == "" || input.Password == "" {
		return newError(ErrValidation, "username, email, and password required")
	}

	hash, err := utils.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return err
	}

	user := &models.User{
		ID:        uuid.NewString(),
		Username:  input.Username,
		Email:     input.Email,
		Password:  hash,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.Users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return newError(ErrConflict, "User already exists")
		}
		return err
	}

	log.Printf("User %s registered", user.ID)
	return nil
}

// Login checks the credentials and opens a session for the refresh token.
func (s *AuthService) Login(ctx context.Context, input models.LoginInput, ip, device string) (*models.LoginResult, error) {
	email := normalizeEmail(input.Email)
	if email == "" || input.Password == "" {
		return nil, newError(ErrValidation, "email and password required")
	}

	user, err := s.store.Users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, newError(ErrNotFound, "User does not exist")
		}
		return nil, err
	}
	if err := utils.VerifyPassword(user.Password, input.Password); err != nil {
		return nil, newError(ErrUnauthorized, "Invalid credentials")
	}

	access, err := s.tokens.GenerateAccessToken(user.ID)
	if err != nil {
		return nil, err
	}
	refresh, jti, err := s.tokens.GenerateRefreshToken(user.ID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	session := &models.Session{
		ID:        jti,
		UserID:    user.ID,
		IP:        ip,
		Device:    device,
		CreatedAt: now,
		ExpiresAt: now.Add(s.tokens.RefreshTTL()),
	}
	if err := s.store.Sessions.CreateSession(ctx, session); err != nil {
		return nil, err
	}

	return &models.LoginResult{
		AccessToken:  access,
		RefreshToken: refresh,
		User:         models.UserInfo{Username: user.Username, Email: user.Email},
	}, nil
}

// Refresh issues a new access token for a refresh token whose session is
// still open.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.session(ctx, refreshToken)
	if err != nil {
		return "", err
	}
	return s.tokens.GenerateAccessToken(claims.UserID)
}

// Logout closes the session behind the refresh token.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	claims, err := s.session(ctx, refreshToken)
	if err != nil {
		return err
	}
	if err := s.store.Sessions.DeleteSession(ctx, claims.Id); err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}
	return nil
}

func (s *AuthService) session(ctx context.Context, refreshToken string) (*utils.JWTClaim, error) {
	claims, err := s.tokens.ValidateToken(refreshToken, utils.RefreshToken)
	if err != nil {
		return nil, newError(ErrUnauthorized, "Invalid refresh token")
	}

	session, err := s.store.Sessions.GetSession(ctx, claims.Id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, newError(ErrUnauthorized, "Session has been revoked")
		}
		return nil, err
	}
	if session.UserID != claims.UserID || s.now().After(session.ExpiresAt) {
		return nil, newError(ErrUnauthorized, "Session has been revoked")
	}
	return claims, nil
}
