package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"salesbackend/cache"
	"salesbackend/models"
	"salesbackend/store"
	"salesbackend/utils"
)

func newAuth(t *testing.T) (*AuthService, *store.Store, *utils.TokenManager) {
	t.Helper()
	s := store.NewMemoryStore()
	tokens := utils.NewTokenManager("test-secret", time.Minute, time.Hour)
	return NewAuthService(s, tokens, bcrypt.MinCost), s, tokens
}

func register(t *testing.T, svc *AuthService, email string) {
	t.Helper()
	err := svc.Register(context.Background(), models.RegisterInput{Username: "ana", Email: email, Password: "pw"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	svc, s, tokens := newAuth(t)
	register(t, svc, "Ana@Example.com")

	user, err := s.Users.GetUserByEmail(ctx, "ana@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if user.Password == "pw" {
		t.Fatal("password stored in clear")
	}

	res, err := svc.Login(ctx, models.LoginInput{Email: "ana@example.com", Password: "pw"}, "10.0.0.1", "test")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if res.User.Username != "ana" || res.User.Email != "ana@example.com" {
		t.Errorf("user = %+v", res.User)
	}
	claims, err := tokens.ValidateToken(res.AccessToken, utils.AccessToken)
	if err != nil || claims.UserID != user.ID {
		t.Errorf("access token claims = %+v, %v", claims, err)
	}
	refresh, err := tokens.ValidateToken(res.RefreshToken, utils.RefreshToken)
	if err != nil {
		t.Fatal(err)
	}
	session, err := s.Sessions.GetSession(ctx, refresh.Id)
	if err != nil || session.IP != "10.0.0.1" || session.UserID != user.ID {
		t.Errorf("session = %+v, %v", session, err)
	}
}

func TestRegisterDuplicate(t *testing.T) {
	svc, _, _ := newAuth(t)
	register(t, svc, "ana@example.com")

	err := svc.Register(context.Background(), models.RegisterInput{Username: "x", Email: "ANA@example.com", Password: "y"})
	if !errors.Is(err, ErrConflict) || Message(err) != "User already exists" {
		t.Fatalf("err = %v", err)
	}
}

func TestLoginFailures(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newAuth(t)
	register(t, svc, "ana@example.com")

	if _, err := svc.Login(ctx, models.LoginInput{Email: "bo@example.com", Password: "pw"}, "", ""); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown email err = %v, want ErrNotFound", err)
	}
	if _, err := svc.Login(ctx, models.LoginInput{Email: "ana@example.com", Password: "bad"}, "", ""); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("wrong password err = %v, want ErrUnauthorized", err)
	}
	if _, err := svc.Login(ctx, models.LoginInput{Email: "ana@example.com"}, "", ""); !errors.Is(err, ErrValidation) {
		t.Errorf("missing password err = %v, want ErrValidation", err)
	}
}

func TestRefreshAndLogout(t *testing.T) {
	ctx := context.Background()
	svc, _, tokens := newAuth(t)
	register(t, svc, "ana@example.com")
	res, err := svc.Login(ctx, models.LoginInput{Email: "ana@example.com", Password: "pw"}, "", "")
	if err != nil {
		t.Fatal(err)
	}

	access, err := svc.Refresh(ctx, res.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if _, err := tokens.ValidateToken(access, utils.AccessToken); err != nil {
		t.Errorf("refreshed token invalid: %v", err)
	}

	if _, err := svc.Refresh(ctx, res.AccessToken); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("access token used as refresh: %v", err)
	}

	if err := svc.Logout(ctx, res.RefreshToken); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, err := svc.Refresh(ctx, res.RefreshToken); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("refresh after logout err = %v, want ErrUnauthorized", err)
	}
}

func TestProfile(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	c := cache.NewMemory(time.Minute)
	svc := NewProfileService(s, c)
	_ = s.Users.CreateUser(ctx, &models.User{ID: "u1", Email: "a@b.c"})

	if _, err := svc.GetProfile(ctx, "u1"); !errors.Is(err, ErrNotFound) || Message(err) != "No profile found" {
		t.Fatalf("empty profile err = %v", err)
	}
	if _, err := svc.UpdateProfile(ctx, "u1", models.UpdateProfile{}); !errors.Is(err, ErrValidation) {
		t.Errorf("empty update err = %v", err)
	}

	if _, err := svc.UpdateProfile(ctx, "u1", models.UpdateProfile{BusinessName: strPtr("Corner Shop"), GSTNumber: strPtr("GST1")}); err != nil {
		t.Fatal(err)
	}
	got, err := svc.GetProfile(ctx, "u1")
	if err != nil || got.BusinessName != "Corner Shop" {
		t.Fatalf("GetProfile = %+v, %v", got, err)
	}

	merged, err := svc.UpdateProfile(ctx, "u1", models.UpdateProfile{OwnerName: strPtr("Ana")})
	if err != nil {
		t.Fatal(err)
	}
	if merged.BusinessName != "Corner Shop" || merged.GSTNumber != "GST1" || merged.OwnerName != "Ana" {
		t.Errorf("merge lost fields: %+v", merged)
	}
	got, _ = svc.GetProfile(ctx, "u1")
	if got.OwnerName != "Ana" {
		t.Errorf("cached profile not invalidated: %+v", got)
	}
}
