package utils

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
)

func TestTokenManagerRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", time.Minute, time.Hour)

	access, err := tm.GenerateAccessToken("u1")
	if err != nil {
		t.Fatal(err)
	}
	claims, err := tm.ValidateToken(access, AccessToken)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.UserID != "u1" {
		t.Errorf("UserID = %q", claims.UserID)
	}

	refresh, jti, err := tm.GenerateRefreshToken("u1")
	if err != nil {
		t.Fatal(err)
	}
	claims, err = tm.ValidateToken(refresh, RefreshToken)
	if err != nil {
		t.Fatalf("ValidateToken(refresh): %v", err)
	}
	if claims.Id != jti || jti == "" {
		t.Errorf("jti = %q, claims.Id = %q", jti, claims.Id)
	}
}

func TestTokenManagerRejects(t *testing.T) {
	tm := NewTokenManager("secret", time.Minute, time.Hour)
	refresh, _, _ := tm.GenerateRefreshToken("u1")

	if _, err := tm.ValidateToken(refresh, AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("refresh token accepted as access token: %v", err)
	}

	other := NewTokenManager("other", time.Minute, time.Hour)
	access, _ := other.GenerateAccessToken("u1")
	if _, err := tm.ValidateToken(access, AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("foreign signature accepted: %v", err)
	}

	expired := NewTokenManager("secret", time.Minute, time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Minute) }
	old, _ := expired.GenerateAccessToken("u1")
	if _, err := tm.ValidateToken(old, AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expired token accepted: %v", err)
	}

	if _, err := tm.ValidateToken("garbage", AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("garbage accepted: %v", err)
	}
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("s3cret", bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	if hash == "s3cret" {
		t.Fatal("password stored in clear")
	}
	if err := VerifyPassword(hash, "s3cret"); err != nil {
		t.Errorf("VerifyPassword(correct) = %v", err)
	}
	if err := VerifyPassword(hash, "wrong"); err == nil {
		t.Error("VerifyPassword(wrong) = nil")
	}
}

func TestMoney(t *testing.T) {
	if got := ToFloat(LineAmount(0.1, 3)); got != 0.3 {
		t.Errorf("LineAmount(0.1, 3) = %v, want 0.3", got)
	}
	if got := ToFloat(LineProfit(6, 10, 3)); got != 12 {
		t.Errorf("LineProfit(6, 10, 3) = %v, want 12", got)
	}
	if got := ToFloat(LineProfit(10, 6, 2)); got != -8 {
		t.Errorf("LineProfit(10, 6, 2) = %v, want -8", got)
	}
	if got := ToFloat(StockValue(2.5, 4)); got != 10 {
		t.Errorf("StockValue(2.5, 4) = %v, want 10", got)
	}
}

func TestValidationMessage(t *testing.T) {
	type input struct {
		ItemName string  `validate:"required"`
		BuyPrice float64 `validate:"gte=0"`
		Email    string  `validate:"email"`
	}
	err := validator.New().Struct(input{BuyPrice: -1, Email: "nope"})
	msg := ValidationMessage(err)
	for _, want := range []string{"Missing required field: item_name", "buy_price must be >= 0", "email must be a valid email"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message %q does not contain %q", msg, want)
		}
	}
	if got := ValidationMessage(errors.New("EOF")); got != "Invalid request body" {
		t.Errorf("fallback message = %q", got)
	}
}

func TestResizeImage(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 1600, 400))
	for x := 0; x < 1600; x++ {
		src.Set(x, x%400, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, src); err != nil {
		t.Fatal(err)
	}

	out, err := ResizeImage(&buf, "image/png")
	if err != nil {
		t.Fatalf("ResizeImage: %v", err)
	}
	img, err := jpeg.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("output is not JPEG: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 800 || b.Dy() != 200 {
		t.Errorf("resized to %dx%d, want 800x200", b.Dx(), b.Dy())
	}

	if _, err := ResizeImage(strings.NewReader("x"), "image/gif"); !errors.Is(err, ErrUnsupportedImage) {
		t.Errorf("gif err = %v", err)
	}
}

func TestResizeImageKeepsSmallWidth(t *testing.T) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, image.NewGray(image.Rect(0, 0, 120, 80)), nil); err != nil {
		t.Fatal(err)
	}
	out, err := ResizeImage(&buf, "image/jpeg")
	if err != nil {
		t.Fatal(err)
	}
	img, _ := jpeg.Decode(bytes.NewReader(out))
	if b := img.Bounds(); b.Dx() != 120 || b.Dy() != 80 {
		t.Errorf("got %dx%d, want 120x80", b.Dx(), b.Dy())
	}
}

func TestPhotoObjectName(t *testing.T) {
	got := PhotoObjectName("p1", time.Unix(1700000000, 0))
	if got != "products/p1_1700000000.jpg" {
		t.Errorf("PhotoObjectName = %q", got)
	}
}
