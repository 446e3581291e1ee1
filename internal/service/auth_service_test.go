package service

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/primepath/primepath-backend/internal/config"
)

func testAuthService() *AuthService {
	return NewAuthService(&config.Config{
		JWTSecret:  "test-secret",
		JWTExpiry:  time.Hour,
		BcryptCost: 4,
	}, nil)
}

func TestTeacherTokenRoundTrip(t *testing.T) {
	s := testAuthService()

	token, err := s.GenerateTeacherToken(7, 2, []string{"exams:read", "exams:write"})
	if err != nil {
		t.Fatalf("GenerateTeacherToken: %v", err)
	}
	claims, err := s.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.TokenType != TokenTypeTeacher || claims.UserID != 7 || claims.RoleID != 2 {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if claims.Subject != "7" || claims.ID == "" {
		t.Fatalf("registered claims not set: %+v", claims.RegisteredClaims)
	}
	if len(claims.Permissions) != 2 {
		t.Fatalf("permissions = %v", claims.Permissions)
	}
}

func TestValidateTokenRejectsForeignSecret(t *testing.T) {
	s := testAuthService()
	other := NewAuthService(&config.Config{JWTSecret: "other", JWTExpiry: time.Hour}, nil)

	token, err := other.GenerateTeacherToken(1, 1, nil)
	if err != nil {
		t.Fatalf("GenerateTeacherToken: %v", err)
	}
	if _, err := s.ValidateToken(token); err == nil {
		t.Fatal("token signed with another secret should be rejected")
	}
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	s := testAuthService()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
		TokenType: TokenTypeTeacher,
		UserID:    1,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	_, err = s.ValidateToken(token)
	if !errors.Is(err, jwt.ErrTokenExpired) {
		t.Fatalf("ValidateToken err = %v, want ErrTokenExpired", err)
	}
}

func TestPasswordHashing(t *testing.T) {
	s := testAuthService()
	hash, err := s.HashPassword("s3cret-pass")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if err := s.CheckPassword(hash, "s3cret-pass"); err != nil {
		t.Fatalf("CheckPassword(correct) = %v", err)
	}
	if err := s.CheckPassword(hash, "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("CheckPassword(wrong) = %v", err)
	}
	if err := s.CheckPassword("", "anything"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("CheckPassword(empty hash) = %v", err)
	}
}
