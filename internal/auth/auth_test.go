package auth

import (
	"errors"
	"testing"
	"time"
)

func testService(t *testing.T) *Service {
	t.Helper()
	pm := NewPasswordManager(4)
	hash, err := pm.HashPassword("correct-horse-battery")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	return NewService(Config{
		Enabled:           true,
		JWTSecret:         "test-secret",
		OperatorUsername:  "operator",
		OperatorPasswordH: hash,
	})
}

func TestLoginIssuesValidToken(t *testing.T) {
	svc := testService(t)

	pair, err := svc.Login("operator", "correct-horse-battery")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if pair.TokenType != "Bearer" || pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatalf("incomplete token pair: %+v", pair)
	}

	claims, err := svc.JWT().ValidateAccessToken(pair.AccessToken)
	if err != nil {
		t.Fatalf("token validation failed: %v", err)
	}
	if claims.Username != "operator" || claims.Role != "operator" {
		t.Errorf("unexpected claims: %+v", claims)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc := testService(t)

	if _, err := svc.Login("operator", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password should fail, got %v", err)
	}
	if _, err := svc.Login("intruder", "correct-horse-battery"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown user should fail, got %v", err)
	}
}

func TestValidateRejectsTamperedToken(t *testing.T) {
	svc := testService(t)

	pair, err := svc.Login("operator", "correct-horse-battery")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	other := NewJWTManager("different-secret", time.Hour, time.Hour)
	if _, err := other.ValidateAccessToken(pair.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("token signed with another secret should be invalid, got %v", err)
	}

	if _, err := svc.JWT().ValidateAccessToken(pair.AccessToken + "x"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("tampered token should be invalid, got %v", err)
	}
}
