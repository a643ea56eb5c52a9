package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"expensetracker/internal/core"
)

func newTestAuth(t *testing.T) (*AuthService, *testEnv) {
	t.Helper()
	env := newTestEnv(t)
	auth := NewAuthService(env.repo, "test-secret", time.Hour)
	auth.now = func() time.Time { return testNow }
	return auth, env
}

func TestAuthService_RegisterAndLogin(t *testing.T) {
	auth, env := newTestAuth(t)
	ctx := context.Background()

	user, token, err := auth.Register(ctx, "  bob ", "correct horse")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if user.Username != "bob" {
		t.Errorf("Username = %q, want trimmed", user.Username)
	}
	if token == "" {
		t.Fatal("Register() returned an empty token")
	}

	claims, err := auth.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken() error = %v", err)
	}
	if claims.UserID != user.ID || claims.Username != "bob" {
		t.Errorf("claims = %+v", claims)
	}

	// New users start with the default category
	if _, err := env.repo.GetCategoryByName(ctx, user.ID, core.DefaultCategoryName); err != nil {
		t.Errorf("default category missing: %v", err)
	}

	if _, _, err := auth.Register(ctx, "bob", "another password"); !errors.Is(err, core.ErrDuplicateName) {
		t.Errorf("duplicate Register() error = %v, want ErrDuplicateName", err)
	}

	logged, _, err := auth.Login(ctx, "bob", "correct horse")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if logged.ID != user.ID {
		t.Errorf("Login() user = %d, want %d", logged.ID, user.ID)
	}

	tests := []struct {
		name     string
		username string
		password string
	}{
		{"wrong password", "bob", "wrong horse"},
		{"unknown user", "nobody", "correct horse"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := auth.Login(ctx, tt.username, tt.password); !errors.Is(err, ErrInvalidCredentials) {
				t.Errorf("Login() error = %v, want ErrInvalidCredentials", err)
			}
		})
	}
}

func TestAuthService_RegisterValidation(t *testing.T) {
	auth, _ := newTestAuth(t)

	tests := []struct {
		name     string
		username string
		password string
		wantErr  error
	}{
		{"short username", "ab", "long enough", ErrInvalidUsername},
		{"long username", strings.Repeat("x", 31), "long enough", ErrInvalidUsername},
		{"short password", "carol", "short", ErrWeakPassword},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := auth.Register(context.Background(), tt.username, tt.password); !errors.Is(err, tt.wantErr) {
				t.Errorf("Register() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestAuthService_ParseToken(t *testing.T) {
	auth, env := newTestAuth(t)

	valid, err := auth.IssueToken(env.user)
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}

	other := NewAuthService(env.repo, "other-secret", time.Hour)
	other.now = auth.now
	foreign, _ := other.IssueToken(env.user)

	expired := NewAuthService(env.repo, "test-secret", time.Minute)
	expired.now = func() time.Time { return testNow.Add(-time.Hour) }
	stale, _ := expired.IssueToken(env.user)

	noUser, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(testNow.Add(time.Hour))},
	}).SignedString([]byte("test-secret"))

	none, _ := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: env.user.ID}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)

	tests := []struct {
		name    string
		token   string
		wantErr bool
	}{
		{"valid", valid, false},
		{"wrong secret", foreign, true},
		{"expired", stale, true},
		{"missing user id", noUser, true},
		{"alg none", none, true},
		{"garbage", "not.a.token", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := auth.ParseToken(tt.token)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidToken) {
					t.Errorf("ParseToken() error = %v, want ErrInvalidToken", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseToken() error = %v", err)
			}
			if claims.UserID != env.user.ID {
				t.Errorf("UserID = %d, want %d", claims.UserID, env.user.ID)
			}
		})
	}
}
