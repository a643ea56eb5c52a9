package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"expensetracker/internal/core"
	"expensetracker/internal/storage"
)

const (
	minUsernameLength = 3
	maxUsernameLength = 30
	minPasswordLength = 8
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidUsername    = errors.New("username must be between 3 and 30 characters")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
	ErrInvalidToken       = errors.New("invalid token")
)

// Claims identify the user behind an API token.
type Claims struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// AuthService registers users and issues HS256 tokens.
type AuthService struct {
	storage *storage.SQLiteRepository
	secret  []byte
	ttl     time.Duration
	now     func() time.Time
}

func NewAuthService(storage *storage.SQLiteRepository, secret string, ttl time.Duration) *AuthService {
	return &AuthService{
		storage: storage,
		secret:  []byte(secret),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Register creates the user with its default category and returns a token.
func (s *AuthService) Register(ctx context.Context, username, password string) (core.User, string, error) {
	username = strings.TrimSpace(username)
	if n := len(username); n < minUsernameLength || n > maxUsernameLength {
		return core.User{}, "", ErrInvalidUsername
	}
	if len(password) < minPasswordLength {
		return core.User{}, "", ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return core.User{}, "", fmt.Errorf("hash password: %w", err)
	}

	user, err := s.storage.CreateUser(ctx, username, hash)
	if err != nil {
		return core.User{}, "", err
	}

	token, err := s.IssueToken(user)
	if err != nil {
		return core.User{}, "", err
	}
	return user, token, nil
}

// Login checks the password and returns a fresh token. Unknown users and wrong
// passwords yield the same error.
func (s *AuthService) Login(ctx context.Context, username, password string) (core.User, string, error) {
	user, err := s.storage.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.User{}, "", ErrInvalidCredentials
		}
		return core.User{}, "", err
	}
	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		return core.User{}, "", ErrInvalidCredentials
	}

	token, err := s.IssueToken(user)
	if err != nil {
		return core.User{}, "", err
	}
	return user, token, nil
}

func (s *AuthService) IssueToken(user core.User) (string, error) {
	now := s.now()
	claims := Claims{
		UserID:   user.ID,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", user.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

// ParseToken validates signature and expiry and returns the claims.
func (s *AuthService) ParseToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.UserID <= 0 {
		return nil, fmt.Errorf("%w: missing user_id", ErrInvalidToken)
	}
	return claims, nil
}
