// Package services – AuthService
//
// This file implements AuthService, which owns account creation and password
// verification. Passwords are hashed with bcrypt before they reach the
// repository; plaintext never touches storage or logs. Login failures are
// reported with a single error value regardless of whether the email or the
// password was wrong, so the API cannot be used to probe for accounts.
package services

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/kuberai/go-gold-backend/internal/domain"
	"github.com/kuberai/go-gold-backend/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// UserRepo defines the repository contract required by AuthService.
type UserRepo interface {
	// CreateUser inserts a new account row.
	CreateUser(ctx context.Context, db *gorm.DB, email, name, passwordHash string) (*domain.User, error)

	// GetUser fetches an account by email.
	GetUser(ctx context.Context, db *gorm.DB, email string) (*domain.User, error)
}

// AuthService provides signup and login on top of bcrypt-hashed credentials.
type AuthService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the user repository used by this service.
	Repo UserRepo

	// BcryptCost overrides bcrypt.DefaultCost when > 0; tests lower it to
	// keep hashing fast.
	BcryptCost int
}

// NewAuthService constructs an AuthService with the default bcrypt cost.
func NewAuthService(db *gorm.DB, r UserRepo) *AuthService {
	return &AuthService{DB: db, Repo: r}
}

// Signup creates a new account. Email is normalized to lowercase so lookups
// are case-insensitive; a duplicate email yields ErrEmailTaken.
func (s *AuthService) Signup(ctx context.Context, email, name, password string) (*domain.User, error) {
	tr := otel.Tracer("services/AuthService")
	ctx, span := tr.Start(ctx, "Signup")
	defer span.End()

	email = normalizeEmail(email)

	if _, err := s.Repo.GetUser(ctx, s.DB, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost())
	if err != nil {
		return nil, err
	}

	u, err := s.Repo.CreateUser(ctx, s.DB, email, strings.TrimSpace(name), string(hash))
	if err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return u, nil
}

// Login verifies the credentials and returns the account on success. Unknown
// email and wrong password both return ErrInvalidCredentials; the bcrypt
// comparison runs in either case so the two are not distinguishable by
// response timing.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, error) {
	tr := otel.Tracer("services/AuthService")
	ctx, span := tr.Start(ctx, "Login",
		trace.WithAttributes(attribute.Bool("auth.login", true)),
	)
	defer span.End()

	email = normalizeEmail(email)

	u, err := s.Repo.GetUser(ctx, s.DB, email)
	if err != nil {
		// Burn a comparison against a fixed hash of the empty string.
		bcrypt.CompareHashAndPassword(emptyPasswordHash, []byte(password))
		return nil, ErrInvalidCredentials
	}

	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

func (s *AuthService) cost() int {
	if s.BcryptCost > 0 {
		return s.BcryptCost
	}
	return bcrypt.DefaultCost
}

// normalizeEmail lowercases and trims an email for storage and lookup.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// emptyPasswordHash is a valid bcrypt hash of "" used to equalize the cost of
// login attempts against unknown emails.
var emptyPasswordHash = func() []byte {
	h, err := bcrypt.GenerateFromPassword(nil, bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	return h
}()
