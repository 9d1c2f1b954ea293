// Account HTTP handlers.
//
// This file exposes the authentication endpoints:
//   - POST /signup   (create account)
//   - POST /login    (verify credentials)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses.
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kuberai/go-gold-backend/internal/domain"
	"github.com/kuberai/go-gold-backend/internal/services"
)

// AuthService defines the account operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type AuthService interface {
	// Signup creates a new account with a hashed password.
	Signup(ctx context.Context, email, name, password string) (*domain.User, error)
	// Login verifies the credentials and returns the account.
	Login(ctx context.Context, email, password string) (*domain.User, error)
}

// SignupRequest is the JSON payload for creating an account.
type SignupRequest struct {
	Email    string `json:"email" binding:"required,email" example:"priya@example.com"`
	Password string `json:"password" binding:"required,min=1" example:"s3cret"`
	Name     string `json:"name" binding:"required,min=1" example:"Priya"`
}

// LoginRequest is the JSON payload for verifying credentials.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email" example:"priya@example.com"`
	Password string `json:"password" binding:"required" example:"s3cret"`
}

// LoginResponse echoes the account details clients need after login.
type LoginResponse struct {
	Message     string  `json:"message"`
	Name        string  `json:"name"`
	GoldBalance float64 `json:"goldBalance"`
	Email       string  `json:"email"`
}

// Signup creates an account. All three fields are required; a duplicate email
// is a 400 with a stable code so clients can branch on it.
func (h *Handlers) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "All fields are required")
		return
	}

	if _, err := h.authSvc.Signup(c.Request.Context(), req.Email, req.Name, req.Password); err != nil {
		if errors.Is(err, services.ErrEmailTaken) {
			fail(c, http.StatusBadRequest, ErrCodeSignupFailed, "Email already exists")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}

	ok(c, http.StatusOK, gin.H{"message": "Account created successfully"})
}

// Login verifies credentials and returns the profile summary. Unknown email
// and wrong password are indistinguishable 401s.
func (h *Handlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	u, err := h.authSvc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "Invalid email or password")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}

	ok(c, http.StatusOK, LoginResponse{
		Message:     "Login successful",
		Name:        u.Name,
		GoldBalance: roundGrams(u.GoldBalance),
		Email:       u.Email,
	})
}
