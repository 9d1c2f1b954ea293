// Gold purchase HTTP handlers.
//
// This file exposes the gold endpoints:
//   - POST /purchase-gold   (buy gold for a rupee amount)
//   - GET  /gold-price      (current spot price per gram)
//   - GET  /user            (profile with gold balance)
//   - GET  /investments     (purchase ledger, paginated)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses. Purchase supports idempotent
// replays via the Idempotency-Key header: a replayed request returns the
// stored outcome without touching the ledger again.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kuberai/go-gold-backend/internal/domain"
	"github.com/kuberai/go-gold-backend/internal/http/middleware"
	"github.com/kuberai/go-gold-backend/internal/services"
	"github.com/kuberai/go-gold-backend/internal/utils"
)

// GoldService defines the purchase and profile operations consumed by HTTP
// handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type GoldService interface {
	// Purchase buys amount rupees worth of gold for the user.
	Purchase(ctx context.Context, email string, amount float64) (*services.PurchaseResult, error)
	// Profile returns the account with a display-rounded balance.
	Profile(ctx context.Context, email string) (*domain.User, error)
	// ListInvestments returns a page of the user's ledger and the total count.
	ListInvestments(ctx context.Context, email string, page, pageSize int) ([]domain.Investment, int64, error)
	// SpotPrice returns the current INR price per gram.
	SpotPrice(ctx context.Context) float64
}

// PurchaseReplay persists and retrieves idempotent purchase outcomes keyed by
// (email, Idempotency-Key).
type PurchaseReplay interface {
	// Get returns the stored outcome for the key, if one exists and has not
	// expired at now.
	Get(ctx context.Context, email, key string, now time.Time) (*domain.Idempotency, error)
	// Put stores the outcome of a completed purchase under the key.
	Put(ctx context.Context, email, key string, grams, pricePerGram, newBalance float64) error
}

// PurchaseGoldRequest is the JSON payload for buying gold.
type PurchaseGoldRequest struct {
	Email  string  `json:"email" binding:"required,email" example:"priya@example.com"`
	Amount float64 `json:"amount" binding:"required" example:"1000"`
}

// PurchaseGoldResponse confirms a purchase (or replays a stored one).
type PurchaseGoldResponse struct {
	Message            string  `json:"message"`
	UpdatedGoldBalance float64 `json:"updatedGoldBalance"`
}

// UserResponse is the profile summary returned by GET /user.
type UserResponse struct {
	Name        string  `json:"name"`
	Email       string  `json:"email"`
	GoldBalance float64 `json:"goldBalance"`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListInvestmentsResponse wraps a page of ledger rows and pagination info.
type ListInvestmentsResponse struct {
	Investments []domain.Investment `json:"investments"`
	Pagination  Pagination          `json:"pagination"`
}

// roundGrams rounds a gram quantity to the display precision used across
// all responses.
func roundGrams(g float64) float64 { return utils.RoundTo(g, 5) }

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}

// PurchaseGold buys gold worth the given rupee amount at the current spot
// price. With an Idempotency-Key header, a repeated request returns the
// originally stored outcome instead of buying again.
func (h *Handlers) PurchaseGold(c *gin.Context) {
	var req PurchaseGoldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "Invalid input")
		return
	}
	ctx := c.Request.Context()

	key, hasKey := middleware.GetIdempotencyKey(c)
	if hasKey && h.replayFn != nil {
		if rec, err := h.replayFn.Get(ctx, req.Email, key, time.Now().UTC()); err == nil {
			ok(c, http.StatusOK, PurchaseGoldResponse{
				Message:            services.PurchaseMessage(rec.Grams, rec.PricePerGram, rec.NewBalance),
				UpdatedGoldBalance: rec.NewBalance,
			})
			return
		}
	}

	res, err := h.goldSvc.Purchase(ctx, req.Email, req.Amount)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidAmount):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "Invalid input")
		case errors.Is(err, services.ErrUserNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "User not found")
		default:
			fail(c, http.StatusInternalServerError, ErrCodePurchaseFailed, err.Error())
		}
		return
	}

	if hasKey && h.replayFn != nil {
		// Best effort: a failed store only disables the replay.
		_ = h.replayFn.Put(ctx, req.Email, key, res.Investment.Grams, res.Investment.PricePerGram, res.NewBalance)
	}

	ok(c, http.StatusOK, PurchaseGoldResponse{
		Message:            res.Message,
		UpdatedGoldBalance: res.NewBalance,
	})
}

// GoldPrice returns the current spot price per gram. The oracle masks feed
// failures with a fallback price, so this endpoint always succeeds.
func (h *Handlers) GoldPrice(c *gin.Context) {
	ok(c, http.StatusOK, gin.H{"pricePerGram": h.goldSvc.SpotPrice(c.Request.Context())})
}

// GetUser returns the profile for the email given as a query parameter.
func (h *Handlers) GetUser(c *gin.Context) {
	email := c.Query("email")
	if email == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "email required")
		return
	}

	u, err := h.goldSvc.Profile(c.Request.Context(), email)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "User not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}

	ok(c, http.StatusOK, UserResponse{
		Name:        u.Name,
		Email:       u.Email,
		GoldBalance: roundGrams(u.GoldBalance),
	})
}

// ListInvestments returns the user's purchase ledger, newest first.
func (h *Handlers) ListInvestments(c *gin.Context) {
	email := c.Query("email")
	if email == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "email required")
		return
	}
	ctx := c.Request.Context()

	if _, err := h.goldSvc.Profile(ctx, email); err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "User not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}

	page, pageSize := clampPagination(c)
	items, total, err := h.goldSvc.ListInvestments(ctx, email, page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	ok(c, http.StatusOK, ListInvestmentsResponse{
		Investments: items,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	})
}
