// Package services – PurchaseService
//
// This file implements PurchaseService, which turns a rupee amount into gold
// grams at the current spot price and records the purchase atomically
// (balance update plus ledger row in one transaction). Prices come from an
// injected oracle that always yields a usable price, so a purchase never
// fails because the feed is down.
package services

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"

	"github.com/kuberai/go-gold-backend/internal/domain"
	"github.com/kuberai/go-gold-backend/internal/repo"
	"github.com/kuberai/go-gold-backend/internal/utils"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// gramPrecision is the decimal precision of gram quantities in responses and
// the ledger.
const gramPrecision = 5

var (
	// purchasesTotal counts completed gold purchases.
	purchasesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gold_purchases_total",
		Help: "Total number of completed gold purchases.",
	})

	// purchasedGrams accumulates the grams of gold sold.
	purchasedGrams = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gold_purchased_grams_total",
		Help: "Total grams of gold sold across all purchases.",
	})
)

func init() {
	prometheus.MustRegister(purchasesTotal, purchasedGrams)
}

// PriceOracle supplies the current gold price in INR per gram.
type PriceOracle interface {
	PricePerGram(ctx context.Context) float64
}

// PurchaseRepo defines the repository contract required by PurchaseService.
type PurchaseRepo interface {
	// GetUser fetches an account by email.
	GetUser(ctx context.Context, db *gorm.DB, email string) (*domain.User, error)

	// RecordPurchase atomically credits grams to the user's balance and
	// appends the ledger row, returning the row and the new balance.
	RecordPurchase(ctx context.Context, db *gorm.DB, email string, amount, pricePerGram, grams float64) (*domain.Investment, float64, error)

	// CountInvestments returns the total number of ledger rows for pagination.
	CountInvestments(ctx context.Context, db *gorm.DB, email string) (int64, error)

	// ListInvestmentsPage returns a page of ledger rows, newest first.
	ListInvestmentsPage(ctx context.Context, db *gorm.DB, email string, offset, limit int) ([]domain.Investment, error)
}

// PurchaseResult is the outcome of a successful purchase.
type PurchaseResult struct {
	// Message is the user-facing confirmation text.
	Message string
	// Investment is the persisted ledger row.
	Investment *domain.Investment
	// NewBalance is the user's gold balance after the purchase, rounded to
	// gram precision.
	NewBalance float64
}

// PurchaseService converts rupee amounts to gold and maintains the ledger.
type PurchaseService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the purchase repository used by this service.
	Repo PurchaseRepo
	// Oracle supplies the spot price.
	Oracle PriceOracle
}

// NewPurchaseService constructs a PurchaseService.
func NewPurchaseService(db *gorm.DB, r PurchaseRepo, oracle PriceOracle) *PurchaseService {
	return &PurchaseService{DB: db, Repo: r, Oracle: oracle}
}

// Purchase buys amount rupees worth of gold for the given user. The gram
// quantity is amount divided by the current per-gram price, rounded to five
// decimals; balance credit and ledger append happen in one transaction.
func (s *PurchaseService) Purchase(ctx context.Context, email string, amount float64) (*PurchaseResult, error) {
	tr := otel.Tracer("services/PurchaseService")
	ctx, span := tr.Start(ctx, "Purchase",
		trace.WithAttributes(attribute.Float64("purchase.amount", amount)),
	)
	defer span.End()

	if amount <= 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return nil, ErrInvalidAmount
	}

	price := s.Oracle.PricePerGram(ctx)
	grams := utils.RoundTo(amount/price, gramPrecision)

	inv, newBalance, err := s.Repo.RecordPurchase(ctx, s.DB, normalizeEmail(email), amount, price, grams)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	purchasesTotal.Inc()
	purchasedGrams.Add(grams)

	rounded := utils.RoundTo(newBalance, gramPrecision)
	span.SetAttributes(
		attribute.Float64("purchase.grams", grams),
		attribute.Float64("purchase.price_per_gram", price),
	)

	return &PurchaseResult{
		Message:    PurchaseMessage(grams, price, rounded),
		Investment: inv,
		NewBalance: rounded,
	}, nil
}

// PurchaseMessage formats the user-facing purchase confirmation. It is also
// used to rebuild the message when an idempotent replay is served from the
// stored outcome.
func PurchaseMessage(grams, pricePerGram, newBalance float64) string {
	return fmt.Sprintf(
		"🎉 Success! You’ve purchased %.5f g of gold at ₹%g/g.\n✨ Your updated balance is %g g. Keep growing your golden savings! 🌟",
		grams, pricePerGram, utils.RoundTo(newBalance, gramPrecision),
	)
}

// SpotPrice returns the oracle's current INR price per gram.
func (s *PurchaseService) SpotPrice(ctx context.Context) float64 {
	return s.Oracle.PricePerGram(ctx)
}

// Profile returns the account for email with its balance rounded to gram
// precision for display.
func (s *PurchaseService) Profile(ctx context.Context, email string) (*domain.User, error) {
	u, err := s.Repo.GetUser(ctx, s.DB, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	u.GoldBalance = utils.RoundTo(u.GoldBalance, gramPrecision)
	return u, nil
}

// ListInvestments returns a page of the user's ledger, newest first. It
// applies defaults for invalid page/pageSize and returns the total count.
func (s *PurchaseService) ListInvestments(ctx context.Context, email string, page, pageSize int) ([]domain.Investment, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize
	email = normalizeEmail(email)

	total, err := s.Repo.CountInvestments(ctx, s.DB, email)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Investment{}, 0, nil
	}

	items, err := s.Repo.ListInvestmentsPage(ctx, s.DB, email, offset, pageSize)
	return items, total, err
}
