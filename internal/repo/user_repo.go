// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the User and
// Investment models.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition — with one deliberate exception:
// RecordPurchase wraps the balance update and the history append in a single
// transaction so the ledger invariant (balance == sum of grams) can never be
// observed broken, even across a crash.
//
// Error semantics:
//   - When a user is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kuberai/go-gold-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// CreateUser inserts a new user row with a zero gold balance. The email must
// be unique; a duplicate insert returns ErrDuplicate.
func CreateUser(ctx context.Context, db *gorm.DB, email, name, passwordHash string) (*domain.User, error) {
	u := &domain.User{
		Email:        email,
		Name:         name,
		PasswordHash: passwordHash,
		GoldBalance:  0,
		CreatedAt:    time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(u).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return u, nil
}

// GetUser fetches a user by email. If the record does not exist, it returns
// ErrNotFound. On other DB errors, the raw error is returned.
func GetUser(ctx context.Context, db *gorm.DB, email string) (*domain.User, error) {
	var u domain.User
	if err := db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// RecordPurchase atomically credits grams to the user's balance and appends
// the matching investment row. Both writes happen inside one transaction so
// balance and history stay mutually consistent.
//
// Returns the created investment and the post-purchase balance, or
// ErrNotFound when the user does not exist (nothing is written in that case).
func RecordPurchase(ctx context.Context, db *gorm.DB, email string, amount, pricePerGram, grams float64) (*domain.Investment, float64, error) {
	var (
		inv        *domain.Investment
		newBalance float64
	)
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var u domain.User
		if err := tx.Where("email = ?", email).First(&u).Error; err != nil {
			return err
		}
		newBalance = u.GoldBalance + grams

		if err := tx.Model(&domain.User{}).
			Where("email = ?", email).
			Update("gold_balance", newBalance).Error; err != nil {
			return err
		}

		inv = &domain.Investment{
			ID:           uuid.NewString(),
			UserEmail:    email,
			Amount:       amount,
			PricePerGram: pricePerGram,
			Grams:        grams,
			Date:         time.Now().UTC(),
		}
		return tx.Create(inv).Error
	})
	if err != nil {
		return nil, 0, err
	}
	return inv, newBalance, nil
}

// CountInvestments returns the total number of investment rows for the user.
func CountInvestments(ctx context.Context, db *gorm.DB, email string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Investment{}).
		Where("user_email = ?", email).
		Count(&total).Error
	return total, err
}

// ListInvestmentsPage returns a paginated slice of the user's investments,
// most recent first. Use CountInvestments to obtain the total for pagination
// metadata.
//
// The caller is responsible for computing offset and limit (e.g., (page-1)*pageSize).
func ListInvestmentsPage(ctx context.Context, db *gorm.DB, email string, offset, limit int) ([]domain.Investment, error) {
	var out []domain.Investment
	err := db.WithContext(ctx).
		Where("user_email = ?", email).
		Order("date DESC, id ASC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}
