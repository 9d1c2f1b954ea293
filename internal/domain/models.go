// Package domain defines the persistence models for users and their gold
// investments. These types are mapped with GORM and form the core data layer
// of the assistant backend.
package domain

import (
	"time"

	"gorm.io/gorm"
)

// User represents a registered account. The email address is the natural key
// used across the API, the session store, and the ledger.
//
// Fields:
//   - Email: unique account identifier (primary key).
//   - Name: display name shown in the chat UI.
//   - PasswordHash: bcrypt hash of the signup password; never serialized.
//   - GoldBalance: accumulated gold holdings in grams (non-negative). Mutated
//     only by the purchase operation, always together with an Investment row.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
//   - DeletedAt: soft deletion marker (accounts are never deleted in practice).
type User struct {
	Email        string         `json:"email"       gorm:"type:varchar(255);primaryKey"`
	Name         string         `json:"name"        gorm:"type:varchar(255);not null"`
	PasswordHash string         `json:"-"           gorm:"type:varchar(128);not null"`
	GoldBalance  float64        `json:"goldBalance" gorm:"not null;default:0;check:gold_balance >= 0"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-"           gorm:"index"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// Investment is a single executed gold purchase. Rows are append-only and
// immutable once written; the owning user's GoldBalance always equals the sum
// of Grams across their investments (enforced by writing both in one
// transaction).
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - UserEmail: foreign key to the owning user (indexed).
//   - Amount: money spent, in currency units (> 0).
//   - PricePerGram: gold price at execution time.
//   - Grams: amount / price, rounded to 5 decimal places.
//   - Date: execution timestamp (UTC).
type Investment struct {
	ID           string         `json:"id"           gorm:"type:char(36);primaryKey"`
	UserEmail    string         `json:"-"            gorm:"type:varchar(255);not null;index:idx_user_investments"`
	Amount       float64        `json:"amount"       gorm:"not null;check:amount > 0"`
	PricePerGram float64        `json:"pricePerGram" gorm:"not null"`
	Grams        float64        `json:"grams"        gorm:"not null"`
	Date         time.Time      `json:"date"`
	CreatedAt    time.Time      `json:"-"`
	DeletedAt    gorm.DeletedAt `json:"-"            gorm:"index"`

	// User is the owning account. Investments are cascade-deleted if the
	// account row is ever removed.
	User User `json:"-" gorm:"foreignKey:UserEmail;references:Email;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Investment.
func (Investment) TableName() string { return "investments" }
