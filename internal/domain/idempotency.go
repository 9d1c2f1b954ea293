// Package domain defines the core persistence models for the application.
// These types are used by GORM for database schema mapping and are shared
// across the repository and service layers.
package domain

import "time"

// Idempotency records the outcome of a completed gold purchase, keyed by
// (user_email, key). It enables safe retries of POST /purchase-gold: a replay
// within the TTL window returns the originally produced result without
// touching the ledger again.
type Idempotency struct {
	ID           string    `gorm:"type:TEXT NOT NULL;primaryKey"`
	UserEmail    string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_user_key,priority:1"`
	Key          string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_user_key,priority:2"`
	Grams        float64   `gorm:"type:REAL NOT NULL"`
	PricePerGram float64   `gorm:"type:REAL NOT NULL"`
	NewBalance   float64   `gorm:"type:REAL NOT NULL"`
	CreatedAt    time.Time `gorm:"type:DATETIME NOT NULL;autoCreateTime"`
	ExpiresAt    time.Time `gorm:"type:DATETIME NOT NULL;index"`
}

// TableName implements the GORM tabler interface.
func (Idempotency) TableName() string { return "idempotency" }
