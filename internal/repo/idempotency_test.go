package repo

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/kuberai/go-gold-backend/internal/domain"
)

func newIdemDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&domain.Idempotency{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func TestIdempotency_CreateAndGet(t *testing.T) {
	db := newIdemDB(t)
	ctx := context.Background()

	rec, err := CreateIdempotency(ctx, db, "a@x.com", "k1", 0.2, 5000, 0.2, time.Hour)
	if err != nil {
		t.Fatalf("CreateIdempotency: %v", err)
	}
	if rec.ID == "" || rec.Grams != 0.2 || rec.NewBalance != 0.2 {
		t.Fatalf("unexpected record: %+v", rec)
	}

	got, err := GetIdempotency(ctx, db, "a@x.com", "k1", time.Now().UTC())
	if err != nil {
		t.Fatalf("GetIdempotency: %v", err)
	}
	if got.PricePerGram != 5000 {
		t.Fatalf("round-trip mismatch: %+v", got)
	}
}

func TestIdempotency_Duplicate(t *testing.T) {
	db := newIdemDB(t)
	ctx := context.Background()

	if _, err := CreateIdempotency(ctx, db, "a@x.com", "k1", 0.2, 5000, 0.2, time.Hour); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, err := CreateIdempotency(ctx, db, "a@x.com", "k1", 0.3, 5000, 0.5, time.Hour); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	// Same key for another user is fine.
	if _, err := CreateIdempotency(ctx, db, "b@x.com", "k1", 0.1, 5000, 0.1, time.Hour); err != nil {
		t.Fatalf("other-user create: %v", err)
	}
}

func TestIdempotency_ExpiryAndEmptyEmail(t *testing.T) {
	db := newIdemDB(t)
	ctx := context.Background()

	if _, err := CreateIdempotency(ctx, db, "a@x.com", "k1", 0.2, 5000, 0.2, time.Millisecond); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := GetIdempotency(ctx, db, "a@x.com", "k1", time.Now().UTC().Add(time.Second)); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected expired record to be ErrNotFound, got %v", err)
	}
	if _, err := GetIdempotency(ctx, db, "   ", "k1", time.Now().UTC()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for blank email, got %v", err)
	}
}
