package services

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/kuberai/go-gold-backend/internal/domain"
	"github.com/kuberai/go-gold-backend/internal/repo"
)

// fixedOracle always quotes the same per-gram price.
type fixedOracle struct{ price float64 }

func (f fixedOracle) PricePerGram(context.Context) float64 { return f.price }

// fakePurchaseRepo tracks one user's balance and ledger in memory.
type fakePurchaseRepo struct {
	email   string
	balance float64
	ledger  []domain.Investment

	recordErr error
}

func (f *fakePurchaseRepo) GetUser(_ context.Context, _ *gorm.DB, email string) (*domain.User, error) {
	if email != f.email {
		return nil, repo.ErrNotFound
	}
	return &domain.User{Email: email, Name: "Tester", GoldBalance: f.balance}, nil
}

func (f *fakePurchaseRepo) RecordPurchase(_ context.Context, _ *gorm.DB, email string, amount, pricePerGram, grams float64) (*domain.Investment, float64, error) {
	if f.recordErr != nil {
		return nil, 0, f.recordErr
	}
	if email != f.email {
		return nil, 0, repo.ErrNotFound
	}
	f.balance += grams
	inv := domain.Investment{
		ID:           "inv-1",
		UserEmail:    email,
		Amount:       amount,
		PricePerGram: pricePerGram,
		Grams:        grams,
		Date:         time.Now().UTC(),
	}
	f.ledger = append(f.ledger, inv)
	return &inv, f.balance, nil
}

func (f *fakePurchaseRepo) CountInvestments(_ context.Context, _ *gorm.DB, email string) (int64, error) {
	if email != f.email {
		return 0, nil
	}
	return int64(len(f.ledger)), nil
}

func (f *fakePurchaseRepo) ListInvestmentsPage(_ context.Context, _ *gorm.DB, email string, offset, limit int) ([]domain.Investment, error) {
	if email != f.email || offset >= len(f.ledger) {
		return []domain.Investment{}, nil
	}
	end := offset + limit
	if end > len(f.ledger) {
		end = len(f.ledger)
	}
	return f.ledger[offset:end], nil
}

func TestPurchase(t *testing.T) {
	fr := &fakePurchaseRepo{email: "a@b.c", balance: 0.05}
	s := NewPurchaseService(nil, fr, fixedOracle{price: 5000})

	res, err := s.Purchase(context.Background(), "A@B.C", 1000)
	if err != nil {
		t.Fatalf("Purchase: %v", err)
	}
	if res.Investment.Grams != 0.2 {
		t.Fatalf("grams = %v, want 0.2", res.Investment.Grams)
	}
	if res.NewBalance != 0.25 {
		t.Fatalf("balance = %v, want 0.25", res.NewBalance)
	}
	if !strings.Contains(res.Message, "0.20000 g of gold at ₹5000/g") {
		t.Fatalf("message = %q", res.Message)
	}
	if !strings.Contains(res.Message, "balance is 0.25 g") {
		t.Fatalf("message = %q", res.Message)
	}
	if len(fr.ledger) != 1 || fr.ledger[0].Amount != 1000 || fr.ledger[0].PricePerGram != 5000 {
		t.Fatalf("ledger = %+v", fr.ledger)
	}
}

func TestPurchaseGramRounding(t *testing.T) {
	fr := &fakePurchaseRepo{email: "a@b.c"}
	s := NewPurchaseService(nil, fr, fixedOracle{price: 3000})

	res, err := s.Purchase(context.Background(), "a@b.c", 1000)
	if err != nil {
		t.Fatalf("Purchase: %v", err)
	}
	// 1000/3000 = 0.33333... rounded to five decimals.
	if res.Investment.Grams != 0.33333 {
		t.Fatalf("grams = %v, want 0.33333", res.Investment.Grams)
	}
}

func TestPurchaseInvalidAmount(t *testing.T) {
	s := NewPurchaseService(nil, &fakePurchaseRepo{email: "a@b.c"}, fixedOracle{price: 5000})
	ctx := context.Background()

	for _, amount := range []float64{0, -100, math.NaN(), math.Inf(1), math.Inf(-1)} {
		if _, err := s.Purchase(ctx, "a@b.c", amount); !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("Purchase(%v) err = %v, want ErrInvalidAmount", amount, err)
		}
	}
}

func TestPurchaseUnknownUser(t *testing.T) {
	s := NewPurchaseService(nil, &fakePurchaseRepo{email: "a@b.c"}, fixedOracle{price: 5000})
	if _, err := s.Purchase(context.Background(), "nobody@b.c", 100); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("Purchase err = %v, want ErrUserNotFound", err)
	}
}

func TestPurchaseRepoError(t *testing.T) {
	fr := &fakePurchaseRepo{email: "a@b.c", recordErr: errors.New("db down")}
	s := NewPurchaseService(nil, fr, fixedOracle{price: 5000})
	if _, err := s.Purchase(context.Background(), "a@b.c", 100); err == nil || errors.Is(err, ErrUserNotFound) {
		t.Fatalf("Purchase err = %v, want underlying repo error", err)
	}
}

func TestProfile(t *testing.T) {
	fr := &fakePurchaseRepo{email: "a@b.c", balance: 0.123456789}
	s := NewPurchaseService(nil, fr, fixedOracle{price: 5000})

	u, err := s.Profile(context.Background(), "a@b.c")
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if u.GoldBalance != 0.12346 {
		t.Fatalf("balance = %v, want rounded to five decimals", u.GoldBalance)
	}

	if _, err := s.Profile(context.Background(), "nobody@b.c"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("Profile err = %v, want ErrUserNotFound", err)
	}
}

func TestListInvestments(t *testing.T) {
	fr := &fakePurchaseRepo{email: "a@b.c"}
	s := NewPurchaseService(nil, fr, fixedOracle{price: 5000})
	ctx := context.Background()

	items, total, err := s.ListInvestments(ctx, "a@b.c", 1, 10)
	if err != nil {
		t.Fatalf("ListInvestments: %v", err)
	}
	if total != 0 || len(items) != 0 {
		t.Fatalf("empty ledger returned (%d, %d items)", total, len(items))
	}

	for i := 0; i < 5; i++ {
		if _, err := s.Purchase(ctx, "a@b.c", 100); err != nil {
			t.Fatalf("Purchase: %v", err)
		}
	}

	// Invalid paging falls back to defaults.
	items, total, err = s.ListInvestments(ctx, "a@b.c", 0, -1)
	if err != nil {
		t.Fatalf("ListInvestments: %v", err)
	}
	if total != 5 || len(items) != 5 {
		t.Fatalf("ListInvestments = (%d, %d items), want (5, 5)", total, len(items))
	}

	items, total, err = s.ListInvestments(ctx, "a@b.c", 2, 2)
	if err != nil {
		t.Fatalf("ListInvestments: %v", err)
	}
	if total != 5 || len(items) != 2 {
		t.Fatalf("page 2 = (%d, %d items), want (5, 2)", total, len(items))
	}
}
