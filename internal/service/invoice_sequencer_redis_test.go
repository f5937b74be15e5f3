package service

import (
	"context"
	"testing"
	"time"

	"go-healthcare-practice/internal/domain/entity"
	"go-healthcare-practice/internal/repository/fake"
	"go-healthcare-practice/pkg/apperror"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRedisSequencer(t *testing.T, repo *fake.BillingRepository) (*miniredis.Miniredis, InvoiceSequencer) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, NewRedisSequencer(client, nil, repo)
}

func TestRedisSequencer_SeedsFromStoreThenIncrements(t *testing.T) {
	repo := fake.NewBillingRepository(
		entity.Billing{InvoiceNumber: "INV-2603-0007"},
		entity.Billing{InvoiceNumber: "INV-2602-0099"},
	)
	mr, seq := newRedisSequencer(t, repo)
	ctx := context.Background()

	first, err := seq.Next(ctx, "INV-2603-")
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if first != "INV-2603-0008" {
		t.Fatalf("first = %q, want INV-2603-0008", first)
	}

	key := RedisInvoiceSeqKeyPrefix + "INV-2603-"
	if ttl := mr.TTL(key); ttl <= 0 || ttl > invoiceSeqTTL {
		t.Fatalf("counter ttl = %s, want (0, %s]", ttl, invoiceSeqTTL)
	}

	// The counter is authoritative once seeded, even if the store lags.
	repo.Err = context.DeadlineExceeded
	second, err := seq.Next(ctx, "INV-2603-")
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if second != "INV-2603-0009" {
		t.Fatalf("second = %q, want INV-2603-0009", second)
	}
}

func TestRedisSequencer_EmptyMonthStartsAtOne(t *testing.T) {
	_, seq := newRedisSequencer(t, fake.NewBillingRepository(entity.Billing{InvoiceNumber: "INV-2602-0050"}))

	got, err := seq.Next(context.Background(), "INV-2603-")
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if got != "INV-2603-0001" {
		t.Fatalf("got %q, want INV-2603-0001", got)
	}
}

func TestRedisSequencer_UsesExistingCounter(t *testing.T) {
	mr, seq := newRedisSequencer(t, fake.NewBillingRepository())
	key := RedisInvoiceSeqKeyPrefix + "INV-2603-"
	if err := mr.Set(key, "41"); err != nil {
		t.Fatalf("seed counter: %v", err)
	}
	mr.SetTTL(key, time.Hour)

	got, err := seq.Next(context.Background(), "INV-2603-")
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if got != "INV-2603-0042" {
		t.Fatalf("got %q, want INV-2603-0042", got)
	}
}

func TestRedisSequencer_RedisDown(t *testing.T) {
	mr, seq := newRedisSequencer(t, fake.NewBillingRepository())
	mr.SetError("ERR injected failure")

	_, err := seq.Next(context.Background(), "INV-2603-")
	if apperror.KindOf(err) != apperror.KindStoreUnavailable {
		t.Fatalf("expected a store-unavailable error, got %v", err)
	}
}
