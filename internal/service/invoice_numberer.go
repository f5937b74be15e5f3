package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go-healthcare-practice/internal/domain/repository"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	invoiceNumberPrefix = "INV"
	invoiceSeqWidth     = 4
)

// InvoicePrefix returns "INV-YYMM-" for t's calendar month in UTC.
func InvoicePrefix(t time.Time) string {
	t = t.UTC()
	return fmt.Sprintf("%s-%02d%02d-", invoiceNumberPrefix, t.Year()%100, int(t.Month()))
}

func FormatInvoiceNumber(prefix string, seq int) string {
	return fmt.Sprintf("%s%0*d", prefix, invoiceSeqWidth, seq)
}

// ParseInvoiceSequence reads the third hyphen-delimited segment.
func ParseInvoiceSequence(number string) (int, error) {
	parts := strings.Split(number, "-")
	if len(parts) != 3 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidInvoiceNumber, number)
	}
	seq, err := strconv.Atoi(parts[2])
	if err != nil || seq < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidInvoiceNumber, number)
	}
	return seq, nil
}

// NextInvoiceNumber follows highest, or starts at 0001 when highest is "".
func NextInvoiceNumber(prefix, highest string) (string, error) {
	if highest == "" {
		return FormatInvoiceNumber(prefix, 1), nil
	}
	seq, err := ParseInvoiceSequence(highest)
	if err != nil {
		return "", err
	}
	return FormatInvoiceNumber(prefix, seq+1), nil
}

// InvoiceSequencer hands out the next invoice number for a prefix. Numbers
// are not reserved: the unique index is the final arbiter and callers retry
// on repository.ErrDuplicateInvoiceNumber.
type InvoiceSequencer interface {
	Next(ctx context.Context, prefix string) (string, error)
}

type storeSequencer struct {
	db          *gorm.DB
	billingRepo repository.BillingRepository
}

// NewStoreSequencer derives the next number from the highest stored one.
func NewStoreSequencer(db *gorm.DB, billingRepo repository.BillingRepository) InvoiceSequencer {
	return &storeSequencer{db: db, billingRepo: billingRepo}
}

func (s *storeSequencer) Next(ctx context.Context, prefix string) (string, error) {
	highest, err := s.billingRepo.FindHighestInvoiceNumberWithPrefix(ctx, s.db, prefix)
	if err != nil {
		return "", storeError("find highest invoice number", err)
	}
	return NextInvoiceNumber(prefix, highest)
}

const (
	RedisInvoiceSeqKeyPrefix = "billing:invoice_seq:"

	// Long enough to outlive the month the key counts for.
	invoiceSeqTTL = 62 * 24 * time.Hour
)

// incrIfExistsScript returns -1 when the counter has not been seeded yet.
var incrIfExistsScript = redis.NewScript(`
	if redis.call('EXISTS', KEYS[1]) == 0 then
		return -1
	end
	return redis.call('INCR', KEYS[1])
`)

// seedAndIncrScript seeds the counter unless another replica already did,
// then increments it.
var seedAndIncrScript = redis.NewScript(`
	redis.call('SET', KEYS[1], ARGV[1], 'NX', 'EX', ARGV[2])
	return redis.call('INCR', KEYS[1])
`)

type redisSequencer struct {
	client *redis.Client
	store  *storeSequencer
}

// NewRedisSequencer counts with an atomic Redis INCR per prefix, seeded
// from the highest stored number the first time a month is seen.
func NewRedisSequencer(client *redis.Client, db *gorm.DB, billingRepo repository.BillingRepository) InvoiceSequencer {
	return &redisSequencer{
		client: client,
		store:  &storeSequencer{db: db, billingRepo: billingRepo},
	}
}

func (s *redisSequencer) Next(ctx context.Context, prefix string) (string, error) {
	key := RedisInvoiceSeqKeyPrefix + prefix

	seq, err := incrIfExistsScript.Run(ctx, s.client, []string{key}).Int()
	if err != nil {
		return "", storeError("increment invoice sequence", err)
	}
	if seq > 0 {
		return FormatInvoiceNumber(prefix, seq), nil
	}

	highest, err := s.store.billingRepo.FindHighestInvoiceNumberWithPrefix(ctx, s.store.db, prefix)
	if err != nil {
		return "", storeError("find highest invoice number", err)
	}
	seed := 0
	if highest != "" {
		if seed, err = ParseInvoiceSequence(highest); err != nil {
			return "", err
		}
	}

	seq, err = seedAndIncrScript.Run(ctx, s.client, []string{key}, seed, int(invoiceSeqTTL/time.Second)).Int()
	if err != nil {
		return "", storeError("seed invoice sequence", err)
	}
	return FormatInvoiceNumber(prefix, seq), nil
}
