package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/redis/go-redis/v9"

	"github.com/dvloznov/expense-coach/internal/domain"
)

const (
	claimValue     = "claimed"
	completedValue = "completed"

	// DefaultClaimTTL lets a period run again if the process died mid-batch.
	DefaultClaimTTL = 6 * time.Hour
)

// RedisLedger stores claims as SETNX keys so that several replicas agree on
// which one runs a period.
type RedisLedger struct {
	client   redis.UniversalClient
	prefix   string
	claimTTL time.Duration
}

// NewRedisLedger parses url (redis://...) and pings the server.
func NewRedisLedger(ctx context.Context, url string) (*RedisLedger, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("NewRedisLedger: parse url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("NewRedisLedger: ping: %w", err)
	}
	return NewRedisLedgerWithClient(client, "expense-coach"), nil
}

// NewRedisLedgerWithClient wraps an existing client. Keys are namespaced by prefix.
func NewRedisLedgerWithClient(client redis.UniversalClient, prefix string) *RedisLedger {
	return &RedisLedger{client: client, prefix: prefix, claimTTL: DefaultClaimTTL}
}

func (l *RedisLedger) periodKey(kind domain.PeriodKind, start civil.Date) string {
	return fmt.Sprintf("%s:ledger:%s:%s", l.prefix, kind, start)
}

func (l *RedisLedger) completedKey(kind domain.PeriodKind) string {
	return fmt.Sprintf("%s:ledger:%s:completed", l.prefix, kind)
}

func (l *RedisLedger) Claim(ctx context.Context, kind domain.PeriodKind, start civil.Date) (bool, error) {
	ok, err := l.client.SetNX(ctx, l.periodKey(kind, start), claimValue, l.claimTTL).Result()
	if err != nil {
		return false, fmt.Errorf("Claim: %w", err)
	}
	return ok, nil
}

func (l *RedisLedger) Complete(ctx context.Context, kind domain.PeriodKind, start civil.Date) error {
	pipe := l.client.TxPipeline()
	pipe.Set(ctx, l.periodKey(kind, start), completedValue, 0)
	pipe.ZAdd(ctx, l.completedKey(kind), redis.Z{
		Score:  float64(dayNumber(start)),
		Member: start.String(),
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("Complete: %w", err)
	}
	return nil
}

func (l *RedisLedger) Release(ctx context.Context, kind domain.PeriodKind, start civil.Date) error {
	key := l.periodKey(kind, start)
	val, err := l.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("Release: %w", err)
	}
	if val != claimValue {
		return nil
	}
	if err := l.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("Release: %w", err)
	}
	return nil
}

func (l *RedisLedger) LastCompleted(ctx context.Context, kind domain.PeriodKind) (civil.Date, bool, error) {
	members, err := l.client.ZRevRange(ctx, l.completedKey(kind), 0, 0).Result()
	if err != nil {
		return civil.Date{}, false, fmt.Errorf("LastCompleted: %w", err)
	}
	if len(members) == 0 {
		return civil.Date{}, false, nil
	}
	d, err := civil.ParseDate(members[0])
	if err != nil {
		return civil.Date{}, false, fmt.Errorf("LastCompleted: parse %q: %w", members[0], err)
	}
	return d, true, nil
}

// Close closes the underlying client.
func (l *RedisLedger) Close() error {
	return l.client.Close()
}

func dayNumber(d civil.Date) int {
	return d.DaysSince(civil.Date{Year: 1970, Month: time.January, Day: 1})
}

var _ Ledger = (*RedisLedger)(nil)
