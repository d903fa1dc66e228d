// Package ledgercache keeps short-lived snapshots of an institution's
// registrants in Redis in front of the ledger query. The allocator never reads
// through it; it only spares the ledger repeated summary reads while an
// operator moves between stages.
package ledgercache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"examboard/internal/platform/redis"
	"examboard/internal/registration/metrics"
	"examboard/internal/registration/models"
	"examboard/internal/registration/ports"
	id "examboard/pkg/domain"
	"examboard/pkg/platform/circuit"
)

const defaultTTL = 30 * time.Second

// Cache is a read-through ports.LedgerQuery and a ports.LedgerInvalidator.
type Cache struct {
	client  *redis.Client
	next    ports.LedgerQuery
	ttl     time.Duration
	breaker *circuit.Breaker
	metrics *metrics.Metrics
	logger  *slog.Logger
}

type Option func(*Cache)

func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Cache) {
		c.metrics = m
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) {
		c.logger = logger
	}
}

func WithBreaker(b *circuit.Breaker) Option {
	return func(c *Cache) {
		c.breaker = b
	}
}

func New(client *redis.Client, next ports.LedgerQuery, opts ...Option) (*Cache, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	if next == nil {
		return nil, errors.New("ledger query is required")
	}
	c := &Cache{
		client:  client,
		next:    next,
		ttl:     defaultTTL,
		breaker: circuit.New("ledger-cache"),
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Cache) key(examID id.ExamID, institutionID id.InstitutionID) string {
	return c.client.Key("ledger", examID.String(), institutionID.String())
}

// FetchRegistrants serves a cached snapshot when one exists and the breaker is
// closed, and otherwise reads the ledger and stores the result. Redis errors
// never fail the read.
func (c *Cache) FetchRegistrants(ctx context.Context, examID id.ExamID, institutionID id.InstitutionID) ([]models.RegistrantRecord, error) {
	key := c.key(examID, institutionID)

	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		if usePrimary := c.recordSuccess(); usePrimary {
			var regs []models.RegistrantRecord
			if jsonErr := json.Unmarshal(raw, &regs); jsonErr == nil {
				c.lookup("hit")
				return regs, nil
			}
			c.logger.WarnContext(ctx, "discarding undecodable ledger snapshot", "key", key)
		} else {
			c.lookup("bypass")
		}
	case errors.Is(err, goredis.Nil):
		c.recordSuccess()
		c.lookup("miss")
	default:
		c.recordFailure(ctx, err)
		c.lookup("error")
	}

	regs, err := c.next.FetchRegistrants(ctx, examID, institutionID)
	if err != nil {
		return nil, err
	}
	if !c.breaker.IsOpen() {
		c.store(ctx, key, regs)
	}
	return regs, nil
}

// Invalidate drops the snapshot so the next summary read sees a fresh ledger.
func (c *Cache) Invalidate(ctx context.Context, examID id.ExamID, institutionID id.InstitutionID) error {
	if err := c.client.Del(ctx, c.key(examID, institutionID)).Err(); err != nil {
		c.recordFailure(ctx, err)
		return fmt.Errorf("invalidate ledger snapshot: %w", err)
	}
	return nil
}

func (c *Cache) store(ctx context.Context, key string, regs []models.RegistrantRecord) {
	body, err := json.Marshal(regs)
	if err != nil {
		c.logger.WarnContext(ctx, "encode ledger snapshot", "error", err)
		return
	}
	if err := c.client.Set(ctx, key, body, c.ttl).Err(); err != nil {
		c.recordFailure(ctx, err)
	}
}

func (c *Cache) recordSuccess() bool {
	usePrimary, change := c.breaker.RecordSuccess()
	if change.Closed {
		c.logger.Info("ledger cache recovered", "breaker", c.breaker.Name())
	}
	return usePrimary
}

func (c *Cache) recordFailure(ctx context.Context, err error) {
	_, change := c.breaker.RecordFailure()
	if change.Opened {
		c.logger.WarnContext(ctx, "ledger cache degraded, reading ledger directly",
			"breaker", c.breaker.Name(), "error", err)
	}
}

func (c *Cache) lookup(result string) {
	if c.metrics != nil {
		c.metrics.IncrementCacheLookup(result)
	}
}
