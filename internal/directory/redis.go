package directory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"

	"voice_agent/internal/logger"
	"voice_agent/internal/model"
)

const (
	customerKeyPrefix = "customer:"
	maxSaveRetries    = 8
)

// Redis stores one JSON entry per customer under customer:<business>:<name>.
type Redis struct {
	client *redis.Client
	now    func() time.Time
}

// NewRedis returns a directory backed by client.
func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client, now: time.Now}
}

func (r *Redis) key(name, businessID string) string {
	return customerKeyPrefix + Key(name, businessID)
}

// Save merges facts with an optimistic WATCH/MULTI transaction, retrying when
// another writer touched the entry in between.
func (r *Redis) Save(ctx context.Context, name, businessID string, facts model.FactSet) (bool, error) {
	if strings.TrimSpace(name) == "" {
		return false, nil
	}
	key := r.key(name, businessID)

	var created bool
	txf := func(tx *redis.Tx) error {
		existing, err := r.load(ctx, tx, key)
		if err != nil {
			return err
		}
		created = existing == nil

		data, err := sonic.Marshal(merge(existing, name, businessID, facts, r.now()))
		if err != nil {
			return fmt.Errorf("failed to marshal customer entry: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < maxSaveRetries; attempt++ {
		err := r.client.Watch(ctx, txf, key)
		if err == nil {
			return created, nil
		}
		if !errors.Is(err, redis.TxFailedErr) {
			return false, fmt.Errorf("failed to save customer %s: %w", key, err)
		}
		logger.Debug().Str("key", key).Int("attempt", attempt+1).Msg("customer entry changed, retrying")
	}
	return false, fmt.Errorf("%w: %s", ErrConflict, key)
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (r *Redis) load(ctx context.Context, c getter, key string) (*Entry, error) {
	data, err := c.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get customer %s: %w", key, err)
	}

	var entry Entry
	if err := sonic.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("failed to unmarshal customer %s: %w", key, err)
	}
	return &entry, nil
}

func (r *Redis) Find(ctx context.Context, name, businessID string) (model.FactSet, bool, error) {
	entry, err := r.load(ctx, r.client, r.key(name, businessID))
	if err != nil || entry == nil {
		return model.FactSet{}, false, err
	}
	return entry.Facts, true, nil
}

func (r *Redis) ListAll(ctx context.Context) (map[string]model.FactSet, error) {
	out := make(map[string]model.FactSet)
	iter := r.client.Scan(ctx, 0, customerKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		entry, err := r.load(ctx, r.client, key)
		if err != nil {
			return nil, err
		}
		if entry != nil {
			out[strings.TrimPrefix(key, customerKeyPrefix)] = entry.Facts
		}
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan customers: %w", err)
	}
	return out, nil
}
