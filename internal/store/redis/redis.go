// Package redis implements the portal stores on Redis.
//
// Each record is a JSON string under <prefix>:<kind>:<id> and a sorted set
// <prefix>:<kind>s orders ids by creation time.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jwstudio/portal/internal/models"
	"github.com/jwstudio/portal/internal/store"
	"github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces portal keys.
const DefaultPrefix = "portal"

// createScript writes the record and indexes it only if the key is absent.
var createScript = redis.NewScript(`
if redis.call('SET', KEYS[1], ARGV[1], 'NX') then
	redis.call('ZADD', KEYS[2], ARGV[2], ARGV[3])
	return 1
end
return 0
`)

// NewClient connects to Redis and verifies the connection.
func NewClient(ctx context.Context, opts *redis.Options) (*redis.Client, error) {
	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", opts.Addr, err)
	}

	return client, nil
}

// NewStores creates the Redis backed stores. An empty prefix uses DefaultPrefix.
func NewStores(client redis.UniversalClient, prefix string) store.Stores {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return store.Stores{
		Projects:     &ProjectStore{records: newCollection[models.Project](client, prefix, "project")},
		Testimonials: &TestimonialStore{records: newCollection[models.Testimonial](client, prefix, "testimonial")},
		Contacts:     &ContactStore{records: newCollection[models.ContactRequest](client, prefix, "contact")},
	}
}

var (
	errExists  = errors.New("record exists")
	errMissing = errors.New("record missing")
)

// collection stores JSON records of one kind with a creation-time index.
type collection[T any] struct {
	client redis.UniversalClient
	kind   string
	prefix string
	index  string
}

func newCollection[T any](client redis.UniversalClient, prefix, kind string) *collection[T] {
	return &collection[T]{
		client: client,
		kind:   kind,
		prefix: prefix + ":" + kind + ":",
		index:  prefix + ":" + kind + "s",
	}
}

func (c *collection[T]) key(id string) string {
	return c.prefix + id
}

func (c *collection[T]) create(ctx context.Context, id string, created time.Time, v *T) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", c.kind, err)
	}

	n, err := createScript.Run(ctx, c.client, []string{c.key(id), c.index}, data, created.UnixMilli(), id).Int()
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", c.kind, err)
	}
	if n == 0 {
		return errExists
	}

	return nil
}

func (c *collection[T]) exists(ctx context.Context, id string) (bool, error) {
	n, err := c.client.Exists(ctx, c.key(id)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check %s: %w", c.kind, err)
	}
	return n == 1, nil
}

func (c *collection[T]) get(ctx context.Context, id string) (*T, error) {
	data, err := c.client.Get(ctx, c.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, errMissing
		}
		return nil, fmt.Errorf("failed to get %s: %w", c.kind, err)
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s: %w", c.kind, err)
	}

	return &v, nil
}

// replace overwrites an existing record; SET XX never creates.
func (c *collection[T]) replace(ctx context.Context, id string, v *T) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", c.kind, err)
	}

	ok, err := c.client.SetXX(ctx, c.key(id), data, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", c.kind, err)
	}
	if !ok {
		return errMissing
	}

	return nil
}

// modify applies fn to the stored record under WATCH so concurrent writers retry.
func (c *collection[T]) modify(ctx context.Context, id string, fn func(*T)) error {
	key := c.key(id)

	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return errMissing
			}
			return err
		}

		var v T
		if err := json.Unmarshal(data, &v); err != nil {
			return fmt.Errorf("failed to unmarshal %s: %w", c.kind, err)
		}
		fn(&v)

		out, err := json.Marshal(&v)
		if err != nil {
			return fmt.Errorf("failed to marshal %s: %w", c.kind, err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, out, 0)
			return nil
		})
		return err
	}

	for range 5 {
		err := c.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil && !errors.Is(err, errMissing) {
			return fmt.Errorf("failed to update %s: %w", c.kind, err)
		}
		return err
	}

	return fmt.Errorf("failed to update %s: %w", c.kind, store.ErrThrottled)
}

func (c *collection[T]) delete(ctx context.Context, id string) error {
	var del *redis.IntCmd
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		del = pipe.Del(ctx, c.key(id))
		pipe.ZRem(ctx, c.index, id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", c.kind, err)
	}
	if del.Val() == 0 {
		return errMissing
	}
	return nil
}

// list returns records newest first.
func (c *collection[T]) list(ctx context.Context) ([]*T, error) {
	ids, err := c.client.ZRevRange(ctx, c.index, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list %ss: %w", c.kind, err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = c.key(id)
	}

	values, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list %ss: %w", c.kind, err)
	}

	records := make([]*T, 0, len(values))
	for _, raw := range values {
		s, ok := raw.(string)
		if !ok {
			// index entry whose record is gone
			continue
		}

		var v T
		if err := json.Unmarshal([]byte(s), &v); err != nil {
			return nil, fmt.Errorf("failed to unmarshal %s: %w", c.kind, err)
		}
		records = append(records, &v)
	}

	return records, nil
}
