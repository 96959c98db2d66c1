package corr

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisKey is the hash holding "a|b" -> rho fields.
const DefaultRedisKey = "sliprisk:corr"

// HashReader is the slice of the go-redis client RedisTable needs.
type HashReader interface {
	HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd
}

// HashWriter is the slice of the go-redis client Publish needs.
type HashWriter interface {
	HSet(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
}

// RedisTable reads a correlation table stored as a Redis hash. The hash is
// read once by Load so simulations never touch the network.
type RedisTable struct {
	client HashReader
	key    string
}

func NewRedisTable(client HashReader, key string) *RedisTable {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisTable{client: client, key: key}
}

// Load snapshots the hash into a Table. Fields that do not parse are
// returned alongside the table.
func (r *RedisTable) Load(ctx context.Context) (*Table, []string, error) {
	fields, err := r.client.HGetAll(ctx, r.key).Result()
	if err != nil {
		return nil, nil, fmt.Errorf("hgetall %s: %w", r.key, err)
	}

	raw := make(map[string]float64, len(fields))
	var bad []string
	for k, v := range fields {
		rho, err := strconv.ParseFloat(v, 64)
		if err != nil {
			bad = append(bad, k)
			continue
		}
		raw[k] = rho
	}

	t, badKeys := FromMap(raw)
	bad = append(bad, badKeys...)
	sort.Strings(bad)
	return t, bad, nil
}

// Publish writes every pair in t into the hash at key.
func Publish(ctx context.Context, client HashWriter, key string, t *Table) error {
	if key == "" {
		key = DefaultRedisKey
	}
	if t.Len() == 0 {
		return nil
	}

	values := make([]interface{}, 0, 2*t.Len())
	for _, e := range t.Entries() {
		values = append(values, PairKey(e.A, e.B), strconv.FormatFloat(e.Rho, 'f', -1, 64))
	}
	return client.HSet(ctx, key, values...).Err()
}
