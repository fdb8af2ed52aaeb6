package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/rl1809/stock-sync/internal/core/domain"
)

const DefaultConflictKey = "stocksync:conflicts"

// RedisAdapter keeps the manual review queue in a single hash: field is the
// conflict ID, value is the JSON-encoded conflict.
type RedisAdapter struct {
	client *redis.Client
	key    string
}

func NewRedisAdapter(client *redis.Client, key string) *RedisAdapter {
	if key == "" {
		key = DefaultConflictKey
	}
	return &RedisAdapter{client: client, key: key}
}

func (r *RedisAdapter) SaveConflict(ctx context.Context, conflict domain.SyncConflict) error {
	if conflict.ID == "" {
		return domain.NewValidationError("id", conflict.ID, "conflict id is required")
	}
	data, err := json.Marshal(conflict)
	if err != nil {
		return fmt.Errorf("encode conflict %s: %w", conflict.ID, err)
	}
	return r.client.HSet(ctx, r.key, conflict.ID, data).Err()
}

func (r *RedisAdapter) LoadConflicts(ctx context.Context) ([]domain.SyncConflict, error) {
	entries, err := r.client.HGetAll(ctx, r.key).Result()
	if err != nil {
		return nil, err
	}

	conflicts := make([]domain.SyncConflict, 0, len(entries))
	for id, raw := range entries {
		var c domain.SyncConflict
		if err := json.Unmarshal([]byte(raw), &c); err != nil {
			return nil, fmt.Errorf("decode conflict %s: %w", id, err)
		}
		conflicts = append(conflicts, c)
	}
	domain.SortConflicts(conflicts)
	return conflicts, nil
}
