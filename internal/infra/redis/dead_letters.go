package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vietddude/inventorybot/internal/core/domain"
	"github.com/vietddude/inventorybot/internal/infra/storage"
)

// DeadLetterRepo stores dead letters in one sorted set per worker,
// scored by creation time.
type DeadLetterRepo struct {
	rdb    *redis.Client
	prefix string
}

var (
	_ storage.DeadLetterRepository = (*DeadLetterRepo)(nil)
	_ storage.DeadLetterPruner     = (*DeadLetterRepo)(nil)
)

// NewDeadLetterRepo creates a new Redis-backed dead-letter repository.
func NewDeadLetterRepo(client *Client) *DeadLetterRepo {
	return &DeadLetterRepo{
		rdb:    client.rdb,
		prefix: client.prefix,
	}
}

// Key helpers
func queueKey(prefix string, workerID int) string {
	return fmt.Sprintf("%s:dead_letters:%d", prefix, workerID)
}

func queuePattern(prefix string) string {
	return fmt.Sprintf("%s:dead_letters:*", prefix)
}

// ParseQueueKey extracts the worker id from a dead-letter key.
func ParseQueueKey(prefix, key string) (int, error) {
	head := fmt.Sprintf("%s:dead_letters:", prefix)
	if !strings.HasPrefix(key, head) {
		return 0, fmt.Errorf("invalid dead-letter key: %s", key)
	}
	workerID, err := strconv.Atoi(strings.TrimPrefix(key, head))
	if err != nil {
		return 0, fmt.Errorf("invalid worker id in key %s: %w", key, err)
	}
	return workerID, nil
}

func score(t time.Time) float64 {
	return float64(t.UnixMilli())
}

// Append adds a dead letter to its worker's queue.
func (r *DeadLetterRepo) Append(ctx context.Context, entry domain.DeadLetterEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal dead letter: %w", err)
	}

	if err := r.rdb.ZAdd(ctx, queueKey(r.prefix, entry.WorkerID), redis.Z{
		Score:  score(entry.CreatedAt),
		Member: data,
	}).Err(); err != nil {
		return fmt.Errorf("zadd failed: %w", err)
	}
	return nil
}

// List returns the dead letters of a worker, oldest first.
func (r *DeadLetterRepo) List(ctx context.Context, workerID int) ([]domain.DeadLetterEntry, error) {
	members, err := r.rdb.ZRange(ctx, queueKey(r.prefix, workerID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("zrange failed: %w", err)
	}

	return decodeMembers(slog.Default(), queueKey(r.prefix, workerID), members), nil
}

// decodeMembers decodes queue members; undecodable ones are logged and skipped.
func decodeMembers(log *slog.Logger, key string, members []string) []domain.DeadLetterEntry {
	entries := make([]domain.DeadLetterEntry, 0, len(members))
	for _, m := range members {
		var e domain.DeadLetterEntry
		if err := json.Unmarshal([]byte(m), &e); err != nil {
			log.Warn("Skipping undecodable dead letter", "key", key, "member", m, "error", err)
			continue
		}
		entries = append(entries, e)
	}
	return entries
}

// Count returns the number of dead letters of a worker.
func (r *DeadLetterRepo) Count(ctx context.Context, workerID int) (int, error) {
	count, err := r.rdb.ZCard(ctx, queueKey(r.prefix, workerID)).Result()
	if err != nil {
		return 0, fmt.Errorf("zcard failed: %w", err)
	}
	return int(count), nil
}

// DeleteOlderThan removes entries created before threshold across all workers.
func (r *DeadLetterRepo) DeleteOlderThan(ctx context.Context, threshold time.Time) (int64, error) {
	var removed int64
	max := fmt.Sprintf("(%d", threshold.UnixMilli())

	iter := r.rdb.Scan(ctx, 0, queuePattern(r.prefix), 100).Iterator()
	for iter.Next(ctx) {
		n, err := r.rdb.ZRemRangeByScore(ctx, iter.Val(), "-inf", max).Result()
		if err != nil {
			return removed, fmt.Errorf("zremrangebyscore failed: %w", err)
		}
		removed += n
	}
	if err := iter.Err(); err != nil {
		return removed, fmt.Errorf("scan failed: %w", err)
	}
	return removed, nil
}

// Workers returns the ids of workers that have dead letters.
func (r *DeadLetterRepo) Workers(ctx context.Context) ([]int, error) {
	var ids []int
	iter := r.rdb.Scan(ctx, 0, queuePattern(r.prefix), 100).Iterator()
	for iter.Next(ctx) {
		id, err := ParseQueueKey(r.prefix, iter.Val())
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}
	return ids, nil
}
