package continuity

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"heirloom/pkg/domain"
)

// heartbeatKey is a sorted set of owner ids scored by the unix time of the
// last beat, so expiry checks are a single range query.
const heartbeatKey = "heirloom:heartbeats"

// RedisHeartbeatStore keeps heartbeats in Redis so the lapse monitor
// survives restarts and can run against shared state.
type RedisHeartbeatStore struct {
	client *redis.Client
}

func NewRedisHeartbeatStore(client *redis.Client) *RedisHeartbeatStore {
	return &RedisHeartbeatStore{client: client}
}

func (s *RedisHeartbeatStore) Beat(ctx context.Context, ownerID domain.OwnerID, at time.Time) error {
	err := s.client.ZAdd(ctx, heartbeatKey, redis.Z{
		Score:  float64(at.Unix()),
		Member: ownerID.String(),
	}).Err()
	if err != nil {
		return fmt.Errorf("record heartbeat: %w", err)
	}
	return nil
}

func (s *RedisHeartbeatStore) LastBeat(ctx context.Context, ownerID domain.OwnerID) (time.Time, bool, error) {
	score, err := s.client.ZScore(ctx, heartbeatKey, ownerID.String()).Result()
	if err == redis.Nil {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("read heartbeat: %w", err)
	}
	return time.Unix(int64(score), 0), true, nil
}

func (s *RedisHeartbeatStore) Expired(ctx context.Context, cutoff time.Time) ([]domain.OwnerID, error) {
	members, err := s.client.ZRangeByScore(ctx, heartbeatKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: "(" + strconv.FormatInt(cutoff.Unix(), 10),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("list expired heartbeats: %w", err)
	}

	out := make([]domain.OwnerID, 0, len(members))
	for _, m := range members {
		id, err := domain.ParseOwnerID(m)
		if err != nil {
			// A foreign member in the set is skipped, not fatal.
			continue
		}
		out = append(out, id)
	}
	return out, nil
}

func (s *RedisHeartbeatStore) Forget(ctx context.Context, ownerID domain.OwnerID) error {
	if err := s.client.ZRem(ctx, heartbeatKey, ownerID.String()).Err(); err != nil {
		return fmt.Errorf("forget heartbeat: %w", err)
	}
	return nil
}
