package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Chative-mealplan/server/internal/agent/model"
	errx "github.com/Chative-mealplan/server/internal/core/error"
	logx "github.com/Chative-mealplan/server/pkg/logger"
)

type RedisInteractionRepository struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewRedisInteractionRepository(rdb redis.Cmdable, ttl time.Duration) *RedisInteractionRepository {
	return &RedisInteractionRepository{rdb: rdb, ttl: ttl}
}

func (r *RedisInteractionRepository) historyKey(userID string) string {
	return fmt.Sprintf("interaction:%s:history", userID)
}

func (r *RedisInteractionRepository) Save(ctx context.Context, userID string, interaction model.Interaction) error {
	b, err := json.Marshal(interaction)
	if err != nil {
		logx.Error().Err(err).Str("userID", userID).Msg("failed to marshal interaction")
		return fmt.Errorf("marshal interaction: %w", err)
	}
	key := r.historyKey(userID)

	if err := r.rdb.RPush(ctx, key, b).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to push interaction to redis")
		return errx.WrapRedis(err)
	}
	// extend TTL on touch
	if r.ttl > 0 {
		if ok, err := r.rdb.Expire(ctx, key, r.ttl).Result(); err != nil {
			logx.Error().Err(err).Str("key", key).Msg("failed to set expire")
			return errx.WrapRedis(err)
		} else if !ok {
			logx.Warn().Str("key", key).Dur("ttl", r.ttl).Msg("failed to set TTL on interaction key")
		}
	}
	return nil
}

func (r *RedisInteractionRepository) History(ctx context.Context, userID string) ([]model.Interaction, error) {
	key := r.historyKey(userID)

	rows, err := r.rdb.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []model.Interaction{}, nil
		}
		logx.Error().Err(err).Str("key", key).Msg("failed to load interactions from redis")
		return nil, errx.WrapRedis(err)
	}

	out := make([]model.Interaction, 0, len(rows))
	for i, s := range rows {
		var it model.Interaction
		if err := json.Unmarshal([]byte(s), &it); err != nil {
			logx.Error().Err(err).Str("userID", userID).Int("index", i).Msg("failed to unmarshal interaction")
			return nil, fmt.Errorf("unmarshal interaction at index %d: %w", i, err)
		}
		out = append(out, it)
	}
	return out, nil
}

func (r *RedisInteractionRepository) Clear(ctx context.Context, userID string) error {
	key := r.historyKey(userID)
	if err := r.rdb.Del(ctx, key).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to delete interactions from redis")
		return errx.WrapRedis(err)
	}
	return nil
}

func (r *RedisInteractionRepository) Count(ctx context.Context, userID string) (int, error) {
	key := r.historyKey(userID)
	n, err := r.rdb.LLen(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		logx.Error().Err(err).Str("key", key).Msg("failed to count interactions in redis")
		return 0, errx.WrapRedis(err)
	}
	return int(n), nil
}

var _ model.InteractionRepository = (*RedisInteractionRepository)(nil)
