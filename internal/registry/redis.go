package registry

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmehdipour/micromdm-webhook/internal/model"
	"github.com/redis/go-redis/v9"
)

const DefaultRedisKey = "mdm:devices"

// Redis stores enrollment flags in a single hash (field=udid, value "1"/"0"),
// letting several relay replicas share one registry.
type Redis struct {
	rdb *redis.Client
	key string
}

func NewRedis(rdb *redis.Client, key string) *Redis {
	if key == "" {
		key = DefaultRedisKey
	}
	return &Redis{rdb: rdb, key: key}
}

// Upsert relies on HSET reporting the number of newly added fields,
// which makes create-or-overwrite a single atomic command.
func (r *Redis) Upsert(ctx context.Context, udid string, enrolled bool) (bool, error) {
	added, err := r.rdb.HSet(ctx, r.key, udid, encodeEnrolled(enrolled)).Result()
	if err != nil {
		return false, fmt.Errorf("redis hset %s/%s: %w", r.key, udid, err)
	}
	return added == 1, nil
}

func (r *Redis) Get(ctx context.Context, udid string) (model.Device, bool, error) {
	v, err := r.rdb.HGet(ctx, r.key, udid).Result()
	if errors.Is(err, redis.Nil) {
		return model.Device{}, false, nil
	}
	if err != nil {
		return model.Device{}, false, fmt.Errorf("redis hget %s/%s: %w", r.key, udid, err)
	}
	return model.Device{UDID: udid, Enrolled: v == "1"}, true, nil
}

func encodeEnrolled(enrolled bool) string {
	if enrolled {
		return "1"
	}
	return "0"
}
