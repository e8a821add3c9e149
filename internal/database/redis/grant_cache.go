package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"htech-admin/internal/models"

	"github.com/redis/go-redis/v9"
)

const grantEpochKey = "grants:epoch"

// GrantCache stores per-user grant maps under an epoch-scoped key. Bumping
// the epoch orphans every earlier entry; orphans expire through their TTL.
type GrantCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewGrantCache(client *Client, ttl time.Duration) *GrantCache {
	return &GrantCache{client: client.GetClient(), ttl: ttl}
}

func grantKey(epoch int64, userID string) string {
	return "grants:" + strconv.FormatInt(epoch, 10) + ":" + userID
}

func (c *GrantCache) Epoch(ctx context.Context) (int64, error) {
	epoch, err := c.client.Get(ctx, grantEpochKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read grant epoch: %w", err)
	}
	return epoch, nil
}

func (c *GrantCache) Get(ctx context.Context, epoch int64, userID string) (models.GrantedActions, bool, error) {
	raw, err := c.client.Get(ctx, grantKey(epoch, userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cached grants: %w", err)
	}
	var grants models.GrantedActions
	if err := json.Unmarshal(raw, &grants); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached grants: %w", err)
	}
	return grants, true, nil
}

func (c *GrantCache) Set(ctx context.Context, epoch int64, userID string, grants models.GrantedActions) error {
	raw, err := json.Marshal(grants)
	if err != nil {
		return fmt.Errorf("failed to encode grants: %w", err)
	}
	if err := c.client.Set(ctx, grantKey(epoch, userID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache grants: %w", err)
	}
	return nil
}

func (c *GrantCache) Invalidate(ctx context.Context) error {
	if err := c.client.Incr(ctx, grantEpochKey).Err(); err != nil {
		return fmt.Errorf("failed to bump grant epoch: %w", err)
	}
	return nil
}
