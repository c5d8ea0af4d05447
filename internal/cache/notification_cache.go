package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// notificationTTL keeps seen notification ids long enough to swallow the
// marketplace's redelivery window.
const notificationTTL = 24 * time.Hour

// NotificationCache remembers webhook notification ids that have already been
// accepted, so redeliveries are dropped before any catalog work happens.
// It is best-effort: a cache miss (or redis outage) only means the sold-state
// guard downstream has to do the work.
type NotificationCache struct {
	redis *RedisClient
}

// NewNotificationCache creates a NotificationCache.
func NewNotificationCache(redis *RedisClient) *NotificationCache {
	return &NotificationCache{redis: redis}
}

func (c *NotificationCache) key(tenantID int64, notificationID string) string {
	return fmt.Sprintf("webhook:seen:%d:%s", tenantID, notificationID)
}

// MarkSeen records a notification id and reports whether it was seen before.
// Errors are logged and treated as "not seen" so processing always proceeds.
func (c *NotificationCache) MarkSeen(ctx context.Context, tenantID int64, notificationID string) bool {
	if notificationID == "" {
		return false
	}
	set, err := c.redis.SetNX(ctx, c.key(tenantID, notificationID), "1", notificationTTL)
	if err != nil {
		log.Warn().Err(err).Str("notification_id", notificationID).Msg("notification dedupe cache unavailable")
		return false
	}
	return !set
}
