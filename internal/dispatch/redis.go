package dispatch

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"github.com/example/ride-guardian/internal/models"
)

type redisPublisher interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

// RedisNotifier publishes each event on channel <prefix><ride id>.
type RedisNotifier struct {
	client redisPublisher
	prefix string
}

func NewRedisNotifier(client redisPublisher, prefix string) *RedisNotifier {
	return &RedisNotifier{client: client, prefix: prefix}
}

func (r *RedisNotifier) Notify(ctx context.Context, rideID string, ev models.SafetyEvent) error {
	b, err := json.Marshal(Envelope{RideID: rideID, Event: ev})
	if err != nil {
		return err
	}
	return r.client.Publish(ctx, r.prefix+rideID, b).Err()
}
