package sink

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	v1 "github.com/ChrisCarter22/Cataloger/pkg/api/v1"
	"github.com/ChrisCarter22/Cataloger/pkg/log"
)

// RedisRelay publishes JSON-encoded cache events to a Redis channel,
// standing in for an external subscriber: a process outside this one that
// wants to
// react to preview completions without polling the catalog's sync_queue
// table. Publish is best-effort: failures are logged, never propagated
// back into the preview pipeline: that policy applies just as much to an
// external relay as it does to the GPU bridge.
type RedisRelay struct {
	client  *redis.Client
	channel string
	log     log.PluggableLoggerInterface
	ctx     context.Context
}

// NewRedisRelay builds a relay publishing to channel over client.
func NewRedisRelay(client *redis.Client, channel string, logger log.PluggableLoggerInterface) *RedisRelay {
	if logger == nil {
		logger = log.Noop()
	}
	return &RedisRelay{client: client, channel: channel, log: logger, ctx: context.Background()}
}

func (r *RedisRelay) Handle(event v1.CacheEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		r.log.Warn("redis relay: marshal event: %s", err.Error())
		return
	}
	if err := r.client.Publish(r.ctx, r.channel, payload).Err(); err != nil {
		r.log.Warn("redis relay: publish: %s", err.Error())
	}
}
