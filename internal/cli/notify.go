package cli

import (
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/littlelemon/internal/kv"
	"github.com/mesh-intelligence/littlelemon/internal/notify"
	"github.com/mesh-intelligence/littlelemon/pkg/littlelemon"
	"github.com/mesh-intelligence/littlelemon/pkg/types"
)

// changeNotifier returns the redis notifier for the loaded configuration,
// or nil when redis.addr is unset. release must be called once the
// notifier is no longer used.
func (a *app) changeNotifier(store types.KVStore) (n *notify.RedisNotifier, release func()) {
	if a.cfg.Redis.Addr == "" {
		return nil, func() {}
	}
	rdb, owned := redisClient(a, store)
	release = func() {}
	if owned {
		release = func() { _ = rdb.Close() }
	}
	return notify.NewRedisNotifier(rdb, a.cfg.Redis.Channel, a.logger), release
}

// publishChange tells other processes sharing the store, such as a running
// serve, that bookings changed. The mutation has already been persisted, so
// a failed publish is logged and not returned.
func (a *app) publishChange(cmd *cobra.Command, res *littlelemon.Reservations, eventType, bookingID string) {
	n, release := a.changeNotifier(res.Store())
	if n == nil {
		return
	}
	defer release()

	err := n.Publish(cmd.Context(), notify.Event{Type: eventType, BookingID: bookingID})
	if err != nil {
		a.logger.Warn().Err(err).Str("event", eventType).Msg("publish change failed")
	}
}

// redisClient reuses the redis backend's client when there is one. owned
// reports whether the caller must close the returned client.
func redisClient(a *app, store types.KVStore) (*redis.Client, bool) {
	if rs, ok := store.(*kv.RedisStore); ok {
		return rs.Client(), false
	}
	return redis.NewClient(&redis.Options{
		Addr:     a.cfg.Redis.Addr,
		Password: a.cfg.Redis.Password,
		DB:       a.cfg.Redis.DB,
	}), true
}
