package repository

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"ephemeral_chat/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const (
	presenceTTL       = 30 * time.Second
	presenceHeartbeat = 10 * time.Second
	presenceResync    = 5 * time.Second
)

// PresenceRepository definition the per-room tracked-key registry. Joining
// tracks the session's own key immediately, then delivers "sync" snapshots
// of the full key set to the handler.
type PresenceRepository interface {
	Join(ctx context.Context, roomID, key string, onSync func(keys []string)) (Subscription, error)
}

// RedisPresence definition redis tracked-key presence
type RedisPresence struct {
	client *redis.Client
}

// NewRedisPresence create RedisPresence
func NewRedisPresence(client *redis.Client) *RedisPresence {
	return &RedisPresence{client: client}
}

func presenceKey(roomID, key string) string {
	return fmt.Sprintf("presence:%s:%s", roomID, key)
}

func presenceSyncChannel(roomID string) string {
	return fmt.Sprintf("presence:%s:sync", roomID)
}

type presenceSubscription struct {
	client *redis.Client
	roomID string
	key    string
	sub    *redis.PubSub
	cancel context.CancelFunc
	once   sync.Once
}

// Join tracks the session into the room registry, then starts delivering
// sync snapshots. The first snapshot fires right away; later ones follow
// heartbeat expiry, resync ticks and join/leave nudges from other sessions.
func (r *RedisPresence) Join(ctx context.Context, roomID, key string, onSync func(keys []string)) (Subscription, error) {
	// Track self first or our own presence is invisible to everyone else.
	if err := r.client.Set(ctx, presenceKey(roomID, key), "1", presenceTTL).Err(); err != nil {
		return nil, err
	}

	sub := r.client.Subscribe(ctx, presenceSyncChannel(roomID))
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		r.client.Del(context.Background(), presenceKey(roomID, key))
		return nil, err
	}

	runCtx, cancel := context.WithCancel(ctx)
	ps := &presenceSubscription{
		client: r.client,
		roomID: roomID,
		key:    key,
		sub:    sub,
		cancel: cancel,
	}

	// Nudge other members so they resync with us included.
	if err := r.client.Publish(ctx, presenceSyncChannel(roomID), key).Err(); err != nil {
		logger.Log.Warn("presence join nudge failed", zap.Error(err))
	}

	go ps.run(runCtx, onSync)
	return ps, nil
}

func (ps *presenceSubscription) run(ctx context.Context, onSync func(keys []string)) {
	heartbeat := time.NewTicker(presenceHeartbeat)
	resync := time.NewTicker(presenceResync)
	defer heartbeat.Stop()
	defer resync.Stop()

	nudges := ps.sub.Channel()

	ps.deliver(ctx, onSync)

	for {
		select {
		case <-heartbeat.C:
			if err := ps.client.Expire(ctx, presenceKey(ps.roomID, ps.key), presenceTTL).Err(); err != nil {
				logger.Log.Warn("presence heartbeat failed", zap.Error(err))
			}
		case <-resync.C:
			ps.deliver(ctx, onSync)
		case _, ok := <-nudges:
			if !ok {
				return
			}
			ps.deliver(ctx, onSync)
		case <-ctx.Done():
			return
		}
	}
}

// deliver scans the registry and hands the full key set to the handler.
func (ps *presenceSubscription) deliver(ctx context.Context, onSync func(keys []string)) {
	prefix := presenceKey(ps.roomID, "")
	var keys []string
	iter := ps.client.Scan(ctx, 0, prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, strings.TrimPrefix(iter.Val(), prefix))
	}
	if err := iter.Err(); err != nil {
		logger.Log.Warn("presence scan failed", zap.Error(err))
		return
	}
	onSync(keys)
}

// Close untracks the session and stops snapshot delivery.
func (ps *presenceSubscription) Close() error {
	var err error
	ps.once.Do(func() {
		ps.cancel()
		err = ps.sub.Close()
		bg := context.Background()
		ps.client.Del(bg, presenceKey(ps.roomID, ps.key))
		ps.client.Publish(bg, presenceSyncChannel(ps.roomID), ps.key)
	})
	return err
}
