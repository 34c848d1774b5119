package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"ephemeral_chat/internal/chat/domain"
	"ephemeral_chat/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// Subscription is a live channel subscription; Close tears it down.
type Subscription interface {
	Close() error
}

// RealtimeRepository definition the per-room realtime channels: confirmed
// message notifications and the ephemeral typing broadcast. Delivery is
// best effort; duplicates are suppressed by the engine.
type RealtimeRepository interface {
	PublishMessage(ctx context.Context, msg domain.Message) error
	SubscribeMessages(ctx context.Context, roomID string, handler func(domain.Message)) (Subscription, error)
	PublishTyping(ctx context.Context, roomID string, payload domain.TypingPayload) error
	SubscribeTyping(ctx context.Context, roomID string, handler func(domain.TypingPayload)) (Subscription, error)
}

// RedisPubSub definition redis pub/sub realtime channels
type RedisPubSub struct {
	client *redis.Client
}

// NewRedisPubSub create RedisPubSub
func NewRedisPubSub(client *redis.Client) *RedisPubSub {
	return &RedisPubSub{client: client}
}

func messageChannel(roomID string) string {
	return fmt.Sprintf("chat:room:%s:messages", roomID)
}

func typingChannel(roomID string) string {
	return fmt.Sprintf("chat:room:%s:typing", roomID)
}

// PublishMessage notifies the room channel of a confirmed insert. The writer
// publishes right after the row insert succeeds.
func (r *RedisPubSub) PublishMessage(ctx context.Context, msg domain.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return r.client.Publish(ctx, messageChannel(msg.RoomID), data).Err()
}

// SubscribeMessages subscribes to confirmed inserts for one room. The
// handler runs on the subscription goroutine; cancelling ctx or closing the
// returned Subscription stops delivery.
func (r *RedisPubSub) SubscribeMessages(ctx context.Context, roomID string, handler func(domain.Message)) (Subscription, error) {
	sub := r.client.Subscribe(ctx, messageChannel(roomID))
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return nil, err
	}
	go func() {
		ch := sub.Channel()
		for {
			select {
			case m, ok := <-ch:
				if !ok {
					return
				}
				var msg domain.Message
				if err := json.Unmarshal([]byte(m.Payload), &msg); err != nil {
					logger.Log.Error("message payload unmarshal failed", zap.Error(err))
					continue
				}
				handler(msg)
			case <-ctx.Done():
				logger.Log.Info(fmt.Sprintf("%s , sub close", messageChannel(roomID)))
				sub.Close()
				return
			}
		}
	}()
	return sub, nil
}

// PublishTyping broadcasts a typing payload to the room's typing channel.
func (r *RedisPubSub) PublishTyping(ctx context.Context, roomID string, payload domain.TypingPayload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return r.client.Publish(ctx, typingChannel(roomID), data).Err()
}

// SubscribeTyping subscribes to the room's typing channel. The transport
// echoes the session's own broadcasts; the engine filters them by sender.
func (r *RedisPubSub) SubscribeTyping(ctx context.Context, roomID string, handler func(domain.TypingPayload)) (Subscription, error) {
	sub := r.client.Subscribe(ctx, typingChannel(roomID))
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return nil, err
	}
	go func() {
		ch := sub.Channel()
		for {
			select {
			case m, ok := <-ch:
				if !ok {
					return
				}
				var payload domain.TypingPayload
				if err := json.Unmarshal([]byte(m.Payload), &payload); err != nil {
					logger.Log.Error("typing payload unmarshal failed", zap.Error(err))
					continue
				}
				handler(payload)
			case <-ctx.Done():
				logger.Log.Info(fmt.Sprintf("%s , sub close", typingChannel(roomID)))
				sub.Close()
				return
			}
		}
	}()
	return sub, nil
}
