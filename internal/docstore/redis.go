package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisRelay fans committed snapshots out to other instances through a Redis
// pub/sub channel and feeds the snapshots they publish into the local broker.
// Duplicates are harmless: subscribers drop versions they already saw.
type RedisRelay struct {
	client  *redis.Client
	channel string
	origin  string
	logger  *slog.Logger
}

type relayMessage struct {
	Origin   string   `json:"origin"`
	Snapshot Snapshot `json:"snapshot"`
}

func NewRedisRelay(client *redis.Client, channel string, logger *slog.Logger) *RedisRelay {
	return &RedisRelay{
		client:  client,
		channel: channel,
		origin:  uuid.NewString(),
		logger:  logger,
	}
}

func (r *RedisRelay) Forward(ctx context.Context, snap Snapshot) error {
	data, err := r.encode(snap)
	if err != nil {
		return err
	}
	return r.client.Publish(ctx, r.channel, data).Err()
}

// Run delivers snapshots from other instances to broker until ctx is done.
func (r *RedisRelay) Run(ctx context.Context, broker *Broker) error {
	sub := r.client.Subscribe(ctx, r.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribing to %s: %w", r.channel, err)
	}
	r.logger.Info("relay subscribed", "channel", r.channel, "origin", r.origin)

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			snap, remote, err := r.decode([]byte(msg.Payload))
			if err != nil {
				r.logger.Warn("dropping malformed relay message", "error", err)
				continue
			}
			if remote {
				broker.Publish(snap)
			}
		}
	}
}

func (r *RedisRelay) Ping(ctx context.Context) error { return r.client.Ping(ctx).Err() }

func (r *RedisRelay) encode(snap Snapshot) ([]byte, error) {
	return json.Marshal(relayMessage{Origin: r.origin, Snapshot: snap})
}

// decode reports whether the message came from another instance.
func (r *RedisRelay) decode(data []byte) (Snapshot, bool, error) {
	var m relayMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return Snapshot{}, false, err
	}
	if m.Snapshot.Key == "" {
		return Snapshot{}, false, fmt.Errorf("relay message without key")
	}
	return m.Snapshot, m.Origin != r.origin, nil
}
