package hermod

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Publisher pushes framed SSE payloads to named channels and can close a
// channel. A channel name is the raw session token; one session maps to
// exactly one channel.
type Publisher interface {
	// Publish delivers one preformatted SSE frame to every subscriber of channel.
	Publish(ctx context.Context, channel string, frame []byte) error
	// CloseChannel instructs the proxy to drop the held connection on channel.
	CloseChannel(ctx context.Context, channel string) error
}

// RedisPublisher publishes the GRIP envelope over Redis pub/sub to one or
// more proxy endpoints. Connections are pooled per process; opening a socket
// per send is deliberately avoided.
type RedisPublisher struct {
	clients []*redis.Client
}

// NewRedisPublisher creates a publisher over the supplied redis:// URLs.
func NewRedisPublisher(urls []string) (*RedisPublisher, error) {
	if len(urls) == 0 {
		return nil, fmt.Errorf("hermod publisher requires at least one endpoint")
	}
	clients := make([]*redis.Client, 0, len(urls))
	for _, url := range urls {
		options, err := redis.ParseURL(url)
		if err != nil {
			return nil, fmt.Errorf("invalid hermod endpoint %v: %w", url, err)
		}
		clients = append(clients, redis.NewClient(options))
	}
	return &RedisPublisher{clients: clients}, nil
}

// NewRedisPublisherWithClients wraps existing clients; used by tests.
func NewRedisPublisherWithClients(clients ...*redis.Client) *RedisPublisher {
	return &RedisPublisher{clients: clients}
}

// Publish implements Publisher.Publish.
func (p *RedisPublisher) Publish(ctx context.Context, channel string, frame []byte) error {
	payload, err := EncodeContent(channel, frame)
	if err != nil {
		return err
	}
	return p.send(ctx, channel, payload)
}

// CloseChannel implements Publisher.CloseChannel.
func (p *RedisPublisher) CloseChannel(ctx context.Context, channel string) error {
	payload, err := EncodeClose(channel)
	if err != nil {
		return err
	}
	return p.send(ctx, channel, payload)
}

func (p *RedisPublisher) send(ctx context.Context, channel string, payload []byte) error {
	for _, client := range p.clients {
		if err := client.Publish(ctx, channel, payload).Err(); err != nil {
			return fmt.Errorf("failed to publish to channel %v: %w", channel, err)
		}
	}
	return nil
}

// Close releases the underlying connections.
func (p *RedisPublisher) Close() error {
	var firstErr error
	for _, client := range p.clients {
		if err := client.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
