package rediskit

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/unkn0wn-root/rediskit/codec"
)

// BrokerOptions tune the pub/sub broker. Only Manager is required.
type BrokerOptions struct {
	Manager *Manager    // required
	Codec   codec.Codec // nil => codec.JSON{}
	Logger  Logger      // nil => NopLogger
}

// Broker is a publish/subscribe abstraction over the shared connection.
// Each subscription holds a dedicated connection from the pool and must be
// closed to free it; the Manager also closes any still-open handles at
// shutdown.
type Broker struct {
	mgr   *Manager
	codec codec.Codec
	log   Logger
}

func NewBroker(opts BrokerOptions) (*Broker, error) {
	if opts.Manager == nil {
		return nil, fmt.Errorf("rediskit: manager is required")
	}
	return &Broker{
		mgr:   opts.Manager,
		codec: coalesce[codec.Codec](opts.Codec, codec.JSON{}),
		log:   coalesce[Logger](opts.Logger, NopLogger{}),
	}, nil
}

// Subscription is a live handle on one or more channels. Messages arrive
// asynchronously on Messages(); Close releases the server-side subscription
// state and the dedicated connection.
type Subscription struct {
	ps     *redis.PubSub
	broker *Broker
}

// Subscribe opens a subscription on the given channels and confirms the
// server acknowledged it before returning.
func (b *Broker) Subscribe(ctx context.Context, channels ...string) (*Subscription, error) {
	client, err := b.mgr.universal()
	if err != nil {
		return nil, err
	}

	ps := client.Subscribe(ctx, channels...)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, connErr("subscribe", err)
	}

	b.mgr.trackSub(ps)
	b.log.Debug("subscribed", Fields{"channels": channels})
	return &Subscription{ps: ps, broker: b}, nil
}

// Publish sends message to channel. Strings and byte slices go out as-is;
// anything else is serialized through the broker's codec.
func (b *Broker) Publish(ctx context.Context, channel string, message any) error {
	c, err := b.mgr.Active()
	if err != nil {
		return err
	}
	data, err := encodeValue(b.codec, channel, message)
	if err != nil {
		return err
	}
	if err := c.Publish(ctx, channel, data).Err(); err != nil {
		return connErr("publish "+channel, err)
	}
	return nil
}

// Messages returns the delivery channel. It is closed when the
// subscription closes.
func (s *Subscription) Messages() <-chan *redis.Message {
	return s.ps.Channel()
}

// Unsubscribe removes channels from the subscription without closing it.
// With no arguments it unsubscribes from all channels.
func (s *Subscription) Unsubscribe(ctx context.Context, channels ...string) error {
	if err := s.ps.Unsubscribe(ctx, channels...); err != nil {
		return connErr("unsubscribe", err)
	}
	return nil
}

// Close releases the subscription and its connection. Safe to call once per
// handle; the Manager forgets the handle immediately.
func (s *Subscription) Close() error {
	s.broker.mgr.untrackSub(s.ps)
	if err := s.ps.Close(); err != nil {
		return connErr("pubsub close", err)
	}
	return nil
}
