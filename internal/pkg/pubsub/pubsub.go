package pubsub

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
)

const (
	ChannelAccountEvents = "account_events"
)

// Event kinds published on the account channel.
const (
	EventTierChanged = "tier_changed"
	EventCRMSynced   = "crm_synced"
)

// AccountMessage is published by the worker when a user's account
// changes out of band, so the API server can push it to live
// websocket clients.
type AccountMessage struct {
	Type    string `json:"type"`
	UserID  int64  `json:"user_id"`
	Tier    string `json:"tier,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Publisher sends account events over Redis.
type Publisher struct {
	client *redis.Client
}

func NewPublisher(client *redis.Client) *Publisher {
	return &Publisher{client: client}
}

// Publish sends an account event.
func (p *Publisher) Publish(ctx context.Context, msg *AccountMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal account message: %w", err)
	}

	return p.client.Publish(ctx, ChannelAccountEvents, data).Err()
}

// Subscriber receives account events.
type Subscriber struct {
	client *redis.Client
}

func NewSubscriber(client *redis.Client) *Subscriber {
	return &Subscriber{client: client}
}

// Subscribe blocks, invoking handler for every event until the
// context is cancelled.
func (s *Subscriber) Subscribe(ctx context.Context, handler func(*AccountMessage)) error {
	pubsub := s.client.Subscribe(ctx, ChannelAccountEvents)
	defer pubsub.Close()

	ch := pubsub.Channel()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}

			var accountMsg AccountMessage
			if err := json.Unmarshal([]byte(msg.Payload), &accountMsg); err != nil {
				continue // skip malformed payloads
			}

			handler(&accountMsg)
		}
	}
}
