package mq

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/iqac-smarttrack/apiserver/types"
)

// EventPublisher encodes lifecycle events as JSON onto one channel.
type EventPublisher struct {
	mq      *MQ
	channel string
}

func NewEventPublisher(mq *MQ, channel string) *EventPublisher {
	return &EventPublisher{mq: mq, channel: channel}
}

// PublishEvent sends event with its type as the "type" attribute.
func (p *EventPublisher) PublishEvent(ctx context.Context, event types.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if _, err := p.mq.Publish(ctx, p.channel, data, map[string]string{"type": string(event.Type)}); err != nil {
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}
	return nil
}

// SubscribeEvents decodes every message on the channel and hands it to fn.
// Messages that do not decode are acknowledged and dropped.
func (p *EventPublisher) SubscribeEvents(ctx context.Context, fn func(context.Context, types.Event) error) error {
	return p.mq.Subscribe(ctx, p.channel, func(ctx context.Context, msg Message) error {
		var event types.Event
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			return nil
		}
		return fn(ctx, event)
	})
}
