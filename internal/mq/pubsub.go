package mq

import (
	"cmp"
	"context"
	"errors"
	"maps"
	"strings"
	"time"

	"cloud.google.com/go/pubsub"
	"github.com/iqac-smarttrack/apiserver/config"
	"google.golang.org/api/option"
)

// Pub/Sub accepts between 5 and 100 delivery attempts per dead-letter policy.
const (
	minDeliveryAttempts = 5
	maxDeliveryAttempts = 100
)

// Attributes added to every published message.
const (
	AttrContentType = "content_type"
	AttrPublishedAt = "published_at"
)

// PubSubClient carries events over Google Cloud Pub/Sub topics. Each
// channel gets a topic, a subscription and a dead-letter topic.
type PubSubClient struct {
	client             *pubsub.Client
	subscriptionSuffix string
	deadLetterSuffix   string
	maxAttempts        int
	now                func() time.Time
}

// NewPubSubClient connects to the project in cfg.
func NewPubSubClient(ctx context.Context, cfg config.PubSubConfig) (*PubSubClient, error) {
	if strings.TrimSpace(cfg.ProjectID) == "" {
		return nil, errors.New("pubsub project id is required")
	}

	var opts []option.ClientOption
	if strings.TrimSpace(cfg.CredentialsFile) != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := pubsub.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, err
	}

	return &PubSubClient{
		client:             client,
		subscriptionSuffix: cmp.Or(cfg.SubscriptionSuffix, "-sub"),
		deadLetterSuffix:   cmp.Or(cfg.DeadLetterSuffix, "-dead"),
		maxAttempts:        clampAttempts(cfg.MaxDeliveryAttempts),
		now:                time.Now,
	}, nil
}

// Publish sends data to the channel's topic as a JSON message and returns
// the server-assigned message id.
func (p *PubSubClient) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	if strings.TrimSpace(channel) == "" {
		return "", errors.New("pubsub channel is required")
	}

	topic, err := p.ensureTopic(ctx, channel)
	if err != nil {
		return "", err
	}
	result := topic.Publish(ctx, &pubsub.Message{
		Data:       data,
		Attributes: publishAttributes(attrs, p.now()),
	})
	return result.Get(ctx)
}

// Subscribe consumes the channel until ctx is done. A message whose handler
// fails is redelivered until it reaches the dead-letter limit.
func (p *PubSubClient) Subscribe(ctx context.Context, channel string, handler Handler) error {
	if strings.TrimSpace(channel) == "" {
		return errors.New("pubsub channel is required")
	}

	topic, err := p.ensureTopic(ctx, channel)
	if err != nil {
		return err
	}
	deadLetter, err := p.ensureTopic(ctx, channel+p.deadLetterSuffix)
	if err != nil {
		return err
	}
	sub, err := p.ensureSubscription(ctx, channel+p.subscriptionSuffix, subscriptionConfig(topic, deadLetter, p.maxAttempts))
	if err != nil {
		return err
	}

	return sub.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		err := handler(ctx, Message{
			ID:         msg.ID,
			Data:       msg.Data,
			Attributes: msg.Attributes,
		})
		settle(msg, msg.DeliveryAttempt, err)
	})
}

func (p *PubSubClient) Close() error {
	return p.client.Close()
}

func (p *PubSubClient) ensureTopic(ctx context.Context, name string) (*pubsub.Topic, error) {
	topic := p.client.Topic(name)
	exists, err := topic.Exists(ctx)
	if err != nil {
		return nil, err
	}
	if exists {
		return topic, nil
	}
	return p.client.CreateTopic(ctx, name)
}

func (p *PubSubClient) ensureSubscription(ctx context.Context, name string, cfg pubsub.SubscriptionConfig) (*pubsub.Subscription, error) {
	sub := p.client.Subscription(name)
	exists, err := sub.Exists(ctx)
	if err != nil {
		return nil, err
	}
	if exists {
		return sub, nil
	}
	return p.client.CreateSubscription(ctx, name, cfg)
}

func subscriptionConfig(topic, deadLetter *pubsub.Topic, maxAttempts int) pubsub.SubscriptionConfig {
	return pubsub.SubscriptionConfig{
		Topic: topic,
		DeadLetterPolicy: &pubsub.DeadLetterPolicy{
			DeadLetterTopic:     deadLetter.String(),
			MaxDeliveryAttempts: clampAttempts(maxAttempts),
		},
	}
}

func publishAttributes(attrs map[string]string, now time.Time) map[string]string {
	out := make(map[string]string, len(attrs)+2)
	maps.Copy(out, attrs)
	out[AttrContentType] = "application/json"
	out[AttrPublishedAt] = now.UTC().Format(time.RFC3339Nano)
	return out
}

type acknowledger interface {
	Ack()
	Nack()
}

// settle acks handled messages. A failed message is nacked only when its
// delivery attempt is tracked, which means a dead-letter policy bounds the
// retries. Without one it is dropped, as the broker would redeliver it
// forever.
func settle(msg acknowledger, deliveryAttempt *int, err error) {
	if err != nil && deliveryAttempt != nil {
		msg.Nack()
		return
	}
	msg.Ack()
}

func clampAttempts(n int) int {
	return min(max(n, minDeliveryAttempts), maxDeliveryAttempts)
}
