package mq

import (
	"context"
	"errors"
	"strconv"
	"sync"
)

// Memory is an in-process broker. Published messages are buffered per
// channel and delivered to the subscriber of that channel, if any.
type Memory struct {
	mu     sync.Mutex
	nextID int
	queues map[string]chan Message
	closed bool
}

func NewMemory() *Memory {
	return &Memory{queues: make(map[string]chan Message)}
}

const memoryQueueSize = 256

func (m *Memory) queue(channel string) chan Message {
	q, ok := m.queues[channel]
	if !ok {
		q = make(chan Message, memoryQueueSize)
		m.queues[channel] = q
	}
	return q
}

func (m *Memory) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return "", errors.New("memory broker closed")
	}
	m.nextID++
	msg := Message{ID: strconv.Itoa(m.nextID), Data: data, Attributes: attrs}
	q := m.queue(channel)
	m.mu.Unlock()

	select {
	case q <- msg:
		return msg.ID, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Subscribe delivers messages until ctx is done. A message whose handler
// fails is not redelivered.
func (m *Memory) Subscribe(ctx context.Context, channel string, handler Handler) error {
	m.mu.Lock()
	q := m.queue(channel)
	m.mu.Unlock()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-q:
			_ = handler(ctx, msg)
		}
	}
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
