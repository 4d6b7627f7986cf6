package queue

import (
	"context"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
)

const (
	// TypeCheckinsChanged announces that the check-in table has new rows.
	TypeCheckinsChanged = "checkins.changed"
	// TypeRecognizerState carries the recognizer's status for the
	// classroom device, e.g. "SUCCESS" or "ALREADY_SCANNED".
	TypeRecognizerState = "recognizer.state"
)

// Message is a change notification.
type Message struct {
	Type string
	Body []byte
}

// Queue is the abstraction over different backends. Every consumer sees
// every published message.
type Queue interface {
	Publish(ctx context.Context, msg Message) error
	Consume(ctx context.Context) (<-chan Message, error)
}

// InMemory fans messages out to consumers inside one process.
type InMemory struct {
	size int
	mu   sync.Mutex
	subs map[chan Message]struct{}
}

// NewInMemory creates a fan-out queue with a per-consumer buffer of size.
func NewInMemory(size int) *InMemory {
	if size <= 0 {
		size = 16
	}
	return &InMemory{size: size, subs: make(map[chan Message]struct{})}
}

// Publish delivers msg to every consumer. A consumer whose buffer is full
// misses the message; notifications are level-triggered so the next one
// carries the same information.
func (q *InMemory) Publish(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	for ch := range q.subs {
		select {
		case ch <- msg:
		default:
		}
	}
	return nil
}

// Consume registers a consumer until ctx is cancelled.
func (q *InMemory) Consume(ctx context.Context) (<-chan Message, error) {
	ch := make(chan Message, q.size)
	q.mu.Lock()
	q.subs[ch] = struct{}{}
	q.mu.Unlock()

	go func() {
		<-ctx.Done()
		q.mu.Lock()
		delete(q.subs, ch)
		close(ch)
		q.mu.Unlock()
	}()
	return ch, nil
}

// Consumers returns the number of registered consumers.
func (q *InMemory) Consumers() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.subs)
}

// RedisQueue broadcasts over a Redis pub/sub channel so every API instance
// and the recognizer worker share notifications.
type RedisQueue struct {
	client  *redis.Client
	channel string
}

// NewRedisQueue builds a queue using PUBLISH/SUBSCRIBE semantics.
func NewRedisQueue(client *redis.Client, channel string) *RedisQueue {
	if channel == "" {
		channel = "checkins:changed"
	}
	return &RedisQueue{client: client, channel: channel}
}

// Publish sends a message to all subscribers.
func (q *RedisQueue) Publish(ctx context.Context, msg Message) error {
	return q.client.Publish(ctx, q.channel, serialize(msg)).Err()
}

// Consume subscribes to the channel and streams decoded messages.
func (q *RedisQueue) Consume(ctx context.Context) (<-chan Message, error) {
	sub := q.client.Subscribe(ctx, q.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, err
	}
	out := make(chan Message)
	go func() {
		defer close(out)
		defer sub.Close()
		in := sub.Channel()
		for {
			select {
			case m, ok := <-in:
				if !ok {
					return
				}
				select {
				case out <- deserialize(m.Payload):
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// serialize stores messages as Type|Body.
func serialize(msg Message) string {
	return msg.Type + "|" + string(msg.Body)
}

func deserialize(s string) Message {
	typ, body, ok := strings.Cut(s, "|")
	if !ok {
		return Message{Body: []byte(s)}
	}
	return Message{Type: typ, Body: []byte(body)}
}
