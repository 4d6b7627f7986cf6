package queue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryFanOut(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := NewInMemory(4)
	a, err := q.Consume(ctx)
	require.NoError(t, err)
	b, err := q.Consume(ctx)
	require.NoError(t, err)

	require.NoError(t, q.Publish(ctx, Message{Type: TypeCheckinsChanged, Body: []byte("id-1")}))

	for _, ch := range []<-chan Message{a, b} {
		select {
		case msg := <-ch:
			assert.Equal(t, TypeCheckinsChanged, msg.Type)
			assert.Equal(t, "id-1", string(msg.Body))
		case <-time.After(time.Second):
			t.Fatal("consumer did not receive message")
		}
	}
}

func TestInMemoryConsumerRemovedOnCancel(t *testing.T) {
	q := NewInMemory(1)
	ctx, cancel := context.WithCancel(context.Background())

	ch, err := q.Consume(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, q.Consumers())

	cancel()
	_, open := <-ch
	assert.False(t, open)
	assert.Equal(t, 0, q.Consumers())
}

func TestInMemoryPublishDoesNotBlockOnFullConsumer(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := NewInMemory(1)
	_, err := q.Consume(ctx)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		require.NoError(t, q.Publish(ctx, Message{Type: TypeCheckinsChanged}))
	}
}

func TestSerializeRoundTrip(t *testing.T) {
	msg := deserialize(serialize(Message{Type: TypeCheckinsChanged, Body: []byte("a|b")}))
	assert.Equal(t, TypeCheckinsChanged, msg.Type)
	assert.Equal(t, "a|b", string(msg.Body))

	raw := deserialize("no-separator")
	assert.Equal(t, "", raw.Type)
	assert.Equal(t, "no-separator", string(raw.Body))
}
