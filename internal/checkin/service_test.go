package checkin

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"classcheckin/internal/queue"
)

func setupTestService(t *testing.T) (*Service, *queue.InMemory) {
	t.Helper()
	bus := queue.NewInMemory(8)
	svc := NewService(setupTestRepository(t), bus, 5*time.Minute)
	return svc, bus
}

func TestService_CreatePublishesChange(t *testing.T) {
	svc, bus := setupTestService(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	msgs, err := bus.Consume(ctx)
	require.NoError(t, err)

	rec, err := svc.Create(ctx, NewRecord{Name: "Ada", Email: "ada@example.com", Timestamp: 1700000000}, "test")
	require.NoError(t, err)

	select {
	case msg := <-msgs:
		assert.Equal(t, queue.TypeCheckinsChanged, msg.Type)
		assert.Equal(t, rec.ID, string(msg.Body))
	case <-time.After(time.Second):
		t.Fatal("no change notification")
	}
}

func TestService_CreateAcceptsEpochZero(t *testing.T) {
	svc, _ := setupTestService(t)

	rec, err := svc.Create(context.Background(), NewRecord{Name: "n", Email: "e", Timestamp: 0}, "test")
	require.NoError(t, err)
	assert.Equal(t, int64(0), rec.Timestamp)
}

func TestService_CreateRejectsMissingFields(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	cases := map[string]NewRecord{
		"no name":  {Email: "e", Timestamp: 1},
		"no email": {Name: "n", Timestamp: 1},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Create(ctx, in, "test")
			assert.ErrorIs(t, err, ErrInvalidRecord)
		})
	}

	all, err := svc.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestService_CreateAcceptsAnyEmailText(t *testing.T) {
	svc, _ := setupTestService(t)
	rec, err := svc.Create(context.Background(), NewRecord{Name: "Smith, John", Email: "not an email", Timestamp: 1}, "test")
	require.NoError(t, err)
	assert.Equal(t, "not an email", rec.Email)
}

func TestService_CheckInDeduplicates(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()
	now := time.Unix(1700000000, 0)
	svc.now = func() time.Time { return now }

	first, created, err := svc.CheckIn(ctx, "Loya Niu", "zn23", "test")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, now.Unix(), first.Timestamp)

	now = now.Add(2 * time.Minute)
	again, created, err := svc.CheckIn(ctx, "Loya Niu", "zn23", "test")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, again.ID)

	now = now.Add(4 * time.Minute)
	later, created, err := svc.CheckIn(ctx, "Loya Niu", "zn23", "test")
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, first.ID, later.ID)

	all, err := svc.List(ctx, "zn23")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
