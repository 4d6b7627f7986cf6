package checkin

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	mu           sync.Mutex
	fn           func([]Record)
	subscribed   chan struct{}
	unsubscribed chan struct{}
	err          error
}

func newFakeSource() *fakeSource {
	return &fakeSource{subscribed: make(chan struct{}), unsubscribed: make(chan struct{})}
}

func (s *fakeSource) OnSnapshot(_ context.Context, fn func([]Record)) (func(), error) {
	if s.err != nil {
		return nil, s.err
	}
	s.mu.Lock()
	s.fn = fn
	s.mu.Unlock()
	close(s.subscribed)
	return func() { close(s.unsubscribed) }, nil
}

func (s *fakeSource) push(rs []Record) {
	s.mu.Lock()
	fn := s.fn
	s.mu.Unlock()
	fn(rs)
}

func startFeed(t *testing.T, src *fakeSource, views chan View) (*Feed, context.CancelFunc, chan error) {
	t.Helper()
	clock := func() time.Time { return time.Unix(10000, 0) }
	f := NewFeed(src,
		WithClock(clock),
		WithLocation(time.UTC),
		WithRenderer(func(v View) { views <- v }),
	)
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- f.Run(ctx) }()

	select {
	case <-src.subscribed:
	case <-time.After(time.Second):
		t.Fatal("feed did not subscribe")
	}
	return f, cancel, errCh
}

func nextView(t *testing.T, views chan View) View {
	t.Helper()
	select {
	case v := <-views:
		return v
	case <-time.After(time.Second):
		t.Fatal("no view rendered")
		return View{}
	}
}

func TestFeedLifecycle(t *testing.T) {
	src := newFakeSource()
	views := make(chan View, 16)
	f, cancel, errCh := startFeed(t, src, views)

	assert.Equal(t, PhaseLoading, nextView(t, views).Phase)

	src.push(records(9000, 9900, 100))
	v := nextView(t, views)
	assert.Equal(t, PhaseReady, v.Phase)
	require.Len(t, v.Entries, 3)
	assert.Equal(t, int64(9900), v.Entries[0].Timestamp)

	require.NoError(t, f.Select(context.Background(), WindowLast30Min))
	v = nextView(t, views)
	assert.Len(t, v.Entries, 2)

	src.push(records(9950))
	v = nextView(t, views)
	require.Len(t, v.Entries, 1, "each push replaces the snapshot")
	assert.Equal(t, WindowLast30Min, v.Window, "window survives pushes")

	cancel()
	require.NoError(t, <-errCh)
	select {
	case <-src.unsubscribed:
	case <-time.After(time.Second):
		t.Fatal("feed did not unsubscribe on teardown")
	}

	assert.ErrorIs(t, f.Select(context.Background(), WindowAll), ErrFeedStopped)
	_, err := f.State(context.Background())
	assert.ErrorIs(t, err, ErrFeedStopped)
}

func TestFeedExport(t *testing.T) {
	src := newFakeSource()
	views := make(chan View, 16)
	f, cancel, errCh := startFeed(t, src, views)
	defer func() {
		cancel()
		<-errCh
	}()
	nextView(t, views)

	_, ok, err := f.Export(context.Background())
	require.NoError(t, err)
	assert.False(t, ok, "nothing to export while loading")

	src.push(records(100, 9500))
	nextView(t, views)
	require.NoError(t, f.Select(context.Background(), WindowLast30Min))
	nextView(t, views)

	table, ok, err := f.Export(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, table.Rows)
	assert.Equal(t, "checkin-records-1970-01-01.csv", table.Filename)

	require.NoError(t, f.Select(context.Background(), WindowAll))
	nextView(t, views)
	table, ok, err = f.Export(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2, table.Rows)
}

func TestFeedSubscribeError(t *testing.T) {
	src := newFakeSource()
	src.err = errors.New("store unreachable")

	f := NewFeed(src)
	err := f.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, src.err)
}
