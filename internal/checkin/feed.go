package checkin

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrFeedStopped is returned when talking to a feed whose Run has returned.
var ErrFeedStopped = errors.New("feed stopped")

// Source pushes complete snapshots of the record set. Each callback replaces
// the previous snapshot; nothing is merged. The returned func unsubscribes.
type Source interface {
	OnSnapshot(ctx context.Context, fn func([]Record)) (unsubscribe func(), err error)
}

// Feed keeps a State on a single goroutine. Snapshot pushes, window
// selections and state reads are serialised through Run.
type Feed struct {
	src    Source
	now    func() time.Time
	loc    *time.Location
	render func(View)

	pushes  chan []Record
	selects chan Window
	queries chan chan State
	done    chan struct{}
}

// FeedOption configures a Feed.
type FeedOption func(*Feed)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) FeedOption {
	return func(f *Feed) { f.now = now }
}

// WithLocation sets the zone used for exported dates.
func WithLocation(loc *time.Location) FeedOption {
	return func(f *Feed) { f.loc = loc }
}

// WithRenderer is called on the feed goroutine after every state change.
func WithRenderer(render func(View)) FeedOption {
	return func(f *Feed) { f.render = render }
}

// NewFeed creates a feed that starts in the loading phase.
func NewFeed(src Source, opts ...FeedOption) *Feed {
	f := &Feed{
		src:     src,
		now:     time.Now,
		loc:     time.Local,
		pushes:  make(chan []Record),
		selects: make(chan Window),
		queries: make(chan chan State),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Run subscribes to the source and processes events until ctx is done,
// then unsubscribes. It must be called once.
func (f *Feed) Run(ctx context.Context) error {
	defer close(f.done)

	unsubscribe, err := f.src.OnSnapshot(ctx, func(records []Record) {
		select {
		case f.pushes <- records:
		case <-f.done:
		case <-ctx.Done():
		}
	})
	if err != nil {
		return fmt.Errorf("feed: subscribe: %w", err)
	}
	defer unsubscribe()

	var state State
	f.emit(state)
	for {
		select {
		case <-ctx.Done():
			return nil
		case records := <-f.pushes:
			state = state.WithSnapshot(records)
			f.emit(state)
		case w := <-f.selects:
			state = state.WithWindow(w)
			f.emit(state)
		case reply := <-f.queries:
			reply <- state
		}
	}
}

// Select changes the window.
func (f *Feed) Select(ctx context.Context, w Window) error {
	select {
	case f.selects <- w:
		return nil
	case <-f.done:
		return ErrFeedStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// State returns the current state.
func (f *Feed) State(ctx context.Context) (State, error) {
	reply := make(chan State, 1)
	select {
	case f.queries <- reply:
	case <-f.done:
		return State{}, ErrFeedStopped
	case <-ctx.Done():
		return State{}, ctx.Err()
	}
	return <-reply, nil
}

// Export renders the records currently visible. ok is false when there is
// nothing to export, in which case no file should be produced.
func (f *Feed) Export(ctx context.Context) (table Table, ok bool, err error) {
	state, err := f.State(ctx)
	if err != nil {
		return Table{}, false, err
	}
	now := f.now()
	table, ok = state.Export(now.Unix(), now, f.loc)
	return table, ok, nil
}

func (f *Feed) emit(s State) {
	if f.render != nil {
		f.render(s.View(f.now().Unix()))
	}
}
