// Package camera keeps the most recent frame from the camera's static image
// endpoint, re-fetching it on a schedule with a cache-busting key.
package camera

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"classcheckin/internal/metrics"
)

// ErrNoFrame is returned before the first successful fetch.
var ErrNoFrame = errors.New("no camera frame yet")

// maxFrameBytes caps a single image download.
const maxFrameBytes = 16 << 20

// Frame is one downloaded image.
type Frame struct {
	Data        []byte
	ContentType string
	Key         int64
	FetchedAt   time.Time
}

// Poller fetches the image endpoint on every tick.
type Poller struct {
	base    string
	http    *http.Client
	key     atomic.Int64
	onFrame func(context.Context, Frame)

	mu     sync.RWMutex
	latest *Frame
	sched  *cron.Cron
	cancel context.CancelFunc
}

// NewPoller creates a poller for imageURL. onFrame, when set, runs after
// each successful fetch on the poller's goroutine with the tick's context.
// Scheduled ticks carry no deadline, so onFrame bounds its own calls.
func NewPoller(imageURL string, onFrame func(context.Context, Frame)) *Poller {
	return &Poller{
		base:    imageURL,
		http:    &http.Client{Timeout: 5 * time.Second},
		onFrame: onFrame,
	}
}

// Key is the current cache-busting counter.
func (p *Poller) Key() int64 {
	return p.key.Load()
}

// URL is the image URL carrying the current key.
func (p *Poller) URL() string {
	return withKey(p.base, p.Key())
}

// Tick advances the key and fetches the image once. The key advances even
// when the fetch fails.
func (p *Poller) Tick(ctx context.Context) (Frame, error) {
	key := p.key.Add(1)
	frame, err := p.fetch(ctx, key)
	if err != nil {
		metrics.CameraFetches.WithLabelValues("error").Inc()
		return Frame{}, err
	}
	metrics.CameraFetches.WithLabelValues("ok").Inc()

	p.mu.Lock()
	p.latest = &frame
	p.mu.Unlock()

	if p.onFrame != nil {
		p.onFrame(ctx, frame)
	}
	return frame, nil
}

// Latest returns the most recent frame.
func (p *Poller) Latest() (Frame, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.latest == nil {
		return Frame{}, ErrNoFrame
	}
	return *p.latest, nil
}

// Start runs Tick on schedule (cron syntax, e.g. "@every 1s"). A tick that
// is still running when the next one is due causes that one to be skipped.
// The image download is bounded by the HTTP client timeout.
func (p *Poller) Start(schedule string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sched != nil {
		return errors.New("camera: poller already started")
	}
	ctx, cancel := context.WithCancel(context.Background())
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	_, err := c.AddFunc(schedule, func() {
		if _, err := p.Tick(ctx); err != nil && ctx.Err() == nil {
			log.Printf("camera: %v", err)
		}
	})
	if err != nil {
		cancel()
		return fmt.Errorf("camera: schedule %q: %w", schedule, err)
	}
	c.Start()
	p.sched = c
	p.cancel = cancel
	return nil
}

// Stop cancels the schedule and any running tick, then waits for it.
func (p *Poller) Stop() {
	p.mu.Lock()
	c, cancel := p.sched, p.cancel
	p.sched, p.cancel = nil, nil
	p.mu.Unlock()
	if c != nil {
		cancel()
		<-c.Stop().Done()
	}
}

func (p *Poller) fetch(ctx context.Context, key int64) (Frame, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, withKey(p.base, key), nil)
	if err != nil {
		return Frame{}, fmt.Errorf("camera: build request: %w", err)
	}
	resp, err := p.http.Do(req)
	if err != nil {
		return Frame{}, fmt.Errorf("camera: fetch: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Frame{}, fmt.Errorf("camera: fetch returned %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFrameBytes))
	if err != nil {
		return Frame{}, fmt.Errorf("camera: read frame: %w", err)
	}
	ct := resp.Header.Get("Content-Type")
	if ct == "" {
		ct = http.DetectContentType(data)
	}
	return Frame{Data: data, ContentType: ct, Key: key, FetchedAt: time.Now()}, nil
}

func withKey(base string, key int64) string {
	u, err := url.Parse(base)
	if err != nil {
		return base + "?key=" + strconv.FormatInt(key, 10)
	}
	q := u.Query()
	q.Set("key", strconv.FormatInt(key, 10))
	u.RawQuery = q.Encode()
	return u.String()
}
