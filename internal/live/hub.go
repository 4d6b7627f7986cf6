// Package live pushes full check-in snapshots to websocket subscribers.
package live

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/olahol/melody"

	"classcheckin/internal/checkin"
	"classcheckin/internal/metrics"
	"classcheckin/internal/queue"
)

// FrameSnapshot is the only frame type sent to subscribers.
const FrameSnapshot = "snapshot"

// Frame is one websocket message. Records is always the complete set.
type Frame struct {
	Type    string           `json:"type"`
	Records []checkin.Record `json:"records"`
}

// Lister loads the current record set.
type Lister interface {
	List(ctx context.Context, email string) ([]checkin.Record, error)
}

// Hub sends a snapshot to each new subscriber and rebroadcasts a fresh one
// whenever the bus reports a change.
//
// mu serialises listing and writing, so a subscriber never receives an
// older snapshot after a newer one.
type Hub struct {
	m       *melody.Melody
	lister  Lister
	bus     queue.Queue
	timeout time.Duration

	mu       sync.Mutex
	sessions map[*melody.Session]struct{}
}

// NewHub wires a melody instance to the lister and bus.
func NewHub(lister Lister, bus queue.Queue) *Hub {
	h := &Hub{
		m:        melody.New(),
		lister:   lister,
		bus:      bus,
		timeout:  5 * time.Second,
		sessions: make(map[*melody.Session]struct{}),
	}
	h.m.Config.MaxMessageSize = 1024
	h.m.HandleConnect(h.onConnect)
	h.m.HandleDisconnect(h.onDisconnect)
	return h
}

// Handle upgrades the request and blocks until the subscriber leaves.
func (h *Hub) Handle(c *gin.Context) {
	if err := h.m.HandleRequest(c.Writer, c.Request); err != nil {
		log.Printf("live: websocket upgrade failed: %v", err)
	}
}

// Start subscribes to the bus and broadcasts on every change until ctx ends.
// The subscription is in place when Start returns.
func (h *Hub) Start(ctx context.Context) error {
	msgs, err := h.bus.Consume(ctx)
	if err != nil {
		return fmt.Errorf("live: consume changes: %w", err)
	}
	go func() {
		for msg := range msgs {
			if msg.Type != queue.TypeCheckinsChanged {
				continue
			}
			if err := h.Broadcast(ctx); err != nil {
				log.Printf("live: broadcast failed: %v", err)
			}
		}
	}()
	return nil
}

// Broadcast sends the current snapshot to every subscriber.
func (h *Hub) Broadcast(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	frame, err := h.snapshotFrame(ctx)
	if err != nil {
		return err
	}
	for s := range h.sessions {
		if err := s.Write(frame); err != nil {
			log.Printf("live: broadcast write failed: %v", err)
		}
	}
	metrics.LiveBroadcasts.Inc()
	return nil
}

// Sessions returns the number of connected subscribers.
func (h *Hub) Sessions() int {
	return h.m.Len()
}

// Close disconnects every subscriber.
func (h *Hub) Close() error {
	return h.m.Close()
}

func (h *Hub) onConnect(s *melody.Session) {
	metrics.LiveSessions.Inc()
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sessions[s] = struct{}{}

	frame, err := h.snapshotFrame(context.Background())
	if err != nil {
		// the subscriber stays in its loading state until the next change
		log.Printf("live: initial snapshot failed: %v", err)
		return
	}
	if err := s.Write(frame); err != nil {
		log.Printf("live: initial snapshot write failed: %v", err)
	}
}

func (h *Hub) onDisconnect(s *melody.Session) {
	metrics.LiveSessions.Dec()
	h.mu.Lock()
	delete(h.sessions, s)
	h.mu.Unlock()
}

func (h *Hub) snapshotFrame(ctx context.Context) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()
	records, err := h.lister.List(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("live: list check-ins: %w", err)
	}
	if records == nil {
		records = []checkin.Record{}
	}
	return json.Marshal(Frame{Type: FrameSnapshot, Records: records})
}
