// Package recognizer turns camera frames into check-ins via the face service.
package recognizer

import (
	"context"
	"fmt"
	"log"

	"classcheckin/internal/camera"
	"classcheckin/internal/checkin"
	"classcheckin/internal/faceclient"
	"classcheckin/internal/metrics"
	"classcheckin/internal/queue"
)

// Source labels check-ins created by the recognizer.
const Source = "recognizer"

// State is the status shown on the classroom device.
type State string

const (
	StateIdle           State = "IDLE"
	StateScanning       State = "SCANNING"
	StateSuccess        State = "SUCCESS"
	StateFailure        State = "FAILURE"
	StateAlreadyScanned State = "ALREADY_SCANNED"
	StateError          State = "ERROR"
)

// Matcher identifies the face in an image.
type Matcher interface {
	Recognize(ctx context.Context, image []byte, filename string) (*faceclient.Match, error)
}

// Recorder stores a check-in, deduplicating repeats.
type Recorder interface {
	CheckIn(ctx context.Context, name, email, source string) (checkin.Record, bool, error)
}

// Recognizer handles one frame at a time.
type Recognizer struct {
	face   Matcher
	rec    Recorder
	states queue.Queue
}

// Option configures a Recognizer.
type Option func(*Recognizer)

// WithStates publishes every state change on q as a TypeRecognizerState
// message whose body is the state name.
func WithStates(q queue.Queue) Option {
	return func(r *Recognizer) { r.states = q }
}

// New creates a recognizer.
func New(face Matcher, rec Recorder, opts ...Option) *Recognizer {
	r := &Recognizer{face: face, rec: rec}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Announce publishes s. Failures are logged; the device simply keeps its
// previous state.
func (r *Recognizer) Announce(ctx context.Context, s State) {
	if r.states == nil {
		return
	}
	if err := r.states.Publish(ctx, queue.Message{Type: queue.TypeRecognizerState, Body: []byte(s)}); err != nil {
		log.Printf("publish state %s failed: %v", s, err)
	}
}

// HandleFrame recognises the frame and records a check-in for a match.
// It returns the new record, or nil when nobody was recognised or the
// person had already checked in recently.
//
// States: SCANNING while the face service runs, then SUCCESS for a new
// check-in, ALREADY_SCANNED for a repeat, FAILURE for an identity that
// cannot be parsed, ERROR when a call fails and IDLE when nobody matched.
func (r *Recognizer) HandleFrame(ctx context.Context, frame camera.Frame) (*checkin.Record, error) {
	r.Announce(ctx, StateScanning)
	match, err := r.face.Recognize(ctx, frame.Data, "latest_image.jpg")
	if err != nil {
		metrics.FaceRecognitions.WithLabelValues("error").Inc()
		r.Announce(ctx, StateError)
		return nil, fmt.Errorf("recognize frame %d: %w", frame.Key, err)
	}
	if !match.Matched {
		metrics.FaceRecognitions.WithLabelValues("unmatched").Inc()
		r.Announce(ctx, StateIdle)
		return nil, nil
	}
	metrics.FaceRecognitions.WithLabelValues("matched").Inc()

	email, name, ok := faceclient.ParseIdentity(match.Identity)
	if !ok {
		log.Printf("identity %q not in <email>_<First-Last> form, skipping", match.Identity)
		r.Announce(ctx, StateFailure)
		return nil, nil
	}

	rec, created, err := r.rec.CheckIn(ctx, name, email, Source)
	if err != nil {
		r.Announce(ctx, StateError)
		return nil, err
	}
	if !created {
		log.Printf("%s (%s) already checked in at %d", name, email, rec.Timestamp)
		r.Announce(ctx, StateAlreadyScanned)
		return nil, nil
	}
	log.Printf("recognized %s (%s), check-in %s", name, email, rec.ID)
	r.Announce(ctx, StateSuccess)
	return &rec, nil
}
