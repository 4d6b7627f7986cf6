package checkin

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-playground/validator/v10"

	"classcheckin/internal/metrics"
	"classcheckin/internal/queue"
)

// Service coordinates inserts, change notifications and deduplication.
type Service struct {
	repo        *Repository
	bus         queue.Queue
	dedupWindow time.Duration
	validate    *validator.Validate
	now         func() time.Time
}

// NewService creates a service backed by a repository. bus may be nil when
// nobody needs change notifications.
func NewService(repo *Repository, bus queue.Queue, dedupWindow time.Duration) *Service {
	if dedupWindow <= 0 {
		dedupWindow = 5 * time.Minute
	}
	return &Service{
		repo:        repo,
		bus:         bus,
		dedupWindow: dedupWindow,
		validate:    validator.New(),
		now:         time.Now,
	}
}

// Create inserts a record unconditionally and announces the change.
func (s *Service) Create(ctx context.Context, in NewRecord, source string) (Record, error) {
	if err := s.validate.Struct(in); err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	rec, err := s.repo.Insert(ctx, in)
	if err != nil {
		return Record{}, fmt.Errorf("insert check-in: %w", err)
	}
	metrics.CheckinsCreated.WithLabelValues(source).Inc()
	s.notify(ctx, rec.ID)
	return rec, nil
}

// CheckIn records name/email at the current time unless the same email
// checked in within the dedup window, in which case the earlier record is
// returned and created is false.
func (s *Service) CheckIn(ctx context.Context, name, email, source string) (rec Record, created bool, err error) {
	now := s.now().Unix()
	recent, err := s.repo.RecentByEmail(ctx, email, now-int64(s.dedupWindow/time.Second))
	if err != nil {
		return Record{}, false, fmt.Errorf("lookup recent check-in: %w", err)
	}
	if recent != nil {
		metrics.CheckinsDeduplicated.Inc()
		return *recent, false, nil
	}
	rec, err = s.Create(ctx, NewRecord{Name: name, Email: email, Timestamp: now}, source)
	if err != nil {
		return Record{}, false, err
	}
	return rec, true, nil
}

// List returns all records, or those matching email when non-empty.
func (s *Service) List(ctx context.Context, email string) ([]Record, error) {
	return s.repo.List(ctx, email)
}

func (s *Service) notify(ctx context.Context, id string) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(ctx, queue.Message{Type: queue.TypeCheckinsChanged, Body: []byte(id)}); err != nil {
		log.Printf("publish change for %s failed: %v", id, err)
	}
}
