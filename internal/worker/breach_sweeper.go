package worker

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/events"
	"github.com/spec-kit/complaint-service/internal/observability"
	"github.com/spec-kit/complaint-service/internal/repository"
)

// BreachSweeper periodically looks for complaints past their SLA deadline and announces
// each breach once. Breach itself stays a read-time predicate; the sweeper only
// remembers which (complaint, deadline) pairs it already announced.
type BreachSweeper struct {
	complaints repository.ComplaintRepository
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
	interval   time.Duration
	now        func() time.Time

	mu       sync.Mutex
	notified map[string]time.Time
}

// BreachSweeperConfig bundles sweeper collaborators.
type BreachSweeperConfig struct {
	Complaints repository.ComplaintRepository
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
	Logger     *zap.Logger
	Interval   time.Duration
	Now        func() time.Time
}

// NewBreachSweeper constructs a sweeper.
func NewBreachSweeper(cfg BreachSweeperConfig) *BreachSweeper {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BreachSweeper{
		complaints: cfg.Complaints,
		dispatcher: cfg.Dispatcher,
		metrics:    cfg.Metrics,
		logger:     logger,
		interval:   cfg.Interval,
		now:        now,
		notified:   make(map[string]time.Time),
	}
}

// Run sweeps on every tick until ctx is cancelled.
func (s *BreachSweeper) Run(ctx context.Context) {
	if s.interval <= 0 {
		return
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	s.logger.Info("sla breach sweeper started", zap.Duration("interval", s.interval))
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("sla breach sweeper stopped")
			return
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil && ctx.Err() == nil {
				s.logger.Error("sla breach sweep failed", zap.Error(err))
			}
		}
	}
}

// Sweep publishes complaint_sla_breached for every newly breached complaint and returns
// how many were announced.
func (s *BreachSweeper) Sweep(ctx context.Context) (int, error) {
	now := s.now().UTC()
	var breached []domain.Complaint
	for offset := 0; ; offset += repository.MaxLimit {
		page, err := s.complaints.List(ctx, repository.ComplaintFilter{
			BreachedAt: &now,
			Limit:      repository.MaxLimit,
			Offset:     offset,
		})
		if err != nil {
			return 0, err
		}
		breached = append(breached, page...)
		if len(page) < repository.MaxLimit {
			break
		}
	}

	fresh := s.markNotified(breached)
	for i := range fresh {
		c := &fresh[i]
		s.logger.Warn("sla breached",
			zap.String("complaint_id", c.ID),
			zap.String("ticket_number", c.TicketNumber),
			zap.Time("sla_deadline", c.SLADeadline))
		if s.dispatcher == nil {
			continue
		}
		err := s.dispatcher.Publish(ctx, events.Event{
			ID:           uuid.NewString(),
			Type:         events.EventComplaintSLABreached,
			ComplaintID:  c.ID,
			TicketNumber: c.TicketNumber,
			Timestamp:    now,
			Payload: events.ComplaintSLABreachedPayload{
				Status:      c.Status,
				Priority:    c.Priority,
				SLADeadline: c.SLADeadline,
				DetectedAt:  now,
			},
		})
		if err != nil {
			s.logger.Warn("sla breach event delivery failed", zap.String("complaint_id", c.ID), zap.Error(err))
		}
	}
	s.metrics.RecordBreaches(len(fresh))
	return len(fresh), nil
}

// markNotified returns the complaints not yet announced for their current deadline and
// forgets complaints that are no longer breached, so a later re-breach is announced again.
func (s *BreachSweeper) markNotified(breached []domain.Complaint) []domain.Complaint {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]time.Time, len(breached))
	var fresh []domain.Complaint
	for _, c := range breached {
		seen[c.ID] = c.SLADeadline
		if last, ok := s.notified[c.ID]; ok && last.Equal(c.SLADeadline) {
			continue
		}
		fresh = append(fresh, c)
	}
	s.notified = seen
	return fresh
}
