package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/kursadbilgin/outreach-pipeline/internal/domain"
	"github.com/kursadbilgin/outreach-pipeline/internal/observability"
	"github.com/kursadbilgin/outreach-pipeline/internal/repository"
	"go.uber.org/zap"
)

const (
	defaultFollowUpScanInterval = 10 * time.Second
	defaultFollowUpDueAfter     = 60 * time.Second
	defaultFollowUpScanLimit    = 100
	defaultSchedulerTickTimeout = 30 * time.Second
	lockReleaseTimeout          = 2 * time.Second
)

var ErrSchedulerRunning = errors.New("follow-up scheduler is already running")

// FollowUpper sends a follow-up to a single lead.
type FollowUpper interface {
	FollowUp(ctx context.Context, leadID string) (*Outcome, error)
}

// TickLocker serializes scheduler ticks across replicas. Acquire reports
// false without error when another holder owns the lock.
type TickLocker interface {
	Acquire(ctx context.Context) (release func(context.Context) error, acquired bool, err error)
}

type noopLocker struct{}

func (noopLocker) Acquire(context.Context) (func(context.Context) error, bool, error) {
	return func(context.Context) error { return nil }, true, nil
}

type SchedulerConfig struct {
	Interval    time.Duration
	DueAfter    time.Duration
	Limit       int
	TickTimeout time.Duration
}

func (c SchedulerConfig) withDefaults() SchedulerConfig {
	if c.Interval <= 0 {
		c.Interval = defaultFollowUpScanInterval
	}
	if c.DueAfter <= 0 {
		c.DueAfter = defaultFollowUpDueAfter
	}
	if c.Limit <= 0 {
		c.Limit = defaultFollowUpScanLimit
	}
	if c.TickTimeout <= 0 {
		c.TickTimeout = defaultSchedulerTickTimeout
	}
	return c
}

type scanResult struct {
	Due      int
	Sent     int
	Rejected int
	Failed   int
}

// FollowUpScheduler periodically sends follow-ups to leads whose last
// contact is older than the due threshold.
type FollowUpScheduler struct {
	leads     repository.LeadRepository
	followUps FollowUpper
	locker    TickLocker
	logger    *zap.Logger
	metrics   *observability.Metrics
	cfg       SchedulerConfig
	now       func() time.Time

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

func NewFollowUpScheduler(
	leads repository.LeadRepository,
	followUps FollowUpper,
	cfg SchedulerConfig,
	logger *zap.Logger,
) (*FollowUpScheduler, error) {
	if leads == nil {
		return nil, fmt.Errorf("lead repository is required")
	}
	if followUps == nil {
		return nil, fmt.Errorf("follow-up service is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	done := make(chan struct{})
	close(done)

	return &FollowUpScheduler{
		leads:     leads,
		followUps: followUps,
		locker:    noopLocker{},
		logger:    logger,
		cfg:       cfg.withDefaults(),
		now:       time.Now,
		done:      done,
	}, nil
}

func (s *FollowUpScheduler) SetLocker(locker TickLocker) {
	if s == nil || locker == nil {
		return
	}
	s.locker = locker
}

func (s *FollowUpScheduler) SetMetrics(metrics *observability.Metrics) {
	if s == nil {
		return
	}
	s.metrics = metrics
}

// Start runs an initial scan and then one scan per interval until ctx is
// canceled or Stop is called. Scans run in the calling goroutine, so they
// never overlap.
func (s *FollowUpScheduler) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return ErrSchedulerRunning
	}
	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.running = true
	s.cancel = cancel
	s.done = done
	s.mu.Unlock()

	defer func() {
		cancel()
		s.mu.Lock()
		s.running = false
		s.cancel = nil
		s.mu.Unlock()
		close(done)
	}()

	s.logger.Info("follow-up scheduler started",
		zap.Duration("interval", s.cfg.Interval),
		zap.Duration("dueAfter", s.cfg.DueAfter),
		zap.Int("limit", s.cfg.Limit),
	)

	// Leads already due at startup should not wait for the first ticker edge.
	s.tick(loopCtx)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-loopCtx.Done():
			s.logger.Info("follow-up scheduler stopped")
			return nil
		case <-ticker.C:
			s.tick(loopCtx)
		}
	}
}

// Stop cancels the loop and waits for an in-flight scan to finish.
func (s *FollowUpScheduler) Stop() {
	if s == nil {
		return
	}

	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	<-done
}

// Done is closed once the scheduler is not running.
func (s *FollowUpScheduler) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

func (s *FollowUpScheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *FollowUpScheduler) tick(loopCtx context.Context) {
	if loopCtx.Err() != nil {
		return
	}

	// A started scan finishes even if shutdown begins mid-tick.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(loopCtx), s.cfg.TickTimeout)
	defer cancel()

	release, acquired, err := s.locker.Acquire(ctx)
	if err != nil {
		s.logger.Error("follow-up scheduler lock failed", zap.Error(err))
		return
	}
	if !acquired {
		s.logger.Debug("follow-up scan skipped, lock held by another replica")
		return
	}
	defer func() {
		// The tick context may already be past its deadline here.
		releaseCtx, releaseCancel := context.WithTimeout(context.WithoutCancel(ctx), lockReleaseTimeout)
		defer releaseCancel()

		if err := release(releaseCtx); err != nil {
			s.logger.Warn("follow-up scheduler unlock failed", zap.Error(err))
		}
	}()

	start := s.now()
	result, err := s.scanDue(ctx)
	s.metrics.ObserveFollowUpScan(s.now().Sub(start))
	if err != nil {
		s.logger.Error("follow-up scan failed", zap.Error(err))
		return
	}

	if result.Due > 0 {
		s.logger.Info("follow-up scan complete",
			zap.Int("due", result.Due),
			zap.Int("sent", result.Sent),
			zap.Int("rejected", result.Rejected),
			zap.Int("failed", result.Failed),
		)
	}
}

func (s *FollowUpScheduler) scanDue(ctx context.Context) (scanResult, error) {
	var result scanResult

	threshold := s.now().UTC().Add(-s.cfg.DueAfter)
	dueLeads, err := s.leads.FindDueForFollowUp(ctx, domain.FollowUpEligibleStatuses(), threshold, s.cfg.Limit)
	if err != nil {
		return result, fmt.Errorf("failed to fetch leads due for follow-up: %w", err)
	}
	result.Due = len(dueLeads)

	scanCtx := WithTrigger(ctx, TriggerScheduler)
	for i := range dueLeads {
		lead := dueLeads[i]

		outcome, err := s.followUps.FollowUp(scanCtx, lead.ID)
		if err != nil {
			result.Failed++
			s.metrics.IncFollowUpScanLead("failed")
			s.logger.Error("automated follow-up failed",
				zap.String("leadId", lead.ID),
				zap.Error(err),
			)
			continue
		}
		if !outcome.Applied {
			result.Rejected++
			s.metrics.IncFollowUpScanLead("rejected")
			s.logger.Debug("automated follow-up not applicable",
				zap.String("leadId", lead.ID),
				zap.String("status", outcome.Status.String()),
			)
			continue
		}

		result.Sent++
		s.metrics.IncFollowUpScanLead("sent")
	}

	return result, nil
}
