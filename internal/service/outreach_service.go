package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kursadbilgin/outreach-pipeline/internal/delivery"
	"github.com/kursadbilgin/outreach-pipeline/internal/domain"
	"github.com/kursadbilgin/outreach-pipeline/internal/observability"
	"github.com/kursadbilgin/outreach-pipeline/internal/repository"
	"go.uber.org/zap"
)

const (
	// maxTransitionAttempts bounds re-reads after losing a status compare-and-set.
	maxTransitionAttempts  = 5
	defaultDeliveryTimeout = 10 * time.Second
	defaultFromAddress     = "outreach@pipeline.local"

	deliveryResultSent            = "sent"
	deliveryResultFailedTransient = "failed_transient"
	deliveryResultFailedPermanent = "failed_permanent"
)

// Trigger records what initiated an outreach email.
type Trigger string

const (
	TriggerManual    Trigger = "manual"
	TriggerScheduler Trigger = "scheduler"
)

type triggerKey struct{}

// WithTrigger marks ctx as originating from trigger.
func WithTrigger(ctx context.Context, trigger Trigger) context.Context {
	return context.WithValue(ctx, triggerKey{}, trigger)
}

func triggerFromContext(ctx context.Context) Trigger {
	if trigger, ok := ctx.Value(triggerKey{}).(Trigger); ok && trigger != "" {
		return trigger
	}
	return TriggerManual
}

// Outcome describes the result of an action on a lead. A rejected action is
// an outcome with Applied false, not an error.
type Outcome struct {
	LeadID   string
	Event    domain.Event
	Previous domain.Status
	Status   domain.Status
	Result   domain.Outcome
	Applied  bool
	Message  string
	SentDate *time.Time
	Subject  string
	To       string
}

type OutreachService struct {
	leads           repository.LeadRepository
	sender          delivery.Sender
	from            string
	logger          *zap.Logger
	metrics         *observability.Metrics
	storeTimeout    time.Duration
	deliveryTimeout time.Duration
	now             func() time.Time
}

func NewOutreachService(
	leads repository.LeadRepository,
	sender delivery.Sender,
	from string,
	logger *zap.Logger,
) (*OutreachService, error) {
	if leads == nil {
		return nil, fmt.Errorf("lead repository is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if sender == nil {
		sender = delivery.NewLogSender(logger)
	}
	if strings.TrimSpace(from) == "" {
		from = defaultFromAddress
	}

	return &OutreachService{
		leads:           leads,
		sender:          sender,
		from:            strings.TrimSpace(from),
		logger:          logger,
		storeTimeout:    defaultStoreTimeout,
		deliveryTimeout: defaultDeliveryTimeout,
		now:             time.Now,
	}, nil
}

func (s *OutreachService) SetMetrics(metrics *observability.Metrics) {
	if s == nil {
		return
	}
	s.metrics = metrics
}

func (s *OutreachService) SetStoreTimeout(timeout time.Duration) {
	if s == nil || timeout <= 0 {
		return
	}
	s.storeTimeout = timeout
}

// Send simulates the first outreach email to a pending lead.
func (s *OutreachService) Send(ctx context.Context, leadID string) (*Outcome, error) {
	return s.transition(ctx, leadID, domain.EventSend)
}

// FollowUp simulates a follow-up email to a lead that was sent or opened.
// Both the HTTP layer and the scheduler call it.
func (s *OutreachService) FollowUp(ctx context.Context, leadID string) (*Outcome, error) {
	return s.transition(ctx, leadID, domain.EventFollowUp)
}

// Track records an externally reported engagement action.
func (s *OutreachService) Track(ctx context.Context, leadID string, action string) (*Outcome, error) {
	event, err := domain.ParseEngagementAction(action)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, leadID, event)
}

func (s *OutreachService) transition(ctx context.Context, leadID string, event domain.Event) (*Outcome, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	leadID = strings.TrimSpace(leadID)
	if leadID == "" {
		return nil, fmt.Errorf("%w: lead id is required", domain.ErrValidation)
	}

	logger := observability.LeadLogger(s.logger, ctx, leadID)

	for attempt := 1; attempt <= maxTransitionAttempts; attempt++ {
		lead, err := s.getLead(ctx, leadID)
		if err != nil {
			return nil, err
		}

		decision := domain.Decide(lead.Status, event)
		outcome := &Outcome{
			LeadID:   leadID,
			Event:    event,
			Previous: lead.Status,
			Status:   lead.Status,
			Result:   decision.Outcome,
			Message:  decision.Message(leadID),
			SentDate: lead.SentDate,
		}
		if !decision.Changed() {
			return outcome, nil
		}

		var (
			msg    *delivery.Message
			sentAt *time.Time
		)
		if decision.SetsSentDate {
			rendered, err := s.render(event, lead)
			if err != nil {
				return nil, err
			}
			msg = &rendered
			now := s.now().UTC()
			sentAt = &now
		}

		won, err := s.compareAndSet(ctx, leadID, decision.From, decision.To, sentAt)
		if err != nil {
			return nil, fmt.Errorf("failed to update lead %s: %w", leadID, err)
		}
		if !won {
			logger.Debug("lead status changed concurrently, re-reading",
				zap.String("event", event.String()),
				zap.String("expected", decision.From.String()),
				zap.Int("attempt", attempt),
			)
			continue
		}

		outcome.Applied = true
		outcome.Status = decision.To
		if sentAt != nil {
			outcome.SentDate = sentAt
		}
		s.metrics.IncLeadTransition(decision.From.String(), decision.To.String())

		logger.Info("lead status updated",
			zap.String("event", event.String()),
			zap.String("from", decision.From.String()),
			zap.String("to", decision.To.String()),
		)

		if msg != nil {
			outcome.Subject = msg.Subject
			outcome.To = msg.To
			s.deliver(ctx, logger, *msg)
		}

		return outcome, nil
	}

	return nil, fmt.Errorf("%w: lead %s changed concurrently, gave up after %d attempts",
		domain.ErrConflict, leadID, maxTransitionAttempts)
}

func (s *OutreachService) render(event domain.Event, lead *domain.Lead) (delivery.Message, error) {
	switch event {
	case domain.EventSend:
		return delivery.RenderInitial(lead, s.from)
	case domain.EventFollowUp:
		return delivery.RenderFollowUp(lead, s.from)
	default:
		return delivery.Message{}, fmt.Errorf("no email template for event %q", event)
	}
}

// deliver hands msg to the sender once the state change is committed. The
// persisted status stays authoritative when delivery fails.
func (s *OutreachService) deliver(ctx context.Context, logger *zap.Logger, msg delivery.Message) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.deliveryTimeout)
	defer cancel()

	trigger := triggerFromContext(ctx)
	if err := s.sender.Deliver(ctx, msg); err != nil {
		result := deliveryResultFailedPermanent
		if delivery.IsTransient(err) {
			result = deliveryResultFailedTransient
		}
		s.metrics.IncOutreachEmail(msg.Kind.String(), string(trigger), result)
		logger.Error("failed to deliver outreach email",
			zap.String("messageId", msg.ID),
			zap.String("kind", msg.Kind.String()),
			zap.String("trigger", string(trigger)),
			zap.String("result", result),
			zap.Error(err),
		)
		return
	}

	s.metrics.IncOutreachEmail(msg.Kind.String(), string(trigger), deliveryResultSent)
}

func (s *OutreachService) getLead(ctx context.Context, leadID string) (*domain.Lead, error) {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	lead, err := s.leads.GetByID(ctx, leadID)
	if err != nil {
		return nil, wrapLookupError(leadID, err)
	}
	return lead, nil
}

func (s *OutreachService) compareAndSet(
	ctx context.Context,
	leadID string,
	from, to domain.Status,
	sentAt *time.Time,
) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	return s.leads.CompareAndSetStatus(ctx, leadID, from, to, sentAt)
}
