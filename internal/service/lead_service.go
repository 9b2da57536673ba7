package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kursadbilgin/outreach-pipeline/internal/domain"
	"github.com/kursadbilgin/outreach-pipeline/internal/observability"
	"github.com/kursadbilgin/outreach-pipeline/internal/repository"
	"go.uber.org/zap"
)

const defaultStoreTimeout = 5 * time.Second

// LeadCandidate is one element of an ingestion batch. DecodeErr is set when
// the element could not be read as a lead at all.
type LeadCandidate struct {
	Lead      domain.Lead
	DecodeErr error
}

// IngestResult aggregates a batch. Every candidate is counted exactly once.
type IngestResult struct {
	Inserted int
	Skipped  int
	Errors   []string
}

func (r *IngestResult) AddSkip(reason string) {
	r.Skipped++
	r.Errors = append(r.Errors, reason)
}

type LeadService struct {
	leads        repository.LeadRepository
	logger       *zap.Logger
	metrics      *observability.Metrics
	storeTimeout time.Duration
}

func NewLeadService(leads repository.LeadRepository, logger *zap.Logger) (*LeadService, error) {
	if leads == nil {
		return nil, fmt.Errorf("lead repository is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &LeadService{
		leads:        leads,
		logger:       logger,
		storeTimeout: defaultStoreTimeout,
	}, nil
}

func (s *LeadService) SetMetrics(metrics *observability.Metrics) {
	if s == nil {
		return
	}
	s.metrics = metrics
}

func (s *LeadService) SetStoreTimeout(timeout time.Duration) {
	if s == nil || timeout <= 0 {
		return
	}
	s.storeTimeout = timeout
}

// Ingest inserts every valid candidate that does not collide on id or email.
// A bad candidate is reported and skipped; it never fails the batch.
func (s *LeadService) Ingest(ctx context.Context, candidates []LeadCandidate) *IngestResult {
	if ctx == nil {
		ctx = context.Background()
	}

	result := &IngestResult{Errors: make([]string, 0)}
	logger := observability.WithContextLogger(s.logger, ctx)

	for i := range candidates {
		candidate := candidates[i]
		if candidate.DecodeErr != nil {
			result.AddSkip(fmt.Sprintf("Skipping malformed lead at index %d: %v", i, candidate.DecodeErr))
			s.metrics.IncLeadIngested("invalid")
			continue
		}

		lead := candidate.Lead
		lead.Normalize()
		if err := lead.Validate(); err != nil {
			result.AddSkip(fmt.Sprintf("Skipping lead due to missing essential fields: %s", displayID(lead.ID)))
			s.metrics.IncLeadIngested("invalid")
			continue
		}

		inserted, err := s.insert(ctx, &lead)
		if err != nil {
			logger.Error("failed to insert lead",
				zap.String("leadId", lead.ID),
				zap.Error(err),
			)
			result.AddSkip(fmt.Sprintf("Database error for lead %s: %v", displayID(lead.ID), err))
			s.metrics.IncLeadIngested("error")
			continue
		}
		if !inserted {
			result.AddSkip(fmt.Sprintf("Lead with email '%s' already exists or ID collision.", lead.Email))
			s.metrics.IncLeadIngested("skipped")
			continue
		}

		result.Inserted++
		s.metrics.IncLeadIngested("inserted")
	}

	logger.Info("lead ingestion complete",
		zap.Int("received", len(candidates)),
		zap.Int("inserted", result.Inserted),
		zap.Int("skipped", result.Skipped),
	)

	return result
}

func (s *LeadService) insert(ctx context.Context, lead *domain.Lead) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	return s.leads.InsertIfAbsent(ctx, lead)
}

func (s *LeadService) List(ctx context.Context) ([]domain.Lead, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	leads, err := s.leads.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list leads: %w", err)
	}
	return leads, nil
}

func (s *LeadService) Get(ctx context.Context, id string) (*domain.Lead, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: lead id is required", domain.ErrValidation)
	}

	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	lead, err := s.leads.GetByID(ctx, id)
	if err != nil {
		return nil, wrapLookupError(id, err)
	}
	return lead, nil
}

func wrapLookupError(id string, err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("%w: lead with ID '%s'", domain.ErrNotFound, id)
	}
	return fmt.Errorf("failed to load lead %s: %w", id, err)
}

func displayID(id string) string {
	if strings.TrimSpace(id) == "" {
		return "N/A"
	}
	return id
}
