package service

import (
	"context"
	"sync"
	"time"

	"github.com/kursadbilgin/outreach-pipeline/internal/delivery"
	"github.com/kursadbilgin/outreach-pipeline/internal/domain"
)

type fakeLeadRepo struct {
	insertIfAbsentFn      func(ctx context.Context, l *domain.Lead) (bool, error)
	getByIDFn             func(ctx context.Context, id string) (*domain.Lead, error)
	listFn                func(ctx context.Context) ([]domain.Lead, error)
	compareAndSetStatusFn func(ctx context.Context, id string, from, to domain.Status, sentDate *time.Time) (bool, error)
	findDueForFollowUpFn  func(ctx context.Context, statuses []domain.Status, sentBefore time.Time, limit int) ([]domain.Lead, error)
}

func (f *fakeLeadRepo) InsertIfAbsent(ctx context.Context, l *domain.Lead) (bool, error) {
	if f.insertIfAbsentFn != nil {
		return f.insertIfAbsentFn(ctx, l)
	}
	return true, nil
}

func (f *fakeLeadRepo) GetByID(ctx context.Context, id string) (*domain.Lead, error) {
	if f.getByIDFn != nil {
		return f.getByIDFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (f *fakeLeadRepo) List(ctx context.Context) ([]domain.Lead, error) {
	if f.listFn != nil {
		return f.listFn(ctx)
	}
	return nil, nil
}

func (f *fakeLeadRepo) CompareAndSetStatus(ctx context.Context, id string, from, to domain.Status, sentDate *time.Time) (bool, error) {
	if f.compareAndSetStatusFn != nil {
		return f.compareAndSetStatusFn(ctx, id, from, to, sentDate)
	}
	return true, nil
}

func (f *fakeLeadRepo) FindDueForFollowUp(ctx context.Context, statuses []domain.Status, sentBefore time.Time, limit int) ([]domain.Lead, error) {
	if f.findDueForFollowUpFn != nil {
		return f.findDueForFollowUpFn(ctx, statuses, sentBefore, limit)
	}
	return nil, nil
}

type fakeSender struct {
	mu        sync.Mutex
	deliverFn func(ctx context.Context, msg delivery.Message) error
	delivered []delivery.Message
}

func (f *fakeSender) Deliver(ctx context.Context, msg delivery.Message) error {
	f.mu.Lock()
	f.delivered = append(f.delivered, msg)
	f.mu.Unlock()
	if f.deliverFn != nil {
		return f.deliverFn(ctx, msg)
	}
	return nil
}

func (f *fakeSender) messages() []delivery.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]delivery.Message(nil), f.delivered...)
}

type fakeFollowUpper struct {
	followUpFn func(ctx context.Context, leadID string) (*Outcome, error)
}

func (f *fakeFollowUpper) FollowUp(ctx context.Context, leadID string) (*Outcome, error) {
	if f.followUpFn != nil {
		return f.followUpFn(ctx, leadID)
	}
	return &Outcome{LeadID: leadID, Applied: true, Status: domain.StatusFollowUpSent}, nil
}

type fakeLocker struct {
	acquired      bool
	err           error
	released      int
	releaseCtxErr error
}

func (f *fakeLocker) Acquire(context.Context) (func(context.Context) error, bool, error) {
	if f.err != nil || !f.acquired {
		return nil, false, f.err
	}
	return func(ctx context.Context) error {
		f.released++
		f.releaseCtxErr = ctx.Err()
		return nil
	}, true, nil
}

func pendingLead(id string) *domain.Lead {
	return &domain.Lead{
		ID:          id,
		Email:       id + "@acme.io",
		CompanyName: "Acme",
		ContactName: "Bo",
		Status:      domain.StatusPending,
	}
}
