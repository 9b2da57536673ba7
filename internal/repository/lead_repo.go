package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kursadbilgin/outreach-pipeline/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const defaultDueLimit = 100

type LeadRepository interface {
	InsertIfAbsent(ctx context.Context, l *domain.Lead) (bool, error)
	GetByID(ctx context.Context, id string) (*domain.Lead, error)
	List(ctx context.Context) ([]domain.Lead, error)
	CompareAndSetStatus(ctx context.Context, id string, from, to domain.Status, sentDate *time.Time) (bool, error)
	FindDueForFollowUp(ctx context.Context, statuses []domain.Status, sentBefore time.Time, limit int) ([]domain.Lead, error)
}

type GormLeadRepo struct {
	db *gorm.DB
}

func NewGormLeadRepo(db *gorm.DB) *GormLeadRepo {
	return &GormLeadRepo{db: db}
}

// InsertIfAbsent creates the lead unless its id or email is already taken.
// The uniqueness check and the insert are a single statement.
func (r *GormLeadRepo) InsertIfAbsent(ctx context.Context, l *domain.Lead) (bool, error) {
	model := leadModelFromDomain(l)
	if model == nil {
		return false, fmt.Errorf("%w: lead is required", domain.ErrValidation)
	}

	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(model)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return false, nil
		}
		return false, result.Error
	}
	if result.RowsAffected == 0 {
		return false, nil
	}

	*l = *leadModelToDomain(model)
	return true, nil
}

func (r *GormLeadRepo) GetByID(ctx context.Context, id string) (*domain.Lead, error) {
	var model LeadModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return leadModelToDomain(&model), nil
}

func (r *GormLeadRepo) List(ctx context.Context) ([]domain.Lead, error) {
	var models []LeadModel
	err := r.db.WithContext(ctx).
		Order("created_at ASC").
		Order("id ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	leads := make([]domain.Lead, 0, len(models))
	for i := range models {
		leads = append(leads, *leadModelToDomain(&models[i]))
	}

	return leads, nil
}

// CompareAndSetStatus moves the lead from one status to another only if it is
// still in the from status. A nil sentDate leaves sent_date untouched.
func (r *GormLeadRepo) CompareAndSetStatus(
	ctx context.Context,
	id string,
	from, to domain.Status,
	sentDate *time.Time,
) (bool, error) {
	updates := map[string]any{
		"status":     to,
		"updated_at": time.Now().UTC(),
	}
	if sentDate != nil {
		updates["sent_date"] = sentDate.UTC()
	}

	result := r.db.WithContext(ctx).
		Model(&LeadModel{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected == 1, nil
}

func (r *GormLeadRepo) FindDueForFollowUp(
	ctx context.Context,
	statuses []domain.Status,
	sentBefore time.Time,
	limit int,
) ([]domain.Lead, error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	if limit <= 0 {
		limit = defaultDueLimit
	}

	var models []LeadModel
	err := r.db.WithContext(ctx).
		Where("status IN ? AND sent_date IS NOT NULL AND sent_date < ?", statuses, sentBefore.UTC()).
		Order("sent_date ASC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	leads := make([]domain.Lead, 0, len(models))
	for i := range models {
		leads = append(leads, *leadModelToDomain(&models[i]))
	}

	return leads, nil
}
