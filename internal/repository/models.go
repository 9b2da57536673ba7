package repository

import (
	"time"

	"github.com/kursadbilgin/outreach-pipeline/internal/domain"
)

// LeadModel is the persistence model for the leads table.
type LeadModel struct {
	ID              string        `gorm:"type:varchar(255);primaryKey"`
	CompanyName     string        `gorm:"type:text;not null"`
	Website         string        `gorm:"type:text"`
	ContactName     string        `gorm:"type:text;not null"`
	Email           string        `gorm:"type:varchar(320);not null;uniqueIndex:idx_leads_email"`
	LinkedInProfile string        `gorm:"column:linkedin_profile;type:text"`
	Industry        string        `gorm:"type:text"`
	Role            string        `gorm:"type:text"`
	CompanySize     string        `gorm:"type:text"`
	Location        string        `gorm:"type:text"`
	Status          domain.Status `gorm:"type:varchar(20);not null;default:pending"`
	SentDate        *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (LeadModel) TableName() string {
	return "leads"
}

func leadModelFromDomain(l *domain.Lead) *LeadModel {
	if l == nil {
		return nil
	}

	return &LeadModel{
		ID:              l.ID,
		CompanyName:     l.CompanyName,
		Website:         l.Website,
		ContactName:     l.ContactName,
		Email:           l.Email,
		LinkedInProfile: l.LinkedInProfile,
		Industry:        l.Industry,
		Role:            l.Role,
		CompanySize:     l.CompanySize,
		Location:        l.Location,
		Status:          l.Status,
		SentDate:        utcPtr(l.SentDate),
		CreatedAt:       l.CreatedAt,
		UpdatedAt:       l.UpdatedAt,
	}
}

func leadModelToDomain(m *LeadModel) *domain.Lead {
	if m == nil {
		return nil
	}

	return &domain.Lead{
		ID:              m.ID,
		CompanyName:     m.CompanyName,
		Website:         m.Website,
		ContactName:     m.ContactName,
		Email:           m.Email,
		LinkedInProfile: m.LinkedInProfile,
		Industry:        m.Industry,
		Role:            m.Role,
		CompanySize:     m.CompanySize,
		Location:        m.Location,
		Status:          m.Status,
		SentDate:        utcPtr(m.SentDate),
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}
