package domain

import (
	"fmt"
	"strings"
	"time"
)

// Status represents the outreach lifecycle state of a lead.
type Status string

const (
	StatusPending      Status = "pending"
	StatusSent         Status = "sent"
	StatusOpened       Status = "opened"
	StatusFollowUpSent Status = "followup_sent"
	StatusReplied      Status = "replied"
	StatusBounced      Status = "bounced"
)

func (s Status) String() string { return string(s) }

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusSent, StatusOpened, StatusFollowUpSent, StatusReplied, StatusBounced:
		return true
	}
	return false
}

func ParseStatusFromString(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", fmt.Errorf("%w: invalid status %q", ErrValidation, s)
	}
	return st, nil
}

// FollowUpEligibleStatuses are the statuses a follow-up may be sent from.
func FollowUpEligibleStatuses() []Status {
	return []Status{StatusSent, StatusOpened}
}

// Lead is a prospective contact tracked through the outreach lifecycle.
type Lead struct {
	ID              string
	CompanyName     string
	Website         string
	ContactName     string
	Email           string
	LinkedInProfile string
	Industry        string
	Role            string
	CompanySize     string
	Location        string
	Status          Status
	SentDate        *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Validate checks the fields required at ingestion.
func (l *Lead) Validate() error {
	missing := make([]string, 0, 4)
	if strings.TrimSpace(l.ID) == "" {
		missing = append(missing, "id")
	}
	if strings.TrimSpace(l.Email) == "" {
		missing = append(missing, "email")
	}
	if strings.TrimSpace(l.CompanyName) == "" {
		missing = append(missing, "company_name")
	}
	if strings.TrimSpace(l.ContactName) == "" {
		missing = append(missing, "contact_name")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing required fields: %s", ErrValidation, strings.Join(missing, ", "))
	}
	if !l.Status.IsValid() {
		return fmt.Errorf("%w: invalid status %q", ErrValidation, l.Status)
	}
	return nil
}

// Normalize trims identity fields and resets lifecycle state for a new lead.
func (l *Lead) Normalize() {
	l.ID = strings.TrimSpace(l.ID)
	l.Email = strings.TrimSpace(l.Email)
	l.CompanyName = strings.TrimSpace(l.CompanyName)
	l.ContactName = strings.TrimSpace(l.ContactName)
	l.Status = StatusPending
	l.SentDate = nil
}
