package queue

import (
	"fmt"
	"strings"
)

// EmailMessage is the broker payload for a simulated outreach email.
type EmailMessage struct {
	MessageID     string `json:"messageId"`
	CorrelationID string `json:"correlationId,omitempty"`
	LeadID        string `json:"leadId"`
	Kind          string `json:"kind"`
	To            string `json:"to"`
	Subject       string `json:"subject"`
	// Raw is the full RFC 5322 rendering of the email.
	Raw string `json:"raw"`
}

func (m EmailMessage) Validate() error {
	if strings.TrimSpace(m.MessageID) == "" {
		return fmt.Errorf("messageId is required")
	}
	if strings.TrimSpace(m.LeadID) == "" {
		return fmt.Errorf("leadId is required")
	}
	if strings.TrimSpace(m.To) == "" {
		return fmt.Errorf("to is required")
	}
	switch m.Kind {
	case "initial", "followup":
	default:
		return fmt.Errorf("invalid kind %q", m.Kind)
	}
	return nil
}
