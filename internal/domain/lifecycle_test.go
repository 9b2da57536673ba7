package domain

import (
	"errors"
	"strings"
	"testing"
)

func TestDecideTransitionTable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		from         Status
		event        Event
		want         Status
		outcome      Outcome
		setsSentDate bool
	}{
		{from: StatusPending, event: EventSend, want: StatusSent, outcome: OutcomeApplied, setsSentDate: true},
		{from: StatusSent, event: EventOpened, want: StatusOpened, outcome: OutcomeApplied},
		{from: StatusSent, event: EventFollowUp, want: StatusFollowUpSent, outcome: OutcomeApplied, setsSentDate: true},
		{from: StatusOpened, event: EventFollowUp, want: StatusFollowUpSent, outcome: OutcomeApplied, setsSentDate: true},
		{from: StatusPending, event: EventReplied, want: StatusReplied, outcome: OutcomeApplied},
		{from: StatusSent, event: EventReplied, want: StatusReplied, outcome: OutcomeApplied},
		{from: StatusOpened, event: EventReplied, want: StatusReplied, outcome: OutcomeApplied},
		{from: StatusFollowUpSent, event: EventReplied, want: StatusReplied, outcome: OutcomeApplied},
		{from: StatusReplied, event: EventReplied, want: StatusReplied, outcome: OutcomeAlreadyReplied},
		{from: StatusPending, event: EventBounced, want: StatusBounced, outcome: OutcomeApplied},
		{from: StatusSent, event: EventBounced, want: StatusBounced, outcome: OutcomeApplied},
		{from: StatusFollowUpSent, event: EventBounced, want: StatusBounced, outcome: OutcomeApplied},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(string(tt.from)+"/"+string(tt.event), func(t *testing.T) {
			t.Parallel()

			got := Decide(tt.from, tt.event)
			if got.To != tt.want {
				t.Fatalf("Decide(%s, %s).To = %s, want %s", tt.from, tt.event, got.To, tt.want)
			}
			if got.Outcome != tt.outcome {
				t.Fatalf("Decide(%s, %s).Outcome = %s, want %s", tt.from, tt.event, got.Outcome, tt.outcome)
			}
			if got.SetsSentDate != tt.setsSentDate {
				t.Fatalf("Decide(%s, %s).SetsSentDate = %v, want %v", tt.from, tt.event, got.SetsSentDate, tt.setsSentDate)
			}
		})
	}
}

func TestDecideUnlistedPairsLeaveStatusUnchanged(t *testing.T) {
	t.Parallel()

	allStatuses := []Status{StatusPending, StatusSent, StatusOpened, StatusFollowUpSent, StatusReplied, StatusBounced}
	allEvents := []Event{EventSend, EventOpened, EventFollowUp, EventReplied, EventBounced}

	for _, from := range allStatuses {
		for _, event := range allEvents {
			if _, listed := transitions[transitionKey{from, event}]; listed {
				continue
			}

			got := Decide(from, event)
			if got.To != from {
				t.Fatalf("Decide(%s, %s).To = %s, want unchanged", from, event, got.To)
			}
			if got.Changed() {
				t.Fatalf("Decide(%s, %s).Changed() = true, want false", from, event)
			}
			if got.SetsSentDate {
				t.Fatalf("Decide(%s, %s) should not set sent date", from, event)
			}
			if from == StatusReplied && event == EventReplied {
				continue
			}
			if got.Outcome != OutcomeNotApplicable {
				t.Fatalf("Decide(%s, %s).Outcome = %s, want %s", from, event, got.Outcome, OutcomeNotApplicable)
			}
		}
	}
}

func TestDecideBouncedUnreachableFromOpened(t *testing.T) {
	t.Parallel()

	got := Decide(StatusOpened, EventBounced)
	if got.Changed() {
		t.Fatalf("opened leads should not bounce, got %s", got.To)
	}
}

func TestDecisionMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		decision Decision
		contains string
	}{
		{name: "send applied", decision: Decide(StatusPending, EventSend), contains: "Outreach email simulated"},
		{name: "send repeated", decision: Decide(StatusSent, EventSend), contains: "already 'sent'"},
		{name: "followup rejected", decision: Decide(StatusPending, EventFollowUp), contains: "Cannot send follow-up"},
		{name: "replied", decision: Decide(StatusSent, EventReplied), contains: "Take action!"},
		{name: "already replied", decision: Decide(StatusReplied, EventReplied), contains: "already replied"},
		{name: "bounced", decision: Decide(StatusSent, EventBounced), contains: "Remove from list"},
		{name: "opened", decision: Decide(StatusSent, EventOpened), contains: "updated to 'opened'"},
		{name: "not applicable", decision: Decide(StatusBounced, EventOpened), contains: "Status remains 'bounced'"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			msg := tt.decision.Message("lead-1")
			if !strings.Contains(msg, tt.contains) {
				t.Fatalf("Message() = %q, want it to contain %q", msg, tt.contains)
			}
			if !strings.Contains(msg, "lead-1") {
				t.Fatalf("Message() = %q, want lead id", msg)
			}
		})
	}
}

func TestParseEngagementAction(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"opened", " Replied ", "BOUNCED"} {
		if _, err := ParseEngagementAction(raw); err != nil {
			t.Fatalf("ParseEngagementAction(%q) unexpected error = %v", raw, err)
		}
	}

	for _, raw := range []string{"send", "followup", "clicked", ""} {
		_, err := ParseEngagementAction(raw)
		if !errors.Is(err, ErrValidation) {
			t.Fatalf("ParseEngagementAction(%q) error = %v, want ErrValidation", raw, err)
		}
	}
}
