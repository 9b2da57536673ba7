package domain

import (
	"fmt"
	"strings"
)

// Event is something that happens to a lead and may move its status.
type Event string

const (
	EventSend     Event = "send"
	EventOpened   Event = "opened"
	EventFollowUp Event = "followup"
	EventReplied  Event = "replied"
	EventBounced  Event = "bounced"
)

func (e Event) String() string { return string(e) }

// ParseEngagementAction parses the externally reported engagement signals.
// Only opened, replied and bounced are accepted.
func ParseEngagementAction(s string) (Event, error) {
	ev := Event(strings.ToLower(strings.TrimSpace(s)))
	switch ev {
	case EventOpened, EventReplied, EventBounced:
		return ev, nil
	}
	return "", fmt.Errorf("%w: invalid action %q, must be one of: opened, replied, bounced", ErrValidation, s)
}

// Outcome classifies what a transition attempt decided.
type Outcome string

const (
	OutcomeApplied        Outcome = "applied"
	OutcomeAlreadyReplied Outcome = "already_replied"
	OutcomeNotApplicable  Outcome = "not_applicable"
)

// Decision is the result of applying an event to a status. A decision that
// does not change the status is a normal result, not a failure.
type Decision struct {
	Event        Event
	From         Status
	To           Status
	Outcome      Outcome
	SetsSentDate bool
}

// Changed reports whether the decision moves the lead to a new status.
func (d Decision) Changed() bool {
	return d.Outcome == OutcomeApplied && d.From != d.To
}

type transitionKey struct {
	from  Status
	event Event
}

var transitions = map[transitionKey]Status{
	{StatusPending, EventSend}:         StatusSent,
	{StatusSent, EventOpened}:          StatusOpened,
	{StatusSent, EventFollowUp}:        StatusFollowUpSent,
	{StatusOpened, EventFollowUp}:      StatusFollowUpSent,
	{StatusPending, EventReplied}:      StatusReplied,
	{StatusSent, EventReplied}:         StatusReplied,
	{StatusOpened, EventReplied}:       StatusReplied,
	{StatusFollowUpSent, EventReplied}: StatusReplied,
	{StatusPending, EventBounced}:      StatusBounced,
	{StatusSent, EventBounced}:         StatusBounced,
	{StatusFollowUpSent, EventBounced}: StatusBounced,
}

// Decide applies event to current and returns the resulting decision.
// Pairs missing from the transition table leave the status unchanged.
func Decide(current Status, event Event) Decision {
	d := Decision{Event: event, From: current, To: current}

	if next, ok := transitions[transitionKey{current, event}]; ok {
		d.To = next
		d.Outcome = OutcomeApplied
		d.SetsSentDate = event == EventSend || event == EventFollowUp
		return d
	}

	if current == StatusReplied && event == EventReplied {
		d.Outcome = OutcomeAlreadyReplied
		return d
	}

	d.Outcome = OutcomeNotApplicable
	return d
}

// Message describes the decision for the given lead in plain language.
func (d Decision) Message(leadID string) string {
	switch d.Outcome {
	case OutcomeAlreadyReplied:
		return fmt.Sprintf("Lead '%s' already replied. No change needed.", leadID)
	case OutcomeNotApplicable:
		switch d.Event {
		case EventSend:
			return fmt.Sprintf("Outreach for lead ID '%s' already '%s'.", leadID, d.From)
		case EventFollowUp:
			return fmt.Sprintf("Cannot send follow-up. Lead '%s' status is '%s'.", leadID, d.From)
		}
		return fmt.Sprintf("Action '%s' not applicable for current status '%s' for lead '%s'. Status remains '%s'.",
			d.Event, d.From, leadID, d.From)
	}

	switch d.Event {
	case EventSend:
		return fmt.Sprintf("Outreach email simulated and status updated for lead ID '%s'.", leadID)
	case EventFollowUp:
		return fmt.Sprintf("Follow-up email simulated and status updated for lead ID '%s'.", leadID)
	case EventReplied:
		return fmt.Sprintf("Lead '%s' status updated to 'replied'. Take action!", leadID)
	case EventBounced:
		return fmt.Sprintf("Lead '%s' status updated to 'bounced'. Remove from list.", leadID)
	}
	return fmt.Sprintf("Lead '%s' status updated to '%s'.", leadID, d.To)
}
