package fsm

import (
	"testing"

	"github.com/cutdesk/cutdesk/internal/domain"
)

func TestValidate_LegalTransitions(t *testing.T) {
	legal := []struct {
		from, to domain.TaskStatus
	}{
		{domain.StatusAwaiting, domain.StatusAccepted},
		{domain.StatusAccepted, domain.StatusInProgress},
		{domain.StatusInProgress, domain.StatusReview},
		{domain.StatusReview, domain.StatusRevision},
		{domain.StatusRevision, domain.StatusInProgress},
		{domain.StatusRevision, domain.StatusCompleted},
		{domain.StatusPaused, domain.StatusInProgress},
		{domain.StatusInProgress, domain.StatusPaused},
		{domain.StatusInProgress, domain.StatusFrameFix},
		{domain.StatusFrameFix, domain.StatusReview},
		{domain.StatusReview, domain.StatusCompleted},
		// Completed is not a dead end: reject reopens it.
		{domain.StatusCompleted, domain.StatusRevision},
		// Re-assignment back into the queue.
		{domain.StatusInProgress, domain.StatusAwaiting},
		// Status-preserving writes carry notes edits.
		{domain.StatusAccepted, domain.StatusAccepted},
		{domain.StatusCompleted, domain.StatusCompleted},
		{domain.StatusRevision, domain.StatusRevision},
	}

	for _, tt := range legal {
		if err := Validate(tt.from, tt.to); err != nil {
			t.Errorf("Validate(%q, %q) = %v, want nil", tt.from, tt.to, err)
		}
	}
}

func TestValidate_IllegalTransitions(t *testing.T) {
	illegal := []struct {
		from, to domain.TaskStatus
	}{
		{domain.StatusAwaiting, domain.StatusInProgress},
		{domain.StatusAwaiting, domain.StatusCompleted},
		{domain.StatusAccepted, domain.StatusReview},
		{domain.StatusPaused, domain.StatusReview},
		{domain.StatusCompleted, domain.StatusInProgress},
		{domain.StatusCancelled, domain.StatusInProgress},
	}

	for _, tt := range illegal {
		if err := Validate(tt.from, tt.to); err == nil {
			t.Errorf("Validate(%q, %q) = nil, want error", tt.from, tt.to)
		}
	}
}

func TestValidateEvent(t *testing.T) {
	if err := ValidateEvent(EventStart, domain.StatusAccepted, domain.StatusInProgress); err != nil {
		t.Errorf("start from accepted: %v", err)
	}
	if err := ValidateEvent(EventStart, domain.StatusReview, domain.StatusInProgress); err == nil {
		t.Error("start from review should fail")
	}
	if err := ValidateEvent(EventStart, domain.StatusAccepted, domain.StatusCompleted); err == nil {
		t.Error("start must land in in_progress")
	}
	if err := ValidateEvent(Event("bogus"), domain.StatusAccepted, domain.StatusInProgress); err == nil {
		t.Error("unknown event should fail")
	}
}

func TestKind(t *testing.T) {
	tests := []struct {
		prev, next domain.TaskStatus
		want       domain.TransitionKind
	}{
		{domain.StatusAccepted, domain.StatusInProgress, domain.TransitionStarted},
		{domain.StatusRevision, domain.StatusInProgress, domain.TransitionResumedFromFix},
		{domain.StatusInProgress, domain.StatusReview, domain.TransitionSubmitted},
		{domain.StatusReview, domain.StatusRevision, domain.TransitionRevision},
		{domain.StatusReview, domain.StatusCompleted, domain.TransitionCompleted},
		{domain.StatusInProgress, domain.StatusPaused, ""},
	}

	for _, tt := range tests {
		if got := Kind(tt.prev, tt.next); got != tt.want {
			t.Errorf("Kind(%q, %q) = %q, want %q", tt.prev, tt.next, got, tt.want)
		}
	}
}

// Every rule's target must itself be a known status, and every source list
// must be non-empty. Guards against a half-edited table.
func TestTransitions_TableIsClosed(t *testing.T) {
	known := map[domain.TaskStatus]bool{
		domain.StatusAwaiting: true, domain.StatusAccepted: true,
		domain.StatusInProgress: true, domain.StatusReview: true,
		domain.StatusRevision: true, domain.StatusFrameFix: true,
		domain.StatusPaused: true, domain.StatusCompleted: true,
		domain.StatusCancelled: true,
	}

	for event, rule := range Transitions {
		if len(rule.From) == 0 {
			t.Errorf("event %q has no source states", event)
		}
		if !known[rule.To] {
			t.Errorf("event %q targets unknown status %q", event, rule.To)
		}
		for _, from := range rule.From {
			if !known[from] {
				t.Errorf("event %q has unknown source status %q", event, from)
			}
		}
	}
}
