// Package fsm validates task status transitions. The transition table is
// closed: a status change is legal only if some named business event maps
// the current status to the requested one.
package fsm

import (
	"fmt"

	"github.com/cutdesk/cutdesk/internal/domain"
)

// Event names a business-level task transition
type Event string

const (
	EventAssign       Event = "assign"
	EventStart        Event = "start"
	EventSubmit       Event = "submit"
	EventReject       Event = "reject"
	EventRequestFix   Event = "request_fix"
	EventResumeFix    Event = "resume_fix"
	EventFinish       Event = "finish"
	EventPause        Event = "pause"
	EventResume       Event = "resume"
	EventUnassign     Event = "unassign"
	EventPenalize     Event = "penalize"
	EventAdminFix     Event = "admin_fix"
	EventRevisionLoop Event = "revision_loop"
	EventBackToWork   Event = "back_to_work"
)

// Rule describes the legal source states and the single target state of an
// event, with a minimal role guard.
type Rule struct {
	From  []domain.TaskStatus
	To    domain.TaskStatus
	Roles []domain.Role
}

// Transitions is the full adjacency table. Completed is reachable from every
// active state but is not a dead end: reject reopens a completed task into
// revision.
var Transitions = map[Event]Rule{
	EventAssign: {
		From:  []domain.TaskStatus{domain.StatusAwaiting, domain.StatusAccepted},
		To:    domain.StatusAccepted,
		Roles: []domain.Role{domain.RoleAdmin, domain.RoleAgencyAdmin},
	},
	EventStart: {
		From:  []domain.TaskStatus{domain.StatusAccepted, domain.StatusPaused},
		To:    domain.StatusInProgress,
		Roles: []domain.Role{domain.RoleUser, domain.RoleAdmin},
	},
	EventSubmit: {
		From:  []domain.TaskStatus{domain.StatusInProgress, domain.StatusFrameFix, domain.StatusRevision},
		To:    domain.StatusReview,
		Roles: []domain.Role{domain.RoleUser, domain.RoleAdmin},
	},
	EventReject: {
		From:  []domain.TaskStatus{domain.StatusReview, domain.StatusCompleted},
		To:    domain.StatusRevision,
		Roles: []domain.Role{domain.RoleAdmin},
	},
	EventRequestFix: {
		From:  []domain.TaskStatus{domain.StatusReview, domain.StatusInProgress},
		To:    domain.StatusFrameFix,
		Roles: []domain.Role{domain.RoleAdmin},
	},
	EventResumeFix: {
		From:  []domain.TaskStatus{domain.StatusRevision, domain.StatusFrameFix},
		To:    domain.StatusFrameFix,
		Roles: []domain.Role{domain.RoleUser},
	},
	EventFinish: {
		From:  []domain.TaskStatus{domain.StatusReview, domain.StatusInProgress, domain.StatusFrameFix, domain.StatusRevision},
		To:    domain.StatusCompleted,
		Roles: []domain.Role{domain.RoleAdmin},
	},
	EventPause: {
		From:  []domain.TaskStatus{domain.StatusInProgress, domain.StatusFrameFix, domain.StatusAccepted},
		To:    domain.StatusPaused,
		Roles: []domain.Role{domain.RoleAdmin, domain.RoleUser},
	},
	EventResume: {
		From:  []domain.TaskStatus{domain.StatusPaused},
		To:    domain.StatusInProgress,
		Roles: []domain.Role{domain.RoleAdmin, domain.RoleUser},
	},
	EventUnassign: {
		From:  []domain.TaskStatus{domain.StatusAccepted, domain.StatusInProgress, domain.StatusPaused, domain.StatusReview, domain.StatusRevision},
		To:    domain.StatusAwaiting,
		Roles: []domain.Role{domain.RoleAdmin, domain.RoleAgencyAdmin},
	},
	EventPenalize: {
		From:  []domain.TaskStatus{domain.StatusAccepted, domain.StatusInProgress, domain.StatusReview, domain.StatusRevision},
		To:    domain.StatusAwaiting,
	},
	EventAdminFix: {
		From:  []domain.TaskStatus{domain.StatusInProgress, domain.StatusRevision, domain.StatusFrameFix},
		To:    domain.StatusRevision,
		Roles: []domain.Role{domain.RoleAdmin},
	},
	EventRevisionLoop: {
		From:  []domain.TaskStatus{domain.StatusRevision},
		To:    domain.StatusRevision,
		Roles: []domain.Role{domain.RoleAdmin},
	},
	EventBackToWork: {
		From:  []domain.TaskStatus{domain.StatusRevision},
		To:    domain.StatusInProgress,
		Roles: []domain.Role{domain.RoleAdmin, domain.RoleUser},
	},
}

// Validate reports whether any event allows current -> target. This is the
// loose mode used when callers send a bare target status without a named
// event.
func Validate(current, target domain.TaskStatus) error {
	// Status-preserving writes (notes edits, revision detail updates) are
	// always legal; they change no lifecycle state.
	if current == target {
		return nil
	}
	for _, rule := range Transitions {
		if rule.To != target {
			continue
		}
		for _, from := range rule.From {
			if from == current {
				return nil
			}
		}
	}
	return fmt.Errorf("illegal transition: %q -> %q", current, target)
}

// ValidateEvent checks a named event strictly: the current status must be a
// legal source and the target must match the event's destination.
func ValidateEvent(event Event, current, target domain.TaskStatus) error {
	rule, ok := Transitions[event]
	if !ok {
		return fmt.Errorf("invalid event: %q", event)
	}

	legal := false
	for _, from := range rule.From {
		if from == current {
			legal = true
			break
		}
	}
	if !legal {
		return fmt.Errorf("cannot %q from status %q", event, current)
	}

	if target != rule.To {
		return fmt.Errorf("event %q leads to %q, not %q", event, rule.To, target)
	}
	return nil
}

// Kind maps a validated transition to its notification meaning. The zero
// value means the transition produces no outbound notification.
func Kind(previous, next domain.TaskStatus) domain.TransitionKind {
	switch next {
	case domain.StatusInProgress:
		if previous == domain.StatusRevision {
			return domain.TransitionResumedFromFix
		}
		return domain.TransitionStarted
	case domain.StatusReview:
		return domain.TransitionSubmitted
	case domain.StatusRevision:
		return domain.TransitionRevision
	case domain.StatusCompleted:
		return domain.TransitionCompleted
	}
	return ""
}
