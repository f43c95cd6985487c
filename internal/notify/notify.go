// Package notify delivers task lifecycle notifications. Delivery is
// best-effort: the dispatcher decouples senders from the transactional
// write path, and failures are logged, never propagated.
package notify

import (
	"github.com/cutdesk/cutdesk/internal/domain"
)

// Notification represents a message about a task transition
type Notification struct {
	Kind      domain.TransitionKind
	TaskID    string
	TaskTitle string
	// RecipientID targets one user; empty means broadcast.
	RecipientID string
	Message     string
}

// Notifier is the interface for sending notifications
type Notifier interface {
	Send(n Notification) error
}

// MultiNotifier sends to multiple notifiers
type MultiNotifier struct {
	notifiers []Notifier
}

// NewMultiNotifier creates a notifier that sends to all provided notifiers
func NewMultiNotifier(notifiers ...Notifier) *MultiNotifier {
	return &MultiNotifier{notifiers: notifiers}
}

// Send sends the notification to all notifiers
func (m *MultiNotifier) Send(n Notification) error {
	var lastErr error
	for _, notifier := range m.notifiers {
		if err := notifier.Send(n); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

// NoopNotifier does nothing (for testing or disabled notifications)
type NoopNotifier struct{}

func (NoopNotifier) Send(n Notification) error { return nil }

// Subject returns a short human-readable line for a transition
func Subject(n Notification) string {
	switch n.Kind {
	case domain.TransitionStarted:
		return "Work started: " + n.TaskTitle
	case domain.TransitionResumedFromFix:
		return "Revision work resumed: " + n.TaskTitle
	case domain.TransitionSubmitted:
		return "Submitted for review: " + n.TaskTitle
	case domain.TransitionRevision:
		return "Revision requested: " + n.TaskTitle
	case domain.TransitionCompleted:
		return "Completed: " + n.TaskTitle
	case domain.TransitionAssigned:
		return "New task assigned: " + n.TaskTitle
	case domain.TransitionUnassigned:
		return "Task returned to pool: " + n.TaskTitle
	case domain.TransitionPenalized:
		return "Deadline missed: " + n.TaskTitle
	default:
		return n.TaskTitle
	}
}
