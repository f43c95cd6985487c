package notify

import (
	"github.com/cutdesk/cutdesk/internal/domain"
)

// NotificationInserter is the slice of the store the bell notifier needs
type NotificationInserter interface {
	InsertNotification(n *domain.Notification) error
}

// StoreNotifier persists notifications as in-app bell rows
type StoreNotifier struct {
	store NotificationInserter
}

// NewStoreNotifier creates a notifier writing to the notifications table
func NewStoreNotifier(store NotificationInserter) *StoreNotifier {
	return &StoreNotifier{store: store}
}

// Send persists the notification row. An empty recipient becomes a
// broadcast (nil user id).
func (s *StoreNotifier) Send(n Notification) error {
	row := &domain.Notification{
		Kind:    n.Kind,
		Message: Subject(n),
	}
	if n.RecipientID != "" {
		recipient := n.RecipientID
		row.UserID = &recipient
	}
	if n.TaskID != "" {
		taskID := n.TaskID
		row.TaskID = &taskID
	}
	return s.store.InsertNotification(row)
}
