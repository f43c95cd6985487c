package store

import (
	"database/sql"
	"time"

	"github.com/cutdesk/cutdesk/internal/domain"
	"github.com/google/uuid"
)

// InsertNotification persists a notification row
func (s *Store) InsertNotification(n *domain.Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	_, err := s.db.Exec(`
		INSERT INTO notifications (id, user_id, task_id, kind, message, is_read, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, n.ID, nullString(n.UserID), nullString(n.TaskID), string(n.Kind), n.Message, n.IsRead, n.CreatedAt)
	return err
}

// UnreadNotifications returns the newest unread rows visible to a user:
// broadcasts plus the user's own, capped at limit
func (s *Store) UnreadNotifications(userID string, limit int) ([]domain.Notification, error) {
	rows, err := s.db.Query(`
		SELECT id, user_id, task_id, kind, message, is_read, created_at
		FROM notifications
		WHERE (user_id IS NULL OR user_id = ?) AND is_read = FALSE
		ORDER BY created_at DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifications []domain.Notification
	for rows.Next() {
		var n domain.Notification
		var userID, taskID sql.NullString
		var kind string
		if err := rows.Scan(&n.ID, &userID, &taskID, &kind, &n.Message, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, err
		}
		n.Kind = domain.TransitionKind(kind)
		if userID.Valid {
			id := userID.String
			n.UserID = &id
		}
		if taskID.Valid {
			id := taskID.String
			n.TaskID = &id
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

// MarkNotificationRead flags one notification as read
func (s *Store) MarkNotificationRead(id string) error {
	res, err := s.db.Exec(`UPDATE notifications SET is_read = TRUE WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
