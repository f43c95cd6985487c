package store

import (
	"database/sql"
	"time"

	"github.com/cutdesk/cutdesk/internal/domain"
	"github.com/google/uuid"
)

// CreateBlock inserts a schedule block
func (s *Store) CreateBlock(b *domain.ScheduleBlock) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	_, err := s.db.Exec(`
		INSERT INTO schedule_blocks (id, user_id, task_id, start_time, end_time, type, note)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, b.ID, b.UserID, nullString(b.TaskID), b.StartTime, b.EndTime, string(b.Type), b.Note)
	return err
}

// DeleteTaskBlocks removes schedule blocks derived from a task
func (s *Store) DeleteTaskBlocks(taskID string) error {
	_, err := s.db.Exec(`DELETE FROM schedule_blocks WHERE task_id = ?`, taskID)
	return err
}

// IsAvailable reports whether the user has no busy block covering the
// instant
func (s *Store) IsAvailable(userID string, at time.Time) (bool, error) {
	var n int
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM schedule_blocks
		WHERE user_id = ? AND type = ? AND start_time <= ? AND end_time > ?
	`, userID, string(domain.BlockBusy), at, at).Scan(&n)
	if err != nil {
		return false, err
	}
	return n == 0, nil
}

// UserBlocks returns a user's schedule blocks within a window, ordered by
// start time
func (s *Store) UserBlocks(userID string, start, end time.Time) ([]domain.ScheduleBlock, error) {
	rows, err := s.db.Query(`
		SELECT id, user_id, task_id, start_time, end_time, type, note
		FROM schedule_blocks
		WHERE user_id = ? AND start_time >= ? AND end_time <= ?
		ORDER BY start_time
	`, userID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var blocks []domain.ScheduleBlock
	for rows.Next() {
		var b domain.ScheduleBlock
		var taskID sql.NullString
		var blockType, note string
		if err := rows.Scan(&b.ID, &b.UserID, &taskID, &b.StartTime, &b.EndTime, &blockType, &note); err != nil {
			return nil, err
		}
		b.Type = domain.BlockType(blockType)
		b.Note = note
		if taskID.Valid {
			id := taskID.String
			b.TaskID = &id
		}
		blocks = append(blocks, b)
	}
	return blocks, rows.Err()
}
