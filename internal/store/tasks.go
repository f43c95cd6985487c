package store

import (
	"database/sql"
	"time"

	"github.com/cutdesk/cutdesk/internal/domain"
	"github.com/google/uuid"
)

const taskColumns = `id, title, notes, status, timer_status, timer_started_at,
	accumulated_seconds, version, deadline, assignee_id, assigned_agency_id,
	wage_vnd, job_price_usd, is_penalized, created_at, updated_at`

// CreateTask inserts a new task
func (s *Store) CreateTask(t *domain.Task) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Status == "" {
		t.Status = domain.StatusAwaiting
	}
	if t.TimerStatus == "" {
		t.TimerStatus = domain.TimerStopped
	}
	now := time.Now()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = now
	}

	_, err := s.db.Exec(`
		INSERT INTO tasks (`+taskColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		t.ID, t.Title, t.Notes, string(t.Status), string(t.TimerStatus),
		nullTime(t.TimerStartedAt), t.AccumulatedSecs, t.Version,
		nullTime(t.Deadline), nullString(t.AssigneeID), nullString(t.AssignedAgencyID),
		t.WageVND, t.JobPriceUSD, t.IsPenalized, t.CreatedAt, t.UpdatedAt,
	)
	return err
}

// GetTask retrieves a task by id
func (s *Store) GetTask(id string) (*domain.Task, error) {
	row := s.db.QueryRow(`SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	return scanTask(row)
}

// TaskExists reports whether a task row is present
func (s *Store) TaskExists(id string) (bool, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM tasks WHERE id = ?`, id).Scan(&n)
	return n > 0, err
}

// ListOptions specifies filters for listing tasks
type ListOptions struct {
	Status     domain.TaskStatus
	AssigneeID string
	AgencyID   string
}

// ListTasks returns tasks matching the given options
func (s *Store) ListTasks(opts ListOptions) ([]*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE 1=1`
	var args []interface{}

	if opts.Status != "" {
		query += " AND status = ?"
		args = append(args, string(opts.Status))
	}
	if opts.AssigneeID != "" {
		query += " AND assignee_id = ?"
		args = append(args, opts.AssigneeID)
	}
	if opts.AgencyID != "" {
		query += " AND assigned_agency_id = ?"
		args = append(args, opts.AgencyID)
	}

	query += " ORDER BY created_at"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []*domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

// ReputationGrant asks ApplyStatusUpdate to raise a user's reputation by
// Step, capped at Cap, inside the same transaction as the status write.
type ReputationGrant struct {
	UserID string
	Step   int
	Cap    int
}

// StatusUpdate describes the guarded, versioned write for a status change.
// All fields are final values computed by the orchestrator.
type StatusUpdate struct {
	TaskID          string
	Status          domain.TaskStatus
	Notes           *string
	TimerStatus     domain.TimerStatus
	TimerStartedAt  *time.Time
	AccumulatedSecs int64
	ClearDeadline   bool
	ClearAssignee   bool
	// ExpectedVersion, when set, filters the update; a concurrent writer
	// since the read makes the row count come back zero.
	ExpectedVersion *int64
	Feedback        *domain.Feedback
	Reward          *ReputationGrant
	Now             time.Time
}

// ApplyStatusUpdate executes the status change as one transaction and
// returns the number of task rows affected. Zero rows means the version
// filter missed (or the task vanished); the caller disambiguates.
func (s *Store) ApplyStatusUpdate(u StatusUpdate) (int64, error) {
	var affected int64
	err := s.withTx(func(tx *sql.Tx) error {
		if u.Feedback != nil {
			f := u.Feedback
			if f.ID == "" {
				f.ID = uuid.NewString()
			}
			if _, err := tx.Exec(`
				INSERT INTO feedback (id, task_id, author_id, content, created_at)
				VALUES (?, ?, ?, ?, ?)
			`, f.ID, f.TaskID, f.AuthorID, f.Content, u.Now); err != nil {
				return err
			}
		}

		if u.Reward != nil {
			if _, err := tx.Exec(`
				UPDATE users SET reputation = MIN(reputation + ?, ?)
				WHERE id = ? AND reputation < ?
			`, u.Reward.Step, u.Reward.Cap, u.Reward.UserID, u.Reward.Cap); err != nil {
				return err
			}
		}

		query := `UPDATE tasks SET
			status = ?, timer_status = ?, timer_started_at = ?,
			accumulated_seconds = ?, version = version + 1, updated_at = ?`
		args := []interface{}{
			string(u.Status), string(u.TimerStatus), nullTime(u.TimerStartedAt),
			u.AccumulatedSecs, u.Now,
		}

		if u.Notes != nil {
			query += `, notes = ?`
			args = append(args, *u.Notes)
		}
		if u.ClearDeadline {
			query += `, deadline = NULL`
		}
		if u.ClearAssignee {
			query += `, assignee_id = NULL`
		}

		query += ` WHERE id = ?`
		args = append(args, u.TaskID)

		if u.ExpectedVersion != nil {
			query += ` AND version = ?`
			args = append(args, *u.ExpectedVersion)
		}

		res, err := tx.Exec(query, args...)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	return affected, err
}

// AssignmentUpdate describes a reassignment write. Assignment writes bypass
// the version filter: they are administrative and total.
type AssignmentUpdate struct {
	TaskID          string
	Status          domain.TaskStatus
	AssigneeID      *string
	AgencyID        *string
	TimerStatus     domain.TimerStatus
	TimerStartedAt  *time.Time
	AccumulatedSecs int64
	ClearDeadline   bool
	// DeleteBlocks removes schedule blocks previously derived from this
	// task; Block, when set, creates a fresh one.
	DeleteBlocks bool
	Block        *domain.ScheduleBlock
	Now          time.Time
}

// ApplyAssignment executes a reassignment as one transaction
func (s *Store) ApplyAssignment(u AssignmentUpdate) error {
	return s.withTx(func(tx *sql.Tx) error {
		query := `UPDATE tasks SET
			status = ?, assignee_id = ?, assigned_agency_id = ?,
			timer_status = ?, timer_started_at = ?, accumulated_seconds = ?,
			is_penalized = FALSE, version = version + 1, updated_at = ?`
		args := []interface{}{
			string(u.Status), nullString(u.AssigneeID), nullString(u.AgencyID),
			string(u.TimerStatus), nullTime(u.TimerStartedAt), u.AccumulatedSecs,
			u.Now,
		}
		if u.ClearDeadline {
			query += `, deadline = NULL`
		}
		query += ` WHERE id = ?`
		args = append(args, u.TaskID)

		res, err := tx.Exec(query, args...)
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

		if u.DeleteBlocks {
			if _, err := tx.Exec(`DELETE FROM schedule_blocks WHERE task_id = ?`, u.TaskID); err != nil {
				return err
			}
		}
		if u.Block != nil {
			b := u.Block
			if b.ID == "" {
				b.ID = uuid.NewString()
			}
			if _, err := tx.Exec(`
				INSERT INTO schedule_blocks (id, user_id, task_id, start_time, end_time, type, note)
				VALUES (?, ?, ?, ?, ?, ?, ?)
			`, b.ID, b.UserID, nullString(b.TaskID), b.StartTime, b.EndTime, string(b.Type), b.Note); err != nil {
				return err
			}
		}
		return nil
	})
}

// TaskFeedback returns a task's feedback entries, oldest first
func (s *Store) TaskFeedback(taskID string) ([]*domain.Feedback, error) {
	rows, err := s.db.Query(`
		SELECT id, task_id, author_id, content, created_at
		FROM feedback WHERE task_id = ? ORDER BY created_at
	`, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*domain.Feedback
	for rows.Next() {
		var f domain.Feedback
		if err := rows.Scan(&f.ID, &f.TaskID, &f.AuthorID, &f.Content, &f.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, &f)
	}
	return entries, rows.Err()
}

// CompletedTasksBetween returns assigned tasks completed within the window,
// inclusive on both ends
func (s *Store) CompletedTasksBetween(start, end time.Time) ([]*domain.Task, error) {
	rows, err := s.db.Query(`
		SELECT `+taskColumns+` FROM tasks
		WHERE status = ? AND assignee_id IS NOT NULL
		  AND updated_at >= ? AND updated_at <= ?
		ORDER BY updated_at
	`, string(domain.StatusCompleted), start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []*domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

// OverdueTasks returns assigned, unfinished, not-yet-penalized tasks whose
// deadline passed, skipping rows younger than the grace period
func (s *Store) OverdueTasks(now time.Time, grace time.Duration) ([]*domain.Task, error) {
	rows, err := s.db.Query(`
		SELECT `+taskColumns+` FROM tasks
		WHERE deadline IS NOT NULL AND deadline < ?
		  AND status NOT IN (?, ?)
		  AND assignee_id IS NOT NULL
		  AND is_penalized = FALSE
		  AND created_at < ?
	`, now, string(domain.StatusCompleted), string(domain.StatusCancelled), now.Add(-grace))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []*domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

// ApplyPenalty marks a task overdue-penalized and returns it to the pool,
// docking the assignee's reputation in the same transaction. The user is
// locked out when reputation reaches zero.
func (s *Store) ApplyPenalty(taskID, userID string, newReputation int, now time.Time) error {
	return s.withTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`UPDATE users SET reputation = ? WHERE id = ?`, newReputation, userID); err != nil {
			return err
		}
		if newReputation <= 0 {
			if _, err := tx.Exec(`UPDATE users SET role = ? WHERE id = ?`, string(domain.RoleLocked), userID); err != nil {
				return err
			}
		}
		_, err := tx.Exec(`
			UPDATE tasks SET
				status = ?, assignee_id = NULL, deadline = NULL,
				timer_status = ?, timer_started_at = NULL, accumulated_seconds = 0,
				is_penalized = TRUE, version = version + 1, updated_at = ?
			WHERE id = ?
		`, string(domain.StatusAwaiting), string(domain.TimerStopped), now, taskID)
		return err
	})
}

// UpdateTaskFinancials updates the money fields of a task. The service layer
// refuses this when the assignee's period is already paid.
func (s *Store) UpdateTaskFinancials(id string, wageVND int64, jobPriceUSD float64) error {
	res, err := s.db.Exec(`
		UPDATE tasks SET wage_vnd = ?, job_price_usd = ?, version = version + 1, updated_at = ?
		WHERE id = ?
	`, wageVND, jobPriceUSD, time.Now(), id)
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

func scanTask(row rowScanner) (*domain.Task, error) {
	var t domain.Task
	var status, timerStatus string
	var notes sql.NullString
	var timerStartedAt, deadline sql.NullTime
	var assigneeID, agencyID sql.NullString

	err := row.Scan(
		&t.ID, &t.Title, &notes, &status, &timerStatus, &timerStartedAt,
		&t.AccumulatedSecs, &t.Version, &deadline, &assigneeID, &agencyID,
		&t.WageVND, &t.JobPriceUSD, &t.IsPenalized, &t.CreatedAt, &t.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	t.Status = domain.TaskStatus(status)
	t.TimerStatus = domain.TimerStatus(timerStatus)
	if notes.Valid {
		t.Notes = notes.String
	}
	if timerStartedAt.Valid {
		ts := timerStartedAt.Time
		t.TimerStartedAt = &ts
	}
	if deadline.Valid {
		d := deadline.Time
		t.Deadline = &d
	}
	if assigneeID.Valid {
		id := assigneeID.String
		t.AssigneeID = &id
	}
	if agencyID.Valid {
		id := agencyID.String
		t.AssignedAgencyID = &id
	}
	return &t, nil
}

func nullTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return *t
}

func nullString(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}
