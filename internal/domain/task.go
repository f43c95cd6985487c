package domain

import "time"

// Task represents a unit of outsourced editing work
type Task struct {
	ID               string
	Title            string
	Notes            string
	Status           TaskStatus
	TimerStatus      TimerStatus
	TimerStartedAt   *time.Time
	AccumulatedSecs  int64
	Version          int64
	Deadline         *time.Time
	AssigneeID       *string
	AssignedAgencyID *string
	// WageVND is the amount owed to the worker on completion.
	WageVND     int64
	JobPriceUSD float64
	IsPenalized bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// LiveSeconds returns the accumulated active seconds as of now, folding in
// the still-running interval without mutating the record.
func (t *Task) LiveSeconds(now time.Time) int64 {
	total := t.AccumulatedSecs
	if t.TimerStatus == TimerRunning && t.TimerStartedAt != nil {
		elapsed := now.Sub(*t.TimerStartedAt)
		if elapsed > 0 {
			total += int64(elapsed.Seconds())
		}
	}
	return total
}

// Feedback is a revision note attached to a task by a reviewer
type Feedback struct {
	ID        string
	TaskID    string
	AuthorID  string
	Content   string
	CreatedAt time.Time
}
