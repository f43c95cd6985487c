// Package timeclock derives stopwatch state for task status transitions.
// Elapsed time is always computed from wall-clock deltas against the
// recorded start instant, never from a running counter, so the accounting
// cannot drift.
package timeclock

import (
	"time"

	"github.com/cutdesk/cutdesk/internal/domain"
)

// State is the stopwatch triple carried on every task
type State struct {
	Status          domain.TimerStatus
	StartedAt       *time.Time
	AccumulatedSecs int64
}

// Stopped returns a fully reset stopwatch
func Stopped() State {
	return State{Status: domain.TimerStopped}
}

// fold adds the elapsed running interval to the accumulated total, floored
// to whole seconds. A sub-second interval contributes zero.
func fold(s State, now time.Time) int64 {
	if s.Status != domain.TimerRunning || s.StartedAt == nil {
		return s.AccumulatedSecs
	}
	elapsed := now.Sub(*s.StartedAt)
	if elapsed <= 0 {
		return s.AccumulatedSecs
	}
	return s.AccumulatedSecs + int64(elapsed/time.Second)
}

// Next computes the stopwatch state after transitioning to target at the
// given instant. Rules are evaluated in priority order against the target
// status.
func Next(target domain.TaskStatus, current State, now time.Time) State {
	switch target {
	case domain.StatusAccepted, domain.StatusAwaiting:
		// Handing the task back resets the clock entirely. The orchestrator
		// additionally clears the assignee and deadline for the pool case.
		return Stopped()

	case domain.StatusCompleted:
		return State{
			Status:          domain.TimerStopped,
			AccumulatedSecs: fold(current, now),
		}

	case domain.StatusInProgress:
		if current.Status == domain.TimerRunning && current.StartedAt != nil {
			// Re-entering the active status must not reset the start time.
			return current
		}
		started := now
		return State{
			Status:          domain.TimerRunning,
			StartedAt:       &started,
			AccumulatedSecs: current.AccumulatedSecs,
		}

	default:
		// Pause-like states: review, revision, frame fix, explicit pause.
		return State{
			Status:          domain.TimerPaused,
			AccumulatedSecs: fold(current, now),
		}
	}
}

// ClearsDeadline reports whether the target status unconditionally wipes the
// task deadline. Independent of the timer rules.
func ClearsDeadline(target domain.TaskStatus) bool {
	switch target {
	case domain.StatusRevision, domain.StatusFrameFix, domain.StatusPaused, domain.StatusAwaiting:
		return true
	}
	return false
}
