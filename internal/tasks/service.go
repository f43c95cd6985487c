// Package tasks implements the guarded task lifecycle: status updates with
// optimistic concurrency, drift-proof time accounting, and reassignment.
package tasks

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/cutdesk/cutdesk/internal/domain"
	"github.com/cutdesk/cutdesk/internal/fsm"
	"github.com/cutdesk/cutdesk/internal/notify"
	"github.com/cutdesk/cutdesk/internal/store"
	"github.com/cutdesk/cutdesk/internal/timeclock"
)

const (
	reputationStep = 5
	// scheduleBlockLead is the assumed working window reserved before a
	// task's deadline.
	scheduleBlockLead = 2 * time.Hour
)

// Dispatcher is the non-blocking notification handoff
type Dispatcher interface {
	Dispatch(n notify.Notification)
}

// Service orchestrates task lifecycle operations
type Service struct {
	store      *store.Store
	dispatcher Dispatcher
	now        func() time.Time
}

// New creates a task service. A nil dispatcher disables notifications.
func New(st *store.Store, dispatcher Dispatcher) *Service {
	if dispatcher == nil {
		dispatcher = noopDispatcher{}
	}
	return &Service{store: st, dispatcher: dispatcher, now: time.Now}
}

type noopDispatcher struct{}

func (noopDispatcher) Dispatch(notify.Notification) {}

// UpdateStatusRequest is the typed payload for a status change. Only these
// fields are writable through this path.
type UpdateStatusRequest struct {
	TaskID    string
	NewStatus domain.TaskStatus
	Notes     *string
	Feedback  *string
	// ExpectedVersion, when set, makes the write conditional on the version
	// the caller last saw.
	ExpectedVersion *int64
}

// UpdateStatusResult reports the accumulated seconds as of the update, so
// the caller can render a consistent timer without a second round trip.
type UpdateStatusResult struct {
	FinalSeconds int64
}

// UpdateTaskStatus validates and applies a status transition as one atomic
// write, then fires the notification side effect without awaiting delivery.
func (s *Service) UpdateTaskStatus(actor domain.Actor, req UpdateStatusRequest) (UpdateStatusResult, error) {
	task, err := s.store.GetTask(req.TaskID)
	if errors.Is(err, store.ErrNotFound) {
		return UpdateStatusResult{}, ErrNotFound
	}
	if err != nil {
		return UpdateStatusResult{}, fmt.Errorf("loading task: %w", err)
	}

	if err := authorize(actor, task); err != nil {
		return UpdateStatusResult{}, err
	}

	if err := fsm.Validate(task.Status, req.NewStatus); err != nil {
		return UpdateStatusResult{}, fmt.Errorf("%w: %v", ErrInvalidTransition, err)
	}

	// Fast path: a stale version fails before any side-effect computation.
	if req.ExpectedVersion != nil && *req.ExpectedVersion != task.Version {
		return UpdateStatusResult{}, ErrConcurrencyConflict
	}

	now := s.now()
	timer := timeclock.Next(req.NewStatus, timeclock.State{
		Status:          task.TimerStatus,
		StartedAt:       task.TimerStartedAt,
		AccumulatedSecs: task.AccumulatedSecs,
	}, now)

	update := store.StatusUpdate{
		TaskID:          task.ID,
		Status:          req.NewStatus,
		Notes:           req.Notes,
		TimerStatus:     timer.Status,
		TimerStartedAt:  timer.StartedAt,
		AccumulatedSecs: timer.AccumulatedSecs,
		ClearDeadline:   timeclock.ClearsDeadline(req.NewStatus),
		ClearAssignee:   req.NewStatus == domain.StatusAwaiting,
		ExpectedVersion: req.ExpectedVersion,
		Now:             now,
	}

	if req.NewStatus == domain.StatusRevision && req.Feedback != nil && strings.TrimSpace(*req.Feedback) != "" {
		update.Feedback = &domain.Feedback{
			TaskID:   task.ID,
			AuthorID: actor.ID,
			Content:  *req.Feedback,
		}
	}

	// The reward fires only on the transition into completion; a repeat
	// completion write must not re-reward.
	if req.NewStatus == domain.StatusCompleted && task.Status != domain.StatusCompleted &&
		task.Deadline != nil && task.AssigneeID != nil && !now.After(*task.Deadline) {
		update.Reward = &store.ReputationGrant{
			UserID: *task.AssigneeID,
			Step:   reputationStep,
			Cap:    domain.MaxReputation,
		}
	}

	affected, err := s.store.ApplyStatusUpdate(update)
	if err != nil {
		return UpdateStatusResult{}, fmt.Errorf("applying status update: %w", err)
	}
	if affected == 0 {
		// Another writer may have committed between the fast-path check and
		// the conditional write. Re-read to tell the cases apart.
		exists, err := s.store.TaskExists(task.ID)
		if err != nil {
			return UpdateStatusResult{}, fmt.Errorf("re-checking task: %w", err)
		}
		if !exists {
			return UpdateStatusResult{}, ErrNotFound
		}
		return UpdateStatusResult{}, ErrConcurrencyConflict
	}

	fresh, err := s.store.GetTask(task.ID)
	if err != nil {
		// The write committed; report success with the computed seconds.
		log.Printf("tasks: re-read after update failed for %s: %v", task.ID, err)
		return UpdateStatusResult{FinalSeconds: timer.AccumulatedSecs}, nil
	}

	if task.Status != req.NewStatus {
		if kind := fsm.Kind(task.Status, req.NewStatus); kind != "" {
			s.notifyTransition(kind, fresh)
		}
	}

	return UpdateStatusResult{FinalSeconds: fresh.LiveSeconds(now)}, nil
}

// Assignment target shapes understood by AssignTask
const (
	// TargetUnassign removes the assignee but keeps the agency pool link.
	TargetUnassign = "unassign"
	// TargetRevoke returns the task to the system: no assignee, no agency.
	TargetRevoke = "revoke"
	// TargetAgencyPrefix routes the task into an agency's pool.
	TargetAgencyPrefix = "agency:"
)

// AssignTask changes who holds a task. The running interval, if any, is
// folded into the accumulated seconds before anything else so reassignment
// never leaks time. The timer always lands PAUSED and the penalty flag is
// cleared.
func (s *Service) AssignTask(actor domain.Actor, taskID, target string) error {
	task, err := s.store.GetTask(taskID)
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("loading task: %w", err)
	}

	if !actor.IsAdmin() {
		if actor.OwnedAgencyID == nil {
			return ErrForbidden
		}
		if task.AssignedAgencyID == nil || *task.AssignedAgencyID != *actor.OwnedAgencyID {
			return ErrForbidden
		}
	}

	now := s.now()
	folded := task.LiveSeconds(now)

	update := store.AssignmentUpdate{
		TaskID:          task.ID,
		TimerStatus:     domain.TimerPaused,
		AccumulatedSecs: folded,
		Now:             now,
	}

	var kind domain.TransitionKind
	var recipient string

	switch {
	case target == "" || target == TargetUnassign:
		update.Status = domain.StatusAwaiting
		update.AgencyID = task.AssignedAgencyID
		update.ClearDeadline = true
		update.DeleteBlocks = true
		kind = domain.TransitionUnassigned

	case target == TargetRevoke:
		update.Status = domain.StatusAwaiting
		update.ClearDeadline = true
		update.DeleteBlocks = true
		kind = domain.TransitionUnassigned

	case strings.HasPrefix(target, TargetAgencyPrefix):
		agencyID := strings.TrimPrefix(target, TargetAgencyPrefix)
		if !actor.IsAdmin() && (actor.OwnedAgencyID == nil || agencyID != *actor.OwnedAgencyID) {
			return ErrForbidden
		}
		if _, err := s.store.GetAgency(agencyID); errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("%w: unknown agency %q", ErrValidation, agencyID)
		} else if err != nil {
			return fmt.Errorf("loading agency: %w", err)
		}
		update.Status = domain.StatusAwaiting
		update.AgencyID = &agencyID
		update.DeleteBlocks = true

	default:
		assignee, err := s.store.GetUser(target)
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("%w: unknown user %q", ErrValidation, target)
		}
		if err != nil {
			return fmt.Errorf("loading user: %w", err)
		}
		if !actor.IsAdmin() {
			if assignee.AgencyID == nil || *assignee.AgencyID != *actor.OwnedAgencyID {
				return ErrForbidden
			}
			available, err := s.store.IsAvailable(assignee.ID, now)
			if err != nil {
				return fmt.Errorf("checking availability: %w", err)
			}
			if !available {
				return fmt.Errorf("%w: %s is busy right now", ErrValidation, assignee.Username)
			}
		}
		update.Status = domain.StatusAccepted
		update.AssigneeID = &assignee.ID
		update.AgencyID = task.AssignedAgencyID
		update.DeleteBlocks = true
		if task.Deadline != nil && task.Deadline.After(now) {
			update.Block = &domain.ScheduleBlock{
				UserID:    assignee.ID,
				TaskID:    &task.ID,
				StartTime: task.Deadline.Add(-scheduleBlockLead),
				EndTime:   *task.Deadline,
				Type:      domain.BlockTask,
				Note:      "Task: " + task.Title,
			}
		}
		kind = domain.TransitionAssigned
		recipient = assignee.ID
	}

	if err := s.store.ApplyAssignment(update); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("applying assignment: %w", err)
	}

	if kind != "" {
		s.dispatcher.Dispatch(notify.Notification{
			Kind:        kind,
			TaskID:      task.ID,
			TaskTitle:   task.Title,
			RecipientID: recipient,
		})
	}
	return nil
}

// UpdateFinancials changes a task's money fields. Once the assignee's
// payroll period is PAID the figures are frozen.
func (s *Service) UpdateFinancials(actor domain.Actor, taskID string, wageVND int64, jobPriceUSD float64) error {
	if !actor.IsAdmin() {
		return ErrForbidden
	}
	task, err := s.store.GetTask(taskID)
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("loading task: %w", err)
	}

	if task.AssigneeID != nil {
		month, year := store.PeriodOf(task.CreatedAt)
		payment, err := s.store.GetPayment(*task.AssigneeID, month, year)
		if err != nil {
			return fmt.Errorf("checking payroll: %w", err)
		}
		if payment != nil && payment.Status == domain.PaymentPaid {
			return ErrPeriodPaid
		}
	}

	if err := s.store.UpdateTaskFinancials(taskID, wageVND, jobPriceUSD); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// LiveSeconds returns the task's accumulated seconds as of now
func (s *Service) LiveSeconds(taskID string) (int64, error) {
	task, err := s.store.GetTask(taskID)
	if errors.Is(err, store.ErrNotFound) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	return task.LiveSeconds(s.now()), nil
}

func (s *Service) notifyTransition(kind domain.TransitionKind, task *domain.Task) {
	var recipient string
	if task.AssigneeID != nil {
		recipient = *task.AssigneeID
	}
	s.dispatcher.Dispatch(notify.Notification{
		Kind:        kind,
		TaskID:      task.ID,
		TaskTitle:   task.Title,
		RecipientID: recipient,
	})
}
