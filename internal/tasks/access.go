package tasks

import (
	"github.com/cutdesk/cutdesk/internal/domain"
)

// authorize checks whether the actor may act on the task: super-admins
// always, assignees on their own tasks, agency owners on their agency's
// tasks.
func authorize(actor domain.Actor, task *domain.Task) error {
	if actor.IsAdmin() {
		return nil
	}
	if task.AssigneeID != nil && *task.AssigneeID == actor.ID {
		return nil
	}
	if actor.OwnedAgencyID != nil && task.AssignedAgencyID != nil &&
		*actor.OwnedAgencyID == *task.AssignedAgencyID {
		return nil
	}
	return ErrForbidden
}
