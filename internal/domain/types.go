package domain

// TaskStatus represents the lifecycle state of a task
type TaskStatus string

const (
	// StatusAwaiting is the initial state: the task sits in the global or
	// agency pool waiting to be handed out.
	StatusAwaiting TaskStatus = "awaiting_assignment"
	// StatusAccepted means a worker holds the task but has not started.
	StatusAccepted   TaskStatus = "accepted"
	StatusInProgress TaskStatus = "in_progress"
	// StatusReview means the work was submitted and waits on the admin/client.
	StatusReview   TaskStatus = "review"
	StatusRevision TaskStatus = "revision"
	// StatusFrameFix is the active state for fixing specific frames.
	StatusFrameFix  TaskStatus = "frame_fix"
	StatusPaused    TaskStatus = "paused"
	StatusCompleted TaskStatus = "completed"
	StatusCancelled TaskStatus = "cancelled"
)

// TimerStatus represents the stopwatch state of a task
type TimerStatus string

const (
	TimerRunning TimerStatus = "RUNNING"
	TimerPaused  TimerStatus = "PAUSED"
	TimerStopped TimerStatus = "STOPPED"
)

// Role represents a user's access level
type Role string

const (
	RoleAdmin       Role = "ADMIN"
	RoleAgencyAdmin Role = "AGENCY_ADMIN"
	RoleUser        Role = "USER"
	// RoleLocked marks an account banned after its reputation ran out.
	RoleLocked Role = "LOCKED"
)

// BlockType classifies a schedule block
type BlockType string

const (
	BlockBusy      BlockType = "BUSY"
	BlockOvertime  BlockType = "OVERTIME"
	BlockAvailable BlockType = "AVAILABLE"
	BlockTask      BlockType = "TASK"
)

// TransitionKind names the business meaning of a status change for
// notification routing
type TransitionKind string

const (
	TransitionStarted        TransitionKind = "started"
	TransitionResumedFromFix TransitionKind = "resumed_from_revision"
	TransitionSubmitted      TransitionKind = "submitted"
	TransitionRevision       TransitionKind = "revision"
	TransitionCompleted      TransitionKind = "completed"
	TransitionAssigned       TransitionKind = "assigned"
	TransitionUnassigned     TransitionKind = "unassigned"
	TransitionPenalized      TransitionKind = "penalized"
)
