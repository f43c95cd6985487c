package domain

import "time"

// MaxReputation caps the reputation score; new accounts start here.
const MaxReputation = 100

// User represents a worker, agency owner, or administrator
type User struct {
	ID          string
	Username    string
	Nickname    string
	Email       string
	Role        Role
	IsTreasurer bool
	Reputation  int
	AgencyID    *string
	CreatedAt   time.Time
}

// Agency groups workers under an owner who can manage their assignments
type Agency struct {
	ID        string
	Name      string
	Code      string
	OwnerID   *string
	CreatedAt time.Time
}

// Actor carries the caller's resolved identity into every operation.
// It replaces ambient session lookup: handlers resolve it once at the
// boundary and pass it down explicitly.
type Actor struct {
	ID            string
	Role          Role
	IsTreasurer   bool
	OwnedAgencyID *string
}

// IsAdmin reports whether the actor holds the super-admin role
func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

// CanSettlePayroll reports whether the actor may run or revert the monthly
// bonus settlement
func (a Actor) CanSettlePayroll() bool { return a.Role == RoleAdmin || a.IsTreasurer }

// ScheduleBlock reserves a slice of a user's calendar
type ScheduleBlock struct {
	ID        string
	UserID    string
	TaskID    *string
	StartTime time.Time
	EndTime   time.Time
	Type      BlockType
	Note      string
}

// Notification is a persisted message for the in-app bell. A nil UserID
// means broadcast.
type Notification struct {
	ID        string
	UserID    *string
	TaskID    *string
	Kind      TransitionKind
	Message   string
	IsRead    bool
	CreatedAt time.Time
}
