package domain

import "time"

// MonthlyBonus is a ranked award for one user in one settlement period
type MonthlyBonus struct {
	UserID             string
	Month              int
	Year               int
	Rank               int
	Revenue            int64
	ExecutionTimeHours float64
	BonusAmount        int64
	CreatedAt          time.Time
}

// PayrollLock marks a settlement period as closed. Absence of a row for a
// period means unlocked.
type PayrollLock struct {
	Month    int
	Year     int
	IsLocked bool
	LockedAt time.Time
	LockedBy string
}

// Payment records a confirmed salary payout for one user and period
type Payment struct {
	UserID      string
	Month       int
	Year        int
	BaseSalary  int64
	Bonus       int64
	TotalAmount int64
	Status      string
	PaidAt      *time.Time
}

// PaymentPaid is the settled status of a Payment row; financial fields of
// tasks in a paid period must not change.
const PaymentPaid = "PAID"
