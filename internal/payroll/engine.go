// Package payroll implements the monthly bonus settlement: ranking workers
// by completed-task revenue, awarding tiered bonuses, and locking the period
// against re-computation until an explicit revert.
package payroll

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/cutdesk/cutdesk/internal/domain"
	"github.com/cutdesk/cutdesk/internal/store"
)

var (
	// ErrForbidden means the actor lacks the settlement capability
	ErrForbidden = errors.New("permission denied")
	// ErrAlreadyLocked means the period was settled and not reverted
	ErrAlreadyLocked = errors.New("bonus period already settled")
	// ErrNoData means no worker completed any task in the period
	ErrNoData = errors.New("no completed tasks in period")
	// ErrNotFound is returned when reverting a payment that does not exist
	ErrNotFound = errors.New("not found")
)

// Bonus percentages by rank, in basis points of the awardee's own revenue.
var rankBasisPoints = [...]int64{1500, 1000, 500}

// Engine computes and reverts monthly bonus settlements
type Engine struct {
	store *store.Store
	now   func() time.Time
}

// New creates a settlement engine
func New(st *store.Store) *Engine {
	return &Engine{store: st, now: time.Now}
}

// Round is the outcome of a settlement run
type Round struct {
	Bonuses []domain.MonthlyBonus
	Month   int
	Year    int
}

// standing is one worker's aggregate before ranking
type standing struct {
	userID  string
	revenue int64
	seconds int64
}

// CalculateMonthlyBonus ranks the current month's workers and persists the
// top-three awards together with the period lock. It refuses to run while
// the period is locked; revert first.
func (e *Engine) CalculateMonthlyBonus(actor domain.Actor) (*Round, error) {
	if !actor.CanSettlePayroll() {
		return nil, ErrForbidden
	}

	now := e.now()
	month, year := store.PeriodOf(now)

	lock, err := e.store.GetLock(month, year)
	if err != nil {
		return nil, fmt.Errorf("checking lock: %w", err)
	}
	if lock != nil && lock.IsLocked {
		return nil, ErrAlreadyLocked
	}

	start, end := store.MonthBounds(now)
	completed, err := e.store.CompletedTasksBetween(start, end)
	if err != nil {
		return nil, fmt.Errorf("loading completed tasks: %w", err)
	}

	workers, err := e.store.ListWorkers()
	if err != nil {
		return nil, fmt.Errorf("loading workers: %w", err)
	}
	eligible := make(map[string]bool, len(workers))
	for _, w := range workers {
		eligible[w.ID] = true
	}

	totals := make(map[string]*standing)
	for _, t := range completed {
		if t.AssigneeID == nil || !eligible[*t.AssigneeID] {
			continue
		}
		s := totals[*t.AssigneeID]
		if s == nil {
			s = &standing{userID: *t.AssigneeID}
			totals[*t.AssigneeID] = s
		}
		s.revenue += t.WageVND
		s.seconds += t.AccumulatedSecs
	}
	if len(totals) == 0 {
		return nil, ErrNoData
	}

	ranked := make([]*standing, 0, len(totals))
	for _, s := range totals {
		ranked = append(ranked, s)
	}
	// Revenue descending; on a tie the faster worker wins. The final user-id
	// tie-break keeps the order total, so re-runs are deterministic.
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].revenue != ranked[j].revenue {
			return ranked[i].revenue > ranked[j].revenue
		}
		if ranked[i].seconds != ranked[j].seconds {
			return ranked[i].seconds < ranked[j].seconds
		}
		return ranked[i].userID < ranked[j].userID
	})

	awardees := len(ranked)
	if awardees > len(rankBasisPoints) {
		awardees = len(rankBasisPoints)
	}

	bonuses := make([]domain.MonthlyBonus, 0, awardees)
	for i := 0; i < awardees; i++ {
		s := ranked[i]
		bonuses = append(bonuses, domain.MonthlyBonus{
			UserID:             s.userID,
			Month:              month,
			Year:               year,
			Rank:               i + 1,
			Revenue:            s.revenue,
			ExecutionTimeHours: float64(s.seconds) / 3600,
			BonusAmount:        s.revenue * rankBasisPoints[i] / 10000,
			CreatedAt:          now,
		})
	}

	err = e.store.ReplaceBonusRound(bonuses, domain.PayrollLock{
		Month:    month,
		Year:     year,
		IsLocked: true,
		LockedAt: now,
		LockedBy: actor.ID,
	})
	if err != nil {
		return nil, fmt.Errorf("persisting bonus round: %w", err)
	}

	return &Round{Bonuses: bonuses, Month: month, Year: year}, nil
}

// RevertMonthlyBonus deletes the current period's bonus rows and lock in one
// transaction. It is an administrative undo: unconditional, idempotent, and
// not guarded against concurrent settlement runs.
func (e *Engine) RevertMonthlyBonus(actor domain.Actor) error {
	if !actor.CanSettlePayroll() {
		return ErrForbidden
	}
	month, year := store.PeriodOf(e.now())
	if err := e.store.DeleteBonusRound(month, year); err != nil {
		return fmt.Errorf("deleting bonus round: %w", err)
	}
	return nil
}

// SetTreasurer grants or revokes the settlement capability on a user. Only a
// super admin may change it; treasurers cannot appoint each other.
func (e *Engine) SetTreasurer(actor domain.Actor, userID string, isTreasurer bool) error {
	if !actor.IsAdmin() {
		return ErrForbidden
	}
	if err := e.store.SetTreasurer(userID, isTreasurer); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// LockStatus reports the current period's lock. A nil lock means the period
// was never settled, which reads as unlocked.
func (e *Engine) LockStatus() (*domain.PayrollLock, int, int, error) {
	month, year := store.PeriodOf(e.now())
	lock, err := e.store.GetLock(month, year)
	if err != nil {
		return nil, 0, 0, err
	}
	return lock, month, year, nil
}

// Bonuses returns the persisted awards for the current period, ranked
func (e *Engine) Bonuses() ([]domain.MonthlyBonus, error) {
	month, year := store.PeriodOf(e.now())
	return e.store.ListBonuses(month, year)
}

// ConfirmPayment marks one worker's period as paid. The bonus figure is
// taken from the period's persisted award, if any.
func (e *Engine) ConfirmPayment(actor domain.Actor, userID string, baseSalary int64) (*domain.Payment, error) {
	if !actor.CanSettlePayroll() {
		return nil, ErrForbidden
	}
	now := e.now()
	month, year := store.PeriodOf(now)

	var bonus int64
	awards, err := e.store.ListBonuses(month, year)
	if err != nil {
		return nil, fmt.Errorf("loading bonuses: %w", err)
	}
	for _, a := range awards {
		if a.UserID == userID {
			bonus = a.BonusAmount
			break
		}
	}

	payment := domain.Payment{
		UserID:      userID,
		Month:       month,
		Year:        year,
		BaseSalary:  baseSalary,
		Bonus:       bonus,
		TotalAmount: baseSalary + bonus,
		Status:      domain.PaymentPaid,
		PaidAt:      &now,
	}
	if err := e.store.UpsertPayment(payment); err != nil {
		return nil, fmt.Errorf("recording payment: %w", err)
	}
	return &payment, nil
}

// RevertPayment undoes a confirmed payout, re-opening the worker's period
// for financial edits.
func (e *Engine) RevertPayment(actor domain.Actor, userID string) error {
	if !actor.CanSettlePayroll() {
		return ErrForbidden
	}
	month, year := store.PeriodOf(e.now())
	if err := e.store.DeletePayment(userID, month, year); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}
