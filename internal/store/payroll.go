package store

import (
	"database/sql"
	"time"

	"github.com/cutdesk/cutdesk/internal/domain"
)

// GetLock returns the payroll lock for a period, or nil if the period was
// never locked
func (s *Store) GetLock(month, year int) (*domain.PayrollLock, error) {
	var l domain.PayrollLock
	var lockedAt sql.NullTime
	var lockedBy sql.NullString

	err := s.db.QueryRow(`
		SELECT month, year, is_locked, locked_at, locked_by
		FROM payroll_locks WHERE month = ? AND year = ?
	`, month, year).Scan(&l.Month, &l.Year, &l.IsLocked, &lockedAt, &lockedBy)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if lockedAt.Valid {
		l.LockedAt = lockedAt.Time
	}
	if lockedBy.Valid {
		l.LockedBy = lockedBy.String
	}
	return &l, nil
}

// ReplaceBonusRound persists a computed settlement: for each awardee the
// stale bonus row for the period is deleted and the fresh one inserted, and
// the period lock is upserted — all in one transaction.
func (s *Store) ReplaceBonusRound(bonuses []domain.MonthlyBonus, lock domain.PayrollLock) error {
	return s.withTx(func(tx *sql.Tx) error {
		for _, b := range bonuses {
			if _, err := tx.Exec(`
				DELETE FROM monthly_bonuses WHERE user_id = ? AND month = ? AND year = ?
			`, b.UserID, b.Month, b.Year); err != nil {
				return err
			}
			if _, err := tx.Exec(`
				INSERT INTO monthly_bonuses (user_id, month, year, rank, revenue, execution_time_hours, bonus_amount, created_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			`, b.UserID, b.Month, b.Year, b.Rank, b.Revenue, b.ExecutionTimeHours, b.BonusAmount, lock.LockedAt); err != nil {
				return err
			}
		}

		_, err := tx.Exec(`
			INSERT INTO payroll_locks (month, year, is_locked, locked_at, locked_by)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(month, year) DO UPDATE SET
				is_locked = excluded.is_locked,
				locked_at = excluded.locked_at,
				locked_by = excluded.locked_by
		`, lock.Month, lock.Year, lock.IsLocked, lock.LockedAt, lock.LockedBy)
		return err
	})
}

// DeleteBonusRound removes every bonus row and the lock for a period in one
// transaction, so a crash cannot leave bonuses gone with the lock standing.
func (s *Store) DeleteBonusRound(month, year int) error {
	return s.withTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM monthly_bonuses WHERE month = ? AND year = ?`, month, year); err != nil {
			return err
		}
		_, err := tx.Exec(`DELETE FROM payroll_locks WHERE month = ? AND year = ?`, month, year)
		return err
	})
}

// ListBonuses returns the bonus rows for a period ordered by rank
func (s *Store) ListBonuses(month, year int) ([]domain.MonthlyBonus, error) {
	rows, err := s.db.Query(`
		SELECT user_id, month, year, rank, revenue, execution_time_hours, bonus_amount, created_at
		FROM monthly_bonuses WHERE month = ? AND year = ? ORDER BY rank
	`, month, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bonuses []domain.MonthlyBonus
	for rows.Next() {
		var b domain.MonthlyBonus
		if err := rows.Scan(&b.UserID, &b.Month, &b.Year, &b.Rank, &b.Revenue, &b.ExecutionTimeHours, &b.BonusAmount, &b.CreatedAt); err != nil {
			return nil, err
		}
		bonuses = append(bonuses, b)
	}
	return bonuses, rows.Err()
}

// UpsertPayment records a confirmed payout for one user and period
func (s *Store) UpsertPayment(p domain.Payment) error {
	_, err := s.db.Exec(`
		INSERT INTO payments (user_id, month, year, base_salary, bonus, total_amount, status, paid_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, month, year) DO UPDATE SET
			base_salary = excluded.base_salary,
			bonus = excluded.bonus,
			total_amount = excluded.total_amount,
			status = excluded.status,
			paid_at = excluded.paid_at
	`, p.UserID, p.Month, p.Year, p.BaseSalary, p.Bonus, p.TotalAmount, p.Status, nullTime(p.PaidAt))
	return err
}

// GetPayment returns the payment row for one user and period, or nil
func (s *Store) GetPayment(userID string, month, year int) (*domain.Payment, error) {
	var p domain.Payment
	var paidAt sql.NullTime
	err := s.db.QueryRow(`
		SELECT user_id, month, year, base_salary, bonus, total_amount, status, paid_at
		FROM payments WHERE user_id = ? AND month = ? AND year = ?
	`, userID, month, year).Scan(&p.UserID, &p.Month, &p.Year, &p.BaseSalary, &p.Bonus, &p.TotalAmount, &p.Status, &paidAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if paidAt.Valid {
		t := paidAt.Time
		p.PaidAt = &t
	}
	return &p, nil
}

// DeletePayment reverts a confirmed payout
func (s *Store) DeletePayment(userID string, month, year int) error {
	res, err := s.db.Exec(`DELETE FROM payments WHERE user_id = ? AND month = ? AND year = ?`, userID, month, year)
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

// PeriodOf returns the 1-based month and year of an instant
func PeriodOf(t time.Time) (month, year int) {
	return int(t.Month()), t.Year()
}

// MonthBounds returns the first and last instants of the calendar month
// containing t, in t's location
func MonthBounds(t time.Time) (start, end time.Time) {
	start = time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	end = start.AddDate(0, 1, 0).Add(-time.Nanosecond)
	return start, end
}
