// Package deadline runs the overdue sweep: tasks whose deadline passed are
// returned to the pool and their assignee docked reputation, with a lockout
// when the score runs out.
package deadline

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/cutdesk/cutdesk/internal/domain"
	"github.com/cutdesk/cutdesk/internal/notify"
	"github.com/cutdesk/cutdesk/internal/store"
)

const (
	penaltyStep = 10
	// gracePeriod shields freshly created tasks from the sweep, so a task
	// seeded with a deadline already in the past is not penalized instantly.
	gracePeriod = 15 * time.Minute
)

// Dispatcher is the non-blocking notification handoff
type Dispatcher interface {
	Dispatch(n notify.Notification)
}

// Monitor sweeps for overdue tasks on a cron schedule
type Monitor struct {
	store      *store.Store
	dispatcher Dispatcher
	now        func() time.Time

	mu       sync.Mutex
	schedule cron.Schedule
	running  bool
	lastRun  time.Time
	stopChan chan struct{}
}

// ParseCron parses a standard five-field cron expression
func ParseCron(expr string) (cron.Schedule, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	return parser.Parse(expr)
}

// New creates a monitor. The cron expression uses the standard five fields.
func New(st *store.Store, dispatcher Dispatcher, cronExpr string) (*Monitor, error) {
	schedule, err := ParseCron(cronExpr)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression: %w", err)
	}
	return &Monitor{
		store:      st,
		dispatcher: dispatcher,
		schedule:   schedule,
		now:        time.Now,
		stopChan:   make(chan struct{}),
	}, nil
}

// NextRun returns the next scheduled sweep time
func (m *Monitor) NextRun() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.schedule.Next(m.now())
}

// Reschedule swaps the sweep schedule for a new cron expression. A sweep in
// flight finishes on the old cadence; the next one follows the new schedule.
func (m *Monitor) Reschedule(cronExpr string) error {
	schedule, err := ParseCron(cronExpr)
	if err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.schedule = schedule
	return nil
}

// shouldRun reports whether a sweep is due and none is in flight
func (m *Monitor) shouldRun() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return false
	}
	last := m.lastRun
	if last.IsZero() {
		last = m.now().Add(-24 * time.Hour)
	}
	return m.now().After(m.schedule.Next(last))
}

// Start runs the sweep loop until Stop is called. Blocking; run in a
// goroutine.
func (m *Monitor) Start() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopChan:
			return
		case <-ticker.C:
			if !m.shouldRun() {
				continue
			}
			m.mu.Lock()
			m.running = true
			m.mu.Unlock()

			go func() {
				if _, err := m.Sweep(); err != nil {
					log.Printf("deadline: sweep failed: %v", err)
				}
				m.mu.Lock()
				m.running = false
				m.lastRun = m.now()
				m.mu.Unlock()
			}()
		}
	}
}

// Stop stops the sweep loop
func (m *Monitor) Stop() {
	close(m.stopChan)
}

// Sweep penalizes every overdue task once and returns how many were hit.
// Each penalty is its own transaction, so one bad row cannot wedge the
// whole pass.
func (m *Monitor) Sweep() (int, error) {
	now := m.now()
	overdue, err := m.store.OverdueTasks(now, gracePeriod)
	if err != nil {
		return 0, fmt.Errorf("loading overdue tasks: %w", err)
	}

	penalized := 0
	for _, task := range overdue {
		if task.AssigneeID == nil {
			continue
		}
		user, err := m.store.GetUser(*task.AssigneeID)
		if err != nil {
			log.Printf("deadline: loading assignee for task %s: %v", task.ID, err)
			continue
		}

		newReputation := user.Reputation - penaltyStep
		if newReputation < 0 {
			newReputation = 0
		}
		if err := m.store.ApplyPenalty(task.ID, user.ID, newReputation, now); err != nil {
			log.Printf("deadline: penalizing task %s: %v", task.ID, err)
			continue
		}
		penalized++

		if newReputation <= 0 {
			log.Printf("deadline: account %s locked, reputation exhausted", user.Username)
		}
		if m.dispatcher != nil {
			m.dispatcher.Dispatch(notify.Notification{
				Kind:        domain.TransitionPenalized,
				TaskID:      task.ID,
				TaskTitle:   task.Title,
				RecipientID: user.ID,
			})
		}
	}
	return penalized, nil
}
