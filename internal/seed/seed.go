// Package seed loads fixture data from a YAML file and applies it to the
// store. Seeding is idempotent: existing usernames, agency codes, and task
// titles are left alone.
package seed

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cutdesk/cutdesk/internal/domain"
	"github.com/cutdesk/cutdesk/internal/store"
)

// Fixture is the root of a seed file
type Fixture struct {
	Users    []UserSpec   `yaml:"users"`
	Agencies []AgencySpec `yaml:"agencies"`
	Tasks    []TaskSpec   `yaml:"tasks"`
}

// UserSpec seeds one account
type UserSpec struct {
	Username    string `yaml:"username"`
	Nickname    string `yaml:"nickname"`
	Email       string `yaml:"email"`
	Role        string `yaml:"role"`
	IsTreasurer bool   `yaml:"is_treasurer"`
	Agency      string `yaml:"agency"` // agency code, optional
}

// AgencySpec seeds one agency; Owner names the owning user by username
type AgencySpec struct {
	Name  string `yaml:"name"`
	Code  string `yaml:"code"`
	Owner string `yaml:"owner"`
}

// TaskSpec seeds one task; Assignee names a user by username
type TaskSpec struct {
	Title         string  `yaml:"title"`
	Status        string  `yaml:"status"`
	Assignee      string  `yaml:"assignee"`
	Agency        string  `yaml:"agency"`
	WageVND       int64   `yaml:"wage_vnd"`
	JobPriceUSD   float64 `yaml:"job_price_usd"`
	DeadlineHours int     `yaml:"deadline_hours"`
}

// Load reads a fixture from a YAML file
func Load(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing seed file: %w", err)
	}
	return &f, nil
}

// Default returns the built-in fixture: a super admin, one agency with an
// owner, and a staff account.
func Default() *Fixture {
	return &Fixture{
		Users: []UserSpec{
			{Username: "admin", Nickname: "Super Admin", Email: "admin@example.com", Role: string(domain.RoleAdmin)},
			{Username: "owner", Nickname: "Agency Boss", Role: string(domain.RoleAgencyAdmin), Agency: "AGC-DEFAULT"},
			{Username: "staff", Nickname: "Staff One", Role: string(domain.RoleUser), Agency: "AGC-DEFAULT"},
		},
		Agencies: []AgencySpec{
			{Name: "Blazing Agency", Code: "AGC-DEFAULT", Owner: "owner"},
		},
	}
}

// Apply writes the fixture into the store, skipping records that already
// exist. It returns how many rows were created.
func Apply(st *store.Store, f *Fixture) (int, error) {
	created := 0

	// Agencies first so users can reference them by code.
	agenciesByCode := make(map[string]*domain.Agency)
	for _, spec := range f.Agencies {
		if spec.Code == "" {
			return created, fmt.Errorf("agency %q: code is required", spec.Name)
		}
		existing, err := st.GetAgencyByCode(spec.Code)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return created, err
		}
		if existing != nil {
			agenciesByCode[spec.Code] = existing
			continue
		}
		agency := &domain.Agency{Name: spec.Name, Code: spec.Code}
		if err := st.CreateAgency(agency); err != nil {
			return created, fmt.Errorf("creating agency %q: %w", spec.Code, err)
		}
		agenciesByCode[spec.Code] = agency
		created++
	}

	usersByName := make(map[string]*domain.User)
	for _, spec := range f.Users {
		if spec.Username == "" {
			return created, fmt.Errorf("user with empty username")
		}
		existing, err := st.GetUserByUsername(spec.Username)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return created, err
		}
		if existing != nil {
			usersByName[spec.Username] = existing
			continue
		}

		user := &domain.User{
			Username:    spec.Username,
			Nickname:    spec.Nickname,
			Email:       spec.Email,
			Role:        domain.Role(spec.Role),
			IsTreasurer: spec.IsTreasurer,
		}
		if spec.Agency != "" {
			agency, ok := agenciesByCode[spec.Agency]
			if !ok {
				return created, fmt.Errorf("user %q references unknown agency %q", spec.Username, spec.Agency)
			}
			user.AgencyID = &agency.ID
		}
		if err := st.CreateUser(user); err != nil {
			return created, fmt.Errorf("creating user %q: %w", spec.Username, err)
		}
		usersByName[spec.Username] = user
		created++
	}

	// Wire agency owners after users exist.
	for _, spec := range f.Agencies {
		if spec.Owner == "" {
			continue
		}
		agency := agenciesByCode[spec.Code]
		if agency.OwnerID != nil {
			continue
		}
		owner, ok := usersByName[spec.Owner]
		if !ok {
			return created, fmt.Errorf("agency %q references unknown owner %q", spec.Code, spec.Owner)
		}
		if err := st.SetAgencyOwner(agency.ID, owner.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
			return created, fmt.Errorf("setting owner of %q: %w", spec.Code, err)
		}
	}

	// Tasks have no natural key, so re-runs dedupe on the title.
	existingTasks, err := st.ListTasks(store.ListOptions{})
	if err != nil {
		return created, err
	}
	seenTitles := make(map[string]bool, len(existingTasks))
	for _, t := range existingTasks {
		seenTitles[t.Title] = true
	}

	now := time.Now()
	for _, spec := range f.Tasks {
		if seenTitles[spec.Title] {
			continue
		}
		task := &domain.Task{
			Title:       spec.Title,
			Status:      domain.TaskStatus(spec.Status),
			WageVND:     spec.WageVND,
			JobPriceUSD: spec.JobPriceUSD,
		}
		if spec.Assignee != "" {
			user, ok := usersByName[spec.Assignee]
			if !ok {
				return created, fmt.Errorf("task %q references unknown assignee %q", spec.Title, spec.Assignee)
			}
			task.AssigneeID = &user.ID
		}
		if spec.Agency != "" {
			agency, ok := agenciesByCode[spec.Agency]
			if !ok {
				return created, fmt.Errorf("task %q references unknown agency %q", spec.Title, spec.Agency)
			}
			task.AssignedAgencyID = &agency.ID
		}
		if spec.DeadlineHours > 0 {
			deadline := now.Add(time.Duration(spec.DeadlineHours) * time.Hour)
			task.Deadline = &deadline
		}
		if err := st.CreateTask(task); err != nil {
			return created, fmt.Errorf("creating task %q: %w", spec.Title, err)
		}
		seenTitles[spec.Title] = true
		created++
	}

	return created, nil
}
