package store

import (
	"database/sql"
	"time"

	"github.com/cutdesk/cutdesk/internal/domain"
	"github.com/google/uuid"
)

// CreateUser inserts a new user
func (s *Store) CreateUser(u *domain.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Role == "" {
		u.Role = domain.RoleUser
	}
	if u.Reputation == 0 {
		u.Reputation = domain.MaxReputation
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}

	_, err := s.db.Exec(`
		INSERT INTO users (id, username, nickname, email, role, is_treasurer, reputation, agency_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, u.ID, u.Username, u.Nickname, u.Email, string(u.Role), u.IsTreasurer, u.Reputation, nullString(u.AgencyID), u.CreatedAt)
	return err
}

const userColumns = `id, username, nickname, email, role, is_treasurer, reputation, agency_id, created_at`

// GetUser retrieves a user by id
func (s *Store) GetUser(id string) (*domain.User, error) {
	row := s.db.QueryRow(`SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

// GetUserByUsername retrieves a user by username
func (s *Store) GetUserByUsername(username string) (*domain.User, error) {
	row := s.db.QueryRow(`SELECT `+userColumns+` FROM users WHERE username = ?`, username)
	return scanUser(row)
}

// ListWorkers returns all plain worker accounts, excluding administrators
// and locked users
func (s *Store) ListWorkers() ([]*domain.User, error) {
	rows, err := s.db.Query(`
		SELECT `+userColumns+` FROM users WHERE role = ? ORDER BY username
	`, string(domain.RoleUser))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// SetTreasurer toggles the treasurer capability on a user
func (s *Store) SetTreasurer(userID string, isTreasurer bool) error {
	res, err := s.db.Exec(`UPDATE users SET is_treasurer = ? WHERE id = ?`, isTreasurer, userID)
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

// CreateAgency inserts a new agency
func (s *Store) CreateAgency(a *domain.Agency) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	_, err := s.db.Exec(`
		INSERT INTO agencies (id, name, code, owner_id, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, a.ID, a.Name, a.Code, nullString(a.OwnerID), a.CreatedAt)
	return err
}

// GetAgency retrieves an agency by id
func (s *Store) GetAgency(id string) (*domain.Agency, error) {
	var a domain.Agency
	var ownerID sql.NullString
	err := s.db.QueryRow(`
		SELECT id, name, code, owner_id, created_at FROM agencies WHERE id = ?
	`, id).Scan(&a.ID, &a.Name, &a.Code, &ownerID, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if ownerID.Valid {
		id := ownerID.String
		a.OwnerID = &id
	}
	return &a, nil
}

// GetAgencyByCode retrieves an agency by its short code
func (s *Store) GetAgencyByCode(code string) (*domain.Agency, error) {
	var a domain.Agency
	var ownerID sql.NullString
	err := s.db.QueryRow(`
		SELECT id, name, code, owner_id, created_at FROM agencies WHERE code = ?
	`, code).Scan(&a.ID, &a.Name, &a.Code, &ownerID, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if ownerID.Valid {
		id := ownerID.String
		a.OwnerID = &id
	}
	return &a, nil
}

// SetAgencyOwner links an owner to an agency and grants the owner the
// agency-admin role, atomically. The validation-then-create race in the old
// flow is closed by doing both writes in one transaction.
func (s *Store) SetAgencyOwner(agencyID, ownerID string) error {
	return s.withTx(func(tx *sql.Tx) error {
		res, err := tx.Exec(`UPDATE agencies SET owner_id = ? WHERE id = ? AND owner_id IS NULL`, ownerID, agencyID)
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
		_, err = tx.Exec(`UPDATE users SET role = ?, agency_id = ? WHERE id = ?`,
			string(domain.RoleAgencyAdmin), agencyID, ownerID)
		return err
	})
}

// OwnedAgencyID returns the id of the agency owned by the user, if any
func (s *Store) OwnedAgencyID(userID string) (*string, error) {
	var id string
	err := s.db.QueryRow(`SELECT id FROM agencies WHERE owner_id = ?`, userID).Scan(&id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func scanUser(row rowScanner) (*domain.User, error) {
	var u domain.User
	var role string
	var agencyID sql.NullString

	err := row.Scan(&u.ID, &u.Username, &u.Nickname, &u.Email, &role, &u.IsTreasurer, &u.Reputation, &agencyID, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	u.Role = domain.Role(role)
	if agencyID.Valid {
		id := agencyID.String
		u.AgencyID = &id
	}
	return &u, nil
}
