package repository

import (
	"database/sql"
	"fmt"
	"strings"

	"mixvault/model"
)

// UserRepository defines the interface for user data operations.
type UserRepository interface {
	Create(user *model.User) (int64, error)
	GetByID(id int64) (*model.User, error)
	GetByProviderSubject(provider, providerID string) (*model.User, error)
	List() ([]*model.User, error)
	UpdateRoleStatus(id int64, role, status string) error
	Delete(id int64) error
	CountUsers() (int, error)
	CountAdmins() (int, error)
}

type mysqlUserRepository struct {
	db *sql.DB
}

// NewMySQLUserRepository creates a new mysqlUserRepository.
func NewMySQLUserRepository(db *sql.DB) UserRepository {
	return &mysqlUserRepository{db: db}
}

const userColumns = "id, provider, provider_id, username, email, avatar_url, role, status, created_at, updated_at"

func scanUser(row interface{ Scan(...interface{}) error }) (*model.User, error) {
	user := &model.User{}
	var avatar sql.NullString
	err := row.Scan(&user.ID, &user.Provider, &user.ProviderID, &user.Username, &user.Email,
		&avatar, &user.Role, &user.Status, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, err
	}
	user.AvatarURL = avatar.String
	return user, nil
}

// Create adds a new user to the database.
func (r *mysqlUserRepository) Create(user *model.User) (int64, error) {
	query := "INSERT INTO users (provider, provider_id, username, email, avatar_url, role, status) VALUES (?, ?, ?, ?, ?, ?, ?)"
	res, err := r.db.Exec(query, user.Provider, user.ProviderID, user.Username, user.Email,
		user.AvatarURL, user.Role, user.Status)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "duplicate entry") {
			return 0, ErrDuplicate
		}
		return 0, fmt.Errorf("failed to insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for user: %w", err)
	}
	return id, nil
}

// GetByID retrieves a user by ID.
func (r *mysqlUserRepository) GetByID(id int64) (*model.User, error) {
	row := r.db.QueryRow("SELECT "+userColumns+" FROM users WHERE id = ?", id)
	user, err := scanUser(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan user row for ID %d: %w", id, err)
	}
	return user, nil
}

// GetByProviderSubject retrieves a user by OAuth provider and subject ID.
func (r *mysqlUserRepository) GetByProviderSubject(provider, providerID string) (*model.User, error) {
	row := r.db.QueryRow("SELECT "+userColumns+" FROM users WHERE provider = ? AND provider_id = ?", provider, providerID)
	user, err := scanUser(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan user row for subject %s/%s: %w", provider, providerID, err)
	}
	return user, nil
}

// List returns all users, newest first.
func (r *mysqlUserRepository) List() ([]*model.User, error) {
	rows, err := r.db.Query("SELECT " + userColumns + " FROM users ORDER BY created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// UpdateRoleStatus updates a user's role and status.
func (r *mysqlUserRepository) UpdateRoleStatus(id int64, role, status string) error {
	res, err := r.db.Exec("UPDATE users SET role = ?, status = ? WHERE id = ?", role, status, id)
	if err != nil {
		return fmt.Errorf("failed to update user %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Zero rows can also mean an identical write; verify existence.
		if _, err := r.GetByID(id); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a user. Owned mixes and playlists cascade at the schema level.
func (r *mysqlUserRepository) Delete(id int64) error {
	res, err := r.db.Exec("DELETE FROM users WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete user %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// CountUsers returns the total number of users.
func (r *mysqlUserRepository) CountUsers() (int, error) {
	var count int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

// CountAdmins returns the number of users holding the admin role.
func (r *mysqlUserRepository) CountAdmins() (int, error) {
	var count int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM users WHERE role = ?", model.RoleAdmin).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count admins: %w", err)
	}
	return count, nil
}
