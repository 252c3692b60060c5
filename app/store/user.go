package store

import "database/sql"

type User struct {
	ID           int64
	Username     string
	PasswordHash string
	DisplayName  string
	Email        string
	Bio          string
	Role         string
	IsVIP        bool
	CreatedAt    string
	UpdatedAt    string
}

type UserStore struct {
	db *DB
}

func NewUserStore(db *DB) *UserStore {
	return &UserStore{db: db}
}

// Create registers a new user. It reports false when the username is taken.
func (s *UserStore) Create(username, password, displayName, email string) (bool, error) {
	existing, err := s.ByUsername(username)
	if err != nil {
		return false, err
	}
	if existing != nil {
		return false, nil
	}
	if displayName == "" {
		displayName = username
	}
	timestamp := now()
	err = s.db.Execute(
		`INSERT INTO users (username, password_hash, display_name, email, bio, avatar_url, role, is_vip, created_at, updated_at)
		 VALUES (?, ?, ?, ?, '', '', 'user', 0, ?, ?)`,
		username, Digest(password), displayName, email, timestamp, timestamp,
	)
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *UserStore) ByUsername(username string) (*User, error) {
	return s.fetch(`WHERE username = ?`, username)
}

func (s *UserStore) ByID(id int64) (*User, error) {
	return s.fetch(`WHERE id = ?`, id)
}

func (s *UserStore) fetch(where string, arg any) (*User, error) {
	var user User
	var email, bio sql.NullString
	found, err := s.db.FetchOne(func(row *sql.Row) error {
		return row.Scan(&user.ID, &user.Username, &user.PasswordHash, &user.DisplayName,
			&email, &bio, &user.Role, &user.IsVIP, &user.CreatedAt, &user.UpdatedAt)
	}, `SELECT id, username, password_hash, display_name, email, bio, role, is_vip, created_at, updated_at
		FROM users `+where, arg)
	if err != nil || !found {
		return nil, err
	}
	user.Email = email.String
	user.Bio = bio.String
	return &user, nil
}

// VerifyPassword returns the user when the digest matches, nil otherwise.
func (s *UserStore) VerifyPassword(username, password string) (*User, error) {
	user, err := s.ByUsername(username)
	if err != nil || user == nil {
		return nil, err
	}
	if user.PasswordHash != Digest(password) {
		return nil, nil
	}
	return user, nil
}

func (s *UserStore) UpdateProfile(id int64, displayName, bio, email string, isVIP bool) error {
	return s.db.Execute(
		`UPDATE users SET display_name = ?, bio = ?, email = ?, is_vip = ?, updated_at = ? WHERE id = ?`,
		displayName, bio, email, isVIP, now(), id,
	)
}

func (s *UserStore) List() ([]*User, error) {
	var users []*User
	err := s.db.FetchAll(func(rows *sql.Rows) error {
		var user User
		var email, bio sql.NullString
		if err := rows.Scan(&user.ID, &user.Username, &user.DisplayName, &email, &bio,
			&user.Role, &user.IsVIP, &user.CreatedAt, &user.UpdatedAt); err != nil {
			return err
		}
		user.Email = email.String
		user.Bio = bio.String
		users = append(users, &user)
		return nil
	}, `SELECT id, username, display_name, email, bio, role, is_vip, created_at, updated_at
		FROM users ORDER BY created_at DESC`)
	return users, err
}
