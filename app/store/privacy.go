package store

import "database/sql"

type PrivacySettings struct {
	UserID             int64
	HidePosts          bool
	HideFavorites      bool
	AccessPasswordHash string
}

type PrivacyStore struct {
	db *DB
}

func NewPrivacyStore(db *DB) *PrivacyStore {
	return &PrivacyStore{db: db}
}

// Get returns the user's settings, defaulting to everything visible when no
// row exists yet.
func (s *PrivacyStore) Get(userID int64) (*PrivacySettings, error) {
	settings := &PrivacySettings{UserID: userID}
	var hash sql.NullString
	found, err := s.db.FetchOne(func(row *sql.Row) error {
		return row.Scan(&settings.HidePosts, &settings.HideFavorites, &hash)
	}, `SELECT hide_posts, hide_favorites, access_password_hash FROM user_privacy_settings WHERE user_id = ?`, userID)
	if err != nil {
		return nil, err
	}
	if found {
		settings.AccessPasswordHash = hash.String
	}
	return settings, nil
}

// Update upserts the flags. A non-empty accessPassword replaces the stored
// digest; an empty one keeps whatever is there.
func (s *PrivacyStore) Update(userID int64, hidePosts, hideFavorites bool, accessPassword string) error {
	current, err := s.Get(userID)
	if err != nil {
		return err
	}
	hash := current.AccessPasswordHash
	if accessPassword != "" {
		hash = Digest(accessPassword)
	}
	return s.db.Execute(
		`INSERT INTO user_privacy_settings (user_id, hide_posts, hide_favorites, access_password_hash)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET hide_posts = ?, hide_favorites = ?, access_password_hash = ?`,
		userID, hidePosts, hideFavorites, hash, hidePosts, hideFavorites, hash,
	)
}

func (s *PrivacyStore) VerifyAccessPassword(userID int64, password string) (bool, error) {
	settings, err := s.Get(userID)
	if err != nil {
		return false, err
	}
	return settings.AccessPasswordHash != "" && settings.AccessPasswordHash == Digest(password), nil
}
