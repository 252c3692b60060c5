package store

import "database/sql"

// InteractionStore covers likes and favorites, which share a shape: one row
// per (post, user) pair, toggled on and off.
type InteractionStore struct {
	db *DB
}

func NewInteractionStore(db *DB) *InteractionStore {
	return &InteractionStore{db: db}
}

func (s *InteractionStore) ToggleLike(userID int64, postID string) (bool, error) {
	return s.toggle("likes", userID, postID)
}

func (s *InteractionStore) ToggleFavorite(userID int64, postID string) (bool, error) {
	return s.toggle("favorites", userID, postID)
}

// toggle flips the row's existence and reports the new state: true when the
// interaction now exists.
func (s *InteractionStore) toggle(table string, userID int64, postID string) (bool, error) {
	var id string
	found, err := s.db.FetchOne(func(row *sql.Row) error {
		return row.Scan(&id)
	}, `SELECT id FROM `+table+` WHERE post_id = ? AND user_id = ?`, postID, userID)
	if err != nil {
		return false, err
	}
	if found {
		return false, s.db.Execute(`DELETE FROM `+table+` WHERE id = ?`, id)
	}
	return true, s.db.Execute(
		`INSERT INTO `+table+` (id, post_id, user_id, created_at) VALUES (?, ?, ?, ?)`,
		newID(), postID, userID, now(),
	)
}

func (s *InteractionStore) CountLikes(postID string) (int, error) {
	return s.count("likes", postID)
}

func (s *InteractionStore) CountFavorites(postID string) (int, error) {
	return s.count("favorites", postID)
}

func (s *InteractionStore) count(table, postID string) (int, error) {
	var count int
	_, err := s.db.FetchOne(func(row *sql.Row) error {
		return row.Scan(&count)
	}, `SELECT COUNT(*) FROM `+table+` WHERE post_id = ?`, postID)
	return count, err
}

func (s *InteractionStore) HasLiked(userID int64, postID string) (bool, error) {
	return s.exists("likes", userID, postID)
}

func (s *InteractionStore) HasFavorited(userID int64, postID string) (bool, error) {
	return s.exists("favorites", userID, postID)
}

func (s *InteractionStore) exists(table string, userID int64, postID string) (bool, error) {
	var id string
	return s.db.FetchOne(func(row *sql.Row) error {
		return row.Scan(&id)
	}, `SELECT id FROM `+table+` WHERE post_id = ? AND user_id = ?`, postID, userID)
}

func (s *InteractionStore) FavoritePostIDs(userID int64) ([]string, error) {
	var ids []string
	err := s.db.FetchAll(func(rows *sql.Rows) error {
		var id string
		if err := rows.Scan(&id); err != nil {
			return err
		}
		ids = append(ids, id)
		return nil
	}, `SELECT post_id FROM favorites WHERE user_id = ? ORDER BY created_at DESC`, userID)
	return ids, err
}

// DeleteForPost removes every like and favorite of a deleted post.
func (s *InteractionStore) DeleteForPost(postID string) error {
	if err := s.db.Execute(`DELETE FROM likes WHERE post_id = ?`, postID); err != nil {
		return err
	}
	return s.db.Execute(`DELETE FROM favorites WHERE post_id = ?`, postID)
}
