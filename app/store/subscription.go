package store

import "database/sql"

// Subscription types.
const (
	SubscribeAuthor   = "author"
	SubscribeCategory = "category"
)

type Subscription struct {
	ID        string
	UserID    int64
	Type      string
	Value     string
	CreatedAt string
}

type SubscriptionStore struct {
	db *DB
}

func NewSubscriptionStore(db *DB) *SubscriptionStore {
	return &SubscriptionStore{db: db}
}

// Add records a subscription unless an identical one already exists.
func (s *SubscriptionStore) Add(userID int64, subType, value string) error {
	subscribed, err := s.IsSubscribed(userID, subType, value)
	if err != nil || subscribed {
		return err
	}
	return s.db.Execute(
		`INSERT INTO subscriptions (id, user_id, subscription_type, subscription_value, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		newID(), userID, subType, value, now(),
	)
}

func (s *SubscriptionStore) Remove(id string) error {
	return s.db.Execute(`DELETE FROM subscriptions WHERE id = ?`, id)
}

func (s *SubscriptionStore) List(userID int64) ([]*Subscription, error) {
	var subs []*Subscription
	err := s.db.FetchAll(func(rows *sql.Rows) error {
		var sub Subscription
		if err := rows.Scan(&sub.ID, &sub.UserID, &sub.Type, &sub.Value, &sub.CreatedAt); err != nil {
			return err
		}
		subs = append(subs, &sub)
		return nil
	}, `SELECT id, user_id, subscription_type, subscription_value, created_at
		FROM subscriptions WHERE user_id = ? ORDER BY created_at DESC`, userID)
	return subs, err
}

func (s *SubscriptionStore) IsSubscribed(userID int64, subType, value string) (bool, error) {
	var id string
	return s.db.FetchOne(func(row *sql.Row) error {
		return row.Scan(&id)
	}, `SELECT id FROM subscriptions WHERE user_id = ? AND subscription_type = ? AND subscription_value = ?`,
		userID, subType, value)
}

// AuthorSubscribers lists the user ids subscribed to an author.
func (s *SubscriptionStore) AuthorSubscribers(authorUsername string) ([]int64, error) {
	var ids []int64
	err := s.db.FetchAll(func(rows *sql.Rows) error {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return err
		}
		ids = append(ids, id)
		return nil
	}, `SELECT user_id FROM subscriptions WHERE subscription_type = ? AND subscription_value = ?`,
		SubscribeAuthor, authorUsername)
	return ids, err
}

func (s *SubscriptionStore) SubscriberCount(authorUsername string) (int, error) {
	var count int
	_, err := s.db.FetchOne(func(row *sql.Row) error {
		return row.Scan(&count)
	}, `SELECT COUNT(*) FROM subscriptions WHERE subscription_type = ? AND subscription_value = ?`,
		SubscribeAuthor, authorUsername)
	return count, err
}

// NotifyAuthorSubscribers leaves a notification for everyone subscribed to
// the author.
func (s *SubscriptionStore) NotifyAuthorSubscribers(authorUsername, postTitle string) error {
	subscribers, err := s.AuthorSubscribers(authorUsername)
	if err != nil {
		return err
	}
	for _, userID := range subscribers {
		err := s.db.Execute(
			`INSERT INTO notifications (id, user_id, message, type, is_read, created_at)
			 VALUES (?, ?, ?, 'new_post', 0, ?)`,
			newID(), userID, authorUsername+" published: "+postTitle, now(),
		)
		if err != nil {
			return err
		}
	}
	return nil
}
