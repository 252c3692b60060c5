package store

import "database/sql"

// Per-side message states. Deleting moves a message to that side's trash;
// purging hides it permanently. The row itself is removed once both sides
// purged it.
const (
	messageActive = "active"
	messageTrash  = "trash"
	messagePurged = "purged"
)

type Message struct {
	ID           string
	SenderID     int64
	ReceiverID   int64
	SenderName   string
	ReceiverName string
	Content      string
	IsRead       bool
	CreatedAt    string
}

type MessageStore struct {
	db *DB
}

func NewMessageStore(db *DB) *MessageStore {
	return &MessageStore{db: db}
}

func (s *MessageStore) Send(senderID, receiverID int64, content string) (string, error) {
	id := newID()
	err := s.db.Execute(
		`INSERT INTO messages (id, sender_id, receiver_id, content, sender_state, receiver_state, is_read, created_at)
		 VALUES (?, ?, ?, ?, 'active', 'active', 0, ?)`,
		id, senderID, receiverID, content, now(),
	)
	if err != nil {
		return "", err
	}
	return id, nil
}

const messageColumns = `m.id, m.sender_id, m.receiver_id, su.display_name, ru.display_name, m.content, m.is_read, m.created_at`

const messageJoins = `FROM messages m
	JOIN users su ON su.id = m.sender_id
	JOIN users ru ON ru.id = m.receiver_id`

func (s *MessageStore) list(where string, args ...any) ([]*Message, error) {
	var messages []*Message
	err := s.db.FetchAll(func(rows *sql.Rows) error {
		var m Message
		if err := rows.Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.SenderName, &m.ReceiverName,
			&m.Content, &m.IsRead, &m.CreatedAt); err != nil {
			return err
		}
		messages = append(messages, &m)
		return nil
	}, `SELECT `+messageColumns+` `+messageJoins+` `+where+` ORDER BY m.created_at DESC`, args...)
	return messages, err
}

func (s *MessageStore) Inbox(userID int64) ([]*Message, error) {
	return s.list(`WHERE m.receiver_id = ? AND m.receiver_state = 'active'`, userID)
}

func (s *MessageStore) Sent(userID int64) ([]*Message, error) {
	return s.list(`WHERE m.sender_id = ? AND m.sender_state = 'active'`, userID)
}

// Trash lists messages the user deleted from either side.
func (s *MessageStore) Trash(userID int64) ([]*Message, error) {
	return s.list(
		`WHERE (m.sender_id = ? AND m.sender_state = 'trash')
		    OR (m.receiver_id = ? AND m.receiver_state = 'trash')`,
		userID, userID,
	)
}

// ByID returns the message when the user participates in it and has not
// purged it.
func (s *MessageStore) ByID(id string, userID int64) (*Message, error) {
	messages, err := s.list(
		`WHERE m.id = ? AND ((m.sender_id = ? AND m.sender_state != 'purged')
		                  OR (m.receiver_id = ? AND m.receiver_state != 'purged'))`,
		id, userID, userID,
	)
	if err != nil || len(messages) == 0 {
		return nil, err
	}
	return messages[0], nil
}

// Conversation lists messages exchanged between two users, oldest first.
func (s *MessageStore) Conversation(userID, targetID int64) ([]*Message, error) {
	messages, err := s.list(
		`WHERE (m.sender_id = ? AND m.receiver_id = ?) OR (m.sender_id = ? AND m.receiver_id = ?)`,
		userID, targetID, targetID, userID,
	)
	if err != nil {
		return nil, err
	}
	// list() sorts newest first; a conversation reads oldest first.
	for left, right := 0, len(messages)-1; left < right; left, right = left+1, right-1 {
		messages[left], messages[right] = messages[right], messages[left]
	}
	return messages, nil
}

func (s *MessageStore) MarkRead(id string) error {
	return s.db.Execute(`UPDATE messages SET is_read = 1 WHERE id = ?`, id)
}

// Delete moves the message to the user's trash. Reports false when the user
// is not a participant.
func (s *MessageStore) Delete(id string, userID int64) (bool, error) {
	return s.setState(id, userID, messageActive, messageTrash)
}

// Restore returns a trashed message to the active state.
func (s *MessageStore) Restore(id string, userID int64) (bool, error) {
	return s.setState(id, userID, messageTrash, messageActive)
}

// PermanentlyDelete purges the user's side; once both sides purged, the row
// is removed.
func (s *MessageStore) PermanentlyDelete(id string, userID int64) (bool, error) {
	changed, err := s.setState(id, userID, messageTrash, messagePurged)
	if err != nil || !changed {
		return changed, err
	}
	return true, s.db.Execute(
		`DELETE FROM messages WHERE id = ? AND sender_state = 'purged' AND receiver_state = 'purged'`, id,
	)
}

func (s *MessageStore) setState(id string, userID int64, from, to string) (bool, error) {
	var senderID, receiverID int64
	var senderState, receiverState string
	found, err := s.db.FetchOne(func(row *sql.Row) error {
		return row.Scan(&senderID, &receiverID, &senderState, &receiverState)
	}, `SELECT sender_id, receiver_id, sender_state, receiver_state FROM messages WHERE id = ?`, id)
	if err != nil || !found {
		return false, err
	}
	switch {
	case senderID == userID && senderState == from:
		return true, s.db.Execute(`UPDATE messages SET sender_state = ? WHERE id = ?`, to, id)
	case receiverID == userID && receiverState == from:
		return true, s.db.Execute(`UPDATE messages SET receiver_state = ? WHERE id = ?`, to, id)
	}
	return false, nil
}

// Conversations returns the latest message per counterpart, most recent
// conversation first.
func (s *MessageStore) Conversations(userID int64) ([]*Message, error) {
	messages, err := s.list(`WHERE m.sender_id = ? OR m.receiver_id = ?`, userID, userID)
	if err != nil {
		return nil, err
	}
	seen := make(map[int64]bool)
	var latest []*Message
	for _, m := range messages {
		other := m.SenderID
		if m.SenderID == userID {
			other = m.ReceiverID
		}
		if !seen[other] {
			seen[other] = true
			latest = append(latest, m)
		}
	}
	return latest, nil
}

// ContactIDs lists the ids of users this user has exchanged messages with,
// most recent conversation first.
func (s *MessageStore) ContactIDs(userID int64) ([]int64, error) {
	var ids []int64
	seen := make(map[int64]bool)
	err := s.db.FetchAll(func(rows *sql.Rows) error {
		var senderID, receiverID int64
		if err := rows.Scan(&senderID, &receiverID); err != nil {
			return err
		}
		other := senderID
		if senderID == userID {
			other = receiverID
		}
		if !seen[other] {
			seen[other] = true
			ids = append(ids, other)
		}
		return nil
	}, `SELECT sender_id, receiver_id FROM messages
		WHERE sender_id = ? OR receiver_id = ? ORDER BY created_at DESC`, userID, userID)
	return ids, err
}
