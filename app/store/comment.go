package store

import "database/sql"

type Comment struct {
	ID         string
	PostID     string
	AuthorID   int64
	AuthorName string
	ParentID   string
	Content    string
	Emoji      string
	CreatedAt  string
	Replies    []*Comment
}

type CommentStore struct {
	db *DB
}

func NewCommentStore(db *DB) *CommentStore {
	return &CommentStore{db: db}
}

func (s *CommentStore) Add(postID string, authorID int64, parentID, content, emoji string) (string, error) {
	id := newID()
	err := s.db.Execute(
		`INSERT INTO comments (id, post_id, author_id, parent_id, content, emoji, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, postID, authorID, parentID, content, emoji, now(),
	)
	if err != nil {
		return "", err
	}
	return id, nil
}

// List returns the post's comments flat, oldest first, with author names
// joined in.
func (s *CommentStore) List(postID string) ([]*Comment, error) {
	var comments []*Comment
	err := s.db.FetchAll(func(rows *sql.Rows) error {
		var c Comment
		var parentID, emoji sql.NullString
		if err := rows.Scan(&c.ID, &c.PostID, &c.AuthorID, &c.AuthorName,
			&parentID, &c.Content, &emoji, &c.CreatedAt); err != nil {
			return err
		}
		c.ParentID = parentID.String
		c.Emoji = emoji.String
		comments = append(comments, &c)
		return nil
	}, `SELECT c.id, c.post_id, c.author_id, u.display_name, c.parent_id, c.content, c.emoji, c.created_at
		FROM comments c JOIN users u ON u.id = c.author_id
		WHERE c.post_id = ? ORDER BY c.created_at ASC`, postID)
	return comments, err
}

// Threaded nests replies under their parents. Orphaned replies (parent
// deleted) surface at the top level.
func (s *CommentStore) Threaded(postID string) ([]*Comment, error) {
	flat, err := s.List(postID)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*Comment, len(flat))
	for _, c := range flat {
		byID[c.ID] = c
	}
	var roots []*Comment
	for _, c := range flat {
		if parent, ok := byID[c.ParentID]; ok && c.ParentID != "" {
			parent.Replies = append(parent.Replies, c)
		} else {
			roots = append(roots, c)
		}
	}
	return roots, nil
}

func (s *CommentStore) Count(postID string) (int, error) {
	var count int
	_, err := s.db.FetchOne(func(row *sql.Row) error {
		return row.Scan(&count)
	}, `SELECT COUNT(*) FROM comments WHERE post_id = ?`, postID)
	return count, err
}

func (s *CommentStore) Delete(id string) error {
	return s.db.Execute(`DELETE FROM comments WHERE id = ?`, id)
}

func (s *CommentStore) DeleteByPost(postID string) error {
	return s.db.Execute(`DELETE FROM comments WHERE post_id = ?`, postID)
}
