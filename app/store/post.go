package store

import (
	"database/sql"
	"strings"
)

// Post permission modes.
const (
	PermissionPublic   = "public"
	PermissionVIP      = "vip"
	PermissionPassword = "password"
	PermissionPrivate  = "private"
)

type Post struct {
	ID            string
	AuthorID      int64
	AuthorName    string
	Title         string
	Content       string
	Summary       string
	Category      string
	Tags          []string
	CoverImage    string
	Permission    string
	PasswordHint  string
	PasswordHash  string
	AllowComments bool
	IsEncrypted   bool
	CreatedAt     string
	UpdatedAt     string
}

// CanView applies the visibility rules. Password-protected posts additionally
// need hasPasswordAccess, meaning the unlock cookie was already verified.
func (p *Post) CanView(viewer *User, hasPasswordAccess bool) bool {
	if viewer != nil && viewer.ID == p.AuthorID {
		return true
	}
	switch p.Permission {
	case PermissionPublic:
		return true
	case PermissionVIP:
		return viewer != nil && viewer.IsVIP
	case PermissionPassword:
		return hasPasswordAccess
	case PermissionPrivate:
		return false
	}
	return false
}

func (p *Post) IsAuthor(user *User) bool {
	return user != nil && user.ID == p.AuthorID
}

type PostStore struct {
	db *DB
}

func NewPostStore(db *DB) *PostStore {
	return &PostStore{db: db}
}

// Create inserts the post, assigning its id, timestamps and the digest of an
// optional unlock password.
func (s *PostStore) Create(p *Post, password string) (string, error) {
	p.ID = newID()
	p.CreatedAt = now()
	p.UpdatedAt = p.CreatedAt
	if p.Permission == "" {
		p.Permission = PermissionPublic
	}
	if password != "" {
		p.PasswordHash = Digest(password)
	}
	err := s.db.Execute(
		`INSERT INTO posts (id, author_id, title, content, summary, category, tags, cover_image,
			permission_type, password_hint, password_hash, allow_comments, is_encrypted, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.AuthorID, p.Title, p.Content, p.Summary, p.Category, strings.Join(p.Tags, ","),
		p.CoverImage, p.Permission, p.PasswordHint, p.PasswordHash, p.AllowComments, p.IsEncrypted,
		p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return "", err
	}
	return p.ID, nil
}

func (s *PostStore) Update(id, title, content, summary, category string, tags []string) error {
	return s.db.Execute(
		`UPDATE posts SET title = ?, content = ?, summary = ?, category = ?, tags = ?, updated_at = ? WHERE id = ?`,
		title, content, summary, category, strings.Join(tags, ","), now(), id,
	)
}

// SetPermissions updates the visibility mode. A non-empty password replaces
// the stored digest; an empty one keeps it.
func (s *PostStore) SetPermissions(id, permission, hint, password string, allowComments bool) error {
	if password != "" {
		return s.db.Execute(
			`UPDATE posts SET permission_type = ?, password_hint = ?, password_hash = ?, allow_comments = ?, updated_at = ? WHERE id = ?`,
			permission, hint, Digest(password), allowComments, now(), id,
		)
	}
	return s.db.Execute(
		`UPDATE posts SET permission_type = ?, password_hint = ?, allow_comments = ?, updated_at = ? WHERE id = ?`,
		permission, hint, allowComments, now(), id,
	)
}

const postColumns = `p.id, p.author_id, u.display_name, p.title, p.content, p.summary, p.category, p.tags,
	p.cover_image, p.permission_type, p.password_hint, p.password_hash, p.allow_comments, p.is_encrypted,
	p.created_at, p.updated_at`

func scanPost(scan func(...any) error) (*Post, error) {
	var p Post
	var summary, category, tags, cover, hint, hash sql.NullString
	err := scan(&p.ID, &p.AuthorID, &p.AuthorName, &p.Title, &p.Content, &summary, &category, &tags,
		&cover, &p.Permission, &hint, &hash, &p.AllowComments, &p.IsEncrypted, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.Summary = summary.String
	p.Category = category.String
	p.CoverImage = cover.String
	p.PasswordHint = hint.String
	p.PasswordHash = hash.String
	if tags.String != "" {
		p.Tags = strings.Split(tags.String, ",")
	}
	return &p, nil
}

func (s *PostStore) List(limit int) ([]*Post, error) {
	return s.listWhere(``, limit)
}

func (s *PostStore) ListByAuthor(authorID int64, limit int) ([]*Post, error) {
	return s.listWhere(`WHERE p.author_id = ?`, limit, authorID)
}

func (s *PostStore) listWhere(where string, limit int, args ...any) ([]*Post, error) {
	var posts []*Post
	args = append(args, limit)
	err := s.db.FetchAll(func(rows *sql.Rows) error {
		p, err := scanPost(rows.Scan)
		if err != nil {
			return err
		}
		posts = append(posts, p)
		return nil
	}, `SELECT `+postColumns+` FROM posts p JOIN users u ON u.id = p.author_id `+where+
		` ORDER BY p.created_at DESC LIMIT ?`, args...)
	return posts, err
}

func (s *PostStore) ByID(id string) (*Post, error) {
	return s.fetch(`WHERE p.id = ?`, id)
}

func (s *PostStore) fetch(where string, arg any) (*Post, error) {
	var post *Post
	found, err := s.db.FetchOne(func(row *sql.Row) error {
		p, err := scanPost(row.Scan)
		post = p
		return err
	}, `SELECT `+postColumns+` FROM posts p JOIN users u ON u.id = p.author_id `+where, arg)
	if err != nil || !found {
		return nil, err
	}
	return post, nil
}

// ByIDs loads posts one by one, preserving the given order; unknown ids are
// skipped.
func (s *PostStore) ByIDs(ids []string) ([]*Post, error) {
	var posts []*Post
	for _, id := range ids {
		post, err := s.ByID(id)
		if err != nil {
			return nil, err
		}
		if post != nil {
			posts = append(posts, post)
		}
	}
	return posts, nil
}

func (s *PostStore) Categories() ([]string, error) {
	var categories []string
	err := s.db.FetchAll(func(rows *sql.Rows) error {
		var category string
		if err := rows.Scan(&category); err != nil {
			return err
		}
		categories = append(categories, category)
		return nil
	}, `SELECT DISTINCT category FROM posts WHERE category IS NOT NULL AND category != '' ORDER BY category`)
	return categories, err
}

func (s *PostStore) Delete(id string) error {
	return s.db.Execute(`DELETE FROM posts WHERE id = ?`, id)
}

// VerifyPassword checks an unlock attempt against the stored digest.
func (s *PostStore) VerifyPassword(id, password string) (bool, error) {
	post, err := s.ByID(id)
	if err != nil || post == nil {
		return false, err
	}
	return post.PasswordHash != "" && post.PasswordHash == Digest(password), nil
}
