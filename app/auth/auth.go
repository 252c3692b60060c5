package auth

import (
	"errors"
	"fmt"

	"github.com/neoblog/neoblog/app/request"
	"github.com/neoblog/neoblog/app/session"
	"github.com/neoblog/neoblog/app/store"
)

var (
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// Service ties the user store and the session manager together. It is built
// once at startup and handed to every handler; there is no ambient global.
type Service struct {
	users    *store.UserStore
	sessions *session.Manager
}

func NewService(users *store.UserStore, sessions *session.Manager) *Service {
	return &Service{users: users, sessions: sessions}
}

func (s *Service) Register(username, password, displayName, email string) error {
	created, err := s.users.Create(username, password, displayName, email)
	if err != nil {
		return fmt.Errorf("creating user: %w", err)
	}
	if !created {
		return ErrUsernameTaken
	}
	return nil
}

// Login verifies the credentials and opens a session, returning its token.
func (s *Service) Login(username, password string) (string, *store.User, error) {
	user, err := s.users.VerifyPassword(username, password)
	if err != nil {
		return "", nil, fmt.Errorf("verifying password: %w", err)
	}
	if user == nil {
		return "", nil, ErrInvalidCredentials
	}
	return s.sessions.Create(username), user, nil
}

func (s *Service) Logout(token string) {
	s.sessions.Destroy(token)
}

// CurrentUser resolves the request's session cookie to a full user record,
// or nil when the client is not logged in.
func (s *Service) CurrentUser(req *request.Request) *store.User {
	username, ok := s.sessions.CurrentUser(req)
	if !ok {
		return nil
	}
	user, err := s.users.ByUsername(username)
	if err != nil {
		return nil
	}
	return user
}
