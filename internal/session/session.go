package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"skyrace/console/internal/apiclient"
	"skyrace/console/internal/logging"
	"skyrace/console/internal/models"
)

// Keys under which the session is persisted.
const (
	TokenKey = "admin_token"
	UserKey  = "admin_user"
)

var ErrNotAdmin = errors.New("this account is not an administrator")

// Authenticator exchanges credentials for a token. *apiclient.Client
// implements it.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*apiclient.LoginResponse, error)
}

// Session is the signed-in administrator and their bearer token. It is
// created once in main, loaded from the Store at startup, and passed to
// whatever needs the current user or the token.
type Session struct {
	mu    sync.RWMutex
	store Store
	token string
	user  *models.AdminUser

	listeners []func(user *models.AdminUser)
	logger    *zap.SugaredLogger
	now       func() time.Time
}

var _ apiclient.TokenSource = (*Session)(nil)

func New(store Store) *Session {
	return &Session{store: store, logger: logging.Named("session"), now: time.Now}
}

// Load restores a persisted session. A missing, unreadable, or expired
// session leaves the console signed out and clears what was stored.
func (s *Session) Load(ctx context.Context) error {
	token, ok, err := s.store.Get(ctx, TokenKey)
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}
	if !ok || token == "" {
		return nil
	}

	if expired, at := s.expired(token); expired {
		s.logger.Infow("Stored session expired", "expired_at", at)
		return s.store.Delete(ctx, TokenKey, UserKey)
	}

	raw, ok, err := s.store.Get(ctx, UserKey)
	if err != nil {
		return fmt.Errorf("failed to load session user: %w", err)
	}
	var user models.AdminUser
	if !ok || json.Unmarshal([]byte(raw), &user) != nil {
		s.logger.Warnw("Stored session user is unreadable, signing out")
		return s.store.Delete(ctx, TokenKey, UserKey)
	}

	s.mu.Lock()
	s.token = token
	s.user = &user
	listeners := s.listeners
	s.mu.Unlock()

	s.logger.Infow("Session restored", "user_id", user.ID, "email", user.Email)
	notify(listeners, &user)
	return nil
}

// Login authenticates, persists, and installs the new session.
func (s *Session) Login(ctx context.Context, auth Authenticator, email, password string) error {
	resp, err := auth.Login(ctx, email, password)
	if err != nil {
		return err
	}
	if resp.User.Role != "" && resp.User.Role != models.RoleAdmin {
		return ErrNotAdmin
	}

	userJSON, err := json.Marshal(resp.User)
	if err != nil {
		return fmt.Errorf("failed to marshal session user: %w", err)
	}
	if err := s.store.Set(ctx, TokenKey, resp.Token); err != nil {
		return err
	}
	if err := s.store.Set(ctx, UserKey, string(userJSON)); err != nil {
		return err
	}

	user := resp.User
	s.mu.Lock()
	s.token = resp.Token
	s.user = &user
	listeners := s.listeners
	s.mu.Unlock()

	s.logger.Infow("Signed in", "user_id", user.ID, "email", user.Email)
	notify(listeners, &user)
	return nil
}

// Logout clears memory first so no further request carries the token,
// then the persisted copy.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	wasSignedIn := s.token != ""
	s.token = ""
	s.user = nil
	listeners := s.listeners
	s.mu.Unlock()

	err := s.store.Delete(ctx, TokenKey, UserKey)
	if wasSignedIn {
		s.logger.Infow("Signed out")
		notify(listeners, nil)
	}
	return err
}

// UpdateUser replaces the cached user record after a profile edit.
func (s *Session) UpdateUser(ctx context.Context, user models.AdminUser) error {
	s.mu.Lock()
	if s.token == "" {
		s.mu.Unlock()
		return nil
	}
	s.user = &user
	s.mu.Unlock()

	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to marshal session user: %w", err)
	}
	return s.store.Set(ctx, UserKey, string(raw))
}

// Token implements apiclient.TokenSource.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// CurrentUser returns a copy of the signed-in user, or nil.
func (s *Session) CurrentUser() *models.AdminUser {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *Session) Authenticated() bool {
	return s.Token() != ""
}

// OnChange registers fn to run after every sign-in and sign-out. fn
// receives nil on sign-out.
func (s *Session) OnChange(fn func(user *models.AdminUser)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// expired inspects the exp claim without verifying the signature; the
// backend is the authority, this only avoids restoring a dead session.
func (s *Session) expired(token string) (bool, time.Time) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		// Opaque tokens are left for the backend to judge.
		return false, time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false, time.Time{}
	}
	return !s.now().Before(exp.Time), exp.Time
}

func notify(listeners []func(*models.AdminUser), user *models.AdminUser) {
	for _, fn := range listeners {
		if user == nil {
			fn(nil)
			continue
		}
		u := *user
		fn(&u)
	}
}
