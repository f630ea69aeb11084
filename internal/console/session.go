package console

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ignite/voucher-console/internal/domain"
	"github.com/ignite/voucher-console/internal/pkg/logger"
)

// Layout holds the presentation preferences kept with the session.
type Layout struct {
	SidebarCollapsed bool   `json:"sidebar_collapsed"`
	Theme            string `json:"theme"`
	PageSize         int    `json:"page_size"`
}

// DefaultLayout is used until the user changes a preference.
var DefaultLayout = Layout{Theme: "light", PageSize: 20}

// State is the persisted application state.
type State struct {
	Token     string       `json:"token,omitempty"`
	ExpiresAt time.Time    `json:"expires_at,omitempty"`
	User      *domain.User `json:"user,omitempty"`
	Layout    Layout       `json:"layout"`
}

// Authenticated reports whether s carries a token that has not expired.
func (s State) Authenticated(now time.Time) bool {
	if s.Token == "" {
		return false
	}
	return s.ExpiresAt.IsZero() || now.Before(s.ExpiresAt)
}

// SessionStore persists State between runs.
type SessionStore interface {
	Load(ctx context.Context) (State, bool, error)
	Save(ctx context.Context, s State) error
}

// FileSessionStore keeps the state in a JSON file readable only by its owner.
type FileSessionStore struct {
	path string
}

// NewFileSessionStore stores the session at path.
func NewFileSessionStore(path string) *FileSessionStore {
	return &FileSessionStore{path: path}
}

// Path returns the session file location.
func (f *FileSessionStore) Path() string { return f.path }

func (f *FileSessionStore) Load(_ context.Context) (State, bool, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return State{}, false, nil
	}
	if err != nil {
		return State{}, false, fmt.Errorf("read session: %w", err)
	}
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return State{}, false, fmt.Errorf("decode session %s: %w", f.path, err)
	}
	return s, true, nil
}

func (f *FileSessionStore) Save(_ context.Context, s State) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".session-*")
	if err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write session: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("write session: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return os.Rename(tmp.Name(), f.path)
}

// MemorySessionStore keeps the state in memory.
type MemorySessionStore struct {
	mu    sync.Mutex
	state *State
}

func (m *MemorySessionStore) Load(context.Context) (State, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == nil {
		return State{}, false, nil
	}
	return *m.state, true, nil
}

func (m *MemorySessionStore) Save(_ context.Context, s State) error {
	m.mu.Lock()
	m.state = &s
	m.mu.Unlock()
	return nil
}

// Session is the application state container. It is hydrated once from its
// store and written back on every change.
type Session struct {
	store SessionStore
	now   func() time.Time

	mu       sync.RWMutex
	state    State
	hydrated bool
}

// NewSession creates a session over store.
func NewSession(store SessionStore) *Session {
	return &Session{store: store, now: time.Now, state: State{Layout: DefaultLayout}}
}

// SetClock overrides the time source.
func (s *Session) SetClock(now func() time.Time) { s.now = now }

// Hydrate loads the persisted state. Only the first call reads the store. An
// expired token is dropped and the layout kept.
func (s *Session) Hydrate(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hydrated {
		return nil
	}
	st, ok, err := s.store.Load(ctx)
	if err != nil {
		return err
	}
	s.hydrated = true
	if !ok {
		return nil
	}
	if st.Layout.PageSize <= 0 {
		st.Layout.PageSize = DefaultLayout.PageSize
	}
	if st.Layout.Theme == "" {
		st.Layout.Theme = DefaultLayout.Theme
	}
	if st.Token != "" && !st.Authenticated(s.now()) {
		logger.Info("[console] stored session expired", "expired_at", st.ExpiresAt)
		st.Token, st.ExpiresAt, st.User = "", time.Time{}, nil
		s.state = st
		return s.store.Save(ctx, st)
	}
	s.state = st
	return nil
}

// State returns a copy of the current state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.state
	if st.User != nil {
		u := *st.User
		st.User = &u
	}
	return st
}

// Token implements apiclient.TokenSource.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.state.Authenticated(s.now()) {
		return ""
	}
	return s.state.Token
}

// Authenticated reports whether the session holds a live token.
func (s *Session) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Authenticated(s.now())
}

// User returns the signed-in user.
func (s *Session) User() (domain.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state.User == nil {
		return domain.User{}, false
	}
	return *s.state.User, true
}

// SetAuth stores a fresh token and its user.
func (s *Session) SetAuth(ctx context.Context, tok domain.AuthToken) error {
	return s.update(ctx, func(st *State) {
		u := tok.User
		st.Token, st.ExpiresAt, st.User = tok.Token, tok.ExpiresAt, &u
	})
}

// SetUser replaces the profile of the signed-in user.
func (s *Session) SetUser(ctx context.Context, u domain.User) error {
	return s.update(ctx, func(st *State) { st.User = &u })
}

// SetLayout replaces the layout preferences.
func (s *Session) SetLayout(ctx context.Context, l Layout) error {
	if l.PageSize <= 0 {
		l.PageSize = DefaultLayout.PageSize
	}
	return s.update(ctx, func(st *State) { st.Layout = l })
}

// Clear signs out. Layout preferences survive.
func (s *Session) Clear(ctx context.Context) error {
	return s.update(ctx, func(st *State) {
		st.Token, st.ExpiresAt, st.User = "", time.Time{}, nil
	})
}

func (s *Session) update(ctx context.Context, fn func(*State)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.state)
	s.hydrated = true
	if err := s.store.Save(ctx, s.state); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}
