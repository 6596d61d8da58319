package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const DefaultCookieName = "cowabunga.sid"

type Options struct {
	Secret     string
	TTL        time.Duration
	CookieName string
	Secure     bool
}

// Manager binds requests to server-side state through a signed cookie. The
// cookie only names the session; the state lives in the Store. Every request
// re-issues the cookie so expiry rolls forward.
type Manager struct {
	store  Store
	secret []byte
	ttl    time.Duration
	cookie string
	secure bool
	now    func() time.Time
	locks  *keyedMutex
}

func NewManager(store Store, opts Options) (*Manager, error) {
	if store == nil {
		return nil, errors.New("session store is required")
	}
	if strings.TrimSpace(opts.Secret) == "" {
		return nil, errors.New("session secret is required")
	}
	if opts.TTL <= 0 {
		return nil, errors.New("session ttl must be positive")
	}
	name := opts.CookieName
	if name == "" {
		name = DefaultCookieName
	}
	return &Manager{
		store:  store,
		secret: []byte(opts.Secret),
		ttl:    opts.TTL,
		cookie: name,
		secure: opts.Secure,
		now:    time.Now,
		locks:  newKeyedMutex(),
	}, nil
}

// Session is one request's view of a session. It holds the per-session lock
// until Release.
type Session struct {
	ID    string
	State State

	stored  bool
	release func()
}

// Release unlocks the session. Safe to call more than once.
func (s *Session) Release() {
	if s.release != nil {
		s.release()
		s.release = nil
	}
}

// Open resolves the caller's session, locks it and re-issues the cookie on w.
// A missing, forged or expired cookie starts a fresh session.
func (m *Manager) Open(ctx context.Context, w http.ResponseWriter, r *http.Request) (*Session, error) {
	id := ""
	if c, err := r.Cookie(m.cookie); err == nil {
		if parsed, err := parseToken(m.secret, c.Value, m.now()); err == nil {
			id = parsed
		}
	}
	if id == "" {
		id = uuid.NewString()
	}

	sess := &Session{ID: id, release: m.locks.lock(id)}
	st, err := m.store.Load(ctx, id)
	switch {
	case err == nil:
		sess.State = st
		sess.stored = true
	case errors.Is(err, ErrNotFound):
	default:
		sess.Release()
		return nil, fmt.Errorf("loading session: %w", err)
	}

	if err := m.writeCookie(w, id); err != nil {
		sess.Release()
		return nil, err
	}
	return sess, nil
}

// Commit persists the state. A session that was never stored and is still
// empty leaves no trace in the store.
func (m *Manager) Commit(ctx context.Context, sess *Session) error {
	if !sess.stored && sess.State.Empty() {
		return nil
	}
	if err := m.store.Save(ctx, sess.ID, sess.State, m.ttl); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	sess.stored = true
	return nil
}

// Regenerate moves the state to a new id and re-issues the cookie. Used on
// privilege changes so a pre-login id cannot be replayed. The lock moves to
// the new id along with the state.
func (m *Manager) Regenerate(ctx context.Context, w http.ResponseWriter, sess *Session) error {
	if sess.stored {
		if err := m.store.Delete(ctx, sess.ID); err != nil {
			return fmt.Errorf("dropping old session: %w", err)
		}
	}
	id := uuid.NewString()
	release := m.locks.lock(id)
	sess.Release()
	sess.ID, sess.release = id, release
	sess.stored = false
	return m.writeCookie(w, sess.ID)
}

func (m *Manager) writeCookie(w http.ResponseWriter, id string) error {
	token, err := mintToken(m.secret, id, m.now(), m.ttl)
	if err != nil {
		return err
	}
	replaceCookie(w, m.cookie, &http.Cookie{
		Name:     m.cookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(m.ttl / time.Second),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// replaceCookie drops any Set-Cookie already queued for name before adding c.
func replaceCookie(w http.ResponseWriter, name string, c *http.Cookie) {
	header := w.Header()
	var kept []string
	for _, v := range header.Values("Set-Cookie") {
		if !strings.HasPrefix(v, name+"=") {
			kept = append(kept, v)
		}
	}
	header.Del("Set-Cookie")
	for _, v := range kept {
		header.Add("Set-Cookie", v)
	}
	http.SetCookie(w, c)
}

// keyedMutex serializes requests that share a session id.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*refMutex)}
}

func (k *keyedMutex) lock(id string) func() {
	k.mu.Lock()
	l, ok := k.locks[id]
	if !ok {
		l = &refMutex{}
		k.locks[id] = l
	}
	l.refs++
	k.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, id)
		}
		k.mu.Unlock()
	}
}

func (k *keyedMutex) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
