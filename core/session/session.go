package session

import (
	"strings"
	"sync"

	"github.com/dgrijalva/jwt-go"
	"github.com/pkg/errors"

	"github.com/trezcool/edunet/core"
	"github.com/trezcool/edunet/core/account"
)

type Status int

const (
	StatusLoading Status = iota
	StatusReady
)

func (s Status) String() string {
	if s == StatusReady {
		return "ready"
	}
	return "loading"
}

type (
	// State is a snapshot of the session.
	State struct {
		Token   string
		Profile *account.Profile
		Status  Status
	}

	// TokenStore persists the bearer token between runs. Load returns "" when there is none.
	TokenStore interface {
		Load() (string, error)
		Save(token string) error
		Clear() error
	}

	// Claims are the JWT claims the client reads to show who is logged in.
	Claims struct {
		jwt.StandardClaims
		Name  string   `json:"name,omitempty"`
		Email string   `json:"email,omitempty"`
		Roles []string `json:"roles,omitempty"`
	}

	// Session is the one process-wide authentication state. It is the only thing that mutates it;
	// every component that needs a token gets the Session through its constructor.
	Session struct {
		store TokenStore
		log   core.Logger

		mu        sync.RWMutex
		state     State
		listeners map[int]func(State)
		nextID    int
	}
)

func (s State) Authenticated() bool {
	return s.Token != ""
}

func New(store TokenStore, logger core.Logger) *Session {
	return &Session{
		store:     store,
		log:       logger,
		state:     State{Status: StatusLoading},
		listeners: make(map[int]func(State)),
	}
}

// Restore loads the persisted token. A JWT that already expired is discarded.
func (s *Session) Restore() error {
	token, err := s.store.Load()
	if err != nil {
		s.set(State{Status: StatusReady})
		return errors.Wrap(err, "loading token")
	}

	token = strings.TrimSpace(token)
	var profile *account.Profile
	if token != "" {
		claims, err := ParseClaims(token)
		switch {
		case err == nil:
			p := claims.Profile()
			profile = &p
		case errors.Cause(err) == errTokenExpired:
			s.log.Info("stored session expired")
			token = ""
			if err := s.store.Clear(); err != nil {
				s.log.Warn("clearing token", err)
			}
		}
	}

	s.set(State{Token: token, Profile: profile, Status: StatusReady})
	return nil
}

var errTokenExpired = errors.New("token expired")

// ParseClaims reads the claims of a JWT without verifying its signature; only the server can do that.
func ParseClaims(token string) (*Claims, error) {
	claims := new(Claims)
	if _, _, err := new(jwt.Parser).ParseUnverified(token, claims); err != nil {
		return nil, errors.Wrap(err, "parsing token")
	}
	if err := claims.Valid(); err != nil {
		var vErr *jwt.ValidationError
		if errors.As(err, &vErr) && vErr.Errors&jwt.ValidationErrorExpired != 0 {
			return nil, errTokenExpired
		}
		return nil, errors.Wrap(err, "validating claims")
	}
	return claims, nil
}

func (c Claims) Profile() account.Profile {
	id, _ := core.ParseID(c.Subject)
	return account.Profile{ID: id, Name: c.Name, Email: c.Email, Roles: c.Roles}
}

func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Token returns the bearer token, if any.
func (s *Session) Token() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Token, s.state.Token != ""
}

func (s *Session) Authenticated() bool {
	_, ok := s.Token()
	return ok
}

func (s *Session) Profile() (account.Profile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state.Profile == nil {
		return account.Profile{}, false
	}
	return *s.state.Profile, true
}

// Begin stores a freshly issued token.
func (s *Session) Begin(token string) error {
	if err := s.store.Save(token); err != nil {
		return errors.Wrap(err, "saving token")
	}
	s.update(func(st *State) {
		st.Token = token
		st.Profile = nil
		st.Status = StatusReady
	})
	return nil
}

func (s *Session) SetProfile(p account.Profile) {
	s.update(func(st *State) {
		st.Profile = &p
	})
}

// Clear logs out: the token is forgotten here and in the store.
func (s *Session) Clear() error {
	s.set(State{Status: StatusReady})
	if err := s.store.Clear(); err != nil {
		return errors.Wrap(err, "clearing token")
	}
	return nil
}

// Expire ends a session the server no longer accepts.
func (s *Session) Expire() {
	st := s.State()
	if !st.Authenticated() {
		return
	}
	if st.Profile != nil {
		s.log.Warn("session expired", *st.Profile)
	} else {
		s.log.Warn("session expired")
	}
	if err := s.Clear(); err != nil {
		s.log.Error("expiring session", err)
	}
}

// Subscribe registers fn to be called with the new state after every change.
func (s *Session) Subscribe(fn func(State)) (cancel func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *Session) set(st State) {
	s.update(func(cur *State) { *cur = st })
}

func (s *Session) update(fn func(st *State)) {
	s.mu.Lock()
	fn(&s.state)
	st := s.state
	listeners := make([]func(State), 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.Unlock()

	for _, l := range listeners {
		l(st)
	}
}
