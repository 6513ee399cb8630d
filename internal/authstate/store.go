// Package authstate keeps the process-wide Session synchronized with the
// identity provider's auth-change stream. All mutation happens on the
// event-processing path; everything else only reads snapshots.
package authstate

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/myhealth-dev/myhealth/internal/docstore"
	"github.com/myhealth-dev/myhealth/internal/identity"
)

// Role is the authorization role carried in a user's profile document.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// profileCollection is where role/profile documents live, keyed by UID.
const profileCollection = "users"

// Session is the current authentication/authorization state.
// Ready distinguishes "auth sync still pending" from "signed out";
// once true it never resets for the life of the process.
type Session struct {
	Ready         bool
	Authenticated bool
	UserID        string
	Email         string
	Role          Role
	Profile       map[string]any
}

// ProfileReader is the slice of the document store the session needs.
type ProfileReader interface {
	Get(ctx context.Context, collection, id string) (map[string]any, error)
}

// AuthStream is the identity-provider event stream the store consumes.
type AuthStream interface {
	Subscribe(fn func(*identity.User)) (unsubscribe func())
	SignOut(ctx context.Context) error
}

// Store owns the single Session value. The provider callback is the only
// writer; a generation counter per event guarantees that a profile fetch
// issued for a superseded identity can never overwrite newer state.
type Store struct {
	profiles ProfileReader
	log      zerolog.Logger

	mu      sync.Mutex
	session Session
	gen     uint64
	stream  AuthStream
	subs    map[int]func(Session)
	nextSub int
}

// New creates a store that reads profile documents from profiles.
func New(profiles ProfileReader, log zerolog.Logger) *Store {
	return &Store{
		profiles: profiles,
		log:      log,
		subs:     make(map[int]func(Session)),
	}
}

// Init subscribes to the provider's auth-change stream. The subscription
// is never torn down in normal operation; it lives as long as the process.
func (s *Store) Init(stream AuthStream) {
	s.mu.Lock()
	s.stream = stream
	s.mu.Unlock()
	stream.Subscribe(s.onAuthChange)
}

// Snapshot returns the current Session value.
func (s *Store) Snapshot() Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

// Subscribe registers fn to observe every Session overwrite. Callbacks run
// on the event-processing path and must not call back into the store.
func (s *Store) Subscribe(fn func(Session)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// SignOut asks the identity provider to terminate the session. The store
// itself mutates nothing here; the resulting signed-out event does.
func (s *Store) SignOut(ctx context.Context) error {
	s.mu.Lock()
	stream := s.stream
	s.mu.Unlock()
	if stream == nil {
		return errors.New("authstate: store not initialized")
	}
	return stream.SignOut(ctx)
}

// onAuthChange is the single writer for the Session.
func (s *Store) onAuthChange(user *identity.User) {
	s.mu.Lock()
	s.gen++
	gen := s.gen

	if user == nil {
		// Signed out: reset synchronously, with no suspension, so no
		// observer ever sees a stale authenticated state.
		s.setLocked(Session{Ready: true})
		s.mu.Unlock()
		return
	}

	uid, email := user.UID, user.Email
	s.mu.Unlock()

	go s.loadProfile(gen, uid, email)
}

// loadProfile fetches the role/profile document and publishes the session
// for the event tagged gen. A read failure fails open to the default role;
// only a newer event can suppress the publish.
func (s *Store) loadProfile(gen uint64, uid, email string) {
	profile, err := s.profiles.Get(context.Background(), profileCollection, uid)
	if err != nil && !errors.Is(err, docstore.ErrNotFound) {
		s.log.Error().Err(err).Str("uid", uid).Msg("Failed to fetch profile document")
	}
	if profile == nil {
		profile = map[string]any{}
	}

	role := RoleUser
	if r, ok := profile["role"].(string); ok && r != "" {
		role = Role(r)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.gen {
		s.log.Debug().Str("uid", uid).Msg("Discarding profile fetch for superseded auth event")
		return
	}

	s.setLocked(Session{
		Ready:         true,
		Authenticated: true,
		UserID:        uid,
		Email:         email,
		Role:          role,
		Profile:       profile,
	})
}

func (s *Store) setLocked(sess Session) {
	s.session = sess
	for _, fn := range s.subs {
		fn(sess)
	}
}
