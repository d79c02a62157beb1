package session

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/yndnr/adminctl/internal/core/domain"
	"github.com/yndnr/adminctl/internal/storage"
	"github.com/yndnr/adminctl/internal/telemetry/logger"
)

// DefaultKeyPrefix prefixes both persisted slots.
const DefaultKeyPrefix = "adminctl/session/"

// Snapshot is the session together with the revision it was committed at.
// A nil Session means logged out.
type Snapshot struct {
	Session  *domain.Session
	Revision uint64
}

// LoggedIn reports whether the snapshot holds a session.
func (s Snapshot) LoggedIn() bool {
	return s.Session != nil
}

// Option configures a Store.
type Option func(*Store)

// WithKeyPrefix overrides DefaultKeyPrefix.
func WithKeyPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// WithPassphrase seals the credential slot at rest.
func WithPassphrase(passphrase string) Option {
	return func(s *Store) {
		s.passphrase = passphrase
	}
}

// WithLogger sets the store logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Store) {
		s.logger = l
	}
}

// WithObserver registers fn to run after every committed change.
// Observers run with the write lock held and must not call back into the Store.
func WithObserver(fn func(Snapshot)) Option {
	return func(s *Store) {
		s.observers = append(s.observers, fn)
	}
}

// Store is the process-wide session holder.
type Store struct {
	engine     storage.KVEngine
	logger     logger.Logger
	prefix     string
	passphrase string
	observers  []func(Snapshot)

	mu      sync.Mutex // serializes Write and Clear
	current atomic.Pointer[Snapshot]
}

// Open loads the last committed session from engine.
//
// A partial or undecodable persisted state is purged and the store starts
// logged out. Only failures of the medium itself are returned.
func Open(ctx context.Context, engine storage.KVEngine, opts ...Option) (*Store, error) {
	s := &Store{
		engine: engine,
		prefix: DefaultKeyPrefix,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Default()
	}

	values, err := engine.GetMany(ctx, s.credentialKey(), s.identityKey())
	if err != nil {
		return nil, domain.ErrStorage.WithCause(err)
	}

	sess, err := s.decode(values[0], values[1])
	if err != nil {
		s.logger.Warn("discarding persisted session", "error", err)
		if err := engine.Apply(ctx, s.clearBatch()); err != nil {
			return nil, domain.ErrStorage.WithCause(err)
		}
		sess = nil
	}

	snap := &Snapshot{Session: sess}
	if sess != nil {
		snap.Revision = 1
	}
	s.current.Store(snap)
	s.notify(*snap)

	return s, nil
}

// Read returns a copy of the current session, or nil when logged out.
func (s *Store) Read() *domain.Session {
	return s.current.Load().Session.Clone()
}

// Snapshot returns a copy of the current session and its revision.
func (s *Store) Snapshot() Snapshot {
	snap := s.current.Load()
	return Snapshot{Session: snap.Session.Clone(), Revision: snap.Revision}
}

// Revision returns the current revision.
func (s *Store) Revision() uint64 {
	return s.current.Load().Revision
}

// Write replaces the stored session. Both slots are persisted or neither is.
func (s *Store) Write(ctx context.Context, sess *domain.Session) error {
	if err := sess.Validate(); err != nil {
		return err
	}

	credential, identity, err := s.encode(sess)
	if err != nil {
		return domain.ErrStorage.WithCause(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batch := storage.NewBatch().
		Set(s.credentialKey(), credential).
		Set(s.identityKey(), identity)
	if err := s.engine.Apply(ctx, batch); err != nil {
		return domain.ErrStorage.WithCause(err)
	}

	s.swap(sess.Clone())
	return nil
}

// Clear removes the stored session and reports whether one was present.
// Clearing an empty store changes nothing.
func (s *Store) Clear(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.clearLocked(ctx)
}

// ClearRevision clears the session only while the current revision is rev.
func (s *Store) ClearRevision(ctx context.Context, rev uint64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current.Load().Revision != rev {
		return false, nil
	}
	return s.clearLocked(ctx)
}

func (s *Store) clearLocked(ctx context.Context) (bool, error) {
	if s.current.Load().Session == nil {
		return false, nil
	}

	if err := s.engine.Apply(ctx, s.clearBatch()); err != nil {
		return false, domain.ErrStorage.WithCause(err)
	}

	s.swap(nil)
	return true, nil
}

// swap publishes a new snapshot. Caller holds s.mu.
func (s *Store) swap(sess *domain.Session) {
	next := &Snapshot{
		Session:  sess,
		Revision: s.current.Load().Revision + 1,
	}
	s.current.Store(next)
	s.notify(*next)
}

func (s *Store) notify(snap Snapshot) {
	for _, fn := range s.observers {
		fn(snap)
	}
}

func (s *Store) clearBatch() *storage.Batch {
	return storage.NewBatch().
		Delete(s.credentialKey()).
		Delete(s.identityKey())
}

func (s *Store) credentialKey() []byte {
	return []byte(s.prefix + "credential")
}

func (s *Store) identityKey() []byte {
	return []byte(s.prefix + "identity")
}
