package factory

import (
	"context"
	"sort"
	"sync"

	"github.com/kbukum/modelkit/errors"
	"github.com/kbukum/modelkit/logger"
	"github.com/kbukum/modelkit/observability"
)

// Initializer registers a family's default provider with reg. It runs when a
// lookup misses, so it must be idempotent; it normally calls Register.
type Initializer func(reg *Registry) error

// catalog holds the initializers declared process-wide by model packages.
var catalog = &initCatalog{inits: make(map[Key]Initializer)}

type initCatalog struct {
	mu    sync.RWMutex
	inits map[Key]Initializer
}

// Declare records the initializer for key in the process-wide catalog.
// Model packages call it from init() so that any Registry can bring the
// family up on first lookup. A later declaration for the same key replaces
// the earlier one.
func Declare(key Key, fn Initializer) {
	catalog.mu.Lock()
	defer catalog.mu.Unlock()
	catalog.inits[key] = fn
}

// Declared returns the sorted keys of the process-wide catalog.
func Declared() []Key {
	catalog.mu.RLock()
	keys := make([]Key, 0, len(catalog.inits))
	for k := range catalog.inits {
		keys = append(keys, k)
	}
	catalog.mu.RUnlock()
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func declared(key Key) Initializer {
	catalog.mu.RLock()
	defer catalog.mu.RUnlock()
	return catalog.inits[key]
}

// Registry maps family keys to their shared states.
type Registry struct {
	mu       sync.Mutex
	states   map[Key]*State
	inits    map[Key]Initializer
	isolated bool
	// initializing holds the keys whose initializer is running.
	initializing map[Key]bool

	log     *logger.Logger
	metrics *observability.Metrics
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger used for registry events.
func WithLogger(l *logger.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.log = l
		}
	}
}

// WithMetrics records registry events on m.
func WithMetrics(m *observability.Metrics) Option {
	return func(r *Registry) { r.metrics = m }
}

// WithIsolation makes the registry ignore the process-wide Declare catalog.
// Only initializers declared on the registry itself are run.
func WithIsolation() Option {
	return func(r *Registry) { r.isolated = true }
}

// NewRegistry creates an empty Registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		states:       make(map[Key]*State),
		inits:        make(map[Key]Initializer),
		initializing: make(map[Key]bool),
		log:          logger.Get("factory"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Declare records an initializer for key on this registry only. It takes
// precedence over the process-wide catalog.
func (r *Registry) Declare(key Key, fn Initializer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inits[key] = fn
}

// GetOrCreateState returns the state for key, creating it with def as
// default and active provider on first registration.
//
// A later registration must agree with the existing state on both the
// abstract type and the default concrete type; otherwise FAMILY_CONFLICT is
// returned and the existing state is left untouched.
func (r *Registry) GetOrCreateState(key Key, def Provider) (*State, error) {
	iface, concrete, err := validateProvider(key, def)
	if err != nil {
		r.recordError(err, key)
		return nil, err
	}
	candidate := newState(r, key, def, iface, concrete)

	r.mu.Lock()
	existing, ok := r.states[key]
	if !ok {
		r.states[key] = candidate
	}
	r.mu.Unlock()

	if !ok {
		r.metrics.RecordFamilyRegistered(context.Background(), string(key))
		r.log.WithFamily(string(key)).Debug("family registered", logger.Fields(
			logger.FieldStateID, candidate.id.String(),
			logger.FieldInterface, typeName(iface),
			logger.FieldConcreteType, typeName(concrete),
		))
		return candidate, nil
	}

	if existing.interfaceType != iface {
		err := errors.FamilyConflict(string(key), "interface type differs",
			typeName(existing.interfaceType), typeName(iface))
		r.recordError(err, key)
		return nil, err
	}
	if existing.defaultConcrete != concrete {
		err := errors.FamilyConflict(string(key), "default concrete type differs",
			typeName(existing.defaultConcrete), typeName(concrete))
		r.recordError(err, key)
		return nil, err
	}
	return existing, nil
}

// State returns the state for key without registering anything.
//
// On a miss the family's declared initializer runs outside the registry lock
// and the lookup is retried exactly once. A family that is still missing
// yields FAMILY_NOT_FOUND. A lookup made while the key's initializer is
// running, including one from the initializer itself, does not run it again.
func (r *Registry) State(key Key) (*State, error) {
	if s, ok := r.lookup(key); ok {
		return s, nil
	}

	if fn := r.beginInit(key); fn != nil {
		r.log.WithFamily(string(key)).Debug("family missing, running initializer")
		initErr := r.runInit(key, fn)
		s, ok := r.lookup(key)
		r.metrics.RecordForcedInit(context.Background(), string(key), ok)
		if initErr != nil {
			return nil, initErr
		}
		if ok {
			return s, nil
		}
	} else if s, ok := r.lookup(key); ok {
		return s, nil
	}

	err := errors.FamilyNotFound(string(key))
	r.recordError(err, key)
	return nil, err
}

// Activate installs the alternative provider offered under name for key.
func (r *Registry) Activate(key Key, name string) error {
	s, err := r.State(key)
	if err != nil {
		return err
	}
	return s.activate(name)
}

// Families returns a diagnostic snapshot of every family, sorted by key.
func (r *Registry) Families() []FamilyInfo {
	r.mu.Lock()
	states := make([]*State, 0, len(r.states))
	for _, s := range r.states {
		states = append(states, s)
	}
	r.mu.Unlock()

	sort.Slice(states, func(i, j int) bool { return states[i].key < states[j].key })
	infos := make([]FamilyInfo, len(states))
	for i, s := range states {
		infos[i] = s.Info()
	}
	return infos
}

// Keys returns the sorted keys of the registered families.
func (r *Registry) Keys() []Key {
	r.mu.Lock()
	keys := make([]Key, 0, len(r.states))
	for k := range r.states {
		keys = append(keys, k)
	}
	r.mu.Unlock()
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func (r *Registry) lookup(key Key) (*State, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.states[key]
	return s, ok
}

// beginInit returns the initializer for key and marks it running. It
// returns nil when none is declared or one is already running.
func (r *Registry) beginInit(key Key) Initializer {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.initializing[key] {
		r.log.WithFamily(string(key)).Debug("initializer already running")
		return nil
	}
	fn, ok := r.inits[key]
	if !ok && !r.isolated {
		fn = declared(key)
	}
	if fn != nil {
		r.initializing[key] = true
	}
	return fn
}

func (r *Registry) runInit(key Key, fn Initializer) error {
	defer func() {
		r.mu.Lock()
		delete(r.initializing, key)
		r.mu.Unlock()
	}()
	return fn(r)
}

// recordError logs and counts a registry error.
func (r *Registry) recordError(err error, key Key) {
	code := string(errors.ErrCodeInternal)
	if appErr, ok := errors.AsAppError(err); ok {
		code = string(appErr.Code)
	}
	r.metrics.RecordError(context.Background(), code, string(key))
	r.log.WithFamily(string(key)).
		WithFields(logger.Fields("code", code)).
		WithError(err).
		Warn("registry error")
}
