package factory

import (
	"context"
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/modelkit/errors"
	"github.com/kbukum/modelkit/logger"
)

// State is the shared record for one family. Exactly one State exists per
// key in a Registry and every Family handle for that key points at it.
//
// The key, abstract type and default provider never change after creation.
// The active provider, the named alternatives and the bound provider
// contract are guarded by the state's own lock.
type State struct {
	key             Key
	id              uuid.UUID
	interfaceType   reflect.Type
	defaultProvider Provider
	defaultConcrete reflect.Type
	createdAt       time.Time
	reg             *Registry
	log             *logger.Logger

	mu           sync.RWMutex
	active       Provider
	contract     reflect.Type
	alternatives map[string]Provider
	installs     int
}

func newState(reg *Registry, key Key, def Provider, iface, concrete reflect.Type) *State {
	return &State{
		key:             key,
		id:              uuid.New(),
		interfaceType:   iface,
		defaultProvider: def,
		defaultConcrete: concrete,
		createdAt:       time.Now(),
		reg:             reg,
		log:             reg.log.WithFamily(string(key)),
		active:          def,
		alternatives:    make(map[string]Provider),
	}
}

// Key returns the family key.
func (s *State) Key() Key { return s.key }

// ID returns the unique identifier assigned when the state was created.
func (s *State) ID() uuid.UUID { return s.id }

// InterfaceType returns the family's abstract model type.
func (s *State) InterfaceType() reflect.Type { return s.interfaceType }

// DefaultProvider returns the provider the family was registered with.
func (s *State) DefaultProvider() Provider { return s.defaultProvider }

// ActiveProvider returns a snapshot of the currently installed provider.
func (s *State) ActiveProvider() Provider {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// ConcreteType returns the concrete type of the active provider.
func (s *State) ConcreteType() reflect.Type {
	return s.ActiveProvider().ConcreteType()
}

// bind ties the state to the Go provider contract used by typed handles.
// The first typed handle wins; a handle with any other contract is a conflict.
func (s *State) bind(contract reflect.Type) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.contract == contract {
		return nil
	}
	if s.contract != nil {
		return errors.FamilyConflict(string(s.key), "provider contract differs",
			typeName(s.contract), typeName(contract))
	}
	if actual := reflect.TypeOf(s.defaultProvider); !actual.AssignableTo(contract) {
		return errors.FamilyConflict(string(s.key), "default provider does not satisfy contract",
			typeName(contract), typeName(actual))
	}
	s.contract = contract
	return nil
}

// checkCompatible validates p and requires its abstract type to be the family's.
func (s *State) checkCompatible(p Provider) (reflect.Type, error) {
	iface, concrete, err := validateProvider(s.key, p)
	if err != nil {
		return nil, err
	}
	if iface != s.interfaceType {
		return nil, errors.IncompatibleProvider(string(s.key), typeName(s.interfaceType), typeName(iface))
	}
	return concrete, nil
}

// install replaces the active provider. It reports whether the active
// provider changed; installing the provider that is already active is a no-op.
func (s *State) install(p Provider) (bool, error) {
	concrete, err := s.checkCompatible(p)
	if err != nil {
		s.reg.recordError(err, s.key)
		return false, err
	}

	s.mu.Lock()
	if sameProvider(s.active, p) {
		s.mu.Unlock()
		return false, nil
	}
	previous := s.active
	s.active = p
	s.installs++
	s.mu.Unlock()

	s.reg.metrics.RecordInstall(context.Background(), string(s.key), typeName(concrete))
	s.log.Info("provider installed", logger.Fields(
		logger.FieldConcreteType, typeName(concrete),
		"previous_type", typeName(previous.ConcreteType()),
	))
	return true, nil
}

// offer stores p as a named alternative that can later be activated.
func (s *State) offer(name string, p Provider) error {
	if name == "" {
		return errors.InvalidProvider(string(s.key), "alternative name is empty")
	}
	concrete, err := s.checkCompatible(p)
	if err != nil {
		s.reg.recordError(err, s.key)
		return err
	}

	s.mu.Lock()
	s.alternatives[name] = p
	s.mu.Unlock()

	s.log.Debug("alternative offered", logger.Fields(
		logger.FieldAlternative, name,
		logger.FieldConcreteType, typeName(concrete),
	))
	return nil
}

// activate installs the named alternative.
func (s *State) activate(name string) error {
	s.mu.RLock()
	p, ok := s.alternatives[name]
	s.mu.RUnlock()
	if !ok {
		err := errors.AlternativeNotFound(string(s.key), name)
		s.reg.recordError(err, s.key)
		return err
	}
	if _, err := s.install(p); err != nil {
		return err
	}
	s.log.Info("alternative activated", logger.Fields(logger.FieldAlternative, name))
	return nil
}

// alternativeNames returns the sorted names of the offered alternatives.
func (s *State) alternativeNames() []string {
	s.mu.RLock()
	names := make([]string, 0, len(s.alternatives))
	for name := range s.alternatives {
		names = append(names, name)
	}
	s.mu.RUnlock()
	sort.Strings(names)
	return names
}

// FamilyInfo is a diagnostic snapshot of one family state.
type FamilyInfo struct {
	Key           Key       `json:"key"`
	StateID       string    `json:"state_id"`
	InterfaceType string    `json:"interface_type"`
	DefaultType   string    `json:"default_type"`
	ActiveType    string    `json:"active_type"`
	Alternatives  []string  `json:"alternatives,omitempty"`
	Installs      int       `json:"installs"`
	Overridden    bool      `json:"overridden"`
	CreatedAt     time.Time `json:"created_at"`
}

// Info returns a diagnostic snapshot of the state.
func (s *State) Info() FamilyInfo {
	s.mu.RLock()
	active := s.active
	installs := s.installs
	s.mu.RUnlock()

	activeType := active.ConcreteType()
	return FamilyInfo{
		Key:           s.key,
		StateID:       s.id.String(),
		InterfaceType: typeName(s.interfaceType),
		DefaultType:   typeName(s.defaultConcrete),
		ActiveType:    typeName(activeType),
		Alternatives:  s.alternativeNames(),
		Installs:      installs,
		Overridden:    !sameProvider(active, s.defaultProvider),
		CreatedAt:     s.createdAt,
	}
}
