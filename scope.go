package appfac

import (
	"fmt"
	"reflect"
	"sync"
)

// Scope keeps one instance per Scoped capability, isolated from every other
// scope. Singletons still come from the root container and transients are
// built fresh on each resolve.
type Scope struct {
	root       *Container
	scopedInst map[CapabilityID]reflect.Value
	order      []CapabilityID
	closed     bool
	mu         sync.Mutex
}

// NewScope creates a scope over the container.
func (c *Container) NewScope() *Scope {
	return &Scope{
		root:       c,
		scopedInst: make(map[CapabilityID]reflect.Value),
	}
}

// Container returns the root container of the scope.
func (s *Scope) Container() *Container { return s.root }

// Resolve returns the instance for id, constructing scoped capabilities on
// first use.
func (s *Scope) Resolve(id CapabilityID) (any, error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return nil, ErrScopeClosed
	}
	v, err := s.root.resolveValue(id, s)
	if err != nil {
		return nil, err
	}
	return v.Interface(), nil
}

// MustResolve panics if id cannot be resolved.
func (s *Scope) MustResolve(id CapabilityID) any {
	inst, err := s.Resolve(id)
	if err != nil {
		panic(fmt.Sprintf("appfac: scope resolve %q: %v", id, err))
	}
	return inst
}

func (s *Scope) scoped(def *serviceDef) (reflect.Value, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return reflect.Value{}, ErrScopeClosed
	}
	if inst, ok := s.scopedInst[def.id]; ok {
		s.mu.Unlock()
		return inst, nil
	}
	s.mu.Unlock()

	// constructors may resolve other scoped capabilities, so build unlocked
	instance, err := s.root.invoke(def, s)
	if err != nil {
		return reflect.Value{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		_ = closeAll([]CapabilityID{def.id}, func(CapabilityID) reflect.Value { return instance })
		return reflect.Value{}, ErrScopeClosed
	}
	if existing, ok := s.scopedInst[def.id]; ok {
		// another resolve won the race
		if err := closeAll([]CapabilityID{def.id}, func(CapabilityID) reflect.Value { return instance }); err != nil {
			s.root.log.Warn().Err(err).Str("capability", string(def.id)).Msg("closing duplicate scoped instance")
		}
		return existing, nil
	}
	s.scopedInst[def.id] = instance
	s.order = append(s.order, def.id)
	return instance, nil
}

// Close closes the scoped instances that implement io.Closer, newest first.
// Resolving from a closed scope fails with ErrScopeClosed.
func (s *Scope) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	order := s.order
	instances := s.scopedInst
	s.order = nil
	s.scopedInst = make(map[CapabilityID]reflect.Value)
	s.mu.Unlock()

	return closeAll(order, func(id CapabilityID) reflect.Value { return instances[id] })
}
