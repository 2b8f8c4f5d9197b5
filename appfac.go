// Package appfac is an application container: a registry that constructs and
// owns every long-lived dependency of an application and hands each one out
// under a capability identifier.
//
// A container is assembled by a Builder, validated and constructed in one
// step by Builder.Build, and is read-only afterwards. Live and Mock variants
// are expected to expose the same capability set; CheckParity verifies that.
package appfac

import (
	"errors"
	"fmt"
	"io"
	"reflect"
	"sync"

	"github.com/rs/zerolog"
)

// CapabilityID names a dependency in the registry, e.g. "FavoritesService".
type CapabilityID string

// Resolver is anything capabilities can be looked up from: a Container, a
// Scope or a narrowed View.
type Resolver interface {
	Resolve(id CapabilityID) (any, error)
}

// Container is the frozen registry produced by Builder.Build. Lookups never
// mutate it, so it can be shared between goroutines without locking.
type Container struct {
	variant Variant
	defs    map[CapabilityID]*serviceDef
	byType  map[reflect.Type][]CapabilityID
	ids     []CapabilityID // sorted
	order   []CapabilityID // singleton construction order
	log     zerolog.Logger

	closeOnce sync.Once
	closeErr  error
}

// Variant reports whether the container holds live or mock instances.
func (c *Container) Variant() Variant { return c.variant }

// Has reports whether id is registered.
func (c *Container) Has(id CapabilityID) bool {
	_, ok := c.defs[id]
	return ok
}

// Capabilities returns the registered identifiers in sorted order.
func (c *Container) Capabilities() []CapabilityID {
	out := make([]CapabilityID, len(c.ids))
	copy(out, c.ids)
	return out
}

// TypeOf returns the type id is exposed as.
func (c *Container) TypeOf(id CapabilityID) (reflect.Type, bool) {
	def, ok := c.defs[id]
	if !ok {
		return nil, false
	}
	return def.svcType, true
}

// Lifetime returns the lifetime id was registered with.
func (c *Container) Lifetime(id CapabilityID) (LifetimeScope, bool) {
	def, ok := c.defs[id]
	if !ok {
		return 0, false
	}
	return def.scope, true
}

// Resolve returns the instance registered for id. Unknown identifiers fail
// with ErrMissingDependency; scoped capabilities need a Scope.
func (c *Container) Resolve(id CapabilityID) (any, error) {
	v, err := c.resolveValue(id, nil)
	if err != nil {
		return nil, err
	}
	return v.Interface(), nil
}

// MustResolve is Resolve for call sites where a missing capability is a
// programming error.
func (c *Container) MustResolve(id CapabilityID) any {
	inst, err := c.Resolve(id)
	if err != nil {
		panic(fmt.Sprintf("appfac: resolve %q: %v", id, err))
	}
	return inst
}

func (c *Container) resolveValue(id CapabilityID, scope *Scope) (reflect.Value, error) {
	def, ok := c.defs[id]
	if !ok {
		return reflect.Value{}, fmt.Errorf("%w: %q", ErrMissingDependency, id)
	}

	switch {
	case def.isInstance:
		return def.instance, nil
	case def.scope == Singleton:
		if def.instance.IsValid() {
			return def.instance, nil
		}
		// only reachable while Build is still constructing singletons
		return c.buildSingleton(def)
	case def.scope == Scoped:
		if scope == nil {
			return reflect.Value{}, fmt.Errorf("%w: %q", ErrScopedOnRootContainer, id)
		}
		return scope.scoped(def)
	default:
		return c.invoke(def, scope)
	}
}

// params resolves the constructor arguments of def
func (c *Container) params(def *serviceDef, scope *Scope) ([]reflect.Value, error) {
	params := make([]reflect.Value, len(def.paramTypes))
	for i, pType := range def.paramTypes {
		depID, err := c.lookupType(pType)
		if err != nil {
			return nil, err
		}
		v, err := c.resolveValue(depID, scope)
		if err != nil {
			return nil, fmt.Errorf("resolving dependency %s of %s: %w", depID, def.id, err)
		}
		params[i] = v
	}
	return params, nil
}

// invoke runs the constructor of a transient or scoped capability
func (c *Container) invoke(def *serviceDef, scope *Scope) (reflect.Value, error) {
	params, err := c.params(def, scope)
	if err != nil {
		return reflect.Value{}, err
	}
	return call(def, params)
}

// Close closes every singleton the container constructed that implements
// io.Closer, in reverse construction order. Registered instances belong to
// the caller and are left alone. Close is idempotent.
func (c *Container) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = closeAll(c.order, func(id CapabilityID) reflect.Value {
			return c.defs[id].instance
		})
		if c.closeErr != nil {
			c.log.Error().Err(c.closeErr).Str("variant", c.variant.String()).Msg("closing container")
		}
	})
	return c.closeErr
}

func closeAll(order []CapabilityID, instance func(CapabilityID) reflect.Value) error {
	var errs []error
	for i := len(order) - 1; i >= 0; i-- {
		v := instance(order[i])
		if !v.IsValid() || !v.CanInterface() {
			continue
		}
		if closer, ok := v.Interface().(io.Closer); ok {
			if err := closer.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close %s: %w", order[i], err))
			}
		}
	}
	return errors.Join(errs...)
}

// Get resolves id from r and asserts it to T.
func Get[T any](r Resolver, id CapabilityID) (T, error) {
	var zero T
	inst, err := r.Resolve(id)
	if err != nil {
		return zero, err
	}
	typed, ok := inst.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %q holds %T, want %s", ErrTypeConvertFailed, id, inst, reflect.TypeOf((*T)(nil)).Elem())
	}
	return typed, nil
}

// MustGet is Get that panics on error.
func MustGet[T any](r Resolver, id CapabilityID) T {
	inst, err := Get[T](r, id)
	if err != nil {
		panic(fmt.Sprintf("appfac: get %q: %v", id, err))
	}
	return inst
}
