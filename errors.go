package appfac

import (
	"errors"
	"fmt"
)

// Container error definitions
var (
	ErrNotFunc                   = errors.New("provider must be a constructor function (function type)")
	ErrNoReturn                  = errors.New("constructor must return exactly one value, optionally followed by an error")
	ErrRegisterDuplicate         = errors.New("capability already registered, duplicate registration prohibited")
	ErrMissingDependency         = errors.New("missing dependency: capability not registered")
	ErrConstructionFailure       = errors.New("container construction failed")
	ErrNotConcreteType           = errors.New("constructor return value must be concrete type (not interface)")
	ErrResolveCircularDependency = errors.New("circular dependency detected during construction")
	ErrInvalidInterfaceType      = errors.New("interfaceType must be a nil pointer to interface, e.g. (*IInterface)(nil)")
	ErrTypeConvertFailed         = errors.New("instance cannot be converted to target type")
	ErrScopedOnRootContainer     = errors.New("scoped capabilities cannot be resolved from the root container, use a Scope")
	ErrNilInstance               = errors.New("registered instance cannot be nil")
	ErrEmptyCapabilityID         = errors.New("capability identifier cannot be empty")
	ErrAmbiguousDependency       = errors.New("more than one capability provides the requested type")
	ErrLifetimeMismatch          = errors.New("singleton capabilities cannot depend on scoped capabilities")
	ErrBuilderUsed               = errors.New("builder already produced a container")
	ErrScopeClosed               = errors.New("scope is closed")
	ErrNotInView                 = errors.New("capability is not part of this view")
	ErrParityMismatch            = errors.New("container variants do not expose the same capabilities")
)

// ConstructionError reports the capability whose construction or validation
// aborted Build. It matches both ErrConstructionFailure and the cause.
type ConstructionError struct {
	Capability CapabilityID
	Err        error
}

func (e *ConstructionError) Error() string {
	return fmt.Sprintf("%v: capability %q: %v", ErrConstructionFailure, e.Capability, e.Err)
}

func (e *ConstructionError) Unwrap() []error {
	return []error{ErrConstructionFailure, e.Err}
}
