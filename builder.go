package appfac

import (
	"errors"
	"fmt"
	"reflect"
	"sort"

	"github.com/rs/zerolog"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// serviceDef holds registration metadata and, for singletons, the built instance
type serviceDef struct {
	id         CapabilityID
	svcType    reflect.Type   // exposed type (interface or the concrete type)
	implType   reflect.Type   // constructor result or instance type
	scope      LifetimeScope  // lifetime
	instance   reflect.Value  // built singleton or registered instance
	ctor       reflect.Value  // constructor (empty for instances)
	paramTypes []reflect.Type // constructor parameter types, cached at registration
	returnsErr bool           // constructor has a trailing error result
	isInstance bool           // instance registration: never call ctor
}

// Builder collects registrations for one container. It is not safe for
// concurrent use; build the container before any reader exists.
type Builder struct {
	variant Variant
	defs    map[CapabilityID]*serviceDef
	log     zerolog.Logger
	built   bool
}

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets the logger used while constructing capabilities.
func WithLogger(l zerolog.Logger) Option {
	return func(b *Builder) { b.log = l }
}

// NewBuilder creates an empty builder for the given variant.
func NewBuilder(variant Variant, opts ...Option) *Builder {
	b := &Builder{
		variant: variant,
		defs:    make(map[CapabilityID]*serviceDef),
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Variant reports the variant the builder was created for.
func (b *Builder) Variant() Variant { return b.variant }

// Provide registers a constructor under id, exposed as its return type.
// The constructor returns T or (T, error); its parameters are satisfied by type
// from the other registered capabilities.
func (b *Builder) Provide(id CapabilityID, ctor any, scope LifetimeScope) error {
	return b.provide(id, ctor, nil, scope)
}

// ProvideAs registers a constructor under id, exposed as the interface given
// by ifacePtr, e.g. (*model.FavoritesService)(nil).
func (b *Builder) ProvideAs(id CapabilityID, ctor any, ifacePtr any, scope LifetimeScope) error {
	return b.provide(id, ctor, ifacePtr, scope)
}

func (b *Builder) provide(id CapabilityID, ctor any, ifacePtr any, scope LifetimeScope) error {
	if err := b.checkID(id); err != nil {
		return err
	}
	if ctor == nil {
		return ErrNotFunc
	}

	ctorVal := reflect.ValueOf(ctor)
	ctorType := ctorVal.Type()
	if ctorType.Kind() != reflect.Func {
		return ErrNotFunc
	}

	numOut := ctorType.NumOut()
	if numOut < 1 || numOut > 2 {
		return fmt.Errorf("%w, got %d return values", ErrNoReturn, numOut)
	}
	returnsErr := false
	if numOut == 2 {
		if ctorType.Out(1) != errorType {
			return fmt.Errorf("%w, second return value is %s", ErrNoReturn, ctorType.Out(1))
		}
		returnsErr = true
	}
	if ctorType.IsVariadic() {
		return fmt.Errorf("%w, variadic constructors are not supported", ErrNotFunc)
	}

	implType := ctorType.Out(0)
	if implType.Kind() == reflect.Interface {
		return fmt.Errorf("%w, returns interface %s", ErrNotConcreteType, implType)
	}

	svcType, err := exposedType(implType, ifacePtr)
	if err != nil {
		return err
	}

	params := make([]reflect.Type, ctorType.NumIn())
	for i := range params {
		params[i] = ctorType.In(i)
	}

	b.defs[id] = &serviceDef{
		id:         id,
		svcType:    svcType,
		implType:   implType,
		scope:      scope,
		ctor:       ctorVal,
		paramTypes: params,
		returnsErr: returnsErr,
	}
	return nil
}

// ProvideInstance registers a ready-made instance under id as a singleton.
func (b *Builder) ProvideInstance(id CapabilityID, instance any) error {
	return b.provideInstance(id, instance, nil)
}

// ProvideInstanceAs registers a ready-made instance exposed as an interface.
func (b *Builder) ProvideInstanceAs(id CapabilityID, instance any, ifacePtr any) error {
	return b.provideInstance(id, instance, ifacePtr)
}

func (b *Builder) provideInstance(id CapabilityID, instance any, ifacePtr any) error {
	if err := b.checkID(id); err != nil {
		return err
	}
	def, err := instanceDef(id, instance, ifacePtr)
	if err != nil {
		return err
	}
	b.defs[id] = def
	return nil
}

// Override replaces the registration for id with a fixed instance. The
// instance must satisfy the type id is already exposed as.
func (b *Builder) Override(id CapabilityID, instance any) error {
	if b.built {
		return ErrBuilderUsed
	}
	existing, ok := b.defs[id]
	if !ok {
		return fmt.Errorf("%w: cannot override %q", ErrMissingDependency, id)
	}
	if instance == nil {
		return ErrNilInstance
	}
	instVal := reflect.ValueOf(instance)
	if !instVal.Type().AssignableTo(existing.svcType) {
		return fmt.Errorf("%w: override for %q is %s, want %s", ErrTypeConvertFailed, id, instVal.Type(), existing.svcType)
	}
	b.defs[id] = &serviceDef{
		id:         id,
		svcType:    existing.svcType,
		implType:   instVal.Type(),
		scope:      Singleton,
		instance:   instVal,
		isInstance: true,
	}
	return nil
}

func (b *Builder) checkID(id CapabilityID) error {
	if b.built {
		return ErrBuilderUsed
	}
	if id == "" {
		return ErrEmptyCapabilityID
	}
	if _, exists := b.defs[id]; exists {
		return fmt.Errorf("%w, capability: %s", ErrRegisterDuplicate, id)
	}
	return nil
}

func instanceDef(id CapabilityID, instance any, ifacePtr any) (*serviceDef, error) {
	if instance == nil {
		return nil, ErrNilInstance
	}
	instVal := reflect.ValueOf(instance)
	implType := instVal.Type()
	svcType, err := exposedType(implType, ifacePtr)
	if err != nil {
		return nil, err
	}
	return &serviceDef{
		id:         id,
		svcType:    svcType,
		implType:   implType,
		scope:      Singleton,
		instance:   instVal,
		isInstance: true,
	}, nil
}

// exposedType resolves the type a capability is registered as
func exposedType(implType reflect.Type, ifacePtr any) (reflect.Type, error) {
	if ifacePtr == nil {
		return implType, nil
	}
	targetType := reflect.TypeOf(ifacePtr)
	if targetType.Kind() != reflect.Ptr || targetType.Elem().Kind() != reflect.Interface {
		return nil, ErrInvalidInterfaceType
	}
	svcType := targetType.Elem()
	if !implType.Implements(svcType) {
		return nil, fmt.Errorf("%w: type %s does not implement %s", ErrTypeConvertFailed, implType, svcType)
	}
	return svcType, nil
}

// Build validates the dependency graph, constructs every singleton in
// dependency order and returns the frozen container. On failure nothing is
// returned and singletons built so far are closed.
func (b *Builder) Build() (*Container, error) {
	if b.built {
		return nil, ErrBuilderUsed
	}
	b.built = true

	c := &Container{
		variant: b.variant,
		defs:    b.defs,
		byType:  make(map[reflect.Type][]CapabilityID),
		log:     b.log,
	}

	ids := make([]CapabilityID, 0, len(b.defs))
	for id := range b.defs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	c.ids = ids

	for _, id := range ids {
		def := b.defs[id]
		c.byType[def.svcType] = append(c.byType[def.svcType], id)
	}

	for _, id := range ids {
		if err := c.validate(id, make(map[CapabilityID]bool), ""); err != nil {
			return nil, &ConstructionError{Capability: id, Err: err}
		}
	}

	for _, id := range ids {
		def := b.defs[id]
		if def.isInstance || def.scope != Singleton || def.instance.IsValid() {
			continue
		}
		if _, err := c.buildSingleton(def); err != nil {
			if closeErr := c.Close(); closeErr != nil {
				c.log.Warn().Err(closeErr).Msg("closing partially built container")
			}
			var ce *ConstructionError
			if errors.As(err, &ce) {
				return nil, ce
			}
			return nil, &ConstructionError{Capability: id, Err: err}
		}
	}

	c.log.Debug().
		Str("variant", c.variant.String()).
		Int("capabilities", len(ids)).
		Msg("container built")
	return c, nil
}

// validate checks that every constructor parameter maps to exactly one
// capability, that there are no cycles and no singleton captures a scoped
// value. singleton is the nearest singleton consumer up the chain, or empty;
// transients inherit it.
func (c *Container) validate(id CapabilityID, track map[CapabilityID]bool, singleton CapabilityID) error {
	def := c.defs[id]
	if def.isInstance {
		return nil
	}
	if track[id] {
		return fmt.Errorf("%w, chain contains: %s", ErrResolveCircularDependency, id)
	}
	track[id] = true
	defer delete(track, id)

	switch def.scope {
	case Singleton:
		singleton = id
	case Scoped:
		singleton = ""
	}

	for _, pType := range def.paramTypes {
		depID, err := c.lookupType(pType)
		if err != nil {
			return err
		}
		dep := c.defs[depID]
		if singleton != "" && !dep.isInstance && dep.scope == Scoped {
			if singleton == id {
				return fmt.Errorf("%w: %s depends on %s", ErrLifetimeMismatch, id, depID)
			}
			return fmt.Errorf("%w: %s depends on %s via %s", ErrLifetimeMismatch, singleton, depID, id)
		}
		if err := c.validate(depID, track, singleton); err != nil {
			return err
		}
	}
	return nil
}

func (c *Container) lookupType(t reflect.Type) (CapabilityID, error) {
	ids := c.byType[t]
	switch len(ids) {
	case 0:
		return "", fmt.Errorf("%w: no capability provides type %s", ErrMissingDependency, t)
	case 1:
		return ids[0], nil
	default:
		return "", fmt.Errorf("%w: type %s is provided by %v", ErrAmbiguousDependency, t, ids)
	}
}

// buildSingleton only runs during Build, before the container is shared
func (c *Container) buildSingleton(def *serviceDef) (reflect.Value, error) {
	if def.instance.IsValid() {
		return def.instance, nil
	}
	params, err := c.params(def, nil)
	if err != nil {
		return reflect.Value{}, err
	}

	instance, err := call(def, params)
	if err != nil {
		return reflect.Value{}, &ConstructionError{Capability: def.id, Err: err}
	}
	def.instance = instance
	c.order = append(c.order, def.id)
	c.log.Debug().
		Str("capability", string(def.id)).
		Str("type", def.svcType.String()).
		Str("variant", c.variant.String()).
		Msg("constructed capability")
	return instance, nil
}

func call(def *serviceDef, params []reflect.Value) (reflect.Value, error) {
	results := def.ctor.Call(params)
	if def.returnsErr {
		if errVal := results[1]; !errVal.IsNil() {
			return reflect.Value{}, errVal.Interface().(error)
		}
	}
	instance := results[0]
	if (instance.Kind() == reflect.Ptr || instance.Kind() == reflect.Map) && instance.IsNil() {
		return reflect.Value{}, fmt.Errorf("%w: constructor for %s returned nil", ErrNilInstance, def.id)
	}
	return instance, nil
}

// ---------------------- Must helpers: panic on registration errors ----------------------

// MustProvide is Provide that panics on error.
func (b *Builder) MustProvide(id CapabilityID, ctor any, scope LifetimeScope) {
	if err := b.Provide(id, ctor, scope); err != nil {
		panic(fmt.Sprintf("appfac: provide %q: %v", id, err))
	}
}

// MustProvideAs is ProvideAs that panics on error.
func (b *Builder) MustProvideAs(id CapabilityID, ctor any, ifacePtr any, scope LifetimeScope) {
	if err := b.ProvideAs(id, ctor, ifacePtr, scope); err != nil {
		panic(fmt.Sprintf("appfac: provide %q: %v", id, err))
	}
}

// MustProvideInstance is ProvideInstance that panics on error.
func (b *Builder) MustProvideInstance(id CapabilityID, instance any) {
	if err := b.ProvideInstance(id, instance); err != nil {
		panic(fmt.Sprintf("appfac: provide instance %q: %v", id, err))
	}
}

// MustProvideInstanceAs is ProvideInstanceAs that panics on error.
func (b *Builder) MustProvideInstanceAs(id CapabilityID, instance any, ifacePtr any) {
	if err := b.ProvideInstanceAs(id, instance, ifacePtr); err != nil {
		panic(fmt.Sprintf("appfac: provide instance %q: %v", id, err))
	}
}
