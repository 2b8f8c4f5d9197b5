package appfac

import (
	"fmt"
	"sort"
)

// View is a narrowed Resolver that only hands out the capabilities it was
// created with. Screen flows receive a View instead of the whole container.
type View struct {
	root    *Container
	scope   *Scope
	allowed map[CapabilityID]struct{}
}

// Narrow returns a view over ids. Every id must be registered.
func (c *Container) Narrow(ids ...CapabilityID) (*View, error) {
	return narrow(c, nil, ids)
}

// Narrow returns a view over ids that resolves through the scope.
func (s *Scope) Narrow(ids ...CapabilityID) (*View, error) {
	return narrow(s.root, s, ids)
}

func narrow(c *Container, scope *Scope, ids []CapabilityID) (*View, error) {
	allowed := make(map[CapabilityID]struct{}, len(ids))
	for _, id := range ids {
		if !c.Has(id) {
			return nil, fmt.Errorf("%w: %q", ErrMissingDependency, id)
		}
		allowed[id] = struct{}{}
	}
	return &View{root: c, scope: scope, allowed: allowed}, nil
}

// Resolve returns the instance for id if the view exposes it.
func (v *View) Resolve(id CapabilityID) (any, error) {
	if _, ok := v.allowed[id]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotInView, id)
	}
	if v.scope != nil {
		return v.scope.Resolve(id)
	}
	return v.root.Resolve(id)
}

// Capabilities returns the identifiers exposed by the view, sorted.
func (v *View) Capabilities() []CapabilityID {
	out := make([]CapabilityID, 0, len(v.allowed))
	for id := range v.allowed {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
