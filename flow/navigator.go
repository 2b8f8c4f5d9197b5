package flow

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/Ngone6325/appfac"
)

// Navigator owns the tab flows of an app and at most one modal flow. Only one
// tab is alive at a time: activating a tab tears the previous one down.
type Navigator struct {
	container *appfac.Container
	defs      map[string]Definition
	opts      []Option
	log       zerolog.Logger

	mu     sync.Mutex
	active *Flow
	modal  *Flow
	closed bool
}

// NewNavigator registers the tab definitions. Definitions are checked against
// the container up front so a bad Requires list fails at startup.
func NewNavigator(c *appfac.Container, defs []Definition, opts ...Option) (*Navigator, error) {
	o := buildOptions(opts)
	n := &Navigator{
		container: c,
		defs:      make(map[string]Definition, len(defs)),
		opts:      opts,
		log:       o.log,
	}
	for _, d := range defs {
		if err := d.validate(); err != nil {
			return nil, err
		}
		if _, dup := n.defs[d.Name]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateFlow, d.Name)
		}
		if _, err := c.Narrow(d.Requires...); err != nil {
			return nil, fmt.Errorf("flow %s: %w", d.Name, err)
		}
		n.defs[d.Name] = d
	}
	return n, nil
}

// Tabs returns the registered tab names, sorted.
func (n *Navigator) Tabs() []string {
	names := make([]string, 0, len(n.defs))
	for name := range n.defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Activate switches to the named tab. The previous tab flow and any presented
// modal are closed and a fresh activation is returned, even when name is
// already the active tab.
func (n *Navigator) Activate(name string) (*Flow, error) {
	def, ok := n.defs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFlow, name)
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return nil, ErrFlowClosed
	}

	f, err := New(n.container, def, n.opts...)
	if err != nil {
		return nil, err
	}
	err = errors.Join(closeFlow(n.modal), closeFlow(n.active))
	n.modal = nil
	n.active = f
	n.log.Debug().Str("flow", name).Msg("tab activated")
	return f, err
}

// Present opens def as a modal over the active tab.
func (n *Navigator) Present(def Definition) (*Flow, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return nil, ErrFlowClosed
	}
	if n.modal != nil {
		return nil, fmt.Errorf("%w: %s", ErrModalPresent, n.modal.Name())
	}
	f, err := New(n.container, def, n.opts...)
	if err != nil {
		return nil, err
	}
	n.modal = f
	n.log.Debug().Str("flow", def.Name).Msg("modal presented")
	return f, nil
}

// Dismiss closes the presented modal.
func (n *Navigator) Dismiss() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.modal == nil {
		return ErrNoModal
	}
	err := n.modal.Close()
	n.log.Debug().Str("flow", n.modal.Name()).Msg("modal dismissed")
	n.modal = nil
	return err
}

// Active returns the active tab flow, or nil.
func (n *Navigator) Active() *Flow {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.active
}

// Current returns the modal if one is presented, otherwise the active tab.
func (n *Navigator) Current() (*Flow, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	switch {
	case n.modal != nil:
		return n.modal, nil
	case n.active != nil:
		return n.active, nil
	default:
		return nil, ErrNoActiveFlow
	}
}

// Close tears down every live flow. The navigator cannot be used afterwards.
func (n *Navigator) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return nil
	}
	n.closed = true
	err := errors.Join(closeFlow(n.modal), closeFlow(n.active))
	n.modal, n.active = nil, nil
	return err
}

func closeFlow(f *Flow) error {
	if f == nil {
		return nil
	}
	return f.Close()
}
