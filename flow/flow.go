// Package flow implements screen flows over an appfac container: each flow
// activation owns a stack of screen entries and a dependency scope, and can
// only reach the capabilities its definition declares.
package flow

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Ngone6325/appfac"
)

var (
	ErrFlowClosed    = errors.New("flow is closed")
	ErrInvalidFlow   = errors.New("invalid flow definition")
	ErrUnknownFlow   = errors.New("unknown flow")
	ErrEmptyScreen   = errors.New("screen name is empty")
	ErrNoModal       = errors.New("no modal flow is presented")
	ErrModalPresent  = errors.New("a modal flow is already presented")
	ErrNoActiveFlow  = errors.New("no flow is active")
	ErrDuplicateFlow = errors.New("flow defined twice")
)

// Definition describes a flow: its name, the screen it starts on and the
// capabilities its screens may resolve.
type Definition struct {
	Name     string
	Root     string
	Requires []appfac.CapabilityID
}

func (d Definition) validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("%w: name is empty", ErrInvalidFlow)
	}
	if strings.TrimSpace(d.Root) == "" {
		return fmt.Errorf("%w: %s: root screen is empty", ErrInvalidFlow, d.Name)
	}
	return nil
}

// Entry is one screen on a flow's stack.
type Entry struct {
	ID      uuid.UUID
	Screen  string
	Payload any
}

// Option configures a Flow or Navigator.
type Option func(*options)

type options struct {
	log zerolog.Logger
}

// WithLogger sets the logger used for navigation events.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.log = l }
}

func buildOptions(opts []Option) options {
	o := options{log: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Flow is one activation of a Definition.
type Flow struct {
	def   Definition
	scope *appfac.Scope
	view  *appfac.View
	log   zerolog.Logger

	mu      sync.Mutex
	entries []Entry
	closed  bool
}

var _ appfac.Resolver = (*Flow)(nil)

// New activates def over c. Every required capability must be registered in
// c; the flow's screens can resolve nothing else.
func New(c *appfac.Container, def Definition, opts ...Option) (*Flow, error) {
	if err := def.validate(); err != nil {
		return nil, err
	}
	o := buildOptions(opts)

	scope := c.NewScope()
	view, err := scope.Narrow(def.Requires...)
	if err != nil {
		_ = scope.Close()
		return nil, fmt.Errorf("activate flow %s: %w", def.Name, err)
	}

	f := &Flow{
		def:   def,
		scope: scope,
		view:  view,
		log:   o.log.With().Str("flow", def.Name).Logger(),
	}
	f.entries = []Entry{newEntry(def.Root, nil)}
	f.log.Debug().Str("screen", def.Root).Msg("flow started")
	return f, nil
}

func newEntry(screen string, payload any) Entry {
	return Entry{ID: uuid.New(), Screen: screen, Payload: payload}
}

// Name returns the definition name.
func (f *Flow) Name() string { return f.def.Name }

// Definition returns the definition the flow was activated from.
func (f *Flow) Definition() Definition { return f.def }

// Push adds a screen on top of the stack.
func (f *Flow) Push(screen string, payload any) (Entry, error) {
	if strings.TrimSpace(screen) == "" {
		return Entry{}, ErrEmptyScreen
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return Entry{}, ErrFlowClosed
	}
	e := newEntry(screen, payload)
	f.entries = append(f.entries, e)
	f.log.Debug().Str("screen", screen).Int("depth", len(f.entries)).Msg("push")
	return e, nil
}

// Pop removes the top entry. The root entry stays; popping it reports false.
func (f *Flow) Pop() (Entry, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed || len(f.entries) <= 1 {
		return Entry{}, false
	}
	top := f.entries[len(f.entries)-1]
	f.entries = f.entries[:len(f.entries)-1]
	f.log.Debug().Str("screen", top.Screen).Int("depth", len(f.entries)).Msg("pop")
	return top, true
}

// PopToRoot drops every entry above the root and returns them, top first.
// A closed flow keeps its stack.
func (f *Flow) PopToRoot() []Entry {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed || len(f.entries) <= 1 {
		return nil
	}
	popped := make([]Entry, 0, len(f.entries)-1)
	for i := len(f.entries) - 1; i >= 1; i-- {
		popped = append(popped, f.entries[i])
	}
	f.entries = f.entries[:1]
	return popped
}

// Top returns the entry on top of the stack.
func (f *Flow) Top() Entry {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.entries[len(f.entries)-1]
}

// Entries returns a copy of the stack, root first.
func (f *Flow) Entries() []Entry {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Entry(nil), f.entries...)
}

func (f *Flow) Depth() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}

// Capabilities returns the capabilities the flow may resolve.
func (f *Flow) Capabilities() []appfac.CapabilityID {
	return f.view.Capabilities()
}

// Resolve returns a declared capability; scoped ones are shared by the
// screens of this activation only.
func (f *Flow) Resolve(id appfac.CapabilityID) (any, error) {
	f.mu.Lock()
	closed := f.closed
	f.mu.Unlock()
	if closed {
		return nil, ErrFlowClosed
	}
	return f.view.Resolve(id)
}

func (f *Flow) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// Close tears the flow down, releasing its scoped dependencies. The stack is
// kept for inspection. Closing twice is a no-op.
func (f *Flow) Close() error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil
	}
	f.closed = true
	f.mu.Unlock()

	f.log.Debug().Msg("flow closed")
	return f.scope.Close()
}
