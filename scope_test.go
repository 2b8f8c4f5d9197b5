package appfac

import (
	"errors"
	"reflect"
	"sync"
	"testing"
)

type scopedSession struct {
	Dep    *TestDependency
	closed *[]string
}

func (s *scopedSession) Close() error {
	*s.closed = append(*s.closed, "session")
	return nil
}

type scopedHandler struct {
	Session *scopedSession
}

// TestScopedLifetime tests per-scope identity and isolation between scopes
func TestScopedLifetime(t *testing.T) {
	var closed []string
	b := NewBuilder(Live)
	b.MustProvide("Dependency", NewTestDependency, Singleton)
	b.MustProvide("Session", func(d *TestDependency) *scopedSession {
		return &scopedSession{Dep: d, closed: &closed}
	}, Scoped)
	b.MustProvide("Handler", func(s *scopedSession) *scopedHandler {
		return &scopedHandler{Session: s}
	}, Transient)
	c := mustBuild(t, b)

	scope1 := c.NewScope()
	scope2 := c.NewScope()

	s1a := scope1.MustResolve("Session")
	s1b := scope1.MustResolve("Session")
	s2 := scope2.MustResolve("Session")

	if s1a != s1b {
		t.Error("Scoped should return same instance within scope")
	}
	if s1a == s2 {
		t.Error("Scoped should return different instances across scopes")
	}

	handler := MustGet[*scopedHandler](scope1, "Handler")
	if handler.Session != s1a {
		t.Error("Transient built in a scope should receive that scope's instance")
	}
	if handler.Session.Dep != c.MustResolve("Dependency") {
		t.Error("Scoped instance should receive the root singleton")
	}
	if scope1.Container() != c {
		t.Error("Scope should report its root container")
	}
}

// TestScopedOnRootContainer tests that scoped capabilities need a Scope
func TestScopedOnRootContainer(t *testing.T) {
	b := NewBuilder(Live)
	b.MustProvide("Dependency", NewTestDependency, Scoped)
	c := mustBuild(t, b)

	_, err := c.Resolve("Dependency")
	if !errors.Is(err, ErrScopedOnRootContainer) {
		t.Errorf("Expected ErrScopedOnRootContainer, got %v", err)
	}
}

// TestScopeClose tests that closing a scope releases scoped instances
func TestScopeClose(t *testing.T) {
	var closed []string
	b := NewBuilder(Live)
	b.MustProvide("Dependency", NewTestDependency, Singleton)
	b.MustProvide("Session", func(d *TestDependency) *scopedSession {
		return &scopedSession{Dep: d, closed: &closed}
	}, Scoped)
	c := mustBuild(t, b)

	scope := c.NewScope()
	scope.MustResolve("Session")

	if err := scope.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if !reflect.DeepEqual(closed, []string{"session"}) {
		t.Errorf("Expected scoped instance to be closed, got %v", closed)
	}
	if err := scope.Close(); err != nil {
		t.Errorf("Second Close should be a no-op, got %v", err)
	}
	if len(closed) != 1 {
		t.Errorf("Scoped instance closed more than once: %v", closed)
	}

	if _, err := scope.Resolve("Dependency"); !errors.Is(err, ErrScopeClosed) {
		t.Errorf("Expected ErrScopeClosed, got %v", err)
	}

	// the root container is unaffected
	if _, err := c.Resolve("Dependency"); err != nil {
		t.Errorf("Root container should still resolve, got %v", err)
	}
}

// TestScopeConcurrentConstruction tests that when two resolves build the same
// scoped capability at once, both get the kept instance and the other is closed
func TestScopeConcurrentConstruction(t *testing.T) {
	var (
		mu     sync.Mutex
		closed []string
	)
	var entered sync.WaitGroup
	entered.Add(2)

	b := NewBuilder(Live)
	b.MustProvide("Session", func() *lockedCloser {
		// hold both constructors until each has started
		entered.Done()
		entered.Wait()
		return &lockedCloser{mu: &mu, closed: &closed}
	}, Scoped)
	c := mustBuild(t, b)
	scope := c.NewScope()

	results := make([]any, 2)
	var wg sync.WaitGroup
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = scope.MustResolve("Session")
		}(i)
	}
	wg.Wait()

	if results[0] != results[1] {
		t.Error("Concurrent resolves should return the same scoped instance")
	}
	mu.Lock()
	if len(closed) != 1 {
		t.Errorf("Expected the discarded instance to be closed once, got %v", closed)
	}
	mu.Unlock()

	if err := scope.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(closed) != 2 {
		t.Errorf("Expected the kept instance to be closed with the scope, got %v", closed)
	}
}

type lockedCloser struct {
	mu     *sync.Mutex
	closed *[]string
}

func (l *lockedCloser) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	*l.closed = append(*l.closed, "session")
	return nil
}

// TestScopeNarrow tests views that resolve through a scope
func TestScopeNarrow(t *testing.T) {
	var closed []string
	b := NewBuilder(Live)
	b.MustProvide("Dependency", NewTestDependency, Singleton)
	b.MustProvide("Session", func(d *TestDependency) *scopedSession {
		return &scopedSession{Dep: d, closed: &closed}
	}, Scoped)
	c := mustBuild(t, b)

	scope := c.NewScope()
	view, err := scope.Narrow("Session")
	if err != nil {
		t.Fatalf("Narrow failed: %v", err)
	}

	got, err := view.Resolve("Session")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got != scope.MustResolve("Session") {
		t.Error("View over a scope should share the scope's instance")
	}
	if _, err := view.Resolve("Dependency"); !errors.Is(err, ErrNotInView) {
		t.Errorf("Expected ErrNotInView, got %v", err)
	}
}

// TestScopeMustResolvePanic tests MustResolve on a closed scope
func TestScopeMustResolvePanic(t *testing.T) {
	c := mustBuild(t, NewBuilder(Live))
	scope := c.NewScope()
	_ = scope.Close()

	defer func() {
		if r := recover(); r == nil {
			t.Error("MustResolve should panic")
		}
	}()
	scope.MustResolve("Anything")
}
