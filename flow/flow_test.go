package flow

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ngone6325/appfac"
)

type session struct {
	closed bool
}

func (s *session) Close() error {
	s.closed = true
	return nil
}

type settings struct{ theme string }

// testContainer registers a singleton, a scoped session and a capability no
// flow declares.
func testContainer(t *testing.T) *appfac.Container {
	t.Helper()
	b := appfac.NewBuilder(appfac.Mock)
	require.NoError(t, b.ProvideInstance("Settings", &settings{theme: "dark"}))
	require.NoError(t, b.Provide("Session", func() *session { return &session{} }, appfac.Scoped))
	require.NoError(t, b.ProvideInstance("Secret", "hunter2"))
	c, err := b.Build()
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

var browse = Definition{Name: "browse", Root: "breed_list", Requires: []appfac.CapabilityID{"Settings", "Session"}}

func TestNewPushesRoot(t *testing.T) {
	f, err := New(testContainer(t), browse)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, 1, f.Depth())
	assert.Equal(t, "breed_list", f.Top().Screen)
	assert.NotEqual(t, uuid.Nil, f.Top().ID)
	assert.Equal(t, []appfac.CapabilityID{"Session", "Settings"}, f.Capabilities())
}

func TestNewRejectsBadDefinition(t *testing.T) {
	c := testContainer(t)
	tests := []struct {
		name    string
		def     Definition
		wantErr error
	}{
		{"empty name", Definition{Root: "x"}, ErrInvalidFlow},
		{"empty root", Definition{Name: "x"}, ErrInvalidFlow},
		{"unregistered requirement", Definition{Name: "x", Root: "x", Requires: []appfac.CapabilityID{"Weather"}}, appfac.ErrMissingDependency},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := New(c, tt.def)
			assert.Nil(t, f)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestPushPop(t *testing.T) {
	f, err := New(testContainer(t), browse)
	require.NoError(t, err)
	defer f.Close()

	detail, err := f.Push("breed_detail", "hound")
	require.NoError(t, err)
	_, err = f.Push("image", nil)
	require.NoError(t, err)
	assert.Equal(t, 3, f.Depth())

	_, err = f.Push(" ", nil)
	assert.ErrorIs(t, err, ErrEmptyScreen)

	top, ok := f.Pop()
	require.True(t, ok)
	assert.Equal(t, "image", top.Screen)
	assert.Equal(t, detail, f.Top())
	assert.Equal(t, "hound", f.Top().Payload)

	_, ok = f.Pop()
	require.True(t, ok)
	// root stays
	_, ok = f.Pop()
	assert.False(t, ok)
	assert.Equal(t, "breed_list", f.Top().Screen)
}

func TestPopToRoot(t *testing.T) {
	f, err := New(testContainer(t), browse)
	require.NoError(t, err)
	defer f.Close()

	for _, s := range []string{"a", "b", "c"} {
		_, err := f.Push(s, nil)
		require.NoError(t, err)
	}
	popped := f.PopToRoot()
	require.Len(t, popped, 3)
	assert.Equal(t, "c", popped[0].Screen)
	assert.Equal(t, "a", popped[2].Screen)
	assert.Equal(t, 1, f.Depth())
	assert.Nil(t, f.PopToRoot())
}

func TestEntriesIsACopy(t *testing.T) {
	f, err := New(testContainer(t), browse)
	require.NoError(t, err)
	defer f.Close()

	entries := f.Entries()
	entries[0].Screen = "changed"
	assert.Equal(t, "breed_list", f.Top().Screen)
}

func TestResolveIsNarrowedAndScoped(t *testing.T) {
	c := testContainer(t)
	f, err := New(c, browse)
	require.NoError(t, err)
	defer f.Close()

	s1, err := appfac.Get[*session](f, "Session")
	require.NoError(t, err)
	s2 := appfac.MustGet[*session](f, "Session")
	assert.Same(t, s1, s2)

	_, err = f.Resolve("Secret")
	assert.ErrorIs(t, err, appfac.ErrNotInView)

	other, err := New(c, browse)
	require.NoError(t, err)
	defer other.Close()
	s3 := appfac.MustGet[*session](other, "Session")
	assert.NotSame(t, s1, s3)

	// singletons are shared across flows
	assert.Same(t, appfac.MustGet[*settings](f, "Settings"), appfac.MustGet[*settings](other, "Settings"))
}

func TestCloseReleasesScope(t *testing.T) {
	f, err := New(testContainer(t), browse)
	require.NoError(t, err)

	s := appfac.MustGet[*session](f, "Session")
	require.NoError(t, f.Close())
	assert.True(t, s.closed)
	assert.True(t, f.Closed())

	_, err = f.Push("breed_detail", nil)
	assert.ErrorIs(t, err, ErrFlowClosed)
	_, err = f.Resolve("Settings")
	assert.ErrorIs(t, err, ErrFlowClosed)
	_, ok := f.Pop()
	assert.False(t, ok)

	assert.NoError(t, f.Close())
}

func TestClosedFlowKeepsStack(t *testing.T) {
	f, err := New(testContainer(t), browse)
	require.NoError(t, err)
	_, err = f.Push("breed_detail", "pug")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	assert.Nil(t, f.PopToRoot())
	assert.Equal(t, 2, f.Depth())
	assert.Equal(t, "breed_detail", f.Top().Screen)
}
