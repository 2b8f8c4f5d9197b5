package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ngone6325/appfac"
)

var favorites = Definition{Name: "favorites", Root: "favorites", Requires: []appfac.CapabilityID{"Session"}}

func newNavigator(t *testing.T) *Navigator {
	t.Helper()
	n, err := NewNavigator(testContainer(t), []Definition{browse, favorites})
	require.NoError(t, err)
	t.Cleanup(func() { _ = n.Close() })
	return n
}

func TestNewNavigatorValidatesDefinitions(t *testing.T) {
	c := testContainer(t)

	_, err := NewNavigator(c, []Definition{browse, browse})
	assert.ErrorIs(t, err, ErrDuplicateFlow)

	_, err = NewNavigator(c, []Definition{{Name: "x", Root: "x", Requires: []appfac.CapabilityID{"Weather"}}})
	assert.ErrorIs(t, err, appfac.ErrMissingDependency)

	_, err = NewNavigator(c, []Definition{{Name: "x"}})
	assert.ErrorIs(t, err, ErrInvalidFlow)
}

func TestActivateSwitchesTabs(t *testing.T) {
	n := newNavigator(t)
	assert.Equal(t, []string{"browse", "favorites"}, n.Tabs())

	_, err := n.Current()
	assert.ErrorIs(t, err, ErrNoActiveFlow)

	first, err := n.Activate("browse")
	require.NoError(t, err)
	_, err = first.Push("breed_detail", "pug")
	require.NoError(t, err)
	sess := appfac.MustGet[*session](first, "Session")

	second, err := n.Activate("favorites")
	require.NoError(t, err)
	assert.True(t, first.Closed())
	assert.True(t, sess.closed)
	assert.Same(t, second, n.Active())

	// re-activating starts a fresh stack
	again, err := n.Activate("browse")
	require.NoError(t, err)
	assert.Equal(t, 1, again.Depth())
	assert.True(t, second.Closed())

	_, err = n.Activate("settings")
	assert.ErrorIs(t, err, ErrUnknownFlow)
	assert.Same(t, again, n.Active())
}

func TestPresentAndDismiss(t *testing.T) {
	n := newNavigator(t)
	tab, err := n.Activate("browse")
	require.NoError(t, err)

	modal, err := n.Present(Definition{Name: "add_favorite", Root: "picker", Requires: []appfac.CapabilityID{"Session"}})
	require.NoError(t, err)
	cur, err := n.Current()
	require.NoError(t, err)
	assert.Same(t, modal, cur)

	_, err = n.Present(favorites)
	assert.ErrorIs(t, err, ErrModalPresent)

	require.NoError(t, n.Dismiss())
	assert.True(t, modal.Closed())
	assert.False(t, tab.Closed())
	cur, err = n.Current()
	require.NoError(t, err)
	assert.Same(t, tab, cur)

	assert.ErrorIs(t, n.Dismiss(), ErrNoModal)
}

func TestActivateClosesModal(t *testing.T) {
	n := newNavigator(t)
	_, err := n.Activate("browse")
	require.NoError(t, err)
	modal, err := n.Present(favorites)
	require.NoError(t, err)

	_, err = n.Activate("favorites")
	require.NoError(t, err)
	assert.True(t, modal.Closed())
	assert.ErrorIs(t, n.Dismiss(), ErrNoModal)
}

func TestNavigatorClose(t *testing.T) {
	n := newNavigator(t)
	tab, err := n.Activate("browse")
	require.NoError(t, err)
	modal, err := n.Present(favorites)
	require.NoError(t, err)

	require.NoError(t, n.Close())
	assert.True(t, tab.Closed())
	assert.True(t, modal.Closed())

	_, err = n.Activate("browse")
	assert.ErrorIs(t, err, ErrFlowClosed)
	_, err = n.Present(favorites)
	assert.ErrorIs(t, err, ErrFlowClosed)
	assert.NoError(t, n.Close())
}
