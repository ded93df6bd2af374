package workspace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patrislav/marwind/internal/config"
	"github.com/patrislav/marwind/internal/wmcontainer"
)

func newOutput(store *wmcontainer.Store, name string, rect wmcontainer.Rect) *wmcontainer.Container {
	o := wmcontainer.NewContainer(wmcontainer.KindOutput)
	o.Name = name
	o.Rect = rect
	if err := store.Attach(o, store.Root, false); err != nil {
		panic(err)
	}
	content := wmcontainer.NewContainer(wmcontainer.KindContent)
	if err := store.Attach(content, o, false); err != nil {
		panic(err)
	}
	return o
}

func TestGetCreatesWorkspaceOnAssignedOutput(t *testing.T) {
	store := wmcontainer.NewStore()
	out0 := newOutput(store, "fake-0", wmcontainer.Rect{W: 1024, H: 768})
	out1 := newOutput(store, "fake-1", wmcontainer.Rect{X: 1024, W: 1024, H: 768})

	cfg := config.Default()
	cfg.WorkspaceOutputs = map[string]string{"5": "fake-1"}
	m := NewManager(store, cfg, nil)

	ws, created, err := m.Get("5", out0)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, out1, wmcontainer.AncestorOfKind(ws, wmcontainer.KindOutput))
}

func TestGetFallsBackToFocusedOutputWhenAssignmentMissing(t *testing.T) {
	store := wmcontainer.NewStore()
	out0 := newOutput(store, "fake-0", wmcontainer.Rect{W: 1024, H: 768})

	cfg := config.Default()
	cfg.WorkspaceOutputs = map[string]string{"5": "does-not-exist"}
	m := NewManager(store, cfg, nil)

	ws, created, err := m.Get("5", out0)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, out0, wmcontainer.AncestorOfKind(ws, wmcontainer.KindOutput))
}

func TestCreateOnOutputFallsBackToLowestUnusedNumber(t *testing.T) {
	store := wmcontainer.NewStore()
	out0 := newOutput(store, "fake-0", wmcontainer.Rect{W: 1024, H: 768})
	cfg := config.Default()
	m := NewManager(store, cfg, nil)

	_, _, err := m.Get("1", out0)
	require.NoError(t, err)
	_, _, err = m.Get("2", out0)
	require.NoError(t, err)

	ws, err := m.CreateOnOutput(out0)
	require.NoError(t, err)
	assert.Equal(t, "3", ws.Name)
}

func TestNextPrevOrderNumberedThenNamed(t *testing.T) {
	store := wmcontainer.NewStore()
	out0 := newOutput(store, "fake-0", wmcontainer.Rect{W: 1024, H: 768})
	cfg := config.Default()
	m := NewManager(store, cfg, nil)

	ws1, _, _ := m.Get("1", out0)
	ws2, _, _ := m.Get("2", out0)
	wsNamed, _, _ := m.Get("web", out0)

	assert.Equal(t, ws2, m.Next(ws1, false))
	assert.Equal(t, wsNamed, m.Next(ws2, false))
	assert.Equal(t, ws1, m.Next(wsNamed, false)) // wraps around
	assert.Equal(t, ws1, m.Prev(ws2, false))
}

func TestMoveWorkspaceToOutputCreatesReplacementMatchesScenario4(t *testing.T) {
	store := wmcontainer.NewStore()
	out0 := newOutput(store, "fake-0", wmcontainer.Rect{W: 1024, H: 768})
	out1 := newOutput(store, "fake-1", wmcontainer.Rect{X: 1024, W: 1024, H: 768})
	cfg := config.Default()
	m := NewManager(store, cfg, nil)

	ws, _, err := m.Get("5", out0)
	require.NoError(t, err)
	fw := wmcontainer.NewContainer(wmcontainer.KindFloatingWrapper)
	fw.Rect = wmcontainer.Rect{X: 100, Y: 100, W: 200, H: 150}
	require.NoError(t, store.AttachFloating(fw, ws))

	require.NoError(t, m.MoveWorkspaceToOutput(ws, out1))

	assert.Equal(t, out1, wmcontainer.AncestorOfKind(ws, wmcontainer.KindOutput))
	assert.Equal(t, int32(1124), fw.Rect.X)
	assert.Equal(t, int32(100), fw.Rect.Y)

	// A replacement workspace now exists on the source output.
	require.Len(t, wmcontainer.ContentOf(out0).Children, 1)
}

func TestShowRemembersBackAndForthAndPrunesEmptyPrevious(t *testing.T) {
	store := wmcontainer.NewStore()
	out0 := newOutput(store, "fake-0", wmcontainer.Rect{W: 1024, H: 768})
	cfg := config.Default()
	m := NewManager(store, cfg, nil)

	ws1, _, _ := m.Get("1", out0)
	ws2, _, _ := m.Get("2", out0)
	require.NoError(t, m.Show(ws1))
	require.NoError(t, m.Show(ws2))

	back, ok := m.BackAndForthName()
	require.True(t, ok)
	assert.Equal(t, "1", back)

	// ws1 was empty and not visible when we switched away -> pruned.
	assert.Len(t, wmcontainer.ContentOf(out0).Children, 1)
	assert.Equal(t, ws2, wmcontainer.ContentOf(out0).Children[0])
}

func TestShowDoesNotPruneEmptyNamedPreviousWorkspace(t *testing.T) {
	store := wmcontainer.NewStore()
	out0 := newOutput(store, "fake-0", wmcontainer.Rect{W: 1024, H: 768})
	cfg := config.Default()
	m := NewManager(store, cfg, nil)

	named, _, _ := m.Get("web", out0)
	ws2, _, _ := m.Get("2", out0)
	require.NoError(t, m.Show(named))
	require.NoError(t, m.Show(ws2))

	// "web" was empty and not visible when we switched away, but it's a
	// named workspace, so it survives.
	assert.Len(t, wmcontainer.ContentOf(out0).Children, 2)
	assert.Contains(t, wmcontainer.ContentOf(out0).Children, named)
}

func TestPruneEmptyInvisibleSkipsNamedWorkspaces(t *testing.T) {
	store := wmcontainer.NewStore()
	out0 := newOutput(store, "fake-0", wmcontainer.Rect{W: 1024, H: 768})
	cfg := config.Default()
	m := NewManager(store, cfg, nil)

	ws1, _, _ := m.Get("1", out0)
	named, _, _ := m.Get("web", out0)
	require.NoError(t, m.Show(ws1))

	m.PruneEmptyInvisible()

	assert.Contains(t, wmcontainer.ContentOf(out0).Children, named)
}

func TestShowReassignsStickyGroupToNewlyVisibleWorkspace(t *testing.T) {
	store := wmcontainer.NewStore()
	out0 := newOutput(store, "fake-0", wmcontainer.Rect{W: 1024, H: 768})
	cfg := config.Default()
	m := NewManager(store, cfg, nil)

	ws1, _, _ := m.Get("1", out0)
	ws2, _, _ := m.Get("2", out0)
	require.NoError(t, m.Show(ws1))

	fw := wmcontainer.NewContainer(wmcontainer.KindFloatingWrapper)
	require.NoError(t, store.AttachFloating(fw, ws1))
	leaf := wmcontainer.NewContainer(wmcontainer.KindLeaf)
	leaf.Window = &wmcontainer.Window{ID: 1}
	leaf.StickyGroup = "scratch"
	require.NoError(t, store.Attach(leaf, fw, false))

	other := wmcontainer.NewContainer(wmcontainer.KindFloatingWrapper)
	require.NoError(t, store.AttachFloating(other, ws2))
	otherLeaf := wmcontainer.NewContainer(wmcontainer.KindLeaf)
	otherLeaf.Window = &wmcontainer.Window{ID: 2}
	otherLeaf.StickyGroup = "scratch"
	require.NoError(t, store.Attach(otherLeaf, other, false))

	require.NoError(t, m.Show(ws2))

	assert.Equal(t, ws2, wmcontainer.AncestorOfKind(fw, wmcontainer.KindWorkspace))
}
