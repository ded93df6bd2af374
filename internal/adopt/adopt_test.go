package adopt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patrislav/marwind/internal/config"
	"github.com/patrislav/marwind/internal/wmcontainer"
	"github.com/patrislav/marwind/internal/workspace"
)

type fakeProps struct {
	byID map[wmcontainer.WindowID]WindowProperties
}

func (f *fakeProps) ReadProperties(id wmcontainer.WindowID) (WindowProperties, error) {
	return f.byID[id], nil
}

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

func TestAdoptUtilityWindowTypeProducesFloatingWrapper(t *testing.T) {
	store := wmcontainer.NewStore()
	out := newOutput(store, "fake-0", wmcontainer.Rect{W: 1024, H: 768})
	cfg := config.Default()
	mgr := workspace.NewManager(store, cfg, nil)
	ws, _, err := mgr.Get("1", out)
	require.NoError(t, err)

	props := &fakeProps{byID: map[wmcontainer.WindowID]WindowProperties{
		42: {Class: "Dialog", IsUtilityType: true},
	}}
	a := NewAdopter(store, mgr, cfg, props)

	result, err := a.Adopt(42, out, ws)
	require.NoError(t, err)
	require.NotNil(t, result.Leaf)

	assert.Equal(t, wmcontainer.KindFloatingWrapper, result.Leaf.Parent.Kind)
	assert.True(t, result.Leaf.FloatingState.IsFloating())
	assert.Contains(t, ws.FloatingChildren, result.Leaf.Parent)
}

func TestAdoptPlainWindowTilesDirectlyUnderSplitWorkspace(t *testing.T) {
	store := wmcontainer.NewStore()
	out := newOutput(store, "fake-0", wmcontainer.Rect{W: 1024, H: 768})
	cfg := config.Default()
	mgr := workspace.NewManager(store, cfg, nil)
	ws, _, err := mgr.Get("1", out)
	require.NoError(t, err)

	props := &fakeProps{byID: map[wmcontainer.WindowID]WindowProperties{
		7: {Class: "Term"},
	}}
	a := NewAdopter(store, mgr, cfg, props)

	result, err := a.Adopt(7, out, ws)
	require.NoError(t, err)
	assert.Equal(t, ws, result.Leaf.Parent)
	assert.False(t, result.Leaf.FloatingState.IsFloating())
}

func TestAdoptWrapsInNewSplitWhenWorkspaceLayoutIsStacked(t *testing.T) {
	store := wmcontainer.NewStore()
	out := newOutput(store, "fake-0", wmcontainer.Rect{W: 1024, H: 768})
	cfg := config.Default()
	mgr := workspace.NewManager(store, cfg, nil)
	ws, _, err := mgr.Get("1", out)
	require.NoError(t, err)
	ws.Layout = wmcontainer.LayoutStacked

	props := &fakeProps{byID: map[wmcontainer.WindowID]WindowProperties{
		7: {Class: "Term"},
	}}
	a := NewAdopter(store, mgr, cfg, props)

	result, err := a.Adopt(7, out, ws)
	require.NoError(t, err)
	require.Equal(t, wmcontainer.KindSplit, result.Leaf.Parent.Kind)
	assert.Equal(t, wmcontainer.LayoutStacked, result.Leaf.Parent.Layout)
	assert.Equal(t, ws, result.Leaf.Parent.Parent)
}

func TestAdoptAssignmentRoutesToNamedWorkspaceAndFiresCommand(t *testing.T) {
	store := wmcontainer.NewStore()
	out := newOutput(store, "fake-0", wmcontainer.Rect{W: 1024, H: 768})
	cfg := config.Default()
	cfg.Assignments = []config.Assignment{
		{
			Match:   config.MatchSpec{Class: "Music"},
			Actions: []config.Action{{ToWorkspace: "music", RunCommand: "notify-send adopted"}},
		},
	}
	mgr := workspace.NewManager(store, cfg, nil)
	ws1, _, err := mgr.Get("1", out)
	require.NoError(t, err)

	props := &fakeProps{byID: map[wmcontainer.WindowID]WindowProperties{
		9: {Class: "Music", TitleUTF8: "Player"},
	}}
	a := NewAdopter(store, mgr, cfg, props)

	result, err := a.Adopt(9, out, ws1)
	require.NoError(t, err)
	require.Len(t, result.Commands, 1)
	assert.Equal(t, "notify-send adopted", result.Commands[0])

	ws := wmcontainer.AncestorOfKind(result.Leaf, wmcontainer.KindWorkspace)
	require.NotNil(t, ws)
	assert.Equal(t, "music", ws.Name)
}

func TestAdoptDockWindowGoesToDockArea(t *testing.T) {
	store := wmcontainer.NewStore()
	out := wmcontainer.NewContainer(wmcontainer.KindOutput)
	out.Name = "fake-0"
	out.Rect = wmcontainer.Rect{W: 1024, H: 768}
	require.NoError(t, store.Attach(out, store.Root, false))
	dock := wmcontainer.NewContainer(wmcontainer.KindDockArea)
	require.NoError(t, store.Attach(dock, out, false))
	content := wmcontainer.NewContainer(wmcontainer.KindContent)
	require.NoError(t, store.Attach(content, out, false))

	cfg := config.Default()
	mgr := workspace.NewManager(store, cfg, nil)
	ws, _, err := mgr.Get("1", out)
	require.NoError(t, err)

	props := &fakeProps{byID: map[wmcontainer.WindowID]WindowProperties{
		3: {Class: "Panel", IsDock: true, StrutTop: 24},
	}}
	a := NewAdopter(store, mgr, cfg, props)

	result, err := a.Adopt(3, out, ws)
	require.NoError(t, err)
	assert.Equal(t, dock, result.Leaf.Parent)
}
