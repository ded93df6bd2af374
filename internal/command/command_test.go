package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patrislav/marwind/internal/config"
	"github.com/patrislav/marwind/internal/focus"
	"github.com/patrislav/marwind/internal/wmcontainer"
	"github.com/patrislav/marwind/internal/workspace"
)

type fakeCloser struct{ unmapped int }

func (f *fakeCloser) Unmap(w *wmcontainer.Window) error        { f.unmapped++; return nil }
func (f *fakeCloser) RequestClose(w *wmcontainer.Window) error { return nil }
func (f *fakeCloser) ForceKill(w *wmcontainer.Window) error     { return nil }

type fakeNotifier struct{}

func (f *fakeNotifier) SetInputFocus(w *wmcontainer.Window) error { return nil }
func (f *fakeNotifier) SendTakeFocus(w *wmcontainer.Window) error { return nil }

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

func newLeaf(store *wmcontainer.Store, parent *wmcontainer.Container, id wmcontainer.WindowID) *wmcontainer.Container {
	l := wmcontainer.NewContainer(wmcontainer.KindLeaf)
	l.Window = &wmcontainer.Window{ID: id}
	if err := store.Attach(l, parent, false); err != nil {
		panic(err)
	}
	return l
}

func newExecutor(store *wmcontainer.Store, mgr *workspace.Manager) *Executor {
	return &Executor{
		Store:      store,
		Focus:      focus.NewTracker(),
		Notifier:   &fakeNotifier{},
		Workspaces: mgr,
		Config:     config.Default(),
		Closer:     &fakeCloser{},
	}
}

func TestParseSplitsOnSemicolonAndComma(t *testing.T) {
	parsed, err := Parse("kill ; kill")
	require.NoError(t, err)
	require.Len(t, parsed, 2)
	assert.Equal(t, "kill", parsed[0].Ops[0].Verb)
	assert.Equal(t, "kill", parsed[1].Ops[0].Verb)

	parsed, err = Parse("mark foo, move to workspace 3")
	require.NoError(t, err)
	require.Len(t, parsed, 1)
	require.Len(t, parsed[0].Ops, 2)
	assert.Equal(t, "mark", parsed[0].Ops[0].Verb)
	assert.Equal(t, "move", parsed[0].Ops[1].Verb)
}

func TestParseCriteriaPrefix(t *testing.T) {
	parsed, err := Parse(`[class="Firefox" title="Mozilla"] kill`)
	require.NoError(t, err)
	require.Len(t, parsed, 1)
	assert.True(t, parsed[0].HasCriteria)
	assert.Equal(t, "Firefox", parsed[0].Criteria.Class)
	assert.Equal(t, "Mozilla", parsed[0].Criteria.TitleRegexp)
}

func TestKillKillOnTwoContainersEmptiesWorkspaceScenario3(t *testing.T) {
	cfg := config.Default()
	for _, line := range []string{"kill ; kill", "kill;kill", "kill\t;\tkill"} {
		store2 := wmcontainer.NewStore()
		out2 := newOutput(store2, "fake-0", wmcontainer.Rect{W: 1024, H: 768})
		mgr2 := workspace.NewManager(store2, cfg, nil)
		ws2, _, err := mgr2.Get("1", out2)
		require.NoError(t, err)
		require.NoError(t, mgr2.Show(ws2))
		l1 := newLeaf(store2, ws2, 10)
		l2 := newLeaf(store2, ws2, 11)
		e2 := newExecutor(store2, mgr2)
		e2.Focus.Focus(l1, e2.Notifier)

		replies := e2.Run(line)
		require.Len(t, replies, 2)
		assert.True(t, replies[0].Success)
		assert.True(t, replies[1].Success)
		_ = l2
		assert.Empty(t, ws2.Children)
	}
}

func TestFloatingEnableThenDisableReturnsToTiling(t *testing.T) {
	store := wmcontainer.NewStore()
	out := newOutput(store, "fake-0", wmcontainer.Rect{W: 1024, H: 768})
	cfg := config.Default()
	mgr := workspace.NewManager(store, cfg, nil)
	ws, _, err := mgr.Get("1", out)
	require.NoError(t, err)
	require.NoError(t, mgr.Show(ws))

	l := newLeaf(store, ws, 1)
	e := newExecutor(store, mgr)
	e.Focus.Focus(l, e.Notifier)

	replies := e.Run("floating enable")
	require.True(t, replies[0].Success)
	assert.True(t, l.FloatingState.IsFloating())
	assert.Equal(t, wmcontainer.KindFloatingWrapper, l.Parent.Kind)

	replies = e.Run("floating disable")
	require.True(t, replies[0].Success)
	assert.False(t, l.FloatingState.IsFloating())
	assert.Equal(t, ws, l.Parent)
}

func TestSplitThenLayoutDefaultPreservesFocus(t *testing.T) {
	store := wmcontainer.NewStore()
	out := newOutput(store, "fake-0", wmcontainer.Rect{W: 1024, H: 768})
	cfg := config.Default()
	mgr := workspace.NewManager(store, cfg, nil)
	ws, _, err := mgr.Get("1", out)
	require.NoError(t, err)
	require.NoError(t, mgr.Show(ws))

	l := newLeaf(store, ws, 1)
	e := newExecutor(store, mgr)
	e.Focus.Focus(l, e.Notifier)

	replies := e.Run("split h")
	require.True(t, replies[0].Success)
	require.Equal(t, wmcontainer.KindSplit, l.Parent.Kind)
	split := l.Parent

	replies = e.Run("layout stacked")
	require.True(t, replies[0].Success)
	assert.Equal(t, wmcontainer.LayoutStacked, split.Layout)

	replies = e.Run("layout default")
	require.True(t, replies[0].Success)
	assert.Equal(t, wmcontainer.LayoutSplit, split.Layout)
	assert.Equal(t, focus.FocusedLeaf(store.Root), l)
}

func TestMoveWorkspaceToOutputScenario4(t *testing.T) {
	store := wmcontainer.NewStore()
	out0 := newOutput(store, "fake-0", wmcontainer.Rect{W: 1024, H: 768})
	out1 := newOutput(store, "fake-1", wmcontainer.Rect{X: 1024, W: 1024, H: 768})
	cfg := config.Default()
	mgr := workspace.NewManager(store, cfg, nil)
	ws, _, err := mgr.Get("5", out0)
	require.NoError(t, err)
	require.NoError(t, mgr.Show(ws))

	fw := wmcontainer.NewContainer(wmcontainer.KindFloatingWrapper)
	fw.Rect = wmcontainer.Rect{X: 100, Y: 100, W: 200, H: 150}
	require.NoError(t, store.AttachFloating(fw, ws))
	l := wmcontainer.NewContainer(wmcontainer.KindLeaf)
	l.Window = &wmcontainer.Window{ID: 1}
	require.NoError(t, store.Attach(l, fw, false))

	e := newExecutor(store, mgr)
	e.Focus.Focus(l, e.Notifier)

	replies := e.Run("move workspace to output fake-1")
	require.True(t, replies[0].Success)
	assert.Equal(t, out1, wmcontainer.AncestorOfKind(ws, wmcontainer.KindOutput))
	assert.Equal(t, int32(1124), fw.Rect.X)
}

// TestResizeTilingPrefersPxWhenBothGiven exercises spec §4.3's tie-break
// rule for tiling children: the px operand wins over the ppt operand. A
// 1000px-tall parent and a 250px grow must land on the same 0.25/0.75
// split as spec.md's scenario 6, which converts 10px over a 40px parent.
func TestResizeTilingPrefersPxWhenBothGiven(t *testing.T) {
	store := wmcontainer.NewStore()
	out := newOutput(store, "fake-0", wmcontainer.Rect{W: 1024, H: 1000})
	cfg := config.Default()
	mgr := workspace.NewManager(store, cfg, nil)
	ws, _, err := mgr.Get("1", out)
	require.NoError(t, err)
	require.NoError(t, mgr.Show(ws))

	upper := newLeaf(store, ws, 1)
	e := newExecutor(store, mgr)
	e.Focus.Focus(upper, e.Notifier)
	require.True(t, e.Run("split v")[0].Success)
	split := upper.Parent
	split.Rect = wmcontainer.Rect{W: 1024, H: 1000}
	lower := newLeaf(store, split, 2)
	require.Len(t, split.Children, 2)
	split.Children[0].Percent = 0.5
	split.Children[1].Percent = 0.5

	e.Focus.Focus(lower, e.Notifier)
	replies := e.Run("resize grow up 250 px or 999 ppt")
	require.True(t, replies[0].Success)

	assert.InDelta(t, 0.25, split.Children[0].Percent, 0.001)
	assert.InDelta(t, 0.75, split.Children[1].Percent, 0.001)
}

// TestResizeFloatingUsesPptTieBreak matches spec §4.3's tie-break rule: a
// resize on a floating leaf uses the ppt operand even when a px operand is
// also supplied.
func TestResizeFloatingUsesPptTieBreak(t *testing.T) {
	store := wmcontainer.NewStore()
	out := newOutput(store, "fake-0", wmcontainer.Rect{W: 1024, H: 768})
	cfg := config.Default()
	mgr := workspace.NewManager(store, cfg, nil)
	ws, _, err := mgr.Get("1", out)
	require.NoError(t, err)
	require.NoError(t, mgr.Show(ws))

	fw := wmcontainer.NewContainer(wmcontainer.KindFloatingWrapper)
	fw.Rect = wmcontainer.Rect{X: 100, Y: 100, W: 200, H: 150}
	require.NoError(t, store.AttachFloating(fw, ws))
	l := wmcontainer.NewContainer(wmcontainer.KindLeaf)
	l.Window = &wmcontainer.Window{ID: 1}
	require.NoError(t, store.Attach(l, fw, false))

	e := newExecutor(store, mgr)
	e.Focus.Focus(l, e.Notifier)

	replies := e.Run("resize grow right 999 px or 10 ppt")
	require.True(t, replies[0].Success)
	assert.Equal(t, uint32(220), fw.Rect.W) // +10% of 200, not +999px
	assert.Equal(t, uint32(150), fw.Rect.H)
}
