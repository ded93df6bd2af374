package wmcontainer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newWorkspace(s *Store, name string) *Container {
	ws := NewContainer(KindWorkspace)
	ws.Name = name
	ws.Num = ParseNum(name)
	return ws
}

func newLeaf(id WindowID) *Container {
	leaf := NewContainer(KindLeaf)
	leaf.Window = &Window{ID: id}
	return leaf
}

func TestAttachRebalancesPercent(t *testing.T) {
	s := NewStore()
	split := NewContainer(KindSplit)

	leaves := []*Container{newLeaf(1), newLeaf(2), newLeaf(3)}
	for _, l := range leaves {
		require.NoError(t, s.Attach(l, split, false))
	}
	assert.InDelta(t, 1.0, SumPercent(split.Children), percentEpsilon)
	for _, c := range split.Children {
		assert.InDelta(t, 1.0/3.0, c.Percent, 1e-9)
	}
}

func TestDetachRescalesRemainingSiblings(t *testing.T) {
	s := NewStore()
	split := NewContainer(KindSplit)
	a, b := newLeaf(1), newLeaf(2)
	require.NoError(t, s.Attach(a, split, false))
	require.NoError(t, s.Attach(b, split, false))

	s.Detach(a)
	require.Len(t, split.Children, 1)
	assert.InDelta(t, 1.0, b.Percent, 1e-9)
	assert.InDelta(t, 1.0, SumPercent(split.Children), percentEpsilon)
}

func TestReduceSingleChildSplitEliminatesSplit(t *testing.T) {
	s := NewStore()
	ws := newWorkspace(s, "1")
	outer := NewContainer(KindSplit)
	require.NoError(t, s.Attach(outer, ws, false))

	inner := NewContainer(KindSplit)
	require.NoError(t, s.Attach(inner, outer, false))
	leafA := newLeaf(1)
	leafB := newLeaf(2)
	require.NoError(t, s.Attach(leafA, inner, false))
	require.NoError(t, s.Attach(leafB, inner, false))

	s.Detach(leafB)
	s.ReduceSingleChildSplit(inner)

	require.Len(t, outer.Children, 1)
	assert.Equal(t, leafA, outer.Children[0])
	assert.Equal(t, outer, leafA.Parent)
}

func TestWorkspaceSplitNeverEliminatedBySingleChildRule(t *testing.T) {
	s := NewStore()
	ws := newWorkspace(s, "1")
	leaf := newLeaf(1)
	require.NoError(t, s.Attach(leaf, ws, false))

	// The split reduction acts only on KindSplit containers, so calling it
	// directly on a WORKSPACE must be a no-op regardless of child count.
	s.ReduceSingleChildSplit(ws)
	require.Len(t, ws.Children, 1)
	assert.Equal(t, leaf, ws.Children[0])
}

func TestDescendFocusedFollowsFocusStackHead(t *testing.T) {
	s := NewStore()
	split := NewContainer(KindSplit)
	a, b := newLeaf(1), newLeaf(2)
	require.NoError(t, s.Attach(a, split, false))
	require.NoError(t, s.Attach(b, split, false))

	// Attach pushes to the back (LRU end); head is still a until refocused.
	require.Equal(t, a, split.FocusStack[0])
	assert.Equal(t, a, DescendFocused(split))

	// Simulate a focus: move b to the head.
	split.FocusStack = []*Container{b, a}
	assert.Equal(t, b, DescendFocused(split))
}

func TestCloseRecursiveCollectsLeavesAndReducesSplits(t *testing.T) {
	s := NewStore()
	ws := newWorkspace(s, "1")
	split := NewContainer(KindSplit)
	require.NoError(t, s.Attach(split, ws, false))
	a, b := newLeaf(1), newLeaf(2)
	require.NoError(t, s.Attach(a, split, false))
	require.NoError(t, s.Attach(b, split, false))

	closer := &fakeCloser{}
	report, err := s.Close(a, closer, KillPolicyNone, false)
	require.NoError(t, err)
	require.Len(t, report.ClosedLeaves, 1)
	assert.Equal(t, a, report.ClosedLeaves[0])
	assert.True(t, closer.unmapped[a.Window.ID])

	// split had 2 children, lost 1 -> single-child reduction replaces it
	// with b directly under ws.
	require.Len(t, ws.Children, 1)
	assert.Equal(t, b, ws.Children[0])
}

func TestCloseWorkspaceReportsEmptied(t *testing.T) {
	s := NewStore()
	ws := newWorkspace(s, "1")
	leaf := newLeaf(1)
	require.NoError(t, s.Attach(leaf, ws, false))

	closer := &fakeCloser{}
	report, err := s.Close(leaf, closer, KillPolicyWindow, false)
	require.NoError(t, err)
	require.Len(t, report.EmptiedWorkspaces, 1)
	assert.Equal(t, ws, report.EmptiedWorkspaces[0])
	assert.True(t, closer.requestedClose[leaf.Window.ID])
}

func TestParseNum(t *testing.T) {
	cases := map[string]int{
		"1":         1,
		"10: work":  10,
		"work":      -1,
		"":          -1,
		"0":         0,
		"3abc":      3,
	}
	for name, want := range cases {
		assert.Equal(t, want, ParseNum(name), "name=%q", name)
	}
}

type fakeCloser struct {
	unmapped       map[WindowID]bool
	requestedClose map[WindowID]bool
	forceKilled    map[WindowID]bool
}

func (f *fakeCloser) Unmap(w *Window) error {
	if f.unmapped == nil {
		f.unmapped = map[WindowID]bool{}
	}
	f.unmapped[w.ID] = true
	return nil
}

func (f *fakeCloser) RequestClose(w *Window) error {
	if f.requestedClose == nil {
		f.requestedClose = map[WindowID]bool{}
	}
	f.requestedClose[w.ID] = true
	return nil
}

func (f *fakeCloser) ForceKill(w *Window) error {
	if f.forceKilled == nil {
		f.forceKilled = map[WindowID]bool{}
	}
	f.forceKilled[w.ID] = true
	return nil
}
