package focus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patrislav/marwind/internal/wmcontainer"
)

type fakeNotifier struct {
	inputFocused []wmcontainer.WindowID
	takeFocused  []wmcontainer.WindowID
}

func (f *fakeNotifier) SetInputFocus(w *wmcontainer.Window) error {
	f.inputFocused = append(f.inputFocused, w.ID)
	return nil
}

func (f *fakeNotifier) SendTakeFocus(w *wmcontainer.Window) error {
	f.takeFocused = append(f.takeFocused, w.ID)
	return nil
}

func leaf(s *wmcontainer.Store, parent *wmcontainer.Container, id wmcontainer.WindowID) *wmcontainer.Container {
	l := wmcontainer.NewContainer(wmcontainer.KindLeaf)
	l.Window = &wmcontainer.Window{ID: id}
	if err := s.Attach(l, parent, false); err != nil {
		panic(err)
	}
	return l
}

func TestFocusSetsInputFocusWithoutTakeFocus(t *testing.T) {
	s := wmcontainer.NewStore()
	ws := wmcontainer.NewContainer(wmcontainer.KindWorkspace)
	l := leaf(s, ws, 1)

	tr := NewTracker()
	notifier := &fakeNotifier{}
	require.NoError(t, tr.Focus(l, notifier))

	assert.Equal(t, []wmcontainer.WindowID{1}, notifier.inputFocused)
	assert.Empty(t, notifier.takeFocused)
}

func TestFocusSendsTakeFocusInsteadOfInputFocus(t *testing.T) {
	s := wmcontainer.NewStore()
	ws := wmcontainer.NewContainer(wmcontainer.KindWorkspace)
	l := leaf(s, ws, 2)
	l.Window.NeedsTakeFocus = true

	tr := NewTracker()
	notifier := &fakeNotifier{}
	require.NoError(t, tr.Focus(l, notifier))

	assert.Equal(t, []wmcontainer.WindowID{2}, notifier.takeFocused)
	assert.Empty(t, notifier.inputFocused)
}

func TestFocusMovesChildToHeadOfAncestorStacks(t *testing.T) {
	s := wmcontainer.NewStore()
	ws := wmcontainer.NewContainer(wmcontainer.KindWorkspace)
	a := leaf(s, ws, 1)
	b := leaf(s, ws, 2)
	require.Equal(t, a, ws.FocusStack[0])

	tr := NewTracker()
	require.NoError(t, tr.Focus(b, &fakeNotifier{}))
	assert.Equal(t, b, ws.FocusStack[0])
	assert.Equal(t, a, tr.PreviouslyFocused())
}

func TestFocusDirectionAlignedOrientation(t *testing.T) {
	s := wmcontainer.NewStore()
	ws := wmcontainer.NewContainer(wmcontainer.KindWorkspace)
	ws.Orientation = wmcontainer.OrientHorizontal
	a := leaf(s, ws, 1)
	b := leaf(s, ws, 2)
	_ = a

	tr := NewTracker()
	notifier := &fakeNotifier{}
	got, err := tr.FocusDirection(a, DirRight, notifier)
	require.NoError(t, err)
	assert.Equal(t, b, got)
}
