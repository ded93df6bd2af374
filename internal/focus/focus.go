// Package focus implements C2, the per-container focus stack discipline and
// the global notion of "focused leaf" (spec §4.2).
//
// Grounded on the teacher's manager.setFocus (funkycode-marwind/manager/
// manager.go): it already distinguishes the WM_TAKE_FOCUS ClientMessage
// path from the plain SetInputFocus path via takeFocusProp. That single
// function is generalized here into the ancestor-chain focus-stack update
// spec §4.2 requires (the teacher has no focus stack at all — it tracks
// only a single activeWin).
package focus

import (
	"fmt"

	"github.com/patrislav/marwind/internal/wmcontainer"
)

// Notifier is the X11-transport collaborator that actually changes input
// focus, analogous to the teacher's xproto.SetInputFocusChecked /
// ClientMessage send in manager.setFocus/takeFocusProp.
type Notifier interface {
	SetInputFocus(w *wmcontainer.Window) error
	SendTakeFocus(w *wmcontainer.Window) error
}

// Tracker holds the world state §9 calls out as needing a well-defined
// home: the previously focused leaf (for back-navigation) and the other
// side of focus_kind_toggle.
type Tracker struct {
	prevLeaf        *wmcontainer.Container
	prevKindToggle  map[*wmcontainer.Container]*wmcontainer.Container // workspace -> other-kind leaf remembered
}

// NewTracker returns an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{prevKindToggle: map[*wmcontainer.Container]*wmcontainer.Container{}}
}

// Focus moves leaf to the head of every ancestor's FocusStack from leaf up
// to root, records the previously focused leaf, and asks the notifier to
// either set input focus directly or send WM_TAKE_FOCUS, never both (spec
// §4.2, §4.5): a leaf whose window needs_take_focus and is not
// globally-active gets the ClientMessage and no SetInputFocus call.
func (t *Tracker) Focus(leaf *wmcontainer.Container, notifier Notifier) error {
	if leaf == nil || leaf.Kind != wmcontainer.KindLeaf {
		return fmt.Errorf("focus: not a leaf: %v", leaf)
	}
	prev := wmcontainer.DescendFocused(leaf.Root())
	for n := leaf; n.Parent != nil; n = n.Parent {
		moveToHead(n.Parent, n)
	}
	t.prevLeaf = prev

	if leaf.Window == nil {
		return nil
	}
	if leaf.Window.NeedsTakeFocus && !leaf.Window.GloballyActive {
		return notifier.SendTakeFocus(leaf.Window)
	}
	return notifier.SetInputFocus(leaf.Window)
}

// FocusedLeaf returns descend_focused(root).
func FocusedLeaf(root *wmcontainer.Container) *wmcontainer.Container {
	return wmcontainer.DescendFocused(root)
}

// PreviouslyFocused returns the leaf that was focused before the most
// recent Focus call, or nil.
func (t *Tracker) PreviouslyFocused() *wmcontainer.Container {
	return t.prevLeaf
}

func moveToHead(parent, child *wmcontainer.Container) {
	stack := parent.FocusStack
	idx := -1
	for i, c := range stack {
		if c == child {
			idx = i
			break
		}
	}
	if idx < 0 {
		// child not yet tracked (e.g. newly attached floating wrapper);
		// nothing to reorder.
		return
	}
	if idx == 0 {
		return
	}
	copy(stack[1:idx+1], stack[0:idx])
	stack[0] = child
}

// Direction is a cardinal direction for focus/move navigation.
type Direction int

const (
	DirLeft Direction = iota
	DirRight
	DirUp
	DirDown
)

func (d Direction) axisOrientation() wmcontainer.Orientation {
	if d == DirLeft || d == DirRight {
		return wmcontainer.OrientHorizontal
	}
	return wmcontainer.OrientVertical
}

func (d Direction) forward() bool {
	return d == DirRight || d == DirDown
}

// FocusDirection interprets a direction against the tiling tree starting
// from the currently focused leaf: it walks up until finding an ancestor
// whose orientation aligns with d, picks the sibling in that direction,
// then descends via focus-stack head (spec §4.2).
func (t *Tracker) FocusDirection(from *wmcontainer.Container, dir Direction, notifier Notifier) (*wmcontainer.Container, error) {
	node := from
	for node.Parent != nil {
		parent := node.Parent
		if parent.Kind == wmcontainer.KindSplit || parent.Kind == wmcontainer.KindWorkspace {
			if parent.Orientation == dir.axisOrientation() {
				idx := childIndex(parent, node)
				var target *wmcontainer.Container
				if dir.forward() && idx < len(parent.Children)-1 {
					target = parent.Children[idx+1]
				} else if !dir.forward() && idx > 0 {
					target = parent.Children[idx-1]
				}
				if target != nil {
					leaf := wmcontainer.DescendFocused(target)
					if leaf.Kind != wmcontainer.KindLeaf {
						leaf = firstLeaf(target)
					}
					if leaf != nil {
						return leaf, t.Focus(leaf, notifier)
					}
				}
			}
		}
		node = parent
	}
	return from, nil
}

func childIndex(parent, child *wmcontainer.Container) int {
	for i, c := range parent.Children {
		if c == child {
			return i
		}
	}
	return -1
}

func firstLeaf(node *wmcontainer.Container) *wmcontainer.Container {
	if node.Kind == wmcontainer.KindLeaf {
		return node
	}
	for _, c := range node.Children {
		if l := firstLeaf(c); l != nil {
			return l
		}
	}
	return nil
}

// ToggleKind swaps focus between the floating and tiling leaves of the
// current workspace, remembering the other side for the next toggle (spec
// §4.2 focus_kind_toggle).
func (t *Tracker) ToggleKind(ws *wmcontainer.Container, notifier Notifier) (*wmcontainer.Container, error) {
	current := wmcontainer.DescendFocused(ws)
	var other *wmcontainer.Container
	if isFloatingLeaf(current) {
		if len(ws.Children) > 0 {
			other = firstTilingLeaf(ws)
		}
	} else {
		if len(ws.FloatingChildren) > 0 {
			other = wmcontainer.DescendFocused(ws.FloatingChildren[0])
		}
	}
	if remembered, ok := t.prevKindToggle[ws]; ok && remembered != nil {
		other = remembered
	}
	if other == nil {
		return current, nil
	}
	t.prevKindToggle[ws] = current
	return other, t.Focus(other, notifier)
}

func firstTilingLeaf(ws *wmcontainer.Container) *wmcontainer.Container {
	for _, c := range ws.Children {
		if l := firstLeaf(c); l != nil {
			return l
		}
	}
	return nil
}

func isFloatingLeaf(leaf *wmcontainer.Container) bool {
	return wmcontainer.AncestorOfKind(leaf, wmcontainer.KindFloatingWrapper) != nil
}
