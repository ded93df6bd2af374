package command

import (
	"fmt"

	"github.com/patrislav/marwind/internal/adopt"
	"github.com/patrislav/marwind/internal/focus"
	"github.com/patrislav/marwind/internal/geometry"
	"github.com/patrislav/marwind/internal/wmcontainer"
)

func parseDirection(s string) (focus.Direction, bool) {
	switch s {
	case "left":
		return focus.DirLeft, true
	case "right":
		return focus.DirRight, true
	case "up":
		return focus.DirUp, true
	case "down":
		return focus.DirDown, true
	default:
		return 0, false
	}
}

func (e *Executor) applyFocus(leaf *wmcontainer.Container, fields []string) error {
	if len(fields) == 0 {
		return fmt.Errorf("command: focus needs an argument")
	}
	if dir, ok := parseDirection(fields[0]); ok {
		_, err := e.Focus.FocusDirection(leaf, dir, e.Notifier)
		return err
	}
	switch fields[0] {
	case "parent":
		if leaf.Parent != nil && leaf.Parent.Kind != wmcontainer.KindWorkspace {
			target := wmcontainer.DescendFocused(leaf.Parent)
			if target.Kind == wmcontainer.KindLeaf {
				return e.Focus.Focus(target, e.Notifier)
			}
		}
		return nil
	case "child":
		target := wmcontainer.DescendFocused(leaf)
		if target.Kind == wmcontainer.KindLeaf && target != leaf {
			return e.Focus.Focus(target, e.Notifier)
		}
		return nil
	case "floating", "tiling", "mode_toggle":
		ws := wmcontainer.AncestorOfKind(leaf, wmcontainer.KindWorkspace)
		if ws == nil {
			return nil
		}
		_, err := e.Focus.ToggleKind(ws, e.Notifier)
		return err
	default:
		return fmt.Errorf("command: focus %q not understood", fields[0])
	}
}

// applyMove covers both window-level moves (direction, to workspace X, to
// output X) and the whole-workspace move i3 spells "move workspace to
// output X" (spec §8 scenario 4).
func (e *Executor) applyMove(leaf *wmcontainer.Container, fields []string) error {
	if len(fields) == 0 {
		return fmt.Errorf("command: move needs an argument")
	}
	if dir, ok := parseDirection(fields[0]); ok {
		return e.moveWithinParent(leaf, dir)
	}
	if fields[0] == "workspace" && len(fields) >= 4 && fields[1] == "to" && fields[2] == "output" {
		ws := wmcontainer.AncestorOfKind(leaf, wmcontainer.KindWorkspace)
		if ws == nil {
			return nil
		}
		out := e.findOutput(fields[3])
		if out == nil {
			return fmt.Errorf("command: output %q not found", fields[3])
		}
		return e.Workspaces.MoveWorkspaceToOutput(ws, out)
	}
	if fields[0] == "workspace" && len(fields) >= 2 {
		var target *wmcontainer.Container
		current := wmcontainer.AncestorOfKind(leaf, wmcontainer.KindWorkspace)
		switch fields[1] {
		case "next":
			target = e.Workspaces.Next(current, false)
		case "prev":
			target = e.Workspaces.Prev(current, false)
		default:
			return fmt.Errorf("command: move workspace %q not understood", fields[1])
		}
		return e.moveLeafToWorkspace(leaf, target)
	}
	if fields[0] == "to" && len(fields) >= 3 && fields[1] == "workspace" {
		if fields[2] == "current" {
			return nil
		}
		out := wmcontainer.AncestorOfKind(leaf, wmcontainer.KindOutput)
		ws, _, err := e.Workspaces.Get(fields[2], out)
		if err != nil {
			return err
		}
		return e.moveLeafToWorkspace(leaf, ws)
	}
	if fields[0] == "to" && len(fields) >= 3 && fields[1] == "output" {
		out := e.findOutput(fields[2])
		if out == nil {
			return fmt.Errorf("command: output %q not found", fields[2])
		}
		ws := visibleWorkspace(out)
		if ws == nil {
			return fmt.Errorf("command: output %q has no visible workspace", fields[2])
		}
		return e.moveLeafToWorkspace(leaf, ws)
	}
	return fmt.Errorf("command: move %v not understood", fields)
}

func (e *Executor) findOutput(name string) *wmcontainer.Container {
	for _, o := range wmcontainer.Outputs(e.Store.Root) {
		if o.Name == name {
			return o
		}
	}
	return nil
}

func visibleWorkspace(output *wmcontainer.Container) *wmcontainer.Container {
	for _, ws := range wmcontainer.Workspaces(output) {
		if ws.FullscreenMode == wmcontainer.FullscreenOutput {
			return ws
		}
	}
	return nil
}

// moveWithinParent reorders leaf among its siblings along dir's axis, a
// no-op if the parent's orientation doesn't align or leaf is already at
// that edge (spec §4.6 "move <direction>").
func (e *Executor) moveWithinParent(leaf *wmcontainer.Container, dir focus.Direction) error {
	parent := leaf.Parent
	if parent == nil {
		return nil
	}
	want := wmcontainer.OrientVertical
	if dir == focus.DirLeft || dir == focus.DirRight {
		want = wmcontainer.OrientHorizontal
	}
	if parent.Orientation != want {
		return nil
	}
	idx := -1
	for i, c := range parent.Children {
		if c == leaf {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}
	forward := dir == focus.DirRight || dir == focus.DirDown
	swapWith := idx - 1
	if forward {
		swapWith = idx + 1
	}
	if swapWith < 0 || swapWith >= len(parent.Children) {
		return nil
	}
	parent.Children[idx], parent.Children[swapWith] = parent.Children[swapWith], parent.Children[idx]
	return nil
}

// moveLeafToWorkspace detaches leaf (or, if floating, its wrapper) from its
// current position and places it in target per spec §4.5's placement rule.
func (e *Executor) moveLeafToWorkspace(leaf, target *wmcontainer.Container) error {
	if target == nil || wmcontainer.AncestorOfKind(leaf, wmcontainer.KindWorkspace) == target {
		return nil
	}
	if wrapper := wmcontainer.AncestorOfKind(leaf, wmcontainer.KindFloatingWrapper); wrapper != nil {
		e.Store.DetachFloating(wrapper)
		return e.Store.AttachFloating(wrapper, target)
	}
	e.detachTiling(leaf)
	return adopt.PlaceTiling(e.Store, leaf, target)
}

// detachTiling removes leaf from its tiling parent and, if that leaves the
// parent SPLIT with a single child, eliminates it in place (spec §4.1) —
// the same reduction wmcontainer.Close applies via afterRemoveChild, for
// the detach paths C6 performs directly rather than through Close.
func (e *Executor) detachTiling(leaf *wmcontainer.Container) {
	parent := leaf.Parent
	e.Store.Detach(leaf)
	if parent != nil && parent.Kind == wmcontainer.KindSplit {
		e.Store.ReduceSingleChildSplit(parent)
	}
}

func (e *Executor) applyResize(leaf *wmcontainer.Container, fields []string) error {
	if len(fields) < 2 {
		return fmt.Errorf("command: resize needs grow/shrink and a direction")
	}
	grow := fields[0] == "grow"
	if !grow && fields[0] != "shrink" {
		return fmt.Errorf("command: resize %q must be grow or shrink", fields[0])
	}
	dir, ok := parseDirection(fields[1])
	if !ok {
		return fmt.Errorf("command: resize direction %q not understood", fields[1])
	}
	amount, err := parseNPxOrPpt(fields[2:])
	if err != nil {
		return err
	}

	if wrapper := wmcontainer.AncestorOfKind(leaf, wmcontainer.KindFloatingWrapper); wrapper != nil {
		// Floating target: spec §4.3's tie-break always picks ppt here.
		if !amount.HasPpt {
			return fmt.Errorf("command: resize on a floating window needs a ppt amount")
		}
		horizontal := dir == focus.DirLeft || dir == focus.DirRight
		geometry.ResizeFloating(wrapper, horizontal, grow, float64(amount.Ppt)/100.0, e.Config)
		return nil
	}

	parent := leaf.Parent
	if parent == nil || parent.Kind != wmcontainer.KindSplit {
		return nil
	}
	forward := dir == focus.DirRight || dir == focus.DirDown
	self, neighbor, ok := geometry.AdjacentSiblingIndices(parent, leaf, forward)
	if !ok {
		return nil
	}
	// Tiling target: spec §4.3's tie-break picks px when both are given.
	var delta float64
	if amount.HasPx {
		extent := parent.Rect.W
		if parent.Orientation == wmcontainer.OrientVertical {
			extent = parent.Rect.H
		}
		delta = geometry.PxToPpt(amount.Px, extent)
	} else {
		delta = float64(amount.Ppt) / 100.0
	}
	growIdx, shrinkIdx := self, neighbor
	if !grow {
		growIdx, shrinkIdx = neighbor, self
	}
	return geometry.ResizeAdjacent(parent, growIdx, shrinkIdx, delta)
}

func (e *Executor) applySplit(leaf *wmcontainer.Container, fields []string) error {
	if len(fields) == 0 {
		return fmt.Errorf("command: split needs h or v")
	}
	var orient wmcontainer.Orientation
	switch fields[0] {
	case "h":
		orient = wmcontainer.OrientHorizontal
	case "v":
		orient = wmcontainer.OrientVertical
	default:
		return fmt.Errorf("command: split %q must be h or v", fields[0])
	}
	if leaf.Parent == nil {
		return nil
	}
	split := wmcontainer.NewContainer(wmcontainer.KindSplit)
	split.Orientation = orient
	split.Layout = wmcontainer.LayoutSplit
	// Replace splices split into leaf's own slot under leaf's parent,
	// preserving Percent and FocusStack position, then leaf is reattached
	// as split's sole child (spec §3: "wrap multiple children... when a
	// split command runs").
	e.Store.Replace(leaf, split)
	return e.Store.Attach(leaf, split, false)
}

func (e *Executor) applyLayout(leaf *wmcontainer.Container, fields []string) error {
	if len(fields) == 0 {
		return fmt.Errorf("command: layout needs an argument")
	}
	parent := leaf.Parent
	if parent == nil {
		return nil
	}
	switch fields[0] {
	case "default":
		parent.Layout = wmcontainer.LayoutSplit
	case "stacked":
		parent.Layout = wmcontainer.LayoutStacked
	case "tabbed":
		parent.Layout = wmcontainer.LayoutTabbed
	case "toggle":
		if parent.Layout == wmcontainer.LayoutSplit {
			parent.Layout = wmcontainer.LayoutStacked
		} else {
			parent.Layout = wmcontainer.LayoutSplit
		}
	default:
		return fmt.Errorf("command: layout %q not understood", fields[0])
	}
	return nil
}

func (e *Executor) applyFloating(leaf *wmcontainer.Container, fields []string) error {
	if len(fields) == 0 {
		return fmt.Errorf("command: floating needs an argument")
	}
	isFloating := leaf.FloatingState.IsFloating()
	want := isFloating
	switch fields[0] {
	case "enable":
		want = true
	case "disable":
		want = false
	case "toggle":
		want = !isFloating
	default:
		return fmt.Errorf("command: floating %q not understood", fields[0])
	}
	if want == isFloating {
		return nil
	}
	ws := wmcontainer.AncestorOfKind(leaf, wmcontainer.KindWorkspace)
	if ws == nil {
		return nil
	}
	if want {
		e.detachTiling(leaf)
		leaf.FloatingState = wmcontainer.FloatingUserOn
		return adopt.PlaceFloating(e.Store, leaf, ws)
	}
	wrapper := leaf.Parent
	e.Store.DetachFloating(wrapper)
	leaf.Parent = nil
	leaf.FloatingState = wmcontainer.FloatingUserOff
	return adopt.PlaceTiling(e.Store, leaf, ws)
}

func (e *Executor) applyFullscreen(leaf *wmcontainer.Container, fields []string) error {
	mode := wmcontainer.FullscreenOutput
	global := false
	for _, f := range fields {
		if f == "global" {
			global = true
		}
	}
	if global {
		mode = wmcontainer.FullscreenGlobal
	}
	action := "toggle"
	if len(fields) > 0 && (fields[0] == "enable" || fields[0] == "disable" || fields[0] == "toggle") {
		action = fields[0]
	}
	switch action {
	case "enable":
		leaf.FullscreenMode = mode
	case "disable":
		leaf.FullscreenMode = wmcontainer.FullscreenNone
	case "toggle":
		if leaf.FullscreenMode == wmcontainer.FullscreenNone {
			leaf.FullscreenMode = mode
		} else {
			leaf.FullscreenMode = wmcontainer.FullscreenNone
		}
	}
	// A global fullscreen is exclusive (§9 Open Questions): entering it
	// clears FullscreenGlobal on every other leaf.
	if leaf.FullscreenMode == wmcontainer.FullscreenGlobal {
		for _, other := range wmcontainer.Leaves(e.Store.Root) {
			if other != leaf && other.FullscreenMode == wmcontainer.FullscreenGlobal {
				other.FullscreenMode = wmcontainer.FullscreenNone
			}
		}
	}
	return nil
}

func (e *Executor) applyKill(leaf *wmcontainer.Container, fields []string) error {
	policy := wmcontainer.KillPolicyWindow
	if len(fields) > 0 && fields[0] == "client" {
		policy = wmcontainer.KillPolicyClient
	}
	if e.Closer == nil {
		return fmt.Errorf("command: no window closer configured")
	}
	_, err := e.Store.Close(leaf, e.Closer, policy, false)
	return err
}

// showIfPresent calls Show unless ws is nil, which Next/Prev return when
// there is no current workspace to navigate from (an empty tree).
func (e *Executor) showIfPresent(ws *wmcontainer.Container) error {
	if ws == nil {
		return nil
	}
	return e.Workspaces.Show(ws)
}

func (e *Executor) applyWorkspace(fields []string) error {
	if len(fields) == 0 {
		return fmt.Errorf("command: workspace needs an argument")
	}
	focused := focus.FocusedLeaf(e.Store.Root)
	var output, current *wmcontainer.Container
	if focused != nil {
		output = wmcontainer.AncestorOfKind(focused, wmcontainer.KindOutput)
		current = wmcontainer.AncestorOfKind(focused, wmcontainer.KindWorkspace)
		if focused.Kind == wmcontainer.KindWorkspace {
			current = focused // an empty workspace is its own focus-chain end
		}
	}

	switch fields[0] {
	case "next":
		return e.showIfPresent(e.Workspaces.Next(current, false))
	case "prev":
		return e.showIfPresent(e.Workspaces.Prev(current, false))
	case "next_on_output":
		return e.showIfPresent(e.Workspaces.Next(current, true))
	case "prev_on_output":
		return e.showIfPresent(e.Workspaces.Prev(current, true))
	case "back_and_forth":
		name, ok := e.Workspaces.BackAndForthName()
		if !ok {
			return nil
		}
		ws, _, err := e.Workspaces.Get(name, output)
		if err != nil {
			return err
		}
		return e.Workspaces.Show(ws)
	case "number":
		if len(fields) < 2 {
			return fmt.Errorf("command: workspace number needs a number")
		}
		ws, _, err := e.Workspaces.Get(fields[1], output)
		if err != nil {
			return err
		}
		return e.Workspaces.Show(ws)
	default:
		if len(fields[0]) >= 2 && fields[0][:2] == "__" {
			return fmt.Errorf("command: workspace %q is internal", fields[0])
		}
		ws, _, err := e.Workspaces.Get(fields[0], output)
		if err != nil {
			return err
		}
		return e.Workspaces.Show(ws)
	}
}
