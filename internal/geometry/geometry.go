// Package geometry implements C3, the solver that computes every
// container's Rect/WindowRect/DecoRect from its parent's Rect plus its
// layout (spec §4.3).
//
// There is no teacher analogue with real geometry math: funkycode-marwind's
// render.go computes and immediately ConfigureWindows in the same pass
// (renderColumn/renderWorkspace), conflating C3 and C7. This package pulls
// the pure computation half out, generalizing renderColumn's per-frame gap
// inset (`geom.X + gap, geom.W - gap*2`) into the split/stacked/tabbed/
// dockarea layouts spec §4.3 names, and renderDock's top/bottom strut
// stacking into computeDockArea.
package geometry

import (
	"github.com/patrislav/marwind/internal/config"
	"github.com/patrislav/marwind/internal/wmcontainer"
)

// Point is an (x, y) pair in root coordinates, used for floating-rectangle
// translation when a workspace migrates to a different output.
type Point struct {
	X, Y int32
}

// Compute lays out node's children according to node.Layout, writes their
// Rect/WindowRect/DecoRect, and recurses into each child so nested splits
// are computed too. Floating children of a WORKSPACE are handled
// separately by LayoutFloating, since they are not part of the tiling
// axis at all.
func Compute(node *wmcontainer.Container, cfg *config.Config) {
	switch node.Layout {
	case wmcontainer.LayoutSplit:
		computeSplit(node, cfg)
	case wmcontainer.LayoutStacked:
		computeStacked(node, cfg)
	case wmcontainer.LayoutTabbed:
		computeTabbed(node, cfg)
	case wmcontainer.LayoutDockArea:
		computeDockArea(node, cfg)
	}
	for _, child := range node.Children {
		Compute(child, cfg)
	}
	if node.Kind == wmcontainer.KindWorkspace {
		for _, fw := range node.FloatingChildren {
			LayoutFloating(fw, cfg)
		}
	}
}

func computeSplit(node *wmcontainer.Container, cfg *config.Config) {
	horiz := node.Orientation == wmcontainer.OrientHorizontal
	var extent uint32
	var origin int32
	if horiz {
		extent = node.Rect.W
		origin = node.Rect.X
	} else {
		extent = node.Rect.H
		origin = node.Rect.Y
	}
	pos := origin
	n := len(node.Children)
	for i, child := range node.Children {
		size := uint32(child.Percent * float64(extent))
		if i == n-1 {
			// Last child absorbs any rounding remainder so children
			// exactly tile the parent's extent.
			size = uint32(origin+int32(extent)) - uint32(pos)
		}
		if horiz {
			child.Rect = wmcontainer.Rect{X: pos, Y: node.Rect.Y, W: size, H: node.Rect.H}
		} else {
			child.Rect = wmcontainer.Rect{X: node.Rect.X, Y: pos, W: node.Rect.W, H: size}
		}
		applyGapAndBorder(child, cfg)
		pos += int32(size)
	}
}

// applyGapAndBorder insets child.Rect by the configured inner gap and
// border width to produce WindowRect, and reserves a titlebar strip at the
// top as DecoRect when TitleBarHeight > 0.
func applyGapAndBorder(child *wmcontainer.Container, cfg *config.Config) {
	gap := int32(cfg.InnerGap)
	border := uint32(cfg.BorderWidth)
	bar := uint32(0)
	if cfg.TitleBarHeight > 0 {
		bar = uint32(cfg.TitleBarHeight) + 1
	}
	child.DecoRect = wmcontainer.Rect{
		X: child.Rect.X + gap,
		Y: child.Rect.Y + gap,
		W: shrink(child.Rect.W, uint32(2*gap)),
		H: bar,
	}
	child.WindowRect = wmcontainer.Rect{
		X: child.Rect.X + gap + int32(border),
		Y: child.Rect.Y + gap + int32(bar) + int32(border),
		W: shrink(child.Rect.W, uint32(2*gap)+2*border),
		H: shrink(child.Rect.H, uint32(2*gap)+bar+2*border),
	}
}

func shrink(v, by uint32) uint32 {
	if by >= v {
		return 0
	}
	return v - by
}

// computeStacked lays out header strips for each child stacked at the top
// of the parent's rect; only the focused child (FocusStack head) gets a
// nonzero WindowRect, the rest are header-only (spec §4.3).
func computeStacked(node *wmcontainer.Container, cfg *config.Config) {
	headerHeight := headerStripHeight(cfg)
	focused := focusedChild(node)
	bodyY := node.Rect.Y + int32(headerHeight)*int32(len(node.Children))
	bodyH := shrink(node.Rect.H, headerHeight*uint32(len(node.Children)))
	for i, child := range node.Children {
		child.DecoRect = wmcontainer.Rect{
			X: node.Rect.X,
			Y: node.Rect.Y + int32(headerHeight)*int32(i),
			W: node.Rect.W,
			H: headerHeight,
		}
		if child == focused {
			child.Rect = wmcontainer.Rect{X: node.Rect.X, Y: bodyY, W: node.Rect.W, H: bodyH}
			child.WindowRect = insetBorder(child.Rect, cfg)
		} else {
			child.Rect = child.DecoRect
			child.WindowRect = wmcontainer.Rect{}
		}
	}
}

// computeTabbed is identical to computeStacked except headers are placed
// side by side instead of stacked vertically (spec §4.3).
func computeTabbed(node *wmcontainer.Container, cfg *config.Config) {
	headerHeight := headerStripHeight(cfg)
	focused := focusedChild(node)
	n := uint32(len(node.Children))
	var tabW uint32
	if n > 0 {
		tabW = node.Rect.W / n
	}
	bodyY := node.Rect.Y + int32(headerHeight)
	bodyH := shrink(node.Rect.H, headerHeight)
	for i, child := range node.Children {
		child.DecoRect = wmcontainer.Rect{
			X: node.Rect.X + int32(tabW)*int32(i),
			Y: node.Rect.Y,
			W: tabW,
			H: headerHeight,
		}
		if child == focused {
			child.Rect = wmcontainer.Rect{X: node.Rect.X, Y: bodyY, W: node.Rect.W, H: bodyH}
			child.WindowRect = insetBorder(child.Rect, cfg)
		} else {
			child.Rect = child.DecoRect
			child.WindowRect = wmcontainer.Rect{}
		}
	}
}

func headerStripHeight(cfg *config.Config) uint32 {
	if cfg.TitleBarHeight <= 0 {
		return 1
	}
	return uint32(cfg.TitleBarHeight) + 1
}

func insetBorder(r wmcontainer.Rect, cfg *config.Config) wmcontainer.Rect {
	border := uint32(cfg.BorderWidth)
	return wmcontainer.Rect{
		X: r.X + int32(border),
		Y: r.Y + int32(border),
		W: shrink(r.W, 2*border),
		H: shrink(r.H, 2*border),
	}
}

func focusedChild(node *wmcontainer.Container) *wmcontainer.Container {
	if len(node.FocusStack) == 0 {
		if len(node.Children) == 0 {
			return nil
		}
		return node.Children[0]
	}
	return node.FocusStack[0]
}

// computeDockArea stacks dock windows vertically according to each
// window's reserved strut (spec §4.3). It lays out only the DOCKAREA's own
// children; the OUTPUT's CONTENT rect is not reduced here or elsewhere.
func computeDockArea(node *wmcontainer.Container, cfg *config.Config) {
	y := node.Rect.Y
	for _, child := range node.Children {
		h := dockHeight(child)
		child.Rect = wmcontainer.Rect{X: node.Rect.X, Y: y, W: node.Rect.W, H: h}
		child.WindowRect = child.Rect
		child.DecoRect = wmcontainer.Rect{}
		y += int32(h)
	}
}

func dockHeight(leaf *wmcontainer.Container) uint32 {
	if leaf.Window == nil {
		return 0
	}
	h := leaf.Window.StrutTop + leaf.Window.StrutBottom
	if h == 0 {
		h = 24
	}
	return h
}

// DockAreaExtent sums the height reserved by an OUTPUT's dock area (spec §3
// DOCKAREA description). Nothing in this module calls it, so the CONTENT
// container's rect is not shrunk by it.
func DockAreaExtent(dockArea *wmcontainer.Container) uint32 {
	var total uint32
	for _, c := range dockArea.Children {
		total += dockHeight(c)
	}
	return total
}

// LayoutFloating positions a FLOATING_WRAPPER's rect, clamped to the
// configured floating_minimum_size/floating_maximum_size (spec §4.3). -1
// in either dimension of the maximum means unlimited.
func LayoutFloating(wrapper *wmcontainer.Container, cfg *config.Config) {
	w, h := clampFloatingSize(wrapper.Rect.W, wrapper.Rect.H, cfg)
	wrapper.Rect.W, wrapper.Rect.H = w, h
	wrapper.WindowRect = wrapper.Rect
	if len(wrapper.Children) == 1 {
		wrapper.Children[0].Rect = wrapper.Rect
		wrapper.Children[0].WindowRect = wrapper.Rect
	}
}

func clampFloatingSize(w, h uint32, cfg *config.Config) (uint32, uint32) {
	if cfg.FloatingMinimumSize.W >= 0 && w < uint32(cfg.FloatingMinimumSize.W) {
		w = uint32(cfg.FloatingMinimumSize.W)
	}
	if cfg.FloatingMinimumSize.H >= 0 && h < uint32(cfg.FloatingMinimumSize.H) {
		h = uint32(cfg.FloatingMinimumSize.H)
	}
	if cfg.FloatingMaximumSize.W >= 0 && w > uint32(cfg.FloatingMaximumSize.W) {
		w = uint32(cfg.FloatingMaximumSize.W)
	}
	if cfg.FloatingMaximumSize.H >= 0 && h > uint32(cfg.FloatingMaximumSize.H) {
		h = uint32(cfg.FloatingMaximumSize.H)
	}
	return w, h
}

// TranslateFloatingForOutputMove offsets wrapper's rect by the difference
// between the old and new output origins, preserving its position relative
// to the workspace, and leaves width/height unchanged (spec §4.3).
func TranslateFloatingForOutputMove(wrapper *wmcontainer.Container, oldOrigin, newOrigin Point) {
	dx := newOrigin.X - oldOrigin.X
	dy := newOrigin.Y - oldOrigin.Y
	wrapper.Rect.X += dx
	wrapper.Rect.Y += dy
	wrapper.WindowRect.X += dx
	wrapper.WindowRect.Y += dy
}
