package geometry

import (
	"fmt"

	"github.com/patrislav/marwind/internal/config"
	"github.com/patrislav/marwind/internal/wmcontainer"
)

// minChildPercent is the smallest share a resize is allowed to push a
// sibling to; it keeps a shrink from ever reaching zero or negative.
const minChildPercent = 0.05

// PxToPpt converts a pixel delta to a fraction of the parent's axis extent
// (spec §4.3's "px argument is converted to ppt by dividing by the
// parent's axis extent").
func PxToPpt(px int, axisExtent uint32) float64 {
	if axisExtent == 0 {
		return 0
	}
	return float64(px) / float64(axisExtent)
}

// ResizeAdjacent changes two adjacent siblings' percentages by the same
// absolute amount in opposite directions, preserving the parent's
// invariant that percentages sum to 1 (spec §4.3). growIdx grows by delta,
// shrinkIdx shrinks by delta.
func ResizeAdjacent(parent *wmcontainer.Container, growIdx, shrinkIdx int, delta float64) error {
	if growIdx < 0 || growIdx >= len(parent.Children) || shrinkIdx < 0 || shrinkIdx >= len(parent.Children) {
		return fmt.Errorf("resize: sibling index out of range")
	}
	grow := parent.Children[growIdx]
	shrink := parent.Children[shrinkIdx]
	if shrink.Percent-delta < minChildPercent {
		delta = shrink.Percent - minChildPercent
		if delta < 0 {
			delta = 0
		}
	}
	grow.Percent += delta
	shrink.Percent -= delta
	wmcontainer.FixPercent(parent.Children)
	return nil
}

// ResizeFloating grows or shrinks a FLOATING_WRAPPER along one axis by a
// ppt fraction of its current extent on that axis (spec §4.3's "px for
// tiling children and ppt for floating"), clamped to the configured
// floating_minimum_size/floating_maximum_size. horizontal selects which
// axis the direction acts on (left/right vs up/down); the wrapper's
// top-left corner stays fixed, matching a tiling split's "the far edge
// moves" feel.
func ResizeFloating(wrapper *wmcontainer.Container, horizontal, grow bool, pct float64, cfg *config.Config) {
	if !grow {
		pct = -pct
	}
	w, h := wrapper.Rect.W, wrapper.Rect.H
	if horizontal {
		w = clampSignedDelta(w, pct)
	} else {
		h = clampSignedDelta(h, pct)
	}
	w, h = clampFloatingSize(w, h, cfg)
	wrapper.Rect.W, wrapper.Rect.H = w, h
	wrapper.WindowRect = wrapper.Rect
	if len(wrapper.Children) == 1 {
		wrapper.Children[0].Rect = wrapper.Rect
		wrapper.Children[0].WindowRect = wrapper.Rect
	}
}

func clampSignedDelta(extent uint32, pct float64) uint32 {
	delta := int64(float64(extent) * pct)
	next := int64(extent) + delta
	if next < 1 {
		next = 1
	}
	return uint32(next)
}

// AdjacentSiblingIndices finds the two sibling indices a "resize grow/
// shrink <direction>" command acts on: the container itself and its
// neighbor in the given direction along its parent's primary axis.
func AdjacentSiblingIndices(parent, child *wmcontainer.Container, forward bool) (self, neighbor int, ok bool) {
	idx := -1
	for i, c := range parent.Children {
		if c == child {
			idx = i
			break
		}
	}
	if idx < 0 {
		return 0, 0, false
	}
	if forward {
		if idx >= len(parent.Children)-1 {
			return 0, 0, false
		}
		return idx, idx + 1, true
	}
	if idx == 0 {
		return 0, 0, false
	}
	return idx, idx - 1, true
}
