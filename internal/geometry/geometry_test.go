package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patrislav/marwind/internal/config"
	"github.com/patrislav/marwind/internal/wmcontainer"
)

func TestComputeSplitPartitionsByPercent(t *testing.T) {
	cfg := config.Default()
	cfg.InnerGap = 0
	cfg.BorderWidth = 0
	parent := wmcontainer.NewContainer(wmcontainer.KindSplit)
	parent.Orientation = wmcontainer.OrientHorizontal
	parent.Rect = wmcontainer.Rect{X: 0, Y: 0, W: 1000, H: 500}

	a := wmcontainer.NewContainer(wmcontainer.KindLeaf)
	a.Percent = 0.25
	b := wmcontainer.NewContainer(wmcontainer.KindLeaf)
	b.Percent = 0.75
	parent.Children = []*wmcontainer.Container{a, b}

	Compute(parent, cfg)

	assert.Equal(t, uint32(250), a.Rect.W)
	assert.Equal(t, int32(0), a.Rect.X)
	assert.Equal(t, uint32(750), b.Rect.W)
	assert.Equal(t, int32(250), b.Rect.X)
	// last child absorbs rounding, so widths still sum exactly to parent's.
	assert.Equal(t, parent.Rect.W, a.Rect.W+b.Rect.W)
}

func TestResizeGrowShrinkMatchesScenario6(t *testing.T) {
	parent := wmcontainer.NewContainer(wmcontainer.KindSplit)
	parent.Orientation = wmcontainer.OrientVertical
	upper := wmcontainer.NewContainer(wmcontainer.KindLeaf)
	upper.Percent = 0.5
	lower := wmcontainer.NewContainer(wmcontainer.KindLeaf)
	lower.Percent = 0.5
	parent.Children = []*wmcontainer.Container{upper, lower}

	// "resize grow up 10 px or 25 ppt" from the lower child: lower grows
	// (takes share from upper) by 0.25.
	require.NoError(t, ResizeAdjacent(parent, 1, 0, 0.25))
	assert.InDelta(t, 0.25, upper.Percent, 1e-9)
	assert.InDelta(t, 0.75, lower.Percent, 1e-9)

	// Setting the parent's layout does not itself touch percentages.
	parent.Layout = wmcontainer.LayoutSplit
	assert.InDelta(t, 0.25, upper.Percent, 1e-9)
	assert.InDelta(t, 0.75, lower.Percent, 1e-9)
}

func TestFloatingSizeClampsToConfig(t *testing.T) {
	cfg := config.Default()
	cfg.FloatingMinimumSize = config.Size{W: 60, H: 40}
	wrapper := wmcontainer.NewContainer(wmcontainer.KindFloatingWrapper)
	wrapper.Rect = wmcontainer.Rect{W: 20, H: 20}
	LayoutFloating(wrapper, cfg)
	assert.Equal(t, uint32(60), wrapper.Rect.W)
	assert.Equal(t, uint32(40), wrapper.Rect.H)

	cfg2 := config.Default()
	cfg2.FloatingMaximumSize = config.Size{W: 100, H: 100}
	wrapper2 := wmcontainer.NewContainer(wmcontainer.KindFloatingWrapper)
	wrapper2.Rect = wmcontainer.Rect{W: 150, H: 150}
	LayoutFloating(wrapper2, cfg2)
	assert.Equal(t, uint32(100), wrapper2.Rect.W)
	assert.Equal(t, uint32(100), wrapper2.Rect.H)

	cfg3 := config.Default() // -1 x -1 == unlimited
	wrapper3 := wmcontainer.NewContainer(wmcontainer.KindFloatingWrapper)
	wrapper3.Rect = wmcontainer.Rect{W: 2048, H: 2048}
	LayoutFloating(wrapper3, cfg3)
	assert.Equal(t, uint32(2048), wrapper3.Rect.W)
	assert.Equal(t, uint32(2048), wrapper3.Rect.H)
}

func TestTranslateFloatingForOutputMoveMatchesScenario4(t *testing.T) {
	wrapper := wmcontainer.NewContainer(wmcontainer.KindFloatingWrapper)
	wrapper.Rect = wmcontainer.Rect{X: 100, Y: 100, W: 200, H: 150}

	TranslateFloatingForOutputMove(wrapper, Point{X: 0, Y: 0}, Point{X: 1024, Y: 0})

	assert.Equal(t, int32(1124), wrapper.Rect.X)
	assert.Equal(t, int32(100), wrapper.Rect.Y)
	assert.Equal(t, uint32(200), wrapper.Rect.W)
	assert.Equal(t, uint32(150), wrapper.Rect.H)
}
