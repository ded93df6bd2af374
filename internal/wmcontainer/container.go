// Package wmcontainer implements C1, the container tree store: the single
// recursive node type every window, split, workspace, output and the root
// are built from, plus the structural primitives (attach/detach/replace/
// iteration/close) that mutate it while preserving spec §3's invariants.
//
// Grounded on the teacher's split architecture: funkycode-marwind's
// manager.go delegates all tree state to a separate container package
// (container.Output, container.Workspace, container.Frame,
// container.ManageWindow) while manager.go itself only orchestrates X
// events — exactly the C1/C7 split this spec calls for. The flatter
// Output->Workspace->Column->Frame model of that package is generalized
// here into the full kind lattice of spec §3 (SPLIT replacing "column",
// FLOATING_WRAPPER and DOCKAREA added, a single recursive Container type
// replacing one struct per level).
package wmcontainer

import "github.com/google/uuid"

// Kind discriminates a Container's role. The depth discipline among kinds
// is spec §3's tree diagram; ValidChild enforces it.
type Kind int

const (
	KindRoot Kind = iota
	KindOutput
	KindContent
	KindDockArea
	KindWorkspace
	KindSplit
	KindLeaf
	KindFloatingWrapper
)

func (k Kind) String() string {
	switch k {
	case KindRoot:
		return "root"
	case KindOutput:
		return "output"
	case KindContent:
		return "content"
	case KindDockArea:
		return "dockarea"
	case KindWorkspace:
		return "workspace"
	case KindSplit:
		return "split"
	case KindLeaf:
		return "leaf"
	case KindFloatingWrapper:
		return "floating_wrapper"
	default:
		return "unknown"
	}
}

// Orientation is meaningful for SPLIT and WORKSPACE containers.
type Orientation int

const (
	OrientUnset Orientation = iota
	OrientHorizontal
	OrientVertical
)

// Layout controls how a container's children are presented.
type Layout int

const (
	LayoutSplit Layout = iota
	LayoutStacked
	LayoutTabbed
	LayoutDockArea
	LayoutOutput
)

// FullscreenMode is none, output-local, or global (§9 Open Questions: global
// is treated as exclusive with any other output's fullscreen workspace).
type FullscreenMode int

const (
	FullscreenNone FullscreenMode = iota
	FullscreenOutput
	FullscreenGlobal
)

// FloatingState. Values >= FloatingAutoOn mean "detached from tiling".
type FloatingState int

const (
	FloatingAutoOff FloatingState = iota
	FloatingUserOff
	FloatingAutoOn
	FloatingUserOn
)

// IsFloating reports whether this state detaches the container from tiling.
func (s FloatingState) IsFloating() bool { return s >= FloatingAutoOn }

// RemovePolicy is the enum-tagged "on_remove_child" callback slot of §9,
// replacing a per-container function pointer with a closed set dispatched
// on by kind.
type RemovePolicy int

const (
	RemovePolicyNone RemovePolicy = iota
	RemovePolicySplitEliminateSingleChild
	RemovePolicyWorkspacePruneIfEmpty
	RemovePolicyDockareaShrink
)

// Rect is a rectangle in root coordinates.
type Rect struct {
	X, Y int32
	W, H uint32
}

// Dimensions is a four-sided inset, used for decoration frames.
type Dimensions struct {
	Top, Right, Bottom, Left uint32
}

// WindowID is an opaque, X11-transport-defined window identifier. The core
// never interprets it beyond equality; internal/xconn owns the real type.
type WindowID uint32

// Window is the descriptor attached to a LEAF container (spec §3).
type Window struct {
	ID              WindowID
	Leader          WindowID
	TransientFor    WindowID
	Class           string
	Instance        string
	TitleUCS2       []uint16
	TitleUTF8       string
	IsDock          bool
	NeedsTakeFocus  bool
	GloballyActive  bool
	StrutTop        uint32
	StrutBottom     uint32
	StrutLeft       uint32
	StrutRight      uint32
	RanAssignments  map[string]bool
	SupportsDelete  bool
}

// Container is the single recursive node type (spec §3).
type Container struct {
	ID          string
	Kind        Kind
	Orientation Orientation
	Layout      Layout

	Rect       Rect
	WindowRect Rect
	DecoRect   Rect

	Percent float64

	Parent           *Container // non-owning, weak relation (§9)
	Children         []*Container
	FocusStack       []*Container // subset of Children, MRU-ordered, head = most recent
	FloatingChildren []*Container // only meaningful on WORKSPACE

	FullscreenMode FullscreenMode
	FloatingState  FloatingState
	Urgent         bool
	StickyGroup    string
	Mark           string

	Name string // workspace/output name
	Num  int    // parsed leading decimal of Name, else -1

	IgnoreUnmapCount int

	Window *Window // only on LEAF

	RemovePolicy RemovePolicy
}

// NewContainer allocates a Container with default state: no children,
// percent 0, fullscreen none (§4.1 new_container).
func NewContainer(kind Kind) *Container {
	c := &Container{
		ID:   uuid.NewString(),
		Kind: kind,
		Num:  -1,
	}
	switch kind {
	case KindSplit:
		c.RemovePolicy = RemovePolicySplitEliminateSingleChild
	case KindWorkspace:
		c.RemovePolicy = RemovePolicyWorkspacePruneIfEmpty
	case KindDockArea:
		c.RemovePolicy = RemovePolicyDockareaShrink
	}
	return c
}

// ValidChild reports whether child may be attached under parent without
// violating the kind discipline of spec §3.
func ValidChild(parent, child Kind) bool {
	switch parent {
	case KindRoot:
		return child == KindOutput
	case KindOutput:
		return child == KindDockArea || child == KindContent
	case KindContent:
		return child == KindWorkspace
	case KindWorkspace:
		return child == KindSplit || child == KindLeaf || child == KindFloatingWrapper
	case KindSplit:
		return child == KindSplit || child == KindLeaf
	case KindDockArea:
		return child == KindLeaf
	case KindFloatingWrapper:
		return child == KindSplit || child == KindLeaf
	case KindLeaf:
		return false
	default:
		return false
	}
}

// IsLeaf reports whether c is a LEAF container.
func (c *Container) IsLeaf() bool { return c.Kind == KindLeaf }

// Root walks up to the ROOT container.
func (c *Container) Root() *Container {
	n := c
	for n.Parent != nil {
		n = n.Parent
	}
	return n
}
