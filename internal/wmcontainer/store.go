package wmcontainer

import (
	"fmt"
	"strconv"

	"github.com/patrislav/marwind/internal/wmerr"
)

// percentEpsilon is the tolerance invariant 4 (spec §3) allows for the sum
// of a container's tiling children's Percent.
const percentEpsilon = 1e-6

// Store owns every container reachable from Root and indexes them by id.
// It is the single structural authority C1 exposes; only C6 (the command
// executor) and C5 (window adoption) are permitted to call its mutators
// (spec §5 "Shared resources").
type Store struct {
	Root  *Container
	byID  map[string]*Container
}

// NewStore allocates a fresh tree with only the permanent ROOT container.
func NewStore() *Store {
	root := NewContainer(KindRoot)
	s := &Store{Root: root, byID: map[string]*Container{root.ID: root}}
	return s
}

// Lookup finds a container by id.
func (s *Store) Lookup(id string) (*Container, bool) {
	c, ok := s.byID[id]
	return c, ok
}

func (s *Store) register(c *Container) {
	s.byID[c.ID] = c
	for _, ch := range c.Children {
		s.register(ch)
	}
	for _, fc := range c.FloatingChildren {
		s.register(fc)
	}
}

func (s *Store) unregister(c *Container) {
	delete(s.byID, c.ID)
	for _, ch := range c.Children {
		s.unregister(ch)
	}
	for _, fc := range c.FloatingChildren {
		s.unregister(fc)
	}
}

// Attach inserts child into parent's Children (head or tail), rebalances
// percentages so siblings sum to 1, and pushes child to the back (LRU end)
// of parent's FocusStack (spec §4.1). Fails if the kind discipline would be
// violated.
func (s *Store) Attach(child, parent *Container, atHead bool) error {
	if !ValidChild(parent.Kind, child.Kind) {
		return fmt.Errorf("attach %s under %s: %w", child.Kind, parent.Kind, wmerr.ErrKindDiscipline)
	}
	child.Parent = parent
	n := len(parent.Children)
	fairShare := 1.0 / float64(n+1)
	for _, sib := range parent.Children {
		sib.Percent *= float64(n) / float64(n+1)
	}
	child.Percent = fairShare
	if atHead {
		parent.Children = append([]*Container{child}, parent.Children...)
	} else {
		parent.Children = append(parent.Children, child)
	}
	parent.FocusStack = append(parent.FocusStack, child)
	s.register(child)
	return nil
}

// Detach removes child from its parent's Children and FocusStack,
// fair-shares the freed percentage across remaining siblings, and does not
// destroy the child (spec §4.1).
func (s *Store) Detach(child *Container) {
	parent := child.Parent
	if parent == nil {
		return
	}
	idx := indexOf(parent.Children, child)
	if idx < 0 {
		return
	}
	freed := child.Percent
	parent.Children = append(parent.Children[:idx], parent.Children[idx+1:]...)
	if remaining := 1.0 - freed; remaining > percentEpsilon {
		scale := 1.0 / remaining
		for _, sib := range parent.Children {
			sib.Percent *= scale
		}
	}
	parent.FocusStack = removeFromSlice(parent.FocusStack, child)
	child.Parent = nil
	s.unregister(child)
}

// DetachFloating removes a FLOATING_WRAPPER from its workspace's
// FloatingChildren without touching tiling percentages.
func (s *Store) DetachFloating(wrapper *Container) {
	ws := wrapper.Parent
	if ws == nil {
		return
	}
	ws.FloatingChildren = removeFromSlice(ws.FloatingChildren, wrapper)
	ws.FocusStack = removeFromSlice(ws.FocusStack, wrapper)
	wrapper.Parent = nil
	s.unregister(wrapper)
}

// AttachFloating attaches a FLOATING_WRAPPER to a workspace.
func (s *Store) AttachFloating(wrapper, workspace *Container) error {
	if workspace.Kind != KindWorkspace {
		return fmt.Errorf("attach floating wrapper under %s: %w", workspace.Kind, wmerr.ErrKindDiscipline)
	}
	if wrapper.Kind != KindFloatingWrapper {
		return fmt.Errorf("attach %s as floating child: %w", wrapper.Kind, wmerr.ErrKindDiscipline)
	}
	wrapper.Parent = workspace
	workspace.FloatingChildren = append(workspace.FloatingChildren, wrapper)
	workspace.FocusStack = append(workspace.FocusStack, wrapper)
	s.register(wrapper)
	return nil
}

// Replace splices replacement into old's position, preserving its Percent
// and FocusStack slot (spec §4.1).
func (s *Store) Replace(old, replacement *Container) {
	parent := old.Parent
	if parent == nil {
		return
	}
	replacement.Percent = old.Percent
	replacement.Parent = parent
	if idx := indexOf(parent.Children, old); idx >= 0 {
		parent.Children[idx] = replacement
	}
	if idx := indexOf(parent.FocusStack, old); idx >= 0 {
		parent.FocusStack[idx] = replacement
	}
	if idx := indexOf(parent.FloatingChildren, old); idx >= 0 {
		parent.FloatingChildren[idx] = replacement
	}
	old.Parent = nil
	s.unregister(old)
	s.register(replacement)
}

// DescendFocused follows FocusStack[0] from root until it reaches a LEAF or
// a container with an empty FocusStack.
func DescendFocused(root *Container) *Container {
	n := root
	for {
		if n.Kind == KindLeaf || len(n.FocusStack) == 0 {
			return n
		}
		n = n.FocusStack[0]
	}
}

// AncestorOfKind walks parents starting at node looking for the nearest
// ancestor of the given kind.
func AncestorOfKind(node *Container, kind Kind) *Container {
	for n := node.Parent; n != nil; n = n.Parent {
		if n.Kind == kind {
			return n
		}
	}
	return nil
}

// FixPercent rounds aggregate floating-point error into the last child so
// the sum is exactly 1 (spec §4.3's fix_percent pass).
func FixPercent(children []*Container) {
	if len(children) == 0 {
		return
	}
	var sum float64
	for _, c := range children[:len(children)-1] {
		sum += c.Percent
	}
	children[len(children)-1].Percent = 1 - sum
}

// SumPercent reports the sum of children's Percent, for invariant checks.
func SumPercent(children []*Container) float64 {
	var sum float64
	for _, c := range children {
		sum += c.Percent
	}
	return sum
}

// ParseNum extracts the leading non-negative decimal from a workspace name,
// returning -1 if the name does not start with one (spec §3 "num").
func ParseNum(name string) int {
	i := 0
	for i < len(name) && name[i] >= '0' && name[i] <= '9' {
		i++
	}
	if i == 0 {
		return -1
	}
	n, err := strconv.Atoi(name[:i])
	if err != nil {
		return -1
	}
	return n
}

func indexOf(list []*Container, c *Container) int {
	for i, v := range list {
		if v == c {
			return i
		}
	}
	return -1
}

func removeFromSlice(list []*Container, c *Container) []*Container {
	idx := indexOf(list, c)
	if idx < 0 {
		return list
	}
	return append(list[:idx], list[idx+1:]...)
}
