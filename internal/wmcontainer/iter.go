package wmcontainer

// Walk calls fn for node and every descendant (tiling and floating),
// depth-first, pre-order.
func Walk(node *Container, fn func(*Container)) {
	fn(node)
	for _, c := range node.Children {
		Walk(c, fn)
	}
	for _, c := range node.FloatingChildren {
		Walk(c, fn)
	}
}

// Leaves returns every LEAF container reachable from node, in tree order.
func Leaves(node *Container) []*Container {
	var out []*Container
	Walk(node, func(c *Container) {
		if c.Kind == KindLeaf {
			out = append(out, c)
		}
	})
	return out
}

// FindLeaf returns the first LEAF reachable from node matching predicate.
func FindLeaf(node *Container, predicate func(*Container) bool) *Container {
	for _, leaf := range Leaves(node) {
		if predicate(leaf) {
			return leaf
		}
	}
	return nil
}

// Outputs returns every OUTPUT container reachable from node.
func Outputs(node *Container) []*Container {
	var out []*Container
	Walk(node, func(c *Container) {
		if c.Kind == KindOutput {
			out = append(out, c)
		}
	})
	return out
}

// Workspaces returns every WORKSPACE container reachable from node, in tree
// order (used by C4's next/prev traversal).
func Workspaces(node *Container) []*Container {
	var out []*Container
	Walk(node, func(c *Container) {
		if c.Kind == KindWorkspace {
			out = append(out, c)
		}
	})
	return out
}

// ContentOf returns the OUTPUT's CONTENT child, or nil.
func ContentOf(output *Container) *Container {
	for _, c := range output.Children {
		if c.Kind == KindContent {
			return c
		}
	}
	return nil
}

// DockAreaOf returns the OUTPUT's top or bottom DOCKAREA child.
func DockAreaOf(output *Container, bottom bool) *Container {
	seen := 0
	for _, c := range output.Children {
		if c.Kind != KindDockArea {
			continue
		}
		if !bottom {
			return c
		}
		seen++
		if seen == 2 {
			return c
		}
	}
	return nil
}

// UpdateUrgent recomputes c's Urgent flag by recursion: a LEAF derives it
// from its window, a non-leaf derives it from whether any descendant is
// urgent. Returns whether the value changed.
func UpdateUrgent(c *Container) bool {
	prev := c.Urgent
	if c.Kind == KindLeaf {
		// Leaf urgency is set directly from the WM_HINTS urgency bit, by
		// adopt.Adopter.Adopt and the reactor's handlePropertyNotify;
		// nothing to recompute here.
		return false
	}
	urgent := false
	for _, child := range c.Children {
		UpdateUrgent(child)
		if child.Urgent {
			urgent = true
		}
	}
	for _, fc := range c.FloatingChildren {
		UpdateUrgent(fc)
		if fc.Urgent {
			urgent = true
		}
	}
	c.Urgent = urgent
	return prev != c.Urgent
}
