package wmcontainer

// KillPolicy controls what, if anything, Close asks the X11 side to do to
// a leaf's window before tearing it down (spec §4.1).
type KillPolicy int

const (
	KillPolicyNone KillPolicy = iota
	KillPolicyWindow
	KillPolicyClient
)

// WindowCloser is the X11-transport collaborator Close asks to unmap and,
// depending on KillPolicy, politely or forcefully close a window. The tree
// store never talks to the X11 connection directly (spec §5).
type WindowCloser interface {
	Unmap(w *Window) error
	RequestClose(w *Window) error // sends WM_DELETE_WINDOW
	ForceKill(w *Window) error    // kills the X client outright
}

// CloseReport summarizes what a Close call changed, so C4 can emit the
// workspace-empty IPC events spec §4.4 describes.
type CloseReport struct {
	ClosedLeaves      []*Container
	EmptiedWorkspaces []*Container
}

// Close recursively tears down node: every LEAF encountered is unmapped and,
// per policy, asked to close or killed; every SPLIT that becomes empty or
// single-child is eliminated; a WORKSPACE whose last content closes is
// reported (not removed — removal/pruning is a C4 decision) if it becomes
// empty. dontKillParent skips detaching node itself from its own parent,
// for callers that will immediately replace it.
func (s *Store) Close(node *Container, closer WindowCloser, policy KillPolicy, dontKillParent bool) (CloseReport, error) {
	var report CloseReport
	if err := s.closeRecursive(node, closer, policy, &report); err != nil {
		return report, err
	}
	if !dontKillParent {
		parent := node.Parent
		if parent != nil {
			s.Detach(node)
			s.afterRemoveChild(parent, &report)
			for parent.Kind == KindSplit && len(parent.Children) == 0 && parent.Parent != nil {
				grand := parent.Parent
				s.Detach(parent)
				s.afterRemoveChild(grand, &report)
				parent = grand
			}
		}
	}
	return report, nil
}

func (s *Store) closeRecursive(node *Container, closer WindowCloser, policy KillPolicy, report *CloseReport) error {
	switch node.Kind {
	case KindLeaf:
		if node.Window != nil {
			if err := closer.Unmap(node.Window); err != nil {
				return err
			}
			switch policy {
			case KillPolicyWindow:
				if err := closer.RequestClose(node.Window); err != nil {
					return err
				}
			case KillPolicyClient:
				if err := closer.ForceKill(node.Window); err != nil {
					return err
				}
			}
		}
		report.ClosedLeaves = append(report.ClosedLeaves, node)
		return nil
	default:
		// Close children depth-first; iterate a copy since closing a
		// child mutates node.Children.
		children := append([]*Container(nil), node.Children...)
		for _, child := range children {
			if err := s.closeRecursive(child, closer, policy, report); err != nil {
				return err
			}
			s.Detach(child)
			s.afterRemoveChild(node, report)
		}
		floating := append([]*Container(nil), node.FloatingChildren...)
		for _, fw := range floating {
			if err := s.closeRecursive(fw, closer, policy, report); err != nil {
				return err
			}
			s.DetachFloating(fw)
		}
		return nil
	}
}

// afterRemoveChild applies parent's RemovePolicy after one of its children
// was detached: eliminate a single-child SPLIT, report an emptied
// WORKSPACE, or let a DOCKAREA shrink (no state to update there beyond the
// slice removal already performed).
func (s *Store) afterRemoveChild(parent *Container, report *CloseReport) {
	switch parent.RemovePolicy {
	case RemovePolicySplitEliminateSingleChild:
		s.ReduceSingleChildSplit(parent)
	case RemovePolicyWorkspacePruneIfEmpty:
		if len(parent.Children) == 0 && len(parent.FloatingChildren) == 0 {
			report.EmptiedWorkspaces = append(report.EmptiedWorkspaces, parent)
		}
	case RemovePolicyDockareaShrink:
		// Nothing further: the dock area's own rect shrinks on next
		// geometry pass once it has fewer children.
	}
}

// ReduceSingleChildSplit implements spec §4.1's reduction rule: a non-
// workspace SPLIT left with exactly one child after a detach is replaced by
// that child, preserving its Percent and FocusStack slot. A WORKSPACE is
// never eliminated this way: the function acts only on KindSplit, and
// WORKSPACE containers carry RemovePolicyWorkspacePruneIfEmpty, so
// afterRemoveChild never routes them here.
func (s *Store) ReduceSingleChildSplit(split *Container) {
	if split.Kind != KindSplit {
		return
	}
	if len(split.Children) != 1 {
		return
	}
	only := split.Children[0]
	if split.Parent == nil {
		return
	}
	s.Replace(split, only)
}
