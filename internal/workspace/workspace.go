// Package workspace implements C4, the workspace manager: on-demand
// creation/destruction, output assignment, visibility switching,
// back-and-forth, and numbered/named ordering (spec §4.4).
//
// The teacher has no workspace manager at all — funkycode-marwind's wm.go
// preallocates a fixed maxWorkspaces array up front and manager.go carries
// a single ad-hoc *container.Workspace field — so this package is built
// from spec.md's prose directly, in the teacher's error-wrapping and
// small-single-purpose-method style (funkycode-marwind/wm/move.go's
// switchWorkspace/moveFrameToWorkspace/ensureWorkspace).
package workspace

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/patrislav/marwind/internal/config"
	"github.com/patrislav/marwind/internal/geometry"
	"github.com/patrislav/marwind/internal/wmcontainer"
	"github.com/patrislav/marwind/internal/wmerr"
)

// internalPrefix marks workspaces that are never shown by user commands and
// never pruned (spec §4.4, the "__i3" synthetic output's workspace).
const internalPrefix = "__"

// EventEmitter is the IPC collaborator notified of workspace-level changes
// (spec §6 "workspace" event).
type EventEmitter interface {
	EmitWorkspace(change string, current, old *wmcontainer.Container)
}

// Manager owns workspace lifecycle policy on top of the C1 store.
type Manager struct {
	Store  *wmcontainer.Store
	Config *config.Config
	Events EventEmitter

	prevWorkspaceName string // for back_and_forth
}

// NewManager builds a Manager bound to store and cfg.
func NewManager(store *wmcontainer.Store, cfg *config.Config, events EventEmitter) *Manager {
	return &Manager{Store: store, Config: cfg, Events: events}
}

// Get returns the workspace named name, creating it (on the output its
// assignment names, or else the focusedOutput) if absent (spec §4.4
// workspace_get).
func (m *Manager) Get(name string, focusedOutput *wmcontainer.Container) (ws *wmcontainer.Container, created bool, err error) {
	for _, w := range wmcontainer.Workspaces(m.Store.Root) {
		if w.Name == name {
			return w, false, nil
		}
	}
	target := focusedOutput
	if outName, ok := m.Config.WorkspaceOutputs[name]; ok {
		if out := findOutputByName(m.Store.Root, outName); out != nil {
			target = out
		} else {
			// ErrAssignmentTargetMissing: warn and fall back to
			// focusedOutput, which target already is.
			slog.Warn("workspace: assigned output missing, using focused output",
				"workspace", name, "output", outName, "err", wmerr.ErrAssignmentTargetMissing)
		}
	}
	if target == nil {
		return nil, false, fmt.Errorf("workspace.Get %q: no focused output available", name)
	}
	ws = wmcontainer.NewContainer(wmcontainer.KindWorkspace)
	ws.Name = name
	ws.Num = wmcontainer.ParseNum(name)
	ws.Layout = wmcontainer.LayoutSplit
	ws.Orientation = wmcontainer.OrientHorizontal
	content := wmcontainer.ContentOf(target)
	if content == nil {
		return nil, false, fmt.Errorf("workspace.Get %q: output has no content container", name)
	}
	if err := m.Store.Attach(ws, content, false); err != nil {
		return nil, false, fmt.Errorf("workspace.Get %q: %w", name, err)
	}
	return ws, true, nil
}

// CreateOnOutput synthesizes a fresh workspace on output, preferring an
// unused name from the configured keybindings' "workspace …" targets, else
// falling back to the lowest positive integer not already in use anywhere
// (spec §4.4).
func (m *Manager) CreateOnOutput(output *wmcontainer.Container) (*wmcontainer.Container, error) {
	used := map[string]bool{}
	for _, w := range wmcontainer.Workspaces(m.Store.Root) {
		used[w.Name] = true
	}
	name := ""
	for _, cand := range keybindingWorkspaceNames(m.Config.Keybindings) {
		if !used[cand] {
			name = cand
			break
		}
	}
	if name == "" {
		n := 1
		for {
			candidate := fmt.Sprintf("%d", n)
			if !used[candidate] {
				name = candidate
				break
			}
			n++
		}
	}
	content := wmcontainer.ContentOf(output)
	if content == nil {
		return nil, fmt.Errorf("workspace.CreateOnOutput: output has no content container")
	}
	ws := wmcontainer.NewContainer(wmcontainer.KindWorkspace)
	ws.Name = name
	ws.Num = wmcontainer.ParseNum(name)
	ws.Layout = wmcontainer.LayoutSplit
	ws.Orientation = wmcontainer.OrientHorizontal
	if err := m.Store.Attach(ws, content, false); err != nil {
		return nil, fmt.Errorf("workspace.CreateOnOutput: %w", err)
	}
	return ws, nil
}

func keybindingWorkspaceNames(kbs []config.Keybinding) []string {
	var names []string
	for _, kb := range kbs {
		fields := strings.Fields(kb.Command)
		if len(fields) == 2 && fields[0] == "workspace" {
			switch fields[1] {
			case "next", "prev", "next_on_output", "prev_on_output", "back_and_forth":
				continue
			}
			names = append(names, fields[1])
		}
	}
	return names
}

// Show marks ws's sibling workspaces on the same output non-fullscreen and
// ws itself output-fullscreen, remembers the previously visible workspace's
// name for back_and_forth, and prunes that previous workspace if it became
// empty, invisible, not internal, and numbered (named workspaces, Num < 0,
// are kept) (spec §4.4).
func (m *Manager) Show(ws *wmcontainer.Container) error {
	content := wmcontainer.AncestorOfKind(ws, wmcontainer.KindContent)
	if content == nil {
		return fmt.Errorf("workspace.Show: %q is not attached under a content container", ws.Name)
	}
	var previous *wmcontainer.Container
	for _, sibling := range content.Children {
		if sibling.FullscreenMode == wmcontainer.FullscreenOutput {
			previous = sibling
		}
		if sibling != ws {
			sibling.FullscreenMode = wmcontainer.FullscreenNone
		}
	}
	ws.FullscreenMode = wmcontainer.FullscreenOutput
	if previous != nil && previous != ws {
		m.prevWorkspaceName = previous.Name
	}
	if m.Events != nil {
		m.Events.EmitWorkspace("focus", ws, previous)
	}
	if previous != nil && previous != ws && isEmpty(previous) && previous.Num >= 0 && !strings.HasPrefix(previous.Name, internalPrefix) {
		m.Store.Detach(previous)
	}
	m.reassignStickyGroups(ws)
	return nil
}

// reassignStickyGroups moves the displayed member of every sticky group
// present on ws's output onto ws (spec §9's open question: "leftmost
// container that is not the source wins" when a group has more members
// than visible workspaces — here, more members than the one slot a switch
// can show). A group with a single member needs no reassignment; it's
// already sticky by virtue of never actually leaving.
func (m *Manager) reassignStickyGroups(ws *wmcontainer.Container) {
	output := wmcontainer.AncestorOfKind(ws, wmcontainer.KindOutput)
	if output == nil {
		return
	}
	groups := map[string][]*wmcontainer.Container{}
	for _, sibling := range wmcontainer.Workspaces(output) {
		for _, fw := range sibling.FloatingChildren {
			for _, leaf := range wmcontainer.Leaves(fw) {
				if leaf.StickyGroup != "" {
					groups[leaf.StickyGroup] = append(groups[leaf.StickyGroup], fw)
				}
			}
		}
	}
	for _, wrappers := range groups {
		if len(wrappers) <= 1 {
			continue
		}
		var target *wmcontainer.Container
		for _, fw := range wrappers {
			if wmcontainer.AncestorOfKind(fw, wmcontainer.KindWorkspace) != ws {
				target = fw
				break
			}
		}
		if target == nil {
			continue // every member is already on ws
		}
		m.Store.DetachFloating(target)
		m.Store.AttachFloating(target, ws)
	}
}

func isEmpty(ws *wmcontainer.Container) bool {
	return len(ws.Children) == 0 && len(ws.FloatingChildren) == 0
}

// findOutputByName returns the OUTPUT container named name, or nil.
func findOutputByName(root *wmcontainer.Container, name string) *wmcontainer.Container {
	for _, o := range wmcontainer.Outputs(root) {
		if o.Name == name {
			return o
		}
	}
	return nil
}

// orderedWorkspaces returns every workspace, numbered ones first ascending
// by Num, then named ones (Num == -1) in tree order (spec §4.4).
func orderedWorkspaces(root *wmcontainer.Container, outputOnly *wmcontainer.Container) []*wmcontainer.Container {
	all := wmcontainer.Workspaces(root)
	if outputOnly != nil {
		filtered := all[:0:0]
		for _, w := range all {
			if wmcontainer.AncestorOfKind(w, wmcontainer.KindOutput) == outputOnly {
				filtered = append(filtered, w)
			}
		}
		all = filtered
	}
	var numbered, named []*wmcontainer.Container
	for _, w := range all {
		if w.Num >= 0 {
			numbered = append(numbered, w)
		} else {
			named = append(named, w)
		}
	}
	sort.Slice(numbered, func(i, j int) bool { return numbered[i].Num < numbered[j].Num })
	return append(numbered, named...)
}

func indexOfWorkspace(list []*wmcontainer.Container, ws *wmcontainer.Container) int {
	for i, w := range list {
		if w == ws {
			return i
		}
	}
	return -1
}

// Next returns the workspace after current in the ordering of spec §4.4,
// optionally restricted to one output.
func (m *Manager) Next(current *wmcontainer.Container, sameOutputOnly bool) *wmcontainer.Container {
	if current == nil {
		return nil
	}
	var output *wmcontainer.Container
	if sameOutputOnly {
		output = wmcontainer.AncestorOfKind(current, wmcontainer.KindOutput)
	}
	list := orderedWorkspaces(m.Store.Root, output)
	idx := indexOfWorkspace(list, current)
	if idx < 0 || len(list) == 0 {
		return current
	}
	return list[(idx+1)%len(list)]
}

// Prev is Next's mirror.
func (m *Manager) Prev(current *wmcontainer.Container, sameOutputOnly bool) *wmcontainer.Container {
	if current == nil {
		return nil
	}
	var output *wmcontainer.Container
	if sameOutputOnly {
		output = wmcontainer.AncestorOfKind(current, wmcontainer.KindOutput)
	}
	list := orderedWorkspaces(m.Store.Root, output)
	idx := indexOfWorkspace(list, current)
	if idx < 0 || len(list) == 0 {
		return current
	}
	return list[(idx-1+len(list))%len(list)]
}

// BackAndForthName returns the name of the workspace that was visible
// immediately before the current one, if any. The caller recreates it with
// Get (in case it was pruned in the meantime) and then calls Show — C4
// does not resurrect containers out of thin air (spec §4.4 back_and_forth).
func (m *Manager) BackAndForthName() (string, bool) {
	return m.prevWorkspaceName, m.prevWorkspaceName != ""
}

// MoveWorkspaceToOutput relocates ws's content and floating wrappers to
// output, creating a replacement workspace on the source output first if
// this would empty it, and translating floating rectangles per spec §4.3
// (spec §4.4).
func (m *Manager) MoveWorkspaceToOutput(ws, output *wmcontainer.Container) error {
	sourceOutput := wmcontainer.AncestorOfKind(ws, wmcontainer.KindOutput)
	if sourceOutput == nil {
		return fmt.Errorf("workspace.MoveWorkspaceToOutput: %q has no source output", ws.Name)
	}
	if sourceOutput == output {
		return nil
	}
	sourceContent := wmcontainer.ContentOf(sourceOutput)
	destContent := wmcontainer.ContentOf(output)
	if destContent == nil {
		return fmt.Errorf("workspace.MoveWorkspaceToOutput: destination output has no content")
	}

	remainingSiblings := 0
	for _, w := range sourceContent.Children {
		if w != ws {
			remainingSiblings++
		}
	}
	if remainingSiblings == 0 {
		if _, err := m.CreateOnOutput(sourceOutput); err != nil {
			return fmt.Errorf("workspace.MoveWorkspaceToOutput: replacement workspace: %w", err)
		}
	}

	oldOrigin := geometry.Point{X: sourceOutput.Rect.X, Y: sourceOutput.Rect.Y}
	newOrigin := geometry.Point{X: output.Rect.X, Y: output.Rect.Y}

	m.Store.Detach(ws)
	if err := m.Store.Attach(ws, destContent, false); err != nil {
		return fmt.Errorf("workspace.MoveWorkspaceToOutput: %w", err)
	}
	for _, fw := range ws.FloatingChildren {
		geometry.TranslateFloatingForOutputMove(fw, oldOrigin, newOrigin)
	}
	return nil
}

// PruneEmptyInvisible detaches every workspace that is empty, not currently
// shown on its output, not internal, and not a named workspace — the
// settle-step half of spec §4.6's "prune empty invisible workspaces" (the
// Show-time half lives above in Show). Named workspaces (Num < 0, never
// numerically derived) are never auto-pruned: a user who creates "web" and
// briefly empties it doesn't want it to vanish behind their back.
func (m *Manager) PruneEmptyInvisible() {
	for _, ws := range wmcontainer.Workspaces(m.Store.Root) {
		if ws.FullscreenMode == wmcontainer.FullscreenOutput {
			continue
		}
		if strings.HasPrefix(ws.Name, internalPrefix) {
			continue
		}
		if ws.Num < 0 {
			continue
		}
		if isEmpty(ws) {
			m.Store.Detach(ws)
		}
	}
}

// UpdateUrgentFlag recomputes ws's Urgent flag by recursion, reporting
// whether it changed so the caller can emit an IPC event and request a
// redraw (spec §4.4).
func (m *Manager) UpdateUrgentFlag(ws *wmcontainer.Container) bool {
	changed := wmcontainer.UpdateUrgent(ws)
	if changed && m.Events != nil {
		m.Events.EmitWorkspace("urgent", ws, nil)
	}
	return changed
}
