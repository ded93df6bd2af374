package command

import (
	"fmt"
	"regexp"

	"github.com/patrislav/marwind/internal/config"
	"github.com/patrislav/marwind/internal/focus"
	"github.com/patrislav/marwind/internal/geometry"
	"github.com/patrislav/marwind/internal/wmcontainer"
	"github.com/patrislav/marwind/internal/workspace"
)

// Launcher runs `exec`'s payload as a detached external process (spec
// §4.7: "double-forked and detached"). The executor never forks itself.
type Launcher interface {
	Launch(cmdline string) error
}

// Lifecycle performs the three process-level operations the closed set
// includes that no tree mutation can express.
type Lifecycle interface {
	Restart() error
	Reload() error
	Exit()
}

// Executor runs parsed command sequences against the tree (spec §4.6).
type Executor struct {
	Store      *wmcontainer.Store
	Focus      *focus.Tracker
	Notifier   focus.Notifier
	Workspaces *workspace.Manager
	Config     *config.Config
	Closer     wmcontainer.WindowCloser
	Launcher   Launcher
	Lifecycle  Lifecycle
}

// globalVerbs apply once per command rather than once per selected leaf:
// they either have no meaningful per-window target (exec, nop, restart,
// reload, exit) or already name their own target explicitly (workspace).
var globalVerbs = map[string]bool{
	"workspace": true,
	"exec":      true,
	"nop":       true,
	"restart":   true,
	"reload":    true,
	"exit":      true,
}

// Run parses and executes line, returning one Reply per semicolon-
// separated command in input order (spec §4.6).
func (e *Executor) Run(line string) []Reply {
	replies := []Reply{}
	for _, chunk := range splitTop(line, ';') {
		parsed, err := Parse(chunk)
		if err != nil {
			replies = append(replies, Reply{Success: false, Error: err.Error()})
			continue
		}
		for _, cmd := range parsed {
			replies = append(replies, e.runOne(cmd))
		}
	}
	e.Settle()
	return replies
}

func (e *Executor) runOne(cmd Parsed) Reply {
	selection := e.selectLeaves(cmd)
	for _, op := range cmd.Ops {
		if globalVerbs[op.Verb] {
			if err := e.applyGlobal(op); err != nil {
				return Reply{Success: false, Error: err.Error()}
			}
			continue
		}
		for _, leaf := range selection {
			if leaf.Parent == nil {
				continue // already killed by an earlier operation
			}
			if err := e.applyToLeaf(leaf, op); err != nil {
				return Reply{Success: false, Error: err.Error()}
			}
		}
	}
	return Reply{Success: true}
}

// selectLeaves evaluates cmd's criteria against every leaf, or, absent
// criteria, returns the single currently focused leaf (spec §4.6). An
// empty selection is not an error.
func (e *Executor) selectLeaves(cmd Parsed) []*wmcontainer.Container {
	if !cmd.HasCriteria {
		if leaf := focus.FocusedLeaf(e.Store.Root); leaf != nil && leaf.Kind == wmcontainer.KindLeaf {
			return []*wmcontainer.Container{leaf}
		}
		return nil
	}
	var out []*wmcontainer.Container
	for _, leaf := range wmcontainer.Leaves(e.Store.Root) {
		if matches(leaf, cmd.Criteria) {
			out = append(out, leaf)
		}
	}
	return out
}

func matches(leaf *wmcontainer.Container, c Criteria) bool {
	w := leaf.Window
	if w == nil {
		return false
	}
	if c.Class != "" && c.Class != w.Class {
		return false
	}
	if c.Instance != "" && c.Instance != w.Instance {
		return false
	}
	if c.Mark != "" && c.Mark != leaf.Mark {
		return false
	}
	if c.ConID != "" && c.ConID != leaf.ID {
		return false
	}
	if c.TitleRegexp != "" {
		re, err := regexp.Compile(c.TitleRegexp)
		if err != nil || !re.MatchString(w.TitleUTF8) {
			return false
		}
	}
	if c.Floating != nil && *c.Floating != leaf.FloatingState.IsFloating() {
		return false
	}
	if c.Urgent != nil && *c.Urgent != leaf.Urgent {
		return false
	}
	return true
}

func (e *Executor) applyGlobal(op Operation) error {
	switch op.Verb {
	case "exec":
		if e.Launcher == nil || len(op.Fields) == 0 {
			return nil
		}
		return e.Launcher.Launch(joinFields(op.Fields))
	case "nop":
		return nil
	case "restart":
		if e.Lifecycle != nil {
			return e.Lifecycle.Restart()
		}
		return nil
	case "reload":
		if e.Lifecycle != nil {
			return e.Lifecycle.Reload()
		}
		return nil
	case "exit":
		if e.Lifecycle != nil {
			e.Lifecycle.Exit()
		}
		return nil
	case "workspace":
		return e.applyWorkspace(op.Fields)
	default:
		return fmt.Errorf("command: unknown operation %q", op.Verb)
	}
}

func joinFields(fields []string) string {
	s := ""
	for i, f := range fields {
		if i > 0 {
			s += " "
		}
		s += f
	}
	return s
}

func (e *Executor) applyToLeaf(leaf *wmcontainer.Container, op Operation) error {
	switch op.Verb {
	case "focus":
		return e.applyFocus(leaf, op.Fields)
	case "move":
		return e.applyMove(leaf, op.Fields)
	case "resize":
		return e.applyResize(leaf, op.Fields)
	case "split":
		return e.applySplit(leaf, op.Fields)
	case "layout":
		return e.applyLayout(leaf, op.Fields)
	case "floating":
		return e.applyFloating(leaf, op.Fields)
	case "fullscreen":
		return e.applyFullscreen(leaf, op.Fields)
	case "kill":
		return e.applyKill(leaf, op.Fields)
	case "mark":
		if len(op.Fields) == 0 {
			return fmt.Errorf("command: mark needs an identifier")
		}
		leaf.Mark = op.Fields[0]
		return nil
	case "unmark":
		leaf.Mark = ""
		return nil
	default:
		return fmt.Errorf("command: unknown operation %q", op.Verb)
	}
}

// Settle runs the post-command-sequence pass spec §4.6 requires: fix
// percentages, prune empty invisible workspaces, recompute urgency, and
// recompute the geometry of every visible workspace. Single-child splits
// are not reduced here but when a child is detached (see below). It never touches the X11 connection; C7 performs the actual
// redraw once this returns.
func (e *Executor) Settle() {
	// Single-child SPLIT elimination (spec §4.1) fires at the point a child
	// is detached, not as a blanket sweep here — see detachTiling and
	// wmcontainer.Close's afterRemoveChild. A split deliberately created
	// with one child by the "split" operation must survive this step.
	wmcontainer.Walk(e.Store.Root, func(c *wmcontainer.Container) {
		if len(c.Children) > 0 {
			wmcontainer.FixPercent(c.Children)
		}
	})
	e.Workspaces.PruneEmptyInvisible()
	wmcontainer.UpdateUrgent(e.Store.Root)
	for _, ws := range wmcontainer.Workspaces(e.Store.Root) {
		if ws.FullscreenMode == wmcontainer.FullscreenOutput {
			geometry.Compute(ws, e.Config)
		}
	}
}
