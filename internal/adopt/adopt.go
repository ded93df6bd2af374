// Package adopt implements C5, window adoption & matching: binding an X11
// window to a fresh LEAF container, applying assignment rules, and placing
// the result in the tree (spec §4.5).
//
// Grounded on funkycode-marwind/manager/manager.go's addWindow/gatherWindows
// (the MapRequest handler that builds a container.Frame via
// container.ManageWindow and decides tiling vs. dock placement) and
// frame.go's setInitialProperties, generalized with the assignment-rule
// matching and floating-wrapper placement spec §4.5 adds on top.
package adopt

import (
	"fmt"
	"log/slog"
	"regexp"

	"github.com/patrislav/marwind/internal/config"
	"github.com/patrislav/marwind/internal/wmcontainer"
	"github.com/patrislav/marwind/internal/wmerr"
	"github.com/patrislav/marwind/internal/workspace"
)

// WindowProperties is everything C5 reads off a newly mapped X11 window
// before deciding where it goes (spec §6 "per-managed-window properties
// read"). PropertyReader is the X11-transport collaborator that fills it
// in; the core never parses ICCCM/EWMH property wire formats itself.
type WindowProperties struct {
	Class, Instance string
	TitleUTF8       string
	TitleUCS2       []uint16
	Leader          wmcontainer.WindowID
	TransientFor    wmcontainer.WindowID
	SupportsDelete  bool
	NeedsTakeFocus  bool
	GloballyActive  bool
	IsDock          bool
	IsUtilityType   bool // _NET_WM_WINDOW_TYPE_UTILITY: adopted as floating (spec §8)
	UrgencyHint     bool
	StrutTop        uint32
	StrutBottom     uint32
	StrutLeft       uint32
	StrutRight      uint32
}

// PropertyReader reads the ICCCM/EWMH properties of a just-mapped window.
type PropertyReader interface {
	ReadProperties(id wmcontainer.WindowID) (WindowProperties, error)
}

// Adopter binds new windows to the tree.
type Adopter struct {
	Store      *wmcontainer.Store
	Workspaces *workspace.Manager
	Config     *config.Config
	Props      PropertyReader
}

// NewAdopter builds an Adopter.
func NewAdopter(store *wmcontainer.Store, workspaces *workspace.Manager, cfg *config.Config, props PropertyReader) *Adopter {
	return &Adopter{Store: store, Workspaces: workspaces, Config: cfg, Props: props}
}

// Result describes what adoption decided, for C7 to map/configure the
// resulting window and for the caller to run any matched exec commands.
type Result struct {
	Leaf     *wmcontainer.Container
	Commands []string
}

// Adopt builds a LEAF and Window descriptor for id, applies assignment
// rules, and places the leaf in the tree (spec §4.5 steps 1-5).
func (a *Adopter) Adopt(id wmcontainer.WindowID, focusedOutput, focusedWorkspace *wmcontainer.Container) (*Result, error) {
	props, err := a.Props.ReadProperties(id)
	if err != nil {
		return nil, fmt.Errorf("adopt: read properties for %v: %w", id, err)
	}

	win := &wmcontainer.Window{
		ID:             id,
		Leader:         props.Leader,
		TransientFor:   props.TransientFor,
		Class:          props.Class,
		Instance:       props.Instance,
		TitleUTF8:      props.TitleUTF8,
		TitleUCS2:      props.TitleUCS2,
		IsDock:         props.IsDock,
		NeedsTakeFocus: props.NeedsTakeFocus,
		GloballyActive: props.GloballyActive,
		SupportsDelete: props.SupportsDelete,
		StrutTop:       props.StrutTop,
		StrutBottom:    props.StrutBottom,
		StrutLeft:      props.StrutLeft,
		StrutRight:     props.StrutRight,
		RanAssignments: map[string]bool{},
	}

	leaf := wmcontainer.NewContainer(wmcontainer.KindLeaf)
	leaf.Window = win
	leaf.Urgent = props.UrgencyHint

	toWorkspace, toOutput, floating, commands := ApplyAssignments(win, props, a.Config.Assignments)

	targetOutput := focusedOutput
	if toOutput != "" {
		if out := findOutputByName(a.Store, toOutput); out != nil {
			targetOutput = out
		} else {
			// AssignmentTargetMissing: keep focusedOutput and warn.
			slog.Warn("adopt: assigned output missing, using focused output",
				"window", id, "output", toOutput, "err", wmerr.ErrAssignmentTargetMissing)
		}
	}

	var targetWS *wmcontainer.Container
	if toWorkspace != "" {
		ws, _, err := a.Workspaces.Get(toWorkspace, targetOutput)
		if err != nil {
			return nil, fmt.Errorf("adopt: assigned workspace %q: %w", toWorkspace, err)
		}
		targetWS = ws
	} else if focusedWorkspace != nil {
		targetWS = focusedWorkspace
	} else {
		ws, _, err := a.Workspaces.Get("1", targetOutput)
		if err != nil {
			return nil, fmt.Errorf("adopt: default workspace: %w", err)
		}
		targetWS = ws
	}

	switch {
	case props.IsDock:
		if err := a.placeDock(leaf, targetOutput); err != nil {
			return nil, err
		}
	case floating || props.IsUtilityType:
		leaf.FloatingState = wmcontainer.FloatingAutoOn
		if err := a.placeFloating(leaf, targetWS); err != nil {
			return nil, err
		}
	default:
		if err := a.placeTiling(leaf, targetWS); err != nil {
			return nil, err
		}
	}

	return &Result{Leaf: leaf, Commands: commands}, nil
}

// placeTiling inserts leaf at the workspace's default insertion point when
// its layout is plain split, else wraps it in a fresh SPLIT carrying the
// workspace's stacked/tabbed layout (spec §4.5 step 3).
func (a *Adopter) placeTiling(leaf, ws *wmcontainer.Container) error {
	return PlaceTiling(a.Store, leaf, ws)
}

// placeFloating wraps leaf in a fresh FLOATING_WRAPPER attached to ws (spec
// §4.5 step 4).
func (a *Adopter) placeFloating(leaf, ws *wmcontainer.Container) error {
	return PlaceFloating(a.Store, leaf, ws)
}

// PlaceTiling inserts leaf at ws's default insertion point when ws's layout
// is plain split, else wraps it in a fresh SPLIT carrying ws's stacked/
// tabbed layout (spec §4.5 step 3). Exported so C6's "move to workspace"
// and "floating disable" operations can reuse the same placement rule
// adoption uses, rather than re-deriving it.
func PlaceTiling(store *wmcontainer.Store, leaf, ws *wmcontainer.Container) error {
	if ws.Layout == wmcontainer.LayoutSplit {
		return store.Attach(leaf, ws, false)
	}
	split := wmcontainer.NewContainer(wmcontainer.KindSplit)
	split.Layout = ws.Layout
	if err := store.Attach(split, ws, false); err != nil {
		return err
	}
	return store.Attach(leaf, split, false)
}

// PlaceFloating wraps leaf in a fresh FLOATING_WRAPPER attached to ws (spec
// §4.5 step 4). Exported for C6's "floating enable" operation.
func PlaceFloating(store *wmcontainer.Store, leaf, ws *wmcontainer.Container) error {
	wrapper := wmcontainer.NewContainer(wmcontainer.KindFloatingWrapper)
	if err := store.AttachFloating(wrapper, ws); err != nil {
		return err
	}
	return store.Attach(leaf, wrapper, false)
}

// placeDock attaches leaf to the appropriate DOCKAREA of output (spec §4.5
// step 5). Bottom-docked windows are identified by a strut reserved at the
// bottom edge rather than the top.
func (a *Adopter) placeDock(leaf, output *wmcontainer.Container) error {
	bottom := leaf.Window.StrutBottom > 0 && leaf.Window.StrutTop == 0
	area := wmcontainer.DockAreaOf(output, bottom)
	if area == nil {
		return fmt.Errorf("adopt: output has no dock area")
	}
	return a.Store.Attach(leaf, area, false)
}

func findOutputByName(store *wmcontainer.Store, name string) *wmcontainer.Container {
	for _, o := range wmcontainer.Outputs(store.Root) {
		if o.Name == name {
			return o
		}
	}
	return nil
}

// ApplyAssignments iterates assignment rules in order, skipping rules
// already recorded in win.RanAssignments. The first matching rule with a
// to_workspace/to_output action decides placement; every matching rule's
// command actions fire (spec §4.5 step 2).
func ApplyAssignments(win *wmcontainer.Window, props WindowProperties, assignments []config.Assignment) (toWorkspace, toOutput string, floating bool, commands []string) {
	for i, rule := range assignments {
		key := fmt.Sprintf("rule-%d", i)
		if win.RanAssignments[key] {
			continue
		}
		if !matchRule(win, props, rule.Match) {
			continue
		}
		win.RanAssignments[key] = true
		for _, action := range rule.Actions {
			if toWorkspace == "" && action.ToWorkspace != "" {
				toWorkspace = action.ToWorkspace
			}
			if toOutput == "" && action.ToOutput != "" {
				toOutput = action.ToOutput
			}
			if action.RunCommand != "" {
				commands = append(commands, action.RunCommand)
			}
		}
		if rule.Match.Floating != nil && *rule.Match.Floating {
			floating = true
		}
	}
	return toWorkspace, toOutput, floating, commands
}

func matchRule(win *wmcontainer.Window, props WindowProperties, m config.MatchSpec) bool {
	if m.Class != "" && m.Class != win.Class {
		return false
	}
	if m.Instance != "" && m.Instance != win.Instance {
		return false
	}
	if m.Mark != "" {
		// Marks are assigned post-adoption (C6's "mark" command); a
		// not-yet-adopted window never has one, so this predicate never
		// matches here. It is meaningful for C6's criteria matching
		// (see internal/command), which runs against the live tree.
		return false
	}
	if m.WindowID != 0 && wmcontainer.WindowID(m.WindowID) != win.ID {
		return false
	}
	if m.TransientFor != 0 && wmcontainer.WindowID(m.TransientFor) != win.TransientFor {
		return false
	}
	if m.Dock != nil && *m.Dock != props.IsDock {
		return false
	}
	if m.TitleRegexp != "" {
		re, err := regexp.Compile(m.TitleRegexp)
		if err != nil || !re.MatchString(props.TitleUTF8) {
			return false
		}
	}
	return true
}
