// Package ipc implements C7's external interface (spec §6): the i3-style
// UNIX-socket wire protocol, the GET_TREE JSON dump, and event push
// framing. There is no teacher grounding for an IPC server — funkycode-
// marwind has none — so this package follows spec §6's wire description
// directly, in the stdlib encoding/json idiom every pack repo that talks
// JSON (bnema-dumber, banksean-sand) also uses.
package ipc

import (
	"github.com/patrislav/marwind/internal/wmcontainer"
)

// NodeJSON mirrors the GET_TREE reply shape of spec §6.
type NodeJSON struct {
	ID            string      `json:"id"`
	Type          int         `json:"type"`
	Orientation   string      `json:"orientation"`
	Layout        string      `json:"layout"`
	Percent       float64     `json:"percent"`
	Rect          RectJSON    `json:"rect"`
	WindowRect    RectJSON    `json:"window_rect"`
	DecoRect      RectJSON    `json:"deco_rect"`
	Geometry      RectJSON    `json:"geometry"`
	Name          string      `json:"name"`
	Num           int         `json:"num"`
	Urgent        bool        `json:"urgent"`
	Focused       bool        `json:"focused"`
	Focus         []string    `json:"focus"`
	Nodes         []*NodeJSON `json:"nodes"`
	FloatingNodes []*NodeJSON `json:"floating_nodes"`
	Window        *uint32     `json:"window"`
}

// RectJSON is the wire shape of wmcontainer.Rect.
type RectJSON struct {
	X int32  `json:"x"`
	Y int32  `json:"y"`
	W uint32 `json:"width"`
	H uint32 `json:"height"`
}

func rectJSON(r wmcontainer.Rect) RectJSON {
	return RectJSON{X: r.X, Y: r.Y, W: r.W, H: r.H}
}

func orientationName(o wmcontainer.Orientation) string {
	switch o {
	case wmcontainer.OrientHorizontal:
		return "horizontal"
	case wmcontainer.OrientVertical:
		return "vertical"
	default:
		return "none"
	}
}

func layoutName(l wmcontainer.Layout) string {
	switch l {
	case wmcontainer.LayoutStacked:
		return "stacked"
	case wmcontainer.LayoutTabbed:
		return "tabbed"
	case wmcontainer.LayoutDockArea:
		return "dockarea"
	case wmcontainer.LayoutOutput:
		return "output"
	default:
		return "splith"
	}
}

// DumpTree renders node and its descendants into the GET_TREE shape,
// marking focused the single globally focused leaf found by walking the
// root's focus-stack heads.
func DumpTree(root *wmcontainer.Container) *NodeJSON {
	focused := focusedLeaf(root)
	return dumpNode(root, focused)
}

func focusedLeaf(root *wmcontainer.Container) *wmcontainer.Container {
	node := root
	for {
		if node.Kind == wmcontainer.KindLeaf {
			return node
		}
		if len(node.FocusStack) == 0 {
			return nil
		}
		node = node.FocusStack[0]
	}
}

func dumpNode(c *wmcontainer.Container, focused *wmcontainer.Container) *NodeJSON {
	n := &NodeJSON{
		ID:          c.ID,
		Type:        int(c.Kind),
		Orientation: orientationName(c.Orientation),
		Layout:      layoutName(c.Layout),
		Percent:     c.Percent,
		Rect:        rectJSON(c.Rect),
		WindowRect:  rectJSON(c.WindowRect),
		DecoRect:    rectJSON(c.DecoRect),
		Geometry:    rectJSON(c.Rect),
		Name:        c.Name,
		Num:         c.Num,
		Urgent:      c.Urgent,
		Focused:     c == focused,
	}
	for _, f := range c.FocusStack {
		n.Focus = append(n.Focus, f.ID)
	}
	for _, child := range c.Children {
		n.Nodes = append(n.Nodes, dumpNode(child, focused))
	}
	for _, fc := range c.FloatingChildren {
		n.FloatingNodes = append(n.FloatingNodes, dumpNode(fc, focused))
	}
	if c.Window != nil {
		id := uint32(c.Window.ID)
		n.Window = &id
	}
	return n
}

// WorkspaceJSON mirrors GET_WORKSPACES's per-entry shape.
type WorkspaceJSON struct {
	ID      string   `json:"id"`
	Num     int      `json:"num"`
	Name    string   `json:"name"`
	Visible bool     `json:"visible"`
	Focused bool     `json:"focused"`
	Urgent  bool     `json:"urgent"`
	Rect    RectJSON `json:"rect"`
	Output  string   `json:"output"`
}

// DumpWorkspaces renders every workspace in the tree for GET_WORKSPACES.
func DumpWorkspaces(root *wmcontainer.Container) []WorkspaceJSON {
	focused := focusedLeaf(root)
	var out []WorkspaceJSON
	for _, ws := range wmcontainer.Workspaces(root) {
		output := wmcontainer.AncestorOfKind(ws, wmcontainer.KindOutput)
		outputName := ""
		if output != nil {
			outputName = output.Name
		}
		out = append(out, WorkspaceJSON{
			ID:      ws.ID,
			Num:     ws.Num,
			Name:    ws.Name,
			Visible: ws.FullscreenMode == wmcontainer.FullscreenOutput,
			Focused: focused != nil && wmcontainer.AncestorOfKind(focused, wmcontainer.KindWorkspace) == ws,
			Urgent:  ws.Urgent,
			Rect:    rectJSON(ws.Rect),
			Output:  outputName,
		})
	}
	return out
}

// OutputJSON mirrors GET_OUTPUTS's per-entry shape.
type OutputJSON struct {
	Name             string   `json:"name"`
	Active           bool     `json:"active"`
	Rect             RectJSON `json:"rect"`
	CurrentWorkspace string   `json:"current_workspace"`
}

// DumpOutputs renders every output for GET_OUTPUTS.
func DumpOutputs(root *wmcontainer.Container) []OutputJSON {
	var out []OutputJSON
	for _, o := range wmcontainer.Outputs(root) {
		current := ""
		for _, ws := range wmcontainer.Workspaces(o) {
			if ws.FullscreenMode == wmcontainer.FullscreenOutput {
				current = ws.Name
				break
			}
		}
		out = append(out, OutputJSON{Name: o.Name, Active: true, Rect: rectJSON(o.Rect), CurrentWorkspace: current})
	}
	return out
}
