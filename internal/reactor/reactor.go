package reactor

import (
	"log/slog"
	"time"

	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"

	"github.com/patrislav/marwind/internal/adopt"
	"github.com/patrislav/marwind/internal/command"
	"github.com/patrislav/marwind/internal/config"
	"github.com/patrislav/marwind/internal/focus"
	"github.com/patrislav/marwind/internal/geometry"
	"github.com/patrislav/marwind/internal/ipc"
	"github.com/patrislav/marwind/internal/wmcontainer"
	"github.com/patrislav/marwind/internal/workspace"
	"github.com/patrislav/marwind/internal/xconn"
)

// IPCSink receives command lines decoded off the IPC socket and the
// process-level effects of running them (spec §5: "command records
// received over IPC during that turn are queued and executed after the
// X event batch"). *ipc.Server implements this against its own framing.
type IPCSink interface {
	// Drain returns every COMMAND request queued since the last call.
	Drain() []ipc.QueuedCommand
	// Publish broadcasts an event (spec §6: workspace/output/mode/window)
	// to subscribed IPC clients.
	Publish(event string, payload any)
}

// Reactor is C7: the event loop translating X events into C5/C6 operations
// and settled tree state back into X requests. Grounded on
// manager.Manager's Run switch, generalized with the ignore table and
// settle-then-flush ordering of spec §5.
type Reactor struct {
	Conn       *xconn.Conn
	Store      *wmcontainer.Store
	Focus      *focus.Tracker
	Workspaces *workspace.Manager
	Config     *config.Config
	Adopter    *adopt.Adopter
	Executor   *command.Executor
	IPC        IPCSink

	FocusFollowsMouse bool

	ignores   *IgnoreTable
	pendingSyncs []pendingSync

	netActiveWindow      xproto.Atom
	netWMState           xproto.Atom
	netWMStateFullscreen xproto.Atom
	netCloseWindow       xproto.Atom
	netMoveresizeWindow  xproto.Atom
	netCurrentDesktop    xproto.Atom
	i3Sync               xproto.Atom
}

// pendingSync is a queued I3_SYNC echo (spec §5: "the reactor, after the
// current settle step, sends back a ClientMessage of the same type with the
// identical payload").
type pendingSync struct {
	window wmcontainer.WindowID
	cookie uint32
}

// New wires a Reactor out of the already-constructed core collaborators.
func New(conn *xconn.Conn, store *wmcontainer.Store, tracker *focus.Tracker, workspaces *workspace.Manager, cfg *config.Config, adopter *adopt.Adopter, executor *command.Executor, ipc IPCSink) *Reactor {
	return &Reactor{
		Conn:              conn,
		Store:             store,
		Focus:             tracker,
		Workspaces:        workspaces,
		Config:            cfg,
		Adopter:           adopter,
		Executor:          executor,
		IPC:               ipc,
		FocusFollowsMouse: true,
		ignores:           NewIgnoreTable(),

		netActiveWindow:      conn.Atom("_NET_ACTIVE_WINDOW"),
		netWMState:           conn.Atom("_NET_WM_STATE"),
		netWMStateFullscreen: conn.Atom("_NET_WM_STATE_FULLSCREEN"),
		netCloseWindow:       conn.Atom("_NET_CLOSE_WINDOW"),
		netMoveresizeWindow:  conn.Atom("_NET_MOVERESIZE_WINDOW"),
		netCurrentDesktop:    conn.Atom("_NET_CURRENT_DESKTOP"),
		i3Sync:               conn.Atom("I3_SYNC"),
	}
}

// HandleEvent dispatches a single decoded X event (spec §4.7's table). It
// never waits for events; the select loop in cmd/marwind's run is what
// suspends.
func (r *Reactor) HandleEvent(ev interface{}) {
	switch e := ev.(type) {
	case xproto.MapRequestEvent:
		r.handleMapRequest(e)
	case xproto.UnmapNotifyEvent:
		r.handleUnmapNotify(e)
	case xproto.DestroyNotifyEvent:
		r.handleDestroyNotify(e)
	case xproto.ConfigureRequestEvent:
		r.handleConfigureRequest(e)
	case xproto.PropertyNotifyEvent:
		r.handlePropertyNotify(e)
	case xproto.ClientMessageEvent:
		r.handleClientMessage(e)
	case xproto.EnterNotifyEvent:
		r.handleEnterNotify(e)
	case xproto.ButtonPressEvent:
		r.handleButtonPress(e)
	case xproto.KeyPressEvent:
		r.handleKeyPress(e)
	case xproto.MappingNotifyEvent:
		r.Conn.GrabKeys(r.Config.Keybindings)
	case randr.ScreenChangeNotifyEvent:
		r.handleScreenChange(e)
	default:
		slog.Debug("reactor: unhandled event", "type", e)
	}
}

func (r *Reactor) leafByWindow(win xproto.Window) *wmcontainer.Container {
	for _, leaf := range wmcontainer.Leaves(r.Store.Root) {
		if leaf.Window != nil && leaf.Window.ID == wmcontainer.WindowID(win) {
			return leaf
		}
	}
	return nil
}

func (r *Reactor) handleMapRequest(e xproto.MapRequestEvent) {
	if r.Conn.IsOverrideRedirect(wmcontainer.WindowID(e.Window)) {
		xproto.MapWindow(r.Conn.X, e.Window)
		return
	}
	if r.leafByWindow(e.Window) != nil {
		return // already managed, e.g. a second MapRequest for the same id
	}
	focused := focus.FocusedLeaf(r.Store.Root)
	var output, ws *wmcontainer.Container
	if focused != nil {
		output = wmcontainer.AncestorOfKind(focused, wmcontainer.KindOutput)
		ws = wmcontainer.AncestorOfKind(focused, wmcontainer.KindWorkspace)
	}
	result, err := r.Adopter.Adopt(wmcontainer.WindowID(e.Window), output, ws)
	if err != nil {
		slog.Error("reactor: adopt failed", "window", e.Window, "err", err)
		return
	}
	if err := r.Conn.MapWindow(result.Leaf.Window.ID); err != nil {
		slog.Error("reactor: map failed", "window", e.Window, "err", err)
	}
	r.Focus.Focus(result.Leaf, r.Conn)
	for _, cmd := range result.Commands {
		r.Executor.Run(cmd)
	}
}

func (r *Reactor) handleUnmapNotify(e xproto.UnmapNotifyEvent) {
	leaf := r.leafByWindow(e.Window)
	if leaf == nil {
		return
	}
	if leaf.IgnoreUnmapCount > 0 {
		leaf.IgnoreUnmapCount--
		return
	}
	r.Store.Close(leaf, r.Conn, wmcontainer.KillPolicyNone, false)
}

func (r *Reactor) handleDestroyNotify(e xproto.DestroyNotifyEvent) {
	leaf := r.leafByWindow(e.Window)
	if leaf == nil {
		return
	}
	r.Store.Close(leaf, r.Conn, wmcontainer.KillPolicyNone, false)
}

func (r *Reactor) handleConfigureRequest(e xproto.ConfigureRequestEvent) {
	if r.leafByWindow(e.Window) != nil {
		r.Conn.DenyConfigureRequest(e)
		return
	}
	values := []uint32{}
	var mask uint16
	if e.ValueMask&xproto.ConfigWindowX != 0 {
		values = append(values, uint32(e.X))
		mask |= xproto.ConfigWindowX
	}
	if e.ValueMask&xproto.ConfigWindowY != 0 {
		values = append(values, uint32(e.Y))
		mask |= xproto.ConfigWindowY
	}
	if e.ValueMask&xproto.ConfigWindowWidth != 0 {
		values = append(values, uint32(e.Width))
		mask |= xproto.ConfigWindowWidth
	}
	if e.ValueMask&xproto.ConfigWindowHeight != 0 {
		values = append(values, uint32(e.Height))
		mask |= xproto.ConfigWindowHeight
	}
	xproto.ConfigureWindow(r.Conn.X, e.Window, mask, values)
}

func (r *Reactor) handlePropertyNotify(e xproto.PropertyNotifyEvent) {
	leaf := r.leafByWindow(e.Window)
	if leaf == nil {
		return
	}
	props, err := r.Conn.ReadProperties(leaf.Window.ID)
	if err != nil {
		return
	}
	leaf.Window.Class = props.Class
	leaf.Window.Instance = props.Instance
	leaf.Window.TitleUTF8 = props.TitleUTF8
	leaf.Urgent = props.UrgencyHint
	wmcontainer.UpdateUrgent(r.Store.Root)
}

// wmStateAction mirrors EWMH's _NET_WM_STATE data[0] values.
const (
	wmStateRemove = 0
	wmStateAdd    = 1
	wmStateToggle = 2
)

// handleClientMessage translates the EWMH ClientMessages spec §4.7 names
// (_NET_ACTIVE_WINDOW, _NET_WM_STATE fullscreen, _NET_CURRENT_DESKTOP,
// _NET_CLOSE_WINDOW, _NET_MOVERESIZE_WINDOW) into the corresponding C6/C4
// operation, plus the I3_SYNC round trip spec §5 requires of the reactor
// itself. Grounded on manager.go's WM_PROTOCOLS ClientMessage construction
// (SendTakeFocus/RequestClose), read in reverse: here the reactor is the
// recipient rather than the sender.
func (r *Reactor) handleClientMessage(e xproto.ClientMessageEvent) {
	switch e.Type {
	case r.i3Sync:
		data := e.Data.Data32
		r.pendingSyncs = append(r.pendingSyncs, pendingSync{window: wmcontainer.WindowID(data[0]), cookie: data[1]})
	case r.netActiveWindow:
		if leaf := r.leafByWindow(e.Window); leaf != nil {
			r.Focus.Focus(leaf, r.Conn)
		}
	case r.netWMState:
		r.handleNetWMState(e)
	case r.netCloseWindow:
		if leaf := r.leafByWindow(e.Window); leaf != nil {
			r.Store.Close(leaf, r.Conn, wmcontainer.KillPolicyNone, false)
		}
	case r.netMoveresizeWindow:
		r.handleNetMoveresizeWindow(e)
	case r.netCurrentDesktop:
		r.handleNetCurrentDesktop(e)
	}
}

func (r *Reactor) handleNetWMState(e xproto.ClientMessageEvent) {
	leaf := r.leafByWindow(e.Window)
	if leaf == nil {
		return
	}
	data := e.Data.Data32
	action := data[0]
	if xproto.Atom(data[1]) != r.netWMStateFullscreen && xproto.Atom(data[2]) != r.netWMStateFullscreen {
		return
	}
	switch action {
	case wmStateRemove:
		leaf.FullscreenMode = wmcontainer.FullscreenNone
	case wmStateAdd:
		leaf.FullscreenMode = wmcontainer.FullscreenOutput
	case wmStateToggle:
		if leaf.FullscreenMode == wmcontainer.FullscreenNone {
			leaf.FullscreenMode = wmcontainer.FullscreenOutput
		} else {
			leaf.FullscreenMode = wmcontainer.FullscreenNone
		}
	}
}

// _NET_MOVERESIZE_WINDOW's source-indication/gravity word carries which of
// x/y/width/height are present as bit 8-11 (EWMH 1.5 §3.7).
const (
	moveresizeX = 1 << 8
	moveresizeY = 1 << 9
	moveresizeW = 1 << 10
	moveresizeH = 1 << 11
)

func (r *Reactor) handleNetMoveresizeWindow(e xproto.ClientMessageEvent) {
	leaf := r.leafByWindow(e.Window)
	if leaf == nil {
		return
	}
	wrapper := wmcontainer.AncestorOfKind(leaf, wmcontainer.KindFloatingWrapper)
	if wrapper == nil {
		return // only floating windows reposition freely; tiled ones stay grid-managed
	}
	data := e.Data.Data32
	flags := data[0]
	if flags&moveresizeX != 0 {
		wrapper.Rect.X = int32(data[1])
	}
	if flags&moveresizeY != 0 {
		wrapper.Rect.Y = int32(data[2])
	}
	if flags&moveresizeW != 0 {
		wrapper.Rect.W = data[3]
	}
	if flags&moveresizeH != 0 {
		wrapper.Rect.H = data[4]
	}
}

func (r *Reactor) handleNetCurrentDesktop(e xproto.ClientMessageEvent) {
	desktop := int(e.Data.Data32[0])
	workspaces := wmcontainer.Workspaces(r.Store.Root)
	if desktop < 0 || desktop >= len(workspaces) {
		return
	}
	if err := r.Workspaces.Show(workspaces[desktop]); err != nil {
		slog.Error("reactor: _NET_CURRENT_DESKTOP", "err", err)
	}
}

func (r *Reactor) handleEnterNotify(e xproto.EnterNotifyEvent) {
	if !r.FocusFollowsMouse {
		return
	}
	leaf := r.leafByWindow(e.Event)
	if leaf == nil {
		return
	}
	r.Focus.Focus(leaf, r.Conn)
}

func (r *Reactor) handleButtonPress(e xproto.ButtonPressEvent) {
	leaf := r.leafByWindow(e.Event)
	if leaf == nil {
		return
	}
	r.Focus.Focus(leaf, r.Conn)
}

func (r *Reactor) handleKeyPress(e xproto.KeyPressEvent) {
	line := r.Conn.KeyPressCommand(e.Detail, e.State, r.Config.Keybindings)
	if line == "" {
		return
	}
	r.Executor.Run(line)
	r.Settle()
}

// handleScreenChange reconciles the tree's OUTPUTs against RandR's current
// CRTC set (spec §4.7's RandR row: "reconfigure outputs, evacuate
// workspaces from disappearing outputs"). funkycode-marwind never handles
// this at all (wm/move.go: "multiple outputs not supported yet"); this is
// built from spec.md's prose directly.
func (r *Reactor) handleScreenChange(e randr.ScreenChangeNotifyEvent) {
	outs, err := r.Conn.ScreenOutputs()
	if err != nil {
		slog.Error("reactor: screen change: query failed", "err", err)
		return
	}
	r.reconfigureOutputs(outs)
}

func (r *Reactor) reconfigureOutputs(outs []xconn.ScreenOutput) {
	live := make(map[string]xconn.ScreenOutput, len(outs))
	for _, o := range outs {
		live[o.Name] = o
	}

	var survivors, gone []*wmcontainer.Container
	for _, out := range wmcontainer.Outputs(r.Store.Root) {
		if l, ok := live[out.Name]; ok {
			out.Rect = l.Rect
			survivors = append(survivors, out)
			delete(live, out.Name)
		} else {
			gone = append(gone, out)
		}
	}

	// Evacuate every workspace from a disappearing output onto the first
	// surviving one, then detach the output itself. With no surviving
	// output left to evacuate onto, the output (and its workspaces) stay
	// put until one reappears.
	for _, out := range gone {
		if len(survivors) == 0 {
			slog.Warn("reactor: output disappeared with no survivor to evacuate onto", "output", out.Name)
			continue
		}
		target := survivors[0]
		for _, ws := range wmcontainer.Workspaces(out) {
			if err := r.Workspaces.MoveWorkspaceToOutput(ws, target); err != nil {
				slog.Error("reactor: evacuate workspace failed", "workspace", ws.Name, "err", err)
			}
		}
		r.Store.Detach(out)
	}

	// Whatever's left in live is a newly connected CRTC: give it the
	// OUTPUT/DOCKAREA/DOCKAREA/CONTENT shell run() builds at startup, plus
	// one workspace to show.
	for name, l := range live {
		r.addOutput(name, l.Rect)
	}
}

func (r *Reactor) addOutput(name string, rect wmcontainer.Rect) {
	out := wmcontainer.NewContainer(wmcontainer.KindOutput)
	out.Name = name
	out.Rect = rect
	if err := r.Store.Attach(out, r.Store.Root, false); err != nil {
		slog.Error("reactor: attach new output failed", "output", name, "err", err)
		return
	}
	if err := r.Store.Attach(wmcontainer.NewContainer(wmcontainer.KindDockArea), out, false); err != nil {
		slog.Error("reactor: attach new output's top dock area failed", "output", name, "err", err)
	}
	if err := r.Store.Attach(wmcontainer.NewContainer(wmcontainer.KindDockArea), out, false); err != nil {
		slog.Error("reactor: attach new output's bottom dock area failed", "output", name, "err", err)
	}
	if err := r.Store.Attach(wmcontainer.NewContainer(wmcontainer.KindContent), out, false); err != nil {
		slog.Error("reactor: attach new output's content failed", "output", name, "err", err)
		return
	}
	ws, err := r.Workspaces.CreateOnOutput(out)
	if err != nil {
		slog.Error("reactor: create workspace on new output failed", "output", name, "err", err)
		return
	}
	if err := r.Workspaces.Show(ws); err != nil {
		slog.Error("reactor: show workspace on new output failed", "output", name, "err", err)
	}
}

// PumpIPC runs queued IPC commands after the X event batch (spec §5's
// ordering guarantee). Each Executor.Run ends in the executor's own settle
// step; PumpIPC itself does not call Settle, which the caller runs once for
// the whole turn afterwards.
func (r *Reactor) PumpIPC() {
	if r.IPC == nil {
		return
	}
	for _, cmd := range r.IPC.Drain() {
		cmd.Respond(r.Executor.Run(cmd.Line))
	}
}

// Settle recomputes geometry and pushes it to the X server for every
// visible workspace, the redraw half of the settle step C6's Executor.Settle
// doesn't perform itself (spec §4.6, §5).
func (r *Reactor) Settle() {
	r.Executor.Settle()
	for _, ws := range wmcontainer.Workspaces(r.Store.Root) {
		output := wmcontainer.AncestorOfKind(ws, wmcontainer.KindOutput)
		if output == nil || !isVisible(ws) {
			continue
		}
		geometry.Compute(ws, r.Config)
		r.redraw(ws)
	}
	r.flushPendingSyncs()
	r.ignores.GC(time.Now())
}

// flushPendingSyncs echoes back every I3_SYNC request queued during this
// turn's event batch, now that the settle step it was waiting on has run
// (spec §5).
func (r *Reactor) flushPendingSyncs() {
	for _, sync := range r.pendingSyncs {
		data := [5]uint32{uint32(sync.window), sync.cookie, 0, 0, 0}
		if err := r.Conn.SendClientMessage(sync.window, r.i3Sync, data); err != nil {
			slog.Error("reactor: i3 sync echo failed", "window", sync.window, "err", err)
		}
	}
	r.pendingSyncs = r.pendingSyncs[:0]
}

func isVisible(ws *wmcontainer.Container) bool {
	return ws.FullscreenMode == wmcontainer.FullscreenOutput
}

func (r *Reactor) redraw(node *wmcontainer.Container) {
	if node.Kind == wmcontainer.KindLeaf && node.Window != nil {
		r.Conn.ConfigureWindow(node.Window.ID, node.WindowRect)
		return
	}
	for _, child := range node.Children {
		r.redraw(child)
	}
	for _, fw := range node.FloatingChildren {
		r.redraw(fw)
	}
}
