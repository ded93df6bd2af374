// Package xconn is the X11-transport collaborator the rest of the core
// depends on only through small interfaces (focus.Notifier,
// wmcontainer.WindowCloser, adopt.PropertyReader): it owns the single xgb
// connection, the atom cache, and every Xlib/XCB call spec §5 reserves for
// the reactor ("the X11 connection is owned by the reactor; no other
// component may call it").
//
// Grounded directly on funkycode-marwind/manager/manager.go's
// becomeWM/setFocus/takeFocusProp and the x11 package it imports (not
// present in the retrieval pack, so its CreateConnection/InitConnection/
// Atom/SetActiveWindow surface is reconstructed here against
// github.com/BurntSushi/xgb and its xproto/randr extensions directly).
package xconn

import (
	"fmt"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"

	"github.com/patrislav/marwind/internal/adopt"
	"github.com/patrislav/marwind/internal/wmcontainer"
)

// Conn wraps the single xgb connection plus the atoms and screen data every
// other method needs.
type Conn struct {
	X      *xgb.Conn
	Screen *xproto.ScreenInfo

	atoms map[string]xproto.Atom

	wmProtocols    xproto.Atom
	wmDeleteWindow xproto.Atom
	wmTakeFocus    xproto.Atom
	wmState        xproto.Atom
	netWMWindowType xproto.Atom
	netWMWindowTypeDock    xproto.Atom
	netWMWindowTypeUtility xproto.Atom
	netWMStrutPartial      xproto.Atom
	netActiveWindow        xproto.Atom
	netSupportingWMCheck   xproto.Atom
	netClientList          xproto.Atom
	netWMName              xproto.Atom
	netCurrentDesktop      xproto.Atom
}

// Connect opens the X11 connection and extension support the reactor needs
// (spec §4.7's RandR ScreenChangeNotify handling).
func Connect() (*Conn, error) {
	x, err := xgb.NewConn()
	if err != nil {
		return nil, fmt.Errorf("xconn: connect: %w", err)
	}
	if err := randr.Init(x); err != nil {
		x.Close()
		return nil, fmt.Errorf("xconn: randr init: %w", err)
	}
	setup := xproto.Setup(x)
	screen := setup.DefaultScreen(x)
	if err := randr.SelectInputChecked(x, screen.Root, randr.NotifyMaskScreenChange).Check(); err != nil {
		x.Close()
		return nil, fmt.Errorf("xconn: randr select input: %w", err)
	}
	c := &Conn{X: x, Screen: screen, atoms: map[string]xproto.Atom{}}
	c.wmProtocols = c.atom("WM_PROTOCOLS")
	c.wmDeleteWindow = c.atom("WM_DELETE_WINDOW")
	c.wmTakeFocus = c.atom("WM_TAKE_FOCUS")
	c.wmState = c.atom("WM_STATE")
	c.netWMWindowType = c.atom("_NET_WM_WINDOW_TYPE")
	c.netWMWindowTypeDock = c.atom("_NET_WM_WINDOW_TYPE_DOCK")
	c.netWMWindowTypeUtility = c.atom("_NET_WM_WINDOW_TYPE_UTILITY")
	c.netWMStrutPartial = c.atom("_NET_WM_STRUT_PARTIAL")
	c.netActiveWindow = c.atom("_NET_ACTIVE_WINDOW")
	c.netSupportingWMCheck = c.atom("_NET_SUPPORTING_WM_CHECK")
	c.netClientList = c.atom("_NET_CLIENT_LIST")
	c.netWMName = c.atom("_NET_WM_NAME")
	c.netCurrentDesktop = c.atom("_NET_CURRENT_DESKTOP")
	return c, nil
}

// Close releases the X11 connection.
func (c *Conn) Close() {
	if c.X != nil {
		c.X.Close()
	}
}

// Atom resolves and caches an arbitrary atom by name, for callers (the
// reactor's ClientMessage translation) that need atoms beyond the fixed set
// Connect resolves up front.
func (c *Conn) Atom(name string) xproto.Atom {
	return c.atom(name)
}

func (c *Conn) atom(name string) xproto.Atom {
	if a, ok := c.atoms[name]; ok {
		return a
	}
	reply, err := xproto.InternAtom(c.X, false, uint16(len(name)), name).Reply()
	if err != nil {
		return 0
	}
	c.atoms[name] = reply.Atom
	return reply.Atom
}

// BecomeWM registers for the substructure-redirect events that make this
// process the window manager, grounded on manager.becomeWM.
func (c *Conn) BecomeWM() error {
	mask := []uint32{
		uint32(xproto.EventMaskKeyPress |
			xproto.EventMaskKeyRelease |
			xproto.EventMaskButtonPress |
			xproto.EventMaskButtonRelease |
			xproto.EventMaskStructureNotify |
			xproto.EventMaskSubstructureNotify |
			xproto.EventMaskSubstructureRedirect),
	}
	return xproto.ChangeWindowAttributesChecked(c.X, c.Screen.Root, xproto.CwEventMask, mask).Check()
}

// --- focus.Notifier ---

// SetInputFocus issues a plain SetInputFocus request (spec §4.5).
func (c *Conn) SetInputFocus(w *wmcontainer.Window) error {
	if err := xproto.SetInputFocusChecked(c.X, xproto.InputFocusPointerRoot, xproto.Window(w.ID), xproto.TimeCurrentTime).Check(); err != nil {
		return err
	}
	return c.setActiveWindow(xproto.Window(w.ID))
}

// SendTakeFocus sends the WM_PROTOCOLS/WM_TAKE_FOCUS ClientMessage,
// grounded on manager.takeFocusProp (spec §4.5).
func (c *Conn) SendTakeFocus(w *wmcontainer.Window) error {
	ev := xproto.ClientMessageEvent{
		Format: 32,
		Window: xproto.Window(w.ID),
		Type:   c.wmProtocols,
		Data: xproto.ClientMessageDataUnionData32New([]uint32{
			uint32(c.wmTakeFocus), uint32(xproto.TimeCurrentTime), 0, 0, 0,
		}),
	}
	if err := xproto.SendEventChecked(c.X, false, xproto.Window(w.ID), xproto.EventMaskNoEvent, string(ev.Bytes())).Check(); err != nil {
		return err
	}
	return c.setActiveWindow(xproto.Window(w.ID))
}

// setActiveWindow mirrors manager.setFocus's unconditional x11.SetActiveWindow
// call: _NET_ACTIVE_WINDOW on the root is kept in sync with whichever of
// SetInputFocus/SendTakeFocus actually moved input focus.
func (c *Conn) setActiveWindow(win xproto.Window) error {
	data := []byte{
		byte(win), byte(win >> 8), byte(win >> 16), byte(win >> 24),
	}
	return xproto.ChangePropertyChecked(c.X, xproto.PropModeReplace, c.Screen.Root,
		c.netActiveWindow, xproto.AtomWindow, 32, 1, data).Check()
}

// --- wmcontainer.WindowCloser ---

// Unmap hides w's window, bumping the leaf's ignore_unmap_count is the
// caller's (reactor's) job since Close doesn't see the Container.
func (c *Conn) Unmap(w *wmcontainer.Window) error {
	return xproto.UnmapWindowChecked(c.X, xproto.Window(w.ID)).Check()
}

// RequestClose sends WM_DELETE_WINDOW, the polite ICCCM close request.
func (c *Conn) RequestClose(w *wmcontainer.Window) error {
	ev := xproto.ClientMessageEvent{
		Format: 32,
		Window: xproto.Window(w.ID),
		Type:   c.wmProtocols,
		Data: xproto.ClientMessageDataUnionData32New([]uint32{
			uint32(c.wmDeleteWindow), uint32(xproto.TimeCurrentTime), 0, 0, 0,
		}),
	}
	return xproto.SendEventChecked(c.X, false, xproto.Window(w.ID), xproto.EventMaskNoEvent, string(ev.Bytes())).Check()
}

// ForceKill terminates the owning X client outright (spec §4.6 "kill client").
func (c *Conn) ForceKill(w *wmcontainer.Window) error {
	return xproto.KillClientChecked(c.X, uint32(w.ID)).Check()
}

// --- geometry application ---

// ConfigureWindow pushes a container's WindowRect to the X server.
func (c *Conn) ConfigureWindow(id wmcontainer.WindowID, r wmcontainer.Rect) error {
	values := []uint32{uint32(r.X), uint32(r.Y), r.W, r.H}
	return xproto.ConfigureWindowChecked(c.X, xproto.Window(id),
		xproto.ConfigWindowX|xproto.ConfigWindowY|xproto.ConfigWindowWidth|xproto.ConfigWindowHeight,
		values,
	).Check()
}

// MapWindow/UnmapWindow toggle visibility (spec §4.7 outputs).
func (c *Conn) MapWindow(id wmcontainer.WindowID) error {
	return xproto.MapWindowChecked(c.X, xproto.Window(id)).Check()
}

func (c *Conn) UnmapWindow(id wmcontainer.WindowID) error {
	return xproto.UnmapWindowChecked(c.X, xproto.Window(id)).Check()
}

// SendClientMessage delivers a 32-bit-format ClientMessage to window,
// grounded on SendTakeFocus's SendEventChecked call. Used by the reactor for
// the I3_SYNC echo spec §5 requires (the only ClientMessage the reactor
// itself originates rather than merely translates).
func (c *Conn) SendClientMessage(window wmcontainer.WindowID, msgType xproto.Atom, data [5]uint32) error {
	ev := xproto.ClientMessageEvent{
		Format: 32,
		Window: xproto.Window(window),
		Type:   msgType,
		Data:   xproto.ClientMessageDataUnionData32New(data[:]),
	}
	return xproto.SendEventChecked(c.X, false, xproto.Window(window), xproto.EventMaskNoEvent, string(ev.Bytes())).Check()
}

var _ adopt.PropertyReader = (*Conn)(nil)
