package xconn

import (
	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"

	"github.com/patrislav/marwind/internal/wmcontainer"
)

// QueryTree lists the root's current children, filtering out
// override-redirect and already-unmapped windows, grounded on
// manager.gatherWindows (it walks x11's initial QueryTree result and skips
// anything that shouldn't be managed).
func (c *Conn) QueryTree() ([]wmcontainer.WindowID, error) {
	tree, err := xproto.QueryTree(c.X, c.Screen.Root).Reply()
	if err != nil {
		return nil, err
	}
	var out []wmcontainer.WindowID
	for _, win := range tree.Children {
		attrs, err := xproto.GetWindowAttributes(c.X, win).Reply()
		if err != nil || attrs == nil {
			continue
		}
		if attrs.OverrideRedirect || attrs.MapState != xproto.MapStateViewable {
			continue
		}
		out = append(out, wmcontainer.WindowID(win))
	}
	return out, nil
}

// DenyConfigureRequest answers a ConfigureRequestEvent with a synthetic
// ConfigureNotify carrying the window's existing geometry rather than the
// one it asked for, the standard "ignore client placement" pattern run
// verbatim in manager.Run's xproto.ConfigureRequestEvent case.
func (c *Conn) DenyConfigureRequest(e xproto.ConfigureRequestEvent) error {
	geom, err := xproto.GetGeometry(c.X, xproto.Drawable(e.Window)).Reply()
	if err != nil {
		return err
	}
	ev := xproto.ConfigureNotifyEvent{
		Event:            e.Window,
		Window:           e.Window,
		AboveSibling:     0,
		X:                geom.X,
		Y:                geom.Y,
		Width:            geom.Width,
		Height:           geom.Height,
		BorderWidth:      0,
		OverrideRedirect: false,
	}
	return xproto.SendEventChecked(c.X, false, e.Window, xproto.EventMaskStructureNotify, string(ev.Bytes())).Check()
}

// IsOverrideRedirect reports whether win opted out of window-manager
// placement (spec §4.5: override-redirect windows are never adopted).
func (c *Conn) IsOverrideRedirect(id wmcontainer.WindowID) bool {
	attrs, err := xproto.GetWindowAttributes(c.X, xproto.Window(id)).Reply()
	if err != nil || attrs == nil {
		return false
	}
	return attrs.OverrideRedirect
}

// NextEvent blocks for the next X11 event; the reactor is the only caller
// (spec §5's "X11 connection is owned by the reactor").
func (c *Conn) NextEvent() (xgb.Event, error) {
	return c.X.WaitForEvent()
}
