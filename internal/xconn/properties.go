package xconn

import (
	"github.com/BurntSushi/xgb/xproto"

	"github.com/patrislav/marwind/internal/adopt"
	"github.com/patrislav/marwind/internal/wmcontainer"
)

// ReadProperties gathers the ICCCM/EWMH properties C5 needs off a just
// mapped window, implementing adopt.PropertyReader. The WM_PROTOCOLS
// byte-parsing loop is grounded on manager.takeFocusProp; everything else
// follows the same GetProperty/GetPropertyReply pattern against the
// relevant atom.
func (c *Conn) ReadProperties(id wmcontainer.WindowID) (adopt.WindowProperties, error) {
	win := xproto.Window(id)
	var props adopt.WindowProperties

	if class, instance, err := c.wmClass(win); err == nil {
		props.Class, props.Instance = class, instance
	}
	if title, ok := c.textProperty(win, c.netWMName); ok {
		props.TitleUTF8 = title
	} else if title, ok := c.textProperty(win, c.atom("WM_NAME")); ok {
		props.TitleUTF8 = title
	}

	if transient, ok := c.windowProperty(win, c.atom("WM_TRANSIENT_FOR")); ok {
		props.TransientFor = wmcontainer.WindowID(transient)
	}
	if leader, ok := c.windowProperty(win, c.atom("WM_CLIENT_LEADER")); ok {
		props.Leader = wmcontainer.WindowID(leader)
	}

	protocols := c.atomListProperty(win, c.wmProtocols)
	for _, a := range protocols {
		switch a {
		case c.wmDeleteWindow:
			props.SupportsDelete = true
		case c.wmTakeFocus:
			props.NeedsTakeFocus = true
		}
	}

	types := c.atomListProperty(win, c.netWMWindowType)
	for _, a := range types {
		switch a {
		case c.netWMWindowTypeDock:
			props.IsDock = true
		case c.netWMWindowTypeUtility:
			props.IsUtilityType = true
		}
	}

	if hints, ok := c.wmHints(win); ok {
		props.UrgencyHint = hints.urgent
		props.GloballyActive = hints.input == 0 && props.NeedsTakeFocus
	}

	if strut, ok := c.strutPartial(win); ok {
		props.StrutLeft, props.StrutRight = strut[0], strut[1]
		props.StrutTop, props.StrutBottom = strut[2], strut[3]
	}

	return props, nil
}

func (c *Conn) wmClass(win xproto.Window) (class, instance string, err error) {
	reply, err := xproto.GetProperty(c.X, false, win, xproto.AtomWmClass, xproto.AtomString, 0, 1024).Reply()
	if err != nil || reply == nil {
		return "", "", err
	}
	parts := splitNUL(reply.Value)
	if len(parts) >= 2 {
		return parts[1], parts[0], nil
	}
	if len(parts) == 1 {
		return parts[0], parts[0], nil
	}
	return "", "", nil
}

func splitNUL(b []byte) []string {
	var out []string
	start := 0
	for i, c := range b {
		if c == 0 {
			if i > start {
				out = append(out, string(b[start:i]))
			}
			start = i + 1
		}
	}
	if start < len(b) {
		out = append(out, string(b[start:]))
	}
	return out
}

func (c *Conn) textProperty(win xproto.Window, atom xproto.Atom) (string, bool) {
	reply, err := xproto.GetProperty(c.X, false, win, atom, xproto.GetPropertyTypeAny, 0, 1024).Reply()
	if err != nil || reply == nil || len(reply.Value) == 0 {
		return "", false
	}
	return string(reply.Value), true
}

func (c *Conn) windowProperty(win xproto.Window, atom xproto.Atom) (uint32, bool) {
	reply, err := xproto.GetProperty(c.X, false, win, atom, xproto.AtomWindow, 0, 1).Reply()
	if err != nil || reply == nil || len(reply.Value) < 4 {
		return 0, false
	}
	return le32(reply.Value), true
}

// atomListProperty parses a 32-bit atom array the way manager.takeFocusProp
// parses WM_PROTOCOLS, generalized to any ATOM-typed property.
func (c *Conn) atomListProperty(win xproto.Window, atom xproto.Atom) []xproto.Atom {
	reply, err := xproto.GetProperty(c.X, false, win, atom, xproto.GetPropertyTypeAny, 0, 64).Reply()
	if err != nil || reply == nil {
		return nil
	}
	var out []xproto.Atom
	for v := reply.Value; len(v) >= 4; v = v[4:] {
		out = append(out, xproto.Atom(le32(v)))
	}
	return out
}

func le32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

type wmHintsFlags struct {
	urgent bool
	input  uint32
}

const wmHintsUrgencyFlag = 1 << 8

func (c *Conn) wmHints(win xproto.Window) (wmHintsFlags, bool) {
	reply, err := xproto.GetProperty(c.X, false, win, c.atom("WM_HINTS"), xproto.GetPropertyTypeAny, 0, 9).Reply()
	if err != nil || reply == nil || len(reply.Value) < 8 {
		return wmHintsFlags{}, false
	}
	flags := le32(reply.Value[0:4])
	input := le32(reply.Value[4:8])
	return wmHintsFlags{urgent: flags&wmHintsUrgencyFlag != 0, input: input}, true
}

// strutPartial reads _NET_WM_STRUT_PARTIAL's [left,right,top,bottom,...] as
// spec §4.5's dock-placement input; a bare _NET_WM_STRUT is accepted as a
// 4-field fallback for docks that only set the older property.
func (c *Conn) strutPartial(win xproto.Window) ([4]uint32, bool) {
	reply, err := xproto.GetProperty(c.X, false, win, c.netWMStrutPartial, xproto.GetPropertyTypeAny, 0, 12).Reply()
	if err != nil || reply == nil || len(reply.Value) < 16 {
		reply, err = xproto.GetProperty(c.X, false, win, c.atom("_NET_WM_STRUT"), xproto.GetPropertyTypeAny, 0, 4).Reply()
		if err != nil || reply == nil || len(reply.Value) < 16 {
			return [4]uint32{}, false
		}
	}
	var out [4]uint32
	for i := range out {
		out[i] = le32(reply.Value[i*4 : i*4+4])
	}
	return out, true
}
