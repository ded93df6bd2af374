package xconn

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/xgb/xproto"

	"github.com/patrislav/marwind/internal/config"
)

// keysyms covers the subset of X11 keysyms a tiling WM's default bindings
// actually name (letters, digits, function keys, and a few named keys such
// as Return, space, Tab, Escape and the arrows). The teacher's keysym package (which loads the full table via
// LoadKeyMapping) isn't in the retrieval pack, so GrabKeys reconstructs
// just enough of it against xproto.GetKeyboardMapping directly.
var keysyms = func() map[string]xproto.Keysym {
	m := map[string]xproto.Keysym{}
	for c := 'a'; c <= 'z'; c++ {
		m[string(c)] = xproto.Keysym(c)
	}
	for c := '0'; c <= '9'; c++ {
		m[string(c)] = xproto.Keysym(c)
	}
	for i := 1; i <= 24; i++ {
		m[fmt.Sprintf("F%d", i)] = xproto.Keysym(0xffbe + i - 1)
	}
	m["Return"] = 0xff0d
	m["space"] = 0x0020
	m["Tab"] = 0xff09
	m["Escape"] = 0xff1b
	m["Left"] = 0xff51
	m["Right"] = 0xff53
	m["Up"] = 0xff52
	m["Down"] = 0xff54
	return m
}()

var modifierBits = map[string]uint16{
	"shift":   xproto.ModMaskShift,
	"lock":    xproto.ModMaskLock,
	"ctrl":    xproto.ModMaskControl,
	"control": xproto.ModMaskControl,
	"mod1":    xproto.ModMask1,
	"alt":     xproto.ModMask1,
	"mod2":    xproto.ModMask2,
	"mod3":    xproto.ModMask3,
	"mod4":    xproto.ModMask4,
	"super":   xproto.ModMask4,
	"mod5":    xproto.ModMask5,
}

// ParseModifiers turns a "mod4+shift" style spec into an xproto bitmask.
func ParseModifiers(spec string) uint16 {
	var mask uint16
	for _, part := range strings.Split(spec, "+") {
		mask |= modifierBits[strings.ToLower(strings.TrimSpace(part))]
	}
	return mask
}

// keycodeOf maps a keysym to the first keycode the server's mapping
// advertises for it.
func (c *Conn) keycodeOf(sym xproto.Keysym) (xproto.Keycode, bool) {
	setup := xproto.Setup(c.X)
	count := int(setup.MaxKeycode-setup.MinKeycode) + 1
	reply, err := xproto.GetKeyboardMapping(c.X, setup.MinKeycode, byte(count)).Reply()
	if err != nil || reply == nil || reply.KeysymsPerKeycode == 0 {
		return 0, false
	}
	for i := 0; i < count; i++ {
		base := i * int(reply.KeysymsPerKeycode)
		for j := 0; j < int(reply.KeysymsPerKeycode); j++ {
			if reply.Keysyms[base+j] == sym {
				return xproto.Keycode(int(setup.MinKeycode) + i), true
			}
		}
	}
	return 0, false
}

// GrabKeys registers every configured keybinding on the root window,
// grounded on manager.grabKeys, generalized over the approximated keysym
// table above rather than the teacher's full LoadKeyMapping result.
func (c *Conn) GrabKeys(bindings []config.Keybinding) error {
	xproto.UngrabKeyChecked(c.X, xproto.GrabAny, c.Screen.Root, xproto.ModMaskAny).Check()
	for _, kb := range bindings {
		sym, ok := keysyms[kb.Key]
		if !ok {
			continue
		}
		code, ok := c.keycodeOf(sym)
		if !ok {
			continue
		}
		mask := ParseModifiers(kb.Modifiers)
		if err := xproto.GrabKeyChecked(c.X, true, c.Screen.Root, mask, code,
			xproto.GrabModeAsync, xproto.GrabModeAsync).Check(); err != nil {
			return fmt.Errorf("xconn: grab key %q: %w", kb.Key, err)
		}
	}
	return nil
}

// KeyPressCommand resolves a KeyPressEvent back to the command string of
// the binding it matches, or "" if none does.
func (c *Conn) KeyPressCommand(detail xproto.Keycode, state uint16, bindings []config.Keybinding) string {
	for _, kb := range bindings {
		sym, ok := keysyms[kb.Key]
		if !ok {
			continue
		}
		code, ok := c.keycodeOf(sym)
		if !ok || code != detail {
			continue
		}
		if ParseModifiers(kb.Modifiers) == state {
			return kb.Command
		}
	}
	return ""
}
