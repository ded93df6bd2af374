package xconn

import (
	"fmt"

	"github.com/BurntSushi/xgb/randr"

	"github.com/patrislav/marwind/internal/wmcontainer"
)

// ScreenOutput is a connected CRTC's name and geometry, the shape the
// reactor's output reconciliation needs (spec §3: "OUTPUTs are created when
// the monitor-discovery subsystem reports a new active CRTC").
type ScreenOutput struct {
	Name string
	Rect wmcontainer.Rect
}

// ScreenOutputs queries RandR for every currently connected, lit CRTC.
// Grounded on Connect's randr.Init: this is the query half of the RandR
// extension Connect only subscribes to.
func (c *Conn) ScreenOutputs() ([]ScreenOutput, error) {
	res, err := randr.GetScreenResources(c.X, c.Screen.Root).Reply()
	if err != nil {
		return nil, fmt.Errorf("xconn: get screen resources: %w", err)
	}
	var outs []ScreenOutput
	for _, output := range res.Outputs {
		info, err := randr.GetOutputInfo(c.X, output, 0).Reply()
		if err != nil || info.Connection != randr.ConnectionConnected || info.Crtc == 0 {
			continue
		}
		crtc, err := randr.GetCrtcInfo(c.X, info.Crtc, 0).Reply()
		if err != nil || crtc.Width == 0 || crtc.Height == 0 {
			continue
		}
		outs = append(outs, ScreenOutput{
			Name: string(info.Name),
			Rect: wmcontainer.Rect{
				X: int32(crtc.X), Y: int32(crtc.Y),
				W: uint32(crtc.Width), H: uint32(crtc.Height),
			},
		})
	}
	return outs, nil
}
