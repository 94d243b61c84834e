// This file is part of Warpcore.
//
// Warpcore is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Warpcore is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Warpcore.  If not, see <https://www.gnu.org/licenses/>.

// Package overlay draws a small dear imgui panel over the warped output,
// showing the pacing counters. It runs on the compositor thread, after the
// warp pass and before the buffer swap.
package overlay

import (
	"fmt"

	"github.com/inkyblackness/imgui-go/v4"

	"github.com/jetsetilly/warpcore/compositor"
	"github.com/jetsetilly/warpcore/mailbox"
)

// Stats collects the values shown by the overlay.
type Stats struct {
	FPS     float32
	Mailbox mailbox.Telemetry
	Loop    compositor.Telemetry
}

// Overlay owns an imgui context and the GL renderer for it. Must only be
// used on the thread that owns the presentation GL context.
type Overlay struct {
	context *imgui.Context
	io      imgui.IO
	rnd     *imguiRenderer
}

// NewOverlay is the preferred method of initialisation for the Overlay type.
func NewOverlay() (*Overlay, error) {
	ovl := &Overlay{}
	ovl.context = imgui.CreateContext(nil)
	ovl.io = imgui.CurrentIO()
	ovl.io.SetIniFilename("")

	var err error
	ovl.rnd, err = newImguiRenderer(ovl.io)
	if err != nil {
		ovl.context.Destroy()
		return nil, err
	}

	return ovl, nil
}

// Destroy the imgui context and all GL objects owned by the overlay.
func (ovl *Overlay) Destroy() {
	ovl.rnd.destroy()
	ovl.context.Destroy()
}

// Draw the overlay panel for one frame. Width and height are the drawable
// size of the window in pixels and dt is the time since the previous draw in
// seconds.
func (ovl *Overlay) Draw(stats Stats, width int32, height int32, dt float32) {
	if dt <= 0 {
		dt = 1e-6
	}
	ovl.io.SetDisplaySize(imgui.Vec2{X: float32(width), Y: float32(height)})
	ovl.io.SetDeltaTime(dt)

	imgui.NewFrame()

	imgui.SetNextWindowPosV(imgui.Vec2{X: 10, Y: 10}, imgui.ConditionAlways, imgui.Vec2{})
	imgui.BeginV("pacing", nil,
		imgui.WindowFlagsNoTitleBar|imgui.WindowFlagsNoResize|
			imgui.WindowFlagsNoMove|imgui.WindowFlagsAlwaysAutoResize|
			imgui.WindowFlagsNoFocusOnAppearing|imgui.WindowFlagsNoNav)

	imgui.Text(fmt.Sprintf("%.1f fps", stats.FPS))
	imgui.Separator()
	imgui.Text(fmt.Sprintf("submitted %d   adopted %d", stats.Mailbox.Submitted, stats.Mailbox.Adopted))
	imgui.Text(fmt.Sprintf("stale %d   early %d   incomplete %d", stats.Mailbox.Stale, stats.Mailbox.Early, stats.Mailbox.Incomplete))
	imgui.Text(fmt.Sprintf("presented %d   reused %d", stats.Loop.Presented, stats.Loop.Reused))

	imgui.End()

	imgui.Render()
	ovl.rnd.render(width, height, imgui.RenderedDrawData())
}
