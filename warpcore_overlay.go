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

package main

import (
	"github.com/jetsetilly/warpcore/clock"
	"github.com/jetsetilly/warpcore/compositor"
	"github.com/jetsetilly/warpcore/display/sdldisplay"
	"github.com/jetsetilly/warpcore/frame"
	"github.com/jetsetilly/warpcore/geometry"
	"github.com/jetsetilly/warpcore/gpu/opengl"
	"github.com/jetsetilly/warpcore/gui/overlay"
	"github.com/jetsetilly/warpcore/mailbox"
)

// overlayRenderer decorates the warp renderer with the telemetry overlay.
// it can only be used on the thread that owns the presentation context.
type overlayRenderer struct {
	warp *opengl.Renderer
	ovl  *overlay.Overlay
	dsp  *sdldisplay.Display
	mbx  *mailbox.Mailbox

	// set after compositor creation and before the compositor loop starts
	cmp *compositor.Compositor

	lastDraw int64
	fps      float32
}

func newOverlayRenderer(warp *opengl.Renderer, dsp *sdldisplay.Display, mbx *mailbox.Mailbox) (*overlayRenderer, error) {
	ovl, err := overlay.NewOverlay()
	if err != nil {
		return nil, err
	}

	return &overlayRenderer{
		warp: warp,
		ovl:  ovl,
		dsp:  dsp,
		mbx:  mbx,
	}, nil
}

func (rnd *overlayRenderer) destroy() {
	rnd.ovl.Destroy()
}

// DrawWarped implements the compositor.Renderer interface.
func (rnd *overlayRenderer) DrawWarped(d frame.Descriptor, start geometry.Mat4, end geometry.Mat4) error {
	err := rnd.warp.DrawWarped(d, start, end)
	if err != nil {
		return err
	}

	now := clock.Micros()
	dt := float32(now-rnd.lastDraw) / 1000000.0
	rnd.lastDraw = now
	if dt <= 0 {
		return nil
	}

	// smooth the frame rate readout over recent frames
	if rnd.fps == 0 {
		rnd.fps = 1 / dt
	} else {
		rnd.fps += (1/dt - rnd.fps) * 0.05
	}

	stats := overlay.Stats{
		FPS:     rnd.fps,
		Mailbox: rnd.mbx.Telemetry(),
	}
	if rnd.cmp != nil {
		stats.Loop = rnd.cmp.Telemetry()
	}

	w, h := rnd.dsp.DrawableSize()
	rnd.ovl.Draw(stats, w, h, dt)

	return nil
}
