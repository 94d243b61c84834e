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

package performance

import (
	"time"

	"github.com/jetsetilly/warpcore/clock"
	"github.com/jetsetilly/warpcore/frame"
	"github.com/jetsetilly/warpcore/geometry"
	"github.com/jetsetilly/warpcore/gpu"
)

// headlessBackend satisfies gpu.Backend without a GPU. all work completes
// immediately.
type headlessBackend struct {
	renders int
}

type headlessTexture struct {
	w, h int
}

func (tex *headlessTexture) Dimensions() (int, int) {
	return tex.w, tex.h
}

func (be *headlessBackend) CreateTexture(w int, h int) (gpu.Texture, error) {
	return &headlessTexture{w: w, h: h}, nil
}

func (be *headlessBackend) RenderEye(_ gpu.Texture, _ geometry.Mat4, _ geometry.Mat4) error {
	be.renders++
	return nil
}

func (be *headlessBackend) SubmitAndFence() (gpu.Fence, error) {
	return gpu.Completed, nil
}

// headlessDisplay satisfies display.Display without a window. when capped the
// Present() call sleeps to mimic a vsynced buffer swap.
type headlessDisplay struct {
	refreshPeriod int64
	capped        bool
	lastSwap      int64
}

func (dsp *headlessDisplay) RefreshPeriod() int64 {
	return dsp.refreshPeriod
}

func (dsp *headlessDisplay) NextPredictedSwapTime() int64 {
	now := clock.Micros()
	if dsp.lastSwap == 0 {
		return now + dsp.refreshPeriod
	}

	next := dsp.lastSwap + dsp.refreshPeriod
	for next <= now {
		next += dsp.refreshPeriod
	}
	return next
}

func (dsp *headlessDisplay) Present() error {
	if dsp.capped {
		next := dsp.lastSwap + dsp.refreshPeriod
		wait := next - clock.Micros()
		if wait > 0 {
			time.Sleep(clock.Duration(wait))
			dsp.lastSwap = next
			return nil
		}
	}
	dsp.lastSwap = clock.Micros()
	return nil
}

// nullRenderer satisfies the compositor's Renderer interface and does
// nothing at all.
type nullRenderer struct{}

func (r nullRenderer) DrawWarped(_ frame.Descriptor, _ geometry.Mat4, _ geometry.Mat4) error {
	return nil
}
