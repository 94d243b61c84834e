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

// Package sdldisplay implements the display.Display interface with an SDL
// window and an OpenGL 3.2 context.
//
// Two GL contexts are created against the same window. The presentation
// context belongs to the compositor thread and the scene context, which
// shares objects with it, belongs to the scene thread. Context ownership is
// claimed with the MakeCurrent functions, which pin the calling goroutine to
// its OS thread.
package sdldisplay

import (
	"fmt"
	"runtime"

	"github.com/go-gl/gl/v3.2-core/gl"
	"github.com/veandco/go-sdl2/sdl"

	"github.com/jetsetilly/warpcore/clock"
	"github.com/jetsetilly/warpcore/logger"
)

// refresh rate assumed when SDL cannot report one.
const fallbackRefreshRate = 60

// Display is an SDL window presented to as though it were an HMD panel. The
// window shows the two warped eye images side by side.
type Display struct {
	window *sdl.Window
	mode   sdl.DisplayMode

	presentationContext sdl.GLContext
	sceneContext        sdl.GLContext

	// in microseconds
	refreshPeriod int64

	// time of the most recent buffer swap. presentation thread only
	lastSwap int64
}

// NewDisplay is the preferred method of initialisation for the Display type.
// Must be called from the main thread. On return no GL context is current,
// the compositor and scene threads claim theirs with the MakeCurrent
// functions.
func NewDisplay(title string, width int32, height int32) (*Display, error) {
	// the SDL package calls LockOSThread() but we call it here too. it can't
	// hurt and we never unlock it in any case
	runtime.LockOSThread()

	err := sdl.Init(sdl.INIT_VIDEO)
	if err != nil {
		return nil, fmt.Errorf("sdldisplay: %w", err)
	}

	err = sdl.GLSetAttribute(sdl.GL_CONTEXT_MAJOR_VERSION, 3)
	if err != nil {
		return nil, fmt.Errorf("sdldisplay: %w", err)
	}
	err = sdl.GLSetAttribute(sdl.GL_CONTEXT_MINOR_VERSION, 2)
	if err != nil {
		return nil, fmt.Errorf("sdldisplay: %w", err)
	}
	err = sdl.GLSetAttribute(sdl.GL_CONTEXT_FLAGS, sdl.GL_CONTEXT_FORWARD_COMPATIBLE_FLAG)
	if err != nil {
		return nil, fmt.Errorf("sdldisplay: %w", err)
	}
	err = sdl.GLSetAttribute(sdl.GL_CONTEXT_PROFILE_MASK, sdl.GL_CONTEXT_PROFILE_CORE)
	if err != nil {
		return nil, fmt.Errorf("sdldisplay: %w", err)
	}

	var sdlVersion sdl.Version
	sdl.VERSION(&sdlVersion)
	logger.Logf(logger.Allow, "sdl", "version %d.%d.%d", sdlVersion.Major, sdlVersion.Minor, sdlVersion.Patch)

	dsp := &Display{}

	dsp.mode, err = sdl.GetCurrentDisplayMode(0)
	if err != nil {
		sdl.Quit()
		return nil, fmt.Errorf("sdldisplay: %w", err)
	}

	rate := dsp.mode.RefreshRate
	if rate <= 0 {
		logger.Logf(logger.Allow, "sdl", "no refresh rate reported, assuming %dHz", fallbackRefreshRate)
		rate = fallbackRefreshRate
	}
	dsp.refreshPeriod = 1000000 / int64(rate)
	logger.Logf(logger.Allow, "sdl", "refresh rate: %dHz", rate)

	dsp.window, err = sdl.CreateWindow(title,
		sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED,
		width, height,
		sdl.WINDOW_OPENGL|sdl.WINDOW_ALLOW_HIGHDPI)
	if err != nil {
		sdl.Quit()
		return nil, fmt.Errorf("sdldisplay: %w", err)
	}

	dsp.presentationContext, err = dsp.window.GLCreateContext()
	if err != nil {
		dsp.Destroy()
		return nil, fmt.Errorf("sdldisplay: %w", err)
	}
	err = dsp.window.GLMakeCurrent(dsp.presentationContext)
	if err != nil {
		dsp.Destroy()
		return nil, fmt.Errorf("sdldisplay: %w", err)
	}

	// the scene context shares textures and sync objects with the
	// presentation context
	err = sdl.GLSetAttribute(sdl.GL_SHARE_WITH_CURRENT_CONTEXT, 1)
	if err != nil {
		dsp.Destroy()
		return nil, fmt.Errorf("sdldisplay: %w", err)
	}
	dsp.sceneContext, err = dsp.window.GLCreateContext()
	if err != nil {
		dsp.Destroy()
		return nil, fmt.Errorf("sdldisplay: %w", err)
	}

	// creating the scene context leaves it current. release it so the scene
	// thread can claim it
	err = dsp.window.GLMakeCurrent(dsp.presentationContext)
	if err != nil {
		dsp.Destroy()
		return nil, fmt.Errorf("sdldisplay: %w", err)
	}

	err = gl.Init()
	if err != nil {
		dsp.Destroy()
		return nil, fmt.Errorf("sdldisplay: %w", err)
	}

	// presentation paces the compositor so the swap must block on vsync
	err = sdl.GLSetSwapInterval(1)
	if err != nil {
		logger.Logf(logger.Allow, "sdl", "cannot enable vsync: %v", err)
	}

	// release the presentation context for the compositor thread
	err = dsp.window.GLMakeCurrent(nil)
	if err != nil {
		dsp.Destroy()
		return nil, fmt.Errorf("sdldisplay: %w", err)
	}

	return dsp, nil
}

// Destroy the window and both GL contexts.
func (dsp *Display) Destroy() {
	if dsp.sceneContext != nil {
		sdl.GLDeleteContext(dsp.sceneContext)
		dsp.sceneContext = nil
	}
	if dsp.presentationContext != nil {
		sdl.GLDeleteContext(dsp.presentationContext)
		dsp.presentationContext = nil
	}
	if dsp.window != nil {
		_ = dsp.window.Destroy()
		dsp.window = nil
	}
	sdl.Quit()
}

// MakePresentationContextCurrent claims the presentation context for the
// calling goroutine. The compositor thread calls this once before its loop.
func (dsp *Display) MakePresentationContextCurrent() error {
	runtime.LockOSThread()
	err := dsp.window.GLMakeCurrent(dsp.presentationContext)
	if err != nil {
		return fmt.Errorf("sdldisplay: %w", err)
	}
	return nil
}

// MakeSceneContextCurrent claims the scene context for the calling
// goroutine. The scene thread calls this once before its loop.
func (dsp *Display) MakeSceneContextCurrent() error {
	runtime.LockOSThread()
	err := dsp.window.GLMakeCurrent(dsp.sceneContext)
	if err != nil {
		return fmt.Errorf("sdldisplay: %w", err)
	}
	return nil
}

// DrawableSize returns the size of the window in pixels.
func (dsp *Display) DrawableSize() (int32, int32) {
	return dsp.window.GLGetDrawableSize()
}

// RefreshPeriod implements the display.Display interface.
func (dsp *Display) RefreshPeriod() int64 {
	return dsp.refreshPeriod
}

// NextPredictedSwapTime implements the display.Display interface. The
// prediction extrapolates from the most recent swap, or from now before any
// swap has happened.
func (dsp *Display) NextPredictedSwapTime() int64 {
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

// Present implements the display.Display interface. With vsync enabled the
// call blocks until the swap has been queued for the next refresh.
func (dsp *Display) Present() error {
	dsp.window.GLSwap()
	dsp.lastSwap = clock.Micros()
	return nil
}
