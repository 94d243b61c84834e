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

// Package gpu defines the interface between the frame scheduling core and
// the graphics backend. The scheduling core never calls the graphics API
// directly, it only ever sees the opaque handle types defined here.
//
// The concrete OpenGL implementation is in the opengl sub-package.
package gpu

import "github.com/jetsetilly/warpcore/geometry"

// Texture is an opaque handle to one rendered eye image. Textures are created
// by the producer's backend and only ever read by the consumer after
// adoption.
type Texture interface {
	// Dimensions of the texture in pixels
	Dimensions() (width int, height int)
}

// Fence is an opaque marker of GPU command completion. Signalled is a poll,
// it must never block. The scheduling core relies on this to keep the
// consumer loop non-blocking.
type Fence interface {
	Signalled() bool
}

// Backend is the producer-side interface to the graphics API.
type Backend interface {
	// CreateTexture allocates a texture suitable for use as an eye render
	// target
	CreateTexture(width int, height int) (Texture, error)

	// RenderEye issues the rendering commands for one eye image. The commands
	// are only issued, not necessarily completed, when the function returns
	RenderEye(target Texture, view geometry.Mat4, proj geometry.Mat4) error

	// SubmitAndFence flushes all rendering commands issued so far and returns
	// a fence that will signal when the GPU has completed them
	SubmitAndFence() (Fence, error)
}

// fence that is always signalled. used for placeholder frames that have no
// GPU work attached.
type completed struct{}

func (_ completed) Signalled() bool {
	return true
}

// Completed is a Fence that always reports signalled.
var Completed Fence = completed{}
