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

// Package frame defines the descriptor exchanged between the scene renderer
// and the compositor, and the ring of texture/fence slots the renderer draws
// into.
package frame

import (
	"time"

	"github.com/jetsetilly/warpcore/geometry"
	"github.com/jetsetilly/warpcore/gpu"
	"github.com/jetsetilly/warpcore/pose"
)

// NumEyes is the number of eye images in a stereo frame.
const NumEyes = 2

// Eye index values.
const (
	EyeLeft = iota
	EyeRight
)

// Eye is one rendered eye image and the fence that signals when the GPU has
// finished rendering it.
type Eye struct {
	Texture gpu.Texture
	Fence   gpu.Fence
}

// Descriptor is one rendered stereo frame offered to the compositor.
//
// The descriptor is owned by the producer while it is being composed and by
// the consumer after adoption. The texture and fence handles are recycled by
// the producer through the Ring type, they are never freed per-frame.
type Descriptor struct {
	// Sequence increases by exactly one with each submission
	Sequence int64

	// the display refresh this frame was rendered for. in microseconds, see
	// the clock package
	TargetDisplayTime int64

	// the head pose and projection the eye images were rendered with
	Pose       pose.Pose
	Projection geometry.Mat4

	Eyes [NumEyes]Eye

	// telemetry. no ownership implications
	CPUTime time.Duration
	GPUTime time.Duration
}

// Placeholder returns the default frame installed in the mailbox at
// compositor start, so the consumer always has something renderable. The
// fences report signalled because no GPU work is attached.
func Placeholder() Descriptor {
	d := Descriptor{
		Pose:       pose.Ident(),
		Projection: geometry.MatIdent(),
	}
	for i := range d.Eyes {
		d.Eyes[i].Fence = gpu.Completed
	}
	return d
}

// Complete returns true if every eye fence reports signalled. Never blocks.
func (d Descriptor) Complete() bool {
	for i := range d.Eyes {
		if d.Eyes[i].Fence == nil || !d.Eyes[i].Fence.Signalled() {
			return false
		}
	}
	return true
}

// Timing describes the most recently completed refresh. Updated once per
// refresh by the consumer and read by the producer, through the
// timing.Predictor type, to predict when a frame currently being rendered
// will reach the screen.
type Timing struct {
	FrameIndex    int64
	VsyncTime     int64
	FrameDuration int64
}
