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

// Package scene runs the producer side of the frame mailbox. It renders
// stereo eye images at its own cadence and submits them for adoption by the
// compositor.
//
// The loop is paced by the mailbox, not by a timer. Submit() returns only
// after a display refresh has elapsed, so the scene never renders faster
// than the display can show.
package scene

import (
	"sync"
	"time"

	"github.com/jetsetilly/warpcore/clock"
	"github.com/jetsetilly/warpcore/curated"
	"github.com/jetsetilly/warpcore/frame"
	"github.com/jetsetilly/warpcore/geometry"
	"github.com/jetsetilly/warpcore/gpu"
	"github.com/jetsetilly/warpcore/logger"
	"github.com/jetsetilly/warpcore/mailbox"
	"github.com/jetsetilly/warpcore/pose"
	"github.com/jetsetilly/warpcore/timing"
)

// error patterns for the Scene type.
const (
	MissingCollaborator = "scene: missing collaborator (%s)"
	BadConfig           = "scene: bad configuration (%s)"
)

// Config collects the rendering parameters of the scene loop.
type Config struct {
	// eye texture dimensions
	Width  int
	Height int

	// number of texture ring slots. must be at least frame.MinSlots
	Slots int

	// interpupillary distance in metres
	IPD float32

	// vertical field of view in radians and the clip planes of the shared
	// eye projection
	FOV  float32
	Near float32
	Far  float32
}

// DefaultConfig returns rendering parameters suitable for a typical mobile
// HMD panel.
func DefaultConfig() Config {
	return Config{
		Width:  1024,
		Height: 1024,
		Slots:  frame.MinSlots,
		IPD:    0.064,
		FOV:    1.6,
		Near:   0.1,
		Far:    1000.0,
	}
}

// Scene owns the producer loop. Run() is intended for a dedicated goroutine.
type Scene struct {
	mbx     *mailbox.Mailbox
	prd     *timing.Predictor
	backend gpu.Backend
	poses   pose.Source

	ring       *frame.Ring
	projection geometry.Mat4

	// per-eye offsets from the head pose, in head space
	eyeOffset [frame.NumEyes]geometry.Vec3

	// sequence of the next frame to be rendered
	seq int64

	quit     chan struct{}
	quitOnce sync.Once
}

// NewScene is the preferred method of initialisation for the Scene type.
// Eye textures for the whole ring are allocated through the backend before
// the function returns.
func NewScene(config Config, mbx *mailbox.Mailbox, prd *timing.Predictor,
	backend gpu.Backend, poses pose.Source) (*Scene, error) {

	switch {
	case mbx == nil:
		return nil, curated.Errorf(MissingCollaborator, "mailbox")
	case prd == nil:
		return nil, curated.Errorf(MissingCollaborator, "predictor")
	case backend == nil:
		return nil, curated.Errorf(MissingCollaborator, "gpu backend")
	case poses == nil:
		return nil, curated.Errorf(MissingCollaborator, "pose source")
	}

	if config.Width <= 0 || config.Height <= 0 {
		return nil, curated.Errorf(BadConfig, "texture dimensions")
	}
	if config.FOV <= 0 || config.Near <= 0 || config.Far <= config.Near {
		return nil, curated.Errorf(BadConfig, "projection")
	}

	ring, err := frame.NewRing(backend, config.Slots, config.Width, config.Height)
	if err != nil {
		return nil, err
	}

	aspect := float32(config.Width) / float32(config.Height)

	scn := &Scene{
		mbx:        mbx,
		prd:        prd,
		backend:    backend,
		poses:      poses,
		ring:       ring,
		projection: geometry.MatPerspective(config.FOV, aspect, config.Near, config.Far),
		quit:       make(chan struct{}),
	}
	scn.eyeOffset[frame.EyeLeft] = geometry.Vec3{-config.IPD / 2, 0, 0}
	scn.eyeOffset[frame.EyeRight] = geometry.Vec3{config.IPD / 2, 0, 0}

	return scn, nil
}

// RenderFrame renders and submits one stereo frame. Blocks in Submit() until
// the compositor has made room, which is how the loop paces itself.
//
// Returns the mailbox.Ending error once the compositor has shut the mailbox
// down. Callers should treat that as the end of the loop, not a failure.
func (scn *Scene) RenderFrame() error {
	// the sequence only advances once the frame has been accepted, so a
	// failed render does not leave a gap in the submission order
	seq := scn.seq + 1

	slot, err := scn.ring.Acquire(seq)
	if err != nil {
		return err
	}

	// the refresh this frame is aiming for. rendering starts during the
	// current refresh so the earliest achievable display is the next one
	target := scn.prd.PredictDisplayTime(scn.prd.NextFrameIndex())
	renderPose := scn.poses.PredictedAtTime(target)

	cpuStart := clock.Micros()
	headView := renderPose.ViewMatrix()

	for e := 0; e < frame.NumEyes; e++ {
		view := geometry.MatTranslate(scn.eyeOffset[e].Mul(-1)).Mul(headView)
		if err := scn.backend.RenderEye(slot.Eyes[e].Texture, view, scn.projection); err != nil {
			return curated.Errorf("scene: %v", err)
		}
		fence, err := scn.backend.SubmitAndFence()
		if err != nil {
			return curated.Errorf("scene: %v", err)
		}
		slot.Eyes[e].Fence = fence
	}

	d := frame.Descriptor{
		Sequence:          seq,
		TargetDisplayTime: target,
		Pose:              renderPose,
		Projection:        scn.projection,
		Eyes:              slot.Eyes,
		CPUTime:           time.Duration(clock.Micros()-cpuStart) * time.Microsecond,
	}

	if err := scn.mbx.Submit(d); err != nil {
		return err
	}
	scn.seq = seq

	return nil
}

// Run the producer loop until End() is called, the mailbox ends or
// rendering fails. Blocks for the lifetime of the loop so is usually run in
// its own goroutine.
func (scn *Scene) Run() error {
	logger.Log(logger.Allow, "scene", "running")
	defer logger.Log(logger.Allow, "scene", "stopped")

	for {
		select {
		case <-scn.quit:
			return nil
		default:
		}

		if err := scn.RenderFrame(); err != nil {
			if curated.Is(err, mailbox.Ending) {
				return nil
			}
			return err
		}
	}
}

// End stops the producer loop before its next frame. A loop blocked in
// Submit() is not woken, that is the mailbox End()'s job.
func (scn *Scene) End() {
	scn.quitOnce.Do(func() {
		close(scn.quit)
	})
}
