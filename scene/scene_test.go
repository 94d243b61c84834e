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

package scene_test

import (
	"testing"
	"time"

	"github.com/jetsetilly/warpcore/curated"
	"github.com/jetsetilly/warpcore/frame"
	"github.com/jetsetilly/warpcore/geometry"
	"github.com/jetsetilly/warpcore/gpu"
	"github.com/jetsetilly/warpcore/mailbox"
	"github.com/jetsetilly/warpcore/pose"
	"github.com/jetsetilly/warpcore/scene"
	"github.com/jetsetilly/warpcore/test"
	"github.com/jetsetilly/warpcore/timing"
)

const refreshPeriod = 16667

// gpu.Backend that records every issued eye render
type mockBackend struct {
	created int
	views   []geometry.Mat4
	fenced  int
}

type mockTexture struct {
	w, h int
}

func (tex *mockTexture) Dimensions() (int, int) {
	return tex.w, tex.h
}

func (be *mockBackend) CreateTexture(w int, h int) (gpu.Texture, error) {
	be.created++
	return &mockTexture{w: w, h: h}, nil
}

func (be *mockBackend) RenderEye(_ gpu.Texture, view geometry.Mat4, _ geometry.Mat4) error {
	be.views = append(be.views, view)
	return nil
}

func (be *mockBackend) SubmitAndFence() (gpu.Fence, error) {
	be.fenced++
	return gpu.Completed, nil
}

type stillPose struct{}

func (s stillPose) PredictedAtTime(micros int64) pose.Pose {
	return pose.Ident()
}

func harness(t *testing.T) (*scene.Scene, *mailbox.Mailbox, *mockBackend) {
	t.Helper()

	mbx, err := mailbox.NewMailbox(refreshPeriod)
	test.DemandSuccess(t, err)
	prd, err := timing.NewPredictor(refreshPeriod)
	test.DemandSuccess(t, err)

	be := &mockBackend{}
	scn, err := scene.NewScene(scene.DefaultConfig(), mbx, prd, be, stillPose{})
	test.DemandSuccess(t, err)

	return scn, mbx, be
}

func TestNewScene(t *testing.T) {
	mbx, err := mailbox.NewMailbox(refreshPeriod)
	test.DemandSuccess(t, err)
	prd, err := timing.NewPredictor(refreshPeriod)
	test.DemandSuccess(t, err)

	_, err = scene.NewScene(scene.DefaultConfig(), nil, prd, &mockBackend{}, stillPose{})
	test.ExpectFailure(t, err)
	test.ExpectSuccess(t, curated.Is(err, scene.MissingCollaborator))

	config := scene.DefaultConfig()
	config.Width = 0
	_, err = scene.NewScene(config, mbx, prd, &mockBackend{}, stillPose{})
	test.ExpectFailure(t, err)
	test.ExpectSuccess(t, curated.Is(err, scene.BadConfig))

	// ring texture allocation happens up front
	be := &mockBackend{}
	_, err = scene.NewScene(scene.DefaultConfig(), mbx, prd, be, stillPose{})
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, be.created, frame.MinSlots*frame.NumEyes)
}

// one RenderFrame call issues both eyes, fences each separately and submits
// a complete descriptor with the next sequence index
func TestRenderFrame(t *testing.T) {
	scn, mbx, be := harness(t)

	done := make(chan error)
	go func() {
		done <- scn.RenderFrame()
	}()

	// adopt the submission once it lands, then release the producer's
	// refresh wait
	var d frame.Descriptor
	var ok bool
	deadline := time.Now().Add(time.Second)
	for !ok {
		if time.Now().After(deadline) {
			t.Fatal("submission never arrived")
		}
		d, ok = mbx.TryAdopt(refreshPeriod)
		if !ok {
			time.Sleep(time.Millisecond)
		}
	}
	mbx.NotifyRefreshOccurred()
	test.ExpectSuccess(t, <-done)

	test.ExpectEquality(t, d.Sequence, 1)
	test.ExpectEquality(t, len(be.views), frame.NumEyes)
	test.ExpectEquality(t, be.fenced, frame.NumEyes)
	test.ExpectSuccess(t, d.Complete())

	// left and right eye views differ by the interpupillary offset
	test.ExpectInequality(t, be.views[frame.EyeLeft], be.views[frame.EyeRight])
}

// the sequence does not advance when submission fails, so the mailbox never
// sees a gap
func TestSequenceAfterEnding(t *testing.T) {
	scn, mbx, _ := harness(t)

	mbx.End()
	err := scn.RenderFrame()
	test.ExpectFailure(t, err)
	test.ExpectSuccess(t, curated.Is(err, mailbox.Ending))

	// Run treats the ending mailbox as a clean stop
	test.ExpectSuccess(t, scn.Run())
}
