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

package compositor_test

import (
	"sync"
	"testing"
	"time"

	"github.com/jetsetilly/warpcore/clock"
	"github.com/jetsetilly/warpcore/compositor"
	"github.com/jetsetilly/warpcore/curated"
	"github.com/jetsetilly/warpcore/frame"
	"github.com/jetsetilly/warpcore/geometry"
	"github.com/jetsetilly/warpcore/mailbox"
	"github.com/jetsetilly/warpcore/pose"
	"github.com/jetsetilly/warpcore/test"
	"github.com/jetsetilly/warpcore/timing"
)

// refresh period for these tests. much faster than a real display so the
// tests finish quickly
const refreshPeriod = 4000

// display that pretends every swap lands one refresh period from now
type fakeDisplay struct {
	presented int
}

func (d *fakeDisplay) RefreshPeriod() int64 {
	return refreshPeriod
}

func (d *fakeDisplay) NextPredictedSwapTime() int64 {
	return clock.Micros() + refreshPeriod
}

func (d *fakeDisplay) Present() error {
	d.presented++
	return nil
}

// renderer that records every descriptor it is asked to draw
type recordingRenderer struct {
	crit struct {
		sync.Mutex
		drawn []frame.Descriptor
	}
}

func (r *recordingRenderer) DrawWarped(d frame.Descriptor, start geometry.Mat4, end geometry.Mat4) error {
	r.crit.Lock()
	defer r.crit.Unlock()
	r.crit.drawn = append(r.crit.drawn, d)
	return nil
}

func (r *recordingRenderer) sequences() []int64 {
	r.crit.Lock()
	defer r.crit.Unlock()
	s := make([]int64, len(r.crit.drawn))
	for i, d := range r.crit.drawn {
		s[i] = d.Sequence
	}
	return s
}

// pose source with no movement
type stillPose struct{}

func (s stillPose) PredictedAtTime(micros int64) pose.Pose {
	return pose.Ident()
}

func harness(t *testing.T) (*mailbox.Mailbox, *compositor.Compositor, *recordingRenderer) {
	t.Helper()

	mbx, err := mailbox.NewMailbox(refreshPeriod)
	test.DemandSuccess(t, err)
	prd, err := timing.NewPredictor(refreshPeriod)
	test.DemandSuccess(t, err)

	rend := &recordingRenderer{}
	cmp, err := compositor.NewCompositor(mbx, prd, &fakeDisplay{}, stillPose{}, rend)
	test.DemandSuccess(t, err)

	return mbx, cmp, rend
}

func TestNewCompositor(t *testing.T) {
	mbx, err := mailbox.NewMailbox(refreshPeriod)
	test.DemandSuccess(t, err)
	prd, err := timing.NewPredictor(refreshPeriod)
	test.DemandSuccess(t, err)

	_, err = compositor.NewCompositor(nil, prd, &fakeDisplay{}, stillPose{}, &recordingRenderer{})
	test.ExpectFailure(t, err)
	test.ExpectSuccess(t, curated.Is(err, compositor.MissingCollaborator))

	_, err = compositor.NewCompositor(mbx, prd, &fakeDisplay{}, stillPose{}, nil)
	test.ExpectFailure(t, err)
}

// with no producer the compositor keeps presenting the placeholder. every
// refresh is a reuse and none of them stalls the loop
func TestPlaceholderOnly(t *testing.T) {
	_, cmp, rend := harness(t)

	done := make(chan error)
	go func() {
		done <- cmp.Run()
	}()

	time.Sleep(100 * time.Millisecond)
	cmp.End()
	test.ExpectSuccess(t, <-done)

	tlm := cmp.Telemetry()
	test.ExpectSuccess(t, tlm.Presented > 5, "expected multiple refreshes")
	test.ExpectEquality(t, tlm.Reused, tlm.Presented)

	for _, s := range rend.sequences() {
		test.ExpectEquality(t, s, 0)
	}
}

// submitted frames are adopted and drawn in strictly increasing sequence
// order, with reuse filling the gaps
func TestAdoptionOrder(t *testing.T) {
	mbx, cmp, rend := harness(t)

	done := make(chan error)
	go func() {
		done <- cmp.Run()
	}()

	// the producer submits as fast as the mailbox lets it. target time zero
	// means every frame is immediately due
	producer := make(chan error)
	go func() {
		var seq int64
		for {
			seq++
			d := frame.Placeholder()
			d.Sequence = seq
			if err := mbx.Submit(d); err != nil {
				producer <- err
				return
			}
		}
	}()

	time.Sleep(100 * time.Millisecond)
	cmp.End()
	test.ExpectSuccess(t, <-done)

	// shutdown released the blocked producer
	err := <-producer
	test.ExpectSuccess(t, curated.Is(err, mailbox.Ending))

	seqs := rend.sequences()
	test.ExpectSuccess(t, len(seqs) > 5, "expected multiple refreshes")

	var last int64
	var adoptions int
	for _, s := range seqs {
		test.ExpectSuccess(t, s >= last, "drawn sequence went backwards")
		if s > last {
			adoptions++
			last = s
		}
	}
	test.ExpectSuccess(t, adoptions > 0, "no frame was ever adopted")
}

// the predictor is fed one record per presented refresh
func TestPredictorFed(t *testing.T) {
	mbx, err := mailbox.NewMailbox(refreshPeriod)
	test.DemandSuccess(t, err)
	prd, err := timing.NewPredictor(refreshPeriod)
	test.DemandSuccess(t, err)

	cmp, err := compositor.NewCompositor(mbx, prd, &fakeDisplay{}, stillPose{}, &recordingRenderer{})
	test.DemandSuccess(t, err)

	done := make(chan error)
	go func() {
		done <- cmp.Run()
	}()
	time.Sleep(100 * time.Millisecond)
	cmp.End()
	test.ExpectSuccess(t, <-done)

	test.ExpectEquality(t, prd.Timing().FrameIndex, cmp.Telemetry().Presented)
	test.ExpectSuccess(t, prd.Timing().VsyncTime > 0)
}

// End() before Run() still runs the release path. a producer blocked at the
// time of shutdown is freed
func TestEndBeforeRun(t *testing.T) {
	mbx, cmp, _ := harness(t)

	producer := make(chan error)
	go func() {
		d := frame.Placeholder()
		d.Sequence = 1
		if err := mbx.Submit(d); err != nil {
			producer <- err
			return
		}
		d.Sequence = 2
		producer <- mbx.Submit(d)
	}()

	cmp.End()
	test.ExpectSuccess(t, cmp.Run())

	err := <-producer
	if err != nil {
		test.ExpectSuccess(t, curated.Is(err, mailbox.Ending))
	}
}
