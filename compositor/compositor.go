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

// Package compositor runs the consumer side of the frame mailbox. Once per
// display refresh it adopts the newest eligible frame, recomputes the time
// warp correction for the predicted display pose and presents the result.
//
// Adoption failure is normal. The compositor simply re-warps the frame it
// already holds, so head rotation keeps tracking even when the scene loop
// has fallen behind.
package compositor

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/jetsetilly/warpcore/clock"
	"github.com/jetsetilly/warpcore/curated"
	"github.com/jetsetilly/warpcore/display"
	"github.com/jetsetilly/warpcore/frame"
	"github.com/jetsetilly/warpcore/geometry"
	"github.com/jetsetilly/warpcore/logger"
	"github.com/jetsetilly/warpcore/mailbox"
	"github.com/jetsetilly/warpcore/pose"
	"github.com/jetsetilly/warpcore/timing"
	"github.com/jetsetilly/warpcore/warp"
)

// error patterns for the Compositor type.
const (
	MissingCollaborator = "compositor: missing collaborator (%s)"
)

// Renderer draws a held frame with the supplied warp transforms. The start
// and end transforms correspond to the first and last scanline of the
// refresh and are blended between by scanline position.
type Renderer interface {
	DrawWarped(d frame.Descriptor, start geometry.Mat4, end geometry.Mat4) error
}

// Compositor owns the consumer loop. Run() is intended for a dedicated
// goroutine. All other methods are safe to call from elsewhere.
type Compositor struct {
	mbx   *mailbox.Mailbox
	prd   *timing.Predictor
	disp  display.Display
	poses pose.Source
	rend  Renderer

	// the frame currently being presented. the placeholder until the first
	// adoption. loop-local, never shared
	held frame.Descriptor

	// time of the previous presentation. zero until the first refresh
	lastSwap int64

	quit     chan struct{}
	quitOnce sync.Once

	tlm telemetry
}

// NewCompositor is the preferred method of initialisation for the Compositor
// type. All collaborators are required.
func NewCompositor(mbx *mailbox.Mailbox, prd *timing.Predictor,
	disp display.Display, poses pose.Source, rend Renderer) (*Compositor, error) {

	switch {
	case mbx == nil:
		return nil, curated.Errorf(MissingCollaborator, "mailbox")
	case prd == nil:
		return nil, curated.Errorf(MissingCollaborator, "predictor")
	case disp == nil:
		return nil, curated.Errorf(MissingCollaborator, "display")
	case poses == nil:
		return nil, curated.Errorf(MissingCollaborator, "pose source")
	case rend == nil:
		return nil, curated.Errorf(MissingCollaborator, "renderer")
	}

	return &Compositor{
		mbx:   mbx,
		prd:   prd,
		disp:  disp,
		poses: poses,
		rend:  rend,
		held:  frame.Placeholder(),
		quit:  make(chan struct{}),
	}, nil
}

// Run the consumer loop until End() is called or the renderer or display
// fails. Blocks for the lifetime of the loop so is usually run in its own
// goroutine.
//
// On return, by whichever path, the producer has been force-released from
// any blocked Submit() so joining the producer thread cannot deadlock.
func (cmp *Compositor) Run() error {
	logger.Log(logger.Allow, "compositor", "running")
	defer cmp.release()

	for {
		refresh := cmp.disp.RefreshPeriod()
		next := cmp.disp.NextPredictedSwapTime()

		// idle until close to the predicted swap, leaving half a refresh for
		// the warp pass to beat the deadline
		if !cmp.idle(next - refresh/2) {
			return nil
		}

		// at most one adoption attempt per refresh
		if d, ok := cmp.mbx.TryAdopt(next); ok {
			cmp.held = d
		} else {
			cmp.tlm.reused.Add(1)
		}

		// the correction is recomputed every refresh, whether or not a new
		// frame was adopted, so a carried over frame still tracks the head
		startView := cmp.poses.PredictedAtTime(next).ViewMatrix()
		endView := cmp.poses.PredictedAtTime(next + refresh).ViewMatrix()
		start, end := warp.ComputeCorrection(cmp.held.Projection,
			cmp.held.Pose.ViewMatrix(), startView, endView)

		if err := cmp.rend.DrawWarped(cmp.held, start, end); err != nil {
			return curated.Errorf("compositor: %v", err)
		}
		if err := cmp.disp.Present(); err != nil {
			return curated.Errorf("compositor: %v", err)
		}

		swap := clock.Micros()
		dur := refresh
		if cmp.lastSwap > 0 {
			dur = swap - cmp.lastSwap
		}
		cmp.lastSwap = swap
		cmp.prd.RecordRefresh(swap, dur)
		cmp.tlm.presented.Add(1)

		cmp.mbx.NotifyRefreshOccurred()
	}
}

// sleep until the deadline, waking early if End() is called. returns false
// on quit
func (cmp *Compositor) idle(deadline int64) bool {
	wait := deadline - clock.Micros()
	if wait <= 0 {
		select {
		case <-cmp.quit:
			return false
		default:
			return true
		}
	}

	tck := time.NewTimer(clock.Duration(wait))
	defer tck.Stop()
	select {
	case <-cmp.quit:
		return false
	case <-tck.C:
		return true
	}
}

// wake and permanently release the producer. without this the producer's
// Submit() would block forever once the loop stops ticking
func (cmp *Compositor) release() {
	cmp.mbx.NotifyRefreshOccurred()
	cmp.mbx.End()
	logger.Log(logger.Allow, "compositor", "stopped")
}

// End stops the consumer loop. Safe to call from any goroutine and more than
// once.
func (cmp *Compositor) End() {
	cmp.quitOnce.Do(func() {
		close(cmp.quit)
	})
}

type telemetry struct {
	presented atomic.Int64
	reused    atomic.Int64
}

// Telemetry is a snapshot of the compositor counters. Reused counts the
// refreshes that re-presented a carried over frame.
type Telemetry struct {
	Presented int64
	Reused    int64
}

// Telemetry returns a snapshot of the compositor counters.
func (cmp *Compositor) Telemetry() Telemetry {
	return Telemetry{
		Presented: cmp.tlm.presented.Load(),
		Reused:    cmp.tlm.reused.Load(),
	}
}
