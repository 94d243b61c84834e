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

package mailbox_test

import (
	"testing"
	"time"

	"github.com/jetsetilly/warpcore/curated"
	"github.com/jetsetilly/warpcore/frame"
	"github.com/jetsetilly/warpcore/mailbox"
	"github.com/jetsetilly/warpcore/test"
)

// refresh period used throughout these tests. 60Hz in microseconds
const refreshPeriod = 16667

// a descriptor that is due at the given time and whose fences are signalled
func readyFrame(sequence int64, targetDisplayTime int64) frame.Descriptor {
	d := frame.Placeholder()
	d.Sequence = sequence
	d.TargetDisplayTime = targetDisplayTime
	return d
}

// fence with controllable state
type stallFence struct {
	signalled bool
}

func (f *stallFence) Signalled() bool {
	return f.signalled
}

// spin until the mailbox has seen n submissions. bridges the gap between a
// Submit() goroutine being launched and its descriptor landing in the slot
func awaitSubmissions(t *testing.T, mbx *mailbox.Mailbox, n int64) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for mbx.Telemetry().Submitted < n {
		if time.Now().After(deadline) {
			t.Fatal("submission never arrived")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestNewMailbox(t *testing.T) {
	_, err := mailbox.NewMailbox(0)
	test.ExpectFailure(t, err)
	test.ExpectSuccess(t, curated.Is(err, mailbox.BadRefresh))

	_, err = mailbox.NewMailbox(refreshPeriod)
	test.ExpectSuccess(t, err)
}

// the scenario from the scheduling contract: frame #1 is submitted for
// vsync1. the first TryAdopt at vsync0 leaves the consumer on the
// placeholder, the adopt at vsync1 returns frame #1 and the adopt at vsync2,
// with no new submission, returns nothing
func TestAdoptionScenario(t *testing.T) {
	mbx, err := mailbox.NewMailbox(refreshPeriod)
	test.DemandSuccess(t, err)

	const vsync0 = 1000000
	const vsync1 = vsync0 + refreshPeriod
	const vsync2 = vsync1 + refreshPeriod

	submitted := make(chan error)
	go func() {
		submitted <- mbx.Submit(readyFrame(1, vsync1))
	}()
	awaitSubmissions(t, mbx, 1)

	// frame #1 is not yet due at vsync0
	_, ok := mbx.TryAdopt(vsync0)
	test.ExpectFailure(t, ok)
	mbx.NotifyRefreshOccurred()

	// frame #1 is due at vsync1
	d, ok := mbx.TryAdopt(vsync1)
	test.ExpectSuccess(t, ok)
	test.ExpectEquality(t, d.Sequence, 1)
	mbx.NotifyRefreshOccurred()

	// the refresh tick released the producer
	test.ExpectSuccess(t, <-submitted)

	// no new submission: vsync2 has nothing to adopt and the compositor
	// re-presents frame #1 with a recomputed correction
	_, ok = mbx.TryAdopt(vsync2)
	test.ExpectFailure(t, ok)

	tlm := mbx.Telemetry()
	test.ExpectEquality(t, tlm.Adopted, 1)
	test.ExpectEquality(t, tlm.Early, 1)
	test.ExpectEquality(t, tlm.Stale, 1)
}

// sequence indices returned by successful adoptions are strictly increasing
// and the same index is never adopted twice
func TestAdoptionMonotonicity(t *testing.T) {
	mbx, err := mailbox.NewMailbox(refreshPeriod)
	test.DemandSuccess(t, err)

	var now int64
	var lastAdopted int64

	done := make(chan bool)
	go func() {
		for i := int64(1); i <= 10; i++ {
			if mbx.Submit(readyFrame(i, 0)) != nil {
				break
			}
		}
		done <- true
	}()

	adopted := 0
	for adopted < 10 {
		now += refreshPeriod
		d, ok := mbx.TryAdopt(now)
		if ok {
			test.ExpectSuccess(t, d.Sequence > lastAdopted, "sequence must increase")
			lastAdopted = d.Sequence
			adopted++
		}
		mbx.NotifyRefreshOccurred()
	}

	<-done
	test.ExpectEquality(t, lastAdopted, 10)
}

// Submit for frame n+1 cannot complete its first wait until frame n has been
// adopted
func TestAtMostOneInFlight(t *testing.T) {
	mbx, err := mailbox.NewMailbox(refreshPeriod)
	test.DemandSuccess(t, err)

	// the first submission proceeds immediately because of the mailbox's
	// initial unconsumed placeholder state. it then blocks waiting for a
	// refresh tick
	first := make(chan error)
	go func() {
		first <- mbx.Submit(readyFrame(1, 0))
	}()
	mbx.NotifyRefreshOccurred()
	test.ExpectSuccess(t, <-first)

	// the second submission must block: frame #1 has not been adopted
	second := make(chan error)
	go func() {
		second <- mbx.Submit(readyFrame(2, 0))
	}()

	select {
	case <-second:
		t.Fatal("submission completed before previous frame was adopted")
	case <-time.After(50 * time.Millisecond):
	}

	// adopting frame #1 releases the second submission
	_, ok := mbx.TryAdopt(refreshPeriod)
	test.ExpectSuccess(t, ok)
	mbx.NotifyRefreshOccurred()
	test.ExpectSuccess(t, <-second)

	mbx.End()
}

// a frame whose target display time is in the future, beyond the half
// refresh margin, is never adopted
func TestNoEarlyDisplay(t *testing.T) {
	mbx, err := mailbox.NewMailbox(refreshPeriod)
	test.DemandSuccess(t, err)

	const target = 10 * refreshPeriod

	go func() {
		_ = mbx.Submit(readyFrame(1, target))
	}()
	awaitSubmissions(t, mbx, 1)

	// just inside the margin: too early
	_, ok := mbx.TryAdopt(target - refreshPeriod/2 - 1)
	test.ExpectFailure(t, ok)

	// on the margin: adoptable
	_, ok = mbx.TryAdopt(target - refreshPeriod/2)
	test.ExpectSuccess(t, ok)

	mbx.End()
}

// a frame with an unsignalled fence is never adopted, no matter how many
// refreshes pass. the consumer is not blocked by the stalled frame
func TestGpuStall(t *testing.T) {
	mbx, err := mailbox.NewMailbox(refreshPeriod)
	test.DemandSuccess(t, err)

	// frame #1 adopts normally
	go func() {
		_ = mbx.Submit(readyFrame(1, 0))
	}()
	awaitSubmissions(t, mbx, 1)

	var now int64
	adoptedFirst := false
	for i := 0; i < 100 && !adoptedFirst; i++ {
		now += refreshPeriod
		_, adoptedFirst = mbx.TryAdopt(now)
		mbx.NotifyRefreshOccurred()
	}
	test.DemandSuccess(t, adoptedFirst)

	// frame #2 has one fence that never signals. simulated GPU stall
	stalled := readyFrame(2, 0)
	stalled.Eyes[frame.EyeRight].Fence = &stallFence{}
	go func() {
		_ = mbx.Submit(stalled)
	}()
	awaitSubmissions(t, mbx, 2)

	// frame #2 is refused indefinitely and the consumer keeps going
	for i := 0; i < 10; i++ {
		now += refreshPeriod
		_, ok := mbx.TryAdopt(now)
		test.ExpectFailure(t, ok)
		mbx.NotifyRefreshOccurred()
	}

	test.ExpectSuccess(t, mbx.Telemetry().Incomplete >= 10)

	mbx.End()
}

// TryAdopt returns promptly even when the producer never submits
func TestNonBlockingConsumer(t *testing.T) {
	mbx, err := mailbox.NewMailbox(refreshPeriod)
	test.DemandSuccess(t, err)

	start := time.Now()
	for i := 0; i < 1000; i++ {
		_, ok := mbx.TryAdopt(int64(i) * refreshPeriod)
		test.ExpectFailure(t, ok)
	}

	// a thousand misses should be near instant. the generous bound guards
	// against a TryAdopt that secretly waits
	test.ExpectSuccess(t, time.Since(start) < time.Second)
}

// out of order submission is a producer bug and is reported as an error. the
// mailbox remains usable afterwards
func TestBadSequence(t *testing.T) {
	mbx, err := mailbox.NewMailbox(refreshPeriod)
	test.DemandSuccess(t, err)

	result := make(chan error)
	go func() {
		result <- mbx.Submit(readyFrame(5, 0))
	}()
	err = <-result
	test.ExpectFailure(t, err)
	test.ExpectSuccess(t, curated.Is(err, mailbox.BadSequence))

	// the correct next sequence still submits
	go func() {
		result <- mbx.Submit(readyFrame(1, 0))
	}()
	awaitSubmissions(t, mbx, 1)
	mbx.NotifyRefreshOccurred()
	_, ok := mbx.TryAdopt(refreshPeriod)
	test.ExpectSuccess(t, ok)
	test.ExpectSuccess(t, <-result)
}

// End() releases a producer blocked in either of Submit's waits
func TestEndReleasesProducer(t *testing.T) {
	mbx, err := mailbox.NewMailbox(refreshPeriod)
	test.DemandSuccess(t, err)

	// blocked in the refresh wait
	refreshWait := make(chan error)
	go func() {
		refreshWait <- mbx.Submit(readyFrame(1, 0))
	}()
	awaitSubmissions(t, mbx, 1)

	// blocked in the consumed wait. frame #1 has entered the slot but will
	// never be adopted in this test
	consumedWait := make(chan error)
	go func() {
		consumedWait <- mbx.Submit(readyFrame(2, 0))
	}()

	time.Sleep(50 * time.Millisecond)
	mbx.End()

	for _, ch := range []chan error{refreshWait, consumedWait} {
		select {
		case err := <-ch:
			test.ExpectFailure(t, err)
			test.ExpectSuccess(t, curated.Is(err, mailbox.Ending))
		case <-time.After(time.Second):
			t.Fatal("End() did not release a blocked Submit()")
		}
	}
}
