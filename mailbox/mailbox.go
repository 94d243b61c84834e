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

package mailbox

import (
	"sync"
	"sync/atomic"

	"github.com/jetsetilly/warpcore/curated"
	"github.com/jetsetilly/warpcore/frame"
)

// error patterns for the Mailbox type.
const (
	Ending      = "mailbox: ending"
	BadRefresh  = "mailbox: refresh period must be positive (%d)"
	BadSequence = "mailbox: submission out of order (%d after %d)"
)

// Mailbox is the single-slot, versioned frame exchange. See the package
// documentation for the scheduling contract.
type Mailbox struct {
	// half of this is the "never display early" margin used by TryAdopt()
	refreshPeriod int64

	// for clarity, variables accessed in the critical section are
	// encapsulated in their own subtype. the consumer only ever attempts the
	// section with TryLock()
	crit struct {
		section sync.Mutex

		// the slot
		desc frame.Descriptor

		// the newest sequence the consumer has adopted. adoption is strictly
		// increasing
		lastAdopted int64
	}

	// sequence of the most recent submission. producer side only
	lastSubmitted int64

	// raised by TryAdopt() on adoption, consumed by the first wait in
	// Submit()
	consumed signal

	// raised by NotifyRefreshOccurred(), consumed by the second wait in
	// Submit(), cleared by a successful TryAdopt() so that one refresh tick
	// releases exactly one submission
	refresh signal

	// closed by End(). frees a producer blocked in Submit()
	ending  chan struct{}
	endOnce sync.Once

	tlm telemetry
}

// NewMailbox is the preferred method of initialisation for the Mailbox type.
// The slot is primed with the placeholder frame and the consumed signal is
// raised, so the first Submit() does not wait for an adoption that can never
// happen.
func NewMailbox(refreshPeriod int64) (*Mailbox, error) {
	if refreshPeriod <= 0 {
		return nil, curated.Errorf(BadRefresh, refreshPeriod)
	}

	mbx := &Mailbox{
		refreshPeriod: refreshPeriod,
		consumed:      newSignal(),
		refresh:       newSignal(),
		ending:        make(chan struct{}),
	}
	mbx.crit.desc = frame.Placeholder()
	mbx.consumed.raise()

	return mbx, nil
}

// Submit a frame descriptor for adoption by the compositor. Producer-side.
// May block, the caller must hold no other locks.
//
// Submission waits until the previous frame has been consumed, bounding the
// number of in-flight frames to one, and then waits for a refresh tick so
// the producer advances no faster than the display even when rendering is
// cheap.
//
// Returns the Ending error, and no other, once End() has been called.
func (mbx *Mailbox) Submit(d frame.Descriptor) error {
	if !mbx.consumed.wait(mbx.ending) {
		return curated.Errorf(Ending)
	}

	mbx.crit.section.Lock()
	if d.Sequence != mbx.lastSubmitted+1 {
		prev := mbx.lastSubmitted
		mbx.crit.section.Unlock()

		// the slot has not been replaced. reraise the consumed pulse eaten by
		// the wait above so the next submission is not gated on an adoption
		// of a frame that was never offered
		mbx.consumed.raise()

		return curated.Errorf(BadSequence, d.Sequence, prev)
	}
	mbx.lastSubmitted = d.Sequence
	mbx.crit.desc = d
	mbx.crit.section.Unlock()

	mbx.tlm.submitted.Add(1)

	if !mbx.refresh.wait(mbx.ending) {
		return curated.Errorf(Ending)
	}

	return nil
}

// TryAdopt offers the newest eligible frame to the compositor. Consumer-side,
// never blocks.
//
// Returns false if the critical section is contended, if the slotted frame
// has already been adopted, if its target display time is later than
// nowEstimate plus half a refresh period, or if any of its eye fences has
// not signalled. None of these are errors: the compositor carries on with
// the frame it already holds.
func (mbx *Mailbox) TryAdopt(nowEstimate int64) (frame.Descriptor, bool) {
	if !mbx.crit.section.TryLock() {
		mbx.tlm.contended.Add(1)
		return frame.Descriptor{}, false
	}
	defer mbx.crit.section.Unlock()

	d := mbx.crit.desc

	if d.Sequence <= mbx.crit.lastAdopted {
		mbx.tlm.stale.Add(1)
		return frame.Descriptor{}, false
	}

	if d.TargetDisplayTime > nowEstimate+mbx.refreshPeriod/2 {
		mbx.tlm.early.Add(1)
		return frame.Descriptor{}, false
	}

	if !d.Complete() {
		mbx.tlm.incomplete.Add(1)
		return frame.Descriptor{}, false
	}

	mbx.crit.lastAdopted = d.Sequence
	mbx.consumed.raise()
	mbx.refresh.clear()
	mbx.tlm.adopted.Add(1)

	return d, true
}

// NotifyRefreshOccurred raises the refresh tick that paces the producer.
// Consumer-side, called once per display refresh after presentation.
func (mbx *Mailbox) NotifyRefreshOccurred() {
	mbx.refresh.raise()
}

// End wakes any producer blocked in Submit(). Must be called before joining
// the producer thread. Subsequent and concurrent calls are safe.
func (mbx *Mailbox) End() {
	mbx.endOnce.Do(func() {
		close(mbx.ending)
	})
}

// telemetry counters for the expected steady-state misses. counted, never
// logged.
type telemetry struct {
	submitted  atomic.Int64
	adopted    atomic.Int64
	stale      atomic.Int64
	early      atomic.Int64
	incomplete atomic.Int64
	contended  atomic.Int64
}

// Telemetry is a snapshot of the mailbox counters.
type Telemetry struct {
	Submitted  int64
	Adopted    int64
	Stale      int64
	Early      int64
	Incomplete int64
	Contended  int64
}

// Telemetry returns a snapshot of the mailbox counters.
func (mbx *Mailbox) Telemetry() Telemetry {
	return Telemetry{
		Submitted:  mbx.tlm.submitted.Load(),
		Adopted:    mbx.tlm.adopted.Load(),
		Stale:      mbx.tlm.stale.Load(),
		Early:      mbx.tlm.early.Load(),
		Incomplete: mbx.tlm.incomplete.Load(),
		Contended:  mbx.tlm.contended.Load(),
	}
}
