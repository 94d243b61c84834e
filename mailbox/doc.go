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

// Package mailbox implements the single-slot frame exchange between the
// scene renderer (the producer) and the compositor (the consumer).
//
// The two sides of the exchange have very different scheduling contracts.
// The producer may block: Submit() waits until the previous frame has been
// consumed and then waits again for a display refresh to pass, so the
// renderer can never run ahead of the display by more than one frame. The
// consumer must never block: TryAdopt() attempts the critical section in
// non-blocking mode and treats any kind of miss - contention, a stale frame,
// a frame that is not yet due, a frame whose GPU work has not completed - as
// a reason to carry on with the frame it already holds. Misses are expected
// steady-state outcomes and are counted, not logged.
//
// Sequence numbers version the exchange. The consumer adopts frames in
// strictly increasing sequence order and never adopts the same frame twice.
//
// End() releases a producer blocked in Submit(). The compositor must call it
// before joining the producer thread or the join will hang.
package mailbox
