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

// signal is a cross-thread pulse: raised at most once until waited for,
// consumed exactly once per wait. A capacity-one channel gives the raise
// once/consume once semantics directly - a raise on an already raised signal
// is absorbed, a wait consumes the pulse.
type signal struct {
	ch chan struct{}
}

func newSignal() signal {
	return signal{ch: make(chan struct{}, 1)}
}

// raise the signal. a no-op if the signal is already raised.
func (s signal) raise() {
	select {
	case s.ch <- struct{}{}:
	default:
	}
}

// clear a raised signal. a no-op if the signal is not raised.
func (s signal) clear() {
	select {
	case <-s.ch:
	default:
	}
}

// wait blocks until the signal is raised, consuming the pulse. returns false
// if the release channel yielded first. the release channel is how a blocked
// producer is freed at shutdown.
func (s signal) wait(release <-chan struct{}) bool {
	select {
	case <-s.ch:
		return true
	case <-release:
		return false
	}
}

// peek returns true if the signal is raised, without consuming the pulse.
func (s signal) peek() bool {
	return len(s.ch) > 0
}
