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

// Package display abstracts the physical display the compositor paces
// itself against. The sdldisplay sub-package provides the real
// implementation. Tests provide their own.
package display

// Display is the compositor's window onto the screen hardware. All times
// are in microseconds on the clock package's timeline.
type Display interface {
	// RefreshPeriod returns the duration of one display refresh.
	RefreshPeriod() int64

	// NextPredictedSwapTime returns the best current estimate of when the
	// next buffer swap will take effect.
	NextPredictedSwapTime() int64

	// Present queues the buffer swap. It returns once the swap has been
	// queued, not once it has completed.
	Present() error
}
