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

// Package clock is the timestamp source for the frame scheduling core. All
// scheduling timestamps in the project are monotonic microseconds, measured
// from process start.
//
// The Go runtime folds a monotonic reading into every time.Time created by
// time.Now() so subtraction from the process origin is safe against wall
// clock adjustments.
package clock

import "time"

// the reference point for all Micros() readings
var origin = time.Now()

// Micros returns the number of microseconds since process start. The reading
// is monotonic.
func Micros() int64 {
	return int64(time.Since(origin) / time.Microsecond)
}

// Duration converts a span of microseconds to a time.Duration.
func Duration(micros int64) time.Duration {
	return time.Duration(micros) * time.Microsecond
}

// ToMicros converts a time.Duration to a span of microseconds.
func ToMicros(d time.Duration) int64 {
	return int64(d / time.Microsecond)
}
