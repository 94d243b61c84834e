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

package pose

import (
	"math"

	"github.com/jetsetilly/warpcore/geometry"
)

// Oscillator is a synthetic pose Source that sways the head left and right
// around the vertical axis. Used in place of real tracking hardware for
// demonstration and for performance measurement, where a deterministic
// source is preferable to an IMU.
type Oscillator struct {
	// peak deflection in radians
	Amplitude float32

	// time for one complete sway, there and back
	PeriodMicros int64
}

// PredictedAtTime implements the Source interface.
func (osc Oscillator) PredictedAtTime(micros int64) Pose {
	if osc.PeriodMicros == 0 {
		return Ident()
	}

	phase := 2 * math.Pi * float64(micros%osc.PeriodMicros) / float64(osc.PeriodMicros)
	angle := osc.Amplitude * float32(math.Sin(phase))

	return Pose{
		Orientation: geometry.QuatFromAxisAngle(geometry.XYZ(0, 1, 0), angle),
	}
}
