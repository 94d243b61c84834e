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

package pose_test

import (
	"math"
	"testing"

	"github.com/jetsetilly/warpcore/geometry"
	"github.com/jetsetilly/warpcore/pose"
	"github.com/jetsetilly/warpcore/test"
)

func expectOrientationNear(t *testing.T, p pose.Pose, expected geometry.Quat, tags ...any) {
	t.Helper()
	m := p.Orientation.Mat4()
	test.ExpectSuccess(t, m.EqualsApprox(expected.Mat4(), 1e-5), tags...)
}

func TestIdentPose(t *testing.T) {
	p := pose.Ident()
	test.ExpectSuccess(t, p.ViewMatrix().EqualsApprox(geometry.MatIdent(), 1e-6))
}

func TestViewMatrixUndoesPose(t *testing.T) {
	p := pose.Pose{
		Orientation: geometry.QuatFromAxisAngle(geometry.XYZ(0, 1, 0), 0.4),
		Position:    geometry.XYZ(1, 2, 3),
	}

	// a point at the head position maps to the eye origin
	out := p.ViewMatrix().MulVec4(geometry.XYZW(1, 2, 3, 1))
	test.ExpectApproximate(t, float64(out[3]), 1.0, 1e-6)
	for i := 0; i < 3; i++ {
		if math.Abs(float64(out[i])) > 1e-5 {
			t.Errorf("head position did not map to the eye origin: %v", out)
		}
	}
}

func TestTrackerExtrapolation(t *testing.T) {
	trk := pose.NewTracker(pose.Config{})

	// identity sample at time zero, turning around the vertical axis at one
	// radian per second
	trk.Sample(pose.Ident(), geometry.XYZ(0, 1, 0), 0)

	p := trk.PredictedAtTime(500000)
	expectOrientationNear(t, p, geometry.QuatFromAxisAngle(geometry.XYZ(0, 1, 0), 0.5))

	// prediction at the sample time returns the sample unchanged
	p = trk.PredictedAtTime(0)
	expectOrientationNear(t, p, geometry.QuatIdent())
}

func TestTrackerStationary(t *testing.T) {
	trk := pose.NewTracker(pose.Config{})

	q := geometry.QuatFromAxisAngle(geometry.XYZ(1, 0, 0), 0.25)
	trk.Sample(pose.Pose{Orientation: q}, geometry.XYZ(0, 0, 0), 1000)

	// no angular velocity means no extrapolation however far ahead
	p := trk.PredictedAtTime(5000000)
	expectOrientationNear(t, p, q)
}

func TestTrackerDisableRotation(t *testing.T) {
	trk := pose.NewTracker(pose.Config{DisableRotation: true})

	trk.Sample(pose.Pose{
		Orientation: geometry.QuatFromAxisAngle(geometry.XYZ(0, 1, 0), 1.0),
		Position:    geometry.XYZ(0, 1.7, 0),
	}, geometry.XYZ(0, 2, 0), 0)

	p := trk.PredictedAtTime(250000)
	expectOrientationNear(t, p, geometry.QuatIdent())
	test.ExpectEquality(t, p.Position, geometry.XYZ(0, 1.7, 0))
}

func TestOscillator(t *testing.T) {
	osc := pose.Oscillator{Amplitude: 0.3, PeriodMicros: 1000000}

	// zero crossing at the start of the period, peak deflection at a quarter
	expectOrientationNear(t, osc.PredictedAtTime(0), geometry.QuatIdent())
	expectOrientationNear(t, osc.PredictedAtTime(250000),
		geometry.QuatFromAxisAngle(geometry.XYZ(0, 1, 0), 0.3))

	// deterministic across whole periods
	a := osc.PredictedAtTime(100000)
	b := osc.PredictedAtTime(2100000)
	test.ExpectEquality(t, a.Orientation, b.Orientation)

	// the zero value is a usable source
	expectOrientationNear(t, pose.Oscillator{}.PredictedAtTime(123456), geometry.QuatIdent())
}
