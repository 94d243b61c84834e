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

package timing_test

import (
	"testing"

	"github.com/jetsetilly/warpcore/test"
	"github.com/jetsetilly/warpcore/timing"
)

func TestNewPredictor(t *testing.T) {
	_, err := timing.NewPredictor(0)
	test.ExpectFailure(t, err)

	_, err = timing.NewPredictor(-16667)
	test.ExpectFailure(t, err)

	_, err = timing.NewPredictor(16667)
	test.ExpectSuccess(t, err)
}

// before any refresh has been recorded the prediction falls back to the
// nominal rate, anchored at frame index zero
func TestNominalFallback(t *testing.T) {
	prd, err := timing.NewPredictor(16667)
	test.DemandSuccess(t, err)

	test.ExpectEquality(t, prd.PredictDisplayTime(0), 0)
	test.ExpectEquality(t, prd.PredictDisplayTime(1), 16667)
	test.ExpectEquality(t, prd.PredictDisplayTime(3), 50001)
}

func TestLinearExtrapolation(t *testing.T) {
	prd, err := timing.NewPredictor(16667)
	test.DemandSuccess(t, err)

	// three refreshes at a measured 16700us cadence
	prd.RecordRefresh(1000000, 16700)
	prd.RecordRefresh(1016700, 16700)
	prd.RecordRefresh(1033400, 16700)

	tm := prd.Timing()
	test.ExpectEquality(t, tm.FrameIndex, 3)
	test.ExpectEquality(t, tm.VsyncTime, 1033400)
	test.ExpectEquality(t, prd.NextFrameIndex(), 4)

	// prediction for the current frame is the recorded vsync itself
	test.ExpectEquality(t, prd.PredictDisplayTime(3), 1033400)

	// future frames extrapolate forward
	test.ExpectEquality(t, prd.PredictDisplayTime(4), 1050100)
	test.ExpectEquality(t, prd.PredictDisplayTime(6), 1083500)

	// past frames extrapolate backwards
	test.ExpectEquality(t, prd.PredictDisplayTime(2), 1016700)
}

// a refresh recorded with an unusable duration keeps the previous measured
// duration rather than poisoning the extrapolation
func TestBadDurationIgnored(t *testing.T) {
	prd, err := timing.NewPredictor(16667)
	test.DemandSuccess(t, err)

	prd.RecordRefresh(1000000, 16700)
	prd.RecordRefresh(1016700, 0)

	test.ExpectEquality(t, prd.Timing().FrameDuration, 16700)
	test.ExpectEquality(t, prd.PredictDisplayTime(3), 1033400)
}
