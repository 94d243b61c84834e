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

// Package timing predicts when a frame will actually reach the screen.
//
// The compositor records every presented refresh and the scene loop reads
// the predictor to decide which vsync its in-progress frame should target.
// Prediction is a linear extrapolation from the most recent refresh. It is
// intentionally simple and tolerant of jitter because the mailbox's "never
// display early" rule provides the real safety margin.
package timing

import (
	"sync"

	"github.com/jetsetilly/warpcore/curated"
	"github.com/jetsetilly/warpcore/frame"
)

// error patterns for the Predictor type.
const (
	BadNominal = "timing: nominal refresh period must be positive (%d)"
)

// Predictor tracks the most recently completed refresh and extrapolates
// future display times. Written by the compositor, read by the scene loop.
type Predictor struct {
	// nominal refresh period used before the first recorded refresh
	nominalPeriod int64

	crit struct {
		section sync.Mutex
		timing  frame.Timing
	}
}

// NewPredictor is the preferred method of initialisation for the Predictor
// type. The nominal period, in microseconds, stands in for the measured
// frame duration until the first refresh has been recorded.
func NewPredictor(nominalPeriod int64) (*Predictor, error) {
	if nominalPeriod <= 0 {
		return nil, curated.Errorf(BadNominal, nominalPeriod)
	}

	prd := &Predictor{
		nominalPeriod: nominalPeriod,
	}
	prd.crit.timing.FrameDuration = nominalPeriod

	return prd, nil
}

// RecordRefresh notes the actual swap time of the refresh that has just been
// presented. Called by the compositor once per refresh.
func (prd *Predictor) RecordRefresh(vsyncTime int64, frameDuration int64) {
	prd.crit.section.Lock()
	defer prd.crit.section.Unlock()

	prd.crit.timing.FrameIndex++
	prd.crit.timing.VsyncTime = vsyncTime
	if frameDuration > 0 {
		prd.crit.timing.FrameDuration = frameDuration
	}
}

// Timing returns the record of the most recently completed refresh.
func (prd *Predictor) Timing() frame.Timing {
	prd.crit.section.Lock()
	defer prd.crit.section.Unlock()
	return prd.crit.timing
}

// NextFrameIndex returns the index of the refresh after the most recently
// recorded one. The scene loop targets this index, or a later one if it
// expects to miss the very next vsync.
func (prd *Predictor) NextFrameIndex() int64 {
	return prd.Timing().FrameIndex + 1
}

// PredictDisplayTime extrapolates the display time of the requested frame
// index. Indices in the past extrapolate backwards, which is valid for
// computing how late a frame was.
//
// Before the first recorded refresh the estimate is based on the nominal
// refresh period alone. That is not an error, only a weaker estimate.
func (prd *Predictor) PredictDisplayTime(frameIndexRequested int64) int64 {
	t := prd.Timing()
	return t.VsyncTime + (frameIndexRequested-t.FrameIndex)*t.FrameDuration
}
