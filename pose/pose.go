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

// Package pose provides head pose types and prediction. Both the scene
// renderer and the compositor ask a pose Source for the predicted head pose
// at a future display time: the renderer to pick a render pose, the
// compositor to compute the time warp correction poses.
package pose

import (
	"sync"

	"github.com/jetsetilly/warpcore/geometry"
)

// Pose describes the head at an instant: where it is and which way it is
// facing.
type Pose struct {
	Orientation geometry.Quat
	Position    geometry.Vec3
}

// Ident returns the neutral pose. Identity orientation at the origin.
func Ident() Pose {
	return Pose{Orientation: geometry.QuatIdent()}
}

// ViewMatrix returns the world-to-eye transform for the pose.
func (p Pose) ViewMatrix() geometry.Mat4 {
	rot := p.Orientation.Inverse().Mat4()
	trans := geometry.MatTranslate(p.Position.Mul(-1))
	return rot.Mul(trans)
}

// Source implementations provide a predicted head pose for a future moment.
// The time argument is in microseconds as returned by clock.Micros().
type Source interface {
	PredictedAtTime(micros int64) Pose
}

// Config collects pose prediction options. An explicit field here rather
// than process-wide state so that tests and tools can run trackers with
// different settings side by side.
type Config struct {
	// report the identity orientation from all predictions. useful when
	// isolating judder caused by the scene renderer from judder caused by
	// head tracking
	DisableRotation bool
}

// Tracker predicts future head poses by extrapolating the most recent
// sample from the head tracking hardware.
//
// Sample() is expected to be called at a much higher rate than the display
// refresh. Prediction uses a small angle approximation of the angular
// velocity which is accurate for the few milliseconds of extrapolation the
// compositor asks for.
type Tracker struct {
	config Config

	crit struct {
		section sync.Mutex

		sample          Pose
		angularVelocity geometry.Vec3
		sampleTime      int64
	}
}

// NewTracker is the preferred method of initialisation for the Tracker type.
func NewTracker(config Config) *Tracker {
	trk := &Tracker{config: config}
	trk.crit.sample = Ident()
	return trk
}

// Sample records the most recent reading from the head tracking hardware.
// The angular velocity is in radians per second around each axis.
func (trk *Tracker) Sample(p Pose, angularVelocity geometry.Vec3, at int64) {
	trk.crit.section.Lock()
	defer trk.crit.section.Unlock()

	trk.crit.sample = p
	trk.crit.angularVelocity = angularVelocity
	trk.crit.sampleTime = at
}

// PredictedAtTime implements the Source interface.
func (trk *Tracker) PredictedAtTime(micros int64) Pose {
	trk.crit.section.Lock()
	defer trk.crit.section.Unlock()

	if trk.config.DisableRotation {
		return Pose{
			Orientation: geometry.QuatIdent(),
			Position:    trk.crit.sample.Position,
		}
	}

	dt := float32(micros-trk.crit.sampleTime) / 1e6
	p := trk.crit.sample

	speed := trk.crit.angularVelocity.Len()
	if speed > 0 && dt != 0 {
		axis := trk.crit.angularVelocity.Normalize()
		delta := geometry.QuatFromAxisAngle(axis, speed*dt)
		p.Orientation = delta.Mul(p.Orientation).Normalize()
	}

	return p
}
