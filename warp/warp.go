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

// Package warp computes the corrective transform that re-projects a rendered
// eye image to account for head rotation between render time and actual
// display time.
//
// Only rotation is corrected. Positional movement between render and display
// is left uncorrected, so the translation component of every pose is
// stripped before the delta is computed.
//
// Two transforms are produced per eye, one for the start of the refresh and
// one for the end. The renderer blends them linearly by scanline position to
// emulate a rolling refresh. With identical start and end poses the two
// transforms are equal and the blend is a no-op.
package warp

import (
	"github.com/jetsetilly/warpcore/geometry"
)

// texBias maps clip space x and y from the -1 to 1 range into the 0 to 1
// texture range, leaving z and w alone. the perspective divide happens after
// this matrix is applied so the bias must ride on w
var texBias = geometry.Mat4{
	0.5, 0, 0, 0,
	0, 0.5, 0, 0,
	0, 0, 1, 0,
	0.5, 0.5, 0, 1,
}

// TextureSpaceProjection converts a clip space projection into one that
// lands in the 0 to 1 texture range after the perspective divide.
func TextureSpaceProjection(projection geometry.Mat4) geometry.Mat4 {
	return texBias.Mul(projection)
}

// ComputeCorrection derives the start and end of refresh warp transforms for
// one eye.
//
// The renderView argument is the view matrix the eye image was rendered
// with. The two display views are the predicted view matrices for the start
// and the end of the refresh during which the image will be shown. All three
// have their translation stripped before use.
//
// Applying a returned transform to a direction in display time eye space and
// performing the perspective divide yields the texture coordinate at which
// the rendered image holds that direction. Division by the homogeneous w is
// the caller's concern, see geometry.Mat4.Project for the epsilon guard.
func ComputeCorrection(renderProjection geometry.Mat4,
	renderView geometry.Mat4,
	displayStartView geometry.Mat4, displayEndView geometry.Mat4) (geometry.Mat4, geometry.Mat4) {

	texProj := TextureSpaceProjection(renderProjection)
	renderRot := renderView.RotationOnly()

	// a rotation only view matrix inverts by transposition. the delta takes
	// a display time view direction back to world space and then into the
	// render time view
	start := texProj.Mul(renderRot.Mul(displayStartView.RotationOnly().Transposed()))
	end := texProj.Mul(renderRot.Mul(displayEndView.RotationOnly().Transposed()))

	return start, end
}
