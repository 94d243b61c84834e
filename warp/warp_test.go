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

package warp_test

import (
	"math"
	"testing"

	"github.com/jetsetilly/warpcore/geometry"
	"github.com/jetsetilly/warpcore/test"
	"github.com/jetsetilly/warpcore/warp"
)

func expectNear(t *testing.T, value float32, expected float32, tolerance float32, tags ...any) {
	t.Helper()
	d := value - expected
	if d < 0 {
		d = -d
	}
	if d > tolerance {
		test.ExpectSuccess(t, false, tags...)
	}
}

// view matrix for a head orientation with no positional offset
func viewFor(q geometry.Quat) geometry.Mat4 {
	return q.Inverse().Mat4()
}

func TestTextureSpaceProjection(t *testing.T) {
	// with an identity projection the corners of clip space must land on the
	// corners of texture space
	p := warp.TextureSpaceProjection(geometry.MatIdent())

	bl := p.Project(geometry.Vec4{-1, -1, 0, 1})
	expectNear(t, bl[0], 0.0, 1e-6)
	expectNear(t, bl[1], 0.0, 1e-6)

	tr := p.Project(geometry.Vec4{1, 1, 0, 1})
	expectNear(t, tr[0], 1.0, 1e-6)
	expectNear(t, tr[1], 1.0, 1e-6)

	ctr := p.Project(geometry.Vec4{0, 0, 0, 1})
	expectNear(t, ctr[0], 0.5, 1e-6)
	expectNear(t, ctr[1], 0.5, 1e-6)
}

// identical render and display poses produce an identity warp. both
// transforms equal the texture space form of the render projection
func TestIdentityWarp(t *testing.T) {
	proj := geometry.MatPerspective(math.Pi/2, 1.0, 0.1, 100.0)

	// an arbitrary head orientation shared by render and display
	q := geometry.QuatFromAxisAngle(geometry.Vec3{0.3, 0.9, 0.1}.Normalize(), 0.7)
	view := viewFor(q)

	start, end := warp.ComputeCorrection(proj, view, view, view)

	want := warp.TextureSpaceProjection(proj)
	test.ExpectSuccess(t, start.EqualsApprox(want, 1e-5))
	test.ExpectSuccess(t, end.EqualsApprox(want, 1e-5))
}

// a head turn between render and display shifts the sampled texture
// coordinate in the direction of the turn
func TestRotationCorrection(t *testing.T) {
	proj := geometry.MatPerspective(math.Pi/2, 1.0, 0.1, 100.0)
	renderView := geometry.MatIdent()

	// by display time the head has turned left by 0.1 radians
	const yaw = 0.1
	dispView := viewFor(geometry.QuatFromAxisAngle(geometry.Vec3{0, 1, 0}, yaw))

	start, _ := warp.ComputeCorrection(proj, renderView, dispView, dispView)

	// the display time forward direction samples the rendered image to the
	// left of centre, at the same height
	fwd := start.Project(geometry.Vec4{0, 0, -1, 0})
	wantU := 0.5 - 0.5*float32(math.Tan(yaw))
	expectNear(t, fwd[0], wantU, 1e-5)
	expectNear(t, fwd[1], 0.5, 1e-5)
}

// the end of refresh transform tracks a pose further along the head's motion
// than the start of refresh transform
func TestScanlineInterpolationEndpoints(t *testing.T) {
	proj := geometry.MatPerspective(math.Pi/2, 1.0, 0.1, 100.0)
	renderView := geometry.MatIdent()

	startView := viewFor(geometry.QuatFromAxisAngle(geometry.Vec3{0, 1, 0}, 0.05))
	endView := viewFor(geometry.QuatFromAxisAngle(geometry.Vec3{0, 1, 0}, 0.10))

	start, end := warp.ComputeCorrection(proj, renderView, startView, endView)
	test.ExpectSuccess(t, !start.EqualsApprox(end, 1e-6))

	// the head keeps turning left so the end transform samples further left
	uStart := start.Project(geometry.Vec4{0, 0, -1, 0})[0]
	uEnd := end.Project(geometry.Vec4{0, 0, -1, 0})[0]
	test.ExpectSuccess(t, uEnd < uStart)
}

// the positional component of every pose is ignored. only rotation is
// corrected
func TestTranslationStripped(t *testing.T) {
	proj := geometry.MatPerspective(math.Pi/2, 1.0, 0.1, 100.0)

	plain := geometry.MatIdent()
	moved := geometry.MatIdent().Mul(geometry.MatTranslate(geometry.Vec3{1, 2, 3}))

	startA, endA := warp.ComputeCorrection(proj, plain, plain, plain)
	startB, endB := warp.ComputeCorrection(proj, moved, moved, moved)

	test.ExpectSuccess(t, startA.EqualsApprox(startB, 1e-6))
	test.ExpectSuccess(t, endA.EqualsApprox(endB, 1e-6))
}
