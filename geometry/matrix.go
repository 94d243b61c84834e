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

package geometry

import (
	"math"

	"golang.org/x/image/math/f32"
)

// Mat4 is a 4x4 homogeneous matrix in column-major order. Element (row, col)
// is stored at index col*4+row.
type Mat4 f32.Mat4

// Create identity matrix.
func MatIdent() Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Create a translation matrix.
func MatTranslate(v Vec3) Mat4 {
	m := MatIdent()
	m[12] = v[0]
	m[13] = v[1]
	m[14] = v[2]
	return m
}

// Create a perspective projection matrix from a vertical field of view (in
// radians), aspect ratio and near/far clip planes.
func MatPerspective(fovY float32, aspect float32, near float32, far float32) Mat4 {
	f := float32(1.0 / math.Tan(float64(fovY)*0.5))
	return Mat4{
		f / aspect, 0, 0, 0,
		0, f, 0, 0,
		0, 0, (far + near) / (near - far), -1,
		0, 0, (2 * far * near) / (near - far), 0,
	}
}

// Multiply two matrices. The receiver is applied last: m.Mul(m2) transforms
// first by m2 and then by m.
func (m Mat4) Mul(m2 Mat4) Mat4 {
	var out Mat4
	for c := 0; c < 4; c++ {
		for r := 0; r < 4; r++ {
			var acc float32
			for k := 0; k < 4; k++ {
				acc += m[k*4+r] * m2[c*4+k]
			}
			out[c*4+r] = acc
		}
	}
	return out
}

// Multiply matrix with a 4 component vector.
func (m Mat4) MulVec4(v Vec4) Vec4 {
	var out Vec4
	for r := 0; r < 4; r++ {
		out[r] = m[r]*v[0] + m[4+r]*v[1] + m[8+r]*v[2] + m[12+r]*v[3]
	}
	return out
}

// Transposed matrix. For a pure rotation matrix the transpose is also the
// inverse.
func (m Mat4) Transposed() Mat4 {
	var out Mat4
	for c := 0; c < 4; c++ {
		for r := 0; r < 4; r++ {
			out[r*4+c] = m[c*4+r]
		}
	}
	return out
}

// RotationOnly returns the matrix with the translation column and the
// projective row zeroed. The bottom-right element is set to one. Required
// before inverting-by-transpose so that positional drift is not reintroduced
// into a rotation correction.
func (m Mat4) RotationOnly() Mat4 {
	out := m
	out[3] = 0
	out[7] = 0
	out[11] = 0
	out[12] = 0
	out[13] = 0
	out[14] = 0
	out[15] = 1
	return out
}

// Project transforms the vector and performs the homogeneous division. The
// divisor is clamped to a small epsilon so that points on or near the w=0
// plane do not produce NaN or Inf values.
func (m Mat4) Project(v Vec4) Vec3 {
	out := m.MulVec4(v)
	w := out[3]
	if w >= 0 && w < epsilon {
		w = epsilon
	} else if w < 0 && w > -epsilon {
		w = -epsilon
	}
	return Vec3{out[0] / w, out[1] / w, out[2] / w}
}

// EqualsApprox compares two matrices element-wise within the given tolerance.
func (m Mat4) EqualsApprox(m2 Mat4, tolerance float32) bool {
	for i := range m {
		d := m[i] - m2[i]
		if d < 0 {
			d = -d
		}
		if d > tolerance {
			return false
		}
	}
	return true
}
