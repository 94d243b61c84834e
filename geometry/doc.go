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

// Package geometry provides the vector, quaternion and matrix maths used by
// the pose prediction and time warp calculations.
//
// Matrices are 4x4 homogeneous and stored column-major, matching the order
// expected by OpenGL. Multiplication composes right-to-left: A.Mul(B) applies
// B first.
package geometry
