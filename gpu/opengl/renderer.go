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

package opengl

import (
	"math"

	"github.com/go-gl/gl/v3.2-core/gl"

	"github.com/jetsetilly/warpcore/frame"
	"github.com/jetsetilly/warpcore/geometry"
)

// Renderer implements the compositor's warp pass. Must only be used on the
// thread that owns the presentation GL context.
//
// Each eye texture is re-sampled through the warp transforms onto its half
// of the window. The fragment shader blends the start and end transforms by
// scanline row.
type Renderer struct {
	program   uint32
	warpStart int32
	warpEnd   int32
	texUnit   int32
	tanFov    int32

	// full screen quad, reused for both eye halves
	vao uint32
	vbo uint32

	// tangent of the half field of view of the display optics, horizontal
	// and vertical
	tanHalfFovX float32
	tanHalfFovY float32

	// window dimensions. set through Resize()
	width  int32
	height int32
}

// NewRenderer is the preferred method of initialisation for the Renderer
// type. The field of view describes the display optics, not the rendered
// projection, and is vertical and in radians. The calling goroutine must
// have the presentation GL context current.
func NewRenderer(fovY float32, aspect float32) *Renderer {
	rnd := &Renderer{
		tanHalfFovY: float32(math.Tan(float64(fovY) * 0.5)),
	}
	rnd.tanHalfFovX = rnd.tanHalfFovY * aspect

	rnd.program = createProgram(warpVertexShader, warpFragmentShader)
	rnd.warpStart = gl.GetUniformLocation(rnd.program, gl.Str("WarpStart"+"\x00"))
	rnd.warpEnd = gl.GetUniformLocation(rnd.program, gl.Str("WarpEnd"+"\x00"))
	rnd.texUnit = gl.GetUniformLocation(rnd.program, gl.Str("Texture"+"\x00"))
	rnd.tanFov = gl.GetUniformLocation(rnd.program, gl.Str("TanHalfFov"+"\x00"))
	position := uint32(gl.GetAttribLocation(rnd.program, gl.Str("Position"+"\x00")))

	quad := []float32{
		-1, -1,
		1, -1,
		-1, 1,
		1, -1,
		1, 1,
		-1, 1,
	}

	gl.GenVertexArrays(1, &rnd.vao)
	gl.BindVertexArray(rnd.vao)
	gl.GenBuffers(1, &rnd.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, rnd.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(quad)*4, gl.Ptr(quad), gl.STATIC_DRAW)
	gl.EnableVertexAttribArray(position)
	gl.VertexAttribPointerWithOffset(position, 2, gl.FLOAT, false, 2*4, 0)

	return rnd
}

// Destroy all GL objects owned by the renderer.
func (rnd *Renderer) Destroy() {
	gl.DeleteBuffers(1, &rnd.vbo)
	gl.DeleteVertexArrays(1, &rnd.vao)
	gl.DeleteProgram(rnd.program)
}

// Resize records the drawable size of the window. Called whenever the window
// changes size and once before the first DrawWarped().
func (rnd *Renderer) Resize(width int32, height int32) {
	rnd.width = width
	rnd.height = height
}

// DrawWarped samples both eye textures through the warp transforms onto the
// left and right halves of the window.
//
// The placeholder frame has no textures attached. Its eyes are drawn as
// black, which is exactly what an HMD should show before the first real
// frame arrives.
func (rnd *Renderer) DrawWarped(d frame.Descriptor, start geometry.Mat4, end geometry.Mat4) error {
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.ClearColor(0.0, 0.0, 0.0, 1.0)
	gl.Clear(gl.COLOR_BUFFER_BIT)

	gl.UseProgram(rnd.program)
	gl.UniformMatrix4fv(rnd.warpStart, 1, false, &start[0])
	gl.UniformMatrix4fv(rnd.warpEnd, 1, false, &end[0])
	gl.Uniform2f(rnd.tanFov, rnd.tanHalfFovX, rnd.tanHalfFovY)
	gl.Uniform1i(rnd.texUnit, 0)
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindVertexArray(rnd.vao)

	half := rnd.width / 2
	for e := 0; e < frame.NumEyes; e++ {
		tex, ok := d.Eyes[e].Texture.(*texture)
		if !ok {
			// no texture for this eye. the clear above has already painted
			// it black
			continue
		}

		gl.Viewport(int32(e)*half, 0, half, rnd.height)
		gl.BindTexture(gl.TEXTURE_2D, tex.id)
		gl.DrawArrays(gl.TRIANGLES, 0, 6)
	}

	return nil
}
