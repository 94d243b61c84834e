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

// Package opengl is the OpenGL 3.2 implementation of the gpu.Backend
// interface and of the compositor's warp renderer.
//
// The backend belongs to the scene loop's GL context. The renderer belongs
// to the compositor's context. The two contexts share objects so eye
// textures rendered by one are sampled by the other, with GL sync objects
// standing in for the completion fences.
package opengl

import (
	"github.com/go-gl/gl/v3.2-core/gl"

	"github.com/jetsetilly/warpcore/curated"
	"github.com/jetsetilly/warpcore/geometry"
	"github.com/jetsetilly/warpcore/gpu"
)

// error pattern for all failures in this package.
const GLError = "opengl: %s"

func gpuError(msg string) error {
	return curated.Errorf(GLError, msg)
}

// texture is an eye render target with its own framebuffer object.
type texture struct {
	id     uint32
	fbo    uint32
	width  int32
	height int32
}

func (tex *texture) Dimensions() (int, int) {
	return int(tex.width), int(tex.height)
}

// Backend implements gpu.Backend for OpenGL 3.2. Must only be used on the
// thread that owns the scene loop's GL context.
type Backend struct {
	program uint32
	viewMtx int32
	projMtx int32

	// world geometry shared by every eye render
	vao      uint32
	vbo      uint32
	vertices int32
}

// NewBackend is the preferred method of initialisation for the Backend type.
// The calling goroutine must have the scene GL context current.
func NewBackend() *Backend {
	be := &Backend{}
	be.program = createProgram(sceneVertexShader, sceneFragmentShader)

	be.viewMtx = gl.GetUniformLocation(be.program, gl.Str("View"+"\x00"))
	be.projMtx = gl.GetUniformLocation(be.program, gl.Str("Proj"+"\x00"))
	position := uint32(gl.GetAttribLocation(be.program, gl.Str("Position"+"\x00")))
	color := uint32(gl.GetAttribLocation(be.program, gl.Str("Color"+"\x00")))

	verts := worldVertices()
	be.vertices = int32(len(verts) / 6)

	gl.GenVertexArrays(1, &be.vao)
	gl.BindVertexArray(be.vao)
	gl.GenBuffers(1, &be.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, be.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(verts)*4, gl.Ptr(verts), gl.STATIC_DRAW)

	gl.EnableVertexAttribArray(position)
	gl.VertexAttribPointerWithOffset(position, 3, gl.FLOAT, false, 6*4, 0)
	gl.EnableVertexAttribArray(color)
	gl.VertexAttribPointerWithOffset(color, 3, gl.FLOAT, false, 6*4, 3*4)

	return be
}

// Destroy all GL objects owned by the backend.
func (be *Backend) Destroy() {
	gl.DeleteBuffers(1, &be.vbo)
	gl.DeleteVertexArrays(1, &be.vao)
	gl.DeleteProgram(be.program)
}

// CreateTexture allocates an eye render target and a framebuffer to draw
// into it.
func (be *Backend) CreateTexture(width int, height int) (gpu.Texture, error) {
	tex := &texture{
		width:  int32(width),
		height: int32(height),
	}

	emptyPixels := make([]uint8, width*height*4)

	gl.GenTextures(1, &tex.id)
	gl.BindTexture(gl.TEXTURE_2D, tex.id)
	gl.TexImage2D(gl.TEXTURE_2D, 0,
		gl.RGBA, tex.width, tex.height, 0,
		gl.RGBA, gl.UNSIGNED_BYTE,
		gl.Ptr(emptyPixels))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_BORDER)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_BORDER)

	gl.GenFramebuffers(1, &tex.fbo)
	gl.BindFramebuffer(gl.FRAMEBUFFER, tex.fbo)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, tex.id, 0)

	if gl.CheckFramebufferStatus(gl.FRAMEBUFFER) != gl.FRAMEBUFFER_COMPLETE {
		return nil, gpuError("framebuffer incomplete")
	}

	return tex, nil
}

// RenderEye issues the draw commands for one eye image. The commands are
// only queued, completion is reported by the fence from SubmitAndFence().
func (be *Backend) RenderEye(target gpu.Texture, view geometry.Mat4, proj geometry.Mat4) error {
	tex, ok := target.(*texture)
	if !ok {
		return gpuError("texture from a different backend")
	}

	gl.BindFramebuffer(gl.FRAMEBUFFER, tex.fbo)
	gl.Viewport(0, 0, tex.width, tex.height)
	gl.ClearColor(0.0, 0.0, 0.0, 1.0)
	gl.Clear(gl.COLOR_BUFFER_BIT)

	gl.UseProgram(be.program)
	gl.UniformMatrix4fv(be.viewMtx, 1, false, &view[0])
	gl.UniformMatrix4fv(be.projMtx, 1, false, &proj[0])

	gl.BindVertexArray(be.vao)
	gl.DrawArrays(gl.LINES, 0, be.vertices)

	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)

	return nil
}

// SubmitAndFence flushes the queued commands and returns a fence that
// signals on their completion.
func (be *Backend) SubmitAndFence() (gpu.Fence, error) {
	f := &fence{}
	f.crit.sync = gl.FenceSync(gl.SYNC_GPU_COMMANDS_COMPLETE, 0)
	if f.crit.sync == 0 {
		return nil, gpuError("fence creation failed")
	}

	// the flush pushes the fence to the GPU. without it the sync object may
	// never signal
	gl.Flush()

	return f, nil
}

// worldVertices builds the line segments of the reference world. a floor
// grid with a pillar at every fourth intersection. interleaved position and
// colour, six floats per vertex.
func worldVertices() []float32 {
	var v []float32

	line := func(x0, y0, z0, x1, y1, z1, r, g, b float32) {
		v = append(v, x0, y0, z0, r, g, b)
		v = append(v, x1, y1, z1, r, g, b)
	}

	const extent = 10
	const floor = -1.5

	for i := -extent; i <= extent; i++ {
		f := float32(i)
		line(f, floor, -extent, f, floor, extent, 0.0, 0.6, 0.2)
		line(-extent, floor, f, extent, floor, f, 0.0, 0.6, 0.2)

		if i%4 == 0 {
			for j := -extent; j <= extent; j += 4 {
				line(f, floor, float32(j), f, floor+2.0, float32(j), 0.8, 0.8, 0.1)
			}
		}
	}

	return v
}
