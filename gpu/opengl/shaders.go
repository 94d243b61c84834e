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
	"strings"

	"github.com/go-gl/gl/v3.2-core/gl"
)

// vertex and fragment source for the eye render pass. a simple world of
// coloured lines, enough to make head movement and warp correction visible
const sceneVertexShader = `#version 150

uniform mat4 View;
uniform mat4 Proj;

in vec3 Position;
in vec3 Color;

out vec3 Frag_Color;

void main()
{
	Frag_Color = Color;
	gl_Position = Proj * View * vec4(Position, 1.0);
}`

const sceneFragmentShader = `#version 150

in vec3 Frag_Color;
out vec4 Out_Color;

void main()
{
	Out_Color = vec4(Frag_Color, 1.0);
}`

// the warp pass re-samples a rendered eye texture for the predicted display
// pose. the two warp matrices correspond to the first and the last scanline
// of the refresh and are blended by fragment row to follow a rolling scanout
const warpVertexShader = `#version 150

in vec2 Position;

out vec2 Frag_NDC;

void main()
{
	Frag_NDC = Position;
	gl_Position = vec4(Position, 0.0, 1.0);
}`

const warpFragmentShader = `#version 150

uniform sampler2D Texture;
uniform mat4 WarpStart;
uniform mat4 WarpEnd;
uniform vec2 TanHalfFov;

in vec2 Frag_NDC;
out vec4 Out_Color;

void main()
{
	// view space direction of this fragment at display time
	vec4 dir = vec4(Frag_NDC * TanHalfFov, -1.0, 0.0);

	float row = Frag_NDC.y * 0.5 + 0.5;
	mat4 warp = WarpStart + (WarpEnd - WarpStart) * row;

	vec4 tc = warp * dir;
	float w = max(tc.w, 1e-6);
	vec2 uv = tc.xy / w;

	Out_Color = texture(Texture, uv);
}`

// compile and link a shader program. compile failure of a built-in shader is
// a programming error so the function panics rather than returning.
func createProgram(vertProgram string, fragProgram string) uint32 {
	handle := gl.CreateProgram()

	vertHandle := gl.CreateShader(gl.VERTEX_SHADER)
	fragHandle := gl.CreateShader(gl.FRAGMENT_SHADER)

	glShaderSource := func(handle uint32, source string) {
		csource, free := gl.Strs(source + "\x00")
		defer free()

		gl.ShaderSource(handle, 1, csource, nil)
	}

	glShaderSource(vertHandle, vertProgram)
	glShaderSource(fragHandle, fragProgram)

	gl.CompileShader(vertHandle)
	if log := getShaderCompileError(vertHandle); log != "" {
		panic(log)
	}

	gl.CompileShader(fragHandle)
	if log := getShaderCompileError(fragHandle); log != "" {
		panic(log)
	}

	gl.AttachShader(handle, vertHandle)
	gl.AttachShader(handle, fragHandle)
	gl.LinkProgram(handle)

	// once the program has linked the individual shaders are not needed
	gl.DeleteShader(fragHandle)
	gl.DeleteShader(vertHandle)

	return handle
}

// getShaderCompileError returns the most recent error generated by the
// shader compiler.
func getShaderCompileError(shader uint32) string {
	var isCompiled int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &isCompiled)
	if isCompiled == 0 {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
		if logLength > 0 {
			// the maxLength includes the NULL character
			log := strings.Repeat("\x00", int(logLength+1))
			gl.GetShaderInfoLog(shader, logLength, &logLength, gl.Str(log))
			return log
		}
	}
	return ""
}
