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
	"sync"

	"github.com/go-gl/gl/v3.2-core/gl"
)

// fence wraps a GL sync object. sync objects are shared between the
// rendering context and the presentation context so both threads may poll
// the same fence. the mutex covers the sync handle, not the GL call, which
// is legal on a shared sync object from either context.
type fence struct {
	crit struct {
		section sync.Mutex

		sync uintptr

		// once the sync object has signalled it is deleted and the result
		// cached
		done bool
	}
}

// Signalled polls the sync object with a zero timeout. Never blocks.
func (f *fence) Signalled() bool {
	f.crit.section.Lock()
	defer f.crit.section.Unlock()

	if f.crit.done {
		return true
	}

	switch gl.ClientWaitSync(f.crit.sync, 0, 0) {
	case gl.ALREADY_SIGNALED, gl.CONDITION_SATISFIED:
		gl.DeleteSync(f.crit.sync)
		f.crit.sync = 0
		f.crit.done = true
	}

	return f.crit.done
}
