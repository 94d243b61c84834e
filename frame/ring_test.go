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

package frame_test

import (
	"testing"

	"github.com/jetsetilly/warpcore/curated"
	"github.com/jetsetilly/warpcore/frame"
	"github.com/jetsetilly/warpcore/geometry"
	"github.com/jetsetilly/warpcore/gpu"
	"github.com/jetsetilly/warpcore/test"
)

// minimal gpu.Backend for ring testing. textures are counted, not stored.
type mockBackend struct {
	created int
}

type mockTexture struct {
	w, h int
}

func (tex *mockTexture) Dimensions() (int, int) {
	return tex.w, tex.h
}

func (be *mockBackend) CreateTexture(w int, h int) (gpu.Texture, error) {
	be.created++
	return &mockTexture{w: w, h: h}, nil
}

func (be *mockBackend) RenderEye(_ gpu.Texture, _ geometry.Mat4, _ geometry.Mat4) error {
	return nil
}

func (be *mockBackend) SubmitAndFence() (gpu.Fence, error) {
	return gpu.Completed, nil
}

// fence with controllable state
type mockFence struct {
	signalled bool
}

func (f *mockFence) Signalled() bool {
	return f.signalled
}

func TestRingCreation(t *testing.T) {
	be := &mockBackend{}

	_, err := frame.NewRing(be, 1, 1024, 1024)
	test.ExpectFailure(t, err)
	test.ExpectSuccess(t, curated.Is(err, frame.NotEnoughSlots))

	rng, err := frame.NewRing(be, 3, 1024, 1024)
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, rng.Len(), 3)

	// one texture per eye per slot
	test.ExpectEquality(t, be.created, 6)
}

func TestRingSlotReuse(t *testing.T) {
	be := &mockBackend{}
	rng, err := frame.NewRing(be, 3, 64, 64)
	test.DemandSuccess(t, err)

	// fresh slots acquire without complaint
	slot, err := rng.Acquire(1)
	test.DemandSuccess(t, err)

	// attach an unsignalled fence to the slot, simulating in-flight GPU work
	fence := &mockFence{}
	slot.Eyes[frame.EyeLeft].Fence = fence

	// sequences 2 and 3 map to the other slots
	_, err = rng.Acquire(2)
	test.ExpectSuccess(t, err)
	_, err = rng.Acquire(3)
	test.ExpectSuccess(t, err)

	// sequence 4 wraps around to slot 1 whose fence has not signalled
	_, err = rng.Acquire(4)
	test.ExpectFailure(t, err)
	test.ExpectSuccess(t, curated.Is(err, frame.SlotInFlight))

	// once the fence signals the slot can be reused
	fence.signalled = true
	_, err = rng.Acquire(4)
	test.ExpectSuccess(t, err)
}

func TestPlaceholderIsComplete(t *testing.T) {
	d := frame.Placeholder()
	test.ExpectSuccess(t, d.Complete())
	test.ExpectEquality(t, d.Sequence, 0)
}

func TestIncompleteDescriptor(t *testing.T) {
	d := frame.Placeholder()
	d.Eyes[frame.EyeRight].Fence = &mockFence{}
	test.ExpectFailure(t, d.Complete())
}
