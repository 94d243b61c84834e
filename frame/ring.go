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

package frame

import (
	"github.com/jetsetilly/warpcore/curated"
	"github.com/jetsetilly/warpcore/gpu"
)

// error patterns for the Ring type.
const (
	NotEnoughSlots = "ring: need at least %d slots"
	SlotInFlight   = "ring: slot for sequence %d reused before its fence signalled"
)

// MinSlots is the smallest workable ring. One slot being displayed, one being
// rendered and one of slack so the renderer is never gated on the slot the
// compositor still holds.
const MinSlots = 3

// Ring is a fixed arena of texture/fence slots indexed by frame sequence.
// Slots are recycled, never freed, and a slot is only handed out again once
// the fence from its previous use has signalled.
//
// The Ring is owned and accessed by the producer only. The consumer sees slot
// textures through the Descriptor, after adoption, and never writes to them.
type Ring struct {
	slots []Slot
}

// Slot is the reusable per-frame texture storage for both eyes.
type Slot struct {
	Eyes [NumEyes]Eye
}

// NewRing is the preferred method of initialisation for the Ring type.
// Textures for all slots are created up front through the backend.
func NewRing(backend gpu.Backend, numSlots int, width int, height int) (*Ring, error) {
	if numSlots < MinSlots {
		return nil, curated.Errorf(NotEnoughSlots, MinSlots)
	}

	rng := &Ring{
		slots: make([]Slot, numSlots),
	}

	for i := range rng.slots {
		for e := 0; e < NumEyes; e++ {
			tex, err := backend.CreateTexture(width, height)
			if err != nil {
				return nil, curated.Errorf("ring: %v", err)
			}
			rng.slots[i].Eyes[e] = Eye{
				Texture: tex,
				Fence:   gpu.Completed,
			}
		}
	}

	return rng, nil
}

// Len returns the number of slots in the ring.
func (rng *Ring) Len() int {
	return len(rng.slots)
}

// Acquire the slot for the given frame sequence. Returns an error if the
// fence from the slot's previous use has not yet signalled. That would mean
// textures still referenced by in-flight GPU work are about to be
// overwritten, which the at-most-one-frame-in-flight pacing should make
// impossible.
func (rng *Ring) Acquire(sequence int64) (*Slot, error) {
	slot := &rng.slots[sequence%int64(len(rng.slots))]

	for e := range slot.Eyes {
		if !slot.Eyes[e].Fence.Signalled() {
			return nil, curated.Errorf(SlotInFlight, sequence)
		}
	}

	return slot, nil
}
