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

// Package curated is a drop in replacement for the error type generated by
// the errors and fmt packages. In addition to normalised error messages,
// curated errors can be compared against the pattern that created them.
//
// Error patterns that need to be tested for should be declared as constants
// close to the package that generates them. For example:
//
//	const NotEnoughSlots = "ring: not enough slots (%d)"
//
//	...
//
//	return curated.Errorf(NotEnoughSlots, n)
//
// Callers can then use curated.Is() or curated.Has() with the same pattern to
// check for the specific error condition without resorting to string
// comparison of the formatted message.
package curated
