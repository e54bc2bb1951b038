// rack.go
// Copyright (C) 2023 Vilhjálmur Þorsteinsson / Miðeind ehf
// This file implements the Rack, i.e. the tiles that a player
// holds and may lay down on the board

/*

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program.  If not, see <http://www.gnu.org/licenses/>.

*/

package tilerack

import (
	"sort"
	"strings"
)

// Rack is an ordered multiset of tiles, blank tiles
// being represented by the Wildcard
type Rack []rune

// ParseRack reads a rack from its string form. Lower case
// letters are treated as upper case.
func ParseRack(s string) Rack {
	return Rack(strings.ToUpper(s))
}

// String returns the rack as a contiguous string
func (rack Rack) String() string {
	return string(rack)
}

// ContainsBlank returns true if there is a blank tile in the rack
func (rack Rack) ContainsBlank() bool {
	return ContainsRune(rack, Wildcard)
}

// Contains returns true if the rack holds all the given
// tiles, counting duplicates
func (rack Rack) Contains(tiles []rune) bool {
	_, ok := rack.Remove(tiles)
	return ok
}

// Remove returns a new rack without the given tiles. If any tile
// is missing from the rack, the original rack and false are returned.
func (rack Rack) Remove(tiles []rune) (Rack, bool) {
	result := make(Rack, len(rack))
	copy(result, rack)
	for _, t := range tiles {
		if !ContainsRune(result, t) {
			return rack, false
		}
		result = RemoveRune(result, t)
	}
	return result, true
}

// Equal returns true if two racks hold the same tiles,
// in any order
func (rack Rack) Equal(other []rune) bool {
	if len(rack) != len(other) {
		return false
	}
	a := rack.Sorted()
	b := Rack(other).Sorted()
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Sorted returns a sorted copy of the rack
func (rack Rack) Sorted() Rack {
	result := make(Rack, len(rack))
	copy(result, rack)
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result
}
