// alphabet.go
//
// Copyright (C) 2023 Vilhjálmur Þorsteinsson / Miðeind ehf

// This file implements the Alphabet of a word graph and
// bit-mapped sets of its letters

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
	"fmt"
	"sort"
	"strings"
	"unicode"
)

// Wildcard is the symbol used for a blank tile in racks,
// in search patterns, and on candidate boards where the
// blank has not yet been assigned a letter
const Wildcard = '*'

// LetterSet is a bit-mapped set of letters from an Alphabet
type LetterSet uint64

// maxAlphabet is the number of bits in a LetterSet
const maxAlphabet = 64

// Alphabet stores the set of runes found within a word graph,
// and supports bit map (set) operations on them
type Alphabet struct {
	asRunes []rune
	bitMap  map[rune]LetterSet
	allSet  LetterSet
}

// Init initializes an Alphabet from a list of distinct runes,
// including a precalculated bit map for them
func (a *Alphabet) Init(runes []rune) error {
	if len(runes) > maxAlphabet {
		return fmt.Errorf("alphabet cannot have more than %d letters, got %d", maxAlphabet, len(runes))
	}
	a.asRunes = make([]rune, len(runes))
	copy(a.asRunes, runes)
	sort.Slice(a.asRunes, func(i, j int) bool { return a.asRunes[i] < a.asRunes[j] })
	a.bitMap = make(map[rune]LetterSet, len(runes))
	a.allSet = 0
	for i, r := range a.asRunes {
		bit := LetterSet(1) << uint(i)
		a.bitMap[r] = bit
		a.allSet |= bit
	}
	return nil
}

// MakeSet converts a list of runes to a bit map,
// with the extra twist that if any of the runes is the
// Wildcard, a bit map with all bits set is returned
func (a *Alphabet) MakeSet(runes []rune) LetterSet {
	s := LetterSet(0)
	for _, r := range runes {
		if r == Wildcard {
			return a.allSet
		}
		// A rune that is not in the map yields zero
		s |= a.bitMap[unicode.ToUpper(r)]
	}
	return s
}

// Member checks whether a rune is represented in a bit map
func (a *Alphabet) Member(r rune, set LetterSet) bool {
	return set&a.bitMap[unicode.ToUpper(r)] != 0
}

// All returns the set of all letters in the Alphabet
func (a *Alphabet) All() LetterSet {
	return a.allSet
}

// Letters returns the runes that are members of the given set,
// in alphabetical order
func (a *Alphabet) Letters(set LetterSet) []rune {
	result := make([]rune, 0, len(a.asRunes))
	for _, r := range a.asRunes {
		if set&a.bitMap[r] != 0 {
			result = append(result, r)
		}
	}
	return result
}

// Length returns the number of runes in the Alphabet
func (a *Alphabet) Length() int {
	return len(a.asRunes)
}

// String returns the letters of the Alphabet as a string
func (a *Alphabet) String() string {
	var sb strings.Builder
	for _, r := range a.asRunes {
		sb.WriteRune(r)
	}
	return sb.String()
}
