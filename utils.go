// utils.go
// Copyright (C) 2023 Vilhjálmur Þorsteinsson / Miðeind ehf
// This file contains small helper functions on rune slices

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

// ContainsRune returns true if a slice of runes contains a given rune
func ContainsRune(s []rune, r rune) bool {
	for _, c := range s {
		if c == r {
			return true
		}
	}
	return false
}

// RemoveRune returns a new slice without the first occurrence
// of the given rune. The original slice is not modified.
func RemoveRune(s []rune, r rune) []rune {
	for i, c := range s {
		if c == r {
			result := make([]rune, 0, len(s)-1)
			result = append(result, s[:i]...)
			return append(result, s[i+1:]...)
		}
	}
	return s
}
