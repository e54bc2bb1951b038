// validate.go
// Copyright (C) 2023 Vilhjálmur Þorsteinsson / Miðeind ehf

// This file implements the geometric validation of a placement,
// i.e. the comparison of a candidate board with the board that
// was in effect before the move.

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
	"errors"
	"fmt"
)

// ErrIllegalPlacement is wrapped by all errors returned from CheckPlacement
var ErrIllegalPlacement = errors.New("illegal placement")

func illegal(reason string) error {
	return fmt.Errorf("%w: %s", ErrIllegalPlacement, reason)
}

// CheckPlacement verifies that the candidate board can be produced
// from the previous board by a single legal placement, and returns the
// newly covered squares in reading order. Neither board is modified.
func CheckPlacement(prev, cand *Board) ([]Coordinate, error) {
	placed := make([]Coordinate, 0, RackSize)
	for i := 0; i < BoardSize; i++ {
		for j := 0; j < BoardSize; j++ {
			before, after := prev[i][j], cand[i][j]
			if before == after {
				continue
			}
			if !before.IsEmpty() {
				// A tile on the board was removed or replaced
				return nil, illegal(fmt.Sprintf("square %v is already occupied", Coordinate{i, j}))
			}
			placed = append(placed, Coordinate{i, j})
		}
	}
	if len(placed) == 0 {
		return nil, illegal("no tiles placed")
	}
	first, last := placed[0], placed[len(placed)-1]
	horizontal := true
	for _, c := range placed {
		if c.Row != first.Row {
			horizontal = false
			break
		}
	}
	if !horizontal {
		for _, c := range placed {
			if c.Col != first.Col {
				return nil, illegal("tiles must be placed in a single row or column")
			}
		}
	}
	// Check for gaps between the first and the last placed tile.
	// Tiles that were already on the board may fill them.
	if horizontal {
		for col := first.Col; col <= last.Col; col++ {
			if cand[first.Row][col].IsEmpty() {
				return nil, illegal("tiles must be contiguous")
			}
		}
	} else {
		for row := first.Row; row <= last.Row; row++ {
			if cand[row][first.Col].IsEmpty() {
				return nil, illegal("tiles must be contiguous")
			}
		}
	}
	numAdjacentTiles := 0
	coversCenter := false
	for _, c := range placed {
		if c == Center {
			coversCenter = true
		}
		numAdjacentTiles += prev.NumAdjacentTiles(c.Row, c.Col)
	}
	if coversCenter && len(placed) > 1 {
		return placed, nil
	}
	if numAdjacentTiles == 0 {
		if prev.IsEmpty() {
			return nil, illegal("the first move must cover the center with at least two tiles")
		}
		return nil, illegal("tiles must connect to tiles already on the board")
	}
	return placed, nil
}

// IsLegal returns true if the candidate board follows from the
// previous board by a single legal placement
func IsLegal(prev, cand *Board) bool {
	_, err := CheckPlacement(prev, cand)
	return err == nil
}
