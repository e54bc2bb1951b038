// board.go
// Copyright (C) 2023 Vilhjálmur Þorsteinsson / Miðeind ehf
// This file implements the Board, its Cells and the premium
// square layout, together with the word runs found on a board

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
	"strings"
	"unicode"
)

// BoardSize is the number of rows, and of columns
const BoardSize = 15

// RackSize is the number of tiles a full rack holds
const RackSize = 7

// BingoBonus is added when a move lays down a full rack
const BingoBonus = 50

// Center is the center square of the Board
var Center = Coordinate{Row: BoardSize / 2, Col: BoardSize / 2}

// Indices of directions, as used by Fragment
const (
	ABOVE = 0
	LEFT  = 1
	RIGHT = 2
	BELOW = 3
)

// Coordinate identifies a Board square
type Coordinate struct {
	Row int
	Col int
}

// String returns the coordinate in the usual A1 style
func (c Coordinate) String() string {
	if c.Row < 0 || c.Row >= BoardSize || c.Col < 0 || c.Col >= BoardSize {
		return fmt.Sprintf("(%d,%d)", c.Row, c.Col)
	}
	return rowIds[c.Row] + colIds[c.Col]
}

// Cell is a Board square. The zero value is an empty square.
// A blank tile that has been given a meaning has Blank set and
// the (upper case) letter in Letter; a blank tile that has not
// yet been given a meaning has Blank set and a zero Letter.
type Cell struct {
	Letter rune
	Blank  bool
}

// IsEmpty returns true if no tile occupies the Cell
func (c Cell) IsEmpty() bool {
	return c.Letter == 0 && !c.Blank
}

// IsWildcard returns true for a blank tile without a meaning
func (c Cell) IsWildcard() bool {
	return c.Blank && c.Letter == 0
}

// Rune returns the wire representation of a Cell
func (c Cell) Rune() rune {
	switch {
	case c.IsEmpty():
		return '.'
	case c.IsWildcard():
		return Wildcard
	case c.Blank:
		return unicode.ToLower(c.Letter)
	}
	return c.Letter
}

// Marked returns the letter of the tile in the Cell, lower case
// if the tile is a blank, or Wildcard if the blank has no meaning yet
func (c Cell) Marked() rune {
	if c.Blank {
		if c.Letter == 0 {
			return Wildcard
		}
		return unicode.ToLower(c.Letter)
	}
	return c.Letter
}

// cellFromRune decodes a single wire character
func cellFromRune(r rune) (Cell, bool) {
	switch {
	case r == '.' || r == ' ':
		return Cell{}, true
	case r == Wildcard:
		return Cell{Blank: true}, true
	case unicode.IsUpper(r):
		return Cell{Letter: r}, true
	case unicode.IsLower(r):
		return Cell{Letter: unicode.ToUpper(r), Blank: true}, true
	}
	return Cell{}, false
}

// Board is a value type: copying a Board copies all its Cells
type Board [BoardSize][BoardSize]Cell

// Column letters, as used in move coordinates
var colIds = [BoardSize]string{
	"A", "B", "C", "D", "E",
	"F", "G", "H", "I", "J",
	"K", "L", "M", "N", "O",
}

// Row numbers, one-based
var rowIds = [BoardSize]string{
	"1", "2", "3", "4", "5",
	"6", "7", "8", "9", "10",
	"11", "12", "13", "14", "15",
}

// ParseBoard reads a Board from its row-major wire form
// of BoardSize*BoardSize characters
func ParseBoard(s string) (Board, error) {
	var board Board
	runes := []rune(s)
	if len(runes) != BoardSize*BoardSize {
		return board, fmt.Errorf("board must have %d cells, got %d", BoardSize*BoardSize, len(runes))
	}
	for i, r := range runes {
		cell, ok := cellFromRune(r)
		if !ok {
			return board, fmt.Errorf("invalid character %q in board at %v", r, Coordinate{i / BoardSize, i % BoardSize})
		}
		board[i/BoardSize][i%BoardSize] = cell
	}
	return board, nil
}

// ParseRows reads a Board from a list of row strings, as
// used by the HTTP API. Missing rows and columns are empty.
func ParseRows(rows []string) (Board, error) {
	var board Board
	if len(rows) > BoardSize {
		return board, fmt.Errorf("board can have at most %d rows, got %d", BoardSize, len(rows))
	}
	for i, row := range rows {
		runes := []rune(row)
		if len(runes) > BoardSize {
			return board, fmt.Errorf("row %d is longer than %d cells", i+1, BoardSize)
		}
		for j, r := range runes {
			cell, ok := cellFromRune(r)
			if !ok {
				return board, fmt.Errorf("invalid character %q in board at %v", r, Coordinate{i, j})
			}
			board[i][j] = cell
		}
	}
	return board, nil
}

// String represents a Board in its row-major wire form
func (board *Board) String() string {
	var sb strings.Builder
	sb.Grow(BoardSize * BoardSize)
	for i := 0; i < BoardSize; i++ {
		for j := 0; j < BoardSize; j++ {
			sb.WriteRune(board[i][j].Rune())
		}
	}
	return sb.String()
}

// Rows returns the Board as a list of row strings
func (board *Board) Rows() []string {
	rows := make([]string, BoardSize)
	for i := 0; i < BoardSize; i++ {
		var sb strings.Builder
		for j := 0; j < BoardSize; j++ {
			sb.WriteRune(board[i][j].Rune())
		}
		rows[i] = sb.String()
	}
	return rows
}

// Pretty returns a printable, labelled representation of the Board
func (board *Board) Pretty() string {
	var sb strings.Builder
	sb.WriteString("   ")
	for i := 0; i < BoardSize; i++ {
		sb.WriteString(colIds[i] + " ")
	}
	sb.WriteString("\n")
	for i := 0; i < BoardSize; i++ {
		sb.WriteString(fmt.Sprintf("%2s ", rowIds[i]))
		for j := 0; j < BoardSize; j++ {
			sb.WriteString(fmt.Sprintf("%c ", board[i][j].Rune()))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// At returns the Cell at the given position, or an empty Cell
// if the position is off the board
func (board *Board) At(row, col int) Cell {
	if row < 0 || row >= BoardSize || col < 0 || col >= BoardSize {
		return Cell{}
	}
	return board[row][col]
}

// IsEmpty returns true if there are no tiles on the Board
func (board *Board) IsEmpty() bool {
	return board.NumTiles() == 0
}

// NumTiles returns the number of tiles on the Board
func (board *Board) NumTiles() int {
	count := 0
	for i := 0; i < BoardSize; i++ {
		for j := 0; j < BoardSize; j++ {
			if !board[i][j].IsEmpty() {
				count++
			}
		}
	}
	return count
}

// NumAdjacentTiles counts the orthogonal neighbours of a square
// that hold a tile
func (board *Board) NumAdjacentTiles(row, col int) int {
	count := 0
	for _, d := range [4][2]int{{-1, 0}, {0, -1}, {0, 1}, {1, 0}} {
		if !board.At(row+d[0], col+d[1]).IsEmpty() {
			count++
		}
	}
	return count
}

var directionDeltas = [4][2]int{
	ABOVE: {-1, 0},
	LEFT:  {0, -1},
	RIGHT: {0, 1},
	BELOW: {1, 0},
}

// Fragment returns the letters of the tiles that extend from the square
// at row, col in the direction specified (ABOVE/BELOW/LEFT/RIGHT),
// not including the square itself. The letters are returned in reading
// order, lower case for blank tiles.
func (board *Board) Fragment(row, col int, direction int) []rune {
	if row < 0 || col < 0 || row >= BoardSize || col >= BoardSize {
		return nil
	}
	if direction < ABOVE || direction > BELOW {
		return nil
	}
	frag := make([]rune, 0, BoardSize-1)
	d := directionDeltas[direction]
	for {
		row, col = row+d[0], col+d[1]
		cell := board.At(row, col)
		if cell.IsEmpty() {
			break
		}
		frag = append(frag, cell.Marked())
	}
	if direction == LEFT || direction == ABOVE {
		for i, j := 0, len(frag)-1; i < j; i, j = i+1, j-1 {
			frag[i], frag[j] = frag[j], frag[i]
		}
	}
	return frag
}

// CrossWords returns the fragments on either side of a square,
// along a row if horizontal, else along its column
func (board *Board) CrossWords(row, col int, horizontal bool) (left, right []rune) {
	if horizontal {
		return board.Fragment(row, col, LEFT), board.Fragment(row, col, RIGHT)
	}
	return board.Fragment(row, col, ABOVE), board.Fragment(row, col, BELOW)
}

// Word is a maximal run of two or more tiles within a row or column
type Word struct {
	// The letters of the word, lower case for blank tiles
	Text       string
	Row        int
	Col        int
	Horizontal bool
}

// Plain returns the word in upper case
func (w Word) Plain() string {
	return strings.ToUpper(w.Text)
}

// Cells returns the coordinates covered by the word
func (w Word) Cells() []Coordinate {
	n := len([]rune(w.Text))
	cells := make([]Coordinate, n)
	for i := 0; i < n; i++ {
		if w.Horizontal {
			cells[i] = Coordinate{w.Row, w.Col + i}
		} else {
			cells[i] = Coordinate{w.Row + i, w.Col}
		}
	}
	return cells
}

// String returns a printable representation of a Word
func (w Word) String() string {
	dir := "across"
	if !w.Horizontal {
		dir = "down"
	}
	return fmt.Sprintf("%s at %v %s", w.Text, Coordinate{w.Row, w.Col}, dir)
}

// Words returns every maximal run of two or more tiles on the
// Board, first the horizontal ones row by row, then the vertical
// ones column by column. Unresolved blanks appear as Wildcard.
func (board *Board) Words() []Word {
	words := make([]Word, 0, 16)
	for _, horizontal := range []bool{true, false} {
		for line := 0; line < BoardSize; line++ {
			run := make([]rune, 0, BoardSize)
			start := 0
			flush := func() {
				if len(run) >= 2 {
					w := Word{Text: string(run), Horizontal: horizontal}
					if horizontal {
						w.Row, w.Col = line, start
					} else {
						w.Row, w.Col = start, line
					}
					words = append(words, w)
				}
				run = run[:0]
			}
			for pos := 0; pos < BoardSize; pos++ {
				var cell Cell
				if horizontal {
					cell = board[line][pos]
				} else {
					cell = board[pos][line]
				}
				if cell.IsEmpty() {
					flush()
					continue
				}
				if len(run) == 0 {
					start = pos
				}
				run = append(run, cell.Rune())
			}
			flush()
		}
	}
	return words
}

// PremiumMap holds the letter and word multipliers of each square
type PremiumMap struct {
	Letter [BoardSize][BoardSize]int
	Word   [BoardSize][BoardSize]int
}

// StandardPremiums is the standard premium square layout
var StandardPremiums = newPremiumMap(
	[BoardSize]string{
		"311111131111113",
		"121111111111121",
		"112111111111211",
		"111211111112111",
		"111121111121111",
		"111111111111111",
		"111111111111111",
		"311111121111113",
		"111111111111111",
		"111111111111111",
		"111121111121111",
		"111211111112111",
		"112111111111211",
		"121111111111121",
		"311111131111113",
	},
	[BoardSize]string{
		"111211111112111",
		"111113111311111",
		"111111212111111",
		"211111121111112",
		"111111111111111",
		"131113111311131",
		"112111212111211",
		"111211111112111",
		"112111212111211",
		"131113111311131",
		"111111111111111",
		"211111121111112",
		"111111212111111",
		"111113111311111",
		"111211111112111",
	},
)

// NoPremiums is a layout without any premium squares
var NoPremiums = newPremiumMap([BoardSize]string{}, [BoardSize]string{})

func newPremiumMap(wordMultipliers, letterMultipliers [BoardSize]string) *PremiumMap {
	const zero = int('0')
	pm := &PremiumMap{}
	for i := 0; i < BoardSize; i++ {
		for j := 0; j < BoardSize; j++ {
			pm.Word[i][j], pm.Letter[i][j] = 1, 1
			if len(wordMultipliers[i]) == BoardSize {
				pm.Word[i][j] = int(wordMultipliers[i][j]) - zero
			}
			if len(letterMultipliers[i]) == BoardSize {
				pm.Letter[i][j] = int(letterMultipliers[i][j]) - zero
			}
		}
	}
	return pm
}
