// movegen.go
// Copyright (C) 2023 Vilhjálmur Þorsteinsson / Miðeind ehf
// This file contains code to generate all valid tile moves
// on a board, given a player's rack.

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

/*

Move generation follows Appel & Jacobson, "The World's Fastest Scrabble
Program" (CACM 31:5, 1988).

Generator.GenerateMoves() splits the board into 30 axes, the 15 rows
and the 15 columns, and searches each axis on a goroutine of its own.

An axis is described to the Dawg as a Skeleton of 15 slots. A slot
holding a tile is fixed to its letter. An empty slot is constrained
to its cross-check set: the letters that, placed there, turn the
perpendicular run of tiles through the square into a word. The set
is narrowed to the letters of the rack unless the rack holds a blank.

Anchors are the empty squares next to a tile; on an empty board the
center square of the center row is the only one. For each anchor:

1) If the square before the anchor holds a tile, the run of tiles
	ending there is looked up with a LeftFindNavigator and completed
	from that point with the whole rack.
2) Otherwise, the open squares before the anchor (back to the
	previous anchor) bound the length of a prefix laid from the rack.
	FindLeftParts() lists every such prefix once per generation, by
	length, and each one is completed by a CompletionNavigator
	resumed from where the prefix ends, as is the empty prefix.
3) A completion that stops at the edge of the board or before an
	empty square, at the end of a word, becomes a scored Move.

*/

package tilerack

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/sync/errgroup"
)

// Cover describes the covering of a single Square by a tile from
// the rack. A lower case Letter means a blank tile with that meaning.
type Cover struct {
	Row    int
	Col    int
	Letter rune
}

// Move is a tile move found by the Generator
type Move struct {
	// The whole word formed along the axis, lower case
	// for blank tiles
	Word       string
	Row        int
	Col        int
	Horizontal bool
	// The squares covered by tiles from the rack
	Covers []Cover
	// The tiles left in the rack after the move
	Rack  []rune
	Score int
}

// Coord returns the coordinate of the first square of the move,
// with the row first for a horizontal move, e.g. "8H",
// or the column first for a vertical one, e.g. "H8"
func (move *Move) Coord() string {
	if move.Horizontal {
		return rowIds[move.Row] + colIds[move.Col]
	}
	return colIds[move.Col] + rowIds[move.Row]
}

// String returns a description of the Move, such as "8H CAT 10"
func (move *Move) String() string {
	return fmt.Sprintf("%s %s %d", move.Coord(), move.Word, move.Score)
}

// Apply returns a copy of the board with the tiles of
// the move laid down on it
func (move *Move) Apply(board *Board) Board {
	result := *board
	for _, c := range move.Covers {
		if unicode.IsLower(c.Letter) {
			result[c.Row][c.Col] = Cell{Letter: unicode.ToUpper(c.Letter), Blank: true}
		} else {
			result[c.Row][c.Col] = Cell{Letter: c.Letter}
		}
	}
	return result
}

// Command returns the place command that makes the move
// on the given board
func (move *Move) Command(board *Board) string {
	cand := move.Apply(board)
	return Message{{Op: OpPlace, Operand: cand.String() + "/" + string(move.Rack)}}.String()
}

// Axis is a row or column of the board being searched for moves
type Axis struct {
	gen        *Generator
	board      *Board
	index      int
	horizontal bool
	// Letters of the rack; all letters if it holds a blank
	rackSet LetterSet
	// The rack being played from
	rack []rune
	// Cross-check sets, narrowed to rackSet
	crossCheck [BoardSize]LetterSet
	// A boolean for each square indicating whether it is an anchor
	// square
	isAnchor [BoardSize]bool
	// The slots of the axis, as seen by the CompletionNavigator
	skeleton Skeleton
}

// coord returns the board coordinate of a square within the Axis
func (axis *Axis) coord(i int) Coordinate {
	if axis.horizontal {
		return Coordinate{axis.index, i}
	}
	return Coordinate{i, axis.index}
}

// cell returns the board cell of a square within the Axis
func (axis *Axis) cell(i int) Cell {
	c := axis.coord(i)
	return axis.board[c.Row][c.Col]
}

// Init sets up the axis for a row (horizontal) or a column
func (axis *Axis) Init(gen *Generator, board *Board, rack []rune, rackSet LetterSet, index int, horizontal bool) {
	axis.gen = gen
	axis.board = board
	axis.index = index
	axis.horizontal = horizontal
	axis.rack = rack
	axis.rackSet = rackSet
	axis.skeleton = make(Skeleton, BoardSize)
	emptyBoard := board.IsEmpty()
	for i := 0; i < BoardSize; i++ {
		cell := axis.cell(i)
		if !cell.IsEmpty() {
			axis.skeleton[i] = Slot{Fixed: cell.Marked()}
			continue
		}
		c := axis.coord(i)
		var isAnchor bool
		if emptyBoard {
			// Only the center square, and only across
			isAnchor = horizontal && c == Center
		} else {
			isAnchor = board.NumAdjacentTiles(c.Row, c.Col) > 0
		}
		if !isAnchor {
			axis.crossCheck[i] = rackSet
		} else {
			// This is an anchor square. Note, however, that the
			// cross-check set for it may be zero, if no tile from
			// the rack can be placed in it due to cross-words.
			axis.isAnchor[i] = true
			axis.crossCheck[i] = rackSet & axis.crossSet(c)
		}
		axis.skeleton[i] = Slot{Constrained: true, Allowed: axis.crossCheck[i]}
	}
}

func (axis *Axis) crossSet(c Coordinate) LetterSet {
	left, right := axis.board.CrossWords(c.Row, c.Col, !axis.horizontal)
	if len(left) == 0 && len(right) == 0 {
		return axis.gen.dawg.alphabet.All()
	}
	return axis.gen.dawg.CrossSet(left, right)
}

// IsAnchor tells whether a square of the axis is an anchor
func (axis *Axis) IsAnchor(index int) bool {
	return axis.isAnchor[index]
}

// IsOpen returns true if the given square within the Axis
// is open for a new tile from the Rack
func (axis *Axis) IsOpen(index int) bool {
	return axis.cell(index).IsEmpty() && axis.crossCheck[index] != 0
}

// completionsFrom runs a CompletionNavigator from the anchor,
// either from the root of the DAWG or from a saved state
func (axis *Axis) completionsFrom(anchor int, rack []rune, prefix []rune, placed int, state *navState) []Completion {
	dawg := axis.gen.dawg
	var cn CompletionNavigator
	cn.Init(dawg, axis.skeleton, anchor, rack)
	cn.minLen = 2
	if state == nil {
		dawg.Navigate(&cn)
		return cn.results
	}
	cn.resumeWith(prefix, placed)
	dawg.Resume(&cn, state, []rune(strings.ToUpper(string(prefix))))
	return cn.results
}

// genMovesFromAnchor returns the available moves that use the given square
// within the Axis as an anchor
func (axis *Axis) genMovesFromAnchor(anchor int, maxLeft int, leftParts [][]*LeftPart) []Move {
	dawg := axis.gen.dawg

	if anchor > 0 && !axis.cell(anchor-1).IsEmpty() {
		direction := LEFT
		if !axis.horizontal {
			direction = ABOVE
		}
		c := axis.coord(anchor)
		left := axis.board.Fragment(c.Row, c.Col, direction)
		var lfn LeftFindNavigator
		lfn.Init([]rune(strings.ToUpper(string(left))))
		dawg.NavigateResumable(&lfn)
		if lfn.state == nil {
			// Not a prefix of any word
			return nil
		}
		return axis.makeMoves(axis.completionsFrom(anchor, axis.rack, left, 0, lfn.state))
	}

	// Words starting at the anchor
	moves := axis.makeMoves(axis.completionsFrom(anchor, axis.rack, nil, 0, nil))

	// Words starting with a prefix laid before the anchor
	for leftLen := 1; leftLen <= maxLeft && leftLen <= len(leftParts); leftLen++ {
		for _, leftPart := range leftParts[leftLen-1] {
			completions := axis.completionsFrom(anchor, leftPart.rack, leftPart.matched, leftLen, leftPart.state)
			moves = append(moves, axis.makeMoves(completions)...)
		}
	}
	return moves
}

// makeMoves converts completions along the axis to scored Moves
func (axis *Axis) makeMoves(completions []Completion) []Move {
	moves := make([]Move, 0, len(completions))
	for _, comp := range completions {
		start := axis.coord(comp.Start)
		move := Move{
			Word:       comp.Word,
			Row:        start.Row,
			Col:        start.Col,
			Horizontal: axis.horizontal,
			Covers:     make([]Cover, 0, comp.Placed),
			Rack:       comp.Rack,
		}
		for i, letter := range []rune(comp.Word) {
			if axis.skeleton[comp.Start+i].Fixed != 0 {
				continue
			}
			c := axis.coord(comp.Start + i)
			move.Covers = append(move.Covers, Cover{Row: c.Row, Col: c.Col, Letter: letter})
		}
		cand := move.Apply(axis.board)
		move.Score = axis.gen.scorer.Score(axis.board, &cand, move.Rack)
		moves = append(moves, move)
	}
	return moves
}

// GenerateMoves returns the moves along the axis
func (axis *Axis) GenerateMoves(leftParts [][]*LeftPart) []Move {
	lenRack := len(axis.rack)
	moves := make([]Move, 0)
	lastAnchor := -1
	for i := 0; i < BoardSize; i++ {
		if !axis.IsAnchor(i) {
			continue
		}
		if axis.crossCheck[i] != 0 {
			// Prefixes may fill the open squares back to the previous anchor
			openCnt := 0
			left := i
			for left > 0 && left > (lastAnchor+1) && axis.IsOpen(left-1) {
				openCnt++
				left--
			}
			moves = append(moves,
				axis.genMovesFromAnchor(i, min(openCnt, lenRack-1), leftParts)...,
			)
		}
		lastAnchor = i
	}
	return moves
}

// Generator finds the legal tile moves for a rack on a board
// and scores them. A Generator may be used concurrently.
type Generator struct {
	dawg   *Dawg
	scorer *Scorer
}

// NewGenerator returns a Generator that finds words in the given
// Dawg and scores moves with the given Scorer
func NewGenerator(dawg *Dawg, scorer *Scorer) *Generator {
	return &Generator{dawg: dawg, scorer: scorer}
}

// GenerateMoves returns every legal move the rack can make on the
// board. The rows and columns are searched concurrently; the moves
// come back rows first, then columns, in the same order every time.
func (gen *Generator) GenerateMoves(board *Board, rack []rune) []Move {
	if len(rack) == 0 {
		return nil
	}
	rackSet := gen.dawg.alphabet.MakeSet(rack)
	leftParts := FindLeftParts(gen.dawg, rack)
	var results [BoardSize * 2][]Move
	var g errgroup.Group
	for i := 0; i < BoardSize*2; i++ {
		i := i
		g.Go(func() error {
			var axis Axis
			axis.Init(gen, board, rack, rackSet, i%BoardSize, i < BoardSize)
			results[i] = axis.GenerateMoves(leftParts)
			return nil
		})
	}
	// The axis goroutines never fail
	_ = g.Wait()
	moves := make([]Move, 0)
	for _, list := range results {
		moves = append(moves, list...)
	}
	return moves
}

// BestMove returns the highest scoring move on the board, the first
// one found in case of a tie, or false if there is no legal move
func (gen *Generator) BestMove(board *Board, rack []rune) (Move, bool) {
	moves := gen.GenerateMoves(board, rack)
	if len(moves) == 0 {
		return Move{}, false
	}
	best := 0
	for i := range moves {
		if moves[i].Score > moves[best].Score {
			best = i
		}
	}
	return moves[best], true
}
