// score.go
// Copyright (C) 2023 Vilhjálmur Þorsteinsson / Miðeind ehf

// This file implements the scoring of a placement, the resolution
// of blank tiles that were laid down without a meaning, and the
// dictionary check of the words formed by a placement.

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
	"strings"
	"unicode"
)

// InvalidWordError is returned when a placement forms a word that
// is not in the dictionary, or when the blank tiles in a word
// cannot be given any meaning that makes it valid
type InvalidWordError struct {
	Word string
}

func (e *InvalidWordError) Error() string {
	return "invalid word: " + e.Word
}

// Scorer calculates the score of placements and checks the words
// they form, for a particular tile set, premium layout and dictionary
type Scorer struct {
	TileSet  *TileSet
	Premiums *PremiumMap
	Dawg     *Dawg
}

// NewScorer returns a Scorer. A nil premium map means the
// standard layout.
func NewScorer(tileSet *TileSet, premiums *PremiumMap, dawg *Dawg) *Scorer {
	if premiums == nil {
		premiums = StandardPremiums
	}
	return &Scorer{TileSet: tileSet, Premiums: premiums, Dawg: dawg}
}

// NewWords returns the words on the candidate board that were not
// on the previous board. A word is identified by its text together
// with its position and orientation, so that the same text formed
// in a new place counts as a new word.
func NewWords(prev, cand *Board) []Word {
	old := make(map[Word]bool)
	for _, w := range prev.Words() {
		old[w] = true
	}
	words := make([]Word, 0, 4)
	for _, w := range cand.Words() {
		if !old[w] {
			words = append(words, w)
		}
	}
	return words
}

// letterValue returns the nominal value of the tile in a cell
func (scorer *Scorer) letterValue(cell Cell) int {
	if cell.Blank || scorer.TileSet == nil {
		return 0
	}
	return scorer.TileSet.Values[cell.Letter]
}

// WordScore returns the score of a single word on the candidate
// board, applying the premiums of squares that were empty on the
// previous board
func (scorer *Scorer) WordScore(prev, cand *Board, w Word) int {
	score := 0
	multiplier := 1
	for _, c := range w.Cells() {
		value := scorer.letterValue(cand[c.Row][c.Col])
		if prev[c.Row][c.Col].IsEmpty() {
			// Newly covered square: its premiums apply
			value *= scorer.Premiums.Letter[c.Row][c.Col]
			multiplier *= scorer.Premiums.Word[c.Row][c.Col]
		}
		score += value
	}
	return score * multiplier
}

// Score returns the score of the placement that leads from the previous
// board to the candidate board, given the rack remaining after it
func (scorer *Scorer) Score(prev, cand *Board, rackAfter []rune) int {
	score := 0
	for _, w := range NewWords(prev, cand) {
		score += scorer.WordScore(prev, cand, w)
	}
	if len(rackAfter) == 0 && cand.NumTiles()-prev.NumTiles() == RackSize {
		// The player played the entire rack: add the bingo bonus
		score += BingoBonus
	}
	return score
}

// runThrough returns the run of tiles containing the given square,
// in the given orientation, including the square itself
func runThrough(board *Board, c Coordinate, horizontal bool) []rune {
	before, after := board.CrossWords(c.Row, c.Col, horizontal)
	run := make([]rune, 0, len(before)+len(after)+1)
	run = append(run, before...)
	run = append(run, board[c.Row][c.Col].Marked())
	return append(run, after...)
}

// ResolveWildcards returns a copy of the candidate board where every
// blank tile without a meaning has been given one, such that each new
// word containing it is in the dictionary. Letters chosen for blanks
// are written as blank tiles with a meaning (lower case on the wire).
func (scorer *Scorer) ResolveWildcards(prev, cand *Board) (Board, error) {
	board := *cand
	for {
		var target *Word
		for _, w := range NewWords(prev, &board) {
			if strings.ContainsRune(w.Text, Wildcard) {
				target = &w
				break
			}
		}
		if target == nil {
			// Nothing (more) to resolve
			return board, nil
		}
		cells := target.Cells()
		resolved := false
		for _, match := range scorer.Dawg.Search(target.Text) {
			trial := board
			changed := make([]Coordinate, 0, 2)
			for i, r := range []rune(match) {
				c := cells[i]
				if trial[c.Row][c.Col].IsWildcard() {
					trial[c.Row][c.Col] = Cell{Letter: unicode.ToUpper(r), Blank: true}
					changed = append(changed, c)
				}
			}
			if scorer.crossWordsValid(&trial, changed, !target.Horizontal) {
				board = trial
				resolved = true
				break
			}
		}
		if !resolved {
			return *cand, &InvalidWordError{Word: target.Text}
		}
	}
}

// crossWordsValid checks the runs through the given squares in the given
// orientation. Runs that still contain unresolved blanks are left for later.
func (scorer *Scorer) crossWordsValid(board *Board, squares []Coordinate, horizontal bool) bool {
	for _, c := range squares {
		run := runThrough(board, c, horizontal)
		if len(run) < 2 || ContainsRune(run, Wildcard) {
			continue
		}
		if !scorer.Dawg.Contains(string(run)) {
			return false
		}
	}
	return true
}

// CheckWords returns an InvalidWordError for the first word formed
// by the placement that is not in the dictionary
func (scorer *Scorer) CheckWords(prev, cand *Board) error {
	for _, w := range NewWords(prev, cand) {
		if !scorer.Dawg.Contains(w.Plain()) {
			return &InvalidWordError{Word: w.Text}
		}
	}
	return nil
}
