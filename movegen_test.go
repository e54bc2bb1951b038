// movegen_test.go
// Copyright (C) 2018 Vilhjálmur Þorsteinsson
// This file contains tests for the move generator

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
	"testing"
)

func englishGenerator(t testing.TB) (*Generator, *Scorer) {
	t.Helper()
	dawg := englishDawg(t)
	scorer := NewScorer(englishTileSet(t), nil, dawg)
	return NewGenerator(dawg, scorer), scorer
}

// checkMoves verifies that every generated move is a legal placement
// of valid words from the rack, with the right score
func checkMoves(t *testing.T, scorer *Scorer, board *Board, rack string, moves []Move) {
	t.Helper()
	for i := range moves {
		move := &moves[i]
		cand := move.Apply(board)
		if _, err := CheckPlacement(board, &cand); err != nil {
			t.Errorf("Move %v is not a legal placement: %v", move, err)
			continue
		}
		if err := scorer.CheckWords(board, &cand); err != nil {
			t.Errorf("Move %v forms an invalid word: %v", move, err)
		}
		if score := scorer.Score(board, &cand, move.Rack); score != move.Score {
			t.Errorf("Move %v has score %v, expected %v", move, move.Score, score)
		}
		used := make([]rune, 0, len(move.Covers))
		for _, c := range move.Covers {
			if c.Letter >= 'a' && c.Letter <= 'z' {
				used = append(used, Wildcard)
			} else {
				used = append(used, c.Letter)
			}
		}
		if !Rack(append(used, move.Rack...)).Equal([]rune(rack)) {
			t.Errorf("Move %v does not account for the rack %v", move, rack)
		}
	}
}

func findMove(moves []Move, word string, row, col int, horizontal bool) *Move {
	for i := range moves {
		m := &moves[i]
		if m.Word == word && m.Row == row && m.Col == col && m.Horizontal == horizontal {
			return m
		}
	}
	return nil
}

func TestGenerateOpening(t *testing.T) {
	gen, scorer := englishGenerator(t)
	var board Board
	moves := gen.GenerateMoves(&board, []rune("CATSERD"))
	if len(moves) == 0 {
		t.Fatalf("No opening moves found")
	}
	checkMoves(t, scorer, &board, "CATSERD", moves)
	for _, m := range moves {
		if !m.Horizontal || m.Row != Center.Row {
			t.Errorf("Opening move %v should lie across the center row", &m)
		}
	}
	for col := 5; col <= 7; col++ {
		m := findMove(moves, "CAT", 7, col, true)
		if m == nil {
			t.Errorf("CAT from column %v not found", col)
			continue
		}
		if m.Score != 10 || len(m.Covers) != 3 {
			t.Errorf("CAT from column %v: %v with %v tiles", col, m, len(m.Covers))
		}
	}
	if m := findMove(moves, "CASTERS", 7, 1, true); m != nil {
		t.Errorf("CASTERS needs two S tiles, found %v", m)
	}
	if m := findMove(moves, "CASTER", 7, 7, true); m == nil || string(m.Rack) != "D" {
		t.Errorf("Expected CASTER keeping D, found %v", m)
	}
	if moves := gen.GenerateMoves(&board, nil); len(moves) != 0 {
		t.Errorf("An empty rack should have no moves")
	}
}

func TestGenerateOnBoard(t *testing.T) {
	gen, scorer := englishGenerator(t)
	board := boardWith(t, 7, 7, true, "CAT")
	moves := gen.GenerateMoves(&board, []rune("SEARDO*"))
	checkMoves(t, scorer, &board, "SEARDO*", moves)
	if m := findMove(moves, "CATS", 7, 7, true); m == nil || m.Score != 6 {
		t.Errorf("Expected CATS for 6, found %v", m)
	}
	// A blank is not spent on a letter the rack holds
	if m := findMove(moves, "CATs", 7, 7, true); m != nil {
		t.Errorf("Expected the S tile rather than a blank, found %v", m)
	}
	noS := gen.GenerateMoves(&board, []rune("EARDO*"))
	checkMoves(t, scorer, &board, "EARDO*", noS)
	if m := findMove(noS, "CATs", 7, 7, true); m == nil || m.Score != 5 {
		t.Errorf("Expected CATs with a blank for 5, found %v", m)
	}
	if m := findMove(moves, "CARE", 7, 7, false); m == nil || len(m.Covers) != 3 {
		t.Errorf("Expected CARE down from the C, found %v", m)
	}
	// Every move touches the tiles already on the board
	for _, m := range moves {
		cand := m.Apply(&board)
		if len(NewWords(&board, &cand)) == 0 {
			t.Errorf("Move %v forms no new word", &m)
		}
	}
}

func TestBestMove(t *testing.T) {
	gen, scorer := englishGenerator(t)
	var board Board
	move, ok := gen.BestMove(&board, []rune("QI"))
	if !ok {
		t.Fatalf("BestMove() finds nothing for QI")
	}
	if move.Word != "QI" || move.Score != 22 || len(move.Rack) != 0 {
		t.Errorf("BestMove() returns %v", &move)
	}
	for _, m := range gen.GenerateMoves(&board, []rune("QI")) {
		if m.Score > move.Score {
			t.Errorf("Move %v beats the best move %v", &m, &move)
		}
	}
	if _, ok := gen.BestMove(&board, []rune("QZ")); ok {
		t.Errorf("BestMove() should find nothing for QZ")
	}
	board = boardWith(t, 7, 7, true, "CAT")
	move, ok = gen.BestMove(&board, []rune("SERDOGA"))
	if !ok {
		t.Fatalf("BestMove() finds nothing on a board with CAT")
	}
	checkMoves(t, scorer, &board, "SERDOGA", []Move{move})
}

func TestMoveCommand(t *testing.T) {
	move := Move{Word: "CAT", Row: 7, Col: 7, Horizontal: true, Score: 10}
	if s := move.String(); s != "8H CAT 10" {
		t.Errorf("Move prints as %v", s)
	}
	move.Horizontal = false
	if s := move.String(); s != "H8 CAT 10" {
		t.Errorf("Vertical move prints as %v", s)
	}
	board := boardWith(t, 7, 7, true, "CA")
	move = Move{
		Word:       "CATs",
		Row:        7,
		Col:        7,
		Horizontal: true,
		Covers:     []Cover{{7, 9, 'T'}, {7, 10, 's'}},
		Rack:       []rune("ERD"),
	}
	cand := move.Apply(&board)
	if board.NumTiles() != 2 || cand.NumTiles() != 4 {
		t.Errorf("Apply() should lay two tiles on a copy of the board")
	}
	if c := cand.At(7, 10); !c.Blank || c.Letter != 'S' {
		t.Errorf("Apply() lays %+v for a blank S", c)
	}
	line := move.Command(&board)
	if !strings.HasPrefix(line, "place: ") || !strings.HasSuffix(line, "/ERD") {
		t.Errorf("Command() returns %v", line)
	}
	cmd, err := ParseCommand(line)
	if err != nil {
		t.Fatalf("ParseCommand() fails on %v: %v", line, err)
	}
	place, ok := cmd.(PlaceCommand)
	if !ok || place.Board != cand || place.Rack.String() != "ERD" {
		t.Errorf("Command() does not round trip: %+v", cmd)
	}
}

func BenchmarkGenerateMoves(b *testing.B) {
	gen, _ := englishGenerator(b)
	var board Board
	board[7][7] = Cell{Letter: 'C'}
	board[7][8] = Cell{Letter: 'A'}
	board[7][9] = Cell{Letter: 'T'}
	rack := []rune("RECAST*")
	for i := 0; i < b.N; i++ {
		gen.GenerateMoves(&board, rack)
	}
}
