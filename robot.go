// robot.go
// Copyright (C) 2023 Vilhjálmur Þorsteinsson / Miðeind ehf
// This file implements robot players: move picking strategies,
// and the RobotPlayer participant that plays them in a Session

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
	"context"
	"errors"
	"sort"
	"strconv"

	"github.com/rs/zerolog"
)

// Robot is an interface for automatic players that implement
// a playing strategy to pick a move given a list of legal tile
// moves. PickMove returns false if the robot prefers not to
// place tiles, in which case it will swap or pass.
type Robot interface {
	PickMove(moves []Move) (Move, bool)
}

// HighScoreRobot implements a simple strategy: it always picks
// the highest-scoring move available
type HighScoreRobot struct {
}

// PickMove for a HighScoreRobot picks the highest scoring move
// available, the first one found in case of a tie
func (robot *HighScoreRobot) PickMove(moves []Move) (Move, bool) {
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

// NewHighScoreRobot returns a fresh instance of a HighScoreRobot
func NewHighScoreRobot() *HighScoreRobot {
	return &HighScoreRobot{}
}

// OneOfNBestRobot picks one of the N highest scoring moves at random
type OneOfNBestRobot struct {
	n   int
	rng Rand
}

// NewOneOfNBestRobot returns a robot that picks one of the n best
// moves. If rng is nil, frand is used.
func NewOneOfNBestRobot(n int, rng Rand) *OneOfNBestRobot {
	if n < 1 {
		n = 1
	}
	if rng == nil {
		rng = frandSource{}
	}
	return &OneOfNBestRobot{n: n, rng: rng}
}

// PickMove for a OneOfNBestRobot sorts the moves by descending score
// and picks one of the first n
func (robot *OneOfNBestRobot) PickMove(moves []Move) (Move, bool) {
	if len(moves) == 0 {
		return Move{}, false
	}
	sorted := make([]Move, len(moves))
	copy(sorted, moves)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})
	return sorted[robot.rng.Intn(min(robot.n, len(sorted)))], true
}

// RobotPlayer is a Participant that plays a Session on its own,
// picking moves with a Robot. It follows the session's messages to
// learn its turn order position, its rack and the board; when it is
// its turn it places tiles, or else swaps its whole rack, or else
// passes if the swap was refused.
type RobotPlayer struct {
	robot   Robot
	gen     *Generator
	session *Session
	box     *mailbox
	log     zerolog.Logger

	seat    int
	rack    Rack
	board   Board
	swapped bool
	winner  string
}

// NewRobotPlayer returns a RobotPlayer for a session. Join it
// to the session and call Run on a goroutine of its own.
func NewRobotPlayer(session *Session, gen *Generator, robot Robot, log zerolog.Logger) *RobotPlayer {
	return &RobotPlayer{
		robot:   robot,
		gen:     gen,
		session: session,
		box:     newMailbox(),
		log:     log,
		seat:    -1,
	}
}

// Deliver queues a message from the session
func (rp *RobotPlayer) Deliver(msg Message) {
	rp.box.put(msg)
}

// Close marks the end of the session's messages
func (rp *RobotPlayer) Close() {
	rp.box.close()
}

// Seat returns the turn order position of the robot,
// or -1 before the session has started
func (rp *RobotPlayer) Seat() int {
	return rp.seat
}

// Winner returns the operand of the winner message, once received
func (rp *RobotPlayer) Winner() string {
	return rp.winner
}

// Run processes the session's messages until the session closes the
// player or the context is done
func (rp *RobotPlayer) Run(ctx context.Context) error {
	for {
		msg, err := rp.box.take(ctx)
		if errors.Is(err, ErrParticipantClosed) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := rp.handle(ctx, msg); err != nil {
			if errors.Is(err, ErrSessionFinished) {
				// The game ended while we were thinking
				continue
			}
			return err
		}
	}
}

func (rp *RobotPlayer) handle(ctx context.Context, msg Message) error {
	for _, f := range msg {
		switch f.Op {
		case OpOrder:
			seat, err := strconv.Atoi(f.Operand)
			if err != nil {
				return err
			}
			rp.seat = seat
			rp.log = rp.log.With().Int("seat", seat).Logger()
		case OpTiles:
			rp.rack = ParseRack(f.Operand)
		case OpBoard:
			board, err := ParseBoard(f.Operand)
			if err != nil {
				return err
			}
			rp.board = board
		case OpCurrentPlayer:
			current, err := strconv.Atoi(f.Operand)
			if err != nil {
				return err
			}
			if current == rp.seat {
				rp.swapped = false
				return rp.play(ctx)
			}
		case OpError1, OpError2:
			// Our swap (or, unexpectedly, our placement) was refused
			rp.log.Debug().Str("op", f.Op).Str("reason", f.Operand).Msg("Robot command refused")
			return rp.submit(ctx, Message{{OpPass, ""}}.String())
		case OpWinner:
			rp.winner = f.Operand
		}
	}
	return nil
}

// play decides on a command for the current turn and submits it
func (rp *RobotPlayer) play(ctx context.Context) error {
	moves := rp.gen.GenerateMoves(&rp.board, rp.rack)
	if move, ok := rp.robot.PickMove(moves); ok {
		rp.log.Debug().Str("move", move.String()).Int("candidates", len(moves)).Msg("Robot places")
		return rp.submit(ctx, move.Command(&rp.board))
	}
	if !rp.swapped && len(rp.rack) > 0 {
		rp.swapped = true
		return rp.submit(ctx, Message{{OpSwap, rp.rack.String()}}.String())
	}
	return rp.submit(ctx, Message{{OpPass, ""}}.String())
}

func (rp *RobotPlayer) submit(ctx context.Context, line string) error {
	return rp.session.Submit(ctx, rp.seat, line)
}
