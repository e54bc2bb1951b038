// message.go
//
// Copyright (C) 2026 tilerack contributors

// This file implements the line-oriented protocol spoken between
// a game session and its participants

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
	"strconv"
	"strings"
)

// Opcodes of commands sent by participants
const (
	OpPlace = "place"
	OpSwap  = "swap"
	OpPass  = "pass"
	OpQuit  = "quit"
)

// Opcodes of messages sent by the session
const (
	OpOrder         = "order"
	OpOrderTile     = "order_tile"
	OpPlayerCount   = "player_count"
	OpTiles         = "tiles"
	OpBoard         = "board"
	OpScore         = "score"
	OpCurrentPlayer = "current_player"
	OpError1        = "error1"
	OpError2        = "error2"
	OpWinner        = "winner"
	// Sent by the server to a websocket participant on connection.
	// OpJoined carries the join position, which is not the turn
	// position: that arrives later with OpOrder.
	OpConnection = "connection"
	OpJoined     = "joined"
)

// Special operands of the winner message
const (
	WinnerDraw = "draw"
	WinnerNone = "none"
)

const (
	fieldSeparator   = "; "
	operandSeparator = ":"
)

// ErrMalformedCommand is wrapped by errors from ParseCommand
var ErrMalformedCommand = errors.New("malformed command")

// Field is a single opcode with its operand
type Field struct {
	Op      string
	Operand string
}

// Message is a protocol line, consisting of one or more fields
type Message []Field

// String returns the wire form of the message,
// e.g. "order: 0; order_tile: A; player_count: 2"
func (msg Message) String() string {
	var sb strings.Builder
	for i, f := range msg {
		if i > 0 {
			sb.WriteString(fieldSeparator)
		}
		sb.WriteString(f.Op)
		sb.WriteString(operandSeparator)
		sb.WriteByte(' ')
		sb.WriteString(f.Operand)
	}
	return sb.String()
}

// Get returns the operand of the first field with the given opcode
func (msg Message) Get(op string) (string, bool) {
	for _, f := range msg {
		if f.Op == op {
			return f.Operand, true
		}
	}
	return "", false
}

// ParseMessage splits a protocol line into its fields
func ParseMessage(line string) (Message, error) {
	line = strings.TrimRight(line, "\r\n")
	if strings.TrimSpace(line) == "" {
		return nil, fmt.Errorf("%w: empty line", ErrMalformedCommand)
	}
	parts := strings.Split(line, fieldSeparator)
	msg := make(Message, 0, len(parts))
	for _, part := range parts {
		op, operand, found := strings.Cut(part, operandSeparator)
		op = strings.TrimSpace(op)
		if !found || op == "" {
			return nil, fmt.Errorf("%w: field %q has no opcode", ErrMalformedCommand, part)
		}
		msg = append(msg, Field{Op: op, Operand: strings.TrimPrefix(operand, " ")})
	}
	return msg, nil
}

// Command is a parsed command from a participant
type Command interface {
	Op() string
}

// PlaceCommand lays tiles on the board. Board is the complete
// candidate board and Rack the tiles the sender keeps.
type PlaceCommand struct {
	Board Board
	Rack  Rack
}

// SwapCommand exchanges tiles with the pool
type SwapCommand struct {
	Tiles Rack
}

// PassCommand passes the turn
type PassCommand struct{}

// QuitCommand ends the game
type QuitCommand struct{}

func (PlaceCommand) Op() string { return OpPlace }
func (SwapCommand) Op() string  { return OpSwap }
func (PassCommand) Op() string  { return OpPass }
func (QuitCommand) Op() string  { return OpQuit }

// ParseCommand parses a protocol line sent by a participant
func ParseCommand(line string) (Command, error) {
	msg, err := ParseMessage(line)
	if err != nil {
		return nil, err
	}
	if len(msg) != 1 {
		return nil, fmt.Errorf("%w: expected a single field, got %d", ErrMalformedCommand, len(msg))
	}
	f := msg[0]
	switch f.Op {
	case OpPlace:
		boardPart, rackPart, found := strings.Cut(f.Operand, "/")
		if !found {
			return nil, fmt.Errorf("%w: place needs board/rack", ErrMalformedCommand)
		}
		board, err := ParseBoard(boardPart)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedCommand, err)
		}
		if len([]rune(rackPart)) > RackSize {
			return nil, fmt.Errorf("%w: rack is too long", ErrMalformedCommand)
		}
		return PlaceCommand{Board: board, Rack: ParseRack(rackPart)}, nil
	case OpSwap:
		tiles := ParseRack(f.Operand)
		if len(tiles) == 0 || len(tiles) > RackSize {
			return nil, fmt.Errorf("%w: swap needs 1 to %d tiles", ErrMalformedCommand, RackSize)
		}
		return SwapCommand{Tiles: tiles}, nil
	case OpPass:
		return PassCommand{}, nil
	case OpQuit:
		return QuitCommand{}, nil
	}
	return nil, fmt.Errorf("%w: unknown opcode %q", ErrMalformedCommand, f.Op)
}

// OrderMessage tells a participant its place in the turn order
func OrderMessage(order int, tile rune, playerCount int) Message {
	return Message{
		{OpOrder, strconv.Itoa(order)},
		{OpOrderTile, string(tile)},
		{OpPlayerCount, strconv.Itoa(playerCount)},
	}
}

// TilesMessage tells a participant the contents of its rack
func TilesMessage(rack []rune) Message {
	return Message{{OpTiles, string(rack)}}
}

// BoardMessage carries a snapshot of the board
func BoardMessage(board *Board) Message {
	return Message{{OpBoard, board.String()}}
}

// ScoreMessage carries the cumulative score of a player
func ScoreMessage(player, score int) Message {
	return Message{{OpScore, fmt.Sprintf("%d/%d", player, score)}}
}

// CurrentPlayerMessage announces whose turn it is
func CurrentPlayerMessage(player int) Message {
	return Message{{OpCurrentPlayer, strconv.Itoa(player)}}
}

// Error1Message reports a rejected placement or swap
func Error1Message(reason string) Message {
	return Message{{OpError1, reason}}
}

// Error2Message reports a word that is not in the dictionary
func Error2Message(word string) Message {
	return Message{{OpError2, word}}
}

// WinnerMessage announces the end of the game
func WinnerMessage(winner string) Message {
	return Message{{OpWinner, winner}}
}

// ParseScore decodes the operand of a score message
func ParseScore(operand string) (player, score int, err error) {
	p, s, found := strings.Cut(operand, "/")
	if !found {
		return 0, 0, fmt.Errorf("%w: score %q", ErrMalformedCommand, operand)
	}
	if player, err = strconv.Atoi(p); err != nil {
		return 0, 0, fmt.Errorf("%w: score %q", ErrMalformedCommand, operand)
	}
	if score, err = strconv.Atoi(s); err != nil {
		return 0, 0, fmt.Errorf("%w: score %q", ErrMalformedCommand, operand)
	}
	return player, score, nil
}
