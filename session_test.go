// Copyright (C) 2026 tilerack contributors

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
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testTimeout bounds every wait on a session in these tests
const testTimeout = 10 * time.Second

type sessionFixture struct {
	t       *testing.T
	ctx     context.Context
	session *Session
	players []*ChannelParticipant
	runErr  chan error
	stopped chan struct{}
}

// newFixture creates a session with n in-process participants
func newFixture(t *testing.T, n int) *sessionFixture {
	t.Helper()
	log := zerolog.New(zerolog.NewTestWriter(t)).Level(zerolog.InfoLevel)
	session, err := NewSession(SessionConfig{
		TileSet: englishTileSet(t),
		Dawg:    englishDawg(t),
		Rand:    zeroRand{},
		Log:     &log,
	})
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	f := &sessionFixture{t: t, ctx: ctx, session: session, runErr: make(chan error, 1)}
	// Stop the session before the test logger goes away
	t.Cleanup(func() {
		cancel()
		if f.stopped != nil {
			<-f.stopped
		}
	})
	for i := 0; i < n; i++ {
		p := NewChannelParticipant()
		seat, err := session.Join(p)
		require.NoError(t, err)
		require.Equal(t, i, seat)
		f.players = append(f.players, p)
	}
	return f
}

// start starts the session, sets the racks by turn order and runs
// the session in the background. The opening messages are skipped and
// f.players is put in turn order, as announced by the order message.
func (f *sessionFixture) start(racks ...string) {
	f.t.Helper()
	require.NoError(f.t, f.session.Start())
	for i, rack := range racks {
		f.session.seats[i].rack = Rack(rack)
	}
	ordered := make([]*ChannelParticipant, len(f.players))
	for _, p := range f.players {
		operand, err := p.NextOp(f.ctx, OpOrder)
		require.NoError(f.t, err)
		order, err := strconv.Atoi(operand)
		require.NoError(f.t, err)
		require.Nil(f.t, ordered[order], "order %d announced twice", order)
		ordered[order] = p
		_, err = p.NextOp(f.ctx, OpCurrentPlayer)
		require.NoError(f.t, err)
	}
	f.players = ordered
	f.stopped = make(chan struct{})
	go func() {
		defer close(f.stopped)
		f.runErr <- f.session.Run(f.ctx)
	}()
}

func (f *sessionFixture) submit(seat int, line string) {
	f.t.Helper()
	require.NoError(f.t, f.session.Submit(f.ctx, seat, line))
}

// expect reads the next message of a player and checks its single field
func (f *sessionFixture) expect(player int, op, operand string) {
	f.t.Helper()
	msg, err := f.players[player].Next(f.ctx)
	require.NoError(f.t, err)
	require.Len(f.t, msg, 1, "message %v", msg)
	assert.Equal(f.t, op, msg[0].Op, "message %v", msg)
	assert.Equal(f.t, operand, msg[0].Operand, "message %v", msg)
}

func (f *sessionFixture) next(player int) Message {
	f.t.Helper()
	msg, err := f.players[player].Next(f.ctx)
	require.NoError(f.t, err)
	return msg
}

func (f *sessionFixture) waitRun() error {
	f.t.Helper()
	select {
	case err := <-f.runErr:
		return err
	case <-f.ctx.Done():
		f.t.Fatalf("session did not finish")
	}
	return nil
}

// numTiles counts the tiles on the board of a session
func numTiles(s *Session) int {
	board := s.Board()
	return board.NumTiles()
}

func placeLine(board Board, rack string) string {
	return "place: " + board.String() + "/" + rack
}

func TestSessionStart(t *testing.T) {
	f := newFixture(t, 2)
	require.NoError(t, f.session.Start())
	assert.Equal(t, Started, f.session.State())

	for i, p := range f.players {
		msg, err := p.Next(f.ctx)
		require.NoError(t, err)
		assert.Equal(t, OrderMessage(i, Wildcard, 2), msg)

		tiles, err := p.NextOp(f.ctx, OpTiles)
		require.NoError(t, err)
		assert.Len(t, []rune(tiles), RackSize)
		assert.Equal(t, f.session.Rack(i).String(), tiles)

		board, err := p.NextOp(f.ctx, OpBoard)
		require.NoError(t, err)
		assert.Equal(t, strings.Repeat(".", BoardSize*BoardSize), board)

		f.expect(i, OpCurrentPlayer, "0")
	}
	assert.Equal(t, 100-2*RackSize, f.session.PoolCount())
	assert.Equal(t, 2, f.session.NumPlayers())

	assert.ErrorIs(t, f.session.Start(), ErrSessionStarted)
	_, err := f.session.Join(NewChannelParticipant())
	assert.ErrorIs(t, err, ErrSessionStarted)
}

func TestSessionOrderDraw(t *testing.T) {
	f := newFixture(t, 3)
	// Without blanks at the front of the pool the draw reorders the table
	f.session.pool.Take(f.session.pool.Count() - 3*RackSize)
	require.NoError(t, f.session.Start())
	tiles := make([]string, 3)
	for _, p := range f.players {
		msg, err := p.Next(f.ctx)
		require.NoError(t, err)
		operand, ok := msg.Get(OpOrder)
		require.True(t, ok, "expected the order first, got %v", msg)
		order, err := strconv.Atoi(operand)
		require.NoError(t, err)
		require.Empty(t, tiles[order], "order %d announced twice", order)
		tiles[order], _ = msg.Get(OpOrderTile)
		count, _ := msg.Get(OpPlayerCount)
		assert.Equal(t, "3", count)
	}
	for i := 1; i < len(tiles); i++ {
		assert.LessOrEqual(t, tiles[i-1], tiles[i])
	}
	assert.Zero(t, f.session.PoolCount())
}

func TestSessionLifecycleErrors(t *testing.T) {
	_, err := NewSession(SessionConfig{Dawg: englishDawg(t)})
	assert.Error(t, err)
	_, err = NewSession(SessionConfig{TileSet: englishTileSet(t)})
	assert.Error(t, err)

	f := newFixture(t, 0)
	assert.ErrorIs(t, f.session.Start(), ErrNoParticipants)
	assert.ErrorIs(t, f.session.Submit(f.ctx, 0, "pass: "), ErrSessionNotStarted)
	assert.ErrorIs(t, f.session.Run(f.ctx), ErrSessionNotStarted)
	assert.Equal(t, "forming", f.session.State().String())
}

func TestSessionPlace(t *testing.T) {
	f := newFixture(t, 2)
	f.start("CATSERD", "AEIOU**")
	f.submit(0, placeLine(boardWith(t, 7, 7, true, "CAT"), "SERD"))

	tiles, err := f.players[0].NextOp(f.ctx, OpTiles)
	require.NoError(t, err)
	assert.Len(t, []rune(tiles), RackSize)
	assert.True(t, strings.HasPrefix(tiles, "SERD"), tiles)
	for _, p := range []int{0, 1} {
		msg := f.next(p)
		board, ok := msg.Get(OpBoard)
		require.True(t, ok, "expected a board, got %v", msg)
		assert.Contains(t, board, ".CAT.")
		f.expect(p, OpScore, "0/10")
		f.expect(p, OpCurrentPlayer, "1")
	}
	assert.Equal(t, []int{10, 0}, f.session.Scores())
	assert.Equal(t, 1, f.session.CurrentPlayer())
	assert.Equal(t, 3, numTiles(f.session))
	assert.Equal(t, 100-2*RackSize-3, f.session.PoolCount())
}

func TestSessionPlaceBlank(t *testing.T) {
	f := newFixture(t, 2)
	f.start("C*TSERD", "AEIOU**")
	f.submit(0, placeLine(boardWith(t, 7, 7, true, "C*T"), "SERD"))
	_, err := f.players[0].NextOp(f.ctx, OpTiles)
	require.NoError(t, err)
	f.next(0)
	f.expect(0, OpScore, "0/8")
	board := f.session.Board()
	c := board.At(7, 8)
	assert.True(t, c.Blank)
	assert.Contains(t, "AOU", string(c.Letter))
}

func TestSessionRejections(t *testing.T) {
	f := newFixture(t, 2)
	f.start("CATSERD", "AEIOU**")

	// Off the center
	f.submit(0, placeLine(boardWith(t, 0, 0, true, "CAT"), "SERD"))
	msg := f.next(0)
	_, ok := msg.Get(OpError1)
	assert.True(t, ok, "expected error1, got %v", msg)

	// Not a word
	f.submit(0, placeLine(boardWith(t, 7, 7, true, "CTA"), "SERD"))
	f.expect(0, OpError2, "CTA")

	// Tiles that are not in the rack
	f.submit(0, placeLine(boardWith(t, 7, 7, true, "DOG"), "CATSERD"[:4]))
	f.expect(0, OpError1, "tiles do not match rack")

	// Swapping tiles that are not in the rack
	f.submit(0, "swap: XX")
	f.expect(0, OpError1, "tiles not in rack")

	f.submit(0, "nonsense")
	f.expect(0, OpError1, ErrMalformedCommand.Error())

	assert.Equal(t, 0, numTiles(f.session))
	assert.Equal(t, 0, f.session.CurrentPlayer())
	assert.Equal(t, "CATSERD", f.session.Rack(0).String())
	assert.Equal(t, []int{0, 0}, f.session.Scores())
}

func TestSessionSwap(t *testing.T) {
	f := newFixture(t, 2)
	f.start("CATSERD", "AEIOU**")
	pool := f.session.PoolCount()
	f.submit(0, "swap: cat")
	tiles, err := f.players[0].NextOp(f.ctx, OpTiles)
	require.NoError(t, err)
	assert.Len(t, []rune(tiles), RackSize)
	assert.True(t, strings.HasPrefix(tiles, "SERD"), tiles)
	f.expect(0, OpCurrentPlayer, "1")
	f.expect(1, OpCurrentPlayer, "1")
	assert.Equal(t, pool, f.session.PoolCount())
}

func TestSessionOutOfTurn(t *testing.T) {
	f := newFixture(t, 2)
	f.start("CATSERD", "AEIOU**")
	f.submit(1, "pass: ")
	f.submit(1, placeLine(boardWith(t, 7, 7, true, "CAT"), "SERD"))
	f.submit(0, "pass: ")
	// The passes of player 1 were ignored, so the game goes on
	f.expect(1, OpCurrentPlayer, "1")
	f.expect(0, OpCurrentPlayer, "1")
	assert.Equal(t, 0, numTiles(f.session))
}

func TestSessionPassesEndGame(t *testing.T) {
	f := newFixture(t, 2)
	f.start("CATSERD", "AEIOU**")
	f.submit(0, "pass: ")
	f.submit(1, "pass: ")
	require.NoError(t, f.waitRun())
	for p := range f.players {
		_, err := f.players[p].NextOp(f.ctx, OpCurrentPlayer)
		require.NoError(t, err)
		f.expect(p, OpScore, "0/-10")
		f.expect(p, OpScore, "1/-5")
		f.expect(p, OpWinner, "1")
		_, err = f.players[p].Next(f.ctx)
		assert.ErrorIs(t, err, ErrParticipantClosed)
	}
	assert.Equal(t, Finished, f.session.State())
	assert.Equal(t, "1", f.session.Winner())
	assert.ErrorIs(t, f.session.Submit(f.ctx, 0, "pass: "), ErrSessionFinished)
	// Running a finished session is a no-op
	assert.NoError(t, f.session.Run(f.ctx))
}

func TestSessionDraw(t *testing.T) {
	f := newFixture(t, 2)
	f.start("CATSERD", "DRESTAC")
	f.submit(0, "pass: ")
	f.submit(1, "pass: ")
	require.NoError(t, f.waitRun())
	winner, err := f.players[0].NextOp(f.ctx, OpWinner)
	require.NoError(t, err)
	assert.Equal(t, WinnerDraw, winner)
}

func TestSessionGoingOut(t *testing.T) {
	f := newFixture(t, 2)
	// Leave just enough tiles to deal the racks
	f.session.pool.Take(f.session.pool.Count() - 2*RackSize)
	f.start("CAT", "AEIOU**")
	require.Zero(t, f.session.PoolCount())
	f.submit(0, placeLine(boardWith(t, 7, 7, true, "CAT"), ""))
	require.NoError(t, f.waitRun())
	f.expect(0, OpTiles, "")
	f.next(0)
	f.expect(0, OpScore, "0/10")
	// The player who went out gains the value left on the other rack
	f.expect(0, OpScore, "0/15")
	f.expect(0, OpScore, "1/-5")
	f.expect(0, OpWinner, "0")
}

func TestSessionQuit(t *testing.T) {
	f := newFixture(t, 3)
	f.start()
	f.submit(2, "quit: ")
	require.NoError(t, f.waitRun())
	for p := range f.players {
		f.expect(p, OpWinner, WinnerNone)
		_, err := f.players[p].Next(f.ctx)
		assert.ErrorIs(t, err, ErrParticipantClosed)
	}
	assert.Equal(t, WinnerNone, f.session.Winner())
}

func TestSessionCancel(t *testing.T) {
	f := newFixture(t, 1)
	require.NoError(t, f.session.Start())
	ctx, cancel := context.WithCancel(f.ctx)
	cancel()
	assert.ErrorIs(t, f.session.Run(ctx), context.Canceled)
	assert.Equal(t, WinnerNone, f.session.Winner())
	<-f.session.Done()
}

func TestSessionIdle(t *testing.T) {
	session, err := NewSession(SessionConfig{
		TileSet:     englishTileSet(t),
		Dawg:        englishDawg(t),
		IdleTimeout: 20 * time.Millisecond,
	})
	require.NoError(t, err)
	p := NewChannelParticipant()
	_, err = session.Join(p)
	require.NoError(t, err)
	require.NoError(t, session.Start())
	require.NoError(t, session.Run(context.Background()))
	winner, err := p.NextOp(context.Background(), OpWinner)
	require.NoError(t, err)
	assert.Equal(t, WinnerNone, winner)
}
