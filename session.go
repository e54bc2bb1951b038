// session.go
// Copyright (C) 2023 Vilhjálmur Þorsteinsson / Miðeind ehf
// This file implements the Session, the authoritative container
// of a game in progress: its board, tile pool, racks and scores,
// and the turn loop that applies the commands of its participants

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
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Errors returned by Session methods
var (
	ErrSessionStarted    = errors.New("session already started")
	ErrSessionNotStarted = errors.New("session not started")
	ErrSessionFinished   = errors.New("session finished")
	ErrNoParticipants    = errors.New("session has no participants")
)

// SessionState is the lifecycle state of a Session
type SessionState int

// Session states
const (
	// Forming sessions accept new participants
	Forming SessionState = iota
	// Started sessions are playing
	Started
	// Finished sessions are over and have announced a winner
	Finished
)

func (state SessionState) String() string {
	switch state {
	case Forming:
		return "forming"
	case Started:
		return "started"
	case Finished:
		return "finished"
	}
	return "unknown"
}

// DefaultQueueSize is the default capacity of the inbound command queue
const DefaultQueueSize = 64

// SessionConfig contains the parameters of a Session
type SessionConfig struct {
	TileSet *TileSet
	Dawg    *Dawg
	// Premium square layout; nil means StandardPremiums
	Premiums *PremiumMap
	// Source of randomness for the tile pool; nil means frand
	Rand Rand
	// Logger; nil means no logging
	Log *zerolog.Logger
	// Capacity of the inbound command queue
	QueueSize int
	// If positive, a session that receives no command for this
	// long is ended without a winner
	IdleTimeout time.Duration
}

func (cfg *SessionConfig) validate() error {
	switch {
	case cfg.TileSet == nil:
		return fmt.Errorf("tile set required")
	case cfg.TileSet.Size < RackSize:
		return fmt.Errorf("tile set must have at least %d tiles, got %d", RackSize, cfg.TileSet.Size)
	case cfg.Dawg == nil:
		return fmt.Errorf("dictionary required")
	case cfg.QueueSize < 0:
		return fmt.Errorf("queue size must not be negative")
	case cfg.IdleTimeout < 0:
		return fmt.Errorf("idle timeout must not be negative")
	}
	if cfg.Premiums == nil {
		cfg.Premiums = StandardPremiums
	}
	if cfg.QueueSize == 0 {
		cfg.QueueSize = DefaultQueueSize
	}
	if cfg.Log == nil {
		nop := zerolog.Nop()
		cfg.Log = &nop
	}
	return nil
}

// seat holds the state of one participant, in turn order
type seat struct {
	participant Participant
	rack        Rack
	score       int
	orderTile   rune
}

// inbound is a command line queued by a participant
type inbound struct {
	seat int
	line string
}

// Session is a game between one or more participants. Commands are
// queued with Submit and applied one at a time, in arrival order, by
// Run, which is the only goroutine that changes the game state.
type Session struct {
	cfg     SessionConfig
	log     zerolog.Logger
	scorer  *Scorer
	pool    *TilePool
	inbound chan inbound
	done    chan struct{}

	mu        sync.Mutex
	state     SessionState
	seats     []*seat
	board     Board
	current   int
	zeroTurns int
	winner    string
}

// NewSession returns a Session in the Forming state
func NewSession(cfg SessionConfig) (*Session, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}
	return &Session{
		cfg:     cfg,
		log:     *cfg.Log,
		scorer:  NewScorer(cfg.TileSet, cfg.Premiums, cfg.Dawg),
		pool:    NewTilePool(cfg.TileSet, cfg.Rand),
		inbound: make(chan inbound, cfg.QueueSize),
		done:    make(chan struct{}),
	}, nil
}

// Join adds a participant to a forming session and returns
// the number of participants that joined before it
func (s *Session) Join(p Participant) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Forming {
		return 0, ErrSessionStarted
	}
	s.seats = append(s.seats, &seat{participant: p})
	return len(s.seats) - 1, nil
}

// Start decides the turn order, deals the racks and opens play.
// Each participant draws a tile from the pool, without removing it;
// the participants are then ordered by their tiles, blanks first.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Forming {
		return ErrSessionStarted
	}
	n := len(s.seats)
	if n == 0 {
		return ErrNoParticipants
	}
	tiles := s.pool.Draw(n)
	if len(tiles) < n {
		return fmt.Errorf("cannot decide the order of %d participants with %d tiles", n, len(tiles))
	}
	for i, sp := range s.seats {
		sp.orderTile = tiles[i]
	}
	sort.SliceStable(s.seats, func(i, j int) bool {
		return s.seats[i].orderTile < s.seats[j].orderTile
	})
	s.state = Started
	for i, sp := range s.seats {
		sp.participant.Deliver(OrderMessage(i, sp.orderTile, n))
		sp.rack = s.pool.Take(RackSize)
		sp.participant.Deliver(TilesMessage(sp.rack))
	}
	s.broadcast(BoardMessage(&s.board))
	s.broadcast(CurrentPlayerMessage(s.current))
	s.log.Info().Int("players", n).Msg("Session started")
	return nil
}

// Submit queues a command line from the participant at the given
// turn order position. It blocks only while the queue is full.
func (s *Session) Submit(ctx context.Context, seat int, line string) error {
	switch s.State() {
	case Forming:
		return ErrSessionNotStarted
	case Finished:
		return ErrSessionFinished
	}
	select {
	case s.inbound <- inbound{seat: seat, line: line}:
		return nil
	case <-s.done:
		return ErrSessionFinished
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run applies queued commands until the game is over or the
// context is done. A cancelled game ends without a winner.
func (s *Session) Run(ctx context.Context) error {
	switch s.State() {
	case Forming:
		return ErrSessionNotStarted
	case Finished:
		return nil
	}
	var idle <-chan time.Time
	var timer *time.Timer
	if s.cfg.IdleTimeout > 0 {
		timer = time.NewTimer(s.cfg.IdleTimeout)
		defer timer.Stop()
		idle = timer.C
	}
	for {
		select {
		case <-ctx.Done():
			s.abort("session cancelled")
			return ctx.Err()
		case <-idle:
			s.log.Warn().Dur("timeout", s.cfg.IdleTimeout).Msg("Session idle, ending it")
			s.abort("session idle")
			return nil
		case in := <-s.inbound:
			if s.handle(in) {
				return nil
			}
			if timer != nil {
				timer.Reset(s.cfg.IdleTimeout)
			}
		}
	}
}

// Done returns a channel that is closed when the game is over
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// handle applies one command and returns true if the game is over
func (s *Session) handle(in inbound) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Started {
		return s.state == Finished
	}
	log := s.log.With().Int("seat", in.seat).Logger()
	if in.seat < 0 || in.seat >= len(s.seats) {
		log.Warn().Msg("Command from unknown seat ignored")
		return false
	}
	cmd, err := ParseCommand(in.line)
	if err != nil {
		log.Info().Err(err).Str("line", in.line).Msg("Malformed command")
		s.seats[in.seat].participant.Deliver(Error1Message(ErrMalformedCommand.Error()))
		return false
	}
	log = log.With().Str("cmd", cmd.Op()).Logger()
	if _, ok := cmd.(QuitCommand); ok {
		log.Info().Msg("Participant quit, session aborted")
		s.end(WinnerNone)
		return true
	}
	if in.seat != s.current {
		log.Debug().Int("current", s.current).Msg("Out of turn command ignored")
		return false
	}
	switch c := cmd.(type) {
	case PlaceCommand:
		s.place(log, in.seat, c)
	case SwapCommand:
		s.swap(log, in.seat, c)
	case PassCommand:
		s.zeroTurns++
		s.advance()
	}
	return s.state == Finished
}

// place applies a placement, or reports why it cannot be applied
func (s *Session) place(log zerolog.Logger, player int, cmd PlaceCommand) {
	sp := s.seats[player]
	placed, err := CheckPlacement(&s.board, &cmd.Board)
	if err != nil {
		log.Info().Err(err).Msg("Illegal placement")
		sp.participant.Deliver(Error1Message(err.Error()))
		return
	}
	// The placed tiles and the tiles kept must make up the rack
	tiles := make([]rune, 0, RackSize)
	for _, c := range placed {
		cell := cmd.Board[c.Row][c.Col]
		if cell.Blank {
			tiles = append(tiles, Wildcard)
		} else {
			tiles = append(tiles, cell.Letter)
		}
	}
	tiles = append(tiles, cmd.Rack...)
	if !sp.rack.Equal(tiles) {
		log.Info().Str("rack", sp.rack.String()).Str("tiles", string(tiles)).Msg("Tiles do not match rack")
		sp.participant.Deliver(Error1Message("tiles do not match rack"))
		return
	}
	resolved, err := s.scorer.ResolveWildcards(&s.board, &cmd.Board)
	if err == nil {
		err = s.scorer.CheckWords(&s.board, &resolved)
	}
	var iwe *InvalidWordError
	if errors.As(err, &iwe) {
		log.Info().Str("word", iwe.Word).Msg("Invalid word")
		sp.participant.Deliver(Error2Message(iwe.Word))
		return
	}
	score := s.scorer.Score(&s.board, &resolved, cmd.Rack)
	// Commit
	s.board = resolved
	sp.score += score
	kept := make(Rack, len(cmd.Rack), RackSize)
	copy(kept, cmd.Rack)
	sp.rack = append(kept, s.pool.Take(RackSize-len(kept))...)
	s.zeroTurns = 0
	log.Info().Int("score", score).Int("total", sp.score).Int("tiles", len(placed)).Msg("Placement")
	sp.participant.Deliver(TilesMessage(sp.rack))
	s.broadcast(BoardMessage(&s.board))
	s.broadcast(ScoreMessage(player, sp.score))
	if len(sp.rack) == 0 && s.pool.Count() == 0 {
		// The player went out
		s.finish(player)
		return
	}
	s.advance()
}

// swap exchanges tiles with the pool, or reports why it cannot
func (s *Session) swap(log zerolog.Logger, player int, cmd SwapCommand) {
	sp := s.seats[player]
	if !s.pool.ExchangeAllowed() {
		sp.participant.Deliver(Error1Message("not enough tiles in the pool to swap"))
		return
	}
	kept, ok := sp.rack.Remove(cmd.Tiles)
	if !ok {
		log.Info().Str("rack", sp.rack.String()).Str("tiles", cmd.Tiles.String()).Msg("Swap of tiles not in rack")
		sp.participant.Deliver(Error1Message("tiles not in rack"))
		return
	}
	sp.rack = append(kept, s.pool.Swap(cmd.Tiles)...)
	sp.participant.Deliver(TilesMessage(sp.rack))
	s.zeroTurns++
	s.advance()
}

// advance moves the turn to the next player, unless every player
// has had a turn without scoring in a row, which ends the game
func (s *Session) advance() {
	if s.zeroTurns >= len(s.seats) {
		s.finish(-1)
		return
	}
	s.current = (s.current + 1) % len(s.seats)
	s.broadcast(CurrentPlayerMessage(s.current))
}

// finish ends a completed game. Each player loses the value of the
// tiles left in the rack; a player who went out gains their sum.
func (s *Session) finish(wentOut int) {
	sum := 0
	for _, sp := range s.seats {
		value := s.cfg.TileSet.Value(string(sp.rack))
		sp.score -= value
		sum += value
	}
	if wentOut >= 0 {
		s.seats[wentOut].score += sum
	}
	for i, sp := range s.seats {
		s.broadcast(ScoreMessage(i, sp.score))
	}
	best := 0
	tie := false
	for i, sp := range s.seats {
		switch {
		case sp.score > s.seats[best].score:
			best, tie = i, false
		case i != best && sp.score == s.seats[best].score:
			tie = true
		}
	}
	winner := strconv.Itoa(best)
	if tie {
		winner = WinnerDraw
	}
	s.end(winner)
}

// abort ends the game without a winner. The caller holds no lock.
func (s *Session) abort(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Finished {
		return
	}
	s.log.Info().Str("reason", reason).Msg("Session aborted")
	s.end(WinnerNone)
}

func (s *Session) end(winner string) {
	s.winner = winner
	s.state = Finished
	s.broadcast(WinnerMessage(winner))
	for _, sp := range s.seats {
		sp.participant.Close()
	}
	close(s.done)
	s.log.Info().Str("winner", winner).Msg("Session finished")
}

func (s *Session) broadcast(msg Message) {
	for _, sp := range s.seats {
		sp.participant.Deliver(msg)
	}
}

// State returns the lifecycle state of the session
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Board returns a copy of the board
func (s *Session) Board() Board {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.board
}

// Scores returns the scores of the players, in turn order
func (s *Session) Scores() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	scores := make([]int, len(s.seats))
	for i, sp := range s.seats {
		scores[i] = sp.score
	}
	return scores
}

// Rack returns a copy of the rack of the player at
// the given turn order position
func (s *Session) Rack(player int) Rack {
	s.mu.Lock()
	defer s.mu.Unlock()
	if player < 0 || player >= len(s.seats) {
		return nil
	}
	return append(Rack{}, s.seats[player].rack...)
}

// CurrentPlayer returns the turn order position of the player to move
func (s *Session) CurrentPlayer() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// NumPlayers returns the number of participants
func (s *Session) NumPlayers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seats)
}

// PoolCount returns the number of tiles left in the pool
func (s *Session) PoolCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pool.Count()
}

// Winner returns the winner announced at the end of the game:
// a turn order position, WinnerDraw or WinnerNone
func (s *Session) Winner() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.winner
}
