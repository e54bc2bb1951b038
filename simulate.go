// simulate.go
//
// Copyright (C) 2025 Vilhjálmur Þorsteinsson / Miðeind ehf.
//
// This file implements robot games, played through a Session,
// and simulations that play many of them on a pool of workers.

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
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// RobotFactory returns a fresh Robot for a game
type RobotFactory func() Robot

// GameResult is the outcome of a robot game. Players are
// identified by the order in which they were given.
type GameResult struct {
	Scores []int
	// The index of the winner, or -1 for a draw or an aborted game
	Winner int
	// The winner message operand: an index, WinnerDraw or WinnerNone
	Outcome string
	Board   Board
}

// PlayRobotGame plays a game between robots in a Session and
// returns its outcome once the game is over
func PlayRobotGame(ctx context.Context, tileSet *TileSet, dawg *Dawg, robots []Robot, log zerolog.Logger) (*GameResult, error) {
	if len(robots) == 0 {
		return nil, ErrNoParticipants
	}
	session, err := NewSession(SessionConfig{
		TileSet: tileSet,
		Dawg:    dawg,
		Log:     &log,
	})
	if err != nil {
		return nil, err
	}
	gen := NewGenerator(dawg, NewScorer(tileSet, StandardPremiums, dawg))
	players := make([]*RobotPlayer, len(robots))
	for i, robot := range robots {
		players[i] = NewRobotPlayer(session, gen, robot, log.With().Int("robot", i).Logger())
		if _, err := session.Join(players[i]); err != nil {
			return nil, err
		}
	}
	if err := session.Start(); err != nil {
		return nil, err
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return session.Run(gctx)
	})
	for _, rp := range players {
		rp := rp
		g.Go(func() error {
			return rp.Run(gctx)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Map the turn order positions back to the robots
	scores := session.Scores()
	result := &GameResult{
		Scores:  make([]int, len(players)),
		Winner:  -1,
		Outcome: session.Winner(),
		Board:   session.Board(),
	}
	for i, rp := range players {
		result.Scores[i] = scores[rp.Seat()]
		if strconv.Itoa(rp.Seat()) == result.Outcome {
			result.Winner = i
		}
	}
	return result, nil
}

// SimulationParams holds the parameters of a simulation
type SimulationParams struct {
	TileSet *TileSet
	Dawg    *Dawg
	// One factory per player
	Robots     []RobotFactory
	NumGames   int
	NumWorkers int
	// If positive, the simulation stops after this long
	TimeLimit time.Duration
	Log       zerolog.Logger
	// If not nil, called with the result of each game
	OnGame func(game int, result *GameResult)
}

// SimulationStats sums up the games of a simulation
type SimulationStats struct {
	Games       int
	Wins        []int
	Draws       int
	Aborted     int
	TotalScores []int
	Elapsed     time.Duration
}

// AverageScore returns the average score of a player
func (stats *SimulationStats) AverageScore(player int) float64 {
	if stats.Games == 0 {
		return 0
	}
	return float64(stats.TotalScores[player]) / float64(stats.Games)
}

// Simulate plays robot games on a pool of workers until the requested
// number of games has been played or the time limit is reached
func Simulate(ctx context.Context, params SimulationParams) (*SimulationStats, error) {
	if len(params.Robots) == 0 {
		return nil, ErrNoParticipants
	}
	if params.NumGames < 1 {
		return nil, fmt.Errorf("number of games must be positive, got %d", params.NumGames)
	}
	if params.TimeLimit > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, params.TimeLimit)
		defer cancel()
	}
	numWorkers := min(max(params.NumWorkers, 1), params.NumGames)

	stats := &SimulationStats{
		Wins:        make([]int, len(params.Robots)),
		TotalScores: make([]int, len(params.Robots)),
	}
	var mu sync.Mutex
	var next atomic.Int64
	start := time.Now()

	var g errgroup.Group
	for w := 0; w < numWorkers; w++ {
		g.Go(func() error {
			for {
				game := int(next.Add(1)) - 1
				if game >= params.NumGames || ctx.Err() != nil {
					return nil
				}
				robots := make([]Robot, len(params.Robots))
				for i, factory := range params.Robots {
					robots[i] = factory()
				}
				log := params.Log.With().Int("game", game).Logger()
				result, err := PlayRobotGame(ctx, params.TileSet, params.Dawg, robots, log)
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					// Out of time: the game is not counted
					return nil
				}
				if err != nil {
					return err
				}
				mu.Lock()
				stats.Games++
				for i, score := range result.Scores {
					stats.TotalScores[i] += score
				}
				switch {
				case result.Winner >= 0:
					stats.Wins[result.Winner]++
				case result.Outcome == WinnerDraw:
					stats.Draws++
				default:
					stats.Aborted++
				}
				if params.OnGame != nil {
					params.OnGame(game, result)
				}
				mu.Unlock()
			}
		})
	}
	err := g.Wait()
	stats.Elapsed = time.Since(start)
	if err != nil {
		return nil, err
	}
	return stats, nil
}
