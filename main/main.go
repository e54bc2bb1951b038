// main.go
// Copyright (C) 2018 Vilhjálmur Þorsteinsson

// Example main program for exercising the tilerack module:
// simulates games between robots

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"time"

	"github.com/rs/zerolog"

	"github.com/wordgrid/tilerack"
)

func main() {
	num := flag.Int("n", 10, "Number of games to simulate")
	quiet := flag.Bool("q", false, "Suppress output of game state and moves")
	locale := flag.String("l", "en", "Locale of the word list and tile set")
	wordList := flag.String("w", "", "Word list file to use instead of the built-in one")
	tileFile := flag.String("tiles", "", "Tile set file to use instead of the built-in one")
	workers := flag.Int("workers", runtime.NumCPU(), "Number of games to play at the same time")
	timeLimit := flag.Duration("t", 0, "Time limit of the simulation, e.g. 30s (0 means none)")
	bestOf := flag.Int("b", 1, "Robot B picks one of this many best moves")
	flag.Parse()

	level := zerolog.InfoLevel
	if *quiet {
		level = zerolog.WarnLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		Level(level).With().Timestamp().Logger()

	dawg, err := tilerack.LoadDictionary(*locale, *wordList)
	if err != nil {
		fmt.Printf("Unable to load word list: %v\n", err)
		os.Exit(1)
	}
	tileSet, err := tilerack.TileSetForLocale(*locale, *tileFile)
	if err != nil {
		fmt.Printf("Unable to load tile set: %v\n", err)
		os.Exit(1)
	}
	log.Info().Int("words", dawg.NumWords()).Int("nodes", dawg.NumNodes()).Int("tiles", tileSet.Size).Msg("Dictionary loaded")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	robotA := func() tilerack.Robot { return tilerack.NewHighScoreRobot() }
	robotB := func() tilerack.Robot {
		if *bestOf > 1 {
			return tilerack.NewOneOfNBestRobot(*bestOf, nil)
		}
		return tilerack.NewHighScoreRobot()
	}
	stats, err := tilerack.Simulate(ctx, tilerack.SimulationParams{
		TileSet:    tileSet,
		Dawg:       dawg,
		Robots:     []tilerack.RobotFactory{robotA, robotB},
		NumGames:   *num,
		NumWorkers: *workers,
		TimeLimit:  *timeLimit,
		// Session logs are only of interest when debugging
		Log: log.Level(zerolog.WarnLevel),
		OnGame: func(game int, result *tilerack.GameResult) {
			log.Info().
				Int("game", game).
				Ints("scores", result.Scores).
				Str("winner", result.Outcome).
				Msg("Game over")
			if !*quiet {
				fmt.Println(result.Board.Pretty())
			}
		},
	})
	if err != nil {
		fmt.Printf("Simulation failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("%v games were played using the '%v' word list in %v.\n"+
		"Robot A won %v games, and Robot B won %v games; %v games were draws.\n"+
		"Average scores: Robot A %.1f, Robot B %.1f.\n",
		stats.Games, *locale, stats.Elapsed.Round(time.Millisecond),
		stats.Wins[0], stats.Wins[1], stats.Draws,
		stats.AverageScore(0), stats.AverageScore(1))
}
