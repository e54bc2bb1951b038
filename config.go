// config.go
//
// Copyright (C) 2026 tilerack contributors

// This file reads the configuration of the game server
// from environment variables

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
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Config contains the parameters of the game server
type Config struct {
	Port string
	// Locale of the word list and tile set
	Locale string
	// Optional files overriding the built-in word list and tile sets
	WordListFile string
	TileSetFile  string
	// Seats at each table: websocket players and robots
	Humans int
	Robots int
	// Robots pick one of the RobotChoices best moves
	RobotChoices int
	LogLevel     zerolog.Level
	// Bearer token required by the HTTP API, if not empty
	AccessKey string
	// Value of the Access-Control-Allow-Origin header
	AllowedOrigins string
	IdleTimeout    time.Duration
}

// ConfigFromEnv reads a Config using getenv, usually os.Getenv.
// Unset variables take their default values.
func ConfigFromEnv(getenv func(string) string) (*Config, error) {
	get := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}
	cfg := Config{
		Port:           get("PORT", "8080"),
		Locale:         get("LOCALE", "en"),
		WordListFile:   get("WORDLIST_FILE", ""),
		TileSetFile:    get("TILESET_FILE", ""),
		AccessKey:      get("ACCESS_KEY", ""),
		AllowedOrigins: get("ALLOWED_ORIGINS", "*"),
	}
	var err error
	if cfg.Humans, err = strconv.Atoi(get("HUMANS", "1")); err != nil {
		return nil, fmt.Errorf("parsing HUMANS: %w", err)
	}
	if cfg.Robots, err = strconv.Atoi(get("ROBOTS", "1")); err != nil {
		return nil, fmt.Errorf("parsing ROBOTS: %w", err)
	}
	if cfg.RobotChoices, err = strconv.Atoi(get("ROBOT_CHOICES", "1")); err != nil {
		return nil, fmt.Errorf("parsing ROBOT_CHOICES: %w", err)
	}
	if cfg.LogLevel, err = zerolog.ParseLevel(get("LOG_LEVEL", "info")); err != nil {
		return nil, fmt.Errorf("parsing LOG_LEVEL: %w", err)
	}
	if cfg.IdleTimeout, err = time.ParseDuration(get("IDLE_TIMEOUT", "5m")); err != nil {
		return nil, fmt.Errorf("parsing IDLE_TIMEOUT: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg Config) validate() error {
	switch {
	case cfg.Port == "":
		return fmt.Errorf("port required")
	case cfg.Locale == "":
		return fmt.Errorf("locale required")
	case cfg.Humans < 1:
		return fmt.Errorf("at least one human seat required, got %d", cfg.Humans)
	case cfg.Robots < 0:
		return fmt.Errorf("robot seats must not be negative, got %d", cfg.Robots)
	case cfg.RobotChoices < 1:
		return fmt.Errorf("robot choices must be positive, got %d", cfg.RobotChoices)
	case cfg.IdleTimeout < 0:
		return fmt.Errorf("idle timeout must not be negative")
	}
	return nil
}
