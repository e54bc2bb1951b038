// server.go
//
// Copyright (C) 2023 Vilhjálmur Þorsteinsson / Miðeind ehf.
//
// This file implements a compact HTTP server that receives
// JSON encoded requests and returns JSON encoded responses,
// and seats websocket clients at game tables.

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
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// APIVersion is reported in the JSON responses
const APIVersion = "1.0"

// MovesRequest asks for the moves available to a rack on a board
type MovesRequest struct {
	Locale string `json:"locale"`
	// Board rows, using '.' or ' ' for empty squares
	// and lower case letters for blank tiles
	Board []string `json:"board"`
	Rack  string   `json:"rack"`
	// If positive, a cap on the number of moves returned
	Limit int `json:"limit"`
}

// MoveJSON is a scored move in a MovesResponse
type MoveJSON struct {
	Coord      string `json:"coord"`
	Word       string `json:"word"`
	Row        int    `json:"row"`
	Col        int    `json:"col"`
	Horizontal bool   `json:"horizontal"`
	// The tiles laid down from the rack
	Tiles string `json:"tiles"`
	Score int    `json:"score"`
}

// MovesResponse is the JSON response header for move requests
type MovesResponse struct {
	Version string     `json:"version"`
	Count   int        `json:"count"`
	Moves   []MoveJSON `json:"moves"`
}

// WordCheckRequest asks whether words are in the dictionary
type WordCheckRequest struct {
	Locale string   `json:"locale"`
	Words  []string `json:"words"`
}

// WordValidity tells whether a single word is in the dictionary
type WordValidity struct {
	Word  string `json:"word"`
	Valid bool   `json:"valid"`
}

// WordCheckResponse is the JSON response to a word check request.
// Ok is true if all the words are valid.
type WordCheckResponse struct {
	Version string         `json:"version"`
	Ok      bool           `json:"ok"`
	Valid   []WordValidity `json:"valid"`
}

// table is a session that is still waiting for players
type table struct {
	session *Session
	humans  int
}

// Server serves the HTTP API and the websocket game tables
type Server struct {
	cfg     Config
	log     zerolog.Logger
	dawg    *Dawg
	tileSet *TileSet
	gen     *Generator
	router  chi.Router
	// Corresponding Authorization header (or "" if no auth required)
	authHeader string
	upgrader   websocket.Upgrader

	// Sessions and robots run until ctx is cancelled by Close
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu    sync.Mutex
	table *table
}

// NewServer returns a Server playing with the given dictionary
// and tile set
func NewServer(cfg Config, dawg *Dawg, tileSet *TileSet, log zerolog.Logger) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	srv := &Server{
		cfg:     cfg,
		log:     log,
		dawg:    dawg,
		tileSet: tileSet,
		gen:     NewGenerator(dawg, NewScorer(tileSet, StandardPremiums, dawg)),
		ctx:     ctx,
		cancel:  cancel,
	}
	if cfg.AccessKey != "" {
		srv.authHeader = "Bearer " + cfg.AccessKey
	}
	srv.upgrader.CheckOrigin = srv.checkOrigin

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(srv.logRequests)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	// validate handles the CORS preflight and the method check
	r.HandleFunc("/moves", srv.movesHandler)
	r.HandleFunc("/wordcheck", srv.wordcheckHandler)
	r.Get("/play", srv.playHandler)
	srv.router = r
	return srv
}

// Handler returns the HTTP handler of the server
func (srv *Server) Handler() http.Handler {
	return srv.router
}

// Close ends the sessions in progress and waits for them to finish
func (srv *Server) Close() {
	srv.cancel()
	srv.wg.Wait()
}

func (srv *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		srv.log.Debug().
			Str("req", chimw.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("Request")
	})
}

func (srv *Server) checkOrigin(r *http.Request) bool {
	if srv.cfg.AllowedOrigins == "" || srv.cfg.AllowedOrigins == "*" {
		return true
	}
	origin := r.Header.Get("Origin")
	return origin == "" || origin == srv.cfg.AllowedOrigins
}

// validate sets the CORS headers, checks the method and the
// authorization, and decodes the JSON request body into req
func (srv *Server) validate(w http.ResponseWriter, r *http.Request, req any) bool {
	header := w.Header()
	header.Set("Access-Control-Allow-Origin", srv.cfg.AllowedOrigins)
	header.Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	header.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

	// Handle preflight OPTIONS request
	if r.Method == http.MethodOptions {
		// Returning false simply causes the handler to return the response headers
		return false
	}
	if r.Method != http.MethodPost {
		http.Error(w, "Invalid request method", http.StatusMethodNotAllowed)
		return false
	}
	// Check for a bearer authorization token, which must match
	// the configured access key, if present
	if srv.authHeader != "" {
		authHeader := r.Header.Get("Authorization")
		if authHeader != srv.authHeader {
			http.Error(w, "Authorization header mismatch", http.StatusUnauthorized)
			return false
		}
	}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		// Not valid JSON
		http.Error(w, err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func (srv *Server) checkLocale(w http.ResponseWriter, locale string) bool {
	if locale != "" && locale != srv.cfg.Locale {
		http.Error(w, fmt.Sprintf("Unsupported locale '%s'.\n", locale), http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, result any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := json.NewEncoder(w).Encode(result); err != nil {
		// Unable to generate valid JSON
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (srv *Server) movesHandler(w http.ResponseWriter, r *http.Request) {
	var req MovesRequest
	if !srv.validate(w, r, &req) {
		return
	}
	if !srv.checkLocale(w, req.Locale) {
		return
	}
	rack := ParseRack(req.Rack)
	if len(rack) == 0 || len(rack) > RackSize {
		http.Error(w, "Invalid rack.\n", http.StatusBadRequest)
		return
	}
	for _, tile := range rack {
		if _, ok := srv.tileSet.Counts[tile]; !ok {
			http.Error(w, "Rack contains invalid letter.\n", http.StatusBadRequest)
			return
		}
	}
	board, err := ParseRows(req.Board)
	if err != nil {
		http.Error(w, fmt.Sprintf("Invalid board: %v.\n", err), http.StatusBadRequest)
		return
	}
	if strings.ContainsRune(board.String(), Wildcard) {
		http.Error(w, "Blank tiles on the board must have a letter.\n", http.StatusBadRequest)
		return
	}
	// The board must either be empty or have a tile in the start square
	if !board.IsEmpty() && board.At(Center.Row, Center.Col).IsEmpty() {
		http.Error(w, "The start square must be occupied.\n", http.StatusBadRequest)
		return
	}

	moves := srv.gen.GenerateMoves(&board, rack)
	sort.SliceStable(moves, func(i, j int) bool {
		return moves[i].Score > moves[j].Score
	})
	// If a limit is specified, use that as a cap on the number of moves returned
	if req.Limit > 0 {
		moves = moves[0:min(req.Limit, len(moves))]
	}
	result := MovesResponse{
		Version: APIVersion,
		Count:   len(moves),
		Moves:   make([]MoveJSON, len(moves)),
	}
	for i := range moves {
		move := &moves[i]
		tiles := make([]rune, len(move.Covers))
		for j, c := range move.Covers {
			tiles[j] = c.Letter
		}
		result.Moves[i] = MoveJSON{
			Coord:      move.Coord(),
			Word:       move.Word,
			Row:        move.Row,
			Col:        move.Col,
			Horizontal: move.Horizontal,
			Tiles:      string(tiles),
			Score:      move.Score,
		}
	}
	writeJSON(w, result)
}

func (srv *Server) wordcheckHandler(w http.ResponseWriter, r *http.Request) {
	var req WordCheckRequest
	if !srv.validate(w, r, &req) {
		return
	}
	if !srv.checkLocale(w, req.Locale) {
		return
	}
	result := WordCheckResponse{
		Version: APIVersion,
		Ok:      len(req.Words) > 0,
		Valid:   make([]WordValidity, len(req.Words)),
	}
	for i, word := range req.Words {
		valid := srv.dawg.Contains(word)
		result.Valid[i] = WordValidity{Word: word, Valid: valid}
		result.Ok = result.Ok && valid
	}
	writeJSON(w, result)
}

// playHandler seats a websocket client at the forming table and
// relays its protocol lines until the game is over
func (srv *Server) playHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := srv.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader has already replied to the client
		srv.log.Info().Err(err).Msg("Websocket upgrade failed")
		return
	}
	sp, err := srv.seat(conn)
	if err != nil {
		srv.log.Error().Err(err).Msg("Unable to seat client")
		_ = conn.WriteMessage(websocket.TextMessage, []byte(Error1Message(err.Error()).String()))
		conn.Close()
		return
	}
	sp.serve(srv.ctx)
}

// seat adds a websocket participant to the forming table, creating
// the table if needed, and starts the session when the table is full
func (srv *Server) seat(conn *websocket.Conn) (*socketParticipant, error) {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	if srv.ctx.Err() != nil {
		return nil, errors.New("server closing")
	}
	if srv.table == nil {
		t, err := srv.newTable()
		if err != nil {
			return nil, err
		}
		srv.table = t
	}
	t := srv.table
	sp := newSocketParticipant(conn, t.session, srv.log)
	index, err := t.session.Join(sp)
	if err != nil {
		return nil, err
	}
	t.humans++
	sp.Deliver(Message{{OpConnection, sp.id.String()}, {OpJoined, strconv.Itoa(index)}})
	sp.log.Info().Int("joined", index).Msg("Client seated")
	if t.humans < srv.cfg.Humans {
		return sp, nil
	}
	srv.table = nil
	if err := t.session.Start(); err != nil {
		return nil, err
	}
	srv.wg.Add(1)
	go func() {
		defer srv.wg.Done()
		if err := t.session.Run(srv.ctx); err != nil && !errors.Is(err, context.Canceled) {
			srv.log.Error().Err(err).Msg("Session failed")
		}
	}()
	return sp, nil
}

// newTable creates a session with its robot players seated
func (srv *Server) newTable() (*table, error) {
	log := srv.log.With().Str("table", strconv.FormatInt(time.Now().UnixNano(), 36)).Logger()
	session, err := NewSession(SessionConfig{
		TileSet:     srv.tileSet,
		Dawg:        srv.dawg,
		Log:         &log,
		IdleTimeout: srv.cfg.IdleTimeout,
	})
	if err != nil {
		return nil, err
	}
	for i := 0; i < srv.cfg.Robots; i++ {
		var robot Robot = NewHighScoreRobot()
		if srv.cfg.RobotChoices > 1 {
			robot = NewOneOfNBestRobot(srv.cfg.RobotChoices, nil)
		}
		rp := NewRobotPlayer(session, srv.gen, robot, log.With().Str("robot", strconv.Itoa(i)).Logger())
		if _, err := session.Join(rp); err != nil {
			return nil, err
		}
		srv.wg.Add(1)
		go func() {
			defer srv.wg.Done()
			if err := rp.Run(srv.ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("Robot failed")
			}
		}()
	}
	return &table{session: session}, nil
}
