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
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	return Config{
		Port:           "0",
		Locale:         "en",
		Humans:         1,
		Robots:         1,
		RobotChoices:   1,
		LogLevel:       zerolog.InfoLevel,
		AllowedOrigins: "*",
		IdleTimeout:    time.Minute,
	}
}

func newTestServer(t *testing.T, cfg Config) *httptest.Server {
	t.Helper()
	srv := NewServer(cfg, englishDawg(t), englishTileSet(t), zerolog.Nop())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		srv.Close()
		ts.Close()
	})
	return ts
}

func postJSON(t *testing.T, url string, body any, header http.Header) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if s, ok := body.(string); ok {
		buf.WriteString(s)
	} else {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(http.MethodPost, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header[k] = v
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var result T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	return result
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t, testConfig())
	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(body))
}

func TestMovesHandler(t *testing.T) {
	ts := newTestServer(t, testConfig())

	result := decodeBody[MovesResponse](t, postJSON(t, ts.URL+"/moves", MovesRequest{Rack: "cat"}, nil))
	assert.Equal(t, APIVersion, result.Version)
	require.NotEmpty(t, result.Moves)
	assert.Equal(t, len(result.Moves), result.Count)
	assert.Equal(t, 10, result.Moves[0].Score)
	for i, m := range result.Moves {
		assert.True(t, m.Horizontal, "move %+v", m)
		assert.True(t, strings.HasPrefix(m.Coord, "8"), "move %+v", m)
		if i > 0 {
			assert.LessOrEqual(t, m.Score, result.Moves[i-1].Score)
		}
	}

	result = decodeBody[MovesResponse](t, postJSON(t, ts.URL+"/moves", MovesRequest{Rack: "cat", Limit: 1}, nil))
	assert.Equal(t, 1, result.Count)

	board := make([]string, 8)
	board[7] = ".......CAT"
	result = decodeBody[MovesResponse](t, postJSON(t, ts.URL+"/moves", MovesRequest{Locale: "en", Board: board, Rack: "S"}, nil))
	assert.Contains(t, result.Moves, MoveJSON{
		Coord: "8H", Word: "CATS", Row: 7, Col: 7, Horizontal: true, Tiles: "S", Score: 6,
	})
}

func TestMovesHandlerErrors(t *testing.T) {
	ts := newTestServer(t, testConfig())
	offCenter := []string{"CAT"}
	wildcard := make([]string, 8)
	wildcard[7] = ".......C*T"
	cases := map[string]any{
		"empty rack":      MovesRequest{Rack: ""},
		"long rack":       MovesRequest{Rack: "ABCDEFGH"},
		"invalid letter":  MovesRequest{Rack: "C1"},
		"off center":      MovesRequest{Board: offCenter, Rack: "S"},
		"blank on board":  MovesRequest{Board: wildcard, Rack: "S"},
		"bad board":       MovesRequest{Board: []string{"C?T"}, Rack: "S"},
		"unknown locale":  MovesRequest{Locale: "is", Rack: "CAT"},
		"not json":        "{rack: CAT",
		"wrong json type": `{"rack": 7}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			resp := postJSON(t, ts.URL+"/moves", body, nil)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}

	resp, err := http.Get(ts.URL + "/moves")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/moves", nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), "POST")
}

func TestAccessKey(t *testing.T) {
	cfg := testConfig()
	cfg.AccessKey = "secret"
	ts := newTestServer(t, cfg)
	req := WordCheckRequest{Words: []string{"cat"}}

	resp := postJSON(t, ts.URL+"/wordcheck", req, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp = postJSON(t, ts.URL+"/wordcheck", req, http.Header{"Authorization": {"Bearer wrong"}})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp = postJSON(t, ts.URL+"/wordcheck", req, http.Header{"Authorization": {"Bearer secret"}})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestWordCheckHandler(t *testing.T) {
	ts := newTestServer(t, testConfig())

	result := decodeBody[WordCheckResponse](t, postJSON(t, ts.URL+"/wordcheck", WordCheckRequest{Words: []string{"cat", "CTA"}}, nil))
	assert.Equal(t, APIVersion, result.Version)
	assert.False(t, result.Ok)
	assert.Equal(t, []WordValidity{{Word: "cat", Valid: true}, {Word: "CTA", Valid: false}}, result.Valid)

	result = decodeBody[WordCheckResponse](t, postJSON(t, ts.URL+"/wordcheck", WordCheckRequest{Locale: "en", Words: []string{"qi", "ZA"}}, nil))
	assert.True(t, result.Ok)

	result = decodeBody[WordCheckResponse](t, postJSON(t, ts.URL+"/wordcheck", WordCheckRequest{}, nil))
	assert.False(t, result.Ok)
	assert.Empty(t, result.Valid)
}

func dialPlay(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/play"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readUntil reads protocol lines until one carries the given opcode
func readUntil(t *testing.T, conn *websocket.Conn, op string) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(testTimeout)))
	for {
		kind, data, err := conn.ReadMessage()
		require.NoError(t, err)
		require.Equal(t, websocket.TextMessage, kind)
		msg, err := ParseMessage(string(data))
		require.NoError(t, err)
		if _, ok := msg.Get(op); ok {
			return msg
		}
	}
}

func TestPlayWithRobot(t *testing.T) {
	ts := newTestServer(t, testConfig())
	conn := dialPlay(t, ts)

	msg := readUntil(t, conn, OpConnection)
	id, _ := msg.Get(OpConnection)
	_, err := uuid.Parse(id)
	assert.NoError(t, err)
	joined, _ := msg.Get(OpJoined)
	// The robot joined first
	assert.Equal(t, "1", joined)
	_, ok := msg.Get("seat")
	assert.False(t, ok)

	msg = readUntil(t, conn, OpOrder)
	count, _ := msg.Get(OpPlayerCount)
	assert.Equal(t, "2", count)
	order, _ := msg.Get(OpOrder)
	assert.Contains(t, []string{"0", "1"}, order)
	tiles := readUntil(t, conn, OpTiles)
	rack, _ := tiles.Get(OpTiles)
	assert.Len(t, []rune(rack), RackSize)
	readUntil(t, conn, OpCurrentPlayer)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("quit: ")))
	msg = readUntil(t, conn, OpWinner)
	winner, _ := msg.Get(OpWinner)
	assert.Equal(t, WinnerNone, winner)

	// The server closes the connection once the game is over
	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
}

func TestPlayTwoHumans(t *testing.T) {
	cfg := testConfig()
	cfg.Humans = 2
	cfg.Robots = 0
	ts := newTestServer(t, cfg)

	first := dialPlay(t, ts)
	msg := readUntil(t, first, OpConnection)
	joined, _ := msg.Get(OpJoined)
	assert.Equal(t, "0", joined)

	// The table is still forming
	require.NoError(t, first.WriteMessage(websocket.TextMessage, []byte("pass: ")))
	msg = readUntil(t, first, OpError1)
	reason, _ := msg.Get(OpError1)
	assert.Equal(t, "game not started", reason)

	second := dialPlay(t, ts)
	msg = readUntil(t, second, OpConnection)
	joined, _ = msg.Get(OpJoined)
	assert.Equal(t, "1", joined)

	orders := make(map[string]bool)
	for _, conn := range []*websocket.Conn{first, second} {
		msg := readUntil(t, conn, OpOrder)
		order, _ := msg.Get(OpOrder)
		orders[order] = true
		readUntil(t, conn, OpCurrentPlayer)
	}
	assert.Equal(t, map[string]bool{"0": true, "1": true}, orders)

	// A client leaving ends the game for everyone
	require.NoError(t, second.Close())
	msg = readUntil(t, first, OpWinner)
	winner, _ := msg.Get(OpWinner)
	assert.Equal(t, WinnerNone, winner)
}
