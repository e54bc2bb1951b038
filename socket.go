// socket.go
//
// Copyright (C) 2026 tilerack contributors

// This file implements a session participant at the other end
// of a websocket connection

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
	"strconv"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// derived from the gorilla websocket chat example
const (
	writeWait      = 5 * time.Second
	pongWait       = 30 * time.Second
	pingPeriod     = (pongWait * 80) / 100 // must be less than pongWait
	maxMessageSize = 4096
)

// socketParticipant relays protocol lines between a session and
// a websocket client, one text message per line
type socketParticipant struct {
	id      uuid.UUID
	conn    *websocket.Conn
	session *Session
	box     *mailbox
	log     zerolog.Logger
	// The turn order position, learned from the order message
	seat     atomic.Int32
	quitSent atomic.Bool
}

func newSocketParticipant(conn *websocket.Conn, session *Session, log zerolog.Logger) *socketParticipant {
	id := uuid.New()
	sp := &socketParticipant{
		id:      id,
		conn:    conn,
		session: session,
		box:     newMailbox(),
		log:     log.With().Str("conn", id.String()).Logger(),
	}
	sp.seat.Store(-1)
	return sp
}

// Deliver queues a message for the write pump
func (sp *socketParticipant) Deliver(msg Message) {
	if order, ok := msg.Get(OpOrder); ok {
		if seat, err := strconv.Atoi(order); err == nil {
			sp.seat.Store(int32(seat))
		}
	}
	sp.box.put(msg)
}

// Close lets the write pump finish once the queued messages are sent
func (sp *socketParticipant) Close() {
	sp.box.close()
}

// serve runs the read and write pumps until the session is over
// and the connection is gone
func (sp *socketParticipant) serve(ctx context.Context) {
	pingCtx, stopPing := context.WithCancel(ctx)
	var g errgroup.Group
	g.Go(func() error {
		defer stopPing()
		defer sp.conn.Close()
		return sp.writeMessages(ctx)
	})
	g.Go(func() error {
		return sp.ping(pingCtx)
	})
	g.Go(func() error {
		defer sp.conn.Close()
		return sp.readMessages(ctx)
	})
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		sp.log.Debug().Err(err).Msg("Socket closed")
	}
}

func (sp *socketParticipant) readMessages(ctx context.Context) error {
	sp.conn.SetReadLimit(maxMessageSize)
	if err := sp.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		return err
	}
	sp.conn.SetPongHandler(func(string) error {
		return sp.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		kind, data, err := sp.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				sp.log.Info().Err(err).Msg("Unexpected websocket closure")
			}
			sp.quit(ctx)
			return nil
		}
		if kind != websocket.TextMessage {
			continue
		}
		err = sp.session.Submit(ctx, int(sp.seat.Load()), string(data))
		switch {
		case errors.Is(err, ErrSessionNotStarted):
			sp.Deliver(Error1Message("game not started"))
		case errors.Is(err, ErrSessionFinished):
			return nil
		case err != nil:
			return err
		}
	}
}

func (sp *socketParticipant) writeMessages(ctx context.Context) error {
	broken := false
	for {
		msg, err := sp.box.take(ctx)
		if errors.Is(err, ErrParticipantClosed) {
			if !broken {
				_ = sp.conn.SetWriteDeadline(time.Now().Add(writeWait))
				_ = sp.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "game over"))
			}
			return nil
		}
		if err != nil {
			return err
		}
		if broken {
			// Keep draining so that a session started after the
			// client left learns that it is gone
			sp.quit(ctx)
			continue
		}
		if err := sp.conn.SetWriteDeadline(time.Now().Add(writeWait)); err == nil {
			err = sp.conn.WriteMessage(websocket.TextMessage, []byte(msg.String()))
		}
		if err != nil {
			sp.log.Info().Err(err).Msg("Error writing websocket message")
			broken = true
			sp.quit(ctx)
		}
	}
}

func (sp *socketParticipant) ping(ctx context.Context) error {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := sp.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return nil
			}
		}
	}
}

// quit ends a started session on behalf of a client that is gone
func (sp *socketParticipant) quit(ctx context.Context) {
	if sp.session.State() != Started || !sp.quitSent.CompareAndSwap(false, true) {
		return
	}
	sp.log.Info().Msg("Client gone, quitting")
	if err := sp.session.Submit(ctx, int(sp.seat.Load()), Message{{OpQuit, ""}}.String()); err != nil {
		sp.log.Debug().Err(err).Msg("Quit not submitted")
	}
}
