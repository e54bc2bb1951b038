// participant.go
// Copyright (C) 2023 Vilhjálmur Þorsteinsson / Miðeind ehf
// This file implements the Participant interface, through which
// a game session talks to the players taking part in it

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
	"sync"
)

// ErrParticipantClosed is returned when reading from a participant
// whose session has closed it and whose messages have all been read
var ErrParticipantClosed = errors.New("participant closed")

// Participant is a player as seen by a game session. The session
// sends messages to a participant through Deliver, which must never
// block, and calls Close once the game is over. Participants send
// their commands through Session.Submit.
type Participant interface {
	Deliver(msg Message)
	Close()
}

// mailbox is an unbounded FIFO of messages with a blocking,
// cancellable receive
type mailbox struct {
	mu     sync.Mutex
	items  []Message
	closed bool
	// notify holds a token whenever items or closed may have changed
	notify chan struct{}
}

func newMailbox() *mailbox {
	return &mailbox{notify: make(chan struct{}, 1)}
}

func (mb *mailbox) signal() {
	select {
	case mb.notify <- struct{}{}:
	default:
	}
}

// put appends a message; messages put after close are dropped
func (mb *mailbox) put(msg Message) {
	mb.mu.Lock()
	if mb.closed {
		mb.mu.Unlock()
		return
	}
	mb.items = append(mb.items, msg)
	mb.mu.Unlock()
	mb.signal()
}

func (mb *mailbox) close() {
	mb.mu.Lock()
	mb.closed = true
	mb.mu.Unlock()
	mb.signal()
}

// take returns the oldest message, waiting for one if necessary.
// Messages put before close are still returned after it.
func (mb *mailbox) take(ctx context.Context) (Message, error) {
	for {
		mb.mu.Lock()
		if len(mb.items) > 0 {
			msg := mb.items[0]
			mb.items[0] = nil
			mb.items = mb.items[1:]
			more := len(mb.items) > 0
			mb.mu.Unlock()
			if more {
				// Leave a token for the next receiver
				mb.signal()
			}
			return msg, nil
		}
		closed := mb.closed
		mb.mu.Unlock()
		if closed {
			return nil, ErrParticipantClosed
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-mb.notify:
		}
	}
}

// ChannelParticipant is an in-process Participant that queues the
// messages it receives until they are read with Next. It suits
// front ends living in the same process, and tests.
type ChannelParticipant struct {
	box *mailbox
}

// NewChannelParticipant returns a fresh ChannelParticipant
func NewChannelParticipant() *ChannelParticipant {
	return &ChannelParticipant{box: newMailbox()}
}

// Deliver queues a message from the session
func (cp *ChannelParticipant) Deliver(msg Message) {
	cp.box.put(msg)
}

// Close marks the end of the session's messages
func (cp *ChannelParticipant) Close() {
	cp.box.close()
}

// Next returns the next message from the session, waiting until one
// arrives, the context is done, or the participant has been closed
// and all messages have been read
func (cp *ChannelParticipant) Next(ctx context.Context) (Message, error) {
	return cp.box.take(ctx)
}

// NextOp skips messages until one carrying the given opcode arrives,
// and returns its operand
func (cp *ChannelParticipant) NextOp(ctx context.Context, op string) (string, error) {
	for {
		msg, err := cp.Next(ctx)
		if err != nil {
			return "", err
		}
		if operand, ok := msg.Get(op); ok {
			return operand, nil
		}
	}
}
