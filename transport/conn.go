// conn.go
/*
versafix — FIX protocol engine
Copyright (C) 2025 Steve Clarke <stephenlclarke@mac.com>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU Affero General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU Affero General Public License for more details.

You should have received a copy of the GNU Affero General Public License
along with this program.  If not, see <https://www.gnu.org/licenses/>.

In accordance with section 13 of the AGPL, if you modify this program,
your modified version must prominently offer all users interacting with it
remotely through a computer network an opportunity to receive the source
code of your version.
*/

// Package transport moves FIX bytes over TCP: an acceptor for the server
// role, a reconnecting connector for the client role, and the buffer pump
// that frames inbound bytes through the streaming parser.
package transport

import (
	"io"
	"net"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/stephenlclarke/versafix/decoder"
	"github.com/stephenlclarke/versafix/fix"
)

// Handler consumes framed messages from one connection.
type Handler interface {
	// OnMessage is called for every complete inbound message, in arrival
	// order, from the connection's read goroutine.
	OnMessage(c *Conn, m *fix.Message)

	// OnDisconnect is called once when the read loop ends. err is nil for
	// an orderly remote close.
	OnDisconnect(c *Conn, err error)
}

// Conn is one TCP connection pumping bytes through the parser. Writes are
// serialized; the read loop runs on its own goroutine.
type Conn struct {
	id     uuid.UUID
	nc     net.Conn
	parser *decoder.Parser
	opts   decoder.Options
	log    zerolog.Logger

	wmu sync.Mutex

	closeOnce sync.Once
}

func newConn(nc net.Conn, parser *decoder.Parser, opts decoder.Options, log zerolog.Logger) *Conn {
	id := uuid.New()

	return &Conn{
		id:     id,
		nc:     nc,
		parser: parser,
		opts:   opts,
		log:    log.With().Str("conn", id.String()).Str("remote", nc.RemoteAddr().String()).Logger(),
	}
}

// ID returns the connection's instance id.
func (c *Conn) ID() uuid.UUID { return c.id }

// RemoteAddr returns the peer address.
func (c *Conn) RemoteAddr() net.Addr { return c.nc.RemoteAddr() }

// WriteMessage writes one finished wire message. Safe for concurrent use.
func (c *Conn) WriteMessage(raw []byte) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()

	_, err := c.nc.Write(raw)
	return err
}

// Close shuts the connection down; the read loop ends with OnDisconnect.
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() { err = c.nc.Close() })
	return err
}

// readLoop pumps socket bytes through the parser until the connection
// drops. Undecodable prefixes are dropped through the next plausible
// message start.
func (c *Conn) readLoop(h Handler) {
	var buf ReceiveBuffer
	chunk := make([]byte, 8192)

	for {
		n, err := c.nc.Read(chunk)
		if n > 0 {
			buf.Append(chunk[:n])
			c.drain(&buf, h)
		}

		if err != nil {
			if err == io.EOF {
				err = nil
			}
			h.OnDisconnect(c, err)
			return
		}
	}
}

func (c *Conn) drain(buf *ReceiveBuffer, h Handler) {
	for buf.Len() > 0 {
		res := c.parser.Parse(buf.Bytes(), c.opts)

		switch res.Status {
		case decoder.StatusComplete:
			buf.Compact(res.Consumed)
			h.OnMessage(c, res.Message)

		case decoder.StatusExhausted:
			return // wait for more bytes

		default:
			dropped := buf.Resync()
			c.log.Warn().
				Stringer("status", res.Status).
				Int("dropped", dropped).
				Msg("reframing inbound stream")
		}
	}
}
