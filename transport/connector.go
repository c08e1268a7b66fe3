// connector.go
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
package transport

import (
	"net"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/stephenlclarke/versafix/decoder"
)

// Connector runs the client role: it dials, pumps the connection, and
// redials with exponential backoff whenever the link drops, until Close.
type Connector struct {
	addr    string
	parser  *decoder.Parser
	opts    decoder.Options
	factory HandlerFactory
	log     zerolog.Logger

	// OnConnect is invoked from the run loop after each successful dial,
	// before the read loop starts. Typical use: send the logon.
	OnConnect func(c *Conn)

	mu     sync.Mutex
	conn   *Conn
	closed chan struct{}
	once   sync.Once
}

// NewConnector prepares a client for the given remote address.
func NewConnector(addr string, parser *decoder.Parser, opts decoder.Options, factory HandlerFactory, log zerolog.Logger) *Connector {
	return &Connector{
		addr:    addr,
		parser:  parser,
		opts:    opts,
		factory: factory,
		log:     log.With().Str("remote", addr).Logger(),
		closed:  make(chan struct{}),
	}
}

// Run dials and serves until Close. Each drop is followed by a redial on an
// exponential schedule that resets after a successful connection.
func (c *Connector) Run() {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 500 * time.Millisecond
	bo.MaxInterval = 30 * time.Second
	bo.MaxElapsedTime = 0 // retry until closed

	for {
		select {
		case <-c.closed:
			return
		default:
		}

		nc, err := net.Dial("tcp", c.addr)
		if err != nil {
			wait := bo.NextBackOff()
			c.log.Warn().Err(err).Dur("retryIn", wait).Msg("dial failed")

			select {
			case <-c.closed:
				return
			case <-time.After(wait):
				continue
			}
		}

		bo.Reset()

		conn := newConn(nc, c.parser, c.opts, c.log)
		handler := c.factory(conn)

		c.mu.Lock()
		c.conn = conn
		c.mu.Unlock()

		c.log.Info().Msg("connected")

		if c.OnConnect != nil {
			c.OnConnect(conn)
		}

		done := make(chan struct{})
		go func() {
			defer close(done)
			conn.readLoop(handler)
		}()

		select {
		case <-done:
			c.log.Info().Msg("connection dropped")
		case <-c.closed:
			conn.Close()
			<-done
			return
		}
	}
}

// Conn returns the live connection, or nil while disconnected.
func (c *Connector) Conn() *Conn {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn
}

// Close stops the run loop and closes any live connection.
func (c *Connector) Close() {
	c.once.Do(func() { close(c.closed) })

	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
}
