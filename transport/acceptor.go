// acceptor.go
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
	"errors"
	"net"
	"sync"

	"github.com/rs/zerolog"

	"github.com/stephenlclarke/versafix/decoder"
)

// HandlerFactory builds the Handler for each accepted connection, typically
// wiring a fresh session around the Conn.
type HandlerFactory func(c *Conn) Handler

// Acceptor runs the server role: it listens, accepts, and pumps each
// connection on its own goroutine.
type Acceptor struct {
	addr    string
	parser  *decoder.Parser
	opts    decoder.Options
	factory HandlerFactory
	log     zerolog.Logger

	mu sync.Mutex
	ln net.Listener
	wg sync.WaitGroup

	closed bool
}

// NewAcceptor prepares a server for the given listen address.
func NewAcceptor(addr string, parser *decoder.Parser, opts decoder.Options, factory HandlerFactory, log zerolog.Logger) *Acceptor {
	return &Acceptor{
		addr:    addr,
		parser:  parser,
		opts:    opts,
		factory: factory,
		log:     log.With().Str("listen", addr).Logger(),
	}
}

// ListenAndServe binds the configured address and serves until Close.
func (a *Acceptor) ListenAndServe() error {
	ln, err := net.Listen("tcp", a.addr)
	if err != nil {
		return err
	}

	return a.Serve(ln)
}

// Serve accepts connections from an existing listener until Close.
func (a *Acceptor) Serve(ln net.Listener) error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		ln.Close()
		return errors.New("transport: acceptor is closed")
	}
	a.ln = ln
	a.mu.Unlock()

	a.log.Info().Msg("accepting connections")

	for {
		nc, err := ln.Accept()
		if err != nil {
			a.mu.Lock()
			closed := a.closed
			a.mu.Unlock()

			if closed {
				return nil
			}
			return err
		}

		conn := newConn(nc, a.parser, a.opts, a.log)
		handler := a.factory(conn)

		a.log.Info().Str("remote", nc.RemoteAddr().String()).Msg("connection accepted")

		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			conn.readLoop(handler)
		}()
	}
}

// Addr returns the bound listener address, or nil before Serve.
func (a *Acceptor) Addr() net.Addr {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.ln == nil {
		return nil
	}
	return a.ln.Addr()
}

// Close stops accepting and waits for the per-connection goroutines.
func (a *Acceptor) Close() error {
	a.mu.Lock()
	a.closed = true
	ln := a.ln
	a.mu.Unlock()

	var err error
	if ln != nil {
		err = ln.Close()
	}

	a.wg.Wait()
	return err
}
