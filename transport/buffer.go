// buffer.go
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

import "bytes"

// ReceiveBuffer accumulates bytes from the socket for the parser. The
// parser reads a prefix and reports how much it consumed; Compact moves the
// unread tail to the front and reuses the allocation.
type ReceiveBuffer struct {
	buf []byte
	n   int
}

// Append copies p onto the end of the buffer.
func (b *ReceiveBuffer) Append(p []byte) {
	if b.n+len(p) > len(b.buf) {
		grown := make([]byte, nextSize(b.n+len(p), len(b.buf)))
		copy(grown, b.buf[:b.n])
		b.buf = grown
	}

	copy(b.buf[b.n:], p)
	b.n += len(p)
}

func nextSize(need, have int) int {
	size := have
	if size < 4096 {
		size = 4096
	}
	for size < need {
		size *= 2
	}
	return size
}

// Bytes returns the unread content. The slice aliases the internal buffer
// and is invalidated by the next Append or Compact.
func (b *ReceiveBuffer) Bytes() []byte { return b.buf[:b.n] }

// Len returns the number of unread bytes.
func (b *ReceiveBuffer) Len() int { return b.n }

// Compact discards the first n bytes and moves the tail to the front.
func (b *ReceiveBuffer) Compact(n int) {
	if n <= 0 {
		return
	}
	if n >= b.n {
		b.n = 0
		return
	}

	copy(b.buf, b.buf[n:b.n])
	b.n -= n
}

// Resync discards bytes up to the next plausible message start (an "8="
// preceded by a field terminator) and returns how many bytes were dropped.
// At least one byte is always dropped so a poisoned prefix cannot wedge the
// read loop; with no candidate start the whole buffer is discarded.
func (b *ReceiveBuffer) Resync() int {
	idx := bytes.Index(b.Bytes(), []byte("\x018="))
	if idx < 0 {
		dropped := b.n
		b.n = 0
		return dropped
	}

	dropped := idx + 1
	b.Compact(dropped)

	return dropped
}
