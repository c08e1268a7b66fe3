// scan.go
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
package decoder

import "github.com/stephenlclarke/versafix/fix"

// scanStatus is the low-level outcome of one read step.
type scanStatus int

const (
	scanOK    scanStatus = iota
	scanShort            // buffer ended mid-field
	scanBad              // structurally invalid bytes
)

// scan is a read cursor over the caller's buffer. The buffer is never
// mutated; field content is copied out as it is extracted.
type scan struct {
	buf []byte
	pos int
}

// readTag consumes "tag=" and returns the tag. The cursor stops on the
// first content byte.
func (s *scan) readTag() (fix.Tag, scanStatus) {
	start := s.pos
	tag := 0

	for {
		if s.pos >= len(s.buf) {
			s.pos = start
			return 0, scanShort
		}

		b := s.buf[s.pos]

		if b == '=' {
			if s.pos == start {
				return 0, scanBad // '=' with no tag digits
			}
			s.pos++
			return fix.Tag(tag), scanOK
		}

		if b < '0' || b > '9' {
			return 0, scanBad
		}

		tag = tag*10 + int(b-'0')
		s.pos++
	}
}

// readValue consumes content up to and including the next SOH.
func (s *scan) readValue() (string, scanStatus) {
	start := s.pos

	for s.pos < len(s.buf) {
		if s.buf[s.pos] == fix.SOH {
			v := string(s.buf[start:s.pos])
			s.pos++
			return v, scanOK
		}
		s.pos++
	}

	s.pos = start
	return "", scanShort
}

// readValueN consumes exactly n content bytes plus the terminating SOH.
// Length-coded data may legitimately contain SOH bytes, so no scanning is
// done.
func (s *scan) readValueN(n int) (string, scanStatus) {
	if s.pos+n >= len(s.buf) {
		return "", scanShort // value or its terminating SOH is missing
	}

	if s.buf[s.pos+n] != fix.SOH {
		return "", scanBad
	}

	v := string(s.buf[s.pos : s.pos+n])
	s.pos += n + 1

	return v, scanOK
}

// skipSOH consumes any run of stray SOH bytes.
func (s *scan) skipSOH() {
	for s.pos < len(s.buf) && s.buf[s.pos] == fix.SOH {
		s.pos++
	}
}
