// status.go
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

// Status classifies the outcome of one Parse call. Only StatusComplete
// carries a message; every other status asks the caller to keep, retry,
// reframe or discard its buffer.
type Status int

const (
	// StatusComplete: exactly one message was produced and Consumed bytes
	// belong to it.
	StatusComplete Status = iota

	// StatusExhausted: the buffer ran out before a complete message; retry
	// once more bytes arrive.
	StatusExhausted

	// StatusIncomplete: a new BeginString appeared before the previous
	// message finished; the caller has lost framing.
	StatusIncomplete

	// StatusMalformed: structurally invalid input (non-integer tag, missing
	// '=' before SOH, bad length prefix).
	StatusMalformed

	// StatusUnknownSessionProtocol: the session-layer dictionary could not
	// be identified and no override was supplied.
	StatusUnknownSessionProtocol
)

func (s Status) String() string {
	switch s {
	case StatusComplete:
		return "complete"
	case StatusExhausted:
		return "exhausted"
	case StatusIncomplete:
		return "incomplete"
	case StatusMalformed:
		return "malformed"
	case StatusUnknownSessionProtocol:
		return "unknown session protocol"
	default:
		return "invalid"
	}
}

// Result is the outcome of one Parse call. Consumed is non-zero only for
// StatusComplete.
type Result struct {
	Consumed int
	Status   Status
	Message  *fix.Message
}

// Options carries the per-call dictionary overrides. All three name
// dictionaries registered with the parser's registry.
type Options struct {
	// Session overrides session-layer identification entirely.
	Session string

	// Application overrides application-layer identification for the body.
	Application string

	// ApplicationDefault is consulted when neither the matcher nor the
	// Application override yields an application-layer dictionary.
	ApplicationDefault string
}
