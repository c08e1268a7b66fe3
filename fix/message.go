// message.go
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
package fix

// Message is a FIX message: three ordered element collections for the
// header, body and trailer. It is not safe for concurrent mutation.
type Message struct {
	Header  *Collection
	Body    *Collection
	Trailer *Collection
}

// NewMessage returns an empty message.
func NewMessage() *Message {
	return &Message{
		Header:  NewCollection(),
		Body:    NewCollection(),
		Trailer: NewCollection(),
	}
}

// Get returns the first element with the given tag, searching header, body
// and trailer in that order, or nil.
func (m *Message) Get(tag Tag) Element {
	for _, c := range []*Collection{m.Header, m.Body, m.Trailer} {
		if e := c.Get(tag); e != nil {
			return e
		}
	}

	return nil
}

// Content returns the content of the first element with the given tag.
func (m *Message) Content(tag Tag) (string, bool) {
	e := m.Get(tag)
	if e == nil {
		return "", false
	}

	return e.ElementContent(), true
}

// MsgType returns the content of tag 35 from the header, or "".
func (m *Message) MsgType() string {
	s, _ := m.Header.Content(TagMsgType)
	return s
}

// BeginString returns the content of tag 8 from the header, or "".
func (m *Message) BeginString() string {
	s, _ := m.Header.Content(TagBeginString)
	return s
}
