// serialize.go
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

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"time"
)

// EncodingError reports a message whose computed body length cannot be
// represented in a BodyLength field.
type EncodingError struct {
	Length int64
}

func (e EncodingError) Error() string {
	return fmt.Sprintf("fix: body length %d exceeds the representable maximum", e.Length)
}

const maxBodyLength = math.MaxInt32

// Serialize emits the canonical wire form of a message: every element of the
// header, body and trailer in iteration order as tag=content<SOH>. Groups
// emit their count field first, then each instance's elements recursively.
// No reordering or normalisation is applied.
func Serialize(m *Message) []byte {
	var buf bytes.Buffer
	writeElements(&buf, m.Header.Elements())
	writeElements(&buf, m.Body.Elements())
	writeElements(&buf, m.Trailer.Elements())

	return buf.Bytes()
}

// wireWriter emits elements in wire form via the element visitor.
type wireWriter struct {
	buf *bytes.Buffer
}

func (w *wireWriter) emit(tag Tag, content string) {
	w.buf.WriteString(strconv.Itoa(int(tag)))
	w.buf.WriteByte('=')
	w.buf.WriteString(content)
	w.buf.WriteByte(SOH)
}

func (w *wireWriter) VisitField(f *Field) {
	w.emit(f.Tag, f.Content)
}

func (w *wireWriter) VisitGroup(g *Group) {
	w.emit(g.Tag, g.Content)

	for _, instance := range g.Instances {
		for _, e := range instance.Elements() {
			e.Accept(w)
		}
	}
}

func writeElements(buf *bytes.Buffer, elems []Element) {
	w := &wireWriter{buf: buf}
	for _, e := range elems {
		e.Accept(w)
	}
}

func writeElement(buf *bytes.Buffer, e Element) {
	e.Accept(&wireWriter{buf: buf})
}

// BodyLength computes the value of tag 9 for the message: the byte count of
// the serialized form starting after the BodyLength field's terminating SOH
// and ending before the first byte of the CheckSum field. If the header
// carries no tag 9, every header element counts, as if the field preceded
// them all.
func BodyLength(m *Message) (int, error) {
	var sum int64

	counting := m.Header.Get(TagBodyLength) == nil
	for _, e := range m.Header.Elements() {
		if e.ElementTag() == TagBodyLength {
			counting = true
			continue
		}
		if counting {
			sum += elementLength(e)
		}
	}

	for _, e := range m.Body.Elements() {
		sum += elementLength(e)
	}

	for _, e := range m.Trailer.Elements() {
		if e.ElementTag() == TagCheckSum {
			break
		}
		sum += elementLength(e)
	}

	if sum > maxBodyLength {
		return 0, EncodingError{Length: sum}
	}

	return int(sum), nil
}

// elementLength is the serialized size of one element: tag digits, '=',
// content, SOH, plus all instance elements for a group.
func elementLength(e Element) int64 {
	n := int64(len(strconv.Itoa(int(e.ElementTag())))) + 1 + int64(len(e.ElementContent())) + 1

	if g, ok := e.(*Group); ok {
		for _, instance := range g.Instances {
			for _, ie := range instance.Elements() {
				n += elementLength(ie)
			}
		}
	}

	return n
}

// CheckSum sums the bytes of a serialized fragment modulo 256.
func CheckSum(data []byte) int {
	sum := 0
	for _, b := range data {
		sum += int(b)
	}

	return sum % 256
}

// checksumPrefix serializes the message up to but excluding the CheckSum
// field.
func checksumPrefix(m *Message) []byte {
	var buf bytes.Buffer
	writeElements(&buf, m.Header.Elements())
	writeElements(&buf, m.Body.Elements())

	for _, e := range m.Trailer.Elements() {
		if e.ElementTag() == TagCheckSum {
			break
		}
		writeElement(&buf, e)
	}

	return buf.Bytes()
}

// Finalize stamps the three computed fields: SendingTime (52) with the
// current UTC time, then BodyLength (9), then CheckSum (10). Existing fields
// are overwritten in place; missing ones are appended to their collection.
func Finalize(m *Message) error {
	return FinalizeAt(m, time.Now().UTC())
}

// FinalizeAt is Finalize with an explicit timestamp.
func FinalizeAt(m *Message, at time.Time) error {
	if err := m.Header.SetField(TagSendingTime, at.UTC().Format(SendingTimeLayout)); err != nil {
		return err
	}

	// A message built by hand may not carry tag 9 yet. Append it and pin the
	// standard header prefix so iteration yields 8, 9, 35 first.
	if m.Header.Get(TagBodyLength) == nil {
		if err := m.Header.SetField(TagBodyLength, "0"); err != nil {
			return err
		}
		if len(m.Header.ordering) == 0 {
			m.Header.SetOrdering([]Tag{TagBeginString, TagBodyLength, TagMsgType})
		}
	}

	length, err := BodyLength(m)
	if err != nil {
		return err
	}

	if err := m.Header.SetField(TagBodyLength, strconv.Itoa(length)); err != nil {
		return err
	}

	sum := CheckSum(checksumPrefix(m))

	return m.Trailer.SetField(TagCheckSum, fmt.Sprintf("%03d", sum))
}
