// serialize_test.go
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
	"strconv"
	"strings"
	"testing"
	"time"
)

// logonMessage builds an unfinalized logon with the header prefix pinned.
func logonMessage() *Message {
	m := NewMessage()
	m.Header.Append(NewField(TagBeginString, "FIX.4.4"))
	m.Header.Append(NewField(TagBodyLength, "0"))
	m.Header.Append(NewField(TagMsgType, "A"))
	m.Header.Append(NewField(TagMsgSeqNum, "1"))
	m.Header.Append(NewField(TagSenderCompID, "C"))
	m.Header.Append(NewField(TagSendingTime, "20100101-00:00:00.000"))
	m.Header.Append(NewField(TagTargetCompID, "S"))
	m.Body.Append(NewField(TagEncryptMethod, "0"))
	m.Body.Append(NewField(TagHeartBtInt, "30"))
	m.Trailer.Append(NewField(TagCheckSum, "000"))
	return m
}

func TestSerializeEmitsTagEqualsContentSOH(t *testing.T) {
	m := NewMessage()
	m.Header.Append(NewField(8, "FIX.4.4"))
	m.Header.Append(NewField(35, "0"))
	m.Trailer.Append(NewField(10, "123"))

	got := string(Serialize(m))
	want := "8=FIX.4.4\x0135=0\x0110=123\x01"

	if got != want {
		t.Errorf("Serialize() = %q, want %q", got, want)
	}
}

func TestSerializeGroupEmitsCountThenInstances(t *testing.T) {
	m := NewMessage()
	m.Header.Append(NewField(8, "FIX.4.4"))

	g := NewGroup(73, "2")
	one := NewCollection()
	one.Append(NewField(11, "ORD1"))
	two := NewCollection()
	two.Append(NewField(11, "ORD2"))
	g.AddInstance(one)
	g.AddInstance(two)
	m.Body.Append(g)

	got := string(Serialize(m))
	want := "8=FIX.4.4\x0173=2\x0111=ORD1\x0111=ORD2\x01"

	if got != want {
		t.Errorf("Serialize() = %q, want %q", got, want)
	}
}

func TestSerializeNestedGroups(t *testing.T) {
	inner := NewGroup(539, "1")
	innerInstance := NewCollection()
	innerInstance.Append(NewField(524, "NESTED"))
	inner.AddInstance(innerInstance)

	outerInstance := NewCollection()
	outerInstance.Append(NewField(11, "ORD1"))
	outerInstance.Append(inner)

	outer := NewGroup(73, "1")
	outer.AddInstance(outerInstance)

	m := NewMessage()
	m.Body.Append(outer)

	got := string(Serialize(m))
	want := "73=1\x0111=ORD1\x01539=1\x01524=NESTED\x01"

	if got != want {
		t.Errorf("Serialize() = %q, want %q", got, want)
	}
}

func TestBodyLengthCountsAfterTag9(t *testing.T) {
	m := logonMessage()

	// Everything after "9=0<SOH>" except the checksum field:
	// 35=A| 34=1| 49=C| 52=...| 56=S| 98=0| 108=30|
	want := 5 + 5 + 5 + 25 + 5 + 5 + 7

	got, err := BodyLength(m)
	if err != nil {
		t.Fatalf("BodyLength failed: %v", err)
	}

	if got != want {
		t.Errorf("BodyLength() = %d, want %d", got, want)
	}
}

func TestBodyLengthIncludesGroupInstances(t *testing.T) {
	m := NewMessage()
	m.Header.Append(NewField(9, "0"))

	g := NewGroup(73, "2")
	for _, id := range []string{"A", "B"} {
		instance := NewCollection()
		instance.Append(NewField(11, id))
		g.AddInstance(instance)
	}
	m.Body.Append(g)

	// 73=2| plus two instances of 11=X|
	want := 5 + 5 + 5

	got, err := BodyLength(m)
	if err != nil {
		t.Fatalf("BodyLength failed: %v", err)
	}

	if got != want {
		t.Errorf("BodyLength() = %d, want %d", got, want)
	}
}

func TestCheckSumSumsBytesModulo256(t *testing.T) {
	if got := CheckSum([]byte{0x01, 0x02}); got != 3 {
		t.Errorf("CheckSum = %d, want 3", got)
	}

	if got := CheckSum(bytes.Repeat([]byte{0xFF}, 257)); got != 257*255%256 {
		t.Errorf("CheckSum = %d, want %d", got, 257*255%256)
	}
}

func TestFinalizeStampsComputedFields(t *testing.T) {
	m := logonMessage()
	at := time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC)

	if err := FinalizeAt(m, at); err != nil {
		t.Fatalf("FinalizeAt failed: %v", err)
	}

	if v, _ := m.Header.Content(TagSendingTime); v != "20100101-00:00:00.000" {
		t.Errorf("SendingTime = %q", v)
	}

	length, _ := BodyLength(m)
	if v, _ := m.Header.Content(TagBodyLength); v != strconv.Itoa(length) {
		t.Errorf("BodyLength content = %q, want %d", v, length)
	}

	// Checksum identity over the serialized bytes.
	raw := string(Serialize(m))
	idx := strings.Index(raw, "\x0110=")
	if idx == -1 {
		t.Fatal("serialized message has no checksum field")
	}

	wantSum := fmt.Sprintf("%03d", CheckSum([]byte(raw[:idx+1])))
	if v, _ := m.Trailer.Content(TagCheckSum); v != wantSum {
		t.Errorf("CheckSum content = %q, want %q", v, wantSum)
	}

	if v, _ := m.Trailer.Content(TagCheckSum); len(v) != 3 {
		t.Errorf("CheckSum %q is not three digits", v)
	}
}

func TestFinalizeIsStableAcrossRepeats(t *testing.T) {
	m := logonMessage()
	at := time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC)

	if err := FinalizeAt(m, at); err != nil {
		t.Fatalf("first FinalizeAt failed: %v", err)
	}
	first := Serialize(m)

	if err := FinalizeAt(m, at); err != nil {
		t.Fatalf("second FinalizeAt failed: %v", err)
	}
	second := Serialize(m)

	if !bytes.Equal(first, second) {
		t.Errorf("repeated finalize changed bytes:\n%q\n%q", first, second)
	}
}

func TestFinalizeAppendsMissingFieldsWithHeaderPrefix(t *testing.T) {
	m := NewMessage()
	m.Header.Append(NewField(TagBeginString, "FIX.4.4"))
	m.Header.Append(NewField(TagMsgType, "0"))

	if err := FinalizeAt(m, time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("FinalizeAt failed: %v", err)
	}

	got := tagsOf(m.Header.Elements())[:3]
	want := []Tag{TagBeginString, TagBodyLength, TagMsgType}

	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("header prefix = %v, want %v", got, want)
		}
	}

	if m.Trailer.Get(TagCheckSum) == nil {
		t.Error("checksum field was not appended")
	}
}
