// collection_test.go
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
	"reflect"
	"testing"
)

func tagsOf(elems []Element) []Tag {
	out := make([]Tag, 0, len(elems))
	for _, e := range elems {
		out = append(out, e.ElementTag())
	}
	return out
}

func TestCollectionAppendPreservesInsertionOrder(t *testing.T) {
	c := NewCollection()
	for _, tag := range []Tag{49, 56, 34, 52} {
		if err := c.Append(NewField(tag, "x")); err != nil {
			t.Fatalf("Append(%d) failed: %v", tag, err)
		}
	}

	got := tagsOf(c.Elements())
	want := []Tag{49, 56, 34, 52}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("Elements() order = %v, want %v", got, want)
	}
}

func TestCollectionGetReturnsFirstOccurrence(t *testing.T) {
	c := NewCollection()
	c.Append(NewField(448, "first"))
	c.Append(NewField(448, "second"))

	if got := c.Get(448).ElementContent(); got != "first" {
		t.Errorf("Get(448) = %q, want %q", got, "first")
	}

	if got := c.GetAt(448, 1).ElementContent(); got != "second" {
		t.Errorf("GetAt(448, 1) = %q, want %q", got, "second")
	}
}

func TestCollectionGetAtBoundedByOccurrenceCount(t *testing.T) {
	c := NewCollection()
	c.Append(NewField(448, "only"))
	c.Append(NewField(447, "other"))
	c.Append(NewField(452, "other"))

	// Index 1 exceeds the occurrences of tag 448 even though the collection
	// holds more than two elements in total.
	if e := c.GetAt(448, 1); e != nil {
		t.Errorf("GetAt(448, 1) = %v, want nil", e)
	}

	if e := c.GetAt(448, -1); e != nil {
		t.Errorf("GetAt(448, -1) = %v, want nil", e)
	}
}

func TestCollectionRejectsMixedKindsForOneTag(t *testing.T) {
	c := NewCollection()
	if err := c.Append(NewField(73, "2")); err != nil {
		t.Fatalf("Append field failed: %v", err)
	}

	if err := c.Append(NewGroup(73, "2")); err == nil {
		t.Error("Append group under a field tag should fail")
	}
}

func TestCollectionOrderingVectorYieldsOrderedPrefixThenResidual(t *testing.T) {
	c := NewCollection()
	c.Append(NewField(34, "1"))
	c.Append(NewField(8, "FIX.4.4"))
	c.Append(NewField(35, "A"))
	c.Append(NewField(9, "68"))
	c.Append(NewField(49, "LEFT"))

	c.SetOrdering([]Tag{8, 9, 35})

	got := tagsOf(c.Elements())
	want := []Tag{8, 9, 35, 34, 49}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("ordered Elements() = %v, want %v", got, want)
	}
}

func TestCollectionOrderingVectorRespectsInstanceIndex(t *testing.T) {
	c := NewCollection()
	c.Append(NewField(448, "a"))
	c.Append(NewField(447, "x"))
	c.Append(NewField(448, "b"))

	// Tag 448 listed twice selects its first and second occurrence.
	c.SetOrdering([]Tag{448, 448})

	got := c.Elements()
	if got[0].ElementContent() != "a" || got[1].ElementContent() != "b" {
		t.Errorf("ordering did not respect instance index: %v", got)
	}

	if got[2].ElementTag() != 447 {
		t.Errorf("residual element missing, got %v", tagsOf(got))
	}
}

func TestCollectionSetFieldOverwritesInPlace(t *testing.T) {
	c := NewCollection()
	c.Append(NewField(52, "old"))
	c.Append(NewField(56, "T"))

	if err := c.SetField(52, "new"); err != nil {
		t.Fatalf("SetField failed: %v", err)
	}

	got := tagsOf(c.Elements())
	want := []Tag{52, 56}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("SetField changed order: %v, want %v", got, want)
	}

	if v, _ := c.Content(52); v != "new" {
		t.Errorf("Content(52) = %q, want %q", v, "new")
	}
}

func TestCollectionSetFieldAppendsWhenAbsent(t *testing.T) {
	c := NewCollection()
	c.Append(NewField(8, "FIX.4.4"))

	if err := c.SetField(10, "123"); err != nil {
		t.Fatalf("SetField failed: %v", err)
	}

	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}
}

func TestMessageGetSearchesAllSections(t *testing.T) {
	m := NewMessage()
	m.Header.Append(NewField(35, "A"))
	m.Body.Append(NewField(98, "0"))
	m.Trailer.Append(NewField(10, "196"))

	for _, tag := range []Tag{35, 98, 10} {
		if m.Get(tag) == nil {
			t.Errorf("Get(%d) = nil, want element", tag)
		}
	}

	if m.Get(9999) != nil {
		t.Error("Get(9999) should be nil")
	}

	if m.MsgType() != "A" {
		t.Errorf("MsgType() = %q, want %q", m.MsgType(), "A")
	}
}
