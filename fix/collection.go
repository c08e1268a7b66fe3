// collection.go
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

import "fmt"

// Collection is an insertion-ordered sequence of elements with a secondary
// tag index. It backs the header, body and trailer of a message as well as
// every repeating-group instance.
//
// A tag may occur more than once, but always with the same element kind:
// mixing a Field and a Group under one tag is rejected.
type Collection struct {
	elems    []Element
	index    map[Tag][]int
	ordering []Tag
}

// NewCollection returns an empty collection.
func NewCollection() *Collection {
	return &Collection{index: make(map[Tag][]int)}
}

// Len returns the number of elements.
func (c *Collection) Len() int { return len(c.elems) }

// Append adds an element at the end of the sequence. It fails if the tag is
// already present with a different element kind.
func (c *Collection) Append(e Element) error {
	tag := e.ElementTag()

	if positions := c.index[tag]; len(positions) > 0 {
		if !sameKind(c.elems[positions[0]], e) {
			return fmt.Errorf("fix: tag %d already present with a different element kind", tag)
		}
	}

	c.index[tag] = append(c.index[tag], len(c.elems))
	c.elems = append(c.elems, e)

	return nil
}

func sameKind(a, b Element) bool {
	_, aField := a.(*Field)
	_, bField := b.(*Field)
	return aField == bField
}

// Get returns the first element with the given tag, or nil.
func (c *Collection) Get(tag Tag) Element {
	return c.GetAt(tag, 0)
}

// GetAt returns the i-th element with the given tag, or nil. The index is
// bounded by the number of occurrences of that tag, not by the size of the
// collection.
func (c *Collection) GetAt(tag Tag, i int) Element {
	positions := c.index[tag]
	if i < 0 || i >= len(positions) {
		return nil
	}

	return c.elems[positions[i]]
}

// Count returns the number of occurrences of a tag.
func (c *Collection) Count(tag Tag) int { return len(c.index[tag]) }

// Content returns the content of the first element with the given tag and
// whether the tag is present.
func (c *Collection) Content(tag Tag) (string, bool) {
	e := c.Get(tag)
	if e == nil {
		return "", false
	}

	return e.ElementContent(), true
}

// SetField overwrites the content of the first field with the given tag, or
// appends a new field if the tag is absent. It fails if the tag is held by a
// group.
func (c *Collection) SetField(tag Tag, content string) error {
	e := c.Get(tag)
	if e == nil {
		return c.Append(NewField(tag, content))
	}

	if _, ok := e.(*Field); !ok {
		return fmt.Errorf("fix: tag %d is a group, not a field", tag)
	}

	e.setElementContent(content)

	return nil
}

// SetOrdering installs the ordering vector used by Elements. Tags listed in
// the vector are yielded first, in vector order; a tag repeated in the vector
// selects successive occurrences of that tag. Elements not covered by the
// vector follow in insertion order.
func (c *Collection) SetOrdering(tags []Tag) {
	c.ordering = append([]Tag(nil), tags...)
}

// Elements returns the elements in iteration order: insertion order, unless
// an ordering vector is set, in which case the ordered prefix comes first and
// the residual is appended after it.
func (c *Collection) Elements() []Element {
	if len(c.ordering) == 0 {
		return append([]Element(nil), c.elems...)
	}

	out := make([]Element, 0, len(c.elems))
	taken := make(map[int]bool, len(c.elems))
	seen := make(map[Tag]int, len(c.ordering))

	for _, tag := range c.ordering {
		i := seen[tag]
		seen[tag] = i + 1

		positions := c.index[tag]
		if i >= len(positions) {
			continue
		}

		out = append(out, c.elems[positions[i]])
		taken[positions[i]] = true
	}

	for i, e := range c.elems {
		if !taken[i] {
			out = append(out, e)
		}
	}

	return out
}

// Each calls fn for every element in iteration order.
func (c *Collection) Each(fn func(Element)) {
	for _, e := range c.Elements() {
		fn(e)
	}
}
