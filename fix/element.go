// element.go
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

// Element is a single tag-bearing wire element: either a scalar Field or a
// repeating Group. Content is kept verbatim as received, so a message can be
// re-emitted byte for byte.
type Element interface {
	ElementTag() Tag
	ElementContent() string
	setElementContent(string)

	// Accept dispatches on the concrete element kind.
	Accept(v ElementVisitor)
}

// ElementVisitor visits the two element kinds.
type ElementVisitor interface {
	VisitField(*Field)
	VisitGroup(*Group)
}

// Field is a scalar tag=value element.
type Field struct {
	Tag     Tag
	Content string
}

// NewField returns a scalar element for the given tag and content.
func NewField(tag Tag, content string) *Field {
	return &Field{Tag: tag, Content: content}
}

func (f *Field) ElementTag() Tag            { return f.Tag }
func (f *Field) ElementContent() string     { return f.Content }
func (f *Field) setElementContent(s string) { f.Content = s }
func (f *Field) Accept(v ElementVisitor)    { v.VisitField(f) }

// Group is a repeating group: the count field as received on the wire plus
// the ordered list of instances. Content is the literal count string, which
// need not be a well-formed integer; instances may be shorter than the
// advertised count.
type Group struct {
	Tag       Tag
	Content   string
	Instances []*Collection
}

// NewGroup returns a group element with no instances.
func NewGroup(tag Tag, content string) *Group {
	return &Group{Tag: tag, Content: content}
}

func (g *Group) ElementTag() Tag            { return g.Tag }
func (g *Group) ElementContent() string     { return g.Content }
func (g *Group) setElementContent(s string) { g.Content = s }
func (g *Group) Accept(v ElementVisitor)    { v.VisitGroup(g) }

// AddInstance appends an instance to the group and returns it.
func (g *Group) AddInstance(c *Collection) *Collection {
	g.Instances = append(g.Instances, c)
	return c
}
