// dictionary.go
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
package dictionary

import (
	"maps"

	"github.com/stephenlclarke/versafix/fix"
)

// Field defines one named FIX field. LengthField names the companion field
// whose integer content gives the byte length of this field's value; fields
// with a LengthField are read as raw data rather than SOH-terminated text.
type Field struct {
	Tag         fix.Tag
	Name        string
	Type        string
	Enumeration string
	LengthField string
}

// LengthCoded reports whether the field's value is length-prefixed.
func (f *Field) LengthCoded() bool { return f.LengthField != "" }

// DataType is an informational base-type record.
type DataType struct {
	Name     string
	BaseName string
}

// Enumerator is one admissible value of an enumeration.
type Enumerator struct {
	Value       string
	Description string
}

// Enumeration is a named set of admissible values.
type Enumeration struct {
	Name        string
	Enumerators []Enumerator
}

// BlockKind distinguishes the two component block flavours.
type BlockKind int

const (
	// BlockComponent inlines its contents where it is referenced.
	BlockComponent BlockKind = iota
	// BlockRepeating stands for a repeating group counted by the block's
	// start field.
	BlockRepeating
)

// Block is a named, reusable element list.
type Block struct {
	Name       string
	Kind       BlockKind
	StartField string // count field name; Repeating blocks only
	Category   string
	Elements   []Reference
}

// MessageDef defines one message type as an element reference list.
type MessageDef struct {
	MsgType  string
	Name     string
	Category string
	Elements []Reference
}

// Dictionary is a complete FIX schema: field, type, enumeration, block and
// message definitions plus the header and trailer shared by every message.
//
// A dictionary is mutable while a loader assembles it and must be treated as
// read-only once handed to a parser. Callers wanting to change a published
// dictionary clone it, edit the clone, and publish that instead.
type Dictionary struct {
	Properties map[string]string

	fieldsByName map[string]*Field
	fieldsByTag  map[fix.Tag]*Field
	fieldOrder   []string

	DataTypes []DataType
	enums     map[string]*Enumeration
	enumOrder []string

	blocks     map[string]*Block
	blockOrder []string

	messages     map[string]*MessageDef
	messageOrder []string

	Header  []Reference
	Trailer []Reference
}

// New returns an empty dictionary.
func New() *Dictionary {
	return &Dictionary{
		Properties:   make(map[string]string),
		fieldsByName: make(map[string]*Field),
		fieldsByTag:  make(map[fix.Tag]*Field),
		enums:        make(map[string]*Enumeration),
		blocks:       make(map[string]*Block),
		messages:     make(map[string]*MessageDef),
	}
}

// AddField registers a field definition. Both the name and the tag must be
// unique.
func (d *Dictionary) AddField(f Field) error {
	if f.Name == "" {
		return malformed("field with tag %d has no name", f.Tag)
	}
	if _, dup := d.fieldsByName[f.Name]; dup {
		return malformed("duplicate field name %q", f.Name)
	}
	if _, dup := d.fieldsByTag[f.Tag]; dup {
		return malformed("duplicate field tag %d", f.Tag)
	}

	cp := f
	d.fieldsByName[f.Name] = &cp
	d.fieldsByTag[f.Tag] = &cp
	d.fieldOrder = append(d.fieldOrder, f.Name)

	return nil
}

// AddEnumeration registers an enumeration definition.
func (d *Dictionary) AddEnumeration(e Enumeration) error {
	if e.Name == "" {
		return malformed("enumeration has no name")
	}
	if _, dup := d.enums[e.Name]; dup {
		return malformed("duplicate enumeration %q", e.Name)
	}

	cp := e
	cp.Enumerators = append([]Enumerator(nil), e.Enumerators...)
	d.enums[e.Name] = &cp
	d.enumOrder = append(d.enumOrder, e.Name)

	return nil
}

// AddBlock registers a component block definition. A repeating block must
// name its start field.
func (d *Dictionary) AddBlock(b Block) error {
	if b.Name == "" {
		return malformed("block has no name")
	}
	if _, dup := d.blocks[b.Name]; dup {
		return malformed("duplicate block %q", b.Name)
	}
	if b.Kind == BlockRepeating && b.StartField == "" {
		return malformed("repeating block %q has no start field", b.Name)
	}

	cp := b
	cp.Elements = append([]Reference(nil), b.Elements...)
	d.blocks[b.Name] = &cp
	d.blockOrder = append(d.blockOrder, b.Name)

	return nil
}

// AddMessage registers a message definition keyed by its MsgType.
func (d *Dictionary) AddMessage(m MessageDef) error {
	if m.MsgType == "" {
		return malformed("message %q has no MsgType", m.Name)
	}
	if _, dup := d.messages[m.MsgType]; dup {
		return malformed("duplicate message type %q", m.MsgType)
	}

	cp := m
	cp.Elements = append([]Reference(nil), m.Elements...)
	d.messages[m.MsgType] = &cp
	d.messageOrder = append(d.messageOrder, m.MsgType)

	return nil
}

// FieldByName returns the field definition with the given name, or nil.
func (d *Dictionary) FieldByName(name string) *Field { return d.fieldsByName[name] }

// FieldByTag returns the field definition with the given tag, or nil.
func (d *Dictionary) FieldByTag(tag fix.Tag) *Field { return d.fieldsByTag[tag] }

// Block returns the block definition with the given name, or nil.
func (d *Dictionary) Block(name string) *Block { return d.blocks[name] }

// Enumeration returns the enumeration with the given name, or nil.
func (d *Dictionary) Enumeration(name string) *Enumeration { return d.enums[name] }

// MessageByType returns the message definition for a MsgType, or nil.
func (d *Dictionary) MessageByType(msgType string) *MessageDef { return d.messages[msgType] }

// Fields returns the field definitions in registration order.
func (d *Dictionary) Fields() []*Field {
	out := make([]*Field, 0, len(d.fieldOrder))
	for _, name := range d.fieldOrder {
		out = append(out, d.fieldsByName[name])
	}
	return out
}

// Enumerations returns the enumerations in registration order.
func (d *Dictionary) Enumerations() []*Enumeration {
	out := make([]*Enumeration, 0, len(d.enumOrder))
	for _, name := range d.enumOrder {
		out = append(out, d.enums[name])
	}
	return out
}

// Blocks returns the block definitions in registration order.
func (d *Dictionary) Blocks() []*Block {
	out := make([]*Block, 0, len(d.blockOrder))
	for _, name := range d.blockOrder {
		out = append(out, d.blocks[name])
	}
	return out
}

// Messages returns the message definitions in registration order.
func (d *Dictionary) Messages() []*MessageDef {
	out := make([]*MessageDef, 0, len(d.messageOrder))
	for _, msgType := range d.messageOrder {
		out = append(out, d.messages[msgType])
	}
	return out
}

// Clone returns a deep copy suitable for editing while the original remains
// published.
func (d *Dictionary) Clone() *Dictionary {
	out := New()
	maps.Copy(out.Properties, d.Properties)

	for _, f := range d.Fields() {
		out.AddField(*f)
	}
	for _, e := range d.Enumerations() {
		out.AddEnumeration(*e)
	}
	for _, b := range d.Blocks() {
		out.AddBlock(*b)
	}
	for _, m := range d.Messages() {
		out.AddMessage(*m)
	}

	out.DataTypes = append([]DataType(nil), d.DataTypes...)
	out.Header = append([]Reference(nil), d.Header...)
	out.Trailer = append([]Reference(nil), d.Trailer...)

	return out
}
