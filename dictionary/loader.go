// loader.go
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
	"encoding/xml"
	"fmt"
	"io"

	"golang.org/x/net/html/charset"

	"github.com/stephenlclarke/versafix/fix"
)

// Property keys filled from the document root's metadata attributes.
const (
	PropType        = "Type"
	PropMajor       = "Fix.Major"
	PropMinor       = "Fix.Minor"
	PropServicePack = "Fix.ServicePack"
)

// ---- native document shape ----

type xmlRef struct {
	XMLName  xml.Name
	Name     string   `xml:"name,attr"`
	Required string   `xml:"required,attr"`
	Children []xmlRef `xml:",any"`
}

type xmlRefList struct {
	Children []xmlRef `xml:",any"`
}

type xmlFieldDef struct {
	Tag         int    `xml:"tag,attr"`
	Name        string `xml:"name,attr"`
	Type        string `xml:"type,attr"`
	Enumeration string `xml:"Enumeration,attr,omitempty"`
	LengthField string `xml:"LengthField,attr,omitempty"`
}

type xmlDataType struct {
	Name     string `xml:"name,attr"`
	BaseName string `xml:"basename,attr,omitempty"`
}

type xmlBlockDef struct {
	Name       string   `xml:"name,attr"`
	Type       string   `xml:"type,attr"`
	StartField string   `xml:"field,attr,omitempty"`
	Category   string   `xml:"Category,attr,omitempty"`
	Children   []xmlRef `xml:",any"`
}

type xmlMessageDef struct {
	Name     string   `xml:"name,attr"`
	MsgType  string   `xml:"msgType,attr"`
	MsgCat   string   `xml:"msgCat,attr,omitempty"`
	Children []xmlRef `xml:",any"`
}

type xmlEnumerator struct {
	Value       string `xml:"value,attr"`
	Description string `xml:"description,attr,omitempty"`
}

type xmlEnumDef struct {
	Name        string          `xml:"name,attr"`
	Enumerators []xmlEnumerator `xml:"enumerator"`
}

type xmlNativeDoc struct {
	XMLName     xml.Name        `xml:"fix"`
	Type        string          `xml:"type,attr"`
	Major       string          `xml:"major,attr"`
	Minor       string          `xml:"minor,attr"`
	ServicePack string          `xml:"servicepack,attr,omitempty"`
	Header      xmlRefList      `xml:"header"`
	Trailer     xmlRefList      `xml:"trailer"`
	Fields      []xmlFieldDef   `xml:"fields>field"`
	DataTypes   []xmlDataType   `xml:"datatypes>datatype"`
	Blocks      []xmlBlockDef   `xml:"blocks>block"`
	Messages    []xmlMessageDef `xml:"messages>message"`
	Enums       []xmlEnumDef    `xml:"enums>enumeration"`
}

func newXMLDecoder(r io.Reader) *xml.Decoder {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charset.NewReaderLabel
	return dec
}

// Load reads a dictionary in the native XML format, validates it, and
// returns it ready for publication.
func Load(r io.Reader) (*Dictionary, error) {
	var doc xmlNativeDoc
	if err := newXMLDecoder(r).Decode(&doc); err != nil {
		return nil, malformed("decode: %v", err)
	}

	d := New()
	d.Properties[PropType] = doc.Type
	d.Properties[PropMajor] = doc.Major
	d.Properties[PropMinor] = doc.Minor
	if doc.ServicePack != "" {
		d.Properties[PropServicePack] = doc.ServicePack
	}

	for _, f := range doc.Fields {
		err := d.AddField(Field{
			Tag:         fix.Tag(f.Tag),
			Name:        f.Name,
			Type:        f.Type,
			Enumeration: f.Enumeration,
			LengthField: f.LengthField,
		})
		if err != nil {
			return nil, err
		}
	}

	for _, dt := range doc.DataTypes {
		d.DataTypes = append(d.DataTypes, DataType{Name: dt.Name, BaseName: dt.BaseName})
	}

	for _, e := range doc.Enums {
		enum := Enumeration{Name: e.Name}
		for _, v := range e.Enumerators {
			enum.Enumerators = append(enum.Enumerators, Enumerator{Value: v.Value, Description: v.Description})
		}
		if err := d.AddEnumeration(enum); err != nil {
			return nil, err
		}
	}

	for _, b := range doc.Blocks {
		kind := BlockComponent
		if b.Type == "Repeating" {
			kind = BlockRepeating
		}

		err := d.AddBlock(Block{
			Name:       b.Name,
			Kind:       kind,
			StartField: b.StartField,
			Category:   b.Category,
			Elements:   convertRefs(b.Children),
		})
		if err != nil {
			return nil, err
		}
	}

	for _, m := range doc.Messages {
		err := d.AddMessage(MessageDef{
			MsgType:  m.MsgType,
			Name:     m.Name,
			Category: m.MsgCat,
			Elements: convertRefs(m.Children),
		})
		if err != nil {
			return nil, err
		}
	}

	d.Header = convertRefs(doc.Header.Children)
	d.Trailer = convertRefs(doc.Trailer.Children)

	if err := d.Validate(); err != nil {
		return nil, err
	}

	return d, nil
}

func convertRefs(nodes []xmlRef) []Reference {
	out := make([]Reference, 0, len(nodes))

	for _, n := range nodes {
		required := n.Required == "Y"

		switch n.XMLName.Local {
		case "field":
			out = append(out, FieldRef{Name: n.Name, Required: required})
		case "group":
			out = append(out, GroupRef{Name: n.Name, Required: required, Elements: convertRefs(n.Children)})
		case "component", "block":
			out = append(out, BlockRef{Name: n.Name, Required: required})
		}
	}

	return out
}

// Validate resolves the header, the trailer and every message so structural
// faults surface at load time rather than on the first parse.
func (d *Dictionary) Validate() error {
	if _, err := d.Resolve(d.Header); err != nil {
		return fmt.Errorf("header: %w", err)
	}

	if _, err := d.Resolve(d.Trailer); err != nil {
		return fmt.Errorf("trailer: %w", err)
	}

	for _, m := range d.Messages() {
		if _, err := d.Resolve(m.Elements); err != nil {
			return fmt.Errorf("message %q: %w", m.MsgType, err)
		}
	}

	return nil
}

// ---- QuickFIX-compatible document shape ----
//
// The QuickFIX layout carries enumerators inline under each field and infers
// repeating behaviour from group nodes inside message and component bodies.

type qfValue struct {
	Enum        string `xml:"enum,attr"`
	Description string `xml:"description,attr,omitempty"`
}

type qfField struct {
	Name   string    `xml:"name,attr"`
	Number int       `xml:"number,attr"`
	Type   string    `xml:"type,attr"`
	Values []qfValue `xml:"value"`
}

type qfBody struct {
	Name     string   `xml:"name,attr"`
	Required string   `xml:"required,attr"`
	MsgType  string   `xml:"msgtype,attr"`
	MsgCat   string   `xml:"msgcat,attr"`
	Children []xmlRef `xml:",any"`
}

type xmlQuickFixDoc struct {
	XMLName     xml.Name  `xml:"fix"`
	Type        string    `xml:"type,attr"`
	Major       string    `xml:"major,attr"`
	Minor       string    `xml:"minor,attr"`
	ServicePack string    `xml:"servicepack,attr,omitempty"`
	Header      qfBody    `xml:"header"`
	Trailer     qfBody    `xml:"trailer"`
	Fields      []qfField `xml:"fields>field"`
	Components  []qfBody  `xml:"components>component"`
	Messages    []qfBody  `xml:"messages>message"`
}

// LoadQuickFIX reads a dictionary in the QuickFIX XML layout.
func LoadQuickFIX(r io.Reader) (*Dictionary, error) {
	var doc xmlQuickFixDoc
	if err := newXMLDecoder(r).Decode(&doc); err != nil {
		return nil, malformed("decode: %v", err)
	}

	d := New()
	d.Properties[PropType] = doc.Type
	d.Properties[PropMajor] = doc.Major
	d.Properties[PropMinor] = doc.Minor
	if doc.ServicePack != "" {
		d.Properties[PropServicePack] = doc.ServicePack
	}

	byName := make(map[string]qfField, len(doc.Fields))
	for _, f := range doc.Fields {
		byName[f.Name] = f
	}

	for _, f := range doc.Fields {
		def := Field{
			Tag:  fix.Tag(f.Number),
			Name: f.Name,
			Type: f.Type,
		}

		// Inline enumerators become a standalone enumeration named after
		// the field.
		if len(f.Values) > 0 {
			enum := Enumeration{Name: f.Name}
			for _, v := range f.Values {
				enum.Enumerators = append(enum.Enumerators, Enumerator{Value: v.Enum, Description: v.Description})
			}
			if err := d.AddEnumeration(enum); err != nil {
				return nil, err
			}
			def.Enumeration = f.Name
		}

		// DATA fields pair with their length field by naming convention.
		if f.Type == "DATA" {
			for _, candidate := range []string{f.Name + "Length", f.Name + "Len"} {
				if _, ok := byName[candidate]; ok {
					def.LengthField = candidate
					break
				}
			}
		}

		if err := d.AddField(def); err != nil {
			return nil, err
		}
	}

	for _, c := range doc.Components {
		err := d.AddBlock(Block{
			Name:     c.Name,
			Kind:     BlockComponent,
			Elements: convertRefs(c.Children),
		})
		if err != nil {
			return nil, err
		}
	}

	for _, m := range doc.Messages {
		err := d.AddMessage(MessageDef{
			MsgType:  m.MsgType,
			Name:     m.Name,
			Category: m.MsgCat,
			Elements: convertRefs(m.Children),
		})
		if err != nil {
			return nil, err
		}
	}

	d.Header = convertRefs(doc.Header.Children)
	d.Trailer = convertRefs(doc.Trailer.Children)

	if err := d.Validate(); err != nil {
		return nil, err
	}

	return d, nil
}

// BeginString derives the tag 8 value this dictionary describes, e.g.
// "FIX.4.4" or "FIXT.1.1".
func (d *Dictionary) BeginString() string {
	major := d.Properties[PropMajor]
	minor := d.Properties[PropMinor]
	if major == "" || minor == "" {
		return ""
	}

	prefix := d.Properties[PropType]
	if prefix == "" {
		prefix = "FIX"
	}

	return prefix + "." + major + "." + minor
}

