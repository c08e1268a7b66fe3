// exporter.go
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
	"io"
)

// Export writes the dictionary in the native XML format. Importing the
// output yields an equivalent dictionary.
func (d *Dictionary) Export(w io.Writer) error {
	doc := xmlNativeDoc{
		Type:        d.Properties[PropType],
		Major:       d.Properties[PropMajor],
		Minor:       d.Properties[PropMinor],
		ServicePack: d.Properties[PropServicePack],
		Header:      xmlRefList{Children: refsToXML(d.Header)},
		Trailer:     xmlRefList{Children: refsToXML(d.Trailer)},
	}

	for _, f := range d.Fields() {
		doc.Fields = append(doc.Fields, xmlFieldDef{
			Tag:         int(f.Tag),
			Name:        f.Name,
			Type:        f.Type,
			Enumeration: f.Enumeration,
			LengthField: f.LengthField,
		})
	}

	for _, dt := range d.DataTypes {
		doc.DataTypes = append(doc.DataTypes, xmlDataType{Name: dt.Name, BaseName: dt.BaseName})
	}

	for _, b := range d.Blocks() {
		kind := "Component"
		if b.Kind == BlockRepeating {
			kind = "Repeating"
		}

		doc.Blocks = append(doc.Blocks, xmlBlockDef{
			Name:       b.Name,
			Type:       kind,
			StartField: b.StartField,
			Category:   b.Category,
			Children:   refsToXML(b.Elements),
		})
	}

	for _, m := range d.Messages() {
		doc.Messages = append(doc.Messages, xmlMessageDef{
			Name:     m.Name,
			MsgType:  m.MsgType,
			MsgCat:   m.Category,
			Children: refsToXML(m.Elements),
		})
	}

	for _, e := range d.Enumerations() {
		def := xmlEnumDef{Name: e.Name}
		for _, v := range e.Enumerators {
			def.Enumerators = append(def.Enumerators, xmlEnumerator{Value: v.Value, Description: v.Description})
		}
		doc.Enums = append(doc.Enums, def)
	}

	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")

	if err := enc.Encode(doc); err != nil {
		return err
	}

	return enc.Close()
}

func refsToXML(refs []Reference) []xmlRef {
	out := make([]xmlRef, 0, len(refs))

	for _, ref := range refs {
		node := xmlRef{Name: ref.RefName(), Required: requiredAttr(ref.RefRequired())}

		switch r := ref.(type) {
		case FieldRef:
			node.XMLName = xml.Name{Local: "field"}
		case GroupRef:
			node.XMLName = xml.Name{Local: "group"}
			node.Children = refsToXML(r.Elements)
		case BlockRef:
			node.XMLName = xml.Name{Local: "block"}
		}

		out = append(out, node)
	}

	return out
}

func requiredAttr(required bool) string {
	if required {
		return "Y"
	}
	return "N"
}
