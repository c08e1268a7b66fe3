// loader_test.go
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
	"bytes"
	"errors"
	"strings"
	"testing"
)

const nativeXML = `<?xml version="1.0" encoding="UTF-8"?>
<fix type="FIX" major="4" minor="4">
  <header>
    <field name="BeginString" required="Y"/>
    <field name="BodyLength" required="Y"/>
    <field name="MsgType" required="Y"/>
  </header>
  <trailer>
    <field name="CheckSum" required="Y"/>
  </trailer>
  <fields>
    <field tag="8" name="BeginString" type="STRING"/>
    <field tag="9" name="BodyLength" type="LENGTH"/>
    <field tag="10" name="CheckSum" type="STRING"/>
    <field tag="11" name="ClOrdID" type="STRING"/>
    <field tag="35" name="MsgType" type="STRING" Enumeration="MsgTypes"/>
    <field tag="40" name="OrdType" type="CHAR"/>
    <field tag="54" name="Side" type="CHAR"/>
    <field tag="55" name="Symbol" type="STRING"/>
    <field tag="95" name="RawDataLength" type="LENGTH"/>
    <field tag="96" name="RawData" type="DATA" LengthField="RawDataLength"/>
    <field tag="447" name="PartyIDSource" type="CHAR"/>
    <field tag="448" name="PartyID" type="STRING"/>
    <field tag="453" name="NoPartyIDs" type="NUMINGROUP"/>
  </fields>
  <datatypes>
    <datatype name="STRING"/>
    <datatype name="LENGTH" basename="INT"/>
  </datatypes>
  <blocks>
    <block name="Instrument" type="Component">
      <field name="Symbol" required="Y"/>
    </block>
    <block name="Parties" type="Repeating" field="NoPartyIDs">
      <field name="PartyID" required="Y"/>
      <field name="PartyIDSource"/>
    </block>
  </blocks>
  <messages>
    <message name="NewOrderSingle" msgType="D" msgCat="app">
      <field name="ClOrdID" required="Y"/>
      <block name="Instrument" required="Y"/>
      <block name="Parties"/>
      <field name="Side" required="Y"/>
    </message>
  </messages>
  <enums>
    <enumeration name="MsgTypes">
      <enumerator value="D" description="NewOrderSingle"/>
      <enumerator value="A" description="Logon"/>
    </enumeration>
  </enums>
</fix>`

func TestLoadNativeDictionary(t *testing.T) {
	d, err := Load(strings.NewReader(nativeXML))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if d.Properties[PropType] != "FIX" || d.Properties[PropMajor] != "4" || d.Properties[PropMinor] != "4" {
		t.Errorf("properties = %v", d.Properties)
	}

	if f := d.FieldByName("RawData"); f == nil || !f.LengthCoded() || f.LengthField != "RawDataLength" {
		t.Errorf("RawData definition wrong: %+v", f)
	}

	if f := d.FieldByTag(35); f == nil || f.Enumeration != "MsgTypes" {
		t.Errorf("MsgType definition wrong: %+v", f)
	}

	b := d.Block("Parties")
	if b == nil || b.Kind != BlockRepeating || b.StartField != "NoPartyIDs" {
		t.Fatalf("Parties block wrong: %+v", b)
	}

	m := d.MessageByType("D")
	if m == nil || m.Name != "NewOrderSingle" || len(m.Elements) != 4 {
		t.Fatalf("message D wrong: %+v", m)
	}

	if e := d.Enumeration("MsgTypes"); e == nil || len(e.Enumerators) != 2 {
		t.Errorf("MsgTypes enumeration wrong: %+v", e)
	}
}

func TestLoadResolvesMessageAgainstBlocks(t *testing.T) {
	d, err := Load(strings.NewReader(nativeXML))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	resolved, err := d.Resolve(d.MessageByType("D").Elements)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	// ClOrdID, inlined Symbol, Parties group, Side.
	if len(resolved) != 4 {
		t.Fatalf("resolved %d elements, want 4", len(resolved))
	}

	g, ok := resolved[2].(*ResolvedGroup)
	if !ok || g.Tag != 453 {
		t.Errorf("Parties did not resolve to group 453: %T", resolved[2])
	}
}

func TestLoadRejectsDanglingReference(t *testing.T) {
	broken := strings.Replace(nativeXML, `<field name="ClOrdID" required="Y"/>`,
		`<field name="Ghost" required="Y"/>`, 1)

	_, err := Load(strings.NewReader(broken))

	var unresolved UnresolvedReferenceError
	if !errors.As(err, &unresolved) {
		t.Fatalf("err = %v, want UnresolvedReferenceError", err)
	}
}

func TestLoadRejectsRepeatingBlockWithoutStartField(t *testing.T) {
	broken := strings.Replace(nativeXML, `type="Repeating" field="NoPartyIDs"`,
		`type="Repeating"`, 1)

	_, err := Load(strings.NewReader(broken))

	var bad MalformedDictionaryError
	if !errors.As(err, &bad) {
		t.Fatalf("err = %v, want MalformedDictionaryError", err)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	d, err := Load(strings.NewReader(nativeXML))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	var out bytes.Buffer
	if err := d.Export(&out); err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	again, err := Load(bytes.NewReader(out.Bytes()))
	if err != nil {
		t.Fatalf("re-Load failed: %v\n%s", err, out.String())
	}

	if len(again.Fields()) != len(d.Fields()) {
		t.Errorf("field count changed: %d -> %d", len(d.Fields()), len(again.Fields()))
	}
	if len(again.Messages()) != len(d.Messages()) {
		t.Errorf("message count changed")
	}

	b := again.Block("Parties")
	if b == nil || b.Kind != BlockRepeating || b.StartField != "NoPartyIDs" {
		t.Errorf("Parties block lost on round trip: %+v", b)
	}

	if f := again.FieldByName("RawData"); f == nil || f.LengthField != "RawDataLength" {
		t.Errorf("length coding lost on round trip: %+v", f)
	}
}

const quickfixXML = `<fix type="FIX" major="4" minor="2">
  <header>
    <field name="BeginString" required="Y"/>
    <field name="BodyLength" required="Y"/>
    <field name="MsgType" required="Y"/>
  </header>
  <trailer>
    <field name="CheckSum" required="Y"/>
  </trailer>
  <messages>
    <message name="NewOrderSingle" msgtype="D" msgcat="app">
      <field name="ClOrdID" required="Y"/>
      <component name="Instrument" required="Y"/>
      <group name="NoAllocs" required="N">
        <field name="AllocAccount" required="Y"/>
      </group>
    </message>
  </messages>
  <components>
    <component name="Instrument">
      <field name="Symbol" required="Y"/>
    </component>
  </components>
  <fields>
    <field number="8" name="BeginString" type="STRING"/>
    <field number="9" name="BodyLength" type="LENGTH"/>
    <field number="10" name="CheckSum" type="STRING"/>
    <field number="11" name="ClOrdID" type="STRING"/>
    <field number="35" name="MsgType" type="STRING"/>
    <field number="55" name="Symbol" type="STRING"/>
    <field number="78" name="NoAllocs" type="NUMINGROUP"/>
    <field number="79" name="AllocAccount" type="STRING"/>
    <field number="89" name="Signature" type="DATA"/>
    <field number="93" name="SignatureLength" type="LENGTH"/>
    <field number="54" name="Side" type="CHAR">
      <value enum="1" description="BUY"/>
      <value enum="2" description="SELL"/>
    </field>
  </fields>
</fix>`

func TestLoadQuickFIXDictionary(t *testing.T) {
	d, err := LoadQuickFIX(strings.NewReader(quickfixXML))
	if err != nil {
		t.Fatalf("LoadQuickFIX failed: %v", err)
	}

	// Inline values become an enumeration named after the field.
	side := d.FieldByName("Side")
	if side == nil || side.Enumeration != "Side" {
		t.Fatalf("Side field wrong: %+v", side)
	}
	if e := d.Enumeration("Side"); e == nil || len(e.Enumerators) != 2 {
		t.Errorf("Side enumeration wrong: %+v", e)
	}

	// Components arrive as Component blocks.
	if b := d.Block("Instrument"); b == nil || b.Kind != BlockComponent {
		t.Errorf("Instrument block wrong: %+v", b)
	}

	// Inline groups resolve against the count field name.
	resolved, err := d.Resolve(d.MessageByType("D").Elements)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	var group *ResolvedGroup
	for _, r := range resolved {
		if g, ok := r.(*ResolvedGroup); ok {
			group = g
		}
	}
	if group == nil || group.Tag != 78 || group.Delimiter() != 79 {
		t.Fatalf("NoAllocs group wrong: %+v", group)
	}
}

func TestLoadQuickFIXPairsDataFieldsByName(t *testing.T) {
	d, err := LoadQuickFIX(strings.NewReader(quickfixXML))
	if err != nil {
		t.Fatalf("LoadQuickFIX failed: %v", err)
	}

	sig := d.FieldByName("Signature")
	if sig == nil || sig.LengthField != "SignatureLength" {
		t.Errorf("Signature length pairing wrong: %+v", sig)
	}
}
