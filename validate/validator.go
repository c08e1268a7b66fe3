// validator.go
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

// Package validate checks parsed messages against a dictionary: required
// fields, enumerated values, type shapes, group counts and the computed
// trailer fields. Findings are reported as strings; validation never rejects
// a message on its own.
package validate

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/stephenlclarke/versafix/dictionary"
	"github.com/stephenlclarke/versafix/fix"
)

// Message validates a parsed message against the dictionary that describes
// its type. The returned slice is empty for a clean message.
func Message(m *fix.Message, d *dictionary.Dictionary) []string {
	var findings []string

	msgType := m.MsgType()
	if msgType == "" {
		return []string{"Missing required tag 35 (MsgType)"}
	}

	def := d.MessageByType(msgType)
	if def == nil {
		return []string{fmt.Sprintf("Unknown MsgType: %s", msgType)}
	}

	resolved, err := d.Resolve(def.Elements)
	if err != nil {
		return []string{fmt.Sprintf("Dictionary fault for MsgType %s: %v", msgType, err)}
	}

	findings = append(findings, requiredFindings(resolved, m.Body)...)
	findings = append(findings, collectionFindings(m.Header, d)...)
	findings = append(findings, collectionFindings(m.Body, d)...)
	findings = append(findings, checksumFindings(m)...)
	findings = append(findings, bodyLengthFindings(m)...)

	return findings
}

// requiredFindings reports required elements missing from a collection, and
// recurses into group instances.
func requiredFindings(resolved []dictionary.Resolved, c *fix.Collection) []string {
	var findings []string

	for _, r := range resolved {
		switch def := r.(type) {
		case *dictionary.ResolvedField:
			if def.Required && c.Get(def.Tag) == nil {
				findings = append(findings, fmt.Sprintf("Missing required tag %d (%s)", def.Tag, def.Name))
			}

		case *dictionary.ResolvedGroup:
			e := c.Get(def.Tag)
			if e == nil {
				if def.Required {
					findings = append(findings, fmt.Sprintf("Missing required group %d (%s)", def.Tag, def.Name))
				}
				continue
			}

			grp, ok := e.(*fix.Group)
			if !ok {
				findings = append(findings, fmt.Sprintf("Tag %d (%s) is not a group", def.Tag, def.Name))
				continue
			}

			if n, err := strconv.Atoi(grp.Content); err != nil || n != len(grp.Instances) {
				findings = append(findings, fmt.Sprintf("Group %d (%s) advertises %q instances but carries %d",
					def.Tag, def.Name, grp.Content, len(grp.Instances)))
			}

			for _, instance := range grp.Instances {
				findings = append(findings, requiredFindings(def.Elements, instance)...)
			}
		}
	}

	return findings
}

// collectionFindings checks enum membership and type shape for every scalar
// in a collection, recursing into groups.
func collectionFindings(c *fix.Collection, d *dictionary.Dictionary) []string {
	var findings []string

	c.Each(func(e fix.Element) {
		if g, ok := e.(*fix.Group); ok {
			for _, instance := range g.Instances {
				findings = append(findings, collectionFindings(instance, d)...)
			}
			return
		}

		def := d.FieldByTag(e.ElementTag())
		if def == nil {
			return // user-defined field; nothing to check
		}

		val := e.ElementContent()

		if def.Enumeration != "" {
			if enum := d.Enumeration(def.Enumeration); enum != nil && !enumAdmits(enum, val) {
				findings = append(findings, fmt.Sprintf("Invalid enum value '%s' for tag %d", val, def.Tag))
			}
		}

		if def.Type != "" && !IsValidType(val, def.Type) {
			findings = append(findings, fmt.Sprintf("Invalid type for tag %d: expected %s, got '%s'", def.Tag, def.Type, val))
		}
	})

	return findings
}

func enumAdmits(enum *dictionary.Enumeration, val string) bool {
	for _, e := range enum.Enumerators {
		if e.Value == val {
			return true
		}
	}
	return false
}

func checksumFindings(m *fix.Message) []string {
	content, ok := m.Trailer.Content(fix.TagCheckSum)
	if !ok {
		return []string{"Missing required checksum tag 10"}
	}

	raw := fix.Serialize(m)
	cutoff := strings.Index(string(raw), "\x0110=")
	if cutoff == -1 {
		return []string{"Checksum field not at the message tail"}
	}

	expected := fmt.Sprintf("%03d", fix.CheckSum(raw[:cutoff+1]))
	if content != expected {
		return []string{fmt.Sprintf("Checksum mismatch: got %s, expected %s", content, expected)}
	}

	return nil
}

func bodyLengthFindings(m *fix.Message) []string {
	content, ok := m.Header.Content(fix.TagBodyLength)
	if !ok {
		return []string{"Missing required tag 9 (BodyLength)"}
	}

	expected, err := fix.BodyLength(m)
	if err != nil {
		return []string{err.Error()}
	}

	if content != strconv.Itoa(expected) {
		return []string{fmt.Sprintf("BodyLength mismatch: got %s, expected %d", content, expected)}
	}

	return nil
}

var monthYearPattern = regexp.MustCompile(`^\d{6}([0-9]{2}|(-[0-9]{1,2})|(-?w[1-5]))?$`)

// IsValidType reports whether a value fits the shape of a FIX data type.
// Unknown or custom types are assumed valid.
func IsValidType(val string, typ string) bool {
	switch strings.ToUpper(typ) {
	case "INT", "LENGTH", "NUMINGROUP", "SEQNUM", "DAYOFMONTH":
		_, err := strconv.Atoi(val)
		return err == nil
	case "FLOAT", "QTY", "PRICE", "PRICEOFFSET", "AMT", "PERCENTAGE":
		_, err := strconv.ParseFloat(val, 64)
		return err == nil
	case "BOOLEAN":
		return val == "Y" || val == "N"
	case "CHAR":
		return len(val) == 1
	case "STRING", "DATA", "CURRENCY", "EXCHANGE", "COUNTRY", "MULTIPLEVALUESTRING", "MULTIPLESTRINGVALUE":
		return true
	case "UTCTIMESTAMP":
		for _, layout := range []string{"20060102-15:04:05", "20060102-15:04:05.000"} {
			if _, err := time.Parse(layout, val); err == nil {
				return true
			}
		}
		return false
	case "UTCDATEONLY":
		_, err := time.Parse("20060102", val)
		return err == nil
	case "UTCTIMEONLY":
		for _, layout := range []string{"15:04", "15:04:05", "15:04:05.000"} {
			if _, err := time.Parse(layout, val); err == nil {
				return true
			}
		}
		return false
	case "MONTHYEAR":
		return monthYearPattern.MatchString(val)
	default:
		return true // assume valid for unknown/custom types
	}
}
