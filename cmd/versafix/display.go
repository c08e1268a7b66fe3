// display.go
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
package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/stephenlclarke/versafix/dictionary"
	"github.com/stephenlclarke/versafix/fix"
)

var (
	ColourReset = "\033[0m"
	ColourTag   = "\033[38;5;81m"
	ColourName  = "\033[38;5;151m"
	ColourValue = "\033[38;5;228m"
	ColourEnum  = "\033[38;5;214m"
	ColourFile  = "\033[95m"
	ColourError = "\033[31m"
	ColourMsg   = "\033[97m"
)

// DisableColours blanks every colour code for non-terminal output.
func DisableColours() {
	ColourReset = ""
	ColourTag = ""
	ColourName = ""
	ColourValue = ""
	ColourEnum = ""
	ColourFile = ""
	ColourError = ""
	ColourMsg = ""
}

// prettify renders wire bytes with visible separators.
func prettify(wire string) string {
	return strings.ReplaceAll(wire, "\x01", "|")
}

// printMessage renders one decoded message: a headline with the message
// name, then each section's fields with names and enum descriptions.
func printMessage(m *fix.Message, d *dictionary.Dictionary) {
	name := m.MsgType()
	if def := d.MessageByType(name); def != nil {
		name = def.Name
	}

	fmt.Printf("%s%s (35=%s)%s\n", ColourMsg, name, m.MsgType(), ColourReset)

	printCollection(m.Header, d, 2)
	printCollection(m.Body, d, 2)
	printCollection(m.Trailer, d, 2)
}

func printCollection(c *fix.Collection, d *dictionary.Dictionary, indent int) {
	c.Each(func(e fix.Element) {
		printElement(e, d, indent)
	})
}

func printElement(e fix.Element, d *dictionary.Dictionary, indent int) {
	tag := e.ElementTag()
	printIndent(indent)

	fmt.Printf("%s%d%s %s%s%s = %s%s%s",
		ColourTag, tag, ColourReset,
		ColourName, fieldName(d, tag), ColourReset,
		ColourValue, prettify(e.ElementContent()), ColourReset)

	if desc := enumDescription(d, tag, e.ElementContent()); desc != "" {
		fmt.Printf(" %s(%s)%s", ColourEnum, desc, ColourReset)
	}

	fmt.Println()

	if g, ok := e.(*fix.Group); ok {
		for i, instance := range g.Instances {
			printIndent(indent + 2)
			fmt.Printf("%sinstance %d%s\n", ColourName, i+1, ColourReset)

			instance.Each(func(ie fix.Element) {
				printElement(ie, d, indent+4)
			})
		}
	}
}

func printIndent(indent int) {
	fmt.Print(strings.Repeat(" ", indent))
}

func fieldName(d *dictionary.Dictionary, tag fix.Tag) string {
	if f := d.FieldByTag(tag); f != nil {
		return f.Name
	}

	return strconv.Itoa(int(tag))
}

func enumDescription(d *dictionary.Dictionary, tag fix.Tag, val string) string {
	f := d.FieldByTag(tag)
	if f == nil || f.Enumeration == "" {
		return ""
	}

	enum := d.Enumeration(f.Enumeration)
	if enum == nil {
		return ""
	}

	for _, e := range enum.Enumerators {
		if e.Value == val {
			return e.Description
		}
	}

	return ""
}

// printDictionaryInfo summarizes a loaded dictionary.
func printDictionaryInfo(d *dictionary.Dictionary) {
	fmt.Printf("Dictionary:   %s\n", d.BeginString())
	fmt.Printf("  Messages:   %d\n", len(d.Messages()))
	fmt.Printf("  Fields:     %d\n", len(d.Fields()))
	fmt.Printf("  Blocks:     %d\n", len(d.Blocks()))
	fmt.Printf("  Enums:      %d\n", len(d.Enumerations()))
	fmt.Printf("  Data types: %d\n", len(d.DataTypes))
}
