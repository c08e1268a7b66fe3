// obfuscator.go
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
	"fmt"
	"io"
	"maps"
	"strconv"
	"strings"
	"sync"
)

const soh = "\x01"

// Obfuscator replaces values of sensitive FIX tags with stable aliases.
// It is safe for concurrent use.
type Obfuscator struct {
	enabled  bool           // global enable/disable flag
	tags     map[Tag]string // tag -> name of the sensitive field
	mu       sync.Mutex     // protects aliasMap and counter
	aliasMap map[string]string
	counter  map[Tag]int // per-tag, for zero-padded suffixes
}

// NewObfuscator constructs an Obfuscator for the given sensitive tags.
// If enabled is false, all calls return their input unchanged.
func NewObfuscator(tags map[Tag]string, enabled bool) *Obfuscator {
	cp := make(map[Tag]string, len(tags))
	maps.Copy(cp, tags)

	return &Obfuscator{
		enabled:  enabled,
		tags:     cp,
		aliasMap: make(map[string]string),
		counter:  make(map[Tag]int),
	}
}

// alias returns the stable alias for a tag=value pair, minting one on first
// use and logging the event to stderr (if non-nil).
func (o *Obfuscator) alias(tag Tag, val string, stderr io.Writer) string {
	key := strconv.Itoa(int(tag)) + "=" + val

	o.mu.Lock()
	defer o.mu.Unlock()

	if a, ok := o.aliasMap[key]; ok {
		return a
	}

	o.counter[tag]++
	a := fmt.Sprintf("%s%04d", o.tags[tag], o.counter[tag])
	o.aliasMap[key] = a

	if stderr != nil {
		fmt.Fprintf(stderr, "first use: tag %d (%s) value [%s] → [%s]\n",
			tag, o.tags[tag], val, a)
	}

	return a
}

// ObfuscateLine rewrites a single SOH-delimited FIX line, replacing values
// for sensitive tags. On first occurrence of a sensitive tag=value pair it
// logs to stderr (if provided).
func (o *Obfuscator) ObfuscateLine(line string, stderr io.Writer) string {
	if !o.enabled {
		return line
	}

	fields := strings.Split(line, soh)

	for i, f := range fields {
		tagStr, val, ok := splitOnce(f)
		if !ok {
			continue
		}

		tagNum, err := strconv.Atoi(tagStr)
		if err != nil {
			continue
		}

		if _, sensitive := o.tags[Tag(tagNum)]; !sensitive {
			continue
		}

		fields[i] = tagStr + "=" + o.alias(Tag(tagNum), val, stderr)
	}

	return strings.Join(fields, soh)
}

// ObfuscateMessage rewrites sensitive values in place across the header,
// body and trailer of a parsed message, including group instances.
func (o *Obfuscator) ObfuscateMessage(m *Message, stderr io.Writer) {
	if !o.enabled {
		return
	}

	for _, c := range []*Collection{m.Header, m.Body, m.Trailer} {
		o.obfuscateCollection(c, stderr)
	}
}

func (o *Obfuscator) obfuscateCollection(c *Collection, stderr io.Writer) {
	c.Each(func(e Element) {
		tag := e.ElementTag()
		if _, sensitive := o.tags[tag]; sensitive {
			e.setElementContent(o.alias(tag, e.ElementContent(), stderr))
		}

		if g, ok := e.(*Group); ok {
			for _, instance := range g.Instances {
				o.obfuscateCollection(instance, stderr)
			}
		}
	})
}

// ---- small helpers (keep complexity low) ----

func splitOnce(s string) (left, right string, ok bool) {
	// Accept empty left or right and split on first occurrence of '=' or SOH.
	// This allows handling fragments that may still include SOH.
	idx := strings.IndexAny(s, "=\x01")
	if idx < 0 {
		return "", "", false
	}
	return s[:idx], s[idx+1:], true
}
