// parser.go
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
package decoder

import (
	"strconv"

	"github.com/stephenlclarke/versafix/dictionary"
	"github.com/stephenlclarke/versafix/fix"
)

// statusNone marks "no terminal status yet" inside the phase helpers.
const statusNone Status = -1

// Parser is a streaming, dictionary-driven FIX decoder. It extracts at most
// one complete message per Parse call and reports how many leading bytes of
// the buffer belong to it; the caller owns the buffer and discards consumed
// bytes itself.
//
// A Parser is safe for concurrent use across independent buffers: its only
// shared state is the memoised resolved-element cache.
type Parser struct {
	registry *dictionary.Registry
	cache    *resolvedCache
}

// NewParser returns a parser over the given version registry.
func NewParser(registry *dictionary.Registry) *Parser {
	return &Parser{registry: registry, cache: newResolvedCache()}
}

// Registry returns the registry the parser consults.
func (p *Parser) Registry() *dictionary.Registry { return p.registry }

// parseContext is the per-call state of one Parse invocation.
type parseContext struct {
	p    *Parser
	s    *scan
	opts Options

	msg        *fix.Message
	headerVals map[fix.Tag]string

	sxName     string
	sxDict     *dictionary.Dictionary
	headerSet  elementSet
	trailerSet elementSet
}

// Parse consumes a prefix of buf holding one complete FIX message. The
// result's Consumed is non-zero only for StatusComplete; on every other
// status the buffer is left for the caller to retry, reframe or discard.
func (p *Parser) Parse(buf []byte, opts Options) Result {
	c := &parseContext{
		p:          p,
		s:          &scan{buf: buf},
		opts:       opts,
		msg:        fix.NewMessage(),
		headerVals: make(map[fix.Tag]string),
	}

	if opts.Session != "" {
		c.adoptSession(opts.Session)
	}

	if st := c.header(); st != statusNone {
		return Result{Status: st}
	}

	bodySet, st := c.dispatch()
	if st != statusNone {
		return Result{Status: st}
	}

	if st := c.body(bodySet); st != statusNone {
		return Result{Status: st}
	}

	return c.trailer()
}

// adoptSession installs the named dictionary as the session layer, caching
// its resolved header and trailer sets. A name that does not resolve leaves
// the context unchanged.
func (c *parseContext) adoptSession(name string) bool {
	d := c.p.registry.Dictionary(name)
	if d == nil {
		return false
	}

	headerSet, err := c.p.cache.get(cacheKey{dict: name, scope: "header"}, func() ([]dictionary.Resolved, error) {
		return d.Resolve(d.Header)
	})
	if err != nil {
		return false
	}

	trailerSet, err := c.p.cache.get(cacheKey{dict: name, scope: "trailer"}, func() ([]dictionary.Resolved, error) {
		return d.Resolve(d.Trailer)
	})
	if err != nil {
		return false
	}

	c.sxName, c.sxDict = name, d
	c.headerSet, c.trailerSet = headerSet, trailerSet

	return true
}

// identifySession consults the matcher with the partial header, session
// layer first, then combined.
func (c *parseContext) identifySession() {
	if name, ok := c.p.registry.GetVersion(c.headerVals, dictionary.LayerSession); ok {
		if c.adoptVersion(name) {
			return
		}
	}

	if name, ok := c.p.registry.GetVersion(c.headerVals, dictionary.LayerCombined); ok {
		c.adoptVersion(name)
	}
}

func (c *parseContext) adoptVersion(name string) bool {
	v := c.p.registry.Version(name)
	if v == nil || len(v.Dictionaries) == 0 {
		return false
	}

	return c.adoptSession(v.Dictionaries[0])
}

// header reads fields into the message header until a tag outside the
// resolved header set appears. Unknown tags end the header; they never
// become header UDFs.
func (c *parseContext) header() Status {
	for {
		save := c.s.pos

		tag, st := c.s.readTag()
		if st != scanOK {
			return mapScan(st)
		}

		// A second BeginString means the previous message never finished.
		if tag == fix.TagBeginString && c.msg.Header.Get(tag) != nil {
			return StatusIncomplete
		}

		if c.headerSet != nil {
			if _, member := c.headerSet[tag]; !member {
				c.s.pos = save
				return statusNone
			}
		}

		var member dictionary.Resolved
		if c.headerSet != nil {
			member = c.headerSet[tag]
		}

		if st := c.appendElement(tag, member, c.msg.Header); st != statusNone {
			return st
		}

		if e := c.msg.Header.Get(tag); e != nil {
			if _, isField := e.(*fix.Field); isField {
				c.headerVals[tag] = e.ElementContent()
			}
		}

		if c.sxDict == nil {
			c.identifySession()

			// MsgType is the last field that can influence matching before
			// the body starts; past it an unidentified session layer is
			// terminal.
			if c.sxDict == nil && tag == fix.TagMsgType {
				return StatusUnknownSessionProtocol
			}
		}
	}
}

// dispatch picks the dictionary whose resolved body elements drive the body
// phase: the session layer if it defines the message type, otherwise the
// application layer.
func (c *parseContext) dispatch() (elementSet, Status) {
	msgType, ok := c.headerVals[fix.TagMsgType]
	if !ok {
		return nil, StatusMalformed
	}

	bodyName, bodyDict := c.sxName, c.sxDict

	if bodyDict.MessageByType(msgType) == nil {
		if name, d := c.applicationDictionary(); d != nil {
			bodyName, bodyDict = name, d
		}
	}

	dict := bodyDict
	bodySet, err := c.p.cache.get(cacheKey{dict: bodyName, scope: "msg:" + msgType}, func() ([]dictionary.Resolved, error) {
		md := dict.MessageByType(msgType)
		if md == nil {
			return nil, nil
		}
		return dict.Resolve(md.Elements)
	})
	if err != nil {
		return nil, StatusMalformed
	}

	return bodySet, statusNone
}

// applicationDictionary resolves the application layer: explicit override,
// then the matcher (application, then combined), then the caller default.
func (c *parseContext) applicationDictionary() (string, *dictionary.Dictionary) {
	if c.opts.Application != "" {
		if d := c.p.registry.Dictionary(c.opts.Application); d != nil {
			return c.opts.Application, d
		}
	}

	for _, layer := range []dictionary.Layer{dictionary.LayerApplication, dictionary.LayerCombined} {
		name, ok := c.p.registry.GetVersion(c.headerVals, layer)
		if !ok {
			continue
		}

		v := c.p.registry.Version(name)
		if v == nil || len(v.Dictionaries) == 0 {
			continue
		}

		if d := c.p.registry.Dictionary(v.Dictionaries[0]); d != nil {
			return v.Dictionaries[0], d
		}
	}

	if c.opts.ApplicationDefault != "" {
		if d := c.p.registry.Dictionary(c.opts.ApplicationDefault); d != nil {
			return c.opts.ApplicationDefault, d
		}
	}

	return "", nil
}

// body reads fields against the resolved body set. Tags outside the body
// schema end the body if they belong to the trailer, and are kept as
// user-defined fields otherwise.
func (c *parseContext) body(bodySet elementSet) Status {
	for {
		save := c.s.pos

		tag, st := c.s.readTag()
		if st != scanOK {
			return mapScan(st)
		}

		if tag == fix.TagBeginString {
			return StatusIncomplete
		}

		member, inBody := bodySet[tag]
		if !inBody {
			if _, inTrailer := c.trailerSet[tag]; inTrailer {
				c.s.pos = save
				return statusNone
			}
			member = nil // user-defined field
		}

		if st := c.appendElement(tag, member, c.msg.Body); st != statusNone {
			return st
		}
	}
}

// trailer reads fields against the resolved trailer set until CheckSum
// closes the message.
func (c *parseContext) trailer() Result {
	for {
		tag, st := c.s.readTag()
		if st != scanOK {
			return Result{Status: mapScan(st)}
		}

		if tag == fix.TagBeginString {
			return Result{Status: StatusIncomplete}
		}

		if st := c.appendElement(tag, c.trailerSet[tag], c.msg.Trailer); st != statusNone {
			return Result{Status: st}
		}

		if tag == fix.TagCheckSum {
			return Result{Consumed: c.s.pos, Status: StatusComplete, Message: c.msg}
		}
	}
}

// appendElement finishes reading the field whose tag has been consumed and
// appends it to coll. member may be nil for a user-defined field.
func (c *parseContext) appendElement(tag fix.Tag, member dictionary.Resolved, coll *fix.Collection) Status {
	if g, isGroup := member.(*dictionary.ResolvedGroup); isGroup {
		return c.appendGroup(tag, g, coll)
	}

	var (
		val string
		st  scanStatus
	)

	if rf, isField := member.(*dictionary.ResolvedField); isField && rf.LengthCoded {
		val, st = c.readDataValue(rf, coll)
	} else {
		val, st = c.s.readValue()
	}

	if st != scanOK {
		return mapScan(st)
	}

	if err := coll.Append(fix.NewField(tag, val)); err != nil {
		return StatusMalformed
	}

	return statusNone
}

// readDataValue reads a length-coded value: exactly the byte count named by
// the companion length field in the current scope. A missing or non-integer
// length field falls back to SOH-terminated reading.
func (c *parseContext) readDataValue(rf *dictionary.ResolvedField, scope *fix.Collection) (string, scanStatus) {
	if content, ok := scope.Content(rf.LengthFieldTag); ok {
		if n, err := strconv.Atoi(content); err == nil && n >= 0 {
			return c.s.readValueN(n)
		}
	}

	return c.s.readValue()
}

// appendGroup reads a group count and the instances that follow it. A count
// that is not a positive integer keeps its literal content and yields zero
// instances.
func (c *parseContext) appendGroup(tag fix.Tag, g *dictionary.ResolvedGroup, coll *fix.Collection) Status {
	content, st := c.s.readValue()
	if st != scanOK {
		return mapScan(st)
	}

	grp := fix.NewGroup(tag, content)

	if count, err := strconv.Atoi(content); err == nil {
		if st := c.parseGroupInstances(g, grp, count); st != statusNone {
			return st
		}
	}

	if err := coll.Append(grp); err != nil {
		return StatusMalformed
	}

	return statusNone
}

// parseGroupInstances reads up to count instances. A short count is not an
// error; the group simply holds fewer instances than advertised.
func (c *parseContext) parseGroupInstances(g *dictionary.ResolvedGroup, grp *fix.Group, count int) Status {
	set := newElementSet(g.Elements)
	delim := g.Delimiter()

	for i := 0; i < count; i++ {
		instance, st, more := c.parseGroupInstance(set, delim)
		if st != statusNone {
			return st
		}

		if instance.Len() > 0 {
			grp.AddInstance(instance)
		}

		if !more {
			break
		}
	}

	return statusNone
}

// parseGroupInstance reads one instance. It ends when the delimiter tag
// starts the next instance (more=true) or a tag outside the group schema
// ends the whole group (more=false). A non-delimiter tag repeated within one
// instance is malformed.
func (c *parseContext) parseGroupInstance(set elementSet, delim fix.Tag) (*fix.Collection, Status, bool) {
	instance := fix.NewCollection()

	for {
		c.s.skipSOH() // stray separators between fields are tolerated here

		save := c.s.pos

		tag, st := c.s.readTag()
		if st != scanOK {
			return nil, mapScan(st), false
		}

		member, ok := set[tag]
		if !ok {
			c.s.pos = save
			return instance, statusNone, false
		}

		if tag == delim && instance.Len() > 0 {
			c.s.pos = save
			return instance, statusNone, true
		}

		if instance.Get(tag) != nil {
			return nil, StatusMalformed, false
		}

		if st := c.appendElement(tag, member, instance); st != statusNone {
			return nil, st, false
		}
	}
}

func mapScan(st scanStatus) Status {
	if st == scanShort {
		return StatusExhausted
	}

	return StatusMalformed
}
