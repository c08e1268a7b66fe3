// reference.go
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

import "github.com/stephenlclarke/versafix/fix"

// Reference is one entry of a message, block or group definition. It refers
// to other dictionary content by name; Resolve turns references into the
// tag-keyed form the parser consumes.
type Reference interface {
	RefName() string
	RefRequired() bool
}

// FieldRef names a field definition.
type FieldRef struct {
	Name     string
	Required bool
}

func (r FieldRef) RefName() string { return r.Name }
func (r FieldRef) RefRequired() bool { return r.Required }

// GroupRef names the count field of a repeating group whose element
// membership is inline.
type GroupRef struct {
	Name     string
	Required bool
	Elements []Reference
}

func (r GroupRef) RefName() string { return r.Name }
func (r GroupRef) RefRequired() bool { return r.Required }

// BlockRef names a component block. A Component block inlines its contents;
// a Repeating block stands for a group counted by the block's start field.
type BlockRef struct {
	Name     string
	Required bool
}

func (r BlockRef) RefName() string { return r.Name }
func (r BlockRef) RefRequired() bool { return r.Required }

// Resolved is a reference after block expansion and name-to-tag lookup: a
// scalar or a group, nothing else.
type Resolved interface {
	ResolvedTag() fix.Tag
	ResolvedName() string
}

// ResolvedField is a scalar element of a resolved tree.
type ResolvedField struct {
	Tag            fix.Tag
	Name           string
	Type           string
	Required       bool
	LengthCoded    bool
	LengthFieldTag fix.Tag
}

func (r *ResolvedField) ResolvedTag() fix.Tag { return r.Tag }
func (r *ResolvedField) ResolvedName() string { return r.Name }

// ResolvedGroup is a repeating group keyed by its count tag. The first
// element of Elements is the delimiter field marking each instance start.
type ResolvedGroup struct {
	Tag      fix.Tag
	Name     string
	Required bool
	Elements []Resolved
}

func (r *ResolvedGroup) ResolvedTag() fix.Tag { return r.Tag }
func (r *ResolvedGroup) ResolvedName() string { return r.Name }

// Delimiter returns the tag of the group's first element, or 0 for an empty
// group body.
func (r *ResolvedGroup) Delimiter() fix.Tag {
	if len(r.Elements) == 0 {
		return 0
	}

	return r.Elements[0].ResolvedTag()
}
