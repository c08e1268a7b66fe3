// resolver.go
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

// Expand recursively inlines Component-kind block references. Field
// references, group references and Repeating block references pass through
// unchanged. Block reference cycles are detected and rejected.
func (d *Dictionary) Expand(refs []Reference) ([]Reference, error) {
	return d.expand(refs, make(map[string]bool))
}

func (d *Dictionary) expand(refs []Reference, visiting map[string]bool) ([]Reference, error) {
	out := make([]Reference, 0, len(refs))

	for _, ref := range refs {
		if ref.RefName() == "" {
			return nil, malformed("reference with empty name")
		}

		blockRef, ok := ref.(BlockRef)
		if !ok {
			out = append(out, ref)
			continue
		}

		block := d.blocks[blockRef.Name]
		if block == nil {
			return nil, UnresolvedReferenceError{Name: blockRef.Name}
		}

		if block.Kind == BlockRepeating {
			out = append(out, ref)
			continue
		}

		if visiting[block.Name] {
			return nil, malformed("block reference cycle through %q", block.Name)
		}

		visiting[block.Name] = true
		inner, err := d.expand(block.Elements, visiting)
		delete(visiting, block.Name)

		if err != nil {
			return nil, err
		}

		out = append(out, inner...)
	}

	return out, nil
}

// Resolve expands a reference list and produces the tag-keyed element tree
// the parser consumes. It fails on any dangling or empty name, and verifies
// the result holds only resolved scalars and groups.
func (d *Dictionary) Resolve(refs []Reference) ([]Resolved, error) {
	out, err := d.resolve(refs, make(map[string]bool))
	if err != nil {
		return nil, err
	}

	if err := verifyResolved(out); err != nil {
		return nil, err
	}

	return out, nil
}

func (d *Dictionary) resolve(refs []Reference, visiting map[string]bool) ([]Resolved, error) {
	expanded, err := d.expand(refs, visiting)
	if err != nil {
		return nil, err
	}

	out := make([]Resolved, 0, len(expanded))

	for _, ref := range expanded {
		switch r := ref.(type) {
		case FieldRef:
			field, err := d.resolveField(r.Name, r.Required)
			if err != nil {
				return nil, err
			}
			out = append(out, field)

		case GroupRef:
			countField := d.fieldsByName[r.Name]
			if countField == nil {
				return nil, UnresolvedReferenceError{Name: r.Name}
			}

			body, err := d.resolve(r.Elements, visiting)
			if err != nil {
				return nil, err
			}

			out = append(out, &ResolvedGroup{
				Tag:      countField.Tag,
				Name:     countField.Name,
				Required: r.Required,
				Elements: body,
			})

		case BlockRef:
			// Component blocks were inlined by expand; only Repeating blocks
			// arrive here.
			block := d.blocks[r.Name]
			if block == nil {
				return nil, UnresolvedReferenceError{Name: r.Name}
			}

			startField := d.fieldsByName[block.StartField]
			if startField == nil {
				return nil, UnresolvedReferenceError{Name: block.StartField}
			}

			if visiting[block.Name] {
				return nil, malformed("block reference cycle through %q", block.Name)
			}

			visiting[block.Name] = true
			body, err := d.resolve(block.Elements, visiting)
			delete(visiting, block.Name)

			if err != nil {
				return nil, err
			}

			out = append(out, &ResolvedGroup{
				Tag:      startField.Tag,
				Name:     startField.Name,
				Required: r.Required,
				Elements: body,
			})

		default:
			return nil, malformed("unknown reference kind for %q", ref.RefName())
		}
	}

	return out, nil
}

func (d *Dictionary) resolveField(name string, required bool) (*ResolvedField, error) {
	field := d.fieldsByName[name]
	if field == nil {
		return nil, UnresolvedReferenceError{Name: name}
	}

	resolved := &ResolvedField{
		Tag:         field.Tag,
		Name:        field.Name,
		Type:        field.Type,
		Required:    required,
		LengthCoded: field.LengthCoded(),
	}

	if field.LengthCoded() {
		lengthField := d.fieldsByName[field.LengthField]
		if lengthField == nil {
			return nil, UnresolvedReferenceError{Name: field.LengthField}
		}
		resolved.LengthFieldTag = lengthField.Tag
	}

	return resolved, nil
}

// verifyResolved walks a resolved tree and rejects any node that is not a
// fully resolved scalar or group.
func verifyResolved(elems []Resolved) error {
	for _, e := range elems {
		switch r := e.(type) {
		case *ResolvedField:
			if r.Tag == 0 {
				return malformed("resolved field %q has no tag", r.Name)
			}
		case *ResolvedGroup:
			if r.Tag == 0 {
				return malformed("resolved group %q has no tag", r.Name)
			}
			if err := verifyResolved(r.Elements); err != nil {
				return err
			}
		default:
			return malformed("unresolved node in resolved collection")
		}
	}

	return nil
}
