// registry.go
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
	"sync"

	"github.com/stephenlclarke/versafix/fix"
)

// Layer distinguishes which protocol layer a version record serves. FIX
// 4.0-4.4 carry session and application semantics in one combined
// dictionary; 5.0 and later split them between FIXT (session) and FIX
// (application).
type Layer int

const (
	LayerSession Layer = iota
	LayerApplication
	LayerCombined
)

func (l Layer) String() string {
	switch l {
	case LayerSession:
		return "session"
	case LayerApplication:
		return "application"
	case LayerCombined:
		return "combined"
	default:
		return "unknown"
	}
}

// MatchRule is one condition of a version's match spec. Empty Content means
// the tag must merely be present.
type MatchRule struct {
	Tag     fix.Tag
	Content string
}

// Version is one record of the registry: a protocol version name, the layer
// it serves, the dictionaries that define it, and the header conditions that
// identify it on the wire.
type Version struct {
	Name         string
	Layer        Layer
	Dictionaries []string
	Rules        []MatchRule
}

// Registry holds version records in insertion order together with the
// dictionaries they reference. Version records are read without locking, so
// AddVersion calls must finish before the registry is shared; dictionary
// registration and lookup go through a read-write mutex.
type Registry struct {
	versions []Version

	mu    sync.RWMutex
	dicts map[string]*Dictionary
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{dicts: make(map[string]*Dictionary)}
}

// AddVersion appends a version record.
func (r *Registry) AddVersion(v Version) {
	v.Dictionaries = append([]string(nil), v.Dictionaries...)
	v.Rules = append([]MatchRule(nil), v.Rules...)
	r.versions = append(r.versions, v)
}

// AddDictionary registers a dictionary under a name version records refer
// to.
func (r *Registry) AddDictionary(name string, d *Dictionary) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.dicts[name] = d
}

// Dictionary returns the dictionary registered under name, or nil.
func (r *Registry) Dictionary(name string) *Dictionary {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.dicts[name]
}

// Versions returns the version records in insertion order.
func (r *Registry) Versions() []Version {
	return append([]Version(nil), r.versions...)
}

// Version returns the record with the given name, or nil.
func (r *Registry) Version(name string) *Version {
	for i := range r.versions {
		if r.versions[i].Name == name {
			return &r.versions[i]
		}
	}

	return nil
}

// GetVersion returns the name of the first version record, in insertion
// order, whose layer matches the selector and whose match spec is entirely
// satisfied by the supplied header fields. A miss is not an error: the
// second return is false.
func (r *Registry) GetVersion(header map[fix.Tag]string, layer Layer) (string, bool) {
	for _, v := range r.versions {
		if v.Layer != layer {
			continue
		}

		if matches(v.Rules, header) {
			return v.Name, true
		}
	}

	return "", false
}

func matches(rules []MatchRule, header map[fix.Tag]string) bool {
	for _, rule := range rules {
		content, present := header[rule.Tag]
		if !present {
			return false
		}

		if rule.Content != "" && content != rule.Content {
			return false
		}
	}

	return true
}

// VersionDictionary returns the first dictionary of the named version
// record, or nil if the version or its dictionary is unknown.
func (r *Registry) VersionDictionary(name string) *Dictionary {
	v := r.Version(name)
	if v == nil || len(v.Dictionaries) == 0 {
		return nil
	}

	return r.Dictionary(v.Dictionaries[0])
}

// StandardVersions returns the catalogue of well-known FIX versions keyed by
// BeginString (tag 8) and, for the FIXT transport, ApplVerID (tag 1128).
// GetVersion filters by layer before matching, so only the order of records
// within one layer matters, and no two records of the same layer here match
// the same header.
func StandardVersions() []Version {
	applVer := func(name, id string) Version {
		return Version{
			Name:         name,
			Layer:        LayerApplication,
			Dictionaries: []string{name},
			Rules: []MatchRule{
				{Tag: fix.TagBeginString, Content: "FIXT.1.1"},
				{Tag: fix.TagApplVerID, Content: id},
			},
		}
	}

	combined := func(name, begin string) Version {
		return Version{
			Name:         name,
			Layer:        LayerCombined,
			Dictionaries: []string{name},
			Rules:        []MatchRule{{Tag: fix.TagBeginString, Content: begin}},
		}
	}

	return []Version{
		{
			Name:         "FIXT.1.1",
			Layer:        LayerSession,
			Dictionaries: []string{"FIXT.1.1"},
			Rules:        []MatchRule{{Tag: fix.TagBeginString, Content: "FIXT.1.1"}},
		},
		applVer("FIX.5.0", "7"),
		applVer("FIX.5.0SP1", "8"),
		applVer("FIX.5.0SP2", "9"),
		combined("FIX.4.0", "FIX.4.0"),
		combined("FIX.4.1", "FIX.4.1"),
		combined("FIX.4.2", "FIX.4.2"),
		combined("FIX.4.3", "FIX.4.3"),
		combined("FIX.4.4", "FIX.4.4"),
	}
}
