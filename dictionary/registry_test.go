// registry_test.go
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
	"testing"

	"github.com/stephenlclarke/versafix/fix"
)

func standardRegistry() *Registry {
	reg := NewRegistry()
	for _, v := range StandardVersions() {
		reg.AddVersion(v)
	}
	return reg
}

func TestGetVersionMatchesCombinedByBeginString(t *testing.T) {
	reg := standardRegistry()

	header := map[fix.Tag]string{8: "FIX.4.4"}

	name, ok := reg.GetVersion(header, LayerCombined)
	if !ok || name != "FIX.4.4" {
		t.Errorf("GetVersion = %q, %v; want FIX.4.4, true", name, ok)
	}
}

func TestGetVersionMatchesSessionForFIXT(t *testing.T) {
	reg := standardRegistry()

	header := map[fix.Tag]string{8: "FIXT.1.1", 1128: "9"}

	if name, ok := reg.GetVersion(header, LayerSession); !ok || name != "FIXT.1.1" {
		t.Errorf("session GetVersion = %q, %v", name, ok)
	}

	if name, ok := reg.GetVersion(header, LayerApplication); !ok || name != "FIX.5.0SP2" {
		t.Errorf("application GetVersion = %q, %v", name, ok)
	}
}

func TestGetVersionMissIsNotAnError(t *testing.T) {
	reg := standardRegistry()

	header := map[fix.Tag]string{8: "FIX.9.9"}

	if name, ok := reg.GetVersion(header, LayerCombined); ok {
		t.Errorf("unexpected match %q for unknown BeginString", name)
	}
}

func TestGetVersionRespectsInsertionOrder(t *testing.T) {
	reg := NewRegistry()
	reg.AddVersion(Version{
		Name:         "first",
		Layer:        LayerCombined,
		Dictionaries: []string{"first"},
		Rules:        []MatchRule{{Tag: 8, Content: "FIX.4.4"}},
	})
	reg.AddVersion(Version{
		Name:         "second",
		Layer:        LayerCombined,
		Dictionaries: []string{"second"},
		Rules:        []MatchRule{{Tag: 8, Content: "FIX.4.4"}},
	})

	name, ok := reg.GetVersion(map[fix.Tag]string{8: "FIX.4.4"}, LayerCombined)
	if !ok || name != "first" {
		t.Errorf("GetVersion = %q, %v; want first record to win", name, ok)
	}
}

func TestGetVersionEmptyContentMeansPresence(t *testing.T) {
	reg := NewRegistry()
	reg.AddVersion(Version{
		Name:         "with-appl",
		Layer:        LayerApplication,
		Dictionaries: []string{"with-appl"},
		Rules: []MatchRule{
			{Tag: 8, Content: "FIXT.1.1"},
			{Tag: 1128}, // any value, but the tag must be present
		},
	})

	if _, ok := reg.GetVersion(map[fix.Tag]string{8: "FIXT.1.1"}, LayerApplication); ok {
		t.Error("matched without the required tag present")
	}

	header := map[fix.Tag]string{8: "FIXT.1.1", 1128: "whatever"}
	if name, ok := reg.GetVersion(header, LayerApplication); !ok || name != "with-appl" {
		t.Errorf("GetVersion = %q, %v; want with-appl, true", name, ok)
	}
}

func TestGetVersionLayerFilter(t *testing.T) {
	reg := standardRegistry()

	header := map[fix.Tag]string{8: "FIX.4.4"}

	if name, ok := reg.GetVersion(header, LayerSession); ok {
		t.Errorf("session layer matched %q for a combined-only version", name)
	}
}

func TestVersionDictionaryLookup(t *testing.T) {
	reg := standardRegistry()

	d := New()
	reg.AddDictionary("FIX.4.4", d)

	if got := reg.VersionDictionary("FIX.4.4"); got != d {
		t.Error("VersionDictionary did not return the registered dictionary")
	}

	if got := reg.VersionDictionary("FIX.4.3"); got != nil {
		t.Error("VersionDictionary for an unregistered dictionary should be nil")
	}
}
