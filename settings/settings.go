// settings.go
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

// Package settings loads engine and session configuration from XML.
package settings

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"time"

	"golang.org/x/net/html/charset"

	"github.com/stephenlclarke/versafix/session"
)

// DictionarySettings points at one dictionary document on disk.
type DictionarySettings struct {
	Name   string `xml:"name,attr"`
	Path   string `xml:"path,attr"`
	Format string `xml:"format,attr"` // "native" (default) or "quickfix"
}

// SessionSettings configures one FIX session.
type SessionSettings struct {
	Role         string `xml:"role,attr"` // "initiator" or "acceptor"
	BeginString  string `xml:"beginString,attr"`
	SenderCompID string `xml:"senderCompID,attr"`
	TargetCompID string `xml:"targetCompID,attr"`
	Address      string `xml:"address,attr"`
	HeartBtInt   int    `xml:"heartBtInt,attr"`
	ResetOnLogon string `xml:"resetOnLogon,attr"`
	Dictionary   string `xml:"dictionary,attr"`
	AppDefault   string `xml:"appDefault,attr"`
}

// Settings is a complete engine configuration.
type Settings struct {
	XMLName      xml.Name             `xml:"engine"`
	LogLevel     string               `xml:"logLevel,attr"`
	Dictionaries []DictionarySettings `xml:"dictionary"`
	Sessions     []SessionSettings    `xml:"session"`
}

// Load reads settings from a reader and validates them.
func Load(r io.Reader) (*Settings, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charset.NewReaderLabel

	var s Settings
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("settings: decode: %w", err)
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}

	return &s, nil
}

// LoadFile reads settings from a file path.
func LoadFile(path string) (*Settings, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Load(f)
}

// Validate checks every session block; faults carry the session index.
func (s *Settings) Validate() error {
	names := make(map[string]bool, len(s.Dictionaries))
	for i, d := range s.Dictionaries {
		if d.Name == "" || d.Path == "" {
			return fmt.Errorf("settings: dictionary %d needs a name and a path", i)
		}
		if names[d.Name] {
			return fmt.Errorf("settings: duplicate dictionary %q", d.Name)
		}
		names[d.Name] = true
	}

	for i, sess := range s.Sessions {
		if sess.Role != "initiator" && sess.Role != "acceptor" {
			return fmt.Errorf("settings: session %d has role %q, want initiator or acceptor", i, sess.Role)
		}
		if sess.BeginString == "" || sess.SenderCompID == "" || sess.TargetCompID == "" {
			return fmt.Errorf("settings: session %d is missing identity attributes", i)
		}
		if sess.Address == "" {
			return fmt.Errorf("settings: session %d has no address", i)
		}
		if sess.HeartBtInt < 0 {
			return fmt.Errorf("settings: session %d has a negative heartBtInt", i)
		}
		if sess.Dictionary != "" && !names[sess.Dictionary] {
			return fmt.Errorf("settings: session %d references unknown dictionary %q", i, sess.Dictionary)
		}
	}

	return nil
}

// Config converts session settings into the runtime session configuration.
func (s SessionSettings) Config() session.Config {
	return session.Config{
		BeginString:        s.BeginString,
		SenderCompID:       s.SenderCompID,
		TargetCompID:       s.TargetCompID,
		HeartBtInt:         time.Duration(s.HeartBtInt) * time.Second,
		ResetSeqNumOnLogon: s.ResetOnLogon == "Y",
		Acceptor:           s.Role == "acceptor",
	}
}
