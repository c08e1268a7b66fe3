// errors.go
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

import "fmt"

// UnresolvedReferenceError reports a reference whose name has no definition
// in the dictionary.
type UnresolvedReferenceError struct {
	Name string
}

func (e UnresolvedReferenceError) Error() string {
	return fmt.Sprintf("dictionary: unresolved reference %q", e.Name)
}

// MalformedDictionaryError reports a structural problem found while building
// or resolving a dictionary. These are fatal at load time.
type MalformedDictionaryError struct {
	Reason string
}

func (e MalformedDictionaryError) Error() string {
	return "dictionary: " + e.Reason
}

func malformed(format string, args ...any) error {
	return MalformedDictionaryError{Reason: fmt.Sprintf(format, args...)}
}
