// cache.go
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
	"sync"

	"github.com/stephenlclarke/versafix/dictionary"
	"github.com/stephenlclarke/versafix/fix"
)

// elementSet is a resolved element collection indexed by tag for the
// parser's membership tests.
type elementSet map[fix.Tag]dictionary.Resolved

func newElementSet(elems []dictionary.Resolved) elementSet {
	set := make(elementSet, len(elems))
	for _, e := range elems {
		set[e.ResolvedTag()] = e
	}
	return set
}

type cacheKey struct {
	dict  string
	scope string
}

// resolvedCache memoises resolved element sets per dictionary and scope.
// Resolution runs outside the lock; losing a publication race is harmless
// because both winners resolved the same immutable dictionary.
type resolvedCache struct {
	mu   sync.RWMutex
	sets map[cacheKey]elementSet
}

func newResolvedCache() *resolvedCache {
	return &resolvedCache{sets: make(map[cacheKey]elementSet)}
}

func (c *resolvedCache) get(key cacheKey, resolve func() ([]dictionary.Resolved, error)) (elementSet, error) {
	// Fast path: read lock
	c.mu.RLock()
	if set, ok := c.sets[key]; ok {
		c.mu.RUnlock()
		return set, nil
	}
	c.mu.RUnlock()

	elems, err := resolve()
	if err != nil {
		return nil, err
	}

	set := newElementSet(elems)

	c.mu.Lock()
	c.sets[key] = set
	c.mu.Unlock()

	return set, nil
}
