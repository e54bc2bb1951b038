// bag.go
// Copyright (C) 2023 Vilhjálmur Þorsteinsson / Miðeind ehf
// This file implements the TileSet, i.e. the tile counts and
// values of a locale, and the TilePool of undrawn tiles

/*

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program.  If not, see <http://www.gnu.org/licenses/>.

*/

package tilerack

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"lukechampine.com/frand"
)

//go:embed tiles/tiles.json
var embeddedTileSets []byte

// TileSet is a static description of the tiles of a locale:
// how many of each there are and what each is worth
type TileSet struct {
	Counts map[rune]int
	Values map[rune]int
	// The total number of tiles
	Size int
}

// ReadTileSets reads tile sets from JSON of the form
// {"<locale>": {"<symbol>": [count, value], ...}, ...}
func ReadTileSets(r io.Reader) (map[string]*TileSet, error) {
	var raw map[string]map[string][2]int
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("reading tile sets: %w", err)
	}
	result := make(map[string]*TileSet, len(raw))
	for locale, entries := range raw {
		ts := &TileSet{
			Counts: make(map[rune]int, len(entries)),
			Values: make(map[rune]int, len(entries)),
		}
		for symbol, cv := range entries {
			letter, size := utf8.DecodeRuneInString(symbol)
			if size == 0 || size != len(symbol) {
				return nil, fmt.Errorf("tile set %s: symbol %q is not a single character", locale, symbol)
			}
			if cv[0] < 0 {
				return nil, fmt.Errorf("tile set %s: negative count for %q", locale, symbol)
			}
			letter = unicode.ToUpper(letter)
			ts.Counts[letter] = cv[0]
			ts.Values[letter] = cv[1]
			ts.Size += cv[0]
		}
		result[locale] = ts
	}
	return result, nil
}

// TileSetForLocale returns the tile set of the given locale. If path is
// not empty, the tile sets are read from that file; otherwise the
// built-in tile sets are used.
func TileSetForLocale(locale, path string) (*TileSet, error) {
	var r io.Reader
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	} else {
		r = bytes.NewReader(embeddedTileSets)
	}
	sets, err := ReadTileSets(r)
	if err != nil {
		return nil, err
	}
	ts, ok := sets[locale]
	if !ok {
		return nil, fmt.Errorf("%w: no tile set for %q", ErrUnknownLocale, locale)
	}
	return ts, nil
}

// Value returns the sum of the values of the letters in a word.
// Blank tiles (lower case letters or the Wildcard) and unknown
// symbols count as zero.
func (ts *TileSet) Value(word string) int {
	score := 0
	for _, r := range word {
		if unicode.IsLower(r) {
			continue
		}
		score += ts.Values[r]
	}
	return score
}

// Tiles returns the complete list of tiles in the set,
// in a deterministic order
func (ts *TileSet) Tiles() []rune {
	letters := make([]rune, 0, len(ts.Counts))
	for r := range ts.Counts {
		letters = append(letters, r)
	}
	sort.Slice(letters, func(i, j int) bool { return letters[i] < letters[j] })
	tiles := make([]rune, 0, ts.Size)
	for _, r := range letters {
		for j := 0; j < ts.Counts[r]; j++ {
			tiles = append(tiles, r)
		}
	}
	return tiles
}

// Rand is the source of randomness used by a TilePool
type Rand interface {
	// Intn returns a uniform random number in [0, n)
	Intn(n int) int
}

// frandSource draws from the goroutine-safe global frand generator
type frandSource struct{}

func (frandSource) Intn(n int) int {
	return frand.Intn(n)
}

// TilePool holds the tiles that have not yet been drawn in a game.
// It is not safe for concurrent use; a game session is its only user.
type TilePool struct {
	tiles   []rune
	tileSet *TileSet
	rng     Rand
}

// NewTilePool returns a full pool of tiles from the given tile set.
// If rng is nil, a cryptographically seeded generator is used.
func NewTilePool(ts *TileSet, rng Rand) *TilePool {
	if rng == nil {
		rng = frandSource{}
	}
	return &TilePool{tiles: ts.Tiles(), tileSet: ts, rng: rng}
}

// Take removes n tiles, chosen uniformly at random, from the pool and
// returns them. If fewer than n tiles remain, all of them are returned.
func (pool *TilePool) Take(n int) []rune {
	if n > len(pool.tiles) {
		n = len(pool.tiles)
	}
	if n <= 0 {
		return []rune{}
	}
	taken := make([]rune, 0, n)
	for ; n > 0; n-- {
		last := len(pool.tiles) - 1
		i := pool.rng.Intn(last + 1)
		taken = append(taken, pool.tiles[i])
		pool.tiles[i] = pool.tiles[last]
		pool.tiles = pool.tiles[:last]
	}
	return taken
}

// Draw returns n tiles chosen uniformly at random, in random order,
// without removing them from the pool. No tile of the pool is chosen
// twice within one call.
func (pool *TilePool) Draw(n int) []rune {
	if n > len(pool.tiles) {
		n = len(pool.tiles)
	}
	if n <= 0 {
		return []rune{}
	}
	// Partial Fisher-Yates shuffle over a permutation of indices
	indices := make([]int, len(pool.tiles))
	for i := range indices {
		indices[i] = i
	}
	drawn := make([]rune, n)
	for i := 0; i < n; i++ {
		j := i + pool.rng.Intn(len(indices)-i)
		indices[i], indices[j] = indices[j], indices[i]
		drawn[i] = pool.tiles[indices[i]]
	}
	return drawn
}

// Swap returns the given tiles to the pool and takes the
// same number of tiles back out
func (pool *TilePool) Swap(tiles []rune) []rune {
	pool.tiles = append(pool.tiles, tiles...)
	return pool.Take(len(tiles))
}

// Value returns the sum of the values of the letters in a word
func (pool *TilePool) Value(word string) int {
	return pool.tileSet.Value(word)
}

// Count returns the number of tiles in the pool
func (pool *TilePool) Count() int {
	return len(pool.tiles)
}

// ExchangeAllowed returns true if there are at least RackSize
// tiles left in the pool, thus allowing exchange of tiles
func (pool *TilePool) ExchangeAllowed() bool {
	return len(pool.tiles) >= RackSize
}

// String returns a string representation of a TilePool
func (pool *TilePool) String() string {
	if len(pool.tiles) == 0 {
		return "Empty"
	}
	sorted := make([]rune, len(pool.tiles))
	copy(sorted, pool.tiles)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("(%v tiles): %s", len(sorted), string(sorted)))
	return sb.String()
}
