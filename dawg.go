// dawg.go
//
// Copyright (C) 2023 Vilhjálmur Þorsteinsson / Miðeind ehf

// This file implements the Directed Acyclic Word Graph (DAWG)
// which encodes the dictionary of valid words.

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
	"sort"
	"strconv"
	"strings"
	"sync"
	"unicode"

	"github.com/hashicorp/golang-lru/simplelru"
)

// crossCacheSize is the number of cross-check patterns kept in
// the LRU cache of each Dawg
const crossCacheSize = 2048

// Dawg is a minimal acyclic word automaton, built in memory from
// a word list. Nodes are stored in an arena and referred to by
// their index; node 0 is the root. Once built, a Dawg is read-only
// and may be shared between any number of goroutines.
type Dawg struct {
	nodes      []node
	numWords   int
	alphabet   Alphabet
	crossCache crossCache
}

// edge is an outgoing edge of a node. An edge whose
// next field is zero leads nowhere, since no edge ever
// leads back to the root.
type edge struct {
	letter rune
	final  bool
	next   uint32
}

// node holds the outgoing edges of a Dawg node,
// sorted by letter
type node struct {
	edges []edge
}

// NewDawg builds a Dawg from a list of words. The words are
// converted to upper case; entries containing anything other
// than letters are skipped. An empty list is fine and results
// in a Dawg that accepts nothing.
func NewDawg(words []string) (*Dawg, error) {
	clean := normalizeWords(words)
	var b dawgBuilder
	b.init()
	letters := make(map[rune]bool)
	for _, word := range clean {
		runes := []rune(word)
		for _, r := range runes {
			letters[r] = true
		}
		b.add(runes)
	}
	b.finish()
	alphabet := make([]rune, 0, len(letters))
	for r := range letters {
		alphabet = append(alphabet, r)
	}
	dawg := &Dawg{
		nodes:    b.compact(),
		numWords: len(clean),
	}
	if err := dawg.alphabet.Init(alphabet); err != nil {
		return nil, err
	}
	dawg.crossCache.Init(crossCacheSize)
	return dawg, nil
}

// normalizeWords returns the upper-cased, letters-only,
// sorted and deduplicated version of a word list
func normalizeWords(words []string) []string {
	result := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.ToUpper(strings.TrimSpace(w))
		if w == "" || strings.IndexFunc(w, func(r rune) bool { return !unicode.IsLetter(r) }) >= 0 {
			continue
		}
		result = append(result, w)
	}
	sort.Strings(result)
	// Remove duplicates in place
	j := 0
	for i, w := range result {
		if i == 0 || w != result[j-1] {
			result[j] = w
			j++
		}
	}
	return result[:j]
}

// dawgBuilder constructs a minimal automaton from sorted input,
// one word at a time. Nodes on the path of the most recently added
// word are kept "unchecked" until the next word diverges from that
// path; at that point they are either replaced by an equivalent node
// from the register or registered themselves.
type dawgBuilder struct {
	nodes     []node
	register  map[string]uint32
	unchecked []uncheckedEdge
	previous  []rune
}

type uncheckedEdge struct {
	parent uint32
	index  int
	child  uint32
}

func (b *dawgBuilder) init() {
	// Node 0 is the root
	b.nodes = make([]node, 1, 1024)
	b.register = make(map[string]uint32)
}

func (b *dawgBuilder) newNode() uint32 {
	b.nodes = append(b.nodes, node{})
	return uint32(len(b.nodes) - 1)
}

// add adds a word, which must sort after the previous one
func (b *dawgBuilder) add(word []rune) {
	common := 0
	for common < len(word) && common < len(b.previous) && word[common] == b.previous[common] {
		common++
	}
	b.minimize(common)
	parent := uint32(0)
	if len(b.unchecked) > 0 {
		parent = b.unchecked[len(b.unchecked)-1].child
	}
	for _, letter := range word[common:] {
		child := b.newNode()
		edges := append(b.nodes[parent].edges, edge{letter: letter, next: child})
		b.nodes[parent].edges = edges
		b.unchecked = append(b.unchecked, uncheckedEdge{parent, len(edges) - 1, child})
		parent = child
	}
	last := b.unchecked[len(b.unchecked)-1]
	b.nodes[last.parent].edges[last.index].final = true
	b.previous = word
}

// minimize registers or replaces unchecked nodes, deepest first,
// until only downTo of them remain
func (b *dawgBuilder) minimize(downTo int) {
	for i := len(b.unchecked) - 1; i >= downTo; i-- {
		u := b.unchecked[i]
		key := b.signature(u.child)
		if existing, ok := b.register[key]; ok {
			b.nodes[u.parent].edges[u.index].next = existing
		} else {
			b.register[key] = u.child
		}
	}
	b.unchecked = b.unchecked[:downTo]
}

func (b *dawgBuilder) finish() {
	b.minimize(0)
}

// signature returns a string that is equal for two nodes
// if and only if they have identical outgoing edges
func (b *dawgBuilder) signature(id uint32) string {
	var sb strings.Builder
	for _, e := range b.nodes[id].edges {
		sb.WriteRune(e.letter)
		if e.final {
			sb.WriteByte('|')
		}
		sb.WriteString(strconv.FormatUint(uint64(e.next), 10))
		sb.WriteByte(',')
	}
	return sb.String()
}

// compact returns a fresh arena containing only the nodes that
// are reachable from the root, numbered in breadth-first order.
// Edges into nodes without outgoing edges are given a zero next.
func (b *dawgBuilder) compact() []node {
	isLeaf := func(id uint32) bool { return len(b.nodes[id].edges) == 0 }
	ids := map[uint32]uint32{0: 0}
	order := []uint32{0}
	for i := 0; i < len(order); i++ {
		for _, e := range b.nodes[order[i]].edges {
			if isLeaf(e.next) {
				continue
			}
			if _, seen := ids[e.next]; !seen {
				ids[e.next] = uint32(len(order))
				order = append(order, e.next)
			}
		}
	}
	nodes := make([]node, len(order))
	for newID, oldID := range order {
		src := b.nodes[oldID].edges
		edges := make([]edge, len(src))
		for j, e := range src {
			edges[j] = e
			if isLeaf(e.next) {
				edges[j].next = 0
			} else {
				edges[j].next = ids[e.next]
			}
		}
		nodes[newID].edges = edges
	}
	return nodes
}

// NumNodes returns the number of nodes in the Dawg
func (dawg *Dawg) NumNodes() int {
	return len(dawg.nodes)
}

// NumWords returns the number of words in the Dawg
func (dawg *Dawg) NumWords() int {
	return dawg.numWords
}

// Alphabet returns the Alphabet of the Dawg
func (dawg *Dawg) Alphabet() *Alphabet {
	return &dawg.alphabet
}

// Navigate walks the Dawg from the root, steered by navigator
func (dawg *Dawg) Navigate(navigator Navigator) {
	var nav Navigation
	nav.Go(dawg, navigator)
}

// NavigateResumable is Navigate, with a navState handed to each Accept()
func (dawg *Dawg) NavigateResumable(navigator Navigator) {
	var nav Navigation
	nav.isResumable = true
	nav.Go(dawg, navigator)
}

// Resume picks up a walk from a saved navState
func (dawg *Dawg) Resume(navigator Navigator, state *navState, matched []rune) {
	var nav Navigation
	nav.Resume(dawg, navigator, state, matched)
}

// Contains returns true if the word is in the Dawg.
// Lower case letters are treated as upper case.
func (dawg *Dawg) Contains(word string) bool {
	var fn FindNavigator
	fn.Init(strings.ToUpper(word))
	dawg.Navigate(&fn)
	return fn.found
}

// Search returns all words in the Dawg that match a
// given pattern, which can include Wildcard characters.
// Letters standing in for a wildcard are returned in lower case.
func (dawg *Dawg) Search(pattern string) []string {
	var mn MatchNavigator
	mn.Init([]rune(strings.ToUpper(pattern)))
	dawg.Navigate(&mn)
	return mn.results
}

// LeftFragments returns every prefix of a word in the Dawg, of length
// 1..maxLen, that can be laid down using tiles from the rack. Positions
// filled by a blank tile are lower-cased in the fragment.
func (dawg *Dawg) LeftFragments(rack []rune, maxLen int) []*LeftPart {
	var lpn LeftPermutationNavigator
	lpn.Init(rack, min(maxLen, len(rack)))
	dawg.NavigateResumable(&lpn)
	result := make([]*LeftPart, 0)
	for _, parts := range lpn.leftParts {
		result = append(result, parts...)
	}
	return result
}

// Completions returns every word in the Dawg that fits the
// skeleton exactly and that can be formed using tiles from
// the rack for the open slots. Letters laid down with a blank
// tile are returned in lower case.
func (dawg *Dawg) Completions(skeleton Skeleton, rack []rune) []string {
	if len(skeleton) == 0 {
		return nil
	}
	var cn CompletionNavigator
	cn.Init(dawg, skeleton, 0, rack)
	cn.whole = true
	cn.minLen = 1
	dawg.Navigate(&cn)
	result := make([]string, len(cn.results))
	for i, c := range cn.results {
		result[i] = c.Word
	}
	return result
}

// CrossSet returns the letters that join the fragments before and
// after a square into a word
func (dawg *Dawg) CrossSet(left, right []rune) LetterSet {
	key := strings.ToUpper(string(left)) + string(Wildcard) + strings.ToUpper(string(right))
	lenLeft := len(left)
	fetchFunc := func(key string) LetterSet {
		// "F*LT" finds FaLT, FeLT and FiLT: the set is {A, E, I}
		matches := dawg.Search(key)
		runes := make([]rune, 0, len(matches))
		for _, match := range matches {
			runes = append(runes, unicode.ToUpper([]rune(match)[lenLeft]))
		}
		return dawg.alphabet.MakeSet(runes)
	}
	return dawg.crossCache.Lookup(key, fetchFunc)
}

// crossCache memoizes CrossSet results by pattern, such as "AF*A"
type crossCache struct {
	mux sync.Mutex
	lru *simplelru.LRU
}

// Init allocates the LRU with room for size patterns
func (cc *crossCache) Init(size int) {
	cc.lru, _ = simplelru.NewLRU(size, nil)
}

// Lookup returns the cached set for key, computing it with
// fetchFunc() on a miss
func (cc *crossCache) Lookup(key string, fetchFunc func(string) LetterSet) LetterSet {
	cc.mux.Lock()
	defer cc.mux.Unlock()
	if bitMap, ok := cc.lru.Get(key); ok {
		return bitMap.(LetterSet)
	}
	bitMap := fetchFunc(key)
	cc.lru.Add(key, bitMap)
	return bitMap
}
