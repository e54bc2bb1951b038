// navigators.go
// Copyright (C) 2023 Vilhjálmur Þorsteinsson / Miðeind ehf.

// Walks over the word automaton: the Navigation driver and the
// navigators steered by it, for lookup, wildcard patterns, rack
// prefixes and completion of partly occupied lines.

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
	"fmt"
	"unicode"
)

// Navigator steers a depth-first walk over the edges of a Dawg.
// A Navigation asks it, for each outgoing edge of a node, whether
// to enter the edge (PushEdge) and, after the edge has been walked,
// whether to try the remaining edges of the node (PopEdge). Letters
// along an edge are offered one at a time through IsAccepting and
// Accepts; each accepted letter is reported to Accept together with
// the prefix matched so far. Done is called when the walk is over.
type Navigator interface {
	IsAccepting() bool
	Accepts(rune) bool
	Accept(matched []rune, final bool, state *navState)
	PushEdge(rune) bool
	PopEdge() bool
	Done()
}

// navState holds a navigation state, i.e. the node that follows
// an edge that has just been traversed. A zero nextNode means
// that the navigation cannot be continued from this state.
type navState struct {
	nextNode uint32
}

// Navigation drives a Navigator over the edges of a Dawg
type Navigation struct {
	dawg      *Dawg
	navigator Navigator
	// Hand a navState to Accept() so the walk can be picked up later
	isResumable bool
}

// FromNode offers the outgoing edges of a node to the navigator,
// stopping early if PopEdge() says so
func (nav *Navigation) FromNode(id uint32, matched []rune) {
	edges := nav.dawg.nodes[id].edges
	for i := range edges {
		e := &edges[i]
		if nav.navigator.PushEdge(e.letter) {
			nav.FromEdge(e, matched)
			if !nav.navigator.PopEdge() {
				break
			}
		}
	}
}

// FromEdge navigates along a single-letter edge in the Dawg
func (nav *Navigation) FromEdge(e *edge, alreadyMatched []rune) {
	navigator := nav.navigator
	if !navigator.IsAccepting() || !navigator.Accepts(e.letter) {
		return
	}
	matched := make([]rune, len(alreadyMatched), len(alreadyMatched)+1)
	copy(matched, alreadyMatched)
	matched = append(matched, e.letter)
	if nav.isResumable {
		navigator.Accept(matched, e.final, &navState{nextNode: e.next})
	} else {
		navigator.Accept(matched, e.final, nil)
	}
	if e.next != 0 && navigator.IsAccepting() {
		nav.FromNode(e.next, matched)
	}
}

// Go walks the Dawg from its root
func (nav *Navigation) Go(dawg *Dawg, navigator Navigator) {
	if nav == nil || dawg == nil || navigator == nil {
		return
	}
	nav.dawg = dawg
	nav.navigator = navigator
	if navigator.IsAccepting() {
		nav.FromNode(0, []rune{})
	}
	navigator.Done()
}

// Resume walks the Dawg from a saved navState, with matched
// holding the letters that led there
func (nav *Navigation) Resume(dawg *Dawg, navigator Navigator, state *navState, matched []rune) {
	if nav == nil || dawg == nil || navigator == nil || state == nil {
		return
	}
	nav.dawg = dawg
	nav.navigator = navigator
	if state.nextNode != 0 && navigator.IsAccepting() {
		nav.FromNode(state.nextNode, matched)
	}
	navigator.Done()
}

// FindNavigator looks up a single word
type FindNavigator struct {
	word    []rune
	lenWord int
	index   int
	found   bool
}

// Init initializes a FindNavigator with the word to search for
func (fn *FindNavigator) Init(word string) {
	fn.word = []rune(word)
	fn.lenWord = len(fn.word)
}

// PushEdge enters an edge only if it carries the next letter of the word
func (fn *FindNavigator) PushEdge(chr rune) bool {
	return fn.word[fn.index] == chr
}

// PopEdge ends the scan of a node: at most one edge can match
func (fn *FindNavigator) PopEdge() bool {
	return false
}

// Done is a no-op for FindNavigator
func (fn *FindNavigator) Done() {
}

// IsAccepting returns false once the whole word has been matched
func (fn *FindNavigator) IsAccepting() bool {
	return fn.index < fn.lenWord
}

// Accepts advances past the matching letter
func (fn *FindNavigator) Accepts(chr rune) bool {
	// PushEdge already checked the letter
	fn.index++
	return true
}

// Accept records a hit when the word ends on a final edge
func (fn *FindNavigator) Accept(matched []rune, final bool, state *navState) {
	if final && fn.index == fn.lenWord {
		fn.found = true
	}
}

// MatchNavigator collects the words that match a pattern,
// where Wildcard stands for any letter
type MatchNavigator struct {
	pattern    []rune
	lenP       int
	index      int
	chMatch    rune
	isWildcard bool
	stack      []matchItem
	results    []string
}

type matchItem struct {
	index      int
	chMatch    rune
	isWildcard bool
}

// Init initializes a MatchNavigator with the pattern to search for
func (mn *MatchNavigator) Init(pattern []rune) {
	mn.pattern = pattern
	mn.lenP = len(mn.pattern)
	if mn.lenP > 0 {
		mn.chMatch = mn.pattern[0]
		mn.isWildcard = mn.chMatch == Wildcard
	}
	mn.stack = make([]matchItem, 0, RackSize)
	mn.results = make([]string, 0, 16)
}

// PushEdge enters edges that fit the current pattern position,
// saving that position for PopEdge
func (mn *MatchNavigator) PushEdge(chr rune) bool {
	if chr != mn.chMatch && !mn.isWildcard {
		return false
	}
	mn.stack = append(mn.stack, matchItem{mn.index, mn.chMatch, mn.isWildcard})
	return true
}

// PopEdge restores the pattern position. Sibling edges are only
// of interest at a wildcard.
func (mn *MatchNavigator) PopEdge() bool {
	last := len(mn.stack) - 1
	mt := &mn.stack[last]
	mn.index, mn.chMatch, mn.isWildcard = mt.index, mt.chMatch, mt.isWildcard
	mn.stack = mn.stack[0:last]
	return mn.isWildcard
}

// Done is a no-op for MatchNavigator
func (mn *MatchNavigator) Done() {
}

// IsAccepting returns true while pattern positions remain
func (mn *MatchNavigator) IsAccepting() bool {
	return mn.index < mn.lenP
}

// Accepts checks a letter against the pattern and moves on
func (mn *MatchNavigator) Accepts(chr rune) bool {
	if chr != mn.chMatch && !mn.isWildcard {
		return false
	}
	mn.index++
	if mn.index < mn.lenP {
		mn.chMatch = mn.pattern[mn.index]
		mn.isWildcard = mn.chMatch == Wildcard
	}
	return true
}

// Accept collects a word that fills the whole pattern
func (mn *MatchNavigator) Accept(matched []rune, final bool, state *navState) {
	if !final || mn.index != mn.lenP {
		return
	}
	// Entire pattern match: mark the letters that stand in for wildcards
	word := make([]rune, len(matched))
	for i, r := range matched {
		if mn.pattern[i] == Wildcard {
			r = unicode.ToLower(r)
		}
		word[i] = r
	}
	mn.results = append(mn.results, string(word))
}

// LeftFindNavigator looks up a prefix and keeps the navState where
// it ends, so a CompletionNavigator can carry on from there
type LeftFindNavigator struct {
	prefix []rune
	lenP   int
	index  int
	// Where the prefix ends, or nil if it is not in the Dawg
	state *navState
}

// Init initializes a LeftFindNavigator with the word to search for
func (lfn *LeftFindNavigator) Init(prefix []rune) {
	lfn.prefix = prefix
	lfn.lenP = len(prefix)
}

// PushEdge enters an edge only if it carries the next prefix letter
func (lfn *LeftFindNavigator) PushEdge(chr rune) bool {
	return lfn.prefix[lfn.index] == chr
}

// PopEdge stops after the matching edge
func (lfn *LeftFindNavigator) PopEdge() bool {
	return false
}

// Done is a no-op for LeftFindNavigator
func (lfn *LeftFindNavigator) Done() {
}

// IsAccepting returns false once the prefix is matched
func (lfn *LeftFindNavigator) IsAccepting() bool {
	return lfn.index < lfn.lenP
}

// Accepts advances past the matching letter
func (lfn *LeftFindNavigator) Accepts(chr rune) bool {
	lfn.index++
	return true
}

// Accept keeps the navState at the end of the prefix
func (lfn *LeftFindNavigator) Accept(matched []rune, final bool, state *navState) {
	if lfn.index == lfn.lenP {
		lfn.state = state
	}
}

// LeftPermutationNavigator collects, by length, every word prefix
// that can be spelled from a rack
type LeftPermutationNavigator struct {
	rack      []rune
	word      []rune
	stack     []leftPermItem
	maxLeft   int
	leftParts [][]*LeftPart
	index     int
}

type leftPermItem struct {
	rack    []rune
	index   int
	lenWord int
}

// LeftPart is a word prefix laid down from the rack to the left of an
// anchor square, with the Dawg position where it ends
type LeftPart struct {
	// The letters of the left part, lower case where a blank was used
	matched []rune
	// The tiles left in the rack
	rack  []rune
	state *navState
}

// Fragment returns the letters of the left part
func (lp *LeftPart) Fragment() string {
	return string(lp.matched)
}

// Rack returns the tiles that remain in the rack after laying
// down the left part
func (lp *LeftPart) Rack() []rune {
	return lp.rack
}

func (lp *LeftPart) String() string {
	return fmt.Sprintf("%s/%s", string(lp.matched), string(lp.rack))
}

// Init initializes a fresh LeftPermutationNavigator using the given rack,
// looking for left parts of up to maxLeft letters
func (lpn *LeftPermutationNavigator) Init(rack []rune, maxLeft int) {
	lpn.rack = make([]rune, len(rack))
	copy(lpn.rack, rack)
	if maxLeft < 0 {
		maxLeft = 0
	}
	lpn.maxLeft = maxLeft
	lpn.word = make([]rune, 0, maxLeft)
	lpn.stack = make([]leftPermItem, 0, 8)
	lpn.leftParts = make([][]*LeftPart, lpn.maxLeft)
	for i := 0; i < lpn.maxLeft; i++ {
		lpn.leftParts[i] = make([]*LeftPart, 0, 8)
	}
}

// LeftParts returns the left parts of the given length that
// could be found in the rack
func (lpn *LeftPermutationNavigator) LeftParts(length int) []*LeftPart {
	if length < 1 || length > lpn.maxLeft {
		return nil
	}
	return lpn.leftParts[length-1]
}

// PushEdge enters an edge if the rack holds its letter or a blank,
// saving the rack for PopEdge
func (lpn *LeftPermutationNavigator) PushEdge(chr rune) bool {
	if !ContainsRune(lpn.rack, chr) && !ContainsRune(lpn.rack, Wildcard) {
		return false
	}
	lpn.stack = append(lpn.stack, leftPermItem{lpn.rack, lpn.index, len(lpn.word)})
	return true
}

// PopEdge puts the rack back and asks for the next sibling
func (lpn *LeftPermutationNavigator) PopEdge() bool {
	last := len(lpn.stack) - 1
	item := &lpn.stack[last]
	lpn.rack, lpn.index, lpn.word = item.rack, item.index, lpn.word[:item.lenWord]
	lpn.stack = lpn.stack[0:last]
	return true
}

// Done is a no-op for LeftPermutationNavigator
func (lpn *LeftPermutationNavigator) Done() {
}

// IsAccepting returns true while prefixes may still grow
func (lpn *LeftPermutationNavigator) IsAccepting() bool {
	return lpn.index < lpn.maxLeft
}

// Accepts takes the letter, or a blank standing for it, off the rack
func (lpn *LeftPermutationNavigator) Accepts(chr rune) bool {
	exactMatch := ContainsRune(lpn.rack, chr)
	if !exactMatch && !ContainsRune(lpn.rack, Wildcard) {
		return false
	}
	lpn.index++
	if exactMatch {
		lpn.rack = RemoveRune(lpn.rack, chr)
		lpn.word = append(lpn.word, chr)
	} else {
		// Blank
		lpn.rack = RemoveRune(lpn.rack, Wildcard)
		lpn.word = append(lpn.word, unicode.ToLower(chr))
	}
	return true
}

// Accept stores the prefix under its length, whether or not it is
// a word in itself
func (lpn *LeftPermutationNavigator) Accept(matched []rune, final bool, state *navState) {
	ix := len(matched) - 1
	word := make([]rune, len(lpn.word))
	copy(word, lpn.word)
	lpn.leftParts[ix] = append(
		lpn.leftParts[ix],
		&LeftPart{
			matched: word,
			rack:    lpn.rack,
			state:   state,
		},
	)
}

// FindLeftParts returns the prefixes that the rack can spell,
// indexed by length minus one. The longest leaves one tile over
// for the anchor square.
func FindLeftParts(dawg *Dawg, rack []rune) [][]*LeftPart {
	var lpn LeftPermutationNavigator
	lpn.Init(rack, len(rack)-1)
	dawg.NavigateResumable(&lpn)
	return lpn.leftParts
}

// Slot is one position of a Skeleton. A slot with a non-zero Fixed
// rune is already occupied by that letter (lower case for a blank tile
// on the board). Otherwise the slot must be filled from the rack; if
// Constrained is set, only letters in Allowed may go there.
type Slot struct {
	Fixed       rune
	Constrained bool
	Allowed     LetterSet
}

// Skeleton is a partially fixed word, as seen along a board line
type Skeleton []Slot

// Completion is a word found by a CompletionNavigator
type Completion struct {
	// The word, with letters laid down from blank tiles in lower case
	Word string
	// Index of the first letter within the skeleton
	Start int
	// Number of tiles laid down from the rack
	Placed int
	// The tiles left in the rack
	Rack []rune
}

// Outcomes of CompletionNavigator.check()
const (
	mNo = iota + 1
	mBoardTile
	mRackTile
	mBlankTile
)

// CompletionNavigator proceeds along a Skeleton, covering open slots
// with tiles from the rack while obeying constraints from the Dawg
// and from the slots themselves. As final nodes in the Dawg are
// encountered, completions are generated and saved. This is the
// ExtendRight part of the Appel-Jacobson algorithm.
type CompletionNavigator struct {
	dawg   *Dawg
	slots  Skeleton
	index  int
	rack   []rune
	word   []rune
	placed int
	stack  []compItem
	// If whole is set, completions must cover the skeleton to its end.
	// Otherwise they may also stop just before an open slot.
	whole  bool
	minLen int
	// The list of completions found
	results []Completion
}

type compItem struct {
	rack    []rune
	index   int
	lenWord int
	placed  int
}

// Init initializes a fresh CompletionNavigator for a skeleton, starting
// at the given slot index, using the indicated rack
func (cn *CompletionNavigator) Init(dawg *Dawg, slots Skeleton, start int, rack []rune) {
	cn.dawg = dawg
	cn.slots = slots
	cn.index = start
	cn.rack = make([]rune, len(rack))
	copy(cn.rack, rack)
	cn.word = make([]rune, 0, len(slots))
	cn.stack = make([]compItem, 0, len(slots))
	cn.results = make([]Completion, 0)
}

// resumeWith primes the navigator with letters already matched
// before the start slot, such as a left part
func (cn *CompletionNavigator) resumeWith(prefix []rune, placed int) {
	cn.word = append(cn.word, prefix...)
	cn.placed = placed
}

func (cn *CompletionNavigator) check(letter rune) int {
	slot := &cn.slots[cn.index]
	if slot.Fixed != 0 {
		// There is a tile in the slot: must match it exactly
		if unicode.ToUpper(slot.Fixed) == letter {
			return mBoardTile
		}
		return mNo
	}
	if slot.Constrained && !cn.dawg.alphabet.Member(letter, slot.Allowed) {
		return mNo
	}
	if ContainsRune(cn.rack, letter) {
		return mRackTile
	}
	if ContainsRune(cn.rack, Wildcard) {
		return mBlankTile
	}
	return mNo
}

// PushEdge enters an edge whose letter fits the current slot,
// saving the navigator state for PopEdge
func (cn *CompletionNavigator) PushEdge(letter rune) bool {
	if cn.check(letter) == mNo {
		return false
	}
	// Match: save our state and move into the edge
	cn.stack = append(cn.stack, compItem{cn.rack, cn.index, len(cn.word), cn.placed})
	return true
}

// PopEdge restores the state saved by PushEdge
func (cn *CompletionNavigator) PopEdge() bool {
	last := len(cn.stack) - 1
	sp := &cn.stack[last]
	cn.rack, cn.index, cn.word, cn.placed = sp.rack, sp.index, cn.word[:sp.lenWord], sp.placed
	cn.stack = cn.stack[0:last]
	// Every sibling edge is still worth a look
	return true
}

// Done is a no-op for CompletionNavigator
func (cn *CompletionNavigator) Done() {
}

// IsAccepting returns true while the skeleton has slots left and
// there is something to put in the next one
func (cn *CompletionNavigator) IsAccepting() bool {
	if cn.index >= len(cn.slots) {
		// Gone off the end of the skeleton
		return false
	}
	// A fixed slot can be crossed with an empty rack
	return len(cn.rack) > 0 || cn.slots[cn.index].Fixed != 0
}

// Accepts lays the letter in the current slot, from the board,
// the rack or a blank
func (cn *CompletionNavigator) Accepts(letter rune) bool {
	switch cn.check(letter) {
	case mBoardTile:
		cn.word = append(cn.word, cn.slots[cn.index].Fixed)
	case mRackTile:
		cn.rack = RemoveRune(cn.rack, letter)
		cn.word = append(cn.word, letter)
		cn.placed++
	case mBlankTile:
		cn.rack = RemoveRune(cn.rack, Wildcard)
		cn.word = append(cn.word, unicode.ToLower(letter))
		cn.placed++
	default:
		return false
	}
	cn.index++
	return true
}

// Accept saves a completion where a word may end
func (cn *CompletionNavigator) Accept(matched []rune, final bool, state *navState) {
	if !final || len(cn.word) < cn.minLen {
		return
	}
	if cn.index < len(cn.slots) && (cn.whole || cn.slots[cn.index].Fixed != 0) {
		// Doesn't reach the end of the skeleton, or ends
		// right before an occupied slot
		return
	}
	rack := make([]rune, len(cn.rack))
	copy(rack, cn.rack)
	cn.results = append(cn.results, Completion{
		Word:   string(cn.word),
		Start:  cn.index - len(cn.word),
		Placed: cn.placed,
		Rack:   rack,
	})
}
