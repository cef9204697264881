// Package sorter computes full orderings and single-item insertion points
// for keyed entries.
package sorter

import (
	"slices"
	"sort"

	"github.com/justyntemme/sortview/internal/entry"
	"github.com/justyntemme/sortview/internal/sortkey"
)

// Item pairs an entry with the key it was last evaluated to.
type Item struct {
	Entry *entry.Entry
	Key   sortkey.Key
}

// Sorter orders items using an evaluator's comparison.
type Sorter struct {
	ev *sortkey.Evaluator
}

// New returns a sorter comparing with ev.
func New(ev *sortkey.Evaluator) *Sorter {
	return &Sorter{ev: ev}
}

// FullSort returns items in sorted order together with the permutation
// oldToNew, where oldToNew[i] is the new position of items[i]. The sort is
// stable and the dummy, if any, is placed last. With no active column the
// input order is kept apart from moving the dummy.
func (s *Sorter) FullSort(items []Item) ([]Item, []int) {
	order := make([]int, 0, len(items))
	var dummies []int
	for i, it := range items {
		if it.Key.IsDummy() {
			dummies = append(dummies, i)
			continue
		}
		order = append(order, i)
	}

	if s.ev.Ordered() {
		slices.SortStableFunc(order, func(a, b int) int {
			return s.ev.Compare(items[a].Key, items[b].Key)
		})
	}
	order = append(order, dummies...)

	sorted := make([]Item, len(items))
	oldToNew := make([]int, len(items))
	for newPos, oldPos := range order {
		sorted[newPos] = items[oldPos]
		oldToNew[oldPos] = newPos
	}
	return sorted, oldToNew
}

// InsertionIndex returns where an item with key belongs. The sequence
// searched is items with the element at exclude removed (pass -1 to search
// all of items) and the result is a position in that reduced sequence.
//
// The dummy always goes to the end. Without an active column the result is
// the end of the sequence, before a trailing dummy. Otherwise it is the
// first position whose key does not order before key.
func (s *Sorter) InsertionIndex(items []Item, exclude int, key sortkey.Key) int {
	n := len(items)
	if exclude >= 0 && exclude < len(items) {
		n--
	} else {
		exclude = -1
	}
	at := func(i int) sortkey.Key {
		if exclude >= 0 && i >= exclude {
			i++
		}
		return items[i].Key
	}

	if key.IsDummy() {
		return n
	}

	end := n
	if end > 0 && at(end-1).IsDummy() {
		end--
	}
	if !s.ev.Ordered() {
		return end
	}

	return sort.Search(end, func(i int) bool {
		return s.ev.Compare(at(i), key) >= 0
	})
}
