package model

import (
	"slices"

	"github.com/justyntemme/sortview/internal/debug"
	"github.com/justyntemme/sortview/internal/entry"
	"github.com/justyntemme/sortview/internal/sorter"
)

// AddItem inserts e at its sorted position, or before the dummy when no
// column is active, and returns that position. An entry whose identity is
// already present is updated instead.
func (m *Model) AddItem(e *entry.Entry) int {
	if e == nil {
		return NoPosition
	}
	if _, ok := m.byID[e.ID]; ok {
		return m.UpdateItem(e)
	}

	dummy := m.isDummy(e)
	if dummy {
		m.dummy = e
	}
	key := m.ev.Key(e, dummy)
	pos := m.sorter.InsertionIndex(m.items, -1, key)

	m.obs.LayoutAboutToChange()

	m.items = slices.Insert(m.items, pos, sorter.Item{Entry: e, Key: key})
	m.indexInsert(e)
	m.reindex(pos, len(m.items))
	moved, _ := m.remap(func(p int) int {
		if p >= pos {
			return p + 1
		}
		return p
	})

	m.log.Log(debug.MODEL, "AddItem: %q at %d of %d, %d handles shifted", e.Name, pos, len(m.items), moved)
	m.metrics.Mutation("add")
	m.metrics.HandlesRemapped(moved, 0)
	m.metrics.SetSize(len(m.items), len(m.handles))

	m.obs.LayoutChanged()
	return pos
}

// RemoveItem removes e and returns the position of the current selection
// afterwards. If e held the selection, the selection moves to the entry now
// in the same slot, or to the new last entry, or is cleared when the model
// became empty. Removing an absent entry changes nothing.
func (m *Model) RemoveItem(e *entry.Entry) int {
	current, _ := m.Current()
	if e == nil {
		return current
	}
	pos, ok := m.byID[e.ID]
	if !ok {
		return current
	}
	removed := m.items[pos].Entry

	m.obs.LayoutAboutToChange()

	m.items = slices.Delete(m.items, pos, pos+1)
	m.indexDelete(removed.ID)
	m.reindex(pos, len(m.items))
	moved, detached := m.remap(func(p int) int {
		switch {
		case p == pos:
			return NoPosition
		case p > pos:
			return p - 1
		}
		return p
	})

	if current == pos {
		switch {
		case len(m.items) == 0:
			current = NoPosition
		case pos >= len(m.items):
			current = len(m.items) - 1
		default:
			current = pos
		}
		m.attachCurrent(current)
	} else {
		current, _ = m.Current()
	}

	m.log.Log(debug.MODEL, "RemoveItem: %q from %d, %d shifted, %d detached, current=%d", removed.Name, pos, moved, detached, current)
	m.metrics.Mutation("remove")
	m.metrics.HandlesRemapped(moved, detached)
	m.metrics.SetSize(len(m.items), len(m.handles))

	m.obs.LayoutChanged()
	return current
}

// UpdateItem refreshes e, which replaces the record stored under the same
// identity. An absent entry is added. The model works out by itself whether
// the entry has to move: if its sort position is unchanged, or no column is
// active, only ItemChanged fires. Otherwise the move is reported as one
// structural change. The entry's new position is returned.
func (m *Model) UpdateItem(e *entry.Entry) int {
	if e == nil {
		return NoPosition
	}
	pos, ok := m.byID[e.ID]
	if !ok {
		return m.AddItem(e)
	}

	dummy := m.isDummy(e)
	if dummy {
		m.dummy = e
	}
	key := m.ev.Key(e, dummy)
	target := pos
	if m.ev.Ordered() {
		target = m.sorter.InsertionIndex(m.items, pos, key)
	}

	if target == pos {
		m.items[pos] = sorter.Item{Entry: e, Key: key}
		m.indexRefresh(e)

		m.log.Log(debug.MODEL, "UpdateItem: %q refreshed in place at %d", e.Name, pos)
		m.metrics.Mutation("refresh")

		m.obs.ItemChanged(pos)
		return pos
	}

	m.obs.LayoutAboutToChange()

	m.items = slices.Delete(m.items, pos, pos+1)
	m.items = slices.Insert(m.items, target, sorter.Item{Entry: e, Key: key})
	m.indexRefresh(e)
	m.reindex(min(pos, target), max(pos, target)+1)
	moved, _ := m.remap(func(p int) int {
		switch {
		case p == pos:
			return target
		case pos < target && p > pos && p <= target:
			return p - 1
		case target < pos && p >= target && p < pos:
			return p + 1
		}
		return p
	})

	m.log.Log(debug.MODEL, "UpdateItem: %q moved %d -> %d, %d handles remapped", e.Name, pos, target, moved)
	m.metrics.Mutation("move")
	m.metrics.HandlesRemapped(moved, 0)

	m.obs.LayoutChanged()
	return target
}
