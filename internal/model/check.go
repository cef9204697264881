package model

import (
	"github.com/pkg/errors"
)

// ErrInconsistentState reports a broken internal invariant. The model can't
// recover from it; only Populate starts over from a clean state.
var ErrInconsistentState = errors.New("view model is in an inconsistent state")

// Check verifies the model's invariants: ordering in ordered mode, the
// dummy in last position, indices agreeing with the sequence and handles
// within range.
func (m *Model) Check() error {
	n := len(m.items)
	if len(m.byID) != n {
		return errors.Wrapf(ErrInconsistentState, "identity index has %d entries, sequence has %d", len(m.byID), n)
	}
	if len(m.indexed) != n {
		return errors.Wrapf(ErrInconsistentState, "index bookkeeping has %d entries, sequence has %d", len(m.indexed), n)
	}

	for i, it := range m.items {
		e := it.Entry
		if e == nil {
			return errors.Wrapf(ErrInconsistentState, "nil entry at %d", i)
		}
		if m.isDummy(e) != it.Key.IsDummy() {
			return errors.Wrapf(ErrInconsistentState, "dummy key mismatch at %d", i)
		}
		if it.Key.IsDummy() && i != n-1 {
			return errors.Wrapf(ErrInconsistentState, "dummy at %d of %d", i, n)
		}
		if pos, ok := m.byID[e.ID]; !ok || pos != i {
			return errors.Wrapf(ErrInconsistentState, "identity index maps %q to %d, sequence has it at %d", e.Name, pos, i)
		}
		keys := m.indexed[e.ID]
		if _, ok := m.byName[keys.name][e.ID]; !ok {
			return errors.Wrapf(ErrInconsistentState, "name index is missing %q", keys.name)
		}
		if _, ok := m.byLocation[keys.location][e.ID]; !ok {
			return errors.Wrapf(ErrInconsistentState, "location index is missing %q", keys.location)
		}
		if m.ev.Ordered() && i > 0 && m.ev.Compare(m.items[i-1].Key, it.Key) > 0 {
			return errors.Wrapf(ErrInconsistentState, "%q at %d sorts before %q at %d",
				e.Name, i, m.items[i-1].Entry.Name, i-1)
		}
	}

	for h := range m.handles {
		if h.pos < 0 || h.pos >= n {
			return errors.Wrapf(ErrInconsistentState, "handle at %d outside [0, %d)", h.pos, n)
		}
	}
	return nil
}
