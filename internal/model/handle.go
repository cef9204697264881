package model

import (
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/justyntemme/sortview/internal/debug"
)

// ErrInvalidPosition is returned when a handle is requested for a position
// outside [0, Len()).
var ErrInvalidPosition = errors.New("position out of range")

// Handle is a persistent reference to whatever entry occupies a position
// when the handle is created. The model moves the handle along with that
// entry and detaches it when the entry is removed. Holders must treat a
// handle as read-only and re-query Position after every notification.
type Handle struct {
	pos int
}

// Position returns the handle's current position, or false once detached.
func (h *Handle) Position() (int, bool) {
	if h == nil || h.pos < 0 {
		return NoPosition, false
	}
	return h.pos, true
}

// Valid reports whether the handle still refers to an entry.
func (h *Handle) Valid() bool {
	_, ok := h.Position()
	return ok
}

// NewHandle creates a handle for the entry currently at pos.
func (m *Model) NewHandle(pos int) (*Handle, error) {
	if pos < 0 || pos >= len(m.items) {
		return nil, errors.Wrapf(ErrInvalidPosition, "position %d of %d", pos, len(m.items))
	}
	h := &Handle{pos: pos}
	m.handles[h] = struct{}{}
	m.metrics.SetSize(len(m.items), len(m.handles))
	return h, nil
}

// HandleOf creates a handle for the entry with the given identity.
func (m *Model) HandleOf(id uuid.UUID) (*Handle, bool) {
	pos, ok := m.byID[id]
	if !ok {
		return nil, false
	}
	h, err := m.NewHandle(pos)
	return h, err == nil
}

// Release stops tracking h and detaches it.
func (m *Model) Release(h *Handle) {
	if h == nil || h == m.current {
		return
	}
	delete(m.handles, h)
	h.pos = NoPosition
	m.metrics.SetSize(len(m.items), len(m.handles))
}

// Handles returns the number of handles the model is tracking, including
// the current selection when it is set.
func (m *Model) Handles() int { return len(m.handles) }

// SetCurrent moves the current selection to pos. A negative pos clears it.
func (m *Model) SetCurrent(pos int) bool {
	if pos < 0 {
		m.attachCurrent(NoPosition)
		return true
	}
	if pos >= len(m.items) {
		return false
	}
	m.attachCurrent(pos)
	return true
}

// Current returns the position of the current selection.
func (m *Model) Current() (int, bool) {
	return m.current.Position()
}

func (m *Model) attachCurrent(pos int) {
	m.current.pos = pos
	if pos == NoPosition {
		delete(m.handles, m.current)
		return
	}
	m.handles[m.current] = struct{}{}
}

// remap moves every tracked handle through fn. Handles mapped to
// NoPosition are detached and dropped.
func (m *Model) remap(fn func(pos int) int) (moved, detached int) {
	for h := range m.handles {
		next := fn(h.pos)
		switch {
		case next == NoPosition:
			m.log.Log(debug.MODEL_HANDLE, "handle at %d detached", h.pos)
			h.pos = NoPosition
			delete(m.handles, h)
			detached++
		case next != h.pos:
			m.log.Log(debug.MODEL_HANDLE, "handle %d -> %d", h.pos, next)
			h.pos = next
			moved++
		}
	}
	return moved, detached
}

func (m *Model) detachAll() int {
	n := len(m.handles)
	for h := range m.handles {
		h.pos = NoPosition
	}
	clear(m.handles)
	return n
}
