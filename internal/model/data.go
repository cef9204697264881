package model

import (
	"github.com/dustin/go-humanize"

	"github.com/justyntemme/sortview/internal/entry"
	"github.com/justyntemme/sortview/internal/sortkey"
)

// Flags describe what a consumer may do with the entry at a position.
type Flags uint8

const (
	Selectable Flags = 1 << iota
	Editable
	DragEnabled
	DropEnabled
)

// Has reports whether all bits of f2 are set.
func (f Flags) Has(f2 Flags) bool { return f&f2 == f2 }

// DirLabel is shown instead of a size for directories whose size is unknown.
const DirLabel = "<DIR>"

// Content returns the display text of one column for the entry at pos.
// The dummy only has a name.
func (m *Model) Content(pos int, column sortkey.Column) (string, bool) {
	e, ok := m.EntryAt(pos)
	if !ok {
		return "", false
	}
	opts := m.ev.Options()

	if m.isDummy(e) && column != sortkey.Name && column != sortkey.Size {
		return "", true
	}

	switch column {
	case sortkey.Name:
		if m.splitExt {
			base, _ := entry.SplitExtension(e.Name, e.IsDir, opts.AtomicExtensions)
			return base, true
		}
		return e.Name, true
	case sortkey.Extension:
		_, ext := entry.SplitExtension(e.Name, e.IsDir, opts.AtomicExtensions)
		return ext, true
	case sortkey.Size:
		if !e.SizeKnown() {
			return DirLabel, true
		}
		if e.Size < 0 {
			return humanize.IBytes(0), true
		}
		return humanize.IBytes(uint64(e.Size)), true
	case sortkey.Type:
		return e.Mime, true
	case sortkey.Modified:
		if e.ModTime.IsZero() {
			return "", true
		}
		return e.ModTime.Local().Format("2006-01-02 15:04"), true
	case sortkey.Permissions:
		return e.Permissions(opts.NumericPermissions), true
	case sortkey.Owner:
		return e.Owner, true
	case sortkey.Group:
		return e.Group, true
	}
	return "", true
}

// SortKey returns the cached ordering key of the entry at pos.
func (m *Model) SortKey(pos int) (sortkey.Key, bool) {
	if pos < 0 || pos >= len(m.items) {
		return sortkey.Key{}, false
	}
	return m.items[pos].Key, true
}

// Classify returns the kind and the interaction flags of the entry at pos.
// The dummy accepts drops but can't be selected, renamed or dragged.
func (m *Model) Classify(pos int) (entry.Kind, Flags, bool) {
	e, ok := m.EntryAt(pos)
	if !ok {
		return entry.File, 0, false
	}
	if m.isDummy(e) {
		return e.Classify(), DropEnabled, true
	}
	return e.Classify(), Selectable | Editable | DragEnabled | DropEnabled, true
}
