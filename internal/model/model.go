// Package model implements the sorted panel view model: an ordered sequence
// of entries with identity, name and location indices and persistent
// position handles that follow their entry across every mutation.
//
// A Model is not safe for concurrent use. Callers serialize access to it,
// typically by owning it from a single goroutine.
package model

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/justyntemme/sortview/internal/debug"
	"github.com/justyntemme/sortview/internal/entry"
	"github.com/justyntemme/sortview/internal/metrics"
	"github.com/justyntemme/sortview/internal/sorter"
	"github.com/justyntemme/sortview/internal/sortkey"
)

// NoPosition is returned wherever no valid position exists.
const NoPosition = -1

// indexKeys remembers what an entry was indexed under, so the indices can
// be cleaned up even if the owner changed the entry in place.
type indexKeys struct {
	name     string
	location string
}

// Model is the sorted view model.
type Model struct {
	obs     Observer
	log     *debug.Logger
	metrics *metrics.Metrics

	ev       *sortkey.Evaluator
	sorter   *sorter.Sorter
	splitExt bool

	items []sorter.Item
	dummy *entry.Entry

	// byID is the only index holding positions; byName and byLocation
	// resolve to identities.
	byID       map[uuid.UUID]int
	byName     map[string]map[uuid.UUID]struct{}
	byLocation map[string]map[uuid.UUID]struct{}
	indexed    map[uuid.UUID]indexKeys

	handles map[*Handle]struct{}
	current *Handle
}

// Option configures a Model.
type Option func(*Model)

// WithSortOptions sets the initial ordering.
func WithSortOptions(opts sortkey.Options) Option {
	return func(m *Model) {
		m.ev = sortkey.NewEvaluator(opts)
	}
}

// WithLogger sets the debug logger.
func WithLogger(l *debug.Logger) Option {
	return func(m *Model) { m.log = l }
}

// WithMetrics sets the metrics sink.
func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Model) { m.metrics = mt }
}

// WithSplitExtensions makes Content show names without their extension,
// for layouts that display the extension in its own column.
func WithSplitExtensions(on bool) Option {
	return func(m *Model) { m.splitExt = on }
}

// New creates an empty model notifying obs. A nil observer is allowed.
func New(obs Observer, opts ...Option) *Model {
	if obs == nil {
		obs = nopObserver{}
	}
	m := &Model{
		obs:     obs,
		handles: make(map[*Handle]struct{}),
		current: &Handle{pos: NoPosition},
	}
	m.resetIndices()
	for _, opt := range opts {
		opt(m)
	}
	if m.ev == nil {
		m.ev = sortkey.NewEvaluator(sortkey.DefaultOptions())
	}
	m.sorter = sorter.New(m.ev)
	return m
}

func (m *Model) resetIndices() {
	m.items = nil
	m.byID = make(map[uuid.UUID]int)
	m.byName = make(map[string]map[uuid.UUID]struct{})
	m.byLocation = make(map[string]map[uuid.UUID]struct{})
	m.indexed = make(map[uuid.UUID]indexKeys)
}

// Options returns the active sort configuration.
func (m *Model) Options() sortkey.Options { return m.ev.Options() }

// Ordered reports whether a sort column governs placement.
func (m *Model) Ordered() bool { return m.ev.Ordered() }

// isDummy compares against the sentinel identity, never a flag on e.
func (m *Model) isDummy(e *entry.Entry) bool {
	return m.dummy != nil && (e == m.dummy || e.ID == m.dummy.ID)
}

// Populate replaces the whole collection. The dummy may or may not be part
// of entries; either way it ends up last. Every outstanding handle,
// including the current selection, is detached.
func (m *Model) Populate(entries []*entry.Entry, dummy *entry.Entry) {
	m.obs.LayoutAboutToChange()
	m.populate(entries, dummy)
	m.obs.LayoutChanged()
}

// Reload replaces the sort configuration and the collection as one
// structural change, without re-sorting the old contents first.
func (m *Model) Reload(opts sortkey.Options, entries []*entry.Entry, dummy *entry.Entry) {
	m.obs.LayoutAboutToChange()
	m.setEvaluator(opts)
	m.populate(entries, dummy)
	m.obs.LayoutChanged()
}

func (m *Model) populate(entries []*entry.Entry, dummy *entry.Entry) {
	detached := m.detachAll()
	m.resetIndices()
	m.dummy = dummy

	items := make([]sorter.Item, 0, len(entries)+1)
	seen := make(map[uuid.UUID]bool, len(entries)+1)
	for _, e := range entries {
		if e == nil || m.isDummy(e) {
			continue
		}
		if seen[e.ID] {
			m.log.Log(debug.MODEL, "Populate: skipping duplicate identity %s (%q)", e.ID, e.Name)
			continue
		}
		seen[e.ID] = true
		items = append(items, sorter.Item{Entry: e, Key: m.ev.Key(e, false)})
	}
	if dummy != nil {
		items = append(items, sorter.Item{Entry: dummy, Key: m.ev.Key(dummy, true)})
	}

	if m.ev.Ordered() {
		items, _ = m.fullSort(items)
	}
	m.items = items
	for _, it := range m.items {
		m.indexInsert(it.Entry)
	}
	m.reindex(0, len(m.items))

	m.log.Log(debug.MODEL, "Populate: %d entries (dummy=%v), %d handles detached", len(m.items), dummy != nil, detached)
	m.metrics.Mutation("populate")
	m.metrics.HandlesRemapped(0, detached)
	m.metrics.SetSize(len(m.items), len(m.handles))
}

// Clear empties the model and detaches every handle eagerly.
func (m *Model) Clear() {
	if len(m.items) == 0 && m.dummy == nil {
		return
	}
	m.obs.LayoutAboutToChange()

	detached := m.detachAll()
	m.resetIndices()
	m.dummy = nil

	m.log.Log(debug.MODEL, "Clear: %d handles detached", detached)
	m.metrics.Mutation("clear")
	m.metrics.HandlesRemapped(0, detached)
	m.metrics.SetSize(0, 0)

	m.obs.LayoutChanged()
}

// Sort changes the sort column and direction, keeping the other options.
func (m *Model) Sort(column sortkey.Column, direction sortkey.Direction) {
	opts := m.ev.Options()
	opts.Column = column
	opts.Direction = direction
	m.SetOptions(opts)
}

// SetOptions replaces the sort configuration. Switching to column None
// freezes the current order and only affects later insertions; any other
// configuration re-sorts the collection.
func (m *Model) SetOptions(opts sortkey.Options) {
	m.setEvaluator(opts)

	if !m.ev.Ordered() {
		m.log.Log(debug.SORT, "SetOptions: unordered, keeping current order of %d entries", len(m.items))
		return
	}
	m.resort()
}

func (m *Model) setEvaluator(opts sortkey.Options) {
	m.ev = sortkey.NewEvaluator(opts)
	m.sorter = sorter.New(m.ev)
}

func (m *Model) resort() {
	m.obs.LayoutAboutToChange()

	for i := range m.items {
		e := m.items[i].Entry
		m.items[i].Key = m.ev.Key(e, m.isDummy(e))
	}
	sorted, oldToNew := m.fullSort(m.items)
	m.items = sorted
	m.reindex(0, len(m.items))
	moved, detached := m.remap(func(pos int) int { return oldToNew[pos] })

	opts := m.ev.Options()
	m.log.Log(debug.SORT, "Sort: column=%s direction=%s entries=%d handles moved=%d", opts.Column, opts.Direction, len(m.items), moved)
	m.metrics.Mutation("sort")
	m.metrics.HandlesRemapped(moved, detached)

	m.obs.LayoutChanged()
}

func (m *Model) fullSort(items []sorter.Item) ([]sorter.Item, []int) {
	start := time.Now()
	sorted, oldToNew := m.sorter.FullSort(items)
	m.metrics.ObserveSort(time.Since(start))
	return sorted, oldToNew
}

// reindex records the positions of items[from:to] in the identity index.
func (m *Model) reindex(from, to int) {
	for i := from; i < to; i++ {
		m.byID[m.items[i].Entry.ID] = i
	}
}

func fileUnder(index map[string]map[uuid.UUID]struct{}, key string, id uuid.UUID) {
	ids := index[key]
	if ids == nil {
		ids = make(map[uuid.UUID]struct{}, 1)
		index[key] = ids
	}
	ids[id] = struct{}{}
}

func unfile(index map[string]map[uuid.UUID]struct{}, key string, id uuid.UUID) {
	if ids := index[key]; ids != nil {
		delete(ids, id)
		if len(ids) == 0 {
			delete(index, key)
		}
	}
}

func (m *Model) indexInsert(e *entry.Entry) {
	fileUnder(m.byName, e.Name, e.ID)
	fileUnder(m.byLocation, e.Location, e.ID)
	m.indexed[e.ID] = indexKeys{name: e.Name, location: e.Location}
}

func (m *Model) indexDelete(id uuid.UUID) {
	keys, ok := m.indexed[id]
	if !ok {
		return
	}
	unfile(m.byName, keys.name, id)
	unfile(m.byLocation, keys.location, id)
	delete(m.indexed, id)
	delete(m.byID, id)
}

// indexRefresh re-files e under its current name and location.
func (m *Model) indexRefresh(e *entry.Entry) {
	keys := m.indexed[e.ID]
	if keys.name == e.Name && keys.location == e.Location {
		return
	}
	pos := m.byID[e.ID]
	m.indexDelete(e.ID)
	m.indexInsert(e)
	m.byID[e.ID] = pos
}

// Len returns the number of entries, dummy included.
func (m *Model) Len() int { return len(m.items) }

// Dummy returns the placeholder entry, if one was configured.
func (m *Model) Dummy() *entry.Entry { return m.dummy }

// EntryAt returns the entry at pos.
func (m *Model) EntryAt(pos int) (*entry.Entry, bool) {
	if pos < 0 || pos >= len(m.items) {
		return nil, false
	}
	return m.items[pos].Entry, true
}

// Entries returns the entries in order. The slice is a copy.
func (m *Model) Entries() []*entry.Entry {
	out := make([]*entry.Entry, len(m.items))
	for i, it := range m.items {
		out[i] = it.Entry
	}
	return out
}

// PositionOf looks an entry up by identity.
func (m *Model) PositionOf(id uuid.UUID) (int, bool) {
	pos, ok := m.byID[id]
	if !ok {
		return NoPosition, false
	}
	return pos, true
}

func (m *Model) lowest(ids map[uuid.UUID]struct{}) (int, bool) {
	best := NoPosition
	for id := range ids {
		if pos := m.byID[id]; best == NoPosition || pos < best {
			best = pos
		}
	}
	return best, best != NoPosition
}

// PositionOfName returns the first position holding an entry called name.
func (m *Model) PositionOfName(name string) (int, bool) {
	return m.lowest(m.byName[name])
}

// PositionsOfName returns every position holding an entry called name, in
// ascending order.
func (m *Model) PositionsOfName(name string) []int {
	ids := m.byName[name]
	if len(ids) == 0 {
		return nil
	}
	out := make([]int, 0, len(ids))
	for id := range ids {
		out = append(out, m.byID[id])
	}
	sort.Ints(out)
	return out
}

// PositionOfLocation looks an entry up by its location key. When several
// entries share a location the first position wins.
func (m *Model) PositionOfLocation(location string) (int, bool) {
	return m.lowest(m.byLocation[location])
}
