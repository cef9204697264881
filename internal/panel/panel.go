// Package panel keeps a view model in sync with one directory on disk.
package panel

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"

	"github.com/justyntemme/sortview/internal/debug"
	"github.com/justyntemme/sortview/internal/entry"
	"github.com/justyntemme/sortview/internal/fs"
	"github.com/justyntemme/sortview/internal/metrics"
	"github.com/justyntemme/sortview/internal/model"
	"github.com/justyntemme/sortview/internal/sortkey"
	"github.com/justyntemme/sortview/internal/store"
)

// Config wires a panel to its collaborators. Only Lister is required.
type Config struct {
	Lister   *fs.Lister
	Watcher  *fs.Watcher
	Store    *store.DB
	Observer model.Observer
	Logger   *debug.Logger
	Metrics  *metrics.Metrics
	Sort     sortkey.Options // used when no preference is stored
}

// Panel owns a model and serializes every access to it.
type Panel struct {
	lister   *fs.Lister
	watcher  *fs.Watcher
	db       *store.DB
	log      *debug.Logger
	defaults sortkey.Options

	mu    sync.Mutex
	model *model.Model
	dir   string
}

// New creates a panel with an empty model.
func New(cfg Config) *Panel {
	return &Panel{
		lister:   cfg.Lister,
		watcher:  cfg.Watcher,
		db:       cfg.Store,
		log:      cfg.Logger,
		defaults: cfg.Sort,
		model: model.New(cfg.Observer,
			model.WithSortOptions(cfg.Sort),
			model.WithLogger(cfg.Logger),
			model.WithMetrics(cfg.Metrics)),
	}
}

// Dir returns the directory currently shown.
func (p *Panel) Dir() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dir
}

// View runs fn with exclusive access to the model. fn must not keep the
// model beyond the call.
func (p *Panel) View(fn func(m *model.Model)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fn(p.model)
}

// Open lists dir, restores its stored ordering and replaces the model's
// contents. With a watcher configured, dir replaces the previously watched
// directory.
func (p *Panel) Open(ctx context.Context, dir string) error {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return errors.Wrap(err, "resolving directory")
	}
	entries, dummy, err := p.lister.List(ctx, dir)
	if err != nil {
		return err
	}

	opts := p.defaults
	if p.db != nil {
		pref, ok, err := p.db.LoadSort(ctx, dir)
		if err != nil {
			p.log.Errorf("panel: %v", err)
		} else if ok {
			opts.Column = pref.Column
			opts.Direction = pref.Direction
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.watcher != nil {
		if p.dir != "" && p.dir != dir {
			p.watcher.Unwatch(p.dir)
		}
		if err := p.watcher.Watch(dir); err != nil {
			return err
		}
	}

	p.model.Reload(opts, entries, dummy)
	p.dir = dir
	p.log.Log(debug.MODEL, "panel: opened %s with %d entries, sort %s %s", dir, p.model.Len(), opts.Column, opts.Direction)
	return nil
}

// SetSort re-sorts the model and remembers the choice for the current
// directory.
func (p *Panel) SetSort(ctx context.Context, column sortkey.Column, direction sortkey.Direction) error {
	p.mu.Lock()
	p.model.Sort(column, direction)
	dir := p.dir
	p.mu.Unlock()

	if p.db == nil || dir == "" {
		return nil
	}
	return p.db.SaveSort(ctx, dir, store.SortPref{Column: column, Direction: direction})
}

// Apply brings the model up to date with one change event and returns the
// affected position, or model.NoPosition when nothing in the model changed.
// Events for other directories are ignored.
func (p *Panel) Apply(ev fs.Event) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.dir == "" || filepath.Clean(ev.Dir) != p.dir {
		return model.NoPosition
	}
	path := filepath.Clean(ev.Path)

	if path == p.dir {
		if ev.Op == fs.Removed {
			p.log.Log(debug.WATCH, "panel: %s was removed", p.dir)
			p.model.Clear()
		}
		return model.NoPosition
	}

	if ev.Op != fs.Removed {
		e, err := p.lister.Stat(path)
		if err == nil {
			if p.lister.Hidden(e.Name) {
				return model.NoPosition
			}
			return p.model.UpdateItem(e)
		}
		// Gone again before we got to it.
		p.log.Log(debug.WATCH, "panel: %v", err)
	}
	return p.remove(path)
}

func (p *Panel) remove(path string) int {
	id, ok := p.lister.Known(path)
	if !ok {
		return model.NoPosition
	}
	p.lister.Forget(path)
	pos, ok := p.model.PositionOf(id)
	if !ok {
		return model.NoPosition
	}
	e, _ := p.model.EntryAt(pos)
	p.model.RemoveItem(e)
	return pos
}

// Run applies watcher events until ctx is done or the watcher is closed.
func (p *Panel) Run(ctx context.Context) error {
	if p.watcher == nil {
		return errors.New("panel has no watcher")
	}
	events := p.watcher.Events()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			pos := p.Apply(ev)
			p.log.Log(debug.WATCH, "panel: applied %s %s at %d", ev.Op, ev.Path, pos)
		}
	}
}

// Snapshot returns the entries in display order.
func (p *Panel) Snapshot() []*entry.Entry {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.model.Entries()
}
