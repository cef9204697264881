package fs

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"

	"github.com/justyntemme/sortview/internal/debug"
)

// Op is the kind of change a watcher reports.
type Op int

const (
	Created Op = iota
	Removed
	Changed
)

func (o Op) String() string {
	switch o {
	case Created:
		return "created"
	case Removed:
		return "removed"
	case Changed:
		return "changed"
	}
	return "unknown"
}

// Event is one debounced change to a path inside a watched directory, or
// to the watched directory itself.
type Event struct {
	Op   Op
	Path string
	Dir  string // watched directory the path belongs to
}

// DefaultDebounce is used when no positive interval is configured.
const DefaultDebounce = 200 * time.Millisecond

type pendingChange struct {
	dir     string
	created bool
	last    time.Time
}

// Watcher watches directories and reports per-path changes once a path has
// been quiet for the debounce interval. Bursts of events on one path
// collapse into a single Event whose Op reflects the path's final state.
type Watcher struct {
	watcher  *fsnotify.Watcher
	log      *debug.Logger
	debounce time.Duration

	mu       sync.Mutex
	watching map[string]bool

	events    chan Event
	done      chan struct{}
	closeOnce sync.Once
	closeErr  error
	wg        sync.WaitGroup
}

// NewWatcher starts a watcher. log may be nil.
func NewWatcher(debounce time.Duration, log *debug.Logger) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "creating watcher")
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	dw := &Watcher{
		watcher:  w,
		log:      log,
		debounce: debounce,
		watching: make(map[string]bool),
		events:   make(chan Event, 64),
		done:     make(chan struct{}),
	}
	dw.wg.Add(1)
	go dw.run()
	return dw, nil
}

func (dw *Watcher) run() {
	defer dw.wg.Done()
	defer close(dw.events)

	pending := make(map[string]*pendingChange)
	tick := dw.debounce / 2
	if tick <= 0 {
		tick = dw.debounce
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-dw.done:
			return

		case event, ok := <-dw.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) &&
				!event.Has(fsnotify.Rename) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Chmod) {
				continue
			}

			path := filepath.Clean(event.Name)
			dir := filepath.Dir(path)
			dw.mu.Lock()
			switch {
			case dw.watching[dir]:
			case dw.watching[path]:
				dir = path
			default:
				dw.mu.Unlock()
				continue
			}
			dw.mu.Unlock()

			p := pending[path]
			if p == nil {
				p = &pendingChange{dir: dir}
				pending[path] = p
			}
			if event.Has(fsnotify.Create) {
				p.created = true
			}
			p.last = time.Now()
			dw.log.Log(debug.WATCH, "fsnotify: %s on %s", event.Op, path)

		case err, ok := <-dw.watcher.Errors:
			if !ok {
				return
			}
			dw.log.Log(debug.WATCH, "fsnotify error: %v", err)

		case <-ticker.C:
			now := time.Now()
			for path, p := range pending {
				if now.Sub(p.last) < dw.debounce {
					continue
				}
				delete(pending, path)
				ev := Event{Op: Changed, Path: path, Dir: p.dir}
				if _, err := os.Lstat(path); err != nil {
					ev.Op = Removed
				} else if p.created {
					ev.Op = Created
				}
				select {
				case dw.events <- ev:
					dw.log.Log(debug.WATCH, "event: %s %s", ev.Op, ev.Path)
				case <-dw.done:
					return
				}
			}
		}
	}
}

// Watch adds a directory to the watch list.
func (dw *Watcher) Watch(dir string) error {
	dir = filepath.Clean(dir)
	dw.mu.Lock()
	defer dw.mu.Unlock()

	if dw.watching[dir] {
		return nil
	}
	if err := dw.watcher.Add(dir); err != nil {
		return errors.Wrapf(err, "watching %s", dir)
	}
	dw.watching[dir] = true
	dw.log.Log(debug.WATCH, "now watching %s", dir)
	return nil
}

// Unwatch removes a directory from the watch list.
func (dw *Watcher) Unwatch(dir string) {
	dir = filepath.Clean(dir)
	dw.mu.Lock()
	defer dw.mu.Unlock()

	if !dw.watching[dir] {
		return
	}
	if err := dw.watcher.Remove(dir); err != nil {
		// The directory may already be gone.
		dw.log.Log(debug.WATCH, "unwatching %s: %v", dir, err)
	}
	delete(dw.watching, dir)
	dw.log.Log(debug.WATCH, "stopped watching %s", dir)
}

// Events returns the channel of debounced changes. It is closed by Close.
func (dw *Watcher) Events() <-chan Event {
	return dw.events
}

// Close stops the watcher and closes the event channel. Later calls return
// the first call's result.
func (dw *Watcher) Close() error {
	dw.closeOnce.Do(func() {
		close(dw.done)
		dw.closeErr = dw.watcher.Close()
		dw.wg.Wait()
	})
	return dw.closeErr
}
