// Package fs supplies entries for a panel: a single-level directory lister
// and a debounced change watcher.
package fs

import (
	"context"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/charlievieth/fastwalk"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/justyntemme/sortview/internal/debug"
	"github.com/justyntemme/sortview/internal/entry"
)

// DummyName is the name of the parent placeholder.
const DummyName = ".."

// ListerOptions controls what a listing contains.
type ListerOptions struct {
	ShowDotfiles bool
	Dummy        bool // add a ".." placeholder for non-root directories
}

// Lister reads directories into entries. Every path keeps the same identity
// for the lifetime of the Lister until it is forgotten, so a re-listing or a
// Stat of a known path refers to the entry already in a model.
type Lister struct {
	opts ListerOptions
	log  *debug.Logger

	mu  sync.Mutex
	ids map[string]uuid.UUID

	names *idNames
}

// NewLister creates a lister. log may be nil.
func NewLister(opts ListerOptions, log *debug.Logger) *Lister {
	return &Lister{
		opts:  opts,
		log:   log,
		ids:   make(map[string]uuid.UUID),
		names: newIDNames(),
	}
}

// Options returns the listing options.
func (l *Lister) Options() ListerOptions { return l.opts }

// Identity returns the identity assigned to path, assigning a new one if
// the path hasn't been seen.
func (l *Lister) Identity(path string) uuid.UUID {
	path = filepath.Clean(path)
	l.mu.Lock()
	defer l.mu.Unlock()
	id, ok := l.ids[path]
	if !ok {
		id = uuid.New()
		l.ids[path] = id
	}
	return id
}

// Known returns the identity of path without assigning one.
func (l *Lister) Known(path string) (uuid.UUID, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	id, ok := l.ids[filepath.Clean(path)]
	return id, ok
}

// Forget drops the identity of path. A file created later under the same
// path is a new entry.
func (l *Lister) Forget(path string) {
	l.mu.Lock()
	delete(l.ids, filepath.Clean(path))
	l.mu.Unlock()
}

// Hidden reports whether name is filtered out by the options.
func (l *Lister) Hidden(name string) bool {
	return !l.opts.ShowDotfiles && strings.HasPrefix(name, ".") && name != DummyName
}

// List reads the direct children of dir. The dummy is nil for the root
// directory or when disabled. Entries that can't be stat'ed are skipped.
func (l *Lister) List(ctx context.Context, dir string) ([]*entry.Entry, *entry.Entry, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return nil, nil, errors.Wrap(err, "resolving directory")
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "listing %s", dir)
	}
	if !info.IsDir() {
		return nil, nil, errors.Errorf("listing %s: not a directory", dir)
	}
	l.log.Log(debug.FS, "List: reading %q", dir)

	var (
		mu     sync.Mutex
		result []*entry.Entry
	)
	conf := &fastwalk.Config{Follow: true}
	err = fastwalk.Walk(conf, dir, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			l.log.Log(debug.FS_ENTRY, "List: walk error at %q: %v", path, err)
			return nil
		}
		if path == dir {
			return nil
		}
		if filepath.Dir(path) != dir {
			if d.IsDir() {
				return fastwalk.SkipDir
			}
			return nil
		}

		if !l.Hidden(d.Name()) {
			e, err := l.Stat(path)
			if err != nil {
				l.log.Log(debug.FS_ENTRY, "List: skipping %q: %v", d.Name(), err)
			} else {
				mu.Lock()
				result = append(result, e)
				mu.Unlock()
			}
		}
		if d.IsDir() {
			return fastwalk.SkipDir
		}
		return nil
	})
	if err != nil {
		return nil, nil, errors.Wrapf(err, "listing %s", dir)
	}

	var dummy *entry.Entry
	if l.opts.Dummy && filepath.Dir(dir) != dir {
		dummy = l.parent(dir)
	}
	l.log.Log(debug.FS, "List: %d entries in %q (dummy=%v)", len(result), dir, dummy != nil)
	return result, dummy, nil
}

// Stat builds the entry for a single path. A symlink whose target is
// missing yields an entry describing the link itself.
func (l *Lister) Stat(path string) (*entry.Entry, error) {
	path = filepath.Clean(path)
	linfo, err := os.Lstat(path)
	if err != nil {
		return nil, errors.Wrapf(err, "stat %s", path)
	}

	e := &entry.Entry{
		Name:     filepath.Base(path),
		Location: path,
	}
	info := linfo
	if linfo.Mode()&fs.ModeSymlink != 0 {
		e.IsSymlink = true
		if target, err := os.Stat(path); err == nil {
			info = target
		} else {
			e.IsBrokenLink = true
			l.log.Log(debug.FS_ENTRY, "Stat: %q is a broken link: %v", path, err)
		}
	}

	e.ID = l.Identity(path)
	e.IsDir = info.IsDir()
	e.Size = info.Size()
	if e.IsDir {
		e.Size = 0
	}
	e.ModTime = info.ModTime()
	e.Mode = info.Mode()
	e.IsExecutable = !e.IsDir && info.Mode().Perm()&0o111 != 0
	e.Owner, e.Group = l.names.lookup(info)
	e.Mime = mimeType(e)

	l.log.Log(debug.FS_ENTRY, "Stat: %q dir=%v size=%d mode=%s", e.Name, e.IsDir, e.Size, e.Mode)
	return e, nil
}

func (l *Lister) parent(dir string) *entry.Entry {
	up := filepath.Dir(dir)
	d := &entry.Entry{
		ID:       l.Identity(filepath.Join(dir, DummyName)),
		Name:     DummyName,
		Location: up,
		IsDir:    true,
	}
	if info, err := os.Stat(up); err == nil {
		d.ModTime = info.ModTime()
		d.Mode = info.Mode()
		d.Owner, d.Group = l.names.lookup(info)
	}
	return d
}

func mimeType(e *entry.Entry) string {
	switch {
	case e.IsBrokenLink:
		return "inode/symlink"
	case e.IsDir:
		return "inode/directory"
	}
	ext := filepath.Ext(e.Name)
	if ext == "" || ext == e.Name {
		return ""
	}
	t := mime.TypeByExtension(ext)
	if i := strings.IndexByte(t, ';'); i >= 0 {
		t = t[:i]
	}
	return strings.TrimSpace(t)
}

// idNames caches owner and group names by numeric id.
type idNames struct {
	mu     sync.Mutex
	users  map[uint32]string
	groups map[uint32]string
}

func newIDNames() *idNames {
	return &idNames{
		users:  make(map[uint32]string),
		groups: make(map[uint32]string),
	}
}
