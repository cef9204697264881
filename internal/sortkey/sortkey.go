// Package sortkey turns entries into ordering keys for a configured sort
// column and compares those keys.
package sortkey

import (
	"bytes"
	"cmp"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/justyntemme/sortview/internal/entry"
)

// Extractor supplies externally computed sort data for an entry, for
// example a directory size calculated in the background. The second result
// reports whether data is available.
type Extractor func(e *entry.Entry) (int64, bool)

// Options configures ordering.
type Options struct {
	Column             Column
	Direction          Direction
	DirsFirst          bool
	CaseSensitive      bool
	Natural            bool // "file10" after "file9"
	NumericPermissions bool
	Locale             string // BCP 47 tag used for collation
	AtomicExtensions   []string
	Extractor          Extractor
}

// DefaultOptions sorts by name, directories first, case-insensitive.
func DefaultOptions() Options {
	return Options{
		Column:           Name,
		Direction:        Ascending,
		DirsFirst:        true,
		Natural:          true,
		AtomicExtensions: []string{".tar.gz", ".tar.bz2", ".tar.xz", ".tar.zst"},
	}
}

// Key is a snapshot of everything ordering needs to know about an entry.
// Keys are computed once per mutation and cached by the model, so entries
// mutated in place by their owner don't corrupt the order.
type Key struct {
	dummy bool
	dir   bool

	text  []byte // collation key of the primary column
	text2 []byte // secondary text, the base name for Extension
	num   int64  // numeric primary column

	hasCustom bool
	custom    int64

	name []byte
}

// IsDummy reports whether the key belongs to the placeholder entry.
func (k Key) IsDummy() bool { return k.dummy }

// Evaluator computes and compares keys. It is not safe for concurrent use.
type Evaluator struct {
	opts     Options
	collator *collate.Collator
	buf      collate.Buffer
}

// NewEvaluator builds an evaluator for opts.
func NewEvaluator(opts Options) *Evaluator {
	tag := language.Und
	if opts.Locale != "" {
		tag = language.Make(opts.Locale)
	}
	var copts []collate.Option
	if !opts.CaseSensitive {
		copts = append(copts, collate.IgnoreCase)
	}
	if opts.Natural {
		copts = append(copts, collate.Numeric)
	}
	return &Evaluator{
		opts:     opts,
		collator: collate.New(tag, copts...),
	}
}

// Options returns the configuration the evaluator was built with.
func (ev *Evaluator) Options() Options { return ev.opts }

// Ordered reports whether a sort column is active.
func (ev *Evaluator) Ordered() bool { return ev.opts.Column != None }

func (ev *Evaluator) collateKey(s string) []byte {
	k := ev.collator.KeyFromString(&ev.buf, s)
	return append([]byte(nil), k...)
}

// Key computes the ordering key of e. The dummy entry gets a key that
// compares after every other key regardless of direction.
func (ev *Evaluator) Key(e *entry.Entry, dummy bool) Key {
	if dummy {
		return Key{dummy: true}
	}
	ev.buf.Reset()

	k := Key{
		dir:  e.IsDir,
		name: ev.collateKey(e.Name),
	}

	switch ev.opts.Column {
	case Name:
		k.text = k.name
	case Extension:
		base, ext := entry.SplitExtension(e.Name, e.IsDir, ev.opts.AtomicExtensions)
		k.text = ev.collateKey(ext)
		k.text2 = ev.collateKey(base)
	case Size:
		k.num = e.Size
		if !e.SizeKnown() {
			k.num = -1
		}
	case Type:
		k.text = ev.collateKey(e.Mime)
	case Modified:
		k.num = e.ModTime.UnixNano()
	case Permissions:
		if ev.opts.NumericPermissions {
			k.num = int64(e.PermissionBits())
		} else {
			k.text = []byte(e.Permissions(false))
		}
	case Owner:
		k.text = ev.collateKey(e.Owner)
	case Group:
		k.text = ev.collateKey(e.Group)
	}

	if ev.opts.Extractor != nil {
		k.custom, k.hasCustom = ev.opts.Extractor(e)
	}
	return k
}

// Compare orders a before b (-1), after b (1) or reports a tie (0). The
// dummy and the directories-first rule ignore the direction; everything
// else is reversed for Descending.
func (ev *Evaluator) Compare(a, b Key) int {
	if a.dummy || b.dummy {
		switch {
		case a.dummy && b.dummy:
			return 0
		case a.dummy:
			return 1
		default:
			return -1
		}
	}
	if ev.opts.DirsFirst && a.dir != b.dir {
		if a.dir {
			return -1
		}
		return 1
	}

	c := bytes.Compare(a.text, b.text)
	if c == 0 {
		c = bytes.Compare(a.text2, b.text2)
	}
	if c == 0 {
		c = cmp.Compare(a.num, b.num)
	}
	if c == 0 && a.hasCustom && b.hasCustom {
		c = cmp.Compare(a.custom, b.custom)
	}
	if c == 0 {
		c = bytes.Compare(a.name, b.name)
	}

	if ev.opts.Direction == Descending {
		return -c
	}
	return c
}

// Less is Compare(a, b) < 0.
func (ev *Evaluator) Less(a, b Key) bool {
	return ev.Compare(a, b) < 0
}

// Equal reports whether two keys are indistinguishable for ordering.
func (ev *Evaluator) Equal(a, b Key) bool {
	return ev.Compare(a, b) == 0
}
