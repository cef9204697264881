package sortkey

import (
	"io/fs"
	"testing"
	"time"

	"github.com/justyntemme/sortview/internal/entry"
)

func keyOf(ev *Evaluator, e *entry.Entry) Key {
	return ev.Key(e, false)
}

func TestCompare_Columns(t *testing.T) {
	now := time.Now()
	testCases := []struct {
		name     string
		column   Column
		a, b     entry.Entry
		expected int
	}{
		{"name", Name, entry.Entry{Name: "alpha"}, entry.Entry{Name: "beta"}, -1},
		{"name case-insensitive tie", Name, entry.Entry{Name: "Same"}, entry.Entry{Name: "same"}, 0},
		{"name natural", Name, entry.Entry{Name: "file9"}, entry.Entry{Name: "file10"}, -1},
		{"ext", Extension, entry.Entry{Name: "z.a"}, entry.Entry{Name: "a.b"}, -1},
		{"ext falls back to base", Extension, entry.Entry{Name: "b.txt"}, entry.Entry{Name: "a.txt"}, 1},
		{"size", Size, entry.Entry{Name: "x", Size: 10}, entry.Entry{Name: "y", Size: 5}, 1},
		{"size unknown dir", Size, entry.Entry{Name: "d", IsDir: true}, entry.Entry{Name: "f", IsDir: true, Size: 1}, -1},
		{"type", Type, entry.Entry{Name: "a", Mime: "text/plain"}, entry.Entry{Name: "b", Mime: "image/png"}, 1},
		{"modified", Modified, entry.Entry{Name: "a", ModTime: now}, entry.Entry{Name: "b", ModTime: now.Add(time.Second)}, -1},
		{"owner", Owner, entry.Entry{Name: "a", Owner: "root"}, entry.Entry{Name: "b", Owner: "alice"}, 1},
		{"group", Group, entry.Entry{Name: "a", Group: "wheel"}, entry.Entry{Name: "b", Group: "wheel"}, -1},
		{"perms symbolic", Permissions, entry.Entry{Name: "a", Mode: 0o644}, entry.Entry{Name: "b", Mode: 0o755}, -1},
	}

	for _, tc := range testCases {
		opts := DefaultOptions()
		opts.Column = tc.column
		ev := NewEvaluator(opts)
		got := ev.Compare(keyOf(ev, &tc.a), keyOf(ev, &tc.b))
		if got != tc.expected {
			t.Errorf("%s: expected %d, got %d", tc.name, tc.expected, got)
		}
	}
}

func TestCompare_NumericPermissions(t *testing.T) {
	opts := DefaultOptions()
	opts.Column = Permissions
	opts.NumericPermissions = true
	ev := NewEvaluator(opts)

	testCases := []struct {
		name     string
		a, b     fs.FileMode
		expected int
	}{
		{"plain", 0o644, 0o755, -1},
		{"setuid after plain", 0o755 | fs.ModeSetuid, 0o755, 1},
		{"sticky before setgid", 0o777 | fs.ModeSticky, 0o755 | fs.ModeSetgid, -1},
	}
	for _, tc := range testCases {
		a := keyOf(ev, &entry.Entry{Name: "a", Mode: tc.a})
		b := keyOf(ev, &entry.Entry{Name: "a", Mode: tc.b})
		if got := ev.Compare(a, b); got != tc.expected {
			t.Errorf("%s: expected %d, got %d", tc.name, tc.expected, got)
		}
	}
}

func TestCompare_Descending(t *testing.T) {
	opts := DefaultOptions()
	opts.Column = Size
	opts.Direction = Descending
	ev := NewEvaluator(opts)

	small := keyOf(ev, &entry.Entry{Name: "small", Size: 1})
	big := keyOf(ev, &entry.Entry{Name: "big", Size: 100})
	if !ev.Less(big, small) {
		t.Error("descending size: big should sort before small")
	}
}

func TestCompare_DummyAlwaysLast(t *testing.T) {
	for _, dir := range []Direction{Ascending, Descending} {
		opts := DefaultOptions()
		opts.Direction = dir
		ev := NewEvaluator(opts)

		dummy := ev.Key(&entry.Entry{Name: ".."}, true)
		for _, e := range []*entry.Entry{{Name: ""}, {Name: "zzz"}, {Name: "dir", IsDir: true}} {
			k := keyOf(ev, e)
			if ev.Compare(dummy, k) != 1 || ev.Compare(k, dummy) != -1 {
				t.Errorf("%v: dummy should sort after %q", dir, e.Name)
			}
		}
		if !dummy.IsDummy() {
			t.Error("dummy key should report IsDummy")
		}
		if !ev.Equal(dummy, ev.Key(nil, true)) {
			t.Error("two dummy keys should compare equal")
		}
	}
}

func TestCompare_DirsFirstIgnoresDirection(t *testing.T) {
	for _, dir := range []Direction{Ascending, Descending} {
		opts := DefaultOptions()
		opts.Direction = dir
		ev := NewEvaluator(opts)

		d := keyOf(ev, &entry.Entry{Name: "zdir", IsDir: true})
		f := keyOf(ev, &entry.Entry{Name: "afile"})
		if !ev.Less(d, f) {
			t.Errorf("%v: directory should sort before file", dir)
		}
	}

	opts := DefaultOptions()
	opts.DirsFirst = false
	ev := NewEvaluator(opts)
	d := keyOf(ev, &entry.Entry{Name: "zdir", IsDir: true})
	f := keyOf(ev, &entry.Entry{Name: "afile"})
	if !ev.Less(f, d) {
		t.Error("without DirsFirst, names decide")
	}
}

func TestCompare_CustomDataBreaksTies(t *testing.T) {
	opts := DefaultOptions()
	opts.Column = Size
	opts.Extractor = func(e *entry.Entry) (int64, bool) {
		if e.Name == "unknown" {
			return 0, false
		}
		return int64(len(e.Name)), true
	}
	ev := NewEvaluator(opts)

	a := keyOf(ev, &entry.Entry{Name: "zz", Size: 7})
	b := keyOf(ev, &entry.Entry{Name: "aaa", Size: 7})
	if !ev.Less(a, b) {
		t.Error("custom data should order equal sizes before the name tie-break")
	}

	c := keyOf(ev, &entry.Entry{Name: "unknown", Size: 7})
	if !ev.Less(b, c) {
		t.Error("without custom data on both sides, the name should decide")
	}
}

func TestCompare_CaseSensitive(t *testing.T) {
	opts := DefaultOptions()
	opts.CaseSensitive = true
	ev := NewEvaluator(opts)
	if ev.Equal(keyOf(ev, &entry.Entry{Name: "A"}), keyOf(ev, &entry.Entry{Name: "a"})) {
		t.Error("case-sensitive collation should distinguish A and a")
	}
}

func TestParseColumn(t *testing.T) {
	for _, c := range append([]Column{None}, Columns...) {
		got, err := ParseColumn(c.String())
		if err != nil || got != c {
			t.Errorf("ParseColumn(%q): expected %v, got %v (err %v)", c.String(), c, got, err)
		}
	}
	if _, err := ParseColumn("bogus"); err == nil {
		t.Error("ParseColumn(bogus) should fail")
	}
	if _, err := ParseDirection("sideways"); err == nil {
		t.Error("ParseDirection(sideways) should fail")
	}
}

func TestOrdered(t *testing.T) {
	opts := DefaultOptions()
	if !NewEvaluator(opts).Ordered() {
		t.Error("name column should be ordered")
	}
	opts.Column = None
	if NewEvaluator(opts).Ordered() {
		t.Error("None should be unordered")
	}
}
