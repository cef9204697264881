package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/justyntemme/sortview/internal/sortkey"
)

type fixture struct {
	dir  string
	home string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	f := fixture{dir: t.TempDir(), home: t.TempDir()}
	for name, size := range map[string]int{"a": 10, "b": 20} {
		path := filepath.Join(f.dir, name)
		if err := os.WriteFile(path, make([]byte, size), 0o644); err != nil {
			t.Fatal(err)
		}
		if err := os.Chmod(path, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(f.dir, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}
	return f
}

func (f fixture) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	base := []string{
		"--config", filepath.Join(f.home, "config.yaml"),
		"--db", filepath.Join(f.home, "prefs.db"),
		"--no-color",
	}
	cmd.SetArgs(append(args, base...))
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func lines(s string) []string {
	return strings.Split(strings.TrimRight(s, "\n"), "\n")
}

func TestLs(t *testing.T) {
	f := newFixture(t)

	testCases := []struct {
		name     string
		args     []string
		expected []string
	}{
		{"default", nil, []string{"sub", "a", "b", ".."}},
		{"size desc", []string{"--sort", "size", "--desc"}, []string{"sub", "b", "a", ".."}},
		{"mixed dirs", []string{"--sort", "name", "--desc", "--dirs-first=false"}, []string{"sub", "b", "a", ".."}},
		{"unordered keeps dummy last", []string{"--sort", "none"}, nil},
	}

	for _, tc := range testCases {
		args := append([]string{"ls", "--names", f.dir}, tc.args...)
		out, _, err := f.run(t, args...)
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		got := lines(out)
		if tc.expected == nil {
			if len(got) != 4 || got[3] != ".." {
				t.Errorf("%s: unexpected listing %v", tc.name, got)
			}
			continue
		}
		if diff := cmp.Diff(tc.expected, got); diff != "" {
			t.Errorf("%s: listing mismatch (-want +got):\n%s", tc.name, diff)
		}
	}
}

func TestLs_Long(t *testing.T) {
	f := newFixture(t)
	out, _, err := f.run(t, "ls", f.dir)
	if err != nil {
		t.Fatal(err)
	}
	got := lines(out)
	if len(got) != 4 {
		t.Fatalf("expected 4 rows, got %q", out)
	}
	if !strings.Contains(got[0], "<DIR>") || !strings.HasSuffix(got[0], "sub") {
		t.Errorf("directory row: %q", got[0])
	}
	if !strings.Contains(got[1], "10 B") || !strings.Contains(got[1], "rw-r--r--") {
		t.Errorf("file row: %q", got[1])
	}

	out, _, err = f.run(t, "ls", "--numeric-perms", f.dir)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(lines(out)[1], "0644") {
		t.Errorf("numeric permissions row: %q", lines(out)[1])
	}
}

func TestSort_RemembersOrdering(t *testing.T) {
	f := newFixture(t)

	if _, _, err := f.run(t, "sort", f.dir, "size", "desc"); err != nil {
		t.Fatalf("sort: %v", err)
	}

	out, _, err := f.run(t, "ls", "--names", f.dir)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"sub", "b", "a", ".."}, lines(out)); diff != "" {
		t.Errorf("stored ordering not applied (-want +got):\n%s", diff)
	}

	// Explicit flags win over the stored ordering.
	out, _, err = f.run(t, "ls", "--names", "--sort", "name", f.dir)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"sub", "a", "b", ".."}, lines(out)); diff != "" {
		t.Errorf("flag ordering mismatch (-want +got):\n%s", diff)
	}

	// "-" is the last directory listed.
	out, _, err = f.run(t, "ls", "--names", "-")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"sub", "b", "a", ".."}, lines(out)); diff != "" {
		t.Errorf("last directory mismatch (-want +got):\n%s", diff)
	}

	if _, _, err := f.run(t, "sort", "--no-store", f.dir, "size"); err == nil {
		t.Error("sort without a store should fail")
	}
	if _, _, err := f.run(t, "sort", f.dir, "colour"); err == nil {
		t.Error("unknown column should fail")
	}
}

func TestParseSortArgs(t *testing.T) {
	testCases := []struct {
		args         []string
		dir          string
		column       sortkey.Column
		direction    sortkey.Direction
		hasDirection bool
		wantErr      bool
	}{
		{[]string{"size"}, "", sortkey.Size, sortkey.Ascending, false, false},
		{[]string{"size", "desc"}, "", sortkey.Size, sortkey.Descending, true, false},
		{[]string{"/tmp", "modified"}, "/tmp", sortkey.Modified, sortkey.Ascending, false, false},
		{[]string{"/tmp", "ext", "asc"}, "/tmp", sortkey.Extension, sortkey.Ascending, true, false},
		{[]string{"/tmp", "bogus"}, "", sortkey.None, sortkey.Ascending, false, true},
		{[]string{"a", "b", "c"}, "", sortkey.None, sortkey.Ascending, false, true},
	}

	for _, tc := range testCases {
		dir, col, d, has, err := parseSortArgs(tc.args)
		if tc.wantErr {
			if err == nil {
				t.Errorf("parseSortArgs(%q): expected an error", tc.args)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseSortArgs(%q): %v", tc.args, err)
			continue
		}
		if dir != tc.dir || col != tc.column || d != tc.direction || has != tc.hasDirection {
			t.Errorf("parseSortArgs(%q): expected %q %s %s %v, got %q %s %s %v",
				tc.args, tc.dir, tc.column, tc.direction, tc.hasDirection, dir, col, d, has)
		}
	}
}

func TestSort_DescFlag(t *testing.T) {
	f := newFixture(t)

	_, errOut, err := f.run(t, "sort", "--desc", f.dir, "size")
	if err != nil {
		t.Fatalf("sort: %v", err)
	}
	if !strings.Contains(errOut, "sorted by size desc") {
		t.Errorf("unexpected confirmation %q", errOut)
	}

	out, _, err := f.run(t, "ls", "--names", f.dir)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"sub", "b", "a", ".."}, lines(out)); diff != "" {
		t.Errorf("stored ordering not applied (-want +got):\n%s", diff)
	}

	// A positional direction wins over the flag.
	if _, _, err := f.run(t, "sort", "--desc", f.dir, "size", "asc"); err != nil {
		t.Fatalf("sort: %v", err)
	}
	out, _, err = f.run(t, "ls", "--names", f.dir)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"sub", "a", "b", ".."}, lines(out)); diff != "" {
		t.Errorf("stored ordering not applied (-want +got):\n%s", diff)
	}
}

func TestWatch_Timeout(t *testing.T) {
	f := newFixture(t)
	out, _, err := f.run(t, "watch", "--names", "--for", "200ms", f.dir)
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	if !strings.Contains(out, f.dir) || !strings.Contains(out, "\nsub\n") {
		t.Errorf("unexpected watch output %q", out)
	}
}

func TestConfigCommands(t *testing.T) {
	f := newFixture(t)

	out, _, err := f.run(t, "config", "show")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "column: name") {
		t.Errorf("config show: %q", out)
	}

	out, errOut, err := f.run(t, "config", "init")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != filepath.Join(f.home, "config.yaml") {
		t.Errorf("config init printed %q", out)
	}
	if !strings.Contains(errOut, "Backed up") {
		t.Errorf("expected a backup notice, got %q", errOut)
	}
}

func TestConfigSet(t *testing.T) {
	f := newFixture(t)
	if err := os.WriteFile(filepath.Join(f.dir, ".hidden"), nil, 0o644); err != nil {
		t.Fatal(err)
	}

	if _, _, err := f.run(t, "config", "set", "sort", "size", "desc"); err != nil {
		t.Fatalf("config set sort: %v", err)
	}
	if _, _, err := f.run(t, "config", "set", "dotfiles", "true"); err != nil {
		t.Fatalf("config set dotfiles: %v", err)
	}

	out, _, err := f.run(t, "config", "show")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"column: size", "descending: true", "showDotfiles: true"} {
		if !strings.Contains(out, want) {
			t.Errorf("config show: missing %q in %q", want, out)
		}
	}

	out, _, err = f.run(t, "ls", "--names", "--no-store", f.dir)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"sub", "b", "a", ".hidden", ".."}, lines(out)); diff != "" {
		t.Errorf("configured defaults not applied (-want +got):\n%s", diff)
	}

	testCases := [][]string{
		{"config", "set", "sort", "colour"},
		{"config", "set", "sort", "size", "sideways"},
		{"config", "set", "dotfiles", "maybe"},
	}
	for _, args := range testCases {
		if _, _, err := f.run(t, args...); err == nil {
			t.Errorf("%q: expected an error", args)
		}
	}
}

func TestBadConfigWarns(t *testing.T) {
	f := newFixture(t)
	if err := os.WriteFile(filepath.Join(f.home, "config.yaml"), []byte("sort: [\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, errOut, err := f.run(t, "ls", "--names", f.dir)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(errOut, "Warning") {
		t.Errorf("expected a warning, got %q", errOut)
	}
}
