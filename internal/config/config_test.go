package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/justyntemme/sortview/internal/sortkey"
)

func TestLoad_CreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")
	m := NewManager()
	if err := m.Load(path); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("default config not written: %v", err)
	}
	if diff := cmp.Diff(*DefaultConfig(), m.Get()); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
	if m.Path() != path {
		t.Errorf("Path: expected %s, got %s", path, m.Path())
	}
}

func TestLoad_Formats(t *testing.T) {
	testCases := []struct {
		name    string
		content string
	}{
		{"yaml", "sort:\n  column: size\n  descending: true\nlist:\n  showDotfiles: true\nwatch:\n  debounceMs: 50\n"},
		{"json", `{"sort": {"column": "size", "descending": true}, "list": {"showDotfiles": true}, "watch": {"debounceMs": 50}}`},
	}

	for _, tc := range testCases {
		path := filepath.Join(t.TempDir(), "config."+tc.name)
		if err := os.WriteFile(path, []byte(tc.content), 0o644); err != nil {
			t.Fatal(err)
		}
		m := NewManager()
		if err := m.Load(path); err != nil {
			t.Fatalf("%s: Load: %v", tc.name, err)
		}
		if err := m.ParseError(); err != nil {
			t.Fatalf("%s: ParseError: %v", tc.name, err)
		}

		cfg := m.Get()
		opts, err := cfg.Sort.Options()
		if err != nil {
			t.Fatalf("%s: Options: %v", tc.name, err)
		}
		if opts.Column != sortkey.Size || opts.Direction != sortkey.Descending {
			t.Errorf("%s: expected size desc, got %s %s", tc.name, opts.Column, opts.Direction)
		}
		// Keys absent from the file keep their defaults.
		if !opts.DirsFirst || !cfg.List.Dummy {
			t.Errorf("%s: defaults lost: dirsFirst=%v dummy=%v", tc.name, opts.DirsFirst, cfg.List.Dummy)
		}
		if !cfg.List.ShowDotfiles {
			t.Errorf("%s: showDotfiles not applied", tc.name)
		}
		if got := cfg.Watch.Debounce(); got != 50*time.Millisecond {
			t.Errorf("%s: debounce %s", tc.name, got)
		}
	}
}

func TestLoad_ParseErrorKeepsDefaults(t *testing.T) {
	testCases := []struct {
		name    string
		content string
	}{
		{"syntax", "sort: [unclosed\n"},
		{"bad column", "sort:\n  column: colour\n"},
	}
	for _, tc := range testCases {
		path := filepath.Join(t.TempDir(), "config.yaml")
		if err := os.WriteFile(path, []byte(tc.content), 0o644); err != nil {
			t.Fatal(err)
		}
		m := NewManager()
		if err := m.Load(path); err != nil {
			t.Fatalf("%s: Load should not fail: %v", tc.name, err)
		}
		if m.ParseError() == nil {
			t.Errorf("%s: expected a parse error", tc.name)
		}
		if diff := cmp.Diff(*DefaultConfig(), m.Get()); diff != "" {
			t.Errorf("%s: expected defaults (-want +got):\n%s", tc.name, diff)
		}
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	m := NewManager()
	if err := m.Load(path); err != nil {
		t.Fatal(err)
	}
	m.SetSort(sortkey.Modified, sortkey.Descending)
	m.SetShowDotfiles(true)
	if err := m.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	m2 := NewManager()
	if err := m2.Load(path); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(m.Get(), m2.Get()); diff != "" {
		t.Errorf("round trip mismatch (-saved +loaded):\n%s", diff)
	}
}

func TestGenerateConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	backup, err := GenerateConfig(path)
	if err != nil || backup != "" {
		t.Fatalf("first GenerateConfig: backup=%q err=%v", backup, err)
	}
	if err := os.WriteFile(path, []byte("sort:\n  column: owner\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	backup, err = GenerateConfig(path)
	if err != nil || backup == "" {
		t.Fatalf("second GenerateConfig: backup=%q err=%v", backup, err)
	}
	data, err := os.ReadFile(backup)
	if err != nil || string(data) != "sort:\n  column: owner\n" {
		t.Errorf("backup content %q err=%v", data, err)
	}

	m := NewManager()
	if err := m.Load(path); err != nil {
		t.Fatal(err)
	}
	if m.Get().Sort.Column != "name" {
		t.Errorf("expected regenerated defaults, got column %q", m.Get().Sort.Column)
	}
}

func TestSortOptions(t *testing.T) {
	s := SortConfig{Column: "none", Natural: true, Locale: "de"}
	opts, err := s.Options()
	if err != nil {
		t.Fatal(err)
	}
	if opts.Column != sortkey.None || opts.Direction != sortkey.Ascending || !opts.Natural || opts.Locale != "de" {
		t.Errorf("unexpected options %+v", opts)
	}
	if _, err := (SortConfig{Column: "bogus"}).Options(); err == nil {
		t.Error("expected an error for an unknown column")
	}
}
