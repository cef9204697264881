// Package debug provides categorized debug logging on top of zap.
//
// Unlike a process-wide logger, a *Logger is passed explicitly to the
// components that log. A nil *Logger is valid and discards everything, so
// components never need to check before logging.
package debug

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// EnvVar selects categories, e.g. SORTVIEW_DEBUG=MODEL,SORT or
// SORTVIEW_DEBUG=all or SORTVIEW_DEBUG=none.
const EnvVar = "SORTVIEW_DEBUG"

// Category represents a debug logging category
type Category string

const (
	// Core categories
	MODEL Category = "MODEL" // View model mutations and notifications
	SORT  Category = "SORT"  // Full sorts and insertion points
	FS    Category = "FS"    // Directory listing
	WATCH Category = "WATCH" // Change notifications from the file system
	STORE Category = "STORE" // Sort preference storage
	CLI   Category = "CLI"   // Command handling

	// Detailed subcategories (use sparingly - can be verbose)
	MODEL_HANDLE Category = "MODEL_HANDLE" // Every persistent handle remap
	FS_ENTRY     Category = "FS_ENTRY"     // Individual entry processing
)

// DefaultCategories enables the core categories and leaves the verbose
// ones off.
func DefaultCategories() map[Category]bool {
	return map[Category]bool{
		MODEL:        true,
		SORT:         true,
		FS:           true,
		WATCH:        true,
		STORE:        true,
		CLI:          true,
		MODEL_HANDLE: false,
		FS_ENTRY:     false,
	}
}

// ParseCategories parses a comma separated category list. "all" enables
// every known category, "none" disables them, and an empty spec returns
// the defaults.
func ParseCategories(spec string) map[Category]bool {
	cats := DefaultCategories()
	spec = strings.ToUpper(strings.TrimSpace(spec))
	switch spec {
	case "":
		return cats
	case "ALL":
		for cat := range cats {
			cats[cat] = true
		}
		return cats
	case "NONE":
		for cat := range cats {
			cats[cat] = false
		}
		return cats
	}

	// Disable all first, then enable specified
	for cat := range cats {
		cats[cat] = false
	}
	for _, cat := range strings.Split(spec, ",") {
		cat = strings.TrimSpace(cat)
		if cat != "" {
			cats[Category(cat)] = true
		}
	}
	return cats
}

// CategoriesFromEnv reads EnvVar.
func CategoriesFromEnv() map[Category]bool {
	return ParseCategories(os.Getenv(EnvVar))
}

// Logger writes categorized debug messages to a zap logger.
// The category set is fixed at construction, so a Logger is safe for
// concurrent use.
type Logger struct {
	base    *zap.Logger
	sugar   *zap.SugaredLogger
	enabled map[Category]bool
}

// New wraps base. A nil cats map enables the default categories.
func New(base *zap.Logger, cats map[Category]bool) *Logger {
	if base == nil {
		base = zap.NewNop()
	}
	if cats == nil {
		cats = DefaultCategories()
	}
	enabled := make(map[Category]bool, len(cats))
	for k, v := range cats {
		enabled[k] = v
	}
	return &Logger{
		base:    base,
		sugar:   base.Sugar(),
		enabled: enabled,
	}
}

// Log logs a debug message for the specified category
func (l *Logger) Log(cat Category, format string, args ...interface{}) {
	if l == nil || !l.IsEnabled(cat) {
		return
	}
	l.sugar.Debugw(fmt.Sprintf(format, args...), "category", string(cat))
}

// Errorf logs at error level regardless of categories.
func (l *Logger) Errorf(format string, args ...interface{}) {
	if l == nil {
		return
	}
	l.sugar.Errorf(format, args...)
}

// Infof logs at info level regardless of categories.
func (l *Logger) Infof(format string, args ...interface{}) {
	if l == nil {
		return
	}
	l.sugar.Infof(format, args...)
}

// IsEnabled returns whether a category is enabled
func (l *Logger) IsEnabled(cat Category) bool {
	if l == nil {
		return false
	}
	return l.enabled[cat]
}

// ListEnabled returns the enabled categories, sorted.
func (l *Logger) ListEnabled() []Category {
	if l == nil {
		return nil
	}

	var enabled []Category
	for cat, on := range l.enabled {
		if on {
			enabled = append(enabled, cat)
		}
	}
	sort.Slice(enabled, func(i, j int) bool { return enabled[i] < enabled[j] })
	return enabled
}

// Sync flushes buffered output.
func (l *Logger) Sync() error {
	if l == nil {
		return nil
	}
	return l.base.Sync()
}
