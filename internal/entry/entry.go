// Package entry defines the records tracked by the panel view model.
package entry

import (
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Entry is a single file-system item as seen by the view model. Entries are
// owned by the supplier that created them; the model only keeps pointers.
type Entry struct {
	ID       uuid.UUID // Stable for the lifetime of the logical entry
	Name     string
	Location string // Full path or other unique location key
	Size     int64  // Non-positive for directories means not computed
	ModTime  time.Time
	Mode     fs.FileMode
	Owner    string
	Group    string
	Mime     string

	IsDir        bool
	IsSymlink    bool
	IsBrokenLink bool
	IsExecutable bool
}

// Kind classifies an entry for presentation purposes.
type Kind int

const (
	File Kind = iota
	Directory
	Executable
	Symlink
	BrokenSymlink
)

func (k Kind) String() string {
	switch k {
	case Directory:
		return "directory"
	case Executable:
		return "executable"
	case Symlink:
		return "symlink"
	case BrokenSymlink:
		return "broken-symlink"
	default:
		return "file"
	}
}

// Classify returns the entry's kind. Symlinks win over the type of their
// target, and a broken link wins over everything.
func (e *Entry) Classify() Kind {
	switch {
	case e.IsSymlink && e.IsBrokenLink:
		return BrokenSymlink
	case e.IsSymlink:
		return Symlink
	case e.IsDir:
		return Directory
	case e.IsExecutable:
		return Executable
	default:
		return File
	}
}

// SizeKnown reports whether Size carries a real value. Directory sizes are
// only known once something has computed them.
func (e *Entry) SizeKnown() bool {
	return !e.IsDir || e.Size > 0
}

// Permissions renders the permission bits either as a four digit octal
// number or in rwx notation.
func (e *Entry) Permissions(numeric bool) string {
	if numeric {
		return fmt.Sprintf("%04o", e.PermissionBits())
	}
	s := e.Mode.Perm().String()
	// FileMode.String prefixes the type character; drop it.
	return s[1:]
}

// PermissionBits returns the Unix permission bits, setuid, setgid and
// sticky included.
func (e *Entry) PermissionBits() uint32 {
	return uint32(e.Mode.Perm()) | specialBits(e.Mode)
}

// specialBits maps Go's setuid/setgid/sticky flags onto their octal values.
func specialBits(m fs.FileMode) uint32 {
	var bits uint32
	if m&fs.ModeSetuid != 0 {
		bits |= 04000
	}
	if m&fs.ModeSetgid != 0 {
		bits |= 02000
	}
	if m&fs.ModeSticky != 0 {
		bits |= 01000
	}
	return bits
}

// SplitExtension splits name into base and extension. Directories never
// have an extension, and neither do dotfiles like ".bashrc" or virtual
// names such as "/dir/.file". An atomic extension (".tar.gz") is kept whole
// when the name ends with it and is not the extension itself.
func SplitExtension(name string, isDir bool, atomic []string) (base, ext string) {
	if isDir {
		return name, ""
	}
	loc := strings.LastIndexByte(name, '.')
	if loc <= 0 || strings.LastIndexByte(name, '/') >= loc {
		return name, ""
	}
	for _, a := range atomic {
		if a != "" && strings.HasSuffix(name, a) && name != a {
			loc = len(name) - len(a)
			break
		}
	}
	return name[:loc], strings.TrimPrefix(name[loc:], ".")
}
