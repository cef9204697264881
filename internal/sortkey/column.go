package sortkey

import (
	"strings"

	"github.com/pkg/errors"
)

// Column selects the attribute entries are ordered by.
type Column int

const (
	Name Column = iota
	Extension
	Size
	Type
	Modified
	Permissions
	Owner
	Group
)

// None disables ordering. A model sorted by None keeps insertion order.
const None Column = -1

var columnNames = map[Column]string{
	None:        "none",
	Name:        "name",
	Extension:   "ext",
	Size:        "size",
	Type:        "type",
	Modified:    "modified",
	Permissions: "perms",
	Owner:       "owner",
	Group:       "group",
}

// Columns lists every orderable column in display order.
var Columns = []Column{Name, Extension, Size, Type, Modified, Permissions, Owner, Group}

func (c Column) String() string {
	if s, ok := columnNames[c]; ok {
		return s
	}
	return "unknown"
}

// ParseColumn accepts the names produced by String plus a few aliases.
func ParseColumn(s string) (Column, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none", "":
		return None, nil
	case "name":
		return Name, nil
	case "ext", "extension":
		return Extension, nil
	case "size":
		return Size, nil
	case "type", "mime":
		return Type, nil
	case "modified", "date", "mtime", "time":
		return Modified, nil
	case "perms", "permissions", "mode":
		return Permissions, nil
	case "owner", "user":
		return Owner, nil
	case "group":
		return Group, nil
	}
	return None, errors.Errorf("unknown sort column %q", s)
}

// Direction is applied uniformly to every column comparison.
type Direction int

const (
	Ascending Direction = iota
	Descending
)

func (d Direction) String() string {
	if d == Descending {
		return "desc"
	}
	return "asc"
}

// ParseDirection parses "asc"/"desc" and their long forms.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "asc", "ascending", "":
		return Ascending, nil
	case "desc", "descending":
		return Descending, nil
	}
	return Ascending, errors.Errorf("unknown sort direction %q", s)
}
