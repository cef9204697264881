package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/justyntemme/sortview/internal/entry"
	"github.com/justyntemme/sortview/internal/model"
	"github.com/justyntemme/sortview/internal/sortkey"
)

var (
	dirColor    = color.New(color.FgBlue, color.Bold)
	linkColor   = color.New(color.FgCyan)
	brokenColor = color.New(color.FgRed)
	execColor   = color.New(color.FgGreen)
	headerColor = color.New(color.Bold)
)

func colorName(kind entry.Kind, name string) string {
	switch kind {
	case entry.Directory:
		return dirColor.Sprint(name)
	case entry.Symlink:
		return linkColor.Sprint(name)
	case entry.BrokenSymlink:
		return brokenColor.Sprint(name)
	case entry.Executable:
		return execColor.Sprint(name)
	}
	return name
}

// longColumns are printed in this order. The name comes last so colored
// names don't disturb the alignment.
var longColumns = []sortkey.Column{
	sortkey.Permissions, sortkey.Owner, sortkey.Group, sortkey.Size, sortkey.Modified, sortkey.Name,
}

// printNames writes one name per line.
func printNames(w io.Writer, m *model.Model) {
	for pos := 0; pos < m.Len(); pos++ {
		name, _ := m.Content(pos, sortkey.Name)
		kind, _, _ := m.Classify(pos)
		fmt.Fprintln(w, colorName(kind, name))
	}
}

// printTable writes an ls -l style table.
func printTable(w io.Writer, m *model.Model) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for pos := 0; pos < m.Len(); pos++ {
		kind, _, _ := m.Classify(pos)
		for i, col := range longColumns {
			text, _ := m.Content(pos, col)
			if col == sortkey.Name {
				text = colorName(kind, text)
			}
			if i > 0 {
				fmt.Fprint(tw, "\t")
			}
			fmt.Fprint(tw, text)
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}

func printHeader(w io.Writer, format string, args ...interface{}) {
	headerColor.Fprintf(w, format+"\n", args...)
}
