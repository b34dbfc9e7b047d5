package formatter

import (
	"fmt"
	"strings"

	"github.com/yildizm/go-termfmt"

	"github.com/yildizm/prhistory/internal/history"
)

// terminalFormatter formats output as plain text for terminal display using go-termfmt
type terminalFormatter struct {
	opts *termfmt.TerminalOptions
}

// NewTerminal creates a new terminal formatter with optional color support
func NewTerminal(color bool) Formatter {
	opts := termfmt.DefaultOptions()
	opts.Color = color
	opts.Emoji = true
	return &terminalFormatter{opts: opts}
}

// NewPlainTerminal creates a terminal formatter without color or emoji
func NewPlainTerminal() Formatter {
	opts := termfmt.DefaultOptions()
	opts.Color = false
	opts.Emoji = false
	return &terminalFormatter{opts: opts}
}

func (f *terminalFormatter) Format(snap *history.Snapshot) ([]byte, error) {
	var b strings.Builder

	f.writeHeader(&b)
	f.writeEvents(&b, snap)
	f.writeFooter(&b, snap)

	return []byte(b.String()), nil
}

func (f *terminalFormatter) writeHeader(b *strings.Builder) {
	header := "Request History"
	b.WriteString("╔" + strings.Repeat("═", len(header)+2) + "╗\n")
	b.WriteString("║ " + header + " ║\n")
	b.WriteString("╚" + strings.Repeat("═", len(header)+2) + "╝\n\n")
}

// writeEvents writes the window as a tree, one item per event
func (f *terminalFormatter) writeEvents(b *strings.Builder, snap *history.Snapshot) {
	if len(snap.Rows) == 0 {
		b.WriteString("No history events.\n\n")
		return
	}

	levels := classify(snap.Rows)
	items := make([]termfmt.TreeItem, 0, len(snap.Rows))
	for i, row := range snap.Rows {
		items = append(items, termfmt.TreeItem{
			Label: fmt.Sprintf("%s #%d", getLevelEmoji(levels[i], f.opts), snap.DisplayIndex+i+1),
			Value: row,
			Last:  i == len(snap.Rows)-1,
		})
	}

	b.WriteString(termfmt.TreeViewWithOptions(items, f.opts) + "\n\n")
}

func (f *terminalFormatter) writeFooter(b *strings.Builder, snap *history.Snapshot) {
	symbol := termfmt.GetEmoji("statistics", f.opts)
	fmt.Fprintf(b, "%s Events %s of %d, page %d\n", symbol, windowRange(snap), snap.Total, snap.ReloadIndex+1)

	if snap.LoadMoreVisible {
		b.WriteString("• More history available (load more)\n")
	}
	if snap.LastError != nil {
		fmt.Fprintf(b, "%s Failed to load history: %s\n", termfmt.GetEmoji("error", f.opts), snap.LastError)
	}
}
