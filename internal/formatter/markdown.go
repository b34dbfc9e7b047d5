package formatter

import (
	"fmt"
	"strings"

	"github.com/yildizm/prhistory/internal/history"
)

// markdownFormatter formats output as a Markdown table
type markdownFormatter struct{}

// NewMarkdown creates a new Markdown formatter
func NewMarkdown() Formatter {
	return &markdownFormatter{}
}

func (f *markdownFormatter) Format(snap *history.Snapshot) ([]byte, error) {
	var b strings.Builder

	b.WriteString("## Request History\n\n")
	fmt.Fprintf(&b, "Showing %s of %d events (page %d)\n\n", windowRange(snap), snap.Total, snap.ReloadIndex+1)

	if len(snap.Rows) == 0 {
		b.WriteString("_No history events._\n")
	} else {
		b.WriteString("| # | Event |\n")
		b.WriteString("|---|-------|\n")
		for i, row := range snap.Rows {
			fmt.Fprintf(&b, "| %d | %s |\n", snap.DisplayIndex+i+1, escapeMarkdownCell(row))
		}
	}

	if snap.LoadMoreVisible {
		b.WriteString("\nMore history is available.\n")
	}
	if snap.LastError != nil {
		fmt.Fprintf(&b, "\n> Failed to load history: %s\n", snap.LastError)
	}

	return []byte(b.String()), nil
}

func escapeMarkdownCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
