package formatter

import (
	"fmt"

	"github.com/yildizm/prhistory/internal/history"
)

// Formatter renders a history window for output
type Formatter interface {
	Format(snap *history.Snapshot) ([]byte, error)
}

// New returns the formatter for a format name
func New(format string, color bool) (Formatter, error) {
	switch format {
	case "", "text":
		return NewTerminal(color), nil
	case "json":
		return NewJSON(), nil
	case "markdown":
		return NewMarkdown(), nil
	case "csv":
		return NewCSV(), nil
	case "html":
		return NewHTML(), nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}
