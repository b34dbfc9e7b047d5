package formatter

import (
	"fmt"
	"strings"

	"github.com/yildizm/go-logparser"
	"github.com/yildizm/go-termfmt"

	"github.com/yildizm/prhistory/internal/history"
)

// classify detects a log level for each row. Free-text events that carry
// no level yield "".
func classify(rows []string) []string {
	levels := make([]string, len(rows))
	parser := logparser.New()
	for i, row := range rows {
		entries, err := parser.ParseString(row)
		if err != nil || len(entries) != 1 {
			continue
		}
		levels[i] = strings.ToUpper(strings.TrimSpace(entries[0].Level))
	}
	return levels
}

// getLevelEmoji returns the marker for a detected level using go-termfmt
func getLevelEmoji(level string, opts *termfmt.TerminalOptions) string {
	switch level {
	case "FATAL", "ERROR", "ERR":
		return termfmt.GetEmoji("error", opts)
	case "WARN", "WARNING":
		return termfmt.GetEmoji("warning", opts)
	case "INFO":
		return termfmt.GetEmoji("info", opts)
	default:
		return "•"
	}
}

// windowRange describes the 1-based event range in view
func windowRange(snap *history.Snapshot) string {
	if len(snap.Rows) == 0 {
		return "0-0"
	}
	return fmt.Sprintf("%d-%d", snap.DisplayIndex+1, snap.DisplayIndex+len(snap.Rows))
}
