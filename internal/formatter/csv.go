package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/yildizm/prhistory/internal/history"
)

// csvFormatter formats the window as CSV rows
type csvFormatter struct{}

// NewCSV creates a new CSV formatter
func NewCSV() Formatter {
	return &csvFormatter{}
}

func (f *csvFormatter) Format(snap *history.Snapshot) ([]byte, error) {
	var b bytes.Buffer
	writer := csv.NewWriter(&b)

	if err := writer.Write([]string{"Index", "Level", "Event"}); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	levels := classify(snap.Rows)
	for i, row := range snap.Rows {
		record := []string{strconv.Itoa(snap.DisplayIndex + i), levels[i], row}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush CSV: %w", err)
	}
	return b.Bytes(), nil
}
