package formatter

import (
	"encoding/json"

	"github.com/yildizm/prhistory/internal/history"
)

// jsonFormatter formats output as JSON
type jsonFormatter struct{}

// NewJSON creates a new JSON formatter
func NewJSON() Formatter {
	return &jsonFormatter{}
}

// WindowOutput is the JSON shape of a history window
type WindowOutput struct {
	Events       []EventOutput `json:"events"`
	DisplayIndex int           `json:"display_index"`
	ReloadIndex  int           `json:"reload_index"`
	Total        int           `json:"total_events"`
	LoadMore     bool          `json:"load_more"`
	Error        string        `json:"error,omitempty"`
}

// EventOutput is one rendered history event
type EventOutput struct {
	Index int    `json:"index"`
	Level string `json:"level,omitempty"`
	Text  string `json:"text"`
}

func (f *jsonFormatter) Format(snap *history.Snapshot) ([]byte, error) {
	levels := classify(snap.Rows)

	output := &WindowOutput{
		Events:       make([]EventOutput, 0, len(snap.Rows)),
		DisplayIndex: snap.DisplayIndex,
		ReloadIndex:  snap.ReloadIndex,
		Total:        snap.Total,
		LoadMore:     snap.LoadMoreVisible,
	}
	for i, row := range snap.Rows {
		output.Events = append(output.Events, EventOutput{
			Index: snap.DisplayIndex + i,
			Level: levels[i],
			Text:  row,
		})
	}
	if snap.LastError != nil {
		output.Error = snap.LastError.Error()
	}

	return json.MarshalIndent(output, "", "  ")
}
