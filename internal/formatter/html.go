package formatter

import (
	"bytes"

	"github.com/yildizm/prhistory/internal/history"
	"github.com/yildizm/prhistory/internal/render"
)

type htmlFormatter struct{}

// NewHTML creates a formatter producing the portal's table fragment
func NewHTML() Formatter {
	return &htmlFormatter{}
}

func (f *htmlFormatter) Format(snap *history.Snapshot) ([]byte, error) {
	var b bytes.Buffer
	if err := render.WriteHTML(&b, snap.Rows, snap.LoadMoreVisible); err != nil {
		return nil, err
	}
	b.WriteString("\n")
	return b.Bytes(), nil
}
