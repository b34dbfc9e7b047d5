package render

import (
	"fmt"
	"html/template"
	"io"
)

// TableID is the element id the history fragment is written under
const TableID = "request-history-table"

var tableTemplate = template.Must(template.New("history").Parse(
	`<div id="{{.ID}}" data-load-more="{{if .LoadMore}}shown{{else}}hidden{{end}}">` +
		`<table class="table"> <tbody>` +
		`{{range .Rows}}<tr> <td>{{.}}</td> </tr>{{end}}` +
		`</tbody> </table></div>`))

// WriteHTML writes the history table fragment for rows. Event text is escaped.
func WriteHTML(w io.Writer, rows []string, loadMore bool) error {
	data := struct {
		ID       string
		Rows     []string
		LoadMore bool
	}{TableID, rows, loadMore}

	if err := tableTemplate.Execute(w, data); err != nil {
		return fmt.Errorf("failed to render history table: %w", err)
	}
	return nil
}

// HTMLTarget renders every window change as a fresh fragment, the way the
// portal page replaces the table's inner HTML.
type HTMLTarget struct {
	w        io.Writer
	rows     []string
	loadMore bool
	err      error
}

// NewHTMLTarget creates a render target writing to w
func NewHTMLTarget(w io.Writer) *HTMLTarget {
	return &HTMLTarget{w: w}
}

// Render writes the rows as a new fragment
func (t *HTMLTarget) Render(rows []string) {
	t.rows = rows
	t.write()
}

// SetLoadMoreVisible rewrites the fragment when the affordance flips
func (t *HTMLTarget) SetLoadMoreVisible(visible bool) {
	if visible == t.loadMore {
		return
	}
	t.loadMore = visible
	t.write()
}

// Err returns the first write error, if any
func (t *HTMLTarget) Err() error {
	return t.err
}

func (t *HTMLTarget) write() {
	if t.err != nil {
		return
	}
	if err := WriteHTML(t.w, t.rows, t.loadMore); err != nil {
		t.err = err
		return
	}
	if _, err := io.WriteString(t.w, "\n"); err != nil {
		t.err = err
	}
}
