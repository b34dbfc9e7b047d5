package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// PositionBar shows where the visible window sits in the loaded history
type PositionBar struct {
	Width  int
	Offset int
	Span   int
	Total  int

	FilledStyle lipgloss.Style
	EmptyStyle  lipgloss.Style
}

// NewPositionBar creates a position bar of the given width
func NewPositionBar(width int) *PositionBar {
	return &PositionBar{
		Width:       width,
		FilledStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true),
		EmptyStyle:  lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF")),
	}
}

// SetWindow updates the window offset, its length and the list length
func (p *PositionBar) SetWindow(offset, span, total int) {
	p.Offset = offset
	p.Span = span
	p.Total = total
}

// Render renders the bar followed by the 1-based event range
func (p *PositionBar) Render() string {
	if p.Width <= 0 {
		return ""
	}
	if p.Total == 0 || p.Span == 0 {
		return fmt.Sprintf("[%s] 0/0", p.EmptyStyle.Render(strings.Repeat("░", p.Width)))
	}

	start := p.Offset * p.Width / p.Total
	end := (p.Offset + p.Span) * p.Width / p.Total
	if end <= start {
		end = start + 1
	}
	if end > p.Width {
		end = p.Width
		if start >= end {
			start = end - 1
		}
	}

	bar := p.EmptyStyle.Render(strings.Repeat("░", start)) +
		p.FilledStyle.Render(strings.Repeat("█", end-start)) +
		p.EmptyStyle.Render(strings.Repeat("░", p.Width-end))

	return fmt.Sprintf("[%s] %d-%d/%d", bar, p.Offset+1, p.Offset+p.Span, p.Total)
}

var spinnerFrames = []rune("⠋⠙⠹⠸⠼⠴⠦⠧⠇⠏")

// Spinner represents a spinning progress indicator
type Spinner struct {
	Frame int
	Label string
	Style lipgloss.Style
}

// NewSpinner creates a new spinner
func NewSpinner() *Spinner {
	return &Spinner{
		Style: lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true),
	}
}

// Tick advances the spinner animation
func (s *Spinner) Tick() {
	s.Frame = (s.Frame + 1) % len(spinnerFrames)
}

// Render renders the spinner
func (s *Spinner) Render() string {
	spinner := s.Style.Render(string(spinnerFrames[s.Frame]))
	if s.Label != "" {
		return fmt.Sprintf("%s %s", spinner, s.Label)
	}
	return spinner
}
