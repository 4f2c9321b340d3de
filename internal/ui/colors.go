package ui

import (
	"github.com/charmbracelet/lipgloss"
)

var styles = NewPalette("#7D56F4", "#04B575", "#FF0000", "#FFA500", "#626262")

// struct Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	prompt lipgloss.Style
	ok     lipgloss.Style
	err    lipgloss.Style
	warn   lipgloss.Style
	help   lipgloss.Style
}

func NewPalette(p, s, e, w, h string) *Palette {
	return &Palette{
		prompt: NewBold(p),
		ok:     NewBold(s),
		err:    NewBold(e),
		warn:   NewStyle(w),
		help:   NewEm(h),
	}
}

// Success renders s in the palette's success color.
func (p *Palette) Success(s string) string { return p.ok.Render(s) }

// Error renders s in the palette's error color.
func (p *Palette) Error(s string) string { return p.err.Render(s) }

// Warn renders s in the palette's warning color.
func (p *Palette) Warn(s string) string { return p.warn.Render(s) }

// Success, Error and Warn render with the default palette.
func Success(s string) string { return styles.Success(s) }
func Error(s string) string   { return styles.Error(s) }
func Warn(s string) string    { return styles.Warn(s) }

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}
