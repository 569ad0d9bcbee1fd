package ui

import (
	"Countdown/timer"
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"
)

// Theme colour names for the timer styles.
const (
	ColorNameTimerDefault fyne.ThemeColorName = "timerDefault"
	ColorNameTimerFreeze  fyne.ThemeColorName = "timerFreeze"
	ColorNameTimerLow     fyne.ThemeColorName = "timerLow"
)

// Palette maps timer styles to colours.
type Palette struct {
	Default color.Color
	Freeze  color.Color
	Low     color.Color
}

// DefaultPalette returns white text, ice blue while frozen and red when low.
func DefaultPalette() Palette {
	return Palette{
		Default: color.White,
		Freeze:  color.NRGBA{R: 0x7f, G: 0xd4, B: 0xff, A: 0xff},
		Low:     color.NRGBA{R: 0xff, G: 0x4d, B: 0x4d, A: 0xff},
	}
}

// Color returns the colour for s.
func (p Palette) Color(s timer.Style) color.Color {
	switch s {
	case timer.StyleFreeze:
		return p.Freeze
	case timer.StyleLow:
		return p.Low
	default:
		return p.Default
	}
}

// ColorName returns the theme colour name for s.
func ColorName(s timer.Style) fyne.ThemeColorName {
	switch s {
	case timer.StyleFreeze:
		return ColorNameTimerFreeze
	case timer.StyleLow:
		return ColorNameTimerLow
	default:
		return ColorNameTimerDefault
	}
}

// TextSink renders a timer into a canvas.Text. Updates are scheduled on the
// fyne main goroutine, so it may be driven from the command loop.
type TextSink struct {
	text    *canvas.Text
	palette Palette
	do      func(func())
}

// NewTextSink creates a sink for text using p.
func NewTextSink(text *canvas.Text, p Palette) *TextSink {
	return &TextSink{text: text, palette: p, do: fyne.Do}
}

func (s *TextSink) SetText(text string) {
	s.do(func() {
		s.text.Text = text
		s.text.Refresh()
	})
}

func (s *TextSink) SetStyle(style timer.Style) {
	c := s.palette.Color(style)
	s.do(func() {
		s.text.Color = c
		s.text.Refresh()
	})
}

// RichTextSink renders "label  time" into a single-segment RichText whose
// colour follows the theme colour for the current style.
type RichTextSink struct {
	label   string
	segment *widget.TextSegment
	rich    *widget.RichText
	do      func(func())
}

// NewRichTextSink creates the sink and its RichText widget.
func NewRichTextSink(label string) *RichTextSink {
	seg := &widget.TextSegment{
		Text: label,
		Style: widget.RichTextStyle{
			ColorName: ColorNameTimerDefault,
			TextStyle: fyne.TextStyle{Monospace: true},
		},
	}
	return &RichTextSink{
		label:   label,
		segment: seg,
		rich:    widget.NewRichText(seg),
		do:      fyne.Do,
	}
}

// Widget returns the RichText to place in a layout.
func (s *RichTextSink) Widget() *widget.RichText {
	return s.rich
}

func (s *RichTextSink) SetText(text string) {
	line := text
	if s.label != "" {
		line = s.label + "  " + text
	}
	s.do(func() {
		s.segment.Text = line
		s.rich.Refresh()
	})
}

func (s *RichTextSink) SetStyle(style timer.Style) {
	name := ColorName(style)
	s.do(func() {
		s.segment.Style.ColorName = name
		s.rich.Refresh()
	})
}

var (
	_ timer.Sink = (*TextSink)(nil)
	_ timer.Sink = (*RichTextSink)(nil)
)
