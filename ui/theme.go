package ui

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
)

// CustomTheme extends the default theme with the timer style colours.
type CustomTheme struct {
	fyne.Theme
	palette Palette
}

// NewCustomTheme creates a new instance of the custom theme.
func NewCustomTheme(p Palette) fyne.Theme {
	return &CustomTheme{Theme: theme.DefaultTheme(), palette: p}
}

// Color serves the timer colour names and defers everything else.
func (t *CustomTheme) Color(name fyne.ThemeColorName, variant fyne.ThemeVariant) color.Color {
	switch name {
	case ColorNameTimerDefault:
		if variant == theme.VariantLight {
			return t.Theme.Color(theme.ColorNameForeground, variant)
		}
		return t.palette.Default
	case ColorNameTimerFreeze:
		return t.palette.Freeze
	case ColorNameTimerLow:
		return t.palette.Low
	}
	return t.Theme.Color(name, variant)
}
