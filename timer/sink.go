package timer

// Sink is the display side of a timer. The engine pushes the formatted time
// and the current style; adapters decide how to render them.
type Sink interface {
	SetText(text string)
	SetStyle(style Style)
}

// NopSink discards all output.
type NopSink struct{}

func (NopSink) SetText(string) {}
func (NopSink) SetStyle(Style) {}

// MultiSink fans output out to several sinks.
type MultiSink []Sink

// SetText forwards text to every sink.
func (m MultiSink) SetText(text string) {
	for _, s := range m {
		s.SetText(text)
	}
}

// SetStyle forwards style to every sink.
func (m MultiSink) SetStyle(style Style) {
	for _, s := range m {
		s.SetStyle(style)
	}
}

// Compile-time interface satisfaction checks.
var (
	_ Sink = NopSink{}
	_ Sink = MultiSink(nil)
)
