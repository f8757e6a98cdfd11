package render

// Sink is the presentation side of a render target. The monitor never
// touches presentation except through it.
type Sink interface {
	// Reset clears the target back to idle
	Reset()
	// ShowProgress draws or updates the single progress indicator
	ShowProgress(percent int)
	// ShowMessage replaces the indicator with a final message
	ShowMessage(text string)
}

// Fanout forwards every call to each sink in order
type Fanout []Sink

// Reset resets every sink
func (f Fanout) Reset() {
	for _, s := range f {
		s.Reset()
	}
}

// ShowProgress forwards the percentage to every sink
func (f Fanout) ShowProgress(percent int) {
	for _, s := range f {
		s.ShowProgress(percent)
	}
}

// ShowMessage forwards the message to every sink
func (f Fanout) ShowMessage(text string) {
	for _, s := range f {
		s.ShowMessage(text)
	}
}

// clamp keeps a percentage inside [0,100]
func clamp(percent int) int {
	if percent < 0 {
		return 0
	}
	if percent > 100 {
		return 100
	}
	return percent
}
