package render

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

const defaultBarWidth = 40

// Console draws the indicator as a single terminal line
type Console struct {
	mu       sync.Mutex
	w        io.Writer
	width    int
	drawn    bool
	filled   lipgloss.Style
	empty    lipgloss.Style
	label    lipgloss.Style
	message  lipgloss.Style
	lastLine string
}

// NewConsole creates a console sink writing to w
func NewConsole(w io.Writer) *Console {
	r := lipgloss.NewRenderer(w)
	return &Console{
		w:       w,
		width:   defaultBarWidth,
		filled:  r.NewStyle().Foreground(lipgloss.Color("1")),
		empty:   r.NewStyle().Foreground(lipgloss.Color("8")),
		label:   r.NewStyle().Bold(true),
		message: r.NewStyle().Bold(true),
	}
}

// Reset ends the current line if a bar was drawn
func (c *Console) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.drawn {
		fmt.Fprint(c.w, "\n")
	}
	c.drawn = false
	c.lastLine = ""
}

// ShowProgress redraws the bar on the current line, skipping unchanged frames
func (c *Console) ShowProgress(percent int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	percent = clamp(percent)
	n := percent * c.width / 100
	line := c.filled.Render(strings.Repeat("█", n)) +
		c.empty.Render(strings.Repeat("░", c.width-n)) + " " +
		c.label.Render(fmt.Sprintf("%3d%%", percent))

	if line == c.lastLine {
		return
	}
	fmt.Fprint(c.w, "\r"+line)
	c.drawn = true
	c.lastLine = line
}

// ShowMessage prints text on its own line
func (c *Console) ShowMessage(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.drawn {
		fmt.Fprint(c.w, "\n")
	}
	fmt.Fprintln(c.w, c.message.Render(text))
	c.drawn = false
	c.lastLine = ""
}
