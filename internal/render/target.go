package render

import (
	"bytes"
	"html/template"
	"io"
	"strconv"
	"sync"
	"time"
)

// Mode is what a target currently shows
type Mode string

const (
	ModeIdle     Mode = "idle"
	ModeProgress Mode = "progress"
	ModeMessage  Mode = "message"
)

// View is a point-in-time copy of a target's content
type View struct {
	Name       string    `json:"name"`
	Mode       Mode      `json:"mode"`
	Percent    int       `json:"percent"`
	Text       string    `json:"text,omitempty"`
	Indicators int       `json:"indicators"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Target models the page region owning the progress indicator. It is safe
// for concurrent use.
type Target struct {
	mu         sync.RWMutex
	name       string
	mode       Mode
	percent    int
	text       string
	indicators int
	updatedAt  time.Time
}

// NewTarget creates an idle target
func NewTarget(name string) *Target {
	return &Target{
		name:      name,
		mode:      ModeIdle,
		updatedAt: time.Now().UTC(),
	}
}

// Name returns the target name
func (t *Target) Name() string {
	return t.name
}

// Reset empties the target and removes any indicator
func (t *Target) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.mode = ModeIdle
	t.percent = 0
	t.text = ""
	t.indicators = 0
	t.updatedAt = time.Now().UTC()
}

// ShowProgress shows a single bar at percent, clamped to [0,100]. A bar
// already shown is updated in place.
func (t *Target) ShowProgress(percent int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.mode != ModeProgress {
		// A message is replaced; an existing bar is updated in place
		t.text = ""
		t.indicators = 1
	}
	t.mode = ModeProgress
	t.percent = clamp(percent)
	t.updatedAt = time.Now().UTC()
}

// ShowMessage replaces the target content with text
func (t *Target) ShowMessage(text string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.mode = ModeMessage
	t.text = text
	t.indicators = 0
	t.updatedAt = time.Now().UTC()
}

// View returns a copy of the current content
func (t *Target) View() View {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return View{
		Name:       t.name,
		Mode:       t.mode,
		Percent:    t.percent,
		Text:       t.text,
		Indicators: t.indicators,
		UpdatedAt:  t.updatedAt,
	}
}

// Text returns the visible text of the target
func (t *Target) Text() string {
	v := t.View()
	switch v.Mode {
	case ModeMessage:
		return v.Text
	case ModeProgress:
		return percentLabel(v.Percent)
	default:
		return ""
	}
}

var fragmentTemplate = template.Must(template.New("progressbar").Funcs(template.FuncMap{
	"label": percentLabel,
}).Parse(`<div id="{{.Name}}">
{{- if eq .Mode "progress" -}}
<div class="text-white progress"><div class="progress-bar bg-danger" role="progressbar" style="width: {{.Percent}}%;" aria-valuenow="{{.Percent}}" aria-valuemin="0" aria-valuemax="100">{{label .Percent}}</div></div>
{{- else if eq .Mode "message" -}}
<span style="color: white;">{{.Text}}</span>
{{- end -}}
</div>`))

// WriteFragment renders the target as the dashboard's bootstrap markup
func (t *Target) WriteFragment(w io.Writer) error {
	return fragmentTemplate.Execute(w, t.View())
}

// Fragment is WriteFragment into a string
func (t *Target) Fragment() (string, error) {
	var buf bytes.Buffer
	if err := t.WriteFragment(&buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func percentLabel(percent int) string {
	return strconv.Itoa(percent) + "%"
}
