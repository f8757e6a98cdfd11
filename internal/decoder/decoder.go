package decoder

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dandantas/refreshwatch/internal/model"
	"github.com/oliveagle/jsonpath"
)

// FieldPaths holds the JSONPath expression locating each job status field
type FieldPaths struct {
	State   string
	Current string
	Total   string
	Result  string
	Locked  string
	Message string
}

// DefaultFieldPaths matches the dashboard's flat status document
func DefaultFieldPaths() FieldPaths {
	return FieldPaths{
		State:   "$.state",
		Current: "$.current",
		Total:   "$.total",
		Result:  "$.result",
		Locked:  "$.locked",
		Message: "$.status",
	}
}

// Decoder turns a status response body into a model.JobStatus. It is the
// only place where field presence is decided.
type Decoder struct {
	state   *jsonpath.Compiled
	current *jsonpath.Compiled
	total   *jsonpath.Compiled
	result  *jsonpath.Compiled
	locked  *jsonpath.Compiled
	message *jsonpath.Compiled
}

// New compiles the field paths. Empty paths fall back to the defaults.
func New(paths FieldPaths) (*Decoder, error) {
	defaults := DefaultFieldPaths()
	pick := func(value, fallback string) string {
		if value == "" {
			return fallback
		}
		return value
	}

	d := &Decoder{}
	compile := []struct {
		target **jsonpath.Compiled
		expr   string
	}{
		{&d.state, pick(paths.State, defaults.State)},
		{&d.current, pick(paths.Current, defaults.Current)},
		{&d.total, pick(paths.Total, defaults.Total)},
		{&d.result, pick(paths.Result, defaults.Result)},
		{&d.locked, pick(paths.Locked, defaults.Locked)},
		{&d.message, pick(paths.Message, defaults.Message)},
	}

	for _, c := range compile {
		compiled, err := jsonpath.Compile(c.expr)
		if err != nil {
			return nil, fmt.Errorf("invalid JSONPath expression '%s': %w", c.expr, err)
		}
		*c.target = compiled
	}

	return d, nil
}

// MustNew is New for the default paths, which always compile
func MustNew() *Decoder {
	d, err := New(DefaultFieldPaths())
	if err != nil {
		panic(err)
	}
	return d
}

// Decode parses a status body. A missing or non-scalar state is an error;
// malformed counters decode as zero so progress never becomes NaN.
func (d *Decoder) Decode(body []byte) (*model.JobStatus, error) {
	var doc interface{}
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse status JSON: %w", err)
	}

	rawState, ok := lookup(d.state, doc)
	if !ok {
		return nil, errors.New("status document has no state")
	}
	state, err := CoerceToString(rawState)
	if err != nil {
		return nil, fmt.Errorf("invalid state: %w", err)
	}

	status := &model.JobStatus{State: state}

	if raw, ok := lookup(d.current, doc); ok {
		status.Current = d.count("current", raw)
	}
	if raw, ok := lookup(d.total, doc); ok {
		status.Total = d.count("total", raw)
	}

	// Any value under the locked key counts, matching the dashboard which
	// sends a descriptive string rather than a boolean.
	if _, ok := lookup(d.locked, doc); ok {
		status.Locked = true
	}

	if raw, ok := lookup(d.result, doc); ok && raw != nil {
		if result, err := CoerceToString(raw); err == nil {
			status.Result = &result
		} else {
			slog.Debug("Ignoring non-scalar result", "error", err)
		}
	}

	if raw, ok := lookup(d.message, doc); ok && raw != nil {
		if message, err := CoerceToString(raw); err == nil {
			status.Status = message
		}
	}

	return status, nil
}

func (d *Decoder) count(field string, raw interface{}) int {
	n, err := CoerceToCount(raw)
	if err != nil {
		slog.Debug("Malformed counter treated as zero", "field", field, "error", err)
		return 0
	}
	return n
}

// lookup reports whether the expression matched and the value it found
func lookup(path *jsonpath.Compiled, doc interface{}) (interface{}, bool) {
	value, err := path.Lookup(doc)
	if err != nil {
		return nil, false
	}
	return value, true
}
