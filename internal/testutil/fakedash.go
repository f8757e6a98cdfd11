// Package testutil provides a scripted stand-in for the dashboard's refresh
// endpoints.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
)

// Status bodies as the dashboard serves them

// Pending is a queued job
func Pending() string {
	return body(map[string]interface{}{"state": "PENDING", "current": 0, "total": 1, "status": "Pending..."})
}

// Progress is a running job
func Progress(current, total int) string {
	return body(map[string]interface{}{"state": "PROGRESS", "current": current, "total": total, "status": "Refreshing"})
}

// Success is a finished job reporting a result
func Success(current, total int, result string) string {
	return body(map[string]interface{}{"state": "SUCCESS", "current": current, "total": total, "status": "Task completed!", "result": result})
}

// Failure is a finished job without a result
func Failure(state string) string {
	return body(map[string]interface{}{"state": state, "current": 1, "total": 1, "status": "boom"})
}

// Locked is a job whose progress another consumer reports
func Locked() string {
	return body(map[string]interface{}{"state": "PROGRESS", "current": 1, "total": 4, "status": "", "locked": "Task is Locked"})
}

func body(v map[string]interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(b)
}

// FakeDashboard serves scripted job statuses. Each job has a script of
// bodies; every status request consumes one and the last one repeats.
type FakeDashboard struct {
	server *httptest.Server

	mu           sync.Mutex
	active       string
	scripts      map[string][]string
	polls        map[string][]time.Time
	nextScript   []string
	submits      int
	checks       int
	nextID       int
	inflight     int
	maxInflight  int
	failCheck    bool
	failSubmit   bool
	failStatus   bool
	omitLocation bool
}

// NewFakeDashboard starts a fake dashboard closed on test cleanup
func NewFakeDashboard(t testing.TB) *FakeDashboard {
	t.Helper()

	d := &FakeDashboard{
		scripts: make(map[string][]string),
		polls:   make(map[string][]time.Time),
	}

	r := chi.NewRouter()
	r.Post("/progress/status", d.handleCheck)
	r.Post("/refresh", d.handleSubmit)
	r.Get("/status/{id}", d.handleStatus)

	d.server = httptest.NewServer(r)
	t.Cleanup(d.server.Close)

	return d
}

// URL returns the base URL of the dashboard
func (d *FakeDashboard) URL() string {
	return d.server.URL
}

// AddJob registers a job with its status script
func (d *FakeDashboard) AddJob(id string, script ...string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.scripts[id] = script
}

// SetActive makes the status check report id as running. An empty id means none.
func (d *FakeDashboard) SetActive(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.active = id
}

// OnSubmit sets the script given to the next submitted job
func (d *FakeDashboard) OnSubmit(script ...string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextScript = script
}

// FailCheck makes the status check answer 500
func (d *FakeDashboard) FailCheck(fail bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failCheck = fail
}

// FailSubmit makes refresh submissions answer 500
func (d *FakeDashboard) FailSubmit(fail bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failSubmit = fail
}

// FailStatus makes status requests answer 500
func (d *FakeDashboard) FailStatus(fail bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failStatus = fail
}

// OmitLocation makes accepted submissions leave out the Location header
func (d *FakeDashboard) OmitLocation(omit bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.omitLocation = omit
}

// PollTimes returns when each status request for id arrived
func (d *FakeDashboard) PollTimes(id string) []time.Time {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]time.Time(nil), d.polls[id]...)
}

// Polls returns how many status requests for id arrived
func (d *FakeDashboard) Polls(id string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.polls[id])
}

// Submits returns the number of refresh submissions
func (d *FakeDashboard) Submits() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.submits
}

// Checks returns the number of status checks
func (d *FakeDashboard) Checks() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.checks
}

// MaxInflight returns the highest number of concurrent status requests seen
func (d *FakeDashboard) MaxInflight() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.maxInflight
}

func (d *FakeDashboard) handleCheck(w http.ResponseWriter, r *http.Request) {
	d.mu.Lock()
	d.checks++
	fail, active := d.failCheck, d.active
	d.mu.Unlock()

	if fail {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if active != "" {
		w.Header().Set("Location", "/status/"+active)
		w.WriteHeader(http.StatusAccepted)
	} else {
		w.WriteHeader(http.StatusOK)
	}
	_, _ = w.Write([]byte("{}"))
}

func (d *FakeDashboard) handleSubmit(w http.ResponseWriter, r *http.Request) {
	d.mu.Lock()
	d.submits++
	if d.failSubmit {
		d.mu.Unlock()
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	d.nextID++
	id := fmt.Sprintf("job-%d", d.nextID)
	d.scripts[id] = d.nextScript
	d.active = id
	omit := d.omitLocation
	d.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if !omit {
		w.Header().Set("Location", "/status/"+id)
	}
	w.WriteHeader(http.StatusAccepted)
	_, _ = w.Write([]byte("{}"))
}

func (d *FakeDashboard) handleStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	d.mu.Lock()
	d.polls[id] = append(d.polls[id], time.Now())
	d.inflight++
	if d.inflight > d.maxInflight {
		d.maxInflight = d.inflight
	}
	fail := d.failStatus
	script, known := d.scripts[id]
	var next string
	if known && len(script) > 0 {
		next = script[0]
		if len(script) > 1 {
			d.scripts[id] = script[1:]
		}
	}
	d.mu.Unlock()

	defer func() {
		d.mu.Lock()
		d.inflight--
		d.mu.Unlock()
	}()

	switch {
	case fail:
		http.Error(w, "internal error", http.StatusInternalServerError)
	case next == "":
		http.Error(w, "unknown job", http.StatusNotFound)
	default:
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(next))
	}
}
