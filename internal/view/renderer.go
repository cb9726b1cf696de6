// Package view projects collection snapshots into table rows and keeps the
// dashboard statistics. Every Render replaces a table's rows wholesale and
// then recomputes the statistics from the rendered row counts, so the
// numbers always describe what is on screen, not what was last fetched.
package view

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/idilsaglam/violet/internal/model"
	"github.com/idilsaglam/violet/internal/ui"
)

// Action is a control bound to one row.
type Action struct {
	Name string
	Run  func(ctx context.Context) error

	// Disabled marks actions the server is expected to refuse. They stay
	// runnable; the flag only changes how they are drawn.
	Disabled bool
}

// ActionBinder supplies the callbacks for a row's controls. The mutation
// controller implements it.
type ActionBinder interface {
	EditAction(kind model.Kind, id uint64) Action
	DeleteAction(kind model.Kind, id uint64) Action
	AdvanceAction(id uint64, current model.Status) Action
}

// Badge is a status or activity marker with a visual class.
type Badge struct {
	Label string
	Class string
}

// Row is one rendered record.
type Row struct {
	ID      uint64
	Cells   []string
	Badge   *Badge
	Actions []Action
}

// Action returns the row's action with the given name.
func (r Row) Action(name string) (Action, bool) {
	for _, a := range r.Actions {
		if a.Name == name {
			return a, true
		}
	}
	return Action{}, false
}

// Stats are per-collection counts of rendered rows.
type Stats struct {
	Agents  int
	Clients int
	Letters int
}

// Columns is the fixed column order of each table.
var Columns = map[model.Kind][]string{
	model.KindAgents:  {"Name", "Age", "Status", "Letters"},
	model.KindClients: {"Name", "City", "Reason", "Contact"},
	model.KindLetters: {"Client", "Agent", "Date", "Status", "Content"},
}

// Renderer owns the three tables.
type Renderer struct {
	binder ActionBinder

	mu            sync.RWMutex
	rows          map[model.Kind][]Row
	stats         Stats
	clientOptions []ClientOption
	renders       int
}

// ClientOption is an entry of the letter form's client picker.
type ClientOption struct {
	ID    uint64
	Label string
}

func NewRenderer(binder ActionBinder) *Renderer {
	return &Renderer{
		binder: binder,
		rows:   make(map[model.Kind][]Row, len(model.Kinds)),
	}
}

// SetBinder wires the action source after construction, for callers that
// build the controller around an existing renderer.
func (r *Renderer) SetBinder(b ActionBinder) {
	r.mu.Lock()
	r.binder = b
	r.mu.Unlock()
}

// Render clears the kind's table and fills it with one row per record, in
// the order given. Records of another kind are ignored.
func (r *Renderer) Render(kind model.Kind, records []model.Record) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows := make([]Row, 0, len(records))
	var options []ClientOption
	for _, rec := range records {
		if rec.RecordKind() != kind {
			continue
		}
		rows = append(rows, r.row(rec))
		if c, ok := rec.(model.Client); ok {
			options = append(options, ClientOption{ID: c.ID, Label: c.Label()})
		}
	}
	r.rows[kind] = rows
	if kind == model.KindClients {
		r.clientOptions = options
	}
	r.renders++
	r.recomputeStatistics()
}

func (r *Renderer) row(rec model.Record) Row {
	var row Row
	switch v := rec.(type) {
	case model.Agent:
		label, class := "Inactive", ui.ClassInactive
		if v.Active {
			label, class = "Active", ui.ClassActive
		}
		row = Row{
			ID:    v.ID,
			Cells: []string{v.Name, strconv.Itoa(v.Age), label, strconv.Itoa(v.Letters)},
			Badge: &Badge{Label: label, Class: class},
		}
	case model.Client:
		row = Row{
			ID:    v.ID,
			Cells: []string{v.Name, v.City, v.Reason, v.Contact},
		}
	case model.Letter:
		status := v.EffectiveStatus()
		row = Row{
			ID:    v.ID,
			Cells: []string{idCell(v.ClientID), idCell(v.AgentID), v.Date, status.Label(), v.Content},
			Badge: &Badge{Label: status.Label(), Class: string(status)},
		}
	}

	if r.binder == nil {
		return row
	}
	kind := rec.RecordKind()
	if kind == model.KindLetters {
		l := rec.(model.Letter)
		status := l.EffectiveStatus()
		advance := r.binder.AdvanceAction(l.ID, status)
		advance.Disabled = model.IsTerminal(status)
		del := r.binder.DeleteAction(kind, l.ID)
		del.Disabled = !model.CanDelete(l)
		row.Actions = []Action{advance, del}
	} else {
		row.Actions = []Action{
			r.binder.EditAction(kind, rec.RecordID()),
			r.binder.DeleteAction(kind, rec.RecordID()),
		}
	}
	return row
}

func idCell(id uint64) string {
	if id == 0 {
		return "-"
	}
	return fmt.Sprintf("#%d", id)
}

// recomputeStatistics derives the counts from the rendered tables.
// Callers hold r.mu.
func (r *Renderer) recomputeStatistics() {
	r.stats = Stats{
		Agents:  len(r.rows[model.KindAgents]),
		Clients: len(r.rows[model.KindClients]),
		Letters: len(r.rows[model.KindLetters]),
	}
}

// Rows returns a copy of the kind's rendered rows.
func (r *Renderer) Rows(kind model.Kind) []Row {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Row(nil), r.rows[kind]...)
}

// Row returns the rendered row at index i of kind's table.
func (r *Renderer) Row(kind model.Kind, i int) (Row, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rows := r.rows[kind]
	if i < 0 || i >= len(rows) {
		return Row{}, false
	}
	return rows[i], true
}

func (r *Renderer) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.stats
}

// Count is the kind's entry in Stats.
func (s Stats) Count(kind model.Kind) int {
	switch kind {
	case model.KindAgents:
		return s.Agents
	case model.KindClients:
		return s.Clients
	case model.KindLetters:
		return s.Letters
	}
	return 0
}

// ClientOptions lists the clients from the last client render.
func (r *Renderer) ClientOptions() []ClientOption {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]ClientOption(nil), r.clientOptions...)
}

// Renders counts completed Render calls.
func (r *Renderer) Renders() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.renders
}
