package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/idilsaglam/violet/internal/controller"
	"github.com/idilsaglam/violet/internal/model"
	"github.com/idilsaglam/violet/internal/store"
	"github.com/idilsaglam/violet/internal/ui"
	"github.com/idilsaglam/violet/internal/view"
)

// form collects the fields of one record. id is zero when creating.
type form struct {
	kind   model.Kind
	id     uint64
	labels []string
	inputs []textinput.Model
	focus  int

	// Letter forms start with a client picker at focus 0.
	clients   []view.ClientOption
	clientIdx int

	err string
}

func newInput(placeholder, value string) textinput.Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = placeholder
	ti.CharLimit = 200
	ti.SetValue(value)
	return ti
}

// newForm builds the form for kind, prefilled from the store when id is set.
func newForm(kind model.Kind, id uint64, st *store.Store, clients []view.ClientOption) *form {
	f := &form{kind: kind, id: id}
	switch kind {
	case model.KindAgents:
		a, _ := st.Agent(id)
		age, active := "", "y"
		if id != 0 {
			age = strconv.Itoa(a.Age)
			active = yesNo(a.Active)
		}
		f.labels = []string{"Name", "Age", "Active (y/n)"}
		f.inputs = []textinput.Model{
			newInput("Violet", a.Name),
			newInput("14", age),
			newInput("y", active),
		}
	case model.KindClients:
		c, _ := st.Client(id)
		f.labels = []string{"Name", "City", "Reason", "Contact"}
		f.inputs = []textinput.Model{
			newInput("Ann", c.Name),
			newInput("Leiden", c.City),
			newInput("Letter to her mother", c.Reason),
			newInput("ann@example.com", c.Contact),
		}
	case model.KindLetters:
		f.clients = clients
		f.labels = []string{"Date", "Content"}
		f.inputs = []textinput.Model{
			newInput(model.DateLayout, model.Today()),
			newInput("Dear...", ""),
		}
	}
	f.setFocus(0)
	return f
}

func yesNo(b bool) string {
	if b {
		return "y"
	}
	return "n"
}

func (f *form) hasPicker() bool { return f.kind == model.KindLetters }

// fields counts focus stops including the picker.
func (f *form) fields() int {
	if f.hasPicker() {
		return len(f.inputs) + 1
	}
	return len(f.inputs)
}

// inputIndex maps a focus stop to an input, or -1 for the picker.
func (f *form) inputIndex(focus int) int {
	if f.hasPicker() {
		return focus - 1
	}
	return focus
}

func (f *form) setFocus(i int) {
	f.focus = (i + f.fields()) % f.fields()
	for j := range f.inputs {
		f.inputs[j].Blur()
	}
	if k := f.inputIndex(f.focus); k >= 0 {
		f.inputs[k].Focus()
	}
}

// Update handles a key inside the form. submit is true when the user asked
// to save.
func (f *form) Update(msg tea.KeyMsg) (submit, cancel bool, cmd tea.Cmd) {
	switch msg.String() {
	case "esc":
		return false, true, nil
	case "tab", "down":
		f.setFocus(f.focus + 1)
		return false, false, nil
	case "shift+tab", "up":
		f.setFocus(f.focus - 1)
		return false, false, nil
	case "ctrl+s":
		return true, false, nil
	case "enter":
		if f.focus == f.fields()-1 {
			return true, false, nil
		}
		f.setFocus(f.focus + 1)
		return false, false, nil
	}

	if k := f.inputIndex(f.focus); k >= 0 {
		f.inputs[k], cmd = f.inputs[k].Update(msg)
		return false, false, cmd
	}
	if len(f.clients) > 0 {
		switch msg.String() {
		case "left", "h":
			f.clientIdx = (f.clientIdx - 1 + len(f.clients)) % len(f.clients)
		case "right", "l", " ":
			f.clientIdx = (f.clientIdx + 1) % len(f.clients)
		}
	}
	return false, false, nil
}

func (f *form) value(i int) string { return strings.TrimSpace(f.inputs[i].Value()) }

var errAgeNotNumber = errors.New("age must be a whole number")

// operation turns the form into the controller call that saves it. Only
// parse errors are caught here; field rules belong to the controller.
func (f *form) operation(ctrl *controller.Controller) (func(context.Context) error, error) {
	switch f.kind {
	case model.KindAgents:
		age, err := strconv.Atoi(f.value(1))
		if err != nil {
			return nil, errAgeNotNumber
		}
		active := parseYes(f.value(2))
		if f.id == 0 {
			a := model.Agent{Name: f.value(0), Age: age, Active: active}
			return func(ctx context.Context) error { return ctrl.CreateAgent(ctx, a) }, nil
		}
		id, p := f.id, model.AgentPatch{Name: f.value(0), Age: age, Active: active}
		return func(ctx context.Context) error { return ctrl.UpdateAgent(ctx, id, p) }, nil

	case model.KindClients:
		c := model.Client{Name: f.value(0), City: f.value(1), Reason: f.value(2), Contact: f.value(3)}
		if f.id == 0 {
			return func(ctx context.Context) error { return ctrl.CreateClient(ctx, c) }, nil
		}
		id := f.id
		return func(ctx context.Context) error { return ctrl.UpdateClient(ctx, id, c) }, nil

	case model.KindLetters:
		var clientID uint64
		if len(f.clients) > 0 {
			clientID = f.clients[f.clientIdx].ID
		}
		l := model.Letter{ClientID: clientID, Date: f.value(0), Content: f.value(1)}
		return func(ctx context.Context) error { return ctrl.CreateLetter(ctx, l) }, nil
	}
	return nil, fmt.Errorf("no form for %q", f.kind)
}

func parseYes(s string) bool {
	switch strings.ToLower(s) {
	case "y", "yes", "true", "1", "si", "sí":
		return true
	}
	return false
}

func (f *form) title() string {
	verb := "New"
	if f.id != 0 {
		verb = fmt.Sprintf("Edit #%d:", f.id)
	}
	return fmt.Sprintf("%s %s", verb, f.kind.Singular())
}

func (f *form) View() string {
	th := ui.Current()
	var b strings.Builder
	title := th.Title.Render(f.title())
	if f.err != "" {
		title += "  " + th.Error.Render(f.err)
	}
	b.WriteString(title + "\n")

	if f.hasPicker() {
		label := th.Muted.Render("no clients loaded")
		if len(f.clients) > 0 {
			label = fmt.Sprintf("‹ %s ›", f.clients[f.clientIdx].Label)
		}
		prefix := "  "
		if f.focus == 0 {
			prefix = ui.SelectedStyle.Render("> ")
		}
		fmt.Fprintf(&b, "%s%-14s %s\n", prefix, "Client", label)
	}
	for i, in := range f.inputs {
		fmt.Fprintf(&b, "  %-14s %s\n", f.labels[i], in.View())
	}
	b.WriteString(ui.HelpStyle.Render("tab next · enter save on last field · ctrl+s save · esc cancel"))
	return ui.PanelString(b.String())
}
