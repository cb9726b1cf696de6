package view

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/idilsaglam/violet/internal/model"
	"github.com/idilsaglam/violet/internal/ui"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingBinder hands out actions that log their invocation.
type recordingBinder struct {
	calls []string
}

func (b *recordingBinder) EditAction(kind model.Kind, id uint64) Action {
	return Action{Name: "edit", Run: func(context.Context) error {
		b.calls = append(b.calls, fmt.Sprintf("edit %s %d", kind, id))
		return nil
	}}
}

func (b *recordingBinder) DeleteAction(kind model.Kind, id uint64) Action {
	return Action{Name: "delete", Run: func(context.Context) error {
		b.calls = append(b.calls, fmt.Sprintf("delete %s %d", kind, id))
		return nil
	}}
}

func (b *recordingBinder) AdvanceAction(id uint64, current model.Status) Action {
	return Action{Name: "advance", Run: func(context.Context) error {
		b.calls = append(b.calls, fmt.Sprintf("advance %d %s", id, current))
		return nil
	}}
}

func agents(ids ...uint64) []model.Record {
	out := make([]model.Record, len(ids))
	for i, id := range ids {
		out[i] = model.Agent{ID: id, Name: fmt.Sprintf("doll-%d", id), Age: 20, Active: id%2 == 0}
	}
	return out
}

func TestRender_ColumnsAndBadges(t *testing.T) {
	r := NewRenderer(&recordingBinder{})
	r.Render(model.KindAgents, []model.Record{model.Agent{ID: 1, Name: "Violet", Age: 14, Active: true, Letters: 3}})
	r.Render(model.KindClients, []model.Record{model.Client{ID: 2, Name: "Ann", City: "Leiden", Reason: "mother", Contact: "ann@x"}})
	r.Render(model.KindLetters, []model.Record{model.Letter{ID: 3, ClientID: 2, AgentID: 1, Date: "2026-10-17", Content: "hola", Status: model.StatusReviewed}})

	a := r.Rows(model.KindAgents)[0]
	assert.Equal(t, []string{"Violet", "14", "Active", "3"}, a.Cells)
	assert.Equal(t, &Badge{Label: "Active", Class: ui.ClassActive}, a.Badge)

	c := r.Rows(model.KindClients)[0]
	assert.Equal(t, []string{"Ann", "Leiden", "mother", "ann@x"}, c.Cells)
	assert.Nil(t, c.Badge)

	l := r.Rows(model.KindLetters)[0]
	assert.Equal(t, []string{"#2", "#1", "2026-10-17", "reviewed", "hola"}, l.Cells)
	assert.Equal(t, &Badge{Label: "reviewed", Class: "revisado"}, l.Badge)

	for kind, row := range map[model.Kind]Row{model.KindAgents: a, model.KindClients: c, model.KindLetters: l} {
		assert.Len(t, row.Cells, len(Columns[kind]), kind)
	}
}

func TestRender_UnsetStatusShowsDraft(t *testing.T) {
	r := NewRenderer(nil)
	r.Render(model.KindLetters, []model.Record{model.Letter{ID: 1, ClientID: 1, Date: "2026-10-17", Content: "x"}})

	row := r.Rows(model.KindLetters)[0]
	assert.Equal(t, "draft", row.Cells[3])
	assert.Equal(t, "borrador", row.Badge.Class)
	assert.Equal(t, "-", row.Cells[1])
}

func TestRender_UnsetStatusActsAsDraft(t *testing.T) {
	b := &recordingBinder{}
	r := NewRenderer(b)
	r.Render(model.KindLetters, []model.Record{model.Letter{ID: 1, ClientID: 1, Date: "2026-10-17", Content: "x"}})

	row := r.Rows(model.KindLetters)[0]
	advance, ok := row.Action("advance")
	require.True(t, ok)
	assert.False(t, advance.Disabled)
	del, ok := row.Action("delete")
	require.True(t, ok)
	assert.False(t, del.Disabled)

	require.NoError(t, advance.Run(context.Background()))
	assert.Equal(t, []string{"advance 1 borrador"}, b.calls)
}

func TestRender_ActionsAreBound(t *testing.T) {
	b := &recordingBinder{}
	r := NewRenderer(b)
	r.Render(model.KindClients, []model.Record{model.Client{ID: 8}})
	r.Render(model.KindLetters, []model.Record{
		model.Letter{ID: 4, Status: model.StatusDraft},
		model.Letter{ID: 5, Status: model.StatusSent},
	})

	client := r.Rows(model.KindClients)[0]
	edit, ok := client.Action("edit")
	require.True(t, ok)
	require.NoError(t, edit.Run(context.Background()))
	_, ok = client.Action("advance")
	assert.False(t, ok, "advance exists only on letters")

	draft, _ := r.Row(model.KindLetters, 0)
	adv, ok := draft.Action("advance")
	require.True(t, ok)
	assert.False(t, adv.Disabled)
	require.NoError(t, adv.Run(context.Background()))

	sent, _ := r.Row(model.KindLetters, 1)
	del, ok := sent.Action("delete")
	require.True(t, ok)
	assert.True(t, del.Disabled)
	require.NoError(t, del.Run(context.Background()), "disabled actions still run, the server decides")
	adv, _ = sent.Action("advance")
	assert.True(t, adv.Disabled)

	assert.Equal(t, []string{"edit clients 8", "advance 4 borrador", "delete letters 5"}, b.calls)
}

func TestRender_ReplacesRowsAndRecomputesStats(t *testing.T) {
	r := NewRenderer(nil)
	r.Render(model.KindAgents, agents(1, 2, 3))
	assert.Equal(t, Stats{Agents: 3}, r.Stats())

	r.Render(model.KindAgents, agents(4))
	rows := r.Rows(model.KindAgents)
	require.Len(t, rows, 1, "no leftover rows from the prior render")
	assert.Equal(t, uint64(4), rows[0].ID)
	assert.Equal(t, 1, r.Stats().Agents)

	r.Render(model.KindLetters, []model.Record{model.Letter{ID: 1}, model.Letter{ID: 2}})
	assert.Equal(t, Stats{Agents: 1, Letters: 2}, r.Stats())
	assert.Equal(t, 2, r.Stats().Count(model.KindLetters))
	assert.Equal(t, 3, r.Renders())
}

func TestRender_PreservesOrder(t *testing.T) {
	r := NewRenderer(nil)
	r.Render(model.KindAgents, agents(9, 2, 5))
	var ids []uint64
	for _, row := range r.Rows(model.KindAgents) {
		ids = append(ids, row.ID)
	}
	assert.Equal(t, []uint64{9, 2, 5}, ids)
}

func TestRender_IgnoresForeignRecords(t *testing.T) {
	r := NewRenderer(nil)
	r.Render(model.KindAgents, []model.Record{model.Agent{ID: 1}, model.Client{ID: 2}})
	assert.Len(t, r.Rows(model.KindAgents), 1)
	assert.Equal(t, 1, r.Stats().Agents)
}

func TestClientOptionsFollowClientRender(t *testing.T) {
	r := NewRenderer(nil)
	r.Render(model.KindClients, []model.Record{model.Client{ID: 1, Name: "Ann", City: "Leiden"}})
	assert.Equal(t, []ClientOption{{ID: 1, Label: "Ann (Leiden)"}}, r.ClientOptions())

	r.Render(model.KindAgents, agents(1))
	assert.Len(t, r.ClientOptions(), 1, "other kinds leave the picker alone")

	r.Render(model.KindClients, nil)
	assert.Empty(t, r.ClientOptions())
}

func TestTable(t *testing.T) {
	ui.SetTheme("mono")
	defer ui.SetTheme("classic")

	r := NewRenderer(nil)
	r.Render(model.KindLetters, []model.Record{
		model.Letter{ID: 1, ClientID: 2, Date: "2026-10-17", Content: strings.Repeat("a", 80), Status: model.StatusSent},
	})
	out := r.Table(model.KindLetters, 0, 0)
	for _, col := range Columns[model.KindLetters] {
		assert.Contains(t, out, col)
	}
	assert.Contains(t, out, "sent")
	assert.Contains(t, out, "…")
	assert.NotContains(t, out, strings.Repeat("a", 80))
}
