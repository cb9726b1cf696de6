package model

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextStatus(t *testing.T) {
	tests := []struct {
		current Status
		want    Status
		ok      bool
	}{
		{StatusDraft, StatusReviewed, true},
		{StatusReviewed, StatusSent, true},
		{StatusSent, "", false},
		{"", "", false},
		{"archivado", "", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.current), func(t *testing.T) {
			got, ok := NextStatus(tt.current)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNextStatus_OnlyReachesLifecycleStates(t *testing.T) {
	reached := map[Status]bool{StatusDraft: true}
	s := StatusDraft
	for {
		next, ok := NextStatus(s)
		if !ok {
			break
		}
		require.False(t, reached[next], "status %s reached twice", next)
		require.True(t, next.Valid())
		reached[next] = true
		s = next
	}
	assert.Len(t, reached, len(Statuses))
	assert.Equal(t, StatusSent, s)
}

func TestCanTransition(t *testing.T) {
	for _, from := range Statuses {
		for _, to := range Statuses {
			next, ok := NextStatus(from)
			want := ok && next == to
			assert.Equal(t, want, CanTransition(from, to), "%s -> %s", from, to)
		}
	}
	assert.False(t, CanTransition(StatusDraft, StatusSent), "skipping must be rejected")
	assert.False(t, CanTransition(StatusSent, StatusDraft), "backward must be rejected")
}

func TestCanDelete(t *testing.T) {
	tests := []struct {
		status Status
		want   bool
	}{
		{StatusDraft, true},
		{"", true},
		{StatusReviewed, false},
		{StatusSent, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CanDelete(Letter{ID: 1, Status: tt.status}), tt.status)
	}
}

func TestParseStatus(t *testing.T) {
	s, ok := ParseStatus("reviewed")
	require.True(t, ok)
	assert.Equal(t, StatusReviewed, s)

	s, ok = ParseStatus("enviado")
	require.True(t, ok)
	assert.Equal(t, StatusSent, s)

	_, ok = ParseStatus("lost")
	assert.False(t, ok)
}

func TestLetterJSONUsesBackendKeys(t *testing.T) {
	raw := `{"id":7,"cliente_id":2,"doll_id":3,"fecha":"2026-10-17","contenido":"hola","estado":"revisado"}`

	var l Letter
	require.NoError(t, json.Unmarshal([]byte(raw), &l))
	assert.Equal(t, Letter{ID: 7, ClientID: 2, AgentID: 3, Date: "2026-10-17", Content: "hola", Status: StatusReviewed}, l)

	out, err := json.Marshal(Letter{ClientID: 2, Date: "2026-10-17", Content: "hola"})
	require.NoError(t, err)
	assert.NotContains(t, string(out), "estado", "unset status is left for the server to default")
	assert.NotContains(t, string(out), "doll_id")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		rec   interface{ Validate() error }
		field string
	}{
		{"agent ok", Agent{Name: "Violet", Age: 14}, ""},
		{"agent blank name", Agent{Name: "  ", Age: 14}, "nombre"},
		{"agent zero age", Agent{Name: "Violet"}, "edad"},
		{"client ok", Client{Name: "Ann", City: "Leiden", Reason: "mother", Contact: "ann@x"}, ""},
		{"client empty city", Client{Name: "Ann", City: "", Reason: "mother", Contact: "ann@x"}, "ciudad"},
		{"letter ok", Letter{ClientID: 1, Date: "2026-10-17", Content: "x"}, ""},
		{"letter no client", Letter{Date: "2026-10-17", Content: "x"}, "cliente_id"},
		{"letter bad date", Letter{ClientID: 1, Date: "17/10/2026", Content: "x"}, "fecha"},
		{"letter no content", Letter{ClientID: 1, Date: "2026-10-17"}, "contenido"},
		{"letter bad status", Letter{ClientID: 1, Date: "2026-10-17", Content: "x", Status: "lost"}, "estado"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rec.Validate()
			if tt.field == "" {
				require.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "want ValidationError, got %v", err)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestParseKind(t *testing.T) {
	for in, want := range map[string]Kind{
		"dolls":     KindAgents,
		"/clientes": KindClients,
		"Letters":   KindLetters,
	} {
		got, err := ParseKind(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseKind("parcels")
	require.Error(t, err)
	assert.Equal(t, "/cartas", KindLetters.Path())
}
