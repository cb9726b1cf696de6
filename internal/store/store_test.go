package store

import (
	"context"
	"errors"
	"testing"

	"github.com/idilsaglam/violet/internal/gateway"
	"github.com/idilsaglam/violet/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSource serves whatever the test puts in it and records the queries
// it was asked for.
type fakeSource struct {
	agents  []model.Agent
	clients []model.Client
	letters []model.Letter
	err     error

	clientQueries []gateway.ClientQuery
	letterQueries []gateway.LetterQuery
}

func (f *fakeSource) ListAgents(context.Context) ([]model.Agent, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.agents, nil
}

func (f *fakeSource) ListClients(_ context.Context, q gateway.ClientQuery) ([]model.Client, error) {
	f.clientQueries = append(f.clientQueries, q)
	if f.err != nil {
		return nil, f.err
	}
	return f.clients, nil
}

func (f *fakeSource) ListLetters(_ context.Context, q gateway.LetterQuery) ([]model.Letter, error) {
	f.letterQueries = append(f.letterQueries, q)
	if f.err != nil {
		return nil, f.err
	}
	return f.letters, nil
}

func TestReload_ReplacesSnapshot(t *testing.T) {
	src := &fakeSource{letters: []model.Letter{{ID: 1}, {ID: 2}, {ID: 3}}}
	s := New(src)

	recs, err := s.Reload(context.Background(), model.KindLetters)
	require.NoError(t, err)
	require.Len(t, recs, 3)

	src.letters = []model.Letter{{ID: 3}, {ID: 4}}
	recs, err = s.Reload(context.Background(), model.KindLetters)
	require.NoError(t, err)

	ids := []uint64{}
	for _, r := range recs {
		ids = append(ids, r.RecordID())
	}
	assert.Equal(t, []uint64{3, 4}, ids, "server order, no merge with the previous snapshot")
	assert.Equal(t, []model.Letter{{ID: 3}, {ID: 4}}, s.Letters())

	_, ok := s.Letter(1)
	assert.False(t, ok)
}

func TestReload_FailureKeepsPreviousSnapshot(t *testing.T) {
	src := &fakeSource{agents: []model.Agent{{ID: 1, Name: "Violet"}}}
	s := New(src)
	_, err := s.Reload(context.Background(), model.KindAgents)
	require.NoError(t, err)

	boom := &gateway.RemoteError{StatusCode: 500}
	src.err = boom
	src.agents = nil

	_, err = s.Reload(context.Background(), model.KindAgents)
	require.Error(t, err)
	assert.Same(t, boom, err, "errors propagate unchanged")
	assert.Len(t, s.Agents(), 1)

	a, ok := s.Agent(1)
	require.True(t, ok)
	assert.Equal(t, "Violet", a.Name)
}

func TestReload_KindsAreIndependent(t *testing.T) {
	src := &fakeSource{
		agents:  []model.Agent{{ID: 1}},
		clients: []model.Client{{ID: 1}, {ID: 2}},
	}
	s := New(src)
	_, err := s.Reload(context.Background(), model.KindAgents)
	require.NoError(t, err)
	_, err = s.Reload(context.Background(), model.KindClients)
	require.NoError(t, err)

	src.err = errors.New("down")
	_, err = s.Reload(context.Background(), model.KindClients)
	require.Error(t, err)

	assert.Len(t, s.Agents(), 1)
	assert.Len(t, s.Clients(), 2)
	assert.Empty(t, s.Letters())
}

func TestReload_UsesQueries(t *testing.T) {
	src := &fakeSource{}
	s := New(src)
	s.SetClientQuery(gateway.ClientQuery{City: "Leiden"})
	s.SetLetterQuery(gateway.LetterQuery{Status: model.StatusDraft})

	_, err := s.Reload(context.Background(), model.KindClients)
	require.NoError(t, err)
	_, err = s.Reload(context.Background(), model.KindLetters)
	require.NoError(t, err)

	assert.Equal(t, []gateway.ClientQuery{{City: "Leiden"}}, src.clientQueries)
	assert.Equal(t, []gateway.LetterQuery{{Status: model.StatusDraft}}, src.letterQueries)
}

func TestReload_UnknownKind(t *testing.T) {
	_, err := New(&fakeSource{}).Reload(context.Background(), model.Kind("parcels"))
	require.Error(t, err)
}

func TestAccessorsReturnCopies(t *testing.T) {
	src := &fakeSource{clients: []model.Client{{ID: 1, Name: "Ann"}}}
	s := New(src)
	_, err := s.Reload(context.Background(), model.KindClients)
	require.NoError(t, err)

	got := s.Clients()
	got[0].Name = "changed"
	c, _ := s.Client(1)
	assert.Equal(t, "Ann", c.Name)
}
