// Package store keeps the last successfully fetched snapshot of each
// collection. A reload replaces a snapshot wholesale; a failed reload
// leaves the previous one in place.
package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/idilsaglam/violet/internal/gateway"
	"github.com/idilsaglam/violet/internal/model"
)

// Source fetches whole collections. *gateway.Client implements it.
type Source interface {
	ListAgents(ctx context.Context) ([]model.Agent, error)
	ListClients(ctx context.Context, q gateway.ClientQuery) ([]model.Client, error)
	ListLetters(ctx context.Context, q gateway.LetterQuery) ([]model.Letter, error)
}

// Store is the client-side cache. The mutex only protects memory; it does
// not order reloads, so whichever reload finishes last wins.
type Store struct {
	src Source

	mu          sync.RWMutex
	agents      []model.Agent
	clients     []model.Client
	letters     []model.Letter
	clientQuery gateway.ClientQuery
	letterQuery gateway.LetterQuery
}

func New(src Source) *Store {
	return &Store{src: src}
}

// Reload fetches the full collection for kind and replaces its snapshot.
// Records come back in server order. Errors from the source are returned
// unchanged.
func (s *Store) Reload(ctx context.Context, kind model.Kind) ([]model.Record, error) {
	switch kind {
	case model.KindAgents:
		agents, err := s.src.ListAgents(ctx)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.agents = agents
		s.mu.Unlock()
		return records(agents), nil

	case model.KindClients:
		clients, err := s.src.ListClients(ctx, s.ClientQuery())
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.clients = clients
		s.mu.Unlock()
		return records(clients), nil

	case model.KindLetters:
		letters, err := s.src.ListLetters(ctx, s.LetterQuery())
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.letters = letters
		s.mu.Unlock()
		return records(letters), nil
	}
	return nil, fmt.Errorf("reload: unknown collection %q", kind)
}

func records[T model.Record](in []T) []model.Record {
	out := make([]model.Record, len(in))
	for i, r := range in {
		out[i] = r
	}
	return out
}

func (s *Store) Agents() []model.Agent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Agent(nil), s.agents...)
}

func (s *Store) Clients() []model.Client {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Client(nil), s.clients...)
}

func (s *Store) Letters() []model.Letter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Letter(nil), s.letters...)
}


func (s *Store) Agent(id uint64) (model.Agent, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.agents {
		if a.ID == id {
			return a, true
		}
	}
	return model.Agent{}, false
}

func (s *Store) Client(id uint64) (model.Client, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.clients {
		if c.ID == id {
			return c, true
		}
	}
	return model.Client{}, false
}

func (s *Store) Letter(id uint64) (model.Letter, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, l := range s.letters {
		if l.ID == id {
			return l, true
		}
	}
	return model.Letter{}, false
}

// SetClientQuery sets the filter applied to subsequent client reloads.
func (s *Store) SetClientQuery(q gateway.ClientQuery) {
	s.mu.Lock()
	s.clientQuery = q
	s.mu.Unlock()
}

func (s *Store) ClientQuery() gateway.ClientQuery {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.clientQuery
}

// SetLetterQuery sets the filter applied to subsequent letter reloads.
func (s *Store) SetLetterQuery(q gateway.LetterQuery) {
	s.mu.Lock()
	s.letterQuery = q
	s.mu.Unlock()
}

func (s *Store) LetterQuery() gateway.LetterQuery {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.letterQuery
}
