// Package boltdb persists agents, clients and letters for the reference
// backend. Each collection is a bucket of JSON values keyed by big-endian
// ids taken from the bucket sequence, so iteration is creation order.
package boltdb

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/idilsaglam/violet/internal/model"
	"go.etcd.io/bbolt"
)

const (
	bucketAgents  = "dolls"
	bucketClients = "clientes"
	bucketLetters = "cartas"
)

var buckets = []string{bucketAgents, bucketClients, bucketLetters}

var (
	ErrNotFound = errors.New("not found")

	// ErrNoAgentAvailable means every active agent is at its letter cap.
	ErrNoAgentAvailable = errors.New("no agent available")

	ErrNotDraft      = errors.New("only draft letters can be deleted")
	ErrBadTransition = errors.New("invalid status transition")
)

// DB is the backend's storage.
type DB struct {
	db *bbolt.DB

	// maxActive caps the draft and reviewed letters of an auto-assigned agent.
	maxActive int
}

// Open opens or creates the database at path and ensures the buckets exist.
func Open(path string, maxActive int) (*DB, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}

	if err := db.Update(func(tx *bbolt.Tx) error {
		for _, name := range buckets {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		_ = db.Close()
		return nil, err
	}

	if maxActive <= 0 {
		maxActive = 5
	}
	return &DB{db: db, maxActive: maxActive}, nil
}

func (d *DB) Close() error { return d.db.Close() }

func key(id uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, id)
	return b
}

func put(b *bbolt.Bucket, id uint64, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return b.Put(key(id), data)
}

func get[T any](b *bbolt.Bucket, id uint64) (T, error) {
	var out T
	data := b.Get(key(id))
	if data == nil {
		return out, ErrNotFound
	}
	return out, json.Unmarshal(data, &out)
}

func list[T any](b *bbolt.Bucket, keep func(T) bool) ([]T, error) {
	out := []T{}
	err := b.ForEach(func(_, v []byte) error {
		var r T
		if err := json.Unmarshal(v, &r); err != nil {
			return err
		}
		if keep == nil || keep(r) {
			out = append(out, r)
		}
		return nil
	})
	return out, err
}

func remove(tx *bbolt.Tx, bucket string, id uint64) error {
	b := tx.Bucket([]byte(bucket))
	if b.Get(key(id)) == nil {
		return ErrNotFound
	}
	return b.Delete(key(id))
}

// Agents

func (d *DB) ListAgents() ([]model.Agent, error) {
	var out []model.Agent
	err := d.db.View(func(tx *bbolt.Tx) error {
		var err error
		out, err = list[model.Agent](tx.Bucket([]byte(bucketAgents)), nil)
		return err
	})
	return out, err
}

// CreateAgent stores a new agent. The letter counter always starts at zero.
func (d *DB) CreateAgent(a model.Agent) (model.Agent, error) {
	a.Name = strings.TrimSpace(a.Name)
	if err := a.Validate(); err != nil {
		return model.Agent{}, err
	}
	a.Letters = 0
	err := d.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketAgents))
		id, err := b.NextSequence()
		if err != nil {
			return err
		}
		a.ID = id
		return put(b, id, a)
	})
	return a, err
}

// UpdateAgent changes name, age and the active flag only.
func (d *DB) UpdateAgent(id uint64, p model.AgentPatch) (model.Agent, error) {
	p.Name = strings.TrimSpace(p.Name)
	var out model.Agent
	err := d.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketAgents))
		a, err := get[model.Agent](b, id)
		if err != nil {
			return err
		}
		if err := p.Validate(); err != nil {
			return err
		}
		a.Name, a.Age, a.Active = p.Name, p.Age, p.Active
		out = a
		return put(b, id, a)
	})
	return out, err
}

func (d *DB) DeleteAgent(id uint64) error {
	return d.db.Update(func(tx *bbolt.Tx) error {
		return remove(tx, bucketAgents, id)
	})
}

// Clients

// ClientFilter matches case-insensitive substrings of name and city.
type ClientFilter struct {
	Name string
	City string
}

func (f ClientFilter) match(c model.Client) bool {
	return containsFold(c.Name, f.Name) && containsFold(c.City, f.City)
}

func containsFold(s, sub string) bool {
	return sub == "" || strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func (d *DB) ListClients(f ClientFilter) ([]model.Client, error) {
	var out []model.Client
	err := d.db.View(func(tx *bbolt.Tx) error {
		var err error
		out, err = list(tx.Bucket([]byte(bucketClients)), f.match)
		return err
	})
	return out, err
}

func (d *DB) CreateClient(c model.Client) (model.Client, error) {
	c = c.Trimmed()
	if err := c.Validate(); err != nil {
		return model.Client{}, err
	}
	err := d.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketClients))
		id, err := b.NextSequence()
		if err != nil {
			return err
		}
		c.ID = id
		return put(b, id, c)
	})
	return c, err
}

func (d *DB) UpdateClient(id uint64, c model.Client) (model.Client, error) {
	c = c.Trimmed()
	err := d.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketClients))
		if _, err := get[model.Client](b, id); err != nil {
			return err
		}
		if err := c.Validate(); err != nil {
			return err
		}
		c.ID = id
		return put(b, id, c)
	})
	return c, err
}

func (d *DB) DeleteClient(id uint64) error {
	return d.db.Update(func(tx *bbolt.Tx) error {
		return remove(tx, bucketClients, id)
	})
}

// Letters

// LetterFilter narrows letters by client and status. Zero values match all.
type LetterFilter struct {
	ClientID uint64
	Status   model.Status
}

func (f LetterFilter) match(l model.Letter) bool {
	return (f.ClientID == 0 || l.ClientID == f.ClientID) && (f.Status == "" || l.Status == f.Status)
}

func (d *DB) ListLetters(f LetterFilter) ([]model.Letter, error) {
	var out []model.Letter
	err := d.db.View(func(tx *bbolt.Tx) error {
		var err error
		out, err = list(tx.Bucket([]byte(bucketLetters)), f.match)
		return err
	})
	return out, err
}

// activeLetters counts each agent's draft and reviewed letters.
func activeLetters(tx *bbolt.Tx) (map[uint64]int, error) {
	counts := map[uint64]int{}
	letters, err := list[model.Letter](tx.Bucket([]byte(bucketLetters)), nil)
	if err != nil {
		return nil, err
	}
	for _, l := range letters {
		if !model.IsTerminal(l.EffectiveStatus()) {
			counts[l.AgentID]++
		}
	}
	return counts, nil
}

// assign picks the requested agent when it is active and below the cap,
// else the first active agent below the cap.
func (d *DB) assign(tx *bbolt.Tx, requested uint64) (model.Agent, error) {
	agents := tx.Bucket([]byte(bucketAgents))
	counts, err := activeLetters(tx)
	if err != nil {
		return model.Agent{}, err
	}
	if requested != 0 {
		if a, err := get[model.Agent](agents, requested); err == nil && a.Active && counts[a.ID] < d.maxActive {
			return a, nil
		}
	}
	active, err := list(agents, func(a model.Agent) bool { return a.Active })
	if err != nil {
		return model.Agent{}, err
	}
	for _, a := range active {
		if counts[a.ID] < d.maxActive {
			return a, nil
		}
	}
	return model.Agent{}, ErrNoAgentAvailable
}

// CreateLetter stores a new draft letter, assigns an agent and bumps the
// agent's historical counter.
func (d *DB) CreateLetter(l model.Letter) (model.Letter, error) {
	l.Date = strings.TrimSpace(l.Date)
	l.Content = strings.TrimSpace(l.Content)
	l.Status = model.StatusDraft
	if err := l.Validate(); err != nil {
		return model.Letter{}, err
	}
	err := d.db.Update(func(tx *bbolt.Tx) error {
		if _, err := get[model.Client](tx.Bucket([]byte(bucketClients)), l.ClientID); err != nil {
			if errors.Is(err, ErrNotFound) {
				return &model.ValidationError{Kind: model.KindLetters, Field: "cliente_id", Reason: fmt.Sprintf("#%d is not a known client", l.ClientID)}
			}
			return err
		}
		agent, err := d.assign(tx, l.AgentID)
		if err != nil {
			return err
		}
		l.AgentID = agent.ID

		b := tx.Bucket([]byte(bucketLetters))
		id, err := b.NextSequence()
		if err != nil {
			return err
		}
		l.ID = id
		if err := put(b, id, l); err != nil {
			return err
		}
		agent.Letters++
		return put(tx.Bucket([]byte(bucketAgents)), agent.ID, agent)
	})
	return l, err
}

// LetterPatch is a partial letter update. Nil fields are left alone.
type LetterPatch struct {
	Status  *model.Status `json:"estado,omitempty"`
	Content *string       `json:"contenido,omitempty"`
}

func (d *DB) UpdateLetter(id uint64, p LetterPatch) (model.Letter, error) {
	var out model.Letter
	err := d.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketLetters))
		l, err := get[model.Letter](b, id)
		if err != nil {
			return err
		}
		if p.Status == nil && p.Content == nil {
			return &model.ValidationError{Kind: model.KindLetters, Field: "estado", Reason: "or contenido is required"}
		}
		if p.Content != nil {
			c := strings.TrimSpace(*p.Content)
			if c == "" {
				return &model.ValidationError{Kind: model.KindLetters, Field: "contenido", Reason: "is required"}
			}
			l.Content = c
		}
		if p.Status != nil {
			if !model.CanTransition(l.EffectiveStatus(), *p.Status) {
				return fmt.Errorf("%w: %s to %s", ErrBadTransition, l.EffectiveStatus(), *p.Status)
			}
			l.Status = *p.Status
		}
		out = l
		return put(b, id, l)
	})
	return out, err
}

// DeleteLetter removes a draft letter.
func (d *DB) DeleteLetter(id uint64) error {
	return d.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketLetters))
		l, err := get[model.Letter](b, id)
		if err != nil {
			return err
		}
		if !model.CanDelete(l) {
			return ErrNotDraft
		}
		return b.Delete(key(id))
	})
}

// AgentReport summarizes the letters currently assigned to an agent.
func (d *DB) AgentReport(id uint64) (model.AgentReport, error) {
	var out model.AgentReport
	err := d.db.View(func(tx *bbolt.Tx) error {
		a, err := get[model.Agent](tx.Bucket([]byte(bucketAgents)), id)
		if err != nil {
			return err
		}
		letters, err := list(tx.Bucket([]byte(bucketLetters)), func(l model.Letter) bool { return l.AgentID == id })
		if err != nil {
			return err
		}
		clients := map[uint64]struct{}{}
		for _, l := range letters {
			clients[l.ClientID] = struct{}{}
		}
		out = model.AgentReport{
			AgentID:         a.ID,
			Name:            a.Name,
			TotalLetters:    int64(len(letters)),
			DistinctClients: int64(len(clients)),
		}
		return nil
	})
	return out, err
}
