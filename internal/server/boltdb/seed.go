package boltdb

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/idilsaglam/violet/internal/model"
	"github.com/tidwall/jsonc"
	"go.etcd.io/bbolt"
)

// ErrNotEmpty is returned when seeding a database that already has records.
var ErrNotEmpty = errors.New("database is not empty")

// Seed is the document accepted by Import. Comments and trailing commas
// are allowed in seed files.
type Seed struct {
	Agents  []model.Agent  `json:"dolls"`
	Clients []model.Client `json:"clientes"`
	Letters []model.Letter `json:"cartas"`
}

// ReadSeed parses a JSONC seed file.
func ReadSeed(path string) (Seed, error) {
	var s Seed
	data, err := os.ReadFile(path)
	if err != nil {
		return s, fmt.Errorf("read seed: %w", err)
	}
	if err := json.Unmarshal(jsonc.ToJSON(data), &s); err != nil {
		return s, fmt.Errorf("parse seed %s: %w", path, err)
	}
	return s, nil
}

// Empty reports whether no collection holds a record.
func (d *DB) Empty() (bool, error) {
	empty := true
	err := d.db.View(func(tx *bbolt.Tx) error {
		for _, name := range buckets {
			if k, _ := tx.Bucket([]byte(name)).Cursor().First(); k != nil {
				empty = false
			}
		}
		return nil
	})
	return empty, err
}

// Import loads s into an empty database in one transaction. Records keep
// their ids when set; the rest are numbered after them. Letters keep their
// status and agent; counters are taken as given.
func (d *DB) Import(s Seed) error {
	empty, err := d.Empty()
	if err != nil {
		return err
	}
	if !empty {
		return ErrNotEmpty
	}

	return d.db.Update(func(tx *bbolt.Tx) error {
		for _, a := range s.Agents {
			if err := a.Validate(); err != nil {
				return err
			}
			if err := insert(tx.Bucket([]byte(bucketAgents)), &a.ID, a); err != nil {
				return err
			}
		}
		for _, c := range s.Clients {
			c = c.Trimmed()
			if err := c.Validate(); err != nil {
				return err
			}
			if err := insert(tx.Bucket([]byte(bucketClients)), &c.ID, c); err != nil {
				return err
			}
		}
		clients := tx.Bucket([]byte(bucketClients))
		for _, l := range s.Letters {
			if l.Status == "" {
				l.Status = model.StatusDraft
			}
			if err := l.Validate(); err != nil {
				return err
			}
			if clients.Get(key(l.ClientID)) == nil {
				return fmt.Errorf("letter %d: client %d: %w", l.ID, l.ClientID, ErrNotFound)
			}
			if err := insert(tx.Bucket([]byte(bucketLetters)), &l.ID, l); err != nil {
				return err
			}
		}
		return nil
	})
}

// insert writes v under *id, allocating an id when it is zero and keeping
// the bucket sequence ahead of every stored id.
func insert[T model.Record](b *bbolt.Bucket, id *uint64, v T) error {
	if *id == 0 {
		next, err := b.NextSequence()
		if err != nil {
			return err
		}
		*id = next
	} else if *id > b.Sequence() {
		if err := b.SetSequence(*id); err != nil {
			return err
		}
	}
	if b.Get(key(*id)) != nil {
		return fmt.Errorf("duplicate id %d", *id)
	}
	return put(b, *id, setID(v, *id))
}

func setID[T model.Record](v T, id uint64) model.Record {
	switch r := any(v).(type) {
	case model.Agent:
		r.ID = id
		return r
	case model.Client:
		r.ID = id
		return r
	case model.Letter:
		r.ID = id
		return r
	}
	return v
}
