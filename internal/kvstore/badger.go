package kvstore

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/compliancecore/certextract/internal/common"
	"github.com/compliancecore/certextract/internal/interfaces"
)

// Store is a badger/v4-backed implementation of interfaces.KeyValueStorage,
// used as the settings store and, optionally, the audit sink backing store.
type Store struct {
	db *badger.DB
}

// Open opens (creating if absent) a badger database at dir.
func Open(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close releases the underlying badger database.
func (s *Store) Close() error {
	return s.db.Close()
}

// record is the JSON envelope stored per key, carrying description and
// timestamps alongside the raw value.
type record struct {
	Value       string    `json:"value"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	pair, err := s.GetPair(ctx, key)
	if err != nil {
		return "", err
	}
	return pair.Value, nil
}

func (s *Store) GetPair(ctx context.Context, key string) (*interfaces.KeyValuePair, error) {
	var rec record
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return interfaces.ErrKeyNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if err != nil {
		return nil, err
	}
	return &interfaces.KeyValuePair{
		Key:         key,
		Value:       rec.Value,
		Description: rec.Description,
		CreatedAt:   rec.CreatedAt,
		UpdatedAt:   rec.UpdatedAt,
	}, nil
}

func (s *Store) Set(ctx context.Context, key string, value string, description string) error {
	_, err := s.Upsert(ctx, key, value, description)
	return err
}

func (s *Store) Upsert(ctx context.Context, key string, value string, description string) (bool, error) {
	created := false
	err := s.db.Update(func(txn *badger.Txn) error {
		now := time.Now().UTC()
		createdAt := now
		item, err := txn.Get([]byte(key))
		if err != nil {
			if err != badger.ErrKeyNotFound {
				return err
			}
			created = true
		} else {
			var existing record
			if verr := item.Value(func(val []byte) error { return json.Unmarshal(val, &existing) }); verr == nil {
				createdAt = existing.CreatedAt
			}
		}
		rec := record{Value: value, Description: description, CreatedAt: createdAt, UpdatedAt: now}
		encoded, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		return txn.Set([]byte(key), encoded)
	})
	return created, err
}

func (s *Store) Delete(ctx context.Context, key string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get([]byte(key)); err != nil {
			if err == badger.ErrKeyNotFound {
				return interfaces.ErrKeyNotFound
			}
			return err
		}
		return txn.Delete([]byte(key))
	})
}

func (s *Store) DeleteAll(ctx context.Context) error {
	return s.db.DropAll()
}

func (s *Store) List(ctx context.Context) ([]interfaces.KeyValuePair, error) {
	return s.ListByPrefix(ctx, "")
}

func (s *Store) GetAll(ctx context.Context) (map[string]string, error) {
	out := map[string]string{}
	pairs, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range pairs {
		out[p.Key] = p.Value
	}
	return out, nil
}

func (s *Store) ListByPrefix(ctx context.Context, prefix string) ([]interfaces.KeyValuePair, error) {
	var out []interfaces.KeyValuePair
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		bPrefix := []byte(prefix)
		for it.Seek(bPrefix); it.ValidForPrefix(bPrefix); it.Next() {
			item := it.Item()
			key := string(item.Key())
			var rec record
			if err := item.Value(func(val []byte) error { return json.Unmarshal(val, &rec) }); err != nil {
				common.GetLogger().Warn().Err(err).Str("key", key).Msg("kvstore: skipping corrupt record")
				continue
			}
			out = append(out, interfaces.KeyValuePair{
				Key:         key,
				Value:       rec.Value,
				Description: rec.Description,
				CreatedAt:   rec.CreatedAt,
				UpdatedAt:   rec.UpdatedAt,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

