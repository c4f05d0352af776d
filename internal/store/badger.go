package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog/log"

	"coderoom/internal/domain"
)

const roomKeyPrefix = "room:"

// BadgerStore keeps room records in an embedded BadgerDB, JSON-encoded
// under room:<uuid> keys. An empty path opens an in-memory instance,
// which the tests rely on.
type BadgerStore struct {
	db *badger.DB
}

func Open(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open room store: %w", err)
	}
	log.Info().Str("module", "store").Str("path", path).Msg("room store opened")
	return &BadgerStore{db: db}, nil
}

func (s *BadgerStore) Close() error { return s.db.Close() }

func roomKey(uuid string) []byte { return []byte(roomKeyPrefix + uuid) }

func (s *BadgerStore) Get(_ context.Context, uuid string) (*domain.Room, error) {
	var room domain.Room
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(roomKey(uuid))
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error {
			return json.Unmarshal(v, &room)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrRoomNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get room %s: %w", uuid, err)
	}
	return &room, nil
}

func (s *BadgerStore) Put(_ context.Context, room *domain.Room) error {
	data, err := json.Marshal(room)
	if err != nil {
		return fmt.Errorf("encode room %s: %w", room.UUID, err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(roomKey(room.UUID), data)
	})
	if err != nil {
		return fmt.Errorf("put room %s: %w", room.UUID, err)
	}
	return nil
}

func (s *BadgerStore) Delete(_ context.Context, uuid string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(roomKey(uuid))
	})
	if err != nil {
		return fmt.Errorf("delete room %s: %w", uuid, err)
	}
	return nil
}

func (s *BadgerStore) List(_ context.Context) ([]domain.Room, error) {
	var rooms []domain.Room
	prefix := []byte(roomKeyPrefix)
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(v []byte) error {
				var room domain.Room
				if err := json.Unmarshal(v, &room); err != nil {
					return fmt.Errorf("decode room record: %w", err)
				}
				rooms = append(rooms, room)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	return rooms, nil
}
