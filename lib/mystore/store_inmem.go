package mystore

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

type record struct {
	payload []byte
	version int64
}

// InMemoryStore keeps entities JSON-encoded so that every Get hands out
// a deep copy: callers can freely mutate what they got back without
// corrupting store-held state.
type InMemoryStore[T any] struct {
	sync.Mutex
	items map[string]record
}

func NewInMemoryStore[T any](c context.Context) (*InMemoryStore[T], func(), error) {
	return &InMemoryStore[T]{
		items: make(map[string]record),
	}, func() {}, nil
}

func (s *InMemoryStore[T]) Get(c context.Context, uid string) (T, int64, bool, error) {
	s.Lock()
	defer s.Unlock()

	value := new(T)

	rec, exists := s.items[uid]
	if !exists {
		return *value, 0, false, nil
	}

	err := json.Unmarshal(rec.payload, value)
	if err != nil {
		return *value, 0, false, fmt.Errorf("error decoding entity with uid %s: %s", uid, err)
	}

	return *value, rec.version, true, nil
}

func (s *InMemoryStore[T]) Insert(c context.Context, uid string, value T) error {
	s.Lock()
	defer s.Unlock()

	_, exists := s.items[uid]
	if exists {
		return fmt.Errorf("entity with uid %s: %w", uid, ErrAlreadyExists)
	}

	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("error encoding entity with uid %s: %s", uid, err)
	}

	s.items[uid] = record{
		payload: payload,
		version: 1,
	}

	return nil
}

func (s *InMemoryStore[T]) Update(c context.Context, uid string, value T, expectedVersion int64) (int64, error) {
	s.Lock()
	defer s.Unlock()

	rec, exists := s.items[uid]
	if !exists {
		return 0, fmt.Errorf("entity with uid %s does not exist", uid)
	}

	if rec.version != expectedVersion {
		return 0, fmt.Errorf("entity with uid %s is at version %d, caller expected %d: %w",
			uid, rec.version, expectedVersion, ErrConflict)
	}

	payload, err := json.Marshal(value)
	if err != nil {
		return 0, fmt.Errorf("error encoding entity with uid %s: %s", uid, err)
	}

	newVersion := rec.version + 1
	s.items[uid] = record{
		payload: payload,
		version: newVersion,
	}

	return newVersion, nil
}
