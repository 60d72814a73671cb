package mystore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"cloud.google.com/go/datastore"
)

// versionedEntity is the persisted shape: the entity itself is kept as
// an opaque JSON payload so any T fits without index configuration.
type versionedEntity struct {
	Payload string `datastore:",noindex"`
	Version int64
}

type gcloudStore[T any] struct {
	client *datastore.Client
	kind   string
}

func newGcloudStore[T any](c context.Context) (*gcloudStore[T], func(), error) {
	projectID := os.Getenv("GOOGLE_CLOUD_PROJECT")
	client, err := datastore.NewClient(c, projectID)
	if err != nil {
		return nil, nil, fmt.Errorf("error creating datastore-client: %s", err)
	}

	val := new(T)
	kind := fmt.Sprintf("%T", *val)
	if strings.Contains(kind, ".") {
		kind = strings.Split(kind, ".")[1]
	}

	return &gcloudStore[T]{
			client: client,
			kind:   kind,
		}, func() {
			client.Close()
		}, nil
}

func (s *gcloudStore[T]) Get(c context.Context, uid string) (T, int64, bool, error) {
	value := new(T)

	entity := versionedEntity{}
	err := s.client.Get(c, datastore.NameKey(s.kind, uid, nil), &entity)
	if err != nil {
		if err == datastore.ErrNoSuchEntity {
			return *value, 0, false, nil
		}
		return *value, 0, false, fmt.Errorf("error fetching entity %s with uid %s: %s", s.kind, uid, err)
	}

	err = json.Unmarshal([]byte(entity.Payload), value)
	if err != nil {
		return *value, 0, false, fmt.Errorf("error decoding entity %s with uid %s: %s", s.kind, uid, err)
	}

	return *value, entity.Version, true, nil
}

func (s *gcloudStore[T]) Insert(c context.Context, uid string, value T) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("error encoding entity %s with uid %s: %s", s.kind, uid, err)
	}

	key := datastore.NameKey(s.kind, uid, nil)

	_, err = s.client.RunInTransaction(c, func(tx *datastore.Transaction) error {
		existing := versionedEntity{}
		err := tx.Get(key, &existing)
		if err == nil {
			return fmt.Errorf("entity %s with uid %s: %w", s.kind, uid, ErrAlreadyExists)
		}
		if err != datastore.ErrNoSuchEntity {
			return fmt.Errorf("error fetching entity %s with uid %s: %s", s.kind, uid, err)
		}

		_, err = tx.Put(key, &versionedEntity{
			Payload: string(payload),
			Version: 1,
		})
		return err
	})

	return err
}

func (s *gcloudStore[T]) Update(c context.Context, uid string, value T, expectedVersion int64) (int64, error) {
	payload, err := json.Marshal(value)
	if err != nil {
		return 0, fmt.Errorf("error encoding entity %s with uid %s: %s", s.kind, uid, err)
	}

	key := datastore.NameKey(s.kind, uid, nil)
	newVersion := expectedVersion + 1

	_, err = s.client.RunInTransaction(c, func(tx *datastore.Transaction) error {
		existing := versionedEntity{}
		err := tx.Get(key, &existing)
		if err != nil {
			if err == datastore.ErrNoSuchEntity {
				return fmt.Errorf("entity %s with uid %s does not exist", s.kind, uid)
			}
			return fmt.Errorf("error fetching entity %s with uid %s: %s", s.kind, uid, err)
		}

		if existing.Version != expectedVersion {
			return fmt.Errorf("entity %s with uid %s is at version %d, caller expected %d: %w",
				s.kind, uid, existing.Version, expectedVersion, ErrConflict)
		}

		_, err = tx.Put(key, &versionedEntity{
			Payload: string(payload),
			Version: newVersion,
		})
		return err
	})
	if err != nil {
		return 0, err
	}

	return newVersion, nil
}
