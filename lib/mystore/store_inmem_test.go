package mystore

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

type person struct {
	Name    string
	Age     int
	Hobbies []string
}

func TestInsertAndGet(t *testing.T) {
	c := context.TODO()
	store, cleanup, err := NewInMemoryStore[person](c)
	assert.NoError(t, err)
	defer cleanup()

	_, _, exists, err := store.Get(c, "1")
	assert.NoError(t, err)
	assert.False(t, exists)

	err = store.Insert(c, "1", person{Name: "Eva", Age: 48, Hobbies: []string{"hockey"}})
	assert.NoError(t, err)

	got, version, exists, err := store.Get(c, "1")
	assert.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, int64(1), version)
	assert.Equal(t, "Eva", got.Name)
	assert.Equal(t, []string{"hockey"}, got.Hobbies)
}

func TestInsertDuplicate(t *testing.T) {
	c := context.TODO()
	store, cleanup, _ := NewInMemoryStore[person](c)
	defer cleanup()

	err := store.Insert(c, "1", person{Name: "Eva"})
	assert.NoError(t, err)

	err = store.Insert(c, "1", person{Name: "Marc"})
	assert.ErrorIs(t, err, ErrAlreadyExists)

	// Original entity is untouched
	got, version, exists, _ := store.Get(c, "1")
	assert.True(t, exists)
	assert.Equal(t, int64(1), version)
	assert.Equal(t, "Eva", got.Name)
}

func TestUpdateAdvancesVersion(t *testing.T) {
	c := context.TODO()
	store, cleanup, _ := NewInMemoryStore[person](c)
	defer cleanup()

	err := store.Insert(c, "1", person{Name: "Eva", Age: 48})
	assert.NoError(t, err)

	newVersion, err := store.Update(c, "1", person{Name: "Eva", Age: 49}, 1)
	assert.NoError(t, err)
	assert.Equal(t, int64(2), newVersion)

	got, version, exists, _ := store.Get(c, "1")
	assert.True(t, exists)
	assert.Equal(t, int64(2), version)
	assert.Equal(t, 49, got.Age)
}

func TestUpdateStaleVersionConflicts(t *testing.T) {
	c := context.TODO()
	store, cleanup, _ := NewInMemoryStore[person](c)
	defer cleanup()

	err := store.Insert(c, "1", person{Name: "Eva", Age: 48})
	assert.NoError(t, err)

	_, err = store.Update(c, "1", person{Name: "Eva", Age: 49}, 1)
	assert.NoError(t, err)

	// Second writer still holds version 1
	_, err = store.Update(c, "1", person{Name: "Eva", Age: 50}, 1)
	assert.ErrorIs(t, err, ErrConflict)

	// The loser must not have modified anything
	got, version, _, _ := store.Get(c, "1")
	assert.Equal(t, int64(2), version)
	assert.Equal(t, 49, got.Age)
}

func TestUpdateNonExisting(t *testing.T) {
	c := context.TODO()
	store, cleanup, _ := NewInMemoryStore[person](c)
	defer cleanup()

	_, err := store.Update(c, "does-not-exist", person{Name: "Eva"}, 1)
	assert.Error(t, err)
}

func TestGetReturnsCopy(t *testing.T) {
	c := context.TODO()
	store, cleanup, _ := NewInMemoryStore[person](c)
	defer cleanup()

	err := store.Insert(c, "1", person{Name: "Eva", Hobbies: []string{"hockey"}})
	assert.NoError(t, err)

	got, _, _, _ := store.Get(c, "1")
	got.Hobbies[0] = "tennis"

	// Mutating the returned value must not leak into the store
	fresh, _, _, _ := store.Get(c, "1")
	assert.Equal(t, []string{"hockey"}, fresh.Hobbies)
}

func TestConcurrentUpdatesSingleWinner(t *testing.T) {
	c := context.TODO()
	store, cleanup, _ := NewInMemoryStore[person](c)
	defer cleanup()

	err := store.Insert(c, "1", person{Name: "Eva", Age: 0})
	assert.NoError(t, err)

	const racers = 8

	// All racers read the same version, then race on the swap:
	// exactly one may win each round.
	_, version, _, _ := store.Get(c, "1")

	var wg sync.WaitGroup
	results := make(chan error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(age int) {
			defer wg.Done()
			_, err := store.Update(c, "1", person{Name: "Eva", Age: age}, version)
			results <- err
		}(i)
	}
	wg.Wait()
	close(results)

	winners := 0
	losers := 0
	for err := range results {
		if err == nil {
			winners++
		} else if errors.Is(err, ErrConflict) {
			losers++
		} else {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, winners)
	assert.Equal(t, racers-1, losers)
}
