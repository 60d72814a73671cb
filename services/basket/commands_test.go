package basket

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/basketworks/basketapi/lib/myerrors"
	"github.com/basketworks/basketapi/lib/mylog"
	"github.com/basketworks/basketapi/lib/mypublisher"
	"github.com/basketworks/basketapi/lib/mystore"
	"github.com/basketworks/basketapi/services/basket/basketevents"
)

const (
	userMarc = "9692f363-b2d5-44f1-9d4c-e207f12278c4"
	prodA    = "f2b4dc30-4c18-4e3c-afe0-71be1c171b8e"
	prodB    = "3b7b45b2-9f08-46e7-b3f3-6efce4b9b3b0"
)

// flakyStore loses the compare-and-swap a fixed number of times before
// handing over to the real store.
type flakyStore struct {
	mystore.Store[Basket]
	conflicts int
}

func (s *flakyStore) Update(c context.Context, uid string, value Basket, expectedVersion int64) (int64, error) {
	if s.conflicts > 0 {
		s.conflicts--
		return 0, mystore.ErrConflict
	}
	return s.Store.Update(c, uid, value, expectedVersion)
}

func setupService(t *testing.T, ctrl *gomock.Controller) (context.Context, *service, mystore.Store[Basket], *mypublisher.MockPublisher) {
	t.Helper()

	c := context.TODO()
	storer, _, err := mystore.New[Basket](c)
	assert.NoError(t, err)
	publisher := mypublisher.NewMockPublisher(ctrl)

	return c, newService(storer, publisher, mylog.New("baskettest")), storer, publisher
}

func TestBasketCommands(t *testing.T) {

	t.Run("First access materializes empty basket", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		c, sut, storer, _ := setupService(t, ctrl)

		// when
		basket, err := sut.getBasket(c, userMarc)

		// then
		assert.NoError(t, err)
		assert.Equal(t, userMarc, basket.UID)
		assert.Empty(t, basket.Items)

		// and the basket was persisted
		stored, version, exists, err := storer.Get(c, userMarc)
		assert.NoError(t, err)
		assert.True(t, exists)
		assert.Equal(t, int64(1), version)
		assert.Equal(t, userMarc, stored.UID)
	})

	t.Run("Add item to absent basket", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		c, sut, storer, publisher := setupService(t, ctrl)

		publisher.EXPECT().Publish(gomock.Any(), basketevents.TopicName, basketevents.BasketItemAdded{
			UserUID:    userMarc,
			ProductUID: prodA,
			Quantity:   2,
		}).Return(nil)

		// when
		err := sut.addItem(c, userMarc, prodA, 2)

		// then
		assert.NoError(t, err)
		stored, _, _, err := storer.Get(c, userMarc)
		assert.NoError(t, err)
		item, found := stored.GetItem(prodA)
		assert.True(t, found)
		assert.Equal(t, 2, item.Quantity)
	})

	t.Run("Add same product twice merges quantities", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		c, sut, storer, publisher := setupService(t, ctrl)
		publisher.EXPECT().Publish(gomock.Any(), basketevents.TopicName, gomock.Any()).Return(nil).Times(2)

		// when
		assert.NoError(t, sut.addItem(c, userMarc, prodA, 2))
		assert.NoError(t, sut.addItem(c, userMarc, prodA, 3))

		// then
		stored, _, _, err := storer.Get(c, userMarc)
		assert.NoError(t, err)
		item, _ := stored.GetItem(prodA)
		assert.Equal(t, 5, item.Quantity)
		assert.Len(t, stored.Items, 1)
	})

	t.Run("Add retries transparently on lost compare-and-swap", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		c, sut, storer, publisher := setupService(t, ctrl)
		assert.NoError(t, storer.Insert(c, userMarc, NewBasket(userMarc)))

		sut.basketStore = &flakyStore{Store: storer, conflicts: 2}
		publisher.EXPECT().Publish(gomock.Any(), basketevents.TopicName, gomock.Any()).Return(nil)

		// when
		err := sut.addItem(c, userMarc, prodA, 1)

		// then
		assert.NoError(t, err)
		stored, _, _, _ := storer.Get(c, userMarc)
		item, found := stored.GetItem(prodA)
		assert.True(t, found)
		assert.Equal(t, 1, item.Quantity)
	})

	t.Run("Add gives up after exhausting retries", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		c, sut, storer, _ := setupService(t, ctrl)
		assert.NoError(t, storer.Insert(c, userMarc, NewBasket(userMarc)))

		sut.basketStore = &flakyStore{Store: storer, conflicts: casRetryAttempts}

		// when
		err := sut.addItem(c, userMarc, prodA, 1)

		// then
		assert.True(t, myerrors.IsConflictError(err))
	})

	t.Run("Concurrent adds lose no updates", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		c, sut, storer, publisher := setupService(t, ctrl)
		publisher.EXPECT().Publish(gomock.Any(), basketevents.TopicName, gomock.Any()).Return(nil).AnyTimes()

		products := []string{prodA, prodB, "0d9c2a91-5be9-4e01-b0bb-8a1a08c3510c"}

		var wg sync.WaitGroup
		succeeded := make([]bool, len(products))
		for i, productUID := range products {
			wg.Add(1)
			go func(i int, productUID string) {
				defer wg.Done()
				succeeded[i] = sut.addItem(c, userMarc, productUID, 1) == nil
			}(i, productUID)
		}
		wg.Wait()

		// every add that reported success is visible in the stored basket
		stored, _, _, err := storer.Get(c, userMarc)
		assert.NoError(t, err)
		for i, productUID := range products {
			if succeeded[i] {
				_, found := stored.GetItem(productUID)
				assert.True(t, found, "missing %s", productUID)
			}
		}
	})

	t.Run("Update quantity of existing item", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		c, sut, storer, publisher := setupService(t, ctrl)
		seed := NewBasket(userMarc)
		assert.NoError(t, seed.AddItem(prodA, 2))
		assert.NoError(t, storer.Insert(c, userMarc, seed))

		publisher.EXPECT().Publish(gomock.Any(), basketevents.TopicName, basketevents.BasketItemUpdated{
			UserUID:    userMarc,
			ProductUID: prodA,
			Quantity:   9,
		}).Return(nil)

		// when
		updated, err := sut.updateItemQuantity(c, userMarc, prodA, 9)

		// then
		assert.NoError(t, err)
		assert.True(t, updated)
		stored, _, _, _ := storer.Get(c, userMarc)
		item, _ := stored.GetItem(prodA)
		assert.Equal(t, 9, item.Quantity)
	})

	t.Run("Update of absent item", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		c, sut, storer, _ := setupService(t, ctrl)
		assert.NoError(t, storer.Insert(c, userMarc, NewBasket(userMarc)))

		// when
		updated, err := sut.updateItemQuantity(c, userMarc, prodA, 9)

		// then
		assert.NoError(t, err)
		assert.False(t, updated)
	})

	t.Run("Update against absent basket is an implicit add", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		c, sut, storer, publisher := setupService(t, ctrl)
		publisher.EXPECT().Publish(gomock.Any(), basketevents.TopicName, gomock.Any()).Return(nil)

		// when
		updated, err := sut.updateItemQuantity(c, userMarc, prodA, 4)

		// then
		assert.NoError(t, err)
		assert.True(t, updated)
		stored, _, _, _ := storer.Get(c, userMarc)
		item, _ := stored.GetItem(prodA)
		assert.Equal(t, 4, item.Quantity)
	})

	t.Run("Update surfaces lost compare-and-swap as conflict", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		c, sut, storer, _ := setupService(t, ctrl)
		seed := NewBasket(userMarc)
		assert.NoError(t, seed.AddItem(prodA, 2))
		assert.NoError(t, storer.Insert(c, userMarc, seed))

		sut.basketStore = &flakyStore{Store: storer, conflicts: 1}

		// when
		_, err := sut.updateItemQuantity(c, userMarc, prodA, 9)

		// then
		assert.True(t, myerrors.IsConflictError(err))

		// and the stored quantity is untouched
		stored, _, _, _ := storer.Get(c, userMarc)
		item, _ := stored.GetItem(prodA)
		assert.Equal(t, 2, item.Quantity)
	})

	t.Run("Delete existing item", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		c, sut, storer, publisher := setupService(t, ctrl)
		seed := NewBasket(userMarc)
		assert.NoError(t, seed.AddItem(prodA, 2))
		assert.NoError(t, storer.Insert(c, userMarc, seed))

		publisher.EXPECT().Publish(gomock.Any(), basketevents.TopicName, basketevents.BasketItemDeleted{
			UserUID:    userMarc,
			ProductUID: prodA,
		}).Return(nil)

		// when
		deleted, err := sut.deleteItem(c, userMarc, prodA)

		// then
		assert.NoError(t, err)
		assert.True(t, deleted)
		stored, _, _, _ := storer.Get(c, userMarc)
		assert.Empty(t, stored.Items)
	})

	t.Run("Delete of absent item", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		c, sut, storer, _ := setupService(t, ctrl)
		assert.NoError(t, storer.Insert(c, userMarc, NewBasket(userMarc)))

		// when
		deleted, err := sut.deleteItem(c, userMarc, prodA)

		// then
		assert.NoError(t, err)
		assert.False(t, deleted)
	})

	t.Run("Delete against absent basket succeeds", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		c, sut, _, _ := setupService(t, ctrl)

		// when
		deleted, err := sut.deleteItem(c, userMarc, prodA)

		// then
		assert.NoError(t, err)
		assert.True(t, deleted)
	})

	t.Run("Clear basket", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		c, sut, storer, publisher := setupService(t, ctrl)
		seed := NewBasket(userMarc)
		assert.NoError(t, seed.AddItem(prodA, 2))
		assert.NoError(t, seed.AddItem(prodB, 3))
		assert.NoError(t, storer.Insert(c, userMarc, seed))

		publisher.EXPECT().Publish(gomock.Any(), basketevents.TopicName, basketevents.BasketCleared{
			UserUID: userMarc,
		}).Return(nil)

		// when
		err := sut.clearBasket(c, userMarc)

		// then
		assert.NoError(t, err)
		stored, _, exists, _ := storer.Get(c, userMarc)
		assert.True(t, exists)
		assert.Empty(t, stored.Items)
	})

	t.Run("Clear of absent basket succeeds", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		c, sut, _, _ := setupService(t, ctrl)

		// when
		err := sut.clearBasket(c, userMarc)

		// then
		assert.NoError(t, err)
	})

	t.Run("Publish failure does not fail the mutation", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		c, sut, storer, publisher := setupService(t, ctrl)
		publisher.EXPECT().Publish(gomock.Any(), basketevents.TopicName, gomock.Any()).
			Return(assert.AnError)

		// when
		err := sut.addItem(c, userMarc, prodA, 1)

		// then
		assert.NoError(t, err)
		stored, _, _, _ := storer.Get(c, userMarc)
		_, found := stored.GetItem(prodA)
		assert.True(t, found)
	})
}
