package basket

import (
	"context"
	"errors"
	"fmt"

	"github.com/basketworks/basketapi/lib/myerrors"
	"github.com/basketworks/basketapi/lib/myevents"
	"github.com/basketworks/basketapi/lib/mylog"
	"github.com/basketworks/basketapi/lib/mystore"
	"github.com/basketworks/basketapi/services/basket/basketevents"
)

// casRetryAttempts bounds the transparent retry of commutative
// mutations when a concurrent writer wins the compare-and-swap
const casRetryAttempts = 3

// getBasket never fails on absence: the first access materializes an
// empty basket. When two first-reads race on the insert, the loser
// treats already-exists as success and re-reads.
func (s *service) getBasket(c context.Context, userUID string) (Basket, error) {
	s.logger.Log(c, userUID, mylog.SeverityInfo, "Fetch basket of user %s", userUID)

	for {
		basket, _, exists, err := s.basketStore.Get(c, userUID)
		if err != nil {
			return Basket{}, myerrors.NewInternalError(err)
		}
		if exists {
			return basket, nil
		}

		basket = NewBasket(userUID)
		err = s.basketStore.Insert(c, userUID, basket)
		if err != nil {
			if errors.Is(err, mystore.ErrAlreadyExists) {
				// a concurrent request created it first
				continue
			}
			return Basket{}, myerrors.NewInternalError(err)
		}

		s.logger.Log(c, userUID, mylog.SeverityInfo, "Materialized empty basket for user %s", userUID)

		return basket, nil
	}
}

func (s *service) getItem(c context.Context, userUID string, productUID string) (BasketItem, bool, error) {
	basket, _, exists, err := s.basketStore.Get(c, userUID)
	if err != nil {
		return BasketItem{}, false, myerrors.NewInternalError(err)
	}
	if !exists {
		return BasketItem{}, false, nil
	}

	item, found := basket.GetItem(productUID)
	return item, found, nil
}

// addItem merges the quantity into the user's basket. The merge is
// commutative, so a lost compare-and-swap is retried against a freshly
// read basket instead of being surfaced.
func (s *service) addItem(c context.Context, userUID string, productUID string, quantity int) error {
	s.logger.Log(c, userUID, mylog.SeverityInfo, "Add %d x product %s to basket of user %s", quantity, productUID, userUID)

	var lastErr error
	for attempt := 1; attempt <= casRetryAttempts; attempt++ {
		basket, version, exists, err := s.basketStore.Get(c, userUID)
		if err != nil {
			return myerrors.NewInternalError(err)
		}

		if !exists {
			basket = NewBasket(userUID)
			err := basket.AddItem(productUID, quantity)
			if err != nil {
				return err
			}

			err = s.basketStore.Insert(c, userUID, basket)
			if err != nil {
				if errors.Is(err, mystore.ErrAlreadyExists) {
					// lost the creation race, merge against the winner's basket
					lastErr = err
					continue
				}
				return myerrors.NewInternalError(err)
			}
		} else {
			err := basket.AddItem(productUID, quantity)
			if err != nil {
				return err
			}

			_, err = s.basketStore.Update(c, userUID, basket, version)
			if err != nil {
				if errors.Is(err, mystore.ErrConflict) {
					lastErr = err
					continue
				}
				return myerrors.NewInternalError(err)
			}
		}

		s.publish(c, userUID, basketevents.BasketItemAdded{
			UserUID:    userUID,
			ProductUID: productUID,
			Quantity:   quantity,
		})

		return nil
	}

	return myerrors.NewConflictError(fmt.Errorf("basket of user %s kept changing underneath: %s", userUID, lastErr))
}

// updateItemQuantity overwrites the quantity of an existing item.
// On a missing basket the update degenerates to an implicit add. A lost
// compare-and-swap is surfaced as a conflict: a blind overwrite is not
// safely auto-mergeable, the client must re-read and decide.
func (s *service) updateItemQuantity(c context.Context, userUID string, productUID string, quantity int) (bool, error) {
	s.logger.Log(c, userUID, mylog.SeverityInfo, "Set quantity of product %s to %d in basket of user %s", productUID, quantity, userUID)

	basket, version, exists, err := s.basketStore.Get(c, userUID)
	if err != nil {
		return false, myerrors.NewInternalError(err)
	}

	if !exists {
		basket = NewBasket(userUID)
		err := basket.AddItem(productUID, quantity)
		if err != nil {
			return false, err
		}

		err = s.basketStore.Insert(c, userUID, basket)
		if err == nil {
			s.publish(c, userUID, basketevents.BasketItemUpdated{
				UserUID:    userUID,
				ProductUID: productUID,
				Quantity:   quantity,
			})
			return true, nil
		}
		if !errors.Is(err, mystore.ErrAlreadyExists) {
			return false, myerrors.NewInternalError(err)
		}

		// lost the creation race, fall through to the regular update path
		basket, version, exists, err = s.basketStore.Get(c, userUID)
		if err != nil {
			return false, myerrors.NewInternalError(err)
		}
		if !exists {
			return false, myerrors.NewInternalError(fmt.Errorf("basket of user %s vanished", userUID))
		}
	}

	if !basket.UpdateItem(productUID, quantity) {
		return false, nil
	}

	_, err = s.basketStore.Update(c, userUID, basket, version)
	if err != nil {
		if errors.Is(err, mystore.ErrConflict) {
			return false, myerrors.NewConflictError(err)
		}
		return false, myerrors.NewInternalError(err)
	}

	s.publish(c, userUID, basketevents.BasketItemUpdated{
		UserUID:    userUID,
		ProductUID: productUID,
		Quantity:   quantity,
	})

	return true, nil
}

// deleteItem reports true when the item is gone afterwards because it
// was removed or because the basket was never created. False means the
// basket exists but never held the product.
func (s *service) deleteItem(c context.Context, userUID string, productUID string) (bool, error) {
	s.logger.Log(c, userUID, mylog.SeverityInfo, "Delete product %s from basket of user %s", productUID, userUID)

	basket, version, exists, err := s.basketStore.Get(c, userUID)
	if err != nil {
		return false, myerrors.NewInternalError(err)
	}
	if !exists {
		// deleting from an absent basket is not an error
		return true, nil
	}

	if !basket.DeleteItem(productUID) {
		return false, nil
	}

	_, err = s.basketStore.Update(c, userUID, basket, version)
	if err != nil {
		if errors.Is(err, mystore.ErrConflict) {
			return false, myerrors.NewConflictError(err)
		}
		return false, myerrors.NewInternalError(err)
	}

	s.publish(c, userUID, basketevents.BasketItemDeleted{
		UserUID:    userUID,
		ProductUID: productUID,
	})

	return true, nil
}

func (s *service) clearBasket(c context.Context, userUID string) error {
	s.logger.Log(c, userUID, mylog.SeverityInfo, "Clear basket of user %s", userUID)

	basket, version, exists, err := s.basketStore.Get(c, userUID)
	if err != nil {
		return myerrors.NewInternalError(err)
	}
	if !exists {
		return nil
	}

	basket.Clear()

	_, err = s.basketStore.Update(c, userUID, basket, version)
	if err != nil {
		if errors.Is(err, mystore.ErrConflict) {
			return myerrors.NewConflictError(err)
		}
		return myerrors.NewInternalError(err)
	}

	s.publish(c, userUID, basketevents.BasketCleared{
		UserUID: userUID,
	})

	return nil
}

// publish is advisory: a failure to publish never fails the mutation
// that already committed
func (s *service) publish(c context.Context, userUID string, event myevents.Event) {
	err := s.publisher.Publish(c, basketevents.TopicName, event)
	if err != nil {
		s.logger.Log(c, userUID, mylog.SeverityWarn, "Error publishing %s: %s", event.GetEventTypeName(), err)
	}
}
