package basket

import (
	"math"
	"sort"

	"github.com/basketworks/basketapi/lib/myerrors"
)

// Basket is the aggregate: one user's basket plus its line items,
// treated as a single consistency unit. There is exactly one basket per
// user, so the basket uid equals the owning user's uid.
type Basket struct {
	UID   string
	Items map[string]BasketItem
}

type BasketItem struct {
	ProductUID string
	Quantity   int
}

func NewBasket(userUID string) Basket {
	return Basket{
		UID:   userUID,
		Items: map[string]BasketItem{},
	}
}

// AddItem merges quantity into an existing item for the same product,
// or inserts a new item. Additions that would push the quantity past
// the 32-bit ceiling are rejected rather than silently wrapped.
func (b *Basket) AddItem(productUID string, quantity int) error {
	if b.Items == nil {
		b.Items = map[string]BasketItem{}
	}

	existing, exists := b.Items[productUID]
	if exists {
		if existing.Quantity > math.MaxInt32-quantity {
			return myerrors.NewInvalidInputErrorf("quantity of product %s would overflow", productUID)
		}
		existing.Quantity += quantity
		b.Items[productUID] = existing
		return nil
	}

	b.Items[productUID] = BasketItem{
		ProductUID: productUID,
		Quantity:   quantity,
	}

	return nil
}

// UpdateItem replaces the quantity of an existing item.
// Returns false without side effect when the product is not in the basket.
func (b *Basket) UpdateItem(productUID string, newQuantity int) bool {
	existing, exists := b.Items[productUID]
	if !exists {
		return false
	}

	existing.Quantity = newQuantity
	b.Items[productUID] = existing
	return true
}

// DeleteItem returns false when the product is not in the basket.
func (b *Basket) DeleteItem(productUID string) bool {
	_, exists := b.Items[productUID]
	if !exists {
		return false
	}

	delete(b.Items, productUID)
	return true
}

func (b *Basket) Clear() {
	b.Items = map[string]BasketItem{}
}

func (b Basket) GetItem(productUID string) (BasketItem, bool) {
	item, exists := b.Items[productUID]
	return item, exists
}

// ListItems returns a snapshot of the items, ordered by product uid so
// that listings are stable across calls.
func (b Basket) ListItems() []BasketItem {
	items := make([]BasketItem, 0, len(b.Items))
	for _, item := range b.Items {
		items = append(items, item)
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].ProductUID < items[j].ProductUID
	})

	return items
}
