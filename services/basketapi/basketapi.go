package basketapi

import (
	"encoding/json"
	"io"
	"math"

	"github.com/google/uuid"

	"github.com/basketworks/basketapi/lib/myerrors"
)

// HalLink is a named navigational URL attached to a representation
type HalLink struct {
	Href  string `json:"href"`
	Title string `json:"title,omitempty"`
}

// Basket is the wire representation of a user's basket.
// Baskets are identified by the user id of the owner.
type Basket struct {
	ID    string             `json:"id"`
	Items []BasketItem       `json:"items"`
	Links map[string]HalLink `json:"_links,omitempty"`
}

// BasketItem is the wire representation of a single line item.
// Items are identified by product id.
type BasketItem struct {
	ProductUID string                 `json:"productId"`
	Quantity   int                    `json:"quantity"`
	Links      map[string]HalLink     `json:"_links,omitempty"`
	Embedded   map[string]interface{} `json:"_embedded,omitempty"`
}

type AddItemRequest struct {
	ProductUID string `json:"productId"`
	Quantity   int    `json:"quantity"`
}

type UpdateItemRequest struct {
	Quantity int `json:"quantity"`
}

func ParseAddItemRequest(reader io.Reader) (AddItemRequest, error) {
	request := AddItemRequest{}
	err := json.NewDecoder(reader).Decode(&request)
	if err != nil {
		return request, myerrors.NewInvalidInputErrorf("error parsing request body: %s", err)
	}

	if _, err := uuid.Parse(request.ProductUID); err != nil {
		return request, myerrors.NewInvalidInputErrorf("invalid productId %q", request.ProductUID)
	}

	err = validateQuantity(request.Quantity)
	if err != nil {
		return request, err
	}

	return request, nil
}

func ParseUpdateItemRequest(reader io.Reader) (UpdateItemRequest, error) {
	request := UpdateItemRequest{}
	err := json.NewDecoder(reader).Decode(&request)
	if err != nil {
		return request, myerrors.NewInvalidInputErrorf("error parsing request body: %s", err)
	}

	err = validateQuantity(request.Quantity)
	if err != nil {
		return request, err
	}

	return request, nil
}

// validateQuantity rejects out-of-range quantities before they can
// reach the aggregate
func validateQuantity(quantity int) error {
	if quantity < 1 {
		return myerrors.NewInvalidInputErrorf("quantity must be a positive integer, got %d", quantity)
	}
	if quantity > math.MaxInt32 {
		return myerrors.NewInvalidInputErrorf("quantity %d out of range", quantity)
	}
	return nil
}
