package products

import (
	"context"

	"github.com/basketworks/basketapi/services/basketapi"
)

// ProductPreview is a minimal product representation intended to be
// embedded inside related resources. The full product resource lives in
// an external product service.
type ProductPreview struct {
	ProductUID  string                       `json:"productId"`
	Description string                       `json:"description"`
	ImageURL    string                       `json:"productImageUrl"`
	Price       int64                        `json:"price"`
	Currency    string                       `json:"currency"`
	Links       map[string]basketapi.HalLink `json:"_links,omitempty"`
}

//go:generate mockgen -source=api.go -package products -destination previewer_mock.go ProductPreviewer
type ProductPreviewer interface {
	GetProductPreview(c context.Context, productUID string) (ProductPreview, error)
}
