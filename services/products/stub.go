package products

import (
	"context"
	"fmt"
	"hash/fnv"

	"github.com/basketworks/basketapi/services/basketapi"
)

const productAPIHost = "https://products.basketworks.dev"

type stubPreviewer struct{}

// NewStubPreviewer returns a previewer that derives a deterministic
// preview from the product id. Stand-in for the external product
// service, which is out of scope here.
func NewStubPreviewer() ProductPreviewer {
	return &stubPreviewer{}
}

func (p stubPreviewer) GetProductPreview(c context.Context, productUID string) (ProductPreview, error) {
	catalogEntry := catalog[hash(productUID)%uint32(len(catalog))]

	return ProductPreview{
		ProductUID:  productUID,
		Description: catalogEntry.description,
		ImageURL:    fmt.Sprintf("%s/assets/%s.png", productAPIHost, productUID),
		Price:       catalogEntry.price,
		Currency:    "EUR",
		Links: map[string]basketapi.HalLink{
			"self": {
				Href:  fmt.Sprintf("%s/products/%s", productAPIHost, productUID),
				Title: "product",
			},
		},
	}, nil
}

func hash(s string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(s))
	return h.Sum32()
}

type catalogEntry struct {
	description string
	price       int64
}

var catalog = []catalogEntry{
	{description: "Hockey stick", price: 19000},
	{description: "Hockey shoes", price: 12000},
	{description: "Jogging pants", price: 6000},
	{description: "Sweat shirt", price: 7000},
	{description: "Hoody", price: 8000},
	{description: "Tennis racket", price: 16900},
	{description: "Tennis balls", price: 1000},
	{description: "Tennis shoes", price: 12000},
	{description: "Running shoes", price: 12000},
	{description: "Running shirt", price: 5000},
	{description: "Running shorts", price: 4000},
	{description: "Running socks", price: 1000},
	{description: "Running cap", price: 2000},
}
