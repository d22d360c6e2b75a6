package backend

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/example/licorice-storefront/internal/domain/product"
)

const productsPath = "/products"

type ProductService struct {
	r Requester
}

// List returns normalized products. The backend sends either a bare array or
// an object with a products field as data.
func (s *ProductService) List(ctx context.Context) ([]product.Product, error) {
	data, err := get[json.RawMessage](ctx, s.r, productsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	raws, err := decodeProductList(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode products: %w", err)
	}

	products := make([]product.Product, 0, len(raws))
	for _, raw := range raws {
		p := raw.Normalize()
		if p.ID.IsZero() {
			continue
		}
		products = append(products, p)
	}
	return products, nil
}

func (s *ProductService) Get(ctx context.Context, id string) (*product.Product, error) {
	raw, err := get[product.Raw](ctx, s.r, resourcePath(productsPath, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	p := raw.Normalize()
	return &p, nil
}

func decodeProductList(data json.RawMessage) ([]product.Raw, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}

	var list []product.Raw
	if err := json.Unmarshal(data, &list); err == nil {
		return list, nil
	}

	var wrapped struct {
		Products []product.Raw `json:"products"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, err
	}
	return wrapped.Products, nil
}
