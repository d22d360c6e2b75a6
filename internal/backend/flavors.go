package backend

import (
	"context"
	"fmt"
	"strings"

	"github.com/example/licorice-storefront/internal/domain/product"
)

const flavorsPath = "/flavors"

type Flavor struct {
	ID          product.ID `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Image       string     `json:"image,omitempty"`
	Featured    bool       `json:"featured"`
}

// FlavorInput is the body of flavor create and update calls
type FlavorInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Image       string `json:"image,omitempty"`
	Featured    bool   `json:"featured"`
}

func (in FlavorInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: flavor name is required", ErrValidation)
	}
	return nil
}

type FlavorService struct {
	r Requester
}

func (s *FlavorService) List(ctx context.Context) ([]Flavor, error) {
	flavors, err := get[[]Flavor](ctx, s.r, flavorsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to list flavors: %w", err)
	}
	if flavors == nil {
		flavors = []Flavor{}
	}
	return flavors, nil
}

func (s *FlavorService) Get(ctx context.Context, id string) (*Flavor, error) {
	flavor, err := get[Flavor](ctx, s.r, resourcePath(flavorsPath, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get flavor: %w", err)
	}
	return &flavor, nil
}

func (s *FlavorService) Create(ctx context.Context, in FlavorInput) (*Flavor, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	flavor, err := post[Flavor](ctx, s.r, flavorsPath, in)
	if err != nil {
		return nil, fmt.Errorf("failed to create flavor: %w", err)
	}
	return &flavor, nil
}

func (s *FlavorService) Update(ctx context.Context, id string, in FlavorInput) (*Flavor, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	flavor, err := put[Flavor](ctx, s.r, resourcePath(flavorsPath, id), in)
	if err != nil {
		return nil, fmt.Errorf("failed to update flavor: %w", err)
	}
	return &flavor, nil
}

func (s *FlavorService) Delete(ctx context.Context, id string) error {
	if err := del(ctx, s.r, resourcePath(flavorsPath, id)); err != nil {
		return fmt.Errorf("failed to delete flavor: %w", err)
	}
	return nil
}
