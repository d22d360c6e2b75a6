package backend

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/example/licorice-storefront/internal/domain/product"
)

const returnsPath = "/returns"

// ReturnStatus is the processing state of a return request
type ReturnStatus string

const (
	ReturnPending   ReturnStatus = "pending"
	ReturnApproved  ReturnStatus = "approved"
	ReturnRejected  ReturnStatus = "rejected"
	ReturnCompleted ReturnStatus = "completed"
)

func (s ReturnStatus) Valid() bool {
	switch s {
	case ReturnPending, ReturnApproved, ReturnRejected, ReturnCompleted:
		return true
	}
	return false
}

type ReturnRequest struct {
	ID          product.ID   `json:"id"`
	OrderNumber string       `json:"orderNumber"`
	Name        string       `json:"name"`
	Email       string       `json:"email"`
	Reason      string       `json:"reason"`
	Status      ReturnStatus `json:"status"`
	CreatedAt   *time.Time   `json:"createdAt,omitempty"`
}

type ReturnInput struct {
	OrderNumber string `json:"orderNumber"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Reason      string `json:"reason"`
}

func (in ReturnInput) Validate() error {
	if strings.TrimSpace(in.OrderNumber) == "" {
		return fmt.Errorf("%w: order number is required", ErrValidation)
	}
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if err := validateEmail(in.Email); err != nil {
		return err
	}
	if strings.TrimSpace(in.Reason) == "" {
		return fmt.Errorf("%w: reason is required", ErrValidation)
	}
	return nil
}

type ReturnService struct {
	r Requester
}

func (s *ReturnService) List(ctx context.Context) ([]ReturnRequest, error) {
	returns, err := get[[]ReturnRequest](ctx, s.r, returnsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to list returns: %w", err)
	}
	if returns == nil {
		returns = []ReturnRequest{}
	}
	return returns, nil
}

func (s *ReturnService) Create(ctx context.Context, in ReturnInput) (*ReturnRequest, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	ret, err := post[ReturnRequest](ctx, s.r, returnsPath, in)
	if err != nil {
		return nil, fmt.Errorf("failed to create return: %w", err)
	}
	return &ret, nil
}

// UpdateStatus moves a return request to status
func (s *ReturnService) UpdateStatus(ctx context.Context, id string, status ReturnStatus) (*ReturnRequest, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown return status %q", ErrValidation, status)
	}
	ret, err := put[ReturnRequest](ctx, s.r, resourcePath(returnsPath, id), map[string]ReturnStatus{"status": status})
	if err != nil {
		return nil, fmt.Errorf("failed to update return: %w", err)
	}
	return &ret, nil
}

func (s *ReturnService) Delete(ctx context.Context, id string) error {
	if err := del(ctx, s.r, resourcePath(returnsPath, id)); err != nil {
		return fmt.Errorf("failed to delete return: %w", err)
	}
	return nil
}
