package backend

import (
	"context"
	"fmt"
	"strings"
)

const wholesalePath = "/wholesale/inquiry"

type WholesaleInquiry struct {
	BusinessName      string `json:"businessName"`
	ContactName       string `json:"contactName"`
	Email             string `json:"email"`
	Phone             string `json:"phone,omitempty"`
	EstimatedQuantity int    `json:"estimatedQuantity,omitempty"`
	Message           string `json:"message,omitempty"`
}

func (in WholesaleInquiry) Validate() error {
	if strings.TrimSpace(in.BusinessName) == "" {
		return fmt.Errorf("%w: business name is required", ErrValidation)
	}
	if strings.TrimSpace(in.ContactName) == "" {
		return fmt.Errorf("%w: contact name is required", ErrValidation)
	}
	if in.EstimatedQuantity < 0 {
		return fmt.Errorf("%w: estimated quantity cannot be negative", ErrValidation)
	}
	return validateEmail(in.Email)
}

type WholesaleService struct {
	r Requester
}

// Submit sends a wholesale inquiry and returns the backend's confirmation
// message.
func (s *WholesaleService) Submit(ctx context.Context, in WholesaleInquiry) (string, error) {
	if err := in.Validate(); err != nil {
		return "", err
	}

	var env Envelope[map[string]any]
	if err := s.r.Post(ctx, wholesalePath, in, &env); err != nil {
		return "", fmt.Errorf("failed to submit wholesale inquiry: %w", err)
	}
	if _, err := unwrap(env); err != nil {
		return "", fmt.Errorf("failed to submit wholesale inquiry: %w", err)
	}
	return env.Message, nil
}
