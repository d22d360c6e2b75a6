package backend

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/example/licorice-storefront/internal/domain/product"
)

const contactPath = "/contact"

// ContactMessage is a message sent through the contact form
type ContactMessage struct {
	ID        product.ID `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Subject   string     `json:"subject,omitempty"`
	Message   string     `json:"message"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
}

type ContactInput struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject,omitempty"`
	Message string `json:"message"`
}

func (in ContactInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if err := validateEmail(in.Email); err != nil {
		return err
	}
	if strings.TrimSpace(in.Message) == "" {
		return fmt.Errorf("%w: message is required", ErrValidation)
	}
	return nil
}

func validateEmail(email string) error {
	if strings.TrimSpace(email) == "" {
		return fmt.Errorf("%w: email is required", ErrValidation)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return fmt.Errorf("%w: invalid email address", ErrValidation)
	}
	return nil
}

type ContactService struct {
	r Requester
}

func (s *ContactService) List(ctx context.Context) ([]ContactMessage, error) {
	messages, err := get[[]ContactMessage](ctx, s.r, contactPath)
	if err != nil {
		return nil, fmt.Errorf("failed to list contact messages: %w", err)
	}
	if messages == nil {
		messages = []ContactMessage{}
	}
	return messages, nil
}

func (s *ContactService) Create(ctx context.Context, in ContactInput) (*ContactMessage, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	msg, err := post[ContactMessage](ctx, s.r, contactPath, in)
	if err != nil {
		return nil, fmt.Errorf("failed to send contact message: %w", err)
	}
	return &msg, nil
}

func (s *ContactService) Delete(ctx context.Context, id string) error {
	if err := del(ctx, s.r, resourcePath(contactPath, id)); err != nil {
		return fmt.Errorf("failed to delete contact message: %w", err)
	}
	return nil
}
