package backend

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/example/licorice-storefront/internal/domain/product"
)

const newsletterPath = "/newsletter"

type Subscriber struct {
	ID           product.ID `json:"id"`
	Email        string     `json:"email"`
	SubscribedAt *time.Time `json:"subscribedAt,omitempty"`
}

type NewsletterService struct {
	r Requester
}

func (s *NewsletterService) List(ctx context.Context) ([]Subscriber, error) {
	subscribers, err := get[[]Subscriber](ctx, s.r, newsletterPath)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscribers: %w", err)
	}
	if subscribers == nil {
		subscribers = []Subscriber{}
	}
	return subscribers, nil
}

// Subscribe adds email to the newsletter list
func (s *NewsletterService) Subscribe(ctx context.Context, email string) (*Subscriber, error) {
	email = strings.TrimSpace(email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	sub, err := post[Subscriber](ctx, s.r, newsletterPath, map[string]string{"email": email})
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe: %w", err)
	}
	return &sub, nil
}

func (s *NewsletterService) Delete(ctx context.Context, id string) error {
	if err := del(ctx, s.r, resourcePath(newsletterPath, id)); err != nil {
		return fmt.Errorf("failed to delete subscriber: %w", err)
	}
	return nil
}
