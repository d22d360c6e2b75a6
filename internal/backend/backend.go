// Package backend wraps the REST resources of the storefront backend. Every
// response arrives in a {success, data, message} envelope.
package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/example/licorice-storefront/internal/apiclient"
)

var ErrValidation = errors.New("validation failed")

// Requester is the subset of *apiclient.Client the resources need
type Requester interface {
	Get(ctx context.Context, path string, out any) error
	Post(ctx context.Context, path string, body, out any) error
	Put(ctx context.Context, path string, body, out any) error
	Delete(ctx context.Context, path string, out any) error
}

var _ Requester = (*apiclient.Client)(nil)

// Envelope is the response wrapper of every backend endpoint
type Envelope[T any] struct {
	Success *bool  `json:"success"`
	Data    T      `json:"data"`
	Message string `json:"message,omitempty"`
}

// unwrap turns an explicit success:false into an *apiclient.APIError
func unwrap[T any](env Envelope[T]) (T, error) {
	if env.Success != nil && !*env.Success {
		var zero T
		msg := env.Message
		if msg == "" {
			msg = "request was not successful"
		}
		return zero, &apiclient.APIError{Message: msg, Status: http.StatusUnprocessableEntity}
	}
	return env.Data, nil
}

// Client groups the backend resources over one Requester
type Client struct {
	Flavors    *FlavorService
	Contact    *ContactService
	Newsletter *NewsletterService
	Returns    *ReturnService
	Products   *ProductService
	Wholesale  *WholesaleService
}

func New(r Requester) *Client {
	return &Client{
		Flavors:    &FlavorService{r: r},
		Contact:    &ContactService{r: r},
		Newsletter: &NewsletterService{r: r},
		Returns:    &ReturnService{r: r},
		Products:   &ProductService{r: r},
		Wholesale:  &WholesaleService{r: r},
	}
}

func get[T any](ctx context.Context, r Requester, path string) (T, error) {
	var env Envelope[T]
	if err := r.Get(ctx, path, &env); err != nil {
		var zero T
		return zero, err
	}
	return unwrap(env)
}

func post[T any](ctx context.Context, r Requester, path string, body any) (T, error) {
	var env Envelope[T]
	if err := r.Post(ctx, path, body, &env); err != nil {
		var zero T
		return zero, err
	}
	return unwrap(env)
}

func put[T any](ctx context.Context, r Requester, path string, body any) (T, error) {
	var env Envelope[T]
	if err := r.Put(ctx, path, body, &env); err != nil {
		var zero T
		return zero, err
	}
	return unwrap(env)
}

func del(ctx context.Context, r Requester, path string) error {
	var env Envelope[json.RawMessage]
	if err := r.Delete(ctx, path, &env); err != nil {
		return err
	}
	_, err := unwrap(env)
	return err
}

func resourcePath(collection, id string) string {
	return fmt.Sprintf("%s/%s", collection, url.PathEscape(id))
}
