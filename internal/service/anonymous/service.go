// Package anonymous issues guest cart keys for browsers that have not signed in.
package anonymous

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
)

var ErrInvalidCartKey = errors.New("invalid cart key")

type initializer interface {
	Init(ctx context.Context, cartKey string) error
}

type Service struct {
	carts initializer
}

func New(carts initializer) *Service {
	return &Service{carts: carts}
}

// Issue creates a new guest cart key and its empty cart.
func (s *Service) Issue(ctx context.Context) (string, error) {
	key := uuid.NewString()
	if s.carts != nil {
		if err := s.carts.Init(ctx, key); err != nil {
			return "", err
		}
	}
	return key, nil
}

// Validate normalizes a client supplied cart key. Keys are UUIDs.
func (s *Service) Validate(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", ErrInvalidCartKey
	}
	return id.String(), nil
}
