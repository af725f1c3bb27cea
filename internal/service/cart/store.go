package cart

import (
	"context"
	"time"

	"sprouting-academy/internal/domain"
)

type guestRepo interface {
	Init(ctx context.Context, cartKey string) error
	List(ctx context.Context, cartKey string) ([]domain.CartItem, error)
	Append(ctx context.Context, cartKey string, item domain.CartItem) error
	Remove(ctx context.Context, cartKey, id string) error
	Clear(ctx context.Context, cartKey string) error
	LastModified(ctx context.Context, cartKey string) (time.Time, error)
}

// Store is the guest Cart Store for one guest cart key. It is the only writer
// of guest lines. A Store without a key reads as an empty cart and rejects
// writes with domain.ErrNotFound.
type Store struct {
	repo guestRepo
	key  string
}

func NewStore(repo guestRepo, cartKey string) *Store {
	return &Store{repo: repo, key: cartKey}
}

func (s *Store) Key() string { return s.key }

// Init creates the empty cart row on first visit.
func (s *Store) Init(ctx context.Context) error {
	if s.key == "" {
		return nil
	}
	return s.repo.Init(ctx, s.key)
}

func (s *Store) Items(ctx context.Context) ([]domain.CartItem, error) {
	if s.key == "" {
		return []domain.CartItem{}, nil
	}
	return s.repo.List(ctx, s.key)
}

// AddItem appends a line with its guest line id. A product already in the
// cart yields domain.ErrItemAlreadyExists from the repository.
func (s *Store) AddItem(ctx context.Context, item domain.CartItem) error {
	if s.key == "" {
		return domain.ErrNotFound
	}
	item.ID = domain.GuestLineID(item.ItemType, item.ItemID)
	return s.repo.Append(ctx, s.key, item)
}

func (s *Store) RemoveItem(ctx context.Context, id string) error {
	if s.key == "" {
		return domain.ErrNotFound
	}
	return s.repo.Remove(ctx, s.key, id)
}

// ClearCart drops every line and the staleness timestamp.
func (s *Store) ClearCart(ctx context.Context) error {
	if s.key == "" {
		return nil
	}
	return s.repo.Clear(ctx, s.key)
}

// Teardown ends the store's lifecycle on logout.
func (s *Store) Teardown(ctx context.Context) error {
	return s.ClearCart(ctx)
}

// LastModified is for staleness diagnostics only.
func (s *Store) LastModified(ctx context.Context) (time.Time, error) {
	if s.key == "" {
		return time.Time{}, domain.ErrNotFound
	}
	return s.repo.LastModified(ctx, s.key)
}
