package cart

import (
	"context"
	"errors"

	"sprouting-academy/internal/backend"
	"sprouting-academy/internal/domain"
)

// Backend is the capability both cart owners expose to the query layer.
type Backend interface {
	Read(ctx context.Context) ([]domain.CartItem, error)
	Add(ctx context.Context, item domain.CartItem) error
	Remove(ctx context.Context, id string) error
}

type serverCart interface {
	GetCart(ctx context.Context, token string) ([]backend.CartEntry, error)
	AddCartItem(ctx context.Context, token, productID string, productType domain.ItemType) error
	RemoveCartItem(ctx context.Context, token, entryID string) error
}

type localBackend struct {
	store *Store
}

func (b localBackend) Read(ctx context.Context) ([]domain.CartItem, error) {
	return b.store.Items(ctx)
}

func (b localBackend) Add(ctx context.Context, item domain.CartItem) error {
	items, err := b.store.Items(ctx)
	if err != nil {
		return err
	}
	if domain.ContainsProduct(items, item.ItemType, item.ItemID) {
		return domain.ErrItemAlreadyExists
	}
	return b.store.AddItem(ctx, item)
}

func (b localBackend) Remove(ctx context.Context, id string) error {
	return b.store.RemoveItem(ctx, id)
}

type remoteBackend struct {
	client serverCart
	token  string
}

func (b remoteBackend) Read(ctx context.Context) ([]domain.CartItem, error) {
	entries, err := b.client.GetCart(ctx, b.token)
	if err != nil {
		return nil, err
	}
	items := make([]domain.CartItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, MapServerItem(e))
	}
	return items, nil
}

func (b remoteBackend) Add(ctx context.Context, item domain.CartItem) error {
	err := b.client.AddCartItem(ctx, b.token, item.ItemID, item.ItemType)
	if errors.Is(err, domain.ErrItemAlreadyExists) {
		return domain.ErrItemAlreadyExists
	}
	return err
}

func (b remoteBackend) Remove(ctx context.Context, id string) error {
	return b.client.RemoveCartItem(ctx, b.token, id)
}

// MapServerItem converts a server cart entry into a cart line.
func MapServerItem(e backend.CartEntry) domain.CartItem {
	item := domain.CartItem{
		ID:       e.ID,
		ItemID:   e.ProductID,
		ItemType: e.ProductType,
		Name:     e.ProductName,
		Price:    e.Price,
	}
	if item.ItemType == "" {
		item.ItemType = domain.ItemTypeCourse
	}
	switch item.ItemType {
	case domain.ItemTypeCourse:
		date := e.Date
		if date == "" {
			date = domain.DateUnselected
		}
		dates := e.AvailableDates
		if dates == nil {
			dates = []string{}
		}
		item.Course = &domain.CourseDetails{
			Date:           date,
			TotalTime:      e.TotalTime,
			ClassType:      e.ClassType,
			AvailableDates: dates,
		}
	case domain.ItemTypeBootcamp:
		features := e.Features
		if features == nil {
			features = []string{}
		}
		item.Bootcamp = &domain.BootcampDetails{
			StartDate: e.StartDate,
			Duration:  e.Duration,
			Schedule:  e.Schedule,
			Features:  features,
		}
	case domain.ItemTypeEbook:
		item.Ebook = &domain.EbookDetails{PageCount: e.PageCount}
	}
	return item
}
