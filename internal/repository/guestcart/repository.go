// Package guestcart persists guest carts keyed by the guest cart key.
package guestcart

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"sprouting-academy/internal/domain"
)

// Repository is the durable backing of the guest Cart Store. It keeps lines in
// insertion order. Append rejects a second line for the same product with
// domain.ErrItemAlreadyExists.
type Repository interface {
	Init(ctx context.Context, cartKey string) error
	List(ctx context.Context, cartKey string) ([]domain.CartItem, error)
	Append(ctx context.Context, cartKey string, item domain.CartItem) error
	Remove(ctx context.Context, cartKey, id string) error
	Clear(ctx context.Context, cartKey string) error
	LastModified(ctx context.Context, cartKey string) (time.Time, error)
}

func encodeItem(item domain.CartItem) ([]byte, error) {
	raw, err := json.Marshal(item)
	if err != nil {
		return nil, fmt.Errorf("encode cart item %s: %w", item.ID, err)
	}
	return raw, nil
}

func decodeItem(raw []byte) (domain.CartItem, error) {
	var item domain.CartItem
	if err := json.Unmarshal(raw, &item); err != nil {
		return domain.CartItem{}, fmt.Errorf("decode cart item: %w", err)
	}
	return item, nil
}
