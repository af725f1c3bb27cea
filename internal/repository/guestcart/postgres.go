package guestcart

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"sprouting-academy/internal/domain"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &postgresRepo{pool: pool, logger: logger}
}

func (r *postgresRepo) Init(ctx context.Context, cartKey string) error {
	_, err := r.pool.Exec(ctx, `
INSERT INTO guest_carts (cart_key, last_modified_at)
VALUES ($1, now())
ON CONFLICT (cart_key) DO NOTHING
`, cartKey)
	return err
}

func (r *postgresRepo) List(ctx context.Context, cartKey string) ([]domain.CartItem, error) {
	rows, err := r.pool.Query(ctx, `
SELECT payload
FROM guest_cart_items
WHERE cart_key = $1
ORDER BY seq ASC
`, cartKey)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []domain.CartItem{}
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		item, err := decodeItem(raw)
		if err != nil {
			r.logger.Warn("skipping unreadable guest cart line", zap.String("cart_key", cartKey), zap.Error(err))
			continue
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *postgresRepo) Append(ctx context.Context, cartKey string, item domain.CartItem) error {
	payload, err := encodeItem(item)
	if err != nil {
		return err
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := touchCart(ctx, tx, cartKey); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `
INSERT INTO guest_cart_items (cart_key, id, item_id, item_type, payload)
VALUES ($1, $2, $3, $4, $5)
`, cartKey, item.ID, item.ItemID, string(item.ItemType), payload); err != nil {
		if isPgUniqueViolation(err) {
			return domain.ErrItemAlreadyExists
		}
		return err
	}
	return tx.Commit(ctx)
}

func (r *postgresRepo) Remove(ctx context.Context, cartKey, id string) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	cmd, err := tx.Exec(ctx, `
DELETE FROM guest_cart_items
WHERE cart_key = $1 AND id = $2
`, cartKey, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	if err := touchCart(ctx, tx, cartKey); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *postgresRepo) Clear(ctx context.Context, cartKey string) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM guest_cart_items WHERE cart_key = $1`, cartKey); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM guest_carts WHERE cart_key = $1`, cartKey); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *postgresRepo) LastModified(ctx context.Context, cartKey string) (time.Time, error) {
	var ts time.Time
	err := r.pool.QueryRow(ctx, `
SELECT last_modified_at
FROM guest_carts
WHERE cart_key = $1
`, cartKey).Scan(&ts)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return time.Time{}, domain.ErrNotFound
		}
		return time.Time{}, err
	}
	return ts, nil
}

func touchCart(ctx context.Context, tx pgx.Tx, cartKey string) error {
	_, err := tx.Exec(ctx, `
INSERT INTO guest_carts (cart_key, last_modified_at)
VALUES ($1, now())
ON CONFLICT (cart_key) DO UPDATE SET last_modified_at = EXCLUDED.last_modified_at
`, cartKey)
	return err
}

const pgUniqueViolation = "23505"

func isPgUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
