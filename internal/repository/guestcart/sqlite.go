package guestcart

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"sprouting-academy/internal/domain"
)

type sqliteRepo struct {
	db     *sql.DB
	logger *zap.Logger
	now    func() time.Time
}

// NewSQLite expects the schema from migrate.ApplySQLite to be in place.
func NewSQLite(db *sql.DB, logger *zap.Logger) Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &sqliteRepo{db: db, logger: logger, now: time.Now}
}

func (r *sqliteRepo) Init(ctx context.Context, cartKey string) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO guest_carts (cart_key, last_modified_at) VALUES (?, ?)
ON CONFLICT(cart_key) DO NOTHING`, cartKey, r.now().UTC())
	return err
}

func (r *sqliteRepo) List(ctx context.Context, cartKey string) ([]domain.CartItem, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT payload FROM guest_cart_items WHERE cart_key = ? ORDER BY seq ASC`, cartKey)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []domain.CartItem{}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		item, err := decodeItem([]byte(raw))
		if err != nil {
			r.logger.Warn("skipping unreadable guest cart line", zap.String("cart_key", cartKey), zap.Error(err))
			continue
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *sqliteRepo) Append(ctx context.Context, cartKey string, item domain.CartItem) error {
	payload, err := encodeItem(item)
	if err != nil {
		return err
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := r.touch(ctx, tx, cartKey); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
INSERT INTO guest_cart_items (cart_key, id, item_id, item_type, payload) VALUES (?, ?, ?, ?, ?)`,
		cartKey, item.ID, item.ItemID, string(item.ItemType), string(payload)); err != nil {
		if isSQLiteConstraint(err) {
			return domain.ErrItemAlreadyExists
		}
		return err
	}
	return tx.Commit()
}

func (r *sqliteRepo) Remove(ctx context.Context, cartKey, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `DELETE FROM guest_cart_items WHERE cart_key = ? AND id = ?`, cartKey, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	if err := r.touch(ctx, tx, cartKey); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *sqliteRepo) Clear(ctx context.Context, cartKey string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM guest_cart_items WHERE cart_key = ?`, cartKey); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM guest_carts WHERE cart_key = ?`, cartKey); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *sqliteRepo) LastModified(ctx context.Context, cartKey string) (time.Time, error) {
	var ts time.Time
	err := r.db.QueryRowContext(ctx, `SELECT last_modified_at FROM guest_carts WHERE cart_key = ?`, cartKey).Scan(&ts)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, domain.ErrNotFound
	}
	if err != nil {
		return time.Time{}, err
	}
	return ts, nil
}

func (r *sqliteRepo) touch(ctx context.Context, tx *sql.Tx, cartKey string) error {
	_, err := tx.ExecContext(ctx, `
INSERT INTO guest_carts (cart_key, last_modified_at) VALUES (?, ?)
ON CONFLICT(cart_key) DO UPDATE SET last_modified_at = excluded.last_modified_at`, cartKey, r.now().UTC())
	return err
}

// isSQLiteConstraint matches the primary constraint code, with or without
// extended result codes.
func isSQLiteConstraint(err error) bool {
	var sqlErr *sqlite.Error
	return errors.As(err, &sqlErr) && sqlErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT
}
