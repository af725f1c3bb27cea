package migrate

import (
	"context"
	"path/filepath"
	"testing"

	"sprouting-academy/internal/db"
)

func TestApplySQLiteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "guest.db")

	if err := ApplySQLite(ctx, path, nil); err != nil {
		t.Fatalf("first apply: %v", err)
	}
	if err := ApplySQLite(ctx, path, nil); err != nil {
		t.Fatalf("second apply: %v", err)
	}

	conn, err := db.OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer conn.Close()
	var n int
	if err := conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM guest_cart_items`).Scan(&n); err != nil {
		t.Fatalf("guest_cart_items missing: %v", err)
	}
}
