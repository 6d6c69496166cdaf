package migrate

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readMigration(t *testing.T, suffix string) string {
	t.Helper()
	matches, err := fs.Glob(FS, embeddedDir+"/*_"+suffix+".sql")
	require.NoError(t, err)
	require.Len(t, matches, 1, "expected exactly one %s migration", suffix)
	data, err := fs.ReadFile(FS, matches[0])
	require.NoError(t, err)
	return string(data)
}

func assertContainsAll(t *testing.T, content string, checks []string) {
	t.Helper()
	for _, sub := range checks {
		assert.Contains(t, content, sub)
	}
}

func TestEmbeddedMigrationsAreValid(t *testing.T) {
	require.NoError(t, ValidateEmbedded())
}

func TestProductsMigrationGuardsStock(t *testing.T) {
	assertContainsAll(t, readMigration(t, "create_products"), []string{
		"CREATE TABLE IF NOT EXISTS products",
		"CHECK (stock >= 0)",
		"CHECK (status IN ('on', 'off'))",
		"DROP TABLE IF EXISTS products",
	})
}

func TestOrdersMigrationContainsConstraints(t *testing.T) {
	assertContainsAll(t, readMigration(t, "create_orders"), []string{
		"CREATE UNIQUE INDEX IF NOT EXISTS ux_orders_order_no",
		"CREATE UNIQUE INDEX IF NOT EXISTS ux_order_items_order_product",
		"CREATE INDEX IF NOT EXISTS idx_orders_status_shipped_at ON orders (status, shipped_at)",
		"CHECK (status IN ('pending', 'paid', 'shipped', 'completed', 'cancelled'))",
		"CHECK (quantity > 0)",
		"DROP TABLE IF EXISTS order_items",
	})
}

func TestPromotionsMigrationContainsConstraints(t *testing.T) {
	assertContainsAll(t, readMigration(t, "create_promotions"), []string{
		"CHECK (discount_type IN ('percent', 'fixed'))",
		"CHECK (end_at > start_at)",
		"PRIMARY KEY (promotion_id, product_id)",
	})
}

func TestCartsAndOutboxMigrations(t *testing.T) {
	assertContainsAll(t, readMigration(t, "create_carts"), []string{
		"ux_cart_items_cart_product",
		"ON DELETE CASCADE",
	})
	assertContainsAll(t, readMigration(t, "create_outbox_events"), []string{
		"terminal_at timestamptz",
		"WHERE published_at IS NULL AND terminal_at IS NULL",
	})
}

func TestValidateRejectsBadFiles(t *testing.T) {
	good := "-- +goose Up\nSELECT 1;\n-- +goose Down\nSELECT 1;\n"
	cases := map[string]fstest.MapFS{
		"bad name": {
			"m/create_things.sql": {Data: []byte(good)},
		},
		"duplicate version": {
			"m/20240101000000_a.sql": {Data: []byte(good)},
			"m/20240101000000_b.sql": {Data: []byte(good)},
		},
		"missing down": {
			"m/20240101000000_a.sql": {Data: []byte("-- +goose Up\nSELECT 1;\n")},
		},
	}
	for name, fsys := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, Validate(fsys, "m"))
		})
	}
}

func TestCreateSQLMigration(t *testing.T) {
	dir := t.TempDir()
	path, err := CreateSQLMigration(dir, "Add Order Notes!")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, "_add_order_notes.sql"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "-- +goose Up")
	require.NoError(t, Validate(os.DirFS(filepath.Dir(path)), "."))

	_, err = CreateSQLMigration(dir, "!!!")
	assert.Error(t, err)
}
