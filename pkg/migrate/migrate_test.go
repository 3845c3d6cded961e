package migrate

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestEmbeddedMigrationsAreValid(t *testing.T) {
	if err := ValidateEmbedded(); err != nil {
		t.Fatalf("embedded migrations invalid: %v", err)
	}
}

func TestSizesMigrationGuardsStock(t *testing.T) {
	content := readEmbedded(t, "_create_catalog.sql")
	checks := []string{
		"CREATE TABLE IF NOT EXISTS sizes",
		"CHECK (quantity >= 0)",
		"CHECK (discount BETWEEN 0 AND 100)",
		"CONSTRAINT ux_sizes_product_size UNIQUE (product_id, size)",
		"CONSTRAINT ux_products_seller_name UNIQUE (seller_id, name)",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestOrdersMigrationStatusCheck(t *testing.T) {
	content := readEmbedded(t, "_create_orders.sql")
	if !strings.Contains(content, "'pending', 'processing', 'shipped', 'delivered', 'cancelled'") {
		t.Fatalf("order status check constraint missing")
	}
	if strings.Contains(content, "product_id uuid NOT NULL REFERENCES") {
		t.Fatalf("order_items.product_id must not reference products")
	}
}

func TestCreateAndValidateDir(t *testing.T) {
	dir := t.TempDir()
	path, err := CreateSQLMigration(dir, "Add Size Index!", time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if filepath.Base(path) != "20250301100000_add_size_index.sql" {
		t.Fatalf("unexpected filename %s", filepath.Base(path))
	}
	if err := ValidateDir(dir); err != nil {
		t.Fatalf("validate: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "bad-name.sql"), []byte("-- +goose Up\n-- +goose Down\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := ValidateDir(dir); err == nil {
		t.Fatalf("expected invalid filename error")
	}
}

func TestCreateSQLMigrationOrdersAfterExisting(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	first, err := CreateSQLMigration(dir, "orders tracking number", now.Add(time.Hour))
	if err != nil {
		t.Fatalf("create first: %v", err)
	}
	second, err := CreateSQLMigration(dir, "size sku", now)
	if err != nil {
		t.Fatalf("create second: %v", err)
	}
	if filepath.Base(second) != "20250301110001_size_sku.sql" {
		t.Fatalf("expected version after %s, got %s", filepath.Base(first), filepath.Base(second))
	}
	if _, err := CreateSQLMigration(dir, "Size  SKU", now.Add(2*time.Hour)); err == nil {
		t.Fatalf("expected duplicate name error")
	}
	if _, err := CreateSQLMigration(dir, "!!!", now); err == nil {
		t.Fatalf("expected empty slug error")
	}
	body, err := os.ReadFile(second)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(body), "-- TODO: size sku") {
		t.Fatalf("unexpected skeleton:\n%s", body)
	}
}

func TestValidateDirRequiresMarkers(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "20250301100000_x.sql"), []byte("-- +goose Up\nSELECT 1;\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := ValidateDir(dir); err == nil || !strings.Contains(err.Error(), "goose Down") {
		t.Fatalf("expected missing down marker error, got %v", err)
	}
	if err := ValidateDir(t.TempDir()); err == nil {
		t.Fatalf("empty dir should fail")
	}
}

func readEmbedded(t *testing.T, suffix string) string {
	t.Helper()
	matches, err := fs.Glob(embeddedMigrations, embeddedDir+"/*"+suffix)
	if err != nil || len(matches) == 0 {
		t.Fatalf("no migration matching %s: %v", suffix, err)
	}
	data, err := fs.ReadFile(embeddedMigrations, matches[0])
	if err != nil {
		t.Fatalf("read %s: %v", matches[0], err)
	}
	return string(data)
}
