package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/angelmondragon/agency-ledger/pkg/migrate"
)

func readMigration(t *testing.T, pattern string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", pattern))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no migration file matching %s", pattern)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}

func TestMigrationsDirIsValid(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("validate migrations: %v", err)
	}
}

func TestRetailersMigrationGuardsBalances(t *testing.T) {
	content := readMigration(t, "*_create_retailers_table.sql")
	checks := []string{
		"CREATE TABLE IF NOT EXISTS retailers",
		"due_amount numeric(12,2) NOT NULL DEFAULT 0",
		"advance numeric(12,2) NOT NULL DEFAULT 0",
		"CHECK (due_amount >= 0)",
		"CHECK (advance >= 0)",
		"CREATE UNIQUE INDEX IF NOT EXISTS uq_retailers_mobile_number",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestOrdersMigrationEnforcesKeys(t *testing.T) {
	content := readMigration(t, "*_create_orders_tables.sql")
	checks := []string{
		"CREATE TABLE IF NOT EXISTS orders",
		"CREATE UNIQUE INDEX IF NOT EXISTS uq_orders_retailer_date_shift ON orders (retailer_id, order_date, order_shift)",
		"CREATE TABLE IF NOT EXISTS order_lines",
		"CREATE UNIQUE INDEX IF NOT EXISTS uq_order_lines_order_product ON order_lines (order_id, product_id)",
		"DROP TABLE IF EXISTS order_lines",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestPaymentsMigrationRejectsNonPositiveAmounts(t *testing.T) {
	content := readMigration(t, "*_create_payments_table.sql")
	if !strings.Contains(content, "CHECK (amount > 0)") {
		t.Errorf("payments must reject non-positive amounts")
	}
}
