package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"

	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	"mostrador/internal/infrastructure/migrations"
)

const defaultTestDSN = "root:@tcp(localhost:3306)/mostrador_test?parseTime=true&loc=UTC&clientFoundRows=true"

// SetupTestDB opens the MySQL test database named by MOSTRADOR_TEST_DSN
// (default localhost:3306/mostrador_test) and skips the test when it is unreachable.
func SetupTestDB(t *testing.T) *sql.DB {
	dsn := os.Getenv("MOSTRADOR_TEST_DSN")
	if dsn == "" {
		dsn = defaultTestDSN
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("test database not available: %v", err)
	}

	return db
}

// CleanupTestDB empties every table, children first, and closes db.
func CleanupTestDB(t *testing.T, db *sql.DB) {
	if db == nil {
		return
	}

	CleanTables(t, db)
	db.Close()
}

// SetupTestTables applies the service migrations to the test database.
func SetupTestTables(t *testing.T, db *sql.DB) {
	if err := migrations.Up(context.Background(), db, zap.NewNop()); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	CleanTables(t, db)
}

var tables = []string{"OrderAudits", "OrderItems", "Orders", "OrderCounter", "DeliverySlots", "Product", "Users"}

// CleanTables removes rows left behind by a previous run.
func CleanTables(t *testing.T, db *sql.DB) {
	for _, table := range tables {
		if _, err := db.Exec(fmt.Sprintf("DELETE FROM %s", table)); err != nil {
			t.Logf("failed to clean table %s: %v", table, err)
		}
	}
}

// InsertProduct seeds a catalog row and returns its id.
func InsertProduct(t *testing.T, db *sql.DB, name string, price string, stock int) int {
	result, err := db.Exec(
		`INSERT INTO Product (name, price, category, stock, details) VALUES (?, ?, 'general', ?, '[]')`,
		name, price, stock,
	)
	if err != nil {
		t.Fatalf("failed to insert product: %v", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		t.Fatalf("failed to read product id: %v", err)
	}
	return int(id)
}

func ProductStock(t *testing.T, db *sql.DB, productID int) int {
	var stock int
	if err := db.QueryRow(`SELECT stock FROM Product WHERE id = ?`, productID).Scan(&stock); err != nil {
		t.Fatalf("failed to read stock: %v", err)
	}
	return stock
}
