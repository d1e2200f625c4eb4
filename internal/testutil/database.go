package testutil

import (
	"database/sql"
	"fmt"
	"os"
	"testing"

	_ "github.com/go-sql-driver/mysql"
)

const defaultTestDSN = "root:@tcp(localhost:3306)/photobooth_test?parseTime=true"

// SetupTestDB abre la BD MySQL de prueba
// Usa TEST_MYSQL_DSN si existe, si no localhost:3306 con la BD 'photobooth_test'.
// Si el servidor no responde, el test se saltea.
func SetupTestDB(t *testing.T) *sql.DB {
	dsn := os.Getenv("TEST_MYSQL_DSN")
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

// CleanupTestDB limpia las tablas de prueba y cierra la conexión
func CleanupTestDB(t *testing.T, db *sql.DB) {
	if db == nil {
		return
	}

	for _, table := range []string{"bookings"} {
		if _, err := db.Exec(fmt.Sprintf("DELETE FROM %s", table)); err != nil {
			t.Logf("failed to clean table %s: %v", table, err)
		}
	}

	db.Close()
}

// SetupTestTables crea la tabla bookings: fecha DATE, fecha en texto
// (importaciones viejas) y estado
func SetupTestTables(t *testing.T, db *sql.DB) {
	createBookingsTable := `
	CREATE TABLE IF NOT EXISTS bookings (
		id VARCHAR(64) NOT NULL PRIMARY KEY,
		event_date DATE NULL,
		legacy_date VARCHAR(64) NULL,
		status VARCHAR(32) NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`

	if _, err := db.Exec(createBookingsTable); err != nil {
		t.Fatalf("failed to create table bookings: %v", err)
	}
}

// InsertBooking inserta una reserva de prueba
func InsertBooking(t *testing.T, db *sql.DB, id string, eventDate, legacyDate, status interface{}) {
	_, err := db.Exec(
		`INSERT INTO bookings (id, event_date, legacy_date, status) VALUES (?, ?, ?, ?)`,
		id, eventDate, legacyDate, status,
	)
	if err != nil {
		t.Fatalf("failed to insert booking %s: %v", id, err)
	}
}
