package cart

import (
	"database/sql"
	"os"
	"testing"

	"github.com/LivingHopeDev/Inventory-system/internal/stores/postgres"
)

// testDB is nil when TEST_DATABASE_URL is not set; DB-backed tests skip.
var testDB *sql.DB

func TestMain(m *testing.M) {
	if url := os.Getenv("TEST_DATABASE_URL"); url != "" {
		db, err := sql.Open("pgx", url)
		if err == nil && db.Ping() == nil && postgres.RunMigrations(db) == nil {
			testDB = db
		}
	}
	os.Exit(m.Run())
}
