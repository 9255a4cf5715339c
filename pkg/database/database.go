package database

import (
	"log"
	"os"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Init opens the database from DATABASE_URL. A postgres:// URL selects the
// Postgres driver; anything else is treated as a SQLite DSN. The default is a
// local file so monotonic sequence counters survive restarts.
func Init() *gorm.DB {
	dsn := strings.TrimSpace(os.Getenv("DATABASE_URL"))

	var dialector gorm.Dialector
	switch {
	case dsn == "":
		dialector = sqlite.Open("file:helm.db?_pragma=foreign_keys(1)")
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		dialector = postgres.Open(dsn)
	default:
		dialector = sqlite.Open(dsn)
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect database:", err)
	}
	return db
}
