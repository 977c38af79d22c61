package store

import (
	"database/sql"

	"github.com/MKhiriev/go-clip-keeper/internal/logger"
	"github.com/MKhiriev/go-clip-keeper/migrations"
)

// DB is the local database handle shared by the repositories.
type DB struct {
	*sql.DB
	logger *logger.Logger
}

// Migrate applies the embedded migrations.
func (db *DB) Migrate() error {
	return migrations.Migrate(db.DB)
}
