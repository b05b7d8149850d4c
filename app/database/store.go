package database

import (
	"fmt"
	"log/slog"
)

const (
	BackendSQL      = "sql"
	BackendDocument = "document"
)

type StoreOptions struct {
	Backend      string
	DatabaseURL  string
	DocumentPath string
}

// OpenShowRepository opens the backend selected by opts.Backend and prepares
// its schema. The caller owns the returned repository and must Close it.
func OpenShowRepository(opts StoreOptions) (ShowRepository, error) {
	switch opts.Backend {
	case BackendSQL, "":
		db, err := NewConnection(opts.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}

		version, dirty, err := RunMigrations(db)
		if err != nil {
			db.Close()
			return nil, err
		}
		if dirty {
			db.Close()
			return nil, fmt.Errorf("database schema is dirty at version %d", version)
		}
		slog.Info("Database ready", "dialect", db.Dialect, "schema_version", version)

		return NewSQLShowRepository(db), nil

	case BackendDocument:
		repo, err := NewDocumentShowRepository(opts.DocumentPath)
		if err != nil {
			return nil, err
		}
		slog.Info("Document store ready", "path", opts.DocumentPath)
		return repo, nil

	default:
		return nil, fmt.Errorf("unknown store backend %q", opts.Backend)
	}
}
