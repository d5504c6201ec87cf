package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/jmoiron/sqlx"
	migrate "github.com/rubenv/sql-migrate"
	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	errs "github.com/iamwavecut/modbot/internal/errors"
	"github.com/iamwavecut/modbot/resources"
)

type sqliteClient struct {
	db    *sqlx.DB
	mutex sync.RWMutex
}

// NewSQLiteClient opens (or creates) the ledger database under dir and
// applies pending migrations. The returned client is the sole owner of the
// database handle and is safe for concurrent use.
func NewSQLiteClient(dir, dbName string) (*sqliteClient, error) {
	dbx, err := sqlx.Open("sqlite", filepath.Join(dir, dbName))
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	dbx.SetMaxOpenConns(42)

	migrationsSource := &migrate.EmbedFileSystemMigrationSource{
		FileSystem: resources.FS,
		Root:       "migrations",
	}
	if _, _, err := migrate.PlanMigration(dbx.DB, "sqlite3", migrationsSource, migrate.Up, 0); err != nil {
		_ = dbx.Close()
		return nil, fmt.Errorf("migrate plan failed: %w", err)
	}
	n, err := migrate.Exec(dbx.DB, "sqlite3", migrationsSource, migrate.Up)
	if err != nil {
		_ = dbx.Close()
		return nil, fmt.Errorf("migrate up failed: %w", err)
	}
	if n > 0 {
		log.Infof("applied %d migrations!", n)
	}

	return &sqliteClient{db: dbx}, nil
}

func (s *sqliteClient) Close() error {
	return s.db.Close()
}

// fault tags driver errors so callers can tell a durability failure apart
// from a definitive answer.
func fault(op string, err error) error {
	return fmt.Errorf("%s: %v: %w", op, err, errs.ErrStorageFault)
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
