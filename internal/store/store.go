package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/AnthonyMichaelTDM/mecomp-sub002"
)

var (
	ErrConstraint = errors.New("constraint violation")
	ErrDatabase   = errors.New("database error")
)

// Store is the graph store handle every other component is given as a
// dependency -- the design note's "process-global in practice, but
// injected, not hidden" connection.
type Store struct {
	db *gorm.DB
}

// Open connects to dsn and migrates the schema to the latest version. A
// "sqlite://" prefix selects the sqlite dialector (used by tests and small
// single-user installs); anything else is treated as a Postgres DSN.
func Open(dsn string) (*Store, error) {
	var dialector gorm.Dialector

	switch {
	case strings.HasPrefix(dsn, "sqlite://"):
		dialector = sqlite.Open(strings.TrimPrefix(dsn, "sqlite://"))
	default:
		dialector = postgres.Open(dsn)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %w", ErrDatabase, redactDSN(dsn), err)
	}

	s := &Store{db: db}

	if err := s.Migrate(context.Background()); err != nil {
		return nil, err
	}

	return s, nil
}

// WithDB wraps an already-open gorm.DB, letting callers (e.g. CLI
// subcommands, tests) pick their own connection lifecycle.
func WithDB(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}

func redactDSN(dsn string) string {
	if idx := strings.Index(dsn, "@"); idx != -1 {
		return "***" + dsn[idx:]
	}

	return dsn
}

func thingToID(t mecomp.Thing) string { return t.ID.String() }

func idToThing(table mecomp.Table, id string) (mecomp.Thing, error) {
	parsed, err := mecomp.ParseThing(string(table) + ":" + id)
	if err != nil {
		return mecomp.Thing{}, err
	}

	return parsed, nil
}
