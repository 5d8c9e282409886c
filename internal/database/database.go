package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"github.com/tiltlab/arlabyrinth/internal/config"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Storage backends selectable through storage.type.
const (
	TypeSQLite   = "sqlite"
	TypePostgres = "postgres"
	TypeMemory   = "memory"
)

// ErrNoDatabase is returned by Connect for the memory backend.
var ErrNoDatabase = errors.New("storage type memory has no database")

// Manager handles database connections.
type Manager struct {
	DB    *gorm.DB
	SqlDB *sql.DB
	// Fallback is set when postgres was configured but SQLite is in use.
	Fallback bool
	Logger   zerolog.Logger
}

// NewManager creates a new database manager.
func NewManager(log zerolog.Logger) *Manager {
	return &Manager{
		Logger: log,
	}
}

// Connect opens the configured backend. A postgres backend that cannot be
// reached falls back to the SQLite file so scores still persist.
func (m *Manager) Connect(storage config.StorageConfig, db config.DBConfig) error {
	var err error

	switch storage.Type {
	case TypeMemory:
		m.Logger.Info().Msg("Using in-memory prefs, nothing will persist")
		return ErrNoDatabase
	case TypePostgres:
		m.DB, err = m.GetPostgresDB(db)
		if err != nil {
			m.Logger.Error().Err(err).Msg("Failed to connect to Postgres DB, trying SQLite")
			m.Fallback = true
			m.DB, err = m.GetSqliteDB(storage.SQLitePath)
		}
	case TypeSQLite, "":
		m.DB, err = m.GetSqliteDB(storage.SQLitePath)
	default:
		return fmt.Errorf("unknown storage type %q", storage.Type)
	}
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	m.SqlDB, err = m.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to access sql interface: %w", err)
	}
	if err := m.SqlDB.Ping(); err != nil {
		return fmt.Errorf("failed to validate connection: %w", err)
	}

	if m.DB.Dialector.Name() == TypePostgres {
		m.SqlDB.SetMaxOpenConns(10)
	}

	m.Logger.Info().Str("dialect", m.DB.Dialector.Name()).Msg("Connected to database")
	return nil
}

// Close releases the connection pool.
func (m *Manager) Close() error {
	if m.SqlDB == nil {
		return nil
	}
	return m.SqlDB.Close()
}

// GetPostgresDB returns a connection to the Postgres database.
func (m *Manager) GetPostgresDB(c config.DBConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf(`host=%s port=%s user=%s password=%s dbname=%s sslmode=disable connect_timeout=5`,
		c.Host, c.Port, c.Username, c.Password, c.Database,
	)

	m.Logger.Debug().Str("host", c.Host).Str("port", c.Port).Str("database", c.Database).
		Msg("Connecting to Postgres DB")

	return gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
}

// GetSqliteDB returns a connection to a SQLite database.
// If path is empty, uses an in-memory database.
func (m *Manager) GetSqliteDB(path string) (*gorm.DB, error) {
	dsn := path
	if dsn == "" {
		dsn = "file::memory:?cache=shared"
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		PrepareStmt:            true,
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA synchronous = NORMAL;",
		"PRAGMA busy_timeout = 5000;",
	}
	for _, pragma := range pragmas {
		if err := db.Exec(pragma).Error; err != nil {
			return nil, fmt.Errorf("error setting PRAGMA: %w", err)
		}
	}

	if path == "" {
		m.Logger.Info().Msg("Using local SQLite DB in memory")
	} else {
		m.Logger.Info().Str("path", path).Msg("Using local SQLite DB")
	}
	return db, nil
}
