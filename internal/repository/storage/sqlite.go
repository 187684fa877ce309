package storage

import (
	"context"
	"embed"
	"fmt"
	"io/fs"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"

	// register the pure Go SQLite driver with the database/sql package.
	_ "modernc.org/sqlite"
)

const sqliteDriver = "sqlite"

//go:embed migrations/*.sql
var migrations embed.FS

type SQLiteStorage struct {
	Connection *sqlx.DB
}

func NewSQLiteStorage(ctx context.Context, path string) (*SQLiteStorage, error) {
	conn, err := sqlx.Open(sqliteDriver, sqliteDSN(path))
	if err != nil {
		return nil, fmt.Errorf("can't open database: %w", err)
	}

	if err = conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("can't connect to database: %w", err)
	}

	return &SQLiteStorage{Connection: conn}, nil
}

// Init applies the embedded schema migrations.
func (that *SQLiteStorage) Init(ctx context.Context) error {
	fsys, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("can't read migrations: %w", err)
	}

	provider, err := goose.NewProvider(goose.DialectSQLite3, that.Connection.DB, fsys)
	if err != nil {
		return fmt.Errorf("can't create migration provider: %w", err)
	}

	if _, err = provider.Up(ctx); err != nil {
		return fmt.Errorf("can't apply migrations: %w", err)
	}

	return nil
}

func (that *SQLiteStorage) Close() error {
	if err := that.Connection.Close(); err != nil {
		return fmt.Errorf("can't close database: %w", err)
	}

	return nil
}

// sqliteDSN turns on foreign keys and takes the write lock at BEGIN so that
// concurrent saves wait instead of failing on lock upgrade.
func sqliteDSN(path string) string {
	return "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_txlock=immediate"
}
