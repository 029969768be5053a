package tokenstore

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	autherrors "github.com/jrsteele09/go-auth-client/internal/errors"
	"github.com/jrsteele09/go-auth-client/tokenstore/migrations"

	_ "modernc.org/sqlite"
)

// SQLiteStore is a durable Store backed by a sqlite file. Values are sealed
// before they are written so the file never holds plaintext tokens.
type SQLiteStore struct {
	db      *sql.DB
	sealer  *Sealer
	nowTime func() time.Time
}

var (
	_ Store   = (*SQLiteStore)(nil)
	_ Batcher = (*SQLiteStore)(nil)
)

// OpenSQLite opens (creating if needed) the sqlite database at dsn and applies
// pending schema migrations.
func OpenSQLite(dsn string, sealer *Sealer) (*SQLiteStore, error) {
	if sealer == nil {
		return nil, errors.New("[OpenSQLite] sealer is required")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, autherrors.Wrapf(err, "[OpenSQLite] open %s", dsn)
	}
	// sqlite has a single writer
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(context.Background(), `PRAGMA busy_timeout = 5000;`); err != nil {
		_ = db.Close()
		return nil, autherrors.Wrapf(err, "[OpenSQLite] configure")
	}

	s := &SQLiteStore{db: db, sealer: sealer, nowTime: time.Now}
	if err := s.applyMigrations(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) applyMigrations() error {
	driver, err := migratesqlite.WithInstance(s.db, &migratesqlite.Config{})
	if err != nil {
		return autherrors.Wrapf(err, "[SQLiteStore.applyMigrations] driver")
	}

	source, err := iofs.New(migrations.Migrations, ".")
	if err != nil {
		return autherrors.Wrapf(err, "[SQLiteStore.applyMigrations] source")
	}

	instance, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		return autherrors.Wrapf(err, "[SQLiteStore.applyMigrations] instance")
	}

	if err := instance.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return autherrors.Wrapf(err, "[SQLiteStore.applyMigrations] up")
	}
	return nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) Read(ctx context.Context, accountID string, kind Kind) (string, bool, error) {
	if err := validateKey(accountID, kind); err != nil {
		return "", false, err
	}

	var sealed string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM tokens WHERE account_id = ? AND kind = ?`,
		accountID, string(kind),
	).Scan(&sealed)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, autherrors.Wrapf(err, "[SQLiteStore.Read] %s", kind)
	}

	value, err := s.sealer.Open(accountID, kind, sealed)
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (s *SQLiteStore) Write(ctx context.Context, accountID string, kind Kind, value string) error {
	return s.Apply(ctx, accountID, []Change{Set(kind, value)})
}

func (s *SQLiteStore) Delete(ctx context.Context, accountID string, kind Kind) error {
	return s.Apply(ctx, accountID, []Change{Remove(kind)})
}

// Apply implements Batcher using a single transaction.
func (s *SQLiteStore) Apply(ctx context.Context, accountID string, changes []Change) error {
	if err := validateChanges(accountID, changes); err != nil {
		return err
	}

	// seal before opening the transaction
	sealed := make([]string, len(changes))
	for i, c := range changes {
		if c.Delete {
			continue
		}
		v, err := s.sealer.Seal(accountID, c.Kind, c.Value)
		if err != nil {
			return err
		}
		sealed[i] = v
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return autherrors.Wrapf(err, "[SQLiteStore.Apply] begin")
	}
	defer func() {
		_ = tx.Rollback() // no-op after commit
	}()

	now := s.nowTime().Unix()
	for i, c := range changes {
		if c.Delete {
			if _, err := tx.ExecContext(ctx,
				`DELETE FROM tokens WHERE account_id = ? AND kind = ?`,
				accountID, string(c.Kind),
			); err != nil {
				return autherrors.Wrapf(err, "[SQLiteStore.Apply] delete %s", c.Kind)
			}
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO tokens (account_id, kind, value, updated_at) VALUES (?, ?, ?, ?)
			 ON CONFLICT (account_id, kind) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
			accountID, string(c.Kind), sealed[i], now,
		); err != nil {
			return autherrors.Wrapf(err, "[SQLiteStore.Apply] write %s", c.Kind)
		}
	}

	if err := tx.Commit(); err != nil {
		return autherrors.Wrapf(err, "[SQLiteStore.Apply] commit")
	}
	return nil
}
