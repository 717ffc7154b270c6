// Package storage keeps the user directory in SQLite.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dkeye/Ringcast/internal/domain"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

// Directory implements core.UserDirectory.
type Directory struct {
	db *sql.DB
}

// Open opens or creates the database at path.
func Open(path string) (*Directory, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// A single writer keeps SQLITE_BUSY out of the request path.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`
		PRAGMA journal_mode = WAL;
		PRAGMA busy_timeout = 5000;
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("configure database: %w", err)
	}
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id           TEXT PRIMARY KEY,
			identity     TEXT NOT NULL UNIQUE,
			display_name TEXT NOT NULL DEFAULT '',
			push_token   TEXT NOT NULL DEFAULT '',
			created_at   DATETIME NOT NULL
		);
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create users table: %w", err)
	}
	log.Info().Str("module", "storage").Str("path", path).Msg("user directory opened")
	return &Directory{db: db}, nil
}

func (d *Directory) Close() error { return d.db.Close() }

const selectUser = `SELECT id, identity, display_name, push_token FROM users`

func scanUser(row *sql.Row) (*domain.User, error) {
	var (
		u        domain.User
		id, iden string
	)
	if err := row.Scan(&id, &iden, &u.DisplayName, &u.PushToken); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	u.ID = domain.UserID(id)
	u.Identity = domain.Identity(iden)
	return &u, nil
}

func (d *Directory) FindByIdentity(ctx context.Context, id domain.Identity) (*domain.User, error) {
	u, err := scanUser(d.db.QueryRowContext(ctx, selectUser+` WHERE identity = ?`, string(id)))
	if err != nil {
		return nil, fmt.Errorf("find user by identity: %w", err)
	}
	return u, nil
}

func (d *Directory) FindByID(ctx context.Context, id domain.UserID) (*domain.User, error) {
	u, err := scanUser(d.db.QueryRowContext(ctx, selectUser+` WHERE id = ?`, string(id)))
	if err != nil {
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return u, nil
}

// Upsert creates the user for identity on first sight and updates the display name after.
func (d *Directory) Upsert(ctx context.Context, identity domain.Identity, displayName string) (*domain.User, error) {
	u, err := domain.NewUser(identity, displayName)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}
	if u.DisplayName == "" {
		return nil, fmt.Errorf("%w: display name is required", domain.ErrInvalidRequest)
	}
	_, err = d.db.ExecContext(ctx, `
		INSERT INTO users (id, identity, display_name, created_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(identity) DO UPDATE SET display_name = excluded.display_name`,
		string(u.ID), string(u.Identity), u.DisplayName, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}
	return d.FindByIdentity(ctx, identity)
}

// ListExcept returns every user but the one with identity, ordered by display name.
func (d *Directory) ListExcept(ctx context.Context, identity domain.Identity) ([]domain.User, error) {
	rows, err := d.db.QueryContext(ctx, selectUser+` WHERE identity <> ? ORDER BY display_name, id`, string(identity))
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var out []domain.User
	for rows.Next() {
		var u domain.User
		var id, iden string
		if err := rows.Scan(&id, &iden, &u.DisplayName, &u.PushToken); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		u.ID = domain.UserID(id)
		u.Identity = domain.Identity(iden)
		out = append(out, u)
	}
	return out, rows.Err()
}

func (d *Directory) SetPushToken(ctx context.Context, id domain.Identity, token string) error {
	res, err := d.db.ExecContext(ctx, `UPDATE users SET push_token = ? WHERE identity = ?`, token, string(id))
	if err != nil {
		return fmt.Errorf("set push token: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: user %s", domain.ErrNotFound, id)
	}
	return nil
}

func (d *Directory) ClearPushToken(ctx context.Context, id domain.UserID) error {
	if _, err := d.db.ExecContext(ctx, `UPDATE users SET push_token = '' WHERE id = ?`, string(id)); err != nil {
		return fmt.Errorf("clear push token: %w", err)
	}
	return nil
}
