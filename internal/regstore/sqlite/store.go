// Package sqlite implements regstore.Store on modernc.org/sqlite.
//
// SQLite stores timestamps with TEXT affinity; updated_at is kept as an
// RFC 3339 string for reliable round-trips and easy debugging, matching
// the behavior of the other backends.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"callsift/internal/regstore"
	"callsift/internal/schema"
)

type store struct {
	db *sql.DB
}

func init() {
	regstore.Register("sqlite", Open)
}

// Open connects to the SQLite database at dsn and verifies the
// connection.
func Open(ctx context.Context, dsn string) (regstore.Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &store{db: db}, nil
}

func (s *store) Close() error { return s.db.Close() }

// EnsureTables creates the schemas and schema_fields tables when absent.
// Idempotent, safe to call at every startup.
func (s *store) EnsureTables(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS schemas (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			version INTEGER NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS schema_fields (
			schema_id TEXT NOT NULL REFERENCES schemas(id),
			ord INTEGER NOT NULL,
			field_id TEXT NOT NULL,
			name TEXT NOT NULL,
			display_name TEXT NOT NULL DEFAULT '',
			aliases TEXT NOT NULL DEFAULT '[]',
			data_type TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT '',
			required INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (schema_id, field_id)
		)`,
	}
	for _, q := range stmts {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure tables: %w", err)
		}
	}
	return nil
}

func (s *store) LoadAll(ctx context.Context) ([]schema.SchemaDefinition, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, version, updated_at FROM schemas`)
	if err != nil {
		return nil, fmt.Errorf("load schemas: %w", err)
	}
	defer rows.Close()

	var srs []regstore.SchemaRow
	for rows.Next() {
		var r regstore.SchemaRow
		if err := rows.Scan(&r.ID, &r.Name, &r.Version, &r.UpdatedAt); err != nil {
			return nil, err
		}
		srs = append(srs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	frows, err := s.db.QueryContext(ctx, `SELECT schema_id, ord, field_id, name, display_name, aliases, data_type, role, required FROM schema_fields`)
	if err != nil {
		return nil, fmt.Errorf("load fields: %w", err)
	}
	defer frows.Close()

	var frs []regstore.FieldRow
	for frows.Next() {
		var f regstore.FieldRow
		if err := frows.Scan(&f.SchemaID, &f.Ord, &f.FieldID, &f.Name, &f.DisplayName, &f.AliasesJSON, &f.DataType, &f.Role, &f.Required); err != nil {
			return nil, err
		}
		frs = append(frs, f)
	}
	if err := frows.Err(); err != nil {
		return nil, err
	}

	return regstore.Assemble(srs, frs)
}

// Save upserts one definition and rewrites its field list in a single
// transaction.
func (s *store) Save(ctx context.Context, def schema.SchemaDefinition) error {
	if err := def.Validate(); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	updated := def.UpdatedAt
	if updated.IsZero() {
		updated = time.Now().UTC()
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO schemas (id, name, version, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET name=excluded.name, version=excluded.version, updated_at=excluded.updated_at`,
		def.ID, def.Name, def.Version, updated.Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("save schema %s: %w", def.ID, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM schema_fields WHERE schema_id = ?`, def.ID); err != nil {
		return err
	}
	for i, f := range def.Fields {
		aliases, err := regstore.EncodeAliases(f.Aliases)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO schema_fields (schema_id, ord, field_id, name, display_name, aliases, data_type, role, required)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			def.ID, i, f.ID, f.Name, f.DisplayName, aliases, string(f.DataType), string(f.Role), f.Required,
		); err != nil {
			return fmt.Errorf("save field %s.%s: %w", def.ID, f.ID, err)
		}
	}

	return tx.Commit()
}
