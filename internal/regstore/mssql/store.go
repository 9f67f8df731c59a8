// Package mssql implements regstore.Store on SQL Server.
//
// SQL Server lacks ON CONFLICT; upserts use an UPDATE-then-INSERT pattern
// inside the save transaction, which is sufficient for the single-writer
// schema-wizard collaborator this store serves.
package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/microsoft/go-mssqldb"

	"callsift/internal/regstore"
	"callsift/internal/schema"
)

type store struct {
	db *sql.DB
}

func init() {
	regstore.Register("mssql", Open)
}

// Open connects to SQL Server using a sqlserver:// DSN and verifies the
// connection.
func Open(ctx context.Context, dsn string) (regstore.Store, error) {
	db, err := sql.Open("sqlserver", dsn)
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
func (s *store) EnsureTables(ctx context.Context) error {
	stmts := []string{
		`IF OBJECT_ID('schemas', 'U') IS NULL
		 CREATE TABLE schemas (
			id NVARCHAR(128) PRIMARY KEY,
			name NVARCHAR(256) NOT NULL,
			version INT NOT NULL,
			updated_at NVARCHAR(64) NOT NULL
		 )`,
		`IF OBJECT_ID('schema_fields', 'U') IS NULL
		 CREATE TABLE schema_fields (
			schema_id NVARCHAR(128) NOT NULL REFERENCES schemas(id),
			ord INT NOT NULL,
			field_id NVARCHAR(128) NOT NULL,
			name NVARCHAR(256) NOT NULL,
			display_name NVARCHAR(256) NOT NULL DEFAULT '',
			aliases NVARCHAR(MAX) NOT NULL DEFAULT '[]',
			data_type NVARCHAR(32) NOT NULL,
			role NVARCHAR(32) NOT NULL DEFAULT '',
			required BIT NOT NULL DEFAULT 0,
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
	updatedStr := updated.Format(time.RFC3339Nano)

	res, err := tx.ExecContext(ctx,
		`UPDATE schemas SET name = @p2, version = @p3, updated_at = @p4 WHERE id = @p1`,
		def.ID, def.Name, def.Version, updatedStr,
	)
	if err != nil {
		return fmt.Errorf("save schema %s: %w", def.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO schemas (id, name, version, updated_at) VALUES (@p1, @p2, @p3, @p4)`,
			def.ID, def.Name, def.Version, updatedStr,
		); err != nil {
			return fmt.Errorf("save schema %s: %w", def.ID, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM schema_fields WHERE schema_id = @p1`, def.ID); err != nil {
		return err
	}
	for i, f := range def.Fields {
		aliases, err := regstore.EncodeAliases(f.Aliases)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO schema_fields (schema_id, ord, field_id, name, display_name, aliases, data_type, role, required)
			 VALUES (@p1, @p2, @p3, @p4, @p5, @p6, @p7, @p8, @p9)`,
			def.ID, i, f.ID, f.Name, f.DisplayName, aliases, string(f.DataType), string(f.Role), f.Required,
		); err != nil {
			return fmt.Errorf("save field %s.%s: %w", def.ID, f.ID, err)
		}
	}

	return tx.Commit()
}
