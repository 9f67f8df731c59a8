// Package regstore defines the backend-neutral persistence contract for
// schema definitions.
//
// Backends self-register by kind (sqlite, postgres, mssql) from their
// package init, so callers select one with Open(kind, dsn) and the core
// never imports a driver. The store is a registry collaborator: the
// matching core only ever sees the loaded []schema.SchemaDefinition.
package regstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"callsift/internal/schema"
)

// Store persists and loads schema definitions.
//
// LoadAll returns definitions ordered by schema id so registry contents
// are reproducible across backends. Save upserts one definition and its
// fields atomically.
type Store interface {
	EnsureTables(ctx context.Context) error
	LoadAll(ctx context.Context) ([]schema.SchemaDefinition, error)
	Save(ctx context.Context, def schema.SchemaDefinition) error
	Close() error
}

// Opener constructs a Store for a DSN.
type Opener func(ctx context.Context, dsn string) (Store, error)

var (
	openersMu sync.RWMutex
	openers   = make(map[string]Opener)
)

// Register installs an opener for a backend kind. Backends call this from
// init; registering the same kind twice is a programmer error.
func Register(kind string, open Opener) {
	openersMu.Lock()
	defer openersMu.Unlock()
	if _, dup := openers[kind]; dup {
		panic(fmt.Sprintf("regstore: duplicate backend %q", kind))
	}
	openers[kind] = open
}

// Open constructs the store registered under kind.
func Open(ctx context.Context, kind, dsn string) (Store, error) {
	openersMu.RLock()
	open, ok := openers[kind]
	openersMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("regstore: unknown backend %q (registered: %v)", kind, Kinds())
	}
	return open(ctx, dsn)
}

// Kinds lists the registered backend kinds, sorted.
func Kinds() []string {
	openersMu.RLock()
	defer openersMu.RUnlock()
	out := make([]string, 0, len(openers))
	for k := range openers {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
