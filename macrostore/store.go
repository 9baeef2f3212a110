// Package macrostore persists macro definitions so a macro table can be
// rebuilt across sessions.
package macrostore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/ldcs/errors"
	"github.com/teranos/ldcs/ldcs/macro"
	"github.com/teranos/ldcs/logger"
)

// Definition is one stored macro
type Definition struct {
	Name       string    `json:"name" yaml:"name"`
	Arity      int       `json:"arity" yaml:"arity"`
	Definition string    `json:"definition" yaml:"definition"`
	Origin     string    `json:"origin,omitempty" yaml:"origin,omitempty"` // Library file or "cli"
	CreatedAt  time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" yaml:"updated_at"`
}

// Signature returns the name/arity key of the definition
func (d Definition) Signature() macro.Signature {
	return macro.Signature{Name: d.Name, Arity: d.Arity}
}

// Registrar accepts macro definitions; *compiler.Compiler satisfies it
type Registrar interface {
	RegisterMacro(definition string) error
}

// Store reads and writes the macros table
type Store struct {
	db     *sql.DB
	logger *zap.SugaredLogger
}

// New creates a store over a migrated database. A nil logger uses the
// "ldcs.macrostore" component logger.
func New(db *sql.DB, log *zap.SugaredLogger) *Store {
	if log == nil {
		log = logger.ComponentLogger("ldcs.macrostore")
	}
	return &Store{db: db, logger: log}
}

// Save validates a definition and upserts it under its name and arity
func (s *Store) Save(ctx context.Context, definition, origin string) (*Definition, error) {
	m, err := macro.Parse(definition)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO macros (name, arity, definition, origin, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(name, arity) DO UPDATE SET
			definition = excluded.definition,
			origin = excluded.origin,
			updated_at = excluded.updated_at`,
		m.Name, m.Arity, m.Source, origin, now, now)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to save macro %s", m.Signature)
	}

	s.log(ctx).Debugw("macro saved", logger.FieldMacro, m.Signature.String(), "origin", origin)
	return &Definition{
		Name:       m.Name,
		Arity:      m.Arity,
		Definition: m.Source,
		Origin:     origin,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// Get returns the definition stored under name and arity
func (s *Store) Get(ctx context.Context, name string, arity int) (*Definition, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT name, arity, definition, origin, created_at, updated_at
		FROM macros WHERE name = ? AND arity = ?`, name, arity)

	var d Definition
	err := row.Scan(&d.Name, &d.Arity, &d.Definition, &d.Origin, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.NewNotFoundError("macro %s/%d", name, arity)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read macro %s/%d", name, arity)
	}
	return &d, nil
}

// List returns every stored definition ordered by name then arity
func (s *Store) List(ctx context.Context) ([]Definition, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, arity, definition, origin, created_at, updated_at
		FROM macros ORDER BY name, arity`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list macros")
	}
	defer rows.Close()

	var defs []Definition
	for rows.Next() {
		var d Definition
		if err := rows.Scan(&d.Name, &d.Arity, &d.Definition, &d.Origin, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, errors.Wrap(err, "failed to scan macro")
		}
		defs = append(defs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate macros")
	}
	return defs, nil
}

// Delete removes the definition stored under name and arity
func (s *Store) Delete(ctx context.Context, name string, arity int) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM macros WHERE name = ? AND arity = ?`, name, arity)
	if err != nil {
		return errors.Wrapf(err, "failed to delete macro %s/%d", name, arity)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to read affected rows")
	}
	if n == 0 {
		return errors.NewNotFoundError("macro %s/%d", name, arity)
	}
	s.log(ctx).Infow("macro deleted", logger.FieldMacro, fmt.Sprintf("%s/%d", name, arity))
	return nil
}

// LoadInto registers every stored definition with r and returns how many
// were registered. A definition that no longer parses is skipped with a warning.
func (s *Store) LoadInto(ctx context.Context, r Registrar) (int, error) {
	defs, err := s.List(ctx)
	if err != nil {
		return 0, err
	}

	log := s.log(ctx)
	loaded := 0
	for _, d := range defs {
		if err := r.RegisterMacro(d.Definition); err != nil {
			log.Warnw("stored macro rejected",
				logger.FieldMacro, d.Signature().String(),
				logger.FieldError, err.Error())
			continue
		}
		loaded++
	}
	log.Debugw("macros loaded", logger.FieldCount, loaded)
	return loaded, nil
}

// log carries the request fields of ctx
func (s *Store) log(ctx context.Context) *zap.SugaredLogger {
	if fields := logger.FieldsFromContext(ctx); len(fields) > 0 {
		return s.logger.With(fields...)
	}
	return s.logger
}
