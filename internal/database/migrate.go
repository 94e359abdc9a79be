package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"

	"quiz-assessment/internal/logger"

	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Direction selects which half of each migration runs.
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// Oracle errors that mean the object is already in the wanted state.
var alreadyApplied = map[Direction][]string{
	Up:   {"ORA-00955", "ORA-01408"},
	Down: {"ORA-00942", "ORA-01418"},
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Migration is one embedded statement.
type Migration struct {
	Version    uint
	Identifier string
	Statement  string
}

// Migrations reads the embedded migrations for dir in execution order.
func Migrations(dir Direction) ([]Migration, error) {
	src, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("could not open migrations: %w", err)
	}
	defer src.Close()

	var out []Migration
	version, err := src.First()
	for err == nil {
		m, readErr := readMigration(src, version, dir)
		if readErr != nil {
			return nil, readErr
		}
		out = append(out, m)
		version, err = src.Next(version)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("could not list migrations: %w", err)
	}

	if dir == Down {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return out, nil
}

func readMigration(src source.Driver, version uint, dir Direction) (Migration, error) {
	var (
		r          io.ReadCloser
		identifier string
		err        error
	)
	if dir == Down {
		r, identifier, err = src.ReadDown(version)
	} else {
		r, identifier, err = src.ReadUp(version)
	}
	if err != nil {
		return Migration{}, fmt.Errorf("could not read migration %d: %w", version, err)
	}
	defer r.Close()

	body, err := io.ReadAll(r)
	if err != nil {
		return Migration{}, fmt.Errorf("could not read migration %d: %w", version, err)
	}
	return Migration{
		Version:    version,
		Identifier: identifier,
		Statement:  strings.TrimSuffix(strings.TrimSpace(string(body)), ";"),
	}, nil
}

// RunMigrations executes every embedded migration for dir. Each file
// holds a single statement without a trailing semicolon, which is what
// the Oracle drivers accept.
func RunMigrations(ctx context.Context, db execer, dir Direction) error {
	if dir != Up && dir != Down {
		return fmt.Errorf("unknown migration direction %q", dir)
	}
	migrations, err := Migrations(dir)
	if err != nil {
		return err
	}

	l := logger.Get()
	for _, m := range migrations {
		if _, err := db.ExecContext(ctx, m.Statement); err != nil {
			if isAlreadyApplied(dir, err) {
				l.Info("Migration already applied, skipping", zap.Uint("version", m.Version), zap.String("name", m.Identifier))
				continue
			}
			return fmt.Errorf("could not execute migration %d_%s: %w", m.Version, m.Identifier, err)
		}
		l.Info("Executed migration", zap.Uint("version", m.Version), zap.String("name", m.Identifier))
	}

	l.Info("Migrations completed successfully", zap.String("direction", string(dir)), zap.Int("count", len(migrations)))
	return nil
}

func isAlreadyApplied(dir Direction, err error) bool {
	msg := err.Error()
	for _, code := range alreadyApplied[dir] {
		if strings.Contains(msg, code) {
			return true
		}
	}
	return false
}
