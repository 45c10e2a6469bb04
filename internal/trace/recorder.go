package trace

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/autorun/internal/runner"
)

//go:embed schema.sql
var schemaSQL string

// Recorder stores runner trace events in a SQLite database.
// Uses WAL mode so recorded traces can be read while a run is writing.
type Recorder struct {
	db *sql.DB
}

// Open creates or opens a trace database at the given path.
// Applies required pragmas and the schema automatically; safe to call on
// an existing database.
func Open(path string) (*Recorder, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open trace db: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect trace db: %w", err)
	}

	// SQLite supports one writer at a time; a single connection avoids
	// SQLITE_BUSY errors.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply trace schema: %w", err)
	}

	return &Recorder{db: db}, nil
}

// Close closes the database connection.
func (r *Recorder) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

// Sink returns a runner.TraceSink recording events under the given
// scenario name. Record errors are reported through onErr since the
// runner's sink interface cannot return them; onErr may be nil.
func (r *Recorder) Sink(ctx context.Context, scenario string, onErr func(error)) runner.TraceSink {
	return runner.SinkFunc(func(ev runner.Event) {
		if err := r.Append(ctx, scenario, ev); err != nil && onErr != nil {
			onErr(err)
		}
	})
}

// Append inserts one trace event. Duplicate (scenario, token, seq) rows
// are silently ignored, making re-recording a scenario idempotent.
func (r *Recorder) Append(ctx context.Context, scenario string, ev runner.Event) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO trace_events
		(scenario, token, seq, type, cause, result, source, strength, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(scenario, token, seq) DO NOTHING
	`,
		scenario,
		ev.Token,
		ev.Seq,
		string(ev.Type),
		ev.Trigger,
		ev.Result,
		ev.Source,
		ev.Strength,
		ev.Error,
	)
	if err != nil {
		return fmt.Errorf("append trace event: %w", err)
	}
	return nil
}

// List returns all events recorded under scenario, ordered by seq.
func (r *Recorder) List(ctx context.Context, scenario string) ([]runner.Event, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT token, seq, type, cause, result, source, strength, error
		FROM trace_events
		WHERE scenario = ?
		ORDER BY seq
	`, scenario)
	if err != nil {
		return nil, fmt.Errorf("list trace events: %w", err)
	}
	defer rows.Close()

	var events []runner.Event
	for rows.Next() {
		var ev runner.Event
		var typ string
		if err := rows.Scan(&ev.Token, &ev.Seq, &typ, &ev.Trigger, &ev.Result, &ev.Source, &ev.Strength, &ev.Error); err != nil {
			return nil, fmt.Errorf("scan trace event: %w", err)
		}
		ev.Type = runner.EventType(typ)
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list trace events: %w", err)
	}
	return events, nil
}

// Scenarios returns the distinct scenario names present in the database,
// in name order.
func (r *Recorder) Scenarios(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT scenario FROM trace_events ORDER BY scenario
	`)
	if err != nil {
		return nil, fmt.Errorf("list scenarios: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan scenario name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list scenarios: %w", err)
	}
	return names, nil
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %q: %w", pragma, err)
		}
	}
	return nil
}
