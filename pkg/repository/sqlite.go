package repository

import (
	"context"
	"database/sql"
	"embed"
	"sort"
	"strings"

	"github.com/kioku-ai/kioku/pkg/model"
	"github.com/m-mizutani/goerr/v2"
	_ "modernc.org/sqlite" // SQLite driver
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLite is the SQLite-backed Repository.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (or creates) the database at path and applies pending
// migrations.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open database", goerr.V("path", path))
	}

	// SQLite is single-writer. A single shared connection lets database/sql
	// serialize callers instead of having them fight over write locks, which
	// also keeps id assignment strictly sequential.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, goerr.Wrap(err, "failed to set pragma", goerr.V("pragma", pragma))
		}
	}

	repo := &SQLite{db: db}
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return repo, nil
}

func (r *SQLite) Close() error {
	return r.db.Close()
}

func (r *SQLite) migrate() error {
	if _, err := r.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			name TEXT PRIMARY KEY,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return goerr.Wrap(err, "failed to create migrations table")
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return goerr.Wrap(err, "failed to read migrations directory")
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".sql") {
			continue
		}

		var applied int
		if err := r.db.QueryRow(
			`SELECT COUNT(*) FROM schema_migrations WHERE name = ?`, name,
		).Scan(&applied); err != nil {
			return goerr.Wrap(err, "failed to check migration state", goerr.V("migration", name))
		}
		if applied > 0 {
			continue
		}

		stmt, err := migrationsFS.ReadFile("migrations/" + name)
		if err != nil {
			return goerr.Wrap(err, "failed to read migration", goerr.V("migration", name))
		}
		if _, err := r.db.Exec(string(stmt)); err != nil {
			return goerr.Wrap(err, "failed to apply migration", goerr.V("migration", name))
		}
		if _, err := r.db.Exec(`INSERT INTO schema_migrations (name) VALUES (?)`, name); err != nil {
			return goerr.Wrap(err, "failed to record migration", goerr.V("migration", name))
		}
	}

	return nil
}

func (r *SQLite) Put(ctx context.Context, msg *model.Message) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO chat_history (timestamp, sender, message, vector)
		VALUES (?, ?, ?, ?)
	`, msg.Timestamp, string(msg.Sender), msg.Text, EncodeVector(msg.Embedding))
	if err != nil {
		return 0, goerr.Wrap(err, "failed to insert message", goerr.V("sender", msg.Sender))
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, goerr.Wrap(err, "failed to get inserted message id")
	}
	return id, nil
}

func (r *SQLite) LastN(ctx context.Context, n int) ([]*model.Message, error) {
	// Select the n newest rows, then flip them back into chronological
	// order. Callers depend on oldest-first ordering for summarization.
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, timestamp, sender, message, vector FROM (
			SELECT * FROM chat_history ORDER BY id DESC LIMIT ?
		) ORDER BY id ASC
	`, n)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query recent messages", goerr.V("n", n))
	}
	defer rows.Close()

	return scanMessages(rows)
}

func (r *SQLite) ScanAll(ctx context.Context) ([]*model.Message, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, timestamp, sender, message, vector
		FROM chat_history ORDER BY id ASC
	`)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to scan messages")
	}
	defer rows.Close()

	return scanMessages(rows)
}

func (r *SQLite) DeleteRecent(ctx context.Context, k int) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM chat_history WHERE id IN (
			SELECT id FROM chat_history ORDER BY id DESC LIMIT ?
		)
	`, k)
	if err != nil {
		return goerr.Wrap(err, "failed to delete recent messages", goerr.V("k", k))
	}
	return nil
}

func (r *SQLite) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM chat_history`); err != nil {
		return goerr.Wrap(err, "failed to delete all messages")
	}
	return nil
}

func (r *SQLite) UpdateEmbedding(ctx context.Context, id int64, embedding []float32) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE chat_history SET vector = ? WHERE id = ?`,
		EncodeVector(embedding), id,
	)
	if err != nil {
		return goerr.Wrap(err, "failed to update embedding", goerr.V("id", id))
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return goerr.Wrap(err, "failed to check update result", goerr.V("id", id))
	}
	if affected == 0 {
		return goerr.New("message not found", goerr.V("id", id))
	}
	return nil
}

func scanMessages(rows *sql.Rows) ([]*model.Message, error) {
	var messages []*model.Message
	for rows.Next() {
		var (
			msg    model.Message
			sender string
			vector string
		)
		if err := rows.Scan(&msg.ID, &msg.Timestamp, &sender, &msg.Text, &vector); err != nil {
			return nil, goerr.Wrap(err, "failed to scan message row")
		}

		embedding, err := DecodeVector(vector)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to decode stored vector", goerr.V("id", msg.ID))
		}

		msg.Sender = model.Sender(sender)
		msg.Embedding = embedding
		messages = append(messages, &msg)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate message rows")
	}
	return messages, nil
}
