package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO needed)
)

// SQLite is a file-backed Store, the default for single-node deployments
// and development.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (or creates) the SQLite database and ensures the schema
// exists.
func NewSQLite(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn) // NOTE: driver name is "sqlite", not "sqlite3"
	if err != nil {
		return nil, err
	}

	s := &SQLite{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLite) migrate() error {
	q := `
	CREATE TABLE IF NOT EXISTS documents (
		collection TEXT NOT NULL,
		id TEXT NOT NULL,
		doc TEXT NOT NULL,
		PRIMARY KEY (collection, id)
	);
	`
	_, err := s.db.Exec(q)
	return err
}

// Add stores a new document and returns its generated id.
func (s *SQLite) Add(ctx context.Context, collection string, doc interface{}) (string, error) {
	fields, err := encodeDoc(doc)
	if err != nil {
		return "", err
	}
	body, err := json.Marshal(fields)
	if err != nil {
		return "", err
	}

	id := uuid.New().String()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO documents(collection, id, doc) VALUES(?, ?, ?)`,
		collection, id, string(body))
	if err != nil {
		return "", fmt.Errorf("failed to add document: %w", err)
	}
	return id, nil
}

// Get loads a document by id.
func (s *SQLite) Get(ctx context.Context, collection, id string, out interface{}) error {
	var body string
	err := s.db.QueryRowContext(ctx,
		`SELECT doc FROM documents WHERE collection = ? AND id = ?`,
		collection, id).Scan(&body)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return decodeDoc(id, []byte(body), out)
}

// Query loads all documents matching the equality filter. SQLite stores the
// document as text, so predicates are evaluated after scanning.
func (s *SQLite) Query(ctx context.Context, collection string, filter map[string]interface{}, out interface{}) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, doc FROM documents WHERE collection = ?`, collection)
	if err != nil {
		return err
	}
	defer rows.Close()

	var ids []string
	var bodies [][]byte
	for rows.Next() {
		var id, body string
		if err := rows.Scan(&id, &body); err != nil {
			return err
		}
		var fields map[string]interface{}
		if err := json.Unmarshal([]byte(body), &fields); err != nil {
			return fmt.Errorf("failed to decode document %s: %w", id, err)
		}
		if matchesFilter(fields, filter) {
			ids = append(ids, id)
			bodies = append(bodies, []byte(body))
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	return decodeDocs(ids, bodies, out)
}

// Update merges fields into an existing document inside a transaction.
func (s *SQLite) Update(ctx context.Context, collection, id string, fields map[string]interface{}) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var body string
	err = tx.QueryRowContext(ctx,
		`SELECT doc FROM documents WHERE collection = ? AND id = ?`,
		collection, id).Scan(&body)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	var existing map[string]interface{}
	if err := json.Unmarshal([]byte(body), &existing); err != nil {
		return err
	}
	for k, v := range fields {
		existing[k] = normalize(v)
	}
	delete(existing, "id")
	updated, err := json.Marshal(existing)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE documents SET doc = ? WHERE collection = ? AND id = ?`,
		string(updated), collection, id); err != nil {
		return err
	}
	return tx.Commit()
}

// Delete removes a document by id.
func (s *SQLite) Delete(ctx context.Context, collection, id string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM documents WHERE collection = ? AND id = ?`, collection, id)
	return err
}

// CommitBatch inserts all writes in one transaction.
func (s *SQLite) CommitBatch(ctx context.Context, writes []Write) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, w := range writes {
		fields, err := encodeDoc(w.Doc)
		if err != nil {
			return err
		}
		body, err := json.Marshal(fields)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO documents(collection, id, doc) VALUES(?, ?, ?)`,
			w.Collection, uuid.New().String(), string(body)); err != nil {
			return fmt.Errorf("failed to write batch document: %w", err)
		}
	}
	return tx.Commit()
}

// Close closes the database handle.
func (s *SQLite) Close() error {
	return s.db.Close()
}
