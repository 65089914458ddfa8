package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/lib/pq" // Postgres driver
)

// Postgres is a Store backed by a single JSONB table, for shared
// deployments.
type Postgres struct {
	db *sql.DB
}

// NewPostgres connects to Postgres and ensures the schema exists.
func NewPostgres(databaseURL string) (*Postgres, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	p := &Postgres{db: db}
	if err := p.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return p, nil
}

func (p *Postgres) migrate() error {
	q := `
	CREATE TABLE IF NOT EXISTS documents (
		collection TEXT NOT NULL,
		id UUID NOT NULL,
		doc JSONB NOT NULL,
		PRIMARY KEY (collection, id)
	);
	CREATE INDEX IF NOT EXISTS idx_documents_doc ON documents USING gin (doc);
	`
	_, err := p.db.Exec(q)
	return err
}

// Add stores a new document and returns its generated id.
func (p *Postgres) Add(ctx context.Context, collection string, doc interface{}) (string, error) {
	fields, err := encodeDoc(doc)
	if err != nil {
		return "", err
	}
	body, err := json.Marshal(fields)
	if err != nil {
		return "", err
	}

	id := uuid.New().String()
	_, err = p.db.ExecContext(ctx,
		`INSERT INTO documents(collection, id, doc) VALUES($1, $2, $3)`,
		collection, id, string(body))
	if err != nil {
		return "", fmt.Errorf("failed to add document: %w", err)
	}
	return id, nil
}

// Get loads a document by id.
func (p *Postgres) Get(ctx context.Context, collection, id string, out interface{}) error {
	var body string
	err := p.db.QueryRowContext(ctx,
		`SELECT doc FROM documents WHERE collection = $1 AND id = $2`,
		collection, id).Scan(&body)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return decodeDoc(id, []byte(body), out)
}

// Query loads all documents matching the equality filter, using JSONB
// containment so the predicate runs in the database.
func (p *Postgres) Query(ctx context.Context, collection string, filter map[string]interface{}, out interface{}) error {
	if filter == nil {
		filter = map[string]interface{}{} // nil would marshal to null, which contains nothing
	}
	predicate, err := json.Marshal(filter)
	if err != nil {
		return err
	}

	rows, err := p.db.QueryContext(ctx,
		`SELECT id, doc FROM documents WHERE collection = $1 AND doc @> $2::jsonb`,
		collection, string(predicate))
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
		ids = append(ids, id)
		bodies = append(bodies, []byte(body))
	}
	if err := rows.Err(); err != nil {
		return err
	}
	return decodeDocs(ids, bodies, out)
}

// Update merges fields into an existing document via JSONB concatenation.
func (p *Postgres) Update(ctx context.Context, collection, id string, fields map[string]interface{}) error {
	patch, err := json.Marshal(fields)
	if err != nil {
		return err
	}

	res, err := p.db.ExecContext(ctx,
		`UPDATE documents SET doc = (doc || $3::jsonb) - 'id' WHERE collection = $1 AND id = $2`,
		collection, id, string(patch))
	if err != nil {
		return err
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a document by id.
func (p *Postgres) Delete(ctx context.Context, collection, id string) error {
	_, err := p.db.ExecContext(ctx,
		`DELETE FROM documents WHERE collection = $1 AND id = $2`, collection, id)
	return err
}

// CommitBatch inserts all writes in one transaction.
func (p *Postgres) CommitBatch(ctx context.Context, writes []Write) error {
	tx, err := p.db.BeginTx(ctx, nil)
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
			`INSERT INTO documents(collection, id, doc) VALUES($1, $2, $3)`,
			w.Collection, uuid.New().String(), string(body)); err != nil {
			return fmt.Errorf("failed to write batch document: %w", err)
		}
	}
	return tx.Commit()
}

// Close closes the database handle.
func (p *Postgres) Close() error {
	return p.db.Close()
}
