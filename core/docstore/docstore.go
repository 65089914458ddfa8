// Package docstore provides the document storage contract the tracking core
// is written against: named collections of JSON documents with equality
// queries and atomic batch writes.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
)

// ErrNotFound is returned when a document id does not exist in a collection.
var ErrNotFound = errors.New("document not found")

// Write describes one document creation inside an atomic batch.
type Write struct {
	Collection string
	Doc        interface{}
}

// Store is the document database contract. Query filters are equality
// predicates on top-level fields; no richer query language is assumed.
type Store interface {
	// Add stores a new document and returns its generated id.
	Add(ctx context.Context, collection string, doc interface{}) (string, error)
	// Get loads a document by id into out.
	Get(ctx context.Context, collection, id string, out interface{}) error
	// Query loads all documents matching the equality filter into out,
	// which must be a pointer to a slice.
	Query(ctx context.Context, collection string, filter map[string]interface{}, out interface{}) error
	// Update merges the named fields into an existing document.
	Update(ctx context.Context, collection, id string, fields map[string]interface{}) error
	// Delete removes a document by id. Deleting a missing id is not an error.
	Delete(ctx context.Context, collection, id string) error
	// CommitBatch applies all writes atomically: either every document is
	// stored or none are.
	CommitBatch(ctx context.Context, writes []Write) error
	// Close releases the underlying connection.
	Close() error
}

// encodeDoc marshals a document to a field map with any id field stripped;
// ids live outside the stored document body.
func encodeDoc(doc interface{}) (map[string]interface{}, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	var fields map[string]interface{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("document must encode to a JSON object: %w", err)
	}
	delete(fields, "id")
	return fields, nil
}

// decodeDoc unmarshals a stored document body into out with its id set.
func decodeDoc(id string, body []byte, out interface{}) error {
	var fields map[string]interface{}
	if err := json.Unmarshal(body, &fields); err != nil {
		return fmt.Errorf("failed to decode document %s: %w", id, err)
	}
	fields["id"] = id
	data, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

// decodeDocs unmarshals a set of stored documents into out, a pointer to a
// slice.
func decodeDocs(ids []string, bodies [][]byte, out interface{}) error {
	raw := make([]map[string]interface{}, 0, len(ids))
	for i, body := range bodies {
		var fields map[string]interface{}
		if err := json.Unmarshal(body, &fields); err != nil {
			return fmt.Errorf("failed to decode document %s: %w", ids[i], err)
		}
		fields["id"] = ids[i]
		raw = append(raw, fields)
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

// matchesFilter reports whether a decoded document satisfies every equality
// predicate. Filter values are normalized through JSON so Go numerics
// compare against stored float64 values.
func matchesFilter(fields map[string]interface{}, filter map[string]interface{}) bool {
	for key, want := range filter {
		got, ok := fields[key]
		if !ok {
			return false
		}
		if !reflect.DeepEqual(normalize(want), got) {
			return false
		}
	}
	return true
}

func normalize(v interface{}) interface{} {
	data, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		return v
	}
	return out
}
