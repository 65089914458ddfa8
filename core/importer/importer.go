// Package importer turns tabular job exports into fully expanded job
// documents and commits them to the store in bounded batches.
package importer

import (
	"context"
	"fmt"
	"log"
	"math"
	"strconv"
	"strings"
	"time"

	"fabtrack/core/docstore"
	"fabtrack/core/models"
	"fabtrack/core/repository"
	"fabtrack/core/template"
)

// ErrorKind classifies import failures for callers.
type ErrorKind string

const (
	ErrMissingColumns ErrorKind = "missing-columns"
	ErrEmptyFile      ErrorKind = "empty-file"
	ErrNoValidRows    ErrorKind = "no-valid-rows"
	ErrWriteFailure   ErrorKind = "write-failure"
)

// Error is a classified import failure.
type Error struct {
	Kind   ErrorKind
	Detail string
	err    error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Detail, e.err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

// Unwrap exposes the underlying store error, if any.
func (e *Error) Unwrap() error { return e.err }

// Required header names, exactly as exported by the estimation sheet.
var requiredColumns = []string{"Part Mark", "Description", "Qty", "Unit Weight"}

// chunkSize bounds the number of documents per atomic batch write to stay
// under store batch limits.
const chunkSize = 50

// Importer parses CSV job lists and writes the expanded jobs to the store.
type Importer struct {
	store     docstore.Store
	checklist *template.Checklist
}

// New creates an importer that expands rows with the given checklist.
func New(store docstore.Store, checklist *template.Checklist) *Importer {
	return &Importer{store: store, checklist: checklist}
}

// Import parses the CSV text, expands every valid row into a job document
// for the project and commits the documents in sequential chunks. The
// progress callback, if non-nil, receives the cumulative percentage after
// each committed chunk. It returns the number of jobs imported.
//
// The format is a simple positional CSV: fields are split on commas with no
// quoting or escaping support. This is a known limitation of the source
// sheets, not something to compensate for.
func (imp *Importer) Import(ctx context.Context, projectID, userID, data string, onProgress func(percent int)) (int, error) {
	lines := splitLines(data)
	if len(lines) == 0 {
		return 0, &Error{Kind: ErrEmptyFile, Detail: "file contains no rows"}
	}

	columns, err := parseHeader(lines[0])
	if err != nil {
		return 0, err
	}

	now := time.Now().UTC()
	var jobs []*models.Job
	for _, line := range lines[1:] {
		job, ok := imp.parseRow(line, columns)
		if !ok {
			continue
		}
		job.ProjectID = projectID
		job.UserID = userID
		job.CreatedAt = now
		jobs = append(jobs, job)
	}

	if len(jobs) == 0 {
		return 0, &Error{Kind: ErrNoValidRows, Detail: "no rows had a part mark"}
	}

	// Chunks are committed one at a time; a failure leaves earlier chunks
	// in place and cancellation takes effect between chunks.
	processed := 0
	for start := 0; start < len(jobs); start += chunkSize {
		if err := ctx.Err(); err != nil {
			return processed, err
		}

		end := start + chunkSize
		if end > len(jobs) {
			end = len(jobs)
		}

		writes := make([]docstore.Write, 0, end-start)
		for _, job := range jobs[start:end] {
			writes = append(writes, docstore.Write{Collection: repository.CollectionJobs, Doc: job})
		}

		if err := imp.store.CommitBatch(ctx, writes); err != nil {
			return processed, &Error{
				Kind:   ErrWriteFailure,
				Detail: fmt.Sprintf("batch failed after %d of %d jobs", processed, len(jobs)),
				err:    err,
			}
		}

		processed += end - start
		percent := int(math.Round(100 * float64(processed) / float64(len(jobs))))
		log.Printf("Imported %d/%d jobs (%d%%)", processed, len(jobs), percent)
		if onProgress != nil {
			onProgress(percent)
		}
	}

	return processed, nil
}

// parseHeader maps required column names to their positions. Extra columns
// are ignored; names must match exactly.
func parseHeader(line string) (map[string]int, error) {
	headers := strings.Split(line, ",")
	columns := make(map[string]int, len(headers))
	for i, h := range headers {
		columns[strings.TrimSpace(h)] = i
	}

	var missing []string
	for _, required := range requiredColumns {
		if _, ok := columns[required]; !ok {
			missing = append(missing, required)
		}
	}
	if len(missing) > 0 {
		return nil, &Error{
			Kind:   ErrMissingColumns,
			Detail: "missing required columns: " + strings.Join(missing, ", "),
		}
	}
	return columns, nil
}

// parseRow expands one data line into a job document. Rows without a part
// mark are dropped; numeric fields that fail to parse default to zero.
func (imp *Importer) parseRow(line string, columns map[string]int) (*models.Job, bool) {
	parts := strings.Split(line, ",")
	field := func(name string) string {
		idx := columns[name]
		if idx >= len(parts) {
			return ""
		}
		return strings.TrimSpace(parts[idx])
	}

	name := field("Part Mark")
	if name == "" {
		return nil, false
	}

	unitWeight := parseNumeric(field("Unit Weight"))
	quantity := int(parseNumeric(field("Qty")))

	return &models.Job{
		Name:        name,
		Description: field("Description"),
		UnitWeight:  unitWeight,
		Quantity:    quantity,
		TotalWeight: unitWeight * float64(quantity),
		Status:      models.JobStatusPending,
		SubJobs:     imp.checklist.NewSubJobs(name, quantity),
	}, true
}

// parseNumeric coerces a numeric cell, defaulting to 0 on anything it
// cannot parse. Lenient on purpose; imports never fail on bad numbers.
func parseNumeric(s string) float64 {
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

func splitLines(data string) []string {
	var lines []string
	for _, line := range strings.Split(data, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

// SampleCSV returns the downloadable import template with example rows.
func SampleCSV() string {
	return strings.Join([]string{
		"Part Mark,Description,Qty,Unit Weight",
		"C1,Column Section 1,2,1250.50",
		"B1,Beam Section 1,4,850.75",
		"G1,Gusset Plate 1,10,45.25",
	}, "\n") + "\n"
}
