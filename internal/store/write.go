package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// TransactionEntry is one submitted transaction body.
type TransactionEntry struct {
	ID        string
	Seq       int64
	Database  string
	Source    string // loaded file or object name, empty for built bodies
	Body      string
	Digest    string // see Digest
	Status    int
	Committed bool
	Response  string
}

// QueryEntry is one submitted query.
type QueryEntry struct {
	ID       string
	Seq      int64
	Database string
	Query    string
	Args     string
	Raw      bool
	Limit    int
	Offset   int
	Status   int
	Rows     int
}

// RecordTransaction appends e to the journal and returns it with its ID
// and Seq filled in. A caller supplied ID is kept.
func (s *Store) RecordTransaction(ctx context.Context, e TransactionEntry) (TransactionEntry, error) {
	if e.Database == "" {
		return e, fmt.Errorf("record transaction: database is required")
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	e.Digest = Digest(e.Body)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return e, fmt.Errorf("record transaction: begin tx: %w", err)
	}
	defer tx.Rollback()

	seq, err := latestSeq(ctx, tx)
	if err != nil {
		return e, fmt.Errorf("record transaction: %w", err)
	}
	e.Seq = seq + 1

	_, err = tx.ExecContext(ctx, `
		INSERT INTO transactions
		(id, seq, database, source, body, digest, status, committed, response)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		e.ID,
		e.Seq,
		e.Database,
		e.Source,
		e.Body,
		e.Digest,
		e.Status,
		e.Committed,
		e.Response,
	)
	if err != nil {
		return e, fmt.Errorf("record transaction: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return e, fmt.Errorf("record transaction: commit: %w", err)
	}
	return e, nil
}

// RecordQuery appends e to the journal and returns it with its ID and Seq
// filled in.
func (s *Store) RecordQuery(ctx context.Context, e QueryEntry) (QueryEntry, error) {
	if e.Database == "" {
		return e, fmt.Errorf("record query: database is required")
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return e, fmt.Errorf("record query: begin tx: %w", err)
	}
	defer tx.Rollback()

	seq, err := latestSeq(ctx, tx)
	if err != nil {
		return e, fmt.Errorf("record query: %w", err)
	}
	e.Seq = seq + 1

	_, err = tx.ExecContext(ctx, `
		INSERT INTO queries
		(id, seq, database, query, args, raw, row_limit, row_offset, status, row_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		e.ID,
		e.Seq,
		e.Database,
		e.Query,
		e.Args,
		e.Raw,
		e.Limit,
		e.Offset,
		e.Status,
		e.Rows,
	)
	if err != nil {
		return e, fmt.Errorf("record query: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return e, fmt.Errorf("record query: commit: %w", err)
	}
	return e, nil
}
