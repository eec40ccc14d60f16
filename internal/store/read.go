package store

import (
	"context"
	"database/sql"
	"fmt"
)

// ReadTransactions returns the journaled transactions for database, or for
// every database when it is empty. Ordered by seq ASC, id ASC COLLATE BINARY.
//
// Returns an empty slice (not nil) when nothing matches.
func (s *Store) ReadTransactions(ctx context.Context, database string) ([]TransactionEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, seq, database, source, body, digest, status, committed, response
		FROM transactions
		WHERE ? = '' OR database = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, database, database)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	entries := []TransactionEntry{}
	for rows.Next() {
		e, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return entries, nil
}

// ReadQueries returns the journaled queries for database, or for every
// database when it is empty, in seq order.
func (s *Store) ReadQueries(ctx context.Context, database string) ([]QueryEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, seq, database, query, args, raw, row_limit, row_offset, status, row_count
		FROM queries
		WHERE ? = '' OR database = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, database, database)
	if err != nil {
		return nil, fmt.Errorf("query queries: %w", err)
	}
	defer rows.Close()

	entries := []QueryEntry{}
	for rows.Next() {
		e, err := scanQuery(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate queries: %w", err)
	}
	return entries, nil
}

func scanTransaction(rows *sql.Rows) (TransactionEntry, error) {
	var e TransactionEntry
	if err := rows.Scan(&e.ID, &e.Seq, &e.Database, &e.Source, &e.Body, &e.Digest, &e.Status, &e.Committed, &e.Response); err != nil {
		return e, fmt.Errorf("scan transaction: %w", err)
	}
	return e, nil
}

func scanQuery(rows *sql.Rows) (QueryEntry, error) {
	var e QueryEntry
	if err := rows.Scan(&e.ID, &e.Seq, &e.Database, &e.Query, &e.Args, &e.Raw, &e.Limit, &e.Offset, &e.Status, &e.Rows); err != nil {
		return e, fmt.Errorf("scan query: %w", err)
	}
	return e, nil
}
