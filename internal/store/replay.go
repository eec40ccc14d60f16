package store

import (
	"context"
	"fmt"
)

// Transactor resubmits a rendered transaction body to a database.
type Transactor interface {
	Resubmit(ctx context.Context, database, body string) error
}

// ReplayReport summarizes one Replay run.
type ReplayReport struct {
	From     string
	To       string
	Replayed int
	Skipped  int // journaled but never committed
	LastSeq  int64
	Failed   *TransactionEntry
}

// Replay resubmits every committed transaction journaled for from (all
// databases when from is empty) to the database to, in seq order. It stops
// at the first failure and reports the entry that failed.
func (s *Store) Replay(ctx context.Context, from, to string, t Transactor) (ReplayReport, error) {
	report := ReplayReport{From: from, To: to}
	if to == "" {
		return report, fmt.Errorf("replay: target database is required")
	}

	entries, err := s.ReadTransactions(ctx, from)
	if err != nil {
		return report, fmt.Errorf("replay: %w", err)
	}

	for i := range entries {
		e := entries[i]
		if err := ctx.Err(); err != nil {
			return report, fmt.Errorf("replay: %w", err)
		}
		if !e.Committed {
			report.Skipped++
			s.log.Debugw("skipping uncommitted transaction", "id", e.ID, "seq", e.Seq)
			continue
		}
		if err := t.Resubmit(ctx, to, e.Body); err != nil {
			report.Failed = &e
			s.log.Warnw("replay stopped", "id", e.ID, "seq", e.Seq, "error", err)
			return report, fmt.Errorf("replay seq %d: %w", e.Seq, err)
		}
		report.Replayed++
		report.LastSeq = e.Seq
		s.log.Debugw("replayed transaction", "id", e.ID, "seq", e.Seq, "to", to)
	}

	s.log.Infow("replay finished", "from", from, "to", to, "replayed", report.Replayed, "skipped", report.Skipped)
	return report, nil
}
