package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/patomic/internal/store"
)

// JournalOptions holds flags for the journal commands.
type JournalOptions struct {
	*RootOptions
	Database string
	From     string
	To       string
}

// JournalEntry is one row of journal list.
type JournalEntry struct {
	Seq      int64  `json:"seq"`
	Kind     string `json:"kind"` // "transaction" or "query"
	Database string `json:"database"`
	Status   int    `json:"status"`
	Summary  string `json:"summary"`
	Digest   string `json:"digest,omitempty"` // transactions only
	OK       bool   `json:"ok"`
}

// ReplayResult is the JSON payload of journal replay.
type ReplayResult struct {
	From     string `json:"from,omitempty"`
	To       string `json:"to"`
	Replayed int    `json:"replayed"`
	Skipped  int    `json:"skipped"`
	LastSeq  int64  `json:"last_seq"`
	FailedAt int64  `json:"failed_at,omitempty"`
}

// NewJournalCommand creates the journal command group.
func NewJournalCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &JournalOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Inspect and replay the local journal of submitted work",
		Long: `The journal is a SQLite file that records every transaction and
query the CLI submits. Configure its path with journal in patomic.yaml or
PATOMIC_JOURNAL.`,
	}

	listCmd := &cobra.Command{
		Use:           "list",
		Short:         "List journaled transactions and queries in seq order",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJournalList(opts, cmd)
		},
	}
	listCmd.Flags().StringVar(&opts.Database, "database", "", "only entries for this database")

	replayCmd := &cobra.Command{
		Use:   "replay",
		Short: "Resubmit committed transactions to another database",
		Long: `Resubmit every committed transaction journaled for --from (every
database when omitted) to --to, in the order they were first submitted.
Replay stops at the first rejected transaction.

Exit codes:
  0 - Every transaction was replayed
  1 - A transaction was rejected
  2 - Command error (no journal, unreachable peer, etc.)`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJournalReplay(opts, cmd)
		},
	}
	replayCmd.Flags().StringVar(&opts.From, "from", "", "source database (default: all)")
	replayCmd.Flags().StringVar(&opts.To, "to", "", "target database")
	_ = replayCmd.MarkFlagRequired("to")

	cmd.AddCommand(listCmd, replayCmd)
	return cmd
}

func runJournalList(opts *JournalOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	j, err := opts.requireJournal()
	if err != nil {
		return formatter.Fail("journal list", err)
	}
	defer j.Close()

	ctx := commandContext(cmd)
	txs, err := j.ReadTransactions(ctx, opts.Database)
	if err != nil {
		return formatter.Fail("journal list", WrapExitError(ExitCommandError, "read transactions", err))
	}
	qs, err := j.ReadQueries(ctx, opts.Database)
	if err != nil {
		return formatter.Fail("journal list", WrapExitError(ExitCommandError, "read queries", err))
	}

	entries := mergeEntries(txs, qs)
	return formatter.Success(entries, func(w io.Writer) {
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "SEQ\tKIND\tDATABASE\tSTATUS\tSUMMARY")
		for _, e := range entries {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\n", e.Seq, e.Kind, e.Database, e.Status, e.Summary)
		}
		_ = tw.Flush()
	})
}

// mergeEntries interleaves both tables by seq. Each input is already in
// seq order.
func mergeEntries(txs []store.TransactionEntry, qs []store.QueryEntry) []JournalEntry {
	out := make([]JournalEntry, 0, len(txs)+len(qs))
	i, k := 0, 0
	for i < len(txs) || k < len(qs) {
		if k >= len(qs) || (i < len(txs) && txs[i].Seq < qs[k].Seq) {
			t := txs[i]
			summary := t.Source
			if summary == "" {
				summary = abbreviate(t.Body, 60)
			}
			out = append(out, JournalEntry{Seq: t.Seq, Kind: "transaction", Database: t.Database, Status: t.Status, Summary: summary, Digest: t.Digest, OK: t.Committed})
			i++
			continue
		}
		q := qs[k]
		out = append(out, JournalEntry{Seq: q.Seq, Kind: "query", Database: q.Database, Status: q.Status, Summary: abbreviate(q.Query, 60), OK: q.Status == 200})
		k++
	}
	return out
}

func abbreviate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

func runJournalReplay(opts *JournalOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	j, err := opts.requireJournal()
	if err != nil {
		return formatter.Fail("journal replay", err)
	}
	defer j.Close()

	client, err := opts.clientFor("", j)
	if err != nil {
		return formatter.Fail("journal replay", err)
	}

	report, err := j.Replay(commandContext(cmd), opts.From, opts.To, client)
	result := ReplayResult{
		From:     report.From,
		To:       report.To,
		Replayed: report.Replayed,
		Skipped:  report.Skipped,
		LastSeq:  report.LastSeq,
	}
	if report.Failed != nil {
		result.FailedAt = report.Failed.Seq
	}
	if err != nil {
		_ = formatter.Error(ErrCodeJournal, err.Error(), result)
		if report.Failed != nil {
			return WrapExitError(ExitFailure, "journal replay", err)
		}
		return WrapExitError(ExitCommandError, "journal replay", err)
	}

	return formatter.Success(result, func(w io.Writer) {
		fmt.Fprintf(w, "✓ replayed %d transaction(s) into %s", result.Replayed, result.To)
		if result.Skipped > 0 {
			fmt.Fprintf(w, " (%d uncommitted skipped)", result.Skipped)
		}
		fmt.Fprintln(w)
	})
}
