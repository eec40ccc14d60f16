package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/patomic/internal/source"
)

// TransactOptions holds flags for the transact command.
type TransactOptions struct {
	*RootOptions
	Database string
	Pretty   bool
	DryRun   bool
}

// TransactResult is the JSON payload of transact.
type TransactResult struct {
	Source   string `json:"source"`
	Database string `json:"database,omitempty"`
	DryRun   bool   `json:"dry_run,omitempty"`
	Body     string `json:"body,omitempty"`
	Response string `json:"response,omitempty"`
}

// NewTransactCommand creates the transact command.
func NewTransactCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TransactOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "transact <file.edn | s3://bucket/key.edn>",
		Short: "Submit an EDN transaction body",
		Long: `Load a transaction body from a local file or object storage and
submit it to the selected database. With --dry-run the body is parsed and
printed but not submitted.

Examples:
  patomic transact schema.edn --database seattle
  patomic transact s3://schemas/seattle/data.edn --dry-run --pretty`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTransact(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "database", "", "database to transact against (default from config)")
	cmd.Flags().BoolVar(&opts.Pretty, "pretty", false, "print the body in documentation layout")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "validate and print the body without submitting it")

	return cmd
}

func runTransact(opts *TransactOptions, location string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	ctx := commandContext(cmd)

	body, err := source.NewOpener(opts.Config.Source()).Open(ctx, location)
	if err != nil {
		return formatter.Fail("transact", err)
	}
	if err := body.Validate(); err != nil {
		_ = formatter.Error(ErrCodeInvalidEDN, err.Error(), nil)
		return WrapExitError(ExitFailure, "transact", err)
	}

	text := body.String()
	if opts.Pretty {
		text = body.Pretty()
	}

	if opts.DryRun {
		opts.Log.Infow("dry run", "source", body.Source())
		return formatter.Success(TransactResult{Source: body.Source(), DryRun: true, Body: text}, func(w io.Writer) {
			fmt.Fprint(w, text)
			if !opts.Pretty {
				fmt.Fprintln(w)
			}
		})
	}

	client, closeFn, err := opts.newClient(opts.Database)
	if err != nil {
		return formatter.Fail("transact", err)
	}
	defer closeFn()

	report, err := client.Transact(ctx, body)
	if err != nil {
		return formatter.Fail("transact", err)
	}
	response := report.Raw
	return formatter.Success(TransactResult{Source: body.Source(), Database: report.Database, Response: response}, func(w io.Writer) {
		fmt.Fprintf(w, "✓ transacted %s into %s\n", body.Source(), report.Database)
		if opts.Verbose {
			fmt.Fprintln(w, response)
		}
	})
}
