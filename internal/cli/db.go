package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// DBCreateResult is the JSON payload of db create.
type DBCreateResult struct {
	Database string `json:"database"`
	Created  bool   `json:"created"`
}

// DBListResult is the JSON payload of db list.
type DBListResult struct {
	Alias     string   `json:"alias"`
	Databases []string `json:"databases"`
}

// NewDBCommand creates the db command group.
func NewDBCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Create and list databases under the configured alias",
	}

	createCmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a database",
		Long: `Create a database under the configured storage alias. Creating a
database that already exists is not an error.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDBCreate(rootOpts, args[0], cmd)
		},
	}

	listCmd := &cobra.Command{
		Use:           "list",
		Short:         "List databases",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDBList(rootOpts, cmd)
		},
	}

	cmd.AddCommand(createCmd, listCmd)
	return cmd
}

func runDBCreate(opts *RootOptions, name string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	client, closeFn, err := opts.newClient("")
	if err != nil {
		return formatter.Fail("db create", err)
	}
	defer closeFn()

	created, err := client.CreateDatabase(commandContext(cmd), name)
	if err != nil {
		return formatter.Fail("db create", err)
	}
	return formatter.Success(DBCreateResult{Database: name, Created: created}, func(w io.Writer) {
		if created {
			fmt.Fprintf(w, "✓ created %s\n", name)
			return
		}
		fmt.Fprintf(w, "✓ %s already exists\n", name)
	})
}

func runDBList(opts *RootOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	client, closeFn, err := opts.newClient("")
	if err != nil {
		return formatter.Fail("db list", err)
	}
	defer closeFn()

	names, err := client.DatabaseNames(commandContext(cmd))
	if err != nil {
		return formatter.Fail("db list", err)
	}
	return formatter.Success(DBListResult{Alias: client.Config().Alias, Databases: names}, func(w io.Writer) {
		for _, n := range names {
			fmt.Fprintln(w, n)
		}
	})
}
