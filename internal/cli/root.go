package cli

import (
	"context"
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/roach88/patomic/internal/config"
	"github.com/roach88/patomic/internal/datomic"
	"github.com/roach88/patomic/internal/store"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string

	// Resolved by the root command before any subcommand runs.
	Config *config.Config
	Log    *zap.SugaredLogger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the patomic CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "patomic",
		Short: "patomic - build and submit Datomic transactions and queries",
		Long: `A toolkit for Datomic's REST API: render schema from CUE,
submit EDN transactions, run datalog queries and keep a local journal.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return opts.resolve(cmd.ErrOrStderr())
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.Log != nil {
				_ = opts.Log.Sync()
			}
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "config file (default: ./patomic.yaml or ~/.config/patomic/patomic.yaml)")

	cmd.AddCommand(NewRenderCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewDBCommand(opts))
	cmd.AddCommand(NewTransactCommand(opts))
	cmd.AddCommand(NewQueryCommand(opts))
	cmd.AddCommand(NewJournalCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// resolve loads the configuration and builds the logger.
func (o *RootOptions) resolve(errOut io.Writer) error {
	v := config.New()
	if err := config.Read(v, o.ConfigPath); err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}
	cfg, err := config.Load(v)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}
	o.Config = cfg
	o.Log = newLogger(errOut, o.Verbose)
	return nil
}

// newLogger writes development-style console logs to w when verbose is
// set and discards everything otherwise.
func newLogger(w io.Writer, verbose bool) *zap.SugaredLogger {
	if !verbose {
		return zap.NewNop().Sugar()
	}
	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), zapcore.AddSync(w), zapcore.DebugLevel)
	return zap.New(core).Sugar().Named("patomic")
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // verbose logs go to stderr to avoid corrupting JSON
		Verbose:   o.Verbose,
	}
}

// openJournal opens the configured journal. It returns nil when no
// journal path is configured.
func (o *RootOptions) openJournal() (*store.Store, error) {
	if o.Config.Journal == "" {
		return nil, nil
	}
	j, err := store.Open(o.Config.Journal, store.WithLogger(o.Log.Named("journal")))
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open journal", err)
	}
	return j, nil
}

// requireJournal is openJournal for commands that cannot run without one.
func (o *RootOptions) requireJournal() (*store.Store, error) {
	if o.Config.Journal == "" {
		return nil, NewExitError(ExitCommandError, "no journal configured: set journal in patomic.yaml or PATOMIC_JOURNAL")
	}
	return o.openJournal()
}

// newClient builds a client from the configuration. database overrides
// the configured database when non-empty. The returned close func
// releases the journal, if one was opened.
func (o *RootOptions) newClient(database string) (*datomic.Client, func(), error) {
	j, err := o.openJournal()
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {}
	if j != nil {
		closeFn = func() {
			if err := j.Close(); err != nil {
				o.Log.Warnw("closing journal", "error", err)
			}
		}
	}
	c, err := o.clientFor(database, j)
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	return c, closeFn, nil
}

// clientFor builds a client that records into j when j is non-nil.
func (o *RootOptions) clientFor(database string, j *store.Store) (*datomic.Client, error) {
	clientOpts := []datomic.Option{datomic.WithLogger(o.Log.Named("client"))}
	if j != nil {
		clientOpts = append(clientOpts, datomic.WithJournal(j))
	}
	c, err := datomic.New(o.Config.Datomic(), clientOpts...)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid client configuration", err)
	}
	if database == "" {
		database = o.Config.Database
	}
	if database != "" {
		if err := c.SetDatabase(database); err != nil {
			return nil, WrapExitError(ExitCommandError, "invalid database", err)
		}
	}
	return c, nil
}

// commandContext returns the command's context, or Background when the
// command was executed without one.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
