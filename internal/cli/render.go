package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/patomic/internal/tx"
)

// RenderOptions holds flags for the render command.
type RenderOptions struct {
	*RootOptions
	Pretty bool
}

// RenderResult is the JSON payload of render schema.
type RenderResult struct {
	Attributes int    `json:"attributes"`
	Files      int    `json:"files"`
	EDN        string `json:"edn"`
}

// NewRenderCommand creates the render command.
func NewRenderCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RenderOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render EDN from other sources",
	}

	schemaCmd := &cobra.Command{
		Use:   "schema <cue-dir>",
		Short: "Render a CUE schema as an EDN transaction",
		Long: `Compile the attributes struct of a CUE package into attribute
definitions and print them as one transaction body.

Examples:
  patomic render schema ./schema
  patomic render schema ./schema --pretty > schema.edn`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRenderSchema(opts, args[0], cmd)
		},
	}
	schemaCmd.Flags().BoolVar(&opts.Pretty, "pretty", false, "render in documentation layout")

	cmd.AddCommand(schemaCmd)
	return cmd
}

func runRenderSchema(opts *RenderOptions, dir string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	loadResult, loadErrors := LoadSchema(dir, LoadModeFailFast)
	if len(loadErrors) > 0 {
		code, message := ErrCodeGeneric, loadErrors[0].Error()
		var loadErr *LoadError
		if errors.As(loadErrors[0], &loadErr) {
			code, message = loadErr.Code, loadErr.Error()
		}
		if err := formatter.Error(code, message, nil); err != nil {
			return err
		}
		if loadResult == nil {
			return NewExitError(ExitCommandError, message)
		}
		return NewExitError(ExitFailure, message)
	}
	formatter.VerboseLog("Compiled %d attribute(s) from %d CUE file(s) in %s", len(loadResult.Attributes), loadResult.FileCount, dir)

	body := tx.New()
	for _, attr := range loadResult.Attributes {
		body.Append(attr)
	}
	if err := body.Err(); err != nil {
		return formatter.Fail("render schema", err)
	}

	out := body.String()
	if opts.Pretty {
		out = body.Pretty()
	}
	return formatter.Success(RenderResult{
		Attributes: len(loadResult.Attributes),
		Files:      loadResult.FileCount,
		EDN:        out,
	}, func(w io.Writer) {
		if opts.Pretty {
			fmt.Fprint(w, out)
			return
		}
		fmt.Fprintln(w, out)
	})
}
