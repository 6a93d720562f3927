package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/spdxstore/internal/ir"
)

// NextIDOptions holds flags for the next-id command.
type NextIDOptions struct {
	*RootOptions
	Database string
	Document string
	Kind     string
	Count    int
}

// NewNextIDCommand creates the next-id command.
func NewNextIDCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &NextIDOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "next-id",
		Short: "Reserve new object IDs in a document",
		Long: `Generate and reserve IDs of the given kind in a document.

Kinds: SpdxId (SPDXRef-gnrtd<n>), LicenseRef (LicenseRef-gnrtd<n>),
DocumentRef (DocumentRef-gnrtd<n>) and Anonymous (__anon__gnrtd<n>).
Reserved IDs are never handed out again, even if no object is created.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNextID(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	cmd.Flags().StringVar(&opts.Document, "doc", "", "document URI (required)")
	cmd.Flags().StringVar(&opts.Kind, "kind", ir.SpdxID.String(), "ID kind")
	cmd.Flags().IntVarP(&opts.Count, "count", "n", 1, "number of IDs to generate")

	return cmd
}

func runNextID(opts *NextIDOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	if opts.Count < 1 {
		return NewExitError(ExitCommandError, "--count must be at least 1")
	}
	kind, err := ir.ParseIDType(opts.Kind)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --kind", err)
	}

	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())
	defer func() { _ = logger.Sync() }()

	st, err := openDatabase("db", opts.Database, logger)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	ids := make([]string, 0, opts.Count)
	for range opts.Count {
		id, err := st.NextID(kind, opts.Document)
		if err != nil {
			return formatter.StoreError("next-id failed", err)
		}
		ids = append(ids, id)
	}

	if opts.Format == "json" {
		return formatter.Success(map[string]any{"ids": ids})
	}
	for _, id := range ids {
		fmt.Fprintln(formatter.Writer, id)
	}
	return nil
}
