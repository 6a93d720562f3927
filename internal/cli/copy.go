package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/spdxstore/internal/ir"
	"github.com/roach88/spdxstore/internal/store"
	"github.com/roach88/spdxstore/internal/store/sqlstore"
)

// CopyOptions holds flags for the copy command.
type CopyOptions struct {
	*RootOptions
	From         string
	To           string
	Document     string
	ID           string // empty copies the whole document
	Type         string // empty uses the source object's type
	Recursive    bool
	SameDocument bool
	Concurrency  int
}

// CopyResult lists what a copy wrote.
type CopyResult struct {
	Copied []ir.ObjectKey `json:"copied"`
}

// NewCopyCommand creates the copy command.
func NewCopyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CopyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "copy",
		Short: "Copy objects between SQLite stores",
		Long: `Copy one object, its reference graph, or a whole document from one
SQLite store into another, keeping document URIs and IDs unchanged.

Properties present in the source overwrite the destination's; properties
only the destination has are kept. The destination file is created if it
does not exist.

Examples:
  spdxstore copy --from a.db --to b.db --doc https://example/doc --id SPDXRef-1
  spdxstore copy --from a.db --to b.db --doc https://example/doc --id SPDXRef-1 --recursive
  spdxstore copy --from a.db --to b.db --doc https://example/doc`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCopy(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.From, "from", "", "source SQLite database (required)")
	cmd.Flags().StringVar(&opts.To, "to", "", "destination SQLite database (required)")
	cmd.Flags().StringVar(&opts.Document, "doc", "", "document URI (required)")
	cmd.Flags().StringVar(&opts.ID, "id", "", "object ID; omit to copy the whole document")
	cmd.Flags().StringVar(&opts.Type, "type", "", "expected object type (defaults to the source type)")
	cmd.Flags().BoolVar(&opts.Recursive, "recursive", false, "also copy every referenced object")
	cmd.Flags().BoolVar(&opts.SameDocument, "same-document", false, "with --recursive, only follow references within --doc")
	cmd.Flags().IntVar(&opts.Concurrency, "concurrency", store.DefaultCopyConcurrency, "parallel object copies")

	return cmd
}

func runCopy(opts *CopyOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	if opts.To == "" {
		return NewExitError(ExitCommandError, "--to is required")
	}
	if opts.Document == "" {
		return NewExitError(ExitCommandError, "--doc is required")
	}
	if opts.ID == "" && (opts.Type != "" || opts.Recursive) {
		return NewExitError(ExitCommandError, "--type and --recursive require --id")
	}

	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())
	defer func() { _ = logger.Sync() }()

	src, err := openDatabase("from", opts.From, logger.Named("src"))
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open source database", err)
	}
	defer src.Close()

	dst, err := sqlstore.Open(opts.To, sqlstore.WithLogger(logger.Named("dst")))
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open destination database", err)
	}
	defer dst.Close()

	copyOpts := store.CopyOptions{
		Concurrency:  opts.Concurrency,
		SameDocument: opts.SameDocument,
		Logger:       logger,
	}

	var result CopyResult
	switch {
	case opts.ID == "":
		n, err := store.CopyDocument(cmd.Context(), dst, src, opts.Document, copyOpts)
		if err != nil {
			return formatter.StoreError("copy failed", err)
		}
		result.Copied, err = documentKeys(src, opts.Document)
		if err != nil {
			return formatter.StoreError("copy failed", err)
		}
		formatter.VerboseLog("Copied %d object(s) of %s", n, opts.Document)

	default:
		typ := opts.Type
		if typ == "" {
			typ, err = src.Type(opts.Document, opts.ID)
			if err != nil {
				return formatter.StoreError("copy failed", err)
			}
		}
		if opts.Recursive {
			result.Copied, err = store.CopyGraph(cmd.Context(), dst, src, opts.Document, opts.ID, typ, copyOpts)
		} else {
			err = dst.CopyFrom(opts.Document, opts.ID, typ, src)
			result.Copied = []ir.ObjectKey{{DocumentURI: opts.Document, ID: opts.ID}}
		}
		if err != nil {
			return formatter.StoreError("copy failed", err)
		}
	}

	if opts.Format == "json" {
		return formatter.Success(result)
	}
	for _, key := range result.Copied {
		fmt.Fprintf(formatter.Writer, "copied %s\n", key)
	}
	return nil
}

func documentKeys(st store.Lister, documentURI string) ([]ir.ObjectKey, error) {
	ids, err := st.ObjectIDs(documentURI)
	if err != nil {
		return nil, err
	}
	keys := make([]ir.ObjectKey, len(ids))
	for i, id := range ids {
		keys[i] = ir.ObjectKey{DocumentURI: documentURI, ID: id}
	}
	return keys, nil
}
