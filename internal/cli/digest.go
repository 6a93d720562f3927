package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/spdxstore/internal/ir"
	"github.com/roach88/spdxstore/internal/store"
)

// DigestOptions holds flags for the digest command.
type DigestOptions struct {
	*RootOptions
	Database string
	Document string
	ID       string
}

// DigestResult is the digest of one object.
type DigestResult struct {
	Key    ir.ObjectKey `json:"key"`
	Type   string       `json:"type"`
	Digest string       `json:"digest"`
}

// NewDigestCommand creates the digest command.
func NewDigestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DigestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "digest",
		Short: "Print content digests of objects",
		Long: `Print the SHA-256 content digest of an object, or of every object in a
document when --id is omitted.

Two objects have the same digest exactly when they have the same key, type
and property contents, so digests can be compared across stores to verify
a copy.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDigest(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	cmd.Flags().StringVar(&opts.Document, "doc", "", "document URI (required)")
	cmd.Flags().StringVar(&opts.ID, "id", "", "object ID; omit for every object in the document")

	return cmd
}

func runDigest(opts *DigestOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	if opts.Document == "" {
		return NewExitError(ExitCommandError, "--doc is required")
	}

	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())
	defer func() { _ = logger.Sync() }()

	st, err := openDatabase("db", opts.Database, logger)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	var objects []ir.Object
	if opts.ID == "" {
		objects, err = collectObjects(st, opts.Document)
	} else {
		var obj ir.Object
		obj, err = store.ReadObject(st, opts.Document, opts.ID)
		objects = []ir.Object{obj}
	}
	if err != nil {
		return formatter.StoreError("digest failed", err)
	}

	results := make([]DigestResult, len(objects))
	for i, obj := range objects {
		digest, err := ir.DigestObject(obj)
		if err != nil {
			return WrapExitError(ExitCommandError, "digest failed", err)
		}
		results[i] = DigestResult{Key: obj.Key(), Type: obj.Type, Digest: digest}
	}

	if opts.Format == "json" {
		return formatter.Success(map[string]any{"digests": results})
	}
	for _, r := range results {
		fmt.Fprintf(formatter.Writer, "%s  %s\n", r.Digest, r.Key)
	}
	return nil
}
