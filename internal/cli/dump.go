package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/spdxstore/internal/ir"
	"github.com/roach88/spdxstore/internal/store"
)

// DumpOptions holds flags for the dump command.
type DumpOptions struct {
	*RootOptions
	Database string
	Document string // empty dumps every document
}

// NewDumpCommand creates the dump command.
func NewDumpCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DumpOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Print the objects in a store",
		Long: `Print every object in a SQLite store, or every object of one document.

Documents and objects are printed in sorted order. With --format json the
output is a list of object snapshots.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDump(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	cmd.Flags().StringVar(&opts.Document, "doc", "", "dump only this document URI")

	return cmd
}

func runDump(opts *DumpOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())
	defer func() { _ = logger.Sync() }()

	st, err := openDatabase("db", opts.Database, logger)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	objects, err := collectObjects(st, opts.Document)
	if err != nil {
		return formatter.StoreError("dump failed", err)
	}
	formatter.VerboseLog("Read %d object(s)", len(objects))

	if opts.Format == "json" {
		plain := make([]map[string]any, len(objects))
		for i, obj := range objects {
			plain[i] = obj.Plain()
		}
		return formatter.Success(map[string]any{"objects": plain})
	}
	for _, obj := range objects {
		if err := writeObject(formatter.Writer, obj); err != nil {
			return err
		}
	}
	return nil
}

// collectObjects snapshots every object of a document, or of every document
// when documentURI is empty.
func collectObjects(st interface {
	store.ModelStore
	store.Lister
}, documentURI string) ([]ir.Object, error) {
	docs := []string{documentURI}
	if documentURI == "" {
		var err error
		docs, err = st.DocumentURIs()
		if err != nil {
			return nil, err
		}
	}

	var objects []ir.Object
	for _, doc := range docs {
		ids, err := st.ObjectIDs(doc)
		if err != nil {
			return nil, err
		}
		for _, id := range ids {
			obj, err := store.ReadObject(st, doc, id)
			if err != nil {
				return nil, err
			}
			objects = append(objects, obj)
		}
	}
	return objects, nil
}

// writeObject prints one object: its key and type, then one line per
// property with the value rendered as canonical JSON.
func writeObject(w io.Writer, obj ir.Object) error {
	fmt.Fprintf(w, "%s (%s)\n", obj.Key(), obj.Type)
	for _, name := range ir.SortedKeys(obj.Values) {
		data, err := ir.MarshalCanonical(ir.Plain(obj.Values[name]))
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "  %s = %s\n", name, data)
	}
	for _, name := range ir.SortedKeys(obj.Lists) {
		data, err := ir.MarshalCanonical(ir.PlainList(obj.Lists[name]))
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "  %s[] = %s\n", name, data)
	}
	return nil
}
