package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/spdxstore/internal/ir"
)

// NewNamespaceCommand creates the new-namespace command.
func NewNamespaceCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "new-namespace <base> [name]",
		Short: "Mint a unique document URI",
		Long: `Print a new SPDX document namespace of the form <base>/<name>-<uuid>.

The UUID is version 7, so namespaces minted later sort after earlier ones.
The name defaults to "document".`,
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd)
			name := ""
			if len(args) == 2 {
				name = args[1]
			}
			uri, err := ir.NewDocumentURI(args[0], name)
			if err != nil {
				_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
				return WrapExitError(ExitCommandError, "invalid namespace", err)
			}
			if rootOpts.Format == "json" {
				return formatter.Success(map[string]string{"document_uri": uri})
			}
			return formatter.Success(uri)
		},
	}

	return cmd
}
