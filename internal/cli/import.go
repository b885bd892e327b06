package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"storefront-backend/internal/importer"
)

func NewImportCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import-products <file>",
		Short: "Import catalog products from a CSV or YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}

			st, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer closeStore(cmd.ErrOrStderr(), st)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Environment: %s\nStore: %s\nReading products from: %s\n\n",
				cfg.Environment, cfg.Store.Driver, args[0])

			res, err := importer.New(st.Products()).ImportFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			rule := strings.Repeat("=", 60)
			fmt.Fprintf(out, "%s\nImport Summary\n%s\n", rule, rule)
			fmt.Fprintf(out, "Successfully imported: %d products\n", res.Imported)
			if len(res.Errors) > 0 {
				fmt.Fprintf(out, "Errors: %d\n", len(res.Errors))
				for _, e := range res.Errors {
					fmt.Fprintf(out, "  - %s\n", e)
				}
			}
			fmt.Fprintln(out, rule)

			if res.Imported == 0 {
				return fmt.Errorf("no products were imported")
			}
			return nil
		},
	}
}

type closer interface {
	Close(ctx context.Context) error
}

// closeStore closes st and reports a failure on w.
func closeStore(w io.Writer, st closer) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := st.Close(ctx); err != nil {
		fmt.Fprintf(w, "close store: %v\n", err)
	}
}
