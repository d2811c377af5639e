package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/catalog/internal/catalog"
	"github.com/mesh-intelligence/catalog/internal/normalize"
	"github.com/mesh-intelligence/catalog/internal/source"
)

func newSyncCmd(a *app) *cobra.Command {
	var pageSize int
	cmd := &cobra.Command{
		Use:   "sync <records.jsonl>",
		Short: "Apply scraped records to the catalog",
		Long: "Read product records, one JSON object per line (\"-\" for stdin), and\n" +
			"sync them page by page. Failed records are logged and skipped.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			size := a.config.Sync.EffectivePageSize()
			if pageSize > 0 {
				size = pageSize
			}

			var (
				pager *source.JSONLPager
				err   error
			)
			if args[0] == "-" {
				pager, err = source.ReadJSONL(cmd.InOrStdin(), size, a.logger)
			} else {
				pager, err = source.OpenJSONL(args[0], size, a.logger)
			}
			if err != nil {
				return userError(err)
			}

			backend, err := a.attach()
			if err != nil {
				return err
			}
			defer backend.Detach()

			engine := catalog.New(backend.Products(), backend.Ledger(), a.config.Sync,
				catalog.WithLogger(a.logger),
				catalog.WithVocabulary(normalize.NewVocabulary(a.config.Vocabulary)),
			)
			report, err := engine.Run(cmd.Context(), pager)
			if err != nil {
				return sysError(fmt.Errorf("sync interrupted after %d records: %w", report.Seen, err))
			}

			out := cmd.OutOrStdout()
			if a.flags.jsonMode {
				return writeJSON(out, report)
			}
			fmt.Fprintf(out, "pages %d, records %d: %d created, %d updated, %d price changes, %d skipped, %d failed\n",
				report.Pages, report.Seen, report.Created, report.Updated, report.PriceChanges, report.Skipped, report.Failed)
			if pager.Skipped() > 0 {
				fmt.Fprintf(out, "%d malformed lines ignored\n", pager.Skipped())
			}
			if report.PageError != "" {
				fmt.Fprintln(out, "listing ended early:", report.PageError)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&pageSize, "page-size", 0, "records per page (default: sync.page_size from config)")
	return cmd
}
