package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/catalog/pkg/types"
)

// observationView is one printable ledger row.
type observationView struct {
	Price      string    `json:"price"`
	ObservedAt time.Time `json:"observed_at"`
	Source     string    `json:"source"`
	ProductURL string    `json:"product_url"`
}

func newHistoryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "history <article-number>",
		Short: "Show the price history of a product, oldest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			backend, err := a.attach()
			if err != nil {
				return err
			}
			defer backend.Detach()

			p, err := backend.Products().Get(ctx, args[0])
			if errors.Is(err, types.ErrNotFound) {
				return userError(fmt.Errorf("product %q not found", args[0]))
			}
			if err != nil {
				return sysError(err)
			}
			history, err := backend.Ledger().History(ctx, p.ProductID)
			if err != nil {
				return sysError(err)
			}

			sources := map[string]string{}
			views := make([]observationView, 0, len(history))
			for _, o := range history {
				name, ok := sources[o.SourceID]
				if !ok {
					src, err := backend.Sources().Get(ctx, o.SourceID)
					if err != nil {
						return sysError(err)
					}
					name = src.Name
					sources[o.SourceID] = name
				}
				views = append(views, observationView{
					Price:      o.Price,
					ObservedAt: o.ObservedAt,
					Source:     name,
					ProductURL: o.ProductURL,
				})
			}

			out := cmd.OutOrStdout()
			if a.flags.jsonMode {
				return writeJSON(out, views)
			}
			for _, v := range views {
				fmt.Fprintf(out, "%s  %-10s  %s\n", v.ObservedAt.Format(time.RFC3339), v.Price, v.Source)
			}
			return nil
		},
	}
}
