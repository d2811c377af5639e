package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/catalog/pkg/types"
)

// productView is the printable form of a product with its attributes.
type productView struct {
	ProductID     string              `json:"product_id"`
	ArticleNumber string              `json:"article_number"`
	Title         string              `json:"title"`
	ImagePath     string              `json:"image_path"`
	Size          string              `json:"size"`
	MinAge        string              `json:"min_age"`
	Origin        string              `json:"origin,omitempty"`
	Attributes    map[string][]string `json:"attributes"`
	Price         string              `json:"price,omitempty"`
	PriceSince    *time.Time          `json:"price_since,omitempty"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

func newProductCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "product <article-number>",
		Short: "Show a product with its attributes and current price",
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

			view := productView{
				ProductID:     p.ProductID,
				ArticleNumber: p.ArticleNumber,
				Title:         p.Title,
				ImagePath:     p.ImagePath,
				Size:          p.SizeText,
				MinAge:        p.AgeText,
				Attributes:    map[string][]string{},
				UpdatedAt:     p.UpdatedAt,
			}
			if p.OriginID != nil {
				origin, err := backend.Attributes().Get(ctx, *p.OriginID)
				if err != nil {
					return sysError(err)
				}
				view.Origin = origin.Value
			}
			attrs, err := backend.Products().Attributes(ctx, p.ProductID)
			if err != nil {
				return sysError(err)
			}
			for _, attr := range attrs {
				view.Attributes[attr.Category] = append(view.Attributes[attr.Category], attr.Value)
			}
			latest, err := backend.Ledger().Latest(ctx, p.ProductID)
			switch {
			case err == nil:
				view.Price = latest.Price
				view.PriceSince = &latest.ObservedAt
			case !errors.Is(err, types.ErrNotFound):
				return sysError(err)
			}

			out := cmd.OutOrStdout()
			if a.flags.jsonMode {
				return writeJSON(out, view)
			}
			fmt.Fprintf(out, "%s  %s\n", view.ArticleNumber, view.Title)
			fmt.Fprintf(out, "  size:    %s\n", view.Size)
			fmt.Fprintf(out, "  min age: %s\n", view.MinAge)
			if view.Origin != "" {
				fmt.Fprintf(out, "  origin:  %s\n", view.Origin)
			}
			for _, category := range []string{types.CategoryMaterial, types.CategoryFilling, types.CategoryCare, types.CategoryCertification} {
				if values := view.Attributes[category]; len(values) > 0 {
					fmt.Fprintf(out, "  %s: %v\n", category, values)
				}
			}
			if view.Price != "" {
				fmt.Fprintf(out, "  price:   %s (since %s)\n", view.Price, view.PriceSince.Format(time.RFC3339))
			}
			return nil
		},
	}
}
