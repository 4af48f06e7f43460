package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/madetoorder/storefront/storefront"
)

var inspectSearch string

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Load the catalog once and print categories with product counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		db, err := openDB(cfg, logger)
		if err != nil {
			return err
		}

		session := storefront.Open(cmd.Context(), storefront.RemotesFromDB(db, logger), storefront.Options{
			Logger:  logger,
			Timeout: cfg.RemoteTimeout,
		})
		for _, st := range []interface {
			Name() string
			Err() string
		}{session.Categories, session.Products} {
			if msg := st.Err(); msg != "" {
				return fmt.Errorf("load %s: %s", st.Name(), msg)
			}
		}

		out := map[string]any{
			"categories":    session.Catalog.CategoriesWithCounts(),
			"uncategorized": session.Catalog.Uncategorized(),
		}
		if inspectSearch != "" {
			out["search"] = session.Catalog.SearchProducts(inspectSearch)
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

func init() {
	inspectCmd.Flags().StringVar(&inspectSearch, "search", "", "Also print products matching this term")
}
