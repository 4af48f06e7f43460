package commands

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
)

type seedCategory struct {
	name        string
	description string
	products    []seedProduct
}

type seedProduct struct {
	name         string
	description  string
	price        string
	stock        int
	customizable bool
}

var seedData = []seedCategory{
	{
		name:        "Mugs",
		description: "Ceramic mugs printed to order",
		products: []seedProduct{
			{"Classic Mug", "11oz white ceramic mug with a custom print", "12.50", 40, true},
			{"Travel Mug", "Insulated steel mug with engraved lid", "24.00", 15, true},
		},
	},
	{
		name:        "T-Shirts",
		description: "Cotton tees with your design",
		products: []seedProduct{
			{"Crew Neck Tee", "Organic cotton crew neck", "19.99", 120, true},
			{"Plain Tee", "Blank tee in assorted colours", "9.99", 300, false},
		},
	},
	{
		name:        "Posters",
		description: "Archival prints in standard sizes",
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert sample categories and products",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}

		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer db.Close()

		n, err := seed(cmd.Context(), db)
		if err != nil {
			return err
		}
		logger.Info("seed complete", "categories", len(seedData), "products", n)
		return nil
	},
}

func seed(ctx context.Context, db *sql.DB) (int, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	products := 0
	for _, c := range seedData {
		var categoryID int64
		err := tx.QueryRowContext(ctx,
			`INSERT INTO categories (name, description, image_url) VALUES ($1, $2, '') RETURNING id`,
			c.name, c.description,
		).Scan(&categoryID)
		if err != nil {
			return 0, fmt.Errorf("insert category %q: %w", c.name, err)
		}
		for _, p := range c.products {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO products (name, description, price, stock, category_id, is_active, is_customizable, image_url)
				 VALUES ($1, $2, $3, $4, $5, TRUE, $6, '')`,
				p.name, p.description, p.price, p.stock, categoryID, p.customizable,
			)
			if err != nil {
				return 0, fmt.Errorf("insert product %q: %w", p.name, err)
			}
			products++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return products, nil
}
