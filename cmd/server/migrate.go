package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"libraryhub/pkg/database"
)

var seedFile string

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		db, err := database.Open(cfg.DBPath)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := database.Migrate(db); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Migrated %s\n", cfg.DBPath)
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load authors, categories and books from a JSON file",
	Long: `Load a catalog document into the database. Existing authors and categories are
reused by name and books whose ISBN is already present are skipped, so seeding twice is safe.

Examples:
  server seed --file ./data/catalog.json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		seed, err := database.LoadCatalogFromJSON(seedFile)
		if err != nil {
			return err
		}
		db, err := database.Open(cfg.DBPath)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := database.Migrate(db); err != nil {
			return err
		}
		n, err := database.SeedCatalog(db, seed)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d books into %s\n", n, cfg.DBPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd, seedCmd)

	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "./data/catalog.json", "Catalog JSON file")
}
