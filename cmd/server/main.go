package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"libraryhub/internal/config"
)

var (
	// Global flags
	envFile string
	addr    string
	dbPath  string
)

var rootCmd = &cobra.Command{
	Use:   "server",
	Short: "libraryhub - library catalog and circulation API",
	Long: `libraryhub serves a REST API for a library: members borrow and return books,
workers maintain the catalog of authors, categories and books.

Settings come from LIBRARY_* environment variables and an optional .env file;
the flags below override them.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Optional .env file with LIBRARY_* settings")
	rootCmd.PersistentFlags().StringVar(&addr, "addr", "", "HTTP listen address (overrides LIBRARY_ADDR)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database path (overrides LIBRARY_DB_PATH)")
}

// loadConfig applies command-line overrides on top of the environment.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return config.Config{}, err
	}
	if addr != "" {
		cfg.Addr = addr
	}
	if dbPath != "" {
		cfg.DBPath = dbPath
	}
	return cfg, nil
}

func newLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
