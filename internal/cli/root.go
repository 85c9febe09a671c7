// Package cli implements the valuecards CLI commands.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"valuecards/internal/store"
)

var (
	dbPath  string
	verbose bool
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "valuecards",
	Short: "Guided values card-sorting exercise",
	Long:  "A self-hosted web app for the values card exercise: sort a deck of values, pick your core few, and share a personalized summary. SQLite-backed, single binary.",
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Database path (default: $VALUECARDS_DB or ./valuecards.db)")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

func getDBPath() string {
	if dbPath != "" {
		return dbPath
	}
	if env := os.Getenv("VALUECARDS_DB"); env != "" {
		return env
	}
	return "valuecards.db"
}

func openStore() (*store.SQLiteStore, error) {
	return store.NewSQLiteStore(getDBPath())
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
