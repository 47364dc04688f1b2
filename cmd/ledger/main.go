package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/blackmichael/skybridge/internal/domain"
	"github.com/blackmichael/skybridge/internal/sqlite"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		dbPath   string
		sourceID string
		limit    int
	)

	flag.StringVar(&dbPath, "db", envOrDefault("LEDGER_DB_PATH", "skybridge.db"), "Path to the ledger database")
	flag.StringVar(&sourceID, "id", "", "Look up a single source status ID instead of listing")
	flag.IntVar(&limit, "limit", 20, "Number of recent entries to list")
	flag.Parse()

	ledger, err := sqlite.Open(dbPath)
	if err != nil {
		return err
	}
	defer ledger.Close()

	ctx := context.Background()

	if sourceID != "" {
		return lookup(ctx, ledger, sourceID)
	}

	rows, err := ledger.Recent(ctx, limit)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Println("ledger is empty")
		return nil
	}

	for _, row := range rows {
		if row.Failed {
			fmt.Printf("%s  %s  FAILED\n", row.CreatedAt, row.SourceID)
			continue
		}
		fmt.Printf("%s  %s  %s\n", row.CreatedAt, row.SourceID, row.PostURI)
	}
	return nil
}

func lookup(ctx context.Context, ledger *sqlite.Ledger, sourceID string) error {
	entry, err := ledger.Resolve(ctx, sourceID)
	if errors.Is(err, domain.ErrNotFound) {
		fmt.Printf("%s: not processed\n", sourceID)
		return nil
	}
	if err != nil {
		return err
	}
	if entry == nil {
		fmt.Printf("%s: cross-post attempted and failed\n", sourceID)
		return nil
	}

	fmt.Printf("post: %s (%s)\n", entry.Post.URI, entry.Post.CID)
	if entry.Root != nil {
		fmt.Printf("root: %s (%s)\n", entry.Root.URI, entry.Root.CID)
	} else {
		fmt.Println("root: (thread root)")
	}
	return nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
