package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"printcalc/internal/config"
	"printcalc/internal/database"

	"github.com/rs/zerolog"
)

// Loads catalog.yaml into the sqlite store without starting the bot.
// With -check the file is only validated.
func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	var (
		catalogPath = flag.String("catalog", "configs/catalog.yaml", "path to catalog.yaml")
		dbPath      = flag.String("db", "./data/printcalc.db", "path to sqlite db")
		checkOnly   = flag.Bool("check", false, "validate the catalog and exit")
	)
	flag.Parse()

	catalog, err := config.LoadCatalog(*catalogPath)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	if len(catalog.Products) == 0 {
		return fmt.Errorf("no products in %s", *catalogPath)
	}

	ranges := 0
	for _, p := range catalog.Products {
		ranges += len(p.PriceRanges)
	}
	if *checkOnly {
		fmt.Printf("Catalog OK: products=%d ranges=%d materials=%d modifiers=%d\n",
			len(catalog.Products), ranges, len(catalog.Materials), len(catalog.Modifiers))
		return nil
	}

	db, err := database.NewDB(*dbPath, &logger)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.SyncCatalog(ctx, catalog); err != nil {
		return fmt.Errorf("sync catalog: %w", err)
	}

	fmt.Printf("Catalog synced: products=%d ranges=%d materials=%d modifiers=%d\n",
		len(catalog.Products), ranges, len(catalog.Materials), len(catalog.Modifiers))
	return nil
}
