package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"bitbucket.org/zeatech/resto_backend/config"
	"bitbucket.org/zeatech/resto_backend/workflow"
	"github.com/sirupsen/logrus"
)

// Recomputes every stock item quantity for one restaurant from the movement,
// purchase and sale rows, and rewrites items that drifted. Run with --dry-run
// first to see what would change.
func main() {
	restaurantID := flag.String("restaurant-id", "", "Required: restaurant id (uuid)")
	dryRun := flag.Bool("dry-run", false, "Report drift without rewriting quantities")
	flag.Parse()

	if strings.TrimSpace(*restaurantID) == "" {
		fmt.Fprintln(os.Stderr, "--restaurant-id is required")
		os.Exit(1)
	}

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized")
		os.Exit(1)
	}
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	tx := db.Begin()
	if tx.Error != nil {
		fmt.Fprintf(os.Stderr, "begin: %v\n", tx.Error)
		os.Exit(1)
	}

	fixed, err := workflow.RebuildStockQuantities(tx, logger, strings.TrimSpace(*restaurantID))
	if err != nil {
		tx.Rollback()
		fmt.Fprintf(os.Stderr, "rebuild failed: %v\n", err)
		os.Exit(1)
	}

	if *dryRun {
		tx.Rollback()
		fmt.Printf("dry run: %d item(s) would be corrected\n", fixed)
		return
	}

	if err := tx.Commit().Error; err != nil {
		fmt.Fprintf(os.Stderr, "commit: %v\n", err)
		os.Exit(1)
	}
	if err := config.RemoveRedisKey("InventoryValuation:" + strings.TrimSpace(*restaurantID)); err != nil {
		logger.WithError(err).Warn("could not invalidate valuation cache")
	}
	fmt.Printf("rebuild complete: %d item(s) corrected\n", fixed)
}
