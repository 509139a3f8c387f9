package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/civiclens/grievance-analyzer/internal/aggregate"
)

// Merges the three pre-cleaned datasets into one (state, year-month)
// summary table with governance attributes left-joined on state.
func main() {
	var (
		complaintsPath = flag.String("complaints", "", "cleaned consumer complaints CSV (required)")
		postsPath      = flag.String("posts", "", "cleaned social-media posts CSV (required)")
		govPath        = flag.String("governance", "", "governance reference CSV (required)")
		out            = flag.String("out", "merged_summary.csv", "output CSV path")
		dateCol        = flag.String("date-col", "date_received", "complaint received-date column")
		postDateCol    = flag.String("post-date-col", "tweet_date", "post date column")
		stateCol       = flag.String("state-col", "state", "state column in both count tables")
	)
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if *complaintsPath == "" || *postsPath == "" || *govPath == "" {
		fmt.Fprintln(os.Stderr, "Error: --complaints, --posts and --governance are required")
		os.Exit(1)
	}

	complaints, err := loadCounts(*complaintsPath, *dateCol, *stateCol)
	if err != nil {
		logger.Error("load complaints", "path", *complaintsPath, "error", err)
		os.Exit(1)
	}
	posts, err := loadCounts(*postsPath, *postDateCol, *stateCol)
	if err != nil {
		logger.Error("load posts", "path", *postsPath, "error", err)
		os.Exit(1)
	}

	govFile, err := os.Open(*govPath)
	if err != nil {
		logger.Error("open governance", "path", *govPath, "error", err)
		os.Exit(1)
	}
	gov, err := aggregate.LoadGovernance(govFile)
	_ = govFile.Close()
	if err != nil {
		logger.Error("load governance", "path", *govPath, "error", err)
		os.Exit(1)
	}

	rows := aggregate.Merge(complaints, posts, gov)

	outFile, err := os.Create(*out)
	if err != nil {
		logger.Error("create output", "path", *out, "error", err)
		os.Exit(1)
	}
	if err := aggregate.WriteCSV(outFile, gov, rows); err != nil {
		_ = outFile.Close()
		logger.Error("write output", "path", *out, "error", err)
		os.Exit(1)
	}
	if err := outFile.Close(); err != nil {
		logger.Error("close output", "path", *out, "error", err)
		os.Exit(1)
	}

	logger.Info("merge complete", "rows", len(rows), "output", *out)
	fmt.Printf("Merged summary saved at: %s (%d rows)\n", *out, len(rows))
}

func loadCounts(path, dateCol, stateCol string) (map[aggregate.Key]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return aggregate.LoadCounts(f, dateCol, stateCol)
}
