package ingest

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/civiclens/grievance-analyzer/constants"
	"github.com/civiclens/grievance-analyzer/internal/pipeline"
)

// DirStats summarizes a directory scan.
type DirStats struct {
	Scanned uint32
	Matched uint32
	Loaded  uint32
	Failed  uint32
}

// Options controls the scan. IncludeUnknown loads files outside the
// accepted extensions too, so the pipeline surfaces them as
// UnsupportedFormat instead of this layer silently dropping them.
type Options struct {
	SkipHidden     bool
	IncludeUnknown bool
}

// LoadDirectory walks root in lexical order and loads matching files into
// artifacts. Per-file read errors are counted, not fatal.
func LoadDirectory(root string, opts Options, logger *slog.Logger) ([]pipeline.Artifact, DirStats, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, errors.New("root path is required")
	}

	var artifacts []pipeline.Artifact
	var stats DirStats

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		stats.Scanned++
		if walkErr != nil {
			logger.Warn("ingest.walk_error", "path", path, "error", walkErr)
			stats.Failed++
			return nil // continue walking
		}
		if opts.SkipHidden && isHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		ext := constants.NormalizeExt(filepath.Ext(path))
		format := constants.MapExtToFormat(ext)
		if format == "" && !opts.IncludeUnknown {
			return nil
		}
		stats.Matched++

		data, err := os.ReadFile(path)
		if err != nil {
			logger.Warn("ingest.read_error", "path", path, "error", err)
			stats.Failed++
			return nil
		}

		artifacts = append(artifacts, pipeline.Artifact{
			Name:   filepath.Base(path),
			Data:   data,
			Format: format,
		})
		stats.Loaded++
		return nil
	})
	if err != nil {
		return artifacts, stats, fmt.Errorf("walk: %w", err)
	}

	logger.Info("ingest.done",
		"root", root,
		"scanned", stats.Scanned,
		"matched", stats.Matched,
		"loaded", stats.Loaded,
		"failed", stats.Failed,
	)
	return artifacts, stats, nil
}

func isHidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".") && base != "." && base != ".."
}
