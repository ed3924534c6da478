package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/poiesic/wikigraph/core"
)

// maxExtractNameLen bounds extracted file names; long titles are truncated.
const maxExtractNameLen = 100

// ExtractArticles writes every page from src into dir as one .txt file per
// document, suitable for later ingestion via DirSource. Returns the number
// of articles written.
func ExtractArticles(ctx context.Context, src *DumpSource, dir string, limit int) (int, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return 0, fmt.Errorf("source: create output dir: %w", err)
	}

	logger := slog.Default().With("component", "extract")

	count := 0
	err := src.ForEach(ctx, func(page core.Page) error {
		name := sanitizeFilename(page.Title)
		path := filepath.Join(dir, name+".txt")
		if err := os.WriteFile(path, []byte(page.RawContent), 0644); err != nil {
			return fmt.Errorf("source: write %s: %w", path, err)
		}

		count++
		logger.Info("saved article", "count", count, "title", page.Title, "path", path)
		if limit > 0 && count >= limit {
			return errExtractLimit
		}
		return nil
	})
	if err != nil && !errors.Is(err, errExtractLimit) {
		return count, err
	}
	return count, nil
}

// errExtractLimit stops dump iteration once the article limit is reached.
var errExtractLimit = errors.New("extract limit reached")

// sanitizeFilename makes a title safe to use as a file name: whitespace
// runs become underscores, path separators are replaced, and the result is
// truncated.
func sanitizeFilename(title string) string {
	name := strings.Join(strings.Fields(title), "_")
	name = strings.ReplaceAll(name, "/", "_")
	if len(name) > maxExtractNameLen {
		name = name[:maxExtractNameLen]
	}
	if name == "" {
		name = "untitled"
	}
	return name
}
