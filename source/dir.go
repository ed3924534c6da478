package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/poiesic/wikigraph/core"
)

// DirSource reads a directory of .txt files, one document per file. The
// document title is the file name without its extension. Files are visited
// in lexical order so repeated runs see the same sequence.
type DirSource struct {
	dir string
}

// NewDirSource creates a source over the given directory.
func NewDirSource(dir string) *DirSource {
	return &DirSource{dir: dir}
}

// ForEach calls fn for every .txt file in the directory.
func (s *DirSource) ForEach(ctx context.Context, fn func(core.Page) error) error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("source: read dir %s: %w", s.dir, err)
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".txt") {
			continue
		}

		path := filepath.Join(s.dir, entry.Name())
		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("source: read %s: %w", path, err)
		}

		page := core.Page{
			Title:      strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name())),
			RawContent: string(content),
		}
		if err := fn(page); err != nil {
			return err
		}
	}
	return nil
}
