package source

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/poiesic/wikigraph/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDump = `<mediawiki xmlns="http://www.mediawiki.org/xml/export-0.11/">
  <siteinfo>
    <sitename>Testwiki</sitename>
  </siteinfo>
  <page>
    <title>Albert Einstein</title>
    <id>736</id>
    <revision>
      <id>100</id>
      <text>Old revision.</text>
    </revision>
    <revision>
      <id>200</id>
      <text>Einstein was a [[physicist]].</text>
    </revision>
  </page>
  <page>
    <title>Empty Page</title>
    <id>737</id>
    <revision>
      <id>300</id>
      <text></text>
    </revision>
  </page>
  <page>
    <title>AE</title>
    <id>738</id>
    <redirect title="Albert Einstein"/>
    <revision>
      <id>400</id>
      <text>#REDIRECT [[Albert Einstein]]</text>
    </revision>
  </page>
</mediawiki>`

func writeDump(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dump.xml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func dumpPages(t *testing.T, path string) []core.Page {
	t.Helper()
	var pages []core.Page
	err := NewDumpSource(path).ForEach(context.Background(), func(page core.Page) error {
		pages = append(pages, page)
		return nil
	})
	require.NoError(t, err)
	return pages
}

func TestDumpSource_ReadsPages(t *testing.T) {
	pages := dumpPages(t, writeDump(t, sampleDump))
	require.Len(t, pages, 2)

	first := pages[0]
	assert.Equal(t, "Albert Einstein", first.Title)
	// Latest revision with text wins.
	assert.Equal(t, "Einstein was a [[physicist]].", first.RawContent)
	assert.Equal(t, "736", first.Metadata["page_id"])
	assert.Equal(t, "200", first.Metadata["revision_id"])
	assert.NotContains(t, first.Metadata, "redirect")
}

func TestDumpSource_SkipsPagesWithoutText(t *testing.T) {
	pages := dumpPages(t, writeDump(t, sampleDump))
	for _, page := range pages {
		assert.NotEqual(t, "Empty Page", page.Title)
	}
}

func TestDumpSource_RedirectMetadata(t *testing.T) {
	pages := dumpPages(t, writeDump(t, sampleDump))
	require.Len(t, pages, 2)

	redirect := pages[1]
	assert.Equal(t, "AE", redirect.Title)
	assert.Equal(t, "Albert Einstein", redirect.Metadata["redirect"])
}

func TestDumpSource_MissingFile(t *testing.T) {
	err := NewDumpSource("/nonexistent/dump.xml").ForEach(context.Background(), func(core.Page) error {
		return nil
	})
	assert.Error(t, err)
}

func TestDumpSource_MalformedXML(t *testing.T) {
	path := writeDump(t, "<mediawiki><page><title>Broken")
	err := NewDumpSource(path).ForEach(context.Background(), func(core.Page) error {
		return nil
	})
	assert.Error(t, err)
}

func TestExtractArticles(t *testing.T) {
	dumpPath := writeDump(t, sampleDump)
	outDir := filepath.Join(t.TempDir(), "articles")

	count, err := ExtractArticles(context.Background(), NewDumpSource(dumpPath), outDir, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	content, err := os.ReadFile(filepath.Join(outDir, "Albert_Einstein.txt"))
	require.NoError(t, err)
	assert.Equal(t, "Einstein was a [[physicist]].", string(content))
}

func TestExtractArticles_Limit(t *testing.T) {
	dumpPath := writeDump(t, sampleDump)
	outDir := filepath.Join(t.TempDir(), "articles")

	count, err := ExtractArticles(context.Background(), NewDumpSource(dumpPath), outDir, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{"spaces become underscores", "Albert  Einstein", "Albert_Einstein"},
		{"slashes replaced", "AC/DC", "AC_DC"},
		{"empty falls back", "", "untitled"},
		{"whitespace only falls back", "   ", "untitled"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sanitizeFilename(tt.title))
		})
	}
}

func TestSanitizeFilename_Truncates(t *testing.T) {
	long := sanitizeFilename(strings.Repeat("a", 150))
	assert.Len(t, long, 100)
}
