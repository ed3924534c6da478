// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package source

import (
	"compress/bzip2"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/poiesic/wikigraph/core"
)

// DumpSource streams pages out of a MediaWiki XML export (plain or
// bzip2-compressed). Pages are decoded one <page> element at a time, so
// arbitrarily large dumps are read in bounded memory.
type DumpSource struct {
	path string
}

// NewDumpSource creates a source over the given dump file.
func NewDumpSource(path string) *DumpSource {
	return &DumpSource{path: path}
}

// dumpRevision mirrors the <revision> element of a MediaWiki export.
type dumpRevision struct {
	ID   int64  `xml:"id"`
	Text string `xml:"text"`
}

// dumpPage mirrors the <page> element of a MediaWiki export.
type dumpPage struct {
	Title    string `xml:"title"`
	ID       int64  `xml:"id"`
	Redirect *struct {
		Title string `xml:"title,attr"`
	} `xml:"redirect"`
	Revisions []dumpRevision `xml:"revision"`
}

// ForEach calls fn for every page in the dump that has an id and at least
// one revision with text. The latest such revision supplies the content.
func (s *DumpSource) ForEach(ctx context.Context, fn func(core.Page) error) error {
	f, err := os.Open(s.path)
	if err != nil {
		return fmt.Errorf("source: open dump %s: %w", s.path, err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(s.path, ".bz2") {
		r = bzip2.NewReader(f)
	}

	decoder := xml.NewDecoder(r)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("source: decode dump %s: %w", s.path, err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "page" {
			continue
		}

		var raw dumpPage
		if err := decoder.DecodeElement(&raw, &start); err != nil {
			return fmt.Errorf("source: decode page element: %w", err)
		}

		page, ok := pageFromDump(raw)
		if !ok {
			continue
		}
		if err := fn(page); err != nil {
			return err
		}
	}
}

// pageFromDump converts a decoded <page> element, keeping the latest
// revision that carries text. Pages without an id or without text are
// skipped.
func pageFromDump(raw dumpPage) (core.Page, bool) {
	if raw.ID == 0 {
		return core.Page{}, false
	}

	var latest *dumpRevision
	for i := range raw.Revisions {
		if raw.Revisions[i].Text == "" {
			continue
		}
		latest = &raw.Revisions[i]
	}
	if latest == nil {
		return core.Page{}, false
	}

	metadata := map[string]string{
		"page_id":     strconv.FormatInt(raw.ID, 10),
		"revision_id": strconv.FormatInt(latest.ID, 10),
	}
	if raw.Redirect != nil {
		metadata["redirect"] = raw.Redirect.Title
	}

	return core.Page{
		Title:      raw.Title,
		RawContent: latest.Text,
		Metadata:   metadata,
	}, true
}
