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


package wiki

import (
	"regexp"
	"strings"

	"github.com/poiesic/wikigraph/core"
)

const (
	// DefaultMaxParagraphLen is the default maximum paragraph chunk length
	// in runes before sub-splitting kicks in.
	DefaultMaxParagraphLen = 1000

	// DefaultOverlap is the default number of runes a sub-chunk shares with
	// its predecessor.
	DefaultOverlap = 100
)

// headingRe matches MediaWiki heading markers: a run of '=' on each side of
// the heading text. The level is the length of the leading run.
var headingRe = regexp.MustCompile(`^(=+)([^=]+?)=+\s*$`)

// stackEntry is one open heading on the hierarchy stack. Entries are
// strictly increasing in level from bottom to top; the page title sits at
// the bottom with level 0.
type stackEntry struct {
	title string
	level int
}

// Parser converts a page's raw content into a lazy, forward-only sequence
// of chunks in document order. A Parser is single-use: restart by creating
// a new one over the same page.
type Parser struct {
	page    core.Page
	maxLen  int
	overlap int

	lines        []string
	pos          int
	stack        []stackEntry
	pending      []string
	pendingRunes int
	queue        []core.Chunk
	index        int
	done         bool
}

// Option configures a Parser.
type Option func(*Parser)

// WithMaxParagraphLen sets the maximum paragraph chunk length in runes.
// Values below 1 fall back to the default.
func WithMaxParagraphLen(n int) Option {
	return func(p *Parser) {
		if n < 1 {
			n = DefaultMaxParagraphLen
		}
		p.maxLen = n
	}
}

// WithOverlap sets the number of runes a sub-chunk shares with its
// predecessor. Negative values fall back to the default.
func WithOverlap(n int) Option {
	return func(p *Parser) {
		if n < 0 {
			n = DefaultOverlap
		}
		p.overlap = n
	}
}

// NewParser creates a parser over the given page.
func NewParser(page core.Page, opts ...Option) *Parser {
	p := &Parser{
		page:    page,
		maxLen:  DefaultMaxParagraphLen,
		overlap: DefaultOverlap,
		lines:   strings.Split(page.RawContent, "\n"),
		stack:   []stackEntry{{title: page.Title, level: 0}},
	}
	for _, opt := range opts {
		opt(p)
	}
	// The overlap must leave room for the cursor to advance.
	if p.overlap >= p.maxLen {
		p.overlap = p.maxLen / 2
	}
	return p
}

// Next returns the next chunk in document order. The second return value is
// false once the document is exhausted.
func (p *Parser) Next() (core.Chunk, bool) {
	for len(p.queue) == 0 && !p.done {
		p.advance()
	}
	if len(p.queue) == 0 {
		return core.Chunk{}, false
	}
	chunk := p.queue[0]
	p.queue = p.queue[1:]
	return chunk, true
}

// All drains the parser and returns the remaining chunks.
func (p *Parser) All() []core.Chunk {
	var chunks []core.Chunk
	for {
		chunk, ok := p.Next()
		if !ok {
			return chunks
		}
		chunks = append(chunks, chunk)
	}
}

// owner is the title at the top of the hierarchy stack.
func (p *Parser) owner() string {
	return p.stack[len(p.stack)-1].title
}

// advance consumes one input line, queueing any chunks it completes.
func (p *Parser) advance() {
	if p.pos >= len(p.lines) {
		p.flush(true)
		p.done = true
		return
	}

	line := p.lines[p.pos]
	p.pos++

	if m := headingRe.FindStringSubmatch(line); m != nil {
		// A marker with no title ("==   ==") is not a heading; it falls
		// through and is kept as ordinary content.
		if title := strings.TrimSpace(m[2]); title != "" {
			// Close the pending paragraph under the heading that owned it.
			p.flush(true)

			level := len(m[1])
			for len(p.stack) > 1 && p.stack[len(p.stack)-1].level >= level {
				p.stack = p.stack[:len(p.stack)-1]
			}

			p.emit(core.Chunk{Content: title, Kind: core.KindHeading, Owner: p.owner()})
			p.stack = append(p.stack, stackEntry{title: title, level: level})
			return
		}
	}

	if strings.TrimSpace(line) == "" && len(p.pending) == 0 {
		return
	}

	p.pending = append(p.pending, line)
	p.pendingRunes += len([]rune(line)) + 1
	if p.pendingRunes >= p.maxLen {
		p.flush(false)
	}
}

// flush materializes pending content into paragraph chunks. When final is
// false the last sub-chunk stays buffered (including its leading overlap)
// so later lines extend it instead of starting a fresh paragraph.
func (p *Parser) flush(final bool) {
	if len(p.pending) == 0 {
		return
	}

	text := strings.Join(p.pending, "\n")
	runes := []rune(text)
	spans := splitSpans(runes, p.maxLen, p.overlap)

	emit := spans
	if !final {
		if len(spans) < 2 {
			return
		}
		last := spans[len(spans)-1]
		emit = spans[:len(spans)-1]
		tail := runes[last.start:]
		p.pending = []string{string(tail)}
		p.pendingRunes = len(tail)
	} else {
		p.pending = nil
		p.pendingRunes = 0
	}

	owner := p.owner()
	for _, s := range emit {
		content := strings.TrimSpace(string(runes[s.start:s.end]))
		if content == "" {
			continue
		}
		p.emit(core.Chunk{Content: content, Kind: core.KindParagraph, Owner: owner})
	}
}

func (p *Parser) emit(chunk core.Chunk) {
	chunk.Index = p.index
	p.index++
	p.queue = append(p.queue, chunk)
}
