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
	"strings"
	"unicode"
)

// span is a half-open [start, end) rune range into a paragraph.
type span struct {
	start, end int
}

// splitSpans cuts a paragraph into overlapping sub-chunk ranges of at most
// maxLen runes. Split points prefer whitespace boundaries, and a boundary
// that would leave a [[...]] link unterminated is extended forward to the
// closing marker (or to the end of the text if there is none). Each range
// after the first begins overlap runes before its predecessor's end, unless
// that would stall the cursor. The cursor strictly advances, so splitting
// terminates on any finite input.
func splitSpans(runes []rune, maxLen, overlap int) []span {
	n := len(runes)
	if n == 0 {
		return nil
	}

	var spans []span
	start := 0
	for start < n {
		end := start + maxLen
		if end > n {
			end = n
		}

		if end < n {
			// Back up to whitespace so words stay intact; keep the forced
			// break when the window contains none.
			ws := end
			for ws > start && !unicode.IsSpace(runes[ws-1]) {
				ws--
			}
			if ws > start {
				end = ws
			}
			// A forced break must not cut between the two runes of a [[
			// marker, or neither side would count the pair.
			if end-1 > start && runes[end-1] == '[' && runes[end] == '[' {
				end--
			}
		}

		if openLinks(runes[start:end]) {
			if closing := indexClose(runes, end); closing >= 0 {
				end = closing + 2
			} else {
				end = n
			}
		}

		spans = append(spans, span{start: start, end: end})
		if end >= n {
			break
		}

		next := end - overlap
		if next <= start {
			next = end
		} else {
			// An overlap start inside a link reference would emit a chunk
			// beginning with a stray ]]; skip past the unmatched close.
			for next < end && strayClose(runes[next:end]) {
				closing := indexClose(runes, next)
				if closing < 0 || closing+2 > end {
					break
				}
				next = closing + 2
			}
		}
		start = next
	}
	return spans
}

// SplitParagraph splits a paragraph into overlapping sub-chunks, trimmed of
// leading and trailing whitespace.
func SplitParagraph(text string, maxLen, overlap int) []string {
	runes := []rune(text)
	spans := splitSpans(runes, maxLen, overlap)
	chunks := make([]string, 0, len(spans))
	for _, s := range spans {
		chunk := strings.TrimSpace(string(runes[s.start:s.end]))
		if chunk == "" {
			continue
		}
		chunks = append(chunks, chunk)
	}
	return chunks
}

// linkMarkers counts the [[ and ]] pairs in the slice.
func linkMarkers(runes []rune) (opens, closes int) {
	for i := 0; i+1 < len(runes); i++ {
		switch {
		case runes[i] == '[' && runes[i+1] == '[':
			opens++
			i++
		case runes[i] == ']' && runes[i+1] == ']':
			closes++
			i++
		}
	}
	return opens, closes
}

// openLinks reports whether the slice opens more [[ markers than it closes.
func openLinks(runes []rune) bool {
	opens, closes := linkMarkers(runes)
	return opens > closes
}

// strayClose reports whether the slice closes more [[ markers than it opens.
func strayClose(runes []rune) bool {
	opens, closes := linkMarkers(runes)
	return closes > opens
}

// indexClose returns the index of the first ]] at or after from, or -1.
func indexClose(runes []rune, from int) int {
	for i := from; i+1 < len(runes); i++ {
		if runes[i] == ']' && runes[i+1] == ']' {
			return i
		}
	}
	return -1
}
