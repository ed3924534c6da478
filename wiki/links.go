package wiki

import (
	"regexp"
	"strings"
)

// linkRe matches inline wiki links: [[target]] or [[target|display text]].
// Only the target is captured.
var linkRe = regexp.MustCompile(`\[\[([^\]|]+)(?:\|[^\]]*)?\]\]`)

// ExtractLinks returns the unique link targets referenced by content, in
// first-occurrence order. Targets are trimmed of surrounding whitespace.
func ExtractLinks(content string) []string {
	matches := linkRe.FindAllStringSubmatch(content, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(matches))
	targets := make([]string, 0, len(matches))
	for _, m := range matches {
		target := strings.TrimSpace(m[1])
		if target == "" {
			continue
		}
		if _, ok := seen[target]; ok {
			continue
		}
		seen[target] = struct{}{}
		targets = append(targets, target)
	}
	return targets
}
