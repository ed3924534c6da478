package wiki

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractLinks(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{
			name:    "plain and aliased links",
			content: "Hello [[World]] and [[Python|Language]].",
			want:    []string{"World", "Python"},
		},
		{
			name:    "no links",
			content: "Nothing to see here.",
			want:    nil,
		},
		{
			name:    "duplicates keep first occurrence order",
			content: "[[B]] then [[A]] then [[B]] again",
			want:    []string{"B", "A"},
		},
		{
			name:    "target whitespace trimmed",
			content: "see [[ Albert Einstein ]]",
			want:    []string{"Albert Einstein"},
		},
		{
			name:    "alias with empty display text",
			content: "[[Target|]]",
			want:    []string{"Target"},
		},
		{
			name:    "unterminated link ignored",
			content: "broken [[link with no close",
			want:    nil,
		},
		{
			name:    "whitespace-only target skipped",
			content: "odd [[ ]] marker",
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractLinks(tt.content))
		})
	}
}
