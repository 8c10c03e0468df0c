package sanitize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPurify(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "empty input",
			input: "",
			want:  "",
		},
		{
			name:  "plain text untouched",
			input: "123 Main St",
			want:  "123 Main St",
		},
		{
			name:  "trims whitespace",
			input: "  123 Main St  ",
			want:  "123 Main St",
		},
		{
			name:  "strips script block and tags",
			input: `  <script>alert("xss")</script>123 Main St  `,
			want:  "123 Main St",
		},
		{
			name:  "script tag is case-insensitive",
			input: `<SCRIPT src="evil.js">payload</SCRIPT>Elm St`,
			want:  "Elm St",
		},
		{
			name:  "non-greedy across multiple scripts",
			input: `<script>a()</script>keep<script>b()</script>`,
			want:  "keep",
		},
		{
			name:  "script content spanning lines",
			input: "<script>\nalert(1)\n</script>42 Oak Ave",
			want:  "42 Oak Ave",
		},
		{
			name:  "strips regular markup but keeps text",
			input: "<b>5th</b> Avenue <i>apt</i> 2",
			want:  "5th Avenue apt 2",
		},
		{
			name:  "unclosed tag leaves no delimiters",
			input: "Main St <b unclosed",
			want:  "Main St b unclosed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Purify(tt.input))
		})
	}
}

func TestPurifyNeverLeavesDelimiters(t *testing.T) {
	inputs := []string{
		`<script>alert("xss")</script>`,
		"a < b > c",
		"<div><span>nested</span></div>",
		"<script>no close",
		"plain",
		"<<>>",
	}

	for _, input := range inputs {
		out := Purify(input)
		assert.NotContains(t, out, "<script>", "input %q", input)
		assert.False(t, strings.ContainsAny(out, "<>"), "input %q left delimiters in %q", input, out)
	}
}
