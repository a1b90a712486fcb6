package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSONBlock(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		found bool
	}{
		{
			name:  "bare object",
			input: `{"a": 1}`,
			want:  `{"a": 1}`,
			found: true,
		},
		{
			name:  "object embedded in prose",
			input: "Sure! Here is the result:\n```json\n{\"type\": \"RECEIPT\"}\n```\nHope that helps.",
			want:  `{"type": "RECEIPT"}`,
			found: true,
		},
		{
			name:  "nested objects return outermost",
			input: `prefix {"a": {"b": 2}} suffix`,
			want:  `{"a": {"b": 2}}`,
			found: true,
		},
		{
			name:  "brace inside string literal",
			input: `{"note": "a } inside", "n": 1}`,
			want:  `{"note": "a } inside", "n": 1}`,
			found: true,
		},
		{
			name:  "escaped quote inside string",
			input: `{"note": "she said \"}\"", "n": 1}`,
			want:  `{"note": "she said \"}\"", "n": 1}`,
			found: true,
		},
		{
			name:  "no object at all",
			input: "I could not read this document, sorry.",
			found: false,
		},
		{
			name:  "unbalanced object",
			input: `{"a": 1`,
			found: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := ExtractJSONBlock(tt.input)
			require.Equal(t, tt.found, found)
			if tt.found {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestDecodeJSONBlock(t *testing.T) {
	var out struct {
		Type string `json:"type"`
	}

	ok := DecodeJSONBlock(`The document looks like {"type": "INVOICE"} to me.`, &out)
	require.True(t, ok)
	assert.Equal(t, "INVOICE", out.Type)

	ok = DecodeJSONBlock("no json here", &out)
	assert.False(t, ok)

	// Balanced but invalid JSON must report failure, not panic.
	ok = DecodeJSONBlock(`{"type": INVOICE}`, &out)
	assert.False(t, ok)
}
