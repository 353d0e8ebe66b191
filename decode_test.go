package searchql

import (
	"fmt"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJSON(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Node
	}{
		{
			name:     "word",
			input:    `{"type":"word","token":"golang"}`,
			expected: NewWord("golang", Modifiers{}),
		},
		{
			name:     "boosted word",
			input:    `{"type":"word","token":"golang","boosted":true,"boost_by":3}`,
			expected: NewWord("golang", Modifiers{Boosted: true, BoostBy: 3}),
		},
		{
			name:     "phrase",
			input:    `{"type":"phrase","token":"hello world","included":true}`,
			expected: NewPhrase("hello world", Modifiers{Included: true}),
		},
		{
			name:     "hashtag",
			input:    `{"type":"hashtag","token":"news","excluded":true}`,
			expected: NewHashtag("news", Modifiers{Excluded: true}),
		},
		{
			name:     "mention",
			input:    `{"type":"mention","token":"alice"}`,
			expected: NewMention("alice", Modifiers{}),
		},
		{
			name: "explicit term",
			input: `{"type":"explicit_term","comparison":":>=","boosted":true,
				"nominator":{"type":"word","token":"age"},
				"term":{"type":"word","token":"30"}}`,
			expected: NewExplicitTerm(NewWord("age", Modifiers{}), CompareGte, NewWord("30", Modifiers{}), Modifiers{Boosted: true}),
		},
		{
			name: "explicit term defaults to equality",
			input: `{"type":"explicit_term",
				"nominator":{"type":"word","token":"status"},
				"term":{"type":"word","token":"active"}}`,
			expected: NewExplicitTerm(NewWord("status", Modifiers{}), CompareEq, NewWord("active", Modifiers{}), Modifiers{}),
		},
		{
			name: "explicit range",
			input: `{"type":"explicit_term","comparison":":",
				"nominator":{"type":"word","token":"year"},
				"term":{"type":"range","token":"[2020,2024]"}}`,
			expected: NewExplicitTerm(NewWord("year", Modifiers{}), CompareEq, NewRange("[2020,2024]"), Modifiers{}),
		},
		{
			name:     "subexpression",
			input:    `{"type":"subexpression","expression":{"type":"word","token":"a"}}`,
			expected: Group(NewWord("a", Modifiers{})),
		},
		{
			name: "nested lists",
			input: `{"type":"and","expressions":[
				{"type":"word","token":"a"},
				{"type":"or","expressions":[{"type":"hashtag","token":"b"},{"type":"mention","token":"c"}]}]}`,
			expected: And(
				NewWord("a", Modifiers{}),
				Or(NewHashtag("b", Modifiers{}), NewMention("c", Modifiers{})),
			),
		},
		{
			name:     "empty list",
			input:    `{"type":"or","expressions":[]}`,
			expected: OrExpressionList{Expressions: []Node{}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseJSON([]byte(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestParseJSONErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		message string
	}{
		{name: "not json", input: `{"type":`, message: "failed to parse expression JSON"},
		{name: "not an object", input: `[1,2]`, message: "$: expected object"},
		{name: "missing type", input: `{"token":"a"}`, message: "$: missing node type"},
		{name: "unknown type", input: `{"type":"regex","token":"a.*"}`, message: `$: unknown node type "regex"`},
		{
			name:    "unknown comparison",
			input:   `{"type":"explicit_term","comparison":"~","nominator":{"type":"word","token":"a"},"term":{"type":"word","token":"b"}}`,
			message: `$: unknown comparison "~"`,
		},
		{
			name:    "missing nominator",
			input:   `{"type":"explicit_term","term":{"type":"word","token":"b"}}`,
			message: "$.nominator: expected object",
		},
		{
			name:    "missing subexpression",
			input:   `{"type":"subexpression"}`,
			message: "$.expression: expected object",
		},
		{
			name:    "expressions not an array",
			input:   `{"type":"and","expressions":{"type":"word"}}`,
			message: "$.expressions: expected array",
		},
		{
			name:    "bad list element",
			input:   `{"type":"or","expressions":[{"type":"word","token":"a"},{"type":"bogus"}]}`,
			message: `$.expressions[1]: unknown node type "bogus"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseJSON([]byte(tt.input))
			require.Error(t, err)
			assert.Nil(t, got)
			assert.True(t, errors.Is(err, ErrInvalidExpression), "expected ErrInvalidExpression, got %v", err)
			assert.Contains(t, fmt.Sprintf("%+v", err), tt.message)
		})
	}
}
