package frontend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLexKeywordsAndOperators(t *testing.T) {
	toks, err := Lex(`int main(){ if (a>=1) return a; }`)
	require.NoError(t, err)

	kinds := make([]Kind, 0, len(toks))
	for _, tok := range toks {
		kinds = append(kinds, tok.Kind)
	}

	assert.Equal(t, []Kind{
		INT, IDENTIFIER, LPAREN, RPAREN, LBRACE,
		IF, LPAREN, IDENTIFIER, GREATER_EQUAL, INTEGER, RPAREN,
		RETURN, IDENTIFIER, SEMICOLON,
		RBRACE, EOF,
	}, kinds)
}

func TestLexTwoCharOperatorsPreferredOverOneChar(t *testing.T) {
	toks, err := Lex(`a==b&&c!=d||e<<f>>g<=h`)
	require.NoError(t, err)

	var kinds []Kind
	for _, tok := range toks {
		kinds = append(kinds, tok.Kind)
	}
	assert.Equal(t, []Kind{
		IDENTIFIER, EQUAL, IDENTIFIER, LOGICAL_AND, IDENTIFIER, NOT_EQUAL, IDENTIFIER,
		LOGICAL_OR, IDENTIFIER, SHL, IDENTIFIER, SHR, IDENTIFIER, LESS_EQUAL, IDENTIFIER,
		EOF,
	}, kinds)
}

func TestLexStringLiteral(t *testing.T) {
	toks, err := Lex(`"hello, world"`)
	require.NoError(t, err)
	require.Len(t, toks, 2)
	assert.Equal(t, STRING, toks[0].Kind)
	assert.Equal(t, `"hello, world"`, toks[0].Text)
}

func TestLexNewlineInStringIsError(t *testing.T) {
	_, err := Lex("\"abc\ndef\"")
	require.Error(t, err)
}

func TestLexUnterminatedStringIsError(t *testing.T) {
	_, err := Lex(`"abc`)
	require.Error(t, err)
}

func TestLexUnknownTokenIsError(t *testing.T) {
	_, err := Lex(`@`)
	require.Error(t, err)
}

func TestLexRowColTracking(t *testing.T) {
	toks, err := Lex("int x;\nint y;")
	require.NoError(t, err)
	// Second "int" keyword should be on row 2, col 1.
	var second Token
	seen := 0
	for _, tok := range toks {
		if tok.Kind == INT {
			seen++
			if seen == 2 {
				second = tok
			}
		}
	}
	assert.Equal(t, 2, second.Row)
	assert.Equal(t, 1, second.Col)
}

func TestLexRoundTripPreservesSourceBytes(t *testing.T) {
	// Testable property 1 (spec.md §8): concatenating spans with the
	// original inter-token whitespace reproduces the source. We check
	// the weaker, directly verifiable corollary that every token's text
	// appears in source order as a substring of the original buffer.
	src := `int fact(int x){ if (x<=1) return 1; return x*fact(x-1); }`
	toks, err := Lex(src)
	require.NoError(t, err)

	cursor := 0
	for _, tok := range toks {
		if tok.Kind == EOF {
			continue
		}
		idx := indexFrom(src, tok.Text, cursor)
		require.GreaterOrEqualf(t, idx, cursor, "token %q out of order", tok.Text)
		cursor = idx + len(tok.Text)
	}
}

func indexFrom(s, substr string, from int) int {
	if from > len(s) {
		return -1
	}
	i := indexOf(s[from:], substr)
	if i < 0 {
		return -1
	}
	return from + i
}

func indexOf(s, substr string) int {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return i
		}
	}
	return -1
}
