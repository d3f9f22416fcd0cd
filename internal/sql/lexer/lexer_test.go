package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func types(tokens []Token) []TokenType {
	out := make([]TokenType, len(tokens))
	for i, t := range tokens {
		out[i] = t.Type
	}
	return out
}

func TestTokenizeEmpty(t *testing.T) {
	assert.Equal(t, []TokenType{EofFile}, types(NewLexer("").Tokenize()))
	assert.Equal(t, []TokenType{EofFile}, types(NewLexer(" \t\r\n ").Tokenize()))
}

func TestTokenizeSelect(t *testing.T) {
	tokens := NewLexer("SELECT name FROM users WHERE age >= 25;").Tokenize()
	want := []TokenType{
		Select, Identifier, From, Identifier, Where,
		Identifier, Gte, IntLiteral, Semicolon, EofFile,
	}
	assert.Equal(t, want, types(tokens))
	assert.Equal(t, "age", tokens[5].Text)
	assert.Equal(t, "25", tokens[7].Text)
}

func TestKeywordsAreCaseInsensitive(t *testing.T) {
	tokens := NewLexer("select From WHERE").Tokenize()
	assert.Equal(t, []TokenType{Select, From, Where, EofFile}, types(tokens))

	// token text keeps the original casing
	assert.Equal(t, "select", tokens[0].Text)
	assert.Equal(t, "From", tokens[1].Text)
}

func TestIdentifiersKeepCase(t *testing.T) {
	tokens := NewLexer("Users _tmp a1_b2").Tokenize()
	require.Equal(t, []TokenType{Identifier, Identifier, Identifier, EofFile}, types(tokens))
	assert.Equal(t, "Users", tokens[0].Text)
	assert.Equal(t, "_tmp", tokens[1].Text)
	assert.Equal(t, "a1_b2", tokens[2].Text)
}

func TestNumbers(t *testing.T) {
	tokens := NewLexer("42 3.14 7.").Tokenize()
	require.Equal(t, []TokenType{IntLiteral, FloatLiteral, IntLiteral, Dot, EofFile}, types(tokens))
	assert.Equal(t, "42", tokens[0].Text)
	assert.Equal(t, "3.14", tokens[1].Text)
}

func TestNoSignedNumbers(t *testing.T) {
	tokens := NewLexer("-7 +2").Tokenize()
	assert.Equal(t, []TokenType{Minus, IntLiteral, Plus, IntLiteral, EofFile}, types(tokens))
}

func TestStrings(t *testing.T) {
	tokens := NewLexer("'hello world' 'a,b'").Tokenize()
	require.Equal(t, []TokenType{StringLiteral, StringLiteral, EofFile}, types(tokens))
	assert.Equal(t, "hello world", tokens[0].Text)
	assert.Equal(t, "a,b", tokens[1].Text)
}

func TestDateAndTimestampLiterals(t *testing.T) {
	tokens := NewLexer("'2024-01-31' '2024-01-31 12:30:45' '2024-1-31'").Tokenize()
	require.Equal(t, []TokenType{DateLiteral, TimestampLiteral, StringLiteral, EofFile}, types(tokens))
	assert.Equal(t, "2024-01-31", tokens[0].Text)
	assert.Equal(t, "2024-01-31 12:30:45", tokens[1].Text)
}

func TestUnterminatedString(t *testing.T) {
	tokens := NewLexer("SELECT 'oops").Tokenize()
	require.Equal(t, []TokenType{Select, Unknown, EofFile}, types(tokens))
	assert.Equal(t, "'oops", tokens[1].Text)
}

func TestOperators(t *testing.T) {
	tokens := NewLexer("= != < <= > >= * + -").Tokenize()
	want := []TokenType{Eq, Ne, Lt, Lte, Gt, Gte, Star, Plus, Minus, EofFile}
	assert.Equal(t, want, types(tokens))
}

func TestLoneBangIsUnknown(t *testing.T) {
	tokens := NewLexer("a ! b").Tokenize()
	require.Equal(t, []TokenType{Identifier, Unknown, Identifier, EofFile}, types(tokens))
	assert.Equal(t, "!", tokens[1].Text)
}

func TestUnknownByteRecovery(t *testing.T) {
	tokens := NewLexer("a @ b").Tokenize()
	require.Equal(t, []TokenType{Identifier, Unknown, Identifier, EofFile}, types(tokens))
	assert.Equal(t, "@", tokens[1].Text)
}

func TestPunctuationAndPositions(t *testing.T) {
	tokens := NewLexer("(a, b.c);").Tokenize()
	want := []TokenType{Lparen, Identifier, Comma, Identifier, Dot, Identifier, Rparen, Semicolon, EofFile}
	require.Equal(t, want, types(tokens))
	assert.Equal(t, 0, tokens[0].Pos)
	assert.Equal(t, 1, tokens[1].Pos)
	assert.Equal(t, 4, tokens[3].Pos)
}

func TestBoolAndNullKeywords(t *testing.T) {
	tokens := NewLexer("true FALSE null IS NOT").Tokenize()
	assert.Equal(t, []TokenType{True, False, Null, Is, Not, EofFile}, types(tokens))
}
