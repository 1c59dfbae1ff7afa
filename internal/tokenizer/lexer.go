package tokenizer

import (
	"errors"
	"io"

	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

// Lexer tokenizes with the CSS Syntax Level 3 lexer of tdewolff/parse.
// That lexer already returns every byte of the input, whitespace and
// comments included.
type Lexer struct{}

// Tokenize implements Tokenizer
func (Lexer) Tokenize(source string) ([]Token, error) {
	l := css.NewLexer(parse.NewInputString(source))

	var tokens []Token
	tick := 0
	for {
		tt, data := l.Next()
		if tt == css.ErrorToken {
			err := l.Err()
			if errors.Is(err, io.EOF) {
				err = nil
			}
			if err != nil || tick < len(source) {
				return nil, &TokenizeError{Backend: NameLexer, Offset: tick, Err: err}
			}
			return tokens, nil
		}
		if len(data) == 0 {
			continue
		}
		tokens = append(tokens, Token{
			Type: lexerType(tt),
			Data: string(data),
			Tick: tick,
		})
		tick += len(data)
	}
}

func lexerType(tt css.TokenType) Type {
	switch tt {
	case css.IdentToken, css.CustomPropertyNameToken:
		return Word
	case css.DelimToken, css.ColonToken, css.SemicolonToken, css.CommaToken,
		css.LeftBraceToken, css.RightBraceToken,
		css.LeftBracketToken, css.RightBracketToken,
		css.LeftParenthesisToken, css.RightParenthesisToken:
		return Symbol
	case css.WhitespaceToken:
		return Space
	case css.CommentToken:
		return Comment
	default:
		return Other
	}
}
