package rule

import "regexp"

type TokenKind int

const (
	TokenLParen TokenKind = iota
	TokenRParen
	TokenAnd
	TokenOr
	TokenWord
	TokenOperator
)

func (k TokenKind) String() string {
	switch k {
	case TokenLParen:
		return "("
	case TokenRParen:
		return ")"
	case TokenAnd:
		return "AND"
	case TokenOr:
		return "OR"
	case TokenWord:
		return "word"
	case TokenOperator:
		return "operator"
	}
	return "unknown"
}

type Token struct {
	Kind TokenKind
	Text string
}

// Words include the apostrophe so 'Marketing' lexes as one token. Operator
// runs are greedy: ">=" is one token, "=" alone is equality.
var tokenRe = regexp.MustCompile(`\(|\)|[\p{L}\p{N}_']+|[<>=!]+`)

// Tokenize never fails; characters outside every token class are skipped and
// malformed sequences are left for the parser to reject.
func Tokenize(s string) []Token {
	matches := tokenRe.FindAllString(s, -1)
	out := make([]Token, 0, len(matches))
	for _, m := range matches {
		out = append(out, Token{Kind: classify(m), Text: m})
	}
	return out
}

func classify(text string) TokenKind {
	switch text {
	case "(":
		return TokenLParen
	case ")":
		return TokenRParen
	case "AND":
		return TokenAnd
	case "OR":
		return TokenOr
	}
	switch text[0] {
	case '<', '>', '=', '!':
		return TokenOperator
	}
	return TokenWord
}
