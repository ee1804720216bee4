package parser

import (
	"strings"
	"sync"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// Lexer splits a typed command into words and counts. Ids may carry
// dashes, e.g. "wolf-1".
var Lexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Ident", Pattern: `[a-zA-Z_][\w-]*`},
	{Name: "Int", Pattern: `[0-9]+`},
	{Name: "Punct", Pattern: `[,]`},
	{Name: "Whitespace", Pattern: `[ \t]+`},
})

// Build creates the parser from the struct tags in ast.go.
func Build() *participle.Parser[Command] {
	return participle.MustBuild[Command](
		participle.Lexer(Lexer),
		participle.Elide("Whitespace"),
		participle.CaseInsensitive("Ident"),
		participle.UseLookahead(2),
	)
}

var (
	once   sync.Once
	shared *participle.Parser[Command]
)

// Parse reads one command line, mapping grammar errors to usage guidance.
func Parse(input string) (*Command, error) {
	once.Do(func() { shared = Build() })
	cmd, err := shared.ParseString("", strings.TrimSpace(input))
	if err != nil {
		return nil, MapError(input, err)
	}
	return cmd, nil
}
