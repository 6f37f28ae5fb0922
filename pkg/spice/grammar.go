package spice

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// statementLexer tokenizes one logical SPICE/CDL statement (continuations
// already joined, comment lines already dropped).
var statementLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Whitespace", Pattern: `[ \t\r\n]+`},
	{Name: "SubcktKw", Pattern: `(?i)\.subckt\b`},
	{Name: "EndsKw", Pattern: `(?i)\.ends\b`},
	{Name: "Param", Pattern: `[^\s=]+\s*=\s*("[^"]*"|'[^']*'|[^\s]+)`},
	{Name: "Directive", Pattern: `\.[A-Za-z_]+`},
	{Name: "Word", Pattern: `[^\s=]+`},
	{Name: "Equals", Pattern: `=`},
})

// statement is one logical line of a netlist.
type statement struct {
	Subckt *subcktHeader `parser:"  @@"`
	Ends   *endsLine     `parser:"| @@"`
	Other  *otherLine    `parser:"| @@"`
}

// subcktHeader matches: .subckt NAME followed by ports and key=value
// parameters in any order.
type subcktHeader struct {
	Name string       `parser:"SubcktKw @( Word | Directive )"`
	Args []*headerArg `parser:"@@*"`
}

type headerArg struct {
	Port  string `parser:"  @Word"`
	Param string `parser:"| @Param"`
}

func (h *subcktHeader) ports() []string {
	var out []string
	for _, a := range h.Args {
		if a.Port != "" {
			out = append(out, a.Port)
		}
	}
	return out
}

func (h *subcktHeader) params() []string {
	var out []string
	for _, a := range h.Args {
		if a.Param != "" {
			out = append(out, a.Param)
		}
	}
	return out
}

type endsLine struct {
	Name string `parser:"EndsKw @Word?"`
}

type otherLine struct {
	Tokens []string `parser:"@( Directive | Word | Param | Equals )+"`
}

func newStatementParser() (*participle.Parser[statement], error) {
	return participle.Build[statement](
		participle.Lexer(statementLexer),
		participle.Elide("Whitespace"),
		participle.UseLookahead(2),
	)
}
