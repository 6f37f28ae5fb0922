// Package lef reads macro names out of LEF cell-description files.
//
// Only MACRO declarations are recognised; geometry, pins and layers are
// left to the layout tools.
package lef

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/participle/v2/lexer"
)

// MacroKeyword opens a macro declaration.
const MacroKeyword = "MACRO"

// Lexer splits a single LEF line into words. Comments start with '#'.
// A quote left open runs to the end of the line, as in the first and last
// lines of a multi-line PROPERTY value.
var Lexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `#[^\n]*`},
	{Name: "String", Pattern: `"[^"]*"`},
	{Name: "OpenString", Pattern: `"[^"]*`},
	{Name: "Whitespace", Pattern: `[ \t\r\n]+`},
	{Name: "Semicolon", Pattern: `;`},
	{Name: "Word", Pattern: `[^\s;#"]+`},
})

var (
	wordType   = Lexer.Symbols()["Word"]
	stringType = Lexer.Symbols()["String"]
	semiType   = Lexer.Symbols()["Semicolon"]
)

// ScanMacros returns the name of every macro declared in r, in file order.
// A line contributes when it holds the MACRO keyword; the macro name is the
// line's second token.
func ScanMacros(r io.Reader) ([]string, error) {
	var macros []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		words, err := lineTokens(scanner.Text())
		if err != nil {
			return nil, fmt.Errorf("lef: line %d: %w", lineNo, err)
		}
		if len(words) < 2 || !containsKeyword(words) {
			continue
		}
		macros = append(macros, words[1])
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("lef: %w", err)
	}
	return macros, nil
}

// ScanFile opens path and scans it for macros.
func ScanFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("lef: open %s: %w", path, err)
	}
	defer f.Close()

	macros, err := ScanMacros(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return macros, nil
}

func lineTokens(line string) ([]string, error) {
	lex, err := Lexer.LexString("", line)
	if err != nil {
		return nil, err
	}
	toks, err := lexer.ConsumeAll(lex)
	if err != nil {
		return nil, err
	}
	var words []string
	for _, tok := range toks {
		switch tok.Type {
		case wordType, stringType, semiType:
			words = append(words, tok.Value)
		}
	}
	return words, nil
}

func containsKeyword(words []string) bool {
	for _, w := range words {
		if w == MacroKeyword {
			return true
		}
	}
	return false
}
