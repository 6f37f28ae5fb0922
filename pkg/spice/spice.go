// Package spice reads subcircuit declarations from SPICE and CDL netlists.
//
// The reader only cares about .subckt headers; .ends, device and instance
// lines are tokenized and skipped.
package spice

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Subckt is a declared subcircuit.
type Subckt struct {
	Name   string
	Ports  []string
	Params []string
	Line   int
}

// Netlist is the set of subcircuits declared in one file.
type Netlist struct {
	Subckts []Subckt
}

// Names returns the declared subcircuit names in file order.
func (n *Netlist) Names() []string {
	names := make([]string, 0, len(n.Subckts))
	for _, s := range n.Subckts {
		names = append(names, s.Name)
	}
	return names
}

// Has reports whether name is declared (case-sensitive).
func (n *Netlist) Has(name string) bool {
	for _, s := range n.Subckts {
		if s.Name == name {
			return true
		}
	}
	return false
}

// Parse reads a netlist from r.
func Parse(r io.Reader) (*Netlist, error) {
	parser, err := newStatementParser()
	if err != nil {
		return nil, fmt.Errorf("spice: failed to build parser: %w", err)
	}

	stmts, err := logicalLines(r)
	if err != nil {
		return nil, fmt.Errorf("spice: %w", err)
	}

	// .ends lines close nothing the reader tracks; a surplus one is
	// accepted the way netgen accepts it.
	nl := &Netlist{}
	for _, ln := range stmts {
		st, err := parser.ParseString("", ln.text)
		if err != nil {
			return nil, fmt.Errorf("spice: line %d: %w", ln.line, err)
		}
		if st.Subckt != nil {
			nl.Subckts = append(nl.Subckts, Subckt{
				Name:   st.Subckt.Name,
				Ports:  cleanPorts(st.Subckt.ports()),
				Params: st.Subckt.params(),
				Line:   ln.line,
			})
		}
	}
	return nl, nil
}

// ParseFile reads the netlist at path.
func ParseFile(path string) (*Netlist, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("spice: open %s: %w", path, err)
	}
	defer f.Close()

	nl, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return nl, nil
}

type logicalLine struct {
	text string
	line int
}

// logicalLines drops comment lines and folds '+' continuations into the
// statement they extend.
func logicalLines(r io.Reader) ([]logicalLine, error) {
	var out []logicalLine
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "*") {
			continue
		}
		if strings.HasPrefix(text, "+") {
			if len(out) > 0 {
				out[len(out)-1].text += " " + strings.TrimSpace(text[1:])
			}
			continue
		}
		out = append(out, logicalLine{text: text, line: lineNo})
	}
	return out, scanner.Err()
}

func cleanPorts(ports []string) []string {
	out := ports[:0]
	for _, p := range ports {
		if strings.HasSuffix(p, ":") {
			// PARAMS: marker, the key=value pairs follow
			continue
		}
		out = append(out, p)
	}
	return out
}
