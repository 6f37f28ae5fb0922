// Package sdf lists the $sdf_annotate calls needed to back-annotate every
// cell instance of a gate-level netlist in simulation.
package sdf

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Defaults match the caravel testbench layout.
const (
	DefaultDir   = "../../../sdf/"
	DefaultScope = "uut.mprj.fpga_core_uut"
)

// Annotations reads a verilog netlist and returns one $sdf_annotate line per
// instantiation ("type name (" lines that are not module headers).
func Annotations(r io.Reader, sdfDir, scope string) ([]string, error) {
	var out []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if !strings.Contains(line, " (") || strings.Contains(line, "module") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		out = append(out, fmt.Sprintf("$sdf_annotate(\"%s%s.sdf\", %s.%s) ;", sdfDir, fields[0], scope, fields[1]))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("sdf: %w", err)
	}
	return out, nil
}

// AnnotateFile runs Annotations on path and writes the lines to w.
func AnnotateFile(path string, w io.Writer, sdfDir, scope string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("sdf: %w", err)
	}
	defer f.Close()

	lines, err := Annotations(f, sdfDir, scope)
	if err != nil {
		return 0, err
	}
	for _, l := range lines {
		if _, err := fmt.Fprintln(w, l); err != nil {
			return 0, fmt.Errorf("sdf: %w", err)
		}
	}
	return len(lines), nil
}
