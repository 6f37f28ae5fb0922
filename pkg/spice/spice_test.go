package spice

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const blockSpice = `* user block, hand written
.include "cells.spice"
.subckt user_block VDD VSS in out
+ en
X1 in n1 VDD VSS sky130_fd_sc_hd__inv_1
XM1 out n1 VSS VSS sky130_fd_pr__nfet_01v8 w=0.65 l=0.15
.ends user_block

.SUBCKT sram_macro A B PARAMS: depth=256 width = 32
R1 A B 1k
.ENDS
`

func TestParseSubckts(t *testing.T) {
	nl, err := Parse(strings.NewReader(blockSpice))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if got := strings.Join(nl.Names(), ","); got != "user_block,sram_macro" {
		t.Fatalf("names = %s", got)
	}

	ub := nl.Subckts[0]
	if strings.Join(ub.Ports, " ") != "VDD VSS in out en" {
		t.Errorf("user_block ports = %v", ub.Ports)
	}
	if ub.Line != 3 {
		t.Errorf("user_block line = %d, want 3", ub.Line)
	}

	sm := nl.Subckts[1]
	if strings.Join(sm.Ports, " ") != "A B" {
		t.Errorf("sram_macro ports = %v", sm.Ports)
	}
	if len(sm.Params) != 2 {
		t.Errorf("sram_macro params = %v", sm.Params)
	}
	if !nl.Has("sram_macro") || nl.Has("SRAM_MACRO") {
		t.Errorf("Has is wrong")
	}
}

func TestParseLenientStatements(t *testing.T) {
	tests := []struct {
		name       string
		netlist    string
		wantNames  []string
		wantPorts  []string
		wantParams int
	}{
		{
			name:       "port after parameter",
			netlist:    ".subckt a x y w=1 z\n.ends\n",
			wantNames:  []string{"a"},
			wantPorts:  []string{"x", "y", "z"},
			wantParams: 1,
		},
		{
			name:      "surplus ends",
			netlist:   ".subckt c x y\nR1 x y 1k\n.ends c\n.ends\n",
			wantNames: []string{"c"},
			wantPorts: []string{"x", "y"},
		},
		{
			name:    "stray ends only",
			netlist: ".ends\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nl, err := Parse(strings.NewReader(tt.netlist))
			if err != nil {
				t.Fatalf("Parse failed: %v", err)
			}
			if strings.Join(nl.Names(), ",") != strings.Join(tt.wantNames, ",") {
				t.Fatalf("names = %v, want %v", nl.Names(), tt.wantNames)
			}
			if len(nl.Subckts) == 0 {
				return
			}
			sc := nl.Subckts[0]
			if strings.Join(sc.Ports, " ") != strings.Join(tt.wantPorts, " ") {
				t.Errorf("ports = %v, want %v", sc.Ports, tt.wantPorts)
			}
			if len(sc.Params) != tt.wantParams {
				t.Errorf("params = %v, want %d", sc.Params, tt.wantParams)
			}
		})
	}
}

func TestParseBareSubcktIsError(t *testing.T) {
	_, err := Parse(strings.NewReader(".subckt\n"))
	if err == nil {
		t.Fatalf("expected error for .subckt without a name")
	}
	if !strings.Contains(err.Error(), "line 1") {
		t.Errorf("error does not name the line: %v", err)
	}
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "user_block.spice")
	if err := os.WriteFile(path, []byte(blockSpice), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	nl, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile failed: %v", err)
	}
	if len(nl.Subckts) != 2 {
		t.Errorf("expected 2 subckts, got %d", len(nl.Subckts))
	}
}
