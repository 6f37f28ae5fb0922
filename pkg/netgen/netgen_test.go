package netgen

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/OpenTraceLab/OpenTraceLVS/pkg/design"
	"github.com/OpenTraceLab/OpenTraceLVS/pkg/hier"
	"github.com/OpenTraceLab/OpenTraceLVS/pkg/pdk"
	"github.com/OpenTraceLab/OpenTraceLVS/pkg/tool"
)

func mustDesign(t *testing.T, path string) design.Design {
	t.Helper()
	d, err := design.New(path)
	if err != nil {
		t.Fatalf("design.New(%s) failed: %v", path, err)
	}
	return d
}

func baseInput(t *testing.T) ScriptInput {
	return ScriptInput{
		Layout:         mustDesign(t, "/work/user_proj.gds"),
		LayoutNetlist:  "/out/user_proj-gds-extracted.spice",
		Top:            mustDesign(t, "/work/user_proj.v"),
		ReferenceSpice: []string{"/pdk/sky130A/libs.ref/sky130_fd_sc_hd/spice/sky130_fd_sc_hd.spice"},
		Family:         pdk.FamilyFor("sky130A"),
		SetupFile:      "/pdk/sky130A/libs.tech/netgen/sky130A_setup.tcl",
		Report:         "/out/user_proj-gds-vs-v.out",
	}
}

func steps(s *Script) []Step {
	var out []Step
	for _, d := range s.Directives() {
		if len(out) == 0 || out[len(out)-1] != d.Step {
			out = append(out, d.Step)
		}
	}
	return out
}

func TestGenerateOrder(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "user_block.v"), []byte("module user_block; endmodule\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	in := baseInput(t)
	in.Verilog = []string{"/work/extra.v"}
	in.VerilogDir = dir
	in.Missing = []string{"extra", "user_block"}
	in.Abstract = []string{"user_block"}

	s, err := Generate(in)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	want := []Step{StepLoadLayout, StepLoadReference, StepLoadOverride, StepLoadTop, StepRules, StepFlatten, StepCompare}
	if got := steps(s); !reflect.DeepEqual(got, want) {
		t.Fatalf("step order = %v, want %v", got, want)
	}

	text := s.String()
	for _, line := range []string{
		"set circuit1 [readnet spice /out/user_proj-gds-extracted.spice]",
		"set circuit2 [readnet spice /dev/null]",
		"readnet verilog /work/extra.v $circuit2",
		"readnet verilog " + filepath.Join(dir, "user_block.v") + " $circuit2",
		"readnet verilog /work/user_proj.v $circuit2",
		`flatten class "-circuit2 user_block"`,
		`lvs "$circuit1 user_proj" "$circuit2 user_proj" /pdk/sky130A/libs.tech/netgen/sky130A_setup.tcl /out/user_proj-gds-vs-v.out -json`,
	} {
		if !strings.Contains(text, line+"\n") {
			t.Errorf("script is missing %q\n%s", line, text)
		}
	}
}

func TestGenerateTopAfterAllLoads(t *testing.T) {
	in := baseInput(t)
	in.Verilog = []string{"/work/a.v", "/work/b.v"}
	s, err := Generate(in)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	topSeen := false
	for _, d := range s.Directives() {
		switch d.Step {
		case StepLoadTop:
			topSeen = true
		case StepLoadReference, StepLoadOverride:
			if topSeen {
				t.Fatalf("%q emitted after the top netlist", d.Text)
			}
		}
	}
	if !topSeen {
		t.Fatal("no top load directive")
	}
}

func TestGenerateNoOverrides(t *testing.T) {
	s, err := Generate(baseInput(t))
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if n := s.Count(StepLoadOverride); n != 0 {
		t.Errorf("override directives = %d, want 0", n)
	}
	if n := s.Count(StepCompare); n != 1 {
		t.Errorf("compare directives = %d, want 1", n)
	}
}

func TestGenerateUnresolved(t *testing.T) {
	in := baseInput(t)
	in.Missing = []string{"user_block", "other_block"}
	in.VerilogDir = t.TempDir()

	s, err := Generate(in)
	if s != nil {
		t.Errorf("script returned on failure")
	}
	var unresolved *hier.UnresolvedError
	if !errors.As(err, &unresolved) {
		t.Fatalf("expected UnresolvedError, got %v", err)
	}
	if !reflect.DeepEqual(unresolved.Macros, []string{"other_block", "user_block"}) {
		t.Errorf("macros = %v", unresolved.Macros)
	}

	in.Blackbox = true
	if _, err := Generate(in); err != nil {
		t.Errorf("blackbox should tolerate missing macros, got %v", err)
	}
}

func TestGenerateSpiceOverrideResolvesSubckts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blocks.spice")
	data := ".subckt user_block A Y\nX1 A Y sky130_fd_sc_hd__inv_1\n.ends\n.subckt other_block VDD\n.ends\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	in := baseInput(t)
	in.Spice = []string{path}
	in.Missing = []string{"user_block", "other_block", "blocks"}

	s, err := Generate(in)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if n := s.Count(StepLoadOverride); n != 1 {
		t.Errorf("override directives = %d, want 1", n)
	}
}

func TestGenerateRejectsBadViews(t *testing.T) {
	tests := []struct {
		name   string
		layout string
		top    string
		want   error
	}{
		{"geometry top", "/w/a.spice", "/w/b.gds", ErrTopNotNetlist},
		{"structural layout", "/w/a.v", "/w/b.v", ErrLayoutStructural},
		{"unsupported layout", "/w/a.def", "/w/b.v", design.ErrUnsupportedFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := baseInput(t)
			in.Layout = mustDesign(t, tt.layout)
			in.LayoutNetlist = ""
			in.Top = mustDesign(t, tt.top)
			if _, err := Generate(in); !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestGenerateSpiceTop(t *testing.T) {
	in := baseInput(t)
	in.Layout = mustDesign(t, "/w/a.spice")
	in.LayoutNetlist = ""
	in.Top = mustDesign(t, "/w/b.cdl")
	s, err := Generate(in)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	text := s.String()
	if !strings.Contains(text, "set circuit1 [readnet spice /w/a.spice]") ||
		!strings.Contains(text, "readnet spice /w/b.cdl $circuit2") {
		t.Errorf("unexpected script:\n%s", text)
	}
}

func TestRulesFor(t *testing.T) {
	names := func(rs []Rule) []string {
		var out []string
		for _, r := range rs {
			out = append(out, r.Name)
		}
		return out
	}
	tests := []struct {
		variant string
		want    []string
	}{
		{"sky130B", []string{"prefix-alias", "fill-cells", "sram-macros", "catch-all-prefix"}},
		{"gf180mcuC", []string{"prefix-alias", "fill-cells"}},
		{"ihp-sg13g2", []string{"prefix-alias"}},
	}
	for _, tt := range tests {
		t.Run(tt.variant, func(t *testing.T) {
			if got := names(RulesFor(pdk.FamilyFor(tt.variant))); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("rules = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRuleRender(t *testing.T) {
	f := pdk.FamilyFor("sky130A")
	sram, err := SRAMMacroRule.Render(f)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !strings.Contains(sram, "regexp {"+f.SRAMPattern+"} $cell match cellname") {
		t.Errorf("SRAM pattern not rendered:\n%s", sram)
	}
	if !strings.Contains(sram, `[format "sky130_fd_bd_sram__%s" $cellname]`) {
		t.Errorf("SRAM format not rendered:\n%s", sram)
	}

	fill, err := FillCellRule.Render(f)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !strings.Contains(fill, strings.Join(f.FillCellPatterns, "|")) || !strings.Contains(fill, `ignore class "-circuit1 $cell"`) {
		t.Errorf("fill rule not rendered:\n%s", fill)
	}
	if strings.Count(fill, "{") != strings.Count(fill, "}") {
		t.Errorf("unbalanced braces:\n%s", fill)
	}
}

func TestRuleCellLookupsAreExact(t *testing.T) {
	f := pdk.FamilyFor("sky130A")
	for _, r := range RulesFor(f) {
		text, err := r.Render(f)
		if err != nil {
			t.Fatalf("%s: Render failed: %v", r.Name, err)
		}
		lookups := strings.Count(text, "[lsearch ")
		if lookups == 0 && r.Name != FillCellRule.Name {
			t.Errorf("%s: no cell lookups rendered", r.Name)
		}
		if exact := strings.Count(text, "[lsearch -exact $cells"); exact != lookups {
			t.Errorf("%s: %d of %d lookups are glob matches:\n%s", r.Name, lookups-exact, lookups, text)
		}
	}
}

func TestTclWord(t *testing.T) {
	tests := map[string]string{
		"/a/b.spice":     "/a/b.spice",
		"/a dir/b.spice": "{/a dir/b.spice}",
		"/a/$x.v":        "{/a/$x.v}",
		"":               "{}",
	}
	for in, want := range tests {
		if got := tclWord(in); got != want {
			t.Errorf("tclWord(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCompare(t *testing.T) {
	out := t.TempDir()
	logPath := filepath.Join(out, "top-gds-vs-v.log")
	rec := tool.NewRecorder()
	rec.Handle("netgen", func(cmd tool.Command) tool.Reply {
		return tool.Reply{Output: "Reading netlist file top.spice\nCircuits match uniquely.\n"}
	})

	var console strings.Builder
	c := &Comparator{Runner: rec}
	if err := c.Compare(context.Background(), "/out/setup.tcl", logPath, &console); err != nil {
		t.Fatalf("Compare failed: %v", err)
	}

	call := rec.CallsTo("netgen")[0]
	if !reflect.DeepEqual(call.Args, []string{"-batch", "source", "/out/setup.tcl"}) {
		t.Errorf("args = %v", call.Args)
	}
	if call.Env[EnvColumns] != "60" {
		t.Errorf("%s = %q", EnvColumns, call.Env[EnvColumns])
	}
	if !strings.Contains(console.String(), "Circuits match uniquely.") {
		t.Errorf("console = %q", console.String())
	}
	logData, _ := os.ReadFile(logPath)
	if string(logData) != console.String() {
		t.Errorf("log %q differs from console %q", logData, console.String())
	}
}

func TestCompareFailure(t *testing.T) {
	rec := tool.NewRecorder()
	rec.Handle("netgen", func(cmd tool.Command) tool.Reply {
		return tool.Reply{Output: "Error: no such file\n", ExitCode: 1}
	})
	c := &Comparator{Runner: rec, Columns: 100}
	err := c.Compare(context.Background(), "s.tcl", filepath.Join(t.TempDir(), "x.log"), nil)
	if !errors.Is(err, tool.ErrInvocation) {
		t.Fatalf("expected invocation error, got %v", err)
	}
	if rec.CallsTo("netgen")[0].Env[EnvColumns] != "100" {
		t.Errorf("columns override ignored")
	}
}

func TestReadReport(t *testing.T) {
	dir := t.TempDir()
	good := `[{"name": ["top", "top"], "devices": [[["nfet", 4]], [["nfet", 4]]], "nets": [12, 12], "badnets": [], "badelements": [], "properties": [], "pins": [["A"], ["A"]]}]`
	bad := `[{"name": ["inv", "inv"], "nets": [3, 3]}, {"name": ["top", "top"], "nets": [12, 11], "badnets": [[["n1"], ["n2"]]]}]`

	tests := []struct {
		name     string
		data     string
		match    bool
		mismatch []string
	}{
		{"clean", good, true, nil},
		{"mismatch", bad, false, []string{"top vs top"}},
		{"empty", `[]`, false, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".json")
			if err := os.WriteFile(path, []byte(tt.data), 0o644); err != nil {
				t.Fatal(err)
			}
			r, err := ReadReport(path)
			if err != nil {
				t.Fatalf("ReadReport failed: %v", err)
			}
			if r.Match() != tt.match {
				t.Errorf("Match() = %v, want %v", r.Match(), tt.match)
			}
			if !reflect.DeepEqual(r.Mismatched(), tt.mismatch) {
				t.Errorf("Mismatched() = %v, want %v", r.Mismatched(), tt.mismatch)
			}
		})
	}

	if ReportJSONPath("/out/a-gds-vs-v.out") != "/out/a-gds-vs-v.json" {
		t.Errorf("ReportJSONPath = %s", ReportJSONPath("/out/a-gds-vs-v.out"))
	}
}
