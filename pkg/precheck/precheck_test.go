package precheck

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/OpenTraceLab/OpenTraceLVS/pkg/tool"
)

func TestEnsureClonesOnce(t *testing.T) {
	root := filepath.Join(t.TempDir(), "mpw_precheck")
	rec := tool.NewRecorder()
	rec.Handle("git", func(cmd tool.Command) tool.Reply {
		os.MkdirAll(cmd.Args[len(cmd.Args)-1], 0o755)
		return tool.Reply{Output: "Cloning into 'mpw_precheck'...\n"}
	})
	h := &Harness{Runner: rec, Root: root}

	for i := 0; i < 2; i++ {
		if err := h.Ensure(context.Background()); err != nil {
			t.Fatalf("Ensure failed: %v", err)
		}
	}
	calls := rec.CallsTo("git")
	if len(calls) != 1 {
		t.Fatalf("git calls = %d, want 1", len(calls))
	}
	want := []string{"clone", DefaultRepoURL, root}
	if !reflect.DeepEqual(calls[0].Args, want) {
		t.Errorf("args = %v, want %v", calls[0].Args, want)
	}
}

func TestDRC(t *testing.T) {
	root := t.TempDir()
	out := filepath.Join(t.TempDir(), "drc")
	rec := tool.NewRecorder()
	h := &Harness{Runner: rec, Root: root}

	if err := h.DRC(context.Background(), "/designs/top.gds", out, "sky130B"); err != nil {
		t.Fatalf("DRC failed: %v", err)
	}
	for _, dir := range []string{"logs", "outputs/reports"} {
		if info, err := os.Stat(filepath.Join(out, dir)); err != nil || !info.IsDir() {
			t.Errorf("%s not created", dir)
		}
	}
	call := rec.CallsTo("python3")[0]
	want := []string{
		filepath.Join(root, "checks/drc_checks/klayout/klayout_gds_drc_check.py"),
		"-g", "/designs/top.gds", "-o", out, "-f", "-b", "-og", "-p", "sky130B",
	}
	if !reflect.DeepEqual(call.Args, want) {
		t.Errorf("args = %v\nwant %v", call.Args, want)
	}
	if len(rec.CallsTo("git")) != 0 {
		t.Errorf("existing checkout was cloned again")
	}
}

func TestLVS(t *testing.T) {
	tests := []struct {
		name string
		tag  string
		tail []string
	}{
		{"no tag", "", []string{"-p", "/pdk/sky130A"}},
		{"tag", "mpw-9", []string{"-p", "/pdk/sky130A", "-t", "mpw-9"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			out := t.TempDir()
			rec := tool.NewRecorder()
			h := &Harness{Runner: rec, Root: root, Python: "/usr/bin/python3"}
			err := h.LVS(context.Background(), LVSOptions{
				DesignName: "user_project_wrapper",
				DesignDir:  "/caravel",
				OutputDir:  out,
				ConfigFile: "/caravel/lvs_config.json",
				PDKPath:    "/pdk/sky130A",
				Tag:        tt.tag,
			})
			if err != nil {
				t.Fatalf("LVS failed: %v", err)
			}
			call := rec.CallsTo("python3")[0]
			if call.Name != "/usr/bin/python3" || call.Dir != root || call.Env["PYTHONPATH"] != root {
				t.Errorf("unexpected command %+v", call)
			}
			if !reflect.DeepEqual(call.Args[len(call.Args)-len(tt.tail):], tt.tail) {
				t.Errorf("args = %v", call.Args)
			}
			if _, err := os.Stat(filepath.Join(out, "user_project_wrapper")); err != nil {
				t.Errorf("design output directory not created")
			}
		})
	}
}

func TestXOR(t *testing.T) {
	root := t.TempDir()
	rec := tool.NewRecorder()
	h := &Harness{Runner: rec, Root: root, Threads: 4}

	res, err := h.XOR(context.Background(), "top", "/a/top.gds", "/b/top.gds")
	if err != nil {
		t.Fatalf("XOR failed: %v", err)
	}
	if res.Layout != "/a/top-xor.gds" || res.Total != "/a/xor_output.txt" {
		t.Errorf("unexpected result %+v", res)
	}
	call := rec.CallsTo("klayout")[0]
	if call.Dir != filepath.Join(root, "checks", "xor_check") {
		t.Errorf("dir = %s", call.Dir)
	}
	args := strings.Join(call.Args, " ")
	for _, want := range []string{"-r xor.rb.drc", "-rd thr=4", "-rd top_cell=top", "-rd a=/a/top.gds", "-rd b=/b/top.gds", "-rd ol=/a/top-xor.gds", "-rd ext=gds", "-zz"} {
		if !strings.Contains(args, want) {
			t.Errorf("args %q missing %q", args, want)
		}
	}
}
