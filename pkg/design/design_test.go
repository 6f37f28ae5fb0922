package design

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestNewClassifiesByExtension(t *testing.T) {
	tests := []struct {
		path      string
		view      View
		kind      Kind
		extract   Extraction
		translate bool
	}{
		{"chip.gds", ViewGDS, KindGeometry, ExtractYes, false},
		{"chip.mag", ViewMag, KindSymbolic, ExtractYes, false},
		{"chip.spice", ViewSpice, KindTransistor, ExtractNo, false},
		{"chip.cdl", ViewCDL, KindTransistor, ExtractNo, false},
		{"chip.v", ViewV, KindStructural, ExtractNo, true},
		{"chip.def", View("def"), KindUnsupported, ExtractUnsupported, false},
		{"chip.lef", View("lef"), KindUnsupported, ExtractUnsupported, false},
		{"chip", View(""), KindUnsupported, ExtractUnsupported, false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			d, err := New(tt.path)
			if err != nil {
				t.Fatalf("New failed: %v", err)
			}
			if d.View != tt.view {
				t.Errorf("view = %q, want %q", d.View, tt.view)
			}
			if d.Kind != tt.kind {
				t.Errorf("kind = %s, want %s", d.Kind, tt.kind)
			}
			if d.Extract != tt.extract {
				t.Errorf("extract = %s, want %s", d.Extract, tt.extract)
			}
			if d.Translate != tt.translate {
				t.Errorf("translate = %v, want %v", d.Translate, tt.translate)
			}
			if d.Name != "chip" {
				t.Errorf("name = %q, want chip", d.Name)
			}
			if !filepath.IsAbs(d.Path) {
				t.Errorf("path %q is not absolute", d.Path)
			}
		})
	}
}

func TestNameKeepsInnerDots(t *testing.T) {
	d, err := New("/tmp/user_proj.final.gds")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if d.Name != "user_proj.final" || d.View != ViewGDS {
		t.Errorf("got name=%q view=%q", d.Name, d.View)
	}
}

func TestRequireExtraction(t *testing.T) {
	gds, _ := New("a.gds")
	if ok, err := gds.RequireExtraction(); err != nil || !ok {
		t.Errorf("gds: got (%v, %v), want (true, nil)", ok, err)
	}

	v, _ := New("a.v")
	if ok, err := v.RequireExtraction(); err != nil || ok {
		t.Errorf("v: got (%v, %v), want (false, nil)", ok, err)
	}

	for _, name := range []string{"a.def", "a.oas", "a.txt"} {
		d, _ := New(name)
		_, err := d.RequireExtraction()
		if !errors.Is(err, ErrUnsupportedFormat) {
			t.Errorf("%s: expected ErrUnsupportedFormat, got %v", name, err)
		}
	}
}

func TestNetlistPath(t *testing.T) {
	out := "/out"
	gds, _ := New("/designs/top.gds")
	if got := gds.NetlistPath(out); got != "/out/top-gds-extracted.spice" {
		t.Errorf("gds netlist path = %s", got)
	}
	sp, _ := New("/designs/top.spice")
	if got := sp.NetlistPath(out); got != "/designs/top.spice" {
		t.Errorf("spice netlist path = %s", got)
	}
}
