// Copyright (C) 2020 Markus L. Noga
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/mlnoga/footprint/internal/bounds"
	"github.com/mlnoga/footprint/internal/logging"
	"github.com/mlnoga/footprint/internal/ops"
)

func TestParseTrim(t *testing.T) {
	cases := map[string]bounds.Trim{
		"":           {},
		"3":          {Left: 3, Right: 3, Bottom: 3, Top: 3},
		"1, 2,3 ,4":  {Left: 1, Right: 2, Bottom: 3, Top: 4},
		" 0,0,0,10 ": {Top: 10},
	}
	for s, want := range cases {
		got, err := parseTrim(s)
		if err != nil || got != want {
			t.Errorf("parseTrim(%q)=%v, %v want %v", s, got, err, want)
		}
	}
	for _, s := range []string{"1,2", "a", "1,2,3,4,5"} {
		if _, err := parseTrim(s); err == nil {
			t.Errorf("parseTrim(%q): expected error", s)
		}
	}
}

func TestParseClip(t *testing.T) {
	c, err := parseClip("10, 20,,45")
	if err != nil {
		t.Fatalf("parseClip: %s", err.Error())
	}
	if c.LonMin != 10 || c.LonMax != 20 || !math.IsNaN(c.LatMin) || c.LatMax != 45 {
		t.Errorf("got %v", c)
	}
	if c, err := parseClip(""); c != nil || err != nil {
		t.Errorf("empty: got %v %v", c, err)
	}
	if _, err := parseClip("1,2,3"); !errors.Is(err, bounds.ErrConfiguration) {
		t.Errorf("three values: got %v, want configuration error", err)
	}
	if _, err := parseClip("1,x,3,4"); err == nil {
		t.Errorf("expected error for invalid number")
	}
}

func TestParseGroup(t *testing.T) {
	g, err := parseGroup("r/*.fits, r2/*.fits@8,8,4,4")
	if err != nil {
		t.Fatalf("parseGroup: %s", err.Error())
	}
	want := ops.FileGroup{Patterns: []string{"r/*.fits", "r2/*.fits"}, Trim: bounds.Trim{Left: 8, Right: 8, Bottom: 4, Top: 4}}
	if len(g.Patterns) != 2 || g.Patterns[0] != want.Patterns[0] || g.Patterns[1] != want.Patterns[1] || g.Trim != want.Trim {
		t.Errorf("got %v want %v", g, want)
	}
	if g, err := parseGroup("g/*.fits"); err != nil || g.Trim != (bounds.Trim{}) || len(g.Patterns) != 1 {
		t.Errorf("no trim: got %v %v", g, err)
	}
	for _, s := range []string{"@2", "a.fits@1,2"} {
		if _, err := parseGroup(s); err == nil {
			t.Errorf("parseGroup(%q): expected error", s)
		}
	}
}

// Writes two source headers and a target header into a fresh working directory
func setupDir(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	old, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %s", err.Error())
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir: %s", err.Error())
	}
	t.Cleanup(func() { os.Chdir(old) })

	if err := os.Mkdir("lights", 0o755); err != nil {
		t.Fatalf("Mkdir: %s", err.Error())
	}
	files := map[string]float64{filepath.Join("lights", "a.hdr"): 100, filepath.Join("lights", "b.hdr"): 100.05, "target.hdr": 100.025}
	for name, crval1 := range files {
		cards := []string{
			"SIMPLE  = T", "NAXIS   = 2", "NAXIS1  = 100", "NAXIS2  = 80",
			"CTYPE1  = 'RA---TAN'", "CTYPE2  = 'DEC--TAN'", "CRPIX1  = 50.5", "CRPIX2  = 40.5",
			fmt.Sprintf("CRVAL1  = %g", crval1), "CRVAL2  = 20.0", "CDELT1  = -0.001", "CDELT2  = 0.001", "END",
		}
		if err := os.WriteFile(name, []byte(strings.Join(cards, "\n")), 0o644); err != nil {
			t.Fatalf("WriteFile: %s", err.Error())
		}
	}
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root, a := newRootCmd()
	defer a.close()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestBoundsCommand(t *testing.T) {
	setupDir(t)
	out, err := run(t, "bounds", "--target", "target.hdr", "--trim", "5", "--json", "lights/*.hdr")
	if err != nil {
		t.Fatalf("bounds: %s", err.Error())
	}
	var fps []ops.Footprint
	if err := json.Unmarshal([]byte(out), &fps); err != nil {
		t.Fatalf("Unmarshal %q: %s", out, err.Error())
	}
	if len(fps) != 2 || len(fps[0].Boxes) != 1 || fps[0].FileName != filepath.Join("lights", "a.hdr") {
		t.Fatalf("got %v", fps)
	}

	if _, err := run(t, "bounds", "lights/*.hdr"); err == nil {
		t.Errorf("expected error without target")
	}
	if _, err := run(t, "bounds", "--target", "target.hdr", "--trim", "60", "lights/*.hdr"); err == nil {
		t.Errorf("expected error for excessive trim")
	}
}

func TestCollectiveCommand(t *testing.T) {
	setupDir(t)
	t.Setenv("FOOTPRINT_TARGET", "target.hdr")
	out, err := run(t, "collective", "--group", "lights/a.hdr@5", "--group", "lights/b.hdr@5", "--json")
	if err != nil {
		t.Fatalf("collective: %s", err.Error())
	}
	var res struct {
		Box bounds.Box `json:"box"`
	}
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("Unmarshal %q: %s", out, err.Error())
	}
	if res.Box.XMin < -22 || res.Box.XMin > -18 || res.Box.XMax < 118 || res.Box.XMax > 122 {
		t.Errorf("got %v", res.Box)
	}
	if _, err := run(t, "collective"); err == nil {
		t.Errorf("expected error without files")
	}
}

func TestConfigFile(t *testing.T) {
	setupDir(t)
	cfg := "target: target.hdr\ntrim: \"5\"\nlog:\n  level: warn\n"
	if err := os.WriteFile("footprint.yaml", []byte(cfg), 0o644); err != nil {
		t.Fatalf("WriteFile: %s", err.Error())
	}
	out, err := run(t, "--config", "footprint.yaml", "bounds", "lights/a.hdr")
	if err != nil {
		t.Fatalf("bounds: %s", err.Error())
	}
	fields := strings.Fields(out)
	if len(fields) != 6 || fields[0] != "0" {
		t.Errorf("got %q", out)
	}
	if _, err := run(t, "--config", "missing.yaml", "bounds", "lights/a.hdr"); err == nil {
		t.Errorf("expected error for missing config file")
	}
}

func TestPreviewCommand(t *testing.T) {
	setupDir(t)
	if _, err := run(t, "preview", "--target", "target.hdr", "-o", "fp.png", "lights/*.hdr"); err != nil {
		t.Fatalf("preview: %s", err.Error())
	}
	if st, err := os.Stat("fp.png"); err != nil || st.Size() == 0 {
		t.Errorf("preview file: %v", err)
	}
}

func TestPreviewToStdout(t *testing.T) {
	setupDir(t)
	out, err := run(t, "preview", "--target", "target.hdr", "-o", "-", "lights/*.hdr")
	if err != nil {
		t.Fatalf("preview: %s", err.Error())
	}
	if !strings.HasPrefix(out, "\x89PNG") {
		t.Errorf("expected PNG on stdout, got %d bytes", len(out))
	}
	if _, err := os.Stat("footprint.png"); err == nil {
		t.Errorf("wrote default file instead of stdout")
	}
}

func TestGinOutputLogged(t *testing.T) {
	var buf bytes.Buffer
	l, err := logging.New(logging.Config{Level: "debug", Console: &buf, NoColor: true})
	if err != nil {
		t.Fatalf("logging.New: %s", err.Error())
	}
	oldOut, oldErr := gin.DefaultWriter, gin.DefaultErrorWriter
	t.Cleanup(func() { gin.DefaultWriter, gin.DefaultErrorWriter = oldOut, oldErr })

	a := &app{log: l}
	a.routeGinOutput()
	fmt.Fprintln(gin.DefaultWriter, "route registered")
	fmt.Fprintln(gin.DefaultErrorWriter, "panic recovered")
	for _, want := range []string{"route registered", "panic recovered"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("log %q does not contain %q", buf.String(), want)
		}
	}
}

func TestVersionAndLegal(t *testing.T) {
	setupDir(t)
	out, err := run(t, "version")
	if err != nil || !strings.Contains(out, version) {
		t.Errorf("version: got %q %v", out, err)
	}
	out, err = run(t, "legal")
	if err != nil || !strings.Contains(out, "gpl-3.0") {
		t.Errorf("legal: got %q %v", out, err)
	}
}
