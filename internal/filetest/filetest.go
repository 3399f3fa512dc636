// Package filetest drives golden-file comparisons for fixture-based tests:
// given a directory of input files, run each one through whatever the
// caller wants to test, then diff the result against a sibling file holding
// the expected output. Setting the update flag a test package passes in
// (lang/machine's is -test.update-machine-tests), or this package's blanket
// -test.update-all-tests, rewrites the golden files instead of
// comparing against them, which is how a fixture's expected output gets
// regenerated after an intentional behavior change.
package filetest

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/kylelemons/godebug/diff"
)

var updateAllGoldens = flag.Bool("test.update-all-tests", false, "update every golden file registered by any Golden in this test binary")

// Fixture describes one input file a golden-file test runs against.
type Fixture struct {
	os.FileInfo
}

// SourceFiles lists the regular files directly under dir whose name ends in
// ext (a leading dot is added if missing), in directory order. Each is
// wrapped as a Fixture for Golden.Check to later locate its matching golden
// file.
func SourceFiles(t *testing.T, dir, ext string) []Fixture {
	t.Helper()

	if ext != "" && ext[0] != '.' {
		ext = "." + ext
	}

	dents, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("filetest: reading %s: %s", dir, err)
	}

	fixtures := make([]Fixture, 0, len(dents))
	for _, dent := range dents {
		if !dent.Type().IsRegular() || (ext != "" && filepath.Ext(dent.Name()) != ext) {
			continue
		}
		fi, err := dent.Info()
		if err != nil {
			t.Fatalf("filetest: stat %s: %s", dent.Name(), err)
		}
		fixtures = append(fixtures, Fixture{FileInfo: fi})
	}
	return fixtures
}

// Golden binds a golden-file suffix and update flag to a directory, so a
// test package only has to state those once and then call Check per
// fixture/label pair instead of threading them through every call.
type Golden struct {
	Dir    string
	Ext    string // golden-file suffix, including the leading dot, e.g. ".want"
	Update *bool  // when *Update is true, Check overwrites the golden file instead of comparing
}

// DiffOutput checks f's stdout-equivalent output against dir/f.Name()+".want".
func DiffOutput(t *testing.T, f Fixture, output, dir string, update *bool) {
	t.Helper()
	Golden{Dir: dir, Ext: ".want", Update: update}.Check(t, f, "output", output)
}

// DiffErrors checks f's error output against dir/f.Name()+".err".
func DiffErrors(t *testing.T, f Fixture, output, dir string, update *bool) {
	t.Helper()
	Golden{Dir: dir, Ext: ".err", Update: update}.Check(t, f, "errors", output)
}

// Check compares got against the golden file for f, failing the test with a
// unified diff on mismatch. label only affects the failure message (e.g.
// "output" vs. "errors") so a single Golden can be reused for more than one
// kind of comparison against the same fixture.
func (g Golden) Check(t *testing.T, f Fixture, label, got string) {
	t.Helper()

	goldPath := filepath.Join(g.Dir, f.Name()+g.Ext)

	if (g.Update != nil && *g.Update) || *updateAllGoldens {
		if err := os.WriteFile(goldPath, []byte(got), 0o600); err != nil {
			t.Fatalf("filetest: writing golden file %s: %s", goldPath, err)
		}
		return
	}

	wantBytes, err := os.ReadFile(goldPath)
	if err != nil && !os.IsNotExist(err) {
		t.Fatalf("filetest: reading golden file %s: %s", goldPath, err)
	}
	want := string(wantBytes)

	if testing.Verbose() {
		t.Logf("%s got %s:\n%s", f.Name(), label, got)
	}
	if patch := diff.Diff(want, got); patch != "" {
		if testing.Verbose() {
			t.Logf("%s want %s:\n%s", f.Name(), label, want)
		}
		t.Errorf("%s: %s mismatch:\n%s", f.Name(), label, patch)
	}
}
