package machine_test

import (
	"bytes"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/whimbree/clox/internal/filetest"
	"github.com/whimbree/clox/lang/machine"
)

var updateGolden = flag.Bool("test.update-machine-tests", false, "update golden output files in testdata/")

// TestGolden runs every testdata/*.lox script to completion and diffs its
// stdout against the matching testdata/*.lox.want golden file, the way the
// end-to-end scenarios (closures, inheritance, initializers, recursion,
// string handling) are meant to be exercised together rather than
// unit-by-unit.
func TestGolden(t *testing.T) {
	for _, fi := range filetest.SourceFiles(t, "testdata", ".lox") {
		fi := fi
		t.Run(fi.Name(), func(t *testing.T) {
			src, err := os.ReadFile(filepath.Join("testdata", fi.Name()))
			if err != nil {
				t.Fatal(err)
			}

			var stdout bytes.Buffer
			vm := machine.New(machine.NewConfig(), &stdout, nil)
			if err := vm.Interpret(string(src)); err != nil {
				t.Fatalf("unexpected error running %s: %s", fi.Name(), err)
			}

			filetest.DiffOutput(t, fi, stdout.String(), "testdata", updateGolden)
		})
	}
}
