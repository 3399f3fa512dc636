// Package maincmd implements the command-line front end: flag parsing, the
// REPL and script-file entry points, and the exit-code contract, kept
// separate from package main so it can be exercised without spawning a
// process.
package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"
)

const binName = "clox"

var (
	shortUsage = fmt.Sprintf(`
usage: %s [<option>...] [<path>]
Run '%[1]s --help' for details.
`, binName)

	longUsage = fmt.Sprintf(`usage: %s [<option>...] [<path>]
       %[1]s -h|--help
       %[1]s -v|--version

Compiler and virtual machine for the clox scripting language. Given a
<path>, compiles and runs that file. With no arguments, starts an
interactive REPL that shares global and class declarations across lines.

Valid flag options are:
       -h --help                 Show this help and exit.
       -v --version              Print version and exit.
          --stress-gc            Collect garbage before every allocation.
          --log-gc               Trace collections to stderr.
          --print-code           Disassemble every compiled function to stderr.
          --trace-execution      Trace every dispatched instruction and the
                                  value stack to stderr.
`, binName)
)

// Exit codes follow the sysexits.h convention: a clean run is 0, a
// compile-time error is 65 (EX_DATAERR), an uncaught runtime error is 70
// (EX_SOFTWARE), and failing to even read the given script is 74
// (EX_IOERR).
const (
	exitOK       mainer.ExitCode = 0
	exitDataErr  mainer.ExitCode = 65
	exitSoftware mainer.ExitCode = 70
	exitIOErr    mainer.ExitCode = 74
)

// Cmd is the command's flag-bound state, populated by mainer.Parser.Parse
// before Main dispatches to the REPL or a script run.
type Cmd struct {
	BuildVersion string
	BuildDate    string

	Help           bool `flag:"h,help"`
	Version        bool `flag:"v,version"`
	StressGC       bool `flag:"stress-gc"`
	LogGC          bool `flag:"log-gc"`
	PrintCode      bool `flag:"print-code"`
	TraceExecution bool `flag:"trace-execution"`

	args []string
}

func (c *Cmd) SetArgs(args []string)    { c.args = args }
func (c *Cmd) SetFlags(map[string]bool) {}

func (c *Cmd) Validate() error {
	if c.Help || c.Version {
		return nil
	}
	if len(c.args) > 1 {
		return fmt.Errorf("usage: %s [<path>]", binName)
	}
	return nil
}

// Main parses args, handles -h/-v, and otherwise runs the REPL or the
// single script path given, translating the outcome into the exit code
// described by the exitXxx constants.
func (c *Cmd) Main(args []string, stdio mainer.Stdio) mainer.ExitCode {
	p := mainer.Parser{EnvVars: true, EnvPrefix: "CLOX_"}
	if err := p.Parse(args, c); err != nil {
		fmt.Fprintf(stdio.Stderr, "invalid arguments: %s\n%s", err, shortUsage)
		return mainer.InvalidArgs
	}

	switch {
	case c.Help:
		fmt.Fprint(stdio.Stdout, longUsage)
		return exitOK
	case c.Version:
		fmt.Fprintf(stdio.Stdout, "%s %s %s\n", binName, c.BuildVersion, c.BuildDate)
		return exitOK
	}

	ctx := mainer.CancelOnSignal(context.Background(), os.Interrupt)

	if len(c.args) == 0 {
		return c.repl(ctx, stdio)
	}
	return c.runFile(ctx, stdio, c.args[0])
}
