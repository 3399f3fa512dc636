package maincmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/mna/mainer"
	"github.com/sirupsen/logrus"
	"github.com/whimbree/clox/lang/compiler"
	"github.com/whimbree/clox/lang/machine"
)

func (c *Cmd) newVM(stdio mainer.Stdio) *machine.VM {
	log := logrus.New()
	log.SetOutput(stdio.Stderr)
	switch {
	case c.TraceExecution:
		log.SetLevel(logrus.TraceLevel)
	case c.LogGC:
		log.SetLevel(logrus.DebugLevel)
	}
	cfg := machine.NewConfig()
	cfg.StressGC = c.StressGC
	cfg.LogGC = c.LogGC
	cfg.PrintCode = c.PrintCode
	cfg.TraceExecution = c.TraceExecution
	return machine.New(cfg, stdio.Stdout, logrus.NewEntry(log))
}

// runFile reads, compiles, and runs a single script, mapping the result to
// the exit-code contract described in maincmd.go.
func (c *Cmd) runFile(ctx context.Context, stdio mainer.Stdio, path string) mainer.ExitCode {
	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(stdio.Stderr, "%s: %s\n", path, err)
		return exitIOErr
	}

	vm := c.newVM(stdio)
	if err := vm.Interpret(string(src)); err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return exitCodeFor(err)
	}
	return exitOK
}

func exitCodeFor(err error) mainer.ExitCode {
	var errs compiler.ErrorList
	if errors.As(err, &errs) {
		return exitDataErr
	}
	var rerr *machine.RuntimeError
	if errors.As(err, &rerr) {
		return exitSoftware
	}
	return exitSoftware
}

// repl runs an interactive read-eval-print loop: each line is compiled and
// run against the same VM, so a variable, function, or class declared on
// one line is visible to every line after it. A compile or runtime error
// on one line is reported but does not end the session.
func (c *Cmd) repl(ctx context.Context, stdio mainer.Stdio) mainer.ExitCode {
	vm := c.newVM(stdio)
	scanner := bufio.NewScanner(stdio.Stdin)

	fmt.Fprint(stdio.Stdout, "> ")
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return exitOK
		default:
		}

		line := scanner.Text()
		if err := vm.Interpret(line); err != nil {
			fmt.Fprintln(stdio.Stderr, err)
		}
		fmt.Fprint(stdio.Stdout, "> ")
	}
	fmt.Fprintln(stdio.Stdout)
	return exitOK
}
