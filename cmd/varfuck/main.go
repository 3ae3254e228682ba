/*
Varfuck compiles and runs a varfuck source file.

It reads the surface-language source named by -s/--source, compiles it, and
executes the result on a tape machine, reading "," input from stdin and
writing "." output to stdout. With -i/--interactive, it instead starts a
readline-backed REPL that compiles and runs each entered line as a complete
program of its own; nothing declared on one line carries over to the next.

Usage:

	varfuck [flags]

The flags are:

	-s, --source FILE
		The varfuck source file to compile and run.

	-i, --interactive
		Start an interactive read-eval-print loop instead of running a
		source file.

	-t, --tape-size N
		Override the tape size the program runs with. Zero (the default)
		computes the program's minimum via a structural walk.

	-c, --config FILE
		Read ambient configuration from this TOML file.
*/
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/chzyer/readline"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"

	"github.com/dekarrin/varfuck/internal/config"
	"github.com/dekarrin/varfuck/internal/tape"
	"github.com/dekarrin/varfuck/internal/varfuck"
)

const (
	ExitSuccess = iota
	ExitInitError
	ExitCompileError
	ExitRunError
)

var (
	returnCode      int     = ExitSuccess
	sourceFile      *string = pflag.StringP("source", "s", "", "The varfuck source file to compile and run")
	interactiveFlag *bool   = pflag.BoolP("interactive", "i", false, "Start an interactive REPL")
	tapeSizeFlag    *int    = pflag.IntP("tape-size", "t", 0, "Override the tape size (0 computes the minimum)")
	configFile      *string = pflag.StringP("config", "c", "varfuck.toml", "Ambient configuration file")
)

func main() {
	defer func() {
		if panicErr := recover(); panicErr != nil {
			panic(fmt.Sprintf("unrecoverable panic occurred: %v", panicErr))
		} else {
			os.Exit(returnCode)
		}
	}()

	pflag.Parse()
	runID := uuid.New()
	log.SetPrefix(fmt.Sprintf("[varfuck %s] ", runID))

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		returnCode = ExitInitError
		return
	}

	if *interactiveFlag {
		if err := runREPL(cfg); err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
			returnCode = ExitRunError
		}
		return
	}

	if *sourceFile == "" {
		fmt.Fprintln(os.Stderr, "ERROR: -s/--source is required outside of -i/--interactive mode")
		returnCode = ExitInitError
		return
	}

	src, err := os.ReadFile(*sourceFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", errors.Wrap(err, "reading source file"))
		returnCode = ExitInitError
		return
	}

	if err := compileAndRun(string(src), tapeSize(cfg)); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		returnCode = ExitRunError
	}
}

func tapeSize(cfg config.Config) int {
	if *tapeSizeFlag != 0 {
		return *tapeSizeFlag
	}
	return cfg.TapeSize
}

func compileAndRun(source string, size int) error {
	code, err := varfuck.Compile(source)
	if err != nil {
		return err
	}
	prog, err := tape.Parse(code)
	if err != nil {
		return err
	}
	min := tape.MinTapeSize(prog)
	if size <= 0 {
		size = min
	} else if size < min {
		return &tape.ResourceError{Msg: fmt.Sprintf(
			"declared tape size %d is smaller than the program's computed minimum %d", size, min,
		)}
	}
	m := tape.NewMachine(size, os.Stdin, os.Stdout)
	return m.Run(prog)
}

// runREPL mirrors internal/input/input.go's readline-backed interactive
// reader: each line is treated as a complete varfuck program (typically a
// handful of const/macro definitions followed by the entry call statement)
// and compiled and run independently, the way a REPL for a language with no
// incremental-compile story has to work.
func runREPL(cfg config.Config) error {
	rl, err := readline.NewEx(&readline.Config{Prompt: "varfuck> "})
	if err != nil {
		return errors.Wrap(err, "starting readline")
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err != nil { // io.EOF or readline.ErrInterrupt
			return nil
		}
		if line == "" {
			continue
		}
		if runErr := compileAndRun(line, tapeSize(cfg)); runErr != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %s\n", runErr.Error())
		}
	}
}
