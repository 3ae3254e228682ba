/*
Varfuckc compiles a varfuck source file to target-ISA program text.

It reads the surface-language source named by -s/--source, compiles it, and
writes the rendered target-ISA text to stdout or to the file named by
-o/--output.

Usage:

	varfuckc [flags]

The flags are:

	-s, --source FILE
		The varfuck source file to compile. Required.

	-o, --output FILE
		Write the compiled program here instead of stdout.

	-c, --config FILE
		Read ambient configuration from this TOML file. Defaults to
		"varfuck.toml" in the current directory; a missing file is not an
		error.

	-d, --debug
		Print a trace of the rendered program's size to stderr, overriding
		the config file's debug setting.
*/
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"

	"github.com/dekarrin/varfuck/internal/bundle"
	"github.com/dekarrin/varfuck/internal/config"
	"github.com/dekarrin/varfuck/internal/parser"
	"github.com/dekarrin/varfuck/internal/tape"
	"github.com/dekarrin/varfuck/internal/varfuck"
)

const (
	ExitSuccess = iota
	ExitInitError
	ExitCompileError
	ExitIOError
)

// errMessageWidth is the wrap width for multi-line compile errors.
const errMessageWidth = 80

var (
	returnCode int     = ExitSuccess
	sourceFile *string = pflag.StringP("source", "s", "", "The varfuck source file to compile")
	outputFile *string = pflag.StringP("output", "o", "", "Write the compiled program here instead of stdout")
	configFile *string = pflag.StringP("config", "c", "varfuck.toml", "Ambient configuration file")
	debugFlag  *bool   = pflag.BoolP("debug", "d", false, "Print a size trace to stderr")
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
	log.SetPrefix(fmt.Sprintf("[varfuckc %s] ", runID))

	if *sourceFile == "" {
		fmt.Fprintln(os.Stderr, "ERROR: -s/--source is required")
		returnCode = ExitInitError
		return
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		returnCode = ExitInitError
		return
	}
	debug := *debugFlag || cfg.Debug

	src, err := os.ReadFile(*sourceFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", errors.Wrap(err, "reading source file"))
		returnCode = ExitIOError
		return
	}

	sourceHash := bundle.HashSource(string(src))

	var cachePath string
	if cfg.CacheDir != "" {
		if p, err := bundle.CachePath(cfg.CacheDir, *sourceFile); err == nil {
			cachePath = p
		} else if debug {
			log.Printf("cache path resolution failed: %s", err)
		}
	}

	hit := false
	var cached bundle.CompiledProgram
	if cachePath != "" {
		if c, err := bundle.Load(cachePath); err == nil && c.SourceHash == sourceHash {
			cached = c
			hit = true
		}
	}

	var (
		code    string
		minSize int
	)
	if hit {
		if debug {
			log.Printf("cache hit for %s: skipping recompilation", *sourceFile)
		}
		code = cached.Code
		minSize = cached.MinTapeSize
	} else {
		code, err = varfuck.Compile(string(src))
		if err != nil {
			var synErr *parser.SyntaxError
			if errors.As(err, &synErr) {
				fmt.Fprintf(os.Stderr, "ERROR: %s\n", synErr.FullMessage(errMessageWidth))
			} else {
				fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
			}
			returnCode = ExitCompileError
			return
		}

		prog, err := tape.Parse(code)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
			returnCode = ExitCompileError
			return
		}
		minSize = tape.MinTapeSize(prog)
		if debug {
			log.Printf("compiled %s: %d bytes of program text, minimum tape size %d", *sourceFile, len(code), minSize)
		}

		if cachePath != "" {
			saveErr := bundle.Save(cachePath, bundle.CompiledProgram{
				Code:        code,
				MinTapeSize: minSize,
				SourceHash:  sourceHash,
			})
			if saveErr != nil && debug {
				log.Printf("cache write failed: %s", saveErr)
			}
		}
	}

	out := os.Stdout
	if *outputFile != "" {
		f, err := os.Create(*outputFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %s\n", errors.Wrap(err, "creating output file"))
			returnCode = ExitIOError
			return
		}
		defer f.Close()
		out = f
	}
	fmt.Fprintln(out, code)
}
