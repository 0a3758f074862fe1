// Command ravm is the thin driver around the VM core: load a .ra
// source or .rsi archive, run it to completion, and on an uncaught
// error render a diagnostic block and exit non-zero (spec §6 / §6.4).
package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"ravm/internal/codec"
	"ravm/internal/diagnostic"
	"ravm/internal/engine"
	"ravm/internal/opcode"
	"ravm/internal/parser"
)

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		log.Fatal("usage: ravm [-profile=debug|testing|release|minified] [-link-dir=DIR] [-v] <file.ra|file.rsi>")
	}

	profile := codec.Debug
	linkDir := ""
	verbose := false
	var filename string
	for _, arg := range args {
		switch {
		case strings.HasPrefix(arg, "-profile="):
			p, err := parseProfile(strings.TrimPrefix(arg, "-profile="))
			if err != nil {
				log.Fatal(err)
			}
			profile = p
		case strings.HasPrefix(arg, "-link-dir="):
			linkDir = strings.TrimPrefix(arg, "-link-dir=")
		case arg == "-v" || arg == "-verbose":
			verbose = true
		default:
			filename = arg
		}
	}
	if filename == "" {
		log.Fatal("No filename provided")
	}

	table := opcode.NewTable()
	var eng *engine.Engine
	var status opcode.Status

	switch {
	case strings.HasSuffix(filename, ".rsi"):
		f, err := os.Open(filename)
		if err != nil {
			log.Fatalf("could not open file: %v", err)
		}
		defer f.Close()
		manifest, set, err := codec.Decode(f, profile, table)
		if err != nil {
			fmt.Fprintln(os.Stderr, renderLoadError(err, profile))
			os.Exit(1)
		}
		if verbose {
			size := int64(0)
			if info, statErr := f.Stat(); statErr == nil {
				size = info.Size()
			}
			log.Println(codec.Describe(profile, *manifest, set, int(size)))
		}
		eng = engine.New(table)
		status = eng.Execute(set)

	default:
		source, err := os.ReadFile(filename)
		if err != nil {
			log.Fatalf("could not read file: %v", err)
		}
		p := parser.New(table)
		if linkDir != "" {
			p.PrecompileDir = linkDir
		}
		set, err := p.Parse(string(source), filename)
		if err != nil {
			fmt.Fprintln(os.Stderr, renderLoadError(err, profile))
			os.Exit(1)
		}
		eng = engine.New(table)
		status = eng.Execute(set)
	}

	_ = eng.Close()

	if status.Kind == opcode.Errored {
		useColor := isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
		fmt.Fprintln(os.Stderr, diagnostic.Render(status.Err, profile, eng.Trace(), useColor))
		os.Exit(1)
	}
}

func parseProfile(s string) (codec.Profile, error) {
	switch strings.ToLower(s) {
	case "debug":
		return codec.Debug, nil
	case "testing":
		return codec.Testing, nil
	case "release":
		return codec.Release, nil
	case "minified":
		return codec.Minified, nil
	default:
		return codec.Debug, fmt.Errorf("unknown profile %q", s)
	}
}

func renderLoadError(err error, profile codec.Profile) string {
	useColor := isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
	return diagnostic.Render(err, profile, nil, useColor)
}
