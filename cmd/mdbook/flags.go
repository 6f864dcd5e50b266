package main

import (
	"fmt"

	flag "github.com/spf13/pflag"
)

// cliFlags holds the parsed command line.
type cliFlags struct {
	configPath  string
	formats     []string
	verbose     bool
	showVersion bool
}

// parseFlags parses args (without the program name) into cliFlags.
// The first positional argument is the book config path.
func parseFlags(args []string) (*cliFlags, error) {
	fs := flag.NewFlagSet("mdbook", flag.ContinueOnError)

	flags := &cliFlags{}
	fs.BoolVarP(&flags.verbose, "verbose", "v", false, "print progress to stderr")
	fs.BoolVar(&flags.showVersion, "version", false, "print version and exit")
	fs.StringSliceVarP(&flags.formats, "format", "f", nil,
		"render only these formats (epub, html, tex, pdf, odt); repeatable")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	rest := fs.Args()
	if len(rest) > 1 {
		return nil, fmt.Errorf("expected one book config, got %d arguments", len(rest))
	}
	if len(rest) == 1 {
		flags.configPath = rest[0]
	}
	return flags, nil
}
