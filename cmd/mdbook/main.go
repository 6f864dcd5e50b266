package main

import (
	"fmt"
	"os"

	"go.uber.org/automaxprocs/maxprocs"

	mdbook "github.com/alnah/go-mdbook"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Exit codes.
const (
	exitSuccess = 0
	exitError   = 1
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	flags, err := parseFlags(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitError
	}
	if flags.showVersion {
		fmt.Println("mdbook", Version)
		return exitSuccess
	}
	if flags.configPath == "" {
		fmt.Fprintln(os.Stderr, "usage: mdbook [flags] <book-config>")
		return exitError
	}

	// Error ignored: maxprocs.Set only fails if GOMAXPROCS env is invalid,
	// in which case Go runtime defaults apply and the program continues safely.
	if flags.verbose {
		_, _ = maxprocs.Set(maxprocs.Logger(func(format string, args ...interface{}) {
			fmt.Fprintf(os.Stderr, format+"\n", args...)
		}))
	} else {
		_, _ = maxprocs.Set(maxprocs.Logger(func(string, ...interface{}) {}))
	}

	if flags.verbose {
		fmt.Fprintf(os.Stderr, "Loading %s\n", flags.configPath)
	}
	book, err := mdbook.NewBookFromFile(flags.configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitError
	}

	formats := book.Formats()
	if len(flags.formats) > 0 {
		formats = filterFormats(formats, flags.formats)
		if len(formats) == 0 {
			fmt.Fprintln(os.Stderr, "none of the requested formats has an output path configured")
			return exitError
		}
	}

	if len(formats) == 0 {
		fmt.Fprintln(os.Stderr, "Warning: no output file specified, nothing to generate. Add an output path to your config file.")
		return exitSuccess
	}

	// Formats are independent: render each one and report failures
	// individually instead of stopping at the first.
	failed := false
	for _, format := range formats {
		if flags.verbose {
			fmt.Fprintf(os.Stderr, "Rendering %s...\n", format)
		}
		if err := book.RenderFormat(format); err != nil {
			fmt.Fprintf(os.Stderr, "error rendering %s: %v\n", format, err)
			failed = true
			continue
		}
		fmt.Fprintf(os.Stderr, "Successfully generated %s\n", format)
	}

	if failed {
		return exitError
	}
	return exitSuccess
}

// filterFormats keeps the configured formats the user asked for.
func filterFormats(configured, requested []string) []string {
	var out []string
	for _, f := range configured {
		for _, r := range requested {
			if f == r {
				out = append(out, f)
				break
			}
		}
	}
	return out
}
