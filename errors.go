package mdbook

import "errors"

// Sentinel errors for library operations.
var (
	// ErrFileNotFound indicates a referenced chapter or override resource is missing.
	ErrFileNotFound = errors.New("file not found")

	// ErrParse indicates chapter source could not be parsed.
	ErrParse = errors.New("parse failed")

	// ErrInvalidEncoding indicates input or generated text is not valid UTF-8.
	ErrInvalidEncoding = errors.New("invalid UTF-8")

	// ErrRender indicates a renderer could not produce its artifact.
	ErrRender = errors.New("render failed")

	// ErrTemplateExpand indicates template expansion failed (unresolvable
	// placeholder or non-UTF-8 result).
	ErrTemplateExpand = errors.New("template expansion failed")

	// ErrMissingResource indicates a required resource (cover image, stylesheet
	// override) was missing during container assembly.
	ErrMissingResource = errors.New("missing required resource")

	// ErrTexCommand indicates the external TeX command failed.
	ErrTexCommand = errors.New("tex command failed")

	// ErrNoOutput indicates no output path was configured for any format.
	ErrNoOutput = errors.New("no output file specified")
)

// Sentinel errors for config parsing.
var (
	ErrConfigParse     = errors.New("failed to parse config")
	ErrUnknownOption   = errors.New("unrecognized option")
	ErrInvalidChar     = errors.New("could not parse char")
	ErrInvalidBool     = errors.New("could not parse bool")
	ErrInvalidChapter  = errors.New("ill-formatted chapter line")
	ErrInvalidEpubVers = errors.New("epub version must be 2 or 3")
)
