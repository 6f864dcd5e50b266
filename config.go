package mdbook

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"

	"github.com/goccy/go-yaml"
)

// NewBookFromFile loads a manuscript config and parses every declared chapter.
//
// The config format is selected by extension: .yaml/.yml files use the YAML
// syntax, everything else the line-oriented legacy syntax. Chapter and
// override paths are resolved relative to the config file's directory into
// absolute paths; the process working directory is never changed.
func NewBookFromFile(path string) (*Book, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	baseDir, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("resolving config directory: %w", err)
	}

	book := NewBook()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = book.setFromYAML(data, baseDir)
	default:
		err = book.setFromConfig(string(data), baseDir)
	}
	if err != nil {
		return nil, err
	}
	return book, nil
}

// SetFromConfig applies the line-oriented config syntax to the book and parses
// the declared chapters. Relative paths resolve against the current directory.
//
// A line of the form "option: value" sets an option. Chapter lines:
//
//	+ chapter.md    numbered chapter (default numbering)
//	- chapter.md    unnumbered chapter
//	! chapter.md    hidden chapter
//	3. chapter.md   chapter with an explicit number
//
// Blank lines and lines starting with '#' are ignored.
func (b *Book) SetFromConfig(src string) error {
	return b.setFromConfig(src, "")
}

func (b *Book) setFromConfig(src string, baseDir string) error {
	for _, rawLine := range strings.Split(src, "\n") {
		line := strings.TrimSpace(rawLine)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		switch {
		case strings.HasPrefix(line, "-"):
			file, err := chapterFilename(line)
			if err != nil {
				return err
			}
			if err := b.AddChapter(Unnumbered, resolvePath(baseDir, file)); err != nil {
				return err
			}

		case strings.HasPrefix(line, "+"):
			file, err := chapterFilename(line)
			if err != nil {
				return err
			}
			if err := b.AddChapter(Default, resolvePath(baseDir, file)); err != nil {
				return err
			}

		case strings.HasPrefix(line, "!"):
			file, err := chapterFilename(line)
			if err != nil {
				return err
			}
			if err := b.AddChapter(Hidden, resolvePath(baseDir, file)); err != nil {
				return err
			}

		case unicode.IsDigit(rune(line[0])):
			sep := strings.IndexAny(line, ".:+")
			if sep < 0 {
				return fmt.Errorf("%w: %q", ErrInvalidChapter, line)
			}
			parts := []string{line[:sep], line[sep+1:]}
			n, err := strconv.Atoi(strings.TrimSpace(parts[0]))
			if err != nil {
				return fmt.Errorf("%w: %q", ErrInvalidChapter, line)
			}
			file := strings.TrimSpace(parts[1])
			if file == "" {
				return fmt.Errorf("%w: no chapter name in %q", ErrInvalidChapter, line)
			}
			if strings.ContainsAny(file, " \t") {
				return fmt.Errorf("%w: chapter filename contains whitespace in %q", ErrInvalidChapter, line)
			}
			if err := b.AddChapter(Specified(n), resolvePath(baseDir, file)); err != nil {
				return err
			}

		default:
			if err := b.setOption(line, baseDir); err != nil {
				return err
			}
		}
	}
	return nil
}

// setOption applies one "option: value" line.
func (b *Book) setOption(line string, baseDir string) error {
	parts := strings.SplitN(line, ":", 2)
	if len(parts) != 2 {
		return fmt.Errorf("%w: option setting must be of the form option: value, got %q", ErrConfigParse, line)
	}
	option := strings.TrimSpace(parts[0])
	value := strings.TrimSpace(parts[1])

	parseBool := func(s string) (bool, error) {
		v, err := strconv.ParseBool(s)
		if err != nil {
			return false, fmt.Errorf("%w: %q", ErrInvalidBool, line)
		}
		return v, nil
	}

	var err error
	switch strings.ReplaceAll(option, "-", "_") {
	case "nb_char":
		b.NbChar, err = parseQuotedChar(value)
	case "numbering_template":
		b.NumberingTemplate = value
	case "numbering":
		b.Numbering, err = parseBool(value)
	case "autoclean":
		b.Autoclean, err = parseBool(value)
	case "author":
		b.Author = value
	case "title":
		b.Title = value
	case "lang":
		b.Lang = value
	case "description":
		b.Description = value
	case "subject":
		b.Subject = value
	case "cover":
		b.Cover = resolvePath(baseDir, value)
	case "output_epub":
		b.OutputEpub = resolvePath(baseDir, value)
	case "output_html":
		b.OutputHTML = resolvePath(baseDir, value)
	case "output_tex":
		b.OutputTex = resolvePath(baseDir, value)
	case "output_pdf":
		b.OutputPDF = resolvePath(baseDir, value)
	case "output_odt":
		b.OutputOdt = resolvePath(baseDir, value)
	case "tex_command":
		b.TexCommand = value
	case "temp_dir":
		b.TempDir = resolvePath(baseDir, value)
	case "verbose":
		// accepted for compatibility; output is not verbosity-gated
		_, err = parseBool(value)
	case "epub_css":
		b.EpubCSS = resolvePath(baseDir, value)
	case "epub_template":
		b.EpubTemplate = resolvePath(baseDir, value)
	case "epub_version":
		switch value {
		case "2":
			b.EpubVersion = 2
		case "3":
			b.EpubVersion = 3
		default:
			return fmt.Errorf("%w: got %q", ErrInvalidEpubVers, value)
		}
	case "html_template":
		b.HTMLTemplate = resolvePath(baseDir, value)
	case "html_css":
		b.HTMLCSS = resolvePath(baseDir, value)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownOption, line)
	}
	return err
}

// chapterFilename extracts the file name from a chapter line, past the marker.
func chapterFilename(line string) (string, error) {
	fields := strings.Fields(line[1:])
	if len(fields) == 0 {
		return "", fmt.Errorf("%w: no chapter name in %q", ErrInvalidChapter, line)
	}
	if len(fields) > 1 {
		return "", fmt.Errorf("%w: chapter filename contains whitespace in %q", ErrInvalidChapter, line)
	}
	return fields[0], nil
}

// parseQuotedChar parses a single-quoted character option value like 'x'.
func parseQuotedChar(value string) (rune, error) {
	parts := strings.Split(strings.TrimSpace(value), "'")
	if len(parts) != 3 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidChar, value)
	}
	runes := []rune(parts[1])
	if len(runes) != 1 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidChar, value)
	}
	return runes[0], nil
}

// resolvePath joins a relative path to baseDir; absolute paths and an empty
// baseDir pass through.
func resolvePath(baseDir, path string) string {
	if baseDir == "" || path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

// bookYAML mirrors the YAML manuscript config.
type bookYAML struct {
	Lang        string `yaml:"lang"`
	Author      string `yaml:"author"`
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Subject     string `yaml:"subject"`
	Cover       string `yaml:"cover"`

	Output struct {
		Epub string `yaml:"epub"`
		HTML string `yaml:"html"`
		Tex  string `yaml:"tex"`
		PDF  string `yaml:"pdf"`
		Odt  string `yaml:"odt"`
	} `yaml:"output"`

	Numbering         *bool  `yaml:"numbering"`
	Autoclean         *bool  `yaml:"autoclean"`
	NbChar            string `yaml:"nbChar"`
	NumberingTemplate string `yaml:"numberingTemplate"`

	TexCommand string `yaml:"texCommand"`
	TempDir    string `yaml:"tempDir"`

	Epub struct {
		Version  int    `yaml:"version"`
		CSS      string `yaml:"css"`
		Template string `yaml:"template"`
	} `yaml:"epub"`

	HTML struct {
		CSS      string `yaml:"css"`
		Template string `yaml:"template"`
	} `yaml:"html"`

	Chapters []chapterYAML `yaml:"chapters"`
}

// chapterYAML is one chapter declaration in a YAML manuscript.
type chapterYAML struct {
	File string `yaml:"file"`
	// Number is "default" (or empty), "unnumbered", "hidden", or an integer.
	Number string `yaml:"number"`
}

// setFromYAML applies a YAML manuscript config and parses its chapters.
func (b *Book) setFromYAML(data []byte, baseDir string) error {
	var cfg bookYAML
	if err := yaml.UnmarshalWithOptions(data, &cfg, yaml.Strict()); err != nil {
		return fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	if cfg.Lang != "" {
		b.Lang = cfg.Lang
	}
	if cfg.Author != "" {
		b.Author = cfg.Author
	}
	if cfg.Title != "" {
		b.Title = cfg.Title
	}
	b.Description = cfg.Description
	b.Subject = cfg.Subject
	b.Cover = resolvePath(baseDir, cfg.Cover)

	b.OutputEpub = resolvePath(baseDir, cfg.Output.Epub)
	b.OutputHTML = resolvePath(baseDir, cfg.Output.HTML)
	b.OutputTex = resolvePath(baseDir, cfg.Output.Tex)
	b.OutputPDF = resolvePath(baseDir, cfg.Output.PDF)
	b.OutputOdt = resolvePath(baseDir, cfg.Output.Odt)

	if cfg.Numbering != nil {
		b.Numbering = *cfg.Numbering
	}
	if cfg.Autoclean != nil {
		b.Autoclean = *cfg.Autoclean
	}
	if cfg.NbChar != "" {
		runes := []rune(cfg.NbChar)
		if len(runes) != 1 {
			return fmt.Errorf("%w: %q", ErrInvalidChar, cfg.NbChar)
		}
		b.NbChar = runes[0]
	}
	if cfg.NumberingTemplate != "" {
		b.NumberingTemplate = cfg.NumberingTemplate
	}
	if cfg.TexCommand != "" {
		b.TexCommand = cfg.TexCommand
	}
	b.TempDir = resolvePath(baseDir, cfg.TempDir)

	if cfg.Epub.Version != 0 {
		if cfg.Epub.Version != 2 && cfg.Epub.Version != 3 {
			return fmt.Errorf("%w: got %d", ErrInvalidEpubVers, cfg.Epub.Version)
		}
		b.EpubVersion = cfg.Epub.Version
	}
	b.EpubCSS = resolvePath(baseDir, cfg.Epub.CSS)
	b.EpubTemplate = resolvePath(baseDir, cfg.Epub.Template)
	b.HTMLCSS = resolvePath(baseDir, cfg.HTML.CSS)
	b.HTMLTemplate = resolvePath(baseDir, cfg.HTML.Template)

	for _, ch := range cfg.Chapters {
		if ch.File == "" {
			return fmt.Errorf("%w: chapter entry without file", ErrConfigParse)
		}
		number, err := parseYAMLNumber(ch.Number)
		if err != nil {
			return err
		}
		if err := b.AddChapter(number, resolvePath(baseDir, ch.File)); err != nil {
			return err
		}
	}
	return nil
}

// parseYAMLNumber maps a YAML chapter number field to a Number policy.
func parseYAMLNumber(s string) (Number, error) {
	switch s {
	case "", "default":
		return Default, nil
	case "unnumbered":
		return Unnumbered, nil
	case "hidden":
		return Hidden, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return Number{}, fmt.Errorf("%w: invalid chapter number %q", ErrConfigParse, s)
	}
	return Specified(n), nil
}
