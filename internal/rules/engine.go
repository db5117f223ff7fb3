// Package rules rewrites final transcript segments with deterministic
// substitutions, e.g. spoken punctuation words into punctuation marks.
package rules

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
)

const defaultLoopLimit = 30

//go:embed builtin.rules
var builtinRules string

type substitution interface {
	Apply(input string) (output string, changed bool)
}

// LineParser parses one rules-file line into a substitution.
type LineParser interface {
	CanParse(line string) bool
	Parse(line string) (substitution, error)
}

// Options controls how an Engine is built.
type Options struct {
	// Path is an optional rules file. A missing file is not an error.
	Path string
	// Builtin loads the embedded spoken-punctuation rules when Path yields
	// no rules.
	Builtin   bool
	LoopLimit int
	Parsers   []LineParser
}

// Engine applies substitutions until the text stops changing.
type Engine struct {
	subs      []substitution
	loopLimit int
}

// Load builds an engine from opts.
func Load(opts Options) (*Engine, error) {
	if opts.LoopLimit <= 0 {
		opts.LoopLimit = defaultLoopLimit
	}
	if len(opts.Parsers) == 0 {
		opts.Parsers = DefaultParsers()
	}

	source, origin, err := readSource(opts.Path)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(source) == "" && opts.Builtin {
		source, origin = builtinRules, "builtin rules"
	}

	subs, err := parse(source, opts.Parsers)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", origin, err)
	}
	return &Engine{subs: subs, loopLimit: opts.LoopLimit}, nil
}

// FromText builds an engine from inline rules with the default parsers.
func FromText(text string, loopLimit int) (*Engine, error) {
	if loopLimit <= 0 {
		loopLimit = defaultLoopLimit
	}
	subs, err := parse(text, DefaultParsers())
	if err != nil {
		return nil, err
	}
	return &Engine{subs: subs, loopLimit: loopLimit}, nil
}

func readSource(path string) (string, string, error) {
	if strings.TrimSpace(path) == "" {
		return "", "", nil
	}
	contents, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", "", nil
		}
		return "", "", fmt.Errorf("failed to read rules file %q: %w", path, err)
	}
	return string(contents), fmt.Sprintf("rules file %q", path), nil
}

// Len reports how many substitutions are loaded.
func (e *Engine) Len() int {
	return len(e.subs)
}

// Apply rewrites text. It never fails; the error return satisfies the
// rules port.
func (e *Engine) Apply(text string) (string, error) {
	if len(e.subs) == 0 {
		return text, nil
	}

	result := text
	for i := 0; i < e.loopLimit; i++ {
		changed := false
		for _, sub := range e.subs {
			if next, ok := sub.Apply(result); ok {
				result = next
				changed = true
			}
		}
		if !changed {
			break
		}
	}
	return result, nil
}

func parse(contents string, parsers []LineParser) ([]substitution, error) {
	lines := strings.Split(contents, "\n")
	subs := make([]substitution, 0, len(lines))

	for index, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		var parsed substitution
		for _, parser := range parsers {
			if !parser.CanParse(line) {
				continue
			}
			sub, err := parser.Parse(line)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", index+1, err)
			}
			parsed = sub
			break
		}
		if parsed == nil {
			return nil, fmt.Errorf("line %d: unsupported rule format", index+1)
		}
		subs = append(subs, parsed)
	}

	return subs, nil
}

// DefaultParsers returns the sed-style and literal parsers, in that order.
func DefaultParsers() []LineParser {
	return []LineParser{sedParser{}, literalParser{}}
}

type literalParser struct{}

func (literalParser) CanParse(line string) bool {
	return strings.Contains(line, "=>")
}

func (literalParser) Parse(line string) (substitution, error) {
	return parseLiteral(line)
}

type sedParser struct{}

func (sedParser) CanParse(line string) bool {
	return len(line) > 1 && line[0] == 's' && !isWordByte(line[1])
}

func (sedParser) Parse(line string) (substitution, error) {
	return parseSed(line)
}

// literal replaces a phrase case-insensitively. The phrase only matches on
// whitespace boundaries so that a short word does not fire inside a longer one.
type literal struct {
	re          *regexp.Regexp
	replacement string
}

func parseLiteral(line string) (substitution, error) {
	from, to, ok := strings.Cut(line, "=>")
	if !ok {
		return nil, errors.New("invalid literal rule")
	}
	from = strings.TrimSpace(from)
	to = strings.TrimSpace(to)
	if from == "" {
		return nil, errors.New("literal rule source cannot be empty")
	}

	re, err := regexp.Compile(`(?i)(^|\s)` + regexp.QuoteMeta(from) + `(\s|$)`)
	if err != nil {
		return nil, fmt.Errorf("invalid literal source: %w", err)
	}
	return literal{re: re, replacement: "${1}" + strings.ReplaceAll(to, "$", "$$") + "${2}"}, nil
}

func (r literal) Apply(input string) (string, bool) {
	output := r.re.ReplaceAllString(input, r.replacement)
	return output, output != input
}

type sed struct {
	re          *regexp.Regexp
	replacement string
	global      bool
}

func parseSed(line string) (substitution, error) {
	delim := line[1]
	pattern, pos, err := readDelimited(line, 2, delim)
	if err != nil {
		return nil, fmt.Errorf("invalid regex pattern: %w", err)
	}
	replacement, pos, err := readDelimited(line, pos, delim)
	if err != nil {
		return nil, fmt.Errorf("invalid regex replacement: %w", err)
	}

	global := false
	prefix := "i"
	for _, flag := range strings.TrimSpace(line[pos:]) {
		switch flag {
		case 'i', ' ':
		case 'g':
			global = true
		case 'm':
			prefix += "m"
		case 's':
			prefix += "s"
		default:
			return nil, fmt.Errorf("unsupported regex flag %q", flag)
		}
	}

	re, err := regexp.Compile("(?" + prefix + ")" + pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid regex: %w", err)
	}
	return sed{re: re, replacement: replacement, global: global}, nil
}

func (r sed) Apply(input string) (string, bool) {
	if r.global {
		output := r.re.ReplaceAllString(input, r.replacement)
		return output, output != input
	}

	loc := r.re.FindStringSubmatchIndex(input)
	if loc == nil {
		return input, false
	}
	var replaced []byte
	replaced = r.re.ExpandString(replaced, r.replacement, input, loc)
	output := input[:loc[0]] + string(replaced) + input[loc[1]:]
	return output, output != input
}

func readDelimited(line string, start int, delim byte) (string, int, error) {
	if start >= len(line) {
		return "", 0, errors.New("unexpected end of expression")
	}

	var b strings.Builder
	escaped := false
	for i := start; i < len(line); i++ {
		c := line[i]
		switch {
		case escaped:
			b.WriteByte(c)
			escaped = false
		case c == '\\':
			escaped = true
			b.WriteByte(c)
		case c == delim:
			return b.String(), i + 1, nil
		default:
			b.WriteByte(c)
		}
	}
	return "", 0, errors.New("unterminated expression")
}

func isWordByte(c byte) bool {
	return (c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9') ||
		c == ' ' || c == '\t'
}
