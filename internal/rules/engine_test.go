package rules

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeRules(t *testing.T, contents string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "substitutions.rules")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("failed to write rules file: %v", err)
	}
	return path
}

func TestLoadLiteralAndSedRules(t *testing.T) {
	t.Parallel()

	path := writeRules(t, `
# literal
pull request => PR
# regex with default case-insensitive
s/\bdeep\s*gram\b/Deepgram/g
`)

	engine, err := Load(Options{Path: path})
	if err != nil {
		t.Fatalf("failed to load engine: %v", err)
	}
	if engine.Len() != 2 {
		t.Fatalf("expected 2 rules, got %d", engine.Len())
	}

	output, err := engine.Apply("deep gram pull request")
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if output != "Deepgram PR" {
		t.Fatalf("unexpected output: %q", output)
	}
}

func TestApplyIteratesUntilStable(t *testing.T) {
	t.Parallel()

	engine, err := FromText("a => b\nb => c\n", 5)
	if err != nil {
		t.Fatalf("failed to build engine: %v", err)
	}

	output, _ := engine.Apply("a")
	if output != "c" {
		t.Fatalf("expected c, got %q", output)
	}

	output, _ = engine.Apply("a a a")
	if output != "c c c" {
		t.Fatalf("expected every occurrence rewritten, got %q", output)
	}
}

func TestLiteralMatchesWholeWordsOnly(t *testing.T) {
	t.Parallel()

	engine, err := FromText("cat => dog", 0)
	if err != nil {
		t.Fatalf("failed to build engine: %v", err)
	}

	output, _ := engine.Apply("Cat concatenate cat")
	if output != "dog concatenate dog" {
		t.Fatalf("unexpected output: %q", output)
	}
}

func TestLiteralRuleStartingWithS(t *testing.T) {
	t.Parallel()

	engine, err := FromText("solid complaint => SOLID-compliant", 0)
	if err != nil {
		t.Fatalf("failed to build engine: %v", err)
	}

	output, _ := engine.Apply("this is solid complaint code")
	if output != "this is SOLID-compliant code" {
		t.Fatalf("unexpected output: %q", output)
	}
}

func TestLiteralReplacementKeepsDollarSigns(t *testing.T) {
	t.Parallel()

	engine, err := FromText("dollar => $1", 0)
	if err != nil {
		t.Fatalf("failed to build engine: %v", err)
	}

	output, _ := engine.Apply("one dollar")
	if output != "one $1" {
		t.Fatalf("unexpected output: %q", output)
	}
}

func TestSedWithoutGlobalReplacesFirstMatch(t *testing.T) {
	t.Parallel()

	engine, err := FromText(`s/x(\d)/y$1/`, 1)
	if err != nil {
		t.Fatalf("failed to build engine: %v", err)
	}

	output, _ := engine.Apply("x1 x2")
	if output != "y1 x2" {
		t.Fatalf("unexpected output: %q", output)
	}
}

func TestSedAlternateDelimiter(t *testing.T) {
	t.Parallel()

	engine, err := FromText(`s|a/b|c|g`, 0)
	if err != nil {
		t.Fatalf("failed to build engine: %v", err)
	}

	output, _ := engine.Apply("a/b a/b")
	if output != "c c" {
		t.Fatalf("unexpected output: %q", output)
	}
}

func TestParseErrorsReportLine(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"unsupported flag":   "s/a/b/x",
		"unterminated":       "s/a/b",
		"unsupported format": "just words",
		"empty literal":      " => b",
	}
	for name, rule := range cases {
		_, err := FromText("# header\n"+rule, 0)
		if err == nil {
			t.Fatalf("%s: expected error", name)
		}
		if !strings.Contains(err.Error(), "line 2") {
			t.Fatalf("%s: expected line number in %v", name, err)
		}
	}
}

func TestLoadWrapsParseErrorWithOrigin(t *testing.T) {
	t.Parallel()

	path := writeRules(t, "s/a/b/q\n")
	_, err := Load(Options{Path: path})
	if err == nil || !strings.Contains(err.Error(), path) {
		t.Fatalf("expected error naming %s, got %v", path, err)
	}
}

func TestLoadMissingFileIsEmpty(t *testing.T) {
	t.Parallel()

	engine, err := Load(Options{Path: filepath.Join(t.TempDir(), "missing.rules")})
	if err != nil {
		t.Fatalf("missing file should not fail: %v", err)
	}
	if engine.Len() != 0 {
		t.Fatalf("expected no rules, got %d", engine.Len())
	}
	output, _ := engine.Apply("unchanged")
	if output != "unchanged" {
		t.Fatalf("unexpected output: %q", output)
	}
}

func TestBuiltinSpokenPunctuation(t *testing.T) {
	t.Parallel()

	engine, err := Load(Options{Builtin: true})
	if err != nil {
		t.Fatalf("failed to load builtin rules: %v", err)
	}
	if engine.Len() == 0 {
		t.Fatalf("expected builtin rules")
	}

	cases := map[string]string{
		"שלום נקודה מה שלומך סימן שאלה": "שלום. מה שלומך?",
		"אחת פסיק שתיים":                "אחת, שתיים",
		"כן סימן קריאה":                 "כן!",
		"רשימה נקודתיים חלב":            "רשימה: חלב",
		"מנקודה לנקודה":                 "מנקודה לנקודה",
	}
	for input, want := range cases {
		got, _ := engine.Apply(input)
		if got != want {
			t.Fatalf("Apply(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestFileRulesOverrideBuiltin(t *testing.T) {
	t.Parallel()

	path := writeRules(t, "hello => shalom\n")
	engine, err := Load(Options{Path: path, Builtin: true})
	if err != nil {
		t.Fatalf("failed to load engine: %v", err)
	}
	if engine.Len() != 1 {
		t.Fatalf("expected only file rules, got %d", engine.Len())
	}
}

type upperParser struct{}

func (upperParser) CanParse(line string) bool { return strings.HasPrefix(line, "upper ") }

func (upperParser) Parse(line string) (substitution, error) {
	word := strings.TrimSpace(strings.TrimPrefix(line, "upper "))
	if word == "" {
		return nil, errors.New("missing word")
	}
	return upperSub{word: word}, nil
}

type upperSub struct{ word string }

func (s upperSub) Apply(input string) (string, bool) {
	output := strings.ReplaceAll(input, s.word, strings.ToUpper(s.word))
	return output, output != input
}

func TestLoadWithCustomParsers(t *testing.T) {
	t.Parallel()

	path := writeRules(t, "upper go\n")
	engine, err := Load(Options{Path: path, Parsers: []LineParser{upperParser{}}})
	if err != nil {
		t.Fatalf("failed to load engine: %v", err)
	}

	output, _ := engine.Apply("lets go")
	if output != "lets GO" {
		t.Fatalf("unexpected output: %q", output)
	}

	// Default parsers are replaced, not extended.
	path = writeRules(t, "a => b\n")
	if _, err := Load(Options{Path: path, Parsers: []LineParser{upperParser{}}}); err == nil {
		t.Fatalf("expected literal rule to be rejected by custom parser set")
	}
}
