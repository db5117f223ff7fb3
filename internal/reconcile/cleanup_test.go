package reconcile

import "testing"

func TestNewCleanup(t *testing.T) {
	t.Parallel()

	for name, want := range map[string]string{
		"":              CleanupGlobalUnique,
		"global-unique": CleanupGlobalUnique,
		"trailing-run":  CleanupTrailingRun,
	} {
		cleanup, err := NewCleanup(name)
		if err != nil {
			t.Fatalf("cleanup %q: unexpected error: %v", name, err)
		}
		if cleanup.Name() != want {
			t.Fatalf("cleanup %q: got %q", name, cleanup.Name())
		}
	}

	if _, err := NewCleanup("nope"); err == nil {
		t.Fatalf("expected unknown cleanup error")
	}
}

func TestGlobalUniqueKeepsFirstOccurrence(t *testing.T) {
	t.Parallel()

	got := GlobalUnique{}.Clean("a b  a c\nb d")
	if got != "a b c d" {
		t.Fatalf("unexpected text: %q", got)
	}
}

func TestGlobalUniqueIsIdempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"",
		"one",
		"one two one two three",
		"שלום שלום מה נשמע שלום",
	}
	for _, input := range inputs {
		once := GlobalUnique{}.Clean(input)
		twice := GlobalUnique{}.Clean(once)
		if once != twice {
			t.Fatalf("not idempotent for %q: %q then %q", input, once, twice)
		}
	}
}

func TestTrailingRunClean(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "single", in: "word", want: "word"},
		{name: "all distinct", in: "a b c", want: "a b c"},
		{name: "restatement", in: "I want to go I want to go home", want: "I want to go home"},
		{name: "keeps earlier context", in: "hello there I want to go I want to go home", want: "hello there I want to go home"},
		{name: "opening word never seen", in: "a b c b d", want: "a b c b d"},
		{name: "normalizes whitespace", in: "x  y\nz", want: "x y z"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := (TrailingRun{}).Clean(tc.in); got != tc.want {
				t.Fatalf("got %q want %q", got, tc.want)
			}
		})
	}
}

func TestRemoved(t *testing.T) {
	t.Parallel()

	if got := Removed("a b a", "a b"); got != 1 {
		t.Fatalf("expected 1, got %d", got)
	}
	if got := Removed("a", "a b"); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
}
