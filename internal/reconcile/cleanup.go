package reconcile

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
)

const (
	CleanupGlobalUnique = "global-unique"
	CleanupTrailingRun  = "trailing-run"
)

// Cleanup rewrites a whole buffer, independent of the live append policy.
type Cleanup interface {
	Name() string
	Clean(text string) string
}

// NewCleanup returns the named cleanup strategy.
func NewCleanup(name string) (Cleanup, error) {
	switch strings.TrimSpace(strings.ToLower(name)) {
	case "", CleanupGlobalUnique:
		return GlobalUnique{}, nil
	case CleanupTrailingRun:
		return TrailingRun{}, nil
	default:
		return nil, fmt.Errorf("unknown cleanup strategy %q", name)
	}
}

// GlobalUnique keeps the first occurrence of every word.
type GlobalUnique struct{}

func (GlobalUnique) Name() string { return CleanupGlobalUnique }

func (GlobalUnique) Clean(text string) string {
	return strings.Join(lo.Uniq(strings.Fields(text)), " ")
}

// TrailingRun treats the longest run of distinct words at the end of the text
// as a clean restatement and drops the failed attempt before it.
//
// Scanning backward, words join the run until one repeats a word already in
// it. The run's opening word is then searched (last occurrence) in the text
// before the run; everything from that point up to the run is discarded. When
// the opening word never occurred earlier the text is returned unchanged.
// Looking up the run itself in the full text would always land on the run and
// remove nothing, so only the text before it is searched, and only for the
// opening word. This is lossy and order dependent.
type TrailingRun struct{}

func (TrailingRun) Name() string { return CleanupTrailingRun }

func (TrailingRun) Clean(text string) string {
	words := strings.Fields(text)
	if len(words) < 2 {
		return strings.Join(words, " ")
	}

	start := runStart(words)
	if start == 0 {
		return strings.Join(words, " ")
	}

	opening := words[start]
	cut := lo.LastIndexOf(words[:start], opening)
	if cut < 0 {
		return strings.Join(words, " ")
	}

	kept := make([]string, 0, cut+len(words)-start)
	kept = append(kept, words[:cut]...)
	kept = append(kept, words[start:]...)
	return strings.Join(kept, " ")
}

// runStart returns the index where the trailing run of distinct words begins.
func runStart(words []string) int {
	inRun := make(map[string]struct{}, len(words))
	start := len(words)
	for i := len(words) - 1; i >= 0; i-- {
		if _, ok := inRun[words[i]]; ok {
			break
		}
		inRun[words[i]] = struct{}{}
		start = i
	}
	return start
}

// Removed returns how many words a cleanup pass dropped.
func Removed(before string, after string) int {
	n := len(strings.Fields(before)) - len(strings.Fields(after))
	if n < 0 {
		return 0
	}
	return n
}
