// Package reconcile decides how streamed final segments are merged into the
// transcript buffer and how an existing buffer is cleaned of repeats.
package reconcile

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	PolicyStrictSuffix = "strict-suffix"
	PolicyWholeWord    = "whole-word"
	PolicyTrailingRun  = "trailing-run"
)

// Policy merges one final segment into the buffer and returns the new buffer.
// Implementations never reorder words already in the buffer.
type Policy interface {
	Name() string
	Reconcile(buffer string, segment string) string
}

// Resetter is implemented by policies that keep auxiliary state.
type Resetter interface {
	Reset()
}

// NewPolicy returns the named policy.
func NewPolicy(name string) (Policy, error) {
	switch strings.TrimSpace(strings.ToLower(name)) {
	case "", PolicyStrictSuffix:
		return StrictSuffix{}, nil
	case PolicyWholeWord:
		return &WholeWord{}, nil
	case PolicyTrailingRun:
		return TrailingRunAppend{}, nil
	default:
		return nil, fmt.Errorf("unknown append policy %q", name)
	}
}

// StrictSuffix discards a segment that is exactly the buffer's trailing text
// and appends anything else with a single space.
type StrictSuffix struct{}

func (StrictSuffix) Name() string { return PolicyStrictSuffix }

func (StrictSuffix) Reconcile(buffer string, segment string) string {
	clean := strings.TrimSpace(segment)
	if clean == "" {
		return buffer
	}
	if strings.HasSuffix(buffer, clean) {
		return buffer
	}

	words := collapseAdjacent(strings.Fields(clean))
	if last, ok := lastWord(buffer); ok && len(words) > 0 && words[0] == last {
		words = words[1:]
	}
	if len(words) == 0 {
		return buffer
	}
	return appendWords(buffer, words)
}

// WholeWord appends only words that do not already occur anywhere in the
// buffer. Legitimate repeats such as "very very" are dropped.
type WholeWord struct {
	seen map[string]struct{}
	from string
}

func (*WholeWord) Name() string { return PolicyWholeWord }

func (w *WholeWord) Reconcile(buffer string, segment string) string {
	w.sync(buffer)

	var fresh []string
	for _, word := range strings.Fields(segment) {
		if _, ok := w.seen[word]; ok {
			continue
		}
		w.seen[word] = struct{}{}
		fresh = append(fresh, word)
	}
	if len(fresh) == 0 {
		return buffer
	}

	out := appendWords(buffer, fresh)
	w.from = out
	return out
}

// Reset drops the cached word set.
func (w *WholeWord) Reset() {
	w.seen = nil
	w.from = ""
}

// sync rebuilds the seen-set when the buffer was changed outside the policy,
// e.g. by a user edit or a cleanup pass.
func (w *WholeWord) sync(buffer string) {
	if w.seen != nil && w.from == buffer {
		return
	}
	w.seen = make(map[string]struct{})
	for _, word := range strings.Fields(buffer) {
		w.seen[word] = struct{}{}
	}
	w.from = buffer
}

// TrailingRunAppend appends like StrictSuffix and then collapses a superseded
// earlier attempt with TrailingRun.
type TrailingRunAppend struct{}

func (TrailingRunAppend) Name() string { return PolicyTrailingRun }

func (TrailingRunAppend) Reconcile(buffer string, segment string) string {
	merged := StrictSuffix{}.Reconcile(buffer, segment)
	if merged == buffer {
		return buffer
	}
	return TrailingRun{}.Clean(merged)
}

func appendWords(buffer string, words []string) string {
	joined := strings.Join(words, " ")
	if buffer == "" {
		return joined
	}
	if r, _ := utf8.DecodeLastRuneInString(buffer); unicode.IsSpace(r) {
		return buffer + joined
	}
	return buffer + " " + joined
}

func collapseAdjacent(words []string) []string {
	out := words[:0:0]
	for _, word := range words {
		if len(out) > 0 && out[len(out)-1] == word {
			continue
		}
		out = append(out, word)
	}
	return out
}

func lastWord(text string) (string, bool) {
	words := strings.Fields(text)
	if len(words) == 0 {
		return "", false
	}
	return words[len(words)-1], true
}
