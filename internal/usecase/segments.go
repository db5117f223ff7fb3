package usecase

import (
	"strings"

	"stthebrew/internal/domain"
)

// collectSegments joins the first alternative of every result changed since
// ResultIndex, split by finality. Engines put their own leading spaces into
// transcripts, so nothing is inserted between pieces.
func collectSegments(result domain.RecognitionResult) (final string, interim string) {
	start := result.ResultIndex
	if start < 0 {
		start = 0
	}

	var finals, interims strings.Builder
	for i := start; i < len(result.Results); i++ {
		slot := result.Results[i]
		if len(slot.Alternatives) == 0 {
			continue
		}
		if slot.IsFinal {
			finals.WriteString(slot.Alternatives[0].Transcript)
		} else {
			interims.WriteString(slot.Alternatives[0].Transcript)
		}
	}
	return finals.String(), interims.String()
}
