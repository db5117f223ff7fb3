package main

import (
	"context"
	"fmt"
	"io"

	"stthebrew/internal/domain"
	"stthebrew/internal/locale"
	"stthebrew/internal/ports"
)

// printSink writes localized notices and errors for the one-shot commands.
type printSink struct {
	catalog *locale.Catalog
	out     io.Writer
}

func (s *printSink) SessionStateChanged(domain.SessionState, domain.StatusReason) {}
func (s *printSink) PartialTranscript(string)                                     {}
func (s *printSink) TranscriptChanged(string)                                     {}

func (s *printSink) Notice(reason domain.StatusReason, detail string) {
	if msg := s.catalog.Reason(reason, detail); msg != "" {
		fmt.Fprintln(s.out, msg)
	}
}

func (s *printSink) SessionError(code domain.ErrorCode, detail string) {
	fmt.Fprintln(s.out, s.catalog.Error(code, detail))
}

// unavailableEngine backs controllers that never record.
type unavailableEngine struct{}

func (unavailableEngine) Available() bool { return false }

func (unavailableEngine) Start(context.Context, ports.StartOptions, ports.RecognitionListener) error {
	return errSpeechUnsupported
}

func (unavailableEngine) Stop() error { return nil }
