package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"stthebrew/internal/domain"
)

type stateMsg struct {
	state  domain.SessionState
	reason domain.StatusReason
}

type partialMsg struct{ text string }

type transcriptMsg struct{ text string }

type noticeMsg struct {
	reason domain.StatusReason
	detail string
}

type errorMsg struct {
	code   domain.ErrorCode
	detail string
}

type statusMsg domain.Status

// Sink forwards controller events into a running program. Events that arrive
// before Attach are dropped.
type Sink struct {
	mu      sync.Mutex
	program *tea.Program
}

func NewSink() *Sink {
	return &Sink{}
}

// Attach routes subsequent events to p.
func (s *Sink) Attach(p *tea.Program) {
	s.mu.Lock()
	s.program = p
	s.mu.Unlock()
}

func (s *Sink) send(msg tea.Msg) {
	s.mu.Lock()
	p := s.program
	s.mu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

func (s *Sink) SessionStateChanged(state domain.SessionState, reason domain.StatusReason) {
	s.send(stateMsg{state: state, reason: reason})
}

func (s *Sink) PartialTranscript(text string) {
	s.send(partialMsg{text: text})
}

func (s *Sink) TranscriptChanged(text string) {
	s.send(transcriptMsg{text: text})
}

func (s *Sink) Notice(reason domain.StatusReason, detail string) {
	s.send(noticeMsg{reason: reason, detail: detail})
}

func (s *Sink) SessionError(code domain.ErrorCode, detail string) {
	s.send(errorMsg{code: code, detail: detail})
}
