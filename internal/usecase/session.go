package usecase

import (
	"stthebrew/internal/domain"
	"stthebrew/internal/ports"
)

// session is the mutable controller state. Every field is guarded by
// DictationController.mu.
type session struct {
	state      domain.SessionState
	id         string
	language   string
	continuous bool
	mobile     bool

	// starting is set between an engine Start call and its started event.
	starting bool
	// resuming marks a start issued by the restart timer.
	resuming bool
	// stopRequested marks a user stop; the next ended event must not restart.
	stopRequested bool

	transcript     string
	pendingInterim string
	restartTimer   ports.Timer
}

func (s *session) active() bool {
	return s.starting || s.state == domain.SessionStateListening || s.state == domain.SessionStateRestarting
}

func (s *session) cancelRestart() {
	if s.restartTimer != nil {
		s.restartTimer.Stop()
		s.restartTimer = nil
	}
}
