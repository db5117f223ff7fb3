package ports

import (
	"context"
	"errors"
	"io"
	"time"

	"stthebrew/internal/domain"
	"stthebrew/internal/export"
)

// AudioConfig describes how the microphone should be captured.
type AudioConfig struct {
	SampleRate  int
	Channels    int
	InputFormat string
	InputDevice string
}

// AudioSession is a live capture session.
type AudioSession interface {
	io.ReadCloser
	Stop() error
}

// AudioCapture creates microphone capture sessions.
type AudioCapture interface {
	Start(ctx context.Context, cfg AudioConfig) (AudioSession, error)
}

// StartOptions configures one recognition session.
type StartOptions struct {
	Language       string
	Continuous     bool
	InterimResults bool
}

// RecognitionListener receives engine events. Implementations must tolerate
// calls from any goroutine.
type RecognitionListener interface {
	HandleStarted()
	HandleResult(result domain.RecognitionResult)
	HandleError(code string)
	HandleEnded()
}

// RecognitionEngine is the platform speech recognizer.
type RecognitionEngine interface {
	Available() bool
	Start(ctx context.Context, opts StartOptions, listener RecognitionListener) error
	Stop() error
}

// RulesEngine transforms final segments using deterministic rules.
type RulesEngine interface {
	Apply(text string) (string, error)
}

// ErrSaveCancelled is returned by a FileSaver when the user dismisses the
// save prompt.
var ErrSaveCancelled = errors.New("save cancelled")

// FileSaver writes an exported document somewhere the user can reach it.
type FileSaver interface {
	Save(ctx context.Context, doc export.Document) error
}

// Clipboard writes text into the system clipboard.
type Clipboard interface {
	SetText(ctx context.Context, text string) error
}

// Timer is a pending scheduled call.
type Timer interface {
	Stop() bool
}

// Scheduler defers work, mainly the auto-restart.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// EventSink emits controller state and events to the presentation layer.
// Calls are made while the controller holds its lock, so implementations
// must not call back into the controller synchronously.
type EventSink interface {
	SessionStateChanged(state domain.SessionState, reason domain.StatusReason)
	PartialTranscript(text string)
	TranscriptChanged(text string)
	Notice(reason domain.StatusReason, detail string)
	SessionError(code domain.ErrorCode, detail string)
}
