package main

import (
	"context"
	"errors"
	"sync"

	"stthebrew/internal/domain"
	"stthebrew/internal/ports"
)

var errSpeechUnsupported = errors.New("webview has no speech recognition")

// engineCommand is the payload of eventEngine. The frontend drives the Web
// Speech API from it and reports back through the Recognition* bindings.
type engineCommand struct {
	Action         string `json:"action"`
	Language       string `json:"language,omitempty"`
	Continuous     bool   `json:"continuous,omitempty"`
	InterimResults bool   `json:"interimResults,omitempty"`
}

// webviewEngine implements ports.RecognitionEngine on top of the browser
// speech capability living in the frontend.
type webviewEngine struct {
	emit func(name string, data any)

	mu        sync.Mutex
	available bool
	listener  ports.RecognitionListener
}

func newWebviewEngine(emit func(name string, data any)) *webviewEngine {
	return &webviewEngine{emit: emit}
}

func (e *webviewEngine) Available() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.available
}

func (e *webviewEngine) setAvailable(available bool) {
	e.mu.Lock()
	e.available = available
	e.mu.Unlock()
}

func (e *webviewEngine) Start(_ context.Context, opts ports.StartOptions, listener ports.RecognitionListener) error {
	e.mu.Lock()
	if !e.available {
		e.mu.Unlock()
		return errSpeechUnsupported
	}
	e.listener = listener
	e.mu.Unlock()

	e.emit(eventEngine, engineCommand{
		Action:         "start",
		Language:       opts.Language,
		Continuous:     opts.Continuous,
		InterimResults: opts.InterimResults,
	})
	return nil
}

func (e *webviewEngine) Stop() error {
	e.emit(eventEngine, engineCommand{Action: "stop"})
	return nil
}

func (e *webviewEngine) current() ports.RecognitionListener {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.listener
}

func (e *webviewEngine) started() {
	if l := e.current(); l != nil {
		l.HandleStarted()
	}
}

func (e *webviewEngine) result(result domain.RecognitionResult) {
	if l := e.current(); l != nil {
		l.HandleResult(result)
	}
}

func (e *webviewEngine) failed(code string) {
	if l := e.current(); l != nil {
		l.HandleError(code)
	}
}

func (e *webviewEngine) ended() {
	if l := e.current(); l != nil {
		l.HandleEnded()
	}
}
