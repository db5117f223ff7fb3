// Package deepgram implements a streaming recognition engine on top of the
// Deepgram live transcription websocket and a local microphone capture.
package deepgram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"stthebrew/internal/domain"
	"stthebrew/internal/ports"
)

var (
	ErrMissingAPIKey    = errors.New("DEEPGRAM_API_KEY is not configured")
	ErrAlreadyStreaming = errors.New("deepgram stream already active")
)

var closeStreamMessage = []byte(`{"type":"CloseStream"}`)

// Config controls Deepgram websocket settings.
type Config struct {
	APIKey      string
	APIBaseURL  string
	Model       string
	SmartFormat bool
	Audio       ports.AudioConfig
	ChunkSize   int
	// CloseGrace bounds how long Stop waits for the provider to flush its
	// last results before the connection is dropped.
	CloseGrace time.Duration
}

// Engine implements ports.RecognitionEngine. It streams one capture at a time.
type Engine struct {
	cfg    Config
	audio  ports.AudioCapture
	dialer *websocket.Dialer
	logger zerolog.Logger

	mu      sync.Mutex
	current *stream
}

func NewEngine(cfg Config, audio ports.AudioCapture, logger zerolog.Logger) *Engine {
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = "https://api.deepgram.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "nova-2"
	}
	if cfg.CloseGrace <= 0 {
		cfg.CloseGrace = 4 * time.Second
	}
	return &Engine{
		cfg:    cfg,
		audio:  audio,
		dialer: websocket.DefaultDialer,
		logger: logger.With().Str("component", "deepgram").Logger(),
	}
}

// Available reports whether an API key and a capture source are configured.
func (e *Engine) Available() bool {
	return strings.TrimSpace(e.cfg.APIKey) != "" && e.audio != nil
}

// Start dials the websocket, starts the capture and returns. Events are
// delivered to listener from a background goroutine; ended is always the
// last one.
func (e *Engine) Start(ctx context.Context, opts ports.StartOptions, listener ports.RecognitionListener) error {
	if !e.Available() {
		return ErrMissingAPIKey
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current != nil {
		return ErrAlreadyStreaming
	}

	wsURL, err := buildListenURL(e.cfg, opts)
	if err != nil {
		return err
	}
	headers := http.Header{}
	headers.Set("Authorization", "Token "+e.cfg.APIKey)

	conn, _, err := e.dialer.DialContext(ctx, wsURL, headers)
	if err != nil {
		return fmt.Errorf("failed to connect to Deepgram websocket: %w", err)
	}

	capture, err := e.audio.Start(context.Background(), e.cfg.Audio)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to start audio capture: %w", err)
	}

	s := &stream{
		conn:      conn,
		capture:   capture,
		listener:  listener,
		chunkSize: e.cfg.ChunkSize,
		logger:    e.logger,
	}
	e.current = s
	e.logger.Info().Str("language", opts.Language).Msg("stream opened")

	go s.run(func() {
		e.mu.Lock()
		if e.current == s {
			e.current = nil
		}
		e.mu.Unlock()
	})
	return nil
}

// Stop ends the capture and lets the provider flush. It returns before the
// ended event is delivered.
func (e *Engine) Stop() error {
	e.mu.Lock()
	s := e.current
	e.mu.Unlock()
	if s == nil {
		return nil
	}
	s.stop(e.cfg.CloseGrace)
	return nil
}

type stream struct {
	conn      *websocket.Conn
	capture   ports.AudioSession
	listener  ports.RecognitionListener
	chunkSize int
	logger    zerolog.Logger

	stopOnce sync.Once
	stopping atomic.Bool
	failed   atomic.Bool
	timerMu  sync.Mutex
	watchdog *time.Timer
}

func (s *stream) run(release func()) {
	s.listener.HandleStarted()

	writeDone := make(chan struct{})
	go func() {
		defer close(writeDone)
		s.writeLoop()
	}()

	s.readLoop()

	_ = s.capture.Stop()
	_ = s.conn.Close()
	<-writeDone

	s.timerMu.Lock()
	if s.watchdog != nil {
		s.watchdog.Stop()
	}
	s.timerMu.Unlock()

	release()
	s.logger.Info().Bool("failed", s.failed.Load()).Msg("stream closed")
	s.listener.HandleEnded()
}

func (s *stream) stop(grace time.Duration) {
	s.stopOnce.Do(func() {
		s.stopping.Store(true)
		if err := s.capture.Stop(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to stop audio capture cleanly")
		}
		s.timerMu.Lock()
		s.watchdog = time.AfterFunc(grace, func() {
			s.logger.Warn().Dur("grace", grace).Msg("provider did not close in time")
			_ = s.conn.Close()
		})
		s.timerMu.Unlock()
	})
}

// fail reports the first failure of a stream that was not being stopped.
func (s *stream) fail(code domain.ErrorCode, err error) {
	if s.stopping.Load() {
		s.logger.Debug().Err(err).Msg("error while stopping")
		return
	}
	if !s.failed.CompareAndSwap(false, true) {
		return
	}
	s.logger.Error().Err(err).Str("code", string(code)).Msg("stream failed")
	s.listener.HandleError(string(code))
}

func (s *stream) writeLoop() {
	send := func(chunk []byte) error {
		return s.conn.WriteMessage(websocket.BinaryMessage, chunk)
	}
	pumpAudio(s.capture, send, s.chunkSize, func(code domain.ErrorCode, err error) {
		s.fail(code, err)
		_ = s.conn.Close()
	})
	if s.failed.Load() {
		return
	}

	if err := s.conn.WriteMessage(websocket.TextMessage, closeStreamMessage); err != nil {
		s.fail(domain.ErrorCodeNetwork, fmt.Errorf("failed to close stream: %w", err))
	}
}

func (s *stream) readLoop() {
	for {
		_, payload, err := s.conn.ReadMessage()
		if err != nil {
			if !isNormalClose(err) {
				s.fail(domain.ErrorCodeNetwork, fmt.Errorf("failed to read provider event: %w", err))
			}
			return
		}

		var response deepgramResponse
		if err := json.Unmarshal(payload, &response); err != nil {
			continue
		}

		if strings.EqualFold(response.Type, "Error") {
			message := strings.TrimSpace(response.Message)
			if message == "" {
				message = "deepgram returned an unknown error"
			}
			s.fail(domain.ErrorCodeNetwork, errors.New(message))
			return
		}

		if result, ok := toRecognitionResult(response); ok {
			s.listener.HandleResult(result)
		}
	}
}

func isNormalClose(err error) bool {
	return websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseNoStatusReceived,
	)
}

type deepgramAlternative struct {
	Transcript string  `json:"transcript"`
	Confidence float64 `json:"confidence"`
}

type deepgramResponse struct {
	Type        string `json:"type"`
	Message     string `json:"message"`
	IsFinal     bool   `json:"is_final"`
	SpeechFinal bool   `json:"speech_final"`

	Channel struct {
		Alternatives []deepgramAlternative `json:"alternatives"`
	} `json:"channel"`

	Results struct {
		Channels []struct {
			Alternatives []deepgramAlternative `json:"alternatives"`
		} `json:"channels"`
	} `json:"results"`
}

func firstAlternative(response deepgramResponse) (deepgramAlternative, bool) {
	if len(response.Channel.Alternatives) > 0 {
		if alt := response.Channel.Alternatives[0]; strings.TrimSpace(alt.Transcript) != "" {
			return alt, true
		}
	}
	if len(response.Results.Channels) > 0 && len(response.Results.Channels[0].Alternatives) > 0 {
		alt := response.Results.Channels[0].Alternatives[0]
		return alt, strings.TrimSpace(alt.Transcript) != ""
	}
	return deepgramAlternative{}, false
}

// toRecognitionResult maps one provider message onto a single-slot result.
// Deepgram replaces the open utterance until it is final, which matches how
// the controller treats interim text.
func toRecognitionResult(response deepgramResponse) (domain.RecognitionResult, bool) {
	if response.Type != "" && !strings.EqualFold(response.Type, "Results") {
		return domain.RecognitionResult{}, false
	}
	alt, ok := firstAlternative(response)
	if !ok {
		return domain.RecognitionResult{}, false
	}
	return domain.RecognitionResult{
		Results: []domain.SpeechResult{{
			Alternatives: []domain.Alternative{{
				Transcript: strings.TrimSpace(alt.Transcript),
				Confidence: alt.Confidence,
			}},
			IsFinal: response.IsFinal || response.SpeechFinal,
		}},
	}, true
}

func buildListenURL(cfg Config, opts ports.StartOptions) (string, error) {
	base := strings.TrimSpace(cfg.APIBaseURL)
	if base == "" {
		base = "https://api.deepgram.com/v1"
	}

	if strings.HasPrefix(base, "https://") {
		base = "wss://" + strings.TrimPrefix(base, "https://")
	} else if strings.HasPrefix(base, "http://") {
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}
	base = strings.TrimRight(base, "/")

	listenURL, err := url.Parse(base + "/listen")
	if err != nil {
		return "", fmt.Errorf("invalid Deepgram API base URL: %w", err)
	}

	sampleRate := cfg.Audio.SampleRate
	if sampleRate <= 0 {
		sampleRate = 16000
	}
	channels := cfg.Audio.Channels
	if channels <= 0 {
		channels = 1
	}

	query := listenURL.Query()
	query.Set("model", cfg.Model)
	query.Set("encoding", "linear16")
	query.Set("sample_rate", fmt.Sprintf("%d", sampleRate))
	query.Set("channels", fmt.Sprintf("%d", channels))
	query.Set("interim_results", fmt.Sprintf("%t", opts.InterimResults))
	query.Set("smart_format", fmt.Sprintf("%t", cfg.SmartFormat))
	if opts.Language != "" {
		query.Set("language", opts.Language)
	}
	listenURL.RawQuery = query.Encode()
	return listenURL.String(), nil
}
