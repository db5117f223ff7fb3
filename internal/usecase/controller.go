package usecase

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/metric"

	"stthebrew/internal/domain"
	"stthebrew/internal/export"
	"stthebrew/internal/locale"
	"stthebrew/internal/ports"
	"stthebrew/internal/reconcile"
)

var (
	ErrNoActiveSession   = errors.New("no active recording session")
	ErrEngineUnavailable = errors.New("speech recognition is not available")
)

const defaultRestartDelay = 100 * time.Millisecond

// Config controls dictation behavior.
type Config struct {
	Language     string
	Continuous   bool
	Mobile       bool
	RestartDelay time.Duration
	AppendPolicy string
	Cleanup      string
	ExportPrefix string

	Scheduler ports.Scheduler
	Logger    *zerolog.Logger
	Meter     metric.Meter
	Now       func() time.Time
}

// DictationController owns the recognition lifecycle and the transcript
// buffer. Engine callbacks, user commands and the restart timer may arrive
// on any goroutine; each is applied atomically under mu.
type DictationController struct {
	engine    ports.RecognitionEngine
	rules     ports.RulesEngine
	events    ports.EventSink
	scheduler ports.Scheduler
	policy    reconcile.Policy
	cleanup   reconcile.Cleanup
	exporter  transcriptExporter
	metrics   controllerMetrics
	logger    zerolog.Logger
	delay     time.Duration

	mu      sync.Mutex
	current session
}

func NewDictationController(
	engine ports.RecognitionEngine,
	rules ports.RulesEngine,
	saver ports.FileSaver,
	clipboard ports.Clipboard,
	events ports.EventSink,
	cfg Config,
) (*DictationController, error) {
	policy, err := reconcile.NewPolicy(cfg.AppendPolicy)
	if err != nil {
		return nil, err
	}
	cleanup, err := reconcile.NewCleanup(cfg.Cleanup)
	if err != nil {
		return nil, err
	}
	language, err := locale.NormalizeLanguage(cfg.Language)
	if err != nil {
		return nil, err
	}
	metrics, err := newControllerMetrics(cfg.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}

	logger := zerolog.Nop()
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}
	if cfg.Scheduler == nil {
		cfg.Scheduler = TimeScheduler{}
	}
	if cfg.RestartDelay <= 0 {
		cfg.RestartDelay = defaultRestartDelay
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.ExportPrefix == "" {
		cfg.ExportPrefix = export.DefaultPrefix
	}

	return &DictationController{
		engine:    engine,
		rules:     rules,
		events:    events,
		scheduler: cfg.Scheduler,
		policy:    policy,
		cleanup:   cleanup,
		exporter: transcriptExporter{
			saver:     saver,
			clipboard: clipboard,
			events:    events,
			metrics:   metrics,
			logger:    logger,
			prefix:    cfg.ExportPrefix,
			now:       cfg.Now,
		},
		metrics: metrics,
		logger:  logger.With().Str("policy", policy.Name()).Logger(),
		delay:   cfg.RestartDelay,
		current: session{
			state:      domain.SessionStateIdle,
			language:   language,
			continuous: cfg.Continuous,
			mobile:     cfg.Mobile,
		},
	}, nil
}

// Start asks the engine to begin listening.
func (c *DictationController) Start(ctx context.Context) error {
	c.mu.Lock()
	if !c.engine.Available() {
		c.mu.Unlock()
		c.events.SessionError(domain.ErrorCodeUnavailable, "")
		return ErrEngineUnavailable
	}
	if c.current.starting || c.current.state == domain.SessionStateListening {
		c.events.Notice(domain.ReasonAlreadyRecording, "")
		c.mu.Unlock()
		return nil
	}
	if c.current.state == domain.SessionStateRestarting {
		c.current.cancelRestart()
		c.current.state = domain.SessionStateIdle
	}
	if c.current.mobile {
		c.events.Notice(domain.ReasonMobileDetected, "")
	}
	c.current.stopRequested = false
	c.current.resuming = false
	opts := c.beginStartLocked()
	c.mu.Unlock()

	return c.startEngine(ctx, opts)
}

func (c *DictationController) beginStartLocked() ports.StartOptions {
	c.current.starting = true
	return ports.StartOptions{
		Language:       c.current.language,
		Continuous:     true,
		InterimResults: true,
	}
}

func (c *DictationController) startEngine(ctx context.Context, opts ports.StartOptions) error {
	if err := c.engine.Start(ctx, opts, c); err != nil {
		c.mu.Lock()
		c.current.starting = false
		c.current.resuming = false
		c.current.state = domain.SessionStateIdle
		c.logger.Error().Err(err).Str("language", opts.Language).Msg("recognition start failed")
		c.events.SessionError(domain.ErrorCodeStartFailed, err.Error())
		c.events.SessionStateChanged(domain.SessionStateIdle, domain.ReasonRecordingStopped)
		c.mu.Unlock()
		return fmt.Errorf("start recognition: %w", err)
	}

	// A Stop that landed while the engine was starting may have reached the
	// engine first; repeat it so the engine sees it after the start.
	c.mu.Lock()
	stopped := c.current.stopRequested
	c.mu.Unlock()
	if stopped {
		if err := c.engine.Stop(); err != nil {
			return fmt.Errorf("stop recognition: %w", err)
		}
	}
	return nil
}

// Stop halts recognition without touching the transcript. A stop requested
// here is never followed by an automatic restart.
func (c *DictationController) Stop() error {
	c.mu.Lock()
	if !c.current.active() {
		c.mu.Unlock()
		return ErrNoActiveSession
	}
	c.current.cancelRestart()

	if c.current.state == domain.SessionStateRestarting {
		// The engine has already ended; only the timer was pending.
		c.current.state = domain.SessionStateIdle
		c.current.resuming = false
		c.events.SessionStateChanged(domain.SessionStateIdle, domain.ReasonRecordingStopped)
		c.mu.Unlock()
		return nil
	}

	c.current.stopRequested = true
	c.mu.Unlock()

	if err := c.engine.Stop(); err != nil {
		return fmt.Errorf("stop recognition: %w", err)
	}
	return nil
}

// HandleStarted implements ports.RecognitionListener.
func (c *DictationController) HandleStarted() {
	c.mu.Lock()
	defer c.mu.Unlock()

	reason := domain.ReasonRecordingStarted
	if c.current.resuming {
		reason = domain.ReasonRecordingResumed
	}
	c.current.state = domain.SessionStateListening
	c.current.starting = false
	c.current.resuming = false
	c.current.id = uuid.NewString()

	c.logger.Info().Str("session", c.current.id).Str("language", c.current.language).Msg("recognition started")
	c.events.SessionStateChanged(domain.SessionStateListening, reason)
}

// HandleResult implements ports.RecognitionListener.
func (c *DictationController) HandleResult(result domain.RecognitionResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	final, interim := collectSegments(result)
	if final = strings.TrimSpace(final); final != "" {
		c.appendSegmentLocked(final)
		c.current.pendingInterim = ""
	}

	interim = strings.TrimSpace(interim)
	if utf8.RuneCountInString(interim) > 1 {
		c.current.pendingInterim = interim
		c.events.PartialTranscript(interim)
	}
}

func (c *DictationController) appendSegmentLocked(segment string) {
	rewritten, err := c.rules.Apply(segment)
	if err != nil {
		c.logger.Warn().Err(err).Str("session", c.current.id).Msg("rules failed; using raw segment")
		rewritten = segment
	}

	next := c.policy.Reconcile(c.current.transcript, rewritten)
	if next == c.current.transcript {
		c.metrics.segment(false, c.policy.Name())
		c.logger.Debug().Str("session", c.current.id).Str("segment", rewritten).Msg("segment discarded")
		return
	}
	c.current.transcript = next
	c.metrics.segment(true, c.policy.Name())
	c.events.TranscriptChanged(next)
}

// HandleError implements ports.RecognitionListener. State is left to the
// ended event that follows.
func (c *DictationController) HandleError(raw string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	code := domain.ParseEngineErrorCode(raw)
	c.metrics.engineError(string(code))
	c.logger.Warn().Str("session", c.current.id).Str("code", raw).Msg("recognition error")

	detail := ""
	if code == domain.ErrorCodeUnknown && raw != string(code) {
		detail = raw
	}
	c.events.SessionError(code, detail)
}

// HandleEnded implements ports.RecognitionListener.
func (c *DictationController) HandleEnded() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.current.starting && c.current.state != domain.SessionStateListening {
		return
	}
	// An engine that ends before reporting started refused to start.
	neverStarted := c.current.state != domain.SessionStateListening
	c.current.starting = false

	if utf8.RuneCountInString(c.current.pendingInterim) > 1 {
		c.appendSegmentLocked(c.current.pendingInterim)
	}
	c.current.pendingInterim = ""

	log := c.logger.Info().Str("session", c.current.id)
	switch {
	case c.current.stopRequested:
		c.current.stopRequested = false
		c.current.state = domain.SessionStateIdle
		log.Msg("recognition stopped by user")
		c.events.SessionStateChanged(domain.SessionStateIdle, domain.ReasonRecordingStopped)
	case neverStarted:
		c.current.state = domain.SessionStateIdle
		c.current.resuming = false
		c.logger.Error().Str("language", c.current.language).Msg("recognition ended before it started")
		c.events.SessionError(domain.ErrorCodeStartFailed, "")
		c.events.SessionStateChanged(domain.SessionStateIdle, domain.ReasonRecordingStopped)
	case c.current.mobile || c.current.continuous:
		c.current.state = domain.SessionStateRestarting
		c.current.restartTimer = c.scheduler.AfterFunc(c.delay, c.restart)
		c.metrics.restart(c.current.mobile)
		log.Bool("mobile", c.current.mobile).Dur("delay", c.delay).Msg("restart scheduled")
		c.events.SessionStateChanged(domain.SessionStateRestarting, domain.ReasonRestartScheduled)
	default:
		c.current.state = domain.SessionStateIdle
		log.Msg("recognition ended")
		c.events.SessionStateChanged(domain.SessionStateIdle, domain.ReasonRecordingStopped)
	}
}

// restart runs on the scheduler. A Start or Stop in the meantime moves the
// state off restarting, which turns this into a no-op.
func (c *DictationController) restart() {
	c.mu.Lock()
	if c.current.state != domain.SessionStateRestarting {
		c.mu.Unlock()
		return
	}
	c.current.restartTimer = nil
	c.current.state = domain.SessionStateIdle
	c.current.resuming = true
	opts := c.beginStartLocked()
	c.mu.Unlock()

	_ = c.startEngine(context.Background(), opts)
}

// Clear empties the transcript.
func (c *DictationController) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.current.transcript = ""
	c.current.pendingInterim = ""
	if resetter, ok := c.policy.(reconcile.Resetter); ok {
		resetter.Reset()
	}
	c.events.TranscriptChanged("")
	c.events.Notice(domain.ReasonCleared, "")
}

// RemoveDuplicates runs the cleanup strategy over the transcript and returns
// how many words it dropped.
func (c *DictationController) RemoveDuplicates() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	before := c.current.transcript
	after := c.cleanup.Clean(before)
	removed := reconcile.Removed(before, after)
	c.current.transcript = after

	c.logger.Info().Str("cleanup", c.cleanup.Name()).Int("removed", removed).Msg("duplicates removed")
	c.events.TranscriptChanged(after)
	c.events.Notice(domain.ReasonDuplicatesRemoved, strconv.Itoa(removed))
	return removed
}

// Download exports the transcript in format through the file saver.
func (c *DictationController) Download(ctx context.Context, format domain.ExportFormat) (export.Document, error) {
	return c.exporter.Download(ctx, format, c.Transcript())
}

// CopyTranscript writes the transcript to the clipboard.
func (c *DictationController) CopyTranscript(ctx context.Context) error {
	return c.exporter.Copy(ctx, c.Transcript())
}

// EditTranscript replaces the transcript with user-edited text.
func (c *DictationController) EditTranscript(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current.transcript = text
}

// Transcript returns the current buffer.
func (c *DictationController) Transcript() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current.transcript
}

// SetLanguage selects the recognition language for the next start.
func (c *DictationController) SetLanguage(tag string) error {
	language, err := locale.NormalizeLanguage(tag)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.current.language = language
	c.events.Notice(domain.ReasonLanguageChanged, language)
	return nil
}

func (c *DictationController) SetContinuous(continuous bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current.continuous = continuous
}

func (c *DictationController) SetMobile(mobile bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current.mobile = mobile
}

// Status returns a snapshot of the controller.
func (c *DictationController) Status() domain.Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	available := c.engine.Available()
	s := c.current
	hasText := strings.TrimSpace(s.transcript) != ""
	return domain.Status{
		State:          s.state,
		Recording:      s.state == domain.SessionStateListening,
		Available:      available,
		Continuous:     s.continuous,
		Mobile:         s.mobile,
		Language:       s.language,
		Transcript:     s.transcript,
		PendingInterim: s.pendingInterim,
		Controls: domain.Controls{
			Start:            available && !s.starting && s.state != domain.SessionStateListening,
			Stop:             s.active(),
			Clear:            true,
			Download:         hasText,
			RemoveDuplicates: hasText,
		},
	}
}

// Controls reports which commands are currently enabled.
func (c *DictationController) Controls() domain.Controls {
	return c.Status().Controls
}
