// Package bootstrap assembles the runtime graph shared by every shell.
package bootstrap

import (
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"stthebrew/internal/audio"
	"stthebrew/internal/config"
	"stthebrew/internal/locale"
	"stthebrew/internal/logging"
	"stthebrew/internal/ports"
	"stthebrew/internal/providers/deepgram"
	"stthebrew/internal/rules"
	"stthebrew/internal/usecase"
)

// Options are the command-line inputs to Load.
type Options struct {
	ConfigPath string
	LogDir     string
	// LogWriter overrides the diagnostics file, mostly for tests.
	LogWriter io.Writer
}

// Runtime holds the shell-independent services.
type Runtime struct {
	Config  config.Config
	Logger  zerolog.Logger
	Catalog *locale.Catalog
	Rules   *rules.Engine

	logCloser io.Closer
}

// Load resolves config, opens the diagnostics log and loads rules and
// localized text.
func Load(opts Options) (*Runtime, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	rt := &Runtime{Config: cfg}
	if opts.LogWriter != nil {
		rt.Logger = logging.New(opts.LogWriter, cfg.Log.Level)
	} else {
		logDir, err := logging.ResolveDir(firstNonEmpty(opts.LogDir, cfg.Log.Path))
		if err != nil {
			return nil, err
		}
		rt.Logger, rt.logCloser, err = logging.Open(logDir, cfg.Log.Level)
		if err != nil {
			return nil, err
		}
	}

	rt.Rules, err = rules.Load(rules.Options{
		Path:      cfg.Rules.Path,
		Builtin:   cfg.Rules.Builtin,
		LoopLimit: cfg.Rules.IterationLimit,
	})
	if err != nil {
		return nil, errors.Join(err, rt.Close())
	}

	rt.Catalog, err = locale.NewCatalog(cfg.UI.Locale)
	if err != nil {
		return nil, errors.Join(err, rt.Close())
	}

	rt.Logger.Info().
		Str("language", cfg.Session.Language).
		Str("policy", cfg.Session.AppendPolicy).
		Str("cleanup", cfg.Session.Cleanup).
		Int("rules", rt.Rules.Len()).
		Msg("runtime loaded")
	return rt, nil
}

// Close flushes and closes the diagnostics log.
func (r *Runtime) Close() error {
	if r.logCloser == nil {
		return nil
	}
	err := r.logCloser.Close()
	r.logCloser = nil
	return err
}

// DeepgramEngine builds the streaming engine used outside the webview.
func (r *Runtime) DeepgramEngine() *deepgram.Engine {
	cfg := r.Config
	return deepgram.NewEngine(deepgram.Config{
		APIKey:      cfg.Deepgram.APIKey,
		APIBaseURL:  cfg.Deepgram.APIBaseURL,
		Model:       cfg.Deepgram.Model,
		SmartFormat: cfg.Deepgram.SmartFormat,
		Audio: ports.AudioConfig{
			SampleRate:  cfg.Audio.SampleRate,
			Channels:    cfg.Audio.Channels,
			InputFormat: cfg.Audio.InputFormat,
			InputDevice: cfg.Audio.InputDevice,
		},
		ChunkSize: cfg.Audio.ChunkSize,
	}, audio.NewMicrophone(cfg.Audio.RecorderCommand, r.Logger), r.Logger)
}

// Controller wires a dictation controller to the given shell adapters.
func (r *Runtime) Controller(
	engine ports.RecognitionEngine,
	events ports.EventSink,
	saver ports.FileSaver,
	clipboard ports.Clipboard,
) (*usecase.DictationController, error) {
	cfg := r.Config
	logger := r.Logger.With().Str("component", "controller").Logger()
	controller, err := usecase.NewDictationController(engine, r.Rules, saver, clipboard, events, usecase.Config{
		Language:     cfg.Session.Language,
		Continuous:   cfg.Session.Continuous,
		Mobile:       cfg.Session.Mobile,
		RestartDelay: cfg.Session.RestartDelay,
		AppendPolicy: cfg.Session.AppendPolicy,
		Cleanup:      cfg.Session.Cleanup,
		ExportPrefix: cfg.Export.Prefix,
		Logger:       &logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build controller: %w", err)
	}
	return controller, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
