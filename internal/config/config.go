// Package config resolves runtime configuration from defaults, an optional
// YAML file and environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"stthebrew/internal/domain"
	"stthebrew/internal/locale"
	"stthebrew/internal/reconcile"
)

// Config stores runtime configuration.
type Config struct {
	Session  SessionConfig
	Export   ExportConfig
	UI       UIConfig
	Rules    RulesConfig
	Log      LogConfig
	Deepgram DeepgramConfig
	Audio    AudioConfig
}

type SessionConfig struct {
	Language     string
	Continuous   bool
	Mobile       bool
	RestartDelay time.Duration
	AppendPolicy string
	Cleanup      string
}

type ExportConfig struct {
	Dir    string
	Format domain.ExportFormat
	Prefix string
}

type UIConfig struct {
	Locale string
}

type RulesConfig struct {
	Path           string
	IterationLimit int
	Builtin        bool
}

type LogConfig struct {
	Level string
	Path  string
}

type DeepgramConfig struct {
	APIKey      string
	APIBaseURL  string
	Model       string
	SmartFormat bool
}

type AudioConfig struct {
	RecorderCommand string
	InputFormat     string
	InputDevice     string
	SampleRate      int
	Channels        int
	ChunkSize       int
}

// env maps config keys to the environment variables that override them.
var env = map[string]string{
	"session.language":         "STT_LANGUAGE",
	"session.continuous":       "STT_CONTINUOUS",
	"session.mobile":           "STT_MOBILE",
	"session.restart_delay_ms": "STT_RESTART_DELAY_MS",
	"session.append_policy":    "STT_APPEND_POLICY",
	"session.cleanup":          "STT_CLEANUP",
	"export.dir":               "STT_EXPORT_DIR",
	"export.format":            "STT_EXPORT_FORMAT",
	"export.prefix":            "STT_EXPORT_PREFIX",
	"ui.locale":                "STT_UI_LOCALE",
	"rules.file":               "STT_RULES_FILE",
	"rules.iteration_limit":    "STT_RULE_ITERATION_LIMIT",
	"rules.builtin":            "STT_RULES_BUILTIN",
	"log.level":                "STT_LOG_LEVEL",
	"log.path":                 "STT_LOG_PATH",
	"deepgram.api_key":         "DEEPGRAM_API_KEY",
	"deepgram.api_base":        "DEEPGRAM_API_BASE",
	"deepgram.model":           "DEEPGRAM_MODEL",
	"deepgram.smart_format":    "DEEPGRAM_SMART_FORMAT",
	"audio.ffmpeg_command":     "STT_FFMPEG_COMMAND",
	"audio.input_format":       "STT_AUDIO_INPUT_FORMAT",
	"audio.input_device":       "STT_AUDIO_INPUT_DEVICE",
	"audio.sample_rate":        "STT_SAMPLE_RATE",
	"audio.channels":           "STT_CHANNELS",
	"audio.chunk_size":         "STT_AUDIO_CHUNK_SIZE",
}

const (
	defaultRestartDelayMS = 100
	defaultIterationLimit = 30
	defaultSampleRate     = 16000
	defaultChannels       = 1
	defaultChunkSize      = 4096
	minChunkSize          = 256
)

// Load resolves configuration. path names an optional YAML file; when empty
// $STT_CONFIG is consulted, then config.yaml in the user config directory.
// An explicitly named file that does not exist is an error.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)
	for key, name := range env {
		if err := v.BindEnv(key, name); err != nil {
			return Config{}, fmt.Errorf("bind %s: %w", name, err)
		}
	}

	explicit := firstNonEmpty(path, os.Getenv("STT_CONFIG"))
	if explicit != "" {
		v.SetConfigFile(explicit)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config %q: %w", explicit, err)
		}
	} else if dir, err := os.UserConfigDir(); err == nil {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(filepath.Join(dir, "stthebrew"))
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	language, err := locale.NormalizeLanguage(v.GetString("session.language"))
	if err != nil {
		language = locale.DefaultLanguage
	}

	cfg := Config{
		Session: SessionConfig{
			Language:     language,
			Continuous:   boolOrDefault(v, "session.continuous", true),
			Mobile:       boolOrDefault(v, "session.mobile", false),
			RestartDelay: time.Duration(intOrDefault(v, "session.restart_delay_ms", defaultRestartDelayMS)) * time.Millisecond,
			AppendPolicy: oneOf(v.GetString("session.append_policy"), reconcile.PolicyStrictSuffix,
				reconcile.PolicyStrictSuffix, reconcile.PolicyWholeWord, reconcile.PolicyTrailingRun),
			Cleanup: oneOf(v.GetString("session.cleanup"), reconcile.CleanupGlobalUnique,
				reconcile.CleanupGlobalUnique, reconcile.CleanupTrailingRun),
		},
		Export: ExportConfig{
			Dir:    stringOrDefault(v, "export.dir", defaultExportDir()),
			Format: domain.ParseExportFormat(strings.ToLower(v.GetString("export.format"))),
			Prefix: stringOrDefault(v, "export.prefix", "stt-hebrew"),
		},
		UI: UIConfig{
			Locale: stringOrDefault(v, "ui.locale", "he"),
		},
		Rules: RulesConfig{
			Path:           stringOrDefault(v, "rules.file", defaultRulesPath()),
			IterationLimit: intOrDefault(v, "rules.iteration_limit", defaultIterationLimit),
			Builtin:        boolOrDefault(v, "rules.builtin", true),
		},
		Log: LogConfig{
			Level: stringOrDefault(v, "log.level", "info"),
			Path:  strings.TrimSpace(v.GetString("log.path")),
		},
		Deepgram: DeepgramConfig{
			APIKey:      strings.TrimSpace(v.GetString("deepgram.api_key")),
			APIBaseURL:  stringOrDefault(v, "deepgram.api_base", "https://api.deepgram.com/v1"),
			Model:       stringOrDefault(v, "deepgram.model", "nova-2"),
			SmartFormat: boolOrDefault(v, "deepgram.smart_format", true),
		},
		Audio: AudioConfig{
			RecorderCommand: stringOrDefault(v, "audio.ffmpeg_command", "ffmpeg"),
			InputFormat:     stringOrDefault(v, "audio.input_format", "pulse"),
			InputDevice:     stringOrDefault(v, "audio.input_device", "default"),
			SampleRate:      intOrDefault(v, "audio.sample_rate", defaultSampleRate),
			Channels:        intOrDefault(v, "audio.channels", defaultChannels),
			ChunkSize:       intOrDefault(v, "audio.chunk_size", defaultChunkSize),
		},
	}

	if cfg.Session.RestartDelay < 0 {
		cfg.Session.RestartDelay = defaultRestartDelayMS * time.Millisecond
	}
	if cfg.Audio.SampleRate <= 0 {
		cfg.Audio.SampleRate = defaultSampleRate
	}
	if cfg.Audio.Channels <= 0 {
		cfg.Audio.Channels = defaultChannels
	}
	if cfg.Rules.IterationLimit <= 0 {
		cfg.Rules.IterationLimit = defaultIterationLimit
	}
	if cfg.Audio.ChunkSize < minChunkSize {
		cfg.Audio.ChunkSize = defaultChunkSize
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("session.language", locale.DefaultLanguage)
	v.SetDefault("session.restart_delay_ms", defaultRestartDelayMS)
	v.SetDefault("session.append_policy", reconcile.PolicyStrictSuffix)
	v.SetDefault("session.cleanup", reconcile.CleanupGlobalUnique)
	v.SetDefault("export.format", string(domain.ExportFormatTXT))
}

func defaultExportDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	downloads := filepath.Join(home, "Downloads")
	if info, err := os.Stat(downloads); err == nil && info.IsDir() {
		return downloads
	}
	return home
}

func defaultRulesPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	path := filepath.Join(dir, "stthebrew", "substitutions.rules")
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func oneOf(value string, fallback string, allowed ...string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range allowed {
		if value == candidate {
			return value
		}
	}
	return fallback
}

func stringOrDefault(v *viper.Viper, key string, fallback string) string {
	value := strings.TrimSpace(v.GetString(key))
	if value == "" {
		return fallback
	}
	return value
}

func intOrDefault(v *viper.Viper, key string, fallback int) int {
	value := strings.TrimSpace(v.GetString(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func boolOrDefault(v *viper.Viper, key string, fallback bool) bool {
	switch strings.TrimSpace(strings.ToLower(v.GetString(key))) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}
