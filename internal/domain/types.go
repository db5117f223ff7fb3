package domain

// SessionState models the dictation lifecycle.
type SessionState string

const (
	SessionStateIdle       SessionState = "idle"
	SessionStateListening  SessionState = "listening"
	SessionStateRestarting SessionState = "restarting"
)

// StatusReason provides a structured reason for status updates.
type StatusReason string

const (
	ReasonReady             StatusReason = "ready"
	ReasonRecordingStarted  StatusReason = "recording_started"
	ReasonRecordingResumed  StatusReason = "recording_resumed"
	ReasonRecordingStopped  StatusReason = "recording_stopped"
	ReasonRestartScheduled  StatusReason = "restart_scheduled"
	ReasonAlreadyRecording  StatusReason = "already_recording"
	ReasonMobileDetected    StatusReason = "mobile_detected"
	ReasonCleared           StatusReason = "cleared"
	ReasonDuplicatesRemoved StatusReason = "duplicates_removed"
	ReasonExported          StatusReason = "exported"
	ReasonCopied            StatusReason = "copied"
	ReasonLanguageChanged   StatusReason = "language_changed"
)

// ErrorCode identifies recognition and application errors. The first group
// mirrors the speech engine's vocabulary.
type ErrorCode string

const (
	ErrorCodeNoSpeech             ErrorCode = "no-speech"
	ErrorCodeAudioCapture         ErrorCode = "audio-capture"
	ErrorCodeNotAllowed           ErrorCode = "not-allowed"
	ErrorCodeNetwork              ErrorCode = "network"
	ErrorCodeServiceNotAllowed    ErrorCode = "service-not-allowed"
	ErrorCodeBadGrammar           ErrorCode = "bad-grammar"
	ErrorCodeLanguageNotSupported ErrorCode = "language-not-supported"
	ErrorCodeAborted              ErrorCode = "aborted"
	ErrorCodeUnknown              ErrorCode = "unknown"

	ErrorCodeStartup         ErrorCode = "startup"
	ErrorCodeUnavailable     ErrorCode = "unavailable"
	ErrorCodeStartFailed     ErrorCode = "start-failed"
	ErrorCodeNothingToExport ErrorCode = "nothing-to-export"
	ErrorCodeExportFailed    ErrorCode = "export-failed"
	ErrorCodeClipboard       ErrorCode = "clipboard"
)

var engineErrorCodes = map[ErrorCode]struct{}{
	ErrorCodeNoSpeech:             {},
	ErrorCodeAudioCapture:         {},
	ErrorCodeNotAllowed:           {},
	ErrorCodeNetwork:              {},
	ErrorCodeServiceNotAllowed:    {},
	ErrorCodeBadGrammar:           {},
	ErrorCodeLanguageNotSupported: {},
	ErrorCodeAborted:              {},
	ErrorCodeUnknown:              {},
}

// ParseEngineErrorCode maps a raw engine error string onto the fixed
// vocabulary. Anything unrecognised becomes ErrorCodeUnknown.
func ParseEngineErrorCode(raw string) ErrorCode {
	code := ErrorCode(raw)
	if _, ok := engineErrorCodes[code]; ok {
		return code
	}
	return ErrorCodeUnknown
}

// Alternative is one recognition hypothesis for a result.
type Alternative struct {
	Transcript string  `json:"transcript"`
	Confidence float64 `json:"confidence"`
}

// SpeechResult is one result slot. The engine may replay the same slot
// across callbacks until IsFinal is set.
type SpeechResult struct {
	Alternatives []Alternative `json:"alternatives"`
	IsFinal      bool          `json:"isFinal"`
}

// RecognitionResult carries the results changed since ResultIndex.
type RecognitionResult struct {
	ResultIndex int            `json:"resultIndex"`
	Results     []SpeechResult `json:"results"`
}

// ExportFormat selects the download document type.
type ExportFormat string

const (
	ExportFormatTXT  ExportFormat = "txt"
	ExportFormatDOC  ExportFormat = "doc"
	ExportFormatHTML ExportFormat = "html"
)

// ExportFormats lists the formats in selector order.
var ExportFormats = []ExportFormat{ExportFormatTXT, ExportFormatDOC, ExportFormatHTML}

// ParseExportFormat returns the format, falling back to txt.
func ParseExportFormat(raw string) ExportFormat {
	switch ExportFormat(raw) {
	case ExportFormatDOC:
		return ExportFormatDOC
	case ExportFormatHTML:
		return ExportFormatHTML
	default:
		return ExportFormatTXT
	}
}

// Controls reports which commands are currently enabled.
type Controls struct {
	Start            bool `json:"start"`
	Stop             bool `json:"stop"`
	Clear            bool `json:"clear"`
	Download         bool `json:"download"`
	RemoveDuplicates bool `json:"removeDuplicates"`
}

// Status summarizes the current runtime status.
type Status struct {
	State          SessionState `json:"state"`
	Recording      bool         `json:"recording"`
	Available      bool         `json:"available"`
	Continuous     bool         `json:"continuous"`
	Mobile         bool         `json:"mobile"`
	Language       string       `json:"language"`
	Transcript     string       `json:"transcript"`
	PendingInterim string       `json:"pendingInterim,omitempty"`
	Controls       Controls     `json:"controls"`
	Message        string       `json:"message,omitempty"`
}
