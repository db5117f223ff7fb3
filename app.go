package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/wailsapp/wails/v2/pkg/runtime"

	"stthebrew/internal/bootstrap"
	"stthebrew/internal/domain"
	"stthebrew/internal/export"
	"stthebrew/internal/filesave"
	"stthebrew/internal/locale"
	"stthebrew/internal/platform"
	"stthebrew/internal/ports"
	"stthebrew/internal/usecase"
)

const (
	eventSession    = "stt:session"
	eventPartial    = "stt:partial"
	eventTranscript = "stt:transcript"
	eventNotice     = "stt:notice"
	eventError      = "stt:error"
	eventEngine     = "stt:engine"
)

// App is the Wails application root. It is the controller's event sink and,
// through webviewEngine, its recognition engine.
type App struct {
	ctx  context.Context
	opts bootstrap.Options
	emit func(ctx context.Context, name string, data ...interface{})

	rt         *bootstrap.Runtime
	controller *usecase.DictationController
	catalog    *locale.Catalog
	engine     *webviewEngine
	bootErr    error
}

func NewApp(opts bootstrap.Options) *App {
	a := &App{opts: opts, emit: runtime.EventsEmit}
	a.engine = newWebviewEngine(a.emitEvent)
	return a
}

func (a *App) startup(ctx context.Context) {
	a.ctx = ctx

	if err := a.boot(); err != nil {
		a.bootErr = err
		a.SessionError(domain.ErrorCodeStartup, err.Error())
		return
	}
	a.SessionStateChanged(domain.SessionStateIdle, domain.ReasonReady)
}

func (a *App) boot() error {
	rt, err := bootstrap.Load(a.opts)
	if err != nil {
		return err
	}
	a.rt = rt
	a.catalog = rt.Catalog

	controller, err := rt.Controller(a.engine, a, dialogSaver{dir: rt.Config.Export.Dir}, wailsClipboard{})
	if err != nil {
		return errors.Join(err, rt.Close())
	}
	a.controller = controller
	return nil
}

func (a *App) shutdown(_ context.Context) {
	if a.controller != nil {
		_ = a.controller.Stop()
	}
	if a.rt != nil {
		_ = a.rt.Close()
	}
}

// ReportEnvironment is called once by the frontend after load with the
// webview's speech capability and user agent.
func (a *App) ReportEnvironment(hasSpeech bool, userAgent string) domain.Status {
	if err := a.requireReady(); err != nil {
		return a.GetStatus()
	}
	a.engine.setAvailable(hasSpeech)
	if platform.IsMobileUserAgent(userAgent) {
		a.controller.SetMobile(true)
	}
	if !hasSpeech {
		a.SessionError(domain.ErrorCodeUnavailable, "")
	}
	return a.controller.Status()
}

// StartRecording begins dictation.
func (a *App) StartRecording() (domain.Status, error) {
	if err := a.requireReady(); err != nil {
		return domain.Status{}, err
	}
	err := a.controller.Start(a.ctx)
	return a.controller.Status(), err
}

// StopRecording ends dictation. Stopping with nothing running is not an error.
func (a *App) StopRecording() (domain.Status, error) {
	if err := a.requireReady(); err != nil {
		return domain.Status{}, err
	}
	if err := a.controller.Stop(); err != nil && !errors.Is(err, usecase.ErrNoActiveSession) {
		return a.controller.Status(), err
	}
	return a.controller.Status(), nil
}

// Clear empties the transcript.
func (a *App) Clear() (domain.Status, error) {
	if err := a.requireReady(); err != nil {
		return domain.Status{}, err
	}
	a.controller.Clear()
	return a.controller.Status(), nil
}

// RemoveDuplicates runs the configured cleanup and returns the removed word
// count.
func (a *App) RemoveDuplicates() (int, error) {
	if err := a.requireReady(); err != nil {
		return 0, err
	}
	return a.controller.RemoveDuplicates(), nil
}

// Download exports the transcript. A cancelled save dialog is not an error.
func (a *App) Download(format string) (domain.Status, error) {
	if err := a.requireReady(); err != nil {
		return domain.Status{}, err
	}
	_, err := a.controller.Download(a.ctx, domain.ParseExportFormat(format))
	if err != nil && !errors.Is(err, ports.ErrSaveCancelled) && !errors.Is(err, usecase.ErrNothingToExport) {
		return a.controller.Status(), err
	}
	return a.controller.Status(), nil
}

// Copy writes the transcript to the clipboard.
func (a *App) Copy() error {
	if err := a.requireReady(); err != nil {
		return err
	}
	err := a.controller.CopyTranscript(a.ctx)
	if errors.Is(err, usecase.ErrNothingToExport) {
		return nil
	}
	return err
}

// EditTranscript stores text typed into the transcript area.
func (a *App) EditTranscript(text string) error {
	if err := a.requireReady(); err != nil {
		return err
	}
	a.controller.EditTranscript(text)
	return nil
}

// SetLanguage selects the recognition language for the next start.
func (a *App) SetLanguage(tag string) (domain.Status, error) {
	if err := a.requireReady(); err != nil {
		return domain.Status{}, err
	}
	err := a.controller.SetLanguage(tag)
	return a.controller.Status(), err
}

// SetContinuous toggles continuous mode.
func (a *App) SetContinuous(continuous bool) (domain.Status, error) {
	if err := a.requireReady(); err != nil {
		return domain.Status{}, err
	}
	a.controller.SetContinuous(continuous)
	return a.controller.Status(), nil
}

// RecognitionStarted forwards the webview's start event.
func (a *App) RecognitionStarted() {
	a.engine.started()
}

// RecognitionResult forwards one webview result event.
func (a *App) RecognitionResult(result domain.RecognitionResult) {
	a.engine.result(result)
}

// RecognitionError forwards the webview's error code.
func (a *App) RecognitionError(code string) {
	a.engine.failed(code)
}

// RecognitionEnded forwards the webview's end event.
func (a *App) RecognitionEnded() {
	a.engine.ended()
}

// GetStatus returns the current session status.
func (a *App) GetStatus() domain.Status {
	if a.controller == nil {
		if a.bootErr != nil {
			return domain.Status{State: domain.SessionStateIdle, Message: a.errorMessage(domain.ErrorCodeStartup, a.bootErr.Error())}
		}
		return domain.Status{State: domain.SessionStateIdle}
	}
	return a.controller.Status()
}

// GetLanguages lists the recognition languages for the selector.
func (a *App) GetLanguages() []locale.Language {
	uiLocale := "he"
	if a.rt != nil {
		uiLocale = a.rt.Config.UI.Locale
	}
	return locale.SupportedLanguages(uiLocale)
}

// GetRuntimeInfo returns non-sensitive config for the UI.
func (a *App) GetRuntimeInfo() map[string]string {
	if a.bootErr != nil {
		return map[string]string{"error": a.bootErr.Error()}
	}
	if a.rt == nil {
		return map[string]string{}
	}

	cfg := a.rt.Config
	return map[string]string{
		"locale":       cfg.UI.Locale,
		"exportFormat": string(cfg.Export.Format),
		"exportDir":    cfg.Export.Dir,
		"rulesFile":    cfg.Rules.Path,
		"appendPolicy": cfg.Session.AppendPolicy,
		"cleanup":      cfg.Session.Cleanup,
	}
}

func (a *App) requireReady() error {
	if a.bootErr != nil {
		return a.bootErr
	}
	if a.controller == nil {
		return fmt.Errorf("application is not initialized")
	}
	return nil
}

func (a *App) emitEvent(name string, data any) {
	if a.ctx == nil {
		return
	}
	a.emit(a.ctx, name, data)
}

// SessionStateChanged emits session lifecycle updates to the frontend.
func (a *App) SessionStateChanged(state domain.SessionState, reason domain.StatusReason) {
	a.emitEvent(eventSession, map[string]string{
		"state":   string(state),
		"reason":  string(reason),
		"message": a.reasonMessage(reason, ""),
	})
}

// PartialTranscript emits live interim text.
func (a *App) PartialTranscript(text string) {
	message := text
	if a.catalog != nil {
		message = a.catalog.Interim(text)
	}
	a.emitEvent(eventPartial, map[string]string{"text": text, "message": message})
}

// TranscriptChanged emits the full transcript buffer.
func (a *App) TranscriptChanged(text string) {
	a.emitEvent(eventTranscript, map[string]string{"text": text})
}

// Notice emits a one-off status message.
func (a *App) Notice(reason domain.StatusReason, detail string) {
	a.emitEvent(eventNotice, map[string]string{
		"reason":  string(reason),
		"detail":  detail,
		"message": a.reasonMessage(reason, detail),
	})
}

// SessionError emits backend errors to the UI.
func (a *App) SessionError(code domain.ErrorCode, detail string) {
	a.emitEvent(eventError, map[string]string{
		"code":    string(code),
		"message": a.errorMessage(code, detail),
		"detail":  detail,
	})
}

func (a *App) reasonMessage(reason domain.StatusReason, detail string) string {
	if a.catalog == nil {
		return ""
	}
	return a.catalog.Reason(reason, detail)
}

func (a *App) errorMessage(code domain.ErrorCode, detail string) string {
	if a.catalog == nil {
		if detail == "" {
			return string(code)
		}
		return detail
	}
	return a.catalog.Error(code, detail)
}

// dialogSaver asks where to save through the native dialog.
type dialogSaver struct {
	dir string
}

func (s dialogSaver) Save(ctx context.Context, doc export.Document) error {
	ext := string(doc.Format)
	path, err := runtime.SaveFileDialog(ctx, runtime.SaveDialogOptions{
		DefaultDirectory: s.dir,
		DefaultFilename:  doc.Filename,
		Filters: []runtime.FileFilter{{
			DisplayName: strings.ToUpper(ext),
			Pattern:     "*." + ext,
		}},
	})
	if err != nil {
		return fmt.Errorf("save dialog: %w", err)
	}
	if path == "" {
		return ports.ErrSaveCancelled
	}
	return filesave.WriteFile(path, doc.Content)
}

type wailsClipboard struct{}

func (wailsClipboard) SetText(ctx context.Context, text string) error {
	return runtime.ClipboardSetText(ctx, text)
}
