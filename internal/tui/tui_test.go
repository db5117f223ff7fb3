package tui

import (
	"context"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"stthebrew/internal/domain"
	"stthebrew/internal/export"
	"stthebrew/internal/locale"
)

func TestToggleStartsAndStops(t *testing.T) {
	t.Parallel()

	ctrl := &fakeController{}
	m := newTestModel(t, ctrl)

	if _, cmd := press(m, tea.KeyMsg{Type: tea.KeyCtrlAt}); cmd != nil {
		t.Fatalf("toggle must be ignored while start is disabled")
	}

	m.status.Controls.Start = true
	m, cmd := press(m, tea.KeyMsg{Type: tea.KeyCtrlAt})
	msg := cmd()
	if ctrl.count("start") != 1 {
		t.Fatalf("expected start, calls=%v", ctrl.calls)
	}
	if _, ok := msg.(statusMsg); !ok {
		t.Fatalf("expected status refresh, got %T", msg)
	}

	m.status.Controls.Stop = true
	_, cmd = press(m, tea.KeyMsg{Type: tea.KeyCtrlAt})
	cmd()
	if ctrl.count("stop") != 1 || ctrl.count("start") != 1 {
		t.Fatalf("expected stop, calls=%v", ctrl.calls)
	}
}

func TestTabCyclesFormatAndDownloadUsesIt(t *testing.T) {
	t.Parallel()

	ctrl := &fakeController{}
	m := newTestModel(t, ctrl)
	if m.format != domain.ExportFormatTXT {
		t.Fatalf("expected txt default, got %s", m.format)
	}

	want := []domain.ExportFormat{domain.ExportFormatDOC, domain.ExportFormatHTML, domain.ExportFormatTXT, domain.ExportFormatDOC}
	for _, format := range want {
		m, _ = press(m, tea.KeyMsg{Type: tea.KeyTab})
		if m.format != format {
			t.Fatalf("expected %s, got %s", format, m.format)
		}
	}

	if _, cmd := press(m, tea.KeyMsg{Type: tea.KeyCtrlS}); cmd != nil {
		t.Fatalf("download must be ignored with an empty transcript")
	}
	if ctrl.count("download") != 0 {
		t.Fatalf("download called while disabled: %v", ctrl.calls)
	}

	m.status.Controls.Download = true
	_, cmd := press(m, tea.KeyMsg{Type: tea.KeyCtrlS})
	cmd()
	if ctrl.downloaded != domain.ExportFormatDOC {
		t.Fatalf("expected doc download, got %q", ctrl.downloaded)
	}
}

func TestClearIsGatedOnControls(t *testing.T) {
	t.Parallel()

	ctrl := &fakeController{}
	m := newTestModel(t, ctrl)

	if _, cmd := press(m, tea.KeyMsg{Type: tea.KeyCtrlL}); cmd != nil {
		t.Fatalf("clear must be ignored while disabled")
	}

	m.status.Controls.Clear = true
	_, cmd := press(m, tea.KeyMsg{Type: tea.KeyCtrlL})
	cmd()
	if ctrl.count("clear") != 1 {
		t.Fatalf("expected clear, calls=%v", ctrl.calls)
	}
}

func TestOtherCommands(t *testing.T) {
	t.Parallel()

	ctrl := &fakeController{}
	m := newTestModel(t, ctrl)

	for _, key := range []tea.KeyType{tea.KeyCtrlR, tea.KeyCtrlY} {
		if _, cmd := press(m, tea.KeyMsg{Type: key}); cmd != nil {
			t.Fatalf("%s must be ignored with an empty transcript", key)
		}
	}

	m.status.Controls.Download = true
	m.status.Controls.RemoveDuplicates = true
	for _, key := range []tea.KeyType{tea.KeyCtrlR, tea.KeyCtrlY, tea.KeyCtrlT} {
		_, cmd := press(m, tea.KeyMsg{Type: key})
		cmd()
	}
	if ctrl.count("dedup") != 1 || ctrl.count("copy") != 1 {
		t.Fatalf("unexpected calls: %v", ctrl.calls)
	}
	if !ctrl.continuous {
		t.Fatalf("ctrl+t must enable continuous mode")
	}
}

func TestEventsUpdateView(t *testing.T) {
	t.Parallel()

	m := newTestModel(t, &fakeController{})

	m = apply(m, statusMsg(domain.Status{State: domain.SessionStateListening, Language: "he-IL"}))
	m = apply(m, stateMsg{state: domain.SessionStateListening, reason: domain.ReasonRecordingStarted})
	m = apply(m, transcriptMsg{text: "שלום"})
	m = apply(m, partialMsg{text: "עולם"})

	view := m.View()
	for _, want := range []string{"● REC", "שלום", "עולם", "Recording...", "he-IL"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q:\n%s", want, view)
		}
	}

	m = apply(m, noticeMsg{reason: domain.ReasonDuplicatesRemoved, detail: "3"})
	if m.message != "Removed 3 duplicate words" || m.isError {
		t.Fatalf("unexpected notice: %q error=%v", m.message, m.isError)
	}

	m = apply(m, errorMsg{code: domain.ErrorCodeNothingToExport})
	if m.message != "No text to download" || !m.isError {
		t.Fatalf("unexpected error message: %q", m.message)
	}

	m = apply(m, stateMsg{state: domain.SessionStateIdle, reason: domain.ReasonRecordingStopped})
	if m.partial != "" {
		t.Fatalf("partial must clear when listening ends")
	}
	if !strings.Contains(m.View(), "○ STANDBY") {
		t.Fatalf("expected standby indicator")
	}
}

func TestSinkWithoutProgramDropsEvents(t *testing.T) {
	t.Parallel()

	sink := NewSink()
	sink.SessionStateChanged(domain.SessionStateIdle, domain.ReasonReady)
	sink.PartialTranscript("x")
	sink.TranscriptChanged("x")
	sink.Notice(domain.ReasonCleared, "")
	sink.SessionError(domain.ErrorCodeUnknown, "")
}

func newTestModel(t *testing.T, ctrl Controller) model {
	t.Helper()
	catalog, err := locale.NewCatalog("en")
	if err != nil {
		t.Fatalf("catalog failed: %v", err)
	}
	return newModel(context.Background(), ctrl, catalog, domain.ExportFormatTXT)
}

func press(m model, key tea.KeyMsg) (model, tea.Cmd) {
	next, cmd := m.Update(key)
	return next.(model), cmd
}

func apply(m model, msg tea.Msg) model {
	next, _ := m.Update(msg)
	return next.(model)
}

type fakeController struct {
	mu         sync.Mutex
	calls      []string
	downloaded domain.ExportFormat
	continuous bool
}

func (f *fakeController) record(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
}

func (f *fakeController) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, call := range f.calls {
		if call == name {
			n++
		}
	}
	return n
}

func (f *fakeController) Start(context.Context) error { f.record("start"); return nil }
func (f *fakeController) Stop() error                 { f.record("stop"); return nil }
func (f *fakeController) Clear()                      { f.record("clear") }
func (f *fakeController) RemoveDuplicates() int       { f.record("dedup"); return 0 }

func (f *fakeController) Download(_ context.Context, format domain.ExportFormat) (export.Document, error) {
	f.record("download")
	f.downloaded = format
	return export.Document{Format: format}, nil
}

func (f *fakeController) CopyTranscript(context.Context) error { f.record("copy"); return nil }

func (f *fakeController) SetContinuous(continuous bool) {
	f.record("continuous")
	f.continuous = continuous
}

func (f *fakeController) Status() domain.Status {
	return domain.Status{Continuous: f.continuous}
}
