package deepgram

import (
	"errors"
	"io"
	"strings"
	"testing"

	"stthebrew/internal/domain"
)

type reportedError struct {
	code domain.ErrorCode
	err  error
}

func collectReports(reports *[]reportedError) func(domain.ErrorCode, error) {
	return func(code domain.ErrorCode, err error) {
		*reports = append(*reports, reportedError{code: code, err: err})
	}
}

func TestPumpAudioCopiesUntilEOF(t *testing.T) {
	t.Parallel()

	var sent []string
	var reports []reportedError
	pumpAudio(strings.NewReader("abcdef"), func(chunk []byte) error {
		sent = append(sent, string(chunk))
		return nil
	}, 0, collectReports(&reports))

	if strings.Join(sent, "") != "abcdef" {
		t.Fatalf("unexpected chunks: %q", sent)
	}
	if len(reports) != 0 {
		t.Fatalf("EOF must not be reported: %+v", reports)
	}
}

func TestPumpAudioReportsSendError(t *testing.T) {
	t.Parallel()

	var reports []reportedError
	pumpAudio(strings.NewReader("abc"), func([]byte) error {
		return errors.New("send failed")
	}, 256, collectReports(&reports))

	if len(reports) != 1 || reports[0].code != domain.ErrorCodeNetwork {
		t.Fatalf("expected network report, got %+v", reports)
	}
}

func TestPumpAudioReportsReadError(t *testing.T) {
	t.Parallel()

	var reports []reportedError
	pumpAudio(&errorReader{err: errors.New("read failed")}, func([]byte) error {
		t.Fatalf("nothing should be sent")
		return nil
	}, 256, collectReports(&reports))

	if len(reports) != 1 || reports[0].code != domain.ErrorCodeAudioCapture {
		t.Fatalf("expected audio-capture report, got %+v", reports)
	}
	if !strings.Contains(reports[0].err.Error(), "read failed") {
		t.Fatalf("expected wrapped cause, got %v", reports[0].err)
	}
}

type errorReader struct {
	err error
}

func (r *errorReader) Read(_ []byte) (int, error) { return 0, r.err }

var _ io.Reader = (*errorReader)(nil)
