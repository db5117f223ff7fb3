package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"stthebrew/internal/domain"
	"stthebrew/internal/export"
	"stthebrew/internal/ports"
)

var ErrNothingToExport = errors.New("transcript is empty")

type transcriptExporter struct {
	saver     ports.FileSaver
	clipboard ports.Clipboard
	events    ports.EventSink
	metrics   controllerMetrics
	logger    zerolog.Logger
	prefix    string
	now       func() time.Time
}

// Download renders text in format and hands it to the saver. The transcript
// itself is never modified here.
func (e transcriptExporter) Download(ctx context.Context, format domain.ExportFormat, text string) (export.Document, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		e.events.SessionError(domain.ErrorCodeNothingToExport, "")
		return export.Document{}, ErrNothingToExport
	}

	doc, err := export.Render(format, text, export.Options{Prefix: e.prefix, Now: e.now()})
	if err != nil {
		e.logger.Error().Err(err).Str("format", string(format)).Msg("export render failed")
		e.events.SessionError(domain.ErrorCodeExportFailed, err.Error())
		return export.Document{}, err
	}

	if err := e.saver.Save(ctx, doc); err != nil {
		if errors.Is(err, ports.ErrSaveCancelled) {
			e.logger.Info().Str("file", doc.Filename).Msg("export cancelled")
			return doc, err
		}
		e.logger.Error().Err(err).Str("file", doc.Filename).Msg("export save failed")
		e.events.SessionError(domain.ErrorCodeExportFailed, err.Error())
		return doc, fmt.Errorf("save %s: %w", doc.Filename, err)
	}

	e.metrics.export(ctx, string(doc.Format))
	e.logger.Info().Str("file", doc.Filename).Int("bytes", len(doc.Content)).Msg("transcript exported")
	e.events.Notice(domain.ReasonExported, strings.ToUpper(string(doc.Format)))
	return doc, nil
}

// Copy writes the trimmed text to the clipboard.
func (e transcriptExporter) Copy(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		e.events.SessionError(domain.ErrorCodeNothingToExport, "")
		return ErrNothingToExport
	}
	if e.clipboard == nil {
		e.events.SessionError(domain.ErrorCodeClipboard, "clipboard unavailable")
		return errors.New("clipboard unavailable")
	}
	if err := e.clipboard.SetText(ctx, text); err != nil {
		e.logger.Warn().Err(err).Msg("clipboard write failed")
		e.events.SessionError(domain.ErrorCodeClipboard, err.Error())
		return err
	}
	e.events.Notice(domain.ReasonCopied, "")
	return nil
}
