// Package export renders the transcript into downloadable documents.
package export

import (
	"bytes"
	_ "embed"
	"fmt"
	"regexp"
	"strings"
	"text/template"
	"time"

	"stthebrew/internal/domain"
)

// DefaultPrefix is the filename prefix used when none is configured.
const DefaultPrefix = "stt-hebrew"

const (
	mimeText = "text/plain;charset=utf-8"
	mimeDOC  = "application/msword"
	mimeHTML = "text/html;charset=utf-8"
)

// Document is a rendered export ready to be saved.
type Document struct {
	Format   domain.ExportFormat
	Filename string
	MIMEType string
	Content  []byte
}

// Options controls rendering.
type Options struct {
	Prefix string
	Now    time.Time
}

//go:embed page.html.tmpl
var pageSource string

var pageTemplate = template.Must(template.New("page").Parse(pageSource))

var (
	rtfEscaper = strings.NewReplacer(
		`\`, `\\`,
		`{`, `\{`,
		`}`, `\}`,
		"\n", "\\par\n",
	)
	htmlEscaper = strings.NewReplacer(
		`&`, `&amp;`,
		`<`, `&lt;`,
		`>`, `&gt;`,
		`"`, `&quot;`,
		`'`, `&#39;`,
	)
	filenameUnsafe = regexp.MustCompile(`[/\s:]`)
)

// Render produces the document for format. The text is used as given; callers
// trim the buffer first.
func Render(format domain.ExportFormat, text string, opts Options) (Document, error) {
	if opts.Prefix == "" {
		opts.Prefix = DefaultPrefix
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}

	format = domain.ParseExportFormat(string(format))
	doc := Document{
		Format:   format,
		Filename: Filename(opts.Prefix, format, opts.Now),
	}

	switch format {
	case domain.ExportFormatDOC:
		doc.MIMEType = mimeDOC
		doc.Content = []byte(RTF(text))
	case domain.ExportFormatHTML:
		page, err := HTML(text, opts.Now)
		if err != nil {
			return Document{}, err
		}
		doc.MIMEType = mimeHTML
		doc.Content = []byte(page)
	default:
		doc.MIMEType = mimeText
		doc.Content = []byte(text)
	}

	return doc, nil
}

// Filename builds "<prefix>-<timestamp>.<ext>".
func Filename(prefix string, format domain.ExportFormat, now time.Time) string {
	return fmt.Sprintf("%s-%s.%s", prefix, filenameTimestamp(now), format)
}

// filenameTimestamp renders the short he-IL date-time ("19.10.2026, 15:32")
// with separators that are awkward in filenames replaced by '-'.
func filenameTimestamp(now time.Time) string {
	return filenameUnsafe.ReplaceAllString(now.Format("02.01.2006, 15:04"), "-")
}

// RTF wraps text in a minimal rich-text document.
func RTF(text string) string {
	return "{\\rtf1\\ansi\\deff0 {\\fonttbl {\\f0 Times New Roman;}}\n\\f0\\fs24 " + rtfEscaper.Replace(text) + "}"
}

// EscapeHTML escapes the five reserved characters.
func EscapeHTML(text string) string {
	return htmlEscaper.Replace(text)
}

// HTML renders a standalone right-to-left page around the escaped text.
func HTML(text string, now time.Time) (string, error) {
	var buf bytes.Buffer
	err := pageTemplate.Execute(&buf, struct {
		Content   string
		Generated string
	}{
		Content:   EscapeHTML(text),
		Generated: now.Format("2.1.2006, 15:04:05"),
	})
	if err != nil {
		return "", fmt.Errorf("render html export: %w", err)
	}
	return buf.String(), nil
}
