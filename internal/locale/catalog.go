// Package locale holds user-facing text and the supported recognition
// languages.
package locale

import (
	"embed"
	"fmt"
	"path"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"stthebrew/internal/domain"
)

//go:embed locales/*.yaml
var bundleFS embed.FS

// Catalog turns status reasons and error codes into localized text.
type Catalog struct {
	localizer *i18n.Localizer
}

// NewCatalog loads the embedded message bundles and picks lang, falling back
// to Hebrew.
func NewCatalog(lang string) (*Catalog, error) {
	bundle := i18n.NewBundle(language.Hebrew)
	bundle.RegisterUnmarshalFunc("yaml", yaml.Unmarshal)

	entries, err := bundleFS.ReadDir("locales")
	if err != nil {
		return nil, fmt.Errorf("read locale bundles: %w", err)
	}
	for _, entry := range entries {
		name := path.Join("locales", entry.Name())
		data, err := bundleFS.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		if _, err := bundle.ParseMessageFileBytes(data, entry.Name()); err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
	}

	return &Catalog{localizer: i18n.NewLocalizer(bundle, lang, language.Hebrew.String())}, nil
}

// Reason returns the status text for a reason. Unknown reasons yield "".
func (c *Catalog) Reason(reason domain.StatusReason, detail string) string {
	return c.localize("reason_"+string(reason), detail, "")
}

// Interim formats the transient interim-transcript status line.
func (c *Catalog) Interim(text string) string {
	return c.localize("interim", text, text)
}

// Error returns the status text for an error code. Unknown codes fall back to
// the detail, then to the generic unknown-error text.
func (c *Catalog) Error(code domain.ErrorCode, detail string) string {
	if msg := c.localize("error_"+string(code), detail, ""); msg != "" {
		return msg
	}
	if detail != "" {
		return detail
	}
	return c.localize("error_"+string(domain.ErrorCodeUnknown), "", "")
}

func (c *Catalog) localize(id string, detail string, fallback string) string {
	msg, err := c.localizer.Localize(&i18n.LocalizeConfig{
		MessageID:    id,
		TemplateData: map[string]string{"Detail": detail},
	})
	if err != nil || msg == "" {
		return fallback
	}
	return msg
}
