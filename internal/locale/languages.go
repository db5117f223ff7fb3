package locale

import (
	"errors"
	"strings"

	"github.com/samber/lo"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// DefaultLanguage is the recognition language used when none is configured.
const DefaultLanguage = "he-IL"

// ErrUnsupportedLanguage is returned for tags outside the supported list.
var ErrUnsupportedLanguage = errors.New("unsupported recognition language")

var supportedTags = []language.Tag{
	language.MustParse("he-IL"),
	language.MustParse("en-US"),
	language.MustParse("ar-SA"),
	language.MustParse("ru-RU"),
	language.MustParse("fr-FR"),
	language.MustParse("es-ES"),
}

var matcher = language.NewMatcher(supportedTags)

// Language is one entry of the language selector.
type Language struct {
	Tag        string `json:"tag"`
	Name       string `json:"name"`
	NativeName string `json:"nativeName"`
}

// SupportedLanguages lists the selector entries, named in the UI language.
func SupportedLanguages(uiLang string) []Language {
	ui, err := language.Parse(uiLang)
	if err != nil {
		ui = language.Hebrew
	}
	namer := display.Tags(ui)
	return lo.Map(supportedTags, func(tag language.Tag, _ int) Language {
		return Language{
			Tag:        tag.String(),
			Name:       namer.Name(tag),
			NativeName: display.Self.Name(tag),
		}
	})
}

// NormalizeLanguage maps raw onto one of the supported tags.
func NormalizeLanguage(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultLanguage, nil
	}
	tag, err := language.Parse(raw)
	if err != nil {
		return "", errors.Join(ErrUnsupportedLanguage, err)
	}
	_, index, confidence := matcher.Match(tag)
	if confidence < language.High {
		return "", ErrUnsupportedLanguage
	}
	return supportedTags[index].String(), nil
}
