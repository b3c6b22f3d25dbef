// Package i18n holds the message catalogue used to render notification
// content in English, Sinhala and Tamil.
package i18n

import (
	"fmt"
	"sync"

	"golang.org/x/text/language"
)

// DefaultLocale is used when a user's preferred language is unknown.
const DefaultLocale = "en"

var supported = []language.Tag{
	language.English,
	language.Sinhala,
	language.Tamil,
}

// Catalogue resolves message keys per locale. Missing keys fall back to the
// English text, then to the key itself.
type Catalogue struct {
	matcher  language.Matcher
	messages map[string]map[string]string

	mu       sync.RWMutex
	resolved map[string]string
}

// NewCatalogue returns a catalogue with the built-in translations.
func NewCatalogue() *Catalogue {
	return &Catalogue{
		matcher: language.NewMatcher(supported),
		messages: map[string]map[string]string{
			"en": english,
			"si": sinhala,
			"ta": tamil,
		},
		resolved: make(map[string]string),
	}
}

// Locale maps an arbitrary language tag ("si-LK", "TA", "") onto one of
// the supported locales.
func (c *Catalogue) Locale(tag string) string {
	c.mu.RLock()
	loc, ok := c.resolved[tag]
	c.mu.RUnlock()
	if ok {
		return loc
	}

	loc = DefaultLocale
	if t, err := language.Parse(tag); err == nil {
		_, idx, conf := c.matcher.Match(t)
		if conf != language.No {
			base, _ := supported[idx].Base()
			loc = base.String()
		}
	}

	c.mu.Lock()
	c.resolved[tag] = loc
	c.mu.Unlock()
	return loc
}

// GetMessage formats the message for key in locale with args.
func (c *Catalogue) GetMessage(key, locale string, args ...any) string {
	format, ok := c.messages[c.Locale(locale)][key]
	if !ok {
		format, ok = c.messages[DefaultLocale][key]
	}
	if !ok {
		return key
	}
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}
