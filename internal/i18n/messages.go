// Package i18n resolves localized template strings for user-visible text.
package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"log/slog"
)

//go:embed locales/*.json
var localeFS embed.FS

// Catalog resolves message keys against an embedded locale, falling back to
// English and finally to the key itself, so a missing entry never yields a
// blank user-visible string.
type Catalog struct {
	locale   string
	messages map[string]string
	fallback map[string]string
}

// NewCatalog loads the catalog for the given locale ("en", "de", ...).
func NewCatalog(locale string) *Catalog {
	if locale == "" {
		locale = "en"
	}
	c := &Catalog{
		locale:   locale,
		messages: loadLocale(locale),
		fallback: loadLocale("en"),
	}
	return c
}

// Locale returns the active locale code.
func (c *Catalog) Locale() string { return c.locale }

// Message resolves a key and formats it with args.
func (c *Catalog) Message(key string, args ...any) string {
	tmpl, ok := c.messages[key]
	if !ok {
		tmpl, ok = c.fallback[key]
	}
	if !ok {
		slog.Warn("Missing message key", "key", key, "locale", c.locale)
		return key
	}
	if len(args) == 0 {
		return tmpl
	}
	return fmt.Sprintf(tmpl, args...)
}

func loadLocale(locale string) map[string]string {
	data, err := localeFS.ReadFile("locales/" + locale + ".json")
	if err != nil {
		return map[string]string{}
	}
	var out map[string]string
	if err := json.Unmarshal(data, &out); err != nil {
		slog.Error("Failed to parse locale file", "locale", locale, "error", err)
		return map[string]string{}
	}
	return out
}
