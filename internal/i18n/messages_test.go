package i18n

import (
	"strings"
	"testing"
)

func TestMessageResolvesWithArgs(t *testing.T) {
	c := NewCatalog("en")
	got := c.Message("system.iteration.limit", 5)
	if !strings.Contains(got, "5") {
		t.Errorf("argument not formatted: %q", got)
	}
}

func TestGermanLocale(t *testing.T) {
	c := NewCatalog("de")
	en := NewCatalog("en")
	if c.Message("system.error.llm") == en.Message("system.error.llm") {
		t.Errorf("expected localized text for de")
	}
}

func TestFallbackToEnglish(t *testing.T) {
	c := NewCatalog("fr")
	got := c.Message("system.error.llm")
	want := NewCatalog("en").Message("system.error.llm")
	if got != want {
		t.Errorf("fallback = %q, want %q", got, want)
	}
}

func TestMissingKeyReturnsKey(t *testing.T) {
	c := NewCatalog("en")
	if got := c.Message("no.such.key"); got != "no.such.key" {
		t.Errorf("missing key must come back verbatim, got %q", got)
	}
}

func TestEmptyLocaleDefaultsToEnglish(t *testing.T) {
	c := NewCatalog("")
	if c.Locale() != "en" {
		t.Errorf("locale = %q", c.Locale())
	}
}
