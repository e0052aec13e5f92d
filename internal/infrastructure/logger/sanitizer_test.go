package logger

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizerLevels(t *testing.T) {
	text := "mail alice@example.com or call 555-123-4567 from 10.0.0.12"

	assert.Equal(t, "[REDACTED]", NewSanitizer(PIILevelNone, "salt").Sanitize(text))
	assert.Equal(t, text, NewSanitizer(PIILevelFull, "salt").Sanitize(text))

	hashed := NewSanitizer(PIILevelHashed, "salt").Sanitize(text)
	assert.NotContains(t, hashed, "alice@example.com")
	assert.NotContains(t, hashed, "555-123-4567")
	assert.NotContains(t, hashed, "10.0.0.12")
	assert.Contains(t, hashed, "[EMAIL:")
	assert.Contains(t, hashed, "[PHONE:")
	assert.Contains(t, hashed, "[IP:")
	assert.True(t, strings.HasPrefix(hashed, "mail "))
}

func TestSanitizerHashIsSaltedAndStable(t *testing.T) {
	a := NewSanitizer(PIILevelHashed, "one")
	b := NewSanitizer(PIILevelHashed, "two")

	assert.Equal(t, a.Sanitize("bob@example.com"), a.Sanitize("bob@example.com"))
	assert.NotEqual(t, a.Sanitize("bob@example.com"), b.Sanitize("bob@example.com"))
}

func TestSanitizerUnknownLevelHashesAndTruncates(t *testing.T) {
	s := NewSanitizer(PIILevel("bogus"), "")
	assert.NotContains(t, s.Sanitize("carol@example.com"), "carol@")

	long := strings.Repeat("x", maxLoggedText+10)
	assert.Equal(t, maxLoggedText+3, len(s.Sanitize(long)))
	assert.Equal(t, "", s.Sanitize(""))
}

func TestRedactUsesInstalledSanitizer(t *testing.T) {
	SetSanitizer(NewSanitizer(PIILevelNone, ""))
	t.Cleanup(func() { SetSanitizer(NewSanitizer(PIILevelHashed, "")) })

	assert.Equal(t, "[REDACTED]", Redact("anything"))
}
