package logger

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"sync"
)

// PIILevel controls how user supplied text appears in logs.
type PIILevel string

const (
	// PIILevelNone drops user text entirely.
	PIILevelNone PIILevel = "none"
	// PIILevelHashed replaces detected identifiers with salted hashes.
	PIILevelHashed PIILevel = "hashed"
	// PIILevelFull logs text unchanged.
	PIILevelFull PIILevel = "full"
)

const maxLoggedText = 256

var (
	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	phonePattern = regexp.MustCompile(`\b\d{3}[-.\s]?\d{3}[-.\s]?\d{4}\b`)
	cardPattern  = regexp.MustCompile(`\b\d{4}[- ]?\d{4}[- ]?\d{4}[- ]?\d{4}\b`)
	ipv4Pattern  = regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}\b`)
)

// Sanitizer rewrites questions, answers and upstream bodies before they reach a log line.
type Sanitizer struct {
	level PIILevel
	salt  string
}

func NewSanitizer(level PIILevel, salt string) *Sanitizer {
	switch level {
	case PIILevelNone, PIILevelHashed, PIILevelFull:
	default:
		level = PIILevelHashed
	}
	return &Sanitizer{level: level, salt: salt}
}

// Sanitize applies the configured level and caps the length of the result.
func (s *Sanitizer) Sanitize(text string) string {
	if text == "" {
		return ""
	}
	switch s.level {
	case PIILevelNone:
		return "[REDACTED]"
	case PIILevelFull:
		return truncate(text)
	}

	out := cardPattern.ReplaceAllString(text, "[CARD:REDACTED]")
	out = emailPattern.ReplaceAllStringFunc(out, func(m string) string { return "[EMAIL:" + s.hash(m) + "]" })
	out = phonePattern.ReplaceAllStringFunc(out, func(m string) string { return "[PHONE:" + s.hash(m) + "]" })
	out = ipv4Pattern.ReplaceAllStringFunc(out, func(m string) string { return "[IP:" + s.hash(m) + "]" })
	return truncate(out)
}

func (s *Sanitizer) hash(value string) string {
	sum := sha256.Sum256([]byte(value + s.salt))
	return hex.EncodeToString(sum[:])[:8]
}

func truncate(text string) string {
	runes := []rune(text)
	if len(runes) <= maxLoggedText {
		return text
	}
	return string(runes[:maxLoggedText]) + "..."
}

var (
	sanitizerMu sync.RWMutex
	sanitizer   = NewSanitizer(PIILevelHashed, "")
)

// SetSanitizer replaces the sanitizer used by Redact.
func SetSanitizer(s *Sanitizer) {
	sanitizerMu.Lock()
	sanitizer = s
	sanitizerMu.Unlock()
}

// Redact sanitizes text with the process wide sanitizer.
func Redact(text string) string {
	sanitizerMu.RLock()
	s := sanitizer
	sanitizerMu.RUnlock()
	return s.Sanitize(text)
}
