package stringutils

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	urlPattern          = regexp.MustCompile(`(?i)(https?://|ftp://|www\.)[^\s]+`)
	markdownLinkPattern = regexp.MustCompile(`\[([^\]]*)\]\([^)]+\)`)
	codeFencePattern    = regexp.MustCompile("(?s)```.*?```")
	multiSpacePattern   = regexp.MustCompile(`\s+`)
)

const ellipsis = "..."

// SanitizeTitleContent strips links, code fences and markup so a chat message can be used as a title.
func SanitizeTitleContent(content string) string {
	content = codeFencePattern.ReplaceAllString(content, " ")
	content = markdownLinkPattern.ReplaceAllString(content, "$1")
	content = urlPattern.ReplaceAllString(content, "")

	var result strings.Builder
	for _, r := range content {
		if unicode.IsLetter(r) || unicode.IsNumber(r) || unicode.IsSpace(r) ||
			r == '.' || r == ',' || r == '!' || r == '?' || r == '-' || r == '\'' {
			result.WriteRune(r)
		}
	}

	content = multiSpacePattern.ReplaceAllString(result.String(), " ")
	content = strings.TrimSpace(content)
	return strings.TrimRight(content, " .,!?-'")
}

// TruncateRunes cuts s to at most maxRunes runes without breaking a UTF-8 sequence.
func TruncateRunes(s string, maxRunes int) string {
	if maxRunes <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= maxRunes {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxRunes])
}

// TruncateTitle shortens title to maxLen runes, preferring a word boundary and ending with an ellipsis.
func TruncateTitle(title string, maxLen int) string {
	if utf8.RuneCountInString(title) <= maxLen {
		return title
	}

	contentLimit := maxLen - len(ellipsis)
	if contentLimit < 0 {
		contentLimit = 0
	}

	truncated := TruncateRunes(title, contentLimit)
	minLen := len(truncated) / 2
	if lastSpace := strings.LastIndex(truncated, " "); lastSpace > minLen {
		truncated = strings.TrimRight(truncated[:lastSpace], " ")
	}

	return truncated + ellipsis
}

// GenerateTitle creates a clean, truncated title from content. It returns "" when nothing usable is left.
func GenerateTitle(content string, maxLen int) string {
	sanitized := SanitizeTitleContent(content)
	if sanitized == "" {
		return ""
	}
	return TruncateTitle(sanitized, maxLen)
}
