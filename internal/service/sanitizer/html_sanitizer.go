package sanitizer

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizer strips markup from user-submitted form values before they
// are persisted or logged.
//
// Thread-safe for concurrent use.
type TextSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer creates a sanitizer that removes every HTML element and
// attribute, keeping only text content.
func NewTextSanitizer() *TextSanitizer {
	return &TextSanitizer{policy: bluemonday.StrictPolicy()}
}

// Sanitize returns value with all markup removed and surrounding
// whitespace trimmed. Entities produced by the policy are decoded again so
// plain text such as "Smith & Sons" round-trips unchanged; output escaping
// is left to the template engine.
func (s *TextSanitizer) Sanitize(value string) string {
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(value)))
}
