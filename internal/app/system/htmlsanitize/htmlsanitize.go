// internal/app/system/htmlsanitize/htmlsanitize.go
package htmlsanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// PlainText strips every tag from s and returns readable text. User-supplied
// names pass through here before they are placed in outgoing emails.
func PlainText(s string) string {
	if s == "" {
		return ""
	}
	// StrictPolicy escapes what it keeps; undo that so html/template does
	// not double-escape and the text body reads naturally.
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}
