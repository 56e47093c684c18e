package pattern

import (
	"fmt"
	"strings"
)

// QuerySyntaxError reports a malformed FTS5 query. It is a distinct
// error kind so callers can decide whether to retry with an escaped
// literal query (see EscapeQuery) instead of treating the failure as
// "no results".
type QuerySyntaxError struct {
	Query string
	Err   error
}

func (e *QuerySyntaxError) Error() string {
	return fmt.Sprintf("pattern: malformed search query %q: %v", e.Query, e.Err)
}

func (e *QuerySyntaxError) Unwrap() error {
	return e.Err
}

// isFTSSyntaxError checks whether an error came from the FTS5 query
// parser rather than the store itself.
func isFTSSyntaxError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "fts5: syntax error") ||
		strings.Contains(msg, "unterminated string") ||
		strings.Contains(msg, "fts5: phrase") ||
		strings.Contains(msg, "unknown special query") ||
		strings.Contains(msg, "malformed MATCH")
}

// EscapeQuery quotes each term so arbitrary text is a valid FTS5 query.
// "fix auth bug" → `"fix" "auth" "bug"`. Use it to retry a search that
// failed with QuerySyntaxError as a literal term match.
func EscapeQuery(query string) string {
	var words []string
	for _, w := range strings.Fields(query) {
		w = strings.Trim(w, `"`)
		if w == "" {
			continue
		}
		words = append(words, `"`+w+`"`)
	}
	return strings.Join(words, " ")
}
