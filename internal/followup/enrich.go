package followup

import "strings"

// Enrich appends the collected enrichment terms to the original query,
// space-joined. With no terms the original query comes back byte-for-byte
// unchanged. The original query text is never rewritten, only extended.
func Enrich(original string, terms []string) string {
	if len(terms) == 0 {
		return original
	}
	return original + " " + strings.Join(terms, " ")
}
