package extract

import (
	"regexp"
	"strings"
)

// The periodic transaction report PDFs repeat the same boilerplate on every
// page. Each rule below removes one structural artifact; the rules run in
// order and the whole pass is idempotent, so a normalized blob can safely be
// normalized again.
var (
	// page header, from the "PERIODIC ..." banner through the "Name:" label
	reHeader = regexp.MustCompile(`(?is)periodic.*?name:\n`)

	// the block between the filer status line and the state/district label;
	// replaced with "|" so the representative name and district stay split
	reStatusBlock = regexp.MustCompile(`(?is)\nstatus.*?\nstate/district:`)

	// column-header noise between the transactions label and the amount label
	reColumnHeader = regexp.MustCompile(`(?is)\ntransactions.*?\namount\n`)

	// cover-page text repeated before the disclosure body
	reCoverPage = regexp.MustCompile(`(?is).*?name: `)
)

// Normalize collapses a raw filing text blob into a single line suitable for
// record extraction.
func Normalize(text string) string {
	text = reHeader.ReplaceAllString(text, "")
	text = reStatusBlock.ReplaceAllString(text, "|")
	// a single space, not deletion, so adjacent tokens are not glued together
	text = reColumnHeader.ReplaceAllString(text, " ")
	text = strings.ReplaceAll(text, "\n", " ")
	text = reCoverPage.ReplaceAllString(text, "")
	// these annotations use the same parenthesis syntax as ticker markers and
	// would otherwise be picked up as tickers
	text = strings.ReplaceAll(text, "(partial)", "")
	text = strings.ReplaceAll(text, "401(K)", "")
	return text
}
