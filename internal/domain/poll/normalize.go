package poll

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// CleanText trims surrounding whitespace; it is what gets stored.
func CleanText(s string) string {
	return strings.TrimSpace(s)
}

// NormalizeText is the comparison form used for duplicate detection: NFC,
// inner whitespace collapsed, case folded. "Ναι" and " ναι " compare equal.
func NormalizeText(s string) string {
	collapsed := strings.Join(strings.Fields(s), " ")
	return cases.Fold().String(norm.NFC.String(collapsed))
}
