package classify

import (
	"strings"

	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// Statement prefixes banks prepend to the actual merchant text. Stripped
// after width/case folding, so half-width katakana forms are covered too.
var strippedPrefixes = []string{
	"デビット ",
	"デビット",
	"visaデビット",
	"カード ",
	"振込 ",
	"振替 ",
	"カ)",
	"(カ)",
	"ク)",
}

var punctReplacer = strings.NewReplacer(
	".", " ", ",", " ", "・", " ", "/", " ", "-", " ",
	"*", " ", "(", " ", ")", " ", "（", " ", "）", " ",
	"【", " ", "】", " ", "「", " ", "」", " ",
)

// NormalizeDescription folds a raw statement description into the
// canonical form used for merchant and keyword lookups: NFKC + width fold
// (half-width katakana to full-width, full-width latin to ASCII), case
// fold, punctuation to spaces, collapsed whitespace, known bank prefixes
// removed.
func NormalizeDescription(s string) string {
	s = width.Fold.String(s)
	s = norm.NFKC.String(s)
	s = strings.ToLower(s)
	s = strings.TrimSpace(s)

	for _, prefix := range strippedPrefixes {
		if rest, ok := strings.CutPrefix(s, prefix); ok {
			s = strings.TrimSpace(rest)
			break
		}
	}

	s = punctReplacer.Replace(s)
	return strings.Join(strings.Fields(s), " ")
}
