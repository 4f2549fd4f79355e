package ocr

import (
	"regexp"
	"strings"
)

var (
	reLineEnd    = regexp.MustCompile(`\r\n?|\f|\v`)
	reHyphenWrap = regexp.MustCompile(`(\p{L})-[ ]*\n[ ]*(\p{Ll})`)
	reRuler      = regexp.MustCompile(`(?m)^[ \t]*[_\-=~.]{3,}[ \t]*$`)
	reBlanks     = regexp.MustCompile(`[ \t]+`)
	reBlankLines = regexp.MustCompile(`\n{3,}`)
)

// spaceLike maps characters tesseract and PDF text layers emit in place of
// plain spaces.
var spaceLike = strings.NewReplacer(
	"\u00a0", " ", // no-break space
	"\u2007", " ", // figure space
	"\u202f", " ", // narrow no-break space
	"\u00ad", "",  // soft hyphen
	"\u200b", "",  // zero-width space
	"\ufeff", "",
)

// Normalize cleans the text of a single page. Line structure is kept, words
// hyphenated across a line end are rejoined ("fak-\ntura" -> "faktura") and
// runs of blank lines shrink to one.
func Normalize(s string) string {
	if s == "" {
		return s
	}
	s = spaceLike.Replace(s)
	s = reLineEnd.ReplaceAllString(s, "\n")
	s = reRuler.ReplaceAllString(s, "")
	s = reBlanks.ReplaceAllString(s, " ")
	s = reHyphenWrap.ReplaceAllString(s, "$1$2")

	lines := strings.Split(s, "\n")
	for i, ln := range lines {
		lines[i] = strings.TrimSpace(ln)
	}
	s = strings.Join(lines, "\n")
	s = reBlankLines.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
