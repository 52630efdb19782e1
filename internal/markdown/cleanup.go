package markdown

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// unicodeSpaces maps exotic space characters to a plain space and deletes
// zero-width characters.
var unicodeSpaces = strings.NewReplacer(
	"\u00a0", " ", "\u1680", " ", "\u2000", " ", "\u2001", " ", "\u2002", " ",
	"\u2003", " ", "\u2004", " ", "\u2005", " ", "\u2006", " ", "\u2007", " ",
	"\u2008", " ", "\u2009", " ", "\u200a", " ", "\u202f", " ", "\u205f", " ",
	"\u3000", " ", "\u2028", "\n", "\u2029", "\n",
	"\u200b", "", "\u200c", "", "\u200d", "", "\u2060", "", "\ufeff", "", "\u00ad", "",
)

// boilerplateLines match whole lines that carry no page content.
var boilerplateLines = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^(©|\(c\)|copyright\b).{0,200}$`),
	regexp.MustCompile(`(?i)^.{0,80}all rights reserved\.?$`),
	regexp.MustCompile(`(?i)^.{0,120}\bwe use cookies\b.*$`),
	regexp.MustCompile(`(?i)^.{0,120}\bthis (web)?site uses cookies\b.*$`),
	regexp.MustCompile(`(?i)^.{0,120}\bby (continuing|using) (to use )?(this|our) (web)?site\b.*$`),
	regexp.MustCompile(`(?i)^(accept( all)?( cookies)?|reject( all)?|manage (cookies|preferences)|cookie settings)$`),
	regexp.MustCompile(`(?i)^((privacy( policy)?|terms( of (service|use))?|cookie policy|legal|imprint|sitemap|accessibility)[\s|·•/-]*){2,}$`),
	regexp.MustCompile(`(?i)^skip to (main )?content$`),
	regexp.MustCompile(`(?i)^(share( this)?( on)?|follow us)( on)?:?$`),
}

// rowOrItem matches table rows and list items, which may legitimately repeat.
var rowOrItem = regexp.MustCompile(`^(\||[-*+] |\d+\. )`)

// Cleanup normalizes converted Markdown. Fenced code blocks are kept
// verbatim apart from Unicode normalization.
func Cleanup(md string) string {
	md = norm.NFC.String(unicodeSpaces.Replace(md))

	lines := strings.Split(md, "\n")
	out := make([]string, 0, len(lines))
	inFence := false
	prev := ""
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			inFence = !inFence
			out = append(out, strings.TrimSpace(line))
			prev = ""
			continue
		}
		if inFence {
			out = append(out, line)
			continue
		}

		line = strings.TrimRight(line, " \t")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			if len(out) > 0 && out[len(out)-1] != "" {
				out = append(out, "")
			}
			continue
		}
		if isBoilerplate(trimmed) || (trimmed == prev && !rowOrItem.MatchString(trimmed)) {
			continue
		}
		prev = trimmed
		out = append(out, line)
	}

	return strings.TrimSpace(strings.Join(out, "\n"))
}

func isBoilerplate(line string) bool {
	for _, re := range boilerplateLines {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}
