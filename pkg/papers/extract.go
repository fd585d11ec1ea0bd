package papers

import (
	"regexp"
	"strings"
)

var (
	// a numbered list marker immediately followed by the Title label, either at
	// the very start of the text or after a line break
	blockBoundary = regexp.MustCompile(`(?:^|\n)\s*\d+\.\s*Title:`)

	titleField   = regexp.MustCompile(`(.*?)\n`)
	authorsField = regexp.MustCompile(`Authors:\s*(.*?)\n`)
	yearField    = regexp.MustCompile(`Year:\s*(.*?)\n`)
	summaryField = regexp.MustCompile(`Summary:\s*(.*?)\n`)
	urlField     = regexp.MustCompile(`URL:\s*(.*?)(?:\n|$)`)
)

// Extract parses a numbered list of papers out of raw model output.
//
// Text before the first "N. Title:" marker is ignored. Every block is scanned
// on its own; a block yields a Paper only if the title line and all four
// labeled fields were found in it. Values are trimmed but otherwise kept as
// is, including empty values. Output order is block order.
func Extract(raw string) []Paper {
	blocks := blockBoundary.Split(raw, -1)
	if len(blocks) < 2 {
		return []Paper{}
	}

	ret := make([]Paper, 0, len(blocks)-1)
	for _, block := range blocks[1:] {
		p, ok := extractBlock(block)
		if !ok {
			continue
		}
		ret = append(ret, p)
	}

	return ret
}

func extractBlock(block string) (Paper, bool) {
	title, ok := firstGroup(titleField, block)
	if !ok {
		return Paper{}, false
	}
	authors, ok := firstGroup(authorsField, block)
	if !ok {
		return Paper{}, false
	}
	year, ok := firstGroup(yearField, block)
	if !ok {
		return Paper{}, false
	}
	summary, ok := firstGroup(summaryField, block)
	if !ok {
		return Paper{}, false
	}
	url, ok := firstGroup(urlField, block)
	if !ok {
		return Paper{}, false
	}

	return Paper{
		Title:   title,
		Authors: authors,
		Year:    year,
		Summary: summary,
		URL:     url,
	}, true
}

func firstGroup(re *regexp.Regexp, s string) (string, bool) {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}
