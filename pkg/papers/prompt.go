package papers

import (
	"strings"
	"text/template"

	"github.com/Masterminds/sprig"
	"github.com/pkg/errors"
)

// RelatedPapersCount is the number of papers the model is asked for.
const RelatedPapersCount = 5

var relatedPapersPromptTmpl = template.Must(template.New("related-papers").
	Funcs(sprig.TxtFuncMap()).
	Parse(`Find {{ .Count }} recent and highly-cited academic papers related to "{{ .Topic | trim }}". ` +
		`For each paper, provide the title, all authors, publication year, a one-sentence summary, and a valid public URL. ` +
		`Format the response as a numbered list. ` +
		"Example: 1. Title: ...\nAuthors: ...\nYear: ...\nSummary: ...\nURL: ..."))

// RelatedPapersPrompt renders the search-grounded prompt asking for related
// papers about topic, in the layout Extract understands.
func RelatedPapersPrompt(topic string) (string, error) {
	var buf strings.Builder
	err := relatedPapersPromptTmpl.Execute(&buf, map[string]interface{}{
		"Count": RelatedPapersCount,
		"Topic": topic,
	})
	if err != nil {
		return "", errors.Wrap(err, "could not render related papers prompt")
	}
	return buf.String(), nil
}
