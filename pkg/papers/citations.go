package papers

// FilterCitations keeps the grounding chunks that carry both a web URI and a
// title. Duplicates are kept and the input order is preserved.
func FilterCitations(chunks []GroundingChunk) []Citation {
	ret := []Citation{}
	for _, c := range chunks {
		if c.Web == nil || c.Web.URI == "" || c.Web.Title == "" {
			continue
		}
		ret = append(ret, Citation{URI: c.Web.URI, Title: c.Web.Title})
	}
	return ret
}
