package papers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractSingleBlock(t *testing.T) {
	got := Extract("1. Title: A\nAuthors: B\nYear: 2020\nSummary: C\nURL: D\n")
	require.Len(t, got, 1)
	assert.Equal(t, Paper{Title: "A", Authors: "B", Year: "2020", Summary: "C", URL: "D"}, got[0])
}

func TestExtractIgnoresPreamble(t *testing.T) {
	raw := "Here are some papers you might like:\n\n" +
		"1. Title: Attention Is All You Need\n" +
		"Authors: Vaswani, Shazeer, Parmar and others\n" +
		"Year: 2017\n" +
		"Summary: Introduces the Transformer.\n" +
		"URL: https://arxiv.org/abs/1706.03762\n"

	got := Extract(raw)
	require.Len(t, got, 1)
	assert.Equal(t, "Attention Is All You Need", got[0].Title)
	assert.Equal(t, "Vaswani, Shazeer, Parmar and others", got[0].Authors)
	assert.Equal(t, "https://arxiv.org/abs/1706.03762", got[0].URL)
}

func TestExtractPreservesOrder(t *testing.T) {
	raw := "1. Title: X\nAuthors: ax\nYear: 2001\nSummary: sx\nURL: ux\n" +
		"2. Title: Y\nAuthors: ay\nYear: 2002\nSummary: sy\nURL: uy\n" +
		"3. Title: Z\nAuthors: az\nYear: 2003\nSummary: sz\nURL: uz"

	got := Extract(raw)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"X", "Y", "Z"}, []string{got[0].Title, got[1].Title, got[2].Title})
	// the last URL ends at the end of the text
	assert.Equal(t, "uz", got[2].URL)
}

func TestExtractDropsIncompleteBlocks(t *testing.T) {
	tests := []struct {
		name    string
		missing string
		block   string
	}{
		{"authors", "Authors", "2. Title: Broken\nYear: 2002\nSummary: s\nURL: u\n"},
		{"year", "Year", "2. Title: Broken\nAuthors: a\nSummary: s\nURL: u\n"},
		{"summary", "Summary", "2. Title: Broken\nAuthors: a\nYear: 2002\nURL: u\n"},
		{"url", "URL", "2. Title: Broken\nAuthors: a\nYear: 2002\nSummary: s\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := "1. Title: First\nAuthors: a1\nYear: 2001\nSummary: s1\nURL: u1\n" +
				tt.block +
				"3. Title: Third\nAuthors: a3\nYear: 2003\nSummary: s3\nURL: u3\n"

			got := Extract(raw)
			require.Len(t, got, 2, "block without %s must be dropped", tt.missing)
			assert.Equal(t, "First", got[0].Title)
			assert.Equal(t, "Third", got[1].Title)
		})
	}
}

func TestExtractBlockWithoutLineBreakHasNoTitle(t *testing.T) {
	assert.Empty(t, Extract("1. Title: only a title"))
}

func TestExtractKeepsEmptyFields(t *testing.T) {
	got := Extract("1. Title: T\nAuthors: a\nYear: n.d.\nSummary: s\nURL: ")
	require.Len(t, got, 1)
	assert.Equal(t, "n.d.", got[0].Year)
	assert.Equal(t, "", got[0].URL)
}

func TestExtractNoMarkers(t *testing.T) {
	got := Extract("I couldn't find anything relevant.")
	require.NotNil(t, got)
	assert.Empty(t, got)
}

func TestExtractIsDeterministic(t *testing.T) {
	raw := "1. Title: A\nAuthors: B\nYear: 2020\nSummary: C\nURL: D\n" +
		"  2.  Title: E\nAuthors: F\nYear: 2021\nSummary: G\nURL: H\n"
	assert.Equal(t, Extract(raw), Extract(raw))
	assert.Len(t, Extract(raw), 2)
}
