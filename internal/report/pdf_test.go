package report

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"valuecards/internal/model"
)

func strptr(s string) *string { return &s }

func sampleSelections(n int) []model.Selection {
	out := make([]model.Selection, 0, n)
	for i := 0; i < n; i++ {
		label := fmt.Sprintf("Value %02d", i)
		desc := strings.Repeat("A steady description of what this value means in practice. ", 3)
		out = append(out, model.Selection{
			ID:                fmt.Sprintf("sel-%02d", i),
			CustomLabel:       &label,
			CustomDescription: &desc,
			Priority:          model.PriorityHigh,
		})
	}
	return out
}

func TestRenderDeterministic(t *testing.T) {
	core := sampleSelections(5)
	other := sampleSelections(8)
	reflections := map[string]string{"daily": "every morning", "decision": "change jobs"}

	first, err := Render(strptr("Ada"), core, other, reflections)
	require.NoError(t, err)
	require.NotEmpty(t, first)

	second, err := Render(strptr("Ada"), core, other, reflections)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(first, second), "identical inputs must produce byte-identical output")
}

func TestRenderIsValidPDF(t *testing.T) {
	out, err := Render(nil, sampleSelections(4), nil, nil)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")), "output must start with a PDF header")
	assert.True(t, bytes.Contains(out, []byte("%%EOF")), "output must carry a PDF trailer")
}

func TestRenderPaginatesLongInput(t *testing.T) {
	// Enough cards to guarantee several page breaks.
	long, err := Render(strptr("Ada"), sampleSelections(40), sampleSelections(15), nil)
	require.NoError(t, err)

	short, err := Render(strptr("Ada"), sampleSelections(2), nil, nil)
	require.NoError(t, err)

	// Counts the /Pages node too, identically for both documents.
	pages := func(b []byte) int { return bytes.Count(b, []byte("/Type /Page")) }
	assert.Greater(t, pages(long), pages(short), "long input expected to span more pages")
}

func TestRenderOmitsEmptyOtherSection(t *testing.T) {
	with, err := Render(nil, sampleSelections(4), sampleSelections(3), nil)
	require.NoError(t, err)
	without, err := Render(nil, sampleSelections(4), nil, nil)
	require.NoError(t, err)
	// fpdf compresses streams, so compare sizes rather than scanning text.
	assert.Greater(t, len(with), len(without))
}
