package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEntryNormalizer(t *testing.T) {
	tests := []struct {
		format   string
		wantName string
	}{
		{"", FormatRaw},
		{"raw", FormatRaw},
		{"TEXT", FormatText},
		{" markdown ", FormatMarkdown},
	}

	for _, tt := range tests {
		n, err := NewEntryNormalizer(tt.format)
		require.NoError(t, err, "format %q", tt.format)
		assert.Equal(t, tt.wantName, n.Name())
	}

	_, err := NewEntryNormalizer("pdf")
	assert.ErrorContains(t, err, `extract.entry_format "pdf"`)
}

func TestRawNormalizerKeepsMarkup(t *testing.T) {
	got, err := RawNormalizer{}.Normalize("Ship <b>it</b> &amp; go")
	require.NoError(t, err)
	assert.Equal(t, "Ship <b>it</b> &amp; go", got)
}

func TestTextNormalizer(t *testing.T) {
	got, err := TextNormalizer{}.Normalize("Ship <b>it</b> &amp; go")
	require.NoError(t, err)
	assert.Equal(t, "Ship it & go", got)
}

func TestMarkdownNormalizer(t *testing.T) {
	n, err := NewEntryNormalizer(FormatMarkdown)
	require.NoError(t, err)

	got, err := n.Normalize("Ship <strong>it</strong>")
	require.NoError(t, err)
	assert.Equal(t, "Ship **it**", got)
}
