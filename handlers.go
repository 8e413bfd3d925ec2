package main

import (
	"fmt"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
)

// Entry formats accepted by extract.entry_format.
const (
	FormatRaw      = "raw"
	FormatText     = "text"
	FormatMarkdown = "markdown"
)

// EntryNormalizer rewrites an extracted entry before it is appended to the output.
type EntryNormalizer interface {
	Name() string
	Normalize(entry string) (string, error)
}

// NewEntryNormalizer returns the normalizer for format. An empty format means raw.
func NewEntryNormalizer(format string) (EntryNormalizer, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatRaw:
		return RawNormalizer{}, nil
	case FormatText:
		return TextNormalizer{}, nil
	case FormatMarkdown:
		return &MarkdownNormalizer{converter: md.NewConverter("", true, nil)}, nil
	default:
		return nil, fmt.Errorf("extract.entry_format %q: want %s, %s or %s", format, FormatRaw, FormatText, FormatMarkdown)
	}
}

// RawNormalizer keeps entries exactly as parsed.
type RawNormalizer struct{}

func (RawNormalizer) Name() string { return FormatRaw }

func (RawNormalizer) Normalize(entry string) (string, error) {
	return entry, nil
}

// TextNormalizer strips HTML markup and decodes entities.
type TextNormalizer struct{}

func (TextNormalizer) Name() string { return FormatText }

func (TextNormalizer) Normalize(entry string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(entry))
	if err != nil {
		return "", fmt.Errorf("parsing entry HTML: %w", err)
	}
	return singleLine(doc.Text()), nil
}

// MarkdownNormalizer converts inline HTML to markdown.
type MarkdownNormalizer struct {
	converter *md.Converter
}

func (h *MarkdownNormalizer) Name() string { return FormatMarkdown }

func (h *MarkdownNormalizer) Normalize(entry string) (string, error) {
	markdown, err := h.converter.ConvertString(entry)
	if err != nil {
		return "", fmt.Errorf("converting entry HTML to markdown: %w", err)
	}
	return singleLine(markdown), nil
}
