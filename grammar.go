package main

import (
	"errors"
	"fmt"
	"strings"
)

// Structural failures of a single segment.
var (
	ErrMissingOpen  = errors.New("missing entry opening delimiter")
	ErrMissingClose = errors.New("missing entry closing delimiter")
	ErrEmptyEntry   = errors.New("empty entry")
)

// SegmentGrammar describes how entries are cut out of a digest file.
//
// A file is split on Marker and the text before the first marker is discarded. In each
// remaining segment the entry starts after the OpenCount-th occurrence of Open and ends
// at the first Close that follows it.
type SegmentGrammar struct {
	Marker    string
	Open      string
	OpenCount int
	Close     string
}

// DefaultGrammar matches digest posts where each link reads
// `<a href="..." target="_blank" rel="...">Title (details)`.
var DefaultGrammar = SegmentGrammar{
	Marker:    "target",
	Open:      `">`,
	OpenCount: 2,
	Close:     "(",
}

// Validate checks that every delimiter is set.
func (g SegmentGrammar) Validate() error {
	switch {
	case g.Marker == "":
		return errors.New("extract.marker is required")
	case g.Open == "":
		return errors.New("extract.entry_open is required")
	case g.OpenCount < 1:
		return fmt.Errorf("extract.entry_open_count must be at least 1, got %d", g.OpenCount)
	case g.Close == "":
		return errors.New("extract.entry_close is required")
	}
	return nil
}

// Split returns the segments following each marker. Content without a marker has none.
func (g SegmentGrammar) Split(content string) []string {
	parts := strings.Split(content, g.Marker)
	return parts[1:]
}

// Parse returns the entry text of one segment.
func (g SegmentGrammar) Parse(segment string) (string, error) {
	rest := segment
	for i := 0; i < g.OpenCount; i++ {
		idx := strings.Index(rest, g.Open)
		if idx < 0 {
			return "", fmt.Errorf("%w: found %d of %d %q", ErrMissingOpen, i, g.OpenCount, g.Open)
		}
		rest = rest[idx+len(g.Open):]
	}

	end := strings.Index(rest, g.Close)
	if end < 0 {
		return "", fmt.Errorf("%w: no %q after entry start", ErrMissingClose, g.Close)
	}

	text := singleLine(rest[:end])
	if text == "" {
		return "", ErrEmptyEntry
	}
	return text, nil
}

var lineBreaks = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// singleLine trims s and folds line breaks so the entry occupies one output line.
func singleLine(s string) string {
	return strings.TrimSpace(lineBreaks.Replace(s))
}

// FileLevel is the Segment value of a failure that covers a whole file.
const FileLevel = -1

// SegmentError records a segment, or a whole file (Segment == FileLevel), that produced
// no entry. Segments are numbered from 1.
type SegmentError struct {
	File    string
	Segment int
	Err     error
}

func (e *SegmentError) Error() string {
	if e.Segment < 1 {
		return fmt.Sprintf("%s: %v", e.File, e.Err)
	}
	return fmt.Sprintf("%s segment %d: %v", e.File, e.Segment, e.Err)
}

func (e *SegmentError) Unwrap() error {
	return e.Err
}
