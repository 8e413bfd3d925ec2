package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/uuid"

	"github.com/aktagon/digest-scraper/internal/logger"
)

// ErrPartialExtraction marks an extract run where some files or segments produced no entry.
var ErrPartialExtraction = errors.New("extraction finished with failures")

// Extractor appends entries parsed from local digest files to the aggregate output.
type Extractor struct {
	dir        string
	pattern    string
	outputPath string
	grammar    SegmentGrammar
	normalizer EntryNormalizer
	log        logger.Logger
}

// NewExtractor creates an extractor reading from dir. A relative output path is
// resolved against dir.
func NewExtractor(settings *Settings, dir string, log logger.Logger) (*Extractor, error) {
	grammar := settings.Grammar()
	if err := grammar.Validate(); err != nil {
		return nil, err
	}
	normalizer, err := NewEntryNormalizer(settings.Extract.EntryFormat)
	if err != nil {
		return nil, err
	}

	outputPath := settings.Extract.OutputPath
	if !filepath.IsAbs(outputPath) {
		outputPath = filepath.Join(dir, outputPath)
	}

	return &Extractor{
		dir:        dir,
		pattern:    settings.Extract.FilePattern,
		outputPath: outputPath,
		grammar:    grammar,
		normalizer: normalizer,
		log:        log,
	}, nil
}

// FindDigestFiles returns the regular files in the directory matching the pattern,
// sorted by name. The aggregate output is never included.
func (e *Extractor) FindDigestFiles() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(e.dir, e.pattern))
	if err != nil {
		return nil, fmt.Errorf("matching %s: %w", e.pattern, err)
	}

	outputAbs, _ := filepath.Abs(e.outputPath)
	files := make([]string, 0, len(matches))
	for _, path := range matches {
		if abs, _ := filepath.Abs(path); abs == outputAbs {
			continue
		}
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		files = append(files, path)
	}
	sort.Strings(files)
	return files, nil
}

// ExtractFile parses one digest file. Segment failures are returned alongside the
// entries that did parse; the error is set only when the file cannot be read.
func (e *Extractor) ExtractFile(path string) ([]ExtractedEntry, []*SegmentError, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading file: %w", err)
	}

	name := filepath.Base(path)
	var (
		entries  []ExtractedEntry
		failures []*SegmentError
	)
	for i, segment := range e.grammar.Split(string(data)) {
		text, err := e.parseSegment(segment)
		if err != nil {
			failures = append(failures, &SegmentError{File: name, Segment: i + 1, Err: err})
			continue
		}
		entries = append(entries, ExtractedEntry{File: name, Segment: i + 1, Text: text})
	}
	return entries, failures, nil
}

func (e *Extractor) parseSegment(segment string) (string, error) {
	text, err := e.grammar.Parse(segment)
	if err != nil {
		return "", err
	}
	text, err = e.normalizer.Normalize(text)
	if err != nil {
		return "", err
	}
	if text == "" {
		return "", ErrEmptyEntry
	}
	return text, nil
}

// Run appends the entries of every digest file to the output, opened once in append
// mode. Entries listed in the report are flushed to the output on every return path. Failures are collected in the report and the run continues; the returned error
// is ErrPartialExtraction when any occurred, or the I/O error that stopped the run.
func (e *Extractor) Run(ctx context.Context) (report *ExtractionReport, err error) {
	report = &ExtractionReport{RunID: uuid.NewString(), OutputPath: e.outputPath}
	log := e.log.With(logger.String("run_id", report.RunID))

	files, err := e.FindDigestFiles()
	if err != nil {
		return report, err
	}
	log.Info("Found digest files", logger.Int("files", len(files)), logger.String("pattern", e.pattern))

	out, err := os.OpenFile(e.outputPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return report, fmt.Errorf("opening output: %w", err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing output: %w", cerr)
		}
	}()

	w := bufio.NewWriter(out)
	defer func() {
		if ferr := w.Flush(); ferr != nil && err == nil {
			err = fmt.Errorf("writing output: %w", ferr)
		}
	}()

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		name := filepath.Base(path)
		report.Files = append(report.Files, name)
		log.Debug("→ Extracting", logger.String("file", name))

		entries, failures, err := e.ExtractFile(path)
		if err != nil {
			report.Failures = append(report.Failures, &SegmentError{File: name, Segment: FileLevel, Err: err})
			log.Error("✗ Failed to read digest file", logger.String("file", name), logger.Error(err))
			continue
		}
		for _, f := range failures {
			log.Warn("✗ Skipped segment", logger.String("file", f.File), logger.Int("segment", f.Segment), logger.Error(f.Err))
		}
		report.Failures = append(report.Failures, failures...)

		for _, entry := range entries {
			if _, err := w.WriteString(entry.Text + "\n"); err != nil {
				return report, fmt.Errorf("writing output: %w", err)
			}
		}
		report.Entries = append(report.Entries, entries...)
	}

	if err := w.Flush(); err != nil {
		return report, fmt.Errorf("writing output: %w", err)
	}
	log.Info("Extraction finished",
		logger.Int("files", len(report.Files)),
		logger.Int("entries", len(report.Entries)),
		logger.Int("failures", len(report.Failures)),
		logger.String("output", e.outputPath))

	if report.Partial() {
		return report, fmt.Errorf("%w: %d failed segment(s)", ErrPartialExtraction, len(report.Failures))
	}
	return report, nil
}
