package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/aktagon/digest-scraper/internal/logger"
	"github.com/aktagon/digest-scraper/internal/safename"
)

// ErrFileTooLarge is returned when a download exceeds fetch.max_file_bytes.
var ErrFileTooLarge = errors.New("file exceeds size limit")

// HTTPError represents a non-success download response
type HTTPError struct {
	StatusCode int
	URL        string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d for %s", e.StatusCode, e.URL)
}

// Fetcher lists a channel's files and downloads those whose title matches the filter.
type Fetcher struct {
	lister   FileLister
	client   *http.Client
	token    string
	dir      string
	settings *Settings
	log      logger.Logger
}

// NewFetcher creates a fetcher that writes into dir. A nil client gets one with the
// configured request timeout.
func NewFetcher(settings *Settings, lister FileLister, client *http.Client, token, dir string, log logger.Logger) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: settings.Fetch.RequestTimeout}
	}
	return &Fetcher{
		lister:   lister,
		client:   client,
		token:    token,
		dir:      dir,
		settings: settings,
		log:      log,
	}
}

// MatchesTitle reports whether title contains filter, ignoring case.
func MatchesTitle(title, filter string) bool {
	return strings.Contains(strings.ToLower(title), strings.ToLower(filter))
}

// Run downloads every matching file. A listing failure or a failed download stops the
// run; the returned report then covers the records handled so far.
func (f *Fetcher) Run(ctx context.Context) (*FetchReport, error) {
	channel := f.settings.Slack.Channel
	report := &FetchReport{RunID: uuid.NewString(), Channel: channel}
	log := f.log.With(logger.String("run_id", report.RunID), logger.String("channel", channel))

	records, err := f.lister.ListFiles(ctx, channel, f.settings.Slack.PageSize)
	if err != nil {
		return report, &ListingError{Channel: channel, Err: err}
	}
	report.Listed = len(records)
	log.Info("Found files", logger.Int("files", len(records)))

	seen := make(map[string]bool)
	for _, rec := range records {
		if !MatchesTitle(rec.Title, f.settings.Fetch.TitleFilter) {
			continue
		}
		report.Matched++

		name, err := safename.Sanitize(rec.Title)
		if err != nil {
			log.Warn("✗ Skipping file with unsafe title", logger.String("title", rec.Title), logger.Error(err))
			report.Results = append(report.Results, FetchResult{Title: rec.Title, Status: StatusSkipped, Error: err})
			continue
		}
		if seen[name] {
			log.Debug("Overwriting file from earlier record", logger.String("file", name))
		}
		seen[name] = true

		log.Info("→ Downloading", logger.String("title", rec.Title), logger.String("file", name))
		size, err := f.download(ctx, rec.URLPrivate, name)
		if err != nil {
			report.Results = append(report.Results, FetchResult{Title: rec.Title, Filename: name, Status: StatusError, Error: err})
			return report, fmt.Errorf("downloading %q: %w", rec.Title, err)
		}
		report.Results = append(report.Results, FetchResult{Title: rec.Title, Filename: name, Status: StatusSuccess, Bytes: size})
		log.Info("✓ Saved", logger.String("file", name), logger.Int64("bytes", size))
	}

	log.Info("Fetch finished",
		logger.Int("listed", report.Listed),
		logger.Int("matched", report.Matched),
		logger.Int("downloaded", report.Downloaded()))
	return report, nil
}

// download fetches rawURL and stores the body as name inside the fetcher's directory.
func (f *Fetcher) download(ctx context.Context, rawURL, name string) (int64, error) {
	data, err := f.Download(ctx, rawURL)
	if err != nil {
		return 0, err
	}
	if err := writeFileAtomic(f.dir, name, data); err != nil {
		return 0, err
	}
	return int64(len(data)), nil
}

// Download returns the full body of an authenticated GET on rawURL.
func (f *Fetcher) Download(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", rawURL, err)
	}
	req.Header.Set("Authorization", "Bearer "+f.token)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPError{StatusCode: resp.StatusCode, URL: rawURL}
	}

	limit := f.settings.Fetch.MaxFileBytes
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: %s is larger than %d bytes", ErrFileTooLarge, rawURL, limit)
	}
	return data, nil
}

// writeFileAtomic replaces dir/name with data via a temporary file so a failed write
// never leaves a truncated file behind.
func writeFileAtomic(dir, name string, data []byte) error {
	tmp, err := os.CreateTemp(dir, ".fetch-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temporary file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", name, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("setting permissions on %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(dir, name)); err != nil {
		return fmt.Errorf("saving %s: %w", name, err)
	}
	return nil
}
