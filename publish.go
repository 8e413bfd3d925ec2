package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aktagon/digest-scraper/internal/logger"
)

// ErrNothingToPublish is returned for an empty file; Slack rejects zero-byte uploads.
var ErrNothingToPublish = errors.New("nothing to publish")

// Publisher shares a local file, normally the aggregate output, in a channel.
type Publisher struct {
	uploader FileUploader
	channel  string
	log      logger.Logger
}

// NewPublisher creates a publisher posting to channel.
func NewPublisher(uploader FileUploader, channel string, log logger.Logger) *Publisher {
	return &Publisher{uploader: uploader, channel: channel, log: log}
}

// Publish uploads path with the given title and returns the Slack file ID.
func (p *Publisher) Publish(ctx context.Context, path, title string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	if len(content) == 0 {
		return "", fmt.Errorf("%w: %s is empty", ErrNothingToPublish, path)
	}

	filename := filepath.Base(path)
	if title == "" {
		title = filename
	}

	p.log.Info("→ Publishing", logger.String("file", filename), logger.String("channel", p.channel))
	id, err := p.uploader.UploadFile(ctx, Upload{
		Channel:  p.channel,
		Filename: filename,
		Title:    title,
		Content:  content,
	})
	if err != nil {
		return "", err
	}
	p.log.Info("✓ Published", logger.String("file_id", id))
	return id, nil
}
