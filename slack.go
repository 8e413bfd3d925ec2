package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/slack-go/slack"
)

// FileLister returns the files shared in a channel, newest first.
type FileLister interface {
	ListFiles(ctx context.Context, channel string, count int) ([]RemoteFileRecord, error)
}

// FileUploader shares a file in a channel and returns the new file's ID.
type FileUploader interface {
	UploadFile(ctx context.Context, upload Upload) (string, error)
}

// Upload describes a file to share.
type Upload struct {
	Channel  string
	Filename string
	Title    string
	Content  []byte
}

// ListingError is returned when the channel listing cannot be retrieved.
type ListingError struct {
	Channel string
	Err     error
}

func (e *ListingError) Error() string {
	return fmt.Sprintf("listing files in %s: %v", e.Channel, e.Err)
}

func (e *ListingError) Unwrap() error {
	return e.Err
}

// SlackClient adapts the Slack Web API to FileLister and FileUploader.
type SlackClient struct {
	api *slack.Client
}

// NewSlackClient creates a client authenticated with token. apiURL and httpClient are
// optional; tests point them at an httptest server.
func NewSlackClient(token, apiURL string, httpClient *http.Client) *SlackClient {
	var opts []slack.Option
	if apiURL != "" {
		opts = append(opts, slack.OptionAPIURL(apiURL))
	}
	if httpClient != nil {
		opts = append(opts, slack.OptionHTTPClient(httpClient))
	}
	return &SlackClient{api: slack.New(token, opts...)}
}

// ListFiles calls files.list for channel with the given page size.
func (c *SlackClient) ListFiles(ctx context.Context, channel string, count int) ([]RemoteFileRecord, error) {
	params := slack.NewGetFilesParameters()
	params.Channel = channel
	params.Count = count

	files, _, err := c.api.GetFilesContext(ctx, params)
	if err != nil {
		return nil, err
	}

	records := make([]RemoteFileRecord, 0, len(files))
	for _, f := range files {
		records = append(records, RemoteFileRecord{
			ID:         f.ID,
			Title:      f.Title,
			URLPrivate: f.URLPrivate,
			Filetype:   f.Filetype,
			Size:       f.Size,
		})
	}
	return records, nil
}

// UploadFile shares upload.Content through the external upload flow.
func (c *SlackClient) UploadFile(ctx context.Context, upload Upload) (string, error) {
	summary, err := c.api.UploadFileV2Context(ctx, slack.UploadFileV2Parameters{
		Reader:   bytes.NewReader(upload.Content),
		FileSize: len(upload.Content),
		Filename: upload.Filename,
		Title:    upload.Title,
		Channel:  upload.Channel,
	})
	if err != nil {
		return "", fmt.Errorf("uploading %s: %w", upload.Filename, err)
	}
	return summary.ID, nil
}
