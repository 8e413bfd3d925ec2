package main

// RemoteFileRecord is one entry of a channel's file listing.
type RemoteFileRecord struct {
	ID         string
	Title      string
	URLPrivate string
	Filetype   string
	Size       int
}

// FetchStatus represents the outcome of handling one listed file
type FetchStatus string

const (
	StatusSuccess FetchStatus = "success"
	StatusSkipped FetchStatus = "skipped"
	StatusError   FetchStatus = "error"
)

// FetchResult tracks the outcome for each matching record
type FetchResult struct {
	Title    string
	Filename string
	Status   FetchStatus
	Bytes    int64
	Error    error
}

// FetchReport summarises a fetch run.
type FetchReport struct {
	RunID   string
	Channel string
	Listed  int
	Matched int
	Results []FetchResult
}

// Downloaded counts the files written to disk.
func (r *FetchReport) Downloaded() int {
	n := 0
	for _, res := range r.Results {
		if res.Status == StatusSuccess {
			n++
		}
	}
	return n
}

// ExtractedEntry is one line destined for the aggregate output.
type ExtractedEntry struct {
	File    string
	Segment int
	Text    string
}

// ExtractionReport summarises an extract run.
type ExtractionReport struct {
	RunID      string
	OutputPath string
	Files      []string
	Entries    []ExtractedEntry
	Failures   []*SegmentError
}

// Partial reports whether any file or segment failed to produce an entry.
func (r *ExtractionReport) Partial() bool {
	return len(r.Failures) > 0
}
