package main

import (
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
)

// renderFetchReport prints one row per matching record.
func renderFetchReport(w io.Writer, r *FetchReport) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle("Fetch " + r.Channel)
	t.AppendHeader(table.Row{"Title", "File", "Status", "Bytes", "Error"})
	for _, res := range r.Results {
		t.AppendRow(table.Row{res.Title, res.Filename, res.Status, res.Bytes, errorText(res.Error)})
	}
	t.AppendFooter(table.Row{"Listed", r.Listed, "Matched", r.Matched, ""})
	t.Render()
}

// renderExtractionReport prints totals and, when present, one row per failed segment.
func renderExtractionReport(w io.Writer, r *ExtractionReport) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle("Extract → " + r.OutputPath)
	t.AppendHeader(table.Row{"Files", "Entries", "Failures"})
	t.AppendRow(table.Row{len(r.Files), len(r.Entries), len(r.Failures)})
	t.Render()

	if !r.Partial() {
		return
	}

	f := table.NewWriter()
	f.SetOutputMirror(w)
	f.SetStyle(table.StyleLight)
	f.SetTitle("Failed segments")
	f.AppendHeader(table.Row{"File", "Segment", "Error"})
	for _, fail := range r.Failures {
		segment := "-"
		if fail.Segment > 0 {
			segment = strconv.Itoa(fail.Segment)
		}
		f.AppendRow(table.Row{fail.File, segment, errorText(fail.Err)})
	}
	f.Render()
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
