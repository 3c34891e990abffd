package report

import (
	"fmt"
	"io"

	"github.com/rodaine/table"

	"linkaudit/pkg/models"
	"linkaudit/pkg/state"
)

// PrintSummary renders the end-of-run broken-link table to w, or a success
// indicator when nothing broke
func PrintSummary(w io.Writer, broken []models.BrokenLink) {
	if len(broken) == 0 {
		fmt.Fprintln(w, "No broken links found.")
		return
	}

	tbl := table.New("Error", "URL", "Source").WithWriter(w)
	for _, rec := range broken {
		tbl.AddRow(rec.Outcome.ErrorField(), rec.URL, rec.Source)
	}
	tbl.Print()
	fmt.Fprintf(w, "\n%d broken link(s) found.\n", len(broken))
}

// PrintStats renders the final status histogram alongside the crawl
// counters
func PrintStats(w io.Writer, snap state.Snapshot) {
	tbl := table.New("Metric", "Count").WithWriter(w)
	tbl.AddRow("Links Discovered", snap.Discovered)
	tbl.AddRow("Links Checked", snap.Visited)
	tbl.AddRow("200 OK", snap.Histogram["200"])
	tbl.AddRow("400 Bad Request", snap.Histogram["400"])
	tbl.AddRow("404 Not Found", snap.Histogram["404"])
	tbl.AddRow("500 Server Error", snap.Histogram["500"])
	tbl.AddRow("Other Errors", snap.Histogram[models.TransportErrorKey])
	tbl.Print()
}
