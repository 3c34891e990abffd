package models

// SourceRoot is the sentinel source recorded for the seed URL.
const SourceRoot = "root"

// FrontierEntry is one unit of crawl work: a normalized URL, the depth at
// which it was discovered, and the page that linked to it
// Entries are created by link extraction and consumed exactly once by dispatch
type FrontierEntry struct {
	URL    string
	Depth  int
	Source string
}

// BrokenLink records a target that returned an HTTP error status or could
// not be fetched at all, together with the page that referenced it
// The broken list reflects completion order of concurrent tasks, not
// discovery order
type BrokenLink struct {
	URL     string
	Outcome Outcome
	Source  string
}
