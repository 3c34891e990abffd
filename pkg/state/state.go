package state

import (
	"sync"

	"github.com/sirupsen/logrus"

	"linkaudit/pkg/models"
)

// Exporter receives each broken-link record the moment it is recorded.
// Implementations must be safe for concurrent use
type Exporter interface {
	Write(rec models.BrokenLink) error
}

// CrawlState is the single point of truth shared by all concurrent fetch
// tasks: the visited and discovered sets, the status histogram, and the
// broken-link list
// One mutex guards every field, so the exported operations are linearizable
// with respect to each other. No caller may touch the underlying containers
// directly
type CrawlState struct {
	mu         sync.Mutex
	visited    map[string]struct{}
	discovered map[string]struct{}
	histogram  map[string]int
	broken     []models.BrokenLink

	exporter Exporter // optional realtime sink, may be nil
	log      *logrus.Entry
}

// New creates an empty CrawlState. exporter may be nil when realtime export
// is disabled
func New(exporter Exporter, log *logrus.Entry) *CrawlState {
	return &CrawlState{
		visited:    make(map[string]struct{}),
		discovered: make(map[string]struct{}),
		histogram:  make(map[string]int),
		exporter:   exporter,
		log:        log,
	}
}

// TryMarkVisited records url as visited iff it was not already visited and
// returns whether it did. This is the single dedup gate: a task may fetch a
// URL only when this returns true, so no two concurrent tasks ever fetch
// the same URL
func (s *CrawlState) TryMarkVisited(url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, seen := s.visited[url]; seen {
		return false
	}
	s.visited[url] = struct{}{}
	return true
}

// TryMarkDiscovered records url as discovered iff it was not already
// discovered and returns whether it did. Used to avoid enqueueing the same
// URL twice from different source pages
func (s *CrawlState) TryMarkDiscovered(url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, seen := s.discovered[url]; seen {
		return false
	}
	s.discovered[url] = struct{}{}
	return true
}

// RecordStatus increments the histogram bucket for the fetch outcome
func (s *CrawlState) RecordStatus(o models.Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.histogram[o.HistogramKey()]++
}

// RecordBroken appends a broken-link record and forwards it to the realtime
// exporter. Forwarding happens under the state lock, matching the exporter's
// one-record-at-a-time contract; an export failure is logged and never
// aborts the crawl
func (s *CrawlState) RecordBroken(url string, o models.Outcome, source string) {
	rec := models.BrokenLink{URL: url, Outcome: o, Source: source}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.broken = append(s.broken, rec)

	if s.exporter != nil {
		if err := s.exporter.Write(rec); err != nil {
			s.log.WithFields(logrus.Fields{"url": url, "source": source}).
				Errorf("Realtime export failed: %v", err)
		}
	}
}

// Snapshot is a point-in-time copy of the crawl counters, safe to read
// without holding any lock
type Snapshot struct {
	Discovered int
	Visited    int
	Histogram  map[string]int
	Broken     []models.BrokenLink
}

// InQueue returns the number of discovered URLs not yet dispatched
func (snap Snapshot) InQueue() int {
	return snap.Discovered - snap.Visited
}

// Snapshot copies the current counters and broken list for progress
// reporting and final reporting
func (s *CrawlState) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	hist := make(map[string]int, len(s.histogram))
	for k, v := range s.histogram {
		hist[k] = v
	}
	broken := make([]models.BrokenLink, len(s.broken))
	copy(broken, s.broken)

	return Snapshot{
		Discovered: len(s.discovered),
		Visited:    len(s.visited),
		Histogram:  hist,
		Broken:     broken,
	}
}
