package crawler

import (
	"bytes"
	"net/url"
	"runtime/debug"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"linkaudit/pkg/models"
	"linkaudit/pkg/parse"
)

// runTask performs the fetch-and-extract contract for one frontier entry:
// depth check, visit gate, fetch, classification, and on success link
// extraction. It returns the newly discovered frontier entries
// Every failure mode is absorbed here; nothing a task does can abort the
// crawl
func (c *Crawler) runTask(entry models.FrontierEntry, taskLog *logrus.Entry) (results []models.FrontierEntry) {
	defer func() {
		if r := recover(); r != nil {
			taskLog.WithFields(logrus.Fields{
				"panic_info":  r,
				"stack_trace": string(debug.Stack()),
			}).Error("PANIC recovered in fetch task")
			results = nil
		}
	}()

	// Depth check runs before the visit gate: entries beyond the bound are
	// discovered but never consume a visited slot, and are silently dropped
	// rather than queued for a deeper crawl
	if entry.Depth > c.cfg.MaxDepth {
		taskLog.Debug("Beyond max depth, dropping")
		return nil
	}

	// Single dedup gate; another task already owns this URL when false
	if !c.state.TryMarkVisited(entry.URL) {
		taskLog.Debug("Already visited, skipping")
		return nil
	}

	outcome, body := c.fetcher.Fetch(c.runCtx, entry.URL)
	c.state.RecordStatus(outcome)

	if outcome.Broken() {
		taskLog.WithField("outcome", outcome.String()).Info("Broken link")
		c.state.RecordBroken(entry.URL, outcome, entry.Source)
		return nil
	}

	taskLog.WithField("status", outcome.Status).Debug("Fetched OK")
	return c.extractLinks(entry, body, taskLog)
}

// extractLinks parses the page body and returns frontier entries for every
// internal, crawlable, newly discovered hyperlink target
// A body that cannot be parsed yields zero links rather than failing the
// task
func (c *Crawler) extractLinks(entry models.FrontierEntry, body []byte, taskLog *logrus.Entry) []models.FrontierEntry {
	pageURL, err := url.Parse(entry.URL)
	if err != nil {
		taskLog.Warnf("Cannot parse fetched URL for link resolution: %v", err)
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		taskLog.Warnf("Cannot parse HTML, no links extracted: %v", err)
		return nil
	}

	var next []models.FrontierEntry
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok || href == "" {
			return
		}

		// Resolve against the fetched page, not the crawl base
		normalized := parse.Normalize(pageURL, href)
		if !parse.IsCrawlableScheme(normalized) {
			return
		}
		if !parse.IsInternal(c.baseURL, normalized) {
			return
		}
		if !c.state.TryMarkDiscovered(normalized) {
			return
		}
		next = append(next, models.FrontierEntry{
			URL:    normalized,
			Depth:  entry.Depth + 1,
			Source: entry.URL,
		})
	})

	if len(next) > 0 {
		taskLog.Debugf("Discovered %d new links", len(next))
	}
	return next
}
