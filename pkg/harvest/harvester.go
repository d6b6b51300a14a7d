package harvest

import (
	"context"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"bookharvest/pkg/fetch"
	"bookharvest/pkg/models"
	"bookharvest/pkg/process"
	"bookharvest/pkg/sites"
)

// DefaultMaxPages bounds worst-case cost per source against pathological
// pagination.
const DefaultMaxPages = 10

// PageFetcher retrieves and parses one page. Satisfied by fetch.Fetcher.
type PageFetcher interface {
	Fetch(ctx context.Context, pageURL, userAgent string) (*goquery.Document, error)
}

// Options configures one harvesting run.
type Options struct {
	TargetCount  int           // Stop once this many records accumulated
	PageCount    int           // Explicit pages per source; 0 = drive by target
	MaxPages     int           // Hard per-source page cap (default DefaultMaxPages)
	UserAgent    string
	Delay        time.Duration // Minimum inter-page politeness delay per host
	FetchContent bool          // Fetch and clean full book text after listing harvest
	Parallel     bool          // Harvest independent sources concurrently
}

// Harvester drives repeated fetch/parse across pages and sources, extracting
// and normalizing book records into a session accumulator. Pages within one
// source are always fetched sequentially with a politeness delay; sources
// share no mutable state, so they may optionally run concurrently.
type Harvester struct {
	fetcher PageFetcher
	limiter *fetch.RateLimiter
	log     *logrus.Logger
}

// NewHarvester creates a Harvester
func NewHarvester(fetcher PageFetcher, limiter *fetch.RateLimiter, log *logrus.Logger) *Harvester {
	return &Harvester{
		fetcher: fetcher,
		limiter: limiter,
		log:     log,
	}
}

// Run harvests the given sources in order until the target count, an empty
// listing page, or the page cap bounds each source. A fetch failure aborts
// only the failing source; the remaining sources still run. The returned
// session holds an ordered, source-tagged record sequence.
func (h *Harvester) Run(ctx context.Context, adapters []*sites.Adapter, opts Options) *Session {
	if opts.MaxPages <= 0 {
		opts.MaxPages = DefaultMaxPages
	}

	session := newSession(opts.TargetCount)
	runLog := h.log.WithField("session_id", session.ID)
	runLog.WithFields(logrus.Fields{
		"sources": len(adapters), "target": opts.TargetCount, "parallel": opts.Parallel,
	}).Info("Harvest run starting")

	if opts.Parallel && len(adapters) > 1 {
		h.runParallel(ctx, adapters, opts, session, runLog)
	} else {
		h.runSequential(ctx, adapters, opts, session, runLog)
	}

	runLog.WithFields(logrus.Fields{
		"records": len(session.Records), "failed_sources": len(session.SourceErrors),
	}).Info("Harvest run finished")
	return session
}

// runSequential walks sources in order, letting later sources fill whatever
// the earlier ones left of the target.
func (h *Harvester) runSequential(ctx context.Context, adapters []*sites.Adapter, opts Options, session *Session, runLog *logrus.Entry) {
	for _, a := range adapters {
		remaining := opts.TargetCount - len(session.Records)
		if opts.PageCount == 0 && remaining <= 0 {
			break
		}
		records, pages, err := h.harvestSource(ctx, a, remaining, opts, runLog)
		session.Records = append(session.Records, records...)
		session.PagesVisited[a.Key()] = pages
		if err != nil {
			session.SourceErrors[a.Key()] = err
		}
	}
}

// runParallel harvests independent sources concurrently. The overall target
// is split evenly across sources up front, since there is no meaningful
// "remaining" while all sources are in flight. Results are appended in
// source order so the output stays deterministic.
func (h *Harvester) runParallel(ctx context.Context, adapters []*sites.Adapter, opts Options, session *Session, runLog *logrus.Entry) {
	share := opts.TargetCount / len(adapters)
	extra := opts.TargetCount % len(adapters)

	type result struct {
		records []models.BookRecord
		pages   int
		err     error
	}
	results := make([]result, len(adapters))

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for i, a := range adapters {
		i, a := i, a
		target := share
		if i == 0 {
			target += extra
		}
		g.Go(func() error {
			records, pages, err := h.harvestSource(gctx, a, target, opts, runLog)
			mu.Lock()
			results[i] = result{records: records, pages: pages, err: err}
			mu.Unlock()
			return nil // Source failures are per-source state, never group-fatal
		})
	}
	_ = g.Wait() // Per-source errors are collected below, never group-fatal

	for i, a := range adapters {
		session.Records = append(session.Records, results[i].records...)
		session.PagesVisited[a.Key()] = results[i].pages
		if results[i].err != nil {
			session.SourceErrors[a.Key()] = results[i].err
		}
	}
}

// harvestSource pages through one source: build page URL, fetch, locate
// listing nodes, extract and normalize each into a valid record. Termination:
// target reached, a page yields zero listing nodes, or the page cap. A fetch
// error aborts this source only and is returned alongside whatever was
// already accumulated.
func (h *Harvester) harvestSource(ctx context.Context, a *sites.Adapter, target int, opts Options, runLog *logrus.Entry) ([]models.BookRecord, int, error) {
	srcLog := runLog.WithField("source", a.Key())
	host := hostOf(a.BaseURL())

	maxPages := opts.MaxPages
	if opts.PageCount > 0 && opts.PageCount < maxPages {
		maxPages = opts.PageCount
	}

	var records []models.BookRecord
	pagesVisited := 0

	for page := 1; page <= maxPages; page++ {
		if page > 1 {
			// Politeness: minimum inter-page delay within one source
			h.limiter.ApplyDelay(host, opts.Delay)
		}

		pageURL := a.PageURL(page)
		pageLog := srcLog.WithFields(logrus.Fields{"page": page, "url": pageURL})

		doc, err := h.fetcher.Fetch(ctx, pageURL, opts.UserAgent)
		h.limiter.UpdateLastRequestTime(host)
		if err != nil {
			pageLog.Warnf("Aborting source after fetch failure: %v", err)
			return records, pagesVisited, err
		}
		pagesVisited++

		nodes := a.ListingNodes(doc)
		if len(nodes) == 0 {
			pageLog.Debug("No listing nodes, treating as end of pages")
			break
		}

		dropped := 0
		for _, node := range nodes {
			if opts.PageCount == 0 && target > 0 && len(records) >= target {
				break
			}
			rec, ok := h.extractRecord(a, node)
			if !ok {
				dropped++
				continue
			}
			records = append(records, rec)
		}
		pageLog.WithFields(logrus.Fields{
			"listed": len(nodes), "kept": len(records), "dropped": dropped,
		}).Debug("Page processed")

		if opts.PageCount == 0 && target > 0 && len(records) >= target {
			break
		}
	}

	if opts.FetchContent {
		h.fetchContent(ctx, a, records, opts, srcLog)
	}

	srcLog.WithFields(logrus.Fields{"records": len(records), "pages": pagesVisited}).Info("Source harvested")
	return records, pagesVisited, nil
}

// extractRecord pulls every field out of one listing node and normalizes the
// result. Records without identity (unassigned ID and empty title) are
// dropped here and never reach the merge stage.
func (h *Harvester) extractRecord(a *sites.Adapter, node *goquery.Selection) (models.BookRecord, bool) {
	raw := process.RawBook{Source: a.Key()}

	raw.Title = a.Field(node, sites.FieldTitle)
	raw.BookURL = a.AbsoluteURL(a.Field(node, sites.FieldBookLink))
	raw.ID = a.ExtractID(raw.BookURL)
	raw.Author = a.Field(node, sites.FieldAuthor)
	raw.Genre = a.Field(node, sites.FieldGenre)
	raw.Description = a.Field(node, sites.FieldDescription)
	raw.ImageURL = a.AbsoluteURL(a.Field(node, sites.FieldImage))
	raw.ReadURL = a.ReadURL(raw.ID, raw.BookURL)
	raw.DownloadURL = a.DownloadURL(raw.ID)
	raw.IsCompleted = a.Field(node, sites.FieldStatus) != ""

	if pagesText := a.Field(node, sites.FieldPages); pagesText != "" {
		if n, err := strconv.Atoi(pagesText); err == nil && n > 0 {
			raw.PageCount = &n
		}
	}

	rec := process.Normalize(raw, a.Language())
	if !rec.Valid() {
		return models.BookRecord{}, false
	}
	return rec, true
}

// fetchContent runs the full-text pass: for each record with a reader URL,
// fetch the page, locate the content node via the adapter, and clean it into
// plain text. Failures leave Content empty and never abort the run.
func (h *Harvester) fetchContent(ctx context.Context, a *sites.Adapter, records []models.BookRecord, opts Options, srcLog *logrus.Entry) {
	host := hostOf(a.BaseURL())

	for i := range records {
		rec := &records[i]
		if rec.ReadURL == "" {
			continue
		}

		h.limiter.ApplyDelay(host, opts.Delay)
		doc, err := h.fetcher.Fetch(ctx, rec.ReadURL, opts.UserAgent)
		h.limiter.UpdateLastRequestTime(host)
		if err != nil {
			srcLog.WithField("url", rec.ReadURL).Debugf("Content fetch failed, leaving content empty: %v", err)
			continue
		}

		sel := a.ContentNode(doc)
		if sel == nil {
			srcLog.WithField("url", rec.ReadURL).Debug("No content node found")
			continue
		}
		rec.Content = process.Truncate(process.ExtractText(sel), models.MaxContentLen)
	}
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	return u.Host
}
