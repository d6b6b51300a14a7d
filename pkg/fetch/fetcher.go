package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"bookharvest/pkg/utils"
)

// maxBodyBytes caps how much of a response body is parsed. Listing and
// reader pages on the supported catalogs stay well under this.
const maxBodyBytes = 8 << 20 // 8 MiB

// Fetcher retrieves a URL and returns its parsed page tree. There are no
// retries: a failure aborts only the current page attempt and is surfaced as
// a typed error to the caller.
type Fetcher struct {
	client *http.Client
	log    *logrus.Logger
}

// NewFetcher creates a new Fetcher instance
func NewFetcher(client *http.Client, log *logrus.Logger) *Fetcher {
	return &Fetcher{
		client: client,
		log:    log,
	}
}

// Fetch performs a single GET for pageURL and parses the response into a
// goquery document. Non-2xx statuses are wrapped with utils.ErrHTTPStatus;
// network and timeout errors pass through for categorization.
func (f *Fetcher) Fetch(ctx context.Context, pageURL, userAgent string) (*goquery.Document, error) {
	reqLog := f.log.WithField("url", pageURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", utils.ErrRequestCreation, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "ru-RU,ru;q=0.9,en-US;q=0.8,en;q=0.7")

	resp, err := f.client.Do(req)
	if err != nil {
		reqLog.Warnf("Fetch failed: %v", err)
		return nil, err
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		reqLog.WithField("status_code", resp.StatusCode).Warn("Non-2xx response")
		return nil, fmt.Errorf("%w: status %s", utils.ErrHTTPStatus, resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: HTML parse of '%s': %w", utils.ErrParsing, pageURL, err)
	}

	reqLog.Debug("Successfully fetched and parsed")
	return doc, nil
}
