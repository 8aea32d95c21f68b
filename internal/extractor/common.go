package extractor

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/drewfead/pdx-indie-showtimes/internal"
	"github.com/drewfead/pdx-indie-showtimes/internal/browser"
)

// Theater sites serve different (sometimes empty) markup to obvious bots, so
// every fetch presents a desktop browser user agent.
const userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) " +
	"Chrome/120.0.0.0 Safari/537.36"

// defaultHTTPClient bounds every direct page fetch; an unresponsive source
// must not stall the run.
var defaultHTTPClient = &http.Client{Timeout: 30 * time.Second}

// timePatternRE matches showtime-shaped tokens in free text, with or
// without an AM/PM suffix.
var timePatternRE = regexp.MustCompile(`\b(\d{1,2}:\d{2}\s*(?:AM|PM|am|pm)?)\b`)

func fetchPage(ctx context.Context, client *http.Client, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", internal.ErrSourceUnavailable, url, err)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("%w: %s returned %s", internal.ErrSourceUnavailable, url, resp.Status)
	}
	return resp, nil
}

// fetchDocument GETs url and parses the body as a goquery document.
func fetchDocument(ctx context.Context, client *http.Client, url string) (*goquery.Document, error) {
	resp, err := fetchPage(ctx, client, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", internal.ErrParseMismatch, url, err)
	}
	return doc, nil
}

// renderedPage returns the markup at pageURL, through the headless browser
// when one is configured and a plain fetch otherwise.
func renderedPage(
	ctx context.Context,
	b browser.Interface,
	client *http.Client,
	pageURL string,
	settle time.Duration,
) (string, error) {
	if b != nil {
		html, err := b.HTML(ctx, pageURL, settle)
		if err != nil {
			return "", fmt.Errorf("%w: render %s: %v", internal.ErrSourceUnavailable, pageURL, err)
		}
		return html, nil
	}
	resp, err := fetchPage(ctx, client, pageURL)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read %s: %v", internal.ErrSourceUnavailable, pageURL, err)
	}
	return string(body), nil
}

// resolveLink resolves href against base, falling back to base when href is
// empty or unparseable.
func resolveLink(base, href string) string {
	if href == "" {
		return base
	}
	if strings.HasPrefix(href, "http") {
		return href
	}
	b, err := url.Parse(base)
	if err != nil {
		return base
	}
	ref, err := url.Parse(href)
	if err != nil {
		return base
	}
	return b.ResolveReference(ref).String()
}

// parseDocument parses already-rendered markup (e.g. from the headless
// browser) as a goquery document.
func parseDocument(html string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", internal.ErrParseMismatch, err)
	}
	return doc, nil
}

// textLines splits rendered text into trimmed, non-empty lines.
func textLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// containsAny reports whether s (lowercased) contains any denylist phrase.
func containsAny(s string, phrases []string) bool {
	lower := strings.ToLower(s)
	for _, p := range phrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// plausibleTitle applies the shared title-shape heuristic: reasonable
// length and not a known navigation or boilerplate phrase.
func plausibleTitle(text string, denylist []string) bool {
	if len(text) < 2 || len(text) > 100 {
		return false
	}
	lower := strings.ToLower(text)
	for _, p := range denylist {
		if lower == p {
			return false
		}
	}
	return true
}
