package tools

import (
	"context"
	"fmt"
	"html"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-shiori/go-readability"
	"github.com/microcosm-cc/bluemonday"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// Page is the readable part of a fetched web page.
type Page struct {
	Title   string
	Excerpt string
	Text    string
}

// PageReader fetches a URL and extracts its main content as clean text.
type PageReader struct {
	UserAgent string
	MaxChars  int

	client *http.Client
	policy *bluemonday.Policy
}

func NewPageReader(timeout time.Duration) *PageReader {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &PageReader{
		UserAgent: defaultUserAgent,
		MaxChars:  4000,
		client:    &http.Client{Timeout: timeout},
		policy:    bluemonday.StrictPolicy(),
	}
}

func (p *PageReader) Read(ctx context.Context, rawURL string) (Page, error) {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return Page{}, fmt.Errorf("failed to parse URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Page{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", p.UserAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return Page{}, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Page{}, fmt.Errorf("failed to fetch URL: status code %d", resp.StatusCode)
	}

	article, err := readability.FromReader(resp.Body, parsedURL)
	if err != nil {
		return Page{}, fmt.Errorf("failed to parse article: %w", err)
	}

	text := strings.TrimSpace(html.UnescapeString(p.policy.Sanitize(article.TextContent)))
	if p.MaxChars > 0 && len([]rune(text)) > p.MaxChars {
		text = string([]rune(text)[:p.MaxChars]) + " ..."
	}
	return Page{Title: article.Title, Excerpt: article.Excerpt, Text: text}, nil
}

// Enricher wraps a Searcher and replaces thin record snippets with the
// readable text of the linked page. Plain-text results pass through.
type Enricher struct {
	Searcher Searcher
	Reader   *PageReader
	// MinChars is the snippet length below which a page is fetched.
	MinChars int
	// MaxPages caps page fetches per query.
	MaxPages int
}

func NewEnricher(s Searcher, reader *PageReader) *Enricher {
	return &Enricher{Searcher: s, Reader: reader, MinChars: 200, MaxPages: 2}
}

func (e *Enricher) Name() string {
	return e.Searcher.Name()
}

func (e *Enricher) Search(ctx context.Context, query string) (Result, error) {
	res, err := e.Searcher.Search(ctx, query)
	if err != nil || !res.Structured() {
		return res, err
	}

	fetched := 0
	for i := range res.Records {
		rec := &res.Records[i]
		if rec.URL == "" || len(rec.Content) >= e.MinChars || fetched >= e.MaxPages {
			continue
		}
		fetched++
		page, err := e.Reader.Read(ctx, rec.URL)
		if err != nil {
			log.Printf("enrich %s: %v", rec.URL, err)
			continue
		}
		if page.Text != "" {
			rec.Content = page.Text
		}
		if rec.Title == "" {
			rec.Title = page.Title
		}
	}
	return res, nil
}
