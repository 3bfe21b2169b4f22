package source

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-shiori/go-readability"
)

// maxBodySize bounds how much HTML is read from an untrusted URL.
const maxBodySize = 10 * 1024 * 1024

// Article is the readable content of a web page.
type Article struct {
	URL       string
	Title     string
	Byline    string
	SiteName  string
	Text      string
	Sentences []string
}

// Fetcher downloads web pages and extracts their main text.
type Fetcher struct {
	Client *http.Client
	Logger *slog.Logger
}

// NewFetcher returns a Fetcher with a 30 second timeout.
func NewFetcher(logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Fetcher{
		Client: &http.Client{Timeout: 30 * time.Second},
		Logger: logger.With("component", "fetcher"),
	}
}

// FetchArticle downloads rawURL, strips ruby annotations, extracts the
// readable text and splits it into sentences.
func (f *Fetcher) FetchArticle(ctx context.Context, rawURL string) (*Article, error) {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	// Some news sites block clients that do not look like a browser.
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "ja,en-US;q=0.9,en;q=0.8")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", rawURL, resp.StatusCode)
	}
	if resp.ContentLength > maxBodySize {
		return nil, fmt.Errorf("content-length %d exceeds limit of %d bytes", resp.ContentLength, maxBodySize)
	}

	// Read one byte past the limit to tell a full body from a truncated one.
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if len(body) > maxBodySize {
		return nil, fmt.Errorf("response body exceeded maximum size limit of %d bytes", maxBodySize)
	}

	body = SanitizeRuby(body)
	article, err := readability.FromReader(bytes.NewReader(body), parsedURL)
	if err != nil {
		return nil, fmt.Errorf("failed to extract article: %w", err)
	}

	a := &Article{
		URL:       rawURL,
		Title:     article.Title,
		Byline:    article.Byline,
		SiteName:  article.SiteName,
		Text:      article.TextContent,
		Sentences: SplitSentences(article.TextContent),
	}
	f.Logger.Info("fetched article",
		slog.String("url", rawURL),
		slog.String("title", a.Title),
		slog.Int("chars", len(a.Text)),
		slog.Int("sentences", len(a.Sentences)),
	)
	return a, nil
}
