// Package fetcher handles raw feed retrieval and RSS/Atom parsing.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/mmcdole/gofeed"

	"feedmailer/internal/model"
)

const maxBodySize = 5 * 1024 * 1024

// HTTPClient is the interface for performing HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// StatusError reports a non-200 HTTP response.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.Code)
}

// ParseError reports malformed feed content.
type ParseError struct {
	Pos string
	Msg string
}

func (e *ParseError) Error() string {
	if e.Pos != "" {
		return fmt.Sprintf("parse feed at %s: %s", e.Pos, e.Msg)
	}
	return "parse feed: " + e.Msg
}

// Client downloads raw source content over HTTP.
type Client struct {
	client  HTTPClient
	timeout time.Duration
}

// New creates a Client with the given HTTP client.
func New(client HTTPClient) *Client {
	return &Client{
		client:  client,
		timeout: 30 * time.Second,
	}
}

// Fetch downloads the raw content at url. A non-200 response is returned as
// a *StatusError; transport failures come back wrapped.
func (c *Client) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "feedmailer/1.0")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

// Parse turns raw RSS/Atom bytes into a Feed, resolving relative links
// against baseURL. Failures come back as a *ParseError.
func Parse(baseURL string, data []byte) (model.Feed, error) {
	parsed, err := gofeed.NewParser().ParseString(string(data))
	if err != nil {
		return model.Feed{}, &ParseError{Msg: err.Error()}
	}

	feed := model.Feed{
		Title: parsed.Title,
		Link:  resolveLink(baseURL, parsed.Link),
	}
	if parsed.Image != nil {
		feed.Icon = resolveLink(baseURL, parsed.Image.URL)
	}

	for _, item := range parsed.Items {
		e := model.Entry{
			ID:      item.GUID,
			Title:   item.Title,
			Link:    resolveLink(baseURL, item.Link),
			Summary: item.Description,
			Content: item.Content,
		}
		if len(item.Authors) > 0 {
			e.Author = item.Authors[0].Name
		}
		if item.PublishedParsed != nil {
			e.Date = *item.PublishedParsed
		} else if item.UpdatedParsed != nil {
			e.Date = *item.UpdatedParsed
		}
		feed.Entries = append(feed.Entries, e)
	}
	return feed, nil
}

// resolveLink resolves ref against base. Absolute refs pass through; refs
// that cannot be parsed are returned as-is.
func resolveLink(base, ref string) string {
	if ref == "" {
		return ""
	}
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}
