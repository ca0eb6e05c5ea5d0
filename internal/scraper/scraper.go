// Package scraper extracts feed entries from plain HTML pages using
// CSS-selector rules, for sources that publish no RSS/Atom feed.
package scraper

import (
	"bytes"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"feedmailer/internal/model"
)

// Scrape applies rule to raw HTML and returns the extracted feed. It always
// succeeds structurally: unparseable input or selectors matching nothing
// yield an empty feed. Relative links are resolved against baseURL.
func Scrape(baseURL string, rule model.ScrapeRule, data []byte) model.Feed {
	feed := model.Feed{Link: baseURL}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return feed
	}

	feed.Title = strings.TrimSpace(doc.Find("title").First().Text())

	doc.Find(rule.Entry).Each(func(_ int, sel *goquery.Selection) {
		var e model.Entry
		if rule.Title != "" {
			e.Title = strings.TrimSpace(sel.Find(rule.Title).First().Text())
		}
		if rule.Link != "" {
			if href, ok := findHref(sel, rule.Link); ok {
				e.Link = resolveLink(baseURL, href)
			}
		}
		if rule.Content != "" {
			if html, err := sel.Find(rule.Content).First().Html(); err == nil {
				e.Content = strings.TrimSpace(html)
			}
		}
		if e.Title == "" && e.Link == "" && e.Content == "" {
			return
		}
		feed.Entries = append(feed.Entries, e)
	})

	return feed
}

// findHref returns the href of the selected element, or of the first anchor
// beneath it when the selector points at a container.
func findHref(sel *goquery.Selection, selector string) (string, bool) {
	target := sel.Find(selector).First()
	if href, ok := target.Attr("href"); ok {
		return href, true
	}
	return target.Find("a[href]").First().Attr("href")
}

func resolveLink(base, ref string) string {
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
