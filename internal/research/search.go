package research

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

const (
	DefaultSearchURL = "https://html.duckduckgo.com/html/"
	userAgent        = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
)

// Result is a single web search hit.
type Result struct {
	Title string
	URL   string
}

// Searcher finds pages about a company.
type Searcher interface {
	Search(ctx context.Context, query string, max int) ([]Result, error)
}

// DuckDuckGo queries the HTML endpoint of DuckDuckGo, which needs no API key.
type DuckDuckGo struct {
	client  *http.Client
	baseURL string
}

func NewDuckDuckGo(client *http.Client, baseURL string) *DuckDuckGo {
	if client == nil {
		client = http.DefaultClient
	}
	if baseURL == "" {
		baseURL = DefaultSearchURL
	}
	return &DuckDuckGo{client: client, baseURL: baseURL}
}

func (d *DuckDuckGo) Search(ctx context.Context, query string, max int) ([]Result, error) {
	u, err := url.Parse(d.baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse search url: %w", err)
	}
	q := u.Query()
	q.Set("q", query)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search %q: unexpected status %s", query, resp.Status)
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse search results: %w", err)
	}
	return collectResults(doc, max), nil
}

func collectResults(doc *html.Node, max int) []Result {
	var (
		results []Result
		seen    = map[string]bool{}
		walk    func(*html.Node)
	)
	walk = func(n *html.Node) {
		if max > 0 && len(results) >= max {
			return
		}
		if n.Type == html.ElementNode && n.Data == "a" && hasClass(n, "result__a") {
			if link := resultURL(attr(n, "href")); link != "" && !seen[link] {
				seen[link] = true
				results = append(results, Result{Title: nodeText(n), URL: link})
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return results
}

// resultURL unwraps DuckDuckGo redirect links and drops ads.
func resultURL(href string) string {
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	if strings.HasSuffix(u.Host, "duckduckgo.com") {
		return ""
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	return u.String()
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}
