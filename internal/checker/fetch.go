package checker

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/net/html"
)

// ButtonClass marks the purchase buttons on a product page.
const ButtonClass = "product-add__button"

// maxPageBytes caps how much of a page is parsed.
const maxPageBytes = 8 << 20

// HTTPFetcher loads product pages over plain HTTP and extracts the purchase
// buttons from the static HTML.
type HTTPFetcher struct {
	httpClient *http.Client
	userAgent  string
}

// NewHTTPFetcher creates a fetcher. The per-request deadline comes from the
// context passed to FetchButtons.
func NewHTTPFetcher(userAgent string) *HTTPFetcher {
	return &HTTPFetcher{
		userAgent: userAgent,
		httpClient: &http.Client{
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 5 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
	}
}

// FetchButtons implements Fetcher.
func (f *HTTPFetcher) FetchButtons(ctx context.Context, url string) ([]Button, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	req.Header.Set("Accept", "text/html")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to load page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return ExtractButtons(io.LimitReader(resp.Body, maxPageBytes))
}

// ExtractButtons parses HTML and returns every <button> or <a> element with
// the purchase button class, in document order.
func ExtractButtons(r io.Reader) ([]Button, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}

	var buttons []Button
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "button" || n.Data == "a") {
			class := getAttr(n, "class")
			if hasClass(class, ButtonClass) {
				_, hiddenAttr := lookupAttr(n, "hidden")
				buttons = append(buttons, Button{
					Text:   extractText(n),
					Hidden: hiddenAttr || strings.Contains(class, "hidden"),
				})
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return buttons, nil
}

func getAttr(n *html.Node, key string) string {
	v, _ := lookupAttr(n, key)
	return v
}

func lookupAttr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func hasClass(class, want string) bool {
	for _, c := range strings.Fields(class) {
		if c == want {
			return true
		}
	}
	return false
}

// extractText returns the element's text content with whitespace collapsed.
func extractText(n *html.Node) string {
	var b strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	return strings.Join(strings.Fields(b.String()), " ")
}
