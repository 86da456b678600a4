package directive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"
)

// Unfurler resolves a URL to an embeddable HTML snippet.
type Unfurler interface {
	Unfurl(ctx context.Context, url string) (string, error)
}

// UnfurlerFunc adapts a function to Unfurler.
type UnfurlerFunc func(ctx context.Context, url string) (string, error)

func (f UnfurlerFunc) Unfurl(ctx context.Context, url string) (string, error) {
	return f(ctx, url)
}

// HTTPUnfurler discovers oEmbed endpoints through the page's
// <link rel="alternate" type="application/json+oembed"> tag.
type HTTPUnfurler struct {
	client *http.Client
}

// NewHTTPUnfurler creates an HTTPUnfurler. A nil client gets a 10s timeout.
func NewHTTPUnfurler(client *http.Client) *HTTPUnfurler {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPUnfurler{client: client}
}

// maxPageBytes bounds how much of a page is scanned for the oEmbed link.
const maxPageBytes = 1 << 20

func (u *HTTPUnfurler) Unfurl(ctx context.Context, url string) (string, error) {
	body, err := u.get(ctx, url)
	if err != nil {
		return "", &LookupError{URL: url, Err: err}
	}
	defer body.Close()

	endpoint, err := findOEmbed(io.LimitReader(body, maxPageBytes))
	if err != nil {
		return "", &LookupError{URL: url, Err: err}
	}

	oembed, err := u.get(ctx, endpoint)
	if err != nil {
		return "", &LookupError{URL: url, Err: err}
	}
	defer oembed.Close()

	var payload struct {
		HTML string `json:"html"`
	}
	if err := json.NewDecoder(oembed).Decode(&payload); err != nil {
		return "", &LookupError{URL: url, Err: fmt.Errorf("decode oembed: %w", err)}
	}
	if payload.HTML == "" {
		return "", &LookupError{URL: url, Err: errors.New("oembed has no html")}
	}
	return payload.HTML, nil
}

func (u *HTTPUnfurler) get(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := u.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return resp.Body, nil
}

// findOEmbed scans the document head for a JSON oEmbed link.
func findOEmbed(r io.Reader) (string, error) {
	z := html.NewTokenizer(r)
	for {
		switch z.Next() {
		case html.ErrorToken:
			if errors.Is(z.Err(), io.EOF) {
				return "", errors.New("no oembed link")
			}
			return "", z.Err()
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			if tok.Data == "body" {
				return "", errors.New("no oembed link")
			}
			if tok.Data != "link" {
				continue
			}

			var rel, typ, href string
			for _, a := range tok.Attr {
				switch a.Key {
				case "rel":
					rel = a.Val
				case "type":
					typ = a.Val
				case "href":
					href = a.Val
				}
			}
			if strings.EqualFold(rel, "alternate") && strings.EqualFold(typ, "application/json+oembed") && href != "" {
				return href, nil
			}
		}
	}
}
