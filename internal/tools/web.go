package tools

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	bravesearch "github.com/cnosuke/go-brave-search"
)

const maxWebOutputBytes = 10_000

var htmlTagRe = regexp.MustCompile(`<[^>]*>`)

// Web searches the web via Brave Search or fetches the text content of a
// URL. Used by the assistant to answer questions that need live information.
type Web struct {
	brave *bravesearch.Client
	http  *http.Client
}

// NewWeb creates the web tool. The Brave API key may be empty, in which case
// only fetch works.
func NewWeb(braveAPIKey string) *Web {
	client, _ := bravesearch.NewClient(braveAPIKey)
	return &Web{
		brave: client,
		http:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (w *Web) Name() string { return "web" }

func (w *Web) Description() string {
	return "Search the web or fetch the text content of a URL"
}

func (w *Web) Schema() Schema {
	return Schema{Params: map[string]Param{
		"action": {
			Type:        "string",
			Description: "Operation: search the web or fetch a URL",
			Required:    true,
			Enum:        []string{"search", "fetch"},
		},
		"query": {
			Type:        "string",
			Description: "Search query (required for search action)",
		},
		"url": {
			Type:        "string",
			Description: "URL to fetch (required for fetch action)",
		},
		"count": {
			Type:        "integer",
			Description: "Number of search results to return (default 5, max 20)",
		},
	}}
}

func (w *Web) Invoke(ctx context.Context, args map[string]any) (string, error) {
	action, _ := args["action"].(string)
	switch action {
	case "search":
		query, _ := args["query"].(string)
		count := 0
		if f, ok := args["count"].(float64); ok {
			count = int(f)
		}
		return w.search(ctx, query, count)
	case "fetch":
		url, _ := args["url"].(string)
		return w.fetch(ctx, url)
	default:
		return "", fmt.Errorf("unknown action: %s", action)
	}
}

func (w *Web) search(ctx context.Context, query string, count int) (string, error) {
	if query == "" {
		return "", fmt.Errorf("query is required for search action")
	}
	if count <= 0 {
		count = 5
	}
	if count > 20 {
		count = 20
	}

	slog.Debug("web: searching", "query", query, "count", count)

	resp, err := w.brave.WebSearch(ctx, query, &bravesearch.WebSearchParams{
		Count: count,
	})
	if err != nil {
		return "", fmt.Errorf("brave search: %w", err)
	}

	results := resp.GetWebResults()
	if len(results) == 0 {
		return "No results found.", nil
	}

	var b strings.Builder
	for i, r := range results {
		if i > 0 {
			b.WriteString("\n---\n")
		}
		fmt.Fprintf(&b, "%s\n%s\n%s", r.Title, r.URL, r.Description)
	}

	return truncateOutput(b.String()), nil
}

func (w *Web) fetch(ctx context.Context, url string) (string, error) {
	if url == "" {
		return "", fmt.Errorf("url is required for fetch action")
	}

	slog.Debug("web: fetching", "url", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", "altair/0.1")

	resp, err := w.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching url: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("HTTP %d %s", resp.StatusCode, resp.Status)
	}

	const maxBody = 100 * 1024 // 100KB
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	text := htmlTagRe.ReplaceAllString(string(body), "")
	// Collapse whitespace runs into single spaces.
	text = strings.Join(strings.Fields(text), " ")

	return truncateOutput(text), nil
}

func truncateOutput(s string) string {
	if len(s) > maxWebOutputBytes {
		return s[:maxWebOutputBytes] + "\n... (truncated)"
	}
	return s
}
