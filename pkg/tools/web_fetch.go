package tools

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// webFetchTool fetches a URL and returns its text content with HTML tags
// stripped. Bodies are explicitly out of scope for production use (the
// Non-goals list rules out "arbitrary external tools"); this exists to
// exercise SecurityContext.HTTPTimeout end to end.
type webFetchTool struct {
	client *http.Client
}

// NewWebFetchTool returns the web_fetch tool.
func NewWebFetchTool() Tool {
	return &webFetchTool{client: &http.Client{}}
}

func (t *webFetchTool) Name() string       { return "web_fetch" }
func (t *webFetchTool) Category() Category { return CategoryReadOnly }

func (t *webFetchTool) Definition() Definition {
	return Definition{
		Name:        "web_fetch",
		Description: "Fetch content from a web URL. Returns the page text content (HTML tags stripped).",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"url":        map[string]any{"type": "string", "description": "The URL to fetch (must start with http:// or https://)"},
				"max_length": map[string]any{"type": "integer", "description": "Maximum characters to return (default: 50000, max: 100000)"},
			},
			"required": []string{"url"},
		},
	}
}

func (t *webFetchTool) Execute(ctx context.Context, input map[string]any, sec SecurityContext) Result {
	url, _ := input["url"].(string)
	if url == "" {
		return Error("missing 'url' parameter")
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return Error("URL must start with http:// or https://")
	}

	maxLength := 50_000
	if v, ok := input["max_length"].(float64); ok && v > 0 {
		maxLength = int(v)
		if maxLength > 100_000 {
			maxLength = 100_000
		}
	}

	timeout := sec.HTTPTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return Error(fmt.Sprintf("invalid request: %v", err))
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return Error(fmt.Sprintf("HTTP request failed: %v", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Error(fmt.Sprintf("HTTP %d for %s", resp.StatusCode, url))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return Error(fmt.Sprintf("failed to read response body: %v", err))
	}

	text := stripHTMLTags(string(body))
	truncated := text
	if len(text) > maxLength {
		truncated = fmt.Sprintf("%s...\n\n[Truncated: %d total chars]", text[:maxLength], len(text))
	}

	return Ok(fmt.Sprintf(`{"url":%q,"status":%d,"content":%q,"content_length":%d}`, url, resp.StatusCode, truncated, len(truncated)))
}

// stripHTMLTags removes <script>/<style> blocks and then any remaining tags,
// collapsing consecutive blank lines to one.
func stripHTMLTags(html string) string {
	lower := strings.ToLower(html)
	for _, tag := range []string{"script", "style"} {
		open := "<" + tag
		closeTag := "</" + tag + ">"
		for {
			start := strings.Index(lower, open)
			if start == -1 {
				break
			}
			end := strings.Index(lower[start:], closeTag)
			if end == -1 {
				break
			}
			endPos := start + end + len(closeTag)
			html = html[:start] + html[endPos:]
			lower = strings.ToLower(html)
		}
	}

	var out strings.Builder
	inTag := false
	for _, ch := range html {
		switch {
		case ch == '<':
			inTag = true
		case ch == '>':
			inTag = false
		case !inTag:
			out.WriteRune(ch)
		}
	}

	lines := strings.Split(out.String(), "\n")
	compressed := make([]string, 0, len(lines))
	blankRun := 0
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			blankRun++
			if blankRun <= 1 {
				compressed = append(compressed, "")
			}
			continue
		}
		blankRun = 0
		compressed = append(compressed, trimmed)
	}
	return strings.Join(compressed, "\n")
}
