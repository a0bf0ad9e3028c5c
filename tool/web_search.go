package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"github.com/hupe1980/fittelligence/core"
)

const (
	// DefaultSearchEndpoint is the DuckDuckGo instant answer API.
	DefaultSearchEndpoint = "https://api.duckduckgo.com/"
	defaultUserAgent      = "fittelligence-web-search/1.0"
	maxRelatedTopics      = 5
	maxPageBytes          = 2 << 20
)

// WebSearchOptions configures the web search tool.
type WebSearchOptions struct {
	Endpoint string
	Timeout  time.Duration
	// FetchTopResult downloads the abstract source page and appends a
	// markdown excerpt.
	FetchTopResult bool
	MaxExcerpt     int
	HTTPClient     *http.Client
	UserAgent      string
}

// WebSearch looks up fitness, nutrition and health information through an
// instant answer API.
type WebSearch struct {
	opts WebSearchOptions
}

// NewWebSearch creates the web_search tool.
func NewWebSearch(optFns ...func(o *WebSearchOptions)) *WebSearch {
	opts := WebSearchOptions{
		Endpoint:   DefaultSearchEndpoint,
		Timeout:    10 * time.Second,
		MaxExcerpt: 4000,
		UserAgent:  defaultUserAgent,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Timeout}
	}

	return &WebSearch{opts: opts}
}

// Name implements Tool.
func (w *WebSearch) Name() string { return "web_search" }

// Description implements Tool.
func (w *WebSearch) Description() string {
	return "Search the web for current information such as exercise research, nutrition facts, health conditions and assessment protocols. Returns abstracts, answers, definitions and related topics."
}

// Parameters implements Tool.
func (w *WebSearch) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{"type": "string", "description": "The search query"},
		},
		"required": []string{"query"},
	}
}

type ddgResponse struct {
	AbstractText  string `json:"AbstractText"`
	AbstractURL   string `json:"AbstractURL"`
	Answer        string `json:"Answer"`
	Definition    string `json:"Definition"`
	RelatedTopics []struct {
		Text string `json:"Text"`
	} `json:"RelatedTopics"`
}

// Call implements Tool. The result is a plain text summary.
func (w *WebSearch) Call(toolCtx *core.ToolContext, args map[string]any) (any, error) {
	query, _ := args["query"].(string)
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, NewToolError(w.Name(), "query must not be empty", CodeValidation)
	}

	logger := toolCtx.Logger()
	logger.Debug("tool.web_search.query", "query", query)

	resp, err := w.search(toolCtx.Context(), query)
	if err != nil {
		return nil, NewToolError(w.Name(), err.Error(), CodeExecution)
	}

	summary := summarize(resp)

	if w.opts.FetchTopResult && resp.AbstractURL != "" {
		excerpt, err := w.fetchMarkdown(toolCtx.Context(), resp.AbstractURL)
		if err != nil {
			logger.Warn("tool.web_search.fetch_failed", "url", resp.AbstractURL, "error", err.Error())
		} else if excerpt != "" {
			summary += "\n\nExcerpt:\n" + excerpt
		}
	}

	return summary, nil
}

func (w *WebSearch) search(ctx context.Context, query string) (*ddgResponse, error) {
	params := url.Values{}
	params.Add("q", query)
	params.Add("format", "json")
	params.Add("no_html", "1")
	params.Add("skip_disambig", "1")

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, w.opts.Endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	httpReq.Header.Set("User-Agent", w.opts.UserAgent)

	resp, err := w.opts.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var out ddgResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("error parsing response: %w", err)
	}

	return &out, nil
}

func summarize(resp *ddgResponse) string {
	var results []string

	if resp.AbstractText != "" {
		results = append(results, "Abstract: "+resp.AbstractText)
		if resp.AbstractURL != "" {
			results = append(results, "Source: "+resp.AbstractURL)
		}
	}

	if resp.Answer != "" {
		results = append(results, "Answer: "+resp.Answer)
	}

	if resp.Definition != "" {
		results = append(results, "Definition: "+resp.Definition)
	}

	var topics []string
	for i, topic := range resp.RelatedTopics {
		if i >= maxRelatedTopics {
			break
		}
		if topic.Text != "" {
			topics = append(topics, topic.Text)
		}
	}
	if len(topics) > 0 {
		results = append(results, "Related topics: "+strings.Join(topics, "; "))
	}

	if len(results) == 0 {
		return "No results found for this query."
	}

	return strings.Join(results, "\n\n")
}

func (w *WebSearch) fetchMarkdown(ctx context.Context, pageURL string) (string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("User-Agent", w.opts.UserAgent)

	resp, err := w.opts.HTTPClient.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", err
	}

	markdown, err := htmltomarkdown.ConvertString(string(body))
	if err != nil {
		return "", fmt.Errorf("convert html: %w", err)
	}

	markdown = strings.TrimSpace(markdown)
	if w.opts.MaxExcerpt > 0 && len(markdown) > w.opts.MaxExcerpt {
		cut := w.opts.MaxExcerpt
		for cut > 0 && !utf8.RuneStart(markdown[cut]) {
			cut--
		}
		markdown = markdown[:cut] + "..."
	}

	return markdown, nil
}
