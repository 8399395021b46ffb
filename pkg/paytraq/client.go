package paytraq

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the PayTraq API base URL.
	DefaultBaseURL = "https://go.paytraq.com/api"

	// DefaultMaxPages caps a single catalog walk.
	DefaultMaxPages = 500

	// DefaultPageDelay is the courtesy pause between catalog pages.
	DefaultPageDelay = 400 * time.Millisecond
)

// Sentinel errors for the upstream failure taxonomy.
var (
	ErrUnauthorized = errors.New("paytraq: unauthorized")
	ErrHTTPStatus   = errors.New("paytraq: upstream http error")
	ErrParse        = errors.New("paytraq: parse error")
)

// Config carries PayTraq client parameters.
type Config struct {
	BaseURL   string
	APIKey    string
	APIToken  string
	PageDelay time.Duration
	MaxPages  int
}

// Client is a minimal HTTP client for the PayTraq API. The API key and
// token are sent both as headers and as query parameters, matching what
// the upstream accepts.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	apiKey      string
	apiToken    string
	pageLimiter *rate.Limiter
	maxPages    int
	debug       bool
}

// NewClient constructs a new PayTraq client with sane defaults.
func NewClient(cfg Config) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	pageDelay := cfg.PageDelay
	if pageDelay <= 0 {
		pageDelay = DefaultPageDelay
	}
	maxPages := cfg.MaxPages
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}
	return &Client{
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		baseURL:     baseURL,
		apiKey:      cfg.APIKey,
		apiToken:    cfg.APIToken,
		pageLimiter: rate.NewLimiter(rate.Every(pageDelay), 1),
		maxPages:    maxPages,
		debug:       os.Getenv("ENV") == "development",
	}
}

// HasCredentials reports whether both the API key and token are set.
func (c *Client) HasCredentials() bool {
	return c.apiKey != "" && c.apiToken != ""
}

// FetchOptions controls a catalog walk.
type FetchOptions struct {
	// Suppliers asks the upstream to include supplier detail per product.
	Suppliers bool
	// UpdatedAfter, when set, is passed through as an updated-after filter.
	UpdatedAfter string
	// MaxPages overrides the client-level page ceiling when > 0.
	MaxPages int
}

// FetchAllProducts walks /products page by page and collects every record.
// Pages are requested sequentially starting at 1; the walk stops on the
// first empty page, on an upstream error, or at the page ceiling (partial
// result, noted in the debug trail). The returned debug slice carries one
// "page=N status=S" line per request.
func (c *Client) FetchAllProducts(ctx context.Context, opts FetchOptions) ([]Product, []string, error) {
	maxPages := c.maxPages
	if opts.MaxPages > 0 {
		maxPages = opts.MaxPages
	}

	collected := []Product{}
	debug := []string{}

	for page := 1; page <= maxPages; page++ {
		// Blocks only this goroutine; concurrent requests keep running.
		if err := c.pageLimiter.Wait(ctx); err != nil {
			return nil, debug, fmt.Errorf("page delay interrupted: %w", err)
		}

		params := url.Values{}
		if opts.Suppliers {
			params.Set("suppliers", "true")
		}
		if opts.UpdatedAfter != "" {
			params.Set("timestamp", opts.UpdatedAfter)
		}
		params.Set("page", strconv.Itoa(page))

		status, body, err := c.get(ctx, "/products", params)
		if err != nil {
			debug = append(debug, fmt.Sprintf("page=%d request error: %v", page, err))
			return nil, debug, err
		}
		debug = append(debug, fmt.Sprintf("page=%d status=%d", page, status))

		if status == http.StatusUnauthorized {
			debug = append(debug, "Unauthorized (401) — check PAYTRAQ_API_KEY / PAYTRAQ_API_TOKEN")
			return nil, debug, fmt.Errorf("%w: check PAYTRAQ_API_KEY / PAYTRAQ_API_TOKEN", ErrUnauthorized)
		}
		if status >= http.StatusBadRequest {
			snippet := bodySnippet(body, 300)
			debug = append(debug, fmt.Sprintf("HTTP %d body_snippet=%s", status, snippet))
			return nil, debug, fmt.Errorf("%w: HTTP %d body_snippet=%s", ErrHTTPStatus, status, snippet)
		}

		items, err := ParseProducts(body)
		if err != nil {
			debug = append(debug, fmt.Sprintf("page=%d %s", page, bodySnippet([]byte(err.Error()), 300)))
			return nil, debug, err
		}
		if len(items) == 0 {
			// End of catalog.
			return collected, debug, nil
		}
		collected = append(collected, items...)

		if page == maxPages {
			debug = append(debug, fmt.Sprintf("page ceiling %d reached, result may be incomplete", maxPages))
		}
	}

	return collected, debug, nil
}

// get performs a GET against the PayTraq API, attaching the credential
// pair as both headers and query parameters.
func (c *Client) get(ctx context.Context, path string, params url.Values) (int, []byte, error) {
	if params == nil {
		params = url.Values{}
	}
	if params.Get("APIKey") == "" {
		params.Set("APIKey", c.apiKey)
	}
	if params.Get("APIToken") == "" {
		params.Set("APIToken", c.apiToken)
	}

	fullURL := c.baseURL + "/" + strings.TrimLeft(path, "/") + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("APIKey", c.apiKey)
	req.Header.Set("APIToken", c.apiToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read response: %w", err)
	}

	if c.debug {
		log.Debug().
			Str("path", path).
			Int("status_code", resp.StatusCode).
			Int("body_bytes", len(body)).
			Msg("[PAYTRAQ] Incoming response")
	}
	return resp.StatusCode, body, nil
}

// bodySnippet truncates a response body for diagnostics, stripping newlines.
func bodySnippet(body []byte, max int) string {
	s := string(body)
	if len(s) > max {
		s = s[:max]
	}
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "\r", " ")
}
