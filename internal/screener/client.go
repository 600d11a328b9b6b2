package screener

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/wonny/papertrade/internal/contracts"
	"github.com/wonny/papertrade/pkg/httputil"
	"github.com/wonny/papertrade/pkg/logger"
)

// Client scrapes screen result tables and company pages
// ⭐ SSOT: upstream screener HTTP calls only happen here
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
}

var _ contracts.MetricsSource = (*Client)(nil)

// NewClient creates a new screener client
func NewClient(httpClient *httputil.Client, baseURL string, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// FetchPage fetches and parses one page of a screen
func (c *Client) FetchPage(ctx context.Context, sourceURL string, page int) (*contracts.CandidatePage, error) {
	pageURL, err := PageURL(c.resolve(sourceURL), page)
	if err != nil {
		return nil, err
	}

	body, err := c.httpClient.GetHTML(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("fetch screen page %d: %w", page, err)
	}

	result, err := ParsePage(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	result.Page = page

	c.logger.WithFields(map[string]interface{}{
		"page":     page,
		"rows":     len(result.Rows),
		"has_next": result.HasNext,
	}).Debug("Fetched screen page")

	return result, nil
}

// FetchCurrentPrice fetches the live price from the company page
func (c *Client) FetchCurrentPrice(ctx context.Context, stockCode string) (float64, error) {
	if stockCode == "" {
		return 0, fmt.Errorf("stock code is required")
	}

	companyURL := fmt.Sprintf("%s/company/%s/", c.baseURL, url.PathEscape(stockCode))
	body, err := c.httpClient.GetHTML(ctx, companyURL)
	if err != nil {
		return 0, fmt.Errorf("fetch company page %s: %w", stockCode, err)
	}

	price, err := ParseCurrentPrice(bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("parse price for %s: %w", stockCode, err)
	}
	return price, nil
}

// resolve turns a site-relative screen path into an absolute URL
func (c *Client) resolve(sourceURL string) string {
	if strings.HasPrefix(sourceURL, "/") {
		return c.baseURL + sourceURL
	}
	return sourceURL
}

// PageURL sets the page query parameter on a screen URL
func PageURL(sourceURL string, page int) (string, error) {
	if page < 1 {
		return "", fmt.Errorf("page must be >= 1, got %d", page)
	}

	u, err := url.Parse(sourceURL)
	if err != nil {
		return "", fmt.Errorf("invalid screen url %q: %w", sourceURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("screen url must be http(s): %q", sourceURL)
	}

	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()
	return u.String(), nil
}
