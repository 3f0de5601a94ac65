// Copyright 2025 Finsight Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package source

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/finsight/lendex/core"
)

const (
	defaultFilingPageSize = 100

	dateIssuedLayout = "2006-01-02"
)

// FilingClient pages through a publishing API's collection endpoint.
// The endpoint is cursor-based: each response carries a nextPage URL whose
// offsetMark query parameter is the cursor for the following page.
type FilingClient struct {
	baseURL    string
	collection string
	start      time.Time
	end        time.Time
	pageSize   int
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

// FilingClientOption is a functional option for configuring a FilingClient.
type FilingClientOption func(*FilingClient)

// WithPageSize sets the number of filings requested per page.
func WithPageSize(size int) FilingClientOption {
	return func(c *FilingClient) {
		if size > 0 {
			c.pageSize = size
		}
	}
}

// WithAPIKey sets the API key sent with each request.
func WithAPIKey(key string) FilingClientOption {
	return func(c *FilingClient) {
		c.apiKey = key
	}
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(client *http.Client) FilingClientOption {
	return func(c *FilingClient) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewFilingClient creates a client for one collection and date window.
// The window bounds which filings are returned; pagination within the
// window is driven entirely by cursors.
func NewFilingClient(baseURL, collection string, start, end time.Time, opts ...FilingClientOption) *FilingClient {
	c := &FilingClient{
		baseURL:    baseURL,
		collection: collection,
		start:      start,
		end:        end,
		pageSize:   defaultFilingPageSize,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     slog.Default().With("component", "filing-client"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// packageSummary is the wire representation of one filing.
type packageSummary struct {
	PackageID    string `json:"packageId"`
	Title        string `json:"title"`
	DocClass     string `json:"docClass"`
	DateIssued   string `json:"dateIssued"`
	LastModified string `json:"lastModified"`
	PageCount    int    `json:"pageCount"`
}

// packagesResponse is the wire representation of one page.
type packagesResponse struct {
	Count    int              `json:"count"`
	Packages []packageSummary `json:"packages"`
	NextPage string           `json:"nextPage"`
}

// Fetch retrieves the page of filings at the given cursor.
//
// Any transport error or non-200 status is wrapped in a *FetchError and is
// terminal: the caller must not retry, because the remote cursor state is
// unknown after a failure.
func (c *FilingClient) Fetch(ctx context.Context, cursor Cursor) (*Page[core.Filing], error) {
	if cursor == "" {
		return nil, ErrInvalidCursor
	}

	reqURL := c.pageURL(cursor)
	// FetchError messages end up in operator logs, so they carry the
	// redacted form of the URL, never the API key.
	errURL := redactAPIKey(reqURL)
	c.logger.Debug("fetching filings page", "collection", c.collection, "cursor", string(cursor))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &FetchError{URL: errURL, Err: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{URL: errURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{StatusCode: resp.StatusCode, URL: errURL}
	}

	var body packagesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, &FetchError{URL: errURL, Err: err}
	}

	page := &Page[core.Filing]{
		Records: make([]core.Filing, 0, len(body.Packages)),
	}
	for _, pkg := range body.Packages {
		filing, err := filingFromSummary(c.collection, pkg)
		if err != nil {
			c.logger.Warn("skipping malformed package", "packageId", pkg.PackageID, "err", err)
			continue
		}
		page.Records = append(page.Records, filing)
	}

	if body.NextPage != "" {
		next, err := cursorFromNextPage(body.NextPage)
		if err != nil {
			return nil, &FetchError{URL: errURL, Err: err}
		}
		page.Next = next
		page.HasNext = true
	}

	return page, nil
}

// pageURL builds the request URL for one page.
func (c *FilingClient) pageURL(cursor Cursor) string {
	q := url.Values{}
	q.Set("offsetMark", string(cursor))
	q.Set("pageSize", fmt.Sprintf("%d", c.pageSize))
	if c.apiKey != "" {
		q.Set("api_key", c.apiKey)
	}
	return fmt.Sprintf("%s/collections/%s/%s/%s?%s",
		c.baseURL,
		url.PathEscape(c.collection),
		c.start.UTC().Format(time.RFC3339),
		c.end.UTC().Format(time.RFC3339),
		q.Encode())
}

// redactAPIKey masks the api_key query parameter in a request URL.
func redactAPIKey(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	if q.Has("api_key") {
		q.Set("api_key", "REDACTED")
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// cursorFromNextPage extracts the offsetMark cursor from a nextPage URL.
func cursorFromNextPage(nextPage string) (Cursor, error) {
	u, err := url.Parse(nextPage)
	if err != nil {
		return "", fmt.Errorf("parsing nextPage URL: %w", err)
	}
	mark := u.Query().Get("offsetMark")
	if mark == "" {
		return "", fmt.Errorf("nextPage URL missing offsetMark: %s", nextPage)
	}
	return Cursor(mark), nil
}

// filingFromSummary converts a wire package into a domain filing.
func filingFromSummary(collection string, pkg packageSummary) (core.Filing, error) {
	if pkg.PackageID == "" {
		return core.Filing{}, fmt.Errorf("package missing packageId")
	}

	issued, err := time.Parse(dateIssuedLayout, pkg.DateIssued)
	if err != nil {
		return core.Filing{}, fmt.Errorf("parsing dateIssued %q: %w", pkg.DateIssued, err)
	}

	modified := issued
	if pkg.LastModified != "" {
		modified, err = time.Parse(time.RFC3339, pkg.LastModified)
		if err != nil {
			return core.Filing{}, fmt.Errorf("parsing lastModified %q: %w", pkg.LastModified, err)
		}
	}

	return core.Filing{
		PackageID:    pkg.PackageID,
		Title:        pkg.Title,
		Collection:   collection,
		Category:     pkg.DocClass,
		DateIssued:   issued.UTC(),
		LastModified: modified.UTC(),
		PageCount:    pkg.PageCount,
	}, nil
}
